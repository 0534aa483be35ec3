package node

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Service talks to one or more JSON-RPC endpoints of the same chain,
// failing over to the next endpoint when one is unreachable.
type Service interface {
	ChainID(ctx context.Context) (uint64, error)

	// CheckChain fails with txn.ErrChainIDMismatch unless the node serves
	// the chain with id want.
	CheckChain(ctx context.Context, want uint64) error

	// RawTransaction returns the wire bytes of a transaction by hash.
	RawTransaction(ctx context.Context, hash common.Hash) ([]byte, error)

	// SendRawTransaction submits signed wire bytes and returns the hash
	// reported by the node.
	SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error)

	Close()
}

type Config struct {
	URLs []string
	// Timeout bounds each call on a single endpoint. Zero means no bound.
	Timeout time.Duration
}
