package signer

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github/chapool/go-ethtx/internal/txn"
)

// Service signs transactions with keys derived from the unlocked seed.
type Service interface {
	// SignTransaction builds the transaction described by req and signs it
	// with the key at req.DerivationPath.
	SignTransaction(ctx context.Context, req *SignRequest) (*SignResponse, error)

	// SignBatch signs every request in parallel. Responses keep the order of
	// reqs; the first failure cancels the rest.
	SignBatch(ctx context.Context, reqs []*SignRequest) ([]*SignResponse, error)
}

// SignRequest represents a request to sign a transaction.
type SignRequest struct {
	Transaction *txn.RPCTransaction `json:"transaction"`
	// DerivationPath defaults to the configured path when empty.
	DerivationPath string `json:"derivationPath,omitempty"`
}

// SignResponse represents a signed transaction.
type SignResponse struct {
	Kind           string         `json:"kind"`
	RawTransaction hexutil.Bytes  `json:"raw"`
	TxHash         common.Hash    `json:"hash"`
	From           common.Address `json:"from"`
	Transaction    *txn.Display   `json:"transaction"`
}

// Config controls the signer.
type Config struct {
	Enabled     bool
	Concurrency int
	DefaultPath string
}
