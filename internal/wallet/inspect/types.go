package inspect

import (
	"context"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github/chapool/go-ethtx/internal/txn"
)

// Service decodes signed transactions for display.
type Service interface {
	// Classify reports the kind and type discriminant of wire hex without
	// decoding the payload.
	Classify(ctx context.Context, wireHex string) (*Classification, error)

	// Decode decodes wire hex (0x prefix optional).
	Decode(ctx context.Context, wireHex string) (*Report, error)

	// Transaction decodes wire hex into the signed transaction itself.
	// Repeated inputs are served from the cache.
	Transaction(ctx context.Context, wireHex string) (txn.SignedTransaction, error)

	// DecodeRecord decodes a stored raw field array.
	DecodeRecord(ctx context.Context, fields txn.RawFields) (*Report, error)
}

type Classification struct {
	Kind string         `json:"kind"`
	Type hexutil.Uint64 `json:"type"`
}

// Report is the decoded view of a signed transaction.
type Report struct {
	Kind         string         `json:"kind"`
	Transaction  *txn.Display   `json:"transaction"`
	Raw          hexutil.Bytes  `json:"raw"`
	IntrinsicGas hexutil.Uint64 `json:"intrinsicGas"`
	UpfrontCost  *hexutil.Big   `json:"upfrontCost"`
	AccessList   bool           `json:"supportsAccessList"`
}
