package inspect

import (
	"context"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"github/chapool/go-ethtx/internal/metrics"
	"github/chapool/go-ethtx/internal/txn"
	"github/chapool/go-ethtx/internal/util"
)

const defaultCacheSize = 1024

type service struct {
	chain   txn.ChainContext
	metrics *metrics.Metrics
	// decoded caches signed transactions by keccak256 of the wire bytes.
	// Signed values only hand out copies, so sharing them is safe.
	decoded *lru.Cache
}

// NewService creates an inspect Service. A cacheSize below 1 uses the
// default; m may be nil.
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService(chain txn.ChainContext, cacheSize int, m *metrics.Metrics) (Service, error) {
	if chain == nil {
		return nil, errors.New("chain context is required")
	}
	if cacheSize < 1 {
		cacheSize = defaultCacheSize
	}

	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create decode cache")
	}

	return &service{chain: chain, metrics: m, decoded: cache}, nil
}

func (s *service) Classify(_ context.Context, wireHex string) (*Classification, error) {
	b, err := txn.DecodeWireHex(wireHex)
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return nil, txn.ErrEmptyTransaction
	}

	typ := uint64(b[0])
	if b[0] >= 0xc0 {
		typ = uint64(txn.LegacyTxType)
	}

	return &Classification{
		Kind: txn.ClassifyByte(b[0], true).String(),
		Type: hexutil.Uint64(typ),
	}, nil
}

func (s *service) Decode(ctx context.Context, wireHex string) (*Report, error) {
	tx, err := s.Transaction(ctx, wireHex)
	if err != nil {
		return nil, err
	}

	return s.report(tx)
}

func (s *service) Transaction(ctx context.Context, wireHex string) (txn.SignedTransaction, error) {
	log := util.LogFromContext(ctx)

	b, err := txn.DecodeWireHex(wireHex)
	if err != nil {
		s.metrics.Failed(metrics.OpDecode, err)
		return nil, err
	}

	key := crypto.Keccak256Hash(b)
	if cached, ok := s.decoded.Get(key); ok {
		if tx, ok := cached.(txn.SignedTransaction); ok {
			log.Debug().Str("key", key.Hex()).Msg("Decode cache hit")
			s.metrics.DecodeCacheHit()
			return tx, nil
		}
	}

	tx, err := txn.FromWire(b, s.chain)
	if err != nil {
		s.metrics.Failed(metrics.OpDecode, err)
		return nil, errors.Wrap(err, "failed to decode transaction")
	}
	s.decoded.Add(key, tx)

	return tx, nil
}

func (s *service) DecodeRecord(_ context.Context, fields txn.RawFields) (*Report, error) {
	tx, err := txn.FromDatabaseRecord(fields, s.chain)
	if err != nil {
		s.metrics.Failed(metrics.OpDecode, err)
		return nil, errors.Wrap(err, "failed to decode record")
	}

	return s.report(tx)
}

func (s *service) report(tx txn.SignedTransaction) (*Report, error) {
	view := tx.ExecutionView()

	gas, err := view.BaseFee()
	if err != nil {
		return nil, err
	}

	r := &Report{
		Kind:         tx.Kind().String(),
		Transaction:  tx.Display(),
		Raw:          tx.Serialized(),
		IntrinsicGas: hexutil.Uint64(gas),
		AccessList:   view.Supports(txn.CapabilityAccessList),
	}

	// An overflowing upfront cost is reported as null; the transaction
	// itself is still well formed.
	if cost, err := view.UpfrontCost(); err == nil {
		r.UpfrontCost = (*hexutil.Big)(cost.ToBig())
	}

	s.metrics.Decoded(tx.Kind())
	return r, nil
}
