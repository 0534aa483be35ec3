package signer

import (
	"context"

	"github.com/pkg/errors"
	"github/chapool/go-ethtx/internal/metrics"
	"github/chapool/go-ethtx/internal/txn"
	"github/chapool/go-ethtx/internal/util"
	"github/chapool/go-ethtx/internal/wallet/address"
	"github/chapool/go-ethtx/internal/wallet/seed"
	"golang.org/x/sync/errgroup"
)

var (
	ErrSigningDisabled    = errors.New("signing is disabled")
	ErrSeedNotInitialized = errors.New("seed not initialized")
	ErrFromMismatch       = errors.New("from address does not match private key")
	ErrEmptyRequest       = errors.New("sign request has no transaction")
)

type service struct {
	seedManager    seed.Manager
	addressService address.Service
	chain          txn.ChainContext
	config         Config
	metrics        *metrics.Metrics
}

// NewService creates a new signer Service. m may be nil.
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService(seedManager seed.Manager, addressService address.Service, chain txn.ChainContext, cfg Config, m *metrics.Metrics) (Service, error) {
	if chain == nil {
		return nil, errors.New("chain context is required")
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}

	return &service{
		seedManager:    seedManager,
		addressService: addressService,
		chain:          chain,
		config:         cfg,
		metrics:        m,
	}, nil
}

func (s *service) SignTransaction(ctx context.Context, req *SignRequest) (*SignResponse, error) {
	signed, err := s.sign(ctx, req)
	if err != nil {
		s.metrics.Failed(metrics.OpSign, err)
		return nil, err
	}

	s.metrics.Signed(signed.Kind())
	return &SignResponse{
		Kind:           signed.Kind().String(),
		RawTransaction: signed.Serialized(),
		TxHash:         signed.Hash(),
		From:           signed.Sender(),
		Transaction:    signed.Display(),
	}, nil
}

func (s *service) sign(ctx context.Context, req *SignRequest) (txn.SignedTransaction, error) {
	log := util.LogFromContext(ctx)

	if !s.config.Enabled {
		return nil, ErrSigningDisabled
	}
	if req == nil || req.Transaction == nil {
		return nil, ErrEmptyRequest
	}

	seedBytes := s.seedManager.Seed()
	if seedBytes == nil {
		return nil, ErrSeedNotInitialized
	}
	defer func() {
		for i := range seedBytes {
			seedBytes[i] = 0
		}
	}()

	tx, err := txn.FromRPC(req.Transaction, s.chain)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build transaction")
	}

	path := req.DerivationPath
	if path == "" {
		path = s.config.DefaultPath
	}
	privateKey, err := s.addressService.DerivePrivateKey(ctx, seedBytes, path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive private key")
	}
	defer address.Zero(privateKey)

	signed, err := tx.Sign(privateKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign transaction")
	}

	if from := req.Transaction.From; from != nil && *from != signed.Sender() {
		log.Warn().
			Str("from", from.Hex()).
			Str("derived", signed.Sender().Hex()).
			Str("path", path).
			Msg("Refusing to sign for a different account")
		return nil, ErrFromMismatch
	}

	log.Debug().
		Str("kind", signed.Kind().String()).
		Str("hash", signed.Hash().Hex()).
		Str("from", signed.Sender().Hex()).
		Msg("Signed transaction")

	return signed, nil
}

func (s *service) SignBatch(ctx context.Context, reqs []*SignRequest) ([]*SignResponse, error) {
	results := make([]*SignResponse, len(reqs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Concurrency)
	for i, req := range reqs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := s.SignTransaction(ctx, req)
			if err != nil {
				return errors.Wrapf(err, "request %d", i)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}
