package node

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
	"github/chapool/go-ethtx/internal/txn"
	"github/chapool/go-ethtx/internal/util"
)

var (
	ErrNoEndpoints         = errors.New("at least one node URL is required")
	ErrUnavailable         = errors.New("all nodes are unavailable")
	ErrTransactionNotFound = errors.New("transaction not found")
)

type client struct {
	cfg Config

	mu      sync.Mutex
	clients []*ethclient.Client
	current int
}

// NewService creates a node Service. Endpoints are dialed lazily on first
// use.
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService(cfg Config) (Service, error) {
	if len(cfg.URLs) == 0 {
		return nil, ErrNoEndpoints
	}

	return &client{
		cfg:     cfg,
		clients: make([]*ethclient.Client, len(cfg.URLs)),
	}, nil
}

func (c *client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, cl := range c.clients {
		if cl != nil {
			cl.Close()
			c.clients[i] = nil
		}
	}
}

func (c *client) ChainID(ctx context.Context) (uint64, error) {
	var id hexutil.Uint64
	err := c.call(ctx, "eth_chainId", func(ctx context.Context, cl *ethclient.Client) error {
		return cl.Client().CallContext(ctx, &id, "eth_chainId")
	})
	if err != nil {
		return 0, errors.Wrap(err, "failed to get chain ID")
	}

	return uint64(id), nil
}

func (c *client) CheckChain(ctx context.Context, want uint64) error {
	got, err := c.ChainID(ctx)
	if err != nil {
		return err
	}
	if got != want {
		return errors.Wrapf(txn.ErrChainIDMismatch, "node serves chain %d, want %d", got, want)
	}

	return nil
}

func (c *client) RawTransaction(ctx context.Context, hash common.Hash) ([]byte, error) {
	// null decodes to a nil pointer; unknown hashes come back that way.
	var raw *hexutil.Bytes
	err := c.call(ctx, "eth_getRawTransactionByHash", func(ctx context.Context, cl *ethclient.Client) error {
		return cl.Client().CallContext(ctx, &raw, "eth_getRawTransactionByHash", hash)
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get raw transaction")
	}
	if raw == nil || len(*raw) == 0 {
		return nil, errors.Wrap(ErrTransactionNotFound, hash.Hex())
	}

	return *raw, nil
}

func (c *client) SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error) {
	var hash common.Hash
	err := c.call(ctx, "eth_sendRawTransaction", func(ctx context.Context, cl *ethclient.Client) error {
		return cl.Client().CallContext(ctx, &hash, "eth_sendRawTransaction", hexutil.Bytes(raw))
	})
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "failed to send transaction")
	}

	return hash, nil
}

// call runs fn on the current endpoint and moves on to the next one on
// transport failures. An error answered by the node itself is returned as
// is, since another node of the same chain would answer the same.
func (c *client) call(ctx context.Context, method string, fn func(context.Context, *ethclient.Client) error) error {
	log := util.LogFromContext(ctx)

	c.mu.Lock()
	start := c.current
	c.mu.Unlock()

	var lastErr error
	for i := range c.cfg.URLs {
		idx := (start + i) % len(c.cfg.URLs)

		cl, err := c.dial(ctx, idx)
		if err == nil {
			err = c.invoke(ctx, cl, fn)
			if err == nil || isNodeError(err) {
				c.setCurrent(idx)
				return err
			}
		}
		if ctx.Err() != nil {
			return errors.Wrap(ctx.Err(), method)
		}

		log.Warn().Err(err).Str("url", c.cfg.URLs[idx]).Str("method", method).Msg("Node call failed, trying next node")
		c.drop(idx, cl)
		lastErr = err
	}

	return errors.Wrapf(ErrUnavailable, "%s: %v", method, lastErr)
}

func (c *client) invoke(ctx context.Context, cl *ethclient.Client, fn func(context.Context, *ethclient.Client) error) error {
	if c.cfg.Timeout <= 0 {
		return fn(ctx, cl)
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	return fn(ctx, cl)
}

func (c *client) dial(ctx context.Context, idx int) (*ethclient.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.clients[idx] != nil {
		return c.clients[idx], nil
	}
	cl, err := ethclient.DialContext(ctx, c.cfg.URLs[idx])
	if err != nil {
		return nil, errors.Wrapf(err, "failed to dial %s", c.cfg.URLs[idx])
	}
	c.clients[idx] = cl

	return cl, nil
}

func (c *client) drop(idx int, cl *ethclient.Client) {
	if cl == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.clients[idx] == cl {
		cl.Close()
		c.clients[idx] = nil
	}
}

func (c *client) setCurrent(idx int) {
	c.mu.Lock()
	c.current = idx
	c.mu.Unlock()
}

func isNodeError(err error) bool {
	var rpcErr rpc.Error
	return errors.As(err, &rpcErr)
}
