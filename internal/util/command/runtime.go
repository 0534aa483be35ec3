package command

import (
	"context"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
	"github/chapool/go-ethtx/internal/config"
	"github/chapool/go-ethtx/internal/metrics"
	"github/chapool/go-ethtx/internal/txn"
	"github/chapool/go-ethtx/internal/wallet/inspect"
)

// Runtime is what the root command hands to its subcommands.
type Runtime struct {
	Config  config.Server
	Metrics *metrics.Metrics

	inspect inspect.Service
}

type runtimeKey struct{}

func WithRuntime(ctx context.Context, rt *Runtime) context.Context {
	return context.WithValue(ctx, runtimeKey{}, rt)
}

// RuntimeFrom returns the Runtime attached to ctx, or one built from the
// environment when a subcommand runs outside the root command.
func RuntimeFrom(ctx context.Context) *Runtime {
	if ctx != nil {
		if rt, ok := ctx.Value(runtimeKey{}).(*Runtime); ok {
			return rt
		}
	}

	return &Runtime{Config: config.DefaultServiceConfigFromEnv(), Metrics: metrics.New()}
}

func (rt *Runtime) Chain() txn.Chain {
	return txn.Chain(rt.Config.Chain.ID)
}

// Inspect returns the decode service shared by every command of one run, so
// a transaction decoded once is served from its cache afterwards.
//
//nolint:ireturn
func (rt *Runtime) Inspect() (inspect.Service, error) {
	if rt.inspect != nil {
		return rt.inspect, nil
	}

	svc, err := inspect.NewService(rt.Chain(), rt.Config.Inspect.CacheSize, rt.Metrics)
	if err != nil {
		return nil, err
	}
	rt.inspect = svc

	return svc, nil
}

// PrintJSON writes v indented to w.
func PrintJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.Wrap(err, "failed to encode output")
	}

	return nil
}
