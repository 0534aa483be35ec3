package tx

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github/chapool/go-ethtx/internal/metrics"
	"github/chapool/go-ethtx/internal/txn"
	"github/chapool/go-ethtx/internal/util"
	"github/chapool/go-ethtx/internal/util/command"
	"github/chapool/go-ethtx/internal/wallet/node"
)

type sendResult struct {
	Kind string      `json:"kind"`
	Hash common.Hash `json:"hash"`
}

func newSend() *cobra.Command {
	return &cobra.Command{
		Use:   "send <wire-hex>",
		Short: "Verify a signed transaction locally and submit it to a node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := util.WithComponent(cmd.Context(), "node")
			rt := command.RuntimeFrom(ctx)

			svc, err := rt.Inspect()
			if err != nil {
				return err
			}
			signed, err := svc.Transaction(ctx, args[0])
			if err != nil {
				return err
			}

			nodes, err := dialNode(ctx, rt)
			if err != nil {
				return err
			}
			defer nodes.Close()

			res, err := broadcast(ctx, nodes, rt.Metrics, signed)
			if err != nil {
				return err
			}

			return command.PrintJSON(cmd.OutOrStdout(), res)
		},
	}
}

// broadcast submits signed and checks the node agrees on its hash.
func broadcast(ctx context.Context, nodes node.Service, m *metrics.Metrics, signed txn.SignedTransaction) (*sendResult, error) {
	log := util.LogFromContext(ctx)

	hash, err := nodes.SendRawTransaction(ctx, signed.Serialized())
	if err != nil {
		m.Failed(metrics.OpBroadcast, err)
		return nil, err
	}
	if hash != signed.Hash() {
		err := errors.Errorf("node returned hash %s for transaction %s", hash.Hex(), signed.Hash().Hex())
		m.Failed(metrics.OpBroadcast, err)
		return nil, err
	}
	m.Broadcast(signed.Kind())

	log.Info().Str("hash", hash.Hex()).Str("kind", signed.Kind().String()).Msg("Transaction broadcast")

	return &sendResult{Kind: signed.Kind().String(), Hash: hash}, nil
}
