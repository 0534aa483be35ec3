package tx

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github/chapool/go-ethtx/internal/util"
	"github/chapool/go-ethtx/internal/util/command"
)

func newFetch() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch <hash>",
		Short: "Fetch a transaction from a node by hash and decode it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := util.WithComponent(cmd.Context(), "node")
			rt := command.RuntimeFrom(ctx)

			b, err := hexutil.Decode(args[0])
			if err != nil || len(b) != common.HashLength {
				return errors.Errorf("invalid transaction hash %q", args[0])
			}

			nodes, err := dialNode(ctx, rt)
			if err != nil {
				return err
			}
			defer nodes.Close()

			raw, err := nodes.RawTransaction(ctx, common.BytesToHash(b))
			if err != nil {
				return err
			}

			svc, err := rt.Inspect()
			if err != nil {
				return err
			}
			report, err := svc.Decode(ctx, hexutil.Encode(raw))
			if err != nil {
				return err
			}

			return command.PrintJSON(cmd.OutOrStdout(), report)
		},
	}
}
