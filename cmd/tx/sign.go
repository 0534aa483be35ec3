package tx

import (
	"context"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github/chapool/go-ethtx/internal/util"
	"github/chapool/go-ethtx/internal/util/command"
	"github/chapool/go-ethtx/internal/wallet"
	"github/chapool/go-ethtx/internal/wallet/node"
	"github/chapool/go-ethtx/internal/wallet/signer"
)

func newSign() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign RPC transaction objects with a key from the keystore",
		Long: `Sign one RPC transaction object, or an array of them, with the key at --path.
Arrays are signed in parallel and printed in input order. With --broadcast the
signed transactions are submitted one by one, stopping at the first rejection.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := util.WithComponent(cmd.Context(), "signer")
			rt := command.RuntimeFrom(ctx)

			rpcFile, _ := cmd.Flags().GetString(rpcFlag)
			if rpcFile == "" {
				return errors.New("--rpc is required")
			}
			txs, err := readRPC(cmd, rpcFile)
			if err != nil {
				return err
			}

			w, err := wallet.NewFromConfig(rt.Config)
			if err != nil {
				return err
			}
			password := wallet.PromptPassword
			if file, _ := cmd.Flags().GetString(passwordFileFlag); file != "" {
				if password, err = wallet.PasswordFromFile(file); err != nil {
					return err
				}
			}
			if err := w.Unlock(ctx, password); err != nil {
				return err
			}
			defer w.Seed.Clear()

			path, _ := cmd.Flags().GetString(pathFlag)
			svc, err := signer.NewService(w.Seed, w.Address, rt.Chain(), signer.Config{
				Enabled:     rt.Config.Signer.Enabled,
				Concurrency: rt.Config.Signer.Concurrency,
				DefaultPath: rt.Config.Wallet.DefaultPath,
			}, rt.Metrics)
			if err != nil {
				return err
			}

			var nodes node.Service
			if send, _ := cmd.Flags().GetBool(broadcastFlag); send {
				if nodes, err = dialNode(ctx, rt); err != nil {
					return err
				}
				defer nodes.Close()
			}

			reqs := make([]*signer.SignRequest, len(txs))
			for i, tx := range txs {
				reqs[i] = &signer.SignRequest{Transaction: tx, DerivationPath: path}
			}
			res, err := svc.SignBatch(ctx, reqs)
			if err != nil {
				return err
			}
			if nodes != nil {
				if err := broadcastSigned(ctx, nodes, rt, res); err != nil {
					return err
				}
			}

			if len(res) == 1 {
				return command.PrintJSON(cmd.OutOrStdout(), res[0])
			}

			return command.PrintJSON(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().String(rpcFlag, "", "RPC transaction JSON, object or array (- for stdin)")
	cmd.Flags().String(pathFlag, "", "derivation path, defaults to wallet.default_path")
	cmd.Flags().String(passwordFileFlag, "", "read the keystore password from this file instead of the terminal")
	cmd.Flags().Bool(broadcastFlag, false, "submit the signed transactions to node.urls in input order")

	return cmd
}

// broadcastSigned submits the responses in order. Nonces usually depend on
// that order, so the sends are sequential.
func broadcastSigned(ctx context.Context, nodes node.Service, rt *command.Runtime, res []*signer.SignResponse) error {
	svc, err := rt.Inspect()
	if err != nil {
		return err
	}
	for i, r := range res {
		signed, err := svc.Transaction(ctx, r.RawTransaction.String())
		if err != nil {
			return errors.Wrapf(err, "transaction %d", i)
		}
		if _, err := broadcast(ctx, nodes, rt.Metrics, signed); err != nil {
			return errors.Wrapf(err, "transaction %d", i)
		}
	}

	return nil
}
