package tx

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/logrusorgru/aurora"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github/chapool/go-ethtx/internal/txn"
	"github/chapool/go-ethtx/internal/util/command"
	"github/chapool/go-ethtx/internal/wallet/inspect"
)

func newClassify() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify [wire-hex]",
		Short: "Report the kind of a wire transaction or an RPC object",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := command.RuntimeFrom(cmd.Context())

			var results []*inspect.Classification
			rpcFile, _ := cmd.Flags().GetString(rpcFlag)
			switch {
			case rpcFile != "":
				txs, err := readRPC(cmd, rpcFile)
				if err != nil {
					return err
				}
				for _, tx := range txs {
					kind, typ, err := txn.ClassifyRPC(tx)
					if err != nil {
						return err
					}
					results = append(results, &inspect.Classification{Kind: kind.String(), Type: hexutil.Uint64(typ)})
				}
			case len(args) == 1:
				svc, err := rt.Inspect()
				if err != nil {
					return err
				}
				c, err := svc.Classify(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				results = append(results, c)
			default:
				return errors.New("pass wire hex or --rpc")
			}

			if asJSON, _ := cmd.Flags().GetBool(jsonFlag); asJSON {
				if len(results) == 1 {
					return command.PrintJSON(cmd.OutOrStdout(), results[0])
				}
				return command.PrintJSON(cmd.OutOrStdout(), results)
			}

			noColor, _ := cmd.Flags().GetBool(noColorFlag)
			au := aurora.NewAurora(!noColor)
			for _, c := range results {
				//nolint:forbidigo // Human readable output
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", kindWithColor(au, c.Kind), c.Type)
			}

			return nil
		},
	}

	cmd.Flags().String(rpcFlag, "", "classify the RPC transaction JSON in this file (- for stdin)")
	cmd.Flags().Bool(jsonFlag, false, "print JSON")
	cmd.Flags().Bool(noColorFlag, false, "disable colors")

	return cmd
}

func kindWithColor(au aurora.Aurora, kind string) string {
	if kind == txn.KindUnsupported.String() {
		return au.Red(kind).String()
	}

	return au.Green(kind).String()
}
