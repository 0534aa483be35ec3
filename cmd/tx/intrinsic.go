package tx

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
	"github/chapool/go-ethtx/internal/txn"
	"github/chapool/go-ethtx/internal/util/command"
)

type intrinsicResult struct {
	Kind         string         `json:"kind"`
	IntrinsicGas hexutil.Uint64 `json:"intrinsicGas"`
}

func newIntrinsic() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "intrinsic [wire-hex...]",
		Short: "Print the intrinsic gas of a signed transaction or an RPC object",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := command.RuntimeFrom(cmd.Context())

			rpcFile, _ := cmd.Flags().GetString(rpcFlag)
			if rpcFile == "" {
				reports, err := decodeReports(cmd, args)
				if err != nil {
					return err
				}
				results := make([]intrinsicResult, len(reports))
				for i, report := range reports {
					results[i] = intrinsicResult{Kind: report.Kind, IntrinsicGas: report.IntrinsicGas}
				}
				if len(results) == 1 {
					return command.PrintJSON(cmd.OutOrStdout(), results[0])
				}
				return command.PrintJSON(cmd.OutOrStdout(), results)
			}

			txs, err := readRPC(cmd, rpcFile)
			if err != nil {
				return err
			}
			results := make([]intrinsicResult, 0, len(txs))
			for _, rpcTx := range txs {
				tx, err := txn.FromRPC(rpcTx, rt.Chain())
				if err != nil {
					return err
				}
				gas, err := tx.IntrinsicGas()
				if err != nil {
					return err
				}
				results = append(results, intrinsicResult{Kind: tx.Kind().String(), IntrinsicGas: hexutil.Uint64(gas)})
			}
			if len(results) == 1 {
				return command.PrintJSON(cmd.OutOrStdout(), results[0])
			}

			return command.PrintJSON(cmd.OutOrStdout(), results)
		},
	}

	cmd.Flags().String(rpcFlag, "", "compute for the RPC transaction JSON in this file (- for stdin)")
	cmd.Flags().String(recordFlag, "", "compute for a stored field array (JSON list of hex strings) in this file")

	return cmd
}
