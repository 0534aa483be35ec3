package tx

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github/chapool/go-ethtx/internal/util"
	"github/chapool/go-ethtx/internal/util/command"
	"github/chapool/go-ethtx/internal/wallet/inspect"
)

func newDecode() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode [wire-hex...]",
		Short: "Decode signed transactions, recover their senders and print them in RPC form",
		Long: `Decode one or more signed transactions given as wire hex. Several inputs are
printed as a JSON array in argument order; repeated inputs are decoded once.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reports, err := decodeReports(cmd, args)
			if err != nil {
				return err
			}
			if len(reports) == 1 {
				return command.PrintJSON(cmd.OutOrStdout(), reports[0])
			}

			return command.PrintJSON(cmd.OutOrStdout(), reports)
		},
	}

	cmd.Flags().String(recordFlag, "", "decode a stored field array (JSON list of hex strings) from this file")

	return cmd
}

func decodeReports(cmd *cobra.Command, args []string) ([]*inspect.Report, error) {
	ctx := util.WithComponent(cmd.Context(), "inspect")
	rt := command.RuntimeFrom(ctx)

	svc, err := rt.Inspect()
	if err != nil {
		return nil, err
	}

	if recordFile, _ := cmd.Flags().GetString(recordFlag); recordFile != "" {
		fields, err := readRecord(cmd, recordFile)
		if err != nil {
			return nil, err
		}
		report, err := svc.DecodeRecord(ctx, fields)
		if err != nil {
			return nil, err
		}
		return []*inspect.Report{report}, nil
	}
	if len(args) == 0 {
		return nil, errors.New("pass wire hex or --record")
	}

	reports := make([]*inspect.Report, 0, len(args))
	for i, arg := range args {
		report, err := svc.Decode(ctx, arg)
		if err != nil {
			return nil, errors.Wrapf(err, "input %d", i)
		}
		reports = append(reports, report)
	}

	return reports, nil
}
