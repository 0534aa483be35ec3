package keystore

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github/chapool/go-ethtx/internal/util"
	"github/chapool/go-ethtx/internal/util/command"
	"github/chapool/go-ethtx/internal/wallet"
)

type addressResult struct {
	Path    string `json:"path"`
	Address string `json:"address"`
}

func newAddress() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "address",
		Short: "Unlock the keystore and print the address at a derivation path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := util.WithComponent(cmd.Context(), "keystore_address")
			rt := command.RuntimeFrom(ctx)

			w, err := wallet.NewFromConfig(rt.Config)
			if err != nil {
				return err
			}
			password, err := passwordFunc(cmd)
			if err != nil {
				return err
			}
			if err := w.Unlock(ctx, password); err != nil {
				return err
			}
			defer w.Seed.Clear()

			path, _ := cmd.Flags().GetString(pathFlag)
			if path == "" {
				index, _ := cmd.Flags().GetUint32(indexFlag)
				path = w.Address.BIP44Path(index)
			}

			addr, err := w.Address.DeriveAddress(ctx, w.Seed.Seed(), path)
			if err != nil {
				return errors.Wrap(err, "failed to derive address")
			}

			return command.PrintJSON(cmd.OutOrStdout(), addressResult{Path: path, Address: addr.Hex()})
		},
	}

	cmd.Flags().String(passwordFileFlag, "", "read the keystore password from this file instead of the terminal")
	cmd.Flags().Uint32(indexFlag, 0, "address index in m/44'/60'/0'/0/{index}")
	cmd.Flags().String(pathFlag, "", "full derivation path, overrides --index")

	return cmd
}
