package keystore

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github/chapool/go-ethtx/internal/util"
	"github/chapool/go-ethtx/internal/util/command"
	"github/chapool/go-ethtx/internal/wallet"
)

type createResult struct {
	Path    string `json:"path"`
	Address string `json:"address"`
}

func newCreate() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create the keystore from a new or imported mnemonic",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := util.WithComponent(cmd.Context(), "keystore_create")
			rt := command.RuntimeFrom(ctx)

			w, err := wallet.NewFromConfig(rt.Config)
			if err != nil {
				return err
			}
			password, err := passwordFunc(cmd)
			if err != nil {
				return err
			}

			var mnemonic string
			if file, _ := cmd.Flags().GetString(mnemonicFileFlag); file != "" {
				b, err := os.ReadFile(file)
				if err != nil {
					return errors.Wrap(err, "failed to read mnemonic file")
				}
				mnemonic = strings.TrimSpace(string(b))
			}

			created, err := w.Create(ctx, mnemonic, password)
			if err != nil {
				return err
			}
			defer w.Seed.Clear()

			if mnemonic == "" {
				//nolint:forbidigo // The generated mnemonic is shown exactly once
				fmt.Fprintf(cmd.ErrOrStderr(), "\nWrite down this mnemonic, it is not stored in clear anywhere:\n\n  %s\n\n", created)
			}

			addr, err := w.Address.DeriveAddress(ctx, w.Seed.Seed(), w.Address.BIP44Path(wallet.VerificationAddressIndex))
			if err != nil {
				return errors.Wrap(err, "failed to derive address")
			}

			return command.PrintJSON(cmd.OutOrStdout(), createResult{Path: w.Keystore.Path(), Address: addr.Hex()})
		},
	}

	cmd.Flags().String(passwordFileFlag, "", "read the keystore password from this file instead of the terminal")
	cmd.Flags().String(mnemonicFileFlag, "", "import the mnemonic in this file instead of generating one")

	return cmd
}
