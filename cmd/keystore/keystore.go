package keystore

import (
	"github.com/spf13/cobra"
	"github/chapool/go-ethtx/internal/util/command"
	"github/chapool/go-ethtx/internal/wallet"
)

const (
	passwordFileFlag = "password-file"
	mnemonicFileFlag = "mnemonic-file"
	indexFlag        = "index"
	pathFlag         = "path"
)

func New() *cobra.Command {
	return command.NewSubcommandGroup("keystore",
		newCreate(),
		newAddress(),
	)
}

func passwordFunc(cmd *cobra.Command) (wallet.PasswordFunc, error) {
	file, err := cmd.Flags().GetString(passwordFileFlag)
	if err != nil || file == "" {
		return wallet.PromptPassword, err
	}

	return wallet.PasswordFromFile(file)
}
