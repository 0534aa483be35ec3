package wallet

import (
	"github.com/pkg/errors"
	"github/chapool/go-ethtx/internal/config"
	"github/chapool/go-ethtx/internal/wallet/address"
	"github/chapool/go-ethtx/internal/wallet/keystore"
	"github/chapool/go-ethtx/internal/wallet/seed"
)

// NewFromConfig wires a locked Wallet from the keystore and wallet settings.
func NewFromConfig(cfg config.Server) (*Wallet, error) {
	params := keystore.DefaultScryptParams()
	if cfg.Keystore.LightScrypt {
		params = keystore.LightScryptParams()
	}

	ks, err := keystore.NewService(cfg.Keystore.Path, params)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create keystore service")
	}

	return &Wallet{
		Seed:       seed.NewManager(),
		Keystore:   ks,
		Address:    address.NewService(),
		Passphrase: cfg.Wallet.Passphrase,
	}, nil
}
