package wallet_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/go-ethtx/internal/config"
	"github/chapool/go-ethtx/internal/wallet"
	"github/chapool/go-ethtx/internal/wallet/address"
	"github/chapool/go-ethtx/internal/wallet/keystore"
	"github/chapool/go-ethtx/internal/wallet/seed"
)

//nolint:dupword // BIP39 test mnemonic
const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func newWallet(t *testing.T, path string) *wallet.Wallet {
	t.Helper()
	ks, err := keystore.NewService(path, keystore.LightScryptParams())
	require.NoError(t, err)

	return &wallet.Wallet{
		Seed:     seed.NewManager(),
		Keystore: ks,
		Address:  address.NewService(),
	}
}

func passwords(pws ...string) wallet.PasswordFunc {
	return func(string) (string, error) {
		if len(pws) == 0 {
			return "", errors.New("no more passwords")
		}
		pw := pws[0]
		pws = pws[1:]
		return pw, nil
	}
}

func TestCreateAndUnlock(t *testing.T) {
	ctx := t.Context()
	path := filepath.Join(t.TempDir(), "ks.json")

	w := newWallet(t, path)
	mnemonic, err := w.Create(ctx, testMnemonic, passwords("password1", "password1"))
	require.NoError(t, err)
	assert.Equal(t, testMnemonic, mnemonic)
	assert.True(t, w.Seed.IsInitialized())

	stored, err := w.Keystore.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0x9858EfFD232B4033E47d90003D41EC34EcaEda94", stored.Address)

	other := newWallet(t, path)
	require.NoError(t, other.Unlock(ctx, passwords("password1")))
	assert.Equal(t, w.Seed.Seed(), other.Seed.Seed())
}

func TestCreateGeneratesMnemonic(t *testing.T) {
	w := newWallet(t, filepath.Join(t.TempDir(), "ks.json"))
	mnemonic, err := w.Create(t.Context(), "", passwords("password1", "password1"))
	require.NoError(t, err)
	assert.NotEmpty(t, mnemonic)
}

func TestCreatePasswordChecks(t *testing.T) {
	w := newWallet(t, filepath.Join(t.TempDir(), "ks.json"))

	_, err := w.Create(t.Context(), testMnemonic, passwords("short"))
	assert.ErrorIs(t, err, wallet.ErrPasswordTooShort)

	_, err = w.Create(t.Context(), testMnemonic, passwords("password1", "password2"))
	assert.ErrorIs(t, err, wallet.ErrPasswordMismatch)
	assert.False(t, w.Seed.IsInitialized())
}

func TestUnlockFailures(t *testing.T) {
	ctx := t.Context()
	path := filepath.Join(t.TempDir(), "ks.json")

	err := newWallet(t, path).Unlock(ctx, passwords("password1"))
	assert.ErrorIs(t, err, wallet.ErrKeystoreNotFound)

	_, err = newWallet(t, path).Create(ctx, testMnemonic, passwords("password1", "password1"))
	require.NoError(t, err)

	err = newWallet(t, path).Unlock(ctx, passwords("wrong-password"))
	assert.ErrorIs(t, err, keystore.ErrInvalidPassword)

	// A different BIP39 passphrase yields a different first account.
	w := newWallet(t, path)
	w.Passphrase = "extra"
	err = w.Unlock(ctx, passwords("password1"))
	assert.ErrorIs(t, err, wallet.ErrVerificationFailed)
	assert.False(t, w.Seed.IsInitialized())
}

func TestPasswordFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pw")
	require.NoError(t, os.WriteFile(path, []byte("password1\r\nignored\n"), 0o600))

	pw, err := wallet.PasswordFromFile(path)
	require.NoError(t, err)
	got, err := pw("anything")
	require.NoError(t, err)
	assert.Equal(t, "password1", got)

	_, err = wallet.PasswordFromFile(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.DefaultServiceConfig()
	cfg.Keystore.Path = filepath.Join(t.TempDir(), "ks.json")
	cfg.Keystore.LightScrypt = true

	w, err := wallet.NewFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, cfg.Keystore.Path, w.Keystore.Path())
	assert.False(t, w.Seed.IsInitialized())

	cfg.Keystore.Path = ""
	_, err = wallet.NewFromConfig(cfg)
	assert.Error(t, err)
}
