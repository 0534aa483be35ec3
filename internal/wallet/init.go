package wallet

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github/chapool/go-ethtx/internal/util"
	"github/chapool/go-ethtx/internal/wallet/address"
	"github/chapool/go-ethtx/internal/wallet/keystore"
	"github/chapool/go-ethtx/internal/wallet/seed"
	"golang.org/x/term"
)

const minPasswordLength = 8

var (
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrKeystoreNotFound   = errors.New("keystore not found")
	ErrVerificationFailed = errors.New("derived address does not match keystore address")
)

// PasswordFunc reads a secret after showing prompt.
type PasswordFunc func(prompt string) (string, error)

// Wallet ties the keystore file to the in-memory seed.
type Wallet struct {
	Seed     seed.Manager
	Keystore keystore.Service
	Address  address.Service

	// Passphrase is the optional BIP39 passphrase, independent of the
	// keystore password.
	Passphrase string
}

// Create stores mnemonic in a new keystore, or a freshly generated one if
// mnemonic is empty, and unlocks the seed. It returns the mnemonic so the
// caller can show it once.
func (w *Wallet) Create(ctx context.Context, mnemonic string, password PasswordFunc) (string, error) {
	log := util.LogFromContext(util.WithComponent(ctx, "wallet_init"))

	if mnemonic == "" {
		var err error
		if mnemonic, err = seed.NewMnemonic(); err != nil {
			return "", err
		}
		log.Info().Msg("Generated new mnemonic")
	}

	pw, err := password("Enter password for keystore (min 8 characters): ")
	if err != nil {
		return "", errors.Wrap(err, "failed to read password")
	}
	if len(pw) < minPasswordLength {
		return "", ErrPasswordTooShort
	}
	confirm, err := password("Confirm password: ")
	if err != nil {
		return "", errors.Wrap(err, "failed to read password confirmation")
	}
	if pw != confirm {
		return "", ErrPasswordMismatch
	}

	if err := w.Seed.Initialize(mnemonic, w.Passphrase); err != nil {
		return "", errors.Wrap(err, "failed to initialize seed manager")
	}
	verification, err := w.verificationAddress(ctx)
	if err != nil {
		return "", err
	}

	if _, err := w.Keystore.Create(ctx, mnemonic, pw, verification); err != nil {
		w.Seed.Clear()
		return "", errors.Wrap(err, "failed to create keystore")
	}

	log.Info().Str("address", verification).Msg("Keystore created and seed unlocked")
	return mnemonic, nil
}

// Unlock decrypts the keystore and initializes the seed, then checks the
// first derived address against the one recorded at creation.
func (w *Wallet) Unlock(ctx context.Context, password PasswordFunc) error {
	log := util.LogFromContext(util.WithComponent(ctx, "wallet_init"))

	exists, err := w.Keystore.Exists(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to check keystore existence")
	}
	if !exists {
		return errors.Wrap(ErrKeystoreNotFound, w.Keystore.Path())
	}

	pw, err := password("Enter keystore password: ")
	if err != nil {
		return errors.Wrap(err, "failed to read password")
	}

	mnemonic, err := w.Keystore.Decrypt(ctx, pw)
	if err != nil {
		return errors.Wrap(err, "failed to decrypt keystore (invalid password?)")
	}

	if err := w.Seed.Initialize(mnemonic, w.Passphrase); err != nil {
		return errors.Wrap(err, "failed to initialize seed manager")
	}

	if err := w.Verify(ctx); err != nil {
		w.Seed.Clear()
		return err
	}

	log.Info().Msg("Seed manager initialized")
	return nil
}

// PasswordFromFile returns a PasswordFunc answering every prompt with the
// first line of path.
func PasswordFromFile(path string) (PasswordFunc, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read password file")
	}
	pw, _, _ := strings.Cut(string(b), "\n")
	pw = strings.TrimSuffix(pw, "\r")

	return func(string) (string, error) { return pw, nil }, nil
}

// PromptPassword reads a password from the terminal without echo.
//
//nolint:forbidigo // Password input requires direct terminal I/O
func PromptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)

	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", errors.Wrap(err, "failed to read password from terminal")
	}

	fmt.Fprintln(os.Stderr)
	return string(b), nil
}
