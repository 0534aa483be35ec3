package wallet

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// VerificationAddressIndex is the account whose address is recorded in the
// keystore file.
const VerificationAddressIndex = 0

func (w *Wallet) verificationAddress(ctx context.Context) (string, error) {
	s := w.Seed.Seed()
	if s == nil {
		return "", errors.New("seed not initialized")
	}

	addr, err := w.Address.DeriveAddress(ctx, s, w.Address.BIP44Path(VerificationAddressIndex))
	if err != nil {
		return "", errors.Wrap(err, "failed to derive verification address")
	}

	return addr.Hex(), nil
}

// Verify compares the verification address derived from the unlocked seed
// with the one stored in the keystore. Keystores without a stored address
// pass.
func (w *Wallet) Verify(ctx context.Context) error {
	log := log.With().Str("component", "password_verification").Logger()

	ks, err := w.Keystore.Load(ctx)
	if err != nil {
		return err
	}
	if ks.Address == "" {
		log.Info().Msg("No verification address stored, skipping check")
		return nil
	}

	derived, err := w.verificationAddress(ctx)
	if err != nil {
		return err
	}

	if !strings.EqualFold(derived, ks.Address) {
		log.Warn().
			Str("derived", derived).
			Str("stored", ks.Address).
			Msg("Verification failed: addresses do not match")
		return ErrVerificationFailed
	}

	return nil
}
