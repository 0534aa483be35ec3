package address

import (
	"context"
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/common"
)

// Service derives Ethereum accounts from a BIP39 seed along BIP44 paths.
type Service interface {
	// DeriveAddress returns the account address at path.
	DeriveAddress(ctx context.Context, seed []byte, path string) (common.Address, error)

	// DerivePrivateKey returns the signing key at path.
	// WARNING: the caller owns the key and should zero it after use.
	DerivePrivateKey(ctx context.Context, seed []byte, path string) (*ecdsa.PrivateKey, error)

	// BIP44Path returns m/44'/60'/0'/0/{index}.
	BIP44Path(index uint32) string
}
