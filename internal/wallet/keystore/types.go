package keystore

import "context"

// Service stores the wallet mnemonic in an Ethereum keystore v3 file.
type Service interface {
	// Create encrypts the mnemonic and writes the keystore file. It fails if
	// the file already exists.
	Create(ctx context.Context, mnemonic string, password string, address string) (*KeystoreJSON, error)

	// Load reads the keystore file.
	Load(ctx context.Context) (*KeystoreJSON, error)

	// Decrypt loads the keystore file and returns the mnemonic.
	Decrypt(ctx context.Context, password string) (string, error)

	Exists(ctx context.Context) (bool, error)

	Path() string
}

// KeystoreJSON is the Ethereum keystore v3 JSON structure. Address holds the
// first derived account and is used to verify an unlocked seed.
//
//nolint:revive // KeystoreJSON is the standard name for Ethereum keystore JSON structure
type KeystoreJSON struct {
	Version int    `json:"version"`
	ID      string `json:"id"`
	Address string `json:"address,omitempty"`
	Crypto  struct {
		Ciphertext   string `json:"ciphertext"`
		CipherParams struct {
			IV string `json:"iv"`
		} `json:"cipherparams"`
		Cipher    string `json:"cipher"`
		KDF       string `json:"kdf"`
		KDFParams struct {
			DKLen int    `json:"dklen"`
			Salt  string `json:"salt"`
			N     int    `json:"n"`
			R     int    `json:"r"`
			P     int    `json:"p"`
		} `json:"kdfparams"`
		MAC string `json:"mac"`
	} `json:"crypto"`
}

// ScryptParams defines scrypt KDF parameters
type ScryptParams struct {
	DKLen int
	Salt  []byte
	N     int
	R     int
	P     int
}

const (
	scryptDKLen = 32
	scryptR     = 8
)

// DefaultScryptParams returns the standard keystore v3 parameters.
func DefaultScryptParams() *ScryptParams {
	const (
		scryptN = 1 << 18
		scryptP = 1
	)

	return &ScryptParams{DKLen: scryptDKLen, N: scryptN, R: scryptR, P: scryptP}
}

// LightScryptParams trades strength for speed; meant for tests and throwaway keystores.
func LightScryptParams() *ScryptParams {
	const (
		scryptN = 1 << 12
		scryptP = 6
	)

	return &ScryptParams{DKLen: scryptDKLen, N: scryptN, R: scryptR, P: scryptP}
}
