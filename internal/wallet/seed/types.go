package seed

// Manager holds the BIP39 seed that signing keys are derived from.
type Manager interface {
	// Initialize validates the mnemonic and derives the seed from it and the
	// optional passphrase.
	Initialize(mnemonic string, passphrase string) error

	// Seed returns a copy of the seed, or nil before Initialize.
	Seed() []byte

	IsInitialized() bool

	// Clear zeroes the seed.
	Clear()
}
