package address_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/go-ethtx/internal/wallet/address"
	"github/chapool/go-ethtx/internal/wallet/seed"
)

//nolint:dupword // BIP39 test mnemonic
const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func testSeed(t *testing.T) []byte {
	t.Helper()
	m := seed.NewManager()
	require.NoError(t, m.Initialize(testMnemonic, ""))
	return m.Seed()
}

func TestDeriveAddress(t *testing.T) {
	s := address.NewService()
	ctx := t.Context()

	path := s.BIP44Path(0)
	assert.Equal(t, "m/44'/60'/0'/0/0", path)

	addr, err := s.DeriveAddress(ctx, testSeed(t), path)
	require.NoError(t, err)
	assert.Equal(t, "0x9858EfFD232B4033E47d90003D41EC34EcaEda94", addr.Hex())

	next, err := s.DeriveAddress(ctx, testSeed(t), s.BIP44Path(1))
	require.NoError(t, err)
	assert.NotEqual(t, addr, next)
}

func TestDerivePrivateKeyMatchesAddress(t *testing.T) {
	s := address.NewService()
	ctx := t.Context()

	key, err := s.DerivePrivateKey(ctx, testSeed(t), "m/44'/60'/0'/0/0")
	require.NoError(t, err)
	assert.Equal(t, "0x9858EfFD232B4033E47d90003D41EC34EcaEda94", crypto.PubkeyToAddress(key.PublicKey).Hex())

	address.Zero(key)
	assert.Equal(t, 0, key.D.Sign())
}

func TestParsePath(t *testing.T) {
	indices, err := address.ParsePath("m/44'/60'/0'/0/7")
	require.NoError(t, err)
	assert.Equal(t, []uint32{0x8000002c, 0x8000003c, 0x80000000, 0, 7}, indices)

	indices, err = address.ParsePath("m/44h/60h")
	require.NoError(t, err)
	assert.Equal(t, []uint32{0x8000002c, 0x8000003c}, indices)

	indices, err = address.ParsePath("m")
	require.NoError(t, err)
	assert.Empty(t, indices)

	for _, bad := range []string{"", "44'/60'", "m/", "m/x", "m/2147483648", "m/-1"} {
		_, err := address.ParsePath(bad)
		assert.ErrorIs(t, err, address.ErrInvalidPath, bad)
	}
}
