package txn_test

import (
	"crypto/ecdsa"
	"encoding/hex"
	"encoding/json"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/go-ethtx/internal/txn"
)

const (
	testKeyHex = "b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291"
	recipient  = "0x3535353535353535353535353535353535353535"
)

func testKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	key, err := crypto.HexToECDSA(testKeyHex)
	require.NoError(t, err)
	return key
}

func strPtr(s string) *string { return &s }

func legacyRPC() *txn.RPCTransaction {
	return &txn.RPCTransaction{
		Nonce:    strPtr("0x7"),
		GasPrice: strPtr("0x3b9aca00"),
		Gas:      strPtr("0x5208"),
		To:       strPtr(recipient),
		Value:    strPtr("0xde0b6b3a7640000"),
	}
}

func accessListRPC() *txn.RPCTransaction {
	args := legacyRPC()
	args.Type = strPtr("0x1")
	args.Gas = strPtr("0x7530")
	args.Data = strPtr("0xdeadbeef")
	args.AccessList = &txn.AccessList{
		{
			Address:     common.HexToAddress(recipient),
			StorageKeys: []common.Hash{common.HexToHash("0x01"), common.HexToHash("0x02")},
		},
	}
	return args
}

func signRPC(t *testing.T, args *txn.RPCTransaction, chain txn.ChainContext) txn.SignedTransaction {
	t.Helper()
	tx, err := txn.FromRPC(args, chain)
	require.NoError(t, err)
	signed, err := tx.Sign(testKey(t))
	require.NoError(t, err)
	return signed
}

func TestClassifyByte(t *testing.T) {
	tests := []struct {
		name    string
		b       byte
		present bool
		want    txn.Kind
	}{
		{"absent", 0x00, false, txn.KindLegacy},
		{"list prefix", 0xc0, true, txn.KindLegacy},
		{"long list prefix", 0xf8, true, txn.KindLegacy},
		{"legacy marker", 0x00, true, txn.KindLegacy},
		{"access list", 0x01, true, txn.KindAccessList},
		{"fee market", 0x02, true, txn.KindUnsupported},
		{"blob", 0x03, true, txn.KindUnsupported},
		{"string prefix", 0x80, true, txn.KindUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, txn.ClassifyByte(tt.b, tt.present))
		})
	}
}

func TestClassifyRPC(t *testing.T) {
	tests := []struct {
		typ      *string
		wantKind txn.Kind
		wantType uint64
	}{
		{nil, txn.KindLegacy, 0},
		{strPtr("0x0"), txn.KindLegacy, 0},
		{strPtr("0x1"), txn.KindAccessList, 1},
		{strPtr("0x01"), txn.KindAccessList, 1},
		{strPtr("0x5"), txn.KindUnsupported, 5},
		{strPtr("0x101"), txn.KindUnsupported, 0x101},
	}
	for _, tt := range tests {
		kind, typ, err := txn.ClassifyRPC(&txn.RPCTransaction{Type: tt.typ})
		require.NoError(t, err)
		assert.Equal(t, tt.wantKind, kind)
		assert.Equal(t, tt.wantType, typ)
	}

	_, _, err := txn.ClassifyRPC(&txn.RPCTransaction{Type: strPtr("1")})
	assert.Error(t, err)
}

func TestFromRPCUnsupportedType(t *testing.T) {
	args := legacyRPC()
	args.Type = strPtr("0x5")

	_, err := txn.FromRPC(args, txn.Chain(1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, txn.ErrUnsupportedType))

	var typeErr *txn.UnsupportedTypeError
	require.True(t, errors.As(err, &typeErr))
	assert.Equal(t, uint64(5), typeErr.Type)
}

func TestFromRPCKinds(t *testing.T) {
	legacy, err := txn.FromRPC(legacyRPC(), txn.Chain(1))
	require.NoError(t, err)
	assert.Equal(t, txn.KindLegacy, legacy.Kind())
	assert.Equal(t, txn.LegacyTxType, legacy.Type())
	assert.False(t, legacy.Signed())

	accessList, err := txn.FromRPC(accessListRPC(), txn.Chain(1))
	require.NoError(t, err)
	assert.Equal(t, txn.KindAccessList, accessList.Kind())
	assert.Equal(t, txn.AccessListTxType, accessList.Type())
	assert.Equal(t, uint64(1), accessList.ChainID())
}

func TestFromRPCChainIDMismatch(t *testing.T) {
	args := accessListRPC()
	args.ChainID = strPtr("0x5")
	_, err := txn.FromRPC(args, txn.Chain(1))
	assert.True(t, errors.Is(err, txn.ErrChainIDMismatch))

	args.ChainID = strPtr("0x1")
	_, err = txn.FromRPC(args, txn.Chain(1))
	assert.NoError(t, err)
}

func TestFromRPCRejectsBadInput(t *testing.T) {
	args := legacyRPC()
	args.To = strPtr("0x1234")
	_, err := txn.FromRPC(args, txn.Chain(1))
	assert.True(t, errors.Is(err, txn.ErrMalformedAddress))

	args = legacyRPC()
	args.Nonce = strPtr("0x07")
	_, err = txn.FromRPC(args, txn.Chain(1))
	assert.Error(t, err)
}

func TestFromRPCJSON(t *testing.T) {
	var args txn.RPCTransaction
	require.NoError(t, json.Unmarshal([]byte(`{
		"from": "0x71562b71999873db5b286df957af199ec94617f7",
		"type": "0x0",
		"nonce": "0x0",
		"gasPrice": "0x1",
		"gas": "0x5208",
		"value": "0x0",
		"input": "0x6001"
	}`), &args))

	tx, err := txn.FromRPC(&args, txn.Chain(1))
	require.NoError(t, err)
	d := tx.Display()
	assert.Nil(t, d.To)
	assert.Equal(t, []byte{0x60, 0x01}, []byte(d.Input))
}

func TestSignTwice(t *testing.T) {
	for _, args := range []*txn.RPCTransaction{legacyRPC(), accessListRPC()} {
		tx, err := txn.FromRPC(args, txn.Chain(1))
		require.NoError(t, err)

		signed, err := tx.Sign(testKey(t))
		require.NoError(t, err)
		assert.True(t, signed.Signed())

		_, err = tx.Sign(testKey(t))
		assert.Equal(t, txn.ErrAlreadySigned, err)

		_, err = signed.Sign(testKey(t))
		assert.Equal(t, txn.ErrAlreadySigned, err)
	}
}

func TestSignLegacyEIP155(t *testing.T) {
	key := testKey(t)
	signed := signRPC(t, legacyRPC(), txn.Chain(1))

	v, r, s := signed.SignatureValues()
	assert.Contains(t, []uint64{37, 38}, v.Uint64())
	assert.False(t, r.IsZero())
	assert.False(t, s.IsZero())
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), signed.Sender())
	assert.Equal(t, crypto.Keccak256Hash(signed.Serialized()), signed.Hash())

	to := common.HexToAddress(recipient)
	ref, err := types.SignTx(types.NewTx(&types.LegacyTx{
		Nonce:    7,
		GasPrice: big.NewInt(1_000_000_000),
		Gas:      21000,
		To:       &to,
		Value:    big.NewInt(1e18),
	}), types.NewEIP155Signer(big.NewInt(1)), key)
	require.NoError(t, err)
	refBytes, err := ref.MarshalBinary()
	require.NoError(t, err)

	assert.Equal(t, refBytes, signed.Serialized())
	assert.Equal(t, ref.Hash(), signed.Hash())
}

func TestSignAccessList(t *testing.T) {
	key := testKey(t)
	signed := signRPC(t, accessListRPC(), txn.Chain(1))

	v, _, _ := signed.SignatureValues()
	assert.True(t, v.LtUint64(2))
	assert.Equal(t, txn.AccessListTxType, signed.Serialized()[0])
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), signed.Sender())

	to := common.HexToAddress(recipient)
	ref, err := types.SignTx(types.NewTx(&types.AccessListTx{
		ChainID:  big.NewInt(1),
		Nonce:    7,
		GasPrice: big.NewInt(1_000_000_000),
		Gas:      30000,
		To:       &to,
		Value:    big.NewInt(1e18),
		Data:     []byte{0xde, 0xad, 0xbe, 0xef},
		AccessList: types.AccessList{{
			Address:     to,
			StorageKeys: []common.Hash{common.HexToHash("0x01"), common.HexToHash("0x02")},
		}},
	}), types.NewEIP2930Signer(big.NewInt(1)), key)
	require.NoError(t, err)
	refBytes, err := ref.MarshalBinary()
	require.NoError(t, err)

	assert.Equal(t, refBytes, signed.Serialized())
	assert.Equal(t, ref.Hash(), signed.Hash())
}

func creationRPC() *txn.RPCTransaction {
	args := legacyRPC()
	args.To = nil
	args.Gas = strPtr("0x10000")
	args.Data = strPtr("0x6000")
	return args
}

func TestWireRoundTrip(t *testing.T) {
	for _, args := range []*txn.RPCTransaction{legacyRPC(), accessListRPC(), creationRPC()} {
		signed := signRPC(t, args, txn.Chain(1))

		decoded, err := txn.FromWireHex(prefixedHex(signed.Serialized()), txn.Chain(1))
		require.NoError(t, err)
		assert.Equal(t, signed.Serialized(), decoded.Serialized())
		assert.Equal(t, signed.Hash(), decoded.Hash())
		assert.Equal(t, signed.Sender(), decoded.Sender())
		assert.Equal(t, signed.Kind(), decoded.Kind())
		assert.Equal(t, signed.RawFields(), decoded.RawFields())

		bare, err := txn.FromWireHex(hex.EncodeToString(signed.Serialized()), txn.Chain(1))
		require.NoError(t, err)
		assert.Equal(t, signed.Hash(), bare.Hash())

		upper, err := txn.FromWireHex("0X"+strings.ToUpper(hex.EncodeToString(signed.Serialized())), txn.Chain(1))
		require.NoError(t, err)
		assert.Equal(t, signed.Hash(), upper.Hash())
	}
}

func TestWireRoundTripCreation(t *testing.T) {
	signed := signRPC(t, creationRPC(), txn.Chain(1))

	decoded, err := txn.FromWire(signed.Serialized(), txn.Chain(1))
	require.NoError(t, err)
	assert.Equal(t, signed.Hash(), decoded.Hash())
	assert.Nil(t, decoded.Display().To)
	assert.Empty(t, decoded.RawFields()[4])

	gas, err := decoded.IntrinsicGas()
	require.NoError(t, err)
	assert.Equal(t, uint64(53000+4+16), gas)

	b, err := json.Marshal(decoded.Display())
	require.NoError(t, err)
	assert.Contains(t, string(b), `"to":null`)
}

func prefixedHex(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

func TestWireExplicitLegacyPrefix(t *testing.T) {
	signed := signRPC(t, legacyRPC(), txn.Chain(1))

	prefixed := append([]byte{txn.LegacyTxType}, signed.Serialized()...)
	decoded, err := txn.FromWire(prefixed, txn.Chain(1))
	require.NoError(t, err)
	assert.Equal(t, signed.Hash(), decoded.Hash())
	assert.Equal(t, signed.Serialized(), decoded.Serialized())
}

func TestWireHomestead(t *testing.T) {
	key := testKey(t)
	to := common.HexToAddress(recipient)
	ref, err := types.SignTx(types.NewTx(&types.LegacyTx{
		Nonce:    1,
		GasPrice: big.NewInt(2),
		Gas:      21000,
		To:       &to,
		Value:    big.NewInt(3),
	}), types.HomesteadSigner{}, key)
	require.NoError(t, err)
	refBytes, err := ref.MarshalBinary()
	require.NoError(t, err)

	decoded, err := txn.FromWire(refBytes, txn.Chain(1))
	require.NoError(t, err)
	v, _, _ := decoded.SignatureValues()
	assert.Contains(t, []uint64{27, 28}, v.Uint64())
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), decoded.Sender())
	assert.Equal(t, ref.Hash(), decoded.Hash())
	assert.Equal(t, refBytes, decoded.Serialized())
}

func TestWireErrors(t *testing.T) {
	signed := signRPC(t, legacyRPC(), txn.Chain(1))

	_, err := txn.FromWire(nil, txn.Chain(1))
	assert.Equal(t, txn.ErrEmptyTransaction, err)

	_, err = txn.FromWire(append(signed.Serialized(), 0x80), txn.Chain(1))
	assert.True(t, errors.Is(err, txn.ErrTrailingBytes))

	_, err = txn.FromWire([]byte{0x05, 0xc0}, txn.Chain(1))
	var typeErr *txn.UnsupportedTypeError
	require.True(t, errors.As(err, &typeErr))
	assert.Equal(t, uint64(5), typeErr.Type)

	_, err = txn.FromWireHex("0xzz", txn.Chain(1))
	assert.Error(t, err)
}

func TestWireChainMismatch(t *testing.T) {
	legacy := signRPC(t, legacyRPC(), txn.Chain(1))
	_, err := txn.FromWire(legacy.Serialized(), txn.Chain(5))
	assert.True(t, errors.Is(err, txn.ErrInvalidSignature))

	accessList := signRPC(t, accessListRPC(), txn.Chain(1))
	_, err = txn.FromWire(accessList.Serialized(), txn.Chain(5))
	assert.True(t, errors.Is(err, txn.ErrChainIDMismatch))
}

func TestRawFieldsBoundary(t *testing.T) {
	legacy := signRPC(t, legacyRPC(), txn.Chain(1))
	raw := legacy.RawFields()
	require.Len(t, raw, 10)
	assert.Equal(t, []byte{txn.LegacyTxType}, raw[0])

	kind, typ := txn.ClassifyRawFields(raw)
	assert.Equal(t, txn.KindLegacy, kind)
	assert.Equal(t, uint64(0), typ)

	// Slots 1..9 are the RLP payload; the marker never is.
	fromPayload, err := txn.FromDatabaseRecord(raw[1:], txn.Chain(1))
	require.NoError(t, err)
	assert.Equal(t, legacy.Hash(), fromPayload.Hash())

	fromRecord, err := txn.FromDatabaseRecord(raw, txn.Chain(1))
	require.NoError(t, err)
	assert.Equal(t, legacy.Serialized(), fromRecord.Serialized())

	accessList := signRPC(t, accessListRPC(), txn.Chain(1))
	raw = accessList.RawFields()
	require.Len(t, raw, 12)
	assert.Equal(t, []byte{txn.AccessListTxType}, raw[0])
	assert.Equal(t, []byte{0x01}, raw[1])

	kind, typ = txn.ClassifyRawFields(raw)
	assert.Equal(t, txn.KindAccessList, kind)
	assert.Equal(t, uint64(1), typ)

	// The access list slot holds an RLP list, byte strings are held decoded.
	assert.GreaterOrEqual(t, raw[8][0], byte(0xc0))
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, raw[7])

	fromRecord, err = txn.FromDatabaseRecord(raw, txn.Chain(1))
	require.NoError(t, err)
	assert.Equal(t, accessList.Hash(), fromRecord.Hash())
	assert.Equal(t, accessList.Sender(), fromRecord.Sender())
}

func TestDatabaseRecordRejectsMalformedFields(t *testing.T) {
	signed := signRPC(t, legacyRPC(), txn.Chain(1))

	raw := signed.RawFields()
	raw[1] = []byte{0x00, 0x07}
	_, err := txn.FromDatabaseRecord(raw, txn.Chain(1))
	assert.True(t, errors.Is(err, txn.ErrNonCanonicalQuantity))

	raw = signed.RawFields()
	raw[4] = raw[4][:19]
	_, err = txn.FromDatabaseRecord(raw, txn.Chain(1))
	assert.True(t, errors.Is(err, txn.ErrMalformedAddress))

	raw = signed.RawFields()
	raw[2] = make([]byte, 33)
	raw[2][0] = 1
	_, err = txn.FromDatabaseRecord(raw, txn.Chain(1))
	assert.True(t, errors.Is(err, txn.ErrQuantityOverflow))

	raw = signed.RawFields()
	raw[7] = []byte{30}
	_, err = txn.FromDatabaseRecord(raw, txn.Chain(1))
	assert.True(t, errors.Is(err, txn.ErrInvalidSignature))

	raw = signed.RawFields()
	_, err = txn.FromDatabaseRecord(raw[:8], txn.Chain(1))
	assert.True(t, errors.Is(err, txn.ErrFieldCount))

	raw = signed.RawFields()
	raw[0] = []byte{0x02}
	_, err = txn.FromDatabaseRecord(raw, txn.Chain(1))
	assert.True(t, errors.Is(err, txn.ErrUnsupportedType))
}

func TestIntrinsicGas(t *testing.T) {
	transfer, err := txn.FromRPC(legacyRPC(), txn.Chain(1))
	require.NoError(t, err)
	gas, err := transfer.IntrinsicGas()
	require.NoError(t, err)
	assert.Equal(t, uint64(21000), gas)

	creation := legacyRPC()
	creation.To = nil
	creation.Data = strPtr("0x0001")
	tx, err := txn.FromRPC(creation, txn.Chain(1))
	require.NoError(t, err)
	gas, err = tx.IntrinsicGas()
	require.NoError(t, err)
	assert.Equal(t, uint64(53000+4+16), gas)

	accessList, err := txn.FromRPC(accessListRPC(), txn.Chain(1))
	require.NoError(t, err)
	gas, err = accessList.IntrinsicGas()
	require.NoError(t, err)
	assert.Equal(t, uint64(21000+4*16+2400+2*1900), gas)

	signed, err := accessList.Sign(testKey(t))
	require.NoError(t, err)
	signedGas, err := signed.IntrinsicGas()
	require.NoError(t, err)
	assert.Equal(t, gas, signedGas)
}

func TestExecutionView(t *testing.T) {
	args := legacyRPC()
	args.GasPrice = strPtr("0x1")
	args.Value = strPtr("0x0")
	view := signRPC(t, args, txn.Chain(1)).ExecutionView()

	cost, err := view.UpfrontCost()
	require.NoError(t, err)
	assert.Equal(t, uint64(21000), cost.Uint64())

	fee, err := view.BaseFee()
	require.NoError(t, err)
	assert.Equal(t, uint64(21000), fee)
	assert.False(t, view.Supports(txn.CapabilityAccessList))
	assert.False(t, view.Supports(txn.CapabilityFeeMarket))
	assert.Equal(t, common.HexToAddress(recipient), *view.To())
	assert.Equal(t, crypto.PubkeyToAddress(testKey(t).PublicKey), view.From())

	alView := signRPC(t, accessListRPC(), txn.Chain(1)).ExecutionView()
	assert.True(t, alView.Supports(txn.CapabilityAccessList))
	assert.False(t, alView.Supports(txn.CapabilityFeeMarket))
	assert.Len(t, alView.AccessList(), 1)

	// Mutating a returned quantity leaves the view untouched.
	alView.Nonce().SetUint64(99)
	assert.Equal(t, uint64(7), alView.Nonce().Uint64())
}

func TestUpfrontCostOverflow(t *testing.T) {
	args := legacyRPC()
	args.Gas = strPtr("0x8000000000000000000000000000000000000000000000000000000000000000")
	args.GasPrice = strPtr("0x2")
	view := signRPC(t, args, txn.Chain(1)).ExecutionView()

	_, err := view.UpfrontCost()
	assert.Equal(t, txn.ErrCostOverflow, err)

	args = legacyRPC()
	args.Gas = strPtr("0x1")
	args.GasPrice = strPtr("0x1")
	args.Value = strPtr("0xffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff")
	view = signRPC(t, args, txn.Chain(1)).ExecutionView()

	_, err = view.UpfrontCost()
	assert.Equal(t, txn.ErrCostOverflow, err)
}

func TestDisplay(t *testing.T) {
	signed := signRPC(t, legacyRPC(), txn.Chain(1))

	b, err := json.Marshal(signed.Display())
	require.NoError(t, err)
	var fields map[string]any
	require.NoError(t, json.Unmarshal(b, &fields))

	assert.Equal(t, "0x0", fields["type"])
	assert.Equal(t, signed.Hash().Hex(), fields["hash"])
	assert.Equal(t, "0x7", fields["nonce"])
	assert.Equal(t, "0x5208", fields["gas"])
	assert.Equal(t, "0x3b9aca00", fields["gasPrice"])
	assert.Nil(t, fields["blockHash"])
	assert.Nil(t, fields["blockNumber"])
	assert.Nil(t, fields["transactionIndex"])
	assert.Contains(t, fields, "blockHash")
	assert.NotContains(t, fields, "chainId")
	assert.NotContains(t, fields, "accessList")

	v, _, _ := signed.SignatureValues()
	assert.Equal(t, "0x"+v.ToBig().Text(16), fields["v"])

	unsigned, err := txn.FromRPC(accessListRPC(), txn.Chain(1))
	require.NoError(t, err)
	d := unsigned.Display()
	assert.Nil(t, d.Hash)
	assert.Nil(t, d.V)
	require.NotNil(t, d.ChainID)
	assert.Equal(t, int64(1), d.ChainID.ToInt().Int64())
	require.NotNil(t, d.AccessList)
	assert.Equal(t, 2, d.AccessList.StorageKeys())
}

func TestSignatureValuesAreCopies(t *testing.T) {
	signed := signRPC(t, legacyRPC(), txn.Chain(1))
	v, _, _ := signed.SignatureValues()
	v.Set(uint256.NewInt(0))

	again, _, _ := signed.SignatureValues()
	assert.False(t, again.IsZero())

	raw := signed.RawFields()
	raw[1][0] = 0xff
	assert.NotEqual(t, raw[1], signed.RawFields()[1])
}
