package txn

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

const (
	// legacyFieldCount is the number of fields of a legacy transaction on
	// the wire: nonce, gasPrice, gas, to, value, data, v, r, s.
	legacyFieldCount = 9
	// legacyUnsignedCount is the number of fields before the signature.
	legacyUnsignedCount = legacyFieldCount - signatureSlots
	eip155Offset        = 35
	homesteadOffset     = 27
)

var legacyEnvelope = &envelope{
	typ:        LegacyTxType,
	typed:      false,
	nestedSlot: -1,
	sigHash:    legacySigningHash,
}

// LegacyTx is an unsigned pre-typed transaction.
type LegacyTx struct {
	CommonTx
	GasPrice *uint256.Int

	consumed bool
}

// SignedLegacyTx is a legacy transaction with its signature and derived state.
type SignedLegacyTx struct {
	LegacyTx
	V, R, S *uint256.Int

	raw RawFields
	intrinsics
}

func newLegacyFromRPC(args *RPCTransaction, chain ChainContext) (*LegacyTx, error) {
	base, err := commonFromRPC(args, chain)
	if err != nil {
		return nil, err
	}
	gasPrice, err := parseQuantity("gasPrice", args.GasPrice)
	if err != nil {
		return nil, err
	}
	return &LegacyTx{CommonTx: base, GasPrice: gasPrice}, nil
}

// newSignedLegacy builds a signed transaction from the nine decoded fields
// [nonce, gasPrice, gas, to, value, data, v, r, s].
func newSignedLegacy(fields [][]byte, chain ChainContext) (*SignedLegacyTx, error) {
	if len(fields) != legacyFieldCount {
		return nil, errors.Wrapf(ErrFieldCount, "legacy transaction has %d fields, want %d", len(fields), legacyFieldCount)
	}
	names := [...]string{"nonce", "gasPrice", "gas", "to", "value", "data", "v", "r", "s"}
	quantities := make(map[string]*uint256.Int, len(names))
	for i, name := range names {
		if name == "to" || name == "data" {
			continue
		}
		q, err := decodeQuantity(name, fields[i])
		if err != nil {
			return nil, err
		}
		quantities[name] = q
	}
	to, err := decodeAddress(fields[3])
	if err != nil {
		return nil, err
	}

	tx := &SignedLegacyTx{
		LegacyTx: LegacyTx{
			CommonTx: CommonTx{
				Nonce: quantities["nonce"],
				Gas:   quantities["gas"],
				To:    to,
				Value: quantities["value"],
				Data:  common.CopyBytes(fields[5]),
				chain: chain,
			},
			GasPrice: quantities["gasPrice"],
			consumed: true,
		},
		V: quantities["v"],
		R: quantities["r"],
		S: quantities["s"],
	}
	tx.raw = tx.buildRawFields(quantityBytes(tx.V), quantityBytes(tx.R), quantityBytes(tx.S))
	tx.intrinsics, err = computeIntrinsics(legacyEnvelope, tx.raw, tx.ChainID())
	if err != nil {
		return nil, errors.Wrap(err, "failed to verify legacy transaction")
	}
	return tx, nil
}

// buildRawFields returns [type, nonce, gasPrice, gas, to, value, data, v, r, s].
// The type slot is never part of the legacy RLP payload.
func (tx *LegacyTx) buildRawFields(v, r, s []byte) RawFields {
	return RawFields{
		{LegacyTxType},
		quantityBytes(tx.Nonce),
		quantityBytes(tx.GasPrice),
		quantityBytes(tx.Gas),
		addressBytes(tx.To),
		quantityBytes(tx.Value),
		common.CopyBytes(tx.Data),
		v,
		r,
		s,
	}
}

func (tx *LegacyTx) Kind() Kind   { return KindLegacy }
func (tx *LegacyTx) Type() byte   { return LegacyTxType }
func (tx *LegacyTx) Signed() bool { return false }

func (tx *LegacyTx) IntrinsicGas() (uint64, error) {
	return intrinsicGas(&tx.CommonTx, nil)
}

func (tx *LegacyTx) copy() LegacyTx {
	return LegacyTx{
		CommonTx: tx.CommonTx.copy(),
		GasPrice: new(uint256.Int).Set(tx.GasPrice),
	}
}

// Sign signs the transaction with EIP-155 replay protection for its chain.
func (tx *LegacyTx) Sign(prv *ecdsa.PrivateKey) (SignedTransaction, error) {
	if tx.consumed {
		return nil, ErrAlreadySigned
	}
	chainID := tx.ChainID()

	// The EIP-155 signing payload carries the chain id in place of v and
	// empty r and s.
	items, err := legacyEnvelope.encodePayload(tx.buildRawFields(uint64Bytes(chainID), nil, nil))
	if err != nil {
		return nil, err
	}
	sighash, err := legacyEnvelope.prefixedHash(items)
	if err != nil {
		return nil, err
	}
	sig, err := crypto.Sign(sighash[:], prv)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign transaction")
	}
	r, s, recID := splitSignature(sig)
	v := new(uint256.Int).SetUint64(chainID)
	v.Lsh(v, 1)
	v.AddUint64(v, eip155Offset+uint64(recID))

	signature, err := encodeSignature(v, r, s)
	if err != nil {
		return nil, err
	}
	unsigned := items[:legacyUnsignedCount]
	serialized, err := legacyEnvelope.seal(unsigned, signature)
	if err != nil {
		return nil, err
	}

	signed := &SignedLegacyTx{LegacyTx: tx.copy(), V: v, R: r, S: s}
	signed.consumed = true
	signed.raw = signed.buildRawFields(quantityBytes(v), quantityBytes(r), quantityBytes(s))
	signed.intrinsics = newIntrinsics(crypto.PubkeyToAddress(prv.PublicKey), serialized, unsigned, signature)

	tx.consumed = true
	return signed, nil
}

func (tx *LegacyTx) Display() *Display {
	d := displayCommon(LegacyTxType, &tx.CommonTx)
	d.GasPrice = bigOf(tx.GasPrice)
	return d
}

func (tx *SignedLegacyTx) Signed() bool { return true }

func (tx *SignedLegacyTx) Sign(*ecdsa.PrivateKey) (SignedTransaction, error) {
	return nil, ErrAlreadySigned
}

func (tx *SignedLegacyTx) Sender() common.Address { return tx.sender }
func (tx *SignedLegacyTx) Hash() common.Hash      { return tx.hash }

func (tx *SignedLegacyTx) Serialized() []byte {
	return common.CopyBytes(tx.serialized)
}

func (tx *SignedLegacyTx) RawFields() RawFields {
	raw := make(RawFields, len(tx.raw))
	for i, slot := range tx.raw {
		raw[i] = common.CopyBytes(slot)
	}
	return raw
}

func (tx *SignedLegacyTx) SignatureValues() (v, r, s *uint256.Int) {
	return tx.V.Clone(), tx.R.Clone(), tx.S.Clone()
}

func (tx *SignedLegacyTx) Display() *Display {
	d := tx.LegacyTx.Display()
	fillSigned(d, tx)
	return d
}

func (tx *SignedLegacyTx) ExecutionView() *ExecutionView {
	return newExecutionView(&tx.CommonTx, tx.sender, tx.GasPrice, nil)
}

// legacySigningHash picks the signing scheme encoded in v: 27/28 for
// homestead signatures, 35+2*chainID+recID for EIP-155 ones.
func legacySigningHash(unsigned []rlp.RawValue, v *uint256.Int, chainID uint64) (common.Hash, byte, error) {
	if v.IsUint64() && (v.Uint64() == homesteadOffset || v.Uint64() == homesteadOffset+1) {
		hash, err := hashItems(nil, unsigned)
		return hash, byte(v.Uint64() - homesteadOffset), err
	}
	if v.LtUint64(eip155Offset) {
		return common.Hash{}, 0, errors.Wrapf(ErrInvalidSignature, "v %s", v.Dec())
	}
	rest := new(uint256.Int).SubUint64(v, eip155Offset)
	recID := byte(rest.Uint64() & 1)
	signedChain := rest.Rsh(rest, 1)
	if !signedChain.IsUint64() || signedChain.Uint64() != chainID {
		return common.Hash{}, 0, errors.Wrapf(ErrInvalidSignature, "v %s is not signed for chain %d", v.Dec(), chainID)
	}

	items := make([]rlp.RawValue, 0, legacyFieldCount)
	items = append(items, unsigned...)
	chainItem, err := rlp.EncodeToBytes(uint64Bytes(chainID))
	if err != nil {
		return common.Hash{}, 0, errors.Wrap(err, "failed to encode chain id")
	}
	items = append(items, chainItem, rlp.EmptyString, rlp.EmptyString)
	hash, err := hashItems(nil, items)
	return hash, recID, err
}
