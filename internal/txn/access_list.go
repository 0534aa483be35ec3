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
	// accessListFieldCount is the number of RLP fields of an EIP-2930
	// transaction: chainId, nonce, gasPrice, gas, to, value, data,
	// accessList, v, r, s.
	accessListFieldCount    = 11
	accessListUnsignedCount = accessListFieldCount - signatureSlots
	accessListSlot          = 7
)

var accessListEnvelope = &envelope{
	typ:        AccessListTxType,
	typed:      true,
	nestedSlot: accessListSlot,
	sigHash:    accessListSigningHash,
}

// AccessListTx is an unsigned EIP-2930 transaction.
type AccessListTx struct {
	CommonTx
	GasPrice   *uint256.Int
	AccessList AccessList

	consumed bool
}

// SignedAccessListTx is an EIP-2930 transaction with its signature and
// derived state.
type SignedAccessListTx struct {
	AccessListTx
	V, R, S *uint256.Int

	raw RawFields
	intrinsics
}

func newAccessListFromRPC(args *RPCTransaction, chain ChainContext) (*AccessListTx, error) {
	base, err := commonFromRPC(args, chain)
	if err != nil {
		return nil, err
	}
	gasPrice, err := parseQuantity("gasPrice", args.GasPrice)
	if err != nil {
		return nil, err
	}
	tx := &AccessListTx{CommonTx: base, GasPrice: gasPrice, AccessList: AccessList{}}
	if args.AccessList != nil {
		tx.AccessList = append(tx.AccessList, (*args.AccessList)...)
	}
	return tx, nil
}

// newSignedAccessList builds a signed transaction from the eleven decoded
// fields. The access list slot holds its RLP encoding.
func newSignedAccessList(fields [][]byte, chain ChainContext) (*SignedAccessListTx, error) {
	if len(fields) != accessListFieldCount {
		return nil, errors.Wrapf(ErrFieldCount, "access list transaction has %d fields, want %d", len(fields), accessListFieldCount)
	}
	chainID, err := decodeQuantity("chainId", fields[0])
	if err != nil {
		return nil, err
	}
	if !chainID.IsUint64() || chain == nil || chainID.Uint64() != chain.ChainID() {
		return nil, errors.Wrapf(ErrChainIDMismatch, "transaction chain id %s", chainID.Dec())
	}
	nonce, err := decodeQuantity("nonce", fields[1])
	if err != nil {
		return nil, err
	}
	gasPrice, err := decodeQuantity("gasPrice", fields[2])
	if err != nil {
		return nil, err
	}
	gas, err := decodeQuantity("gas", fields[3])
	if err != nil {
		return nil, err
	}
	to, err := decodeAddress(fields[4])
	if err != nil {
		return nil, err
	}
	value, err := decodeQuantity("value", fields[5])
	if err != nil {
		return nil, err
	}
	accessList := AccessList{}
	if err := rlp.DecodeBytes(fields[accessListSlot], &accessList); err != nil {
		return nil, errors.Wrap(err, "failed to decode access list")
	}
	v, err := decodeQuantity("v", fields[8])
	if err != nil {
		return nil, err
	}
	r, err := decodeQuantity("r", fields[9])
	if err != nil {
		return nil, err
	}
	s, err := decodeQuantity("s", fields[10])
	if err != nil {
		return nil, err
	}

	tx := &SignedAccessListTx{
		AccessListTx: AccessListTx{
			CommonTx: CommonTx{
				Nonce: nonce,
				Gas:   gas,
				To:    to,
				Value: value,
				Data:  common.CopyBytes(fields[6]),
				chain: chain,
			},
			GasPrice:   gasPrice,
			AccessList: accessList,
			consumed:   true,
		},
		V: v,
		R: r,
		S: s,
	}
	tx.raw, err = tx.buildRawFields(quantityBytes(v), quantityBytes(r), quantityBytes(s))
	if err != nil {
		return nil, err
	}
	tx.intrinsics, err = computeIntrinsics(accessListEnvelope, tx.raw, tx.ChainID())
	if err != nil {
		return nil, errors.Wrap(err, "failed to verify access list transaction")
	}
	return tx, nil
}

// buildRawFields returns [type, chainId, nonce, gasPrice, gas, to, value,
// data, accessList, v, r, s]. The type slot becomes the envelope prefix.
func (tx *AccessListTx) buildRawFields(v, r, s []byte) (RawFields, error) {
	accessList, err := rlp.EncodeToBytes(tx.AccessList)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode access list")
	}
	return RawFields{
		{AccessListTxType},
		uint64Bytes(tx.ChainID()),
		quantityBytes(tx.Nonce),
		quantityBytes(tx.GasPrice),
		quantityBytes(tx.Gas),
		addressBytes(tx.To),
		quantityBytes(tx.Value),
		common.CopyBytes(tx.Data),
		accessList,
		v,
		r,
		s,
	}, nil
}

func (tx *AccessListTx) Kind() Kind   { return KindAccessList }
func (tx *AccessListTx) Type() byte   { return AccessListTxType }
func (tx *AccessListTx) Signed() bool { return false }

func (tx *AccessListTx) IntrinsicGas() (uint64, error) {
	return intrinsicGas(&tx.CommonTx, tx.AccessList)
}

func (tx *AccessListTx) copy() AccessListTx {
	cpy := AccessListTx{
		CommonTx:   tx.CommonTx.copy(),
		GasPrice:   new(uint256.Int).Set(tx.GasPrice),
		AccessList: make(AccessList, len(tx.AccessList)),
	}
	for i, tuple := range tx.AccessList {
		cpy.AccessList[i] = AccessTuple{
			Address:     tuple.Address,
			StorageKeys: append([]common.Hash(nil), tuple.StorageKeys...),
		}
	}
	return cpy
}

// Sign signs the transaction; v is the bare recovery id.
func (tx *AccessListTx) Sign(prv *ecdsa.PrivateKey) (SignedTransaction, error) {
	if tx.consumed {
		return nil, ErrAlreadySigned
	}
	raw, err := tx.buildRawFields(nil, nil, nil)
	if err != nil {
		return nil, err
	}
	items, err := accessListEnvelope.encodePayload(raw)
	if err != nil {
		return nil, err
	}
	unsigned := items[:accessListUnsignedCount]
	sighash, err := accessListEnvelope.prefixedHash(unsigned)
	if err != nil {
		return nil, err
	}
	sig, err := crypto.Sign(sighash[:], prv)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign transaction")
	}
	r, s, recID := splitSignature(sig)
	v := new(uint256.Int).SetUint64(uint64(recID))

	signature, err := encodeSignature(v, r, s)
	if err != nil {
		return nil, err
	}
	serialized, err := accessListEnvelope.seal(unsigned, signature)
	if err != nil {
		return nil, err
	}

	signed := &SignedAccessListTx{AccessListTx: tx.copy(), V: v, R: r, S: s}
	signed.consumed = true
	signed.raw, err = signed.buildRawFields(quantityBytes(v), quantityBytes(r), quantityBytes(s))
	if err != nil {
		return nil, err
	}
	signed.intrinsics = newIntrinsics(crypto.PubkeyToAddress(prv.PublicKey), serialized, unsigned, signature)

	tx.consumed = true
	return signed, nil
}

func (tx *AccessListTx) Display() *Display {
	d := displayCommon(AccessListTxType, &tx.CommonTx)
	d.GasPrice = bigOf(tx.GasPrice)
	d.ChainID = bigOf(new(uint256.Int).SetUint64(tx.ChainID()))
	accessList := tx.copy().AccessList
	d.AccessList = &accessList
	return d
}

func (tx *SignedAccessListTx) Signed() bool { return true }

func (tx *SignedAccessListTx) Sign(*ecdsa.PrivateKey) (SignedTransaction, error) {
	return nil, ErrAlreadySigned
}

func (tx *SignedAccessListTx) Sender() common.Address { return tx.sender }
func (tx *SignedAccessListTx) Hash() common.Hash      { return tx.hash }

func (tx *SignedAccessListTx) Serialized() []byte {
	return common.CopyBytes(tx.serialized)
}

func (tx *SignedAccessListTx) RawFields() RawFields {
	raw := make(RawFields, len(tx.raw))
	for i, slot := range tx.raw {
		raw[i] = common.CopyBytes(slot)
	}
	return raw
}

func (tx *SignedAccessListTx) SignatureValues() (v, r, s *uint256.Int) {
	return tx.V.Clone(), tx.R.Clone(), tx.S.Clone()
}

func (tx *SignedAccessListTx) Display() *Display {
	d := tx.AccessListTx.Display()
	fillSigned(d, tx)
	return d
}

func (tx *SignedAccessListTx) ExecutionView() *ExecutionView {
	return newExecutionView(&tx.CommonTx, tx.sender, tx.GasPrice, tx.copy().AccessList, CapabilityAccessList)
}

// accessListSigningHash hashes 0x01 || RLP(unsigned fields); v must be the
// recovery id itself.
func accessListSigningHash(unsigned []rlp.RawValue, v *uint256.Int, _ uint64) (common.Hash, byte, error) {
	if !v.IsUint64() || v.Uint64() > 1 {
		return common.Hash{}, 0, errors.Wrapf(ErrInvalidSignature, "v %s", v.Dec())
	}
	hash, err := hashItems([]byte{AccessListTxType}, unsigned)
	return hash, byte(v.Uint64()), err
}
