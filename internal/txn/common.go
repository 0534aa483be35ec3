package txn

import (
	"bytes"
	"math"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/params"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// signatureSlots is the number of trailing raw slots holding v, r and s.
const signatureSlots = 3

// CommonTx is the field set shared by every variant. Variants embed it by
// value and add their own fields.
type CommonTx struct {
	Nonce *uint256.Int
	Gas   *uint256.Int
	To    *common.Address // nil means contract creation
	Value *uint256.Int
	Data  []byte

	chain ChainContext
}

// ChainID returns the id of the chain the transaction is bound to.
func (c *CommonTx) ChainID() uint64 {
	if c.chain == nil {
		return 0
	}
	return c.chain.ChainID()
}

// IsCreation reports whether the transaction deploys a contract.
func (c *CommonTx) IsCreation() bool {
	return c.To == nil
}

func (c *CommonTx) copy() CommonTx {
	cpy := CommonTx{
		Nonce: new(uint256.Int).Set(c.Nonce),
		Gas:   new(uint256.Int).Set(c.Gas),
		Value: new(uint256.Int).Set(c.Value),
		Data:  common.CopyBytes(c.Data),
		chain: c.chain,
	}
	if c.To != nil {
		to := *c.To
		cpy.To = &to
	}
	return cpy
}

// intrinsicGas computes the gas charged before execution starts: the base
// fee, the per-byte data fee, the creation surcharge and the access list.
func intrinsicGas(c *CommonTx, accessList AccessList) (uint64, error) {
	gas := params.TxGas
	if c.IsCreation() {
		gas = params.TxGasContractCreation
	}
	if dataLen := uint64(len(c.Data)); dataLen > 0 {
		zeros := uint64(bytes.Count(c.Data, []byte{0}))
		nonZeros := dataLen - zeros

		if (math.MaxUint64-gas)/params.TxDataNonZeroGasEIP2028 < nonZeros {
			return 0, ErrGasUintOverflow
		}
		gas += nonZeros * params.TxDataNonZeroGasEIP2028

		if (math.MaxUint64-gas)/params.TxDataZeroGas < zeros {
			return 0, ErrGasUintOverflow
		}
		gas += zeros * params.TxDataZeroGas
	}
	if accessList != nil {
		gas += uint64(len(accessList)) * params.TxAccessListAddressGas
		gas += uint64(accessList.StorageKeys()) * params.TxAccessListStorageKeyGas
	}
	return gas, nil
}

// envelope describes how a variant turns its raw fields into wire bytes.
type envelope struct {
	typ byte
	// typed envelopes are prefixed with typ; legacy ones are a bare list.
	typed bool
	// nestedSlot is the payload slot already holding an RLP list, or -1.
	nestedSlot int
	// sigHash returns the signing hash and recovery id for a signature v.
	sigHash func(unsigned []rlp.RawValue, v *uint256.Int, chainID uint64) (common.Hash, byte, error)
}

// payloadFields returns the raw slots that are RLP items. Slot 0, the type
// marker, never is: legacy transactions drop it and typed ones emit it as
// the envelope prefix byte.
func payloadFields(raw RawFields) [][]byte {
	if len(raw) == 0 {
		return nil
	}
	return raw[1:]
}

// encodePayload RLP-encodes every payload slot, one item per slot.
func (e *envelope) encodePayload(raw RawFields) ([]rlp.RawValue, error) {
	slots := payloadFields(raw)
	items := make([]rlp.RawValue, len(slots))
	for i, slot := range slots {
		if i == e.nestedSlot {
			items[i] = common.CopyBytes(slot)
			continue
		}
		enc, err := rlp.EncodeToBytes(slot)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to encode field %d", i)
		}
		items[i] = enc
	}
	return items, nil
}

// seal joins the encoded unsigned segment and signature segment into the
// serialized transaction.
func (e *envelope) seal(unsigned, signature []rlp.RawValue) ([]byte, error) {
	items := make([]rlp.RawValue, 0, len(unsigned)+len(signature))
	items = append(items, unsigned...)
	items = append(items, signature...)
	list, err := rlp.EncodeToBytes(items)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode transaction")
	}
	if !e.typed {
		return list, nil
	}
	return append([]byte{e.typ}, list...), nil
}

// prefixedHash is keccak256(typ || RLP(items)), or keccak256(RLP(items))
// for an untyped envelope.
func (e *envelope) prefixedHash(items []rlp.RawValue) (common.Hash, error) {
	if !e.typed {
		return hashItems(nil, items)
	}
	return hashItems([]byte{e.typ}, items)
}

func hashItems(prefix []byte, items []rlp.RawValue) (common.Hash, error) {
	list, err := rlp.EncodeToBytes(items)
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "failed to encode signing payload")
	}
	return crypto.Keccak256Hash(prefix, list), nil
}

func encodeSignature(v, r, s *uint256.Int) ([]rlp.RawValue, error) {
	items := make([]rlp.RawValue, 0, signatureSlots)
	for _, q := range []*uint256.Int{v, r, s} {
		enc, err := rlp.EncodeToBytes(quantityBytes(q))
		if err != nil {
			return nil, errors.Wrap(err, "failed to encode signature")
		}
		items = append(items, enc)
	}
	return items, nil
}

// intrinsics is the state derived from a signature.
type intrinsics struct {
	sender     common.Address
	serialized []byte
	hash       common.Hash

	encodedUnsigned  []rlp.RawValue
	encodedSignature []rlp.RawValue
}

func newIntrinsics(sender common.Address, serialized []byte, unsigned, signature []rlp.RawValue) intrinsics {
	return intrinsics{
		sender:           sender,
		serialized:       serialized,
		hash:             crypto.Keccak256Hash(serialized),
		encodedUnsigned:  unsigned,
		encodedSignature: signature,
	}
}

// computeIntrinsics recovers the sender from the v, r, s slots of raw and
// builds the serialized form and hash.
func computeIntrinsics(e *envelope, raw RawFields, chainID uint64) (intrinsics, error) {
	items, err := e.encodePayload(raw)
	if err != nil {
		return intrinsics{}, err
	}
	if len(items) < signatureSlots {
		return intrinsics{}, ErrFieldCount
	}
	split := len(items) - signatureSlots
	slots := payloadFields(raw)

	v, err := decodeQuantity("v", slots[split])
	if err != nil {
		return intrinsics{}, err
	}
	r, err := decodeQuantity("r", slots[split+1])
	if err != nil {
		return intrinsics{}, err
	}
	s, err := decodeQuantity("s", slots[split+2])
	if err != nil {
		return intrinsics{}, err
	}

	unsigned, signature := items[:split], items[split:]
	sighash, recID, err := e.sigHash(unsigned, v, chainID)
	if err != nil {
		return intrinsics{}, err
	}
	sender, err := recoverSender(sighash, recID, r, s)
	if err != nil {
		return intrinsics{}, err
	}
	serialized, err := e.seal(unsigned, signature)
	if err != nil {
		return intrinsics{}, err
	}
	return newIntrinsics(sender, serialized, unsigned, signature), nil
}

func recoverSender(sighash common.Hash, recID byte, r, s *uint256.Int) (common.Address, error) {
	if !crypto.ValidateSignatureValues(recID, r.ToBig(), s.ToBig(), true) {
		return common.Address{}, ErrInvalidSignature
	}
	sig := make([]byte, crypto.SignatureLength)
	rb, sb := r.Bytes32(), s.Bytes32()
	copy(sig[:32], rb[:])
	copy(sig[32:64], sb[:])
	sig[64] = recID

	pub, err := crypto.SigToPub(sighash[:], sig)
	if err != nil {
		return common.Address{}, errors.Wrap(ErrInvalidSignature, err.Error())
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// splitSignature turns a [R || S || V] signature into quantities.
func splitSignature(sig []byte) (r, s *uint256.Int, recID byte) {
	r = new(uint256.Int).SetBytes(sig[:32])
	s = new(uint256.Int).SetBytes(sig[32:64])
	return r, s, sig[64]
}
