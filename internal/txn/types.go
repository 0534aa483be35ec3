package txn

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Transaction type discriminants.
const (
	LegacyTxType     byte = 0x00
	AccessListTxType byte = 0x01

	// Wire bytes at or above this value open an RLP list, so the transaction
	// is an untyped legacy one.
	rlpListPrefix byte = 0xc0
)

// Kind is the closed set of transaction variants this package understands.
type Kind uint8

const (
	KindUnsupported Kind = iota
	KindLegacy
	KindAccessList
)

func (k Kind) String() string {
	switch k {
	case KindLegacy:
		return "legacy"
	case KindAccessList:
		return "access_list"
	default:
		return "unsupported"
	}
}

// RawFields is the ordered field array of a transaction. Slot 0 carries the
// out-of-band type marker, the remaining slots the fields in wire order.
// Byte-string fields are held decoded; nested lists (the access list) are
// held in their RLP encoding.
type RawFields [][]byte

// ChainContext supplies the chain a transaction is bound to.
type ChainContext interface {
	ChainID() uint64
}

// Chain is the plain ChainContext.
type Chain uint64

func (c Chain) ChainID() uint64 { return uint64(c) }

// Transaction is implemented by the unsigned and signed form of every variant.
type Transaction interface {
	Kind() Kind
	Type() byte
	ChainID() uint64
	Signed() bool

	// IntrinsicGas is the minimum gas the transaction must supply.
	IntrinsicGas() (uint64, error)

	// Display projects the transaction into its JSON-RPC shape.
	Display() *Display

	// Sign consumes an unsigned transaction and returns its signed form.
	// Signed transactions and already consumed unsigned ones return
	// ErrAlreadySigned.
	Sign(prv *ecdsa.PrivateKey) (SignedTransaction, error)
}

// SignedTransaction carries a signature and the state derived from it.
type SignedTransaction interface {
	Transaction

	Sender() common.Address
	Hash() common.Hash
	Serialized() []byte
	RawFields() RawFields
	SignatureValues() (v, r, s *uint256.Int)
	ExecutionView() *ExecutionView
}

// RPCTransaction is the client-RPC object a transaction is built from.
type RPCTransaction struct {
	From       *common.Address `json:"from,omitempty"`
	Type       *string         `json:"type,omitempty"`
	ChainID    *string         `json:"chainId,omitempty"`
	Nonce      *string         `json:"nonce,omitempty"`
	GasPrice   *string         `json:"gasPrice,omitempty"`
	Gas        *string         `json:"gas,omitempty"`
	To         *string         `json:"to,omitempty"`
	Value      *string         `json:"value,omitempty"`
	Data       *string         `json:"data,omitempty"`
	Input      *string         `json:"input,omitempty"`
	AccessList *AccessList     `json:"accessList,omitempty"`
}

// payload returns data, falling back to input.
func (r *RPCTransaction) payload() *string {
	if r.Data != nil {
		return r.Data
	}
	return r.Input
}

// AccessTuple is the element type of an access list.
type AccessTuple struct {
	Address     common.Address `json:"address"`
	StorageKeys []common.Hash  `json:"storageKeys"`
}

// AccessList is an EIP-2930 access list.
type AccessList []AccessTuple

// StorageKeys returns the total number of storage keys in the access list.
func (al AccessList) StorageKeys() int {
	sum := 0
	for _, tuple := range al {
		sum += len(tuple.StorageKeys)
	}
	return sum
}
