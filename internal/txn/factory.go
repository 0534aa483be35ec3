package txn

import (
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
)

// variant is the dispatch table entry of a Kind.
type variant struct {
	fromRPC    func(*RPCTransaction, ChainContext) (Transaction, error)
	fromFields func([][]byte, ChainContext) (SignedTransaction, error)
}

var variants = map[Kind]variant{
	KindLegacy: {
		fromRPC: func(args *RPCTransaction, chain ChainContext) (Transaction, error) {
			return newLegacyFromRPC(args, chain)
		},
		fromFields: func(fields [][]byte, chain ChainContext) (SignedTransaction, error) {
			return newSignedLegacy(fields, chain)
		},
	},
	KindAccessList: {
		fromRPC: func(args *RPCTransaction, chain ChainContext) (Transaction, error) {
			return newAccessListFromRPC(args, chain)
		},
		fromFields: func(fields [][]byte, chain ChainContext) (SignedTransaction, error) {
			return newSignedAccessList(fields, chain)
		},
	},
}

// ClassifyByte maps a type discriminant to a Kind. present is false when
// there is no discriminant at all. Bytes from 0xc0 up are RLP list prefixes,
// which is how untyped legacy transactions start on the wire.
func ClassifyByte(b byte, present bool) Kind {
	switch {
	case !present:
		return KindLegacy
	case b >= rlpListPrefix:
		return KindLegacy
	case b == LegacyTxType:
		return KindLegacy
	case b == AccessListTxType:
		return KindAccessList
	default:
		return KindUnsupported
	}
}

func classifyType(t uint64) Kind {
	if t > 0xff {
		return KindUnsupported
	}
	return ClassifyByte(byte(t), true)
}

// ClassifyRawFields classifies a database field array. Nine elements is an
// untyped legacy record; otherwise element 0 carries the type marker. The
// marker value is returned alongside.
func ClassifyRawFields(fields RawFields) (Kind, uint64) {
	if len(fields) == legacyFieldCount {
		return KindLegacy, uint64(LegacyTxType)
	}
	if len(fields) == 0 || len(fields[0]) == 0 {
		return ClassifyByte(0, false), uint64(LegacyTxType)
	}
	return ClassifyByte(fields[0][0], true), uint64(fields[0][0])
}

// ClassifyRPC classifies an RPC object by its optional type field and
// returns the parsed type value.
func ClassifyRPC(args *RPCTransaction) (Kind, uint64, error) {
	if args.Type == nil {
		return KindLegacy, uint64(LegacyTxType), nil
	}
	t, err := parseTypeValue(*args.Type)
	if err != nil {
		return KindUnsupported, 0, err
	}
	return classifyType(t), t, nil
}

// FromRPC builds an unsigned transaction from an RPC object.
func FromRPC(args *RPCTransaction, chain ChainContext) (Transaction, error) {
	kind, t, err := ClassifyRPC(args)
	if err != nil {
		return nil, err
	}
	v, ok := variants[kind]
	if !ok {
		return nil, &UnsupportedTypeError{Type: t}
	}
	return v.fromRPC(args, chain)
}

// FromDatabaseRecord rebuilds a signed transaction from its stored field
// array.
func FromDatabaseRecord(fields RawFields, chain ChainContext) (SignedTransaction, error) {
	kind, t := ClassifyRawFields(fields)
	v, ok := variants[kind]
	if !ok {
		return nil, &UnsupportedTypeError{Type: t}
	}
	body := [][]byte(fields)
	if len(fields) != legacyFieldCount {
		body = payloadFields(fields)
	}
	return v.fromFields(body, chain)
}

// DecodeWireHex turns wire hex into bytes. Surrounding space and the 0x or
// 0X prefix are optional.
func DecodeWireHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, hexPrefix) && !strings.HasPrefix(s, "0X") {
		s = hexPrefix + s
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode transaction hex")
	}
	return b, nil
}

// FromWireHex decodes a signed transaction from its hex wire form.
func FromWireHex(s string, chain ChainContext) (SignedTransaction, error) {
	b, err := DecodeWireHex(s)
	if err != nil {
		return nil, err
	}
	return FromWire(b, chain)
}

// FromWire decodes a signed transaction from its wire bytes. A bare RLP list
// is legacy and is decoded as is. Otherwise the first byte is the type and
// exactly that byte is stripped, including an explicit 0x00 legacy marker.
func FromWire(b []byte, chain ChainContext) (SignedTransaction, error) {
	if len(b) == 0 {
		return nil, ErrEmptyTransaction
	}
	kind := ClassifyByte(b[0], true)
	v, ok := variants[kind]
	if !ok {
		return nil, &UnsupportedTypeError{Type: uint64(b[0])}
	}
	payload := b
	if b[0] < rlpListPrefix {
		payload = b[1:]
	}
	fields, err := splitFields(payload)
	if err != nil {
		return nil, err
	}
	return v.fromFields(fields, chain)
}

// splitFields decodes one RLP list into its items. String items are
// returned decoded, list items in their encoding.
func splitFields(payload []byte) ([][]byte, error) {
	content, rest, err := rlp.SplitList(payload)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode transaction list")
	}
	if len(rest) != 0 {
		return nil, errors.Wrapf(ErrTrailingBytes, "%d bytes", len(rest))
	}
	var fields [][]byte
	for len(content) > 0 {
		kind, val, tail, err := rlp.Split(content)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to decode field %d", len(fields))
		}
		if kind == rlp.List {
			val = content[:len(content)-len(tail)]
		}
		fields = append(fields, val)
		content = tail
	}
	return fields, nil
}

func commonFromRPC(args *RPCTransaction, chain ChainContext) (CommonTx, error) {
	if args.ChainID != nil {
		id, err := parseQuantity("chainId", args.ChainID)
		if err != nil {
			return CommonTx{}, err
		}
		if chain == nil || !id.IsUint64() || id.Uint64() != chain.ChainID() {
			return CommonTx{}, errors.Wrapf(ErrChainIDMismatch, "chainId %s", *args.ChainID)
		}
	}
	nonce, err := parseQuantity("nonce", args.Nonce)
	if err != nil {
		return CommonTx{}, err
	}
	gas, err := parseQuantity("gas", args.Gas)
	if err != nil {
		return CommonTx{}, err
	}
	to, err := parseAddress(args.To)
	if err != nil {
		return CommonTx{}, err
	}
	value, err := parseQuantity("value", args.Value)
	if err != nil {
		return CommonTx{}, err
	}
	data, err := parseData(args.payload())
	if err != nil {
		return CommonTx{}, err
	}
	return CommonTx{
		Nonce: nonce,
		Gas:   gas,
		To:    to,
		Value: value,
		Data:  data,
		chain: chain,
	}, nil
}
