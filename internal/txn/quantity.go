package txn

import (
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

const (
	maxQuantityLength = 32
	hexPrefix         = "0x"
)

// decodeQuantity turns an RLP byte string into a quantity. Only the minimal
// big-endian form is accepted, zero being the empty string.
func decodeQuantity(name string, b []byte) (*uint256.Int, error) {
	if len(b) > maxQuantityLength {
		return nil, errors.Wrapf(ErrQuantityOverflow, "field %s", name)
	}
	if len(b) > 0 && b[0] == 0 {
		return nil, errors.Wrapf(ErrNonCanonicalQuantity, "field %s", name)
	}
	return new(uint256.Int).SetBytes(b), nil
}

// quantityBytes is the inverse of decodeQuantity.
func quantityBytes(q *uint256.Int) []byte {
	if q == nil || q.IsZero() {
		return []byte{}
	}
	return q.Bytes()
}

func uint64Bytes(n uint64) []byte {
	return quantityBytes(new(uint256.Int).SetUint64(n))
}

// decodeAddress maps the empty string to the contract-creation sentinel (nil).
func decodeAddress(b []byte) (*common.Address, error) {
	switch len(b) {
	case 0:
		return nil, nil
	case common.AddressLength:
		addr := common.BytesToAddress(b)
		return &addr, nil
	default:
		return nil, errors.Wrapf(ErrMalformedAddress, "got %d bytes", len(b))
	}
}

func addressBytes(a *common.Address) []byte {
	if a == nil {
		return []byte{}
	}
	return a.Bytes()
}

// parseQuantity reads an RPC hex quantity. A missing value is zero.
func parseQuantity(name string, s *string) (*uint256.Int, error) {
	if s == nil {
		return new(uint256.Int), nil
	}
	q, err := uint256.FromHex(*s)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid %s %q", name, *s)
	}
	return q, nil
}

func parseAddress(s *string) (*common.Address, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	b, err := hexutil.Decode(*s)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid to %q", *s)
	}
	return decodeAddress(b)
}

func parseData(s *string) ([]byte, error) {
	if s == nil {
		return []byte{}, nil
	}
	b, err := hexutil.Decode(*s)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid data %q", *s)
	}
	return b, nil
}

// parseTypeValue accepts "0x1" as well as the zero-padded "0x01" some clients send.
func parseTypeValue(s string) (uint64, error) {
	if !strings.HasPrefix(s, hexPrefix) || len(s) == len(hexPrefix) {
		return 0, errors.Errorf("invalid type %q", s)
	}
	t, err := strconv.ParseUint(s[len(hexPrefix):], 16, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid type %q", s)
	}
	return t, nil
}

func bigOf(q *uint256.Int) *hexutil.Big {
	if q == nil {
		return nil
	}
	return (*hexutil.Big)(q.ToBig())
}
