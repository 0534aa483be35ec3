package txn

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrUnsupportedType      = errors.New("transaction type not supported")
	ErrAlreadySigned        = errors.New("transaction is already signed")
	ErrInvalidSignature     = errors.New("invalid transaction v, r, s values")
	ErrMalformedAddress     = errors.New("address must be empty or 20 bytes")
	ErrChainIDMismatch      = errors.New("transaction chain id does not match chain")
	ErrCostOverflow         = errors.New("upfront cost exceeds 256 bits")
	ErrGasUintOverflow      = errors.New("gas uint64 overflow")
	ErrNonCanonicalQuantity = errors.New("non-canonical quantity: leading zero byte")
	ErrQuantityOverflow     = errors.New("quantity exceeds 256 bits")
	ErrFieldCount           = errors.New("wrong number of transaction fields")
	ErrEmptyTransaction     = errors.New("empty transaction bytes")
	ErrTrailingBytes        = errors.New("trailing bytes after transaction")
)

// UnsupportedTypeError is returned by the factory when a type discriminant
// matches no known variant. It carries the raw value that was seen.
type UnsupportedTypeError struct {
	Type uint64
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("transaction type %#x not supported", e.Type)
}

// Is lets errors.Is(err, ErrUnsupportedType) match any UnsupportedTypeError.
func (e *UnsupportedTypeError) Is(target error) bool {
	return target == ErrUnsupportedType
}
