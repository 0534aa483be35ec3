package txn

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Capability is an optional feature an execution engine may ask a
// transaction about.
type Capability int

const (
	CapabilityAccessList Capability = 2930
	CapabilityFeeMarket  Capability = 1559
)

// ExecutionView adapts a signed transaction to what an execution engine
// consumes. Accessors return copies.
type ExecutionView struct {
	base       CommonTx
	from       common.Address
	gasPrice   *uint256.Int
	accessList AccessList
	caps       mapset.Set[Capability]
}

func newExecutionView(c *CommonTx, from common.Address, gasPrice *uint256.Int, accessList AccessList, caps ...Capability) *ExecutionView {
	return &ExecutionView{
		base:       c.copy(),
		from:       from,
		gasPrice:   gasPrice.Clone(),
		accessList: accessList,
		caps:       mapset.NewThreadUnsafeSet[Capability](caps...),
	}
}

func (v *ExecutionView) From() common.Address { return v.from }

// To returns nil for contract creation.
func (v *ExecutionView) To() *common.Address {
	if v.base.To == nil {
		return nil
	}
	to := *v.base.To
	return &to
}

func (v *ExecutionView) Nonce() *uint256.Int    { return v.base.Nonce.Clone() }
func (v *ExecutionView) GasPrice() *uint256.Int { return v.gasPrice.Clone() }
func (v *ExecutionView) GasLimit() *uint256.Int { return v.base.Gas.Clone() }
func (v *ExecutionView) Value() *uint256.Int    { return v.base.Value.Clone() }
func (v *ExecutionView) Data() []byte           { return common.CopyBytes(v.base.Data) }
func (v *ExecutionView) AccessList() AccessList { return v.accessList }

// BaseFee is the intrinsic gas of the transaction.
func (v *ExecutionView) BaseFee() (uint64, error) {
	return intrinsicGas(&v.base, v.accessList)
}

// UpfrontCost is gas*gasPrice + value. It fails instead of wrapping when the
// result does not fit in 256 bits.
func (v *ExecutionView) UpfrontCost() (*uint256.Int, error) {
	cost, overflow := new(uint256.Int).MulOverflow(v.base.Gas, v.gasPrice)
	if overflow {
		return nil, ErrCostOverflow
	}
	if _, overflow = cost.AddOverflow(cost, v.base.Value); overflow {
		return nil, ErrCostOverflow
	}
	return cost, nil
}

// Supports reports whether the transaction carries an optional capability.
func (v *ExecutionView) Supports(c Capability) bool {
	return v.caps.Contains(c)
}
