// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package l1block prices the publication of transaction data on the
// settlement layer. The pricing parameters are maintained by the sequencer
// in the storage of the L1 block account.
package l1block

import (
	"github.com/Fantom-foundation/tosca-l2/go/l2"
	"github.com/Fantom-foundation/tosca-l2/go/tosca"
	"github.com/holiman/uint256"
)

// Storage slots of the L1 block account.
const (
	baseFeeSlot            = 1
	feeScalarsSlot         = 3
	feeOverheadSlot        = 5
	feeScalarSlot          = 6
	blobBaseFeeSlot        = 7
	operatorFeeScalarsSlot = 8
)

// Byte offsets of the values packed into the scalar slots.
const (
	baseFeeScalarOffset       = 16
	blobBaseFeeScalarOffset   = 20
	operatorFeeScalarOffset   = 20
	operatorFeeConstantOffset = 24
)

const (
	// nonZeroByteCost is the calldata gas of a non-zero byte, used to convert
	// data gas into an estimated compressed size.
	nonZeroByteCost = 16
	// tokenCost is the data gas per calldata token.
	tokenCost = 4
	// scalarDecimals is the fixed point precision of the fee scalars.
	scalarDecimals = 1_000_000
)

// Info is a snapshot of the L1 pricing parameters taken at a given L2 block.
// Optional values are nil if the SpecID the snapshot was taken with does not
// define them.
type Info struct {
	// L2Block is the block the snapshot is valid for.
	L2Block int64

	BaseFee       uint256.Int
	BaseFeeScalar uint256.Int
	// FeeOverhead is only set for the legacy formula.
	FeeOverhead *uint256.Int

	BlobBaseFee       *uint256.Int
	BlobBaseFeeScalar *uint256.Int

	OperatorFeeScalar   *uint256.Int
	OperatorFeeConstant *uint256.Int

	// EmptyScalars marks blocks where blob pricing is active but the
	// sequencer has not yet set its scalars. Such blocks are priced with the
	// legacy formula.
	EmptyScalars bool

	spec     l2.SpecID
	txL1Cost *uint256.Int
}

// Fetch reads the pricing parameters active under spec from the L1 block
// account.
func Fetch(state tosca.WorldState, blockNumber int64, spec l2.SpecID) Info {
	info := Info{
		L2Block: blockNumber,
		spec:    spec,
	}
	info.BaseFee = readSlot(state, baseFeeSlot)

	if !spec.IsEnabledIn(l2.BlobPricing) {
		overhead := readSlot(state, feeOverheadSlot)
		info.FeeOverhead = &overhead
		info.BaseFeeScalar = readSlot(state, feeScalarSlot)
		return info
	}

	scalars := state.GetStorage(l2.L1BlockAddress, slotKey(feeScalarsSlot))
	blobBaseFee := readSlot(state, blobBaseFeeSlot)
	info.BaseFeeScalar = packedUint(scalars, baseFeeScalarOffset, 4)
	blobScalar := packedUint(scalars, blobBaseFeeScalarOffset, 4)
	info.BlobBaseFee = &blobBaseFee
	info.BlobBaseFeeScalar = &blobScalar

	info.EmptyScalars = blobBaseFee.IsZero() && isZero(scalars[baseFeeScalarOffset:blobBaseFeeScalarOffset+4])
	if info.EmptyScalars {
		overhead := readSlot(state, feeOverheadSlot)
		info.FeeOverhead = &overhead
		info.BaseFeeScalar = readSlot(state, feeScalarSlot)
	}

	if spec.IsEnabledIn(l2.OperatorFee) {
		operator := state.GetStorage(l2.L1BlockAddress, slotKey(operatorFeeScalarsSlot))
		scalar := packedUint(operator, operatorFeeScalarOffset, 4)
		constant := packedUint(operator, operatorFeeConstantOffset, 8)
		info.OperatorFeeScalar = &scalar
		info.OperatorFeeConstant = &constant
	}
	return info
}

// Spec returns the rule set the snapshot was taken with.
func (i *Info) Spec() l2.SpecID {
	return i.spec
}

// DataGas estimates the gas for posting input on L1. Zero bytes count as
// one token, non-zero bytes as four.
func DataGas(input []byte) *uint256.Int {
	var tokens uint64
	for _, b := range input {
		if b == 0 {
			tokens++
		} else {
			tokens += 4
		}
	}
	return new(uint256.Int).Mul(uint256.NewInt(tokens), uint256.NewInt(tokenCost))
}

// CalculateTxL1Cost returns the L1 data fee of a transaction with the given
// input. The result is memoized until ClearTxL1Cost is called.
func (i *Info) CalculateTxL1Cost(input []byte) *uint256.Int {
	if i.txL1Cost != nil {
		return new(uint256.Int).Set(i.txL1Cost)
	}
	var cost *uint256.Int
	if i.spec.IsEnabledIn(l2.BlobPricing) {
		cost = i.blobPricingCost(input)
	} else {
		cost = i.legacyCost(input)
	}
	i.txL1Cost = cost
	return new(uint256.Int).Set(cost)
}

// ClearTxL1Cost drops the memoized cost of the previous transaction.
func (i *Info) ClearTxL1Cost() {
	i.txL1Cost = nil
}

// legacyCost is (dataGas + overhead) * baseFee * scalar / 1e6.
func (i *Info) legacyCost(input []byte) *uint256.Int {
	cost := saturatingAdd(DataGas(input), valueOrZero(i.FeeOverhead))
	cost = saturatingMul(cost, &i.BaseFee)
	cost = saturatingMul(cost, &i.BaseFeeScalar)
	return cost.Div(cost, uint256.NewInt(scalarDecimals))
}

// blobPricingCost is
//
//	dataGas * (baseFee*16*baseFeeScalar + blobBaseFee*blobBaseFeeScalar) / 16e6
//
// falling back to the legacy formula while the scalars are unset.
func (i *Info) blobPricingCost(input []byte) *uint256.Int {
	if i.EmptyScalars {
		return i.legacyCost(input)
	}
	calldataCost := saturatingMul(&i.BaseFee, uint256.NewInt(nonZeroByteCost))
	calldataCost = saturatingMul(calldataCost, &i.BaseFeeScalar)
	blobCost := saturatingMul(valueOrZero(i.BlobBaseFee), valueOrZero(i.BlobBaseFeeScalar))
	scaled := saturatingAdd(calldataCost, blobCost)

	cost := saturatingMul(scaled, DataGas(input))
	return cost.Div(cost, uint256.NewInt(scalarDecimals*nonZeroByteCost))
}

// OperatorFeeCharge is the operator fee for a transaction with the given
// input and gas limit. Deposits are exempt.
func (i *Info) OperatorFeeCharge(input []byte, gasLimit uint64) *uint256.Int {
	if len(input) > 0 && input[0] == byte(l2.UpgradeTxType) {
		return new(uint256.Int)
	}
	return i.operatorFee(gasLimit)
}

// OperatorFeeRefund returns the part of the operator fee charged for the gas
// limit which is not owed for the gas actually used.
func (i *Info) OperatorFeeRefund(meter *tosca.GasMeter) *uint256.Int {
	limit := uint64(meter.Limit())
	used := uint64(meter.Limit() - (meter.Remaining() + meter.Refunded()))
	charged := i.operatorFee(limit)
	owed := i.operatorFee(used)
	if charged.Lt(owed) {
		return new(uint256.Int)
	}
	return charged.Sub(charged, owed)
}

// operatorFee is zero for all gas amounts while the operator fee is not
// activated on the sequencer.
// TODO: charge gas*OperatorFeeScalar/1e6 + OperatorFeeConstant once the
// sequencer starts publishing operator fee parameters.
func (i *Info) operatorFee(gas uint64) *uint256.Int {
	return new(uint256.Int)
}

// Storage encodes the parameters in the storage layout of the L1 block
// account, such that Fetch restores them. The base fee scalar is stored in
// the legacy slot if an overhead is set.
func (i *Info) Storage() map[tosca.Key]tosca.Word {
	storage := map[tosca.Key]tosca.Word{
		slotKey(baseFeeSlot): tosca.Word(i.BaseFee.Bytes32()),
	}
	if i.FeeOverhead != nil {
		storage[slotKey(feeOverheadSlot)] = tosca.Word(i.FeeOverhead.Bytes32())
		storage[slotKey(feeScalarSlot)] = tosca.Word(i.BaseFeeScalar.Bytes32())
	} else {
		var scalars tosca.Word
		putPacked(&scalars, &i.BaseFeeScalar, baseFeeScalarOffset, 4)
		putPacked(&scalars, valueOrZero(i.BlobBaseFeeScalar), blobBaseFeeScalarOffset, 4)
		storage[slotKey(feeScalarsSlot)] = scalars
	}
	if i.BlobBaseFee != nil {
		storage[slotKey(blobBaseFeeSlot)] = tosca.Word(i.BlobBaseFee.Bytes32())
	}
	if i.OperatorFeeScalar != nil || i.OperatorFeeConstant != nil {
		var operator tosca.Word
		putPacked(&operator, valueOrZero(i.OperatorFeeScalar), operatorFeeScalarOffset, 4)
		putPacked(&operator, valueOrZero(i.OperatorFeeConstant), operatorFeeConstantOffset, 8)
		storage[slotKey(operatorFeeScalarsSlot)] = operator
	}
	return storage
}

func slotKey(slot byte) tosca.Key {
	var key tosca.Key
	key[31] = slot
	return key
}

func readSlot(state tosca.WorldState, slot byte) uint256.Int {
	word := state.GetStorage(l2.L1BlockAddress, slotKey(slot))
	var value uint256.Int
	value.SetBytes32(word[:])
	return value
}

func packedUint(word tosca.Word, offset, size int) uint256.Int {
	var value uint256.Int
	value.SetBytes(word[offset : offset+size])
	return value
}

// putPacked stores the lowest size bytes of value at offset.
func putPacked(word *tosca.Word, value *uint256.Int, offset, size int) {
	full := value.Bytes32()
	copy(word[offset:offset+size], full[32-size:])
}

func isZero(data []byte) bool {
	for _, b := range data {
		if b != 0 {
			return false
		}
	}
	return true
}

func valueOrZero(value *uint256.Int) *uint256.Int {
	if value == nil {
		return new(uint256.Int)
	}
	return value
}

var maxUint256 = new(uint256.Int).SetAllOne()

func saturatingAdd(a, b *uint256.Int) *uint256.Int {
	sum, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow {
		return new(uint256.Int).Set(maxUint256)
	}
	return sum
}

func saturatingMul(a, b *uint256.Int) *uint256.Int {
	product, overflow := new(uint256.Int).MulOverflow(a, b)
	if overflow {
		return new(uint256.Int).Set(maxUint256)
	}
	return product
}
