// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package l1block

import (
	"bytes"
	"testing"

	"github.com/Fantom-foundation/tosca-l2/go/l2"
	"github.com/Fantom-foundation/tosca-l2/go/tosca"
	"github.com/holiman/uint256"
	"go.uber.org/mock/gomock"
)

func wordOf(value uint64) tosca.Word {
	return tosca.Word(tosca.NewValue(value))
}

// packedWord places the given big-endian values at the given offsets.
func packedWord(fields map[int][]byte) tosca.Word {
	var word tosca.Word
	for offset, data := range fields {
		copy(word[offset:], data)
	}
	return word
}

func newL1BlockState(ctrl *gomock.Controller, slots map[byte]tosca.Word) *tosca.MockWorldState {
	state := tosca.NewMockWorldState(ctrl)
	state.EXPECT().GetStorage(l2.L1BlockAddress, gomock.Any()).DoAndReturn(
		func(_ tosca.Address, key tosca.Key) tosca.Word {
			return slots[key[31]]
		}).AnyTimes()
	return state
}

func TestFetch_LegacyReadsOverheadAndScalar(t *testing.T) {
	ctrl := gomock.NewController(t)
	state := newL1BlockState(ctrl, map[byte]tosca.Word{
		baseFeeSlot:     wordOf(1000),
		feeOverheadSlot: wordOf(188),
		feeScalarSlot:   wordOf(684_000),
	})

	info := Fetch(state, 12, l2.Initial)
	if info.L2Block != 12 {
		t.Errorf("unexpected block %d", info.L2Block)
	}
	if want, got := uint64(1000), info.BaseFee.Uint64(); want != got {
		t.Errorf("unexpected base fee, wanted %d, got %d", want, got)
	}
	if info.FeeOverhead == nil || info.FeeOverhead.Uint64() != 188 {
		t.Errorf("unexpected overhead %v", info.FeeOverhead)
	}
	if want, got := uint64(684_000), info.BaseFeeScalar.Uint64(); want != got {
		t.Errorf("unexpected scalar, wanted %d, got %d", want, got)
	}
	if info.BlobBaseFee != nil || info.OperatorFeeScalar != nil {
		t.Errorf("legacy info must not carry blob or operator parameters")
	}
}

func TestFetch_BlobPricingDecodesPackedScalars(t *testing.T) {
	ctrl := gomock.NewController(t)
	state := newL1BlockState(ctrl, map[byte]tosca.Word{
		baseFeeSlot: wordOf(1000),
		feeScalarsSlot: packedWord(map[int][]byte{
			baseFeeScalarOffset:     {0, 0, 0, 3},
			blobBaseFeeScalarOffset: {0, 0, 0, 5},
		}),
		blobBaseFeeSlot: wordOf(7),
		operatorFeeScalarsSlot: packedWord(map[int][]byte{
			operatorFeeScalarOffset:   {0, 0, 0, 11},
			operatorFeeConstantOffset: {0, 0, 0, 0, 0, 0, 0, 13},
		}),
	})

	tests := map[string]struct {
		spec         l2.SpecID
		withOperator bool
	}{
		"blob pricing": {l2.BlobPricing, false},
		"operator fee": {l2.OperatorFee, true},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			info := Fetch(state, 1, test.spec)
			if want, got := uint64(3), info.BaseFeeScalar.Uint64(); want != got {
				t.Errorf("unexpected base fee scalar, wanted %d, got %d", want, got)
			}
			if info.BlobBaseFeeScalar == nil || info.BlobBaseFeeScalar.Uint64() != 5 {
				t.Errorf("unexpected blob base fee scalar %v", info.BlobBaseFeeScalar)
			}
			if info.BlobBaseFee == nil || info.BlobBaseFee.Uint64() != 7 {
				t.Errorf("unexpected blob base fee %v", info.BlobBaseFee)
			}
			if info.EmptyScalars || info.FeeOverhead != nil {
				t.Errorf("scalars are set, legacy parameters must not be used")
			}
			if !test.withOperator {
				if info.OperatorFeeScalar != nil || info.OperatorFeeConstant != nil {
					t.Errorf("operator fee parameters must not be read")
				}
				return
			}
			if info.OperatorFeeScalar == nil || info.OperatorFeeScalar.Uint64() != 11 {
				t.Errorf("unexpected operator fee scalar %v", info.OperatorFeeScalar)
			}
			if info.OperatorFeeConstant == nil || info.OperatorFeeConstant.Uint64() != 13 {
				t.Errorf("unexpected operator fee constant %v", info.OperatorFeeConstant)
			}
		})
	}
}

func TestFetch_DetectsEmptyScalars(t *testing.T) {
	ctrl := gomock.NewController(t)
	state := newL1BlockState(ctrl, map[byte]tosca.Word{
		baseFeeSlot:     wordOf(1000),
		feeOverheadSlot: wordOf(188),
		feeScalarSlot:   wordOf(684_000),
		// bytes outside of the scalar range are ignored
		feeScalarsSlot: packedWord(map[int][]byte{0: {0xff}, 31: {0xff}}),
	})

	info := Fetch(state, 1, l2.BlobPricing)
	if !info.EmptyScalars {
		t.Fatalf("scalars should be detected as empty")
	}
	if info.FeeOverhead == nil || info.FeeOverhead.Uint64() != 188 {
		t.Errorf("overhead must be read for empty scalars, got %v", info.FeeOverhead)
	}
	if want, got := uint64(684_000), info.BaseFeeScalar.Uint64(); want != got {
		t.Errorf("unexpected scalar, wanted %d, got %d", want, got)
	}
}

func TestFetch_NonZeroBlobBaseFeeMeansScalarsAreSet(t *testing.T) {
	ctrl := gomock.NewController(t)
	state := newL1BlockState(ctrl, map[byte]tosca.Word{
		blobBaseFeeSlot: wordOf(1),
	})
	if info := Fetch(state, 1, l2.BlobPricing); info.EmptyScalars {
		t.Errorf("scalars must not be considered empty with a blob base fee")
	}
}

func TestDataGas_WeighsNonZeroBytesFourTimes(t *testing.T) {
	tests := map[string]struct {
		input []byte
		want  uint64
	}{
		"empty":     {nil, 0},
		"zero byte": {[]byte{0}, 4},
		"non-zero":  {[]byte{1}, 16},
		"mixed":     {[]byte{0, 1, 0, 2}, 40},
		"16 x 0xff": {bytes.Repeat([]byte{0xff}, 16), 256},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			if got := DataGas(test.input).Uint64(); got != test.want {
				t.Errorf("unexpected data gas, wanted %d, got %d", test.want, got)
			}
		})
	}
}

func TestCalculateTxL1Cost_BlobPricingNumericExample(t *testing.T) {
	info := Info{
		spec:              l2.BlobPricing,
		BaseFee:           *uint256.NewInt(1000),
		BaseFeeScalar:     *uint256.NewInt(2_000_000),
		BlobBaseFee:       uint256.NewInt(0),
		BlobBaseFeeScalar: uint256.NewInt(0),
	}
	input := bytes.Repeat([]byte{0xff}, 16)

	// 256 * (1000*16*2_000_000 + 0) / 16_000_000
	if want, got := uint64(512_000), info.CalculateTxL1Cost(input).Uint64(); want != got {
		t.Errorf("unexpected cost, wanted %d, got %d", want, got)
	}
}

func TestCalculateTxL1Cost_BlobPricingIncludesBlobFee(t *testing.T) {
	info := Info{
		spec:              l2.BlobPricing,
		BaseFee:           *uint256.NewInt(1000),
		BaseFeeScalar:     *uint256.NewInt(2_000_000),
		BlobBaseFee:       uint256.NewInt(10),
		BlobBaseFeeScalar: uint256.NewInt(1_600_000),
	}
	input := bytes.Repeat([]byte{0xff}, 16)

	// 256 * (32_000_000_000 + 16_000_000) / 16_000_000
	if want, got := uint64(512_256), info.CalculateTxL1Cost(input).Uint64(); want != got {
		t.Errorf("unexpected cost, wanted %d, got %d", want, got)
	}
}

func TestCalculateTxL1Cost_LegacyFormula(t *testing.T) {
	info := Info{
		spec:          l2.Initial,
		BaseFee:       *uint256.NewInt(1000),
		BaseFeeScalar: *uint256.NewInt(684_000),
		FeeOverhead:   uint256.NewInt(188),
	}
	input := []byte{0, 0, 0, 0, 0, 1, 2, 3, 4, 5}

	// (100 + 188) * 1000 * 684_000 / 1_000_000
	if want, got := uint64(196_992), info.CalculateTxL1Cost(input).Uint64(); want != got {
		t.Errorf("unexpected cost, wanted %d, got %d", want, got)
	}
}

func TestCalculateTxL1Cost_EmptyScalarsMatchLegacyFormula(t *testing.T) {
	inputs := [][]byte{
		nil,
		{0},
		bytes.Repeat([]byte{0xff}, 16),
		[]byte("some transaction input with 0 and \x00 bytes"),
	}
	for _, input := range inputs {
		legacy := Info{
			spec:          l2.Initial,
			BaseFee:       *uint256.NewInt(30_000_000_000),
			BaseFeeScalar: *uint256.NewInt(684_000),
			FeeOverhead:   uint256.NewInt(188),
		}
		empty := legacy
		empty.spec = l2.BlobPricing
		empty.EmptyScalars = true
		empty.BlobBaseFee = uint256.NewInt(0)
		empty.BlobBaseFeeScalar = uint256.NewInt(0)

		want := legacy.CalculateTxL1Cost(input)
		got := empty.CalculateTxL1Cost(input)
		if !want.Eq(got) {
			t.Errorf("input %x: costs differ, legacy %v, empty scalars %v", input, want, got)
		}
	}
}

func TestCalculateTxL1Cost_SaturatesOnOverflow(t *testing.T) {
	info := Info{
		spec:          l2.Initial,
		BaseFee:       *new(uint256.Int).SetAllOne(),
		BaseFeeScalar: *uint256.NewInt(2),
	}
	want := new(uint256.Int).Div(new(uint256.Int).SetAllOne(), uint256.NewInt(scalarDecimals))
	if got := info.CalculateTxL1Cost([]byte{1}); !want.Eq(got) {
		t.Errorf("unexpected cost, wanted %v, got %v", want, got)
	}
}

func TestCalculateTxL1Cost_IsMemoizedUntilCleared(t *testing.T) {
	info := Info{
		spec:          l2.Initial,
		BaseFee:       *uint256.NewInt(1),
		BaseFeeScalar: *uint256.NewInt(1_000_000),
	}
	first := info.CalculateTxL1Cost([]byte{1})
	if want, got := uint64(16), first.Uint64(); want != got {
		t.Fatalf("unexpected cost, wanted %d, got %d", want, got)
	}

	// the memo ignores the input and the parameters
	info.BaseFee = *uint256.NewInt(2)
	if want, got := uint64(16), info.CalculateTxL1Cost([]byte{1, 1}).Uint64(); want != got {
		t.Errorf("expected memoized cost %d, got %d", want, got)
	}

	info.ClearTxL1Cost()
	if want, got := uint64(64), info.CalculateTxL1Cost([]byte{1, 1}).Uint64(); want != got {
		t.Errorf("unexpected cost after clearing, wanted %d, got %d", want, got)
	}
}

func TestCalculateTxL1Cost_ResultIsNotAliased(t *testing.T) {
	info := Info{
		spec:          l2.Initial,
		BaseFee:       *uint256.NewInt(1),
		BaseFeeScalar: *uint256.NewInt(1_000_000),
	}
	cost := info.CalculateTxL1Cost([]byte{1})
	cost.SetUint64(0)
	if want, got := uint64(16), info.CalculateTxL1Cost([]byte{1}).Uint64(); want != got {
		t.Errorf("memo modified through result, wanted %d, got %d", want, got)
	}
}

func TestOperatorFee_ExemptsDepositsAndRefundsUnusedGas(t *testing.T) {
	info := Info{spec: l2.OperatorFee}
	tests := map[string][]byte{
		"deposit marker": {0x7E, 1, 2},
		"ordinary input": {1, 2, 3},
		"empty input":    nil,
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			if charge := info.OperatorFeeCharge(input, 100_000); !charge.IsZero() {
				t.Errorf("unexpected operator fee %v", charge)
			}
		})
	}

	meter := tosca.NewGasMeterWithUsage(100_000, 40_000)
	if refund := info.OperatorFeeRefund(&meter); !refund.IsZero() {
		t.Errorf("unexpected operator fee refund %v", refund)
	}
}

func TestStorage_IsRestoredByFetch(t *testing.T) {
	tests := map[string]struct {
		spec l2.SpecID
		info Info
	}{
		"legacy": {
			spec: l2.Initial,
			info: Info{
				BaseFee:       *uint256.NewInt(1000),
				BaseFeeScalar: *uint256.NewInt(684_000),
				FeeOverhead:   uint256.NewInt(188),
			},
		},
		"operator fee": {
			spec: l2.OperatorFee,
			info: Info{
				BaseFee:             *uint256.NewInt(1000),
				BaseFeeScalar:       *uint256.NewInt(2_000_000),
				BlobBaseFee:         uint256.NewInt(7),
				BlobBaseFeeScalar:   uint256.NewInt(5),
				OperatorFeeScalar:   uint256.NewInt(11),
				OperatorFeeConstant: uint256.NewInt(13),
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			storage := test.info.Storage()
			slots := map[byte]tosca.Word{}
			for key, value := range storage {
				slots[key[31]] = value
			}
			ctrl := gomock.NewController(t)
			restored := Fetch(newL1BlockState(ctrl, slots), 1, test.spec)

			if !restored.BaseFee.Eq(&test.info.BaseFee) || !restored.BaseFeeScalar.Eq(&test.info.BaseFeeScalar) {
				t.Errorf("unexpected base fee parameters %v/%v", &restored.BaseFee, &restored.BaseFeeScalar)
			}
			optional := map[string][2]*uint256.Int{
				"overhead":              {test.info.FeeOverhead, restored.FeeOverhead},
				"blob base fee":         {test.info.BlobBaseFee, restored.BlobBaseFee},
				"blob base fee scalar":  {test.info.BlobBaseFeeScalar, restored.BlobBaseFeeScalar},
				"operator fee scalar":   {test.info.OperatorFeeScalar, restored.OperatorFeeScalar},
				"operator fee constant": {test.info.OperatorFeeConstant, restored.OperatorFeeConstant},
			}
			for field, values := range optional {
				want, got := values[0], values[1]
				if (want == nil) != (got == nil) || (want != nil && !want.Eq(got)) {
					t.Errorf("unexpected %s, wanted %v, got %v", field, want, got)
				}
			}
			if restored.EmptyScalars {
				t.Errorf("restored scalars should not be empty")
			}
		})
	}
}
