// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package floria

import (
	"errors"
	"testing"

	"github.com/Fantom-foundation/tosca-l2/go/state"
	"github.com/Fantom-foundation/tosca-l2/go/tosca"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/mock/gomock"
)

var (
	sender    = tosca.Address{0x01}
	recipient = tosca.Address{0x02}
	coinbase  = tosca.Address{0x0C}
)

func newTestSetup(t *testing.T) (*Processor, *tosca.MockInterpreter, *state.Memory) {
	ctrl := gomock.NewController(t)
	interpreter := tosca.NewMockInterpreter(ctrl)
	memory := state.NewMemory(state.WorldState{
		sender:    state.Account{Balance: tosca.NewValue(1_000_000)},
		recipient: state.Account{Code: tosca.Code{0x00}},
	})
	return NewProcessor(interpreter, nil), interpreter, memory
}

func testBlock() tosca.BlockParameters {
	return tosca.BlockParameters{
		Coinbase: coinbase,
		BaseFee:  tosca.NewValue(5),
		Revision: tosca.R14_Prague,
	}
}

func testTransaction() tosca.Transaction {
	return tosca.Transaction{
		Sender:    sender,
		Recipient: &recipient,
		GasLimit:  50_000,
		GasPrice:  tosca.NewValue(10),
	}
}

// consume makes the interpreter use the given amount of gas.
func consume(gas tosca.Gas, refund tosca.Gas) func(tosca.Parameters) (tosca.Result, error) {
	return func(params tosca.Parameters) (tosca.Result, error) {
		return tosca.Result{Success: true, GasLeft: params.Gas - gas, GasRefund: refund}, nil
	}
}

func TestProcessorRegistry_FloriaIsRegistered(t *testing.T) {
	if tosca.GetProcessorFactory("floria") == nil {
		t.Errorf("floria processor factory not found")
	}
}

func TestProcessor_SuccessfulCallChargesUsedGas(t *testing.T) {
	processor, interpreter, memory := newTestSetup(t)
	interpreter.EXPECT().Run(gomock.Any()).DoAndReturn(consume(1000, 0))

	receipt, err := processor.Run(testBlock(), testTransaction(), memory)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !receipt.Success {
		t.Errorf("transaction should succeed")
	}
	if want, got := tosca.Gas(22_000), receipt.GasUsed; want != got {
		t.Errorf("unexpected gas used, wanted %d, got %d", want, got)
	}
	if want, got := tosca.NewValue(1_000_000-22_000*10), memory.GetBalance(sender); want != got {
		t.Errorf("unexpected sender balance, wanted %v, got %v", want, got)
	}
	if want, got := tosca.NewValue(22_000*5), memory.GetBalance(coinbase); want != got {
		t.Errorf("unexpected coinbase balance, wanted %v, got %v", want, got)
	}
	if want, got := uint64(1), memory.GetNonce(sender); want != got {
		t.Errorf("unexpected nonce, wanted %d, got %d", want, got)
	}
}

func TestProcessor_RevertKeepsNonceAndChargesGas(t *testing.T) {
	processor, interpreter, memory := newTestSetup(t)
	interpreter.EXPECT().Run(gomock.Any()).DoAndReturn(func(params tosca.Parameters) (tosca.Result, error) {
		params.Context.SetStorage(recipient, tosca.Key{1}, tosca.Word{1})
		return tosca.Result{GasLeft: params.Gas - 500, Output: []byte("reason")}, nil
	})

	receipt, err := processor.Run(testBlock(), testTransaction(), memory)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if receipt.Success || string(receipt.Output) != "reason" {
		t.Errorf("unexpected receipt %v", receipt)
	}
	if want, got := tosca.Gas(21_500), receipt.GasUsed; want != got {
		t.Errorf("unexpected gas used, wanted %d, got %d", want, got)
	}
	if want, got := uint64(1), memory.GetNonce(sender); want != got {
		t.Errorf("unexpected nonce, wanted %d, got %d", want, got)
	}
	if got := memory.GetStorage(recipient, tosca.Key{1}); got != (tosca.Word{}) {
		t.Errorf("storage update should be reverted")
	}
}

func TestProcessor_RefundIsCappedFromLondon(t *testing.T) {
	processor, interpreter, memory := newTestSetup(t)
	interpreter.EXPECT().Run(gomock.Any()).DoAndReturn(consume(10_000, 100_000))

	receipt, err := processor.Run(testBlock(), testTransaction(), memory)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want, got := tosca.Gas(31_000-31_000/5), receipt.GasUsed; want != got {
		t.Errorf("unexpected gas used, wanted %d, got %d", want, got)
	}
}

func TestProcessor_CalldataFloorRaisesGasUsed(t *testing.T) {
	processor, interpreter, memory := newTestSetup(t)
	interpreter.EXPECT().Run(gomock.Any()).DoAndReturn(consume(0, 0))

	transaction := testTransaction()
	transaction.Input = make(tosca.Data, 100)
	for i := range transaction.Input {
		transaction.Input[i] = 0xFF
	}

	receipt, err := processor.Run(testBlock(), transaction, memory)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want, got := tosca.Gas(21_000+400*TxCostFloorPerToken), receipt.GasUsed; want != got {
		t.Errorf("unexpected gas used, wanted %d, got %d", want, got)
	}
}

func TestProcessor_CreateDeploysCode(t *testing.T) {
	processor, interpreter, memory := newTestSetup(t)
	interpreter.EXPECT().Run(gomock.Any()).DoAndReturn(func(params tosca.Parameters) (tosca.Result, error) {
		if params.Kind != tosca.Create {
			t.Errorf("unexpected call kind %v", params.Kind)
		}
		return tosca.Result{Success: true, Output: []byte{1, 2}, GasLeft: params.Gas}, nil
	})

	transaction := testTransaction()
	transaction.Recipient = nil
	transaction.Input = tosca.Data{0x60}
	transaction.GasLimit = 100_000

	receipt, err := processor.Run(testBlock(), transaction, memory)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := tosca.Address(crypto.CreateAddress(common.Address(sender), 0))
	if receipt.ContractAddress == nil || *receipt.ContractAddress != want {
		t.Fatalf("unexpected contract address %v", receipt.ContractAddress)
	}
	if code := memory.GetCode(want); string(code) != string([]byte{1, 2}) {
		t.Errorf("unexpected code %x", code)
	}
	// intrinsic gas of 53_000 + 16 + 2 plus code deposit of 2*200
	if want, got := tosca.Gas(53_418), receipt.GasUsed; want != got {
		t.Errorf("unexpected gas used, wanted %d, got %d", want, got)
	}
	if want, got := uint64(1), memory.GetNonce(sender); want != got {
		t.Errorf("unexpected nonce, wanted %d, got %d", want, got)
	}
}

func TestProcessor_InvalidTransactionsLeaveStateUntouched(t *testing.T) {
	tests := map[string]struct {
		modify func(*tosca.Transaction)
		want   error
	}{
		"nonce too high": {
			modify: func(tx *tosca.Transaction) { tx.Nonce = 1 },
			want:   ErrNonceTooHigh,
		},
		"insufficient funds": {
			modify: func(tx *tosca.Transaction) { tx.Value = tosca.NewValue(1_000_000) },
			want:   ErrInsufficientFunds,
		},
		"intrinsic gas": {
			modify: func(tx *tosca.Transaction) { tx.GasLimit = 20_999 },
			want:   ErrIntrinsicGas,
		},
		"price below base fee": {
			modify: func(tx *tosca.Transaction) { tx.GasPrice = tosca.NewValue(4) },
			want:   ErrFeeCapTooLow,
		},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			processor, _, memory := newTestSetup(t)
			before := memory.State()
			transaction := testTransaction()
			test.modify(&transaction)

			_, err := processor.Run(testBlock(), transaction, memory)
			if !IsTransactionError(err) || !errors.Is(err, test.want) {
				t.Errorf("unexpected error, wanted %v, got %v", test.want, err)
			}
			if diff := memory.State().Diff(before); len(diff) != 0 {
				t.Errorf("state modified: %v", diff)
			}
		})
	}
}

func TestProcessor_InterpreterErrorsAreEngineErrors(t *testing.T) {
	processor, interpreter, memory := newTestSetup(t)
	before := memory.State()
	interpreter.EXPECT().Run(gomock.Any()).Return(tosca.Result{}, errors.New("broken"))

	_, err := processor.Run(testBlock(), testTransaction(), memory)
	var engineErr *EngineError
	if !errors.As(err, &engineErr) || engineErr.Message != "broken" {
		t.Errorf("unexpected error %v", err)
	}
	if diff := memory.State().Diff(before); len(diff) != 0 {
		t.Errorf("state modified: %v", diff)
	}
}

func TestProcessor_QueuedDatabaseErrorsArePassedThrough(t *testing.T) {
	processor, interpreter, memory := newTestSetup(t)
	before := memory.State()
	dbErr := &DatabaseError{Err: errors.New("disk failure")}
	interpreter.EXPECT().Run(gomock.Any()).DoAndReturn(func(params tosca.Parameters) (tosca.Result, error) {
		memory.QueueError(dbErr)
		return tosca.Result{Success: true, GasLeft: params.Gas}, nil
	})

	_, err := processor.Run(testBlock(), testTransaction(), memory)
	if !errors.Is(err, dbErr) {
		t.Errorf("unexpected error %v", err)
	}
	if diff := memory.State().Diff(before); len(diff) != 0 {
		t.Errorf("state modified: %v", diff)
	}
}

func TestEffectiveTip(t *testing.T) {
	tests := map[string]struct {
		revision tosca.Revision
		price    uint64
		want     uint64
	}{
		"before london": {tosca.R09_Berlin, 10, 10},
		"london":        {tosca.R10_London, 10, 5},
		"at base fee":   {tosca.R14_Prague, 5, 0},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			block := tosca.BlockParameters{BaseFee: tosca.NewValue(5), Revision: test.revision}
			got := EffectiveTip(block, tosca.Transaction{GasPrice: tosca.NewValue(test.price)})
			if want := tosca.NewValue(test.want); want != got {
				t.Errorf("unexpected tip, wanted %v, got %v", want, got)
			}
		})
	}
}

func TestReimburseCaller_ReturnsUnusedGasAndExtra(t *testing.T) {
	memory := state.NewMemory(nil)
	meter := tosca.NewGasMeterWithUsage(100, 60)
	meter.RecordRefund(5)
	transaction := tosca.Transaction{Sender: sender, GasPrice: tosca.NewValue(2)}

	ReimburseCaller(memory, transaction, &meter, tosca.NewValue(7))
	if want, got := tosca.NewValue((40+5)*2+7), memory.GetBalance(sender); want != got {
		t.Errorf("unexpected balance, wanted %v, got %v", want, got)
	}
}
