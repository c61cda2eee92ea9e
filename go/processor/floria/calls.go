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
	"fmt"

	"github.com/Fantom-foundation/tosca-l2/go/tosca"

	// geth dependencies
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var emptyCodeHash = tosca.Hash(crypto.Keccak256(nil))

// Status is the terminal state of a top-level call frame.
type Status int

const (
	StatusSuccess Status = iota
	StatusRevert
	StatusHalt
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusRevert:
		return "revert"
	case StatusHalt:
		return "halt"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// FrameResult is the outcome of the top-level call or create of a
// transaction.
type FrameResult struct {
	Status         Status
	Output         tosca.Data
	GasLeft        tosca.Gas
	GasRefund      tosca.Gas
	CreatedAddress *tosca.Address
}

// GasMeter derives the transaction's gas accounting from the frame result,
// given the gas limit of the transaction. Refunds only count for successful
// frames.
func (r FrameResult) GasMeter(limit tosca.Gas) tosca.GasMeter {
	meter := tosca.NewGasMeterWithUsage(limit, limit-r.GasLeft)
	if r.Status == StatusSuccess {
		meter.RecordRefund(r.GasRefund)
	}
	return meter
}

// Execute runs the top-level call or create of the transaction with the gas
// left after intrinsic costs. The world state is warmed up according to the
// revision before the frame is entered. Errors are failures of the
// interpreter, not of the executed code.
func (p *Processor) Execute(
	blockParameters tosca.BlockParameters,
	transaction tosca.Transaction,
	context tosca.TransactionContext,
	gas tosca.Gas,
) (FrameResult, error) {
	if blockParameters.Revision >= tosca.R09_Berlin {
		p.warmUp(blockParameters, transaction, context)
	}

	runContext := runContext{
		TransactionContext: context,
		interpreter:        p.interpreter,
		precompiles:        p.precompiles,
		blockParameters:    blockParameters,
		transactionParameters: tosca.TransactionParameters{
			Origin:     transaction.Sender,
			GasPrice:   transaction.GasPrice,
			BlobHashes: []tosca.Hash{},
		},
	}

	if transaction.Recipient == nil {
		result, err := runContext.Call(tosca.Create, tosca.CallParameters{
			Sender: transaction.Sender,
			Value:  transaction.Value,
			Input:  transaction.Input,
			Gas:    gas,
		})
		if err != nil {
			return FrameResult{}, err
		}
		frame := frameResultOf(result)
		if frame.Status == StatusSuccess {
			created := result.CreatedAddress
			frame.CreatedAddress = &created
		}
		return frame, nil
	}

	result, err := runContext.Call(tosca.Call, tosca.CallParameters{
		Sender:      transaction.Sender,
		Recipient:   *transaction.Recipient,
		Value:       transaction.Value,
		Input:       transaction.Input,
		Gas:         gas,
		CodeAddress: *transaction.Recipient,
	})
	if err != nil {
		return FrameResult{}, err
	}
	return frameResultOf(result), nil
}

func frameResultOf(result tosca.CallResult) FrameResult {
	status := StatusSuccess
	if !result.Success {
		status = StatusHalt
		if result.GasLeft > 0 || len(result.Output) > 0 {
			status = StatusRevert
		}
	}
	return FrameResult{
		Status:    status,
		Output:    result.Output,
		GasLeft:   result.GasLeft,
		GasRefund: result.GasRefund,
	}
}

func (p *Processor) warmUp(blockParameters tosca.BlockParameters, transaction tosca.Transaction, context tosca.TransactionContext) {
	context.AccessAccount(transaction.Sender)
	if transaction.Recipient != nil {
		context.AccessAccount(*transaction.Recipient)
	}
	for _, address := range p.precompiles.WarmAddresses(blockParameters.Revision) {
		context.AccessAccount(address)
	}
	for _, tuple := range transaction.AccessList {
		context.AccessAccount(tuple.Address)
		for _, key := range tuple.Keys {
			context.AccessStorage(tuple.Address, key)
		}
	}
	if blockParameters.Revision >= tosca.R12_Shanghai {
		context.AccessAccount(blockParameters.Coinbase)
	}
}

func hashCode(code tosca.Code) tosca.Hash {
	return tosca.Hash(crypto.Keccak256(code))
}

func createAddress(
	kind tosca.CallKind,
	sender tosca.Address,
	nonce uint64,
	salt tosca.Hash,
	initHash tosca.Hash,
) tosca.Address {
	if kind == tosca.Create {
		return tosca.Address(crypto.CreateAddress(common.Address(sender), nonce))
	}
	return tosca.Address(crypto.CreateAddress2(common.Address(sender), common.Hash(salt), initHash[:]))
}

func canTransferValue(
	context tosca.TransactionContext,
	value tosca.Value,
	sender tosca.Address,
	recipient *tosca.Address,
) bool {
	if value.IsZero() {
		return true
	}
	if context.GetBalance(sender).Cmp(value) < 0 {
		return false
	}
	if recipient == nil || sender == *recipient {
		return true
	}
	_, overflow := tosca.AddOverflow(context.GetBalance(*recipient), value)
	return !overflow
}

func incrementNonce(context tosca.TransactionContext, address tosca.Address) error {
	nonce := context.GetNonce(address)
	if nonce+1 < nonce {
		return fmt.Errorf("nonce overflow")
	}
	context.SetNonce(address, nonce+1)
	return nil
}

// transferValue moves value between accounts. Only to be called after
// canTransferValue succeeded.
func transferValue(
	context tosca.TransactionContext,
	value tosca.Value,
	sender tosca.Address,
	recipient tosca.Address,
) {
	if value.IsZero() || sender == recipient {
		return
	}
	context.SetBalance(sender, tosca.Sub(context.GetBalance(sender), value))
	context.SetBalance(recipient, tosca.Add(context.GetBalance(recipient), value))
}
