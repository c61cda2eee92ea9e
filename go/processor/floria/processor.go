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
	"github.com/Fantom-foundation/tosca-l2/go/tosca"
)

func init() {
	tosca.RegisterProcessorFactory("floria", func(interpreter tosca.Interpreter) tosca.Processor {
		return NewProcessor(interpreter, nil)
	})
}

// Processor implements the transaction rules of an ordinary Ethereum chain.
// Its phases are exported so that chains with additional rules can compose
// them with their own.
type Processor struct {
	interpreter tosca.Interpreter
	precompiles PrecompileProvider
}

// NewProcessor creates a processor running code on the given interpreter.
// If precompiles is nil, the standard Ethereum precompiled contracts are
// available.
func NewProcessor(interpreter tosca.Interpreter, precompiles PrecompileProvider) *Processor {
	if precompiles == nil {
		precompiles = MainnetPrecompiles()
	}
	return &Processor{
		interpreter: interpreter,
		precompiles: precompiles,
	}
}

func (p *Processor) Run(
	blockParameters tosca.BlockParameters,
	transaction tosca.Transaction,
	context tosca.TransactionContext,
) (tosca.Receipt, error) {
	revision := blockParameters.Revision
	if err := p.ValidateEnv(blockParameters, transaction); err != nil {
		return tosca.Receipt{}, err
	}
	if err := ValidateNonceAndCode(transaction, context); err != nil {
		return tosca.Receipt{}, err
	}

	snapshot := context.CreateSnapshot()
	if err := BuyGas(transaction, context, tosca.Value{}); err != nil {
		context.RestoreSnapshot(snapshot)
		return tosca.Receipt{}, err
	}
	if transaction.Recipient != nil {
		context.SetNonce(transaction.Sender, transaction.Nonce+1)
	}

	gas := transaction.GasLimit - IntrinsicGas(transaction, revision)
	result, err := p.Execute(blockParameters, transaction, context, gas)
	if pending := PendingError(context); pending != nil {
		err = pending
	}
	if err != nil {
		context.RestoreSnapshot(snapshot)
		return tosca.Receipt{}, Classify(err)
	}

	meter := result.GasMeter(transaction.GasLimit)
	Refund(revision, &meter)
	ApplyFloor(transaction, revision, &meter)
	ReimburseCaller(context, transaction, &meter, tosca.Value{})
	RewardBeneficiary(blockParameters, transaction, context, &meter)

	return tosca.Receipt{
		Success:         result.Status == StatusSuccess,
		Output:          result.Output,
		ContractAddress: result.CreatedAddress,
		GasUsed:         meter.Used(),
		Logs:            context.GetLogs(),
	}, nil
}

// Refund caps the refund recorded during execution.
func Refund(revision tosca.Revision, meter *tosca.GasMeter) {
	meter.SetFinalRefund(revision >= tosca.R10_London)
}

// ApplyFloor raises the charged gas to the calldata floor from Prague on.
func ApplyFloor(transaction tosca.Transaction, revision tosca.Revision, meter *tosca.GasMeter) {
	if revision >= tosca.R14_Prague {
		meter.EnsureMinimumUsage(FloorDataGas(transaction))
	}
}

// ReimburseCaller returns the unused and refunded gas at the transaction's
// gas price, plus the given extra amount, to the sender.
func ReimburseCaller(context tosca.TransactionContext, transaction tosca.Transaction, meter *tosca.GasMeter, extra tosca.Value) {
	returned := uint64(meter.Remaining() + meter.Refunded())
	amount := tosca.Add(transaction.GasPrice.Scale(returned), extra)
	if amount.IsZero() {
		return
	}
	context.SetBalance(transaction.Sender, tosca.Add(context.GetBalance(transaction.Sender), amount))
}

// RewardBeneficiary pays the priority fee of the used gas to the block's
// coinbase. The base fee share is not paid to anyone from London on.
func RewardBeneficiary(blockParameters tosca.BlockParameters, transaction tosca.Transaction, context tosca.TransactionContext, meter *tosca.GasMeter) {
	reward := EffectiveTip(blockParameters, transaction).Scale(uint64(meter.Used()))
	if reward.IsZero() {
		return
	}
	coinbase := blockParameters.Coinbase
	context.SetBalance(coinbase, tosca.Add(context.GetBalance(coinbase), reward))
}

// EffectiveTip is the part of the gas price exceeding the base fee.
func EffectiveTip(blockParameters tosca.BlockParameters, transaction tosca.Transaction) tosca.Value {
	if blockParameters.Revision < tosca.R10_London {
		return transaction.GasPrice
	}
	return tosca.SubSaturating(transaction.GasPrice, blockParameters.BaseFee)
}
