// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package rollup implements the transaction processor of the rollup. It
// composes the ordinary Ethereum rules of the floria processor with L1 data
// fees, fee vaults and the settlement of cross-layer transactions.
package rollup

import (
	"math"

	"github.com/Fantom-foundation/tosca-l2/go/l2"
	"github.com/Fantom-foundation/tosca-l2/go/l2/l1block"
	"github.com/Fantom-foundation/tosca-l2/go/l2/syscontract"
	"github.com/Fantom-foundation/tosca-l2/go/processor/floria"
	"github.com/Fantom-foundation/tosca-l2/go/state"
	"github.com/Fantom-foundation/tosca-l2/go/tosca"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/holiman/uint256"
)

var (
	failedDepositsCounter = metrics.NewRegisteredCounter("rollup/deposits/failed", nil)
	forcedFailuresCounter = metrics.NewRegisteredCounter("rollup/forcefail", nil)
)

func init() {
	tosca.RegisterProcessorFactory("rollup", func(interpreter tosca.Interpreter) tosca.Processor {
		processor, err := NewProcessor(interpreter, DefaultConfig(), nil)
		if err != nil {
			panic(err)
		}
		return processor
	})
}

// Processor runs the transactions of the rollup. It is not safe for
// concurrent use; transactions are processed one after another.
type Processor struct {
	floria *floria.Processor
	oracle l1block.Oracle
	config Config
}

// NewProcessor creates a processor running code on the given interpreter.
// The contract deployer installs code provided by codes, or by the
// transaction context if codes is nil.
func NewProcessor(interpreter tosca.Interpreter, config Config, codes syscontract.CodeStore) (*Processor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if codes != nil && config.CodeCacheSize > 0 {
		cache, err := state.NewCodeCache(codes, config.CodeCacheSize)
		if err != nil {
			return nil, err
		}
		codes = cache
	}
	return &Processor{
		floria: floria.NewProcessor(interpreter, syscontract.NewProvider(nil, codes)),
		config: config,
	}, nil
}

// Run processes a transaction without cross-layer settlement data.
func (p *Processor) Run(
	blockParameters tosca.BlockParameters,
	transaction tosca.Transaction,
	context tosca.TransactionContext,
) (tosca.Receipt, error) {
	tx, err := l2.NewTransaction(transaction)
	if err != nil {
		return tosca.Receipt{}, floria.NewTransactionError(err, "")
	}
	result, err := p.Transact(blockParameters, tx, context)
	if err != nil {
		return tosca.Receipt{}, err
	}
	return result.Receipt(), nil
}

// Transact processes a single transaction. Transactions violating the rules
// of the chain are rejected with a floria.TransactionError and leave the
// state unchanged, except for cross-layer transactions, which are recorded
// as failed deposits instead. Database and engine errors are returned as
// they are.
func (p *Processor) Transact(
	blockParameters tosca.BlockParameters,
	tx l2.Transaction,
	context tosca.TransactionContext,
) (ExecutionResult, error) {
	blockParameters.Revision = p.config.Spec.Revision()
	defer p.oracle.ClearTxL1Cost()

	snapshot := context.CreateSnapshot()
	result, err := p.transact(blockParameters, &tx, context)
	if err == nil {
		return result, nil
	}
	context.RestoreSnapshot(snapshot)
	if !isFailedDeposit(&tx, err) {
		return ExecutionResult{}, err
	}
	return failDeposit(&tx, context, err), nil
}

// isFailedDeposit decides whether an error is recovered from by landing the
// transaction as a failed deposit.
func isFailedDeposit(tx *l2.Transaction, err error) bool {
	return tx.IsCrossLayer() && floria.IsTransactionError(err)
}

func (p *Processor) transact(
	blockParameters tosca.BlockParameters,
	tx *l2.Transaction,
	context tosca.TransactionContext,
) (ExecutionResult, error) {
	revision := blockParameters.Revision
	crossLayer := tx.IsCrossLayer()

	if crossLayer {
		if intrinsic := floria.IntrinsicGas(tx.Transaction, revision); tx.GasLimit < intrinsic {
			return ExecutionResult{}, floria.NewTransactionError(floria.ErrIntrinsicGas, "have %d, want %d", tx.GasLimit, intrinsic)
		}
	} else {
		if err := p.floria.ValidateEnv(blockParameters, tx.Transaction); err != nil {
			return ExecutionResult{}, err
		}
		if err := floria.ValidateNonceAndCode(tx.Transaction, context); err != nil {
			return ExecutionResult{}, err
		}
	}

	addBalance(context, tx.Sender, tx.MintValue())

	var info *l1block.Info
	var l1Cost, operatorCharge tosca.Value
	if crossLayer {
		// the value is always covered, funds are not checked
		if balance := context.GetBalance(tx.Sender); balance.Cmp(tx.Value) < 0 {
			context.SetBalance(tx.Sender, tx.Value)
		}
	} else {
		// Deposits leading the block update the L1 block account, so the
		// pricing is read by the first ordinary transaction.
		var err error
		if info, err = p.refreshL1Info(blockParameters, context); err != nil {
			return ExecutionResult{}, err
		}
		l1Cost = tosca.ValueFromUint256(info.CalculateTxL1Cost(tx.L1Data()))
		operatorCharge = tosca.ValueFromUint256(info.OperatorFeeCharge(tx.L1Data(), uint64(tx.GasLimit)))
		fees, overflow := tosca.AddOverflow(l1Cost, operatorCharge)
		if overflow {
			return ExecutionResult{}, floria.NewTransactionError(floria.ErrInsufficientFunds, "fee overflow for %v", tx.Sender)
		}
		if err := floria.BuyGas(tx.Transaction, context, fees); err != nil {
			return ExecutionResult{}, err
		}
	}
	if tx.Recipient != nil {
		incrementNonce(context, tx.Sender)
	}

	frame, err := p.execute(blockParameters, tx, context)
	if err != nil {
		return ExecutionResult{}, err
	}

	meter := gasMeterOf(tx, revision, frame)
	if crossLayer {
		settleCrossLayer(tx, context, &meter, frame.Status == floria.StatusSuccess)
	} else {
		operatorRefund := tosca.ValueFromUint256(info.OperatorFeeRefund(&meter))
		floria.ReimburseCaller(context, tx.Transaction, &meter, operatorRefund)
		floria.RewardBeneficiary(blockParameters, tx.Transaction, context, &meter)

		addBalance(context, l2.BaseFeeVaultAddress, blockParameters.BaseFee.Scale(uint64(meter.Used())))
		addBalance(context, l2.L1FeeVaultAddress, l1Cost)
		addBalance(context, l2.OperatorVaultAddress, tosca.Sub(operatorCharge, operatorRefund))
	}

	if err := floria.PendingError(context); err != nil {
		return ExecutionResult{}, err
	}
	return ExecutionResult{
		Status:         frame.Status,
		HaltReason:     haltReasonOf(frame.Status),
		GasUsed:        meter.Used(),
		GasRefunded:    meter.Refunded(),
		Output:         frame.Output,
		Logs:           context.GetLogs(),
		CreatedAddress: frame.CreatedAddress,
	}, nil
}

// refreshL1Info returns the L1 pricing of the block. Parameters read while
// the store is failing are not cached.
func (p *Processor) refreshL1Info(blockParameters tosca.BlockParameters, context tosca.TransactionContext) (*l1block.Info, error) {
	info := p.oracle.Refresh(context, blockParameters.BlockNumber, p.config.Spec)
	if err := floria.PendingError(context); err != nil {
		p.oracle.Invalidate()
		return nil, err
	}
	info.ClearTxL1Cost()
	return info, nil
}

// execute runs the top-level frame, or synthesizes a reverted one for
// transactions forced to fail.
func (p *Processor) execute(
	blockParameters tosca.BlockParameters,
	tx *l2.Transaction,
	context tosca.TransactionContext,
) (floria.FrameResult, error) {
	if tx.ForceFail {
		forcedFailuresCounter.Inc(1)
		if tx.Recipient == nil {
			incrementNonce(context, tx.Sender)
		}
		used := tx.GasLimit
		if tx.GasUsedOverride != nil {
			used = overrideGas(*tx.GasUsedOverride, tx.GasLimit)
		}
		log.Trace("Forced transaction failure", "sender", tx.Sender, "gasUsed", used)
		return floria.FrameResult{Status: floria.StatusRevert, GasLeft: tx.GasLimit - used}, nil
	}

	gas := tx.GasLimit - floria.IntrinsicGas(tx.Transaction, blockParameters.Revision)
	frame, err := p.floria.Execute(blockParameters, tx.Transaction, context, gas)
	if pending := floria.PendingError(context); pending != nil {
		err = pending
	}
	if err != nil {
		return floria.FrameResult{}, floria.Classify(err)
	}
	return frame, nil
}

// gasMeterOf derives the final gas accounting. An override replaces the
// gas used by the execution and suppresses refunds. Cross-layer
// transactions get no refunds.
func gasMeterOf(tx *l2.Transaction, revision tosca.Revision, frame floria.FrameResult) tosca.GasMeter {
	if tx.GasUsedOverride != nil {
		return tosca.NewGasMeterWithUsage(tx.GasLimit, overrideGas(*tx.GasUsedOverride, tx.GasLimit))
	}
	meter := frame.GasMeter(tx.GasLimit)
	if tx.IsCrossLayer() {
		meter.ClearRefund()
	} else {
		floria.Refund(revision, &meter)
	}
	floria.ApplyFloor(tx.Transaction, revision, &meter)
	return meter
}

func overrideGas(override uint64, limit tosca.Gas) tosca.Gas {
	return tosca.Gas(min(override, uint64(limit)))
}

// settleCrossLayer charges the fee of the used gas to the sender and passes
// the unspent part of the mint on to the refund recipient. The value is
// only deducted from the mint if it was transferred.
func settleCrossLayer(tx *l2.Transaction, context tosca.TransactionContext, meter *tosca.GasMeter, success bool) {
	feeSpent := tx.GasPrice.Scale(uint64(meter.Used()))
	balance := tosca.SubSaturating(context.GetBalance(tx.Sender), feeSpent)
	context.SetBalance(tx.Sender, balance)

	if tx.RefundRecipient == nil || *tx.RefundRecipient == tx.Sender {
		return
	}
	refund := tosca.SubSaturating(tx.MintValue(), feeSpent)
	if success {
		refund = tosca.SubSaturating(refund, tx.Value)
	}
	if balance.Cmp(refund) < 0 {
		refund = balance
	}
	if refund.IsZero() {
		return
	}
	context.SetBalance(tx.Sender, tosca.Sub(balance, refund))
	addBalance(context, *tx.RefundRecipient, refund)
}

// failDeposit lands the mint and nonce increment of a cross-layer
// transaction that could not be executed. All other effects must have been
// reverted before.
func failDeposit(tx *l2.Transaction, context tosca.TransactionContext, cause error) ExecutionResult {
	incrementNonce(context, tx.Sender)
	addBalance(context, tx.Sender, tx.MintValue())
	failedDepositsCounter.Inc(1)
	log.Debug("Failed deposit",
		"kind", tx.Kind(),
		"sender", tx.Sender,
		"mint", tx.MintValue(),
		"gasLimit", tx.GasLimit,
		"err", cause,
	)
	return ExecutionResult{
		Status:     floria.StatusHalt,
		HaltReason: HaltReasonFailedDeposit,
		GasUsed:    max(tx.GasLimit, 0),
	}
}

func incrementNonce(context tosca.TransactionContext, address tosca.Address) {
	if nonce := context.GetNonce(address); nonce < math.MaxUint64 {
		context.SetNonce(address, nonce+1)
	}
}

var maxValue = tosca.ValueFromUint256(new(uint256.Int).SetAllOne())

// addBalance credits amount to address, saturating at the maximum value.
func addBalance(context tosca.TransactionContext, address tosca.Address, amount tosca.Value) {
	if amount.IsZero() {
		return
	}
	balance, overflow := tosca.AddOverflow(context.GetBalance(address), amount)
	if overflow {
		balance = maxValue
	}
	context.SetBalance(address, balance)
}
