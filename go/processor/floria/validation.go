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
	"math"

	"github.com/Fantom-foundation/tosca-l2/go/tosca"
	"github.com/ethereum/go-ethereum/params"
	"github.com/holiman/uint256"
)

// TxCostFloorPerToken is the gas charged per calldata token by the calldata
// floor introduced with Prague (EIP-7623).
const TxCostFloorPerToken = 10

// ValidateEnv runs the checks of a transaction that do not depend on the
// world state.
func (p *Processor) ValidateEnv(block tosca.BlockParameters, transaction tosca.Transaction) error {
	revision := block.Revision
	if transaction.GasLimit < 0 {
		return invalidTransaction(ErrGasUintOverflow, "gas limit %d", transaction.GasLimit)
	}
	if block.GasLimit > 0 && transaction.GasLimit > block.GasLimit {
		return invalidTransaction(ErrGasLimitExceedsBlock, "have %d, block %d", transaction.GasLimit, block.GasLimit)
	}
	if revision >= tosca.R10_London && transaction.GasPrice.Cmp(block.BaseFee) < 0 {
		return invalidTransaction(ErrFeeCapTooLow, "gas price %v, base fee %v", transaction.GasPrice, block.BaseFee)
	}
	if revision >= tosca.R12_Shanghai && transaction.Recipient == nil && len(transaction.Input) > params.MaxInitCodeSize {
		return invalidTransaction(ErrMaxInitCodeSizeExceeded, "code size %d, limit %d", len(transaction.Input), params.MaxInitCodeSize)
	}
	if intrinsic := IntrinsicGas(transaction, revision); transaction.GasLimit < intrinsic {
		return invalidTransaction(ErrIntrinsicGas, "have %d, want %d", transaction.GasLimit, intrinsic)
	}
	if revision >= tosca.R14_Prague {
		if floor := FloorDataGas(transaction); transaction.GasLimit < floor {
			return invalidTransaction(ErrFloorDataGas, "have %d, want %d", transaction.GasLimit, floor)
		}
	}
	return nil
}

// ValidateNonceAndCode checks the sender's nonce against the transaction and
// rejects senders with deployed code (EIP-3607).
func ValidateNonceAndCode(transaction tosca.Transaction, context tosca.TransactionContext) error {
	stateNonce := context.GetNonce(transaction.Sender)
	switch {
	case transaction.Nonce < stateNonce:
		return invalidTransaction(ErrNonceTooLow, "address %v, tx: %d state: %d", transaction.Sender, transaction.Nonce, stateNonce)
	case transaction.Nonce > stateNonce:
		return invalidTransaction(ErrNonceTooHigh, "address %v, tx: %d state: %d", transaction.Sender, transaction.Nonce, stateNonce)
	case stateNonce == math.MaxUint64:
		return invalidTransaction(ErrNonceMax, "address %v, nonce: %d", transaction.Sender, stateNonce)
	}
	if hash := context.GetCodeHash(transaction.Sender); !isEmptyCodeHash(hash) {
		return invalidTransaction(ErrSenderNoEOA, "address %v, codehash: %v", transaction.Sender, hash)
	}
	return nil
}

// BuyGas charges the sender for the full gas limit and the given extra costs
// after checking that the balance also covers the transferred value.
func BuyGas(transaction tosca.Transaction, context tosca.TransactionContext, extra tosca.Value) error {
	cost, overflow := new(uint256.Int).MulOverflow(transaction.GasPrice.ToUint256(), uint256.NewInt(uint64(transaction.GasLimit)))
	if overflow {
		return invalidTransaction(ErrInsufficientFunds, "gas cost overflow for %v", transaction.Sender)
	}
	cost, overflow = cost.AddOverflow(cost, extra.ToUint256())
	if overflow {
		return invalidTransaction(ErrInsufficientFunds, "fee overflow for %v", transaction.Sender)
	}
	required, overflow := new(uint256.Int).AddOverflow(cost, transaction.Value.ToUint256())
	balance := context.GetBalance(transaction.Sender)
	if overflow || balance.ToUint256().Lt(required) {
		return invalidTransaction(ErrInsufficientFunds, "address %v have %v want %v", transaction.Sender, balance, required)
	}
	context.SetBalance(transaction.Sender, tosca.Sub(balance, tosca.ValueFromUint256(cost)))
	return nil
}

// IntrinsicGas computes the gas charged for a transaction before any code is
// executed.
func IntrinsicGas(transaction tosca.Transaction, revision tosca.Revision) tosca.Gas {
	gas := tosca.Gas(params.TxGas)
	if transaction.Recipient == nil {
		gas = tosca.Gas(params.TxGasContractCreation)
	}

	zeroBytes, nonZeroBytes := countBytes(transaction.Input)
	gas += tosca.Gas(zeroBytes * params.TxDataZeroGas)
	gas += tosca.Gas(nonZeroBytes * params.TxDataNonZeroGasEIP2028)

	if transaction.Recipient == nil && revision >= tosca.R12_Shanghai {
		words := tosca.SizeInWords(uint64(len(transaction.Input)))
		gas += tosca.Gas(words * params.InitCodeWordGas)
	}

	// Inputs large enough to overflow this sum cannot be held in memory.
	for _, tuple := range transaction.AccessList {
		gas += tosca.Gas(params.TxAccessListAddressGas)
		gas += tosca.Gas(uint64(len(tuple.Keys)) * params.TxAccessListStorageKeyGas)
	}
	return gas
}

// FloorDataGas is the minimum gas a transaction is charged for its calldata
// from Prague on (EIP-7623).
func FloorDataGas(transaction tosca.Transaction) tosca.Gas {
	return tosca.Gas(params.TxGas + TokensInCalldata(transaction.Input)*TxCostFloorPerToken)
}

// TokensInCalldata counts zero bytes as one token and non-zero bytes as
// four tokens.
func TokensInCalldata(data tosca.Data) uint64 {
	zeroBytes, nonZeroBytes := countBytes(data)
	return zeroBytes + 4*nonZeroBytes
}

func countBytes(data []byte) (zero, nonZero uint64) {
	for _, b := range data {
		if b == 0 {
			zero++
		}
	}
	return zero, uint64(len(data)) - zero
}
