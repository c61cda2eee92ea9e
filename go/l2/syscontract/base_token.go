// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package syscontract

import (
	"github.com/Fantom-foundation/tosca-l2/go/l2"
	"github.com/Fantom-foundation/tosca-l2/go/processor/floria"
	"github.com/Fantom-foundation/tosca-l2/go/tosca"
	"github.com/ethereum/go-ethereum/log"
)

// runBaseToken burns the value sent to the base token contract and sends a
// message releasing it on L1.
func runBaseToken(context tosca.TransactionContext, call floria.PrecompileCall) tosca.CallResult {
	selector, ok := selectorOf(call.Input)
	if !ok || call.Static {
		return revert(call.Gas)
	}
	args := call.Input[4:]

	var withdrawal Withdrawal
	switch selector {
	case withdrawSelector:
		if len(args) < wordSize {
			return revert(call.Gas)
		}
		receiver, ok := decodeAddress(args[:wordSize])
		if !ok {
			return revert(call.Gas)
		}
		withdrawal = Withdrawal{Receiver: receiver, Value: call.Value}
	case withdrawWithMessageSelector:
		data, ok := decodeTailBytes(args, 2*wordSize)
		if !ok {
			return revert(call.Gas)
		}
		receiver, ok := decodeAddress(args[:wordSize])
		if !ok {
			return revert(call.Gas)
		}
		sender := call.Caller
		withdrawal = Withdrawal{Receiver: receiver, Value: call.Value, Sender: &sender, Data: data}
	default:
		return revert(call.Gas)
	}

	context.AccessAccount(l2.BaseTokenAddress)
	balance := context.GetBalance(l2.BaseTokenAddress)
	if balance.Cmp(call.Value) < 0 {
		return revert(call.Gas)
	}
	context.SetBalance(l2.BaseTokenAddress, tosca.Sub(balance, call.Value))

	log.Trace("Withdrawal", "receiver", withdrawal.Receiver, "value", withdrawal.Value)
	result := sendToL1(context, l2.BaseTokenAddress, EncodeWithdrawalMessage(withdrawal), call.Gas)
	result.Output = nil
	return result
}
