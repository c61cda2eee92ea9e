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
	"bytes"

	"github.com/Fantom-foundation/tosca-l2/go/l2"
	"github.com/Fantom-foundation/tosca-l2/go/processor/floria"
	"github.com/Fantom-foundation/tosca-l2/go/tosca"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/ethereum/go-ethereum/params"
	"golang.org/x/crypto/sha3"
)

var sentMessagesCounter = metrics.NewRegisteredCounter("l2/syscontract/messages", nil)

func runMessenger(context tosca.TransactionContext, call floria.PrecompileCall) tosca.CallResult {
	selector, ok := selectorOf(call.Input)
	if !ok || selector != sendToL1Selector {
		return revert(call.Gas)
	}
	if !call.Value.IsZero() || call.Static {
		return revert(call.Gas)
	}
	return sendToL1(context, call.Caller, call.Input[4:], call.Gas)
}

// SendToL1Gas is the gas charged for sending a message of the given size:
// hashing the message and emitting a log with three topics.
func SendToL1Gas(size int) tosca.Gas {
	words := tosca.SizeInWords(uint64(size))
	hashing := params.Keccak256Gas + words*params.Keccak256WordGas
	logging := params.LogGas + 3*params.LogTopicGas + uint64(size)*params.LogDataGas
	return tosca.Gas(hashing + logging)
}

// sendToL1 emits the log picked up by the settlement layer. The args are
// the ABI encoding of the message, they are logged as they are.
func sendToL1(context tosca.TransactionContext, sender tosca.Address, args []byte, gas tosca.Gas) tosca.CallResult {
	message, ok := decodeTailBytes(args, wordSize)
	if !ok {
		return revert(gas)
	}
	meter := tosca.NewGasMeter(gas)
	if !meter.RecordCost(SendToL1Gas(len(message))) {
		return outOfGas()
	}

	hash := keccak256(message)
	context.EmitLog(tosca.Log{
		Address: l2.L1MessengerAddress,
		Topics:  []tosca.Hash{L1MessageSentTopic, addressToHash(sender), hash},
		Data:    bytes.Clone(args),
	})
	sentMessagesCounter.Inc(1)
	return succeed(meter.Remaining(), hash[:])
}

func keccak256(data []byte) tosca.Hash {
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write(data)
	var hash tosca.Hash
	hasher.Sum(hash[:0])
	return hash
}
