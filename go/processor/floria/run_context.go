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
	"github.com/ethereum/go-ethereum/params"
)

const (
	MaxRecursiveDepth    = int(params.CallCreateDepth)
	maxCodeSize          = params.MaxCodeSize
	createGasCostPerByte = tosca.Gas(params.CreateDataGas)
)

// runContext routes the nested calls of an interpreter. Calls to precompiled
// contracts are served by the precompile provider, all other calls are run
// on the interpreter. Each nested frame operates on its own copy.
type runContext struct {
	tosca.TransactionContext
	interpreter           tosca.Interpreter
	precompiles           PrecompileProvider
	blockParameters       tosca.BlockParameters
	transactionParameters tosca.TransactionParameters
	depth                 int
	static                bool
}

func (r runContext) Call(kind tosca.CallKind, parameters tosca.CallParameters) (tosca.CallResult, error) {
	if kind == tosca.Create || kind == tosca.Create2 {
		return r.executeCreate(kind, parameters)
	}
	return r.executeCall(kind, parameters)
}

// frame assembles the interpreter input of a nested frame. The depth of the
// frame has already been incremented.
func (r runContext) frame(kind tosca.CallKind, parameters tosca.CallParameters, recipient tosca.Address, code tosca.Code, codeHash tosca.Hash) tosca.Parameters {
	return tosca.Parameters{
		BlockParameters:       r.blockParameters,
		TransactionParameters: r.transactionParameters,
		Context:               r,
		Kind:                  kind,
		Static:                r.static,
		Depth:                 r.depth - 1,
		Gas:                   parameters.Gas,
		Recipient:             recipient,
		Sender:                parameters.Sender,
		Input:                 parameters.Input,
		Value:                 parameters.Value,
		CodeHash:              &codeHash,
		Code:                  code,
	}
}

// rejected is the result of a frame that could not be entered. All of its gas
// is returned to the caller.
func rejected(gas tosca.Gas) tosca.CallResult {
	return tosca.CallResult{GasLeft: gas}
}

func (r runContext) executeCall(kind tosca.CallKind, parameters tosca.CallParameters) (tosca.CallResult, error) {
	if r.depth > MaxRecursiveDepth {
		return rejected(parameters.Gas), nil
	}
	r.depth++

	transfersValue := kind == tosca.Call || kind == tosca.CallCode
	if transfersValue && !canTransferValue(r, parameters.Value, parameters.Sender, &parameters.Recipient) {
		return rejected(parameters.Gas), nil
	}
	snapshot := r.CreateSnapshot()
	recipient := parameters.Recipient
	revision := r.blockParameters.Revision

	codeAddress := recipient
	if kind == tosca.DelegateCall || kind == tosca.CallCode {
		codeAddress = parameters.CodeAddress
	}
	if kind == tosca.StaticCall {
		r.static = true
	}

	if revision >= tosca.R09_Berlin &&
		!r.precompiles.Contains(revision, codeAddress) &&
		!r.AccountExists(recipient) &&
		parameters.Value.IsZero() {
		return tosca.CallResult{Success: true, GasLeft: parameters.Gas}, nil
	}

	if transfersValue {
		transferValue(r, parameters.Value, parameters.Sender, recipient)
	}

	precompiled, isPrecompiled := r.precompiles.Run(r, PrecompileCall{
		Revision: revision,
		Caller:   parameters.Sender,
		Address:  codeAddress,
		Input:    parameters.Input,
		Gas:      parameters.Gas,
		Value:    parameters.Value,
		Static:   r.static,
	})
	if isPrecompiled {
		if !precompiled.Success {
			r.RestoreSnapshot(snapshot)
		}
		return precompiled, nil
	}

	frame := r.frame(kind, parameters, recipient, r.GetCode(codeAddress), r.GetCodeHash(codeAddress))
	result, err := r.interpreter.Run(frame)
	if err != nil || !result.Success {
		r.RestoreSnapshot(snapshot)
		// only reverts hand back their unused gas
		if !isRevert(result, err) {
			result.GasLeft = 0
		}
	}
	return tosca.CallResult{
		Output:    result.Output,
		GasLeft:   result.GasLeft,
		GasRefund: result.GasRefund,
		Success:   result.Success,
	}, err
}

func (r runContext) executeCreate(kind tosca.CallKind, parameters tosca.CallParameters) (tosca.CallResult, error) {
	if r.depth > MaxRecursiveDepth {
		return rejected(parameters.Gas), nil
	}
	r.depth++

	if !canTransferValue(r, parameters.Value, parameters.Sender, nil) {
		return rejected(parameters.Gas), nil
	}
	nonce := r.GetNonce(parameters.Sender)
	if err := incrementNonce(r, parameters.Sender); err != nil {
		return rejected(parameters.Gas), nil
	}

	initCode := tosca.Code(parameters.Input)
	initCodeHash := hashCode(initCode)
	createdAddress := createAddress(kind, parameters.Sender, nonce, parameters.Salt, initCodeHash)

	if r.blockParameters.Revision >= tosca.R09_Berlin {
		r.AccessAccount(createdAddress)
	}

	if r.GetNonce(createdAddress) != 0 || !isEmptyCodeHash(r.GetCodeHash(createdAddress)) {
		return tosca.CallResult{CreatedAddress: createdAddress}, nil
	}
	snapshot := r.CreateSnapshot()
	r.SetNonce(createdAddress, 1)

	transferValue(r, parameters.Value, parameters.Sender, createdAddress)

	constructor := parameters
	constructor.Input = nil
	result, err := r.interpreter.Run(r.frame(kind, constructor, createdAddress, initCode, initCodeHash))
	if err != nil || !result.Success {
		r.RestoreSnapshot(snapshot)

		if !isRevert(result, err) {
			return tosca.CallResult{CreatedAddress: createdAddress}, err
		}
		// reverted creations return their output and unused gas
		return tosca.CallResult{Output: result.Output, GasLeft: result.GasLeft, CreatedAddress: createdAddress}, nil
	}

	deployed := tosca.Code(result.Output)
	depositGas := tosca.Gas(len(deployed)) * createGasCostPerByte
	switch {
	case len(deployed) > maxCodeSize:
		result.Success = false
	case r.blockParameters.Revision >= tosca.R10_London && len(deployed) > 0 && deployed[0] == 0xEF:
		result.Success = false // EIP-3541
	case result.GasLeft < depositGas:
		result.Success = false
	default:
		result.GasLeft -= depositGas
	}

	if result.Success {
		r.SetCode(createdAddress, deployed)
	} else {
		r.RestoreSnapshot(snapshot)
		result.GasLeft = 0
		result.Output = nil
	}

	return tosca.CallResult{
		Output:         result.Output,
		GasLeft:        result.GasLeft,
		GasRefund:      result.GasRefund,
		Success:        result.Success,
		CreatedAddress: createdAddress,
	}, nil
}

func isEmptyCodeHash(hash tosca.Hash) bool {
	return hash == (tosca.Hash{}) || hash == emptyCodeHash
}

func isRevert(result tosca.Result, err error) bool {
	return err == nil && !result.Success && (result.GasLeft > 0 || len(result.Output) > 0)
}
