// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package processor

import (
	"github.com/Fantom-foundation/tosca-l2/go/tosca"
	op "github.com/ethereum/go-ethereum/core/vm"
)

// Operations understood by scriptInterpreter. A script is a single
// operation, a forward is followed by the address of the callee.
const (
	opStore   = byte(op.SSTORE)
	opForward = byte(op.CALL)
	opRevert  = byte(op.REVERT)
	opInvalid = byte(op.INVALID)
)

// scriptInterpreter runs single-instruction scripts. Unknown and empty
// scripts stop successfully without consuming gas.
type scriptInterpreter struct{}

func (scriptInterpreter) Run(params tosca.Parameters) (tosca.Result, error) {
	if len(params.Code) == 0 {
		return tosca.Result{Success: true, GasLeft: params.Gas}, nil
	}
	switch params.Code[0] {
	case opStore:
		params.Context.SetStorage(params.Recipient, tosca.Key{}, tosca.Word{31: 1})
	case opForward:
		callee := tosca.Address(params.Code[1:21])
		result, err := params.Context.Call(tosca.Call, tosca.CallParameters{
			Sender:      params.Recipient,
			Recipient:   callee,
			CodeAddress: callee,
			Value:       params.Value,
			Input:       params.Input,
			Gas:         params.Gas,
		})
		if err != nil {
			return tosca.Result{}, err
		}
		return tosca.Result{Success: result.Success, Output: result.Output, GasLeft: result.GasLeft}, nil
	case opRevert:
		return tosca.Result{GasLeft: params.Gas / 2}, nil
	case opInvalid:
		return tosca.Result{}, nil
	}
	return tosca.Result{Success: true, GasLeft: params.Gas}, nil
}

func forwardTo(callee tosca.Address) tosca.Code {
	return append(tosca.Code{opForward}, callee[:]...)
}
