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
	"github.com/ethereum/go-ethereum/log"
)

// deployer installs code at arbitrary addresses. Only the genesis upgrade
// may use it; regular protocol upgrades are not supported yet.
type deployer struct {
	codes CodeStore
}

func (d deployer) run(context tosca.TransactionContext, call floria.PrecompileCall) tosca.CallResult {
	if !call.Value.IsZero() {
		return revert(call.Gas)
	}
	selector, ok := selectorOf(call.Input)
	if !ok {
		return revert(call.Gas)
	}
	if selector != setBytecodeDetailsSelector && selector != setDeployedCodeSelector {
		return revert(call.Gas)
	}
	if call.Static || call.Caller != l2.GenesisUpgradeAddress {
		return revert(call.Gas)
	}

	var (
		target tosca.Address
		code   tosca.Code
	)
	args := call.Input[4:]
	if selector == setBytecodeDetailsSelector {
		target, code, ok = d.bytecodeDetails(context, args)
	} else {
		target, code, ok = deployedCode(args)
	}
	if !ok {
		return revert(call.Gas)
	}
	if call.Gas < revertGasCost {
		return outOfGas()
	}

	context.AccessAccount(target)
	context.SetCode(target, code)
	log.Trace("Deployed system code", "address", target, "size", len(code))
	return succeed(call.Gas-revertGasCost, nil)
}

// bytecodeDetails decodes (address, bytes32 hash, uint32 length, bytes32)
// and resolves the code by its hash. The last parameter, the hash of the
// observable code, is not checked.
func (d deployer) bytecodeDetails(context tosca.TransactionContext, args []byte) (tosca.Address, tosca.Code, bool) {
	if len(args) < 4*wordSize {
		return tosca.Address{}, nil, false
	}
	target, ok := decodeAddress(args[0:wordSize])
	if !ok {
		return tosca.Address{}, nil, false
	}
	hash := tosca.Hash(args[wordSize : 2*wordSize])
	length, ok := decodeUint32(args[2*wordSize : 3*wordSize])
	if !ok || length > l2.MaxCodeSize {
		return tosca.Address{}, nil, false
	}

	store := d.codes
	if store == nil {
		store, _ = context.(CodeStore)
	}
	if store == nil {
		return tosca.Address{}, nil, false
	}
	code, found := store.GetCodeByHash(hash)
	if !found || uint32(len(code)) < length {
		log.Warn("Bytecode for deployment not preloaded", "hash", hash, "length", length)
		return tosca.Address{}, nil, false
	}
	return target, bytes.Clone(code[:length]), true
}

// deployedCode decodes (address, bytes code).
func deployedCode(args []byte) (tosca.Address, tosca.Code, bool) {
	if len(args) < wordSize {
		return tosca.Address{}, nil, false
	}
	target, ok := decodeAddress(args[0:wordSize])
	if !ok {
		return tosca.Address{}, nil, false
	}
	code, ok := decodeTailBytes(args, 2*wordSize)
	if !ok || len(code) > l2.MaxCodeSize {
		return tosca.Address{}, nil, false
	}
	return target, bytes.Clone(code), true
}
