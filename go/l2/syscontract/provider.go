// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package syscontract implements the system contracts of the rollup which
// are executed natively instead of by the interpreter.
package syscontract

//go:generate mockgen -source provider.go -destination provider_mock.go -package syscontract

import (
	"slices"

	"github.com/Fantom-foundation/tosca-l2/go/l2"
	"github.com/Fantom-foundation/tosca-l2/go/processor/floria"
	"github.com/Fantom-foundation/tosca-l2/go/tosca"
)

// revertGasCost is the gas consumed by system contracts rejecting a call.
const revertGasCost = tosca.Gas(10)

// CodeStore provides bytecode by its hash. The contract deployer installs
// code preloaded into such a store.
type CodeStore interface {
	GetCodeByHash(hash tosca.Hash) (tosca.Code, bool)
}

type contract func(context tosca.TransactionContext, call floria.PrecompileCall) tosca.CallResult

// Provider serves the system contracts and forwards all other calls to a
// base set of precompiled contracts.
type Provider struct {
	base      floria.PrecompileProvider
	contracts map[tosca.Address]contract
	addresses []tosca.Address
}

// NewProvider creates a provider extending base, or the standard Ethereum
// contracts if base is nil. The deployer looks up code in codes, or in the
// transaction context if codes is nil and the context implements CodeStore.
func NewProvider(base floria.PrecompileProvider, codes CodeStore) *Provider {
	if base == nil {
		base = floria.MainnetPrecompiles()
	}
	deployer := deployer{codes: codes}
	return &Provider{
		base: base,
		contracts: map[tosca.Address]contract{
			l2.ContractDeployerAddress: deployer.run,
			l2.L1MessengerAddress:      runMessenger,
			l2.BaseTokenAddress:        runBaseToken,
		},
		addresses: []tosca.Address{
			l2.ContractDeployerAddress,
			l2.L1MessengerAddress,
			l2.BaseTokenAddress,
		},
	}
}

func (p *Provider) Run(context tosca.TransactionContext, call floria.PrecompileCall) (tosca.CallResult, bool) {
	if run, found := p.contracts[call.Address]; found {
		if call.Gas < 0 {
			return outOfGas(), true
		}
		return run(context, call), true
	}
	return p.base.Run(context, call)
}

func (p *Provider) Contains(revision tosca.Revision, address tosca.Address) bool {
	if _, found := p.contracts[address]; found {
		return true
	}
	return p.base.Contains(revision, address)
}

func (p *Provider) WarmAddresses(revision tosca.Revision) []tosca.Address {
	return slices.Concat(p.base.WarmAddresses(revision), p.addresses)
}

func outOfGas() tosca.CallResult {
	return tosca.CallResult{}
}

// revert rejects a call, consuming revertGasCost.
func revert(gas tosca.Gas) tosca.CallResult {
	if gas < revertGasCost {
		return outOfGas()
	}
	return tosca.CallResult{GasLeft: gas - revertGasCost}
}

func succeed(gasLeft tosca.Gas, output tosca.Data) tosca.CallResult {
	return tosca.CallResult{
		Success: true,
		Output:  output,
		GasLeft: gasLeft,
	}
}
