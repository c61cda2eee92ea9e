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

//go:generate mockgen -source precompiled.go -destination precompiled_mock.go -package floria

import (
	"bytes"
	"slices"
	"sync"

	"github.com/Fantom-foundation/tosca-l2/go/tosca"
	"github.com/ethereum/go-ethereum/common"
	geth "github.com/ethereum/go-ethereum/core/vm"
)

// PrecompileCall is the input of a single invocation of a precompiled
// contract.
type PrecompileCall struct {
	Revision tosca.Revision
	Caller   tosca.Address
	Address  tosca.Address
	Input    tosca.Data
	Gas      tosca.Gas
	Value    tosca.Value
	Static   bool
}

// PrecompileProvider resolves calls to contracts implemented natively by the
// processor instead of by EVM code.
type PrecompileProvider interface {
	// Run executes the contract registered at the call's address. The boolean
	// result is false if no contract is registered at this address. Failing
	// contracts report a revert by leaving gas, and a halt by consuming all
	// of it.
	Run(context tosca.TransactionContext, call PrecompileCall) (tosca.CallResult, bool)
	// Contains reports whether a contract is registered at the given address.
	Contains(revision tosca.Revision, address tosca.Address) bool
	// WarmAddresses lists the addresses to be marked warm at the start of
	// each transaction.
	WarmAddresses(revision tosca.Revision) []tosca.Address
}

// MainnetPrecompiles returns the provider of the standard Ethereum
// precompiled contracts.
func MainnetPrecompiles() PrecompileProvider {
	return mainnetPrecompiles{}
}

type mainnetPrecompiles struct{}

func (mainnetPrecompiles) Run(_ tosca.TransactionContext, call PrecompileCall) (tosca.CallResult, bool) {
	contract, found := precompilesFor(call.Revision).contracts[call.Address]
	if !found {
		return tosca.CallResult{}, false
	}
	gasCost := contract.RequiredGas(call.Input)
	if call.Gas < 0 || gasCost > uint64(call.Gas) {
		return tosca.CallResult{}, true
	}
	output, err := contract.Run(call.Input)
	if err != nil {
		// precompiled contracts only return errors on invalid input
		return tosca.CallResult{}, true
	}
	return tosca.CallResult{
		Success: true,
		Output:  output,
		GasLeft: call.Gas - tosca.Gas(gasCost),
	}, true
}

func (mainnetPrecompiles) Contains(revision tosca.Revision, address tosca.Address) bool {
	_, found := precompilesFor(revision).contracts[address]
	return found
}

func (mainnetPrecompiles) WarmAddresses(revision tosca.Revision) []tosca.Address {
	return precompilesFor(revision).addresses
}

// precompileTable is an immutable view on one of geth's precompile sets.
type precompileTable struct {
	contracts map[tosca.Address]geth.PrecompiledContract
	addresses []tosca.Address
}

func newPrecompileTable(contracts map[common.Address]geth.PrecompiledContract) precompileTable {
	table := precompileTable{
		contracts: make(map[tosca.Address]geth.PrecompiledContract, len(contracts)),
	}
	for address, contract := range contracts {
		table.contracts[tosca.Address(address)] = contract
		table.addresses = append(table.addresses, tosca.Address(address))
	}
	slices.SortFunc(table.addresses, func(a, b tosca.Address) int {
		return bytes.Compare(a[:], b[:])
	})
	return table
}

var (
	istanbulPrecompiles = sync.OnceValue(func() precompileTable {
		return newPrecompileTable(geth.PrecompiledContractsIstanbul)
	})
	berlinPrecompiles = sync.OnceValue(func() precompileTable {
		return newPrecompileTable(geth.PrecompiledContractsBerlin)
	})
	cancunPrecompiles = sync.OnceValue(func() precompileTable {
		return newPrecompileTable(geth.PrecompiledContractsCancun)
	})
	praguePrecompiles = sync.OnceValue(func() precompileTable {
		return newPrecompileTable(geth.PrecompiledContractsPrague)
	})
)

func precompilesFor(revision tosca.Revision) precompileTable {
	switch {
	case revision >= tosca.R14_Prague:
		return praguePrecompiles()
	case revision >= tosca.R13_Cancun:
		return cancunPrecompiles()
	case revision >= tosca.R09_Berlin:
		return berlinPrecompiles()
	default:
		return istanbulPrecompiles()
	}
}
