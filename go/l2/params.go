// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package l2

import "github.com/Fantom-foundation/tosca-l2/go/tosca"

// Addresses of the system contracts implemented natively by the rollup.
var (
	ContractDeployerAddress = systemAddress(0x8006)
	L1MessengerAddress      = systemAddress(0x8008)
	BaseTokenAddress        = systemAddress(0x800a)
	GenesisUpgradeAddress   = systemAddress(0x800f)
)

// Predeployed accounts of the rollup.
var (
	L1BlockAddress       = predeployAddress(0x15)
	BaseFeeVaultAddress  = predeployAddress(0x19)
	L1FeeVaultAddress    = predeployAddress(0x1a)
	OperatorVaultAddress = predeployAddress(0x1b)
)

// MaxCodeSize is the largest code the contract deployer installs (EIP-170).
const MaxCodeSize = 0x6000

func systemAddress(suffix uint16) tosca.Address {
	var address tosca.Address
	address[18] = byte(suffix >> 8)
	address[19] = byte(suffix)
	return address
}

// predeployAddress yields 0x4200000000000000000000000000000000000000 + suffix.
func predeployAddress(suffix byte) tosca.Address {
	var address tosca.Address
	address[0] = 0x42
	address[19] = suffix
	return address
}
