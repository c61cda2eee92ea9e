// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package rollup

import (
	"fmt"

	"github.com/Fantom-foundation/tosca-l2/go/processor/floria"
	"github.com/Fantom-foundation/tosca-l2/go/tosca"
)

// HaltReason refines the outcome of transactions that did not succeed.
type HaltReason int

const (
	HaltReasonNone HaltReason = iota
	// HaltReasonExceptional marks executions ending in an exceptional halt,
	// e.g. by running out of gas.
	HaltReasonExceptional
	// HaltReasonFailedDeposit marks cross-layer transactions that could not
	// be executed. Only their mint and nonce increment are applied.
	HaltReasonFailedDeposit
)

func (r HaltReason) String() string {
	switch r {
	case HaltReasonNone:
		return "none"
	case HaltReasonExceptional:
		return "exceptional"
	case HaltReasonFailedDeposit:
		return "failed deposit"
	}
	return fmt.Sprintf("HaltReason(%d)", int(r))
}

// ExecutionResult is the outcome of a transaction processed by the rollup.
type ExecutionResult struct {
	Status         floria.Status
	HaltReason     HaltReason
	GasUsed        tosca.Gas
	GasRefunded    tosca.Gas
	Output         tosca.Data
	Logs           []tosca.Log
	CreatedAddress *tosca.Address
}

func (r ExecutionResult) Success() bool {
	return r.Status == floria.StatusSuccess
}

// Receipt converts the result into the receipt of the base engine.
func (r ExecutionResult) Receipt() tosca.Receipt {
	return tosca.Receipt{
		Success:         r.Success(),
		Output:          r.Output,
		ContractAddress: r.CreatedAddress,
		GasUsed:         r.GasUsed,
		Logs:            r.Logs,
	}
}

func haltReasonOf(status floria.Status) HaltReason {
	if status == floria.StatusHalt {
		return HaltReasonExceptional
	}
	return HaltReasonNone
}
