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
	"bytes"
	"strings"
	"testing"

	"github.com/Fantom-foundation/tosca-l2/go/l2"
	"github.com/Fantom-foundation/tosca-l2/go/processor/floria"
	"github.com/Fantom-foundation/tosca-l2/go/processor/rollup"
	"github.com/Fantom-foundation/tosca-l2/go/state"
	"github.com/Fantom-foundation/tosca-l2/go/tosca"
)

// Scenario represents a test scenario for the rollup processor. A scenario
// consists of a world state before and after the operation, a transaction to
// be executed, block chain parameters, and the expected result.
type Scenario struct {
	Before      state.WorldState
	After       state.WorldState
	Parameters  tosca.BlockParameters
	Transaction l2.Transaction
	Result      Expectation
}

// Expectation lists the checked properties of an execution result.
type Expectation struct {
	Status     floria.Status
	HaltReason rollup.HaltReason
	GasUsed    tosca.Gas
	Output     tosca.Data
	NumLogs    int
}

func (s *Scenario) Run(t *testing.T, processor *rollup.Processor) {
	t.Helper()
	context := state.NewMemory(s.Before)
	result, err := processor.Transact(s.Parameters, s.Transaction, context)
	if err != nil {
		t.Fatalf("failed to run transaction: %v", err)
	}

	if want, got := s.After, context.State(); !want.Equal(got) {
		diff := strings.Join(got.Diff(want), "\n\t")
		t.Fatalf("unexpected world state after the operation: \n\t%v", diff)
	}

	if want, got := s.Result.Status, result.Status; want != got {
		t.Errorf("unexpected status, want %v, got %v", want, got)
	}
	if want, got := s.Result.HaltReason, result.HaltReason; want != got {
		t.Errorf("unexpected halt reason, want %v, got %v", want, got)
	}
	if want, got := s.Result.GasUsed, result.GasUsed; want != got {
		t.Errorf("unexpected gas used, want %v, got %v", want, got)
	}
	if want, got := s.Result.Output, result.Output; !bytes.Equal(want, got) {
		t.Errorf("unexpected output, want %x, got %x", want, got)
	}
	if want, got := s.Result.NumLogs, len(result.Logs); want != got {
		t.Errorf("unexpected number of logs, want %d, got %d: %v", want, got, result.Logs)
	}
}

// newTransaction wraps base, failing the test on invalid options.
func newTransaction(t *testing.T, base tosca.Transaction, options ...l2.Option) l2.Transaction {
	t.Helper()
	tx, err := l2.NewTransaction(base, options...)
	if err != nil {
		t.Fatalf("invalid transaction: %v", err)
	}
	return tx
}
