// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package tosca

//go:generate mockgen -source interpreter.go -destination interpreter_mock.go -package tosca

import "fmt"

// Interpreter is the opcode loop of the base engine. Processors hand it a
// single call frame and receive the frame's outcome. Nested calls are routed
// back to the processor through the RunContext included in the parameters.
type Interpreter interface {
	// Run executes the code provided by the parameters in the specified context
	// and returns the processing result. The resulting error is nil whenever the
	// code was correctly executed, even if the execution was aborted due to a
	// code-internal issue like running out of gas. A non-nil error signals a
	// failure of the interpreter itself; the result is undefined in that case.
	Run(Parameters) (Result, error)
}

// Parameters summarizes the inputs of a single call frame.
type Parameters struct {
	BlockParameters
	TransactionParameters
	Context   RunContext
	Kind      CallKind
	Static    bool
	Depth     int
	Gas       Gas
	Recipient Address
	Sender    Address
	Input     Data
	Value     Value
	CodeHash  *Hash
	Code      Code
}

// BlockParameters are the block-level inputs shared by all transactions of a
// block.
type BlockParameters struct {
	ChainID     Word
	BlockNumber int64
	Timestamp   int64
	Coinbase    Address
	GasLimit    Gas
	PrevRandao  Hash
	BaseFee     Value
	BlobBaseFee Value
	Revision    Revision
}

// TransactionParameters are the transaction-level inputs visible to code.
type TransactionParameters struct {
	Origin     Address
	GasPrice   Value
	BlobHashes []Hash
}

// RunContext is the interface through which an interpreter interacts with the
// state and with nested call frames.
type RunContext interface {
	TransactionContext

	Call(kind CallKind, parameter CallParameters) (CallResult, error)
}

// TransactionContext is the journaled view of the world state a transaction
// is executed on. All mutations since a snapshot can be undone by restoring
// it; restoring the snapshot taken at the start of a transaction discards the
// whole transaction.
type TransactionContext interface {
	WorldState

	CreateSnapshot() Snapshot
	RestoreSnapshot(Snapshot)

	GetTransientStorage(Address, Key) Word
	SetTransientStorage(Address, Key, Word)

	AccessAccount(Address) AccessStatus
	AccessStorage(Address, Key) AccessStatus

	EmitLog(Log)
	GetLogs() []Log

	// GetBlockHash returns the hash of the block with the given number.
	GetBlockHash(number int64) Hash
}

// AccessStatus is the warm/cold state of an address or storage slot.
type AccessStatus bool

const (
	ColdAccess AccessStatus = false
	WarmAccess AccessStatus = true
)

// Result is the outcome of an interpreter run.
type Result struct {
	Success   bool // false if the execution ended in a revert or a halt
	Output    Data
	GasLeft   Gas
	GasRefund Gas
}

type Data []byte

type Gas int64

type Snapshot int

type Log struct {
	Address Address
	Topics  []Hash
	Data    Data
}

type CallKind int

const (
	Call CallKind = iota
	DelegateCall
	StaticCall
	CallCode
	Create
	Create2
)

// CallParameters are the inputs of a nested call requested by an interpreter.
type CallParameters struct {
	Sender      Address
	Recipient   Address // < not relevant for CREATE and CREATE2
	Value       Value   // < ignored by static calls, considered to be 0
	Input       Data
	Gas         Gas
	Salt        Hash // < only relevant for CREATE2 calls
	CodeAddress Address
}

// CallResult is the outcome of a nested call.
type CallResult struct {
	Output         Data
	GasLeft        Gas
	GasRefund      Gas
	CreatedAddress Address // < only meaningful for CREATE and CREATE2
	Success        bool    // false if the execution ended in a revert or a halt
}

type Revision int

const (
	R07_Istanbul Revision = iota
	R09_Berlin
	R10_London
	R11_Paris
	R12_Shanghai
	R13_Cancun
	R14_Prague
	numRevisions int = iota
)

// R99_UnknownNextRevision is a revision newer than any supported one.
const R99_UnknownNextRevision Revision = 99

type ErrUnsupportedRevision struct {
	Revision Revision
}

func (e *ErrUnsupportedRevision) Error() string {
	return fmt.Sprintf("unsupported revision %d", e.Revision)
}
