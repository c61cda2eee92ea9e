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

//go:generate mockgen -source processor.go -destination processor_mock.go -package tosca

// Processor is the component executing whole transactions on top of an
// Interpreter. Implementations differ in their chain rules, e.g. fee handling
// or the set of available system contracts.
type Processor interface {
	// Run executes the transaction provided by the parameters in the specified
	// context. Transactions violating consensus rules are reported through the
	// error result and leave the context unmodified.
	Run(BlockParameters, Transaction, TransactionContext) (Receipt, error)
}

// TransactionType is the EIP-2718 type tag of a transaction.
type TransactionType uint8

const (
	LegacyTxType     TransactionType = 0x00
	AccessListTxType TransactionType = 0x01
	DynamicFeeTxType TransactionType = 0x02
	BlobTxType       TransactionType = 0x03
)

type Transaction struct {
	Type       TransactionType // the EIP-2718 type tag of the transaction
	Sender     Address         // the sender of the transaction, paying for its execution
	Recipient  *Address        // the receiver of a transaction, nil if a new contract is to be created
	Nonce      uint64          // the nonce of the sender account, used to prevent replay attacks
	Input      Data            // the input data for the transaction
	Value      Value           // the amount of network currency to transfer to the recipient
	GasLimit   Gas             // the maximum amount of gas that can be used by the transaction
	GasPrice   Value           // the effective price of a unit of gas for this transaction
	AccessList []AccessTuple   // the list of accounts and storage slots expected to be accessed
}

type AccessTuple struct {
	Address Address
	Keys    []Key
}

type Receipt struct {
	Success         bool     // false if the execution ended in a revert, true otherwise
	Output          Data     // the output produced by the transaction
	ContractAddress *Address // filled if a contract was created by this transaction
	GasUsed         Gas      // gas used by contract calls
	BlobGasUsed     Gas      // gas used for blob transactions
	Logs            []Log    // logs produced by the transaction
}
