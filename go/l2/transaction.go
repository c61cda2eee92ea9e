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

import (
	"fmt"

	"github.com/Fantom-foundation/tosca-l2/go/tosca"
)

// Type tags reserved for transactions originating from the settlement layer.
const (
	UpgradeTxType  tosca.TransactionType = 0x7E
	PriorityTxType tosca.TransactionType = 0x7F
)

const (
	ErrUnsupportedTxType      = tosca.ConstError("unsupported transaction type")
	ErrMintOnOrdinary         = tosca.ConstError("mint on ordinary transaction")
	ErrMissingRefundRecipient = tosca.ConstError("minting transaction without refund recipient")
)

// Kind classifies transactions by their origin.
type Kind int

const (
	KindOrdinary Kind = iota
	KindUpgrade
	KindPriority
)

func (k Kind) String() string {
	switch k {
	case KindOrdinary:
		return "ordinary"
	case KindUpgrade:
		return "upgrade"
	case KindPriority:
		return "priority"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsCrossLayer is true for transactions validated by the settlement layer
// instead of by this chain.
func (k Kind) IsCrossLayer() bool {
	switch k {
	case KindUpgrade, KindPriority:
		return true
	}
	return false
}

// KindOf derives the kind from an EIP-2718 type tag.
func KindOf(txType tosca.TransactionType) (Kind, error) {
	switch txType {
	case tosca.LegacyTxType, tosca.AccessListTxType, tosca.DynamicFeeTxType, tosca.BlobTxType:
		return KindOrdinary, nil
	case UpgradeTxType:
		return KindUpgrade, nil
	case PriorityTxType:
		return KindPriority, nil
	}
	return KindOrdinary, fmt.Errorf("%w: 0x%02x", ErrUnsupportedTxType, uint8(txType))
}

// Transaction is a transaction of the rollup. Besides the fields of an
// Ethereum transaction it carries the settlement data of cross-layer
// transactions. Instances are created by NewTransaction.
type Transaction struct {
	tosca.Transaction
	kind Kind

	// Mint is credited to the sender before the transaction is validated.
	Mint *tosca.Value
	// RefundRecipient receives the unused part of the mint.
	RefundRecipient *tosca.Address
	// GasUsedOverride replaces the gas used as determined by the execution.
	GasUsedOverride *uint64
	// ForceFail skips the execution and reverts the transaction.
	ForceFail bool
	// Envelope is the encoded transaction as posted to L1. If set, the L1
	// data fee is charged for it instead of for the input.
	Envelope tosca.Data
}

// Option sets one of the optional fields of a Transaction.
type Option func(*Transaction)

func WithMint(mint tosca.Value) Option {
	return func(tx *Transaction) { tx.Mint = &mint }
}

func WithRefundRecipient(recipient tosca.Address) Option {
	return func(tx *Transaction) { tx.RefundRecipient = &recipient }
}

func WithGasUsedOverride(gas uint64) Option {
	return func(tx *Transaction) { tx.GasUsedOverride = &gas }
}

func WithForceFail() Option {
	return func(tx *Transaction) { tx.ForceFail = true }
}

func WithEnvelope(encoded tosca.Data) Option {
	return func(tx *Transaction) { tx.Envelope = encoded }
}

// NewTransaction wraps base with the given options. Mints are only accepted
// on cross-layer transactions, which then also need a refund recipient.
func NewTransaction(base tosca.Transaction, options ...Option) (Transaction, error) {
	kind, err := KindOf(base.Type)
	if err != nil {
		return Transaction{}, err
	}
	tx := Transaction{Transaction: base, kind: kind}
	for _, option := range options {
		option(&tx)
	}
	if tx.Mint != nil {
		if !kind.IsCrossLayer() {
			return Transaction{}, ErrMintOnOrdinary
		}
		if tx.RefundRecipient == nil {
			return Transaction{}, ErrMissingRefundRecipient
		}
	}
	return tx, nil
}

// Kind returns the kind of the transaction determined by its type tag.
func (tx *Transaction) Kind() Kind {
	return tx.kind
}

func (tx *Transaction) IsCrossLayer() bool {
	return tx.kind.IsCrossLayer()
}

// L1Data is the data the L1 data fee is charged for.
func (tx *Transaction) L1Data() tosca.Data {
	if tx.Envelope != nil {
		return tx.Envelope
	}
	return tx.Input
}

// MintValue is the minted amount, zero if the transaction mints nothing.
func (tx *Transaction) MintValue() tosca.Value {
	if tx.Mint == nil {
		return tosca.Value{}
	}
	return *tx.Mint
}
