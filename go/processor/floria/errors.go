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

import (
	"errors"
	"fmt"

	"github.com/Fantom-foundation/tosca-l2/go/tosca"
)

const (
	ErrNonceTooLow             = tosca.ConstError("nonce too low")
	ErrNonceTooHigh            = tosca.ConstError("nonce too high")
	ErrNonceMax                = tosca.ConstError("nonce has max value")
	ErrSenderNoEOA             = tosca.ConstError("sender not an eoa")
	ErrInsufficientFunds       = tosca.ConstError("insufficient funds for gas * price + value")
	ErrIntrinsicGas            = tosca.ConstError("intrinsic gas too low")
	ErrFloorDataGas            = tosca.ConstError("insufficient gas for floor data gas cost")
	ErrGasLimitExceedsBlock    = tosca.ConstError("gas limit exceeds block gas limit")
	ErrFeeCapTooLow            = tosca.ConstError("gas price less than block base fee")
	ErrMaxInitCodeSizeExceeded = tosca.ConstError("max initcode size exceeded")
	ErrGasUintOverflow         = tosca.ConstError("gas uint64 overflow")
)

// TransactionError is reported for transactions violating consensus rules.
// Such transactions are rejected before execution; recovery is only possible
// by resubmitting a corrected transaction.
type TransactionError struct {
	err error
}

func (e *TransactionError) Error() string {
	return "invalid transaction: " + e.err.Error()
}

func (e *TransactionError) Unwrap() error {
	return e.err
}

func invalidTransaction(reason error, format string, args ...any) error {
	if format == "" {
		return &TransactionError{err: reason}
	}
	return &TransactionError{err: fmt.Errorf("%w: "+format, append([]any{reason}, args...)...)}
}

// NewTransactionError reports a violation of the given rule by a
// transaction. The format and args describe the violation.
func NewTransactionError(reason error, format string, args ...any) error {
	return invalidTransaction(reason, format, args...)
}

// IsTransactionError reports whether err marks the transaction as invalid.
func IsTransactionError(err error) bool {
	var target *TransactionError
	return errors.As(err, &target)
}

// DatabaseError is an I/O failure of the store backing a transaction context.
// It is always fatal.
type DatabaseError struct {
	Err error
}

func (e *DatabaseError) Error() string {
	return "database error: " + e.Err.Error()
}

func (e *DatabaseError) Unwrap() error {
	return e.Err
}

// EngineError carries the message of any other failure raised while
// executing a transaction, e.g. by the interpreter.
type EngineError struct {
	Message string
}

func (e *EngineError) Error() string {
	return e.Message
}

// ErrorSource is implemented by transaction contexts whose backing store may
// fail. Since state accessors have no error results, failures are queued and
// collected by the processor.
type ErrorSource interface {
	// TakeError returns the first error queued since the last call and
	// clears it.
	TakeError() error
}

// PendingError collects the error queued by the context, if any, and
// classifies it. Database errors are returned as they are, all other errors
// are converted into an EngineError.
func PendingError(context tosca.TransactionContext) error {
	source, ok := context.(ErrorSource)
	if !ok {
		return nil
	}
	return Classify(source.TakeError())
}

// Classify converts errors other than database errors into an EngineError.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var dbErr *DatabaseError
	if errors.As(err, &dbErr) {
		return err
	}
	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		return err
	}
	return &EngineError{Message: err.Error()}
}
