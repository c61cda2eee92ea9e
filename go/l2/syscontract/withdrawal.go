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

	"github.com/Fantom-foundation/tosca-l2/go/tosca"
)

const ErrMalformedMessage = tosca.ConstError("malformed withdrawal message")

const (
	withdrawalSize            = 4 + 20 + 32
	withdrawalWithMessageSize = withdrawalSize + 20
)

// Withdrawal is the content of a message finalizing a withdrawal of the base
// token on L1.
type Withdrawal struct {
	Receiver tosca.Address
	Value    tosca.Value
	// Sender is the L2 account initiating a withdrawal with message, nil for
	// plain withdrawals. Data is only encoded if Sender is set.
	Sender *tosca.Address
	Data   []byte
}

// EncodeWithdrawalMessage produces the ABI encoded message as it is passed
// to the L1 messenger. The message is the packed encoding of the
// finalizeEthWithdrawal selector, receiver, value and, for withdrawals with
// message, sender and data.
func EncodeWithdrawalMessage(w Withdrawal) []byte {
	packed := make([]byte, 0, withdrawalWithMessageSize+len(w.Data))
	packed = append(packed, finalizeEthWithdrawalSelector[:]...)
	packed = append(packed, w.Receiver[:]...)
	packed = append(packed, w.Value[:]...)
	if w.Sender != nil {
		packed = append(packed, w.Sender[:]...)
		packed = append(packed, w.Data...)
	}
	return encodeBytes(packed)
}

// DecodeWithdrawalMessage reverses EncodeWithdrawalMessage, applying the
// strict decoding rules of the L1 messenger.
func DecodeWithdrawalMessage(encoded []byte) (Withdrawal, error) {
	packed, ok := decodeTailBytes(encoded, wordSize)
	if !ok {
		return Withdrawal{}, ErrMalformedMessage
	}
	if len(packed) < withdrawalSize || [4]byte(packed[:4]) != finalizeEthWithdrawalSelector {
		return Withdrawal{}, ErrMalformedMessage
	}
	w := Withdrawal{
		Receiver: tosca.Address(packed[4:24]),
		Value:    tosca.Value(packed[24:withdrawalSize]),
	}
	switch {
	case len(packed) == withdrawalSize:
		return w, nil
	case len(packed) >= withdrawalWithMessageSize:
		sender := tosca.Address(packed[withdrawalSize:withdrawalWithMessageSize])
		w.Sender = &sender
		w.Data = bytes.Clone(packed[withdrawalWithMessageSize:])
		return w, nil
	}
	return Withdrawal{}, ErrMalformedMessage
}
