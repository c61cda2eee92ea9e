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

//go:generate mockgen -source world_state.go -destination world_state_mock.go -package tosca

import "fmt"

// WorldState is the account and storage state of the chain. Reads of missing
// accounts or slots yield zero values.
type WorldState interface {
	AccountExists(Address) bool

	GetBalance(Address) Value
	SetBalance(Address, Value)

	GetNonce(Address) uint64
	SetNonce(Address, uint64)

	GetCode(Address) Code
	GetCodeHash(Address) Hash
	GetCodeSize(Address) int
	SetCode(Address, Code)

	GetStorage(Address, Key) Word
	SetStorage(Address, Key, Word) StorageStatus

	// SelfDestruct destroys addr and transfers its balance to beneficiary.
	// It returns true if addr was destroyed for the first time in the
	// ongoing transaction.
	SelfDestruct(addr Address, beneficiary Address) bool
}

type Address [20]byte

type Key [32]byte

type Word [32]byte

type Value [32]byte

type Hash [32]byte

type Code []byte

// StorageStatus classifies a storage update by the original value of the slot
// at the start of the transaction, its current value, and the new value. X, Y
// and Z are distinct non-zero values.
type StorageStatus int

const (
	StorageAssigned         StorageStatus = iota
	StorageAdded                          // 0 -> 0 -> Z
	StorageDeleted                        // X -> X -> 0
	StorageModified                       // X -> X -> Z
	StorageDeletedAdded                   // X -> 0 -> Z
	StorageModifiedDeleted                // X -> Y -> 0
	StorageDeletedRestored                // X -> 0 -> X
	StorageAddedDeleted                   // 0 -> Y -> 0
	StorageModifiedRestored               // X -> Y -> X
)

var storageStatusNames = []string{
	"StorageAssigned",
	"StorageAdded",
	"StorageDeleted",
	"StorageModified",
	"StorageDeletedAdded",
	"StorageModifiedDeleted",
	"StorageDeletedRestored",
	"StorageAddedDeleted",
	"StorageModifiedRestored",
}

func (s StorageStatus) String() string {
	if s >= 0 && int(s) < len(storageStatusNames) {
		return storageStatusNames[s]
	}
	return fmt.Sprintf("StorageStatus(%d)", s)
}
