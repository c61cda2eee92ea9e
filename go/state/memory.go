// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package state

import (
	"bytes"
	"slices"

	"github.com/Fantom-foundation/tosca-l2/go/tosca"
	"github.com/ethereum/go-ethereum/crypto"
)

type slot struct {
	address tosca.Address
	key     tosca.Key
}

// Memory is a transaction context backed by an in-memory world state. All
// modifications are journaled and can be reverted to any snapshot taken
// within the current transaction. A Memory is used by one transaction at a
// time; BeginTransaction starts the next one.
type Memory struct {
	original WorldState // state at the start of the transaction
	current  WorldState

	transient      map[slot]tosca.Word
	warmAccounts   map[tosca.Address]struct{}
	warmSlots      map[slot]struct{}
	selfDestructed map[tosca.Address]struct{}
	logs           []tosca.Log
	undo           []func()

	codes       map[tosca.Hash]tosca.Code
	blockHashes map[int64]tosca.Hash
	err         error
}

// NewMemory creates a context on a copy of the given state, ready to run a
// transaction.
func NewMemory(initial WorldState) *Memory {
	if initial == nil {
		initial = WorldState{}
	}
	m := &Memory{
		current:     initial.Clone(),
		codes:       map[tosca.Hash]tosca.Code{},
		blockHashes: map[int64]tosca.Hash{},
	}
	m.BeginTransaction()
	return m
}

// BeginTransaction finalizes all modifications of the previous transaction
// and resets all transaction scoped data.
func (m *Memory) BeginTransaction() {
	m.original = m.current.Clone()
	m.transient = map[slot]tosca.Word{}
	m.warmAccounts = map[tosca.Address]struct{}{}
	m.warmSlots = map[slot]struct{}{}
	m.selfDestructed = map[tosca.Address]struct{}{}
	m.logs = nil
	m.undo = nil
}

// State returns a copy of the current world state.
func (m *Memory) State() WorldState {
	return m.current.Clone()
}

// PreloadCode makes code available for lookups by its hash.
func (m *Memory) PreloadCode(code tosca.Code) tosca.Hash {
	hash := hashOf(code)
	m.codes[hash] = bytes.Clone(code)
	return hash
}

// GetCodeByHash looks up preloaded code and code of existing accounts.
func (m *Memory) GetCodeByHash(hash tosca.Hash) (tosca.Code, bool) {
	if code, found := m.codes[hash]; found {
		return bytes.Clone(code), true
	}
	for _, account := range m.current {
		if len(account.Code) > 0 && hashOf(account.Code) == hash {
			return bytes.Clone(account.Code), true
		}
	}
	return nil, false
}

func (m *Memory) SetBlockHash(number int64, hash tosca.Hash) {
	m.blockHashes[number] = hash
}

// QueueError records a failure of the backing store, to be collected by the
// processor through TakeError. Only the first error is kept.
func (m *Memory) QueueError(err error) {
	if m.err == nil {
		m.err = err
	}
}

func (m *Memory) TakeError() error {
	err := m.err
	m.err = nil
	return err
}

func (m *Memory) AccountExists(address tosca.Address) bool {
	account, found := m.current[address]
	return found && !account.IsEmpty()
}

func (m *Memory) GetBalance(address tosca.Address) tosca.Value {
	return m.current[address].Balance
}

func (m *Memory) SetBalance(address tosca.Address, value tosca.Value) {
	m.update(address, func(account *Account) { account.Balance = value })
}

func (m *Memory) GetNonce(address tosca.Address) uint64 {
	return m.current[address].Nonce
}

func (m *Memory) SetNonce(address tosca.Address, nonce uint64) {
	m.update(address, func(account *Account) { account.Nonce = nonce })
}

func (m *Memory) GetCode(address tosca.Address) tosca.Code {
	return bytes.Clone(m.current[address].Code)
}

// GetCodeHash returns the zero hash for accounts that do not exist.
func (m *Memory) GetCodeHash(address tosca.Address) tosca.Hash {
	if !m.AccountExists(address) {
		return tosca.Hash{}
	}
	return hashOf(m.current[address].Code)
}

func (m *Memory) GetCodeSize(address tosca.Address) int {
	return len(m.current[address].Code)
}

func (m *Memory) SetCode(address tosca.Address, code tosca.Code) {
	code = bytes.Clone(code)
	m.update(address, func(account *Account) { account.Code = code })
}

func (m *Memory) GetStorage(address tosca.Address, key tosca.Key) tosca.Word {
	return m.current[address].Storage[key]
}

func (m *Memory) SetStorage(address tosca.Address, key tosca.Key, value tosca.Word) tosca.StorageStatus {
	original := m.original[address].Storage[key]
	current := m.current[address].Storage[key]
	m.update(address, func(account *Account) {
		storage := account.Storage.Clone()
		if storage == nil {
			storage = Storage{}
		}
		storage[key] = value
		account.Storage = storage
	})
	return tosca.GetStorageStatus(original, current, value)
}

// SelfDestruct moves the balance of address to beneficiary. The account
// itself is kept (EIP-6780).
func (m *Memory) SelfDestruct(address tosca.Address, beneficiary tosca.Address) bool {
	balance := m.GetBalance(address)
	if address != beneficiary {
		m.SetBalance(beneficiary, tosca.Add(m.GetBalance(beneficiary), balance))
		m.SetBalance(address, tosca.Value{})
	}
	if _, found := m.selfDestructed[address]; found {
		return false
	}
	m.selfDestructed[address] = struct{}{}
	m.undo = append(m.undo, func() { delete(m.selfDestructed, address) })
	return true
}

func (m *Memory) CreateSnapshot() tosca.Snapshot {
	return tosca.Snapshot(len(m.undo))
}

func (m *Memory) RestoreSnapshot(snapshot tosca.Snapshot) {
	for len(m.undo) > int(snapshot) {
		m.undo[len(m.undo)-1]()
		m.undo = m.undo[:len(m.undo)-1]
	}
}

func (m *Memory) GetTransientStorage(address tosca.Address, key tosca.Key) tosca.Word {
	return m.transient[slot{address, key}]
}

func (m *Memory) SetTransientStorage(address tosca.Address, key tosca.Key, value tosca.Word) {
	s := slot{address, key}
	previous, found := m.transient[s]
	m.transient[s] = value
	m.undo = append(m.undo, func() {
		if found {
			m.transient[s] = previous
		} else {
			delete(m.transient, s)
		}
	})
}

func (m *Memory) AccessAccount(address tosca.Address) tosca.AccessStatus {
	if _, found := m.warmAccounts[address]; found {
		return tosca.WarmAccess
	}
	m.warmAccounts[address] = struct{}{}
	m.undo = append(m.undo, func() { delete(m.warmAccounts, address) })
	return tosca.ColdAccess
}

func (m *Memory) AccessStorage(address tosca.Address, key tosca.Key) tosca.AccessStatus {
	s := slot{address, key}
	if _, found := m.warmSlots[s]; found {
		return tosca.WarmAccess
	}
	m.warmSlots[s] = struct{}{}
	m.undo = append(m.undo, func() { delete(m.warmSlots, s) })
	return tosca.ColdAccess
}

// IsWarm reports whether address was accessed in the current transaction.
func (m *Memory) IsWarm(address tosca.Address) bool {
	_, found := m.warmAccounts[address]
	return found
}

func (m *Memory) EmitLog(log tosca.Log) {
	size := len(m.logs)
	m.logs = append(m.logs, log)
	m.undo = append(m.undo, func() { m.logs = m.logs[:size] })
}

func (m *Memory) GetLogs() []tosca.Log {
	return slices.Clone(m.logs)
}

func (m *Memory) GetBlockHash(number int64) tosca.Hash {
	return m.blockHashes[number]
}

// update applies modify to a copy of the account and journals the previous
// version.
func (m *Memory) update(address tosca.Address, modify func(*Account)) {
	previous, found := m.current[address]
	modified := previous
	modify(&modified)
	m.current[address] = modified
	m.undo = append(m.undo, func() {
		if found {
			m.current[address] = previous
		} else {
			delete(m.current, address)
		}
	})
}

func hashOf(code tosca.Code) tosca.Hash {
	return tosca.Hash(crypto.Keccak256Hash(code))
}
