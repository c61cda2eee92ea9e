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
	"errors"
	"testing"

	"github.com/Fantom-foundation/tosca-l2/go/tosca"
	"github.com/ethereum/go-ethereum/crypto"
)

func TestMemory_RestoreSnapshotRevertsAllModifications(t *testing.T) {
	address := tosca.Address{1}
	initial := WorldState{
		address: Account{Balance: tosca.NewValue(10), Nonce: 1, Storage: Storage{{1}: {1}}},
	}
	memory := NewMemory(initial)

	snapshot := memory.CreateSnapshot()
	memory.SetBalance(address, tosca.NewValue(20))
	memory.SetNonce(address, 2)
	memory.SetCode(address, tosca.Code{1, 2, 3})
	memory.SetStorage(address, tosca.Key{1}, tosca.Word{2})
	memory.SetBalance(tosca.Address{2}, tosca.NewValue(5))
	memory.SetTransientStorage(address, tosca.Key{1}, tosca.Word{3})
	memory.AccessAccount(tosca.Address{3})
	memory.AccessStorage(address, tosca.Key{4})
	memory.EmitLog(tosca.Log{Address: address})

	memory.RestoreSnapshot(snapshot)

	if want, got := initial, memory.State(); !want.Equal(got) {
		t.Errorf("state not restored: %v", got.Diff(want))
	}
	if got := memory.GetTransientStorage(address, tosca.Key{1}); got != (tosca.Word{}) {
		t.Errorf("transient storage not restored, got %v", got)
	}
	if memory.IsWarm(tosca.Address{3}) {
		t.Errorf("access list not restored")
	}
	if got := memory.AccessStorage(address, tosca.Key{4}); got != tosca.ColdAccess {
		t.Errorf("slot access not restored")
	}
	if len(memory.GetLogs()) != 0 {
		t.Errorf("logs not restored")
	}
}

func TestMemory_NestedSnapshots(t *testing.T) {
	address := tosca.Address{1}
	memory := NewMemory(nil)

	memory.SetNonce(address, 1)
	outer := memory.CreateSnapshot()
	memory.SetNonce(address, 2)
	inner := memory.CreateSnapshot()
	memory.SetNonce(address, 3)

	memory.RestoreSnapshot(inner)
	if want, got := uint64(2), memory.GetNonce(address); want != got {
		t.Errorf("unexpected nonce, wanted %d, got %d", want, got)
	}
	memory.RestoreSnapshot(outer)
	if want, got := uint64(1), memory.GetNonce(address); want != got {
		t.Errorf("unexpected nonce, wanted %d, got %d", want, got)
	}
}

func TestMemory_SetStorageReportsStatusRelativeToTransactionStart(t *testing.T) {
	address := tosca.Address{1}
	key := tosca.Key{1}
	memory := NewMemory(WorldState{address: Account{Storage: Storage{key: {1}}}})

	if want, got := tosca.StorageModified, memory.SetStorage(address, key, tosca.Word{2}); want != got {
		t.Errorf("unexpected status, wanted %v, got %v", want, got)
	}
	if want, got := tosca.StorageModifiedRestored, memory.SetStorage(address, key, tosca.Word{1}); want != got {
		t.Errorf("unexpected status, wanted %v, got %v", want, got)
	}

	memory.SetStorage(address, key, tosca.Word{2})
	memory.BeginTransaction()
	if want, got := tosca.StorageDeleted, memory.SetStorage(address, key, tosca.Word{}); want != got {
		t.Errorf("unexpected status in next transaction, wanted %v, got %v", want, got)
	}
}

func TestMemory_BeginTransactionResetsTransactionScope(t *testing.T) {
	address := tosca.Address{1}
	memory := NewMemory(nil)
	memory.SetBalance(address, tosca.NewValue(1))
	memory.AccessAccount(address)
	memory.SetTransientStorage(address, tosca.Key{}, tosca.Word{1})
	memory.EmitLog(tosca.Log{Address: address})

	memory.BeginTransaction()
	memory.RestoreSnapshot(0)

	if want, got := tosca.NewValue(1), memory.GetBalance(address); want != got {
		t.Errorf("committed balance lost, wanted %v, got %v", want, got)
	}
	if memory.IsWarm(address) {
		t.Errorf("access list not reset")
	}
	if memory.GetTransientStorage(address, tosca.Key{}) != (tosca.Word{}) {
		t.Errorf("transient storage not reset")
	}
	if len(memory.GetLogs()) != 0 {
		t.Errorf("logs not reset")
	}
}

func TestMemory_CodeHashOfMissingAndExistingAccounts(t *testing.T) {
	memory := NewMemory(WorldState{
		{1}: Account{Nonce: 1},
		{2}: Account{Code: tosca.Code{0x60, 0x00}},
	})
	if got := memory.GetCodeHash(tosca.Address{3}); got != (tosca.Hash{}) {
		t.Errorf("missing account should have zero hash, got %v", got)
	}
	if want, got := tosca.Hash(crypto.Keccak256Hash(nil)), memory.GetCodeHash(tosca.Address{1}); want != got {
		t.Errorf("unexpected hash of account without code, wanted %v, got %v", want, got)
	}
	if want, got := tosca.Hash(crypto.Keccak256Hash([]byte{0x60, 0x00})), memory.GetCodeHash(tosca.Address{2}); want != got {
		t.Errorf("unexpected code hash, wanted %v, got %v", want, got)
	}
}

func TestMemory_GetCodeByHash(t *testing.T) {
	deployed := tosca.Code{1, 2, 3}
	memory := NewMemory(WorldState{{1}: Account{Code: deployed}})
	preloaded := tosca.Code{4, 5}
	hash := memory.PreloadCode(preloaded)

	if code, found := memory.GetCodeByHash(hash); !found || string(code) != string(preloaded) {
		t.Errorf("preloaded code not found, got %x", code)
	}
	if code, found := memory.GetCodeByHash(hashOf(deployed)); !found || string(code) != string(deployed) {
		t.Errorf("deployed code not found, got %x", code)
	}
	if _, found := memory.GetCodeByHash(tosca.Hash{1}); found {
		t.Errorf("unknown hash should not be found")
	}
}

func TestMemory_QueuedErrorsAreTakenOnce(t *testing.T) {
	memory := NewMemory(nil)
	first := errors.New("first")
	memory.QueueError(first)
	memory.QueueError(errors.New("second"))

	if got := memory.TakeError(); got != first {
		t.Errorf("unexpected error, wanted %v, got %v", first, got)
	}
	if got := memory.TakeError(); got != nil {
		t.Errorf("error should be cleared, got %v", got)
	}
}

func TestMemory_SelfDestructMovesBalance(t *testing.T) {
	address, beneficiary := tosca.Address{1}, tosca.Address{2}
	memory := NewMemory(WorldState{address: Account{Balance: tosca.NewValue(7)}})

	if !memory.SelfDestruct(address, beneficiary) {
		t.Errorf("first self-destruct should be reported")
	}
	if memory.SelfDestruct(address, beneficiary) {
		t.Errorf("second self-destruct should not be reported")
	}
	if want, got := tosca.NewValue(7), memory.GetBalance(beneficiary); want != got {
		t.Errorf("unexpected beneficiary balance, wanted %v, got %v", want, got)
	}
	if got := memory.GetBalance(address); !got.IsZero() {
		t.Errorf("balance not moved, got %v", got)
	}
}

func TestMemory_AccountExistsFollowsEmptiness(t *testing.T) {
	memory := NewMemory(WorldState{{1}: Account{Storage: Storage{{1}: {1}}}})
	if memory.AccountExists(tosca.Address{1}) {
		t.Errorf("account with storage only should not exist")
	}
	memory.SetNonce(tosca.Address{1}, 1)
	if !memory.AccountExists(tosca.Address{1}) {
		t.Errorf("account with nonce should exist")
	}
}
