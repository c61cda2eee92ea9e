// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package state provides an in-memory model of the world state and a
// transaction context operating on it.
package state

import (
	"bytes"
	"fmt"
	"maps"

	"github.com/Fantom-foundation/tosca-l2/go/tosca"
	"github.com/holiman/uint256"
)

// WorldState maps addresses to accounts. Empty accounts are equivalent to
// missing ones.
type WorldState map[tosca.Address]Account

func (s WorldState) Equal(other WorldState) bool {
	return equalIgnoringZero(s, other, func(a, b Account) bool {
		return a.Equal(&b)
	})
}

func (s WorldState) Clone() WorldState {
	if s == nil {
		return nil
	}
	res := make(WorldState, len(s))
	for address, account := range s {
		res[address] = account.Clone()
	}
	return res
}

// Diff lists the differences to other, one line per differing field.
func (s WorldState) Diff(other WorldState) []string {
	return diff("", s, other, func(address tosca.Address, a, b Account) []string {
		if a.Equal(&b) {
			return nil
		}
		return a.Diff(fmt.Sprintf("%v/", address), &b)
	})
}

// TotalBalance sums up the balances of all accounts. The sum is reported as
// overflowing if it exceeds 256 bits.
func (s WorldState) TotalBalance() (tosca.Value, bool) {
	total := new(uint256.Int)
	overflow := false
	for _, account := range s {
		_, carry := total.AddOverflow(total, account.Balance.ToUint256())
		overflow = overflow || carry
	}
	return tosca.ValueFromUint256(total), overflow
}

// Account is the state of a single address. The zero value is the empty
// account.
type Account struct {
	Balance tosca.Value
	Nonce   uint64
	Code    tosca.Code
	Storage Storage
}

// IsEmpty follows EIP-161: accounts without balance, nonce and code are
// empty, regardless of their storage.
func (a *Account) IsEmpty() bool {
	return a.Balance.IsZero() && a.Nonce == 0 && len(a.Code) == 0
}

func (a *Account) Equal(other *Account) bool {
	return a.Balance == other.Balance &&
		a.Nonce == other.Nonce &&
		bytes.Equal(a.Code, other.Code) &&
		a.Storage.Equal(other.Storage)
}

func (a *Account) Clone() Account {
	return Account{
		Balance: a.Balance,
		Nonce:   a.Nonce,
		Code:    bytes.Clone(a.Code),
		Storage: a.Storage.Clone(),
	}
}

func (a *Account) Diff(prefix string, other *Account) []string {
	var res []string
	if a.Balance != other.Balance {
		res = append(res, fmt.Sprintf("different balance: %v != %v", a.Balance, other.Balance))
	}
	if a.Nonce != other.Nonce {
		res = append(res, fmt.Sprintf("different nonce: %v != %v", a.Nonce, other.Nonce))
	}
	if !bytes.Equal(a.Code, other.Code) {
		res = append(res, fmt.Sprintf("different code: 0x%x != 0x%x", a.Code, other.Code))
	}
	res = append(res, a.Storage.Diff("Storage/", other.Storage)...)
	for i, line := range res {
		res[i] = prefix + line
	}
	return res
}

// Storage maps keys to values. Zero values are equivalent to missing keys.
type Storage map[tosca.Key]tosca.Word

func (s Storage) Equal(other Storage) bool {
	return equalIgnoringZero(s, other, func(a, b tosca.Word) bool {
		return a == b
	})
}

func (s Storage) Clone() Storage {
	return maps.Clone(s)
}

func (s Storage) Diff(prefix string, other Storage) []string {
	return diff(prefix, s, other, func(key tosca.Key, a, b tosca.Word) []string {
		if a == b {
			return nil
		}
		return []string{fmt.Sprintf("different value for key %v: %v != %v", key, a, b)}
	})
}

func equalIgnoringZero[K comparable, V any](a, b map[K]V, equal func(V, V) bool) bool {
	for k, v := range a {
		if !equal(v, b[k]) {
			return false
		}
	}
	for k, v := range b {
		if !equal(v, a[k]) {
			return false
		}
	}
	return true
}

func diff[K comparable, V any](prefix string, a, b map[K]V, compare func(K, V, V) []string) []string {
	var res []string
	for k, v := range a {
		res = append(res, compare(k, v, b[k])...)
	}
	for k, v := range b {
		if _, found := a[k]; !found {
			res = append(res, compare(k, a[k], v)...)
		}
	}
	for i, line := range res {
		res[i] = prefix + line
	}
	return res
}
