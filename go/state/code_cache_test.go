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
	"testing"

	"github.com/Fantom-foundation/tosca-l2/go/tosca"
)

type countingSource struct {
	codes map[tosca.Hash]tosca.Code
	calls int
}

func (s *countingSource) GetCodeByHash(hash tosca.Hash) (tosca.Code, bool) {
	s.calls++
	code, found := s.codes[hash]
	return code, found
}

func TestCodeCache_MissesAreServedBySourceOnce(t *testing.T) {
	code := tosca.Code{1, 2, 3}
	source := &countingSource{codes: map[tosca.Hash]tosca.Code{hashOf(code): code}}
	cache, err := NewCodeCache(source, 4)
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}

	for i := 0; i < 3; i++ {
		got, found := cache.GetCodeByHash(hashOf(code))
		if !found || string(got) != string(code) {
			t.Fatalf("unexpected code %x", got)
		}
	}
	if want, got := 1, source.calls; want != got {
		t.Errorf("unexpected number of source lookups, wanted %d, got %d", want, got)
	}
}

func TestCodeCache_UnknownCodeIsNotCached(t *testing.T) {
	source := &countingSource{}
	cache, err := NewCodeCache(source, 4)
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, found := cache.GetCodeByHash(tosca.Hash{1}); found {
			t.Errorf("unknown code should not be found")
		}
	}
	if want, got := 2, source.calls; want != got {
		t.Errorf("unexpected number of source lookups, wanted %d, got %d", want, got)
	}
	if cache.Len() != 0 {
		t.Errorf("misses must not be cached")
	}
}

func TestCodeCache_AddedCodeIsFoundWithoutSource(t *testing.T) {
	cache, err := NewCodeCache(nil, 2)
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	hash := cache.Add(tosca.Code{1})
	if _, found := cache.GetCodeByHash(hash); !found {
		t.Errorf("added code not found")
	}

	// exceeding the capacity evicts the least recently used entry
	cache.Add(tosca.Code{2})
	cache.Add(tosca.Code{3})
	if _, found := cache.GetCodeByHash(hash); found {
		t.Errorf("evicted code should not be found")
	}
	if want, got := 2, cache.Len(); want != got {
		t.Errorf("unexpected size, wanted %d, got %d", want, got)
	}
}

func TestCodeCache_ResultsAreCopies(t *testing.T) {
	cache, err := NewCodeCache(nil, 2)
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	hash := cache.Add(tosca.Code{1})
	code, _ := cache.GetCodeByHash(hash)
	code[0] = 2
	if code, _ := cache.GetCodeByHash(hash); code[0] != 1 {
		t.Errorf("cached code modified through result")
	}
}

func TestNewCodeCache_RejectsInvalidSize(t *testing.T) {
	if _, err := NewCodeCache(nil, 0); err == nil {
		t.Errorf("expected an error for a cache of size zero")
	}
}
