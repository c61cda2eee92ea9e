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

	"github.com/Fantom-foundation/tosca-l2/go/tosca"
	"github.com/ethereum/go-ethereum/metrics"
	lru "github.com/hashicorp/golang-lru/v2"
)

var (
	codeCacheHits   = metrics.NewRegisteredCounter("state/codecache/hit", nil)
	codeCacheMisses = metrics.NewRegisteredCounter("state/codecache/miss", nil)
)

// CodeSource provides bytecode by its hash, e.g. a database.
type CodeSource interface {
	GetCodeByHash(hash tosca.Hash) (tosca.Code, bool)
}

// CodeCache keeps recently used bytecode in memory. Since entries are keyed
// by the hash of their content they never become stale.
type CodeCache struct {
	source CodeSource
	cache  *lru.Cache[tosca.Hash, tosca.Code]
}

// NewCodeCache creates a cache holding up to size entries in front of
// source. The source may be nil, in which case only added code is found.
func NewCodeCache(source CodeSource, size int) (*CodeCache, error) {
	cache, err := lru.New[tosca.Hash, tosca.Code](size)
	if err != nil {
		return nil, err
	}
	return &CodeCache{source: source, cache: cache}, nil
}

// Add inserts code into the cache and returns its hash.
func (c *CodeCache) Add(code tosca.Code) tosca.Hash {
	hash := hashOf(code)
	c.cache.Add(hash, bytes.Clone(code))
	return hash
}

func (c *CodeCache) GetCodeByHash(hash tosca.Hash) (tosca.Code, bool) {
	if code, found := c.cache.Get(hash); found {
		codeCacheHits.Inc(1)
		return bytes.Clone(code), true
	}
	codeCacheMisses.Inc(1)
	if c.source == nil {
		return nil, false
	}
	code, found := c.source.GetCodeByHash(hash)
	if !found {
		return nil, false
	}
	c.cache.Add(hash, bytes.Clone(code))
	return code, true
}

// Len is the number of cached entries.
func (c *CodeCache) Len() int {
	return c.cache.Len()
}
