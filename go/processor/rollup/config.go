// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package rollup

import (
	"fmt"

	"github.com/Fantom-foundation/tosca-l2/go/l2"
)

// Config selects the protocol rules of a Processor.
type Config struct {
	// Spec is the active rule set. It also determines the Ethereum revision
	// code is executed with.
	Spec l2.SpecID
	// CodeCacheSize is the number of deployable bytecodes kept in memory in
	// front of the code store. Zero disables the cache.
	CodeCacheSize int
}

// DefaultConfig runs the latest rules with a small code cache.
func DefaultConfig() Config {
	return Config{
		Spec:          l2.Latest,
		CodeCacheSize: 64,
	}
}

func (c Config) Validate() error {
	if !c.Spec.IsValid() {
		return fmt.Errorf("invalid spec id %v", c.Spec)
	}
	if c.CodeCacheSize < 0 {
		return fmt.Errorf("invalid code cache size %d", c.CodeCacheSize)
	}
	return nil
}
