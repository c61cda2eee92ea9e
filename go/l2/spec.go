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

// SpecID identifies a set of rollup protocol rules. Later ids include all
// rules of earlier ones.
type SpecID uint8

const (
	// Initial prices L1 data with the legacy overhead and scalar formula.
	Initial SpecID = iota
	// BlobPricing prices L1 data by calldata and blob base fees.
	BlobPricing
	// OperatorFee adds the operator fee on top of BlobPricing.
	OperatorFee
	numSpecIDs int = iota
)

// Latest is the most recent protocol rule set.
const Latest = OperatorFee

var specNames = map[SpecID]string{
	Initial:     "Initial",
	BlobPricing: "BlobPricing",
	OperatorFee: "OperatorFee",
}

// IsEnabledIn reports whether the rules of other are active under s.
func (s SpecID) IsEnabledIn(other SpecID) bool {
	return s >= other
}

// IsValid reports whether s is a known rule set.
func (s SpecID) IsValid() bool {
	return int(s) < numSpecIDs
}

// Revision is the Ethereum revision the rollup executes code with.
func (s SpecID) Revision() tosca.Revision {
	return tosca.R14_Prague
}

func (s SpecID) String() string {
	if name, found := specNames[s]; found {
		return name
	}
	return fmt.Sprintf("SpecID(%d)", s)
}

func (s SpecID) MarshalText() ([]byte, error) {
	name, found := specNames[s]
	if !found {
		return nil, fmt.Errorf("unknown spec id %d", s)
	}
	return []byte(name), nil
}

func (s *SpecID) UnmarshalText(data []byte) error {
	for id, name := range specNames {
		if name == string(data) {
			*s = id
			return nil
		}
	}
	return fmt.Errorf("unknown spec id %q", data)
}
