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

import (
	"fmt"
)

var revisionNames = map[Revision]string{
	R07_Istanbul:            "Istanbul",
	R09_Berlin:              "Berlin",
	R10_London:              "London",
	R11_Paris:               "Paris",
	R12_Shanghai:            "Shanghai",
	R13_Cancun:              "Cancun",
	R14_Prague:              "Prague",
	R99_UnknownNextRevision: "UnknownNextRevision",
}

func (r Revision) String() string {
	if name, found := revisionNames[r]; found {
		return name
	}
	return fmt.Sprintf("Revision(%d)", r)
}

func (r Revision) MarshalText() ([]byte, error) {
	name, found := revisionNames[r]
	if !found {
		return nil, fmt.Errorf("unknown revision %d", r)
	}
	return []byte(name), nil
}

func (r *Revision) UnmarshalText(data []byte) error {
	for revision, name := range revisionNames {
		if name == string(data) {
			*r = revision
			return nil
		}
	}
	return fmt.Errorf("unknown revision %q", data)
}
