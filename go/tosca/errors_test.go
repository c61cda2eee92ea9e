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
	"errors"
	"fmt"
	"testing"
)

func TestConstError_CanBeMatchedWhenWrapped(t *testing.T) {
	const errUnknownSpec = ConstError("unknown spec")
	wrapped := fmt.Errorf("loading config: %w", errUnknownSpec)

	if want, got := "loading config: unknown spec", wrapped.Error(); want != got {
		t.Errorf("unexpected message, wanted %q, got %q", want, got)
	}
	if !errors.Is(wrapped, errUnknownSpec) {
		t.Errorf("wrapped error does not match its sentinel")
	}
	if errors.Is(wrapped, ConstError("unknown revision")) {
		t.Errorf("wrapped error matches a different sentinel")
	}
}
