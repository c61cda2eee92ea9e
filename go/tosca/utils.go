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

import "math"

// GetStorageStatus obtains the status code to be returned by a WorldState
// implementation when mutating a storage slot with the given original,
// current, and new value.
func GetStorageStatus(original, current, new Word) StorageStatus {
	var zero Word
	switch {
	case current == new:
		return StorageAssigned
	case original == current && original == zero:
		return StorageAdded // 0 -> 0 -> Z
	case original == current && new == zero:
		return StorageDeleted // X -> X -> 0
	case original == current:
		return StorageModified // X -> X -> Z
	case original == zero:
		if new == zero {
			return StorageAddedDeleted // 0 -> Y -> 0
		}
		return StorageAssigned // 0 -> Y -> Z
	case current == zero:
		if new == original {
			return StorageDeletedRestored // X -> 0 -> X
		}
		return StorageDeletedAdded // X -> 0 -> Z
	case new == zero:
		return StorageModifiedDeleted // X -> Y -> 0
	case new == original:
		return StorageModifiedRestored // X -> Y -> X
	}
	return StorageAssigned // X -> Y -> Z
}

// SizeInWords returns the number of 32-byte words required to store the given
// number of bytes, saturating instead of overflowing.
func SizeInWords(size uint64) uint64 {
	if size > math.MaxUint64-31 {
		return math.MaxUint64/32 + 1
	}
	return (size + 31) / 32
}
