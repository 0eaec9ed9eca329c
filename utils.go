// Copyright (C) 2019-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package xdiscount

import (
	"math"

	"github.com/luxfi/crypto"
	"github.com/luxfi/ids"
)

// KiB is 1024 bytes
const KiB = 1024

// AddUint64 adds two uint64 values and returns an error if overflow
func AddUint64(a, b uint64) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, ErrOverflow
	}
	return a + b, nil
}

// HashID hashes the concatenation of parts into an ids.ID.
func HashID(parts ...[]byte) ids.ID {
	var id ids.ID
	copy(id[:], crypto.Keccak256(parts...))
	return id
}
