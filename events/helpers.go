// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package events

import (
	"strconv"
	"strings"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
)

func u64(v uint64) string { return strconv.FormatUint(v, 10) }

func formatAmount(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}

func joinAddresses(addrs []common.Address) string {
	parts := make([]string, len(addrs))
	for i, a := range addrs {
		parts[i] = a.Hex()
	}
	return strings.Join(parts, ",")
}

func joinUint64s(vs []uint64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = u64(v)
	}
	return strings.Join(parts, ",")
}
