// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"fmt"
)

// Key prefixes. Every table lives in one keyspace.
var (
	DiscountPrefix   = []byte("disc/")
	ActivationPrefix = []byte("act/")
	BalancePrefix    = []byte("bal/")
	NetworkPrefix    = []byte("net/")
	OutboxPrefix     = []byte("out/")
	InstancePrefix   = []byte("inst/")
	MetaPrefix       = []byte("meta/")
)

// Key joins a prefix and fixed-width parts.
func Key(prefix []byte, parts ...[]byte) []byte {
	n := len(prefix)
	for _, p := range parts {
		n += len(p)
	}
	k := make([]byte, 0, n)
	k = append(k, prefix...)
	for _, p := range parts {
		k = append(k, p...)
	}
	return k
}

func errCorrupt(key []byte) error {
	return fmt.Errorf("corrupt value at key %x", key)
}
