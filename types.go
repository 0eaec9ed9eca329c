// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package xdiscount

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// NameLen is the width of a canonical discount name.
const NameLen = 32

// Name is the canonical fixed-width key of a discount: the UTF-8 bytes of
// the human-readable name, right-padded with zeros.
type Name [NameLen]byte

// NewName converts a human-readable name to its canonical form.
func NewName(s string) (Name, error) {
	var n Name
	if len(s) == 0 {
		return n, ErrEmptyName
	}
	if len(s) > NameLen {
		return n, fmt.Errorf("%w: %q is %d bytes, max %d", ErrNameTooLong, s, len(s), NameLen)
	}
	// Padding is zero bytes, so a name holding one would not round-trip.
	if strings.IndexByte(s, 0) >= 0 {
		return n, fmt.Errorf("%w: %q contains a zero byte", ErrInvalidName, s)
	}
	if !utf8.ValidString(s) {
		return n, fmt.Errorf("%w: %q is not valid UTF-8", ErrInvalidName, s)
	}
	copy(n[:], s)
	return n, nil
}

// MustName is NewName for constants and tests.
func MustName(s string) Name {
	n, err := NewName(s)
	if err != nil {
		panic(err)
	}
	return n
}

// String returns the human-readable name.
func (n Name) String() string {
	return string(bytes.TrimRight(n[:], "\x00"))
}

// Hex returns the 0x-prefixed canonical bytes.
func (n Name) Hex() string {
	return "0x" + hex.EncodeToString(n[:])
}

// MarshalText encodes the human-readable name.
func (n Name) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

// IsZero reports whether n is the empty name.
func (n Name) IsZero() bool {
	return n == Name{}
}

// Kind is the discount variant. Inactive is the only pre-creation state.
type Kind uint8

const (
	KindInactive Kind = iota
	KindTimeBased
	KindStaticBased
)

func (k Kind) String() string {
	switch k {
	case KindInactive:
		return "inactive"
	case KindTimeBased:
		return "time-based"
	case KindStaticBased:
		return "static"
	default:
		return "unknown"
	}
}

// Creatable reports whether k is a kind a discount may be initialized to.
func (k Kind) Creatable() bool {
	return k == KindTimeBased || k == KindStaticBased
}

// ParseKind parses the String form of a creatable kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "time-based", "timebased", "time":
		return KindTimeBased, nil
	case "static", "static-based":
		return KindStaticBased, nil
	default:
		return KindInactive, fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
}

// ChainID is the application-level identifier of a target ledger.
type ChainID uint64

func (c ChainID) String() string {
	return strconv.FormatUint(uint64(c), 10)
}

// Selector is the router's wire-level chain identifier.
type Selector uint64

func (s Selector) String() string {
	return strconv.FormatUint(uint64(s), 10)
}
