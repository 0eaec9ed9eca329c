// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package xdiscount

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewName(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr error
	}{
		{name: "short", in: "ACME"},
		{name: "exactly 32 bytes", in: strings.Repeat("a", NameLen)},
		{name: "empty", in: "", wantErr: ErrEmptyName},
		{name: "33 bytes", in: strings.Repeat("a", NameLen+1), wantErr: ErrNameTooLong},
		{name: "multibyte over limit", in: strings.Repeat("é", 17), wantErr: ErrNameTooLong},
		{name: "multibyte", in: "café"},
		{name: "trailing zero byte", in: "ACME\x00", wantErr: ErrInvalidName},
		{name: "inner zero byte", in: "AC\x00ME", wantErr: ErrInvalidName},
		{name: "invalid utf-8", in: "ACME\xff", wantErr: ErrInvalidName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			n, err := NewName(tt.in)
			if tt.wantErr != nil {
				require.ErrorIs(err, tt.wantErr)
				return
			}
			require.NoError(err)
			require.Equal(tt.in, n.String())
			require.False(n.IsZero())
		})
	}
}

func TestNameCanonical(t *testing.T) {
	require := require.New(t)

	n := MustName("ACME")
	require.Equal(byte('A'), n[0])
	require.Equal(byte(0), n[4])
	require.Equal(byte(0), n[NameLen-1])
	require.Equal("0x41434d45"+strings.Repeat("00", NameLen-4), n.Hex())
	require.True(Name{}.IsZero())
	require.Panics(func() { MustName("") })
}

func TestKind(t *testing.T) {
	require := require.New(t)

	require.False(KindInactive.Creatable())
	require.True(KindTimeBased.Creatable())
	require.True(KindStaticBased.Creatable())
	require.False(Kind(7).Creatable())
	require.Equal("unknown", Kind(7).String())

	k, err := ParseKind("static")
	require.NoError(err)
	require.Equal(KindStaticBased, k)
	k, err = ParseKind(KindTimeBased.String())
	require.NoError(err)
	require.Equal(KindTimeBased, k)
	_, err = ParseKind("inactive")
	require.ErrorIs(err, ErrInvalidKind)
}

func TestErrorCodes(t *testing.T) {
	require := require.New(t)

	err := fmt.Errorf("claim: %w", ErrNotEligible)
	require.ErrorIs(err, ErrNotEligible)
	require.Equal(int32(301), CodeOf(err))
	require.Equal("not eligible", ReasonOf(err))
	require.Equal("xdiscount error 301: not eligible", ErrNotEligible.Error())

	plain := errors.New("disk full")
	require.Zero(CodeOf(plain))
	require.Equal("disk full", ReasonOf(plain))
	require.Empty(ReasonOf(nil))
}

func TestAddUint64(t *testing.T) {
	v, err := AddUint64(1, 2)
	require.NoError(t, err)
	require.Equal(t, uint64(3), v)

	_, err = AddUint64(math.MaxUint64, 1)
	require.ErrorIs(t, err, ErrOverflow)
}

func TestHashID(t *testing.T) {
	a := HashID([]byte("a"), []byte("b"))
	require.Equal(t, a, HashID([]byte("ab")))
	require.NotEqual(t, a, HashID([]byte("ba")))
}
