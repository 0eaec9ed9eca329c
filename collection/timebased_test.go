// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package collection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/xdiscount"
	"github.com/luxfi/xdiscount/events"
)

var t0 = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func newTestTimeBased(t *testing.T) (*TimeBasedDiscount, *xdiscount.ManualClock, *events.Recorder) {
	clock := xdiscount.NewManualClock(t0)
	rec := events.NewRecorder()
	c := NewTimeBased(collAddr, rec, clock)
	require.NoError(t, c.Initialize(gateway, acme, "ACM", "ipfs://expired"))
	return c, clock, rec
}

func TestRatioAt(t *testing.T) {
	start := t0
	tok := Token{StartAt: start, EndAt: start.Add(100 * time.Second), Ratio: 50}

	tests := []struct {
		name string
		at   time.Time
		want uint8
	}{
		{name: "before start", at: start.Add(-time.Second), want: 0},
		{name: "at start", at: start, want: 50},
		{name: "inside", at: start.Add(50 * time.Second), want: 50},
		{name: "last instant", at: start.Add(100*time.Second - time.Nanosecond), want: 50},
		{name: "at end", at: start.Add(100 * time.Second), want: 0},
		{name: "after end", at: start.Add(time.Hour), want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, RatioAt(tok, tt.at))
		})
	}

	tok.Expired = true
	require.Zero(t, RatioAt(tok, start.Add(time.Second)))
}

func TestCreateToken(t *testing.T) {
	require := require.New(t)

	c, _, rec := newTestTimeBased(t)
	id, err := c.CreateToken(gateway, "uri1", t0, t0.Add(time.Hour), 50)
	require.NoError(err)
	require.Equal(uint64(1), id)
	id, err = c.CreateToken(gateway, "uri2", t0.Add(time.Minute), t0.Add(time.Hour), 100)
	require.NoError(err)
	require.Equal(uint64(2), id)
	require.Equal(uint64(2), c.TokenCount())
	require.Len(rec.OfType(events.TypeTokenCreated), 2)

	tok, err := c.Token(2)
	require.NoError(err)
	require.Equal("uri2", tok.URI)
	require.Equal(uint8(100), tok.Ratio)
}

func TestCreateTokenErrors(t *testing.T) {
	tests := []struct {
		name    string
		caller  bool
		startAt time.Time
		endAt   time.Time
		ratio   uint8
		wantErr error
	}{
		{name: "not owner", startAt: t0, endAt: t0.Add(time.Hour), ratio: 10, wantErr: xdiscount.ErrNotCollectionOwner},
		{name: "zero ratio", caller: true, startAt: t0, endAt: t0.Add(time.Hour), ratio: 0, wantErr: xdiscount.ErrInvalidRatio},
		{name: "ratio over 100", caller: true, startAt: t0, endAt: t0.Add(time.Hour), ratio: 101, wantErr: xdiscount.ErrInvalidRatio},
		{name: "start in past", caller: true, startAt: t0.Add(-time.Second), endAt: t0.Add(time.Hour), ratio: 10, wantErr: xdiscount.ErrInvalidWindow},
		{name: "end equals start", caller: true, startAt: t0, endAt: t0, ratio: 10, wantErr: xdiscount.ErrInvalidWindow},
		{name: "end before start", caller: true, startAt: t0.Add(time.Hour), endAt: t0, ratio: 10, wantErr: xdiscount.ErrInvalidWindow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			c, _, _ := newTestTimeBased(t)
			caller := alice
			if tt.caller {
				caller = gateway
			}
			_, err := c.CreateToken(caller, "uri", tt.startAt, tt.endAt, tt.ratio)
			require.ErrorIs(err, tt.wantErr)
			require.Zero(c.TokenCount())
		})
	}
}

// A token reports its ratio inside its window and zero after it, without
// anyone calling ExpireTokens.
func TestLazyExpiry(t *testing.T) {
	require := require.New(t)

	c, clock, _ := newTestTimeBased(t)
	id, err := c.CreateToken(gateway, "uri1", t0, t0.Add(100*time.Second), 50)
	require.NoError(err)

	for _, offset := range []time.Duration{0, time.Second, 99 * time.Second} {
		clock.Set(t0.Add(offset))
		ratio, err := c.DiscountRatio(id)
		require.NoError(err)
		require.Equal(uint8(50), ratio, offset)
		uri, err := c.URI(id)
		require.NoError(err)
		require.Equal("uri1", uri)
	}

	for _, offset := range []time.Duration{100 * time.Second, time.Hour} {
		clock.Set(t0.Add(offset))
		ratio, err := c.DiscountRatio(id)
		require.NoError(err)
		require.Zero(ratio, offset)
		uri, err := c.URI(id)
		require.NoError(err)
		require.Equal("ipfs://expired", uri)
	}

	require.ErrorIs(c.Mint(gateway, alice, id, 1), xdiscount.ErrTokenInactive)

	_, err = c.DiscountRatio(9)
	require.ErrorIs(err, xdiscount.ErrTokenNotFound)
}

func TestExpireTokens(t *testing.T) {
	require := require.New(t)

	c, _, rec := newTestTimeBased(t)
	a, err := c.CreateToken(gateway, "a", t0, t0.Add(time.Hour), 20)
	require.NoError(err)
	b, err := c.CreateToken(gateway, "b", t0, t0.Add(time.Hour), 30)
	require.NoError(err)

	require.ErrorIs(c.ExpireTokens(alice, []uint64{a}), xdiscount.ErrNotCollectionOwner)
	require.ErrorIs(c.ExpireTokens(gateway, nil), xdiscount.ErrEmptyInput)
	require.ErrorIs(c.ExpireTokens(gateway, []uint64{a, 99}), xdiscount.ErrTokenNotFound)
	tok, err := c.Token(a)
	require.NoError(err)
	require.False(tok.Expired)

	require.NoError(c.ExpireTokens(gateway, []uint64{a}))
	require.Len(rec.OfType(events.TypeTokensExpired), 1)

	ratio, err := c.DiscountRatio(a)
	require.NoError(err)
	require.Zero(ratio)
	uri, err := c.URI(a)
	require.NoError(err)
	require.Equal("ipfs://expired", uri)
	require.ErrorIs(c.Mint(gateway, alice, a, 1), xdiscount.ErrTokenInactive)

	ratio, err = c.DiscountRatio(b)
	require.NoError(err)
	require.Equal(uint8(30), ratio)
}

func TestTimeBasedMint(t *testing.T) {
	require := require.New(t)

	c, clock, _ := newTestTimeBased(t)
	id, err := c.CreateToken(gateway, "uri", t0.Add(time.Hour), t0.Add(2*time.Hour), 40)
	require.NoError(err)

	// Minting before the window opens is allowed; the ratio reads zero.
	require.NoError(c.Mint(gateway, alice, id, 1))
	ratio, err := c.DiscountRatio(id)
	require.NoError(err)
	require.Zero(ratio)

	clock.Advance(90 * time.Minute)
	require.NoError(c.Mint(gateway, alice, id, 1))
	require.Equal(uint64(2), c.BalanceOf(alice, id))

	require.ErrorIs(c.Mint(alice, alice, id, 1), xdiscount.ErrNotCollectionOwner)
	require.ErrorIs(c.Mint(gateway, alice, 5, 1), xdiscount.ErrTokenNotFound)

	require.NoError(c.Pause(gateway))
	require.ErrorIs(c.Mint(gateway, alice, id, 1), xdiscount.ErrCollectionPaused)
	require.NoError(c.Unpause(gateway))

	// Holders may burn expired tokens.
	clock.Advance(time.Hour)
	require.NoError(c.Burn(alice, id, 2))
	require.Zero(c.BalanceOf(alice, id))
}
