// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package collection

import (
	"fmt"
	"time"

	"github.com/luxfi/geth/common"

	"github.com/luxfi/xdiscount"
	"github.com/luxfi/xdiscount/events"
)

// MaxRatio is the largest discount percentage a token may carry.
const MaxRatio = 100

// Token is one item of a TimeBasedDiscount.
type Token struct {
	ID      uint64
	URI     string
	StartAt time.Time
	EndAt   time.Time
	Ratio   uint8
	// Expired is set by an explicit expire and never cleared.
	Expired bool
}

// Inactive reports whether t is expired at time at: explicitly, or because
// its window has closed. A token whose window has not opened yet is not
// inactive.
func (t Token) Inactive(at time.Time) bool {
	return t.Expired || !at.Before(t.EndAt)
}

// RatioAt is the discount percentage of t at time at. It is the stored ratio
// inside [StartAt, EndAt) and zero outside it or once expired.
func RatioAt(t Token, at time.Time) uint8 {
	if t.Inactive(at) || at.Before(t.StartAt) {
		return 0
	}
	return t.Ratio
}

// TimeBasedDiscount is a growing catalog of time-limited tokens. Expiry is
// computed at read time; ExpireTokens makes it permanent.
type TimeBasedDiscount struct {
	ledger
	clock      xdiscount.Clock
	expiredURI string
	tokens     map[uint64]*Token
	nextID     uint64
}

// NewTimeBased returns an uninitialized collection at address.
func NewTimeBased(address common.Address, emitter events.Emitter, clock xdiscount.Clock) *TimeBasedDiscount {
	if clock == nil {
		clock = xdiscount.SystemClock{}
	}
	t := &TimeBasedDiscount{
		clock:  clock,
		tokens: make(map[uint64]*Token),
		nextID: 1,
	}
	t.init(address, emitter)
	return t
}

// Initialize sets the owner and the placeholder URI shown for inactive
// tokens. It may be called once.
func (c *TimeBasedDiscount) Initialize(owner common.Address, name xdiscount.Name, symbol, expiredURI string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.setUp(owner, name, symbol); err != nil {
		return err
	}
	c.expiredURI = expiredURI
	return nil
}

// CreateToken appends a token and returns its ID. IDs start at 1. Owner
// only.
func (c *TimeBasedDiscount) CreateToken(caller common.Address, uri string, startAt, endAt time.Time, ratio uint8) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.onlyOwner(caller); err != nil {
		return 0, err
	}
	if ratio == 0 || ratio > MaxRatio {
		return 0, fmt.Errorf("%w: %d", xdiscount.ErrInvalidRatio, ratio)
	}
	now := c.clock.Now()
	if startAt.Before(now) {
		return 0, fmt.Errorf("%w: start %s is in the past", xdiscount.ErrInvalidWindow, startAt.UTC().Format(time.RFC3339))
	}
	if !endAt.After(startAt) {
		return 0, fmt.Errorf("%w: end must be after start", xdiscount.ErrInvalidWindow)
	}

	id := c.nextID
	c.nextID++
	c.tokens[id] = &Token{
		ID:      id,
		URI:     uri,
		StartAt: startAt,
		EndAt:   endAt,
		Ratio:   ratio,
	}
	c.emitter.Emit(events.TokenCreated{
		Collection: c.address,
		TokenID:    id,
		StartAt:    startAt,
		EndAt:      endAt,
		Ratio:      ratio,
	})
	return id, nil
}

// Token returns a copy of token id.
func (c *TimeBasedDiscount) Token(id uint64) (Token, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token(id)
}

func (c *TimeBasedDiscount) token(id uint64) (Token, error) {
	t, ok := c.tokens[id]
	if !ok {
		return Token{}, fmt.Errorf("%w: token %d", xdiscount.ErrTokenNotFound, id)
	}
	return *t, nil
}

// TokenCount returns how many tokens have been created.
func (c *TimeBasedDiscount) TokenCount() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.nextID - 1
}

// DiscountRatio returns the ratio of token id now.
func (c *TimeBasedDiscount) DiscountRatio(id uint64) (uint8, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	t, err := c.token(id)
	if err != nil {
		return 0, err
	}
	return RatioAt(t, c.clock.Now()), nil
}

// URI returns the token's metadata, or the expired placeholder once the
// token is inactive.
func (c *TimeBasedDiscount) URI(id uint64) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	t, err := c.token(id)
	if err != nil {
		return "", err
	}
	if t.Inactive(c.clock.Now()) {
		return c.expiredURI, nil
	}
	return t.URI, nil
}

// Mint credits amount of token id to to. Owner only; refused once the
// token is inactive.
func (c *TimeBasedDiscount) Mint(caller, to common.Address, id, amount uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.onlyOwner(caller); err != nil {
		return err
	}
	if err := c.whenNotPaused(); err != nil {
		return err
	}
	t, err := c.token(id)
	if err != nil {
		return err
	}
	if t.Inactive(c.clock.Now()) {
		return fmt.Errorf("%w: token %d", xdiscount.ErrTokenInactive, id)
	}
	itemIDs, amounts := []uint64{id}, []uint64{amount}
	if err := c.checkCredit(to, itemIDs, amounts); err != nil {
		return err
	}
	c.credit(to, itemIDs, amounts)
	return nil
}

// ExpireTokens permanently deactivates every listed token. Owner only.
// Unknown IDs fail the whole call.
func (c *TimeBasedDiscount) ExpireTokens(caller common.Address, ids []uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.onlyOwner(caller); err != nil {
		return err
	}
	if len(ids) == 0 {
		return xdiscount.ErrEmptyInput
	}
	for _, id := range ids {
		if _, ok := c.tokens[id]; !ok {
			return fmt.Errorf("%w: token %d", xdiscount.ErrTokenNotFound, id)
		}
	}
	for _, id := range ids {
		c.tokens[id].Expired = true
	}
	c.emitter.Emit(events.TokensExpired{Collection: c.address, TokenIDs: append([]uint64(nil), ids...)})
	return nil
}
