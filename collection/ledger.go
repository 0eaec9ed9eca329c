// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Package collection implements the two destination-side item catalogs a
// gateway deploys per discount name: StaticDiscount and TimeBasedDiscount.
// Both keep semi-fungible balances (holder, item) -> amount and are owned
// by the gateway that created them.
package collection

import (
	"fmt"
	"sync"

	"github.com/luxfi/geth/common"

	"github.com/luxfi/xdiscount"
	"github.com/luxfi/xdiscount/events"
)

// ledger is the state both variants share. Callers hold mu.
type ledger struct {
	mu sync.RWMutex

	address     common.Address
	emitter     events.Emitter
	initialized bool
	owner       common.Address
	name        xdiscount.Name
	symbol      string
	paused      bool
	balances    map[common.Address]map[uint64]uint64
}

func (l *ledger) init(address common.Address, emitter events.Emitter) {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	l.address = address
	l.emitter = emitter
	l.balances = make(map[common.Address]map[uint64]uint64)
}

func (l *ledger) setUp(owner common.Address, name xdiscount.Name, symbol string) error {
	if l.initialized {
		return xdiscount.ErrAlreadySetUp
	}
	if owner == (common.Address{}) {
		return fmt.Errorf("%w: zero owner", xdiscount.ErrInvalidAddress)
	}
	if name.IsZero() {
		return xdiscount.ErrEmptyName
	}
	l.initialized = true
	l.owner = owner
	l.name = name
	l.symbol = symbol
	return nil
}

func (l *ledger) onlyOwner(caller common.Address) error {
	if !l.initialized {
		return xdiscount.ErrNotInitialized
	}
	if caller != l.owner {
		return xdiscount.ErrNotCollectionOwner
	}
	return nil
}

func (l *ledger) whenNotPaused() error {
	if l.paused {
		return xdiscount.ErrCollectionPaused
	}
	return nil
}

// checkCredit verifies that amounts can be credited to to without overflow.
func (l *ledger) checkCredit(to common.Address, itemIDs, amounts []uint64) error {
	if to == (common.Address{}) {
		return fmt.Errorf("%w: zero recipient", xdiscount.ErrInvalidAddress)
	}
	pending := make(map[uint64]uint64, len(itemIDs))
	for i, id := range itemIDs {
		if amounts[i] == 0 {
			return xdiscount.ErrInvalidAmount
		}
		cur, ok := pending[id]
		if !ok {
			cur = l.balances[to][id]
		}
		next, err := xdiscount.AddUint64(cur, amounts[i])
		if err != nil {
			return err
		}
		pending[id] = next
	}
	return nil
}

// credit must follow a successful checkCredit.
func (l *ledger) credit(to common.Address, itemIDs, amounts []uint64) {
	b, ok := l.balances[to]
	if !ok {
		b = make(map[uint64]uint64)
		l.balances[to] = b
	}
	for i, id := range itemIDs {
		b[id] += amounts[i]
	}
	l.emitter.Emit(events.ItemsMinted{
		Collection: l.address,
		To:         to,
		ItemIDs:    append([]uint64(nil), itemIDs...),
		Amounts:    append([]uint64(nil), amounts...),
	})
}

func (l *ledger) burn(from common.Address, itemID, amount uint64) error {
	if err := l.whenNotPaused(); err != nil {
		return err
	}
	if amount == 0 {
		return xdiscount.ErrInvalidAmount
	}
	bal := l.balances[from][itemID]
	if bal < amount {
		return fmt.Errorf("%w: have %d, burning %d", xdiscount.ErrInsufficientBalance, bal, amount)
	}
	l.balances[from][itemID] = bal - amount
	l.emitter.Emit(events.ItemsBurned{Collection: l.address, From: from, ItemID: itemID, Amount: amount})
	return nil
}

func (l *ledger) setPaused(caller common.Address, paused bool) error {
	if err := l.onlyOwner(caller); err != nil {
		return err
	}
	if l.paused == paused {
		return nil
	}
	l.paused = paused
	target := l.name.String()
	if paused {
		l.emitter.Emit(events.Paused{Target: target, By: caller})
	} else {
		l.emitter.Emit(events.Unpaused{Target: target, By: caller})
	}
	return nil
}

// Address returns the collection's address.
func (l *ledger) Address() common.Address {
	return l.address
}

// Owner returns the gateway that owns the collection.
func (l *ledger) Owner() common.Address {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.owner
}

// Name returns the discount name the collection was created for.
func (l *ledger) Name() xdiscount.Name {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.name
}

func (l *ledger) Symbol() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.symbol
}

func (l *ledger) Paused() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.paused
}

// BalanceOf returns holder's balance of itemID.
func (l *ledger) BalanceOf(holder common.Address, itemID uint64) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[holder][itemID]
}

// Pause stops mints and burns. Owner only.
func (l *ledger) Pause(caller common.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.setPaused(caller, true)
}

// Unpause resumes mints and burns. Owner only.
func (l *ledger) Unpause(caller common.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.setPaused(caller, false)
}

// Burn destroys amount of the holder's own balance of itemID.
func (l *ledger) Burn(holder common.Address, itemID, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.burn(holder, itemID, amount)
}
