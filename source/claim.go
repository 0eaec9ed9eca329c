// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package source

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/xdiscount"
	"github.com/luxfi/xdiscount/events"
	"github.com/luxfi/xdiscount/payload"
	"github.com/luxfi/xdiscount/storage"
)

// ClaimStaticDiscount redeems one claim of itemID: the caller's balance is
// decremented and a mint to the caller is dispatched, together or not at
// all.
func (c *Coordinator) ClaimStaticDiscount(
	ctx context.Context,
	caller common.Address,
	value *uint256.Int,
	name xdiscount.Name,
	itemID uint64,
	chainID xdiscount.ChainID,
) (ids.ID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	call := mintCall(xdiscount.KindStaticBased, name, caller, itemID)
	id, err := c.claim(ctx, caller, value, xdiscount.KindStaticBased, name, []uint64{itemID}, chainID, call)
	if err != nil {
		return ids.Empty, c.fail(call.Op(), err)
	}
	return id, nil
}

// ClaimTimeBasedDiscount is ClaimStaticDiscount for time-based discounts.
func (c *Coordinator) ClaimTimeBasedDiscount(
	ctx context.Context,
	caller common.Address,
	value *uint256.Int,
	name xdiscount.Name,
	itemID uint64,
	chainID xdiscount.ChainID,
) (ids.ID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	call := mintCall(xdiscount.KindTimeBased, name, caller, itemID)
	id, err := c.claim(ctx, caller, value, xdiscount.KindTimeBased, name, []uint64{itemID}, chainID, call)
	if err != nil {
		return ids.Empty, c.fail(call.Op(), err)
	}
	return id, nil
}

// ClaimStaticDiscountBatch redeems one claim of each listed item with a
// single mintBatch message. Every item must be claimable.
func (c *Coordinator) ClaimStaticDiscountBatch(
	ctx context.Context,
	caller common.Address,
	value *uint256.Int,
	name xdiscount.Name,
	itemIDs []uint64,
	chainID xdiscount.ChainID,
) (ids.ID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	call := batchCall(name, caller, itemIDs)
	if len(itemIDs) == 0 {
		return ids.Empty, c.fail(call.Op(), xdiscount.ErrEmptyInput)
	}
	id, err := c.claim(ctx, caller, value, xdiscount.KindStaticBased, name, itemIDs, chainID, call)
	if err != nil {
		return ids.Empty, c.fail(call.Op(), err)
	}
	return id, nil
}

// GetClaimFee quotes a single-item claim by caller. It changes nothing and
// does not check the caller's balance.
func (c *Coordinator) GetClaimFee(
	ctx context.Context,
	name xdiscount.Name,
	caller common.Address,
	itemID uint64,
	chainID xdiscount.ChainID,
) (*uint256.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	d, err := getDiscount(c.db, name)
	if err != nil {
		return nil, err
	}
	if d.Kind == xdiscount.KindInactive {
		return nil, fmt.Errorf("%w: %s", xdiscount.ErrNotInitialized, name)
	}
	out, err := c.build(name, chainID, mintCall(d.Kind, name, caller, itemID))
	if err != nil {
		return nil, err
	}
	return c.quote(ctx, out)
}

func mintCall(kind xdiscount.Kind, name xdiscount.Name, to common.Address, itemID uint64) payload.Call {
	m := payload.Mint{Name: name, To: to, ItemID: itemID, Amount: 1}
	if kind == xdiscount.KindTimeBased {
		return &payload.MintTimeBasedItem{Mint: m}
	}
	return &payload.MintStaticItem{Mint: m}
}

func batchCall(name xdiscount.Name, to common.Address, itemIDs []uint64) *payload.MintBatch {
	amounts := make([]uint64, len(itemIDs))
	for i := range amounts {
		amounts[i] = 1
	}
	return &payload.MintBatch{Name: name, To: to, ItemIDs: itemIDs, Amounts: amounts}
}

func (c *Coordinator) claim(
	ctx context.Context,
	caller common.Address,
	value *uint256.Int,
	kind xdiscount.Kind,
	name xdiscount.Name,
	itemIDs []uint64,
	chainID xdiscount.ChainID,
	call payload.Call,
) (ids.ID, error) {
	if err := c.whenNotPaused(); err != nil {
		return ids.Empty, err
	}
	d, err := getDiscount(c.db, name)
	if err != nil {
		return ids.Empty, err
	}
	if d.Kind != kind {
		return ids.Empty, fmt.Errorf("%w: %s is %s", xdiscount.ErrWrongKind, name, d.Kind)
	}
	active, err := c.db.Has(activationKey(name, chainID))
	if err != nil {
		return ids.Empty, err
	}
	if !active {
		return ids.Empty, fmt.Errorf("%w: %s on %s", xdiscount.ErrChainNotActive, name, chainID)
	}

	tx := storage.NewTx(c.db)
	for _, itemID := range itemIDs {
		key := balanceKey(name, caller, itemID)
		bal, err := tx.GetUint64(key)
		if err != nil {
			return ids.Empty, err
		}
		if bal == 0 {
			return ids.Empty, fmt.Errorf("%w: no claim of item %d", xdiscount.ErrNotEligible, itemID)
		}
		if err := tx.PutUint64(key, bal-1); err != nil {
			return ids.Empty, err
		}
	}

	out, err := c.build(name, chainID, call)
	if err != nil {
		return ids.Empty, err
	}
	id, _, err := c.dispatch(ctx, tx, out, value)
	if err != nil {
		return ids.Empty, err
	}

	c.log.Info("discount claimed",
		log.String("name", name.String()),
		log.String("user", caller.Hex()),
		log.Int("items", len(itemIDs)),
		log.Stringer("chainID", chainID),
		log.Stringer("messageID", id),
	)
	c.emitter.Emit(events.DiscountClaimed{
		Name:      name,
		User:      caller,
		ItemIDs:   append([]uint64(nil), itemIDs...),
		ChainID:   chainID,
		MessageID: id,
	})
	return id, nil
}
