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

// InitializeDiscount claims name for caller with the given kind. A name can
// be initialized once.
func (c *Coordinator) InitializeDiscount(caller common.Address, name xdiscount.Name, kind xdiscount.Kind) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.whenNotPaused(); err != nil {
		return err
	}
	if name.IsZero() {
		return xdiscount.ErrEmptyName
	}
	if !kind.Creatable() {
		return fmt.Errorf("%w: %s", xdiscount.ErrInvalidKind, kind)
	}
	d, err := getDiscount(c.db, name)
	if err != nil {
		return err
	}
	if d.Kind != xdiscount.KindInactive {
		return fmt.Errorf("%w: %s is %s", xdiscount.ErrAlreadyInitialized, name, d.Kind)
	}

	tx := storage.NewTx(c.db)
	if err := putDiscount(tx, name, Discount{Owner: caller, Kind: kind}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit discount: %w", err)
	}

	c.log.Info("discount initialized",
		log.String("name", name.String()),
		log.Stringer("kind", kind),
		log.String("owner", caller.Hex()),
	)
	c.emitter.Emit(events.DiscountInitialized{Name: name, Owner: caller, Kind: kind})
	return nil
}

func staticCreateCall(name xdiscount.Name, symbol string, itemIDs []uint64, uris []string, chainID xdiscount.ChainID) *payload.CreateStaticCollection {
	return &payload.CreateStaticCollection{
		Name:    name,
		Symbol:  symbol,
		ItemIDs: itemIDs,
		URIs:    uris,
		ChainID: chainID,
	}
}

func timeBasedCreateCall(name xdiscount.Name, symbol, expiredURI string, chainID xdiscount.ChainID) *payload.CreateTimeBasedCollection {
	return &payload.CreateTimeBasedCollection{
		Name:       name,
		Symbol:     symbol,
		ExpiredURI: expiredURI,
		ChainID:    chainID,
	}
}

// GetCreateStaticFee quotes CreateStaticDiscount with the same arguments. It
// changes nothing.
func (c *Coordinator) GetCreateStaticFee(
	ctx context.Context,
	name xdiscount.Name,
	symbol string,
	itemIDs []uint64,
	uris []string,
	chainID xdiscount.ChainID,
) (*uint256.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	out, err := c.build(name, chainID, staticCreateCall(name, symbol, itemIDs, uris, chainID))
	if err != nil {
		return nil, err
	}
	return c.quote(ctx, out)
}

// GetCreateTimeBasedFee quotes CreateTimeBasedDiscount with the same
// arguments. It changes nothing.
func (c *Coordinator) GetCreateTimeBasedFee(
	ctx context.Context,
	name xdiscount.Name,
	symbol string,
	expiredURI string,
	chainID xdiscount.ChainID,
) (*uint256.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	out, err := c.build(name, chainID, timeBasedCreateCall(name, symbol, expiredURI, chainID))
	if err != nil {
		return nil, err
	}
	return c.quote(ctx, out)
}

// CreateStaticDiscount asks chainID to deploy the StaticDiscount collection
// of name. value must cover the fee; any excess is kept by the router.
func (c *Coordinator) CreateStaticDiscount(
	ctx context.Context,
	caller common.Address,
	value *uint256.Int,
	name xdiscount.Name,
	symbol string,
	itemIDs []uint64,
	uris []string,
	chainID xdiscount.ChainID,
) (ids.ID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	call := staticCreateCall(name, symbol, itemIDs, uris, chainID)
	id, err := c.create(ctx, caller, value, xdiscount.KindStaticBased, name, chainID, call)
	if err != nil {
		return ids.Empty, c.fail(call.Op(), err)
	}
	return id, nil
}

// CreateTimeBasedDiscount asks chainID to deploy the TimeBasedDiscount
// collection of name.
func (c *Coordinator) CreateTimeBasedDiscount(
	ctx context.Context,
	caller common.Address,
	value *uint256.Int,
	name xdiscount.Name,
	symbol string,
	expiredURI string,
	chainID xdiscount.ChainID,
) (ids.ID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	call := timeBasedCreateCall(name, symbol, expiredURI, chainID)
	id, err := c.create(ctx, caller, value, xdiscount.KindTimeBased, name, chainID, call)
	if err != nil {
		return ids.Empty, c.fail(call.Op(), err)
	}
	return id, nil
}

func (c *Coordinator) create(
	ctx context.Context,
	caller common.Address,
	value *uint256.Int,
	kind xdiscount.Kind,
	name xdiscount.Name,
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
	if d.Kind == xdiscount.KindInactive || caller != d.Owner {
		return ids.Empty, xdiscount.ErrNotOwner
	}
	if d.Kind != kind {
		return ids.Empty, fmt.Errorf("%w: %s is %s", xdiscount.ErrWrongKind, name, d.Kind)
	}
	out, err := c.build(name, chainID, call)
	if err != nil {
		return ids.Empty, err
	}

	tx := storage.NewTx(c.db)
	if err := tx.Put(activationKey(name, chainID), []byte{1}); err != nil {
		return ids.Empty, err
	}
	id, fee, err := c.dispatch(ctx, tx, out, value)
	if err != nil {
		return ids.Empty, err
	}

	c.log.Info("discount created",
		log.String("name", name.String()),
		log.Stringer("kind", kind),
		log.Stringer("chainID", chainID),
		log.Stringer("messageID", id),
	)
	c.emitter.Emit(events.DiscountCreated{
		Name:      name,
		Kind:      kind,
		ChainID:   chainID,
		Selector:  out.conf.Selector,
		MessageID: id,
		Fee:       fee,
	})
	return id, nil
}

// BatchIncrementUsersBalances adds one claim of itemID to every listed user.
// A user listed n times gains n claims.
func (c *Coordinator) BatchIncrementUsersBalances(caller common.Address, name xdiscount.Name, itemID uint64, users []common.Address) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.whenNotPaused(); err != nil {
		return err
	}
	d, err := getDiscount(c.db, name)
	if err != nil {
		return err
	}
	if d.Kind == xdiscount.KindInactive {
		return fmt.Errorf("%w: %s", xdiscount.ErrNotInitialized, name)
	}
	if caller != d.Owner {
		return xdiscount.ErrNotOwner
	}
	if len(users) == 0 {
		return xdiscount.ErrEmptyInput
	}

	tx := storage.NewTx(c.db)
	for _, u := range users {
		if u == (common.Address{}) {
			return fmt.Errorf("%w: zero user", xdiscount.ErrInvalidAddress)
		}
		key := balanceKey(name, u, itemID)
		bal, err := tx.GetUint64(key)
		if err != nil {
			return err
		}
		bal, err = xdiscount.AddUint64(bal, 1)
		if err != nil {
			return err
		}
		if err := tx.PutUint64(key, bal); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit balances: %w", err)
	}

	c.log.Info("balances incremented",
		log.String("name", name.String()),
		log.Uint64("itemID", itemID),
		log.Int("users", len(users)),
	)
	c.emitter.Emit(events.UsersBalancesIncremented{
		Name:   name,
		ItemID: itemID,
		Users:  append([]common.Address(nil), users...),
	})
	return nil
}
