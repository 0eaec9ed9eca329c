// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package gateway

import (
	"time"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"

	"github.com/luxfi/xdiscount"
)

// The gateway owns every collection it deploys, so collection admin goes
// through it. Each call here is gated on the gateway owner.

func (g *Gateway) onlyOwner(caller common.Address) error {
	if caller != g.cfg.Owner {
		return xdiscount.ErrNotOwner
	}
	return nil
}

type pausable interface {
	Pause(caller common.Address) error
	Unpause(caller common.Address) error
}

func (g *Gateway) pausableFor(name xdiscount.Name) (pausable, error) {
	inst, ok, err := g.instances.Get(name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, xdiscount.ErrCollectionNotFound
	}
	if inst.Kind == xdiscount.KindTimeBased {
		return g.timeBasedColl(name)
	}
	return g.static(name)
}

// PauseCollection pauses mints and burns on the collection for name.
func (g *Gateway) PauseCollection(caller common.Address, name xdiscount.Name) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.onlyOwner(caller); err != nil {
		return err
	}
	coll, err := g.pausableFor(name)
	if err != nil {
		return err
	}
	return coll.Pause(g.cfg.Address)
}

// UnpauseCollection resumes the collection for name.
func (g *Gateway) UnpauseCollection(caller common.Address, name xdiscount.Name) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.onlyOwner(caller); err != nil {
		return err
	}
	coll, err := g.pausableFor(name)
	if err != nil {
		return err
	}
	return coll.Unpause(g.cfg.Address)
}

// SetItemURI replaces the metadata of one static item.
func (g *Gateway) SetItemURI(caller common.Address, name xdiscount.Name, itemID uint64, uri string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.onlyOwner(caller); err != nil {
		return err
	}
	coll, err := g.static(name)
	if err != nil {
		return err
	}
	return coll.SetURI(g.cfg.Address, itemID, uri)
}

// CreateTimeBasedToken adds a token to the time-based collection for name.
func (g *Gateway) CreateTimeBasedToken(
	caller common.Address,
	name xdiscount.Name,
	uri string,
	startAt time.Time,
	endAt time.Time,
	ratio uint8,
) (uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.onlyOwner(caller); err != nil {
		return 0, err
	}
	coll, err := g.timeBasedColl(name)
	if err != nil {
		return 0, err
	}
	id, err := coll.CreateToken(g.cfg.Address, uri, startAt, endAt, ratio)
	if err != nil {
		return 0, err
	}
	g.log.Info("time-based token created",
		log.String("name", name.String()),
		log.Uint64("tokenID", id),
	)
	return id, nil
}

// ExpireTokens permanently deactivates tokens of the time-based collection
// for name.
func (g *Gateway) ExpireTokens(caller common.Address, name xdiscount.Name, ids []uint64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.onlyOwner(caller); err != nil {
		return err
	}
	coll, err := g.timeBasedColl(name)
	if err != nil {
		return err
	}
	return coll.ExpireTokens(g.cfg.Address, ids)
}
