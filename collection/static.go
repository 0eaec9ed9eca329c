// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package collection

import (
	"fmt"
	"sort"

	"github.com/luxfi/geth/common"

	"github.com/luxfi/xdiscount"
	"github.com/luxfi/xdiscount/events"
)

// StaticDiscount is a fixed catalog of items, mintable and burnable
// indefinitely while unpaused.
type StaticDiscount struct {
	ledger
	uris map[uint64]string
}

// NewStatic returns an uninitialized collection at address.
func NewStatic(address common.Address, emitter events.Emitter) *StaticDiscount {
	s := &StaticDiscount{uris: make(map[uint64]string)}
	s.init(address, emitter)
	return s
}

// Initialize sets the owner and the item catalog. It may be called once.
func (s *StaticDiscount) Initialize(owner common.Address, name xdiscount.Name, symbol string, itemIDs []uint64, uris []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return xdiscount.ErrAlreadySetUp
	}
	if len(itemIDs) != len(uris) {
		return fmt.Errorf("%w: %d item ids, %d uris", xdiscount.ErrLengthMismatch, len(itemIDs), len(uris))
	}
	if err := s.setUp(owner, name, symbol); err != nil {
		return err
	}
	for i, id := range itemIDs {
		s.uris[id] = uris[i]
	}
	return nil
}

// Mint credits amount of itemID to to. Owner only.
func (s *StaticDiscount) Mint(caller, to common.Address, itemID, amount uint64) error {
	return s.MintBatch(caller, to, []uint64{itemID}, []uint64{amount})
}

// MintBatch credits several items to to in one step. Either every item is
// credited or none is.
func (s *StaticDiscount) MintBatch(caller, to common.Address, itemIDs, amounts []uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.onlyOwner(caller); err != nil {
		return err
	}
	if err := s.whenNotPaused(); err != nil {
		return err
	}
	if len(itemIDs) != len(amounts) {
		return fmt.Errorf("%w: %d item ids, %d amounts", xdiscount.ErrLengthMismatch, len(itemIDs), len(amounts))
	}
	if len(itemIDs) == 0 {
		return xdiscount.ErrEmptyInput
	}
	for _, id := range itemIDs {
		if _, ok := s.uris[id]; !ok {
			return fmt.Errorf("%w: item %d", xdiscount.ErrTokenNotFound, id)
		}
	}
	if err := s.checkCredit(to, itemIDs, amounts); err != nil {
		return err
	}
	s.credit(to, itemIDs, amounts)
	return nil
}

// SetURI replaces the metadata reference of a catalog item. Owner only;
// allowed before or after minting.
func (s *StaticDiscount) SetURI(caller common.Address, itemID uint64, uri string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.onlyOwner(caller); err != nil {
		return err
	}
	if _, ok := s.uris[itemID]; !ok {
		return fmt.Errorf("%w: item %d", xdiscount.ErrTokenNotFound, itemID)
	}
	s.uris[itemID] = uri
	s.emitter.Emit(events.URIChanged{Collection: s.address, ItemID: itemID, URI: uri})
	return nil
}

// URI returns the metadata reference of itemID.
func (s *StaticDiscount) URI(itemID uint64) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	uri, ok := s.uris[itemID]
	if !ok {
		return "", fmt.Errorf("%w: item %d", xdiscount.ErrTokenNotFound, itemID)
	}
	return uri, nil
}

// Items returns the catalog in ascending order.
func (s *StaticDiscount) Items() []uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]uint64, 0, len(s.uris))
	for id := range s.uris {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
