// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package devnet

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/xdiscount"
	"github.com/luxfi/xdiscount/router"
)

// Scenario is a static discount walkthrough: create the collection on one
// chain, grant each user one claim of the first item, and redeem them all.
type Scenario struct {
	Name    xdiscount.Name
	Symbol  string
	ItemIDs []uint64
	URIs    []string
	ChainID xdiscount.ChainID
	Owner   common.Address
	Users   []common.Address
}

// DefaultScenario targets the first configured destination.
func (n *Network) DefaultScenario() Scenario {
	return Scenario{
		Name:    xdiscount.MustName("ACME"),
		Symbol:  "ACM",
		ItemIDs: []uint64{1, 2},
		URIs:    []string{"ipfs://acme/1", "ipfs://acme/2"},
		ChainID: n.ChainIDs()[0],
		Owner:   common.HexToAddress("0x000000000000000000000000000000000000ac3e"),
		Users: []common.Address{
			common.HexToAddress("0x00000000000000000000000000000000000a11ce"),
			common.HexToAddress("0x0000000000000000000000000000000000000b0b"),
		},
	}
}

// Report is what a scenario run did.
type Report struct {
	CreateID   ids.ID
	CreateFee  *uint256.Int
	ClaimIDs   []ids.ID
	Deliveries []router.Delivery
	// Minted is each user's destination balance of the first item.
	Minted map[common.Address]uint64
}

// Run executes s and delivers every message it produced.
func (n *Network) Run(ctx context.Context, s Scenario) (*Report, error) {
	gw, ok := n.Gateway(s.ChainID)
	if !ok {
		return nil, fmt.Errorf("%w: chain %s", xdiscount.ErrUnconfiguredChain, s.ChainID)
	}
	if len(s.ItemIDs) == 0 {
		return nil, xdiscount.ErrEmptyInput
	}
	src := n.Source
	report := &Report{Minted: make(map[common.Address]uint64, len(s.Users))}

	if err := src.InitializeDiscount(s.Owner, s.Name, xdiscount.KindStaticBased); err != nil {
		return nil, fmt.Errorf("failed to initialize %s: %w", s.Name, err)
	}
	fee, err := src.GetCreateStaticFee(ctx, s.Name, s.Symbol, s.ItemIDs, s.URIs, s.ChainID)
	if err != nil {
		return nil, err
	}
	report.CreateFee = fee
	report.CreateID, err = src.CreateStaticDiscount(ctx, s.Owner, fee, s.Name, s.Symbol, s.ItemIDs, s.URIs, s.ChainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", s.Name, err)
	}
	if err := n.deliver(ctx, report); err != nil {
		return nil, err
	}

	item := s.ItemIDs[0]
	if len(s.Users) > 0 {
		if err := src.BatchIncrementUsersBalances(s.Owner, s.Name, item, s.Users); err != nil {
			return nil, err
		}
	}
	for _, user := range s.Users {
		fee, err := src.GetClaimFee(ctx, s.Name, user, item, s.ChainID)
		if err != nil {
			return nil, err
		}
		id, err := src.ClaimStaticDiscount(ctx, user, fee, s.Name, item, s.ChainID)
		if err != nil {
			return nil, fmt.Errorf("failed to claim for %s: %w", user.Hex(), err)
		}
		report.ClaimIDs = append(report.ClaimIDs, id)
	}
	if err := n.deliver(ctx, report); err != nil {
		return nil, err
	}

	coll, err := gw.Static(s.Name)
	if err != nil {
		return nil, err
	}
	for _, user := range s.Users {
		report.Minted[user] = coll.BalanceOf(user, item)
	}
	n.log.Info("scenario complete",
		log.String("name", s.Name.String()),
		log.Stringer("chainID", s.ChainID),
		log.Int("claims", len(report.ClaimIDs)),
		log.Int("deliveries", len(report.Deliveries)),
	)
	return report, nil
}

func (n *Network) deliver(ctx context.Context, report *Report) error {
	ds, err := n.Router.DeliverAll(ctx)
	report.Deliveries = append(report.Deliveries, ds...)
	if err != nil {
		return err
	}
	for _, d := range ds {
		if d.Err != nil {
			return fmt.Errorf("delivery of %s failed: %w", d.MessageID, d.Err)
		}
	}
	return nil
}
