// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package events

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/ids"

	"github.com/luxfi/xdiscount"
)

const (
	TypeDiscountInitialized      = "discount.initialized"
	TypeDiscountCreated          = "discount.created"
	TypeDiscountClaimed          = "discount.claimed"
	TypeUsersBalancesIncremented = "discount.balances_incremented"
	TypeNetworkConfigured        = "network.configured"
	TypeMessageSent              = "message.sent"
	TypeOutboxSwept              = "outbox.swept"
	TypePaused                   = "paused"
	TypeUnpaused                 = "unpaused"
)

type DiscountInitialized struct {
	Name  xdiscount.Name
	Owner common.Address
	Kind  xdiscount.Kind
}

func (DiscountInitialized) EventType() string { return TypeDiscountInitialized }

func (e DiscountInitialized) Record() Record {
	return Record{
		Type: TypeDiscountInitialized,
		Attributes: map[string]string{
			"name":  e.Name.String(),
			"owner": e.Owner.Hex(),
			"kind":  e.Kind.String(),
		},
	}
}

// DiscountCreated acknowledges a dispatched creation. It does not imply the
// destination applied it.
type DiscountCreated struct {
	Name      xdiscount.Name
	Kind      xdiscount.Kind
	ChainID   xdiscount.ChainID
	Selector  xdiscount.Selector
	MessageID ids.ID
	Fee       *uint256.Int
}

func (DiscountCreated) EventType() string { return TypeDiscountCreated }

func (e DiscountCreated) Record() Record {
	return Record{
		Type: TypeDiscountCreated,
		Attributes: map[string]string{
			"name":      e.Name.String(),
			"kind":      e.Kind.String(),
			"chainId":   e.ChainID.String(),
			"selector":  e.Selector.String(),
			"messageId": e.MessageID.String(),
			"fee":       formatAmount(e.Fee),
		},
	}
}

type DiscountClaimed struct {
	Name      xdiscount.Name
	User      common.Address
	ItemIDs   []uint64
	ChainID   xdiscount.ChainID
	MessageID ids.ID
}

func (DiscountClaimed) EventType() string { return TypeDiscountClaimed }

func (e DiscountClaimed) Record() Record {
	return Record{
		Type: TypeDiscountClaimed,
		Attributes: map[string]string{
			"name":      e.Name.String(),
			"user":      e.User.Hex(),
			"itemIds":   joinUint64s(e.ItemIDs),
			"chainId":   e.ChainID.String(),
			"messageId": e.MessageID.String(),
		},
	}
}

// UsersBalancesIncremented carries the full input list, duplicates included.
type UsersBalancesIncremented struct {
	Name   xdiscount.Name
	ItemID uint64
	Users  []common.Address
}

func (UsersBalancesIncremented) EventType() string { return TypeUsersBalancesIncremented }

func (e UsersBalancesIncremented) Record() Record {
	return Record{
		Type: TypeUsersBalancesIncremented,
		Attributes: map[string]string{
			"name":   e.Name.String(),
			"itemId": u64(e.ItemID),
			"users":  joinAddresses(e.Users),
		},
	}
}

type NetworkConfigured struct {
	ChainID     xdiscount.ChainID
	Selector    xdiscount.Selector
	Destination common.Address
}

func (NetworkConfigured) EventType() string { return TypeNetworkConfigured }

func (e NetworkConfigured) Record() Record {
	return Record{
		Type: TypeNetworkConfigured,
		Attributes: map[string]string{
			"chainId":     e.ChainID.String(),
			"selector":    e.Selector.String(),
			"destination": e.Destination.Hex(),
		},
	}
}

type MessageSent struct {
	MessageID ids.ID
	Selector  xdiscount.Selector
	Receiver  common.Address
	Op        string
	Fee       *uint256.Int
}

func (MessageSent) EventType() string { return TypeMessageSent }

func (e MessageSent) Record() Record {
	return Record{
		Type: TypeMessageSent,
		Attributes: map[string]string{
			"messageId": e.MessageID.String(),
			"selector":  e.Selector.String(),
			"receiver":  e.Receiver.Hex(),
			"op":        e.Op,
			"fee":       formatAmount(e.Fee),
		},
	}
}

type OutboxSwept struct {
	Count int
}

func (OutboxSwept) EventType() string { return TypeOutboxSwept }

func (e OutboxSwept) Record() Record {
	return Record{
		Type:       TypeOutboxSwept,
		Attributes: map[string]string{"count": u64(uint64(e.Count))},
	}
}

// Paused is emitted by the coordinator and by collections. Target names the
// paused component.
type Paused struct {
	Target string
	By     common.Address
}

func (Paused) EventType() string { return TypePaused }

func (e Paused) Record() Record {
	return Record{
		Type:       TypePaused,
		Attributes: map[string]string{"target": e.Target, "by": e.By.Hex()},
	}
}

type Unpaused struct {
	Target string
	By     common.Address
}

func (Unpaused) EventType() string { return TypeUnpaused }

func (e Unpaused) Record() Record {
	return Record{
		Type:       TypeUnpaused,
		Attributes: map[string]string{"target": e.Target, "by": e.By.Hex()},
	}
}
