// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package events

import (
	"time"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/ids"

	"github.com/luxfi/xdiscount"
)

const (
	TypeMessageProcessed   = "message.processed"
	TypeCollectionDeployed = "collection.deployed"
	TypeItemsMinted        = "collection.minted"
	TypeItemsBurned        = "collection.burned"
	TypeTokenCreated       = "collection.token_created"
	TypeTokensExpired      = "collection.tokens_expired"
	TypeURIChanged         = "collection.uri_changed"
)

// Delivery outcomes recorded by MessageProcessed.
const (
	StatusApplied   = "applied"
	StatusFailed    = "failed"
	StatusDuplicate = "duplicate"
)

// MessageProcessed is the destination acknowledgement of one delivery.
type MessageProcessed struct {
	MessageID      ids.ID
	SourceSelector xdiscount.Selector
	Op             string
	Status         string
	Code           int32
	Reason         string
}

func (MessageProcessed) EventType() string { return TypeMessageProcessed }

func (e MessageProcessed) Record() Record {
	attrs := map[string]string{
		"messageId":      e.MessageID.String(),
		"sourceSelector": e.SourceSelector.String(),
		"op":             e.Op,
		"status":         e.Status,
	}
	if e.Status == StatusFailed {
		attrs["code"] = u64(uint64(e.Code))
		attrs["reason"] = e.Reason
	}
	return Record{Type: TypeMessageProcessed, Attributes: attrs}
}

type CollectionDeployed struct {
	Name    xdiscount.Name
	Kind    xdiscount.Kind
	ChainID xdiscount.ChainID
	Address common.Address
}

func (CollectionDeployed) EventType() string { return TypeCollectionDeployed }

func (e CollectionDeployed) Record() Record {
	return Record{
		Type: TypeCollectionDeployed,
		Attributes: map[string]string{
			"name":    e.Name.String(),
			"kind":    e.Kind.String(),
			"chainId": e.ChainID.String(),
			"address": e.Address.Hex(),
		},
	}
}

type ItemsMinted struct {
	Collection common.Address
	To         common.Address
	ItemIDs    []uint64
	Amounts    []uint64
}

func (ItemsMinted) EventType() string { return TypeItemsMinted }

func (e ItemsMinted) Record() Record {
	return Record{
		Type: TypeItemsMinted,
		Attributes: map[string]string{
			"collection": e.Collection.Hex(),
			"to":         e.To.Hex(),
			"itemIds":    joinUint64s(e.ItemIDs),
			"amounts":    joinUint64s(e.Amounts),
		},
	}
}

type ItemsBurned struct {
	Collection common.Address
	From       common.Address
	ItemID     uint64
	Amount     uint64
}

func (ItemsBurned) EventType() string { return TypeItemsBurned }

func (e ItemsBurned) Record() Record {
	return Record{
		Type: TypeItemsBurned,
		Attributes: map[string]string{
			"collection": e.Collection.Hex(),
			"from":       e.From.Hex(),
			"itemId":     u64(e.ItemID),
			"amount":     u64(e.Amount),
		},
	}
}

type TokenCreated struct {
	Collection common.Address
	TokenID    uint64
	StartAt    time.Time
	EndAt      time.Time
	Ratio      uint8
}

func (TokenCreated) EventType() string { return TypeTokenCreated }

func (e TokenCreated) Record() Record {
	return Record{
		Type: TypeTokenCreated,
		Attributes: map[string]string{
			"collection": e.Collection.Hex(),
			"tokenId":    u64(e.TokenID),
			"startAt":    e.StartAt.UTC().Format(time.RFC3339),
			"endAt":      e.EndAt.UTC().Format(time.RFC3339),
			"ratio":      u64(uint64(e.Ratio)),
		},
	}
}

type TokensExpired struct {
	Collection common.Address
	TokenIDs   []uint64
}

func (TokensExpired) EventType() string { return TypeTokensExpired }

func (e TokensExpired) Record() Record {
	return Record{
		Type: TypeTokensExpired,
		Attributes: map[string]string{
			"collection": e.Collection.Hex(),
			"tokenIds":   joinUint64s(e.TokenIDs),
		},
	}
}

type URIChanged struct {
	Collection common.Address
	ItemID     uint64
	URI        string
}

func (URIChanged) EventType() string { return TypeURIChanged }

func (e URIChanged) Record() Record {
	return Record{
		Type: TypeURIChanged,
		Attributes: map[string]string{
			"collection": e.Collection.Hex(),
			"itemId":     u64(e.ItemID),
			"uri":        e.URI,
		},
	}
}
