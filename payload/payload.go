// Copyright (C) 2019-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

// Package payload defines the operations a source chain asks a destination
// gateway to perform, and their wire encoding. Every payload is a version
// byte, an operation tag and the RLP encoding of that operation's argument
// struct.
package payload

import (
	"fmt"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/rlp"

	"github.com/luxfi/xdiscount"
)

// Version is the only payload version this package reads or writes.
const Version uint8 = 1

// Op tags a destination-side operation.
type Op uint8

const (
	OpCreateStaticCollection Op = iota + 1
	OpCreateTimeBasedCollection
	OpMintStaticItem
	OpMintTimeBasedItem
	OpMintBatch
)

func (o Op) String() string {
	switch o {
	case OpCreateStaticCollection:
		return "createStaticCollection"
	case OpCreateTimeBasedCollection:
		return "createTimeBasedCollection"
	case OpMintStaticItem:
		return "mintStaticItem"
	case OpMintTimeBasedItem:
		return "mintTimeBasedItem"
	case OpMintBatch:
		return "mintBatch"
	default:
		return "unknown"
	}
}

// ErrInvalidPayload is returned when a payload is invalid
var ErrInvalidPayload = xdiscount.ErrInvalidPayload

// Call is one operation together with its arguments.
type Call interface {
	Op() Op
	// Verify verifies the arguments
	Verify() error
}

// CreateStaticCollection deploys a StaticDiscount collection with a fixed
// item catalog.
type CreateStaticCollection struct {
	Name    xdiscount.Name    `serialize:"true"`
	Symbol  string            `serialize:"true"`
	ItemIDs []uint64          `serialize:"true"`
	URIs    []string          `serialize:"true"`
	ChainID xdiscount.ChainID `serialize:"true"`
}

func (*CreateStaticCollection) Op() Op { return OpCreateStaticCollection }

// Verify verifies the create payload
func (c *CreateStaticCollection) Verify() error {
	if c.Name.IsZero() {
		return fmt.Errorf("%w: empty name", ErrInvalidPayload)
	}
	if len(c.ItemIDs) == 0 {
		return fmt.Errorf("%w: no items", ErrInvalidPayload)
	}
	if len(c.ItemIDs) != len(c.URIs) {
		return fmt.Errorf("%w: %d item ids, %d uris", xdiscount.ErrLengthMismatch, len(c.ItemIDs), len(c.URIs))
	}
	return nil
}

// CreateTimeBasedCollection deploys an empty TimeBasedDiscount collection.
// ExpiredURI is the shared placeholder shown for inactive items.
type CreateTimeBasedCollection struct {
	Name       xdiscount.Name    `serialize:"true"`
	Symbol     string            `serialize:"true"`
	ExpiredURI string            `serialize:"true"`
	ChainID    xdiscount.ChainID `serialize:"true"`
}

func (*CreateTimeBasedCollection) Op() Op { return OpCreateTimeBasedCollection }

// Verify verifies the create payload
func (c *CreateTimeBasedCollection) Verify() error {
	if c.Name.IsZero() {
		return fmt.Errorf("%w: empty name", ErrInvalidPayload)
	}
	return nil
}

// Mint is the argument shape shared by single-item mints.
type Mint struct {
	Name   xdiscount.Name `serialize:"true"`
	To     common.Address `serialize:"true"`
	ItemID uint64         `serialize:"true"`
	Amount uint64         `serialize:"true"`
}

func (m *Mint) verify() error {
	if m.Name.IsZero() {
		return fmt.Errorf("%w: empty name", ErrInvalidPayload)
	}
	if m.To == (common.Address{}) {
		return fmt.Errorf("%w: zero recipient", ErrInvalidPayload)
	}
	if m.Amount == 0 {
		return fmt.Errorf("%w: zero amount", ErrInvalidPayload)
	}
	return nil
}

// MintStaticItem mints into a StaticDiscount collection.
type MintStaticItem struct{ Mint }

func (*MintStaticItem) Op() Op { return OpMintStaticItem }

func (m *MintStaticItem) Verify() error { return m.verify() }

// MintTimeBasedItem mints into a TimeBasedDiscount collection.
type MintTimeBasedItem struct{ Mint }

func (*MintTimeBasedItem) Op() Op { return OpMintTimeBasedItem }

func (m *MintTimeBasedItem) Verify() error { return m.verify() }

// MintBatch mints several items of a StaticDiscount collection to one
// recipient.
type MintBatch struct {
	Name    xdiscount.Name `serialize:"true"`
	To      common.Address `serialize:"true"`
	ItemIDs []uint64       `serialize:"true"`
	Amounts []uint64       `serialize:"true"`
}

func (*MintBatch) Op() Op { return OpMintBatch }

// Verify verifies the batch payload
func (m *MintBatch) Verify() error {
	if m.Name.IsZero() {
		return fmt.Errorf("%w: empty name", ErrInvalidPayload)
	}
	if m.To == (common.Address{}) {
		return fmt.Errorf("%w: zero recipient", ErrInvalidPayload)
	}
	if len(m.ItemIDs) == 0 {
		return fmt.Errorf("%w: no items", ErrInvalidPayload)
	}
	if len(m.ItemIDs) != len(m.Amounts) {
		return fmt.Errorf("%w: %d item ids, %d amounts", xdiscount.ErrLengthMismatch, len(m.ItemIDs), len(m.Amounts))
	}
	for i, a := range m.Amounts {
		if a == 0 {
			return fmt.Errorf("%w: zero amount at index %d", ErrInvalidPayload, i)
		}
	}
	return nil
}

type wire struct {
	Version uint8
	Op      Op
	Args    []byte
}

// Encode verifies c and returns its payload bytes.
func Encode(c Call) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: nil call", ErrInvalidPayload)
	}
	if err := c.Verify(); err != nil {
		return nil, err
	}
	args, err := rlp.EncodeToBytes(c)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s arguments: %w", c.Op(), err)
	}
	return rlp.EncodeToBytes(&wire{Version: Version, Op: c.Op(), Args: args})
}

// Parse decodes and verifies a payload.
func Parse(b []byte) (Call, error) {
	w, err := parseWire(b)
	if err != nil {
		return nil, err
	}

	var c Call
	switch w.Op {
	case OpCreateStaticCollection:
		c = &CreateStaticCollection{}
	case OpCreateTimeBasedCollection:
		c = &CreateTimeBasedCollection{}
	case OpMintStaticItem:
		c = &MintStaticItem{}
	case OpMintTimeBasedItem:
		c = &MintTimeBasedItem{}
	case OpMintBatch:
		c = &MintBatch{}
	default:
		return nil, fmt.Errorf("%w: tag %d", xdiscount.ErrUnknownOperation, w.Op)
	}
	if err := rlp.DecodeBytes(w.Args, c); err != nil {
		return nil, fmt.Errorf("%w: %s arguments: %v", ErrInvalidPayload, w.Op, err)
	}
	if err := c.Verify(); err != nil {
		return nil, err
	}
	return c, nil
}

// PeekOp returns the operation tag of a payload without decoding its
// arguments.
func PeekOp(b []byte) (Op, error) {
	w, err := parseWire(b)
	if err != nil {
		return 0, err
	}
	return w.Op, nil
}

func parseWire(b []byte) (*wire, error) {
	w := &wire{}
	if err := rlp.DecodeBytes(b, w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if w.Version != Version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidPayload, w.Version)
	}
	return w, nil
}
