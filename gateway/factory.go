// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package gateway

import (
	"fmt"

	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"

	"github.com/luxfi/xdiscount"
	"github.com/luxfi/xdiscount/collection"
	"github.com/luxfi/xdiscount/events"
)

// Implementation code hashes, one per collection variant.
var (
	staticCodeHash    = crypto.Keccak256([]byte("xdiscount.StaticDiscount.v1"))
	timeBasedCodeHash = crypto.Keccak256([]byte("xdiscount.TimeBasedDiscount.v1"))
)

// Factory derives collection addresses the way CREATE2 does: the deployer,
// a salt and the code hash fix the address before anything is deployed.
type Factory struct {
	deployer common.Address
	emitter  events.Emitter
	clock    xdiscount.Clock
}

func NewFactory(deployer common.Address, emitter events.Emitter, clock xdiscount.Clock) *Factory {
	return &Factory{deployer: deployer, emitter: emitter, clock: clock}
}

// Address returns the address the collection for name and kind lands at.
func (f *Factory) Address(name xdiscount.Name, kind xdiscount.Kind) (common.Address, error) {
	var codeHash []byte
	switch kind {
	case xdiscount.KindStaticBased:
		codeHash = staticCodeHash
	case xdiscount.KindTimeBased:
		codeHash = timeBasedCodeHash
	default:
		return common.Address{}, fmt.Errorf("%w: %s", xdiscount.ErrInvalidKind, kind)
	}
	h := crypto.Keccak256([]byte{0xff}, f.deployer.Bytes(), name[:], codeHash)
	return common.BytesToAddress(h[12:]), nil
}

// NewStatic returns an uninitialized StaticDiscount at its derived address.
func (f *Factory) NewStatic(name xdiscount.Name) (*collection.StaticDiscount, error) {
	addr, err := f.Address(name, xdiscount.KindStaticBased)
	if err != nil {
		return nil, err
	}
	return collection.NewStatic(addr, f.emitter), nil
}

// NewTimeBased returns an uninitialized TimeBasedDiscount at its derived
// address.
func (f *Factory) NewTimeBased(name xdiscount.Name) (*collection.TimeBasedDiscount, error) {
	addr, err := f.Address(name, xdiscount.KindTimeBased)
	if err != nil {
		return nil, err
	}
	return collection.NewTimeBased(addr, f.emitter, f.clock), nil
}
