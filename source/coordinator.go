// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Package source is the chain-of-origin side of the protocol. A Coordinator
// owns the discount registry, per-chain activation flags and the claim
// ledger, and turns creations and claims into router messages.
//
// Local state is committed when the router accepts a message, not when the
// destination applies it. Nothing flows back from the destination: if a
// mint fails there after a claim was dispatched, the decremented balance
// stays decremented. The outbox exists so operators can see which
// dispatches were never confirmed out of band.
package source

import (
	"errors"
	"fmt"
	"sync"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"

	"github.com/luxfi/xdiscount"
	"github.com/luxfi/xdiscount/events"
	"github.com/luxfi/xdiscount/metrics"
	"github.com/luxfi/xdiscount/registry"
	"github.com/luxfi/xdiscount/router"
	"github.com/luxfi/xdiscount/storage"
)

// Default destination execution budgets.
const (
	DefaultCreateGasLimit uint64 = 3_000_000
	DefaultMintGasLimit   uint64 = 300_000
)

// GasLimits is the execution budget attached to each message kind.
type GasLimits struct {
	Create uint64
	Mint   uint64
}

// Config configures a Coordinator
type Config struct {
	// ChainID is the chain the coordinator runs on.
	ChainID xdiscount.ChainID
	// Address is the coordinator's address, the sender of its messages.
	Address common.Address
	// Admin may pause the coordinator and edit the network registry.
	Admin common.Address

	Router    router.MessageRouter
	DB        storage.Database
	GasLimits GasLimits

	Log     log.Logger
	Emitter events.Emitter
	Metrics *metrics.Metrics
	Clock   xdiscount.Clock
}

// Discount is the registry record of one discount name.
type Discount struct {
	Owner common.Address `serialize:"true"`
	Kind  xdiscount.Kind `serialize:"true"`
}

// Coordinator is the SourceCoordinator. Entry points are serialized, and
// each one either commits all of its writes or none.
type Coordinator struct {
	cfg      Config
	log      log.Logger
	emitter  events.Emitter
	metrics  *metrics.Metrics
	clock    xdiscount.Clock
	router   router.MessageRouter
	db       storage.Database
	networks *registry.NetworkRegistry

	mu sync.Mutex
}

// New creates a coordinator
func New(cfg Config) (*Coordinator, error) {
	if cfg.Address == (common.Address{}) {
		return nil, fmt.Errorf("%w: zero coordinator address", xdiscount.ErrInvalidAddress)
	}
	if cfg.Router == nil {
		return nil, errors.New("coordinator requires a router")
	}
	if cfg.DB == nil {
		return nil, errors.New("coordinator requires a database")
	}
	if cfg.Log == nil {
		return nil, errors.New("coordinator requires a logger")
	}
	if cfg.Emitter == nil {
		cfg.Emitter = events.NoopEmitter{}
	}
	if cfg.Clock == nil {
		cfg.Clock = xdiscount.SystemClock{}
	}
	if cfg.GasLimits.Create == 0 {
		cfg.GasLimits.Create = DefaultCreateGasLimit
	}
	if cfg.GasLimits.Mint == 0 {
		cfg.GasLimits.Mint = DefaultMintGasLimit
	}
	return &Coordinator{
		cfg:      cfg,
		log:      cfg.Log,
		emitter:  cfg.Emitter,
		metrics:  cfg.Metrics,
		clock:    cfg.Clock,
		router:   cfg.Router,
		db:       cfg.DB,
		networks: registry.New(cfg.Log, cfg.DB, cfg.Admin),
	}, nil
}

// Address returns the coordinator address.
func (c *Coordinator) Address() common.Address {
	return c.cfg.Address
}

// Networks returns the network registry the coordinator resolves chains in.
func (c *Coordinator) Networks() *registry.NetworkRegistry {
	return c.networks
}

// SetNetworkConfig adds or replaces network entries. Admin only.
func (c *Coordinator) SetNetworkConfig(
	caller common.Address,
	chainIDs []xdiscount.ChainID,
	selectors []xdiscount.Selector,
	destinations []common.Address,
) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.networks.SetNetworkConfig(caller, chainIDs, selectors, destinations); err != nil {
		return err
	}
	for i, chainID := range chainIDs {
		c.emitter.Emit(events.NetworkConfigured{
			ChainID:     chainID,
			Selector:    selectors[i],
			Destination: destinations[i],
		})
	}
	return nil
}

// Pause stops every mutating entry point. Admin only.
func (c *Coordinator) Pause(caller common.Address) error {
	return c.setPaused(caller, true)
}

// Unpause resumes the coordinator. Admin only.
func (c *Coordinator) Unpause(caller common.Address) error {
	return c.setPaused(caller, false)
}

func (c *Coordinator) setPaused(caller common.Address, paused bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if caller != c.cfg.Admin {
		return xdiscount.ErrNotOwner
	}
	cur, err := c.paused(c.db)
	if err != nil {
		return err
	}
	if cur == paused {
		return nil
	}
	v := []byte{0}
	if paused {
		v[0] = 1
	}
	if err := c.db.Put(pausedKey, v); err != nil {
		return fmt.Errorf("failed to write pause flag: %w", err)
	}
	if paused {
		c.log.Info("coordinator paused", log.String("by", caller.Hex()))
		c.emitter.Emit(events.Paused{Target: "source", By: caller})
	} else {
		c.log.Info("coordinator unpaused", log.String("by", caller.Hex()))
		c.emitter.Emit(events.Unpaused{Target: "source", By: caller})
	}
	return nil
}

// Paused reports whether the coordinator is paused.
func (c *Coordinator) Paused() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused(c.db)
}

func (c *Coordinator) paused(r storage.Reader) (bool, error) {
	v, err := r.Get(pausedKey)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return len(v) == 1 && v[0] == 1, nil
}

func (c *Coordinator) whenNotPaused() error {
	p, err := c.paused(c.db)
	if err != nil {
		return err
	}
	if p {
		return xdiscount.ErrPaused
	}
	return nil
}

// Discount returns the record of name. An unknown name reads as an
// Inactive discount with no owner.
func (c *Coordinator) Discount(name xdiscount.Name) (Discount, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return getDiscount(c.db, name)
}

// IsChainActive reports whether a creation for name has been dispatched to
// chainID.
func (c *Coordinator) IsChainActive(name xdiscount.Name, chainID xdiscount.ChainID) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.db.Has(activationKey(name, chainID))
}

// Balance returns the claimable count of (name, user, itemID).
func (c *Coordinator) Balance(name xdiscount.Name, user common.Address, itemID uint64) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return storage.GetUint64(c.db, balanceKey(name, user, itemID))
}

func getDiscount(r storage.Reader, name xdiscount.Name) (Discount, error) {
	b, err := r.Get(discountKey(name))
	if errors.Is(err, storage.ErrNotFound) {
		return Discount{Kind: xdiscount.KindInactive}, nil
	}
	if err != nil {
		return Discount{}, err
	}
	var d Discount
	if _, err := xdiscount.Codec.Unmarshal(b, &d); err != nil {
		return Discount{}, fmt.Errorf("failed to unmarshal discount: %w", err)
	}
	return d, nil
}

func putDiscount(tx *storage.Tx, name xdiscount.Name, d Discount) error {
	b, err := xdiscount.Codec.Marshal(xdiscount.CodecVersion, &d)
	if err != nil {
		return fmt.Errorf("failed to marshal discount: %w", err)
	}
	return tx.Put(discountKey(name), b)
}

func orZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v
}
