// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Package gateway is the destination side of the protocol. A Gateway
// accepts envelopes from one trusted router, decodes the payload and
// deploys or mints into the discount collections it owns.
//
// Delivery is at-least-once and unordered. An applied message is never
// applied twice. A failed message is not consumed, so a later redelivery may
// succeed, for example a mint that arrived before its create.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/luxfi/math/set"

	"github.com/luxfi/xdiscount"
	"github.com/luxfi/xdiscount/collection"
	"github.com/luxfi/xdiscount/events"
	"github.com/luxfi/xdiscount/metrics"
	"github.com/luxfi/xdiscount/payload"
	"github.com/luxfi/xdiscount/router"
)

var _ router.Receiver = (*Gateway)(nil)

// ErrStaleInstances is returned by New when the instance registry already
// holds records. Collections live in memory, so such records would point at
// nothing.
var ErrStaleInstances = errors.New("instance registry outlives its collections")

const unknownOp = "unknown"

// Config configures a Gateway
type Config struct {
	// ChainID is the logical chain this gateway serves.
	ChainID xdiscount.ChainID
	// Address is the gateway's own address. It owns every collection.
	Address common.Address
	// Owner may call the admin passthroughs.
	Owner common.Address
	// Router is the only envelope origin accepted.
	Router common.Address

	Log       log.Logger
	Emitter   events.Emitter
	Metrics   *metrics.Metrics
	Clock     xdiscount.Clock
	// Instances records deployed collections by name. It must start empty
	// and must not outlive the Gateway, because the collections themselves
	// are held in memory.
	Instances InstanceRegistry
}

// Status is the outcome of the latest delivery of a message.
type Status uint8

const (
	StatusApplied Status = iota + 1
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusApplied:
		return events.StatusApplied
	case StatusFailed:
		return events.StatusFailed
	default:
		return "unknown"
	}
}

// Receipt records how a message was handled.
type Receipt struct {
	MessageID      ids.ID
	SourceSelector xdiscount.Selector
	Op             payload.Op
	Status         Status
	Code           int32
	Reason         string
	Attempts       int
	At             time.Time
}

// Gateway is the DestinationGateway
type Gateway struct {
	cfg     Config
	log     log.Logger
	emitter events.Emitter
	clock   xdiscount.Clock
	factory *Factory

	mu        sync.Mutex
	instances InstanceRegistry
	statics   map[common.Address]*collection.StaticDiscount
	timeBased map[common.Address]*collection.TimeBasedDiscount
	applied   set.Set[ids.ID]
	receipts  map[ids.ID]*Receipt
}

// New creates a gateway
func New(cfg Config) (*Gateway, error) {
	if cfg.Address == (common.Address{}) {
		return nil, fmt.Errorf("%w: zero gateway address", xdiscount.ErrInvalidAddress)
	}
	if cfg.Router == (common.Address{}) {
		return nil, fmt.Errorf("%w: zero router address", xdiscount.ErrInvalidAddress)
	}
	if cfg.Log == nil {
		return nil, errors.New("gateway requires a logger")
	}
	if cfg.Emitter == nil {
		cfg.Emitter = events.NoopEmitter{}
	}
	if cfg.Clock == nil {
		cfg.Clock = xdiscount.SystemClock{}
	}
	if cfg.Instances == nil {
		cfg.Instances = NewMemoryInstances()
	}
	n, err := cfg.Instances.Len()
	if err != nil {
		return nil, fmt.Errorf("failed to read instance registry: %w", err)
	}
	if n > 0 {
		return nil, fmt.Errorf("%w: %d records", ErrStaleInstances, n)
	}
	return &Gateway{
		cfg:       cfg,
		log:       cfg.Log,
		emitter:   cfg.Emitter,
		clock:     cfg.Clock,
		factory:   NewFactory(cfg.Address, cfg.Emitter, cfg.Clock),
		instances: cfg.Instances,
		statics:   make(map[common.Address]*collection.StaticDiscount),
		timeBased: make(map[common.Address]*collection.TimeBasedDiscount),
		applied:   set.NewSet[ids.ID](0),
		receipts:  make(map[ids.ID]*Receipt),
	}, nil
}

// Address returns the gateway address.
func (g *Gateway) Address() common.Address {
	return g.cfg.Address
}

// ChainID returns the logical chain the gateway serves.
func (g *Gateway) ChainID() xdiscount.ChainID {
	return g.cfg.ChainID
}

// OnMessage applies one delivered envelope. A returned error means nothing
// was changed; the outcome is also recorded as a receipt and a
// MessageProcessed event.
func (g *Gateway) OnMessage(ctx context.Context, env *xdiscount.Envelope) error {
	if env == nil {
		return fmt.Errorf("%w: nil envelope", xdiscount.ErrInvalidMessage)
	}
	if env.Router != g.cfg.Router {
		err := fmt.Errorf("%w: %s", xdiscount.ErrUntrustedRouter, env.Router.Hex())
		// Forged envelopes leave no receipt and no replay entry.
		g.log.Warn("rejected envelope from untrusted router",
			log.Stringer("messageID", env.MessageID),
			log.String("router", env.Router.Hex()),
		)
		g.cfg.Metrics.IncReceived(unknownOp, events.StatusFailed)
		g.emitter.Emit(events.MessageProcessed{
			MessageID:      env.MessageID,
			SourceSelector: env.SourceSelector,
			Op:             unknownOp,
			Status:         events.StatusFailed,
			Code:           xdiscount.CodeOf(err),
			Reason:         xdiscount.ReasonOf(err),
		})
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	op, _ := payload.PeekOp(env.Data)
	if g.applied.Contains(env.MessageID) {
		g.log.Debug("skipping already applied message",
			log.Stringer("messageID", env.MessageID),
			log.Stringer("op", op),
		)
		g.receipts[env.MessageID].Attempts++
		g.cfg.Metrics.IncReceived(op.String(), events.StatusDuplicate)
		g.emitter.Emit(events.MessageProcessed{
			MessageID:      env.MessageID,
			SourceSelector: env.SourceSelector,
			Op:             op.String(),
			Status:         events.StatusDuplicate,
		})
		return nil
	}

	err := g.apply(env)
	g.record(env, op, err)
	return err
}

func (g *Gateway) apply(env *xdiscount.Envelope) error {
	call, err := payload.Parse(env.Data)
	if err != nil {
		return err
	}

	switch c := call.(type) {
	case *payload.CreateStaticCollection:
		return g.createStatic(c)
	case *payload.CreateTimeBasedCollection:
		return g.createTimeBased(c)
	case *payload.MintStaticItem:
		coll, err := g.static(c.Name)
		if err != nil {
			return err
		}
		return coll.Mint(g.cfg.Address, c.To, c.ItemID, c.Amount)
	case *payload.MintTimeBasedItem:
		coll, err := g.timeBasedColl(c.Name)
		if err != nil {
			return err
		}
		return coll.Mint(g.cfg.Address, c.To, c.ItemID, c.Amount)
	case *payload.MintBatch:
		coll, err := g.static(c.Name)
		if err != nil {
			return err
		}
		return coll.MintBatch(g.cfg.Address, c.To, c.ItemIDs, c.Amounts)
	default:
		return fmt.Errorf("%w: %s", xdiscount.ErrUnknownOperation, call.Op())
	}
}

func (g *Gateway) record(env *xdiscount.Envelope, op payload.Op, err error) {
	r, ok := g.receipts[env.MessageID]
	if !ok {
		r = &Receipt{MessageID: env.MessageID, SourceSelector: env.SourceSelector}
		g.receipts[env.MessageID] = r
	}
	r.Op = op
	r.Attempts++
	r.At = g.clock.Now()

	ev := events.MessageProcessed{
		MessageID:      env.MessageID,
		SourceSelector: env.SourceSelector,
		Op:             op.String(),
	}
	if err == nil {
		g.applied.Add(env.MessageID)
		r.Status, r.Code, r.Reason = StatusApplied, 0, ""
		ev.Status = events.StatusApplied
		g.log.Info("message applied",
			log.Stringer("messageID", env.MessageID),
			log.Stringer("op", op),
			log.Stringer("sourceSelector", env.SourceSelector),
		)
	} else {
		r.Status, r.Code, r.Reason = StatusFailed, xdiscount.CodeOf(err), xdiscount.ReasonOf(err)
		ev.Status, ev.Code, ev.Reason = events.StatusFailed, r.Code, r.Reason
		g.log.Warn("message rejected",
			log.Stringer("messageID", env.MessageID),
			log.Stringer("op", op),
			log.Err(err),
		)
	}
	g.cfg.Metrics.IncReceived(op.String(), ev.Status)
	g.emitter.Emit(ev)
}

func (g *Gateway) createStatic(c *payload.CreateStaticCollection) error {
	if err := g.checkCreate(c.Name, c.ChainID); err != nil {
		return err
	}
	coll, err := g.factory.NewStatic(c.Name)
	if err != nil {
		return err
	}
	if err := coll.Initialize(g.cfg.Address, c.Name, c.Symbol, c.ItemIDs, c.URIs); err != nil {
		return err
	}
	if err := g.instances.Put(c.Name, Instance{Kind: xdiscount.KindStaticBased, Address: coll.Address()}); err != nil {
		return err
	}
	g.statics[coll.Address()] = coll
	g.deployed(c.Name, xdiscount.KindStaticBased, coll.Address())
	return nil
}

func (g *Gateway) createTimeBased(c *payload.CreateTimeBasedCollection) error {
	if err := g.checkCreate(c.Name, c.ChainID); err != nil {
		return err
	}
	coll, err := g.factory.NewTimeBased(c.Name)
	if err != nil {
		return err
	}
	if err := coll.Initialize(g.cfg.Address, c.Name, c.Symbol, c.ExpiredURI); err != nil {
		return err
	}
	if err := g.instances.Put(c.Name, Instance{Kind: xdiscount.KindTimeBased, Address: coll.Address()}); err != nil {
		return err
	}
	g.timeBased[coll.Address()] = coll
	g.deployed(c.Name, xdiscount.KindTimeBased, coll.Address())
	return nil
}

func (g *Gateway) checkCreate(name xdiscount.Name, chainID xdiscount.ChainID) error {
	if chainID != g.cfg.ChainID {
		return fmt.Errorf("%w: addressed to %s, this is %s", xdiscount.ErrWrongChain, chainID, g.cfg.ChainID)
	}
	exists, err := g.instances.Contains(name)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", xdiscount.ErrCollectionExists, name)
	}
	return nil
}

func (g *Gateway) deployed(name xdiscount.Name, kind xdiscount.Kind, addr common.Address) {
	g.log.Info("collection deployed",
		log.String("name", name.String()),
		log.Stringer("kind", kind),
		log.String("address", addr.Hex()),
	)
	g.emitter.Emit(events.CollectionDeployed{
		Name:    name,
		Kind:    kind,
		ChainID: g.cfg.ChainID,
		Address: addr,
	})
}

// instance must be called with mu held.
func (g *Gateway) instance(name xdiscount.Name, kind xdiscount.Kind) (Instance, error) {
	inst, ok, err := g.instances.Get(name)
	if err != nil {
		return Instance{}, err
	}
	if !ok {
		return Instance{}, fmt.Errorf("%w: %s", xdiscount.ErrCollectionNotFound, name)
	}
	if inst.Kind != kind {
		return Instance{}, fmt.Errorf("%w: %s is %s", xdiscount.ErrWrongKind, name, inst.Kind)
	}
	return inst, nil
}

func (g *Gateway) static(name xdiscount.Name) (*collection.StaticDiscount, error) {
	inst, err := g.instance(name, xdiscount.KindStaticBased)
	if err != nil {
		return nil, err
	}
	coll, ok := g.statics[inst.Address]
	if !ok {
		return nil, fmt.Errorf("%w: %s at %s", xdiscount.ErrCollectionNotFound, name, inst.Address.Hex())
	}
	return coll, nil
}

func (g *Gateway) timeBasedColl(name xdiscount.Name) (*collection.TimeBasedDiscount, error) {
	inst, err := g.instance(name, xdiscount.KindTimeBased)
	if err != nil {
		return nil, err
	}
	coll, ok := g.timeBased[inst.Address]
	if !ok {
		return nil, fmt.Errorf("%w: %s at %s", xdiscount.ErrCollectionNotFound, name, inst.Address.Hex())
	}
	return coll, nil
}

// Collection returns the registry record for name.
func (g *Gateway) Collection(name xdiscount.Name) (Instance, bool, error) {
	return g.instances.Get(name)
}

// Static returns the StaticDiscount deployed for name.
func (g *Gateway) Static(name xdiscount.Name) (*collection.StaticDiscount, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.static(name)
}

// TimeBased returns the TimeBasedDiscount deployed for name.
func (g *Gateway) TimeBased(name xdiscount.Name) (*collection.TimeBasedDiscount, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.timeBasedColl(name)
}

// Receipt returns the latest outcome of a message.
func (g *Gateway) Receipt(id ids.ID) (Receipt, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, ok := g.receipts[id]
	if !ok {
		return Receipt{}, false
	}
	return *r, true
}

// Applied reports whether a message has been applied.
func (g *Gateway) Applied(id ids.ID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.applied.Contains(id)
}
