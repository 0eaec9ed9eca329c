// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package router

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"golang.org/x/sync/errgroup"

	"github.com/luxfi/xdiscount"
	"github.com/luxfi/xdiscount/metrics"
)

var (
	ErrMessageNotFound = errors.New("message not found")
	ErrNotDelivered    = errors.New("message was never delivered")
)

// FeeConfig is a linear fee model:
// Base + PerByte*len(Data) + PerGas*GasLimit.
type FeeConfig struct {
	Base    *uint256.Int
	PerByte *uint256.Int
	PerGas  *uint256.Int
}

// Fee prices msg under this config.
func (f FeeConfig) Fee(msg *xdiscount.Message) *uint256.Int {
	fee := new(uint256.Int)
	if f.Base != nil {
		fee.Add(fee, f.Base)
	}
	if f.PerByte != nil {
		fee.Add(fee, new(uint256.Int).Mul(f.PerByte, uint256.NewInt(uint64(len(msg.Data)))))
	}
	if f.PerGas != nil {
		fee.Add(fee, new(uint256.Int).Mul(f.PerGas, uint256.NewInt(msg.GasLimit)))
	}
	return fee
}

// Delivery is the outcome of handing one envelope to its receiver.
type Delivery struct {
	MessageID ids.ID
	Dest      xdiscount.Selector
	// Err is the receiver's error. The router considers the message
	// delivered either way.
	Err error
}

type pending struct {
	seq      uint64
	dest     xdiscount.Selector
	receiver common.Address
	env      *xdiscount.Envelope
}

type endpointKey struct {
	selector xdiscount.Selector
	address  common.Address
}

// LocalRouter is an in-process relay network. Send only enqueues; nothing
// reaches a receiver until one of the Deliver methods is called, which lets
// callers reorder, drop and repeat deliveries.
type LocalRouter struct {
	log     log.Logger
	metrics *metrics.Metrics
	address common.Address

	mu        sync.Mutex
	fees      FeeConfig
	nonce     uint64
	collected *uint256.Int
	receivers map[endpointKey]Receiver
	chains    map[xdiscount.Selector]struct{}
	queue     []ids.ID
	pending   map[ids.ID]*pending
	delivered map[ids.ID]*pending
	// failed holds delivered messages whose last delivery was rejected.
	failed    map[ids.ID]struct{}
}

// NewLocalRouter creates a router whose envelopes are stamped with address.
func NewLocalRouter(log log.Logger, m *metrics.Metrics, address common.Address, fees FeeConfig) *LocalRouter {
	return &LocalRouter{
		log:       log,
		metrics:   m,
		address:   address,
		fees:      fees,
		collected: new(uint256.Int),
		receivers: make(map[endpointKey]Receiver),
		chains:    make(map[xdiscount.Selector]struct{}),
		pending:   make(map[ids.ID]*pending),
		delivered: make(map[ids.ID]*pending),
		failed:    make(map[ids.ID]struct{}),
	}
}

// Address is the router address receivers see in delivered envelopes.
func (r *LocalRouter) Address() common.Address {
	return r.address
}

// SetFeeConfig replaces the fee model. Quotes taken before the change may
// no longer cover the fee at send time.
func (r *LocalRouter) SetFeeConfig(fees FeeConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fees = fees
}

// Register makes rcv the endpoint for address on the chain with selector.
func (r *LocalRouter) Register(selector xdiscount.Selector, address common.Address, rcv Receiver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chains[selector] = struct{}{}
	r.receivers[endpointKey{selector: selector, address: address}] = rcv
}

// AddChain marks selector as a supported destination without registering an
// endpoint on it.
func (r *LocalRouter) AddChain(selector xdiscount.Selector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chains[selector] = struct{}{}
}

// Endpoint returns the MessageRouter a sender on the chain with selector
// uses. The sender address is stamped into every envelope it sends.
func (r *LocalRouter) Endpoint(selector xdiscount.Selector, sender common.Address) *Endpoint {
	return &Endpoint{router: r, source: selector, sender: sender}
}

// Collected returns the total native value taken by Send.
func (r *LocalRouter) Collected() *uint256.Int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return new(uint256.Int).Set(r.collected)
}

// Pending returns undelivered message IDs in send order.
func (r *LocalRouter) Pending() []ids.ID {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ids.ID, len(r.queue))
	copy(out, r.queue)
	return out
}

// Failed returns delivered messages whose last delivery the receiver
// rejected, in send order.
func (r *LocalRouter) Failed() []ids.ID {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ids.ID, 0, len(r.failed))
	for id := range r.failed {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		return r.delivered[out[i]].seq < r.delivered[out[j]].seq
	})
	return out
}

// Envelope returns the envelope of a pending or delivered message.
func (r *LocalRouter) Envelope(id ids.ID) (*xdiscount.Envelope, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.pending[id]; ok {
		return p.env, nil
	}
	if p, ok := r.delivered[id]; ok {
		return p.env, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrMessageNotFound, id)
}

func (r *LocalRouter) getFee(dest xdiscount.Selector, msg *xdiscount.Message) (*uint256.Int, error) {
	if _, ok := r.chains[dest]; !ok {
		return nil, fmt.Errorf("%w: selector %s", xdiscount.ErrUnknownEndpoint, dest)
	}
	if err := msg.Verify(); err != nil {
		return nil, err
	}
	return r.fees.Fee(msg), nil
}

func (r *LocalRouter) send(source xdiscount.Selector, sender common.Address, dest xdiscount.Selector, msg *xdiscount.Message, value *uint256.Int) (ids.ID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fee, err := r.getFee(dest, msg)
	if err != nil {
		return ids.Empty, err
	}
	if value == nil {
		value = new(uint256.Int)
	}
	if value.Lt(fee) {
		return ids.Empty, fmt.Errorf("%w: attached %s, required %s", xdiscount.ErrInsufficientFee, value.Dec(), fee.Dec())
	}

	r.nonce++
	id := xdiscount.HashID(
		binary.BigEndian.AppendUint64(nil, uint64(source)),
		sender.Bytes(),
		binary.BigEndian.AppendUint64(nil, r.nonce),
		binary.BigEndian.AppendUint64(nil, uint64(dest)),
		msg.Bytes(),
	)
	r.collected.Add(r.collected, value)
	r.pending[id] = &pending{
		seq:      r.nonce,
		dest:     dest,
		receiver: msg.Receiver,
		env: &xdiscount.Envelope{
			Router:         r.address,
			MessageID:      id,
			SourceSelector: source,
			Sender:         sender,
			Data:           append([]byte(nil), msg.Data...),
		},
	}
	r.queue = append(r.queue, id)
	r.updatePending(dest)

	r.log.Debug("message accepted",
		log.Stringer("messageID", id),
		log.Stringer("source", source),
		log.Stringer("dest", dest),
		log.String("fee", fee.Dec()),
	)
	return id, nil
}

// Deliver delivers the oldest pending message.
func (r *LocalRouter) Deliver(ctx context.Context) (Delivery, error) {
	r.mu.Lock()
	if len(r.queue) == 0 {
		r.mu.Unlock()
		return Delivery{}, ErrMessageNotFound
	}
	id := r.queue[0]
	r.mu.Unlock()
	return r.DeliverByID(ctx, id)
}

// DeliverByID delivers one pending message, regardless of its position in
// the queue.
func (r *LocalRouter) DeliverByID(ctx context.Context, id ids.ID) (Delivery, error) {
	r.mu.Lock()
	p, ok := r.pending[id]
	if !ok {
		r.mu.Unlock()
		return Delivery{}, fmt.Errorf("%w: %s", ErrMessageNotFound, id)
	}
	rcv, ok := r.receivers[endpointKey{selector: p.dest, address: p.receiver}]
	if !ok {
		r.mu.Unlock()
		return Delivery{}, fmt.Errorf("%w: %s on selector %s", xdiscount.ErrUnknownEndpoint, p.receiver.Hex(), p.dest)
	}
	r.remove(id)
	r.delivered[id] = p
	r.updatePending(p.dest)
	r.mu.Unlock()

	return r.call(ctx, rcv, p), nil
}

// Redeliver hands an already delivered message to its receiver again.
func (r *LocalRouter) Redeliver(ctx context.Context, id ids.ID) (Delivery, error) {
	r.mu.Lock()
	p, ok := r.delivered[id]
	if !ok {
		r.mu.Unlock()
		return Delivery{}, fmt.Errorf("%w: %s", ErrNotDelivered, id)
	}
	rcv, ok := r.receivers[endpointKey{selector: p.dest, address: p.receiver}]
	r.mu.Unlock()
	if !ok {
		return Delivery{}, fmt.Errorf("%w: %s on selector %s", xdiscount.ErrUnknownEndpoint, p.receiver.Hex(), p.dest)
	}
	return r.call(ctx, rcv, p), nil
}

// Drop discards a pending message. It is never delivered.
func (r *LocalRouter) Drop(id ids.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pending[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrMessageNotFound, id)
	}
	r.remove(id)
	r.updatePending(p.dest)
	r.log.Debug("message dropped", log.Stringer("messageID", id))
	return nil
}

// DeliverAll delivers every pending message in send order. Messages sent
// by receivers during delivery are delivered too.
func (r *LocalRouter) DeliverAll(ctx context.Context) ([]Delivery, error) {
	var out []Delivery
	for {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		d, err := r.Deliver(ctx)
		if errors.Is(err, ErrMessageNotFound) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, d)
	}
}

// DeliverAllConcurrently drains the pending queue with one goroutine per
// destination chain. Order is kept within a destination, not across them.
func (r *LocalRouter) DeliverAllConcurrently(ctx context.Context) ([]Delivery, error) {
	r.mu.Lock()
	byDest := make(map[xdiscount.Selector][]ids.ID)
	for _, id := range r.queue {
		dest := r.pending[id].dest
		byDest[dest] = append(byDest[dest], id)
	}
	r.mu.Unlock()

	var (
		mu  sync.Mutex
		out []Delivery
	)
	g, ctx := errgroup.WithContext(ctx)
	for _, queue := range byDest {
		g.Go(func() error {
			for _, id := range queue {
				if err := ctx.Err(); err != nil {
					return err
				}
				d, err := r.DeliverByID(ctx, id)
				if err != nil {
					return err
				}
				mu.Lock()
				out = append(out, d)
				mu.Unlock()
			}
			return nil
		})
	}
	err := g.Wait()
	return out, err
}

func (r *LocalRouter) call(ctx context.Context, rcv Receiver, p *pending) Delivery {
	err := rcv.OnMessage(ctx, p.env)
	r.mu.Lock()
	if err != nil {
		r.failed[p.env.MessageID] = struct{}{}
	} else {
		delete(r.failed, p.env.MessageID)
	}
	r.mu.Unlock()
	if err != nil {
		r.log.Debug("receiver rejected message",
			log.Stringer("messageID", p.env.MessageID),
			log.Stringer("dest", p.dest),
			log.Err(err),
		)
	}
	return Delivery{MessageID: p.env.MessageID, Dest: p.dest, Err: err}
}

// remove must be called with mu held.
func (r *LocalRouter) remove(id ids.ID) {
	delete(r.pending, id)
	for i, qid := range r.queue {
		if qid == id {
			r.queue = append(r.queue[:i], r.queue[i+1:]...)
			break
		}
	}
}

// updatePending must be called with mu held.
func (r *LocalRouter) updatePending(dest xdiscount.Selector) {
	if r.metrics == nil {
		return
	}
	n := 0
	for _, p := range r.pending {
		if p.dest == dest {
			n++
		}
	}
	r.metrics.SetPending(dest.String(), n)
}

// Endpoint is one sender's view of a LocalRouter.
type Endpoint struct {
	router *LocalRouter
	source xdiscount.Selector
	sender common.Address
}

var _ MessageRouter = (*Endpoint)(nil)

func (e *Endpoint) GetFee(_ context.Context, dest xdiscount.Selector, msg *xdiscount.Message) (*uint256.Int, error) {
	e.router.mu.Lock()
	defer e.router.mu.Unlock()
	return e.router.getFee(dest, msg)
}

func (e *Endpoint) Send(ctx context.Context, dest xdiscount.Selector, msg *xdiscount.Message, value *uint256.Int) (ids.ID, error) {
	if err := ctx.Err(); err != nil {
		return ids.Empty, err
	}
	return e.router.send(e.source, e.sender, dest, msg, value)
}
