// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/xdiscount"
	"github.com/luxfi/xdiscount/events"
	"github.com/luxfi/xdiscount/payload"
	"github.com/luxfi/xdiscount/registry"
	"github.com/luxfi/xdiscount/storage"
)

// outbound is a message ready for the router, with what it was built from.
type outbound struct {
	call    payload.Call
	name    xdiscount.Name
	chainID xdiscount.ChainID
	conf    registry.Conf
	msg     *xdiscount.Message
}

// build resolves chainID and encodes call. Quotes and dispatches go through
// here so both price the same message.
func (c *Coordinator) build(name xdiscount.Name, chainID xdiscount.ChainID, call payload.Call) (*outbound, error) {
	conf, err := c.networks.Resolve(chainID)
	if err != nil {
		return nil, err
	}
	data, err := payload.Encode(call)
	if err != nil {
		return nil, err
	}
	gas := c.cfg.GasLimits.Mint
	switch call.Op() {
	case payload.OpCreateStaticCollection, payload.OpCreateTimeBasedCollection:
		gas = c.cfg.GasLimits.Create
	}
	msg, err := xdiscount.NewMessage(conf.Destination, data, gas)
	if err != nil {
		return nil, err
	}
	return &outbound{call: call, name: name, chainID: chainID, conf: conf, msg: msg}, nil
}

func (c *Coordinator) quote(ctx context.Context, out *outbound) (*uint256.Int, error) {
	fee, err := c.router.GetFee(ctx, out.conf.Selector, out.msg)
	if err != nil {
		return nil, fmt.Errorf("failed to quote fee: %w", err)
	}
	return fee, nil
}

// dispatch commits tx, then sends out with value attached. A failed Send
// puts the committed keys back. The state is committed first so a message
// the router accepted is never paired with an unspent ledger entry.
func (c *Coordinator) dispatch(ctx context.Context, tx *storage.Tx, out *outbound, value *uint256.Int) (ids.ID, *uint256.Int, error) {
	value = orZero(value)
	fee, err := c.quote(ctx, out)
	if err != nil {
		tx.Discard()
		return ids.Empty, nil, err
	}
	if value.Lt(fee) {
		tx.Discard()
		return ids.Empty, nil, fmt.Errorf("%w: attached %s, required %s", xdiscount.ErrInsufficientFee, value.Dec(), fee.Dec())
	}

	undo, err := tx.CommitWithUndo()
	if err != nil {
		tx.Discard()
		return ids.Empty, nil, fmt.Errorf("failed to commit %s: %w", out.call.Op(), err)
	}

	id, err := c.router.Send(ctx, out.conf.Selector, out.msg, value)
	if err != nil {
		if restoreErr := undo.Apply(); restoreErr != nil {
			// The entitlement stays spent without a message. Nothing can
			// be claimed twice.
			c.log.Error("failed to restore state after rejected send",
				log.Stringer("op", out.call.Op()),
				log.String("name", out.name.String()),
				log.Err(restoreErr),
			)
			return ids.Empty, nil, errors.Join(err, fmt.Errorf("failed to restore state: %w", restoreErr))
		}
		return ids.Empty, nil, err
	}

	rec := &OutboxRecord{
		MessageID:    id,
		Op:           out.call.Op(),
		Name:         out.name,
		ChainID:      out.chainID,
		Selector:     out.conf.Selector,
		Receiver:     out.conf.Destination,
		Fee:          new(uint256.Int).Set(value),
		DispatchedAt: uint64(c.clock.Now().Unix()),
		State:        OutboxDispatched,
	}
	outbox := storage.NewTx(c.db)
	err = putOutbox(outbox, rec)
	if err == nil {
		err = outbox.Commit()
	}
	if err != nil {
		c.log.Error("failed to record dispatched message",
			log.Stringer("messageID", id),
			log.Stringer("op", out.call.Op()),
			log.Err(err),
		)
		return id, nil, fmt.Errorf("failed to record dispatch %s: %w", id, err)
	}

	selector := out.conf.Selector.String()
	c.metrics.IncDispatched(out.call.Op().String(), selector)
	c.metrics.AddFee(selector, value)
	c.emitter.Emit(events.MessageSent{
		MessageID: id,
		Selector:  out.conf.Selector,
		Receiver:  out.conf.Destination,
		Op:        out.call.Op().String(),
		Fee:       value,
	})
	return id, value, nil
}

// fail records a rejected entry point.
func (c *Coordinator) fail(op payload.Op, err error) error {
	c.metrics.IncDispatchFailure(op.String(), xdiscount.ReasonOf(err))
	c.log.Debug("operation rejected",
		log.Stringer("op", op),
		log.Err(err),
	)
	return err
}
