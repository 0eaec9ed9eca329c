// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Package router is the message-relay boundary. MessageRouter is what a
// source chain sees; Receiver is what the router calls on a destination.
package router

import (
	"context"

	"github.com/holiman/uint256"
	"github.com/luxfi/ids"

	"github.com/luxfi/xdiscount"
)

// MessageRouter quotes and accepts cross-chain messages
type MessageRouter interface {
	// GetFee returns the native fee for sending msg to dest. It does not
	// mutate state.
	GetFee(ctx context.Context, dest xdiscount.Selector, msg *xdiscount.Message) (*uint256.Int, error)

	// Send accepts msg for delivery to dest. value must cover the fee at
	// the time of the call. Acceptance does not imply delivery.
	Send(ctx context.Context, dest xdiscount.Selector, msg *xdiscount.Message, value *uint256.Int) (ids.ID, error)
}

// Receiver is a destination endpoint.
type Receiver interface {
	OnMessage(ctx context.Context, env *xdiscount.Envelope) error
}

// ReceiverFunc adapts a function to Receiver.
type ReceiverFunc func(ctx context.Context, env *xdiscount.Envelope) error

func (f ReceiverFunc) OnMessage(ctx context.Context, env *xdiscount.Envelope) error {
	return f(ctx, env)
}
