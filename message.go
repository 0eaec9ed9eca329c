// Copyright (C) 2019-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package xdiscount

import (
	"bytes"
	"fmt"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/ids"
)

const (
	CodecVersion   = 0
	MaxMessageSize = 64 * KiB
)

// Message is what a source hands to the router: the destination endpoint,
// an opaque payload, and an execution budget for the destination call.
// Fees are paid in the native asset only, so FeeToken must stay zero.
type Message struct {
	Receiver common.Address `serialize:"true"`
	Data     []byte         `serialize:"true"`
	GasLimit uint64         `serialize:"true"`
	FeeToken common.Address `serialize:"true"`
}

// NewMessage creates a native-fee message
func NewMessage(receiver common.Address, data []byte, gasLimit uint64) (*Message, error) {
	msg := &Message{
		Receiver: receiver,
		Data:     data,
		GasLimit: gasLimit,
	}
	if err := msg.Verify(); err != nil {
		return nil, err
	}
	return msg, nil
}

// Verify verifies the message
func (m *Message) Verify() error {
	if m.Receiver == (common.Address{}) {
		return fmt.Errorf("%w: zero receiver", ErrInvalidMessage)
	}
	if len(m.Data) == 0 {
		return fmt.Errorf("%w: empty data", ErrInvalidMessage)
	}
	if m.FeeToken != (common.Address{}) {
		return fmt.Errorf("%w: only native fees are supported", ErrInvalidMessage)
	}
	b, err := Codec.Marshal(CodecVersion, m)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	if len(b) > MaxMessageSize {
		return fmt.Errorf("%w: message size %d exceeds maximum %d", ErrInvalidMessage, len(b), MaxMessageSize)
	}
	return nil
}

// Bytes returns the byte representation of the message
func (m *Message) Bytes() []byte {
	b, _ := Codec.Marshal(CodecVersion, m)
	return b
}

// Equal returns true if two messages are equal
func (m *Message) Equal(other *Message) bool {
	if m == nil || other == nil {
		return m == other
	}
	return m.Receiver == other.Receiver &&
		m.GasLimit == other.GasLimit &&
		m.FeeToken == other.FeeToken &&
		bytes.Equal(m.Data, other.Data)
}

// ParseMessage parses a message from bytes
func ParseMessage(b []byte) (*Message, error) {
	msg := &Message{}
	if _, err := Codec.Unmarshal(b, msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message: %w", err)
	}
	if err := msg.Verify(); err != nil {
		return nil, err
	}
	return msg, nil
}

// Envelope is what the router delivers on the destination chain.
type Envelope struct {
	// Router is the address of the delivering router endpoint.
	Router         common.Address `serialize:"true"`
	MessageID      ids.ID         `serialize:"true"`
	SourceSelector Selector       `serialize:"true"`
	Sender         common.Address `serialize:"true"`
	Data           []byte         `serialize:"true"`
}

// Bytes returns the byte representation of the envelope
func (e *Envelope) Bytes() []byte {
	b, _ := Codec.Marshal(CodecVersion, e)
	return b
}

// ParseEnvelope parses an envelope from bytes
func ParseEnvelope(b []byte) (*Envelope, error) {
	env := &Envelope{}
	if _, err := Codec.Unmarshal(b, env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal envelope: %w", err)
	}
	return env, nil
}
