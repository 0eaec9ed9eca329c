// Copyright (C) 2019-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package xdiscount

import (
	"bytes"
	"testing"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"
)

func TestMessage(t *testing.T) {
	receiver := common.HexToAddress("0xDE57")
	data := []byte("test payload")

	msg, err := NewMessage(receiver, data, 300_000)
	require.NoError(t, err)
	require.NotNil(t, msg)

	require.Equal(t, receiver, msg.Receiver)
	require.Equal(t, data, msg.Data)
	require.Equal(t, uint64(300_000), msg.GasLimit)
	require.Equal(t, common.Address{}, msg.FeeToken)

	b := msg.Bytes()
	require.NotEmpty(t, b)

	parsed, err := ParseMessage(b)
	require.NoError(t, err)
	require.True(t, msg.Equal(parsed))
}

func TestInvalidMessage(t *testing.T) {
	receiver := common.HexToAddress("0xDE57")

	tests := []struct {
		name     string
		receiver common.Address
		data     []byte
	}{
		{
			name:     "zero receiver",
			receiver: common.Address{},
			data:     []byte("x"),
		},
		{
			name:     "empty data",
			receiver: receiver,
		},
		{
			name:     "too large",
			receiver: receiver,
			data:     bytes.Repeat([]byte{1}, MaxMessageSize+1),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMessage(tt.receiver, tt.data, 1)
			require.ErrorIs(t, err, ErrInvalidMessage)
		})
	}

	msg := &Message{Receiver: receiver, Data: []byte("x"), FeeToken: common.HexToAddress("0x01")}
	require.ErrorIs(t, msg.Verify(), ErrInvalidMessage)
	_, err := ParseMessage(msg.Bytes())
	require.ErrorIs(t, err, ErrInvalidMessage)

	_, err = ParseMessage([]byte{0xff, 0x00})
	require.Error(t, err)
}

func TestMessageEqual(t *testing.T) {
	a := &Message{Receiver: common.HexToAddress("0x01"), Data: []byte("a"), GasLimit: 1}
	b := &Message{Receiver: common.HexToAddress("0x01"), Data: []byte("a"), GasLimit: 1}
	require.True(t, a.Equal(b))

	b.GasLimit = 2
	require.False(t, a.Equal(b))
	require.False(t, a.Equal(nil))

	var n *Message
	require.True(t, n.Equal(nil))
}

func TestEnvelope(t *testing.T) {
	env := &Envelope{
		Router:         common.HexToAddress("0xA0"),
		MessageID:      ids.ID{1, 2, 3},
		SourceSelector: 1,
		Sender:         common.HexToAddress("0x5050"),
		Data:           []byte("payload"),
	}
	parsed, err := ParseEnvelope(env.Bytes())
	require.NoError(t, err)
	require.Equal(t, env, parsed)
}
