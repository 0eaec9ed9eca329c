// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/luxfi/log"
	"github.com/luxfi/log/level"
	"github.com/stretchr/testify/require"
)

func TestWithRetriesTimeout(t *testing.T) {
	logger := log.NewTestLogger(level.Info)
	ctx := context.Background()

	t.Run("NotEnoughRetry", func(t *testing.T) {
		retryable := newMockRetryableFn(100)
		err := WithRetriesTimeout(ctx, logger, func() error {
			_, err := retryable.Run()
			return err
		}, 120*time.Millisecond)
		require.Error(t, err)
	})
	t.Run("EnoughRetry", func(t *testing.T) {
		retryable := newMockRetryableFn(2)
		var res bool
		err := WithRetriesTimeout(ctx, logger, func() (err error) {
			res, err = retryable.Run()
			return err
		}, 5*time.Second)
		require.NoError(t, err)
		require.True(t, res)
		require.Equal(t, uint64(2), retryable.counter)
	})
	t.Run("Permanent", func(t *testing.T) {
		errStop := errors.New("stop")
		calls := 0
		err := WithRetriesTimeout(ctx, logger, func() error {
			calls++
			return backoff.Permanent(errStop)
		}, 5*time.Second)
		require.ErrorIs(t, err, errStop)
		require.Equal(t, 1, calls)
	})
	t.Run("Canceled", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		err := WithRetriesTimeout(canceled, logger, func() error {
			return errors.New("error")
		}, 5*time.Second)
		require.Error(t, err)
	})
}

type mockRetryableFn struct {
	counter uint64
	trigger uint64
}

func newMockRetryableFn(trigger uint64) mockRetryableFn {
	return mockRetryableFn{
		counter: 0,
		trigger: trigger,
	}
}

func (m *mockRetryableFn) Run() (bool, error) {
	if m.counter >= m.trigger {
		return true, nil
	}
	m.counter++
	return false, errors.New("error")
}
