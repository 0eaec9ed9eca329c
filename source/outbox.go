// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package source

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/xdiscount"
	"github.com/luxfi/xdiscount/events"
	"github.com/luxfi/xdiscount/payload"
	"github.com/luxfi/xdiscount/storage"
)

var ErrOutboxNotFound = errors.New("outbox record not found")

// OutboxState is what the source knows about a dispatched message.
type OutboxState uint8

const (
	// OutboxDispatched means the router accepted the message.
	OutboxDispatched OutboxState = iota + 1
	// OutboxUnknown means the message is older than the operator's sweep
	// horizon and its fate was never learned.
	OutboxUnknown
)

func (s OutboxState) String() string {
	switch s {
	case OutboxDispatched:
		return "dispatched"
	case OutboxUnknown:
		return "unknown"
	default:
		return "invalid"
	}
}

// OutboxRecord is the durable trace of one dispatch.
type OutboxRecord struct {
	MessageID ids.ID             `serialize:"true"`
	Op        payload.Op         `serialize:"true"`
	Name      xdiscount.Name     `serialize:"true"`
	ChainID   xdiscount.ChainID  `serialize:"true"`
	Selector  xdiscount.Selector `serialize:"true"`
	Receiver  common.Address     `serialize:"true"`
	Fee       *uint256.Int       `serialize:"true"`

	// DispatchedAt is in unix seconds.
	DispatchedAt uint64      `serialize:"true"`
	State        OutboxState `serialize:"true"`
}

func putOutbox(tx *storage.Tx, rec *OutboxRecord) error {
	b, err := xdiscount.Codec.Marshal(xdiscount.CodecVersion, rec)
	if err != nil {
		return fmt.Errorf("failed to marshal outbox record: %w", err)
	}
	return tx.Put(outboxKey(rec.MessageID), b)
}

func parseOutbox(b []byte) (*OutboxRecord, error) {
	rec := &OutboxRecord{}
	if _, err := xdiscount.Codec.Unmarshal(b, rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal outbox record: %w", err)
	}
	return rec, nil
}

// Outbox returns the record of one dispatched message.
func (c *Coordinator) Outbox(id ids.ID) (*OutboxRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, err := c.db.Get(outboxKey(id))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrOutboxNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return parseOutbox(b)
}

// OutboxRecords returns every record, oldest first.
func (c *Coordinator) OutboxRecords() ([]*OutboxRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outboxRecords()
}

func (c *Coordinator) outboxRecords() ([]*OutboxRecord, error) {
	var out []*OutboxRecord
	err := c.db.Iterate(storage.OutboxPrefix, func(_, v []byte) error {
		rec, err := parseOutbox(v)
		if err != nil {
			return err
		}
		out = append(out, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DispatchedAt < out[j].DispatchedAt
	})
	return out, nil
}

// SweepOutbox marks Dispatched records at least olderThan old as Unknown and
// returns how many changed. It reconciles nothing. Admin only.
func (c *Coordinator) SweepOutbox(caller common.Address, olderThan time.Duration) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if caller != c.cfg.Admin {
		return 0, xdiscount.ErrNotOwner
	}
	recs, err := c.outboxRecords()
	if err != nil {
		return 0, err
	}

	now := c.clock.Now()
	tx := storage.NewTx(c.db)
	for _, rec := range recs {
		if rec.State != OutboxDispatched {
			continue
		}
		if now.Sub(time.Unix(int64(rec.DispatchedAt), 0)) < olderThan {
			continue
		}
		rec.State = OutboxUnknown
		if err := putOutbox(tx, rec); err != nil {
			return 0, err
		}
	}
	n := tx.Len()
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit outbox sweep: %w", err)
	}
	if n > 0 {
		c.log.Info("outbox swept", log.Int("unknown", n))
		c.emitter.Emit(events.OutboxSwept{Count: n})
	}
	return n, nil
}
