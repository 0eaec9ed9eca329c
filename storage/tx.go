// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"bytes"
	"encoding/binary"
	"errors"
	"sort"
)

// Tx stages writes over a Database. Reads see staged writes first. Commit
// applies every staged write in one batch; Discard drops them. A Tx is not
// safe for concurrent use.
type Tx struct {
	db     Database
	writes map[string][]byte
}

// NewTx starts a transaction over db.
func NewTx(db Database) *Tx {
	return &Tx{db: db, writes: make(map[string][]byte)}
}

func (t *Tx) Has(key []byte) (bool, error) {
	if _, ok := t.writes[string(key)]; ok {
		return true, nil
	}
	return t.db.Has(key)
}

func (t *Tx) Get(key []byte) ([]byte, error) {
	if v, ok := t.writes[string(key)]; ok {
		return bytes.Clone(v), nil
	}
	return t.db.Get(key)
}

func (t *Tx) Put(key, value []byte) error {
	t.writes[string(key)] = bytes.Clone(value)
	return nil
}

// GetUint64 reads a big-endian counter. A missing key reads as zero.
func (t *Tx) GetUint64(key []byte) (uint64, error) {
	return GetUint64(t, key)
}

// PutUint64 stages a big-endian counter.
func (t *Tx) PutUint64(key []byte, v uint64) error {
	return t.Put(key, binary.BigEndian.AppendUint64(nil, v))
}

// Len returns the number of staged writes.
func (t *Tx) Len() int {
	return len(t.writes)
}

// Commit writes the staged set atomically and resets the transaction.
func (t *Tx) Commit() error {
	if len(t.writes) == 0 {
		return nil
	}
	b := t.db.NewBatch()
	for _, k := range sortedKeys(t.writes) {
		if err := b.Put([]byte(k), t.writes[k]); err != nil {
			return err
		}
	}
	if err := b.Write(); err != nil {
		return err
	}
	t.Discard()
	return nil
}

// CommitWithUndo is Commit, but first records the values the staged writes
// replace. The returned Undo puts them back.
func (t *Tx) CommitWithUndo() (*Undo, error) {
	u := &Undo{
		db:     t.db,
		prev:   make(map[string][]byte, len(t.writes)),
		absent: make(map[string]struct{}),
	}
	for k := range t.writes {
		v, err := t.db.Get([]byte(k))
		switch {
		case errors.Is(err, ErrNotFound):
			u.absent[k] = struct{}{}
		case err != nil:
			return nil, err
		default:
			u.prev[k] = v
		}
	}
	if err := t.Commit(); err != nil {
		return nil, err
	}
	return u, nil
}

// Discard drops every staged write.
func (t *Tx) Discard() {
	clear(t.writes)
}

// Undo restores the keys a committed Tx wrote to their earlier values.
// Keys that did not exist before are deleted.
type Undo struct {
	db     Database
	prev   map[string][]byte
	absent map[string]struct{}
}

// Apply writes the earlier values back in one batch.
func (u *Undo) Apply() error {
	if len(u.prev) == 0 && len(u.absent) == 0 {
		return nil
	}
	b := u.db.NewBatch()
	for _, k := range sortedKeys(u.prev) {
		if err := b.Put([]byte(k), u.prev[k]); err != nil {
			return err
		}
	}
	for _, k := range sortedKeys(u.absent) {
		if err := b.Delete([]byte(k)); err != nil {
			return err
		}
	}
	return b.Write()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Reader is the read half of Database and Tx.
type Reader interface {
	Has(key []byte) (bool, error)
	Get(key []byte) ([]byte, error)
}

// GetUint64 reads a big-endian counter from r. A missing key reads as zero.
func GetUint64(r Reader, key []byte) (uint64, error) {
	v, err := r.Get(key)
	if errors.Is(err, ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(v) != 8 {
		return 0, errCorrupt(key)
	}
	return binary.BigEndian.Uint64(v), nil
}
