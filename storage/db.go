// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Package storage is the key-value layer under the source coordinator, the
// network registry and the destination instance registry.
package storage

import (
	"errors"

	"github.com/luxfi/database"
	"github.com/luxfi/database/memdb"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// ErrNotFound is returned by Get when the key is absent
var ErrNotFound = errors.New("not found")

// Database is a key-value store. Both the in-memory and the persistent
// backends satisfy it.
type Database interface {
	Has(key []byte) (bool, error)
	Get(key []byte) ([]byte, error)
	Put(key, value []byte) error
	// NewBatch returns a write batch applied atomically by Write.
	NewBatch() Batch
	// Iterate calls fn for every key with the given prefix, in key order.
	Iterate(prefix []byte, fn func(key, value []byte) error) error
	Close() error
}

// Batch buffers writes until Write.
type Batch interface {
	Put(key, value []byte) error
	Delete(key []byte) error
	Write() error
}

// --- In-Memory DB ---

// MemDB is an in-memory Database.
type MemDB struct {
	db *memdb.Database
}

func NewMemDB() *MemDB {
	return &MemDB{db: memdb.New()}
}

func (m *MemDB) Has(key []byte) (bool, error) {
	return m.db.Has(key)
}

func (m *MemDB) Get(key []byte) ([]byte, error) {
	v, err := m.db.Get(key)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrNotFound
	}
	return v, err
}

func (m *MemDB) Put(key, value []byte) error {
	return m.db.Put(key, value)
}

func (m *MemDB) NewBatch() Batch {
	return m.db.NewBatch()
}

func (m *MemDB) Iterate(prefix []byte, fn func(key, value []byte) error) error {
	it := m.db.NewIteratorWithPrefix(prefix)
	defer it.Release()
	for it.Next() {
		if err := fn(it.Key(), it.Value()); err != nil {
			return err
		}
	}
	return it.Error()
}

func (m *MemDB) Close() error {
	return m.db.Close()
}

// --- Persistent DB ---

// LevelDB is a persistent Database using LevelDB.
type LevelDB struct {
	db *leveldb.DB
}

// NewLevelDB creates or opens a LevelDB database at the specified path.
func NewLevelDB(path string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &LevelDB{db: db}, nil
}

func (l *LevelDB) Has(key []byte) (bool, error) {
	return l.db.Has(key, nil)
}

func (l *LevelDB) Get(key []byte) ([]byte, error) {
	v, err := l.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNotFound
	}
	return v, err
}

func (l *LevelDB) Put(key, value []byte) error {
	return l.db.Put(key, value, nil)
}

func (l *LevelDB) NewBatch() Batch {
	return &levelBatch{db: l.db, b: new(leveldb.Batch)}
}

func (l *LevelDB) Iterate(prefix []byte, fn func(key, value []byte) error) error {
	it := l.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer it.Release()
	for it.Next() {
		if err := fn(it.Key(), it.Value()); err != nil {
			return err
		}
	}
	return it.Error()
}

func (l *LevelDB) Close() error {
	return l.db.Close()
}

type levelBatch struct {
	db *leveldb.DB
	b  *leveldb.Batch
}

func (b *levelBatch) Put(key, value []byte) error {
	b.b.Put(key, value)
	return nil
}

func (b *levelBatch) Delete(key []byte) error {
	b.b.Delete(key)
	return nil
}

func (b *levelBatch) Write() error {
	return b.db.Write(b.b, nil)
}
