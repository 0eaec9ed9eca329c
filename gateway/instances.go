// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package gateway

import (
	"errors"
	"fmt"
	"sync"

	"github.com/luxfi/geth/common"

	"github.com/luxfi/xdiscount"
	"github.com/luxfi/xdiscount/storage"
)

// Instance is the registry record of one deployed collection.
type Instance struct {
	Kind    xdiscount.Kind `serialize:"true"`
	Address common.Address `serialize:"true"`
}

// InstanceRegistry maps discount names to deployed collections.
type InstanceRegistry interface {
	Get(name xdiscount.Name) (Instance, bool, error)
	// Put records inst under name, failing with ErrCollectionExists if name
	// is already registered.
	Put(name xdiscount.Name, inst Instance) error
	Contains(name xdiscount.Name) (bool, error)
	// Len returns the number of registered names.
	Len() (int, error)
}

// MemoryInstances is an in-memory InstanceRegistry
type MemoryInstances struct {
	mu        sync.RWMutex
	instances map[xdiscount.Name]Instance
}

func NewMemoryInstances() *MemoryInstances {
	return &MemoryInstances{instances: make(map[xdiscount.Name]Instance)}
}

func (m *MemoryInstances) Get(name xdiscount.Name) (Instance, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	inst, ok := m.instances[name]
	return inst, ok, nil
}

func (m *MemoryInstances) Put(name xdiscount.Name, inst Instance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.instances[name]; ok {
		return fmt.Errorf("%w: %s", xdiscount.ErrCollectionExists, name)
	}
	m.instances[name] = inst
	return nil
}

func (m *MemoryInstances) Contains(name xdiscount.Name) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.instances[name]
	return ok, nil
}

func (m *MemoryInstances) Len() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.instances), nil
}

// DBInstances is an InstanceRegistry kept in a storage.Database. The
// database must not outlive the Gateway using it.
type DBInstances struct {
	db storage.Database
}

func NewDBInstances(db storage.Database) *DBInstances {
	return &DBInstances{db: db}
}

func (d *DBInstances) Get(name xdiscount.Name) (Instance, bool, error) {
	b, err := d.db.Get(instanceKey(name))
	if errors.Is(err, storage.ErrNotFound) {
		return Instance{}, false, nil
	}
	if err != nil {
		return Instance{}, false, err
	}
	var inst Instance
	if _, err := xdiscount.Codec.Unmarshal(b, &inst); err != nil {
		return Instance{}, false, fmt.Errorf("failed to unmarshal instance: %w", err)
	}
	return inst, true, nil
}

func (d *DBInstances) Put(name xdiscount.Name, inst Instance) error {
	ok, err := d.Contains(name)
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("%w: %s", xdiscount.ErrCollectionExists, name)
	}
	b, err := xdiscount.Codec.Marshal(xdiscount.CodecVersion, &inst)
	if err != nil {
		return fmt.Errorf("failed to marshal instance: %w", err)
	}
	return d.db.Put(instanceKey(name), b)
}

func (d *DBInstances) Contains(name xdiscount.Name) (bool, error) {
	return d.db.Has(instanceKey(name))
}

func (d *DBInstances) Len() (int, error) {
	n := 0
	err := d.db.Iterate(storage.InstancePrefix, func(_, _ []byte) error {
		n++
		return nil
	})
	return n, err
}

func instanceKey(name xdiscount.Name) []byte {
	return storage.Key(storage.InstancePrefix, name[:])
}
