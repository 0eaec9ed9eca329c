// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Package registry maps logical chain IDs to the router selector and the
// gateway address that serve them.
package registry

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"
	"github.com/luxfi/math/set"

	"github.com/luxfi/xdiscount"
	"github.com/luxfi/xdiscount/cache"
	"github.com/luxfi/xdiscount/storage"
)

const confCacheSize = 256

// Conf is the network configuration of one logical chain.
type Conf struct {
	Destination common.Address     `serialize:"true"`
	Selector    xdiscount.Selector `serialize:"true"`
}

// NetworkRegistry is the owner-mutable NetworkConf table.
type NetworkRegistry struct {
	log   log.Logger
	db    storage.Database
	owner common.Address
	confs *cache.LRUCache[xdiscount.ChainID, Conf]
}

func New(log log.Logger, db storage.Database, owner common.Address) *NetworkRegistry {
	return &NetworkRegistry{
		log:   log,
		db:    db,
		owner: owner,
		confs: cache.NewLRUCache[xdiscount.ChainID, Conf](confCacheSize),
	}
}

// Owner returns the only address allowed to change the table.
func (r *NetworkRegistry) Owner() common.Address {
	return r.owner
}

// SetNetworkConfig adds or replaces the entry of every listed chain. The
// three slices are parallel. All entries are written in one batch; when a
// chain ID repeats, the last entry wins.
func (r *NetworkRegistry) SetNetworkConfig(
	caller common.Address,
	chainIDs []xdiscount.ChainID,
	selectors []xdiscount.Selector,
	destinations []common.Address,
) error {
	if caller != r.owner {
		return xdiscount.ErrNotOwner
	}
	if len(chainIDs) != len(selectors) || len(chainIDs) != len(destinations) {
		return fmt.Errorf("%w: %d chain ids, %d selectors, %d destinations",
			xdiscount.ErrLengthMismatch, len(chainIDs), len(selectors), len(destinations))
	}
	if len(chainIDs) == 0 {
		return xdiscount.ErrEmptyInput
	}

	tx := storage.NewTx(r.db)
	for i, chainID := range chainIDs {
		if destinations[i] == (common.Address{}) {
			return fmt.Errorf("%w: zero destination for chain %s", xdiscount.ErrInvalidAddress, chainID)
		}
		b, err := xdiscount.Codec.Marshal(xdiscount.CodecVersion, &Conf{
			Destination: destinations[i],
			Selector:    selectors[i],
		})
		if err != nil {
			return fmt.Errorf("failed to marshal network config: %w", err)
		}
		if err := tx.Put(key(chainID), b); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to write network config: %w", err)
	}
	r.confs.Purge()

	for i, chainID := range chainIDs {
		r.log.Info("network configured",
			log.Stringer("chainID", chainID),
			log.Stringer("selector", selectors[i]),
			log.String("destination", destinations[i].Hex()),
		)
	}
	return nil
}

// Resolve returns the configuration of chainID, or ErrUnconfiguredChain.
func (r *NetworkRegistry) Resolve(chainID xdiscount.ChainID) (Conf, error) {
	return r.confs.Get(chainID, r.load, false)
}

func (r *NetworkRegistry) load(chainID xdiscount.ChainID) (Conf, error) {
	b, err := r.db.Get(key(chainID))
	if errors.Is(err, storage.ErrNotFound) {
		return Conf{}, fmt.Errorf("%w: %s", xdiscount.ErrUnconfiguredChain, chainID)
	}
	if err != nil {
		return Conf{}, err
	}
	var conf Conf
	if _, err := xdiscount.Codec.Unmarshal(b, &conf); err != nil {
		return Conf{}, fmt.Errorf("failed to unmarshal network config: %w", err)
	}
	return conf, nil
}

// Chains returns every configured chain ID.
func (r *NetworkRegistry) Chains() (set.Set[xdiscount.ChainID], error) {
	chains := set.NewSet[xdiscount.ChainID](0)
	err := r.db.Iterate(storage.NetworkPrefix, func(k, _ []byte) error {
		if len(k) != len(storage.NetworkPrefix)+8 {
			return fmt.Errorf("malformed network key %x", k)
		}
		chains.Add(xdiscount.ChainID(binary.BigEndian.Uint64(k[len(storage.NetworkPrefix):])))
		return nil
	})
	return chains, err
}

func key(chainID xdiscount.ChainID) []byte {
	return storage.Key(storage.NetworkPrefix, binary.BigEndian.AppendUint64(nil, uint64(chainID)))
}
