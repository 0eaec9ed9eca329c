// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package source

import (
	"encoding/binary"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/ids"

	"github.com/luxfi/xdiscount"
	"github.com/luxfi/xdiscount/storage"
)

var pausedKey = storage.Key(storage.MetaPrefix, []byte("paused"))

func discountKey(name xdiscount.Name) []byte {
	return storage.Key(storage.DiscountPrefix, name[:])
}

func activationKey(name xdiscount.Name, chainID xdiscount.ChainID) []byte {
	return storage.Key(storage.ActivationPrefix, name[:], binary.BigEndian.AppendUint64(nil, uint64(chainID)))
}

func balanceKey(name xdiscount.Name, user common.Address, itemID uint64) []byte {
	return storage.Key(storage.BalancePrefix, name[:], user.Bytes(), binary.BigEndian.AppendUint64(nil, itemID))
}

func outboxKey(id ids.ID) []byte {
	return storage.Key(storage.OutboxPrefix, id[:])
}
