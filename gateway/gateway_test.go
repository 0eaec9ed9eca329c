// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/luxfi/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/xdiscount"
	"github.com/luxfi/xdiscount/events"
	"github.com/luxfi/xdiscount/metrics"
	"github.com/luxfi/xdiscount/payload"
	"github.com/luxfi/xdiscount/storage"
)

const chainID xdiscount.ChainID = 137

var (
	gwAddr     = common.HexToAddress("0xDE57")
	ownerAddr  = common.HexToAddress("0x0A0A")
	routerAddr = common.HexToAddress("0xA0")
	alice      = common.HexToAddress("0x0A11CE")
	acme       = xdiscount.MustName("ACME")
	t0         = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
)

type testGateway struct {
	*Gateway
	rec   *events.Recorder
	clock *xdiscount.ManualClock
	seq   byte
}

func newTestGateway(t *testing.T, instances InstanceRegistry) *testGateway {
	rec := events.NewRecorder()
	clock := xdiscount.NewManualClock(t0)
	g, err := New(Config{
		ChainID:   chainID,
		Address:   gwAddr,
		Owner:     ownerAddr,
		Router:    routerAddr,
		Log:       log.NewTestLogger(level.Info),
		Emitter:   rec,
		Metrics:   metrics.New(prometheus.NewRegistry()),
		Clock:     clock,
		Instances: instances,
	})
	require.NoError(t, err)
	return &testGateway{Gateway: g, rec: rec, clock: clock}
}

func (g *testGateway) envelope(t *testing.T, call payload.Call) *xdiscount.Envelope {
	b, err := payload.Encode(call)
	require.NoError(t, err)
	g.seq++
	return &xdiscount.Envelope{
		Router:         routerAddr,
		MessageID:      ids.ID{g.seq},
		SourceSelector: 1,
		Sender:         common.HexToAddress("0x5050"),
		Data:           b,
	}
}

func createStatic() *payload.CreateStaticCollection {
	return &payload.CreateStaticCollection{
		Name:    acme,
		Symbol:  "ACM",
		ItemIDs: []uint64{1, 2},
		URIs:    []string{"uriA", "uriB"},
		ChainID: chainID,
	}
}

func mintStatic(itemID uint64) *payload.MintStaticItem {
	return &payload.MintStaticItem{Mint: payload.Mint{Name: acme, To: alice, ItemID: itemID, Amount: 1}}
}

func TestNew(t *testing.T) {
	logger := log.NewTestLogger(level.Info)
	_, err := New(Config{Router: routerAddr, Log: logger})
	require.ErrorIs(t, err, xdiscount.ErrInvalidAddress)
	_, err = New(Config{Address: gwAddr, Log: logger})
	require.ErrorIs(t, err, xdiscount.ErrInvalidAddress)
	_, err = New(Config{Address: gwAddr, Router: routerAddr})
	require.Error(t, err)
}

func TestCreateAndMint(t *testing.T) {
	for name, instances := range map[string]InstanceRegistry{
		"memory": NewMemoryInstances(),
		"db":     NewDBInstances(storage.NewMemDB()),
	} {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)
			ctx := context.Background()
			g := newTestGateway(t, instances)

			require.NoError(g.OnMessage(ctx, g.envelope(t, createStatic())))

			inst, ok, err := g.Collection(acme)
			require.NoError(err)
			require.True(ok)
			require.Equal(xdiscount.KindStaticBased, inst.Kind)
			want, err := g.factory.Address(acme, xdiscount.KindStaticBased)
			require.NoError(err)
			require.Equal(want, inst.Address)
			require.Len(g.rec.OfType(events.TypeCollectionDeployed), 1)

			coll, err := g.Static(acme)
			require.NoError(err)
			require.Equal(gwAddr, coll.Owner())
			require.Equal([]uint64{1, 2}, coll.Items())
			uri, err := coll.URI(1)
			require.NoError(err)
			require.Equal("uriA", uri)

			env := g.envelope(t, mintStatic(1))
			require.NoError(g.OnMessage(ctx, env))
			require.Equal(uint64(1), coll.BalanceOf(alice, 1))

			r, ok := g.Receipt(env.MessageID)
			require.True(ok)
			require.Equal(StatusApplied, r.Status)
			require.Equal(payload.OpMintStaticItem, r.Op)
			require.True(g.Applied(env.MessageID))

			batch := &payload.MintBatch{Name: acme, To: alice, ItemIDs: []uint64{1, 2}, Amounts: []uint64{2, 3}}
			require.NoError(g.OnMessage(ctx, g.envelope(t, batch)))
			require.Equal(uint64(3), coll.BalanceOf(alice, 1))
			require.Equal(uint64(3), coll.BalanceOf(alice, 2))
		})
	}
}

// A mint for a name with no collection fails, changes nothing and is
// acknowledged with the failure.
func TestMintCollectionNotFound(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	g := newTestGateway(t, nil)

	env := g.envelope(t, mintStatic(1))
	err := g.OnMessage(ctx, env)
	require.ErrorIs(err, xdiscount.ErrCollectionNotFound)

	_, ok, err := g.Collection(acme)
	require.NoError(err)
	require.False(ok)
	require.False(g.Applied(env.MessageID))

	r, ok := g.Receipt(env.MessageID)
	require.True(ok)
	require.Equal(StatusFailed, r.Status)
	require.Equal(xdiscount.ErrCollectionNotFound.Code, r.Code)

	processed := g.rec.OfType(events.TypeMessageProcessed)
	require.Len(processed, 1)
	ev := processed[0].(events.MessageProcessed)
	require.Equal(events.StatusFailed, ev.Status)
	require.Equal("collection not found", ev.Reason)
	require.Equal("mintStaticItem", ev.Op)

	// Once the create lands, redelivering the same mint applies it.
	require.NoError(g.OnMessage(ctx, g.envelope(t, createStatic())))
	require.NoError(g.OnMessage(ctx, env))
	r, _ = g.Receipt(env.MessageID)
	require.Equal(StatusApplied, r.Status)
	require.Equal(2, r.Attempts)
	coll, err := g.Static(acme)
	require.NoError(err)
	require.Equal(uint64(1), coll.BalanceOf(alice, 1))
}

func TestDuplicateCreateRejected(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	g := newTestGateway(t, nil)

	require.NoError(g.OnMessage(ctx, g.envelope(t, createStatic())))
	first, _, err := g.Collection(acme)
	require.NoError(err)

	// A second create under the same name, even of the other variant, is
	// not applied.
	err = g.OnMessage(ctx, g.envelope(t, createStatic()))
	require.ErrorIs(err, xdiscount.ErrCollectionExists)
	err = g.OnMessage(ctx, g.envelope(t, &payload.CreateTimeBasedCollection{Name: acme, Symbol: "X", ChainID: chainID}))
	require.ErrorIs(err, xdiscount.ErrCollectionExists)

	after, _, err := g.Collection(acme)
	require.NoError(err)
	require.Equal(first, after)
	require.Len(g.rec.OfType(events.TypeCollectionDeployed), 1)
}

func TestReplayIsNoop(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	g := newTestGateway(t, nil)

	require.NoError(g.OnMessage(ctx, g.envelope(t, createStatic())))
	env := g.envelope(t, mintStatic(2))
	require.NoError(g.OnMessage(ctx, env))
	require.NoError(g.OnMessage(ctx, env))
	require.NoError(g.OnMessage(ctx, env))

	coll, err := g.Static(acme)
	require.NoError(err)
	require.Equal(uint64(1), coll.BalanceOf(alice, 2))

	r, _ := g.Receipt(env.MessageID)
	require.Equal(3, r.Attempts)

	var dup int
	for _, e := range g.rec.OfType(events.TypeMessageProcessed) {
		if e.(events.MessageProcessed).Status == events.StatusDuplicate {
			dup++
		}
	}
	require.Equal(2, dup)
}

func TestRejections(t *testing.T) {
	tests := []struct {
		name    string
		setup   bool
		call    payload.Call
		wantErr error
	}{
		{
			name:    "create for another chain",
			call:    &payload.CreateStaticCollection{Name: acme, ItemIDs: []uint64{1}, URIs: []string{"a"}, ChainID: 56},
			wantErr: xdiscount.ErrWrongChain,
		},
		{
			name:    "time-based mint into static collection",
			setup:   true,
			call:    &payload.MintTimeBasedItem{Mint: payload.Mint{Name: acme, To: alice, ItemID: 1, Amount: 1}},
			wantErr: xdiscount.ErrWrongKind,
		},
		{
			name:    "unknown item",
			setup:   true,
			call:    mintStatic(9),
			wantErr: xdiscount.ErrTokenNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			ctx := context.Background()
			g := newTestGateway(t, nil)
			if tt.setup {
				require.NoError(g.OnMessage(ctx, g.envelope(t, createStatic())))
			}
			env := g.envelope(t, tt.call)
			require.ErrorIs(g.OnMessage(ctx, env), tt.wantErr)
			r, ok := g.Receipt(env.MessageID)
			require.True(ok)
			require.Equal(StatusFailed, r.Status)
		})
	}
}

func TestMalformedPayload(t *testing.T) {
	require := require.New(t)
	g := newTestGateway(t, nil)

	env := &xdiscount.Envelope{Router: routerAddr, MessageID: ids.ID{9}, Data: []byte("junk")}
	require.ErrorIs(g.OnMessage(context.Background(), env), xdiscount.ErrInvalidPayload)
	r, ok := g.Receipt(env.MessageID)
	require.True(ok)
	require.Equal(payload.Op(0), r.Op)
	require.Equal(StatusFailed, r.Status)
}

func TestUntrustedRouter(t *testing.T) {
	require := require.New(t)
	g := newTestGateway(t, nil)

	env := g.envelope(t, createStatic())
	env.Router = common.HexToAddress("0xBAD")
	require.ErrorIs(g.OnMessage(context.Background(), env), xdiscount.ErrUntrustedRouter)

	_, ok := g.Receipt(env.MessageID)
	require.False(ok)
	require.False(g.Applied(env.MessageID))
	_, ok, err := g.Collection(acme)
	require.NoError(err)
	require.False(ok)

	processed := g.rec.OfType(events.TypeMessageProcessed)
	require.Len(processed, 1)
	ev := processed[0].(events.MessageProcessed)
	require.Equal(env.MessageID, ev.MessageID)
	require.Equal(events.StatusFailed, ev.Status)
	require.Equal(xdiscount.ErrUntrustedRouter.Code, ev.Code)
	require.Equal(xdiscount.ErrUntrustedRouter.Reason, ev.Reason)

	// The same id from the trusted router still applies.
	env.Router = routerAddr
	require.NoError(g.OnMessage(context.Background(), env))
	require.True(g.Applied(env.MessageID))
}

func TestNewRejectsStaleInstances(t *testing.T) {
	for name, instances := range map[string]InstanceRegistry{
		"memory": NewMemoryInstances(),
		"db":     NewDBInstances(storage.NewMemDB()),
	} {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)

			n, err := instances.Len()
			require.NoError(err)
			require.Zero(n)
			require.NoError(instances.Put(acme, Instance{Kind: xdiscount.KindStaticBased, Address: common.HexToAddress("0xC011")}))
			n, err = instances.Len()
			require.NoError(err)
			require.Equal(1, n)

			_, err = New(Config{
				ChainID:   chainID,
				Address:   gwAddr,
				Router:    routerAddr,
				Log:       log.NewTestLogger(level.Info),
				Instances: instances,
			})
			require.ErrorIs(err, ErrStaleInstances)
		})
	}
}

func TestTimeBasedFlow(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	g := newTestGateway(t, nil)

	create := &payload.CreateTimeBasedCollection{Name: acme, Symbol: "ACM", ExpiredURI: "ipfs://expired", ChainID: chainID}
	require.NoError(g.OnMessage(ctx, g.envelope(t, create)))

	_, err := g.CreateTimeBasedToken(alice, acme, "uri", t0, t0.Add(100*time.Second), 50)
	require.ErrorIs(err, xdiscount.ErrNotOwner)
	id, err := g.CreateTimeBasedToken(ownerAddr, acme, "uri", t0, t0.Add(100*time.Second), 50)
	require.NoError(err)
	require.Equal(uint64(1), id)

	mint := &payload.MintTimeBasedItem{Mint: payload.Mint{Name: acme, To: alice, ItemID: id, Amount: 1}}
	require.NoError(g.OnMessage(ctx, g.envelope(t, mint)))

	coll, err := g.TimeBased(acme)
	require.NoError(err)
	require.Equal(uint64(1), coll.BalanceOf(alice, id))

	g.clock.Advance(100 * time.Second)
	ratio, err := coll.DiscountRatio(id)
	require.NoError(err)
	require.Zero(ratio)
	require.ErrorIs(g.OnMessage(ctx, g.envelope(t, mint)), xdiscount.ErrTokenInactive)

	// A static-only batch cannot target a time-based collection.
	batch := &payload.MintBatch{Name: acme, To: alice, ItemIDs: []uint64{id}, Amounts: []uint64{1}}
	require.ErrorIs(g.OnMessage(ctx, g.envelope(t, batch)), xdiscount.ErrWrongKind)

	require.NoError(g.ExpireTokens(ownerAddr, acme, []uint64{id}))
	tok, err := coll.Token(id)
	require.NoError(err)
	require.True(tok.Expired)
}

func TestAdminPassthroughs(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	g := newTestGateway(t, nil)

	require.ErrorIs(g.PauseCollection(ownerAddr, acme), xdiscount.ErrCollectionNotFound)
	require.NoError(g.OnMessage(ctx, g.envelope(t, createStatic())))

	require.ErrorIs(g.PauseCollection(alice, acme), xdiscount.ErrNotOwner)
	require.NoError(g.PauseCollection(ownerAddr, acme))
	require.ErrorIs(g.OnMessage(ctx, g.envelope(t, mintStatic(1))), xdiscount.ErrCollectionPaused)
	require.NoError(g.UnpauseCollection(ownerAddr, acme))
	require.NoError(g.OnMessage(ctx, g.envelope(t, mintStatic(1))))

	require.ErrorIs(g.SetItemURI(alice, acme, 1, "x"), xdiscount.ErrNotOwner)
	require.NoError(g.SetItemURI(ownerAddr, acme, 1, "uriA2"))
	coll, err := g.Static(acme)
	require.NoError(err)
	uri, err := coll.URI(1)
	require.NoError(err)
	require.Equal("uriA2", uri)

	_, err = g.CreateTimeBasedToken(ownerAddr, acme, "u", t0, t0.Add(time.Hour), 10)
	require.ErrorIs(err, xdiscount.ErrWrongKind)
}

func TestFactoryAddress(t *testing.T) {
	require := require.New(t)

	f := NewFactory(gwAddr, nil, nil)
	a, err := f.Address(acme, xdiscount.KindStaticBased)
	require.NoError(err)
	b, err := f.Address(acme, xdiscount.KindStaticBased)
	require.NoError(err)
	require.Equal(a, b)

	c, err := f.Address(acme, xdiscount.KindTimeBased)
	require.NoError(err)
	require.NotEqual(a, c)

	d, err := NewFactory(ownerAddr, nil, nil).Address(acme, xdiscount.KindStaticBased)
	require.NoError(err)
	require.NotEqual(a, d)

	_, err = f.Address(acme, xdiscount.KindInactive)
	require.ErrorIs(err, xdiscount.ErrInvalidKind)
}
