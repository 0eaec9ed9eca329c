// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Package devnet assembles a source coordinator, a local router and one
// gateway per configured destination into a single process.
package devnet

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/xdiscount"
	"github.com/luxfi/xdiscount/config"
	"github.com/luxfi/xdiscount/events"
	"github.com/luxfi/xdiscount/gateway"
	"github.com/luxfi/xdiscount/metrics"
	"github.com/luxfi/xdiscount/router"
	"github.com/luxfi/xdiscount/source"
	"github.com/luxfi/xdiscount/storage"
	"github.com/luxfi/xdiscount/utils"
)

// Options are the process-level dependencies of a Network.
type Options struct {
	Log        log.Logger
	Registerer prometheus.Registerer
	Emitter    events.Emitter
	Clock      xdiscount.Clock
}

// Network is a running devnet.
type Network struct {
	Config  *config.Config
	Router  *router.LocalRouter
	Source  *source.Coordinator
	Metrics *metrics.Metrics

	log      log.Logger
	db       storage.Database
	gateways map[xdiscount.ChainID]*gateway.Gateway
}

// New builds a network from cfg. Source state lives in LevelDB under
// cfg.DataDir, or in memory when DataDir is empty. Gateway state is always
// in memory.
func New(cfg *config.Config, opts Options) (*Network, error) {
	if opts.Log == nil {
		return nil, errors.New("devnet requires a logger")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Registerer == nil {
		opts.Registerer = prometheus.NewRegistry()
	}
	if opts.Emitter == nil {
		opts.Emitter = events.NoopEmitter{}
	}
	if opts.Clock == nil {
		opts.Clock = xdiscount.SystemClock{}
	}

	fees, err := cfg.FeeConfig()
	if err != nil {
		return nil, err
	}
	db, err := openDB(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	m := metrics.New(opts.Registerer)
	routerAddr := common.HexToAddress(cfg.Router.Address)
	lr := router.NewLocalRouter(opts.Log, m, routerAddr, fees)

	n := &Network{
		Config:   cfg,
		Router:   lr,
		Metrics:  m,
		log:      opts.Log,
		db:       db,
		gateways: make(map[xdiscount.ChainID]*gateway.Gateway, len(cfg.Destinations)),
	}
	for _, d := range cfg.Destinations {
		chainID := xdiscount.ChainID(d.ChainID)
		gw, err := gateway.New(gateway.Config{
			ChainID:   chainID,
			Address:   common.HexToAddress(d.Gateway),
			Owner:     common.HexToAddress(d.Owner),
			Router:    routerAddr,
			Log:       opts.Log,
			Emitter:   opts.Emitter,
			Metrics:   m,
			Clock:     opts.Clock,
			Instances: gateway.NewDBInstances(storage.NewMemDB()),
		})
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to create gateway for chain %d: %w", d.ChainID, err)
		}
		lr.Register(xdiscount.Selector(d.Selector), gw.Address(), gw)
		n.gateways[chainID] = gw
	}

	coordAddr := common.HexToAddress(cfg.Source.Address)
	admin := common.HexToAddress(cfg.Source.Admin)
	coord, err := source.New(source.Config{
		ChainID: xdiscount.ChainID(cfg.Source.ChainID),
		Address: coordAddr,
		Admin:   admin,
		Router:  lr.Endpoint(xdiscount.Selector(cfg.Source.Selector), coordAddr),
		DB:      db,
		GasLimits: source.GasLimits{
			Create: cfg.Source.CreateGasLimit,
			Mint:   cfg.Source.MintGasLimit,
		},
		Log:     opts.Log,
		Emitter: opts.Emitter,
		Metrics: m,
		Clock:   opts.Clock,
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := coord.SetNetworkConfig(admin, cfg.ChainIDs(), cfg.Selectors(), cfg.Gateways()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to configure networks: %w", err)
	}
	n.Source = coord

	n.log.Info("devnet started",
		log.Stringer("source", xdiscount.ChainID(cfg.Source.ChainID)),
		log.Int("destinations", len(n.gateways)),
		log.Bool("persistent", cfg.DataDir != ""),
	)
	return n, nil
}

func openDB(dataDir string) (storage.Database, error) {
	if dataDir == "" {
		return storage.NewMemDB(), nil
	}
	db, err := storage.NewLevelDB(filepath.Join(dataDir, "source"))
	if err != nil {
		return nil, fmt.Errorf("failed to open source database: %w", err)
	}
	return db, nil
}

// Gateway returns the gateway serving chainID.
func (n *Network) Gateway(chainID xdiscount.ChainID) (*gateway.Gateway, bool) {
	gw, ok := n.gateways[chainID]
	return gw, ok
}

// ChainIDs returns the destination chains in ascending order.
func (n *Network) ChainIDs() []xdiscount.ChainID {
	out := make([]xdiscount.ChainID, 0, len(n.gateways))
	for id := range n.gateways {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Close releases the source database.
func (n *Network) Close() error {
	return n.db.Close()
}

// Settle delivers every pending message, then retries each rejected one
// with exponential backoff until it applies or timeout elapses. Rejections
// caused by delivery order, such as a mint that overtook its collection's
// creation, clear on the first retry.
func (n *Network) Settle(ctx context.Context, timeout time.Duration) ([]router.Delivery, error) {
	ds, err := n.Router.DeliverAll(ctx)
	if err != nil {
		return ds, err
	}
	for _, id := range n.Router.Failed() {
		err := utils.WithRetriesTimeout(ctx, n.log, func() error {
			d, err := n.Router.Redeliver(ctx, id)
			if err != nil {
				return backoff.Permanent(err)
			}
			if d.Err != nil {
				return d.Err
			}
			ds = append(ds, d)
			return nil
		}, timeout)
		if err != nil {
			return ds, fmt.Errorf("message %s did not settle: %w", id, err)
		}
	}
	return ds, nil
}
