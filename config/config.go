// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Package config loads the TOML description of a devnet: the source
// coordinator, the router fee model and every destination gateway.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/luxfi/xdiscount"
	"github.com/luxfi/xdiscount/router"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	LogLevel     string              `toml:"LogLevel"`
	DataDir      string              `toml:"DataDir"`
	Source       SourceConfig        `toml:"Source"`
	Router       RouterConfig        `toml:"Router"`
	Destinations []DestinationConfig `toml:"Destinations"`
}

// SourceConfig describes the coordinator chain.
type SourceConfig struct {
	ChainID        uint64 `toml:"ChainID"`
	Selector       uint64 `toml:"Selector"`
	Address        string `toml:"Address"`
	Admin          string `toml:"Admin"`
	CreateGasLimit uint64 `toml:"CreateGasLimit"`
	MintGasLimit   uint64 `toml:"MintGasLimit"`
}

// RouterConfig holds the fee model. Amounts are decimal strings so they
// are not limited to 64 bits.
type RouterConfig struct {
	Address    string `toml:"Address"`
	BaseFee    string `toml:"BaseFee"`
	PerByteFee string `toml:"PerByteFee"`
	PerGasFee  string `toml:"PerGasFee"`
}

// DestinationConfig is one chain with a gateway.
type DestinationConfig struct {
	ChainID  uint64 `toml:"ChainID"`
	Selector uint64 `toml:"Selector"`
	Gateway  string `toml:"Gateway"`
	Owner    string `toml:"Owner"`
}

// Default returns a single-destination devnet.
func Default() *Config {
	return &Config{
		LogLevel: defaultLogLevel,
		Source: SourceConfig{
			ChainID:        defaultSourceChainID,
			Selector:       defaultSourceSelector,
			Address:        "0x00000000000000000000000000000000000c0de1",
			Admin:          "0x000000000000000000000000000000000000ad01",
			CreateGasLimit: defaultCreateGas,
			MintGasLimit:   defaultMintGas,
		},
		Router: RouterConfig{
			Address:    "0x0000000000000000000000000000000000000a11",
			BaseFee:    defaultBaseFee,
			PerByteFee: defaultPerByteFee,
			PerGasFee:  defaultPerGasFee,
		},
		Destinations: []DestinationConfig{{
			ChainID:  137,
			Selector: 9001,
			Gateway:  "0x00000000000000000000000000000000000009a7",
			Owner:    "0x000000000000000000000000000000000000ad01",
		}},
	}
}

// Load reads the configuration at path. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%w: unknown keys in %s: %s", ErrInvalidConfig, path, strings.Join(keys, ", "))
	}
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Write encodes cfg to path, creating parent directories.
func Write(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

func (c *Config) setDefaults() {
	if strings.TrimSpace(c.LogLevel) == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.Source.CreateGasLimit == 0 {
		c.Source.CreateGasLimit = defaultCreateGas
	}
	if c.Source.MintGasLimit == 0 {
		c.Source.MintGasLimit = defaultMintGas
	}
	if c.Router.BaseFee == "" {
		c.Router.BaseFee = defaultBaseFee
	}
	if c.Router.PerByteFee == "" {
		c.Router.PerByteFee = defaultPerByteFee
	}
	if c.Router.PerGasFee == "" {
		c.Router.PerGasFee = defaultPerGasFee
	}
}

// Validate checks that every address parses, every chain is named once and
// every selector is unique across the devnet.
func (c *Config) Validate() error {
	if _, ok := logLevels[strings.ToLower(c.LogLevel)]; !ok {
		return fmt.Errorf("%w: log level %q", ErrInvalidConfig, c.LogLevel)
	}
	if c.Source.Selector == 0 {
		return fmt.Errorf("%w: source selector must be set", ErrInvalidConfig)
	}
	for field, addr := range map[string]string{
		"Source.Address": c.Source.Address,
		"Source.Admin":   c.Source.Admin,
		"Router.Address": c.Router.Address,
	} {
		if err := checkAddress(field, addr); err != nil {
			return err
		}
	}
	if _, err := c.FeeConfig(); err != nil {
		return err
	}
	if len(c.Destinations) == 0 {
		return fmt.Errorf("%w: no destinations", ErrInvalidConfig)
	}

	chains := make(map[uint64]struct{}, len(c.Destinations))
	selectors := map[uint64]struct{}{c.Source.Selector: {}}
	for i, d := range c.Destinations {
		if _, ok := chains[d.ChainID]; ok {
			return fmt.Errorf("%w: destination %d repeats chain %d", ErrInvalidConfig, i, d.ChainID)
		}
		chains[d.ChainID] = struct{}{}
		if d.Selector == 0 {
			return fmt.Errorf("%w: destination %d has no selector", ErrInvalidConfig, i)
		}
		if _, ok := selectors[d.Selector]; ok {
			return fmt.Errorf("%w: destination %d reuses selector %d", ErrInvalidConfig, i, d.Selector)
		}
		selectors[d.Selector] = struct{}{}
		if err := checkAddress(fmt.Sprintf("Destinations[%d].Gateway", i), d.Gateway); err != nil {
			return err
		}
		if err := checkAddress(fmt.Sprintf("Destinations[%d].Owner", i), d.Owner); err != nil {
			return err
		}
	}
	return nil
}

// FeeConfig parses the router fee model.
func (c *Config) FeeConfig() (router.FeeConfig, error) {
	var (
		fees router.FeeConfig
		err  error
	)
	if fees.Base, err = parseAmount("Router.BaseFee", c.Router.BaseFee); err != nil {
		return fees, err
	}
	if fees.PerByte, err = parseAmount("Router.PerByteFee", c.Router.PerByteFee); err != nil {
		return fees, err
	}
	if fees.PerGas, err = parseAmount("Router.PerGasFee", c.Router.PerGasFee); err != nil {
		return fees, err
	}
	return fees, nil
}

// ChainIDs, Selectors and Gateways return the destination columns in the
// shape SetNetworkConfig takes.
func (c *Config) ChainIDs() []xdiscount.ChainID {
	out := make([]xdiscount.ChainID, len(c.Destinations))
	for i, d := range c.Destinations {
		out[i] = xdiscount.ChainID(d.ChainID)
	}
	return out
}

func (c *Config) Selectors() []xdiscount.Selector {
	out := make([]xdiscount.Selector, len(c.Destinations))
	for i, d := range c.Destinations {
		out[i] = xdiscount.Selector(d.Selector)
	}
	return out
}

func (c *Config) Gateways() []common.Address {
	out := make([]common.Address, len(c.Destinations))
	for i, d := range c.Destinations {
		out[i] = common.HexToAddress(d.Gateway)
	}
	return out
}

func checkAddress(field, s string) error {
	if !common.IsHexAddress(s) {
		return fmt.Errorf("%w: %s is not an address: %q", ErrInvalidConfig, field, s)
	}
	if common.HexToAddress(s) == (common.Address{}) {
		return fmt.Errorf("%w: %s is the zero address", ErrInvalidConfig, field)
	}
	return nil
}

func parseAmount(field, s string) (*uint256.Int, error) {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, field, err)
	}
	return v, nil
}
