// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/xdiscount"
)

func writeConfig(t *testing.T, contents string) string {
	path := filepath.Join(t.TempDir(), "xdiscount.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	require := require.New(t)
	path := writeConfig(t, `LogLevel = "debug"
DataDir = "./data"

[Source]
ChainID = 1
Selector = 1
Address = "0x00000000000000000000000000000000000000c0"
Admin = "0x00000000000000000000000000000000000000ad"

[Router]
Address = "0x00000000000000000000000000000000000000a0"
BaseFee = "1000000000000000000000"

[[Destinations]]
ChainID = 137
Selector = 9001
Gateway = "0x0000000000000000000000000000000000000137"
Owner = "0x00000000000000000000000000000000000000ad"

[[Destinations]]
ChainID = 56
Selector = 9002
Gateway = "0x0000000000000000000000000000000000000056"
Owner = "0x00000000000000000000000000000000000000ad"
`)
	cfg, err := Load(path)
	require.NoError(err)
	require.Equal("debug", cfg.LogLevel)
	require.Equal("./data", cfg.DataDir)
	require.Equal(uint64(defaultCreateGas), cfg.Source.CreateGasLimit)
	require.Equal(uint64(defaultMintGas), cfg.Source.MintGasLimit)

	fees, err := cfg.FeeConfig()
	require.NoError(err)
	want, err := uint256.FromDecimal("1000000000000000000000")
	require.NoError(err)
	require.Equal(want, fees.Base)
	require.Equal(uint256.NewInt(16), fees.PerByte)

	require.Equal([]xdiscount.ChainID{137, 56}, cfg.ChainIDs())
	require.Equal([]xdiscount.Selector{9001, 9002}, cfg.Selectors())
	require.Equal(common.HexToAddress("0x0000000000000000000000000000000000000056"), cfg.Gateways()[1])
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, `LogLevel = "info"
Verbose = true
`)
	_, err := Load(path)
	require.ErrorIs(t, err, ErrInvalidConfig)
	require.ErrorContains(t, err, "Verbose")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{name: "log level", modify: func(c *Config) { c.LogLevel = "loud" }},
		{name: "source selector", modify: func(c *Config) { c.Source.Selector = 0 }},
		{name: "source address", modify: func(c *Config) { c.Source.Address = "not-an-address" }},
		{name: "zero admin", modify: func(c *Config) { c.Source.Admin = "0x0000000000000000000000000000000000000000" }},
		{name: "fee", modify: func(c *Config) { c.Router.PerGasFee = "ten" }},
		{name: "no destinations", modify: func(c *Config) { c.Destinations = nil }},
		{name: "selector reuses source", modify: func(c *Config) { c.Destinations[0].Selector = c.Source.Selector }},
		{name: "gateway", modify: func(c *Config) { c.Destinations[0].Gateway = "" }},
		{name: "repeated chain", modify: func(c *Config) {
			d := c.Destinations[0]
			d.Selector++
			c.Destinations = append(c.Destinations, d)
		}},
		{name: "repeated selector", modify: func(c *Config) {
			d := c.Destinations[0]
			d.ChainID++
			c.Destinations = append(c.Destinations, d)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
	require.NoError(t, Default().Validate())
}

func TestWriteRoundTrip(t *testing.T) {
	require := require.New(t)
	path := filepath.Join(t.TempDir(), "nested", "xdiscount.toml")
	require.NoError(Write(path, Default()))

	cfg, err := Load(path)
	require.NoError(err)
	require.Equal(Default(), cfg)
}
