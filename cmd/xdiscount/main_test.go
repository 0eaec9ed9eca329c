// Copyright (C) 2025, Lux Industries, Inc.
// See the file LICENSE for licensing terms.

package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/xdiscount"
	"github.com/luxfi/xdiscount/config"
)

func run(t *testing.T, args ...string) (string, error) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	// Flags persist on the package-level commands between runs.
	rootCmd.SetArgs(nil)
	return out.String(), err
}

func TestNameCommand(t *testing.T) {
	out, err := run(t, "name", "ACME")
	require.NoError(t, err)
	require.Equal(t, xdiscount.MustName("ACME").Hex()+"\n", out)

	_, err = run(t, "name", strings.Repeat("x", 33))
	require.ErrorIs(t, err, xdiscount.ErrNameTooLong)
}

func TestEncodeDecode(t *testing.T) {
	require := require.New(t)
	out, err := run(t, "encode", "mintStaticItem",
		"--name", "ACME",
		"--to", "0x00000000000000000000000000000000000a11ce",
		"--item", "2",
	)
	require.NoError(err)
	encoded := strings.TrimSpace(out)
	require.True(strings.HasPrefix(encoded, "0x"))

	out, err = run(t, "decode", encoded)
	require.NoError(err)
	require.Contains(out, `"op": "mintStaticItem"`)
	require.Contains(out, `"ItemID": 2`)
	require.Contains(out, `"Name": "ACME"`)

	_, err = run(t, "encode", "burn", "--name", "ACME")
	require.ErrorIs(err, xdiscount.ErrUnknownOperation)

	_, err = run(t, "decode", "0xzz")
	require.Error(err)
}

func TestSimulate(t *testing.T) {
	require := require.New(t)
	path := filepath.Join(t.TempDir(), "xdiscount.toml")
	_, err := run(t, "init-config", path)
	require.NoError(err)

	out, err := run(t, "simulate", "--config", path, "--log-level", "error")
	require.NoError(err)
	require.Contains(out, "Discount ACME on chain 137")
	require.Contains(out, "(minted 1)")

	_, err = run(t, "simulate", "--config", path, "--chain", "5")
	require.ErrorIs(err, xdiscount.ErrUnconfiguredChain)
	// The previous run set --chain on the shared command.
	require.NoError(simulateCmd.Flags().Set("chain", "0"))

	out, err = run(t, "quote", "--config", path, "--name", "ACME", "--items", "1", "--uris", "a")
	require.NoError(err)
	require.NotEmpty(strings.TrimSpace(out))

	_, err = run(t, "simulate", "--config", filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(err)
	require.NoError(rootCmd.PersistentFlags().Set(config.ConfigFileKey, ""))
}
