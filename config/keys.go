// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package config

const (
	// Command line option keys
	ConfigFileKey = "config"
	LogLevelKey   = "log-level"
	DataDirKey    = "data-dir"

	// Environment variable keys
	ConfigFileEnvKey = "XDISCOUNT_CONFIG"
)

const (
	defaultLogLevel       = "info"
	defaultSourceChainID  = 1
	defaultSourceSelector = 1
	defaultCreateGas      = 3_000_000
	defaultMintGas        = 300_000
	defaultBaseFee        = "100000"
	defaultPerByteFee     = "16"
	defaultPerGasFee      = "1"
)

var logLevels = map[string]struct{}{
	"trace": {},
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
	"crit":  {},
}
