// Copyright (C) 2025, Lux Industries, Inc.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/luxfi/xdiscount"
	"github.com/luxfi/xdiscount/config"
	"github.com/luxfi/xdiscount/devnet"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "xdiscount",
	Short: "Cross-chain discount token devnet and payload tools",
	Long: `xdiscount runs a local devnet of one source coordinator and its
destination gateways, and encodes, decodes and prices the payloads they
exchange.`,
	Version:       fmt.Sprintf("%s (built %s)", version, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String(config.ConfigFileKey, os.Getenv(config.ConfigFileEnvKey), "Path to a TOML config file (defaults to a built-in devnet)")
	rootCmd.PersistentFlags().String(config.LogLevelKey, "", "Log level (trace, debug, info, warn, error, crit)")

	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(quoteCmd)
	rootCmd.AddCommand(encodeCmd)
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(nameCmd)
	rootCmd.AddCommand(initConfigCmd)
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Create a static discount, grant claims and redeem them on a devnet",
	RunE: func(cmd *cobra.Command, _ []string) error {
		n, err := openNetwork(cmd)
		if err != nil {
			return err
		}
		defer n.Close()

		s := n.DefaultScenario()
		if name, _ := cmd.Flags().GetString("name"); name != "" {
			if s.Name, err = xdiscount.NewName(name); err != nil {
				return err
			}
		}
		if chainID, _ := cmd.Flags().GetUint64("chain"); chainID != 0 {
			s.ChainID = xdiscount.ChainID(chainID)
		}

		report, err := n.Run(cmd.Context(), s)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Discount %s on chain %s:\n", s.Name, s.ChainID)
		fmt.Fprintf(out, "  Create message: %s (fee %s)\n", report.CreateID, report.CreateFee.Dec())
		for i, id := range report.ClaimIDs {
			user := s.Users[i]
			fmt.Fprintf(out, "  Claim by %s: %s (minted %d)\n", user.Hex(), id, report.Minted[user])
		}
		fmt.Fprintf(out, "  Deliveries: %d\n", len(report.Deliveries))
		fmt.Fprintf(out, "  Router collected: %s\n", n.Router.Collected().Dec())
		return nil
	},
}

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Price a static discount creation on a configured chain",
	RunE: func(cmd *cobra.Command, _ []string) error {
		n, err := openNetwork(cmd)
		if err != nil {
			return err
		}
		defer n.Close()

		nameFlag, _ := cmd.Flags().GetString("name")
		name, err := xdiscount.NewName(nameFlag)
		if err != nil {
			return err
		}
		symbol, _ := cmd.Flags().GetString("symbol")
		itemIDs := uint64s(cmd.Flags(), "items")
		uris, _ := cmd.Flags().GetStringSlice("uris")
		chainID, _ := cmd.Flags().GetUint64("chain")
		if chainID == 0 {
			chainID = uint64(n.ChainIDs()[0])
		}

		fee, err := n.Source.GetCreateStaticFee(cmd.Context(), name, symbol, itemIDs, uris, xdiscount.ChainID(chainID))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), fee.Dec())
		return nil
	},
}

var nameCmd = &cobra.Command{
	Use:   "name NAME",
	Short: "Print the canonical 32-byte form of a discount name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := xdiscount.NewName(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), name.Hex())
		return nil
	},
}

var initConfigCmd = &cobra.Command{
	Use:   "init-config PATH",
	Short: "Write the built-in devnet config to PATH",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Write(args[0], config.Default()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", args[0])
		return nil
	},
}

func init() {
	simulateCmd.Flags().String("name", "", "Discount name (defaults to ACME)")
	simulateCmd.Flags().Uint64("chain", 0, "Destination chain ID (defaults to the first configured)")

	quoteCmd.Flags().String("name", "", "Discount name")
	quoteCmd.Flags().String("symbol", "", "Collection symbol")
	quoteCmd.Flags().UintSlice("items", nil, "Item IDs")
	quoteCmd.Flags().StringSlice("uris", nil, "Item URIs, one per item")
	quoteCmd.Flags().Uint64("chain", 0, "Destination chain ID (defaults to the first configured)")
	quoteCmd.MarkFlagRequired("name")
	quoteCmd.MarkFlagRequired("items")
	quoteCmd.MarkFlagRequired("uris")
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString(config.ConfigFileKey)
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}
	if lvl, _ := cmd.Flags().GetString(config.LogLevelKey); lvl != "" {
		cfg.LogLevel = lvl
	}
	return cfg, cfg.Validate()
}

func openNetwork(cmd *cobra.Command) (*devnet.Network, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if cmd.Context() == nil {
		cmd.SetContext(context.Background())
	}
	return devnet.New(cfg, devnet.Options{
		Log:        newLogger(cfg.LogLevel),
		Registerer: prometheus.NewRegistry(),
	})
}

func newLogger(level string) log.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "trace", "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error", "crit":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return log.NewLoggerFromHandler(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
