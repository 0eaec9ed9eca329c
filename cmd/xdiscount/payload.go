// Copyright (C) 2025, Lux Industries, Inc.
// See the file LICENSE for licensing terms.

package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/luxfi/geth/common"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/luxfi/xdiscount"
	"github.com/luxfi/xdiscount/payload"
)

var encodeCmd = &cobra.Command{
	Use:   "encode OP",
	Short: "Encode a destination payload as hex",
	Long: `Encode a destination payload. OP is one of createStaticCollection,
createTimeBasedCollection, mintStaticItem, mintTimeBasedItem or mintBatch.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		call, err := callFromFlags(cmd, args[0])
		if err != nil {
			return err
		}
		b, err := payload.Encode(call)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "0x%x\n", b)
		return nil
	},
}

var decodeCmd = &cobra.Command{
	Use:   "decode HEX",
	Short: "Decode a hex destination payload",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := hex.DecodeString(strings.TrimPrefix(args[0], "0x"))
		if err != nil {
			return fmt.Errorf("invalid hex data: %w", err)
		}
		call, err := payload.Parse(b)
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(struct {
			Op   string       `json:"op"`
			Args payload.Call `json:"args"`
		}{Op: call.Op().String(), Args: call}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	encodeCmd.Flags().String("name", "", "Discount name")
	encodeCmd.Flags().String("symbol", "", "Collection symbol")
	encodeCmd.Flags().UintSlice("items", nil, "Item IDs")
	encodeCmd.Flags().StringSlice("uris", nil, "Item URIs")
	encodeCmd.Flags().UintSlice("amounts", nil, "Batch amounts, one per item")
	encodeCmd.Flags().String("expired-uri", "", "Placeholder URI of inactive time-based items")
	encodeCmd.Flags().Uint64("chain", 0, "Destination chain ID")
	encodeCmd.Flags().String("to", "", "Mint recipient address")
	encodeCmd.Flags().Uint64("item", 0, "Item ID of a single mint")
	encodeCmd.Flags().Uint64("amount", 1, "Amount of a single mint")
	encodeCmd.MarkFlagRequired("name")
}

func callFromFlags(cmd *cobra.Command, op string) (payload.Call, error) {
	f := cmd.Flags()
	nameFlag, _ := f.GetString("name")
	name, err := xdiscount.NewName(nameFlag)
	if err != nil {
		return nil, err
	}
	symbol, _ := f.GetString("symbol")
	items := uint64s(f, "items")
	uris, _ := f.GetStringSlice("uris")
	amounts := uint64s(f, "amounts")
	expiredURI, _ := f.GetString("expired-uri")
	chainID, _ := f.GetUint64("chain")
	toFlag, _ := f.GetString("to")
	item, _ := f.GetUint64("item")
	amount, _ := f.GetUint64("amount")

	var to common.Address
	if toFlag != "" {
		if !common.IsHexAddress(toFlag) {
			return nil, fmt.Errorf("%w: %q", xdiscount.ErrInvalidAddress, toFlag)
		}
		to = common.HexToAddress(toFlag)
	}

	switch op {
	case payload.OpCreateStaticCollection.String():
		return &payload.CreateStaticCollection{
			Name:    name,
			Symbol:  symbol,
			ItemIDs: items,
			URIs:    uris,
			ChainID: xdiscount.ChainID(chainID),
		}, nil
	case payload.OpCreateTimeBasedCollection.String():
		return &payload.CreateTimeBasedCollection{
			Name:       name,
			Symbol:     symbol,
			ExpiredURI: expiredURI,
			ChainID:    xdiscount.ChainID(chainID),
		}, nil
	case payload.OpMintStaticItem.String():
		return &payload.MintStaticItem{Mint: payload.Mint{Name: name, To: to, ItemID: item, Amount: amount}}, nil
	case payload.OpMintTimeBasedItem.String():
		return &payload.MintTimeBasedItem{Mint: payload.Mint{Name: name, To: to, ItemID: item, Amount: amount}}, nil
	case payload.OpMintBatch.String():
		return &payload.MintBatch{Name: name, To: to, ItemIDs: items, Amounts: amounts}, nil
	default:
		return nil, fmt.Errorf("%w: %q", xdiscount.ErrUnknownOperation, op)
	}
}

func uint64s(f *pflag.FlagSet, name string) []uint64 {
	vs, _ := f.GetUintSlice(name)
	if vs == nil {
		return nil
	}
	out := make([]uint64, len(vs))
	for i, v := range vs {
		out[i] = uint64(v)
	}
	return out
}
