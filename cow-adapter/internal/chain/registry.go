package chain

import (
	"sort"

	"github.com/ethereum/go-ethereum/common"
)

// Well-known chain IDs served by the CoW Protocol order book.
const (
	Mainnet     uint64 = 1
	Gnosis      uint64 = 100
	Base        uint64 = 8453
	ArbitrumOne uint64 = 42161
	Sepolia     uint64 = 11155111
)

var (
	// NativeAsset is the sentinel token address the protocol uses for a chain's base currency.
	NativeAsset = common.HexToAddress("0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE")

	// SettlementContract is GPv2Settlement, the presignature target. Same address on every chain.
	SettlementContract = common.HexToAddress("0x9008D19f58AAbD9eD0D60971565AA8510560ab41")

	// VaultRelayer is GPv2VaultRelayer, the spender sell tokens must be approved for.
	VaultRelayer = common.HexToAddress("0xC92E8bdf79f0507f65a392b0ab4667716BFE0110")
)

// Chain describes one supported network.
type Chain struct {
	ID             uint64
	Name           string
	WrappedNative  common.Address // canonical ERC-20 wrapper of the native asset (WETH, WXDAI)
	OrderbookURL   string         // default order-book API base URL
	ExplorerPrefix string         // path prefix on explorer.cow.fi, empty for mainnet
}

var registry = map[uint64]Chain{
	Mainnet: {
		ID:            Mainnet,
		Name:          "mainnet",
		WrappedNative: common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"),
		OrderbookURL:  "https://api.cow.fi/mainnet",
	},
	Gnosis: {
		ID:             Gnosis,
		Name:           "gnosis",
		WrappedNative:  common.HexToAddress("0xe91D153E0b41518A2Ce8Dd3D7944Fa863463a97d"),
		OrderbookURL:   "https://api.cow.fi/xdai",
		ExplorerPrefix: "gc/",
	},
	Base: {
		ID:             Base,
		Name:           "base",
		WrappedNative:  common.HexToAddress("0x4200000000000000000000000000000000000006"),
		OrderbookURL:   "https://api.cow.fi/base",
		ExplorerPrefix: "base/",
	},
	ArbitrumOne: {
		ID:             ArbitrumOne,
		Name:           "arbitrum_one",
		WrappedNative:  common.HexToAddress("0x82aF49447D8a07e3bd95BD0d56f35241523fBab1"),
		OrderbookURL:   "https://api.cow.fi/arbitrum_one",
		ExplorerPrefix: "arb1/",
	},
	Sepolia: {
		ID:             Sepolia,
		Name:           "sepolia",
		WrappedNative:  common.HexToAddress("0xfFf9976782d46CC05630D1f6eBAb18b2324d6B14"),
		OrderbookURL:   "https://api.cow.fi/sepolia",
		ExplorerPrefix: "sepolia/",
	},
}

// Lookup returns the registry entry for chainID.
func Lookup(chainID uint64) (Chain, bool) {
	c, ok := registry[chainID]
	return c, ok
}

// IsNativeAsset reports whether token is the native-asset sentinel.
// Address comparison is on bytes, so checksum casing is irrelevant.
func IsNativeAsset(token common.Address) bool {
	return token == NativeAsset
}

// SupportedChainIDs returns every registered chain ID in ascending order.
func SupportedChainIDs() []uint64 {
	ids := make([]uint64, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ExplorerOrderURL is the scheme-less CoW Explorer link for an order,
// e.g. "explorer.cow.fi/gc/orders/0x...".
func (c Chain) ExplorerOrderURL(uid string) string {
	return "explorer.cow.fi/" + c.ExplorerPrefix + "orders/" + uid
}
