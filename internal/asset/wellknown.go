package asset

import (
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
)

// Chain IDs
const (
	ChainIDEthereum  = 1
	ChainIDGnosis    = 100
	ChainIDArbitrum  = 42161
	ChainIDBase      = 8453
	ChainIDAvalanche = 43114
	ChainIDPolygon   = 137
	ChainIDLens      = 232
	ChainIDBSC       = 56
	ChainIDLinea     = 59144
	ChainIDPlasma    = 9745
)

// Price feed identifiers
const (
	PriceIDETH  = "eth-ethereum"
	PriceIDXDAI = "dai-dai"
	PriceIDCOW  = "cow-cow-protocol-token"
	PriceIDUSDC = "usdc-usd-coin"
	PriceIDAVAX = "avax-avalanche"
	PriceIDPOL  = "pol-polygon-ecosystem-token"
	PriceIDGHO  = "gho-gho"
	PriceIDBNB  = "bnb-bnb"
	PriceIDXPL  = "xpl-plasma"
)

// Network describes the per-chain constants a payout run needs.
type Network struct {
	Name           string
	ChainID        uint64
	NativeSymbol   string
	WrappedNative  common.Address
	WrappedETH     common.Address
	RewardToken    common.Address // zero when the network has no bridged COW
	DuneBlockchain string
	SafeShortName  string
	tokens         []*Asset
}

// Registry builds the token registry of the network.
func (n Network) Registry() *Registry {
	r := NewRegistry(NewNative(n.NativeSymbol))
	for _, t := range n.tokens {
		r.Register(t)
	}
	return r
}

func token(addr, symbol string, decimals uint8, priceID string) *Asset {
	return NewToken(MustParseAddress(addr), symbol, decimals, priceID)
}

var networks = map[string]Network{
	"mainnet": {
		Name:           "mainnet",
		ChainID:        ChainIDEthereum,
		NativeSymbol:   "ETH",
		WrappedNative:  MustParseAddress("0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2"),
		WrappedETH:     MustParseAddress("0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2"),
		RewardToken:    MustParseAddress("0xDEf1CA1fb7FBcDC777520aa7f396b4E015F497aB"),
		DuneBlockchain: "ethereum",
		SafeShortName:  "eth",
		tokens: []*Asset{
			token("0xDEf1CA1fb7FBcDC777520aa7f396b4E015F497aB", "COW", 18, PriceIDCOW),
			token("0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2", "WETH", 18, PriceIDETH),
			token("0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", "USDC", 6, PriceIDUSDC),
		},
	},
	"gnosis": {
		Name:           "gnosis",
		ChainID:        ChainIDGnosis,
		NativeSymbol:   "xDAI",
		WrappedNative:  MustParseAddress("0xe91d153e0b41518a2ce8dd3d7944fa863463a97d"),
		WrappedETH:     MustParseAddress("0x6a023ccd1ff6f2045c3309768ead9e68f978f6e1"),
		RewardToken:    MustParseAddress("0x177127622c4a00f3d409b75571e12cb3c8973d3c"),
		DuneBlockchain: "gnosis",
		SafeShortName:  "gno",
		tokens: []*Asset{
			token("0x177127622c4a00f3d409b75571e12cb3c8973d3c", "COW", 18, PriceIDCOW),
			token("0x6a023ccd1ff6f2045c3309768ead9e68f978f6e1", "WETH", 18, PriceIDETH),
			token("0xe91d153e0b41518a2ce8dd3d7944fa863463a97d", "WXDAI", 18, PriceIDXDAI),
		},
	},
	"arbitrum": {
		Name:           "arbitrum",
		ChainID:        ChainIDArbitrum,
		NativeSymbol:   "ETH",
		WrappedNative:  MustParseAddress("0x82af49447d8a07e3bd95bd0d56f35241523fbab1"),
		WrappedETH:     MustParseAddress("0x82af49447d8a07e3bd95bd0d56f35241523fbab1"),
		RewardToken:    MustParseAddress("0xcb8b5cd20bdcaea9a010ac1f8d835824f5c87a04"),
		DuneBlockchain: "arbitrum",
		SafeShortName:  "arb1",
		tokens: []*Asset{
			token("0xcb8b5cd20bdcaea9a010ac1f8d835824f5c87a04", "COW", 18, PriceIDCOW),
			token("0x82af49447d8a07e3bd95bd0d56f35241523fbab1", "WETH", 18, PriceIDETH),
		},
	},
	"base": {
		Name:           "base",
		ChainID:        ChainIDBase,
		NativeSymbol:   "ETH",
		WrappedNative:  MustParseAddress("0x4200000000000000000000000000000000000006"),
		WrappedETH:     MustParseAddress("0x4200000000000000000000000000000000000006"),
		DuneBlockchain: "base",
		SafeShortName:  "base",
		tokens: []*Asset{
			token("0x4200000000000000000000000000000000000006", "WETH", 18, PriceIDETH),
		},
	},
	"avalanche": {
		Name:           "avalanche",
		ChainID:        ChainIDAvalanche,
		NativeSymbol:   "AVAX",
		WrappedNative:  MustParseAddress("0xB31f66AA3C1e785363F0875A1B74E27b85FD66c7"),
		WrappedETH:     MustParseAddress("0x49D5c2BdFfac6CE2BFdB6640F4F80f226bc10bAB"),
		DuneBlockchain: "avalanche_c",
		SafeShortName:  "avax",
		tokens: []*Asset{
			token("0xB31f66AA3C1e785363F0875A1B74E27b85FD66c7", "WAVAX", 18, PriceIDAVAX),
			token("0x49D5c2BdFfac6CE2BFdB6640F4F80f226bc10bAB", "WETH.e", 18, PriceIDETH),
		},
	},
	"polygon": {
		Name:           "polygon",
		ChainID:        ChainIDPolygon,
		NativeSymbol:   "POL",
		WrappedNative:  MustParseAddress("0x0d500B1d8E8eF31E21C99d1Db9A6444d3ADf1270"),
		WrappedETH:     MustParseAddress("0x7ceB23fD6bC0adD59E62ac25578270cFf1b9f619"),
		DuneBlockchain: "polygon",
		SafeShortName:  "matic",
		tokens: []*Asset{
			token("0x0d500B1d8E8eF31E21C99d1Db9A6444d3ADf1270", "WPOL", 18, PriceIDPOL),
			token("0x7ceB23fD6bC0adD59E62ac25578270cFf1b9f619", "WETH", 18, PriceIDETH),
		},
	},
	"lens": {
		Name:           "lens",
		ChainID:        ChainIDLens,
		NativeSymbol:   "GHO",
		WrappedNative:  MustParseAddress("0x6bDc36E20D267Ff0dd6097799f82e78907105e2F"),
		WrappedETH:     MustParseAddress("0xe5ecd226b3032910ceaa43ba92ee8232f8237553"),
		DuneBlockchain: "lens",
		SafeShortName:  "lens",
		tokens: []*Asset{
			token("0x6bDc36E20D267Ff0dd6097799f82e78907105e2F", "WGHO", 18, PriceIDGHO),
			token("0xe5ecd226b3032910ceaa43ba92ee8232f8237553", "WETH", 18, PriceIDETH),
		},
	},
	"bnb": {
		Name:           "bnb",
		ChainID:        ChainIDBSC,
		NativeSymbol:   "BNB",
		WrappedNative:  MustParseAddress("0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c"),
		WrappedETH:     MustParseAddress("0x4db5a66e937a9f4473fa95b1caf1d1e1d62e29ea"),
		DuneBlockchain: "bnb",
		SafeShortName:  "bnb",
		tokens: []*Asset{
			token("0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c", "WBNB", 18, PriceIDBNB),
			token("0x4db5a66e937a9f4473fa95b1caf1d1e1d62e29ea", "ETH", 18, PriceIDETH),
		},
	},
	"linea": {
		Name:           "linea",
		ChainID:        ChainIDLinea,
		NativeSymbol:   "ETH",
		WrappedNative:  MustParseAddress("0xe5D7C2a44FfDDf6b295A15c148167daaAf5Cf34f"),
		WrappedETH:     MustParseAddress("0xe5D7C2a44FfDDf6b295A15c148167daaAf5Cf34f"),
		DuneBlockchain: "linea",
		SafeShortName:  "linea",
		tokens: []*Asset{
			token("0xe5D7C2a44FfDDf6b295A15c148167daaAf5Cf34f", "WETH", 18, PriceIDETH),
		},
	},
	"plasma": {
		Name:           "plasma",
		ChainID:        ChainIDPlasma,
		NativeSymbol:   "XPL",
		WrappedNative:  MustParseAddress("0x6100e367285b01f48d07953803a2d8dca5d19873"),
		WrappedETH:     MustParseAddress("0x9895d81bb462a195b4922ed7de0e3acd007c32cb"),
		DuneBlockchain: "plasma",
		SafeShortName:  "plasma",
		tokens: []*Asset{
			token("0x6100e367285b01f48d07953803a2d8dca5d19873", "WXPL", 18, PriceIDXPL),
			token("0x9895d81bb462a195b4922ed7de0e3acd007c32cb", "WETH", 18, PriceIDETH),
		},
	},
}

// LookupNetwork returns the constants of a supported network.
func LookupNetwork(name string) (Network, error) {
	n, ok := networks[name]
	if !ok {
		return Network{}, fmt.Errorf("asset: unsupported network %q", name)
	}
	return n, nil
}

// NetworkNames lists the supported networks.
func NetworkNames() []string {
	names := make([]string, 0, len(networks))
	for name := range networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
