// Package asset models the tokens a payout can move and the exact integer
// arithmetic used for wei amounts.
// The core uses big.Int for amounts and big.Rat for rates.
// decimal.Decimal is only used at boundaries (display, config parsing).
package asset

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// MaxDecimals is the largest decimal scale a token may declare.
const MaxDecimals = 36

// NativeDecimals is the fixed scale of the native currency.
const NativeDecimals = 18

// Asset is a token identified by its contract address, or the native
// currency of a network, which has no address.
type Asset struct {
	address  common.Address
	native   bool
	symbol   string
	decimals uint8
	priceID  string
}

// NewToken creates an ERC20 token asset.
func NewToken(address common.Address, symbol string, decimals uint8, priceID string) *Asset {
	if address == (common.Address{}) {
		panic("asset: token address cannot be zero, use NewNative")
	}
	if decimals > MaxDecimals {
		panic(fmt.Sprintf("asset: decimals %d exceed %d", decimals, MaxDecimals))
	}
	return &Asset{
		address:  address,
		symbol:   symbol,
		decimals: decimals,
		priceID:  priceID,
	}
}

// NewNative creates the native currency asset of a network.
func NewNative(symbol string) *Asset {
	return &Asset{
		native:   true,
		symbol:   symbol,
		decimals: NativeDecimals,
	}
}

// Address returns the token contract address (zero for the native currency).
func (a *Asset) Address() common.Address {
	return a.address
}

// IsNative reports whether a is the native currency.
func (a *Asset) IsNative() bool {
	return a == nil || a.native
}

// Symbol returns the ticker symbol.
func (a *Asset) Symbol() string {
	if a == nil {
		return "NATIVE"
	}
	return a.symbol
}

// Decimals returns the number of decimal places.
func (a *Asset) Decimals() uint8 {
	if a == nil {
		return NativeDecimals
	}
	return a.decimals
}

// PriceID returns the identifier the price feed knows this token by.
func (a *Asset) PriceID() string {
	if a == nil {
		return ""
	}
	return a.priceID
}

// Key is the canonical lowercase address, or "native".
func (a *Asset) Key() string {
	if a.IsNative() {
		return "native"
	}
	return Canonical(a.address)
}

// Equals compares two assets by identity.
func (a *Asset) Equals(other *Asset) bool {
	if a.IsNative() || other.IsNative() {
		return a.IsNative() == other.IsNative()
	}
	return a.address == other.address
}

// String returns a human-readable representation.
func (a *Asset) String() string {
	if a.IsNative() {
		return a.Symbol()
	}
	return fmt.Sprintf("%s(%s)", a.symbol, Canonical(a.address))
}
