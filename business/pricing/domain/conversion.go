package domain

import (
	"math/big"

	"github.com/cowprotocol/solver-rewards/internal/asset"
)

// TokenConversion converts between native atoms and reward token atoms at
// one fixed rate for the whole period.
type TokenConversion struct {
	rate asset.ExchangeRate
}

// NewTokenConversion wraps a native to reward token rate.
func NewTokenConversion(rate asset.ExchangeRate) TokenConversion {
	return TokenConversion{rate: rate}
}

// Rate returns the underlying exchange rate.
func (c TokenConversion) Rate() asset.ExchangeRate {
	return c.rate
}

// NativeToToken returns floor(native * rate).
func (c TokenConversion) NativeToToken(native *big.Int) *big.Int {
	return c.rate.Convert(native)
}

// TokenToNative returns floor(atoms / rate).
func (c TokenConversion) TokenToNative(atoms *big.Int) *big.Int {
	return c.rate.ConvertBack(atoms)
}
