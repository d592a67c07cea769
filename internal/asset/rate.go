package asset

import (
	"fmt"
	"math/big"
)

// ExchangeRate converts atoms of one asset into atoms of another:
// x atoms of From are worth x * rate atoms of To.
type ExchangeRate struct {
	from *Asset
	to   *Asset
	rate *big.Rat
}

// NewExchangeRate creates a rate. The rate must be positive.
func NewExchangeRate(from, to *Asset, rate *big.Rat) (ExchangeRate, error) {
	if rate == nil || rate.Sign() <= 0 {
		return ExchangeRate{}, fmt.Errorf("%w: %s -> %s", ErrZeroRate, from.Symbol(), to.Symbol())
	}
	return ExchangeRate{from: from, to: to, rate: new(big.Rat).Set(rate)}, nil
}

// From returns the source asset.
func (r ExchangeRate) From() *Asset { return r.from }

// To returns the target asset.
func (r ExchangeRate) To() *Asset { return r.to }

// Rat returns a copy of the exact rate.
func (r ExchangeRate) Rat() *big.Rat {
	if r.rate == nil {
		return new(big.Rat)
	}
	return new(big.Rat).Set(r.rate)
}

// Convert returns floor(atoms * rate).
func (r ExchangeRate) Convert(atoms *big.Int) *big.Int {
	return MulRatFloor(atoms, r.rate)
}

// ConvertBack returns floor(atoms / rate).
func (r ExchangeRate) ConvertBack(atoms *big.Int) *big.Int {
	return MulRatFloor(atoms, new(big.Rat).Inv(r.rate))
}

// Invert returns the rate in the opposite direction.
func (r ExchangeRate) Invert() ExchangeRate {
	return ExchangeRate{from: r.to, to: r.from, rate: new(big.Rat).Inv(r.rate)}
}

// String returns a human-readable representation.
func (r ExchangeRate) String() string {
	return fmt.Sprintf("1 %s atom = %s %s atoms", r.from.Symbol(), r.rate.FloatString(6), r.to.Symbol())
}
