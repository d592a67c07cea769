package asset

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// ----------------------------------------------------------------------------
// Parsing
// ----------------------------------------------------------------------------

// ParseWei parses a signed integer amount. Integral values written in decimal
// or scientific notation ("95000000.0", "1e18") are accepted.
func ParseWei(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	if v, ok := new(big.Int).SetString(s, 10); ok {
		return v, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if !d.IsInteger() {
		return nil, fmt.Errorf("%w: %q is not integral", ErrInvalidAmount, s)
	}
	return d.BigInt(), nil
}

// MustParseWei is ParseWei for literals.
func MustParseWei(s string) *big.Int {
	v, err := ParseWei(s)
	if err != nil {
		panic(err)
	}
	return v
}

// ParseRat parses a decimal string such as "0.0048" into an exact rational.
func ParseRat(s string) (*big.Rat, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("asset: invalid rational %q: %w", s, err)
	}
	return d.Rat(), nil
}

// MustParseRat is ParseRat for literals.
func MustParseRat(s string) *big.Rat {
	r, err := ParseRat(s)
	if err != nil {
		panic(err)
	}
	return r
}

// ----------------------------------------------------------------------------
// Exact arithmetic
// ----------------------------------------------------------------------------

// FloorDiv returns floor(num / den). den must be non-zero.
func FloorDiv(num, den *big.Int) *big.Int {
	n, d := new(big.Int).Set(num), new(big.Int).Set(den)
	if d.Sign() < 0 {
		n.Neg(n)
		d.Neg(d)
	}
	// Euclidean division floors for a positive divisor.
	return n.Div(n, d)
}

// FloorRat returns the largest integer not above r.
func FloorRat(r *big.Rat) *big.Int {
	return FloorDiv(r.Num(), r.Denom())
}

// MulRatFloor returns floor(x * r).
func MulRatFloor(x *big.Int, r *big.Rat) *big.Int {
	num := new(big.Int).Mul(x, r.Num())
	return FloorDiv(num, r.Denom())
}

// Rat lifts an integer into a rational.
func Rat(x *big.Int) *big.Rat {
	return new(big.Rat).SetInt(x)
}

// Sum adds all values. Nil entries count as zero.
func Sum(xs ...*big.Int) *big.Int {
	total := new(big.Int)
	for _, x := range xs {
		if x != nil {
			total.Add(total, x)
		}
	}
	return total
}

// MinInt returns a copy of the smaller value.
func MinInt(a, b *big.Int) *big.Int {
	if a.Cmp(b) <= 0 {
		return new(big.Int).Set(a)
	}
	return new(big.Int).Set(b)
}

// MaxInt returns a copy of the larger value.
func MaxInt(a, b *big.Int) *big.Int {
	if a.Cmp(b) >= 0 {
		return new(big.Int).Set(a)
	}
	return new(big.Int).Set(b)
}

// ----------------------------------------------------------------------------
// Display
// ----------------------------------------------------------------------------

// FormatUnits converts atoms into token units for display.
func FormatUnits(atoms *big.Int, decimals uint8) decimal.Decimal {
	if atoms == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(atoms, -int32(decimals))
}

// FormatETH renders wei as ETH with four decimals.
func FormatETH(wei *big.Int) string {
	return FormatUnits(wei, NativeDecimals).StringFixed(4)
}
