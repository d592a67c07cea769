// Package domain contains the core domain types for the pricing context.
package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// PriceKey identifies one memoized price.
type PriceKey struct {
	PriceID string
	Day     time.Time
}

// NewPriceKey builds the key for priceID on the day containing t.
func NewPriceKey(priceID string, t time.Time) PriceKey {
	return PriceKey{PriceID: priceID, Day: Day(t)}
}

func (k PriceKey) String() string {
	return fmt.Sprintf("%s@%s", k.PriceID, k.Day.Format(time.DateOnly))
}

// USDPrice is the daily USD price of one token unit.
type USDPrice struct {
	Key    PriceKey
	USD    decimal.Decimal
	Source string
}
