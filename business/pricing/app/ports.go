// Package app contains application services and port definitions for the pricing context.
package app

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// PriceSource fetches the USD price of a price feed id on a calendar day.
type PriceSource interface {
	// Name identifies the source in logs and traces.
	Name() string

	// USDPrice returns the price of one whole token on day (midnight UTC).
	// A source without a price for the day returns a PriceUnavailable error.
	USDPrice(ctx context.Context, priceID string, day time.Time) (decimal.Decimal, error)
}
