// Package static serves prices from configuration, for offline runs.
package static

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cowprotocol/solver-rewards/business/pricing/app"
	"github.com/cowprotocol/solver-rewards/business/pricing/domain"
	"github.com/cowprotocol/solver-rewards/internal/apperror"
)

// Price is one configured entry. A zero Day applies to every day.
type Price struct {
	PriceID string
	Day     time.Time
	USD     decimal.Decimal
}

// Provider implements app.PriceSource from a fixed table.
type Provider struct {
	daily   map[domain.PriceKey]decimal.Decimal
	anyDay  map[string]decimal.Decimal
	fetches int
}

var _ app.PriceSource = (*Provider)(nil)

// NewProvider creates a static price source.
func NewProvider(prices []Price) *Provider {
	p := &Provider{
		daily:  make(map[domain.PriceKey]decimal.Decimal),
		anyDay: make(map[string]decimal.Decimal),
	}
	for _, price := range prices {
		id := strings.ToLower(price.PriceID)
		if price.Day.IsZero() {
			p.anyDay[id] = price.USD
			continue
		}
		p.daily[domain.NewPriceKey(id, price.Day)] = price.USD
	}
	return p
}

// Name implements app.PriceSource.
func (p *Provider) Name() string { return "static" }

// USDPrice implements app.PriceSource. A price for the exact day wins over
// an every-day price.
func (p *Provider) USDPrice(_ context.Context, priceID string, day time.Time) (decimal.Decimal, error) {
	p.fetches++
	id := strings.ToLower(priceID)
	if v, ok := p.daily[domain.NewPriceKey(id, day)]; ok {
		return v, nil
	}
	if v, ok := p.anyDay[id]; ok {
		return v, nil
	}
	return decimal.Zero, apperror.New(apperror.CodePriceUnavailable,
		apperror.WithComponent(apperror.ComponentPricing),
		apperror.WithContext(fmt.Sprintf("no static price for %s on %s", priceID, day.Format(time.DateOnly))),
	)
}

// Fetches returns how many lookups reached the provider.
func (p *Provider) Fetches() int { return p.fetches }
