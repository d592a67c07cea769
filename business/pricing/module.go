// Package pricing implements the pricing bounded context: daily USD prices
// of recognized tokens and the exchange rates derived from them.
package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cowprotocol/solver-rewards/business/pricing/app"
	pricingDI "github.com/cowprotocol/solver-rewards/business/pricing/di"
	"github.com/cowprotocol/solver-rewards/business/pricing/infra/coinpaprika"
	"github.com/cowprotocol/solver-rewards/business/pricing/infra/static"
	"github.com/cowprotocol/solver-rewards/internal/asset"
	"github.com/cowprotocol/solver-rewards/internal/config"
	"github.com/cowprotocol/solver-rewards/internal/di"
	"github.com/cowprotocol/solver-rewards/internal/logger"
	"github.com/cowprotocol/solver-rewards/internal/monolith"
)

// Module implements the pricing bounded context.
type Module struct{}

// RegisterServices registers all pricing services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register PriceSource - private dependency
	di.RegisterToken(c, pricingDI.PriceSource, func(sr di.ServiceRegistry) app.PriceSource {
		cfg := sr.Get(monolith.KeyConfig).(*config.Config)
		log := sr.Get(monolith.KeyLogger).(logger.LoggerInterface)
		registry := sr.Get(monolith.KeyAssetRegistry).(*asset.Registry)

		if cfg.Pricing.Provider == config.ProviderStatic {
			prices, err := StaticPrices(cfg.Pricing.StaticPrices, registry)
			if err != nil {
				panic("failed to load static prices: " + err.Error())
			}
			return static.NewProvider(prices)
		}

		provider, err := coinpaprika.NewProvider(coinpaprika.Config{
			BaseURL:           cfg.Pricing.BaseURL,
			APIKey:            cfg.Pricing.APIKey,
			RequestsPerMinute: cfg.Pricing.RequestsPerMinute,
			Timeout:           cfg.Pricing.Timeout,
		}, log)
		if err != nil {
			panic("failed to create coinpaprika provider: " + err.Error())
		}
		return provider
	})

	// Register Oracle (public - exposed to other modules)
	di.RegisterToken(c, pricingDI.Oracle, func(sr di.ServiceRegistry) *app.Oracle {
		log := sr.Get(monolith.KeyLogger).(logger.LoggerInterface)
		registry := sr.Get(monolith.KeyAssetRegistry).(*asset.Registry)
		return app.NewOracle(registry, pricingDI.GetPriceSource(sr), log)
	})

	return nil
}

// Startup initializes the pricing module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	source := pricingDI.GetPriceSource(mono.Services())
	mono.Logger().Info(ctx, "pricing module started", "source", source.Name())
	return nil
}

// StaticPrices converts configured prices. A token may be given by price id
// or by the address of a recognized token.
func StaticPrices(entries []config.StaticPrice, registry *asset.Registry) ([]static.Price, error) {
	prices := make([]static.Price, 0, len(entries))
	for i, e := range entries {
		priceID := e.Token
		if addr, err := asset.ParseAddress(e.Token); err == nil {
			token, ok := registry.Lookup(addr)
			if !ok {
				return nil, fmt.Errorf("static_prices[%d]: unrecognized token %s", i, e.Token)
			}
			priceID = token.PriceID()
		}

		usd, err := decimal.NewFromString(e.USD)
		if err != nil {
			return nil, fmt.Errorf("static_prices[%d]: %w", i, err)
		}

		var day time.Time
		if e.Day != "" {
			day, err = time.Parse(time.DateOnly, e.Day)
			if err != nil {
				return nil, fmt.Errorf("static_prices[%d]: %w", i, err)
			}
		}

		prices = append(prices, static.Price{PriceID: priceID, Day: day, USD: usd})
	}
	return prices, nil
}
