package app

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/cowprotocol/solver-rewards/business/pricing/domain"
	"github.com/cowprotocol/solver-rewards/internal/apperror"
	"github.com/cowprotocol/solver-rewards/internal/asset"
	"github.com/cowprotocol/solver-rewards/internal/logger"
)

// Oracle prices recognized tokens. Every (price id, day) pair is fetched
// from the source at most once per Oracle.
type Oracle struct {
	registry *asset.Registry
	source   PriceSource
	logger   logger.LoggerInterface

	mu   sync.Mutex
	memo map[domain.PriceKey]decimal.Decimal
}

// NewOracle creates an oracle over the tokens of registry.
func NewOracle(registry *asset.Registry, source PriceSource, log logger.LoggerInterface) *Oracle {
	return &Oracle{
		registry: registry,
		source:   source,
		logger:   log,
		memo:     make(map[domain.PriceKey]decimal.Decimal),
	}
}

// Token resolves a recognized token.
func (o *Oracle) Token(address common.Address) (*asset.Asset, error) {
	token, ok := o.registry.Lookup(address)
	if !ok || token.PriceID() == "" {
		return nil, apperror.New(apperror.CodeUnrecognizedToken,
			apperror.WithComponent(apperror.ComponentPricing),
			apperror.WithContext(asset.Canonical(address)),
		)
	}
	return token, nil
}

// USDPrice returns the USD price of one whole token on the given day.
func (o *Oracle) USDPrice(ctx context.Context, address common.Address, day time.Time) (decimal.Decimal, error) {
	token, err := o.Token(address)
	if err != nil {
		return decimal.Zero, err
	}
	return o.price(ctx, domain.NewPriceKey(token.PriceID(), day))
}

func (o *Oracle) price(ctx context.Context, key domain.PriceKey) (decimal.Decimal, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if p, ok := o.memo[key]; ok {
		return p, nil
	}

	o.logger.Info(ctx, "requesting price", "token", key.PriceID, "day", key.Day.Format(time.DateOnly), "source", o.source.Name())

	p, err := o.source.USDPrice(ctx, key.PriceID, key.Day)
	if err != nil {
		appErr := apperror.Wrap(err, apperror.CodePriceUnavailable, key.String())
		if appErr.Component == "" {
			appErr.Component = apperror.ComponentPricing
		}
		return decimal.Zero, appErr
	}
	if !p.IsPositive() {
		return decimal.Zero, apperror.New(apperror.CodePriceUnavailable,
			apperror.WithComponent(apperror.ComponentPricing),
			apperror.WithContext(fmt.Sprintf("%s: non-positive price %s", key, p)),
		)
	}

	o.memo[key] = p
	return p, nil
}

// ExchangeRateAtoms returns r such that x atoms of from are worth x*r atoms
// of to on day.
func (o *Oracle) ExchangeRateAtoms(ctx context.Context, from, to common.Address, day time.Time) (asset.ExchangeRate, error) {
	fromToken, err := o.Token(from)
	if err != nil {
		return asset.ExchangeRate{}, err
	}
	toToken, err := o.Token(to)
	if err != nil {
		return asset.ExchangeRate{}, err
	}

	fromUSD, err := o.price(ctx, domain.NewPriceKey(fromToken.PriceID(), day))
	if err != nil {
		return asset.ExchangeRate{}, err
	}
	toUSD, err := o.price(ctx, domain.NewPriceKey(toToken.PriceID(), day))
	if err != nil {
		return asset.ExchangeRate{}, err
	}

	// (p_from / 10^dec_from) / (p_to / 10^dec_to)
	num := new(big.Rat).Mul(fromUSD.Rat(), pow10(toToken.Decimals()))
	den := new(big.Rat).Mul(toUSD.Rat(), pow10(fromToken.Decimals()))
	rate := new(big.Rat).Quo(num, den)

	return asset.NewExchangeRate(fromToken, toToken, rate)
}

// Cached returns the number of memoized prices.
func (o *Oracle) Cached() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.memo)
}

func pow10(n uint8) *big.Rat {
	return new(big.Rat).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil))
}
