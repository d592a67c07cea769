// Package coinpaprika reads daily historical prices from the CoinPaprika API.
package coinpaprika

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/cowprotocol/solver-rewards/business/pricing/app"
	"github.com/cowprotocol/solver-rewards/internal/apperror"
	"github.com/cowprotocol/solver-rewards/internal/circuitbreaker"
	"github.com/cowprotocol/solver-rewards/internal/httpclient"
	"github.com/cowprotocol/solver-rewards/internal/logger"
	"github.com/cowprotocol/solver-rewards/internal/ratelimit"
)

const (
	// BaseAPIURL is the public API endpoint.
	BaseAPIURL = "https://api.coinpaprika.com"

	historicalEndpoint = "/v1/tickers/%s/historical"
	timestampLayout    = "2006-01-02T15:04:05Z"
	defaultTimeout     = 10 * time.Second
	tracerName         = "coinpaprika"
)

// Config holds the provider settings.
type Config struct {
	BaseURL           string
	APIKey            string // optional, paid tiers only
	RequestsPerMinute int
	Timeout           time.Duration
}

// Provider implements app.PriceSource.
type Provider struct {
	client  httpclient.Client
	limiter *ratelimit.Limiter
	cb      *circuitbreaker.CircuitBreaker[decimal.Decimal]
	logger  logger.LoggerInterface
	tracer  trace.Tracer
}

var _ app.PriceSource = (*Provider)(nil)

// NewProvider creates a CoinPaprika price source.
func NewProvider(cfg Config, log logger.LoggerInterface) (*Provider, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = BaseAPIURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	tracer := otel.Tracer(tracerName)

	opts := []httpclient.ClientOption{
		httpclient.WithProviderName("coinpaprika"),
		httpclient.WithBaseURL(baseURL),
		httpclient.WithRequestTimeout(timeout),
		httpclient.WithTracer(tracer),
		httpclient.WithHeader("Accept", "application/json"),
	}
	if cfg.APIKey != "" {
		opts = append(opts, httpclient.WithSecretHeader("Authorization", cfg.APIKey))
	}

	client, err := httpclient.NewInstrumentedClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	p := &Provider{
		client:  client,
		limiter: ratelimit.New(cfg.RequestsPerMinute),
		logger:  log,
		tracer:  tracer,
	}
	p.initCircuitBreaker()
	return p, nil
}

func (p *Provider) initCircuitBreaker() {
	cfg := circuitbreaker.DefaultConfig("coinpaprika")
	cfg.OnStateChange = func(name string, from, to gobreaker.State) {
		p.logger.Warn(context.Background(), "circuit breaker state change",
			"breaker", name, "from", from.String(), "to", to.String())
	}
	// A missing price is an answer, not an outage.
	cfg.IsSuccessful = func(err error) bool {
		return err == nil || apperror.HasCode(err, apperror.CodePriceUnavailable)
	}
	p.cb = circuitbreaker.New[decimal.Decimal](cfg)
}

// Name implements app.PriceSource.
func (p *Provider) Name() string { return "coinpaprika" }

// historicalTick is one row of the historical endpoint.
type historicalTick struct {
	Timestamp string          `json:"timestamp"`
	Price     decimal.Decimal `json:"price"`
}

// USDPrice implements app.PriceSource.
func (p *Provider) USDPrice(ctx context.Context, priceID string, day time.Time) (decimal.Decimal, error) {
	ctx, span := p.tracer.Start(ctx, "coinpaprika.historical",
		trace.WithAttributes(
			attribute.String("coin_id", priceID),
			attribute.String("day", day.Format(time.DateOnly)),
		),
	)
	defer span.End()

	if err := p.limiter.Wait(ctx); err != nil {
		span.RecordError(err)
		return decimal.Zero, err
	}

	price, err := p.cb.Execute(func() (decimal.Decimal, error) {
		return p.fetch(ctx, priceID, day)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "price fetch failed")
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return decimal.Zero, apperror.External(apperror.CodeSourceFailed, "coinpaprika unavailable", err)
		}
		return decimal.Zero, err
	}

	span.SetAttributes(attribute.String("price", price.String()))
	return price, nil
}

func (p *Provider) fetch(ctx context.Context, priceID string, day time.Time) (decimal.Decimal, error) {
	var ticks []historicalTick
	_, err := p.client.NewRequest().
		SetLabels(httpclient.NewLabel("endpoint", "historical")).
		SetQueryParam("start", day.Format(time.DateOnly)).
		SetQueryParam("limit", "1").
		SetQueryParam("interval", "1d").
		SetResult(&ticks).
		Get(ctx, fmt.Sprintf(historicalEndpoint, priceID))
	if err != nil {
		return decimal.Zero, apperror.External(apperror.CodeSourceFailed,
			fmt.Sprintf("historical price for %s", priceID), err)
	}

	if len(ticks) != 1 {
		return decimal.Zero, apperror.New(apperror.CodePriceUnavailable,
			apperror.WithComponent(apperror.ComponentPricing),
			apperror.WithContext(fmt.Sprintf("%s on %s: got %d results", priceID, day.Format(time.DateOnly), len(ticks))),
		)
	}

	ts, err := time.Parse(timestampLayout, ticks[0].Timestamp)
	if err != nil || !ts.Equal(day) {
		return decimal.Zero, apperror.New(apperror.CodePriceUnavailable,
			apperror.WithComponent(apperror.ComponentPricing),
			apperror.WithContext(fmt.Sprintf("%s on %s: price is for %q", priceID, day.Format(time.DateOnly), ticks[0].Timestamp)),
		)
	}

	return ticks[0].Price, nil
}
