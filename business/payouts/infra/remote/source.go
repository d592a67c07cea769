// Package remote loads the input tables from the orderbook databases and
// Dune.
package remote

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/cowprotocol/solver-rewards/business/payouts/app"
	"github.com/cowprotocol/solver-rewards/business/payouts/domain"
	"github.com/cowprotocol/solver-rewards/internal/frame"
	"github.com/cowprotocol/solver-rewards/internal/logger"
	"github.com/cowprotocol/solver-rewards/internal/period"
)

// Orderbook provides the batch and trade tables.
type Orderbook interface {
	Batches(ctx context.Context, p period.Period) (*frame.Table, error)
	Trades(ctx context.Context, p period.Period) (*frame.Table, error)
}

// Analytics provides the slippage, reward target and service fee tables.
type Analytics interface {
	Slippage(ctx context.Context, p period.Period) (*frame.Table, error)
	RewardTargets(ctx context.Context, p period.Period) (*frame.Table, error)
	ServiceFees(ctx context.Context, p period.Period) (*frame.Table, error)
}

// Source fetches all five tables concurrently.
type Source struct {
	orderbook Orderbook
	analytics Analytics
	logger    logger.LoggerInterface
}

var _ app.Source = (*Source)(nil)

// NewSource creates a new Source.
func NewSource(orderbook Orderbook, analytics Analytics, log logger.LoggerInterface) *Source {
	return &Source{orderbook: orderbook, analytics: analytics, logger: log}
}

// Name implements app.Source.
func (s *Source) Name() string { return "remote" }

// Load implements app.Source. The first failing fetch cancels the others.
func (s *Source) Load(ctx context.Context, p period.Period) (domain.Tables, error) {
	var tables domain.Tables
	fetches := []struct {
		name string
		dst  **frame.Table
		fn   func(context.Context, period.Period) (*frame.Table, error)
	}{
		{domain.TableBatchData, &tables.Batches, s.orderbook.Batches},
		{domain.TableTradeData, &tables.Trades, s.orderbook.Trades},
		{domain.TableSlippage, &tables.Slippage, s.analytics.Slippage},
		{domain.TableRewardTargets, &tables.RewardTargets, s.analytics.RewardTargets},
		{domain.TableServiceFees, &tables.ServiceFees, s.analytics.ServiceFees},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, f := range fetches {
		g.Go(func() error {
			t, err := f.fn(gctx, p)
			if err != nil {
				return err
			}
			*f.dst = t
			s.logger.Debug(gctx, "table fetched", "table", f.name, "rows", t.Len())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.Tables{}, err
	}
	return tables, nil
}
