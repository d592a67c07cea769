// Package orderbook reads batch and trade tables from the orderbook
// databases. The same query runs on every instance and the results are
// concatenated, prod first.
package orderbook

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/cowprotocol/solver-rewards/business/payouts/domain"
	"github.com/cowprotocol/solver-rewards/internal/apperror"
	"github.com/cowprotocol/solver-rewards/internal/frame"
	"github.com/cowprotocol/solver-rewards/internal/logger"
	"github.com/cowprotocol/solver-rewards/internal/period"
)

// Config holds connection and query settings.
type Config struct {
	ProdURL        string
	BarnURL        string // optional
	BatchQueryFile string
	TradeQueryFile string
	MaxConns       int32
}

type instance struct {
	name string
	pool *pgxpool.Pool
}

// Fetcher runs the batch and trade queries.
type Fetcher struct {
	instances  []instance
	batchQuery string
	tradeQuery string
	logger     logger.LoggerInterface
}

// Connect opens a pool per configured instance and reads the query files.
func Connect(ctx context.Context, cfg Config, log logger.LoggerInterface) (*Fetcher, error) {
	if cfg.ProdURL == "" {
		return nil, errors.New("orderbook: prod database url is required")
	}
	batchQuery, err := os.ReadFile(cfg.BatchQueryFile)
	if err != nil {
		return nil, fmt.Errorf("orderbook: read batch query: %w", err)
	}
	tradeQuery, err := os.ReadFile(cfg.TradeQueryFile)
	if err != nil {
		return nil, fmt.Errorf("orderbook: read trade query: %w", err)
	}

	f := &Fetcher{
		batchQuery: string(batchQuery),
		tradeQuery: string(tradeQuery),
		logger:     log,
	}
	urls := []struct{ name, url string }{{"prod", cfg.ProdURL}, {"barn", cfg.BarnURL}}
	for _, u := range urls {
		if u.url == "" {
			continue
		}
		pool, err := newPool(ctx, u.url, cfg.MaxConns)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("orderbook: %s: %w", u.name, err)
		}
		f.instances = append(f.instances, instance{name: u.name, pool: pool})
	}
	return f, nil
}

func newPool(ctx context.Context, url string, maxConns int32) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if maxConns > 0 {
		poolCfg.MaxConns = maxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

// Close closes every pool.
func (f *Fetcher) Close() {
	for _, in := range f.instances {
		in.pool.Close()
	}
}

// Batches returns the batch table of p.
func (f *Fetcher) Batches(ctx context.Context, p period.Period) (*frame.Table, error) {
	return f.fetch(ctx, domain.TableBatchData, f.batchQuery, p)
}

// Trades returns the trade table of p.
func (f *Fetcher) Trades(ctx context.Context, p period.Period) (*frame.Table, error) {
	return f.fetch(ctx, domain.TableTradeData, f.tradeQuery, p)
}

func (f *Fetcher) fetch(ctx context.Context, name, query string, p period.Period) (*frame.Table, error) {
	args := pgx.NamedArgs{
		"start_time": p.Start,
		"end_time":   p.End,
	}

	parts := make([]*frame.Table, len(f.instances))
	g, gctx := errgroup.WithContext(ctx)
	for i, in := range f.instances {
		g.Go(func() error {
			rows, err := in.pool.Query(gctx, query, args)
			if err != nil {
				return apperror.External(apperror.CodeSourceFailed, fmt.Sprintf("%s query on %s", name, in.name), err)
			}
			t, err := collect(name, rows)
			if err != nil {
				return apperror.External(apperror.CodeSourceFailed, fmt.Sprintf("%s rows on %s", name, in.name), err)
			}
			f.logger.Info(gctx, "orderbook table fetched", "table", name, "instance", in.name, "rows", t.Len())
			parts[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return concat(name, parts...)
}

func collect(name string, rows pgx.Rows) (*frame.Table, error) {
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, fd := range fields {
		columns[i] = fd.Name
	}

	t := frame.New(name, columns...)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		cells := make([]string, len(values))
		for i, v := range values {
			cells[i] = formatCell(v)
		}
		if err := t.Append(cells...); err != nil {
			return nil, err
		}
	}
	return t, rows.Err()
}
