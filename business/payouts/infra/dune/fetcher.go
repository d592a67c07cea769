package dune

import (
	"context"

	"github.com/cowprotocol/solver-rewards/business/payouts/domain"
	"github.com/cowprotocol/solver-rewards/internal/frame"
	"github.com/cowprotocol/solver-rewards/internal/period"
)

// Queries are the Dune query ids of the analytics tables.
type Queries struct {
	Slippage      int
	RewardTargets int
	ServiceFees   int
}

// Fetcher loads the slippage, reward target and service fee tables of a
// period.
type Fetcher struct {
	client     *Client
	queries    Queries
	blockchain string
}

// NewFetcher creates a fetcher running queries on blockchain.
func NewFetcher(client *Client, queries Queries, blockchain string) *Fetcher {
	return &Fetcher{client: client, queries: queries, blockchain: blockchain}
}

func (f *Fetcher) params(p period.Period) map[string]string {
	params := p.QueryParams()
	params["blockchain"] = f.blockchain
	return params
}

// Slippage returns the per-solver slippage of p.
func (f *Fetcher) Slippage(ctx context.Context, p period.Period) (*frame.Table, error) {
	return f.client.Query(ctx, domain.TableSlippage, f.queries.Slippage, f.params(p))
}

// RewardTargets returns the reward targets valid at the end of p.
func (f *Fetcher) RewardTargets(ctx context.Context, p period.Period) (*frame.Table, error) {
	return f.client.Query(ctx, domain.TableRewardTargets, f.queries.RewardTargets, f.params(p))
}

// ServiceFees returns the service fee flags of p.
func (f *Fetcher) ServiceFees(ctx context.Context, p period.Period) (*frame.Table, error) {
	return f.client.Query(ctx, domain.TableServiceFees, f.queries.ServiceFees, f.params(p))
}
