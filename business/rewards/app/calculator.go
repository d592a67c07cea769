package app

import (
	"context"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cowprotocol/solver-rewards/business/rewards/domain"
	"github.com/cowprotocol/solver-rewards/internal/asset"
	"github.com/cowprotocol/solver-rewards/internal/logger"
)

// Params holds the reward mechanism parameters.
type Params struct {
	QuoteRewardCowCap     *big.Int
	QuoteRewardNativeCap  *big.Int
	SecondaryBudgetNative *big.Int
	BatchesPerPeriod      int64
}

// Calculator computes primary, secondary and quote rewards per solver.
type Calculator struct {
	params Params
	logger logger.LoggerInterface
}

// NewCalculator creates a new Calculator.
func NewCalculator(params Params, log logger.LoggerInterface) *Calculator {
	return &Calculator{
		params: params,
		logger: log,
	}
}

// Params returns the reward parameters.
func (c *Calculator) Params() Params {
	return c.params
}

// QuoteRewardPerQuote returns min(cow cap, native cap converted to COW).
func (c *Calculator) QuoteRewardPerQuote(conv Converter) *big.Int {
	return asset.MinInt(c.params.QuoteRewardCowCap, conv.NativeToToken(c.params.QuoteRewardNativeCap))
}

// Compute reduces batch data into one reward row per solver, sorted by
// solver address. When quotes is non-nil it replaces the num_quotes counts
// of batch data.
func (c *Calculator) Compute(
	ctx context.Context,
	batches []domain.BatchDatum,
	quotes map[common.Address]int64,
	conv Converter,
) []domain.SolverReward {
	rows := make(map[common.Address]*domain.SolverReward)
	row := func(solver common.Address) *domain.SolverReward {
		r, ok := rows[solver]
		if !ok {
			zero := domain.ZeroReward(solver)
			r = &zero
			rows[solver] = r
		}
		return r
	}

	for _, b := range batches {
		r := row(b.Solver)
		r.PrimaryRewardETH.Add(r.PrimaryRewardETH, b.PrimaryRewardETH)
		if quotes == nil {
			r.NumQuotes += b.NumQuotes
		}
		if len(b.ParticipatingSolvers) == 0 {
			r.Participations++
			continue
		}
		for _, s := range b.ParticipatingSolvers {
			row(s).Participations++
		}
	}
	for solver, n := range quotes {
		row(solver).NumQuotes += n
	}

	perQuote := c.QuoteRewardPerQuote(conv)
	out := make([]domain.SolverReward, 0, len(rows))
	for _, r := range rows {
		r.PrimaryRewardCow = conv.NativeToToken(r.PrimaryRewardETH)
		r.SecondaryRewardETH = c.secondaryReward(r.Participations)
		r.SecondaryRewardCow = conv.NativeToToken(r.SecondaryRewardETH)
		r.QuoteRewardCow = new(big.Int).Mul(big.NewInt(r.NumQuotes), perQuote)
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		return asset.CompareAddresses(out[i].Solver, out[j].Solver) < 0
	})

	c.logger.Info(ctx, "solver rewards computed",
		"solvers", len(out),
		"batches", len(batches),
		"quote_reward_per_quote", perQuote.String(),
	)
	return out
}

// secondaryReward is floor(participations * budget / batches_per_period).
func (c *Calculator) secondaryReward(participations int64) *big.Int {
	if c.params.SecondaryBudgetNative == nil || c.params.BatchesPerPeriod <= 0 {
		return new(big.Int)
	}
	num := new(big.Int).Mul(big.NewInt(participations), c.params.SecondaryBudgetNative)
	return asset.FloorDiv(num, big.NewInt(c.params.BatchesPerPeriod))
}
