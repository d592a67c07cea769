package app_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cowprotocol/solver-rewards/business/rewards/app"
	"github.com/cowprotocol/solver-rewards/business/rewards/domain"
	"github.com/cowprotocol/solver-rewards/internal/asset"
	"github.com/cowprotocol/solver-rewards/internal/logger"
)

var (
	solverA = asset.MustParseAddress("0x1111111111111111111111111111111111111111")
	solverB = asset.MustParseAddress("0x2222222222222222222222222222222222222222")
	solverC = asset.MustParseAddress("0x3333333333333333333333333333333333333333")
)

// timesThousand converts at 1 native = 1000 reward tokens.
type timesThousand struct{}

func (timesThousand) NativeToToken(native *big.Int) *big.Int {
	return new(big.Int).Mul(native, big.NewInt(1000))
}

func wei(s string) *big.Int {
	return asset.MustParseWei(s)
}

func testParams() app.Params {
	return app.Params{
		QuoteRewardCowCap:     wei("6000000000000000000"),
		QuoteRewardNativeCap:  wei("600000000000000"),
		SecondaryBudgetNative: wei("1000000000000000000"),
		BatchesPerPeriod:      10,
	}
}

func testBatches() []domain.BatchDatum {
	return []domain.BatchDatum{
		{
			Solver:               solverA,
			PrimaryRewardETH:     wei("500000000000000"),
			NumQuotes:            2,
			ParticipatingSolvers: []common.Address{solverA, solverB},
		},
		{
			Solver:           solverB,
			PrimaryRewardETH: wei("-1000000000000000"),
			NumQuotes:        1,
		},
	}
}

func TestCalculator_Compute(t *testing.T) {
	calc := app.NewCalculator(testParams(), logger.Discard())
	rewards := calc.Compute(context.Background(), testBatches(), nil, timesThousand{})

	tests := []struct {
		solver       common.Address
		primaryCow   string
		secondaryETH string
		secondaryCow string
		quoteCow     string
	}{
		{solverA, "500000000000000000", "100000000000000000", "100000000000000000000", "1200000000000000000"},
		{solverB, "-1000000000000000000", "200000000000000000", "200000000000000000000", "600000000000000000"},
	}
	if len(rewards) != len(tests) {
		t.Fatalf("expected %d rows, got %d", len(tests), len(rewards))
	}
	for i, tt := range tests {
		r := rewards[i]
		if r.Solver != tt.solver {
			t.Fatalf("row %d: expected solver %s, got %s", i, tt.solver.Hex(), r.Solver.Hex())
		}
		checks := []struct {
			field string
			got   *big.Int
			want  string
		}{
			{"primary_reward_cow", r.PrimaryRewardCow, tt.primaryCow},
			{"secondary_reward_eth", r.SecondaryRewardETH, tt.secondaryETH},
			{"secondary_reward_cow", r.SecondaryRewardCow, tt.secondaryCow},
			{"quote_reward_cow", r.QuoteRewardCow, tt.quoteCow},
		}
		for _, c := range checks {
			if c.got.Cmp(wei(c.want)) != 0 {
				t.Errorf("%s %s: expected %s, got %s", tt.solver.Hex(), c.field, c.want, c.got)
			}
		}
	}
}

func TestCalculator_QuoteCap(t *testing.T) {
	params := testParams()
	calc := app.NewCalculator(params, logger.Discard())

	// 6e14 native at 1000 is 6e17, below the 6e18 cow cap
	if got := calc.QuoteRewardPerQuote(timesThousand{}); got.Cmp(wei("600000000000000000")) != 0 {
		t.Errorf("expected native cap to bind, got %s", got)
	}

	params.QuoteRewardCowCap = wei("100000000000000000")
	calc = app.NewCalculator(params, logger.Discard())
	if got := calc.QuoteRewardPerQuote(timesThousand{}); got.Cmp(wei("100000000000000000")) != 0 {
		t.Errorf("expected cow cap to bind, got %s", got)
	}
}

func TestCalculator_QuoteOverride(t *testing.T) {
	calc := app.NewCalculator(testParams(), logger.Discard())
	quotes := map[common.Address]int64{solverC: 3}

	rewards := calc.Compute(context.Background(), testBatches(), quotes, timesThousand{})
	if len(rewards) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rewards))
	}
	for _, r := range rewards {
		switch r.Solver {
		case solverA, solverB:
			if r.NumQuotes != 0 || r.QuoteRewardCow.Sign() != 0 {
				t.Errorf("%s: batch quote counts should be replaced, got %d", r.Solver.Hex(), r.NumQuotes)
			}
		case solverC:
			if r.QuoteRewardCow.Cmp(wei("1800000000000000000")) != 0 {
				t.Errorf("expected 1.8e18 quote reward, got %s", r.QuoteRewardCow)
			}
			if r.PrimaryRewardETH.Sign() != 0 || r.SecondaryRewardETH.Sign() != 0 {
				t.Errorf("quote only solver should have no batch rewards")
			}
		}
	}
}

func TestCalculator_NonNegativeSecondaryAndQuote(t *testing.T) {
	calc := app.NewCalculator(testParams(), logger.Discard())
	for _, r := range calc.Compute(context.Background(), testBatches(), nil, timesThousand{}) {
		if r.SecondaryRewardCow.Sign() < 0 || r.QuoteRewardCow.Sign() < 0 {
			t.Errorf("%s: negative secondary or quote reward", r.Solver.Hex())
		}
	}
}
