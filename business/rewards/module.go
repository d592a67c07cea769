// Package rewards implements the rewards bounded context: performance,
// participation and quote rewards, slippage and solver descriptors.
package rewards

import (
	"context"
	"fmt"

	"github.com/cowprotocol/solver-rewards/business/rewards/app"
	rewardsDI "github.com/cowprotocol/solver-rewards/business/rewards/di"
	"github.com/cowprotocol/solver-rewards/business/rewards/domain"
	"github.com/cowprotocol/solver-rewards/internal/asset"
	"github.com/cowprotocol/solver-rewards/internal/config"
	"github.com/cowprotocol/solver-rewards/internal/di"
	"github.com/cowprotocol/solver-rewards/internal/logger"
	"github.com/cowprotocol/solver-rewards/internal/monolith"
)

// Module implements the rewards bounded context.
type Module struct{}

// RegisterServices registers all rewards services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, rewardsDI.Calculator, func(sr di.ServiceRegistry) *app.Calculator {
		cfg := sr.Get(monolith.KeyConfig).(*config.Config)
		log := sr.Get(monolith.KeyLogger).(logger.LoggerInterface)

		params, err := RewardParams(cfg.Reward)
		if err != nil {
			panic("failed to load reward parameters: " + err.Error())
		}
		return app.NewCalculator(params, log)
	})

	di.RegisterToken(c, rewardsDI.SolverInfoResolver, func(sr di.ServiceRegistry) *app.SolverInfoResolver {
		cfg := sr.Get(monolith.KeyConfig).(*config.Config)
		log := sr.Get(monolith.KeyLogger).(logger.LoggerInterface)

		factor, err := config.ParseFactor(cfg.Reward.ServiceFeeFactor)
		if err != nil {
			panic("failed to parse service fee factor: " + err.Error())
		}
		pool := asset.MustParseAddress(cfg.Reward.CowBondingPoolAddress)
		return app.NewSolverInfoResolver(pool, factor, log)
	})

	di.RegisterToken(c, rewardsDI.ScoreCaps, func(sr di.ServiceRegistry) domain.ScoreCaps {
		cfg := sr.Get(monolith.KeyConfig).(*config.Config)
		caps, err := ScoreCaps(cfg.Reward)
		if err != nil {
			panic("failed to parse score caps: " + err.Error())
		}
		return caps
	})

	return nil
}

// Startup initializes the rewards module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	cfg := mono.Config().Reward
	mono.Logger().Info(ctx, "rewards module started",
		"reward_token", cfg.RewardTokenAddress,
		"cow_bonding_pool", cfg.CowBondingPoolAddress,
		"service_fee_factor", cfg.ServiceFeeFactor,
		"batches_per_period", cfg.BatchesPerPeriod,
		"include_slippage", cfg.IncludeSlippage,
	)
	return nil
}

// RewardParams parses the reward amounts from config.
func RewardParams(cfg config.RewardConfig) (app.Params, error) {
	cowCap, err := config.ParseWei(cfg.QuoteRewardCowCap)
	if err != nil {
		return app.Params{}, fmt.Errorf("quote_reward_cow_cap: %w", err)
	}
	nativeCap, err := config.ParseWei(cfg.QuoteRewardNativeCap)
	if err != nil {
		return app.Params{}, fmt.Errorf("quote_reward_native_cap: %w", err)
	}
	budget, err := config.ParseWei(cfg.SecondaryRewardBudgetNativePerPeriod)
	if err != nil {
		return app.Params{}, fmt.Errorf("secondary_reward_budget_native_per_period: %w", err)
	}
	return app.Params{
		QuoteRewardCowCap:     cowCap,
		QuoteRewardNativeCap:  nativeCap,
		SecondaryBudgetNative: budget,
		BatchesPerPeriod:      cfg.BatchesPerPeriod,
	}, nil
}

// ScoreCaps parses the caps applied to score based primary rewards.
func ScoreCaps(cfg config.RewardConfig) (domain.ScoreCaps, error) {
	upper, err := config.ParseWei(cfg.UpperCap)
	if err != nil {
		return domain.ScoreCaps{}, fmt.Errorf("upper_cap: %w", err)
	}
	lower, err := config.ParseWei(cfg.LowerCap)
	if err != nil {
		return domain.ScoreCaps{}, fmt.Errorf("lower_cap: %w", err)
	}
	return domain.ScoreCaps{Upper: upper, Lower: lower}, nil
}
