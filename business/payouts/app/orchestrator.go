package app

import (
	"context"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	feesApp "github.com/cowprotocol/solver-rewards/business/fees/app"
	fees "github.com/cowprotocol/solver-rewards/business/fees/domain"
	"github.com/cowprotocol/solver-rewards/business/payouts/domain"
	rewardsApp "github.com/cowprotocol/solver-rewards/business/rewards/app"
	rewards "github.com/cowprotocol/solver-rewards/business/rewards/domain"
	"github.com/cowprotocol/solver-rewards/internal/apperror"
	"github.com/cowprotocol/solver-rewards/internal/asset"
	"github.com/cowprotocol/solver-rewards/internal/frame"
	"github.com/cowprotocol/solver-rewards/internal/logger"
	"github.com/cowprotocol/solver-rewards/internal/period"
)

// Inputs are the materialized tables and the rate of one period.
type Inputs struct {
	Period     period.Period
	Tables     domain.Tables
	Conversion Conversion
}

// Orchestrator runs every component over the input tables and assembles the
// period payouts.
type Orchestrator struct {
	decomposer *feesApp.Decomposer
	aggregator *feesApp.Aggregator
	calculator *rewardsApp.Calculator
	resolver   *rewardsApp.SolverInfoResolver
	composer   *Composer
	scoreCaps  rewards.ScoreCaps
	settings   domain.Settings
	logger     logger.LoggerInterface
}

// NewOrchestrator creates a new Orchestrator.
func NewOrchestrator(
	decomposer *feesApp.Decomposer,
	aggregator *feesApp.Aggregator,
	calculator *rewardsApp.Calculator,
	resolver *rewardsApp.SolverInfoResolver,
	scoreCaps rewards.ScoreCaps,
	settings domain.Settings,
	log logger.LoggerInterface,
) *Orchestrator {
	return &Orchestrator{
		decomposer: decomposer,
		aggregator: aggregator,
		calculator: calculator,
		resolver:   resolver,
		composer:   NewComposer(settings.RewardToken, settings.ProtocolFeeSafe, log),
		scoreCaps:  scoreCaps,
		settings:   settings,
		logger:     log,
	}
}

// Settings returns the run settings.
func (o *Orchestrator) Settings() domain.Settings {
	return o.settings
}

// Validate checks every table for its required columns.
func Validate(t domain.Tables) error {
	batchColumns := rewards.BatchColumns
	if t.Batches != nil {
		batchColumns, _ = rewards.BatchRequirements(t.Batches)
	}
	checks := []struct {
		name    string
		table   *frame.Table
		columns []string
	}{
		{domain.TableBatchData, t.Batches, batchColumns},
		{domain.TableTradeData, t.Trades, fees.TradeColumns},
		{domain.TableSlippage, t.Slippage, rewards.SlippageColumns},
		{domain.TableRewardTargets, t.RewardTargets, rewards.RewardTargetColumns},
		{domain.TableServiceFees, t.ServiceFees, rewards.ServiceFeeColumns},
	}
	for _, c := range checks {
		if c.table == nil {
			return apperror.New(apperror.CodeMissingColumn,
				apperror.WithComponent(apperror.ComponentOrchestrator),
				apperror.WithContext("table "+c.name+" was not loaded"),
			)
		}
		if err := c.table.Require(c.columns...); err != nil {
			return err
		}
	}
	return nil
}

// Run computes the payouts of one period. Any component failure aborts the
// whole run.
func (o *Orchestrator) Run(ctx context.Context, in Inputs) (*domain.PeriodPayouts, error) {
	if err := Validate(in.Tables); err != nil {
		return nil, err
	}

	batches, err := rewards.ReadBatches(in.Tables.Batches, o.scoreCaps)
	if err != nil {
		return nil, err
	}
	trades, err := fees.ReadTrades(in.Tables.Trades)
	if err != nil {
		return nil, err
	}
	slippageRows, err := rewards.ReadSlippage(in.Tables.Slippage)
	if err != nil {
		return nil, err
	}
	targets, err := rewards.ReadRewardTargets(in.Tables.RewardTargets)
	if err != nil {
		return nil, err
	}
	flags, err := rewards.ReadServiceFees(in.Tables.ServiceFees)
	if err != nil {
		return nil, err
	}

	tradeFees, err := o.decomposer.DecomposeAll(ctx, trades)
	if err != nil {
		return nil, err
	}
	networkFees := feesApp.NetworkFeesBySolver(tradeFees)
	feeSummary, err := o.aggregator.Aggregate(ctx, tradeFees, in.Conversion)
	if err != nil {
		return nil, err
	}
	o.crossCheckPartnerFees(ctx, batches, feeSummary)

	var quotes map[common.Address]int64
	if rewardsApp.HasQuoteSolvers(trades) {
		quotes = rewardsApp.CountQuotes(trades)
	}
	solverRewards := o.calculator.Compute(ctx, batches, quotes, in.Conversion)

	slippage, err := rewardsApp.CombineSlippage(slippageRows, networkFees, o.settings.IncludeSlippage)
	if err != nil {
		return nil, err
	}
	infos := o.resolver.Resolve(ctx, targets, flags)

	rows := o.merge(ctx, solverRewards, slippage, infos)

	out := &domain.PeriodPayouts{
		Period:  in.Period.String(),
		Solvers: rows,
		Fees:    feeSummary.Rows,
	}
	summary := domain.NewSummary()
	for _, row := range rows {
		res := o.composer.Compose(ctx, row)
		out.Transfers = append(out.Transfers, res.Transfers...)
		if res.Overdraft != nil {
			od := domain.Overdraft{
				Period:  out.Period,
				Account: row.Solver,
				Name:    row.SolverName,
				Wei:     res.Overdraft,
			}
			o.logger.Warn(ctx, "solver overdraft", "overdraft", od.String())
			out.Overdrafts = append(out.Overdrafts, od)
			summary.OverdraftWei.Add(summary.OverdraftWei, od.Wei)
		}

		summary.PerformanceRewardETH.Add(summary.PerformanceRewardETH, row.PrimaryRewardETH)
		summary.PerformanceRewardCow.Add(summary.PerformanceRewardCow, row.PrimaryRewardCow)
		summary.ParticipationRewardETH.Add(summary.ParticipationRewardETH, row.SecondaryRewardETH)
		summary.ParticipationRewardCow.Add(summary.ParticipationRewardCow, row.SecondaryRewardCow)
		summary.QuoteRewardCow.Add(summary.QuoteRewardCow, row.QuoteRewardCow)
		summary.ServiceFeeCow.Add(summary.ServiceFeeCow, res.ServiceFeeCow)
		summary.NetworkFeeETH.Add(summary.NetworkFeeETH, row.NetworkFeeETH)
		summary.SlippageETH.Add(summary.SlippageETH, row.SlippageETH)
	}

	for _, fee := range feeSummary.Rows {
		kind := "protocol_fee"
		if fee.FromPartnerFee {
			kind = "partner_fee"
		}
		t, err := domain.NativeTransfer(fee.Recipient, fee.FeeNative)
		if err != nil {
			logSuppressed(ctx, o.logger, fee.Recipient, kind, fee.FeeNative, err)
			continue
		}
		out.Transfers = append(out.Transfers, t)
	}
	domain.SortTransfers(out.Transfers)

	summary.ProtocolFeeETH.Set(feeSummary.ProtocolFee)
	summary.ProtocolFeeCow = in.Conversion.NativeToToken(feeSummary.ProtocolFee)
	summary.PartnerFeeETH = feeSummary.PartnerFee()
	summary.PartnerFeeCow = in.Conversion.NativeToToken(summary.PartnerFeeETH)
	summary.PartnerFeeTaxETH.Set(feeSummary.PartnerFeeTax)
	summary.PartnerFeeTaxCow = in.Conversion.NativeToToken(feeSummary.PartnerFeeTax)
	summary.NativeOutflow, summary.CowOutflow = domain.Totals(out.Transfers, o.settings.RewardToken)
	summary.NativeToCow = in.Conversion.Rate().Rat()
	summary.Overdrafts = len(out.Overdrafts)
	if o.settings.MinNativeTransfer != nil {
		summary.MinNativeTransfer.Set(o.settings.MinNativeTransfer)
	}
	if o.settings.MinCowTransfer != nil {
		summary.MinCowTransfer.Set(o.settings.MinCowTransfer)
	}
	out.Summary = summary

	o.logger.Info(ctx, "period payouts computed",
		"period", out.Period,
		"solvers", len(rows),
		"transfers", len(out.Transfers),
		"overdrafts", len(out.Overdrafts),
		"native_outflow", asset.FormatETH(summary.NativeOutflow),
		"cow_outflow", asset.FormatETH(summary.CowOutflow),
	)
	return out, nil
}

// merge joins rewards, slippage and solver info on solver. Solvers without a
// reward or slippage row are dropped; missing targets fall back to the
// solver address.
func (o *Orchestrator) merge(
	ctx context.Context,
	solverRewards []rewards.SolverReward,
	slippage []rewards.SolverSlippage,
	infos []rewards.SolverInfo,
) []domain.SolverPayout {
	byInfo := make(map[common.Address]rewards.SolverInfo, len(infos))
	for _, info := range infos {
		byInfo[info.Solver] = info
	}

	rows := make(map[common.Address]*domain.SolverPayout)
	row := func(solver common.Address) *domain.SolverPayout {
		p, ok := rows[solver]
		if !ok {
			zero := rewards.ZeroReward(solver)
			p = &domain.SolverPayout{
				Solver:             solver,
				PrimaryRewardETH:   zero.PrimaryRewardETH,
				SecondaryRewardETH: zero.SecondaryRewardETH,
				PrimaryRewardCow:   zero.PrimaryRewardCow,
				SecondaryRewardCow: zero.SecondaryRewardCow,
				QuoteRewardCow:     zero.QuoteRewardCow,
				SlippageETH:        new(big.Int),
				NetworkFeeETH:      new(big.Int),
				ServiceFee:         new(big.Rat),
			}
			rows[solver] = p
		}
		return p
	}

	for _, r := range solverRewards {
		p := row(r.Solver)
		p.PrimaryRewardETH = r.PrimaryRewardETH
		p.SecondaryRewardETH = r.SecondaryRewardETH
		p.PrimaryRewardCow = r.PrimaryRewardCow
		p.SecondaryRewardCow = r.SecondaryRewardCow
		p.QuoteRewardCow = r.QuoteRewardCow
	}
	for _, s := range slippage {
		p := row(s.Solver)
		p.SolverName = s.SolverName
		p.SlippageETH = s.SlippageETH
		p.NetworkFeeETH = s.NetworkFee
	}

	out := make([]domain.SolverPayout, 0, len(rows))
	for solver, p := range rows {
		info, ok := byInfo[solver]
		if ok && info.SolverName != "" {
			p.SolverName = info.SolverName
		}
		if ok {
			p.ServiceFee = info.ServiceFee
		}
		p.RewardTarget = solver
		if ok && info.RewardTarget != nil {
			p.RewardTarget = *info.RewardTarget
		} else {
			o.logger.Warn(ctx, "solver without reward_target, using solver address", "solver", asset.Canonical(solver))
		}
		p.BufferAccountingTarget = solver
		if ok && info.BufferAccountingTarget != nil {
			p.BufferAccountingTarget = *info.BufferAccountingTarget
		} else {
			o.logger.Warn(ctx, "solver without buffer_accounting_target, using solver address", "solver", asset.Canonical(solver))
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		return asset.CompareAddresses(out[i].Solver, out[j].Solver) < 0
	})
	return out
}

// crossCheckPartnerFees compares partner fees reported with the batch data
// to the ones derived from the trades.
func (o *Orchestrator) crossCheckPartnerFees(ctx context.Context, batches []rewards.BatchDatum, summary fees.FeeSummary) {
	reported := rewards.PartnerFeeTotal(batches)
	diff := new(big.Int).Sub(reported, summary.PartnerFeeRaw)
	if diff.CmpAbs(big.NewInt(1)) > 0 {
		o.logger.Warn(ctx, "partner fees in batch data differ from trade data",
			"batch_data", reported.String(),
			"trade_data", summary.PartnerFeeRaw.String(),
			"difference", diff.String(),
		)
	}
}
