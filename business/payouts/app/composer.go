// Package app contains the payout composition, orchestration and run
// services of the payouts context.
package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cowprotocol/solver-rewards/business/payouts/domain"
	"github.com/cowprotocol/solver-rewards/internal/asset"
	"github.com/cowprotocol/solver-rewards/internal/logger"
)

// Composer turns one solver row into transfers or an overdraft.
type Composer struct {
	rewardToken     common.Address
	protocolFeeSafe common.Address
	logger          logger.LoggerInterface
}

// NewComposer creates a new Composer.
func NewComposer(rewardToken, protocolFeeSafe common.Address, log logger.LoggerInterface) *Composer {
	return &Composer{
		rewardToken:     rewardToken,
		protocolFeeSafe: protocolFeeSafe,
		logger:          log,
	}
}

// Compose pays the quote reward unconditionally, then either records an
// overdraft or settles reimbursement and reward.
func (c *Composer) Compose(ctx context.Context, p domain.SolverPayout) domain.PayoutResult {
	res := domain.PayoutResult{ServiceFeeCow: new(big.Int)}

	if p.QuoteRewardCow.Sign() > 0 {
		c.payCow(ctx, &res, p, p.QuoteRewardCow)
	}

	outgoing := p.TotalOutgoingETH()
	if outgoing.Sign() < 0 {
		res.Overdraft = outgoing.Neg(outgoing)
		return res
	}

	reimbursement := p.SlippageETH
	rewardETH := p.RewardETH()
	rewardCow := p.RewardCow()

	switch {
	case reimbursement.Sign() > 0 && rewardCow.Sign() < 0:
		c.payNative(ctx, &res, p, new(big.Int).Add(reimbursement, rewardETH))
	case reimbursement.Sign() < 0 && rewardCow.Sign() > 0:
		// reimbursement_cow : reimbursement = reward_cow : reward_eth
		reimbursementCow := new(big.Int)
		if rewardETH.Sign() != 0 {
			reimbursementCow = asset.FloorDiv(new(big.Int).Mul(reimbursement, rewardCow), rewardETH)
		}
		c.payCow(ctx, &res, p, reimbursementCow.Add(reimbursementCow, rewardCow))
	default:
		c.payNative(ctx, &res, p, reimbursement)
		c.payCow(ctx, &res, p, rewardCow)
	}
	return res
}

func (c *Composer) payNative(ctx context.Context, res *domain.PayoutResult, p domain.SolverPayout, amount *big.Int) {
	t, err := domain.NativeTransfer(p.BufferAccountingTarget, amount)
	if err != nil {
		c.suppressed(ctx, p, "native", amount, err)
		return
	}
	res.Transfers = append(res.Transfers, t)
}

// payCow pays amount*(1-f) to the reward target and floor(paid*f/(1-f)) to
// the protocol fee safe.
func (c *Composer) payCow(ctx context.Context, res *domain.PayoutResult, p domain.SolverPayout, amount *big.Int) {
	if amount.Sign() <= 0 {
		_, err := domain.NewTransfer(&c.rewardToken, p.RewardTarget, amount)
		c.suppressed(ctx, p, "cow", amount, err)
		return
	}

	fee := p.ServiceFee
	if fee == nil {
		fee = new(big.Rat)
	}
	keep := new(big.Rat).Sub(big.NewRat(1, 1), fee)
	paid := asset.MulRatFloor(amount, keep)

	t, err := domain.NewTransfer(&c.rewardToken, p.RewardTarget, paid)
	if err != nil {
		c.suppressed(ctx, p, "cow", paid, err)
		return
	}
	res.Transfers = append(res.Transfers, t)

	if fee.Sign() == 0 {
		return
	}
	serviceFee := asset.MulRatFloor(paid, new(big.Rat).Quo(fee, keep))
	st, err := domain.NewTransfer(&c.rewardToken, c.protocolFeeSafe, serviceFee)
	if err != nil {
		c.suppressed(ctx, p, "service_fee", serviceFee, err)
		return
	}
	res.Transfers = append(res.Transfers, st)
	res.ServiceFeeCow.Add(res.ServiceFeeCow, serviceFee)
}

func (c *Composer) suppressed(ctx context.Context, p domain.SolverPayout, kind string, amount *big.Int, err error) {
	logSuppressed(ctx, c.logger, p.Solver, kind, amount, err)
}

// logSuppressed records a transfer that was not emitted because its amount
// was not positive.
func logSuppressed(ctx context.Context, log logger.LoggerInterface, account common.Address, kind string, amount *big.Int, err error) {
	// Zero is the common case of nothing owed.
	if amount == nil || amount.Sign() == 0 {
		log.Debug(ctx, "zero transfer skipped",
			"account", asset.Canonical(account),
			"kind", kind,
		)
		return
	}
	log.Warn(ctx, "non-positive transfer suppressed",
		"account", asset.Canonical(account),
		"kind", kind,
		"amount", amount.String(),
		"error", err,
	)
}
