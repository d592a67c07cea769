package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cowprotocol/solver-rewards/internal/frame"
)

// Reward target and service fee column names.
const (
	ColRewardTarget = "reward_target"
	ColPoolAddress  = "pool_address"
	ColServiceFee   = "service_fee"
)

var (
	RewardTargetColumns = []string{ColSolver, ColRewardTarget, ColPoolAddress, ColSolverName}
	ServiceFeeColumns   = []string{ColSolver, ColServiceFee}
)

// RewardTarget is where a solver wants its reward token paid and which pool
// it is bonded through.
type RewardTarget struct {
	Solver       common.Address
	RewardTarget common.Address
	PoolAddress  common.Address
	SolverName   string
}

// ServiceFeeFlag marks whether a solver is charged the service fee.
type ServiceFeeFlag struct {
	Solver     common.Address
	ServiceFee bool
}

// SolverInfo is the resolved payout descriptor of one solver. Targets are
// nil when the solver has no reward target row.
type SolverInfo struct {
	Solver                 common.Address
	SolverName             string
	RewardTarget           *common.Address
	BufferAccountingTarget *common.Address
	ServiceFee             *big.Rat
}

// ReadRewardTargets decodes a reward target table.
func ReadRewardTargets(t *frame.Table) ([]RewardTarget, error) {
	if err := t.Require(RewardTargetColumns...); err != nil {
		return nil, err
	}
	targets := make([]RewardTarget, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		r := frame.NewReader(t.Row(i))
		target := RewardTarget{
			Solver:       r.Address(ColSolver),
			RewardTarget: r.Address(ColRewardTarget),
			PoolAddress:  r.Address(ColPoolAddress),
			SolverName:   r.String(ColSolverName),
		}
		if err := r.Err(); err != nil {
			return nil, err
		}
		targets = append(targets, target)
	}
	return targets, nil
}

// ReadServiceFees decodes a service fee flag table.
func ReadServiceFees(t *frame.Table) ([]ServiceFeeFlag, error) {
	if err := t.Require(ServiceFeeColumns...); err != nil {
		return nil, err
	}
	flags := make([]ServiceFeeFlag, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		r := frame.NewReader(t.Row(i))
		flag := ServiceFeeFlag{
			Solver:     r.Address(ColSolver),
			ServiceFee: r.Bool(ColServiceFee),
		}
		if err := r.Err(); err != nil {
			return nil, err
		}
		flags = append(flags, flag)
	}
	return flags, nil
}
