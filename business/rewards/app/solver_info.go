package app

import (
	"context"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cowprotocol/solver-rewards/business/rewards/domain"
	"github.com/cowprotocol/solver-rewards/internal/apperror"
	"github.com/cowprotocol/solver-rewards/internal/asset"
	"github.com/cowprotocol/solver-rewards/internal/logger"
)

// SolverInfoResolver joins reward targets with service fee flags.
type SolverInfoResolver struct {
	cowBondingPool   common.Address
	serviceFeeFactor *big.Rat
	logger           logger.LoggerInterface
}

// NewSolverInfoResolver creates a new SolverInfoResolver.
func NewSolverInfoResolver(cowBondingPool common.Address, serviceFeeFactor *big.Rat, log logger.LoggerInterface) *SolverInfoResolver {
	return &SolverInfoResolver{
		cowBondingPool:   cowBondingPool,
		serviceFeeFactor: serviceFeeFactor,
		logger:           log,
	}
}

// ServiceFeeFactor returns the fee charged to flagged solvers.
func (s *SolverInfoResolver) ServiceFeeFactor() *big.Rat {
	return new(big.Rat).Set(s.serviceFeeFactor)
}

// Resolve returns one descriptor per solver found in either input, sorted by
// solver. Duplicate solver rows keep the first occurrence.
func (s *SolverInfoResolver) Resolve(
	ctx context.Context,
	targets []domain.RewardTarget,
	flags []domain.ServiceFeeFlag,
) []domain.SolverInfo {
	infos := make(map[common.Address]*domain.SolverInfo, len(targets))
	get := func(solver common.Address) *domain.SolverInfo {
		info, ok := infos[solver]
		if !ok {
			info = &domain.SolverInfo{Solver: solver, ServiceFee: new(big.Rat)}
			infos[solver] = info
		}
		return info
	}

	seenTargets := make(map[common.Address]bool, len(targets))
	for _, t := range targets {
		if seenTargets[t.Solver] {
			s.duplicate(ctx, "reward_targets", t.Solver)
			continue
		}
		seenTargets[t.Solver] = true

		info := get(t.Solver)
		info.SolverName = t.SolverName
		rewardTarget := t.RewardTarget
		buffer := t.Solver
		if t.PoolAddress == s.cowBondingPool {
			buffer = rewardTarget
		}
		info.RewardTarget = &rewardTarget
		info.BufferAccountingTarget = &buffer
	}

	seenFlags := make(map[common.Address]bool, len(flags))
	for _, f := range flags {
		if seenFlags[f.Solver] {
			s.duplicate(ctx, "service_fees", f.Solver)
			continue
		}
		seenFlags[f.Solver] = true
		if f.ServiceFee {
			get(f.Solver).ServiceFee = s.ServiceFeeFactor()
		} else {
			get(f.Solver)
		}
	}

	out := make([]domain.SolverInfo, 0, len(infos))
	for _, info := range infos {
		out = append(out, *info)
	}
	sort.Slice(out, func(i, j int) bool {
		return asset.CompareAddresses(out[i].Solver, out[j].Solver) < 0
	})
	return out
}

func (s *SolverInfoResolver) duplicate(ctx context.Context, table string, solver common.Address) {
	err := apperror.New(apperror.CodeDuplicateSolverInfo,
		apperror.WithComponent(apperror.ComponentSolverInfo),
		apperror.WithRowKey(asset.Canonical(solver)),
		apperror.WithContext(table),
	)
	s.logger.Warn(ctx, "duplicate solver info, keeping first occurrence", "error", err.Error())
}
