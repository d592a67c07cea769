package app

import (
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cowprotocol/solver-rewards/business/rewards/domain"
	"github.com/cowprotocol/solver-rewards/internal/apperror"
	"github.com/cowprotocol/solver-rewards/internal/asset"
)

// CombineSlippage outer joins external slippage with the per-solver network
// fees on solver, zero filling either side. With includeSlippage false the
// external measurement is zeroed and only the network fee correction stays.
func CombineSlippage(
	rows []domain.SlippageRow,
	networkFees map[common.Address]*big.Int,
	includeSlippage bool,
) ([]domain.SolverSlippage, error) {
	joined := make(map[common.Address]*domain.SolverSlippage, len(rows)+len(networkFees))
	for _, r := range rows {
		if _, dup := joined[r.Solver]; dup {
			return nil, apperror.New(apperror.CodeInvalidValue,
				apperror.WithComponent(apperror.ComponentSlippage),
				apperror.WithRowKey(asset.Canonical(r.Solver)),
				apperror.WithMessage("solver appears twice in slippage table"),
			)
		}
		external := new(big.Int)
		if includeSlippage && r.ETHSlippageWei != nil {
			external.Set(r.ETHSlippageWei)
		}
		joined[r.Solver] = &domain.SolverSlippage{
			Solver:     r.Solver,
			SolverName: r.SolverName,
			External:   external,
			NetworkFee: new(big.Int),
		}
	}
	for solver, fee := range networkFees {
		s, ok := joined[solver]
		if !ok {
			s = &domain.SolverSlippage{
				Solver:     solver,
				External:   new(big.Int),
				NetworkFee: new(big.Int),
			}
			joined[solver] = s
		}
		s.NetworkFee.Add(s.NetworkFee, fee)
	}

	out := make([]domain.SolverSlippage, 0, len(joined))
	for _, s := range joined {
		s.SlippageETH = new(big.Int).Add(s.External, s.NetworkFee)
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		return asset.CompareAddresses(out[i].Solver, out[j].Solver) < 0
	})
	return out, nil
}
