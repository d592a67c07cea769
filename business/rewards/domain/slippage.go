package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cowprotocol/solver-rewards/internal/frame"
)

// Slippage column names.
const (
	ColSolverName     = "solver_name"
	ColETHSlippageWei = "eth_slippage_wei"
)

// SlippageColumns are the columns a slippage table must carry.
var SlippageColumns = []string{ColSolver, ColSolverName, ColETHSlippageWei}

// SlippageRow is the externally measured slippage of one solver.
type SlippageRow struct {
	Solver         common.Address
	SolverName     string
	ETHSlippageWei *big.Int
}

// SolverSlippage is the slippage owed to or by a solver after the network
// fee correction.
type SolverSlippage struct {
	Solver     common.Address
	SolverName string
	External   *big.Int
	NetworkFee *big.Int
	// SlippageETH = External + NetworkFee.
	SlippageETH *big.Int
}

// ReadSlippage decodes a slippage table.
func ReadSlippage(t *frame.Table) ([]SlippageRow, error) {
	if err := t.Require(SlippageColumns...); err != nil {
		return nil, err
	}
	rows := make([]SlippageRow, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		r := frame.NewReader(t.Row(i))
		row := SlippageRow{
			Solver:         r.Address(ColSolver),
			SolverName:     r.String(ColSolverName),
			ETHSlippageWei: r.WeiOrZero(ColETHSlippageWei),
		}
		if err := r.Err(); err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}
