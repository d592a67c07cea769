package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	fees "github.com/cowprotocol/solver-rewards/business/fees/domain"
)

// SolverPayout is the fully joined per-solver row the composer works on.
type SolverPayout struct {
	Solver                 common.Address
	SolverName             string
	RewardTarget           common.Address
	BufferAccountingTarget common.Address

	PrimaryRewardETH   *big.Int
	SecondaryRewardETH *big.Int
	SlippageETH        *big.Int
	NetworkFeeETH      *big.Int

	PrimaryRewardCow   *big.Int
	SecondaryRewardCow *big.Int
	QuoteRewardCow     *big.Int

	ServiceFee *big.Rat
}

// TotalOutgoingETH is primary + secondary reward + slippage.
func (p SolverPayout) TotalOutgoingETH() *big.Int {
	total := new(big.Int).Add(p.PrimaryRewardETH, p.SecondaryRewardETH)
	return total.Add(total, p.SlippageETH)
}

// RewardETH is primary + secondary reward in wei.
func (p SolverPayout) RewardETH() *big.Int {
	return new(big.Int).Add(p.PrimaryRewardETH, p.SecondaryRewardETH)
}

// RewardCow is primary + secondary reward in COW atoms.
func (p SolverPayout) RewardCow() *big.Int {
	return new(big.Int).Add(p.PrimaryRewardCow, p.SecondaryRewardCow)
}

// PayoutResult is what one solver row produces. Overdraft is nil unless the
// solver owes the protocol.
type PayoutResult struct {
	Transfers []Transfer
	Overdraft *big.Int
	// ServiceFeeCow is the reward token kept by the protocol fee safe.
	ServiceFeeCow *big.Int
}

// PeriodPayouts is the complete output of one run.
type PeriodPayouts struct {
	Period     string
	Transfers  []Transfer
	Overdrafts []Overdraft
	Solvers    []SolverPayout
	Fees       []fees.FeeRow
	Summary    Summary
}
