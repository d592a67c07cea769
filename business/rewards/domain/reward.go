package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// SolverReward holds the rewards earned by one solver over a period. ETH
// amounts are in wei, COW amounts in reward token atoms.
type SolverReward struct {
	Solver             common.Address
	PrimaryRewardETH   *big.Int
	PrimaryRewardCow   *big.Int
	SecondaryRewardETH *big.Int
	SecondaryRewardCow *big.Int
	QuoteRewardCow     *big.Int
	NumQuotes          int64
	Participations     int64
}

// RewardETH is primary plus secondary reward in wei.
func (r SolverReward) RewardETH() *big.Int {
	return new(big.Int).Add(r.PrimaryRewardETH, r.SecondaryRewardETH)
}

// RewardCow is primary plus secondary reward in COW atoms.
func (r SolverReward) RewardCow() *big.Int {
	return new(big.Int).Add(r.PrimaryRewardCow, r.SecondaryRewardCow)
}

// ZeroReward is the reward row of a solver that earned nothing.
func ZeroReward(solver common.Address) SolverReward {
	return SolverReward{
		Solver:             solver,
		PrimaryRewardETH:   new(big.Int),
		PrimaryRewardCow:   new(big.Int),
		SecondaryRewardETH: new(big.Int),
		SecondaryRewardCow: new(big.Int),
		QuoteRewardCow:     new(big.Int),
	}
}
