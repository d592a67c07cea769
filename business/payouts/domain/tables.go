package domain

import (
	"github.com/cowprotocol/solver-rewards/internal/frame"
)

// Input table names. Sources use them as file and query names.
const (
	TableBatchData     = "batch_data"
	TableTradeData     = "trade_data"
	TableSlippage      = "slippage"
	TableRewardTargets = "reward_targets"
	TableServiceFees   = "service_fees"
)

// Tables are the input tables of one run.
type Tables struct {
	Batches       *frame.Table
	Trades        *frame.Table
	Slippage      *frame.Table
	RewardTargets *frame.Table
	ServiceFees   *frame.Table
}

// Artifacts are everything a run exports.
type Artifacts struct {
	RunID     string
	Payouts   *PeriodPayouts
	Multisend Multisend
}
