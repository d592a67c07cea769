package domain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/cowprotocol/solver-rewards/internal/asset"
)

// Summary holds the run totals by category.
type Summary struct {
	PerformanceRewardETH   *big.Int
	PerformanceRewardCow   *big.Int
	ParticipationRewardETH *big.Int
	ParticipationRewardCow *big.Int
	QuoteRewardCow         *big.Int
	ServiceFeeCow          *big.Int

	ProtocolFeeETH   *big.Int
	ProtocolFeeCow   *big.Int
	PartnerFeeETH    *big.Int
	PartnerFeeCow    *big.Int
	PartnerFeeTaxETH *big.Int
	PartnerFeeTaxCow *big.Int

	NetworkFeeETH *big.Int
	SlippageETH   *big.Int

	NativeOutflow *big.Int
	CowOutflow    *big.Int

	// NativeToCow is the number of reward tokens per native unit.
	NativeToCow  *big.Rat
	Overdrafts   int
	OverdraftWei *big.Int

	MinNativeTransfer *big.Int
	MinCowTransfer    *big.Int
}

// NewSummary returns a summary with every total at zero.
func NewSummary() Summary {
	return Summary{
		PerformanceRewardETH:   new(big.Int),
		PerformanceRewardCow:   new(big.Int),
		ParticipationRewardETH: new(big.Int),
		ParticipationRewardCow: new(big.Int),
		QuoteRewardCow:         new(big.Int),
		ServiceFeeCow:          new(big.Int),
		ProtocolFeeETH:         new(big.Int),
		ProtocolFeeCow:         new(big.Int),
		PartnerFeeETH:          new(big.Int),
		PartnerFeeCow:          new(big.Int),
		PartnerFeeTaxETH:       new(big.Int),
		PartnerFeeTaxCow:       new(big.Int),
		NetworkFeeETH:          new(big.Int),
		SlippageETH:            new(big.Int),
		NativeOutflow:          new(big.Int),
		CowOutflow:             new(big.Int),
		NativeToCow:            new(big.Rat),
		OverdraftWei:           new(big.Int),
		MinNativeTransfer:      new(big.Int),
		MinCowTransfer:         new(big.Int),
	}
}

func units(x *big.Int) string {
	return asset.FormatUnits(x, asset.NativeDecimals).StringFixed(4)
}

// Breakdown renders the totals as the text block posted with a payout.
func (s Summary) Breakdown() string {
	var b strings.Builder
	b.WriteString("Payment breakdown:\n")
	fmt.Fprintf(&b, "Performance Reward (before fee): %s\n", units(s.PerformanceRewardCow))
	fmt.Fprintf(&b, "Participation Reward: %s\n", units(s.ParticipationRewardCow))
	fmt.Fprintf(&b, "Quote Reward (before fee): %s\n", units(s.QuoteRewardCow))
	fmt.Fprintf(&b, "CoW DAO Service Fees: %s\n", units(s.ServiceFeeCow))
	fmt.Fprintf(&b, "Protocol Fees (excluding partner fees): %s\n", units(s.ProtocolFeeETH))
	fmt.Fprintf(&b, "Partner Fees (after tax): %s\n", units(s.PartnerFeeETH))
	fmt.Fprintf(&b, "Partner Fees Tax: %s\n", units(s.PartnerFeeTaxETH))
	fmt.Fprintf(&b, "Network Fees: %s\n", units(s.NetworkFeeETH))
	fmt.Fprintf(&b, "Slippage: %s\n\n", units(s.SlippageETH))
	fmt.Fprintf(&b, "Exchange rate native token to COW: %s COW/native token\n\n", s.NativeToCow.FloatString(4))
	fmt.Fprintf(&b, "Minimum native token transfer: %s units\n", units(s.MinNativeTransfer))
	fmt.Fprintf(&b, "Minimum COW transfer: %s units\n", units(s.MinCowTransfer))
	if s.Overdrafts > 0 {
		fmt.Fprintf(&b, "\nOverdrafts: %d solvers owing %s\n", s.Overdrafts, units(s.OverdraftWei))
	}
	return b.String()
}
