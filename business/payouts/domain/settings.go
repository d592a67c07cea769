package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Settings are the payout parameters of one run.
type Settings struct {
	Network         string
	RewardToken     common.Address
	ProtocolFeeSafe common.Address
	IncludeSlippage bool

	PaymentSafe        common.Address
	WrappedNativeToken common.Address
	Multisend          common.Address

	// Transfers below these amounts are dropped after consolidation.
	MinNativeTransfer *big.Int
	MinCowTransfer    *big.Int
	Consolidate       bool
}

// BelowMinimum reports whether t falls under the configured threshold for
// its token.
func (s Settings) BelowMinimum(t Transfer) bool {
	min := s.MinCowTransfer
	if t.IsNative() {
		min = s.MinNativeTransfer
	}
	return min != nil && t.Amount.Cmp(min) < 0
}
