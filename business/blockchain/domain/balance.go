// Package domain contains the core domain types for the blockchain context.
package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// SafeBalance is the spendable native balance of a safe: its native coin
// and its wrapped native token.
type SafeBalance struct {
	Safe    common.Address
	Native  *big.Int
	Wrapped *big.Int
}

// Total returns native plus wrapped.
func (b SafeBalance) Total() *big.Int {
	total := new(big.Int)
	if b.Native != nil {
		total.Add(total, b.Native)
	}
	if b.Wrapped != nil {
		total.Add(total, b.Wrapped)
	}
	return total
}

// Covers reports whether the native coin alone pays needed.
func (b SafeBalance) Covers(needed *big.Int) bool {
	return b.Native != nil && b.Native.Cmp(needed) >= 0
}
