package app

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	fees "github.com/cowprotocol/solver-rewards/business/fees/domain"
)

// IsMarketOrder reports whether an order was in market against its quote at
// creation time. Orders without a quote solver or with an incomplete quote
// are not.
func IsMarketOrder(t fees.Trade) bool {
	if t.QuoteSolver == nil || t.PartiallyFillable {
		return false
	}
	gas, err := t.Quote.GasCostInSellToken()
	if err != nil {
		return false
	}

	switch t.Kind {
	case fees.OrderKindSell:
		net := truncate(new(big.Rat).Sub(t.Quote.SellAmount, gas))
		lhs := new(big.Rat).Mul(new(big.Rat).SetInt(net), t.Quote.BuyAmount)
		rhs := new(big.Rat).Mul(new(big.Rat).SetInt(t.LimitBuyAmount), t.Quote.SellAmount)
		return lhs.Cmp(rhs) >= 0
	case fees.OrderKindBuy:
		gross := truncate(new(big.Rat).Add(t.Quote.SellAmount, gas))
		return t.LimitSellAmount.Cmp(gross) >= 0
	}
	return false
}

// CountQuotes counts in-market orders per quote solver.
func CountQuotes(trades []fees.Trade) map[common.Address]int64 {
	counts := make(map[common.Address]int64)
	for _, t := range trades {
		if IsMarketOrder(t) {
			counts[*t.QuoteSolver]++
		}
	}
	return counts
}

// HasQuoteSolvers reports whether any trade names its quote solver.
func HasQuoteSolvers(trades []fees.Trade) bool {
	for _, t := range trades {
		if t.QuoteSolver != nil {
			return true
		}
	}
	return false
}

// truncate rounds toward zero.
func truncate(r *big.Rat) *big.Int {
	return new(big.Int).Quo(r.Num(), r.Denom())
}
