// Package domain contains the trade and fee types of the fees context.
package domain

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/cowprotocol/solver-rewards/internal/apperror"
)

// OrderKind is the side an order fixes.
type OrderKind string

const (
	OrderKindSell OrderKind = "sell"
	OrderKindBuy  OrderKind = "buy"
)

// ParseOrderKind validates an order kind.
func ParseOrderKind(s string) (OrderKind, error) {
	switch OrderKind(s) {
	case OrderKindSell, OrderKindBuy:
		return OrderKind(s), nil
	}
	return "", apperror.New(apperror.CodeUnknownOrderKind,
		apperror.WithComponent(apperror.ComponentFees),
		apperror.WithContext(fmt.Sprintf("kind %q", s)),
	)
}

// FeeKind is a protocol fee policy type.
type FeeKind string

const (
	FeeKindSurplus          FeeKind = "surplus"
	FeeKindPriceImprovement FeeKind = "priceimprovement"
	FeeKindVolume           FeeKind = "volume"
)

// FeePolicy is one protocol fee attached to an order. Only the factors of
// its kind are set.
type FeePolicy struct {
	ApplicationOrder                int64
	Kind                            FeeKind
	SurplusFactor                   *big.Rat
	SurplusMaxVolumeFactor          *big.Rat
	VolumeFactor                    *big.Rat
	PriceImprovementFactor          *big.Rat
	PriceImprovementMaxVolumeFactor *big.Rat
}

// Quote is the quote an order was placed against.
type Quote struct {
	SellAmount     *big.Rat
	BuyAmount      *big.Rat
	GasAmount      *big.Rat
	GasPrice       *big.Rat
	SellTokenPrice *big.Rat
}

// Complete reports whether every quote field is set.
func (q Quote) Complete() bool {
	return q.SellAmount != nil && q.BuyAmount != nil && q.GasAmount != nil &&
		q.GasPrice != nil && q.SellTokenPrice != nil
}

// GasCostInSellToken returns gas * gas_price / sell_token_price.
func (q Quote) GasCostInSellToken() (*big.Rat, error) {
	if !q.Complete() {
		return nil, fmt.Errorf("incomplete quote")
	}
	if q.SellTokenPrice.Sign() == 0 {
		return nil, fmt.Errorf("quote sell token price is zero")
	}
	cost := new(big.Rat).Mul(q.GasAmount, q.GasPrice)
	return cost.Quo(cost, q.SellTokenPrice), nil
}

// Trade is one settled order.
type Trade struct {
	AuctionID         int64
	OrderUID          []byte
	WinningSolver     common.Address
	Kind              OrderKind
	PartiallyFillable bool

	SellToken       common.Address
	BuyToken        common.Address
	SellAmount      *big.Int
	BuyAmount       *big.Int
	LimitSellAmount *big.Int
	LimitBuyAmount  *big.Int
	ObservedFee     *big.Int

	// Native wei per token atom, scaled by 1e18.
	SellTokenNativePrice *big.Rat
	BuyTokenNativePrice  *big.Rat

	Quote       Quote
	QuoteSolver *common.Address

	// AppData is the raw hex cell, decoded by ParseAppData.
	AppData  string
	Policies []FeePolicy
}

// Key identifies the trade in errors and logs.
func (t Trade) Key() string {
	return hexutil.Encode(t.OrderUID)
}

// Validate checks the invariants of a settled trade.
func (t Trade) Validate() error {
	invalid := func(format string, args ...any) error {
		return apperror.New(apperror.CodeInvalidTrade,
			apperror.WithComponent(apperror.ComponentFees),
			apperror.WithRowKey(t.Key()),
			apperror.WithContext(fmt.Sprintf(format, args...)),
		)
	}

	if _, err := ParseOrderKind(string(t.Kind)); err != nil {
		return apperror.Wrap(err, apperror.CodeUnknownOrderKind, "trade "+t.Key())
	}
	amounts := []struct {
		name  string
		value *big.Int
	}{
		{"sell_amount", t.SellAmount},
		{"buy_amount", t.BuyAmount},
		{"limit_sell_amount", t.LimitSellAmount},
		{"limit_buy_amount", t.LimitBuyAmount},
	}
	for _, a := range amounts {
		if a.value == nil || a.value.Sign() <= 0 {
			return invalid("%s must be positive", a.name)
		}
	}
	if t.ObservedFee == nil || t.ObservedFee.Sign() < 0 {
		return invalid("observed_fee must not be negative")
	}
	if t.SellAmount.Cmp(t.ObservedFee) < 0 {
		return invalid("sell_amount %s below observed_fee %s", t.SellAmount, t.ObservedFee)
	}
	if t.SellTokenNativePrice == nil || t.BuyTokenNativePrice == nil {
		return invalid("native prices are required")
	}

	seen := make(map[int64]bool, len(t.Policies))
	for _, p := range t.Policies {
		if seen[p.ApplicationOrder] {
			return invalid("duplicate application_order %d", p.ApplicationOrder)
		}
		seen[p.ApplicationOrder] = true
		for _, f := range []*big.Rat{
			p.SurplusFactor, p.SurplusMaxVolumeFactor, p.VolumeFactor,
			p.PriceImprovementFactor, p.PriceImprovementMaxVolumeFactor,
		} {
			if f != nil && !IsFactor(f) {
				return invalid("factor %s outside [0, 1)", f.FloatString(6))
			}
		}
	}
	return nil
}

// IsFactor reports whether f lies in [0, 1).
func IsFactor(f *big.Rat) bool {
	return f.Sign() >= 0 && f.Cmp(big.NewRat(1, 1)) < 0
}
