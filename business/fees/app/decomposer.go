// Package app contains the fee decomposition and aggregation services.
package app

import (
	"context"
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cowprotocol/solver-rewards/business/fees/domain"
	"github.com/cowprotocol/solver-rewards/internal/apperror"
	"github.com/cowprotocol/solver-rewards/internal/asset"
	"github.com/cowprotocol/solver-rewards/internal/logger"
)

var (
	one        = big.NewRat(1, 1)
	priceScale = new(big.Rat).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
)

// Decomposer splits executed trades into protocol, partner and network fees.
type Decomposer struct {
	logger logger.LoggerInterface
}

// NewDecomposer creates a new Decomposer.
func NewDecomposer(log logger.LoggerInterface) *Decomposer {
	return &Decomposer{logger: log}
}

// DecomposeAll decomposes every trade. The first failing trade aborts.
func (d *Decomposer) DecomposeAll(ctx context.Context, trades []domain.Trade) ([]domain.TradeFees, error) {
	out := make([]domain.TradeFees, 0, len(trades))
	for _, t := range trades {
		fees, err := d.Decompose(t)
		if err != nil {
			return nil, err
		}
		out = append(out, fees)
	}
	d.logger.Debug(ctx, "decomposed trade fees", "trades", len(out))
	return out, nil
}

// Decompose undoes the protocol fees of one trade in reverse application
// order and derives the network fee from the reconstructed amounts.
func (d *Decomposer) Decompose(t domain.Trade) (domain.TradeFees, error) {
	if err := t.Validate(); err != nil {
		return domain.TradeFees{}, err
	}

	out := domain.TradeFees{
		AuctionID:     t.AuctionID,
		OrderUID:      t.OrderUID,
		WinningSolver: t.WinningSolver,
	}

	sell := new(big.Int).Set(t.SellAmount)
	buy := new(big.Int).Set(t.BuyAmount)

	if len(t.Policies) > 0 {
		policies := append([]domain.FeePolicy(nil), t.Policies...)
		sort.SliceStable(policies, func(i, j int) bool {
			return policies[i].ApplicationOrder < policies[j].ApplicationOrder
		})

		app := domain.ParseAppData(t.AppData)
		out.Recipient = app.Recipient
		out.AppCode = app.AppCode

		partner := -1
		if app.Recipient != nil {
			last := policies[len(policies)-1]
			if last.Kind != domain.FeeKindVolume {
				return domain.TradeFees{}, apperror.New(apperror.CodeInvalidPartnerFee,
					apperror.WithComponent(apperror.ComponentFees),
					apperror.WithRowKey(t.Key()),
					apperror.WithContext(fmt.Sprintf("partner fee recipient set but last fee is %q", last.Kind)),
				)
			}
			partner = len(policies) - 1
		}

		out.ProtocolFees = make([]domain.ProtocolFee, len(policies))
		for i := len(policies) - 1; i >= 0; i-- {
			fee, err := undoFee(t, policies[i], sell, buy)
			if err != nil {
				return domain.TradeFees{}, err
			}
			fee.IsPartnerFee = i == partner
			out.ProtocolFees[i] = fee
		}
	}

	// (sell_pre - network_fee) / buy_pre = (sell - observed_fee) / buy
	executed := new(big.Rat).SetFrac(new(big.Int).Sub(t.SellAmount, t.ObservedFee), t.BuyAmount)
	networkFee := new(big.Rat).Mul(asset.Rat(buy), executed)
	networkFee.Sub(asset.Rat(sell), networkFee)

	out.SellBeforeFees = sell
	out.BuyBeforeFees = buy
	out.NetworkFeeSell = asset.FloorRat(networkFee)
	out.NetworkFee = asset.FloorRat(toNative(networkFee, t.SellTokenNativePrice))
	return out, nil
}

// undoFee computes one fee from the current amounts and moves sell or buy
// back to their value before the fee.
func undoFee(t domain.Trade, p domain.FeePolicy, sell, buy *big.Int) (domain.ProtocolFee, error) {
	var (
		fee *big.Int
		err error
	)
	switch p.Kind {
	case domain.FeeKindSurplus:
		fee, err = surplusFee(t, p, sell, buy)
	case domain.FeeKindPriceImprovement:
		fee, err = priceImprovementFee(t, p, sell, buy)
	case domain.FeeKindVolume:
		fee, err = volumeFee(t, p, sell, buy)
	default:
		return domain.ProtocolFee{}, apperror.New(apperror.CodeUnknownFeeKind,
			apperror.WithComponent(apperror.ComponentFees),
			apperror.WithRowKey(t.Key()),
			apperror.WithContext(fmt.Sprintf("kind %q", p.Kind)),
		)
	}
	if err != nil {
		return domain.ProtocolFee{}, err
	}

	pf := domain.ProtocolFee{Kind: p.Kind, Amount: fee}
	if t.Kind == domain.OrderKindSell {
		pf.Token, pf.NativePrice = t.BuyToken, t.BuyTokenNativePrice
		buy.Add(buy, fee)
	} else {
		pf.Token, pf.NativePrice = t.SellToken, t.SellTokenNativePrice
		sell.Sub(sell, fee)
	}
	return pf, nil
}

func surplusFee(t domain.Trade, p domain.FeePolicy, sell, buy *big.Int) (*big.Int, error) {
	f, err := factor(t, p.SurplusFactor, domain.ColSurplusFactor)
	if err != nil {
		return nil, err
	}
	fMax, err := factor(t, p.SurplusMaxVolumeFactor, domain.ColSurplusMaxVolumeFactor)
	if err != nil {
		return nil, err
	}

	var surplus, capped *big.Int
	if t.Kind == domain.OrderKindSell {
		limit := asset.FloorDiv(new(big.Int).Mul(sell, t.LimitBuyAmount), t.LimitSellAmount)
		surplus = new(big.Int).Sub(buy, limit)
		capped = asset.MulRatFloor(buy, grossUp(fMax))
	} else {
		limit := asset.FloorDiv(new(big.Int).Mul(buy, t.LimitSellAmount), t.LimitBuyAmount)
		surplus = new(big.Int).Sub(limit, sell)
		capped = asset.MulRatFloor(sell, grossDown(fMax))
	}

	return asset.MinInt(asset.MulRatFloor(surplus, grossUp(f)), capped), nil
}

func priceImprovementFee(t domain.Trade, p domain.FeePolicy, sell, buy *big.Int) (*big.Int, error) {
	f, err := factor(t, p.PriceImprovementFactor, domain.ColPriceImprovementFactor)
	if err != nil {
		return nil, err
	}
	fMax, err := factor(t, p.PriceImprovementMaxVolumeFactor, domain.ColPriceImprovementMaxVolumeFactor)
	if err != nil {
		return nil, err
	}

	q := t.Quote
	gasCost, err := q.GasCostInSellToken()
	if err != nil || q.SellAmount.Cmp(one) < 0 || q.BuyAmount.Cmp(one) < 0 {
		return nil, apperror.New(apperror.CodeInvalidTrade,
			apperror.WithComponent(apperror.ComponentFees),
			apperror.WithRowKey(t.Key()),
			apperror.WithContext("price improvement fee needs a complete quote"),
			apperror.WithCause(err),
		)
	}

	var improvement, capped *big.Int
	if t.Kind == domain.OrderKindSell {
		// quote_buy - quote_buy / quote_sell * gas cost
		adj := new(big.Rat).Quo(q.BuyAmount, q.SellAmount)
		adj.Mul(adj, gasCost)
		adj.Sub(q.BuyAmount, adj)
		quoted := new(big.Rat).SetFrac(asset.FloorRat(adj), asset.FloorRat(q.SellAmount))
		improvement = new(big.Int).Sub(buy, asset.MulRatFloor(sell, quoted))
		capped = asset.MulRatFloor(buy, grossUp(fMax))
	} else {
		adj := new(big.Rat).Add(q.SellAmount, gasCost)
		quoted := new(big.Rat).SetFrac(asset.FloorRat(adj), asset.FloorRat(q.BuyAmount))
		improvement = new(big.Int).Sub(asset.MulRatFloor(buy, quoted), sell)
		capped = asset.MulRatFloor(sell, grossDown(fMax))
	}

	fee := asset.MinInt(asset.MulRatFloor(improvement, grossUp(f)), capped)
	return asset.MaxInt(fee, new(big.Int)), nil
}

func volumeFee(t domain.Trade, p domain.FeePolicy, sell, buy *big.Int) (*big.Int, error) {
	f, err := factor(t, p.VolumeFactor, domain.ColVolumeFactor)
	if err != nil {
		return nil, err
	}
	if t.Kind == domain.OrderKindSell {
		return asset.MulRatFloor(buy, grossUp(f)), nil
	}
	return asset.MulRatFloor(sell, grossDown(f)), nil
}

func factor(t domain.Trade, f *big.Rat, column string) (*big.Rat, error) {
	if f == nil {
		return nil, apperror.New(apperror.CodeInvalidTrade,
			apperror.WithComponent(apperror.ComponentFees),
			apperror.WithRowKey(t.Key()),
			apperror.WithContext(column+" is null"),
		)
	}
	return f, nil
}

// grossUp returns f / (1 - f).
func grossUp(f *big.Rat) *big.Rat {
	return new(big.Rat).Quo(f, new(big.Rat).Sub(one, f))
}

// grossDown returns f / (1 + f).
func grossDown(f *big.Rat) *big.Rat {
	return new(big.Rat).Quo(f, new(big.Rat).Add(one, f))
}

func toNative(atoms *big.Rat, nativePrice *big.Rat) *big.Rat {
	v := new(big.Rat).Mul(atoms, nativePrice)
	return v.Quo(v, priceScale)
}

// NetworkFeesBySolver sums the native network fee per winning solver.
func NetworkFeesBySolver(fees []domain.TradeFees) map[common.Address]*big.Int {
	out := make(map[common.Address]*big.Int)
	for _, f := range fees {
		total, ok := out[f.WinningSolver]
		if !ok {
			total = new(big.Int)
			out[f.WinningSolver] = total
		}
		total.Add(total, f.NetworkFee)
	}
	return out
}
