package domain

import (
	"fmt"
	"math/big"

	"github.com/cowprotocol/solver-rewards/internal/apperror"
	"github.com/cowprotocol/solver-rewards/internal/frame"
)

// Trade data column names.
const (
	ColAuctionID                       = "auction_id"
	ColOrderUID                        = "order_uid"
	ColWinningSolver                   = "winning_solver"
	ColKind                            = "kind"
	ColPartiallyFillable               = "partially_fillable"
	ColSellToken                       = "sell_token"
	ColBuyToken                        = "buy_token"
	ColSellAmount                      = "sell_amount"
	ColBuyAmount                       = "buy_amount"
	ColLimitSellAmount                 = "limit_sell_amount"
	ColLimitBuyAmount                  = "limit_buy_amount"
	ColObservedFee                     = "observed_fee"
	ColSellTokenNativePrice            = "sell_token_native_price"
	ColBuyTokenNativePrice             = "buy_token_native_price"
	ColQuoteSellAmount                 = "quote_sell_amount"
	ColQuoteBuyAmount                  = "quote_buy_amount"
	ColQuoteGasAmount                  = "quote_gas_amount"
	ColQuoteGasPrice                   = "quote_gas_price"
	ColQuoteSellTokenPrice             = "quote_sell_token_price"
	ColQuoteSolver                     = "quote_solver"
	ColAppData                         = "app_data"
	ColProtocolFeeKind                 = "protocol_fee_kind"
	ColApplicationOrder                = "application_order"
	ColSurplusFactor                   = "surplus_factor"
	ColSurplusMaxVolumeFactor          = "surplus_max_volume_factor"
	ColVolumeFactor                    = "volume_factor"
	ColPriceImprovementFactor          = "price_improvement_factor"
	ColPriceImprovementMaxVolumeFactor = "price_improvement_max_volume_factor"
)

// TradeColumns are the columns a trade table must carry.
var TradeColumns = []string{
	ColAuctionID, ColOrderUID, ColWinningSolver, ColKind, ColPartiallyFillable,
	ColSellToken, ColBuyToken, ColSellAmount, ColBuyAmount,
	ColLimitSellAmount, ColLimitBuyAmount, ColObservedFee,
	ColSellTokenNativePrice, ColBuyTokenNativePrice,
	ColQuoteSellAmount, ColQuoteBuyAmount, ColQuoteGasAmount, ColQuoteGasPrice, ColQuoteSellTokenPrice,
	ColAppData, ColProtocolFeeKind, ColApplicationOrder,
	ColSurplusFactor, ColSurplusMaxVolumeFactor, ColVolumeFactor,
	ColPriceImprovementFactor, ColPriceImprovementMaxVolumeFactor,
}

// ReadTrades decodes a trade table.
func ReadTrades(t *frame.Table) ([]Trade, error) {
	if err := t.Require(TradeColumns...); err != nil {
		return nil, err
	}

	trades := make([]Trade, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		trade, err := readTrade(frame.NewReader(t.Row(i)))
		if err != nil {
			return nil, err
		}
		trades = append(trades, trade)
	}
	return trades, nil
}

func readTrade(r *frame.Reader) (Trade, error) {
	t := Trade{
		AuctionID:            r.Int(ColAuctionID),
		OrderUID:             r.Bytes(ColOrderUID),
		WinningSolver:        r.Address(ColWinningSolver),
		Kind:                 OrderKind(r.String(ColKind)),
		PartiallyFillable:    r.Bool(ColPartiallyFillable),
		SellToken:            r.Address(ColSellToken),
		BuyToken:             r.Address(ColBuyToken),
		SellAmount:           r.Wei(ColSellAmount),
		BuyAmount:            r.Wei(ColBuyAmount),
		LimitSellAmount:      r.Wei(ColLimitSellAmount),
		LimitBuyAmount:       r.Wei(ColLimitBuyAmount),
		ObservedFee:          r.WeiOrZero(ColObservedFee),
		SellTokenNativePrice: r.Rat(ColSellTokenNativePrice),
		BuyTokenNativePrice:  r.Rat(ColBuyTokenNativePrice),
		Quote: Quote{
			SellAmount:     r.Rat(ColQuoteSellAmount),
			BuyAmount:      r.Rat(ColQuoteBuyAmount),
			GasAmount:      r.Rat(ColQuoteGasAmount),
			GasPrice:       r.Rat(ColQuoteGasPrice),
			SellTokenPrice: r.Rat(ColQuoteSellTokenPrice),
		},
		QuoteSolver: r.OptionalAddress(ColQuoteSolver),
		AppData:     r.String(ColAppData),
	}

	kinds := r.Strings(ColProtocolFeeKind)
	orders := r.Ints(ColApplicationOrder)
	surplus := r.Rats(ColSurplusFactor)
	surplusMax := r.Rats(ColSurplusMaxVolumeFactor)
	volume := r.Rats(ColVolumeFactor)
	improvement := r.Rats(ColPriceImprovementFactor)
	improvementMax := r.Rats(ColPriceImprovementMaxVolumeFactor)
	if err := r.Err(); err != nil {
		return Trade{}, err
	}

	if len(orders) != len(kinds) {
		return Trade{}, apperror.New(apperror.CodeInvalidTrade,
			apperror.WithComponent(apperror.ComponentFees),
			apperror.WithRowKey(r.Key()),
			apperror.WithContext(fmt.Sprintf("%d fee kinds but %d application orders", len(kinds), len(orders))),
		)
	}
	for i, kind := range kinds {
		t.Policies = append(t.Policies, FeePolicy{
			ApplicationOrder:                orders[i],
			Kind:                            FeeKind(kind),
			SurplusFactor:                   at(surplus, i),
			SurplusMaxVolumeFactor:          at(surplusMax, i),
			VolumeFactor:                    at(volume, i),
			PriceImprovementFactor:          at(improvement, i),
			PriceImprovementMaxVolumeFactor: at(improvementMax, i),
		})
	}
	return t, nil
}

func at(list []*big.Rat, i int) *big.Rat {
	if i < len(list) {
		return list[i]
	}
	return nil
}
