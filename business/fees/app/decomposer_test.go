package app_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/cowprotocol/solver-rewards/business/fees/app"
	"github.com/cowprotocol/solver-rewards/business/fees/domain"
	"github.com/cowprotocol/solver-rewards/internal/apperror"
	"github.com/cowprotocol/solver-rewards/internal/asset"
	"github.com/cowprotocol/solver-rewards/internal/logger"
)

var (
	solver     = asset.MustParseAddress("0x1111111111111111111111111111111111111111")
	sellToken  = asset.MustParseAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	buyToken   = asset.MustParseAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	partnerRcp = asset.MustParseAddress("0x90a48d5cf7343b08da12e067680b4c6dbfe551be")
)

const partnerAppData = `{"appCode":"CoW Swap","metadata":{"partnerFee":{"bps":48,"recipient":"0x90a48d5cf7343b08da12e067680b4c6dbfe551be"}}}`

func wei(s string) *big.Int { return asset.MustParseWei(s) }

func rat(s string) *big.Rat { return asset.MustParseRat(s) }

func sellTrade(sell, buy, observed string) domain.Trade {
	return domain.Trade{
		AuctionID:            1,
		OrderUID:             []byte{0x01},
		WinningSolver:        solver,
		Kind:                 domain.OrderKindSell,
		SellToken:            sellToken,
		BuyToken:             buyToken,
		SellAmount:           wei(sell),
		BuyAmount:            wei(buy),
		LimitSellAmount:      wei("100000000000000000000"),
		LimitBuyAmount:       wei("94000000"),
		ObservedFee:          wei(observed),
		SellTokenNativePrice: rat("1e18"),
		BuyTokenNativePrice:  rat("5e26"),
	}
}

func buyTrade(sell, buy string) domain.Trade {
	t := sellTrade(sell, buy, "0")
	t.Kind = domain.OrderKindBuy
	t.LimitSellAmount = wei("106000000000000000000")
	t.LimitBuyAmount = wei("100000000")
	return t
}

func surplus(order int64, f, fMax string) domain.FeePolicy {
	return domain.FeePolicy{
		ApplicationOrder:       order,
		Kind:                   domain.FeeKindSurplus,
		SurplusFactor:          rat(f),
		SurplusMaxVolumeFactor: rat(fMax),
	}
}

func volume(order int64, f string) domain.FeePolicy {
	return domain.FeePolicy{ApplicationOrder: order, Kind: domain.FeeKindVolume, VolumeFactor: rat(f)}
}

// s6Trade is a sell order with a surplus fee followed by a partner volume fee.
func s6Trade() domain.Trade {
	t := sellTrade("100000000000000000000", "95000000", "5000000000000000000")
	t.AppData = hexutil.Encode([]byte(partnerAppData))
	t.Policies = []domain.FeePolicy{surplus(1, "0.5", "0.05"), volume(2, "0.0048")}
	return t
}

func TestDecompose_SurplusFee(t *testing.T) {
	tests := []struct {
		name      string
		trade     domain.Trade
		wantFee   string
		wantSell  string
		wantBuy   string
		wantToken common.Address
	}{
		{
			name:      "sell_order_surplus_below_cap",
			trade:     sellTrade("100000000000000000000", "95000000", "0"),
			wantFee:   "1000000",
			wantSell:  "100000000000000000000",
			wantBuy:   "96000000",
			wantToken: buyToken,
		},
		{
			name:      "buy_order_surplus_below_cap",
			trade:     buyTrade("105000000000000000000", "100000000"),
			wantFee:   "1000000000000000000",
			wantSell:  "104000000000000000000",
			wantBuy:   "100000000",
			wantToken: sellToken,
		},
	}

	d := app.NewDecomposer(logger.Discard())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.trade.Policies = []domain.FeePolicy{surplus(1, "0.5", "0.05")}
			got, err := d.Decompose(tt.trade)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got.ProtocolFees) != 1 {
				t.Fatalf("expected 1 fee, got %d", len(got.ProtocolFees))
			}
			fee := got.ProtocolFees[0]
			if fee.Amount.Cmp(wei(tt.wantFee)) != 0 {
				t.Errorf("fee: expected %s, got %s", tt.wantFee, fee.Amount)
			}
			if fee.Token != tt.wantToken {
				t.Errorf("fee token: expected %s, got %s", tt.wantToken, fee.Token)
			}
			if got.SellBeforeFees.Cmp(wei(tt.wantSell)) != 0 {
				t.Errorf("sell before fees: expected %s, got %s", tt.wantSell, got.SellBeforeFees)
			}
			if got.BuyBeforeFees.Cmp(wei(tt.wantBuy)) != 0 {
				t.Errorf("buy before fees: expected %s, got %s", tt.wantBuy, got.BuyBeforeFees)
			}
		})
	}
}

func TestDecompose_SurplusFeeVolumeCap(t *testing.T) {
	tests := []struct {
		name    string
		trade   domain.Trade
		wantFee string
	}{
		{"sell_order", sellTrade("100000000000000000000", "95000000", "0"), "5000000"},
		{"buy_order", buyTrade("105000000000000000000", "100000000"), "5000000000000000000"},
	}

	d := app.NewDecomposer(logger.Discard())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.trade.Policies = []domain.FeePolicy{surplus(1, "0.9", "0.05")}
			got, err := d.Decompose(tt.trade)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.ProtocolFees[0].Amount.Cmp(wei(tt.wantFee)) != 0 {
				t.Errorf("expected capped fee %s, got %s", tt.wantFee, got.ProtocolFees[0].Amount)
			}
		})
	}
}

func TestDecompose_VolumeFee(t *testing.T) {
	d := app.NewDecomposer(logger.Discard())

	sell := sellTrade("100000000000000000000", "95000000", "0")
	sell.Policies = []domain.FeePolicy{volume(1, "0.0048")}
	got, err := d.Decompose(sell)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// floor(0.0048 / 0.9952 * 95e6)
	if got.ProtocolFees[0].Amount.Cmp(wei("458199")) != 0 {
		t.Errorf("sell order: expected 458199, got %s", got.ProtocolFees[0].Amount)
	}

	buy := buyTrade("101000000000000000000", "100000000")
	buy.Policies = []domain.FeePolicy{volume(1, "0.01")}
	got, err = d.Decompose(buy)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// floor(0.01 / 1.01 * 101e18)
	if got.ProtocolFees[0].Amount.Cmp(wei("1000000000000000000")) != 0 {
		t.Errorf("buy order: expected 1e18, got %s", got.ProtocolFees[0].Amount)
	}
	if got.SellBeforeFees.Cmp(wei("100000000000000000000")) != 0 {
		t.Errorf("buy order: expected sell before fees 100e18, got %s", got.SellBeforeFees)
	}
}

func TestDecompose_PriceImprovementFee(t *testing.T) {
	quote := domain.Quote{
		SellAmount:     rat("100000000000000000000"),
		BuyAmount:      rat("95000000"),
		GasAmount:      rat("100000"),
		GasPrice:       rat("10000000000"),
		SellTokenPrice: rat("1"),
	}
	policy := domain.FeePolicy{
		ApplicationOrder:                1,
		Kind:                            domain.FeeKindPriceImprovement,
		PriceImprovementFactor:          rat("0.5"),
		PriceImprovementMaxVolumeFactor: rat("0.01"),
	}

	tests := []struct {
		name    string
		buy     string
		wantFee string
	}{
		// quote_buy adjusted for gas is 94999050
		{"improvement", "95500000", "500950"},
		{"no_improvement", "94000000", "0"},
	}

	d := app.NewDecomposer(logger.Discard())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trade := sellTrade("100000000000000000000", tt.buy, "0")
			trade.Quote = quote
			trade.Policies = []domain.FeePolicy{policy}
			got, err := d.Decompose(trade)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.ProtocolFees[0].Amount.Cmp(wei(tt.wantFee)) != 0 {
				t.Errorf("expected %s, got %s", tt.wantFee, got.ProtocolFees[0].Amount)
			}
		})
	}

	t.Run("missing_quote", func(t *testing.T) {
		trade := sellTrade("100000000000000000000", "95500000", "0")
		trade.Policies = []domain.FeePolicy{policy}
		_, err := d.Decompose(trade)
		if !apperror.HasCode(err, apperror.CodeInvalidTrade) {
			t.Errorf("expected INVALID_TRADE, got %v", err)
		}
	})
}

func TestDecompose_NoProtocolFees(t *testing.T) {
	d := app.NewDecomposer(logger.Discard())
	trade := sellTrade("100000000000000000000", "95000000", "5000000000000000000")
	trade.SellTokenNativePrice = rat("2e18")

	got, err := d.Decompose(trade)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.ProtocolFees) != 0 {
		t.Errorf("expected no protocol fees, got %d", len(got.ProtocolFees))
	}
	if got.NetworkFee.Cmp(wei("10000000000000000000")) != 0 {
		t.Errorf("expected network fee 10e18, got %s", got.NetworkFee)
	}
	if got.Recipient != nil {
		t.Error("expected no recipient")
	}
}

func TestDecompose_PartnerFee(t *testing.T) {
	d := app.NewDecomposer(logger.Discard())

	got, err := d.Decompose(s6Trade())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Recipient == nil || *got.Recipient != partnerRcp {
		t.Fatalf("expected partner recipient, got %v", got.Recipient)
	}
	if got.AppCode != "CoW Swap" {
		t.Errorf("expected app code, got %q", got.AppCode)
	}

	want := []struct {
		kind    domain.FeeKind
		amount  string
		partner bool
	}{
		{domain.FeeKindSurplus, "1458199", false},
		{domain.FeeKindVolume, "458199", true},
	}
	if len(got.ProtocolFees) != len(want) {
		t.Fatalf("expected %d fees, got %d", len(want), len(got.ProtocolFees))
	}
	for i, w := range want {
		fee := got.ProtocolFees[i]
		if fee.Kind != w.kind || fee.Amount.Cmp(wei(w.amount)) != 0 || fee.IsPartnerFee != w.partner {
			t.Errorf("fee %d: expected %s %s partner=%v, got %s %s partner=%v",
				i, w.kind, w.amount, w.partner, fee.Kind, fee.Amount, fee.IsPartnerFee)
		}
	}

	if got.BuyBeforeFees.Cmp(wei("96916398")) != 0 {
		t.Errorf("expected buy before fees 96916398, got %s", got.BuyBeforeFees)
	}
	if got.NetworkFee.Cmp(wei("3083602000000000000")) != 0 {
		t.Errorf("expected network fee 3083602e12, got %s", got.NetworkFee)
	}
}

func TestDecompose_Errors(t *testing.T) {
	d := app.NewDecomposer(logger.Discard())

	tests := []struct {
		name   string
		mutate func(*domain.Trade)
		want   apperror.Code
	}{
		{
			name: "partner_fee_not_volume",
			mutate: func(tr *domain.Trade) {
				tr.Policies = []domain.FeePolicy{volume(1, "0.01"), surplus(2, "0.5", "0.05")}
			},
			want: apperror.CodeInvalidPartnerFee,
		},
		{
			name: "unknown_fee_kind",
			mutate: func(tr *domain.Trade) {
				tr.AppData = ""
				tr.Policies = []domain.FeePolicy{{ApplicationOrder: 1, Kind: "cashback"}}
			},
			want: apperror.CodeUnknownFeeKind,
		},
		{
			name:   "unknown_order_kind",
			mutate: func(tr *domain.Trade) { tr.Kind = "swap" },
			want:   apperror.CodeUnknownOrderKind,
		},
		{
			name:   "observed_fee_above_sell",
			mutate: func(tr *domain.Trade) { tr.ObservedFee = wei("200000000000000000000") },
			want:   apperror.CodeInvalidTrade,
		},
		{
			name:   "factor_out_of_range",
			mutate: func(tr *domain.Trade) { tr.Policies[1].VolumeFactor = rat("1") },
			want:   apperror.CodeInvalidTrade,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trade := s6Trade()
			tt.mutate(&trade)
			_, err := d.Decompose(trade)
			if !apperror.HasCode(err, tt.want) {
				t.Errorf("expected %s, got %v", tt.want, err)
			}
		})
	}
}

// The reconstructed pre-fee amounts keep the executed price net of the
// network fee, up to the flooring of the network fee.
func TestDecompose_RoundTrip(t *testing.T) {
	surplusOnly := sellTrade("100000000000000000000", "95000000", "3000000000000000000")
	surplusOnly.Policies = []domain.FeePolicy{surplus(1, "0.9", "0.05")}

	buyVolume := buyTrade("101000000000000000000", "100000000")
	buyVolume.ObservedFee = wei("7000000000000000")
	buyVolume.Policies = []domain.FeePolicy{volume(1, "0.01")}

	trades := map[string]domain.Trade{
		"s6":            s6Trade(),
		"surplus_only":  surplusOnly,
		"buy_volume":    buyVolume,
		"no_fee_policy": sellTrade("100000000000000000000", "95000000", "1"),
	}

	d := app.NewDecomposer(logger.Discard())
	for name, trade := range trades {
		t.Run(name, func(t *testing.T) {
			got, err := d.Decompose(trade)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			// (sell_pre - network_fee_sell) * buy  vs  (sell - observed_fee) * buy_pre
			lhs := new(big.Int).Sub(got.SellBeforeFees, got.NetworkFeeSell)
			lhs.Mul(lhs, trade.BuyAmount)
			rhs := new(big.Int).Sub(trade.SellAmount, trade.ObservedFee)
			rhs.Mul(rhs, got.BuyBeforeFees)

			diff := new(big.Int).Sub(lhs, rhs)
			if diff.Sign() < 0 || diff.Cmp(trade.BuyAmount) > 0 {
				t.Errorf("price identity off by %s (buy amount %s)", diff, trade.BuyAmount)
			}
		})
	}
}
