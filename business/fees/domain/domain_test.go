package domain_test

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/cowprotocol/solver-rewards/business/fees/domain"
	"github.com/cowprotocol/solver-rewards/internal/asset"
	"github.com/cowprotocol/solver-rewards/internal/frame"
)

func TestParseAppData(t *testing.T) {
	recipient := asset.MustParseAddress("0x90a48d5cf7343b08da12e067680b4c6dbfe551be")
	encode := func(doc string) string { return hexutil.Encode([]byte(doc)) }

	tests := []struct {
		name        string
		cell        string
		wantAppCode string
		wantPartner bool
	}{
		{
			name:        "partner_fee",
			cell:        encode(`{"appCode":"CoW Swap","metadata":{"partnerFee":{"bps":50,"recipient":"0x90a48d5cf7343b08da12e067680b4c6dbfe551be"}}}`),
			wantAppCode: "CoW Swap",
			wantPartner: true,
		},
		{name: "empty_object", cell: encode("{}")},
		{name: "empty", cell: ""},
		{name: "empty_hex", cell: "0x"},
		{name: "odd_length_hex", cell: "0xabc"},
		{name: "not_hex", cell: "0xzz"},
		{name: "no_prefix", cell: "7b7d"},
		{name: "not_utf8", cell: "0xfffe"},
		{name: "not_json", cell: "0x0102"},
		{name: "invalid_recipient", cell: encode(`{"metadata":{"partnerFee":{"recipient":"nobody"}}}`)},
		{name: "no_partner_fee", cell: encode(`{"appCode":"1inch","metadata":{}}`), wantAppCode: "1inch"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := domain.ParseAppData(tt.cell)
			if got.AppCode != tt.wantAppCode {
				t.Errorf("app code: expected %q, got %q", tt.wantAppCode, got.AppCode)
			}
			if tt.wantPartner {
				if got.Recipient == nil || *got.Recipient != recipient {
					t.Errorf("expected recipient %s, got %v", recipient, got.Recipient)
				}
			} else if got.Recipient != nil {
				t.Errorf("expected no recipient, got %s", got.Recipient)
			}
		})
	}
}

func TestTaxTable_LookupOrder(t *testing.T) {
	partner := asset.MustParseAddress("0x63695Eee2c3141BDE314C5a6f89B98E62808d716")
	other := asset.MustParseAddress("0x2222222222222222222222222222222222222222")

	table := domain.NewTaxTable(big.NewRat(15, 100))
	table.Set(partner, "", big.NewRat(10, 100))
	table.Set(partner, "CoW Swap-SafeApp", big.NewRat(0, 1))

	tests := []struct {
		name      string
		recipient string
		appCode   string
		want      *big.Rat
	}{
		{"exact_match_ignores_case", "0x63695eee2c3141bde314c5a6f89b98e62808d716", "cow swap-safeapp", big.NewRat(0, 1)},
		{"wildcard_for_other_app_code", partner.Hex(), "CoW Swap", big.NewRat(10, 100)},
		{"default_for_unknown_recipient", other.Hex(), "CoW Swap-SafeApp", big.NewRat(15, 100)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := table.Cut(asset.MustParseAddress(tt.recipient), tt.appCode)
			if got.Cmp(tt.want) != 0 {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestRedirects_Apply(t *testing.T) {
	from := asset.MustParseAddress("0x1111111111111111111111111111111111111111")
	to := asset.MustParseAddress("0x2222222222222222222222222222222222222222")
	redirects := domain.Redirects{{From: from, To: to, AppCode: "Safe"}}

	if got := redirects.Apply(from, "safe"); got != to {
		t.Errorf("expected redirect to %s, got %s", to, got)
	}
	if got := redirects.Apply(from, "CoW Swap"); got != from {
		t.Errorf("expected no redirect for other app code, got %s", got)
	}
}

func tradeRow(appData string) []string {
	return []string{
		"42", "0x0102", "0x1111111111111111111111111111111111111111", "sell", "false",
		"0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		"100000000000000000000", "95000000", "100000000000000000000", "94000000", "0",
		"1000000000000000000", "500000000000000000000000000",
		"", "", "", "", "",
		appData, `["surplus","volume"]`, "[1,2]",
		"[0.5,null]", "[0.05,null]", "[null,0.0048]", "[null,null]", "[null,null]",
	}
}

func TestReadTrades(t *testing.T) {
	tbl := frame.New("trade_data", domain.TradeColumns...)
	if err := tbl.Append(tradeRow("0x7b7d")...); err != nil {
		t.Fatal(err)
	}
	trades, err := domain.ReadTrades(tbl)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}

	tr := trades[0]
	if tr.AuctionID != 42 || tr.Kind != domain.OrderKindSell || tr.Key() != "0x0102" {
		t.Errorf("unexpected identity %d %s %s", tr.AuctionID, tr.Kind, tr.Key())
	}
	if len(tr.Policies) != 2 {
		t.Fatalf("expected 2 policies, got %d", len(tr.Policies))
	}
	if tr.Policies[0].Kind != domain.FeeKindSurplus || tr.Policies[0].SurplusFactor.RatString() != "1/2" {
		t.Errorf("unexpected first policy %+v", tr.Policies[0])
	}
	if tr.Policies[1].VolumeFactor.RatString() != "3/625" || tr.Policies[1].SurplusFactor != nil {
		t.Errorf("unexpected second policy %+v", tr.Policies[1])
	}
	if tr.Quote.Complete() {
		t.Error("expected empty quote")
	}
	if tr.QuoteSolver != nil {
		t.Error("expected no quote solver column")
	}
}

func TestReadTrades_MalformedAppData(t *testing.T) {
	for _, cell := range []string{"0xabc", "0xzz", "not hex"} {
		tbl := frame.New("trade_data", domain.TradeColumns...)
		if err := tbl.Append(tradeRow(cell)...); err != nil {
			t.Fatal(err)
		}
		trades, err := domain.ReadTrades(tbl)
		if err != nil {
			t.Fatalf("app data %q: unexpected error: %v", cell, err)
		}
		if app := domain.ParseAppData(trades[0].AppData); app.Recipient != nil || app.AppCode != "" {
			t.Errorf("app data %q: expected empty app data, got %+v", cell, app)
		}
	}
}

func TestReadTrades_MissingColumn(t *testing.T) {
	tbl := frame.New("trade_data", "auction_id", "order_uid")
	if _, err := domain.ReadTrades(tbl); err == nil || !strings.Contains(err.Error(), "winning_solver") {
		t.Errorf("expected missing winning_solver, got %v", err)
	}
}
