package coinpaprika_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cowprotocol/solver-rewards/business/pricing/infra/coinpaprika"
	"github.com/cowprotocol/solver-rewards/internal/apperror"
	"github.com/cowprotocol/solver-rewards/internal/logger"
)

var day = time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC)

func newProvider(t *testing.T, handler http.HandlerFunc) *coinpaprika.Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := coinpaprika.NewProvider(coinpaprika.Config{BaseURL: srv.URL}, logger.Discard())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return p
}

func TestUSDPrice(t *testing.T) {
	p := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/tickers/cow-cow-protocol-token/historical" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("start") != "2024-05-13" || q.Get("limit") != "1" || q.Get("interval") != "1d" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.Write([]byte(`[{"timestamp":"2024-05-13T00:00:00Z","price":0.2871,"volume_24h":1,"market_cap":2}]`))
	})

	price, err := p.USDPrice(context.Background(), "cow-cow-protocol-token", day)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if price.String() != "0.2871" {
		t.Errorf("expected 0.2871, got %s", price)
	}
}

func TestUSDPrice_WrongDay(t *testing.T) {
	p := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"timestamp":"2024-05-12T00:00:00Z","price":3000}]`))
	})

	_, err := p.USDPrice(context.Background(), "eth-ethereum", day)
	if !apperror.HasCode(err, apperror.CodePriceUnavailable) {
		t.Errorf("expected PRICE_UNAVAILABLE, got %v", err)
	}
}

func TestUSDPrice_Empty(t *testing.T) {
	p := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	_, err := p.USDPrice(context.Background(), "eth-ethereum", day)
	if !apperror.HasCode(err, apperror.CodePriceUnavailable) {
		t.Errorf("expected PRICE_UNAVAILABLE, got %v", err)
	}
}

func TestUSDPrice_ServerError(t *testing.T) {
	p := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := p.USDPrice(context.Background(), "eth-ethereum", day)
	if !apperror.HasCode(err, apperror.CodeSourceFailed) {
		t.Errorf("expected SOURCE_FAILED, got %v", err)
	}
}
