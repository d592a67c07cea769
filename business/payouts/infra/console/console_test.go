package console_test

import (
	"bytes"
	"context"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cowprotocol/solver-rewards/business/payouts/domain"
	"github.com/cowprotocol/solver-rewards/business/payouts/infra/console"
	"github.com/cowprotocol/solver-rewards/internal/asset"
)

var solver = common.HexToAddress("0x90a48d5cf7343b08da12e067680b4c6dbfe551be")

func payouts(t *testing.T, network asset.Network) *domain.PeriodPayouts {
	t.Helper()
	reward, err := domain.NewTransfer(&network.RewardToken, solver, big.NewInt(25e17))
	if err != nil {
		t.Fatal(err)
	}
	native, err := domain.NativeTransfer(solver, big.NewInt(5e17))
	if err != nil {
		t.Fatal(err)
	}
	summary := domain.NewSummary()
	summary.NativeOutflow = big.NewInt(5e17)
	summary.CowOutflow = big.NewInt(25e17)
	return &domain.PeriodPayouts{
		Period:     "2024-05-07-to-2024-05-14",
		Transfers:  []domain.Transfer{reward, native},
		Overdrafts: []domain.Overdraft{{Period: "2024-05-07-to-2024-05-14", Account: solver, Name: "s", Wei: big.NewInt(1e18)}},
		Summary:    summary,
	}
}

func mainnet(t *testing.T) asset.Network {
	t.Helper()
	network, err := asset.LookupNetwork("mainnet")
	if err != nil {
		t.Fatal(err)
	}
	return network
}

func TestReporter(t *testing.T) {
	network := mainnet(t)
	var out bytes.Buffer
	console.NewReporterTo(&out, network.Registry()).Report(payouts(t, network))

	got := out.String()
	for _, want := range []string{"PAYOUT 2024-05-07-to-2024-05-14", "Native outflow: 0.5000", "COW outflow:    2.5000", "OVERDRAFTS (1)"} {
		if !strings.Contains(got, want) {
			t.Errorf("report missing %q:\n%s", want, got)
		}
	}
}

func TestReviewInput(t *testing.T) {
	network := mainnet(t)
	in := console.ReviewInput(network.Registry(), payouts(t, network))

	if len(in.Transfers) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(in.Transfers))
	}
	if in.Transfers[0].Token != "COW" || in.Transfers[0].Amount != "2.5" {
		t.Errorf("unexpected reward row %+v", in.Transfers[0])
	}
	if in.Transfers[1].Token != network.NativeSymbol || in.Transfers[1].Amount != "0.5" {
		t.Errorf("unexpected native row %+v", in.Transfers[1])
	}
	if len(in.Overdraft) != 1 {
		t.Errorf("expected 1 overdraft, got %d", len(in.Overdraft))
	}
}

func TestReviewer(t *testing.T) {
	network := mainnet(t)
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"confirm", "\r", true},
		{"reject", "q", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := console.NewReviewerIO(network.Registry(), strings.NewReader(tt.input), &bytes.Buffer{})
			ok, err := r.Review(context.Background(), payouts(t, network))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ok != tt.want {
				t.Errorf("expected %v, got %v", tt.want, ok)
			}
		})
	}
}
