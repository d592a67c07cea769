package app_test

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/cowprotocol/solver-rewards/business/payouts/app"
	"github.com/cowprotocol/solver-rewards/business/payouts/domain"
	"github.com/cowprotocol/solver-rewards/internal/apperror"
	"github.com/cowprotocol/solver-rewards/internal/asset"
	"github.com/cowprotocol/solver-rewards/internal/logger"
	"github.com/cowprotocol/solver-rewards/internal/period"
)

type fakeSource struct {
	tables domain.Tables
	err    error
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Load(context.Context, period.Period) (domain.Tables, error) {
	return f.tables, f.err
}

type fakeRates struct{}

func (fakeRates) ExchangeRateAtoms(context.Context, common.Address, common.Address, time.Time) (asset.ExchangeRate, error) {
	return asset.NewExchangeRate(asset.NewNative("ETH"), asset.NewToken(cowToken, "COW", 18, "cow-cow-protocol-token"), big.NewRat(1000, 1))
}

type fakeEncoder struct{ calls int }

func (f *fakeEncoder) Encode(_ context.Context, transfers []domain.Transfer, _ bool) (domain.Multisend, error) {
	f.calls++
	return domain.Multisend{Calls: make([]domain.Call, len(transfers))}, nil
}

type fakeExporter struct {
	artifacts []domain.Artifacts
}

func (f *fakeExporter) Export(_ context.Context, a domain.Artifacts) ([]string, error) {
	f.artifacts = append(f.artifacts, a)
	return []string{"transfers.csv"}, nil
}

type fakeArchiver struct{ prefixes []string }

func (f *fakeArchiver) Archive(_ context.Context, prefix string, _ []string) error {
	f.prefixes = append(f.prefixes, prefix)
	return nil
}

type fakeNotifier struct{ posts int }

func (f *fakeNotifier) Post(context.Context, domain.Summary, *domain.PeriodPayouts) error {
	f.posts++
	return nil
}

type fakeReviewer bool

func (f fakeReviewer) Review(context.Context, *domain.PeriodPayouts) (bool, error) {
	return bool(f), nil
}

type harness struct {
	exporter *fakeExporter
	encoder  *fakeEncoder
	archiver *fakeArchiver
	notifier *fakeNotifier
}

func newService(t *testing.T, source app.Source, orch *app.Orchestrator, opts ...app.ServiceOption) (*app.PayoutService, *harness) {
	t.Helper()
	h := &harness{
		exporter: &fakeExporter{},
		encoder:  &fakeEncoder{},
		archiver: &fakeArchiver{},
		notifier: &fakeNotifier{},
	}
	opts = append([]app.ServiceOption{
		app.WithArchiver(h.archiver),
		app.WithNotifier(h.notifier),
		app.WithMeter(noop.NewMeterProvider().Meter("test")),
	}, opts...)
	svc := app.NewPayoutService(source, fakeRates{}, orch, h.encoder, h.exporter, logger.Discard(), opts...)
	return svc, h
}

var testPeriod = period.MustNew("2024-05-07", 7)

func TestPayoutService_Run(t *testing.T) {
	svc, h := newService(t, &fakeSource{tables: partnerFeeTables(t)}, newOrchestrator())

	res, err := svc.Run(context.Background(), testPeriod, app.RunOptions{Post: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.Payouts.Transfers) != 5 || len(res.Multisend.Calls) != 5 {
		t.Errorf("expected 5 transfers and calls, got %d and %d", len(res.Payouts.Transfers), len(res.Multisend.Calls))
	}
	if len(h.exporter.artifacts) != 1 || h.exporter.artifacts[0].RunID != res.RunID {
		t.Errorf("expected one export for run %s, got %+v", res.RunID, h.exporter.artifacts)
	}
	wantPrefix := "mainnet/2024-05-07-to-2024-05-14/" + res.RunID
	if len(h.archiver.prefixes) != 1 || h.archiver.prefixes[0] != wantPrefix {
		t.Errorf("expected archive under %s, got %v", wantPrefix, h.archiver.prefixes)
	}
	if h.notifier.posts != 1 {
		t.Errorf("expected one post, got %d", h.notifier.posts)
	}
}

func TestPayoutService_DryRun(t *testing.T) {
	svc, h := newService(t, &fakeSource{tables: partnerFeeTables(t)}, newOrchestrator())

	if _, err := svc.Run(context.Background(), testPeriod, app.RunOptions{DryRun: true, Post: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(h.exporter.artifacts) != 1 {
		t.Errorf("dry run should still export locally")
	}
	if len(h.archiver.prefixes) != 0 || h.notifier.posts != 0 {
		t.Errorf("dry run archived %v and posted %d times", h.archiver.prefixes, h.notifier.posts)
	}
}

func TestPayoutService_ReviewRejected(t *testing.T) {
	svc, h := newService(t, &fakeSource{tables: partnerFeeTables(t)}, newOrchestrator(), app.WithReviewer(fakeReviewer(false)))

	_, err := svc.Run(context.Background(), testPeriod, app.RunOptions{Review: true})
	if !apperror.HasCode(err, apperror.CodeExportFailed) {
		t.Fatalf("expected EXPORT_FAILED, got %v", err)
	}
	if h.encoder.calls != 0 || len(h.exporter.artifacts) != 0 {
		t.Error("rejected run must not export")
	}
}

func TestPayoutService_SourceFailure(t *testing.T) {
	cause := apperror.External(apperror.CodeSourceFailed, "dune query", errors.New("timeout"))
	svc, h := newService(t, &fakeSource{err: cause}, newOrchestrator())

	_, err := svc.Run(context.Background(), testPeriod, app.RunOptions{})
	if !apperror.HasCode(err, apperror.CodeSourceFailed) {
		t.Fatalf("expected SOURCE_FAILED, got %v", err)
	}
	if len(h.exporter.artifacts) != 0 {
		t.Error("failed run must not export")
	}
}

func TestPayoutService_PostProcessing(t *testing.T) {
	tests := []struct {
		name       string
		settings   func(*domain.Settings)
		recipients []string
		native     string
	}{
		{
			name: "minimum native transfer drops fee payouts",
			settings: func(s *domain.Settings) {
				s.MinNativeTransfer = wei("1000000000000000")
				s.MinCowTransfer = wei("0")
			},
			recipients: []string{asset.Canonical(solver), asset.Canonical(rewardTarget)},
			native:     "3083602000000000000",
		},
		{
			name:       "consolidation merges safe transfers",
			settings:   func(s *domain.Settings) { s.Consolidate = true },
			recipients: []string{asset.Canonical(solver), asset.Canonical(partner), asset.Canonical(rewardTarget), asset.Canonical(protocolFeeSafe)},
			native:     "3084560199000000000",
		},
		{
			name:       "minimum cow transfer drops the reward",
			settings:   func(s *domain.Settings) { s.MinCowTransfer = wei("1000000000000000000") },
			recipients: []string{asset.Canonical(solver), asset.Canonical(partner), asset.Canonical(protocolFeeSafe), asset.Canonical(protocolFeeSafe)},
			native:     "3084560199000000000",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newService(t, &fakeSource{tables: partnerFeeTables(t)}, newOrchestrator(tt.settings))

			res, err := svc.Run(context.Background(), testPeriod, app.RunOptions{DryRun: true})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			var got []string
			for _, tr := range res.Payouts.Transfers {
				got = append(got, asset.Canonical(tr.Recipient))
			}
			if strings.Join(got, ",") != strings.Join(tt.recipients, ",") {
				t.Errorf("expected recipients %v, got %v", tt.recipients, got)
			}
			if res.Payouts.Summary.NativeOutflow.Cmp(wei(tt.native)) != 0 {
				t.Errorf("expected native outflow %s, got %s", tt.native, res.Payouts.Summary.NativeOutflow)
			}
		})
	}
}
