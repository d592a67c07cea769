package app

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/cowprotocol/solver-rewards/business/payouts/domain"
	pricing "github.com/cowprotocol/solver-rewards/business/pricing/domain"
	"github.com/cowprotocol/solver-rewards/internal/apm"
	"github.com/cowprotocol/solver-rewards/internal/apperror"
	"github.com/cowprotocol/solver-rewards/internal/asset"
	"github.com/cowprotocol/solver-rewards/internal/frame"
	"github.com/cowprotocol/solver-rewards/internal/logger"
	"github.com/cowprotocol/solver-rewards/internal/period"
)

const instrumentationName = "github.com/cowprotocol/solver-rewards/payouts"

// RunOptions are the per-invocation switches of a payout run.
type RunOptions struct {
	DryRun         bool
	Post           bool
	Review         bool
	SkipValidation bool
}

// RunResult is what a finished run produced.
type RunResult struct {
	RunID     string
	Payouts   *domain.PeriodPayouts
	Multisend domain.Multisend
	Files     []string
}

// PayoutService loads the inputs of a period, computes the payouts and
// exports them.
type PayoutService struct {
	source       Source
	rates        RateSource
	orchestrator *Orchestrator
	encoder      Encoder
	exporter     Exporter
	archiver     Archiver
	notifier     Notifier
	reviewer     Reviewer
	reporter     Reporter
	tracer       apm.Tracer
	metrics      *runMetrics
	logger       logger.LoggerInterface
}

// ServiceOption configures optional collaborators of the service.
type ServiceOption func(*PayoutService)

// WithArchiver uploads exported files after a non dry run.
func WithArchiver(a Archiver) ServiceOption {
	return func(s *PayoutService) { s.archiver = a }
}

// WithNotifier posts the summary when a run asks for it.
func WithNotifier(n Notifier) ServiceOption {
	return func(s *PayoutService) { s.notifier = n }
}

// WithReviewer asks an operator to confirm transfers before export.
func WithReviewer(r Reviewer) ServiceOption {
	return func(s *PayoutService) { s.reviewer = r }
}

// WithReporter renders the summary after compute.
func WithReporter(r Reporter) ServiceOption {
	return func(s *PayoutService) { s.reporter = r }
}

// WithMeter records run metrics on meter instead of the global provider.
func WithMeter(m metric.Meter) ServiceOption {
	return func(s *PayoutService) { s.metrics = newRunMetrics(m) }
}

// NewPayoutService creates a new PayoutService.
func NewPayoutService(
	source Source,
	rates RateSource,
	orchestrator *Orchestrator,
	encoder Encoder,
	exporter Exporter,
	log logger.LoggerInterface,
	opts ...ServiceOption,
) *PayoutService {
	s := &PayoutService{
		source:       source,
		rates:        rates,
		orchestrator: orchestrator,
		encoder:      encoder,
		exporter:     exporter,
		tracer:       apm.NewTracer(instrumentationName),
		logger:       log,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = newRunMetrics(otel.Meter(instrumentationName))
	}
	return s
}

// Run executes one payout for p.
func (s *PayoutService) Run(ctx context.Context, p period.Period, opts RunOptions) (res *RunResult, err error) {
	start := time.Now()
	runID := uuid.NewString()
	ctx, span := s.tracer.StartSpanFromContext(ctx, "payouts.run",
		attribute.String("run_id", runID),
		attribute.String("period", p.String()),
		attribute.Bool("dry_run", opts.DryRun),
	)
	defer func() {
		span.NoticeError(err)
		span.End()
	}()

	settings := s.orchestrator.Settings()
	s.logger.Info(ctx, "payout run started",
		"run_id", runID,
		"period", p.String(),
		"source", s.source.Name(),
		"dry_run", opts.DryRun,
	)

	tables, conv, err := s.load(ctx, p, settings)
	if err != nil {
		return nil, err
	}

	payouts, err := s.compute(ctx, p, tables, conv, settings)
	if err != nil {
		return nil, err
	}
	if s.reporter != nil {
		s.reporter.Report(payouts)
	}

	if opts.Review && s.reviewer != nil {
		ok, err := s.reviewer.Review(ctx, payouts)
		if err != nil {
			return nil, fmt.Errorf("review: %w", err)
		}
		if !ok {
			return nil, apperror.New(apperror.CodeExportFailed,
				apperror.WithComponent(apperror.ComponentPayouts),
				apperror.WithMessage("payout rejected during review"),
			)
		}
	}

	result, err := s.export(ctx, runID, p, payouts, opts, settings)
	if err != nil {
		return nil, err
	}

	s.metrics.record(ctx, payouts, time.Since(start))
	s.logger.Info(ctx, "payout run finished",
		"run_id", runID,
		"files", len(result.Files),
		"duration", time.Since(start).String(),
	)
	return result, nil
}

func (s *PayoutService) load(ctx context.Context, p period.Period, settings domain.Settings) (domain.Tables, Conversion, error) {
	ctx, span := s.tracer.StartSpanFromContext(ctx, "payouts.load", attribute.String("source", s.source.Name()))
	defer span.End()

	var (
		tables domain.Tables
		conv   pricing.TokenConversion
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tables, err = s.source.Load(gctx, p)
		return err
	})
	g.Go(func() error {
		rate, err := s.rates.ExchangeRateAtoms(gctx, settings.WrappedNativeToken, settings.RewardToken, p.PriceDay())
		if err != nil {
			return err
		}
		conv = pricing.NewTokenConversion(rate)
		return nil
	})
	if err := g.Wait(); err != nil {
		span.NoticeError(err)
		return domain.Tables{}, nil, err
	}

	s.logger.Info(ctx, "inputs loaded",
		"batches", tableLen(tables.Batches),
		"trades", tableLen(tables.Trades),
		"rate", conv.Rate().String(),
	)
	span.SetOK()
	return tables, conv, nil
}

func (s *PayoutService) compute(
	ctx context.Context,
	p period.Period,
	tables domain.Tables,
	conv Conversion,
	settings domain.Settings,
) (*domain.PeriodPayouts, error) {
	ctx, span := s.tracer.StartSpanFromContext(ctx, "payouts.compute")
	defer span.End()

	payouts, err := s.orchestrator.Run(ctx, Inputs{Period: p, Tables: tables, Conversion: conv})
	if err != nil {
		span.NoticeError(err)
		return nil, err
	}

	payouts.Transfers = s.postProcess(ctx, payouts.Transfers, settings)
	payouts.Summary.NativeOutflow, payouts.Summary.CowOutflow = domain.Totals(payouts.Transfers, settings.RewardToken)

	span.SetAttributes(
		attribute.Int("transfers", len(payouts.Transfers)),
		attribute.Int("overdrafts", len(payouts.Overdrafts)),
	)
	span.SetOK()
	return payouts, nil
}

// postProcess optionally consolidates and then drops transfers under the
// minimum thresholds.
func (s *PayoutService) postProcess(ctx context.Context, transfers []domain.Transfer, settings domain.Settings) []domain.Transfer {
	if settings.Consolidate {
		before := len(transfers)
		transfers = domain.Consolidate(transfers)
		s.logger.Info(ctx, "transfers consolidated", "before", before, "after", len(transfers))
	}

	kept := transfers[:0:0]
	for _, t := range transfers {
		if settings.BelowMinimum(t) {
			s.logger.Info(ctx, "transfer below minimum dropped", "transfer", t.String())
			continue
		}
		kept = append(kept, t)
	}
	return kept
}

func (s *PayoutService) export(
	ctx context.Context,
	runID string,
	p period.Period,
	payouts *domain.PeriodPayouts,
	opts RunOptions,
	settings domain.Settings,
) (*RunResult, error) {
	ctx, span := s.tracer.StartSpanFromContext(ctx, "payouts.export")
	defer span.End()

	bundle, err := s.encoder.Encode(ctx, payouts.Transfers, opts.SkipValidation)
	if err != nil {
		span.NoticeError(err)
		return nil, err
	}

	files, err := s.exporter.Export(ctx, domain.Artifacts{RunID: runID, Payouts: payouts, Multisend: bundle})
	if err != nil {
		span.NoticeError(err)
		return nil, err
	}

	if !opts.DryRun && s.archiver != nil {
		prefix := path.Join(settings.Network, p.String(), runID)
		if err := s.archiver.Archive(ctx, prefix, files); err != nil {
			span.NoticeError(err)
			return nil, err
		}
	}
	if opts.Post && !opts.DryRun && s.notifier != nil {
		if err := s.notifier.Post(ctx, payouts.Summary, payouts); err != nil {
			span.NoticeError(err)
			return nil, err
		}
	}

	span.SetOK()
	return &RunResult{RunID: runID, Payouts: payouts, Multisend: bundle, Files: files}, nil
}

func tableLen(t *frame.Table) int {
	if t == nil {
		return 0
	}
	return t.Len()
}

type runMetrics struct {
	transfers     metric.Int64Counter
	overdrafts    metric.Int64Counter
	nativeOutflow metric.Float64Gauge
	cowOutflow    metric.Float64Gauge
	duration      metric.Float64Histogram
}

func newRunMetrics(m metric.Meter) *runMetrics {
	// Errors are only returned for invalid names.
	transfers, _ := m.Int64Counter("payouts.transfers", metric.WithDescription("Transfers emitted"))
	overdrafts, _ := m.Int64Counter("payouts.overdrafts", metric.WithDescription("Solver overdrafts"))
	native, _ := m.Float64Gauge("payouts.native_outflow", metric.WithUnit("ETH"))
	cow, _ := m.Float64Gauge("payouts.cow_outflow", metric.WithUnit("COW"))
	duration, _ := m.Float64Histogram("payouts.run.duration", metric.WithUnit("s"))
	return &runMetrics{
		transfers:     transfers,
		overdrafts:    overdrafts,
		nativeOutflow: native,
		cowOutflow:    cow,
		duration:      duration,
	}
}

func (m *runMetrics) record(ctx context.Context, p *domain.PeriodPayouts, elapsed time.Duration) {
	var native, token int64
	for _, t := range p.Transfers {
		if t.IsNative() {
			native++
		} else {
			token++
		}
	}
	m.transfers.Add(ctx, native, metric.WithAttributes(attribute.String("token_type", "native")))
	m.transfers.Add(ctx, token, metric.WithAttributes(attribute.String("token_type", "erc20")))
	m.overdrafts.Add(ctx, int64(len(p.Overdrafts)))

	nativeETH, _ := asset.FormatUnits(p.Summary.NativeOutflow, asset.NativeDecimals).Float64()
	cowUnits, _ := asset.FormatUnits(p.Summary.CowOutflow, asset.NativeDecimals).Float64()
	m.nativeOutflow.Record(ctx, nativeETH)
	m.cowOutflow.Record(ctx, cowUnits)
	m.duration.Record(ctx, elapsed.Seconds())
}
