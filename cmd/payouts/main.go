// Package main is the entry point for the solver payouts job.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/cowprotocol/solver-rewards/business/blockchain"
	"github.com/cowprotocol/solver-rewards/business/fees"
	"github.com/cowprotocol/solver-rewards/business/payouts"
	payoutsApp "github.com/cowprotocol/solver-rewards/business/payouts/app"
	payoutsDI "github.com/cowprotocol/solver-rewards/business/payouts/di"
	"github.com/cowprotocol/solver-rewards/business/pricing"
	"github.com/cowprotocol/solver-rewards/business/rewards"
	"github.com/cowprotocol/solver-rewards/internal/apm"
	"github.com/cowprotocol/solver-rewards/internal/config"
	"github.com/cowprotocol/solver-rewards/internal/logger"
	"github.com/cowprotocol/solver-rewards/internal/metrics"
	"github.com/cowprotocol/solver-rewards/internal/monolith"
	"github.com/cowprotocol/solver-rewards/internal/period"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

type flags struct {
	configPath     string
	start          string
	days           int
	review         bool
	post           bool
	dryRun         bool
	skipValidation bool
}

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	var f flags
	flag.StringVar(&f.configPath, "config", "", "Path to configuration file")
	flag.StringVar(&f.start, "start", "", "First day of the accounting period (YYYY-MM-DD)")
	flag.IntVar(&f.days, "days", 7, "Length of the accounting period in days")
	flag.BoolVar(&f.review, "review", false, "Review the transfers interactively before exporting")
	flag.BoolVar(&f.post, "post", false, "Archive the artifacts and notify the signers")
	flag.BoolVar(&f.dryRun, "dry-run", false, "Compute and report without exporting")
	flag.BoolVar(&f.skipValidation, "skip-validation", false, "Export even if the safe cannot cover the transfers")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("payouts %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		cancel()
	}()

	if err := run(ctx, f); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, f flags) error {
	if f.start == "" {
		return errors.New("missing -start")
	}
	p, err := period.New(f.start, f.days)
	if err != nil {
		return err
	}

	cfg, err := config.Load(f.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := newLogger(cfg.App)
	log.Info(ctx, "starting solver payouts",
		"version", version,
		"environment", cfg.App.Environment,
		"network", cfg.Network.Name,
		"period", p.String(),
	)

	stop, err := startTelemetry(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer stop()

	mono, err := monolith.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}
	defer mono.Close()

	payoutsModule := &payouts.Module{}
	defer payoutsModule.Close()

	// Dependency order: payouts reads every other context's services.
	modules := []monolith.Module{
		&blockchain.Module{},
		&pricing.Module{},
		&fees.Module{},
		&rewards.Module{},
		payoutsModule,
	}

	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}
	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}

	svc := payoutsDI.GetPayoutService(mono.Services())
	res, err := svc.Run(ctx, p, payoutsApp.RunOptions{
		DryRun:         f.dryRun,
		Post:           f.post,
		Review:         f.review,
		SkipValidation: f.skipValidation,
	})
	if err != nil {
		return err
	}

	for _, file := range res.Files {
		fmt.Println(file)
	}
	return nil
}

func newLogger(cfg config.AppConfig) *logger.Logger {
	level := logger.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = logger.LevelDebug
	case "warn":
		level = logger.LevelWarn
	case "error":
		level = logger.LevelError
	}

	if cfg.LogFormat == "pretty" {
		return logger.NewPretty(os.Stderr, level, cfg.Name)
	}
	return logger.New(os.Stderr, level, cfg.Name, nil)
}

// startTelemetry installs the tracer and meter providers. The returned func
// flushes the exporters.
func startTelemetry(ctx context.Context, cfg *config.Config, log logger.LoggerInterface) (func(), error) {
	if !cfg.Telemetry.Enabled {
		return func() {}, nil
	}

	serviceName := cfg.Telemetry.ServiceName
	if serviceName == "" {
		serviceName = cfg.App.Name
	}

	tp, err := apm.NewTraceProvider(ctx, log, apm.Options{
		Provider:    apm.Provider(cfg.Telemetry.TraceProvider),
		ServiceName: serviceName,
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Headers:     cfg.Telemetry.OTLPHeaders,
		Environment: cfg.App.Environment,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start tracing: %w", err)
	}

	_, err = metrics.NewMetricProvider(ctx,
		metrics.WithServiceName(serviceName),
		metrics.WithProviderConfig(metrics.NewPrometheusConfig()),
	)
	if err != nil {
		tp.Stop()
		return nil, fmt.Errorf("failed to start metrics: %w", err)
	}

	port := cfg.Telemetry.PrometheusPort
	if port == 0 {
		port = 9090
	}
	metricsCtx, cancel := context.WithCancel(ctx)
	go metrics.ServePrometheusMetrics(metricsCtx, log, port)

	return func() {
		cancel()
		if err := tp.Stop(); err != nil {
			log.Warn(ctx, "failed to flush traces", "error", err)
		}
	}, nil
}
