// Package payouts implements the payouts bounded context: loading a period's
// inputs, composing transfers and exporting the payment bundle.
package payouts

import (
	"context"
	"fmt"

	blockchainDI "github.com/cowprotocol/solver-rewards/business/blockchain/di"
	feesDI "github.com/cowprotocol/solver-rewards/business/fees/di"
	"github.com/cowprotocol/solver-rewards/business/payouts/app"
	payoutsDI "github.com/cowprotocol/solver-rewards/business/payouts/di"
	"github.com/cowprotocol/solver-rewards/business/payouts/domain"
	"github.com/cowprotocol/solver-rewards/business/payouts/infra/archive"
	"github.com/cowprotocol/solver-rewards/business/payouts/infra/console"
	"github.com/cowprotocol/solver-rewards/business/payouts/infra/csvfile"
	"github.com/cowprotocol/solver-rewards/business/payouts/infra/dune"
	"github.com/cowprotocol/solver-rewards/business/payouts/infra/multisend"
	"github.com/cowprotocol/solver-rewards/business/payouts/infra/notify"
	"github.com/cowprotocol/solver-rewards/business/payouts/infra/orderbook"
	"github.com/cowprotocol/solver-rewards/business/payouts/infra/remote"
	pricingDI "github.com/cowprotocol/solver-rewards/business/pricing/di"
	rewardsDI "github.com/cowprotocol/solver-rewards/business/rewards/di"
	"github.com/cowprotocol/solver-rewards/internal/asset"
	"github.com/cowprotocol/solver-rewards/internal/config"
	"github.com/cowprotocol/solver-rewards/internal/di"
	"github.com/cowprotocol/solver-rewards/internal/logger"
	"github.com/cowprotocol/solver-rewards/internal/monolith"
)

// Module implements the payouts bounded context. The orderbook pools are
// opened in Startup and closed by Close.
type Module struct {
	orderbook *orderbook.Fetcher
}

// RegisterServices registers all payouts services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, payoutsDI.Settings, func(sr di.ServiceRegistry) domain.Settings {
		cfg := sr.Get(monolith.KeyConfig).(*config.Config)
		settings, err := Settings(cfg)
		if err != nil {
			panic("failed to load payout settings: " + err.Error())
		}
		return settings
	})

	di.RegisterToken(c, payoutsDI.Orchestrator, func(sr di.ServiceRegistry) *app.Orchestrator {
		log := sr.Get(monolith.KeyLogger).(logger.LoggerInterface)
		return app.NewOrchestrator(
			feesDI.GetDecomposer(sr),
			feesDI.GetAggregator(sr),
			rewardsDI.GetCalculator(sr),
			rewardsDI.GetSolverInfoResolver(sr),
			rewardsDI.GetScoreCaps(sr),
			payoutsDI.GetSettings(sr),
			log,
		)
	})

	di.RegisterToken(c, payoutsDI.Source, func(sr di.ServiceRegistry) app.Source {
		cfg := sr.Get(monolith.KeyConfig).(*config.Config)
		log := sr.Get(monolith.KeyLogger).(logger.LoggerInterface)
		network := sr.Get(monolith.KeyNetwork).(asset.Network)

		if cfg.Sources.Kind == config.SourceCSV {
			return csvfile.NewSource(cfg.Sources.CSVDir, log)
		}
		if m.orderbook == nil {
			panic("orderbook not connected: payouts module not started")
		}
		client, err := dune.NewClient(dune.Config{
			APIKey:       cfg.Sources.Dune.APIKey,
			BaseURL:      cfg.Sources.Dune.BaseURL,
			PollInterval: cfg.Sources.Dune.PollInterval,
			Timeout:      cfg.Sources.Dune.Timeout,
		}, log)
		if err != nil {
			panic("failed to create dune client: " + err.Error())
		}
		analytics := dune.NewFetcher(client, dune.Queries{
			Slippage:      cfg.Sources.Dune.SlippageQueryID,
			RewardTargets: cfg.Sources.Dune.RewardTargetsQueryID,
			ServiceFees:   cfg.Sources.Dune.ServiceFeesQueryID,
		}, network.DuneBlockchain)
		return remote.NewSource(m.orderbook, analytics, log)
	})

	di.RegisterToken(c, payoutsDI.Encoder, func(sr di.ServiceRegistry) app.Encoder {
		log := sr.Get(monolith.KeyLogger).(logger.LoggerInterface)
		settings := payoutsDI.GetSettings(sr)

		var balances multisend.BalanceChecker
		if svc := blockchainDI.GetBlockchainService(sr); svc != nil {
			balances = svc
		}
		return multisend.NewEncoder(multisend.Config{
			Safe:          settings.PaymentSafe,
			Contract:      settings.Multisend,
			WrappedNative: settings.WrappedNativeToken,
		}, balances, log)
	})

	di.RegisterToken(c, payoutsDI.Archiver, func(sr di.ServiceRegistry) app.Archiver {
		cfg := sr.Get(monolith.KeyConfig).(*config.Config)
		log := sr.Get(monolith.KeyLogger).(logger.LoggerInterface)
		s3 := cfg.Output.S3
		if s3.Bucket == "" {
			return nil
		}
		a, err := archive.New(context.Background(), archive.Config{
			Bucket:         s3.Bucket,
			Region:         s3.Region,
			Endpoint:       s3.Endpoint,
			Prefix:         s3.Prefix,
			AccessKey:      s3.AccessKey,
			SecretKey:      s3.SecretKey,
			ForcePathStyle: s3.ForcePathStyle,
		}, log)
		if err != nil {
			panic("failed to create archive: " + err.Error())
		}
		return a
	})

	di.RegisterToken(c, payoutsDI.Notifier, func(sr di.ServiceRegistry) app.Notifier {
		cfg := sr.Get(monolith.KeyConfig).(*config.Config)
		log := sr.Get(monolith.KeyLogger).(logger.LoggerInterface)
		network := sr.Get(monolith.KeyNetwork).(asset.Network)
		if cfg.Output.Slack.Token == "" {
			return nil
		}
		n, err := notify.NewSlack(notify.Config{
			Token:         cfg.Output.Slack.Token,
			Channel:       cfg.Output.Slack.Channel,
			SafeShortName: network.SafeShortName,
			Safe:          payoutsDI.GetSettings(sr).PaymentSafe,
		}, log)
		if err != nil {
			panic("failed to create slack notifier: " + err.Error())
		}
		return n
	})

	// Register PayoutService (public - exposed to the command)
	di.RegisterToken(c, payoutsDI.PayoutService, func(sr di.ServiceRegistry) *app.PayoutService {
		cfg := sr.Get(monolith.KeyConfig).(*config.Config)
		log := sr.Get(monolith.KeyLogger).(logger.LoggerInterface)
		registry := sr.Get(monolith.KeyAssetRegistry).(*asset.Registry)

		opts := []app.ServiceOption{
			app.WithReporter(console.NewReporter(registry)),
			app.WithReviewer(console.NewReviewer(registry)),
		}
		if a := payoutsDI.GetArchiver(sr); a != nil {
			opts = append(opts, app.WithArchiver(a))
		}
		if n := payoutsDI.GetNotifier(sr); n != nil {
			opts = append(opts, app.WithNotifier(n))
		}

		return app.NewPayoutService(
			payoutsDI.GetSource(sr),
			pricingDI.GetOracle(sr),
			payoutsDI.GetOrchestrator(sr),
			payoutsDI.GetEncoder(sr),
			csvfile.NewExporter(cfg.Output.Dir, registry, log),
			log,
			opts...,
		)
	})

	return nil
}

// Startup connects the orderbook databases when the remote source is used.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	cfg := mono.Config()
	log := mono.Logger()

	if cfg.Sources.Kind == config.SourceRemote {
		ob := cfg.Sources.Orderbook
		fetcher, err := orderbook.Connect(ctx, orderbook.Config{
			ProdURL:        ob.ProdDBURL,
			BarnURL:        ob.BarnDBURL,
			BatchQueryFile: ob.BatchDataQueryFile,
			TradeQueryFile: ob.TradeDataQueryFile,
			MaxConns:       ob.MaxConns,
		}, log)
		if err != nil {
			return fmt.Errorf("connect orderbook: %w", err)
		}
		m.orderbook = fetcher
	}

	log.Info(ctx, "payouts module started",
		"source", cfg.Sources.Kind,
		"output_dir", cfg.Output.Dir,
		"archive", cfg.Output.S3.Bucket != "",
		"slack", cfg.Output.Slack.Token != "",
	)
	return nil
}

// Close releases the orderbook pools.
func (m *Module) Close() {
	if m.orderbook != nil {
		m.orderbook.Close()
	}
}

// Settings builds the payout settings from config.
func Settings(cfg *config.Config) (domain.Settings, error) {
	minNative, err := config.ParseWei(cfg.Payment.MinTransferNativeWei)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("min_transfer_native_wei: %w", err)
	}
	minCow, err := config.ParseWei(cfg.Payment.MinTransferCowAtoms)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("min_transfer_cow_atoms: %w", err)
	}
	return domain.Settings{
		Network:            cfg.Network.Name,
		RewardToken:        asset.MustParseAddress(cfg.Reward.RewardTokenAddress),
		ProtocolFeeSafe:    asset.MustParseAddress(cfg.ProtocolFee.ProtocolFeeSafeAddress),
		IncludeSlippage:    cfg.Reward.IncludeSlippage,
		PaymentSafe:        asset.MustParseAddress(cfg.Payment.PaymentSafeAddress),
		WrappedNativeToken: asset.MustParseAddress(cfg.Payment.WrappedNativeTokenAddress),
		Multisend:          asset.MustParseAddress(cfg.Payment.MultisendAddress),
		MinNativeTransfer:  minNative,
		MinCowTransfer:     minCow,
		Consolidate:        cfg.Output.Consolidate,
	}, nil
}
