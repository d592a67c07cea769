// Package fees implements the fees bounded context: per-trade decomposition
// of protocol, partner and network fees and their aggregation per recipient.
package fees

import (
	"context"
	"fmt"

	"github.com/cowprotocol/solver-rewards/business/fees/app"
	feesDI "github.com/cowprotocol/solver-rewards/business/fees/di"
	"github.com/cowprotocol/solver-rewards/business/fees/domain"
	"github.com/cowprotocol/solver-rewards/internal/asset"
	"github.com/cowprotocol/solver-rewards/internal/config"
	"github.com/cowprotocol/solver-rewards/internal/di"
	"github.com/cowprotocol/solver-rewards/internal/logger"
	"github.com/cowprotocol/solver-rewards/internal/monolith"
)

// Module implements the fees bounded context.
type Module struct{}

// RegisterServices registers all fees services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, feesDI.Decomposer, func(sr di.ServiceRegistry) *app.Decomposer {
		log := sr.Get(monolith.KeyLogger).(logger.LoggerInterface)
		return app.NewDecomposer(log)
	})

	di.RegisterToken(c, feesDI.Aggregator, func(sr di.ServiceRegistry) *app.Aggregator {
		cfg := sr.Get(monolith.KeyConfig).(*config.Config)
		log := sr.Get(monolith.KeyLogger).(logger.LoggerInterface)

		taxes, redirects, err := PartnerFeeRules(cfg.ProtocolFee)
		if err != nil {
			panic("failed to load partner fee rules: " + err.Error())
		}
		safe := asset.MustParseAddress(cfg.ProtocolFee.ProtocolFeeSafeAddress)
		return app.NewAggregator(safe, taxes, redirects, log)
	})

	return nil
}

// Startup initializes the fees module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	cfg := mono.Config().ProtocolFee
	mono.Logger().Info(ctx, "fees module started",
		"protocol_fee_safe", cfg.ProtocolFeeSafeAddress,
		"default_partner_fee_cut", cfg.DefaultPartnerFeeCut,
		"custom_partner_fees", len(cfg.CustomPartnerFees),
		"partner_redirects", len(cfg.PartnerRedirects),
	)
	return nil
}

// PartnerFeeRules builds the tax table and recipient redirects from config.
func PartnerFeeRules(cfg config.ProtocolFeeConfig) (*domain.TaxTable, domain.Redirects, error) {
	def, err := config.ParseFactor(cfg.DefaultPartnerFeeCut)
	if err != nil {
		return nil, nil, fmt.Errorf("default_partner_fee_cut: %w", err)
	}

	taxes := domain.NewTaxTable(def)
	for i, c := range cfg.CustomPartnerFees {
		recipient, err := asset.ParseAddress(c.Recipient)
		if err != nil {
			return nil, nil, fmt.Errorf("custom_partner_fees[%d]: %w", i, err)
		}
		cut, err := config.ParseFactor(c.Cut)
		if err != nil {
			return nil, nil, fmt.Errorf("custom_partner_fees[%d]: %w", i, err)
		}
		taxes.Set(recipient, c.AppCode, cut)
	}

	redirects := make(domain.Redirects, 0, len(cfg.PartnerRedirects))
	for i, r := range cfg.PartnerRedirects {
		from, err := asset.ParseAddress(r.From)
		if err != nil {
			return nil, nil, fmt.Errorf("partner_redirects[%d].from: %w", i, err)
		}
		to, err := asset.ParseAddress(r.To)
		if err != nil {
			return nil, nil, fmt.Errorf("partner_redirects[%d].to: %w", i, err)
		}
		redirects = append(redirects, domain.Redirect{From: from, To: to, AppCode: r.AppCode})
	}
	return taxes, redirects, nil
}
