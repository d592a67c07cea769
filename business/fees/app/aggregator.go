package app

import (
	"context"
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cowprotocol/solver-rewards/business/fees/domain"
	"github.com/cowprotocol/solver-rewards/internal/apperror"
	"github.com/cowprotocol/solver-rewards/internal/asset"
	"github.com/cowprotocol/solver-rewards/internal/logger"
)

// Converter converts native wei into reward token atoms.
type Converter interface {
	NativeToToken(native *big.Int) *big.Int
}

// Aggregator folds per-trade fees into per-recipient protocol and partner fees.
type Aggregator struct {
	protocolFeeSafe common.Address
	taxes           *domain.TaxTable
	redirects       domain.Redirects
	logger          logger.LoggerInterface
}

// NewAggregator creates a new Aggregator.
func NewAggregator(
	protocolFeeSafe common.Address,
	taxes *domain.TaxTable,
	redirects domain.Redirects,
	log logger.LoggerInterface,
) *Aggregator {
	return &Aggregator{
		protocolFeeSafe: protocolFeeSafe,
		taxes:           taxes,
		redirects:       redirects,
		logger:          log,
	}
}

// ProtocolFeeSafe returns the address collecting protocol fees and taxes.
func (a *Aggregator) ProtocolFeeSafe() common.Address {
	return a.protocolFeeSafe
}

// Aggregate sums the fees of all trades. Each trade's partner fee is floored
// once and split into tax and payout, so tax plus payout equals the partner
// fee exactly.
func (a *Aggregator) Aggregate(ctx context.Context, fees []domain.TradeFees, conv Converter) (domain.FeeSummary, error) {
	summary := domain.FeeSummary{
		ProtocolFee:   new(big.Int),
		PartnerFeeRaw: new(big.Int),
		PartnerFeeTax: new(big.Int),
	}
	partners := make(map[common.Address]*domain.PartnerFee)

	for _, tf := range fees {
		protocol, partner := new(big.Rat), new(big.Rat)
		hasPartner := false
		for _, f := range tf.ProtocolFees {
			if f.IsPartnerFee {
				partner.Add(partner, f.NativeValue())
				hasPartner = true
				continue
			}
			protocol.Add(protocol, f.NativeValue())
		}
		summary.ProtocolFee.Add(summary.ProtocolFee, asset.FloorRat(protocol))

		if !hasPartner {
			continue
		}
		if tf.Recipient == nil || partner.Sign() < 0 {
			return domain.FeeSummary{}, apperror.New(apperror.CodeInvalidPartnerFee,
				apperror.WithComponent(apperror.ComponentAggregator),
				apperror.WithRowKey(fmt.Sprintf("0x%x", tf.OrderUID)),
				apperror.WithContext("partner fee without recipient or negative"),
			)
		}

		recipient := a.redirects.Apply(*tf.Recipient, tf.AppCode)
		if recipient != *tf.Recipient {
			a.logger.Debug(ctx, "redirecting partner fee",
				"from", asset.Canonical(*tf.Recipient),
				"to", asset.Canonical(recipient),
				"app_code", tf.AppCode,
			)
		}

		raw := asset.FloorRat(partner)
		tax := asset.MulRatFloor(raw, a.taxes.Cut(recipient, tf.AppCode))

		p, ok := partners[recipient]
		if !ok {
			p = &domain.PartnerFee{Recipient: recipient, Raw: new(big.Int), Tax: new(big.Int)}
			partners[recipient] = p
		}
		p.Raw.Add(p.Raw, raw)
		p.Tax.Add(p.Tax, tax)
		summary.PartnerFeeRaw.Add(summary.PartnerFeeRaw, raw)
		summary.PartnerFeeTax.Add(summary.PartnerFeeTax, tax)
	}

	for _, p := range partners {
		summary.Partners = append(summary.Partners, *p)
	}
	sort.Slice(summary.Partners, func(i, j int) bool {
		return asset.CompareAddresses(summary.Partners[i].Recipient, summary.Partners[j].Recipient) < 0
	})

	summary.Rows = append(summary.Rows,
		domain.FeeRow{Recipient: a.protocolFeeSafe, FeeNative: new(big.Int).Set(summary.ProtocolFee)},
		domain.FeeRow{Recipient: a.protocolFeeSafe, FeeNative: new(big.Int).Set(summary.PartnerFeeTax), FromPartnerFee: true},
	)
	for _, p := range summary.Partners {
		summary.Rows = append(summary.Rows, domain.FeeRow{
			Recipient:      p.Recipient,
			FeeNative:      p.Net(),
			FromPartnerFee: true,
		})
	}
	sort.SliceStable(summary.Rows, func(i, j int) bool {
		return asset.CompareAddresses(summary.Rows[i].Recipient, summary.Rows[j].Recipient) < 0
	})
	for i := range summary.Rows {
		summary.Rows[i].FeeCow = conv.NativeToToken(summary.Rows[i].FeeNative)
	}

	a.logger.Info(ctx, "aggregated protocol fees",
		"protocol_fee", asset.FormatETH(summary.ProtocolFee),
		"partner_fee", asset.FormatETH(summary.PartnerFee()),
		"partner_fee_tax", asset.FormatETH(summary.PartnerFeeTax),
		"partners", len(summary.Partners),
	)
	return summary, nil
}
