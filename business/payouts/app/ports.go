package app

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cowprotocol/solver-rewards/business/payouts/domain"
	"github.com/cowprotocol/solver-rewards/internal/asset"
	"github.com/cowprotocol/solver-rewards/internal/period"
)

// Conversion converts native wei into reward token atoms at the period rate.
type Conversion interface {
	NativeToToken(native *big.Int) *big.Int
	Rate() asset.ExchangeRate
}

// RateSource prices one token in another on a given day.
type RateSource interface {
	ExchangeRateAtoms(ctx context.Context, from, to common.Address, day time.Time) (asset.ExchangeRate, error)
}

// Source loads the input tables of a period.
type Source interface {
	Name() string
	Load(ctx context.Context, p period.Period) (domain.Tables, error)
}

// Exporter writes the run artifacts and returns the written file paths.
type Exporter interface {
	Export(ctx context.Context, artifacts domain.Artifacts) ([]string, error)
}

// Encoder builds the multisend bundle paying the transfers.
type Encoder interface {
	Encode(ctx context.Context, transfers []domain.Transfer, skipValidation bool) (domain.Multisend, error)
}

// Archiver copies exported files to long-term storage.
type Archiver interface {
	Archive(ctx context.Context, prefix string, files []string) error
}

// Notifier announces a finished payout.
type Notifier interface {
	Post(ctx context.Context, summary domain.Summary, p *domain.PeriodPayouts) error
}

// Reviewer lets an operator confirm the transfers before export.
type Reviewer interface {
	Review(ctx context.Context, p *domain.PeriodPayouts) (bool, error)
}

// Reporter renders the run summary for the operator.
type Reporter interface {
	Report(p *domain.PeriodPayouts)
}
