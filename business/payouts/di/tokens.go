// Package di contains dependency injection tokens for the payouts context.
package di

import (
	"github.com/cowprotocol/solver-rewards/business/payouts/app"
	"github.com/cowprotocol/solver-rewards/business/payouts/domain"
	"github.com/cowprotocol/solver-rewards/internal/di"
)

// Public service tokens - exposed to other modules
var (
	PayoutService = di.NewToken[*app.PayoutService]("payouts.PayoutService")
	Orchestrator  = di.NewToken[*app.Orchestrator]("payouts.Orchestrator")
)

// Private dependency tokens - internal to payouts module
var (
	Settings = di.NewToken[domain.Settings]("payouts:settings")
	Source   = di.NewToken[app.Source]("payouts:source")
	Encoder  = di.NewToken[app.Encoder]("payouts:encoder")
	Archiver = di.NewToken[app.Archiver]("payouts:archiver")
	Notifier = di.NewToken[app.Notifier]("payouts:notifier")
)

// GetPayoutService resolves the payout service.
func GetPayoutService(c di.ServiceRegistry) *app.PayoutService {
	return di.GetToken(c, PayoutService)
}

// GetOrchestrator resolves the orchestrator.
func GetOrchestrator(c di.ServiceRegistry) *app.Orchestrator {
	return di.GetToken(c, Orchestrator)
}

func GetSettings(c di.ServiceRegistry) domain.Settings {
	return di.GetToken(c, Settings)
}

func GetSource(c di.ServiceRegistry) app.Source {
	return di.GetToken(c, Source)
}

func GetEncoder(c di.ServiceRegistry) app.Encoder {
	return di.GetToken(c, Encoder)
}

// GetArchiver is nil when no bucket is configured.
func GetArchiver(c di.ServiceRegistry) app.Archiver {
	return di.GetToken(c, Archiver)
}

// GetNotifier is nil when Slack is not configured.
func GetNotifier(c di.ServiceRegistry) app.Notifier {
	return di.GetToken(c, Notifier)
}
