// Package di contains dependency injection tokens for the rewards context.
package di

import (
	"github.com/cowprotocol/solver-rewards/business/rewards/app"
	"github.com/cowprotocol/solver-rewards/business/rewards/domain"
	"github.com/cowprotocol/solver-rewards/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Calculator         = di.NewToken[*app.Calculator]("rewards.Calculator")
	SolverInfoResolver = di.NewToken[*app.SolverInfoResolver]("rewards.SolverInfoResolver")
	ScoreCaps          = di.NewToken[domain.ScoreCaps]("rewards.ScoreCaps")
)

// GetCalculator resolves the reward calculator.
func GetCalculator(c di.ServiceRegistry) *app.Calculator {
	return di.GetToken(c, Calculator)
}

// GetSolverInfoResolver resolves the solver info resolver.
func GetSolverInfoResolver(c di.ServiceRegistry) *app.SolverInfoResolver {
	return di.GetToken(c, SolverInfoResolver)
}

// GetScoreCaps resolves the caps applied to score based primary rewards.
func GetScoreCaps(c di.ServiceRegistry) domain.ScoreCaps {
	return di.GetToken(c, ScoreCaps)
}
