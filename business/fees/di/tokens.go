// Package di contains dependency injection tokens for the fees context.
package di

import (
	"github.com/cowprotocol/solver-rewards/business/fees/app"
	"github.com/cowprotocol/solver-rewards/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Decomposer = di.NewToken[*app.Decomposer]("fees.Decomposer")
	Aggregator = di.NewToken[*app.Aggregator]("fees.Aggregator")
)

// GetDecomposer resolves the trade fee decomposer.
func GetDecomposer(c di.ServiceRegistry) *app.Decomposer {
	return di.GetToken(c, Decomposer)
}

// GetAggregator resolves the fee aggregator.
func GetAggregator(c di.ServiceRegistry) *app.Aggregator {
	return di.GetToken(c, Aggregator)
}
