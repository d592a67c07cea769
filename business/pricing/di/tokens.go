// Package di contains dependency injection tokens for the pricing context.
package di

import (
	"github.com/cowprotocol/solver-rewards/business/pricing/app"
	"github.com/cowprotocol/solver-rewards/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Oracle = di.NewToken[*app.Oracle]("pricing.Oracle")
)

// Private dependency tokens - internal to pricing module
var (
	PriceSource = di.NewToken[app.PriceSource]("pricing:priceSource")
)

// GetOracle resolves the shared price oracle.
func GetOracle(c di.ServiceRegistry) *app.Oracle {
	return di.GetToken(c, Oracle)
}

// GetPriceSource resolves the configured price source.
func GetPriceSource(c di.ServiceRegistry) app.PriceSource {
	return di.GetToken(c, PriceSource)
}
