// Package di contains dependency injection tokens for the blockchain context.
package di

import (
	"github.com/cowprotocol/solver-rewards/business/blockchain/app"
	"github.com/cowprotocol/solver-rewards/internal/di"
)

// Public service tokens - exposed to other modules
var (
	BlockchainService = di.NewToken[*app.BlockchainService]("blockchain.BlockchainService")
)

// Private dependency tokens - internal to blockchain module
var (
	BalanceReader = di.NewToken[app.BalanceReader]("blockchain:balanceReader")
)

// GetBlockchainService returns the service, nil without a node.
func GetBlockchainService(c di.ServiceRegistry) *app.BlockchainService {
	return di.GetToken(c, BlockchainService)
}

func GetBalanceReader(c di.ServiceRegistry) app.BalanceReader {
	return di.GetToken(c, BalanceReader)
}
