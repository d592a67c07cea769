// Package blockchain implements the blockchain bounded context: balance reads
// of the payment safe.
package blockchain

import (
	"context"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/cowprotocol/solver-rewards/business/blockchain/app"
	blockchainDI "github.com/cowprotocol/solver-rewards/business/blockchain/di"
	"github.com/cowprotocol/solver-rewards/business/blockchain/infra/ethereum"
	"github.com/cowprotocol/solver-rewards/internal/di"
	"github.com/cowprotocol/solver-rewards/internal/logger"
	"github.com/cowprotocol/solver-rewards/internal/monolith"
)

// Module implements the blockchain bounded context.
type Module struct{}

// RegisterServices registers all blockchain services with the DI container.
// Without a node URL the service resolves to nil.
func (m *Module) RegisterServices(c di.Container) error {
	// Register BalanceReader (private - internal dependency)
	di.RegisterToken(c, blockchainDI.BalanceReader, func(sr di.ServiceRegistry) app.BalanceReader {
		client := sr.Get(monolith.KeyEthClient).(*ethclient.Client)
		log := sr.Get(monolith.KeyLogger).(logger.LoggerInterface)
		if client == nil {
			return nil
		}

		reader, err := ethereum.NewBalanceReader(client, log)
		if err != nil {
			panic("failed to create balance reader: " + err.Error())
		}
		return reader
	})

	// Register BlockchainService (public - exposed to other modules)
	di.RegisterToken(c, blockchainDI.BlockchainService, func(sr di.ServiceRegistry) *app.BlockchainService {
		reader := blockchainDI.GetBalanceReader(sr)
		if reader == nil {
			return nil
		}
		return app.NewBlockchainService(reader)
	})

	return nil
}

// Startup initializes the blockchain module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	if mono.EthClient() == nil {
		log.Warn(ctx, "no node configured, safe balance checks disabled")
		return nil
	}
	log.Info(ctx, "blockchain module started")
	return nil
}
