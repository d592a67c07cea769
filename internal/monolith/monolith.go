// Package monolith provides the application container and module interface.
package monolith

import (
	"context"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/cowprotocol/solver-rewards/internal/asset"
	"github.com/cowprotocol/solver-rewards/internal/config"
	"github.com/cowprotocol/solver-rewards/internal/di"
	"github.com/cowprotocol/solver-rewards/internal/logger"
)

// Keys of the global services every module may resolve.
const (
	KeyConfig        = "config"
	KeyLogger        = "logger"
	KeyEthClient     = "ethClient"
	KeyNetwork       = "network"
	KeyAssetRegistry = "assetRegistry"
)

// Monolith is the main application container providing access to shared infrastructure.
type Monolith interface {
	Config() *config.Config
	Logger() logger.LoggerInterface
	// EthClient is nil when no node URL is configured.
	EthClient() *ethclient.Client
	Network() asset.Network
	AssetRegistry() *asset.Registry
	Services() di.ServiceRegistry
}

// Module represents a bounded context module that can register services and start up.
type Module interface {
	RegisterServices(di.Container) error
	Startup(context.Context, Monolith) error
}

// app implements the Monolith interface.
type app struct {
	config        *config.Config
	logger        logger.LoggerInterface
	ethClient     *ethclient.Client
	network       asset.Network
	assetRegistry *asset.Registry
	container     di.Container
}

// New creates a new Monolith instance.
func New(ctx context.Context, cfg *config.Config, log logger.LoggerInterface) (*app, error) {
	network, err := asset.LookupNetwork(cfg.Network.Name)
	if err != nil {
		return nil, err
	}

	var ethClient *ethclient.Client
	if cfg.Network.NodeURL != "" {
		ethClient, err = ethclient.DialContext(ctx, cfg.Network.NodeURL)
		if err != nil {
			return nil, err
		}
	}

	assetRegistry := network.Registry()

	container := di.NewContainer()

	// Register global services
	container.Register(KeyConfig, cfg)
	container.Register(KeyLogger, log)
	container.Register(KeyEthClient, ethClient)
	container.Register(KeyNetwork, network)
	container.Register(KeyAssetRegistry, assetRegistry)

	return &app{
		config:        cfg,
		logger:        log,
		ethClient:     ethClient,
		network:       network,
		assetRegistry: assetRegistry,
		container:     container,
	}, nil
}

func (a *app) Config() *config.Config {
	return a.config
}

func (a *app) Logger() logger.LoggerInterface {
	return a.logger
}

func (a *app) EthClient() *ethclient.Client {
	return a.ethClient
}

func (a *app) Network() asset.Network {
	return a.network
}

func (a *app) AssetRegistry() *asset.Registry {
	return a.assetRegistry
}

func (a *app) Services() di.ServiceRegistry {
	return a.container
}

// Container returns the DI container for module registration.
func (a *app) Container() di.Container {
	return a.container
}

// RegisterModules registers all provided modules.
func (a *app) RegisterModules(modules ...Module) error {
	for _, m := range modules {
		if err := m.RegisterServices(a.container); err != nil {
			return err
		}
	}
	return nil
}

// StartModules starts all provided modules.
func (a *app) StartModules(ctx context.Context, modules ...Module) error {
	for _, m := range modules {
		if err := m.Startup(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// Close closes all resources.
func (a *app) Close() error {
	if a.ethClient != nil {
		a.ethClient.Close()
	}
	return nil
}
