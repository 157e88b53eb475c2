//go:build wireinject
// +build wireinject

package di

import (
	"PulseGate/pkg/config"
	"PulseGate/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideKV,
		ProvideStream,
		ProvideMarketSource,
		ProvideClickHouseClient,
		ProvidePublisher,
		ProvideNotifier,

		// Repositories
		ProvideResolver,
		ProvideSnapshotStore,
		ProvideSeriesStore,
		ProvideAlertStateStore,
		ProvideArchive,

		// Use cases
		ProvideIngestor,
		ProvideDerivationEngine,
		ProvideEvaluator,
		ProvideScheduler,

		// HTTP
		ProvideHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
