//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"github.com/yudhaislamisulistya/rpl-sc-06-01/internal/handler/api"
	"github.com/yudhaislamisulistya/rpl-sc-06-01/internal/usecase"
	"github.com/yudhaislamisulistya/rpl-sc-06-01/pkg/config"
	"github.com/yudhaislamisulistya/rpl-sc-06-01/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Infrastructure
		ProvideKafkaProducer,
		ProvideLogger,
		ProvideMetrics,
		ProvideModel,
		ProvideRedisClient,
		ProvideCache,
		ProvideClickHouseClient,

		// Repositories
		ProvideObservationTable,
		ProvideLocker,
		ProvideEventPublisher,

		// Use cases
		ProvidePredictionService,
		ProvideObservationStore,
		usecase.NewForecastService,
		ProvideRetrainTrigger,
		ProvideQueue,
		ProvideRetrainService,

		// Transport
		api.NewHandler,
		ProvideHTTPServer,
		ProvideKafkaConsumer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
