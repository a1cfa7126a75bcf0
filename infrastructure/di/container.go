package di

import (
	"context"

	"twinklepod/application/commands/bus"
	querybus "twinklepod/application/queries/bus"
	"twinklepod/infrastructure/config"
	"twinklepod/interfaces/http/rest"
	"twinklepod/pkg/observability"

	"github.com/google/wire"
	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config     *config.Config
	Logger     *zap.Logger
	Stores     *Stores
	CommandBus *bus.CommandBus
	QueryBus   *querybus.QueryBus
	Router     *rest.Router
	Metrics    *observability.Collector
	CloudWatch *observability.CloudWatchMetrics
}

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideDomainConfig,
	ProvideClock,
	ProvideMetrics,
	ProvideCloudWatchMetrics,
	ProvideRecorder,
	ProvideTracer,
	ProvideAWSConfig,
	ProvideStores,
	ProvideEventPublisher,
	ProvideCommandBus,
	ProvideQueryBus,
	ProvideErrorHandler,
	ProvideAuthenticator,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// FlushMetrics pushes buffered CloudWatch datums; a no-op off Lambda
func (c *Container) FlushMetrics(ctx context.Context) {
	c.CloudWatch.Flush(ctx)
}

// Shutdown flushes buffered metrics and log entries
func (c *Container) Shutdown() {
	c.FlushMetrics(context.Background())
	_ = c.Logger.Sync()
}
