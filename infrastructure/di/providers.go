package di

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"twinklepod/application/commands"
	"twinklepod/application/commands/bus"
	commandhandlers "twinklepod/application/commands/handlers"
	"twinklepod/application/ports"
	"twinklepod/application/queries"
	querybus "twinklepod/application/queries/bus"
	queryhandlers "twinklepod/application/queries/handlers"
	domainconfig "twinklepod/domain/config"
	"twinklepod/infrastructure/config"
	"twinklepod/infrastructure/messaging/eventbridge"
	"twinklepod/infrastructure/persistence/dynamodb"
	"twinklepod/infrastructure/persistence/memory"
	"twinklepod/interfaces/http/rest"
	"twinklepod/interfaces/http/rest/handlers"
	"twinklepod/interfaces/http/rest/middleware"
	"twinklepod/pkg/auth"
	pkgerrors "twinklepod/pkg/errors"
	"twinklepod/pkg/observability"
	"twinklepod/pkg/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const serviceName = "twinklepod"

// Stores groups the persistence ports behind the configured driver
type Stores struct {
	Progress ports.ProgressRepository
	Events   ports.EventLog
	Catalog  ports.StoryCatalog
	Children ports.ChildDirectory
	Ready    rest.ReadinessCheck
}

// Authenticator resolves the caller identity of /api requests
type Authenticator func(http.Handler) http.Handler

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	zapCfg := zap.NewDevelopmentConfig()
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	}

	if cfg.LogLevel != "" {
		level, err := zap.ParseAtomicLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		zapCfg.Level = level
	}

	return zapCfg.Build(zap.Fields(zap.String("service", serviceName)))
}

// ProvideDomainConfig builds the business rules
func ProvideDomainConfig(cfg *config.Config) *domainconfig.DomainConfig {
	return cfg.DomainConfig()
}

// ProvideClock returns the wall clock
func ProvideClock() utils.Clock {
	return utils.SystemClock
}

// ProvideMetrics creates the Prometheus collector
func ProvideMetrics() *observability.Collector {
	return observability.NewCollector(serviceName)
}

// ProvideCloudWatchMetrics creates the CloudWatch recorder used under Lambda,
// where no one scrapes /metrics. It is nil everywhere else.
func ProvideCloudWatchMetrics(awsCfg aws.Config, cfg *config.Config, logger *zap.Logger) *observability.CloudWatchMetrics {
	if !cfg.IsLambda || !cfg.EnableMetrics {
		return nil
	}
	namespace := fmt.Sprintf("TwinklePod/%s", cfg.Environment)
	return observability.NewCloudWatchMetrics(namespace, awscloudwatch.NewFromConfig(awsCfg), logger)
}

// ProvideRecorder picks the metrics backend every component reports to
func ProvideRecorder(prom *observability.Collector, cw *observability.CloudWatchMetrics) observability.Recorder {
	if cw != nil {
		return cw
	}
	return prom
}

// ProvideTracer creates the X-Ray tracer
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	return observability.NewTracer(serviceName, cfg.EnableTracing)
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config, tracer *observability.Tracer) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	tracer.InstrumentAWS(&awsCfg)
	return awsCfg, nil
}

// ProvideStores creates the stores for the configured driver
func ProvideStores(awsCfg aws.Config, cfg *config.Config, metrics observability.Recorder, logger *zap.Logger) (*Stores, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return provideMemoryStores(cfg, logger)
	case config.DriverDynamoDB:
		return provideDynamoDBStores(awsCfg, cfg, metrics, logger), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func provideDynamoDBStores(awsCfg aws.Config, cfg *config.Config, metrics observability.Recorder, logger *zap.Logger) *Stores {
	var client dynamodb.Client = awsdynamodb.NewFromConfig(awsCfg)
	ready := func(context.Context) error { return nil }

	if cfg.EnableCircuitBreaker {
		breaker := dynamodb.NewBreakerClient(client, dynamodb.DefaultBreakerConfig(), logger)
		client = breaker
		ready = func(context.Context) error {
			if breaker.State() == gobreaker.StateOpen {
				return errors.New("store circuit breaker is open")
			}
			return nil
		}
	}

	opts := dynamodb.Options{
		Tables:   cfg.SchemaTables(),
		Timeout:  cfg.StoreTimeout,
		Recorder: metrics,
	}
	return &Stores{
		Progress: dynamodb.NewProgressRepository(client, opts, logger),
		Events:   dynamodb.NewEventLog(client, opts, logger),
		Catalog:  dynamodb.NewStoryCatalog(client, opts, logger),
		Children: dynamodb.NewChildDirectory(client, opts, logger),
		Ready:    ready,
	}
}

func provideMemoryStores(cfg *config.Config, logger *zap.Logger) (*Stores, error) {
	catalog := memory.NewCatalog()
	children := memory.NewChildDirectory()

	if cfg.SeedFile != "" {
		seed, err := memory.LoadSeedFile(cfg.SeedFile)
		if err != nil {
			return nil, err
		}
		seed.Apply(catalog, children)
		logger.Info("Loaded memory seed",
			zap.String("file", cfg.SeedFile),
			zap.Int("stories", len(seed.Stories)),
			zap.Int("children", len(seed.Children)))
	}

	logger.Warn("Using in-memory stores; data is lost on restart")
	return &Stores{
		Progress: memory.NewProgressStore(logger),
		Events:   memory.NewEventLog(logger),
		Catalog:  catalog,
		Children: children,
	}, nil
}

// ProvideEventPublisher creates the EventBridge publisher, or nil when no bus is configured
func ProvideEventPublisher(awsCfg aws.Config, cfg *config.Config, logger *zap.Logger) ports.EventPublisher {
	if cfg.EventBusName == "" {
		return nil
	}
	return eventbridge.NewPublisher(awseventbridge.NewFromConfig(awsCfg), cfg.EventBusName, logger)
}

// ProvideCommandBus creates a command bus with registered handlers
func ProvideCommandBus(
	stores *Stores,
	publisher ports.EventPublisher,
	domain *domainconfig.DomainConfig,
	clock utils.Clock,
	logger *zap.Logger,
) (*bus.CommandBus, error) {
	commandBus := bus.NewCommandBus(bus.LoggingMiddleware(logger))

	if err := commandBus.Register(commands.SaveProgressCommand{},
		commandhandlers.NewSaveProgressHandler(stores.Progress, domain, clock, logger)); err != nil {
		return nil, err
	}
	if err := commandBus.Register(commands.RecordEventCommand{},
		commandhandlers.NewRecordEventHandler(stores.Events, publisher, clock, logger)); err != nil {
		return nil, err
	}
	return commandBus, nil
}

// ProvideQueryBus creates a query bus with registered handlers
func ProvideQueryBus(
	stores *Stores,
	domain *domainconfig.DomainConfig,
	clock utils.Clock,
	metrics observability.Recorder,
	logger *zap.Logger,
) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus(querybus.LoggingMiddleware(logger, time.Second))

	registrations := []struct {
		query   querybus.Query
		handler querybus.QueryHandler
	}{
		{queries.GetLibraryQuery{}, queryhandlers.NewGetLibraryHandler(stores.Progress, stores.Events, stores.Catalog, domain, clock, metrics, logger)},
		{queries.GetProgressQuery{}, queryhandlers.NewGetProgressHandler(stores.Progress)},
		{queries.ListProgressQuery{}, queryhandlers.NewListProgressHandler(stores.Progress, domain)},
		{queries.ListEventsQuery{}, queryhandlers.NewListEventsHandler(stores.Events, domain)},
		{queries.GetStoryQuery{}, queryhandlers.NewGetStoryHandler(stores.Catalog)},
		{queries.ListStoriesQuery{}, queryhandlers.NewListStoriesHandler(stores.Catalog, domain)},
	}
	for _, r := range registrations {
		if err := queryBus.Register(r.query, r.handler); err != nil {
			return nil, err
		}
	}
	return queryBus, nil
}

// ProvideErrorHandler creates the HTTP error renderer
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *pkgerrors.ErrorHandler {
	return pkgerrors.NewErrorHandler(logger, cfg.IsDevelopment())
}

// ProvideAuthenticator picks the identity source: the API Gateway authorizer
// under Lambda, a bearer JWT otherwise
func ProvideAuthenticator(cfg *config.Config, errHandler *pkgerrors.ErrorHandler, logger *zap.Logger) (Authenticator, error) {
	if cfg.IsLambda {
		return middleware.AuthenticateForLambda(errHandler), nil
	}

	secret := cfg.JWTSecret
	if secret == "" {
		logger.Warn("JWT_SECRET not set; using the development secret")
		secret = "development-secret-change-in-production"
	}
	validator, err := auth.NewJWTValidator(secret, cfg.JWTIssuer)
	if err != nil {
		return nil, err
	}
	return middleware.Authenticate(validator, errHandler, logger), nil
}

// ProvideRouter creates the HTTP router
func ProvideRouter(
	cfg *config.Config,
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	stores *Stores,
	authenticator Authenticator,
	errHandler *pkgerrors.ErrorHandler,
	recorder observability.Recorder,
	prom *observability.Collector,
	cw *observability.CloudWatchMetrics,
	tracer *observability.Tracer,
	logger *zap.Logger,
) *rest.Router {
	opts := rest.RouterOptions{
		Authenticator: authenticator,
		Guard:         handlers.NewChildGuard(stores.Children),
		Errors:        errHandler,
		Tracer:        tracer,
		Ready:         stores.Ready,
		CORSOrigins:   cfg.CORSOrigins,
	}
	if cfg.EnableMetrics {
		opts.Metrics = recorder
		if cw == nil {
			opts.MetricsHandler = prom.Handler()
		}
	}
	return rest.NewRouter(commandBus, queryBus, opts, logger)
}
