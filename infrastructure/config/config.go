package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	domainconfig "twinklepod/domain/config"
	"twinklepod/infrastructure/persistence/schema"

	"gopkg.in/yaml.v3"
)

// Store drivers
const (
	DriverDynamoDB = "dynamodb"
	DriverMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string `yaml:"server_address"`
	Environment   string `yaml:"environment"`
	LogLevel      string `yaml:"log_level"`

	// AWS configuration
	AWSRegion    string `yaml:"aws_region"`
	EventBusName string `yaml:"event_bus_name"`

	// Lambda configuration
	IsLambda bool `yaml:"-"`

	// Storage
	StoreDriver  string        `yaml:"store_driver"`
	StoreTimeout time.Duration `yaml:"store_timeout"`
	Tables       TablesConfig  `yaml:"tables"`
	SeedFile     string        `yaml:"seed_file"` // memory driver only

	// Authentication
	JWTSecret string `yaml:"jwt_secret"`
	JWTIssuer string `yaml:"jwt_issuer"`

	// Reading rules
	ClampOutOfRange   bool          `yaml:"clamp_out_of_range"`
	EventLookback     time.Duration `yaml:"library_event_lookback"`
	LookupConcurrency int           `yaml:"lookup_concurrency"`

	// Feature flags
	EnableCircuitBreaker bool     `yaml:"enable_circuit_breaker"`
	EnableTracing        bool     `yaml:"enable_tracing"`
	EnableMetrics        bool     `yaml:"enable_metrics"`
	CORSOrigins          []string `yaml:"cors_origins"`

	// LoadedFrom lists the sources applied, lowest priority first
	LoadedFrom []string `yaml:"-"`
}

// TablesConfig names the DynamoDB tables and indexes
type TablesConfig struct {
	Progress              string `yaml:"progress"`
	Events                string `yaml:"events"`
	Stories               string `yaml:"stories"`
	Children              string `yaml:"children"`
	ChildProgressIndex    string `yaml:"child_progress_index"`
	ChildEventsIndex      string `yaml:"child_events_index"`
	ChildStoryEventsIndex string `yaml:"child_story_events_index"`
	FavoriteIndex         string `yaml:"favorite_index"`
}

// Default returns the configuration used when nothing overrides it
func Default() *Config {
	tables := schema.DefaultTables()
	domain := domainconfig.DefaultDomainConfig()
	return &Config{
		ServerAddress: ":8080",
		Environment:   "development",
		LogLevel:      "info",
		AWSRegion:     "us-east-1",
		StoreDriver:   DriverDynamoDB,
		StoreTimeout:  3 * time.Second,
		Tables: TablesConfig{
			Progress:              tables.Progress,
			Events:                tables.Events,
			Stories:               tables.Stories,
			Children:              tables.Children,
			ChildProgressIndex:    tables.ChildProgressIndex,
			ChildEventsIndex:      tables.ChildEventsIndex,
			ChildStoryEventsIndex: tables.ChildStoryEventsIndex,
			FavoriteIndex:         tables.FavoriteIndex,
		},
		JWTIssuer:            "twinklepod",
		ClampOutOfRange:      domain.ClampOutOfRange,
		EventLookback:        domain.EventLookback,
		LookupConcurrency:    domain.LookupConcurrency,
		EnableCircuitBreaker: true,
		EnableMetrics:        true,
		CORSOrigins:          []string{"*"},
	}
}

// LoadConfig loads configuration from, lowest priority first:
//  1. Default values
//  2. The YAML file named by CONFIG_FILE, when set
//  3. Environment variables
func LoadConfig() (*Config, error) {
	cfg := Default()
	cfg.LoadedFrom = append(cfg.LoadedFrom, "defaults")

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.loadEnvironmentVariables(); err != nil {
		return nil, err
	}
	cfg.LoadedFrom = append(cfg.LoadedFrom, "environment")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	c.LoadedFrom = append(c.LoadedFrom, path)
	return nil
}

// loadEnvironmentVariables overlays environment variables, the highest priority source
func (c *Config) loadEnvironmentVariables() error {
	c.ServerAddress = getEnv("SERVER_ADDRESS", c.ServerAddress)
	if port := os.Getenv("PORT"); port != "" {
		c.ServerAddress = ":" + port
	}
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.AWSRegion = getEnv("AWS_REGION", c.AWSRegion)
	c.EventBusName = getEnv("EVENT_BUS_NAME", c.EventBusName)

	c.IsLambda = os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""

	c.StoreDriver = getEnv("STORE_DRIVER", c.StoreDriver)
	c.SeedFile = getEnv("MEMORY_SEED_FILE", c.SeedFile)
	c.Tables.Progress = getEnv("PROGRESS_TABLE", c.Tables.Progress)
	c.Tables.Events = getEnv("EVENTS_TABLE", c.Tables.Events)
	c.Tables.Stories = getEnv("STORIES_TABLE", c.Tables.Stories)
	c.Tables.Children = getEnv("CHILDREN_TABLE", c.Tables.Children)
	c.Tables.ChildProgressIndex = getEnv("CHILD_PROGRESS_INDEX", c.Tables.ChildProgressIndex)
	c.Tables.ChildEventsIndex = getEnv("CHILD_EVENTS_INDEX", c.Tables.ChildEventsIndex)
	c.Tables.ChildStoryEventsIndex = getEnv("CHILD_STORY_EVENTS_INDEX", c.Tables.ChildStoryEventsIndex)
	c.Tables.FavoriteIndex = getEnv("FAVORITE_INDEX", c.Tables.FavoriteIndex)

	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.JWTIssuer = getEnv("JWT_ISSUER", c.JWTIssuer)

	c.ClampOutOfRange = getEnvBool("CLAMP_OUT_OF_RANGE", c.ClampOutOfRange)
	c.LookupConcurrency = getEnvInt("LOOKUP_CONCURRENCY", c.LookupConcurrency)

	c.EnableCircuitBreaker = getEnvBool("ENABLE_CIRCUIT_BREAKER", c.EnableCircuitBreaker)
	c.EnableTracing = getEnvBool("ENABLE_TRACING", c.EnableTracing)
	c.EnableMetrics = getEnvBool("ENABLE_METRICS", c.EnableMetrics)
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		c.CORSOrigins = splitList(origins)
	}

	var err error
	if c.StoreTimeout, err = getEnvDuration("STORE_TIMEOUT", c.StoreTimeout); err != nil {
		return err
	}
	if c.EventLookback, err = getEnvDuration("LIBRARY_EVENT_LOOKBACK", c.EventLookback); err != nil {
		return err
	}
	return nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverDynamoDB, DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.StoreTimeout < 0 {
		return fmt.Errorf("STORE_TIMEOUT must not be negative")
	}
	if c.EventLookback < 0 {
		return fmt.Errorf("LIBRARY_EVENT_LOOKBACK must not be negative")
	}
	if c.LookupConcurrency < 1 {
		return fmt.Errorf("LOOKUP_CONCURRENCY must be at least 1")
	}
	if c.StoreDriver == DriverDynamoDB {
		if c.Tables.Progress == "" || c.Tables.Events == "" || c.Tables.Stories == "" || c.Tables.Children == "" {
			return fmt.Errorf("table names are required for the dynamodb driver")
		}
	}

	if c.IsProduction() {
		if c.JWTSecret == "" && !c.IsLambda {
			return fmt.Errorf("JWT_SECRET is required in production outside Lambda")
		}
		if c.StoreDriver != DriverDynamoDB {
			return fmt.Errorf("the %s store driver is not allowed in production", c.StoreDriver)
		}
	}
	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// SchemaTables converts the table settings for the persistence layer
func (c *Config) SchemaTables() schema.Tables {
	return schema.Tables{
		Progress:              c.Tables.Progress,
		Events:                c.Tables.Events,
		Stories:               c.Tables.Stories,
		Children:              c.Tables.Children,
		ChildProgressIndex:    c.Tables.ChildProgressIndex,
		ChildEventsIndex:      c.Tables.ChildEventsIndex,
		ChildStoryEventsIndex: c.Tables.ChildStoryEventsIndex,
		FavoriteIndex:         c.Tables.FavoriteIndex,
	}
}

// DomainConfig builds the business rules from the loaded settings
func (c *Config) DomainConfig() *domainconfig.DomainConfig {
	domain := domainconfig.DefaultDomainConfig()
	domain.ClampOutOfRange = c.ClampOutOfRange
	domain.EventLookback = c.EventLookback
	domain.LookupConcurrency = c.LookupConcurrency
	return domain
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return d, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
