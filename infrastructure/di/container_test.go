package di

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"twinklepod/infrastructure/config"
	"twinklepod/pkg/auth"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func memoryConfig(t *testing.T) *config.Config {
	t.Helper()
	seed := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(seed, []byte(`
stories:
  - id: S1
    title: The Sleepy Owl
children:
  - id: C1
    user_id: U1
`), 0o600))

	cfg := config.Default()
	cfg.StoreDriver = config.DriverMemory
	cfg.SeedFile = seed
	cfg.JWTSecret = "container-secret"
	cfg.LogLevel = "error"
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestInitializeContainer_Memory(t *testing.T) {
	cfg := memoryConfig(t)

	container, err := InitializeContainer(context.Background(), cfg)
	require.NoError(t, err)
	defer container.Shutdown()

	handler := container.Router.Setup()
	validator, err := auth.NewJWTValidator(cfg.JWTSecret, cfg.JWTIssuer)
	require.NoError(t, err)
	token, err := validator.GenerateToken("U1", time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/library?child_id=C1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stories/S1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestInitializeContainer_BadSeed(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.SeedFile = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := InitializeContainer(context.Background(), cfg)

	assert.Error(t, err)
}

func TestProvideLogger_RejectsUnknownLevel(t *testing.T) {
	cfg := config.Default()
	cfg.LogLevel = "chatty"

	_, err := ProvideLogger(cfg)

	assert.Error(t, err)
}

func TestProvideEventPublisher_DisabledWithoutBus(t *testing.T) {
	cfg := config.Default()

	assert.Nil(t, ProvideEventPublisher(aws.Config{}, cfg, nil))
}

func TestProvideRecorder_CloudWatchUnderLambda(t *testing.T) {
	cfg := config.Default()
	cfg.IsLambda = true
	prom := ProvideMetrics()

	cw := ProvideCloudWatchMetrics(aws.Config{Region: "us-east-1"}, cfg, zap.NewNop())
	require.NotNil(t, cw)
	assert.Same(t, cw, ProvideRecorder(prom, cw))

	cfg.IsLambda = false
	assert.Nil(t, ProvideCloudWatchMetrics(aws.Config{}, cfg, zap.NewNop()))
	assert.Same(t, prom, ProvideRecorder(prom, nil))
}

func TestInitializeContainer_ServesPrometheusOffLambda(t *testing.T) {
	container, err := InitializeContainer(context.Background(), memoryConfig(t))
	require.NoError(t, err)
	defer container.Shutdown()

	assert.Nil(t, container.CloudWatch)
	rec := httptest.NewRecorder()
	container.Router.Setup().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
