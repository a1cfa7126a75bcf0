package main

import (
	"testing"

	"twinklepod/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestStartupFields(t *testing.T) {
	cfg := config.Default()
	cfg.LoadedFrom = []string{"defaults", "/etc/twinklepod.yaml", "environment"}

	core, logs := observer.New(zap.InfoLevel)
	zap.New(core).Info("Starting server", startupFields(cfg)...)

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, ":8080", fields["address"])
		assert.Equal(t, config.DriverDynamoDB, fields["store_driver"])
		assert.Equal(t, []interface{}{"defaults", "/etc/twinklepod.yaml", "environment"}, fields["config_sources"])
	}
}
