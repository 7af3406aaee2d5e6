package main

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"voicetime/internal/config"
)

func TestMask(t *testing.T) {
	assert.Equal(t, "****", mask(""))
	assert.Equal(t, "****", mask("abcd"))
	assert.Equal(t, "****6789", mask("token-123456789"))
}

func TestSetupLogger_Level(t *testing.T) {
	previous := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(previous) })

	_ = setupLogger(config.LoggingConfig{Level: "warn", Format: "text"})
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	_ = setupLogger(config.LoggingConfig{Level: "bogus", Format: "json"})
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestOpenStorage_Bolt(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Type: config.StorageBolt, Path: t.TempDir() + "/voicetime.db"}}

	store, err := openStorage(context.Background(), cfg, zerolog.Nop())
	if assert.NoError(t, err) {
		assert.NoError(t, store.Close())
	}

	cfg.Storage.Type = "sqlite"
	_, err = openStorage(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)
}
