package logging

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetupLevelPerEnvironment(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	Setup(false)
	dev := slog.Default()
	assert.True(t, dev.Enabled(context.Background(), slog.LevelDebug))

	Setup(true)
	prod := slog.Default()
	assert.False(t, prod.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, prod.Enabled(context.Background(), slog.LevelInfo))
}
