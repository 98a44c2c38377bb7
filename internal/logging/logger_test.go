package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLogger_SetsDefault(t *testing.T) {
	InitLogger("debug", "json")

	require.NotNil(t, Logger)
	assert.True(t, Logger.Enabled(context.Background(), slog.LevelDebug))
}

func TestInitLogger_UnknownLevelDefaultsToInfo(t *testing.T) {
	InitLogger("bogus", "text")

	require.NotNil(t, Logger)
	assert.False(t, Logger.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, Logger.Enabled(context.Background(), slog.LevelInfo))
}

func TestWithHelpers_AttachFields(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	WithAnalysis("a-123").Info("analysis recorded")
	WithClient("10.0.0.1").Info("client seen")
	WithError(errors.New("boom")).Warn("operation failed")

	out := buf.String()
	assert.Contains(t, out, "analysis_id=a-123")
	assert.Contains(t, out, "client_id=10.0.0.1")
	assert.Contains(t, out, "error=boom")
}
