package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogs(t *testing.T, cfg Config) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	cfg.Output = &buf
	Init(cfg)
	t.Cleanup(func() { Init(DefaultConfig()) })
	return &buf
}

// =============================================================================
// Logger Tests
// =============================================================================

func TestConfigs(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, DefaultConfig().Level)
	assert.False(t, DefaultConfig().JSON)
	assert.Equal(t, slog.LevelInfo, ServerConfig().Level)

	cfg := DebugConfig()
	assert.Equal(t, slog.LevelDebug, cfg.Level)
	assert.True(t, cfg.JSON)
	assert.True(t, cfg.AddSource)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestInit(t *testing.T) {
	t.Run("text_respects_level", func(t *testing.T) {
		buf := captureLogs(t, Config{Level: slog.LevelWarn})
		Info("hidden")
		Warn("shown", KeyTaskID, "7")

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
		assert.Contains(t, buf.String(), "task_id=7")
		assert.False(t, Debug)
	})

	t.Run("json_debug", func(t *testing.T) {
		buf := captureLogs(t, Config{Level: slog.LevelDebug, JSON: true})
		DebugLog("tick", KeyElapsed, 5)

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "tick", entry["msg"])
		assert.Equal(t, float64(5), entry[KeyElapsed])
		assert.True(t, Debug)
	})
}

func TestLogOperation(t *testing.T) {
	buf := captureLogs(t, Config{Level: slog.LevelDebug, JSON: true})

	ctx := WithRequestID(context.Background(), "req-1")
	LogOperation(ctx, "list_tasks", time.Now().Add(-20*time.Millisecond), KeyCount, 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "list_tasks", entry[KeyOperation])
	assert.Equal(t, "req-1", entry[KeyRequestID])
	assert.GreaterOrEqual(t, entry[KeyDuration], float64(20))
	assert.Equal(t, float64(3), entry[KeyCount])
}

// =============================================================================
// Context Tests
// =============================================================================

func TestRequestID(t *testing.T) {
	id := GenerateRequestID()
	assert.Len(t, id, 36)
	assert.NotEqual(t, id, GenerateRequestID())

	ctx := WithRequestID(context.Background(), id)
	assert.Equal(t, id, RequestIDFromContext(ctx))
	assert.Equal(t, "", RequestIDFromContext(context.Background()))
}

// =============================================================================
// Masking Tests
// =============================================================================

func TestIsSensitiveField(t *testing.T) {
	assert.True(t, IsSensitiveField("api_token"))
	assert.True(t, IsSensitiveField("NEO4J_PASSWORD"))
	assert.True(t, IsSensitiveField("Authorization"))
	assert.False(t, IsSensitiveField("task_id"))
	assert.False(t, IsSensitiveField("endpoint"))
}

func TestMaskURL(t *testing.T) {
	assert.Equal(t, "https://hooks.slack.com/***", MaskURL("https://hooks.slack.com/services/T00/B00/secret"))
	assert.Equal(t, "http://localhost:8080/api/tasks", MaskURL("http://localhost:8080/api/tasks"))
	assert.Equal(t, "https://example.com", MaskURL("https://example.com"))
}

func TestMaskValue(t *testing.T) {
	assert.Equal(t, "", MaskValue(""))
	assert.Equal(t, "***", MaskValue("abc"))
	assert.Equal(t, "********", MaskValue("a-very-long-token"))
}

func TestHandlerMasksSecrets(t *testing.T) {
	buf := captureLogs(t, Config{Level: slog.LevelInfo})

	Info("webhook sent",
		"api_token", "s3cr3t-value",
		"webhook", "https://hooks.example.com/T123/secret",
	)

	out := buf.String()
	assert.NotContains(t, out, "s3cr3t-value")
	assert.NotContains(t, out, "T123/secret")
	assert.Contains(t, out, "https://hooks.example.com/***")
}
