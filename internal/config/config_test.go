package config

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PORT", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("ATTEMPT_LOCK_WAIT", "")
	t.Setenv("EVENTS_ENABLED", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Empty(t, cfg.RedisURL)
	assert.Equal(t, 5*time.Second, cfg.AttemptLockWait)
	assert.True(t, cfg.Events.Enabled)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
}

func TestLoadConfig_Overrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("ATTEMPT_LOCK_WAIT", "250ms")
	t.Setenv("EVENTS_ENABLED", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("ENVIRONMENT", "production")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.AttemptLockWait)
	assert.False(t, cfg.Events.Enabled)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.IsProduction())
}

func TestEventConfig_CreateEventPublisher(t *testing.T) {
	logger := slog.Default()

	disabled := EventConfig{Enabled: false}
	p, err := disabled.CreateEventPublisher(logger)
	require.NoError(t, err)
	assert.IsType(t, &events.MockEventPublisher{}, p)

	memory := EventConfig{Enabled: true, Publisher: "memory", AttemptTopic: "quiz-attempts"}
	p, err = memory.CreateEventPublisher(logger)
	require.NoError(t, err)
	assert.IsType(t, &events.WatermillEventPublisher{}, p)
	assert.NoError(t, p.Close())
}

func TestEventConfig_GetKafkaBrokers(t *testing.T) {
	c := EventConfig{KafkaBrokers: "k1:9092, k2:9092,"}
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.GetKafkaBrokers())
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
