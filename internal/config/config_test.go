package config

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/SAP-F-2025/learning-service/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("QUIZ_SESSION_TTL", "")
	t.Setenv("QUIZ_ALLOW_RESUBMIT", "")
	t.Setenv("PORT", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 4*time.Hour, cfg.Quiz.SessionTTL)
	assert.False(t, cfg.Quiz.AllowResubmit)
	assert.Equal(t, "grouped", cfg.Quiz.MediaOrder)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("QUIZ_SESSION_TTL", "30m")
	t.Setenv("QUIZ_ALLOW_RESUBMIT", "true")
	t.Setenv("QUIZ_LOAD_TIMEOUT", "not-a-duration")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 30*time.Minute, cfg.Quiz.SessionTTL)
	assert.True(t, cfg.Quiz.AllowResubmit)
	assert.Equal(t, 10*time.Second, cfg.Quiz.LoadTimeout)
}

func TestEventConfig_Brokers(t *testing.T) {
	cfg := &EventConfig{KafkaBrokers: "a:9092, b:9092,,"}
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.GetKafkaBrokers())
}

func TestEventConfig_DisabledUsesMock(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	cfg := &EventConfig{Enabled: false, Publisher: "kafka"}

	publisher, err := cfg.CreateEventPublisher(logger)
	require.NoError(t, err)
	assert.IsType(t, &events.MockEventPublisher{}, publisher)
}
