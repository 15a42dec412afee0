package config

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/marking-service/internal/events"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{"GRADER_TIMEOUT", "GRADING_CONCURRENCY", "REPORT_CACHE_TTL", "GRADER_URL", "EVENTS_ENABLED"} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.GraderTimeout)
	assert.Equal(t, 4, cfg.GradingConcurrency)
	assert.Equal(t, 5*time.Minute, cfg.ReportCacheTTL)
	assert.True(t, cfg.Events.Enabled)
	assert.NotEmpty(t, cfg.GraderURL)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("GRADER_TIMEOUT", "2s")
	t.Setenv("GRADING_CONCURRENCY", "9")
	t.Setenv("REPORT_CACHE_TTL", "1m")
	t.Setenv("GRADING_TOPIC", "marks")
	t.Setenv("ENVIRONMENT", "production")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.GraderTimeout)
	assert.Equal(t, 9, cfg.GradingConcurrency)
	assert.Equal(t, time.Minute, cfg.ReportCacheTTL)
	assert.Equal(t, "marks", cfg.Events.GradingTopic)
	assert.True(t, cfg.IsProduction())
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := map[string]string{
		"GRADER_TIMEOUT":      "soon",
		"GRADING_CONCURRENCY": "0",
		"REPORT_CACHE_TTL":    "forever",
		"EVENTS_ENABLED":      "maybe",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestEventConfig(t *testing.T) {
	cfg := EventConfig{KafkaBrokers: "a:9092, b:9092,,"}
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.GetKafkaBrokers())

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	for _, c := range []EventConfig{{Enabled: false}, {Enabled: true, Publisher: "mock"}, {Enabled: true, Publisher: "carrier-pigeon"}} {
		publisher, err := c.CreateEventPublisher(logger)
		require.NoError(t, err)
		assert.IsType(t, &events.MockEventPublisher{}, publisher)
	}
}
