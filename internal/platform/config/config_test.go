package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{
		"CREDGUARD_API_URL", "CREDGUARD_ENV", "CREDGUARD_TIMEOUT",
		"CREDGUARD_POLL_INTERVAL", "CREDGUARD_POLL_MAX_INTERVAL", "CREDGUARD_POLL_MAX_ATTEMPTS",
		"MOCK_BACKEND_ADDR", "MOCK_BACKEND_LATENCY", "MOCK_BACKEND_POLLS_TO_ISSUE",
	} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()
	assert.Equal(t, "http://localhost:8080", cfg.Client.BaseURL)
	assert.Equal(t, "local", cfg.Client.Environment)
	assert.Equal(t, DefaultTimeout, cfg.Client.Timeout)
	assert.Equal(t, DefaultPollInterval, cfg.Poll.InitialInterval)
	assert.Equal(t, DefaultPollMaxAttempts, cfg.Poll.MaxAttempts)
	assert.Equal(t, ":8080", cfg.MockBackend.Addr)
	assert.Equal(t, 2, cfg.MockBackend.PollsToIssue)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("CREDGUARD_API_URL", "https://credguard.example")
	t.Setenv("CREDGUARD_TIMEOUT", "5s")
	t.Setenv("CREDGUARD_POLL_INTERVAL", "250ms")
	t.Setenv("CREDGUARD_POLL_MAX_ATTEMPTS", "7")
	t.Setenv("MOCK_BACKEND_POLLS_TO_ISSUE", "0")

	cfg := FromEnv()
	assert.Equal(t, "https://credguard.example", cfg.Client.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Client.Timeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Poll.InitialInterval)
	assert.Equal(t, 7, cfg.Poll.MaxAttempts)
	assert.Equal(t, 0, cfg.MockBackend.PollsToIssue)
}

func TestFromEnvIgnoresMalformedValues(t *testing.T) {
	t.Setenv("CREDGUARD_TIMEOUT", "soon")
	t.Setenv("CREDGUARD_POLL_MAX_ATTEMPTS", "-3")

	cfg := FromEnv()
	assert.Equal(t, DefaultTimeout, cfg.Client.Timeout)
	assert.Equal(t, DefaultPollMaxAttempts, cfg.Poll.MaxAttempts)
}
