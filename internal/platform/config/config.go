package config

import (
	"os"
	"strconv"
	"time"
)

// Client captures how the orchestration core reaches the backend.
type Client struct {
	BaseURL     string
	Timeout     time.Duration
	Environment string
}

// Poll configures the status poller used for asynchronous issuance.
type Poll struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxAttempts     int
}

// MockBackend configures the in-memory stand-in backend.
type MockBackend struct {
	Addr    string
	Latency time.Duration
	// PollsToIssue is how many status polls an async job answers with an
	// in-progress status before reporting issued.
	PollsToIssue int
}

// Config is the full runtime configuration.
type Config struct {
	Client      Client
	Poll        Poll
	MockBackend MockBackend
}

// Defaults.
var (
	DefaultBaseURL         = "http://localhost:8080"
	DefaultTimeout         = 60 * time.Second
	DefaultPollInterval    = 1 * time.Second
	DefaultPollMaxInterval = 10 * time.Second
	DefaultPollMaxAttempts = 60
)

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	baseURL := os.Getenv("CREDGUARD_API_URL")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	env := os.Getenv("CREDGUARD_ENV")
	if env == "" {
		env = "local"
	}
	mockAddr := os.Getenv("MOCK_BACKEND_ADDR")
	if mockAddr == "" {
		mockAddr = ":8080"
	}

	return Config{
		Client: Client{
			BaseURL:     baseURL,
			Timeout:     durationEnv("CREDGUARD_TIMEOUT", DefaultTimeout),
			Environment: env,
		},
		Poll: Poll{
			InitialInterval: durationEnv("CREDGUARD_POLL_INTERVAL", DefaultPollInterval),
			MaxInterval:     durationEnv("CREDGUARD_POLL_MAX_INTERVAL", DefaultPollMaxInterval),
			MaxAttempts:     intEnv("CREDGUARD_POLL_MAX_ATTEMPTS", DefaultPollMaxAttempts),
		},
		MockBackend: MockBackend{
			Addr:         mockAddr,
			Latency:      durationEnv("MOCK_BACKEND_LATENCY", 0),
			PollsToIssue: intEnv("MOCK_BACKEND_POLLS_TO_ISSUE", 2),
		},
	}
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return fallback
}
