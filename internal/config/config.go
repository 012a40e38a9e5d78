package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// CORS origins allowed to call the API, comma-separated. "*" allows all.
	CORSOrigins []string

	// NASA POWER climatology source.
	PowerBaseURL   string
	PowerAPIKey    string
	PowerTimeout   time.Duration
	PowerRetries   int
	PowerCacheSize int

	// Region sampling.
	SampleWorkers  int
	SampleTimeout  time.Duration
	MaxSampleCount int

	// Optional scored-result export.
	KafkaEnabled      bool
	KafkaBrokers      []string
	KafkaResultsTopic string
}

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is loaded first if
// present.
func Load() (*Config, error) {
	_ = godotenv.Load() // best effort; env vars win

	shutdownTimeout, err := envDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	powerTimeout, err := envDuration("POWER_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	sampleTimeout, err := envDuration("SAMPLE_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}

	powerRetries, err := envInt("POWER_RETRIES", 3)
	if err != nil {
		return nil, err
	}
	powerCacheSize, err := envInt("POWER_CACHE_SIZE", 1000)
	if err != nil {
		return nil, err
	}
	sampleWorkers, err := envInt("SAMPLE_WORKERS", 4)
	if err != nil {
		return nil, err
	}
	maxSampleCount, err := envInt("MAX_SAMPLE_COUNT", 64)
	if err != nil {
		return nil, err
	}

	kafkaEnabled := os.Getenv("KAFKA_ENABLED") == "true"

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		CORSOrigins:     splitList(envOrDefault("CORS_ORIGINS", "*")),

		PowerBaseURL:   envOrDefault("POWER_BASE_URL", "https://power.larc.nasa.gov/api/temporal/climatology/point"),
		PowerAPIKey:    os.Getenv("POWER_API_KEY"),
		PowerTimeout:   powerTimeout,
		PowerRetries:   powerRetries,
		PowerCacheSize: powerCacheSize,

		SampleWorkers:  sampleWorkers,
		SampleTimeout:  sampleTimeout,
		MaxSampleCount: maxSampleCount,

		KafkaEnabled:      kafkaEnabled,
		KafkaBrokers:      splitList(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaResultsTopic: strings.TrimSpace(envOrDefault("KAFKA_RESULTS_TOPIC", "comfort-results")),
	}

	if cfg.PowerBaseURL == "" {
		return nil, errors.New("POWER_BASE_URL is required")
	}
	if cfg.SampleWorkers < 1 {
		return nil, errors.New("SAMPLE_WORKERS must be at least 1")
	}
	if cfg.MaxSampleCount < 1 {
		return nil, errors.New("MAX_SAMPLE_COUNT must be at least 1")
	}
	if cfg.PowerRetries < 0 {
		return nil, errors.New("POWER_RETRIES must not be negative")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
		}
		if cfg.KafkaResultsTopic == "" {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_RESULTS_TOPIC is empty")
		}
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func envInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
