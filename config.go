package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/soumitsalman/messreview/nlp"
)

const (
	_DEFAULT_SERVER_ADDR    = ":8080"
	_DEFAULT_LLM_TIMEOUT    = 60 * time.Second
	_DEFAULT_RETRY_ATTEMPTS = 1
	_DEFAULT_RATE_LIMIT     = 100
	_DEFAULT_RATE_BURST     = 2000

	_RETRY_JITTER = 100 * time.Millisecond
	_WRITE_GRACE  = 30 * time.Second
)

type LogConfig struct {
	Level  string
	Format string
}

type Config struct {
	ServerAddr         string
	GinMode            string
	LLM                nlp.LLMSettings
	Temperature        float64
	Timeout            time.Duration
	RetryAttempts      uint
	ExamplesFile       string
	DBConnectionString string
	StreamToConsole    bool
	RateLimit          float64
	RateBurst          int
	Log                LogConfig
}

// loadConfig reads the environment, after loading a .env file if one exists.
func loadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerAddr: getEnv("SERVER_ADDR", _DEFAULT_SERVER_ADDR),
		GinMode:    getEnv("GIN_MODE", "release"),
		LLM: nlp.LLMSettings{
			Provider: getEnv("LLM_PROVIDER", nlp.OLLAMA),
			Model:    os.Getenv("LLM_MODEL"),
			BaseURL:  os.Getenv("LLM_BASE_URL"),
			APIKey:   os.Getenv("LLM_API_KEY"),
		},
		ExamplesFile:       os.Getenv("EXAMPLES_FILE"),
		DBConnectionString: os.Getenv("DB_CONNECTION_STRING"),
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	var err error
	if cfg.Temperature, err = getFloat("LLM_TEMPERATURE", 0); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = getDuration("LLM_TIMEOUT", _DEFAULT_LLM_TIMEOUT); err != nil {
		return nil, err
	}
	attempts, err := getInt("LLM_RETRY_ATTEMPTS", _DEFAULT_RETRY_ATTEMPTS)
	if err != nil {
		return nil, err
	}
	if attempts < 1 {
		return nil, fmt.Errorf("LLM_RETRY_ATTEMPTS must be at least 1, got %d", attempts)
	}
	cfg.RetryAttempts = uint(attempts)
	if cfg.StreamToConsole, err = getBool("STREAM_TO_CONSOLE", false); err != nil {
		return nil, err
	}
	if cfg.RateLimit, err = getFloat("RATE_LIMIT", _DEFAULT_RATE_LIMIT); err != nil {
		return nil, err
	}
	if cfg.RateBurst, err = getInt("RATE_BURST", _DEFAULT_RATE_BURST); err != nil {
		return nil, err
	}
	return cfg, nil
}

// promptConfig returns the examples file configuration, or the built-in one when none is set.
func (cfg *Config) promptConfig() (*nlp.PromptConfig, error) {
	if cfg.ExamplesFile == "" {
		return nlp.DefaultPromptConfig(), nil
	}
	return nlp.LoadPromptConfig(cfg.ExamplesFile)
}

// writeTimeout covers every completion attempt and the back-off waits between them.
// A zero LLM timeout leaves classification unbounded, so the write deadline is left unset too.
func (cfg *Config) writeTimeout(retry_delay time.Duration) time.Duration {
	if cfg.Timeout <= 0 {
		return 0
	}
	attempts := max(cfg.RetryAttempts, 1)
	total := time.Duration(attempts) * cfg.Timeout
	// retry-go doubles the delay each time and adds up to _RETRY_JITTER
	for i := uint(1); i < attempts; i++ {
		total += retry_delay<<(i-1) + _RETRY_JITTER
	}
	return total + _WRITE_GRACE
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return parsed, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return parsed, nil
}

func getBool(key string, fallback bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return parsed, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return parsed, nil
}
