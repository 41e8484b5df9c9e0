// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/aristath/hedgefund/internal/utils"
)

// DefaultCORSOrigins are the frontends allowed when CORS_ALLOWED_ORIGINS is unset
var DefaultCORSOrigins = []string{
	"http://localhost:3000",               // Next.js development server
	"https://recursivecapital.github.io", // Production frontend
}

// Config holds application configuration
type Config struct {
	Port        int
	LogLevel    string
	LogPretty   bool
	DevMode     bool
	CORSOrigins []string

	// Agent service
	AgentServiceURL string        // Base URL of the external agent service; empty disables every agent
	AgentWorkerCap  int           // Maximum concurrent agent invocations per ticker
	AgentTimeout    time.Duration // Per-agent invocation limit, 0 disables it

	// Analysis
	TickerConcurrency int           // Tickers analyzed at once within a batch
	AnalysisRateLimit float64       // Analysis requests per second, 0 disables limiting
	AnalysisRateBurst int           // Burst allowance for the analysis limiter
	RequestTimeout    time.Duration // Whole-request deadline
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:              getEnvAsInt("PORT", 8000),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogPretty:         getEnvAsBool("LOG_PRETTY", false),
		DevMode:           getEnvAsBool("DEV_MODE", false),
		CORSOrigins:       getEnvAsList("CORS_ALLOWED_ORIGINS", DefaultCORSOrigins),
		AgentServiceURL:   getEnv("AGENT_SERVICE_URL", ""),
		AgentWorkerCap:    getEnvAsInt("AGENT_WORKER_CAP", 10),
		AgentTimeout:      getEnvAsDuration("AGENT_TIMEOUT", 60*time.Second),
		TickerConcurrency: getEnvAsInt("TICKER_CONCURRENCY", 1),
		AnalysisRateLimit: getEnvAsFloat("ANALYSIS_RATE_LIMIT", 0),
		AnalysisRateBurst: getEnvAsInt("ANALYSIS_RATE_BURST", 5),
		RequestTimeout:    getEnvAsDuration("REQUEST_TIMEOUT", 120*time.Second),
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that configuration values are usable
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.AgentWorkerCap < 1 {
		return fmt.Errorf("AGENT_WORKER_CAP must be at least 1, got %d", c.AgentWorkerCap)
	}
	if c.TickerConcurrency < 1 {
		return fmt.Errorf("TICKER_CONCURRENCY must be at least 1, got %d", c.TickerConcurrency)
	}
	if c.AgentTimeout < 0 {
		return fmt.Errorf("AGENT_TIMEOUT must not be negative")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	if c.AnalysisRateLimit < 0 {
		return fmt.Errorf("ANALYSIS_RATE_LIMIT must not be negative")
	}
	if c.AnalysisRateLimit > 0 && c.AnalysisRateBurst < 1 {
		return fmt.Errorf("ANALYSIS_RATE_BURST must be at least 1 when rate limiting is enabled")
	}
	if c.AgentServiceURL != "" {
		u, err := url.Parse(c.AgentServiceURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("AGENT_SERVICE_URL must be an absolute URL, got %q", c.AgentServiceURL)
		}
	}

	// Note: an empty AGENT_SERVICE_URL is allowed; the API still serves
	// metadata and every analysis reports its agents as not constructible.

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("90s", "2m") or plain seconds
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	out := utils.ParseCSV(value)
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
