// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Generator providers.
const (
	ProviderGoogleAI  = "googleai"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderBedrock   = "bedrock"
)

// Config holds all configuration values. It is built once at startup and
// passed into every component that needs a collaborator handle; nothing
// reads the environment after Load returns.
type Config struct {
	// Search collaborator (Tavily)
	TavilyAPIKey   string
	TavilyEndpoint string
	SearchRPS      float64
	MaxResults     int

	// Generator collaborator
	LLMProvider     string
	LLMModel        string
	GeminiAPIKey    string
	OpenAIAPIKey    string
	AnthropicAPIKey string

	// Orchestration
	Workers    int
	TopTargets int
	OutputDir  string

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		TavilyAPIKey:   os.Getenv("TAVILY_API_KEY"),
		TavilyEndpoint: getEnv("TAVILY_ENDPOINT", "https://api.tavily.com/search"),
		SearchRPS:      getEnvFloat("CAMPUSINTEL_SEARCH_RPS", 3.0),
		MaxResults:     getEnvInt("CAMPUSINTEL_MAX_RESULTS", 6),

		LLMProvider:     getEnv("CAMPUSINTEL_LLM_PROVIDER", ProviderGoogleAI),
		LLMModel:        getEnv("CAMPUSINTEL_LLM_MODEL", "gemini-1.5-pro"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),

		Workers:    getEnvInt("CAMPUSINTEL_WORKERS", 4),
		TopTargets: getEnvInt("CAMPUSINTEL_TOP_TARGETS", 5),
		OutputDir:  getEnv("CAMPUSINTEL_OUTPUT_DIR", "."),

		LogFile:  getEnv("CAMPUSINTEL_LOG_FILE", "/tmp/campusintel.log"),
		LogLevel: parseLogLevel(getEnv("CAMPUSINTEL_LOG_LEVEL", "INFO")),
	}
}

// Validate checks that the credentials required to run any pipeline are
// present. A missing credential is a fatal startup error, never a per-call
// error.
func (c Config) Validate() error {
	if c.TavilyAPIKey == "" {
		return fmt.Errorf("TAVILY_API_KEY not set in environment")
	}
	switch c.LLMProvider {
	case ProviderGoogleAI:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY not set in environment")
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY not set in environment")
		}
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY not set in environment")
		}
	case ProviderBedrock:
		// Credentials resolve through the ambient AWS chain.
	default:
		return fmt.Errorf("unsupported LLM provider: %s", c.LLMProvider)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
