package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

var ErrEmptyEnvironmentVariable = errors.New("empty environment variable")

// Telephony provider selection values
const (
	TelephonyProviderLiveKit = "livekit"
	TelephonyProviderTwilio  = "twilio"
)

// Summary provider selection values
const (
	SummaryProviderGoogleAI = "googleai"
	SummaryProviderOpenAI   = "openai"
)

// Config holds all application configuration
type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	Bridge    BridgeConfig
	Twilio    TwilioConfig
	Services  ServicesConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Username string
	Password string
	Name     string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int
}

// BridgeConfig holds connection settings for the telephony/session bridge
// (a LiveKit-style media server with SIP trunking).
type BridgeConfig struct {
	URL       string
	APIKey    string
	APISecret string
	TrunkID   string
	AgentName string
}

// TwilioConfig holds settings for the direct-dial Twilio originator.
// Only required when TELEPHONY_PROVIDER=twilio.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	StreamURL  string
}

// ServicesConfig holds external service API keys and configuration
type ServicesConfig struct {
	TelephonyProvider string
	SummaryProvider   string
	SummaryTimeout    time.Duration
	GoogleAIAPIKey    string
	OpenAIAPIKey      string
	WebAppURI         string
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// RateLimitConfig holds rate limiting configuration for call dispatch
type RateLimitConfig struct {
	DispatchesPerMinute int
}

// Load reads and validates all required environment variables
func Load() (*Config, error) {
	// Load env.local in non-production environments
	if os.Getenv("GO_ENV") != "production" {
		if err := godotenv.Load("env.local"); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load env.local: %w", err)
		}
	}

	cfg := &Config{}

	// Database configuration
	var err error
	if cfg.Database.Host, err = requireEnv("DB_HOST"); err != nil {
		return nil, err
	}
	if cfg.Database.Username, err = requireEnv("DB_USERNAME"); err != nil {
		return nil, err
	}
	if cfg.Database.Password, err = requireEnv("DB_PASSWORD"); err != nil {
		return nil, err
	}
	if cfg.Database.Name, err = requireEnv("DB_NAME"); err != nil {
		return nil, err
	}

	// Session bridge configuration
	if cfg.Bridge.URL, err = requireEnv("LIVEKIT_URL"); err != nil {
		return nil, err
	}
	if cfg.Bridge.APIKey, err = requireEnv("LIVEKIT_API_KEY"); err != nil {
		return nil, err
	}
	if cfg.Bridge.APISecret, err = requireEnv("LIVEKIT_API_SECRET"); err != nil {
		return nil, err
	}
	if cfg.Bridge.TrunkID, err = requireEnv("LIVEKIT_TRUNK_ID"); err != nil {
		return nil, err
	}
	cfg.Bridge.AgentName = getEnvWithDefault("BRIDGE_AGENT_NAME", "call-agent")

	// Telephony provider selection
	cfg.Services.TelephonyProvider = getEnvWithDefault("TELEPHONY_PROVIDER", TelephonyProviderLiveKit)
	switch cfg.Services.TelephonyProvider {
	case TelephonyProviderLiveKit:
	case TelephonyProviderTwilio:
		if cfg.Twilio.AccountSID, err = requireEnv("TWILIO_ACCOUNT_SID"); err != nil {
			return nil, err
		}
		if cfg.Twilio.AuthToken, err = requireEnv("TWILIO_AUTH_TOKEN"); err != nil {
			return nil, err
		}
		if cfg.Twilio.FromNumber, err = requireEnv("TWILIO_PHONE_NUMBER"); err != nil {
			return nil, err
		}
		if cfg.Twilio.StreamURL, err = requireEnv("TWILIO_STREAM_URL"); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown TELEPHONY_PROVIDER: %q", cfg.Services.TelephonyProvider)
	}

	// Summary generation configuration
	cfg.Services.SummaryProvider = getEnvWithDefault("SUMMARY_PROVIDER", SummaryProviderGoogleAI)
	switch cfg.Services.SummaryProvider {
	case SummaryProviderGoogleAI:
		if cfg.Services.GoogleAIAPIKey, err = requireEnv("GOOGLE_AI_API_KEY"); err != nil {
			return nil, err
		}
	case SummaryProviderOpenAI:
		if cfg.Services.OpenAIAPIKey, err = requireEnv("OPENAI_API_KEY"); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown SUMMARY_PROVIDER: %q", cfg.Services.SummaryProvider)
	}

	summaryTimeout := getEnvWithDefault("SUMMARY_TIMEOUT_SECONDS", "30")
	timeoutSeconds, err := strconv.Atoi(summaryTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to parse SUMMARY_TIMEOUT_SECONDS: %w", err)
	}
	cfg.Services.SummaryTimeout = time.Duration(timeoutSeconds) * time.Second

	cfg.Services.WebAppURI = getEnvWithDefault("WEBAPP_URI", "http://localhost:3000")

	// Redis configuration (optional, used for dispatch rate limiting)
	cfg.Redis.Enabled = getEnvWithDefault("REDIS_ENABLED", "false") == "true"
	if cfg.Redis.Enabled {
		if cfg.Redis.Host, err = requireEnv("REDIS_HOST"); err != nil {
			return nil, err
		}
		redisPort := getEnvWithDefault("REDIS_PORT", "6379")
		cfg.Redis.Port, err = strconv.Atoi(redisPort)
		if err != nil {
			return nil, fmt.Errorf("failed to parse REDIS_PORT: %w", err)
		}
		cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
		redisDB := getEnvWithDefault("REDIS_DB", "0")
		cfg.Redis.DB, err = strconv.Atoi(redisDB)
		if err != nil {
			return nil, fmt.Errorf("failed to parse REDIS_DB: %w", err)
		}
	}

	dispatchLimit := getEnvWithDefault("DISPATCH_RATE_LIMIT_PER_MINUTE", "10")
	cfg.RateLimit.DispatchesPerMinute, err = strconv.Atoi(dispatchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DISPATCH_RATE_LIMIT_PER_MINUTE: %w", err)
	}

	// Server configuration
	serverPort, err := requireEnv("SERVER_PORT")
	if err != nil {
		return nil, err
	}
	cfg.Server.Port, err = strconv.Atoi(serverPort)
	if err != nil {
		return nil, fmt.Errorf("failed to parse SERVER_PORT: %w", err)
	}

	return cfg, nil
}

// ConnectionString returns a PostgreSQL connection string
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s/%s",
		c.Username, c.Password, c.Host, c.Name)
}

// requireEnv retrieves an environment variable or returns an error if empty
func requireEnv(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("%s is not set: %w", key, ErrEmptyEnvironmentVariable)
	}
	return value, nil
}

// getEnvWithDefault retrieves an environment variable or returns a default value
func getEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
