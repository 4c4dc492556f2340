package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration values
type Config struct {
	// Server configuration
	Port        int    `json:"port"`
	Environment string `json:"environment"`

	// Redis configuration
	RedisURI      string `json:"redis_uri"`
	RedisPassword string `json:"redis_password"`
	RedisDB       int    `json:"redis_db"`

	// Verification policy
	CodeExpiry          time.Duration `json:"code_expiry"`
	VerificationRecTTL  time.Duration `json:"verification_record_ttl"`
	MaxAttempts         int           `json:"max_attempts"`
	BlockDuration       time.Duration `json:"block_duration"`
	VerifiedPhoneTTL    time.Duration `json:"verified_phone_ttl"`
	MaxRequestsPerIP    int           `json:"max_requests_per_ip"`
	IPRateLimitWindow   time.Duration `json:"ip_rate_limit_window"`

	// Voice gateway defaults (runtime values live in the settings store)
	VoiceServerURL     string `json:"voice_server_url"`
	VoiceServerAPIKey  string `json:"voice_server_api_key"`
	VoiceServerEnabled bool   `json:"voice_server_enabled"`
	SiteTitle          string `json:"site_title"`

	// Auth configuration
	AdminGroup string `json:"admin_group"`

	// Tracing configuration
	TracingEnabled  bool   `json:"tracing_enabled"`
	TracingEndpoint string `json:"tracing_endpoint"`
}

var (
	AppConfig *Config
)

// LoadConfig loads configuration from environment variables
func LoadConfig() error {
	port, err := strconv.Atoi(getEnvOrDefault("PORT", "8080"))
	if err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}

	redisDB, err := strconv.Atoi(getEnvOrDefault("REDIS_DB", "0"))
	if err != nil {
		return fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	codeExpiry, err := time.ParseDuration(getEnvOrDefault("CODE_EXPIRY", "5m"))
	if err != nil {
		return fmt.Errorf("invalid CODE_EXPIRY: %w", err)
	}

	recordTTL, err := time.ParseDuration(getEnvOrDefault("VERIFICATION_RECORD_TTL", "20m"))
	if err != nil {
		return fmt.Errorf("invalid VERIFICATION_RECORD_TTL: %w", err)
	}
	// The record must outlive the code so block state set after a failed
	// attempt survives past code expiry.
	if recordTTL <= codeExpiry {
		return fmt.Errorf("VERIFICATION_RECORD_TTL (%s) must be longer than CODE_EXPIRY (%s)", recordTTL, codeExpiry)
	}

	maxAttempts, err := strconv.Atoi(getEnvOrDefault("MAX_ATTEMPTS", "3"))
	if err != nil {
		return fmt.Errorf("invalid MAX_ATTEMPTS: %w", err)
	}

	blockDuration, err := time.ParseDuration(getEnvOrDefault("BLOCK_DURATION", "15m"))
	if err != nil {
		return fmt.Errorf("invalid BLOCK_DURATION: %w", err)
	}

	verifiedTTL, err := time.ParseDuration(getEnvOrDefault("VERIFIED_PHONE_TTL", "10m"))
	if err != nil {
		return fmt.Errorf("invalid VERIFIED_PHONE_TTL: %w", err)
	}

	maxPerIP, err := strconv.Atoi(getEnvOrDefault("MAX_REQUESTS_PER_IP", "10"))
	if err != nil {
		return fmt.Errorf("invalid MAX_REQUESTS_PER_IP: %w", err)
	}

	ipWindow, err := time.ParseDuration(getEnvOrDefault("IP_RATE_LIMIT_WINDOW", "24h"))
	if err != nil {
		return fmt.Errorf("invalid IP_RATE_LIMIT_WINDOW: %w", err)
	}

	AppConfig = &Config{
		// Server configuration
		Port:        port,
		Environment: getEnvOrDefault("ENVIRONMENT", "development"),

		// Redis configuration
		RedisURI:      getEnvOrDefault("REDIS_URI", "localhost:6379"),
		RedisPassword: getEnvOrDefault("REDIS_PASSWORD", ""),
		RedisDB:       redisDB,

		// Verification policy
		CodeExpiry:         codeExpiry,
		VerificationRecTTL: recordTTL,
		MaxAttempts:        maxAttempts,
		BlockDuration:      blockDuration,
		VerifiedPhoneTTL:   verifiedTTL,
		MaxRequestsPerIP:   maxPerIP,
		IPRateLimitWindow:  ipWindow,

		// Voice gateway defaults
		VoiceServerURL:     getEnvOrDefault("VOICE_SERVER_URL", "https://www.call2all.co.il/ym/api/RunCampaign"),
		VoiceServerAPIKey:  getEnvOrDefault("VOICE_SERVER_API_KEY", ""),
		VoiceServerEnabled: getEnvOrDefault("VOICE_SERVER_ENABLED", "false") == "true",
		SiteTitle:          getEnvOrDefault("SITE_TITLE", "the forum"),

		// Auth configuration
		AdminGroup: getEnvOrDefault("ADMIN_GROUP", "admin"),

		// Tracing configuration
		TracingEnabled:  getEnvOrDefault("TRACING_ENABLED", "false") == "true",
		TracingEndpoint: getEnvOrDefault("TRACING_ENDPOINT", "localhost:4317"),
	}

	return nil
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
