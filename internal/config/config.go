package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds all agent configuration
type Config struct {
	NodeEnv         string
	Port            string
	JWTSecret       string
	PairingCodeHash string // bcrypt hash of the device pairing code
	StoreKey        string // hex AES-256 key; empty disables at-rest sealing
	Ephemeral       bool   // in-memory store, no database

	Backend  BackendConfig
	Database DatabaseConfig
	AI       AIConfig
	Queue    QueueConfig
}

// BackendConfig points the agent at the Argus GraphQL API
type BackendConfig struct {
	GraphQLEndpoint string
	APIToken        string
	ProbeURL        string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host       string
	Port       string
	Username   string
	Password   string
	Database   string
	LogQueries bool
}

// AIConfig holds the optional triage helper configuration
type AIConfig struct {
	GeminiAPIKey string
	Model        string
}

// Enabled reports whether the triage helper can be constructed
func (a AIConfig) Enabled() bool {
	return a.GeminiAPIKey != ""
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	endpoint := os.Getenv("ARGUS_GRAPHQL_URL")

	return &Config{
		NodeEnv:         getEnv("NODE_ENV", "development"),
		Port:            getEnv("PORT", "8091"),
		JWTSecret:       jwtSecret,
		PairingCodeHash: os.Getenv("PAIRING_CODE_HASH"),
		StoreKey:        os.Getenv("STORE_KEY"),
		Ephemeral:       getBoolEnv("EPHEMERAL_STORE", false),
		Backend: BackendConfig{
			GraphQLEndpoint: endpoint,
			APIToken:        os.Getenv("ARGUS_API_TOKEN"),
			// Probing the GraphQL endpoint itself works; any HTTP answer
			// proves the path to the backend host
			ProbeURL: getEnv("PROBE_URL", endpoint),
		},
		Database: DatabaseConfig{
			Host:       getEnv("PG_HOST", "localhost"),
			Port:       getEnv("PG_PORT", "5432"),
			Username:   getEnv("PG_USERNAME", "postgres"),
			Password:   os.Getenv("PG_PASSWORD"),
			Database:   getEnv("PG_DATABASE", "argus_agent"),
			LogQueries: getBoolEnv("PG_LOG_QUERIES", false),
		},
		AI: AIConfig{
			GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
			Model:        getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		},
		Queue: LoadQueueConfig(),
	}, nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
