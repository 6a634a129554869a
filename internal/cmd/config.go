package main

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is everything the server binary reads from the environment.
type Config struct {
	Port string

	// AuthServerURL is the token issuer; JWKS is fetched from its
	// well-known endpoint.
	AuthServerURL string
	JWTAudience   string

	// NATSURL is the usage-metering sink. Empty disables metering.
	NATSURL string

	// DataDir holds the profile registry.
	DataDir string

	// ScheduleCreationDelay is the per-subject cooldown.
	ScheduleCreationDelay time.Duration

	// HasDBResetButton exposes the destructive reset (dev only).
	HasDBResetButton bool

	// TLSCertFile/TLSKeyFile enable TLS when both are set.
	TLSCertFile string
	TLSKeyFile  string
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func loadConfig() (*Config, error) {
	cfg := &Config{
		Port:                  getEnv("PORT", "8080"),
		AuthServerURL:         os.Getenv("AUTH_SERVER_URL"),
		JWTAudience:           getEnv("JWT_AUDIENCE", "fieldz-scheduler"),
		NATSURL:               os.Getenv("NATS_URL"),
		DataDir:               getEnv("FIELDZ_DATA_DIR", "."),
		ScheduleCreationDelay: time.Duration(getEnvAsInt("SCHEDULE_CREATION_DELAY", 30000)) * time.Millisecond,
		HasDBResetButton:      getEnvAsBool("HAS_DB_RESET_BUTTON", false),
		TLSCertFile:           os.Getenv("TLS_CERT_FILE"),
		TLSKeyFile:            os.Getenv("TLS_KEY_FILE"),
	}

	if cfg.AuthServerURL == "" {
		return nil, fmt.Errorf("AUTH_SERVER_URL is required")
	}
	if (cfg.TLSCertFile == "") != (cfg.TLSKeyFile == "") {
		return nil, fmt.Errorf("TLS_CERT_FILE and TLS_KEY_FILE must be set together")
	}

	return cfg, nil
}

// JWKSEndpoint is the issuer's published key location.
func (c *Config) JWKSEndpoint() string {
	return c.AuthServerURL + "/.well-known/jwks.json"
}
