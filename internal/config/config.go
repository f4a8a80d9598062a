// Package config holds runtime configuration for the server.
package config

// Config holds all configuration for the application
type Config struct {
	// APIPort is the port the API server listens on
	APIPort int

	// LogLevel is the logging level (debug, info, warn, error)
	LogLevel string

	// DatabaseURL is the Postgres connection string
	DatabaseURL string

	// RulesConfigPath is the path to the YAML file containing threshold rules.
	// When empty, the built-in rule table is used.
	RulesConfigPath string

	// Model overrides the default inference model when non-empty
	Model string

	// InMemory selects the in-memory store instead of Postgres
	InMemory bool
}

// LoadConfig creates a Config with the provided values
func LoadConfig(apiPort int, logLevel, databaseURL, rulesConfigPath, model string, inMemory bool) *Config {
	return &Config{
		APIPort:         apiPort,
		LogLevel:        logLevel,
		DatabaseURL:     databaseURL,
		RulesConfigPath: rulesConfigPath,
		Model:           model,
		InMemory:        inMemory,
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.APIPort < 1 || c.APIPort > 65535 {
		return NewConfigError("APIPort must be between 1 and 65535")
	}

	if !c.InMemory && c.DatabaseURL == "" {
		return NewConfigError("DatabaseURL must be set unless the in-memory store is selected")
	}

	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	message string
}

// NewConfigError creates a new configuration error
func NewConfigError(message string) *ConfigError {
	return &ConfigError{message: message}
}

// Error returns the error message
func (e *ConfigError) Error() string {
	return e.message
}
