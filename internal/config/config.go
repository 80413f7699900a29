// ABOUTME: Configuration loading and parsing for parley-gateway
// ABOUTME: Supports YAML files with environment variable expansion and startup validation

package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Config represents the complete parley-gateway configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	App        AppConfig        `yaml:"app"`
	OAuth      OAuthConfig      `yaml:"oauth"`
	Auth       AuthConfig       `yaml:"auth"`
	Transcript TranscriptConfig `yaml:"transcript"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig holds server address configuration.
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
	// PublicDir is the local directory served verbatim under /public/.
	PublicDir string `yaml:"public_dir"`
}

// AppConfig holds the application identity the gateway presents to the
// conversational channel service.
type AppConfig struct {
	ID       string `yaml:"id"`
	Password string `yaml:"password"`
	Type     string `yaml:"type"`
	TenantID string `yaml:"tenant_id"`
}

// OAuthConfig holds the sign-in flow configuration.
type OAuthConfig struct {
	// ConnectionName identifies the OAuth connection on the token service.
	// Required: without it the sign-in flow cannot complete, so the process
	// refuses to start.
	ConnectionName string `yaml:"connection_name"`
}

// AuthConfig holds inbound authentication configuration.
type AuthConfig struct {
	// JWTSecret enables bearer-token auth on /api/messages when set.
	JWTSecret string `yaml:"jwt_secret"`
}

// TranscriptConfig holds the optional activity transcript configuration.
type TranscriptConfig struct {
	// Path of the SQLite transcript database. Empty disables the transcript.
	Path string `yaml:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed
// Config. Environment variables in the format ${VAR_NAME} are expanded.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse parses raw YAML configuration, expanding ${VAR_NAME} environment
// references and validating required fields.
func Parse(data []byte) (*Config, error) {
	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding
// environment variable values. Unset variables expand to the empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present.
// Returns an error describing the first validation failure encountered.
// A validation failure is fatal at startup: the process must not begin
// serving without it.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}
	if c.OAuth.ConnectionName == "" {
		return fmt.Errorf("oauth.connection_name is required")
	}
	return nil
}
