package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v2"

	"github.com/brightsun/solarsite/internal/fortlev"
)

// Environment variables that override file values
const (
	EnvDatabaseURL         = "DATABASE_URL"
	EnvDiscordWebhookID    = "DISCORD_WEBHOOK_ID"
	EnvDiscordWebhookToken = "DISCORD_WEBHOOK_TOKEN"
	EnvAdminTokenHash      = "ADMIN_TOKEN_HASH"
)

// expandEnvVars expands environment variables in the format ${VAR} or $VAR
func expandEnvVars(data []byte) []byte {
	return []byte(os.ExpandEnv(string(data)))
}

// DefaultConfigPaths defines the default locations to search for configuration files
var DefaultConfigPaths = []string{
	"./config.yaml",
	"./config.yml",
	"./configs/config.yaml",
	"./configs/config.yml",
	"./configs/development.yaml",
	"/etc/solarsite/config.yaml",
	"/etc/solarsite/config.yml",
}

// Defaults returns the configuration used when no file sets a value
func Defaults() *Config {
	return &Config{
		Environment: "local",
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ShutdownTimeout: 15 * time.Second,
		},
		Fortlev: FortlevConfig{
			RequestTimeout: 30 * time.Second,
			LoginTimeout:   15 * time.Second,
			CatalogPath:    "/component/search",
			QuotePath:      "/order/quote",
		},
		Database: DatabaseConfig{
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     5432,
				Database: "solarsite",
				User:     "postgres",
				SSLMode:  "disable",
			},
		},
		Notifications: NotificationsConfig{
			Discord: DiscordConfig{Username: "Solarsite"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		IDGen: IDGenConfig{NodeID: 1},
	}
}

// Load loads the configuration from the specified file or default locations,
// then applies environment overrides and validates the result.
func Load(configPath string) (*Config, error) {
	config := Defaults()

	// If no config path is provided, search in default locations
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" && fileExists(configPath) {
		fmt.Fprintf(os.Stderr, "[CONFIG] Loading config from: %s\n", configPath)
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(expandEnvVars(data), config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if configPath != "" {
		return nil, fmt.Errorf("config file not found: %s", configPath)
	} else {
		fmt.Fprintf(os.Stderr, "[CONFIG] No config file found, using defaults\n")
	}

	applyEnvOverrides(config)

	if err := validate(config); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadFromDefaults loads configuration using only defaults and environment variables
func LoadFromDefaults() (*Config, error) {
	return Load("")
}

// applyEnvOverrides lets deployments inject secrets without touching the file
func applyEnvOverrides(config *Config) {
	override := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}

	override(&config.Fortlev.BaseURL, fortlev.EnvBaseURL)
	override(&config.Fortlev.Username, fortlev.EnvUsername)
	override(&config.Fortlev.Password, fortlev.EnvPassword)
	override(&config.Database.URL, EnvDatabaseURL)
	override(&config.Notifications.Discord.WebhookID, EnvDiscordWebhookID)
	override(&config.Notifications.Discord.WebhookToken, EnvDiscordWebhookToken)
	override(&config.Admin.TokenHash, EnvAdminTokenHash)
}

// findConfigFile searches for a configuration file in default locations
func findConfigFile() string {
	for _, path := range DefaultConfigPaths {
		if fileExists(path) {
			return path
		}
	}
	return ""
}

// fileExists checks if a file exists and is not a directory
func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// validate reports every configuration problem at once.
// Partner credentials are not checked here: the client reports them on first use.
func validate(config *Config) error {
	var result *multierror.Error

	if config.Server.Port < 1 || config.Server.Port > 65535 {
		result = multierror.Append(result, fmt.Errorf("server.port must be between 1 and 65535"))
	}
	if config.Server.MetricsPort < 0 || config.Server.MetricsPort > 65535 {
		result = multierror.Append(result, fmt.Errorf("server.metrics_port must be between 0 and 65535"))
	}
	if config.Server.MetricsPort == 0 && config.Server.Port+10 > 65535 {
		result = multierror.Append(result, fmt.Errorf("server.metrics_port must be set when server.port is above 65525"))
	}

	if config.Database.URL == "" {
		if config.Database.Postgres.Host == "" {
			result = multierror.Append(result, fmt.Errorf("postgres host is required"))
		}
		if config.Database.Postgres.Database == "" {
			result = multierror.Append(result, fmt.Errorf("postgres database name is required"))
		}
		if config.Database.Postgres.User == "" {
			result = multierror.Append(result, fmt.Errorf("postgres user is required"))
		}
	}

	if config.Fortlev.RequestTimeout < 0 {
		result = multierror.Append(result, fmt.Errorf("fortlev.request_timeout must not be negative"))
	}
	if config.Fortlev.LoginTimeout < 0 {
		result = multierror.Append(result, fmt.Errorf("fortlev.login_timeout must not be negative"))
	}

	d := config.Notifications.Discord
	if (d.WebhookID == "") != (d.WebhookToken == "") {
		result = multierror.Append(result, fmt.Errorf("notifications.discord needs both webhook_id and webhook_token"))
	}

	if config.Admin.TokenHash != "" {
		if _, err := bcrypt.Cost([]byte(config.Admin.TokenHash)); err != nil {
			result = multierror.Append(result, fmt.Errorf("admin.token_hash is not a bcrypt hash: %w", err))
		}
	}

	switch strings.ToLower(config.Logging.Format) {
	case "", "json", "text":
	default:
		result = multierror.Append(result, fmt.Errorf("logging.format must be json or text"))
	}

	if config.IDGen.NodeID < 0 || config.IDGen.NodeID > 1023 {
		result = multierror.Append(result, fmt.Errorf("idgen.node_id must be between 0 and 1023"))
	}

	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
