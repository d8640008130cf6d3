package config

import (
	"fmt"
	"time"

	"github.com/brightsun/solarsite/internal/fortlev"
)

// Config represents the application configuration
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Fortlev       FortlevConfig       `yaml:"fortlev"`
	Database      DatabaseConfig      `yaml:"database"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Admin         AdminConfig         `yaml:"admin"`
	Logging       LoggingConfig       `yaml:"logging"`
	IDGen         IDGenConfig         `yaml:"idgen"`
	Environment   string              `yaml:"environment" default:"local"` // local, dev, prod
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host" default:"0.0.0.0"`
	Port            int           `yaml:"port" default:"8080"`
	MetricsPort     int           `yaml:"metrics_port"` // 0 means port+10
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"15s"`
}

// Addr returns the listen address of the public server
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// MetricsAddr returns the listen address of the metrics server
func (s ServerConfig) MetricsAddr() string {
	port := s.MetricsPort
	if port == 0 {
		port = s.Port + 10
	}
	return fmt.Sprintf("%s:%d", s.Host, port)
}

// FortlevConfig holds the partner distributor API settings
type FortlevConfig struct {
	BaseURL        string        `yaml:"base_url"`
	Username       string        `yaml:"username"`
	Password       string        `yaml:"password"`
	RequestTimeout time.Duration `yaml:"request_timeout" default:"30s"`
	LoginTimeout   time.Duration `yaml:"login_timeout" default:"15s"` // bounds one token exchange
	CatalogPath    string        `yaml:"catalog_path" default:"/component/search"`
	QuotePath      string        `yaml:"quote_path" default:"/order/quote"`
}

// Credentials returns the partner credentials as the client expects them
func (f FortlevConfig) Credentials() fortlev.Credentials {
	return fortlev.Credentials{
		BaseURL:  f.BaseURL,
		Username: f.Username,
		Password: f.Password,
	}
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL      string         `yaml:"url"` // takes precedence over the postgres section
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL-specific configuration
type PostgresConfig struct {
	Host     string `yaml:"host" default:"localhost"`
	Port     int    `yaml:"port" default:"5432"`
	Database string `yaml:"database" default:"solarsite"`
	User     string `yaml:"user" default:"postgres"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode" default:"disable"` // disable, require, verify-ca, verify-full
}

// ConnectionString returns the PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	if d.URL != "" {
		return d.URL
	}
	return d.Postgres.ConnectionString()
}

// ConnectionString returns the PostgreSQL connection string
func (p *PostgresConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode)
}

// NotificationsConfig holds lead notification settings
type NotificationsConfig struct {
	Discord DiscordConfig `yaml:"discord"`
}

// DiscordConfig identifies the webhook that receives new leads
type DiscordConfig struct {
	WebhookID    string `yaml:"webhook_id"`
	WebhookToken string `yaml:"webhook_token"`
	Username     string `yaml:"username" default:"Solarsite"`
}

// Enabled reports whether a webhook is configured
func (d DiscordConfig) Enabled() bool {
	return d.WebhookID != "" && d.WebhookToken != ""
}

// AdminConfig guards the lead listing endpoints
type AdminConfig struct {
	TokenHash string `yaml:"token_hash"` // bcrypt hash of the admin bearer token
}

// LoggingConfig holds log output settings
type LoggingConfig struct {
	Level  string `yaml:"level" default:"info"`
	Format string `yaml:"format" default:"json"` // json, text
	File   string `yaml:"file"`
}

// IDGenConfig configures the snowflake node
type IDGenConfig struct {
	NodeID int64 `yaml:"node_id" default:"1"`
}
