package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/miko-factory/creamdash/internal/domain"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// SourceConfig holds the wallet token source configuration
type SourceConfig struct {
	APIBaseURL  string        `mapstructure:"api_base_url"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
	StrictMints bool          `mapstructure:"strict_mints"` // only accept Solana mint addresses
}

// URIConfig holds the gateways used to fetch ipfs:// and ar:// documents
type URIConfig struct {
	IPFSGateways    []string `mapstructure:"ipfs_gateways"`
	ArweaveGateways []string `mapstructure:"arweave_gateways"`
}

// EnrichmentConfig holds metadata enrichment configuration
type EnrichmentConfig struct {
	Concurrency          int           `mapstructure:"concurrency"`
	DocumentTimeout      time.Duration `mapstructure:"document_timeout"`
	LegacyBatchNumbering bool          `mapstructure:"legacy_batch_numbering"` // "Batch N" names instead of mint-derived ones
	// RequestsPerSecond caps document fetches per host; 0 disables the limit
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// RefresherConfig holds the background refresher configuration
type RefresherConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"` // e.g., "5m", "1h"
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// NATSConfig holds NATS JetStream configuration
type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	StreamName     string        `mapstructure:"stream_name"`
	Subject        string        `mapstructure:"subject"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	ReconnectWait  time.Duration `mapstructure:"reconnect_wait"`
	ConnectionName string        `mapstructure:"connection_name"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout int    `mapstructure:"write_timeout"` // in seconds
	IdleTimeout  int    `mapstructure:"idle_timeout"`  // in seconds

	// AllowedOrigins restricts CORS; empty allows every origin
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTPublicKey string   `mapstructure:"jwt_public_key"`
	APIKeys      []string `mapstructure:"api_keys"`
}

// OperatorConfig holds operator roster and session configuration
type OperatorConfig struct {
	RosterPath string        `mapstructure:"roster_path"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
	// PurgeInterval is how often expired sessions are removed from the store
	PurgeInterval time.Duration `mapstructure:"purge_interval"`
}

// APIConfig holds configuration for the dashboard API server
type APIConfig struct {
	BaseConfig `mapstructure:",squash"`
	Server     ServerConfig     `mapstructure:"server"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Source     SourceConfig     `mapstructure:"source"`
	URI        URIConfig        `mapstructure:"uri"`
	Enrichment EnrichmentConfig `mapstructure:"enrichment"`
	Refresher  RefresherConfig  `mapstructure:"refresher"`
	Database   DatabaseConfig   `mapstructure:"database"`
	NATS       NATSConfig       `mapstructure:"nats"`
	Operator   OperatorConfig   `mapstructure:"operator"`
}

// CLIConfig holds configuration for creamctl
type CLIConfig struct {
	BaseConfig `mapstructure:",squash"`
	Source     SourceConfig     `mapstructure:"source"`
	URI        URIConfig        `mapstructure:"uri"`
	Enrichment EnrichmentConfig `mapstructure:"enrichment"`
}

// setPipelineDefaults sets the defaults shared by every service that runs the pipeline
func setPipelineDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)
	v.SetDefault("source.api_base_url", domain.DEFAULT_SOURCE_API_BASE_URL)
	v.SetDefault("source.http_timeout", "30s")
	v.SetDefault("uri.ipfs_gateways", []string{domain.DEFAULT_IPFS_GATEWAY})
	v.SetDefault("uri.arweave_gateways", []string{domain.DEFAULT_ARWEAVE_GATEWAY})
	v.SetDefault("enrichment.concurrency", 8)
	v.SetDefault("enrichment.document_timeout", "15s")
	v.SetDefault("enrichment.legacy_batch_numbering", false)
	v.SetDefault("enrichment.requests_per_second", 10)
	v.SetDefault("enrichment.burst", 5)
}

// LoadAPIConfig loads configuration for the API server
func LoadAPIConfig(configFile string, envPath string) (*APIConfig, error) {
	v := configureViper("api", configFile, envPath)

	// Set defaults
	setPipelineDefaults(v)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 60)
	v.SetDefault("server.idle_timeout", 120)
	v.SetDefault("refresher.enabled", true)
	v.SetDefault("refresher.interval", "5m")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 5)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.stream_name", "DASHBOARD_EVENTS")
	v.SetDefault("nats.subject", "dashboard.snapshot.updated")
	v.SetDefault("nats.connection_name", "creamdash-api")
	v.SetDefault("operator.roster_path", "config/operators.json")
	v.SetDefault("operator.session_ttl", "12h")
	v.SetDefault("operator.purge_interval", "15m")

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg APIConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateSource(cfg.Source); err != nil {
		return nil, err
	}
	if cfg.Operator.SessionTTL <= 0 {
		return nil, errors.New("operator.session_ttl must be positive")
	}
	if cfg.Refresher.Enabled && cfg.Refresher.Interval <= 0 {
		return nil, errors.New("refresher.interval must be positive when the refresher is enabled")
	}

	return &cfg, nil
}

// LoadCLIConfig loads configuration for creamctl
func LoadCLIConfig(configFile string, envPath string) (*CLIConfig, error) {
	v := configureViper("creamctl", configFile, envPath)
	setPipelineDefaults(v)

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg CLIConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateSource(cfg.Source); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// readConfig reads the config file, tolerating its absence
func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// Config file not found, use environment variables
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

func validateSource(cfg SourceConfig) error {
	if strings.TrimSpace(cfg.APIBaseURL) == "" {
		return errors.New("source.api_base_url is required")
	}
	if cfg.HTTPTimeout <= 0 {
		return errors.New("source.http_timeout must be positive")
	}
	return nil
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	// Load environment variables
	loadEnv(envPath, service)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// Search for config.yaml in multiple locations:
		// 1. Current directory
		v.AddConfigPath(".")
		// 2. Service-specific directory (e.g., cmd/api/)
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		// 3. Config directory
		v.AddConfigPath("config/")
	}

	v.SetEnvPrefix("CREAMDASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicitly bind all environment variables
	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables
// This is required for viper to map env vars to config struct fields when no config file exists
func bindAllEnvVars(v *viper.Viper) {
	keys := []string{
		"debug",
		"sentry_dsn",
		// Source
		"source.api_base_url",
		"source.http_timeout",
		"source.strict_mints",
		// URI
		"uri.ipfs_gateways",
		"uri.arweave_gateways",
		// Enrichment
		"enrichment.concurrency",
		"enrichment.document_timeout",
		"enrichment.legacy_batch_numbering",
		"enrichment.requests_per_second",
		"enrichment.burst",
		// Refresher
		"refresher.enabled",
		"refresher.interval",
		// Server
		"server.host",
		"server.port",
		"server.read_timeout",
		"server.write_timeout",
		"server.idle_timeout",
		"server.allowed_origins",
		// Auth
		"auth.jwt_public_key",
		"auth.api_keys",
		// Database
		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime",
		"database.conn_max_idle_time",
		// NATS
		"nats.url",
		"nats.stream_name",
		"nats.subject",
		"nats.max_reconnects",
		"nats.reconnect_wait",
		"nats.connection_name",
		// Operator
		"operator.roster_path",
		"operator.session_ttl",
		"operator.purge_interval",
	}

	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	// Always try shared base first, then local, then optional per-service local.
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		candidate := filepath.Join(envPath, envFile)
		_ = godotenv.Overload(candidate) // Overload lets later files override earlier ones
	}
}

// ChdirRepoRoot changes the current working directory to the repository root
func ChdirRepoRoot() {
	cwd, _ := os.Getwd()
	for range 5 {
		if _, err := os.Stat(filepath.Join(cwd, "config")); err == nil {
			_ = os.Chdir(cwd)
			return
		}
		cwd = filepath.Dir(cwd)
	}
}

// Enabled reports whether a database is configured. Without one, operator
// sessions are kept in memory.
func (c *DatabaseConfig) Enabled() bool {
	return c.Host != "" && c.DBName != ""
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
