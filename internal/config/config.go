// Package config provides configuration loading for the identlab CLI and gateway.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	cerrors "github.com/canonica-labs/identlab/internal/errors"
	labsql "github.com/canonica-labs/identlab/internal/sql"
)

// Config holds the application configuration. It is built once by Load and
// passed by value or pointer; nothing mutates it afterwards.
type Config struct {
	// Endpoint is the gateway URL used by the probe commands
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// MySQL store for /safe and /vuln
	MySQL MySQLConfig `mapstructure:"mysql" yaml:"mysql"`

	// PostgreSQL store for /vuln-pg
	Postgres PostgresConfig `mapstructure:"postgres" yaml:"postgres"`

	// Dev replaces both stores with one embedded engine
	Dev DevConfig `mapstructure:"dev" yaml:"dev"`

	// Binding is "native" or "emulated"
	Binding string `mapstructure:"binding" yaml:"binding"`

	// Logging configuration
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Server configuration (for gateway)
	Server ServerConfig `mapstructure:"server" yaml:"server"`

	// Probe configuration
	Probe ProbeConfig `mapstructure:"probe" yaml:"probe"`
}

// MySQLConfig holds MySQL configuration.
type MySQLConfig struct {
	Host              string `mapstructure:"host" yaml:"host"`
	Port              int    `mapstructure:"port" yaml:"port"`
	User              string `mapstructure:"user" yaml:"user"`
	Password          string `mapstructure:"password" yaml:"password"`
	Name              string `mapstructure:"name" yaml:"name"`
	InterpolateParams bool   `mapstructure:"interpolateParams" yaml:"interpolateParams"`
}

// PostgresConfig holds PostgreSQL configuration.
type PostgresConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	User     string `mapstructure:"user" yaml:"user"`
	Password string `mapstructure:"password" yaml:"password"`
	Name     string `mapstructure:"name" yaml:"name"`
	SSLMode  string `mapstructure:"sslmode" yaml:"sslmode"`
}

// DevConfig holds the embedded store configuration.
type DevConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Engine   string `mapstructure:"engine" yaml:"engine"`
	Database string `mapstructure:"database" yaml:"database"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr         string `mapstructure:"addr" yaml:"addr"`
	ReadTimeout  string `mapstructure:"readTimeout" yaml:"readTimeout"`
	WriteTimeout string `mapstructure:"writeTimeout" yaml:"writeTimeout"`
}

// ProbeConfig holds probe harness configuration.
type ProbeConfig struct {
	OutDir  string `mapstructure:"outDir" yaml:"outDir"`
	Corpus  string `mapstructure:"corpus" yaml:"corpus"`
	Timeout string `mapstructure:"timeout" yaml:"timeout"`
}

// Dev engines.
const (
	EngineSQLite = "sqlite"
	EngineDuckDB = "duckdb"
)

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Endpoint: "http://localhost:8080",
		MySQL: MySQLConfig{
			Host:     "db",
			Port:     3306,
			User:     "app",
			Password: "apppass",
			Name:     "demo",
		},
		Postgres: PostgresConfig{
			Host:     "pg",
			Port:     5432,
			User:     "app",
			Password: "apppass",
			Name:     "demopg",
			SSLMode:  "disable",
		},
		Dev: DevConfig{
			Enabled:  false,
			Engine:   EngineSQLite,
			Database: ":memory:",
		},
		Binding: string(labsql.BindingNative),
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  "15s",
			WriteTimeout: "15s",
		},
		Probe: ProbeConfig{
			OutDir:  "out",
			Timeout: "15s",
		},
	}
}

// Load loads configuration from file and environment.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".identlab"))
		}
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// IDENTLAB_MYSQL_HOST -> mysql.host
	v.SetEnvPrefix("IDENTLAB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindLegacyEnv(v); err != nil {
		return nil, fmt.Errorf("error binding environment: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file is optional
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// legacyEnv maps config keys to the variable names the lab's containers
// already export. The IDENTLAB_ name is checked first.
var legacyEnv = map[string]string{
	"mysql.host":        "DB_HOST",
	"mysql.user":        "DB_USER",
	"mysql.password":    "DB_PASS",
	"mysql.name":        "DB_NAME",
	"postgres.host":     "PG_HOST",
	"postgres.name":     "PG_DB",
	"postgres.user":     "PG_USER",
	"postgres.password": "PG_PASS",
}

func bindLegacyEnv(v *viper.Viper) error {
	for key, legacy := range legacyEnv {
		prefixed := "IDENTLAB_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return err
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("endpoint", d.Endpoint)
	v.SetDefault("mysql.host", d.MySQL.Host)
	v.SetDefault("mysql.port", d.MySQL.Port)
	v.SetDefault("mysql.user", d.MySQL.User)
	v.SetDefault("mysql.password", d.MySQL.Password)
	v.SetDefault("mysql.name", d.MySQL.Name)
	v.SetDefault("mysql.interpolateParams", d.MySQL.InterpolateParams)
	v.SetDefault("postgres.host", d.Postgres.Host)
	v.SetDefault("postgres.port", d.Postgres.Port)
	v.SetDefault("postgres.user", d.Postgres.User)
	v.SetDefault("postgres.password", d.Postgres.Password)
	v.SetDefault("postgres.name", d.Postgres.Name)
	v.SetDefault("postgres.sslmode", d.Postgres.SSLMode)
	v.SetDefault("dev.enabled", d.Dev.Enabled)
	v.SetDefault("dev.engine", d.Dev.Engine)
	v.SetDefault("dev.database", d.Dev.Database)
	v.SetDefault("binding", d.Binding)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.readTimeout", d.Server.ReadTimeout)
	v.SetDefault("server.writeTimeout", d.Server.WriteTimeout)
	v.SetDefault("probe.outDir", d.Probe.OutDir)
	v.SetDefault("probe.corpus", d.Probe.Corpus)
	v.SetDefault("probe.timeout", d.Probe.Timeout)
}

// Validate rejects values no component can act on.
func (c *Config) Validate() error {
	if c.Dev.Engine != EngineSQLite && c.Dev.Engine != EngineDuckDB {
		return cerrors.NewInvalidConfig("dev.engine", fmt.Sprintf("unknown engine %q (want sqlite or duckdb)", c.Dev.Engine))
	}
	if _, err := labsql.ParseBinding(c.Binding); err != nil {
		return cerrors.NewInvalidConfig("binding", err.Error())
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return cerrors.NewInvalidConfig("logging.level", fmt.Sprintf("unknown level %q", c.Logging.Level))
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return cerrors.NewInvalidConfig("logging.format", fmt.Sprintf("unknown format %q (want json or text)", c.Logging.Format))
	}
	for field, value := range map[string]string{
		"server.readTimeout":  c.Server.ReadTimeout,
		"server.writeTimeout": c.Server.WriteTimeout,
		"probe.timeout":       c.Probe.Timeout,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return cerrors.NewInvalidConfig(field, err.Error())
		}
	}
	return nil
}

// BindingMode returns the parsed binding mode.
func (c *Config) BindingMode() labsql.Binding {
	b, err := labsql.ParseBinding(c.Binding)
	if err != nil {
		return labsql.BindingNative
	}
	return b
}

// ReadTimeout returns server.readTimeout as a duration.
func (c *Config) ReadTimeout() time.Duration {
	return parseDuration(c.Server.ReadTimeout, 15*time.Second)
}

// WriteTimeout returns server.writeTimeout as a duration.
func (c *Config) WriteTimeout() time.Duration {
	return parseDuration(c.Server.WriteTimeout, 15*time.Second)
}

// ProbeTimeout returns probe.timeout as a duration.
func (c *Config) ProbeTimeout() time.Duration {
	return parseDuration(c.Probe.Timeout, 15*time.Second)
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
