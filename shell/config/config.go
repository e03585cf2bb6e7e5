package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Supported database drivers.
const (
	DriverPGX      = "pgx"
	DriverPostgres = "postgres"
	DriverSQLX     = "sqlx"
	DriverSQLite   = "sqlite"
)

const (
	envDBDriver          = "LENDING_DB_DRIVER"
	envDBDSN             = "LENDING_DB_DSN"
	envDBReplicaDSN      = "LENDING_DB_REPLICA_DSN"
	envDBMaxConns        = "LENDING_DB_MAX_CONNS"
	envDBBusyTimeout     = "LENDING_DB_BUSY_TIMEOUT"
	envHTTPAddr          = "LENDING_HTTP_ADDR"
	envHTTPTimeout       = "LENDING_HTTP_REQUEST_TIMEOUT"
	envCORSOrigin        = "LENDING_CORS_ORIGIN"
	envLogLevel          = "LENDING_LOG_LEVEL"
	envLogFormat         = "LENDING_LOG_FORMAT"
	envOTelEnabled       = "LENDING_OTEL_ENABLED"
	envOTelEndpoint      = "LENDING_OTEL_ENDPOINT"
	envPrometheusEnabled = "LENDING_PROMETHEUS_ENABLED"

	defaultDriver          = DriverSQLite
	defaultDSN             = "lending.db"
	defaultMaxConns        = 10
	defaultBusyTimeout     = 5 * time.Second
	defaultHTTPAddr        = ":4000"
	defaultRequestTimeout  = 10 * time.Second
	defaultShutdownTimeout = 5 * time.Second
	defaultCORSOrigin      = "*"
	defaultLogLevel        = "info"
	defaultLogFormat       = "json"
	defaultOTelEndpoint    = "localhost:4317"
	defaultServiceName     = "library-lending"
)

var (
	ErrUnknownDriver       = errors.New("unknown database driver")
	ErrEmptyDSN            = errors.New("database dsn must not be empty")
	ErrInvalidMaxConns     = errors.New("database max connections must be positive")
	ErrReplicaNeedsPGX     = errors.New("a replica dsn is only supported with the pgx driver")
	ErrInvalidLogLevel     = errors.New("unknown log level")
	ErrInvalidLogFormat    = errors.New("unknown log format")
	ErrInvalidEnvValue     = errors.New("invalid environment variable value")
	ErrReadingConfigFailed = errors.New("reading the config file failed")
)

// Config is the complete configuration of the lending service.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	HTTP     HTTPConfig     `yaml:"http"`
	Log      LogConfig      `yaml:"log"`
	OTel     OTelConfig     `yaml:"otel"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// DatabaseConfig selects the driver and sizes the connection pool.
type DatabaseConfig struct {
	Driver      string        `yaml:"driver"`
	DSN         string        `yaml:"dsn"`
	ReplicaDSN  string        `yaml:"replica_dsn"`
	MaxConns    int           `yaml:"max_conns"`
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	CORSOrigin      string        `yaml:"cors_origin"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type OTelConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"service_name"`
}

type MetricsConfig struct {
	Prometheus bool `yaml:"prometheus"`
}

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Default returns the configuration used when nothing else is set.
func Default() Config {
	return Config{
		Database: DatabaseConfig{
			Driver:      defaultDriver,
			DSN:         defaultDSN,
			MaxConns:    defaultMaxConns,
			BusyTimeout: defaultBusyTimeout,
		},
		HTTP: HTTPConfig{
			Addr:            defaultHTTPAddr,
			CORSOrigin:      defaultCORSOrigin,
			RequestTimeout:  defaultRequestTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Log: LogConfig{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
		OTel: OTelConfig{
			Endpoint:    defaultOTelEndpoint,
			ServiceName: defaultServiceName,
		},
	}
}

// Load builds the configuration from the defaults, the YAML file at path (skipped when path is empty)
// and the process environment, and validates the result.
func Load(path string) (Config, error) {
	return LoadWithLookup(path, os.LookupEnv)
}

// LoadWithLookup is Load with a custom environment lookup.
func LoadWithLookup(path string, lookup LookupFunc) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Join(ErrReadingConfigFailed, err)
		}

		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, errors.Join(ErrReadingConfigFailed, err)
		}
	}

	if err := cfg.applyEnv(lookup); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) applyEnv(lookup LookupFunc) error {
	setString(lookup, envDBDriver, &c.Database.Driver)
	setString(lookup, envDBDSN, &c.Database.DSN)
	setString(lookup, envDBReplicaDSN, &c.Database.ReplicaDSN)
	setString(lookup, envHTTPAddr, &c.HTTP.Addr)
	setString(lookup, envCORSOrigin, &c.HTTP.CORSOrigin)
	setString(lookup, envLogLevel, &c.Log.Level)
	setString(lookup, envLogFormat, &c.Log.Format)
	setString(lookup, envOTelEndpoint, &c.OTel.Endpoint)

	return errors.Join(
		setInt(lookup, envDBMaxConns, &c.Database.MaxConns),
		setDuration(lookup, envDBBusyTimeout, &c.Database.BusyTimeout),
		setDuration(lookup, envHTTPTimeout, &c.HTTP.RequestTimeout),
		setBool(lookup, envOTelEnabled, &c.OTel.Enabled),
		setBool(lookup, envPrometheusEnabled, &c.Metrics.Prometheus),
	)
}

// Validate rejects configurations the service cannot start with.
func (c Config) Validate() error {
	var errs []error

	switch c.Database.Driver {
	case DriverPGX, DriverPostgres, DriverSQLX, DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownDriver, c.Database.Driver))
	}

	if strings.TrimSpace(c.Database.DSN) == "" {
		errs = append(errs, ErrEmptyDSN)
	}

	if c.Database.MaxConns < 1 {
		errs = append(errs, ErrInvalidMaxConns)
	}

	if c.Database.ReplicaDSN != "" && c.Database.Driver != DriverPGX {
		errs = append(errs, ErrReplicaNeedsPGX)
	}

	if _, err := ParseLogLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}

	switch c.Log.Format {
	case LogFormatJSON, LogFormatText:
	default:
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Log.Format))
	}

	return errors.Join(errs...)
}

func setString(lookup LookupFunc, key string, target *string) {
	if value, ok := lookup(key); ok && value != "" {
		*target = value
	}
}

func setInt(lookup LookupFunc, key string, target *int) error {
	value, ok := lookup(key)
	if !ok || value == "" {
		return nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%w: %s=%q", ErrInvalidEnvValue, key, value)
	}

	*target = parsed

	return nil
}

func setDuration(lookup LookupFunc, key string, target *time.Duration) error {
	value, ok := lookup(key)
	if !ok || value == "" {
		return nil
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%w: %s=%q", ErrInvalidEnvValue, key, value)
	}

	*target = parsed

	return nil
}

func setBool(lookup LookupFunc, key string, target *bool) error {
	value, ok := lookup(key)
	if !ok || value == "" {
		return nil
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("%w: %s=%q", ErrInvalidEnvValue, key, value)
	}

	*target = parsed

	return nil
}
