// config/config.go

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds the storefront configuration.
type Config struct {
	Service   ServiceConfig   `yaml:"service"`
	Server    ServerConfig    `yaml:"server"`
	Redis     RedisConfig     `yaml:"redis"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
	Checkout  CheckoutConfig  `yaml:"checkout"`
	Pricing   PricingConfig   `yaml:"pricing"`
	Search    SearchConfig    `yaml:"search"`
	Studio    StudioConfig    `yaml:"studio"`
	Session   SessionConfig   `yaml:"session"`
}

// ServiceConfig names the service in telemetry resources.
type ServiceConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// ServerConfig configures listeners.
type ServerConfig struct {
	Port            string `yaml:"port"`
	GRPCPort        string `yaml:"grpc_port"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// RedisConfig configures the search history backend. An empty Addr keeps
// histories in memory.
type RedisConfig struct {
	Addr string `yaml:"addr"`
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

// LoggingConfig configures logrus.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// CheckoutConfig configures the simulated checkout.
type CheckoutConfig struct {
	Delay string `yaml:"delay"`
}

// PricingConfig holds decimal strings so no precision is lost in YAML.
type PricingConfig struct {
	Shipping string `yaml:"shipping"`
	TaxRate  string `yaml:"tax_rate"`
}

// SearchConfig configures search history.
type SearchConfig struct {
	HistoryLimit int `yaml:"history_limit"`
}

// StudioConfig configures the simulated design studio.
type StudioConfig struct {
	Delay string `yaml:"delay"`
}

// SessionConfig controls how long idle session state is kept.
type SessionConfig struct {
	IdleTimeout   string `yaml:"idle_timeout"`
	SweepInterval string `yaml:"sweep_interval"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:    "storefront",
			Version: "v1.0.0",
		},
		Server: ServerConfig{
			Port:            "8080",
			GRPCPort:        "7070",
			ShutdownTimeout: "10s",
		},
		Telemetry: TelemetryConfig{
			Enabled:  false,
			Endpoint: "localhost:4317",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Checkout: CheckoutConfig{
			Delay: "1500ms",
		},
		Pricing: PricingConfig{
			Shipping: "9.99",
			TaxRate:  "0.10",
		},
		Search: SearchConfig{
			HistoryLimit: 5,
		},
		Studio: StudioConfig{
			Delay: "2000ms",
		},
		Session: SessionConfig{
			IdleTimeout:   "48h",
			SweepInterval: "10m",
		},
	}
}

// Load reads a YAML file over the defaults and then applies environment
// overrides. An empty path or a missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, errors.Wrap(err, "failed to read config")
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, errors.Wrap(err, "failed to parse config")
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Port = port
	}
	if port := os.Getenv("GRPC_PORT"); port != "" {
		c.Server.GRPCPort = port
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		// bare hostnames get the default redis port
		if !strings.Contains(addr, ":") {
			addr += ":6379"
		}
		c.Redis.Addr = addr
	}
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		c.Telemetry.Endpoint = endpoint
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if v := os.Getenv("ENABLE_TRACING"); v != "" {
		if on, err := strconv.ParseBool(v); err == nil {
			c.Telemetry.Enabled = on
		}
	}
}

// GetCheckoutDelay returns the simulated checkout delay.
func (c *Config) GetCheckoutDelay() time.Duration {
	return parseDuration(c.Checkout.Delay, 1500*time.Millisecond)
}

// GetStudioDelay returns the simulated design generation delay.
func (c *Config) GetStudioDelay() time.Duration {
	return parseDuration(c.Studio.Delay, 2*time.Second)
}

// GetShutdownTimeout returns how long servers get to drain on shutdown.
func (c *Config) GetShutdownTimeout() time.Duration {
	return parseDuration(c.Server.ShutdownTimeout, 10*time.Second)
}

// GetSessionIdleTimeout returns how long a session may stay idle before its
// state is evicted.
func (c *Config) GetSessionIdleTimeout() time.Duration {
	return parseDuration(c.Session.IdleTimeout, 48*time.Hour)
}

// GetSessionSweepInterval returns how often idle sessions are looked for.
func (c *Config) GetSessionSweepInterval() time.Duration {
	return parseDuration(c.Session.SweepInterval, 10*time.Minute)
}

// GetShipping returns the flat shipping charge.
func (c *Config) GetShipping() decimal.Decimal {
	return parseDecimal(c.Pricing.Shipping, decimal.RequireFromString("9.99"))
}

// GetTaxRate returns the tax rate applied to the subtotal.
func (c *Config) GetTaxRate() decimal.Decimal {
	return parseDecimal(c.Pricing.TaxRate, decimal.RequireFromString("0.10"))
}

// GetLogLevel returns the logrus level, info when unparsable.
func (c *Config) GetLogLevel() logrus.Level {
	lvl, err := logrus.ParseLevel(c.Logging.Level)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Service.Name == "" {
		return errors.New("service name must be set")
	}
	if err := validPort("server.port", c.Server.Port); err != nil {
		return err
	}
	if err := validPort("server.grpc_port", c.Server.GRPCPort); err != nil {
		return err
	}
	if c.Server.Port == c.Server.GRPCPort {
		return errors.Errorf("server.port and server.grpc_port must differ (both %s)", c.Server.Port)
	}
	if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
		return errors.Wrapf(err, "logging.level")
	}
	for name, v := range map[string]string{
		"checkout.delay":          c.Checkout.Delay,
		"studio.delay":            c.Studio.Delay,
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
	} {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrapf(err, "%s", name)
		}
		if d < 0 {
			return errors.Errorf("%s must not be negative: %s", name, v)
		}
	}
	for name, v := range map[string]string{
		"session.idle_timeout":   c.Session.IdleTimeout,
		"session.sweep_interval": c.Session.SweepInterval,
	} {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrapf(err, "%s", name)
		}
		if d <= 0 {
			return errors.Errorf("%s must be positive: %s", name, v)
		}
	}
	for name, v := range map[string]string{
		"pricing.shipping": c.Pricing.Shipping,
		"pricing.tax_rate": c.Pricing.TaxRate,
	} {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return errors.Wrapf(err, "%s", name)
		}
		if d.IsNegative() {
			return errors.Errorf("%s must not be negative: %s", name, v)
		}
	}
	if c.Search.HistoryLimit < 1 {
		return errors.Errorf("search.history_limit must be at least 1, got %d", c.Search.HistoryLimit)
	}
	if c.Telemetry.Enabled && c.Telemetry.Endpoint == "" {
		return errors.New("telemetry.endpoint must be set when telemetry is enabled")
	}
	return nil
}

func validPort(name, v string) error {
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > 65535 {
		return errors.Errorf("%s is not a valid port: %q", name, v)
	}
	return nil
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

func parseDecimal(s string, def decimal.Decimal) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return def
	}
	return d
}
