// Package config loads the agent configuration from a file and
// POSAGENT_* environment variables. Environment variables take
// precedence over the config file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/capverde/posagent/internal/order"
)

// Config is the agent's full configuration surface.
type Config struct {
	Database   Database   `mapstructure:"database"`
	Server     Server     `mapstructure:"server"`
	Sync       Sync       `mapstructure:"sync"`
	Printer    Printer    `mapstructure:"printer"`
	Restaurant Restaurant `mapstructure:"restaurant"`
	LogLevel   string     `mapstructure:"log-level"`
}

// Database locates the local SQLite store.
type Database struct {
	Path string `mapstructure:"path"`
}

// Server describes the sync endpoint.
type Server struct {
	BaseURL       string        `mapstructure:"base-url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	ProbeInterval time.Duration `mapstructure:"probe-interval"`
}

// Sync holds the sync engine timings.
type Sync struct {
	Debounce      time.Duration `mapstructure:"debounce"`
	Interval      time.Duration `mapstructure:"interval"`
	SweepInterval time.Duration `mapstructure:"sweep-interval"`
	Retention     time.Duration `mapstructure:"retention"`
}

// Printer describes the active output transport. An empty transport
// means none is configured and dispatch uses the local fallback.
type Printer struct {
	Transport string        `mapstructure:"transport"` // "bluetooth" | "network" | ""
	Host      string        `mapstructure:"host"`
	Port      int           `mapstructure:"port"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// Restaurant is the profile printed on receipts.
type Restaurant struct {
	Name    string  `mapstructure:"name"`
	Address string  `mapstructure:"address"`
	Phone   string  `mapstructure:"phone"`
	TaxID   string  `mapstructure:"tax-id"`
	TaxRate float64 `mapstructure:"tax-rate"`
}

// Profile converts the restaurant section to the domain profile.
func (r Restaurant) Profile() order.Profile {
	return order.Profile{
		Name:    r.Name,
		Address: r.Address,
		Phone:   r.Phone,
		TaxID:   r.TaxID,
		TaxRate: r.TaxRate,
	}
}

var requiredFields = []string{
	"database.path",
	"server.base-url",
	"restaurant.name",
}

// field: default value
var optionalFields = map[string]any{
	"server.timeout":        15 * time.Second,
	"server.probe-interval": 30 * time.Second,
	"sync.debounce":         2 * time.Second,
	"sync.interval":         5 * time.Minute,
	"sync.sweep-interval":   time.Hour,
	"sync.retention":        168 * time.Hour,
	"printer.transport":     "",
	"printer.port":          9100,
	"printer.timeout":       10 * time.Second,
	"restaurant.tax-rate":   0.10,
	"log-level":             "info",
}

// Load reads configuration from the given file and environment
// variables. Environment variables use the POSAGENT_ prefix with dots
// and dashes replaced by underscores (server.base-url becomes
// POSAGENT_SERVER_BASE_URL).
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)

	v.SetEnvPrefix("POSAGENT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	for _, field := range requiredFields {
		v.BindEnv(field)
	}
	for field, def := range optionalFields {
		v.SetDefault(field, def)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("could not read config: %w", err)
	}

	for _, field := range requiredFields {
		if !v.IsSet(field) {
			return nil, fmt.Errorf("missing required config field: %s", field)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("could not unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	switch cfg.Printer.Transport {
	case "", "bluetooth", "network":
	default:
		return fmt.Errorf("unknown printer transport %q", cfg.Printer.Transport)
	}
	if cfg.Printer.Transport == "network" && cfg.Printer.Host == "" {
		return fmt.Errorf("printer.host is required for the network transport")
	}
	if cfg.Restaurant.TaxRate < 0 || cfg.Restaurant.TaxRate >= 1 {
		return fmt.Errorf("restaurant.tax-rate %v out of range", cfg.Restaurant.TaxRate)
	}
	return nil
}
