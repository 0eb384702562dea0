package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "posagent.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalConfig = `
database:
  path: /var/lib/posagent/orders.db
server:
  base-url: https://pos.capverde.example
restaurant:
  name: Restaurant CapVerde
`

func TestLoad_MinimalWithDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/posagent/orders.db", cfg.Database.Path)
	assert.Equal(t, "https://pos.capverde.example", cfg.Server.BaseURL)
	assert.Equal(t, "Restaurant CapVerde", cfg.Restaurant.Name)

	assert.Equal(t, 15*time.Second, cfg.Server.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Server.ProbeInterval)
	assert.Equal(t, 2*time.Second, cfg.Sync.Debounce)
	assert.Equal(t, 5*time.Minute, cfg.Sync.Interval)
	assert.Equal(t, time.Hour, cfg.Sync.SweepInterval)
	assert.Equal(t, 168*time.Hour, cfg.Sync.Retention)
	assert.Empty(t, cfg.Printer.Transport)
	assert.Equal(t, 9100, cfg.Printer.Port)
	assert.Equal(t, 10*time.Second, cfg.Printer.Timeout)
	assert.InDelta(t, 0.10, cfg.Restaurant.TaxRate, 1e-9)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_FullConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
database:
  path: /tmp/orders.db
server:
  base-url: http://localhost:8080
  timeout: 5s
  probe-interval: 10s
sync:
  debounce: 500ms
  interval: 1m
  sweep-interval: 30m
  retention: 48h
printer:
  transport: network
  host: 192.168.1.50
  port: 9101
restaurant:
  name: Restaurant CapVerde
  address: 12 Rue des Iles, 75011 Paris
  phone: 01 43 55 00 00
  tax-id: 123 456 789 00012
  tax-rate: 0.055
log-level: debug
`))
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.Server.Timeout)
	assert.Equal(t, 500*time.Millisecond, cfg.Sync.Debounce)
	assert.Equal(t, 48*time.Hour, cfg.Sync.Retention)
	assert.Equal(t, "network", cfg.Printer.Transport)
	assert.Equal(t, "192.168.1.50", cfg.Printer.Host)
	assert.Equal(t, 9101, cfg.Printer.Port)
	assert.InDelta(t, 0.055, cfg.Restaurant.TaxRate, 1e-9)
	assert.Equal(t, "debug", cfg.LogLevel)

	p := cfg.Restaurant.Profile()
	assert.Equal(t, "Restaurant CapVerde", p.Name)
	assert.Equal(t, "123 456 789 00012", p.TaxID)
}

func TestLoad_MissingRequiredField(t *testing.T) {
	_, err := Load(writeConfig(t, `
database:
  path: /tmp/orders.db
restaurant:
  name: Restaurant CapVerde
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.base-url")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "no-such.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not read config")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("POSAGENT_SERVER_BASE_URL", "https://env.capverde.example")
	t.Setenv("POSAGENT_DATABASE_PATH", "/env/orders.db")

	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)
	assert.Equal(t, "https://env.capverde.example", cfg.Server.BaseURL)
	assert.Equal(t, "/env/orders.db", cfg.Database.Path)
}

func TestLoad_ValidationErrors(t *testing.T) {
	base := `
database:
  path: /tmp/orders.db
server:
  base-url: http://localhost:8080
`

	tests := []struct {
		name    string
		rest    string
		wantErr string
	}{
		{
			name: "unknown transport",
			rest: `printer:
  transport: serial
restaurant:
  name: Restaurant CapVerde
`,
			wantErr: "unknown printer transport",
		},
		{
			name: "network without host",
			rest: `printer:
  transport: network
restaurant:
  name: Restaurant CapVerde
`,
			wantErr: "printer.host is required",
		},
		{
			name: "tax rate out of range",
			rest: `restaurant:
  name: Restaurant CapVerde
  tax-rate: 1.5
`,
			wantErr: "tax-rate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, base+tt.rest))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
