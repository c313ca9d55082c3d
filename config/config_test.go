package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chameneos/color"
	"chameneos/logging"
	"chameneos/rendezvous"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"MEETINGS", "STRATEGY", "COLORS", "PIN", "TAP", "SPIN_BUDGET",
		"IDLE_SLEEP", "STORE", "METRICS_ADDR", "LOG_LEVEL", "LOG_JSON",
	} {
		t.Setenv(EnvPrefix+k, "")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, uint64(600), cfg.Meetings)
	assert.Equal(t, rendezvous.LockFree, cfg.StrategyValue())
	assert.Equal(t, logging.LevelInfo, cfg.LogLevel())
	require.Len(t, cfg.Groups, 2)

	small, err := cfg.Groups[0].Parse()
	require.NoError(t, err)
	assert.Equal(t, []color.Color{color.Blue, color.Red, color.Yellow}, small)
	large, err := cfg.Groups[1].Parse()
	require.NoError(t, err)
	assert.Len(t, large, 10)
}

func TestLoad_MissingFileIsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Meetings, cfg.Meetings)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Groups, cfg.Groups)
}

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chameneos.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
meetings: 6000000
strategy: locked
groups:
  - name: pair
    colors: [blue, yellow]
backoff:
  spin_budget: 32
  sleep: 200us
pin: true
tap_capacity: 1024
store: runs.db
log:
  level: debug
  json: true
telemetry:
  metric_exporter: prometheus
metrics_addr: ":9090"
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, uint64(6000000), cfg.Meetings)
	assert.Equal(t, rendezvous.Locked, cfg.StrategyValue())
	assert.Equal(t, []Group{{Name: "pair", Colors: []string{"blue", "yellow"}}}, cfg.Groups)
	assert.Equal(t, 32, cfg.Backoff.SpinBudget)
	assert.Equal(t, 200*time.Microsecond, cfg.Backoff.Sleep)
	assert.True(t, cfg.Pin)
	assert.Equal(t, 1024, cfg.TapCapacity)
	assert.Equal(t, "runs.db", cfg.StorePath)
	assert.Equal(t, logging.LevelDebug, cfg.LogLevel())
	assert.True(t, cfg.Log.JSON)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
	assert.Equal(t, "chameneos", cfg.Telemetry.ServiceName, "unset nested fields keep defaults")
}

func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("meetings: [1, 2"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHAMENEOS_MEETINGS", "1000")
	t.Setenv("CHAMENEOS_STRATEGY", "locked")
	t.Setenv("CHAMENEOS_COLORS", "red, red,blue")
	t.Setenv("CHAMENEOS_PIN", "true")
	t.Setenv("CHAMENEOS_TAP", "64")
	t.Setenv("CHAMENEOS_SPIN_BUDGET", "8")
	t.Setenv("CHAMENEOS_IDLE_SLEEP", "1ms")
	t.Setenv("CHAMENEOS_STORE", "/tmp/x.db")
	t.Setenv("CHAMENEOS_LOG_LEVEL", "warn")
	t.Setenv("CHAMENEOS_LOG_JSON", "1")

	cfg := DefaultConfig()
	require.NoError(t, cfg.ApplyEnv())
	require.NoError(t, cfg.Validate())

	assert.Equal(t, uint64(1000), cfg.Meetings)
	assert.Equal(t, "locked", cfg.Strategy)
	require.Len(t, cfg.Groups, 1)
	colors, err := cfg.Groups[0].Parse()
	require.NoError(t, err)
	assert.Equal(t, []color.Color{color.Red, color.Red, color.Blue}, colors)
	assert.True(t, cfg.Pin)
	assert.Equal(t, 64, cfg.TapCapacity)
	assert.Equal(t, 8, cfg.Backoff.SpinBudget)
	assert.Equal(t, time.Millisecond, cfg.Backoff.Sleep)
	assert.Equal(t, "/tmp/x.db", cfg.StorePath)
	assert.Equal(t, logging.LevelWarn, cfg.LogLevel())
	assert.True(t, cfg.Log.JSON)
}

func TestApplyEnv_Malformed(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHAMENEOS_MEETINGS", "lots")
	t.Setenv("CHAMENEOS_PIN", "maybe")
	t.Setenv("CHAMENEOS_TAP", "16")

	cfg := DefaultConfig()
	err := cfg.ApplyEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CHAMENEOS_MEETINGS")
	assert.Contains(t, err.Error(), "CHAMENEOS_PIN")
	assert.Equal(t, 16, cfg.TapCapacity, "valid values still apply")
	assert.Equal(t, DefaultConfig().Meetings, cfg.Meetings)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero meetings", func(c *Config) { c.Meetings = 0 }, "meetings must be positive"},
		{"bad strategy", func(c *Config) { c.Strategy = "psychic" }, "unknown strategy"},
		{"no groups", func(c *Config) { c.Groups = nil }, "at least one group"},
		{"bad color", func(c *Config) { c.Groups = []Group{{Name: "g", Colors: []string{"green"}}} }, "unknown color"},
		{"empty group", func(c *Config) { c.Groups = []Group{{Name: "g"}} }, "no actors"},
		{"too many", func(c *Config) {
			g := Group{Name: "big"}
			for i := 0; i < 16; i++ {
				g.Colors = append(g.Colors, "red")
			}
			c.Groups = []Group{g}
		}, "too many actors"},
		{"negative spin", func(c *Config) { c.Backoff.SpinBudget = -1 }, "spin_budget"},
		{"negative sleep", func(c *Config) { c.Backoff.Sleep = -time.Second }, "backoff.sleep"},
		{"negative tap", func(c *Config) { c.TapCapacity = -1 }, "tap_capacity"},
		{"bad log level", func(c *Config) { c.Log.Level = "chatty" }, "unknown log level"},
		{"bad tracer", func(c *Config) { c.Telemetry.TraceExporter = "zipkin" }, "trace exporter"},
		{"bad meter", func(c *Config) { c.Telemetry.MetricExporter = "statsd" }, "metric exporter"},
		{"addr without prometheus", func(c *Config) { c.MetricsAddr = ":9090"; c.Telemetry.MetricExporter = "none" }, "metrics_addr"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Telemetry.TraceExporter = "none"
			cfg.Telemetry.MetricExporter = "none"
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
