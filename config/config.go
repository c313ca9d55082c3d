// Package config loads run settings with priority flags > env > file > defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"chameneos/color"
	"chameneos/constants"
	"chameneos/logging"
	"chameneos/rendezvous"
	"chameneos/telemetry"
)

// EnvPrefix starts every environment override.
const EnvPrefix = "CHAMENEOS_"

// Group is one named actor set. Colors are color names.
type Group struct {
	Name   string   `yaml:"name"`
	Colors []string `yaml:"colors"`
}

// Parse resolves the group's color names.
func (g Group) Parse() ([]color.Color, error) {
	colors, err := color.ParseList(g.Colors)
	if err != nil {
		return nil, fmt.Errorf("group %q: %w", g.Name, err)
	}
	return colors, nil
}

// BackoffConfig shapes idle waiting in lock-free workers.
type BackoffConfig struct {
	SpinBudget int           `yaml:"spin_budget"`
	Sleep      time.Duration `yaml:"sleep"`
}

// LogConfig selects log verbosity and format.
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Config is the full set of run settings.
type Config struct {
	Meetings    uint64           `yaml:"meetings"`
	Strategy    string           `yaml:"strategy"`
	Groups      []Group          `yaml:"groups"`
	Backoff     BackoffConfig    `yaml:"backoff"`
	Pin         bool             `yaml:"pin"`
	TapCapacity int              `yaml:"tap_capacity"`
	StorePath   string           `yaml:"store"`
	MetricsAddr string           `yaml:"metrics_addr"`
	Log         LogConfig        `yaml:"log"`
	Telemetry   telemetry.Config `yaml:"telemetry"`
}

// SmallGroup and LargeGroup are the two classic benchmark actor sets.
var (
	SmallGroup = Group{Name: "small", Colors: []string{"blue", "red", "yellow"}}
	LargeGroup = Group{Name: "large", Colors: []string{
		"blue", "red", "yellow", "red", "yellow",
		"blue", "red", "yellow", "red", "blue",
	}}
)

// DefaultConfig returns the classic benchmark setup.
func DefaultConfig() Config {
	return Config{
		Meetings: constants.DefaultMeetings,
		Strategy: rendezvous.LockFree.String(),
		Groups:   []Group{SmallGroup, LargeGroup},
		Backoff: BackoffConfig{
			SpinBudget: constants.SpinBudget,
			Sleep:      constants.IdleSleep,
		},
		Log:       LogConfig{Level: "info"},
		Telemetry: telemetry.DefaultConfig(),
	}
}

// Load reads a YAML file over the defaults. A missing file, or an empty
// path, yields the defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overlays CHAMENEOS_* variables. Every malformed value is reported;
// well-formed ones are still applied.
func (c *Config) ApplyEnv() error {
	var errs []error
	env := func(key string) (string, bool) {
		v, ok := os.LookupEnv(EnvPrefix + key)
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}

	if v, ok := env("MEETINGS"); ok {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			c.Meetings = n
		} else {
			errs = append(errs, fmt.Errorf("%sMEETINGS: %w", EnvPrefix, err))
		}
	}
	if v, ok := env("STRATEGY"); ok {
		c.Strategy = v
	}
	if v, ok := env("COLORS"); ok {
		c.Groups = []Group{{Name: "custom", Colors: strings.Split(v, ",")}}
	}
	if v, ok := env("PIN"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Pin = b
		} else {
			errs = append(errs, fmt.Errorf("%sPIN: %w", EnvPrefix, err))
		}
	}
	if v, ok := env("TAP"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.TapCapacity = n
		} else {
			errs = append(errs, fmt.Errorf("%sTAP: %w", EnvPrefix, err))
		}
	}
	if v, ok := env("SPIN_BUDGET"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.Backoff.SpinBudget = n
		} else {
			errs = append(errs, fmt.Errorf("%sSPIN_BUDGET: %w", EnvPrefix, err))
		}
	}
	if v, ok := env("IDLE_SLEEP"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			c.Backoff.Sleep = d
		} else {
			errs = append(errs, fmt.Errorf("%sIDLE_SLEEP: %w", EnvPrefix, err))
		}
	}
	if v, ok := env("STORE"); ok {
		c.StorePath = v
	}
	if v, ok := env("METRICS_ADDR"); ok {
		c.MetricsAddr = v
	}
	if v, ok := env("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := env("LOG_JSON"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Log.JSON = b
		} else {
			errs = append(errs, fmt.Errorf("%sLOG_JSON: %w", EnvPrefix, err))
		}
	}
	return errors.Join(errs...)
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs []error
	if c.Meetings == 0 {
		errs = append(errs, errors.New("meetings must be positive"))
	}
	if _, err := rendezvous.ParseStrategy(c.Strategy); err != nil {
		errs = append(errs, err)
	}
	if len(c.Groups) == 0 {
		errs = append(errs, errors.New("at least one group is required"))
	}
	for _, g := range c.Groups {
		colors, err := g.Parse()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := rendezvous.Validate(colors, 1); err != nil {
			errs = append(errs, fmt.Errorf("group %q: %w", g.Name, err))
		}
	}
	if c.Backoff.SpinBudget < 0 {
		errs = append(errs, errors.New("backoff.spin_budget must not be negative"))
	}
	if c.Backoff.Sleep < 0 {
		errs = append(errs, errors.New("backoff.sleep must not be negative"))
	}
	if c.TapCapacity < 0 {
		errs = append(errs, errors.New("tap_capacity must not be negative"))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Telemetry.TraceExporter {
	case "", telemetry.ExporterNone, telemetry.ExporterStdout, telemetry.ExporterOTLP:
	default:
		errs = append(errs, fmt.Errorf("%w: trace exporter %q", telemetry.ErrUnknownExporter, c.Telemetry.TraceExporter))
	}
	switch c.Telemetry.MetricExporter {
	case "", telemetry.ExporterNone, telemetry.ExporterStdout, telemetry.ExporterPrometheus:
	default:
		errs = append(errs, fmt.Errorf("%w: metric exporter %q", telemetry.ErrUnknownExporter, c.Telemetry.MetricExporter))
	}
	if c.MetricsAddr != "" && c.Telemetry.MetricExporter != telemetry.ExporterPrometheus {
		errs = append(errs, errors.New("metrics_addr requires the prometheus metric exporter"))
	}
	return errors.Join(errs...)
}

// StrategyValue returns the parsed strategy. Call after Validate.
func (c Config) StrategyValue() rendezvous.Strategy {
	s, _ := rendezvous.ParseStrategy(c.Strategy)
	return s
}

// LogLevel returns the parsed log level. Call after Validate.
func (c Config) LogLevel() logging.Level {
	l, _ := logging.ParseLevel(c.Log.Level)
	return l
}
