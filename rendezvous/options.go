package rendezvous

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"chameneos/constants"
	"chameneos/logging"
	"chameneos/ring"
	"chameneos/telemetry"
)

// Strategy selects the meeting implementation.
type Strategy int

const (
	// LockFree drives the packed queue word with compare-and-swap.
	LockFree Strategy = iota

	// Locked pairs actors through a mutex and condition variable.
	Locked
)

func (s Strategy) String() string {
	switch s {
	case LockFree:
		return "lockfree"
	case Locked:
		return "locked"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// ParseStrategy accepts "lockfree" (or "lock-free") and "locked".
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "lockfree", "lock-free":
		return LockFree, nil
	case "locked", "mutex":
		return Locked, nil
	}
	return LockFree, fmt.Errorf("unknown strategy %q", name)
}

// Launcher spawns and joins the goroutines of one run. errgroup.Group
// satisfies it.
type Launcher interface {
	Go(func() error)
	Wait() error
}

// Option configures a Coordinator.
type Option func(*settings)

type settings struct {
	strategy    Strategy
	spinBudget  int
	sleep       time.Duration
	pin         bool
	tapCapacity int
	checks      bool
	launcher    func() Launcher
	logger      *logging.Logger
	metrics     *telemetry.Metrics
}

func defaultSettings() settings {
	return settings{
		strategy:   LockFree,
		spinBudget: constants.SpinBudget,
		sleep:      constants.IdleSleep,
		launcher:   func() Launcher { return new(errgroup.Group) },
		logger:     logging.Nop(),
	}
}

// WithStrategy picks lock-free (default) or locked meetings.
func WithStrategy(s Strategy) Option {
	return func(c *settings) { c.strategy = s }
}

// WithBackoff sets how many empty polls a worker spins through before it
// sleeps, and how long each sleep lasts. A zero sleep yields instead.
func WithBackoff(spinBudget int, sleep time.Duration) Option {
	return func(c *settings) {
		c.spinBudget = spinBudget
		c.sleep = sleep
	}
}

// WithPinning binds worker i to CPU i % NumCPU. Pinning failures are
// reported in WorkerStats and do not fail the run.
func WithPinning(pin bool) Option {
	return func(c *settings) { c.pin = pin }
}

// WithTap records every meeting into per-worker rings of the given capacity,
// rounded up to a power of two no smaller than ring.MinSize. Zero disables
// the tap.
func WithTap(capacity int) Option {
	return func(c *settings) {
		if capacity <= 0 {
			c.tapCapacity = 0
			return
		}
		size := ring.MinSize
		for size < capacity {
			size <<= 1
		}
		c.tapCapacity = size
	}
}

// WithChecks validates every word a worker commits. Slow; meant for tests.
func WithChecks(on bool) Option {
	return func(c *settings) { c.checks = on }
}

// WithLauncher replaces the default errgroup launcher. The factory is called
// once per run.
func WithLauncher(factory func() Launcher) Option {
	return func(c *settings) {
		if factory != nil {
			c.launcher = factory
		}
	}
}

// WithLogger sets the logger for run setup and teardown.
func WithLogger(l *logging.Logger) Option {
	return func(c *settings) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics records each run into m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(c *settings) { c.metrics = m }
}

// MarshalText renders the strategy name.
func (s Strategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a strategy name.
func (s *Strategy) UnmarshalText(b []byte) error {
	v, err := ParseStrategy(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
