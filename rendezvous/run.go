// Package rendezvous pairs a fixed set of actors until a shared meeting
// budget is spent.
//
// The default strategy keeps all coordination state in one packed 64-bit
// word updated by compare-and-swap; the Locked strategy does the same job
// with a mutex and condition variable. Both honour the same contract: the
// sum of per-actor meeting counts is exactly twice the number of meetings,
// and with two or more actors the number of meetings equals the limit.
package rendezvous

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"chameneos/actor"
	"chameneos/color"
	"chameneos/constants"
	"chameneos/control"
	"chameneos/packed"
	"chameneos/telemetry"
)

// Coordinator runs meeting sessions. It is safe for concurrent use; each
// Run owns its own board, actors, and goroutines.
type Coordinator struct {
	cfg settings
}

// Result is the outcome of one run. Counts and Colors follow the order of
// the seed colors.
type Result struct {
	Strategy   Strategy       `json:"strategy"`
	Seeds      []color.Color  `json:"seeds"`
	Colors     []color.Color  `json:"colors"`
	Counts     []actor.Counts `json:"counts"`
	Meetings   uint64         `json:"meetings"`
	Limit      uint64         `json:"limit"`
	Elapsed    time.Duration  `json:"elapsed"`
	Workers    []WorkerStats  `json:"workers"`
	Pairs      [][]uint64     `json:"pairs,omitempty"`
	TapDropped uint64         `json:"tap_dropped"`
}

// CASFailures sums lost commits across workers.
func (r *Result) CASFailures() uint64 {
	var n uint64
	for _, w := range r.Workers {
		n += w.CASFailures
	}
	return n
}

// Backoffs sums idle waits across workers.
func (r *Result) Backoffs() uint64 {
	var n uint64
	for _, w := range r.Workers {
		n += w.Backoffs
	}
	return n
}

// TotalMeets sums the per-actor meeting counters. It is twice Meetings.
func (r *Result) TotalMeets() uint64 {
	var n uint64
	for _, c := range r.Counts {
		n += c.Meetings
	}
	return n
}

// New builds a Coordinator.
func New(opts ...Option) *Coordinator {
	cfg := defaultSettings()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Coordinator{cfg: cfg}
}

// Strategy returns the configured strategy.
func (c *Coordinator) Strategy() Strategy {
	return c.cfg.strategy
}

// Validate checks run inputs without starting anything.
func Validate(colors []color.Color, limit uint64) error {
	switch {
	case len(colors) == 0:
		return ErrNoActors
	case len(colors) > constants.MaxActors:
		return fmt.Errorf("%w: %d > %d", ErrCapacity, len(colors), constants.MaxActors)
	case limit == 0:
		return ErrBudget
	}
	for i, c := range colors {
		if !c.Valid() {
			return fmt.Errorf("%w: actor %d has %v", ErrColor, i+1, c)
		}
	}
	return nil
}

// Run seeds one actor per color and lets them meet until limit meetings
// have happened. ctx is only consulted before any goroutine starts.
func (c *Coordinator) Run(ctx context.Context, colors []color.Color, limit uint64) (res *Result, err error) {
	if err := Validate(colors, limit); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartSpan(ctx, "rendezvous.run", trace.WithAttributes(
		attribute.String("strategy", c.cfg.strategy.String()),
		attribute.Int("actors", len(colors)),
		attribute.Int64("limit", int64(limit)),
	))
	defer func() {
		if err != nil {
			telemetry.RecordError(span, err)
		} else {
			span.SetAttributes(attribute.Int64("meetings", int64(res.Meetings)))
			telemetry.SetSpanOK(span)
		}
		span.End()
	}()

	log := c.cfg.logger.With("strategy", c.cfg.strategy.String(), "actors", len(colors), "limit", limit)
	log.Debug("run starting")

	n := len(colors)
	actors := actor.NewTable(colors)
	stats := make([]WorkerStats, n)

	var tp *tap
	if c.cfg.tapCapacity > 0 {
		tp = startTap(n, n, c.cfg.tapCapacity, n%runtime.NumCPU(), c.cfg.pin)
	}

	start := time.Now()
	var meetings uint64
	switch c.cfg.strategy {
	case Locked:
		m := newMall(actors, limit)
		err = runLocked(c.cfg.launcher(), m, stats, tp, c.cfg.pin)
		meetings = m.meetings()
	default:
		b := newBoard(n, limit, c.cfg.checks)
		err = c.runLockFree(b, actors, stats, tp)
		meetings = b.spent()
	}
	elapsed := time.Since(start)
	pairs, dropped := tp.finish()

	res = &Result{
		Strategy:   c.cfg.strategy,
		Seeds:      append([]color.Color(nil), colors...),
		Colors:     actors.Colors(),
		Counts:     actors.Counts(),
		Meetings:   meetings,
		Limit:      limit,
		Elapsed:    elapsed,
		Workers:    stats,
		Pairs:      pairs,
		TapDropped: dropped,
	}

	c.cfg.metrics.RecordRun(ctx, telemetry.RunStats{
		Strategy:    c.cfg.strategy.String(),
		Actors:      n,
		Meetings:    res.Meetings,
		CASFailures: res.CASFailures(),
		Backoffs:    res.Backoffs(),
		TapDropped:  dropped,
		Elapsed:     elapsed,
		Failed:      err != nil,
	})

	if err != nil {
		log.Error("run failed", "error", err, "meetings", meetings)
		return res, err
	}
	log.Debug("run finished", "meetings", meetings, "elapsed", elapsed, "cas_failures", res.CASFailures())
	return res, nil
}

// runLockFree spawns one worker per actor, each on a locked OS thread and
// holding its own actor as the initial token.
func (c *Coordinator) runLockFree(b *board, actors *actor.Table, stats []WorkerStats, tp *tap) error {
	l := c.cfg.launcher()
	for i := range stats {
		w := &worker{
			index:   i,
			seed:    packed.ID(i + 1),
			board:   b,
			actors:  actors,
			tap:     tp.ring(i),
			backoff: control.NewBackoff(c.cfg.spinBudget, c.cfg.sleep),
		}
		l.Go(func() error {
			unlock, pinErr := control.Lock(w.index, c.cfg.pin)
			defer unlock()
			w.stats.Worker = w.index
			w.stats.Pinned = c.cfg.pin && pinErr == nil
			err := w.run()
			stats[w.index] = w.stats
			return err
		})
	}
	return l.Wait()
}
