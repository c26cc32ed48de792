// Package schedule runs recurring background tasks.
//
//	s := schedule.New()
//	s.Every(1).Minutes().Name("pedidos.pending-gauge").Run(refreshGauge)
//	s.Cron("0 * * * *").Name("sessions.prune").WithoutOverlapping().Run(prune)
//	s.Start(ctx)
//
// Interval tasks run on the first tick after Start and then every interval.
// Cron tasks run at most once per matching minute.
package schedule

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/multidelivery/painel/pkg/logger"
)

// Task is a scheduled unit of work. ctx is cancelled when the scheduler stops.
type Task func(ctx context.Context)

type entry struct {
	id        string
	interval  time.Duration
	cronExpr  string
	task      Task
	noOverlap bool

	mu      sync.Mutex
	lastRun time.Time
	running bool
}

// Scheduler holds registered entries and dispatches the due ones every tick.
type Scheduler struct {
	mu      sync.Mutex
	entries []*entry
	tick    time.Duration
	wg      sync.WaitGroup
}

func New() *Scheduler {
	return &Scheduler{tick: time.Second}
}

// Schedule is a fluent builder for a single entry before it is registered.
type Schedule struct {
	s *Scheduler
	e *entry
}

// ------------------- Builders -------------------

// Every starts a fluent builder with n units.
func (s *Scheduler) Every(n int) *FreqBuilder { return &FreqBuilder{s: s, n: n} }

// EveryMinute schedules the task to run every 60 seconds.
func (s *Scheduler) EveryMinute() *Schedule { return s.Every(1).Minutes() }

// Hourly schedules the task to run every hour.
func (s *Scheduler) Hourly() *Schedule { return s.Every(1).Hours() }

// Daily schedules the task to run every 24 hours.
func (s *Scheduler) Daily() *Schedule { return s.Every(24).Hours() }

// Cron schedules using a 5-field expression (min hour dom mon dow). Each
// field accepts *, N, */N, A-B and comma lists of those.
func (s *Scheduler) Cron(expr string) *Schedule {
	return &Schedule{s: s, e: &entry{cronExpr: expr}}
}

type FreqBuilder struct {
	s *Scheduler
	n int
}

func (f *FreqBuilder) every(unit time.Duration) *Schedule {
	return &Schedule{s: f.s, e: &entry{interval: time.Duration(f.n) * unit}}
}

func (f *FreqBuilder) Seconds() *Schedule { return f.every(time.Second) }
func (f *FreqBuilder) Minutes() *Schedule { return f.every(time.Minute) }
func (f *FreqBuilder) Hours() *Schedule   { return f.every(time.Hour) }
func (f *FreqBuilder) Days() *Schedule    { return f.every(24 * time.Hour) }

// WithoutOverlapping skips a run while the previous one is still executing.
func (sc *Schedule) WithoutOverlapping() *Schedule {
	sc.e.noOverlap = true
	return sc
}

// Name gives the entry an identifier for logs and List.
func (sc *Schedule) Name(id string) *Schedule {
	sc.e.id = id
	return sc
}

// Run registers the task. An invalid cron expression is reported here
// rather than silently never matching.
func (sc *Schedule) Run(fn Task) error {
	if sc.e.cronExpr != "" {
		if err := ValidateCron(sc.e.cronExpr); err != nil {
			return err
		}
	} else if sc.e.interval <= 0 {
		return fmt.Errorf("schedule: interval must be positive")
	}

	sc.e.task = fn
	sc.s.mu.Lock()
	defer sc.s.mu.Unlock()
	if sc.e.id == "" {
		sc.e.id = fmt.Sprintf("task-%d", len(sc.s.entries)+1)
	}
	sc.s.entries = append(sc.s.entries, sc.e)
	return nil
}

// ------------------- Loop -------------------

// Start runs the scheduler loop in the background until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
	logger.Info("schedule: scheduler started", "entries", len(s.List()))
}

// Wait blocks until the loop and every running task have returned.
func (s *Scheduler) Wait() { s.wg.Wait() }

func (s *Scheduler) run(ctx context.Context) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	s.RunDue(ctx, time.Now())
	for {
		select {
		case <-ctx.Done():
			logger.Info("schedule: scheduler stopped")
			return
		case now := <-ticker.C:
			s.RunDue(ctx, now)
		}
	}
}

// RunDue dispatches every entry due at now.
func (s *Scheduler) RunDue(ctx context.Context, now time.Time) {
	s.mu.Lock()
	current := make([]*entry, len(s.entries))
	copy(current, s.entries)
	s.mu.Unlock()

	for _, e := range current {
		if e.due(now) {
			s.dispatch(ctx, e, now)
		}
	}
}

func (e *entry) due(now time.Time) bool {
	e.mu.Lock()
	last := e.lastRun
	e.mu.Unlock()

	if e.cronExpr != "" {
		minute := now.Truncate(time.Minute)
		return matchCron(e.cronExpr, now) && !last.Truncate(time.Minute).Equal(minute)
	}
	if last.IsZero() {
		return true
	}
	return now.Sub(last) >= e.interval
}

func (s *Scheduler) dispatch(ctx context.Context, e *entry, now time.Time) {
	e.mu.Lock()
	if e.noOverlap && e.running {
		e.mu.Unlock()
		logger.Warn("schedule: skipping overlapping task", "id", e.id)
		return
	}
	e.running = true
	e.lastRun = now
	e.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			e.mu.Lock()
			e.running = false
			e.mu.Unlock()
			if r := recover(); r != nil {
				logger.Error("schedule: task panicked", "id", e.id, "panic", r)
			}
		}()

		start := time.Now()
		e.task(ctx)
		logger.Debug("schedule: task finished", "id", e.id, "duration", time.Since(start))
	}()
}

// List returns the registered entries for CLI display.
func (s *Scheduler) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		freq := e.cronExpr
		if freq == "" {
			freq = "every " + e.interval.String()
		}
		out = append(out, fmt.Sprintf("%s  [%s]", e.id, freq))
	}
	return out
}

// ------------------- Cron -------------------

var cronBounds = [5][2]int{{0, 59}, {0, 23}, {1, 31}, {1, 12}, {0, 6}}

// ValidateCron reports whether expr is a 5-field expression this package can match.
func ValidateCron(expr string) error {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return fmt.Errorf("schedule: cron %q: want 5 fields, got %d", expr, len(fields))
	}
	for i, f := range fields {
		for _, part := range strings.Split(f, ",") {
			if _, err := parsePart(part, cronBounds[i][0], cronBounds[i][1]); err != nil {
				return fmt.Errorf("schedule: cron %q: %w", expr, err)
			}
		}
	}
	return nil
}

func matchCron(expr string, t time.Time) bool {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return false
	}
	vals := [5]int{t.Minute(), t.Hour(), t.Day(), int(t.Month()), int(t.Weekday())}
	for i, f := range fields {
		if !matchField(f, vals[i], cronBounds[i][0], cronBounds[i][1]) {
			return false
		}
	}
	return true
}

func matchField(field string, val, lo, hi int) bool {
	for _, part := range strings.Split(field, ",") {
		m, err := parsePart(part, lo, hi)
		if err == nil && m(val) {
			return true
		}
	}
	return false
}

func parsePart(part string, lo, hi int) (func(int) bool, error) {
	switch {
	case part == "*":
		return func(int) bool { return true }, nil

	case strings.HasPrefix(part, "*/"):
		step, err := strconv.Atoi(part[2:])
		if err != nil || step <= 0 {
			return nil, fmt.Errorf("bad step %q", part)
		}
		return func(v int) bool { return (v-lo)%step == 0 }, nil

	case strings.Contains(part, "-"):
		a, b, _ := strings.Cut(part, "-")
		from, err1 := strconv.Atoi(a)
		to, err2 := strconv.Atoi(b)
		if err1 != nil || err2 != nil || from > to || from < lo || to > hi {
			return nil, fmt.Errorf("bad range %q", part)
		}
		return func(v int) bool { return v >= from && v <= to }, nil
	}

	n, err := strconv.Atoi(part)
	if err != nil || n < lo || n > hi {
		return nil, fmt.Errorf("bad value %q", part)
	}
	return func(v int) bool { return v == n }, nil
}
