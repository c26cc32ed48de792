// Package seeders fills a fresh database with demo data for the dashboard.
// Seeders register themselves from init() and run in registration order
// through `painel seed`, or a named subset through `painel seed --only`.
package seeders

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"gorm.io/gorm"
)

// SeederFunc fills one part of the demo data. It must be safe to run twice.
type SeederFunc func(ctx context.Context, db *gorm.DB) error

type seeder struct {
	name string
	fn   SeederFunc
}

var (
	mu       sync.Mutex
	registry []seeder
)

// Register adds a seeder. Names are unique; a later registration replaces
// the earlier one in place.
func Register(name string, fn SeederFunc) {
	mu.Lock()
	defer mu.Unlock()
	for i := range registry {
		if registry[i].name == name {
			registry[i].fn = fn
			return
		}
	}
	registry = append(registry, seeder{name: name, fn: fn})
}

// Names lists the registered seeders in run order.
func Names() []string {
	mu.Lock()
	defer mu.Unlock()
	names := make([]string, len(registry))
	for i, s := range registry {
		names[i] = s.name
	}
	return names
}

// Run executes the seeders named in only, or all of them when only is
// empty, in registration order. Progress goes to out; the first failure
// stops the run.
func Run(ctx context.Context, db *gorm.DB, out io.Writer, only ...string) error {
	mu.Lock()
	current := slices.Clone(registry)
	mu.Unlock()

	if out == nil {
		out = io.Discard
	}

	for _, name := range only {
		if !slices.ContainsFunc(current, func(s seeder) bool { return s.name == name }) {
			return fmt.Errorf("seeders: unknown seeder %q (have %s)", name, strings.Join(Names(), ", "))
		}
	}

	for _, s := range current {
		if len(only) > 0 && !slices.Contains(only, s.name) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprintf(out, "  • %s … ", s.name)
		if err := s.fn(ctx, db); err != nil {
			fmt.Fprintln(out, "FAILED")
			return fmt.Errorf("seeder %q: %w", s.name, err)
		}
		fmt.Fprintln(out, "ok")
	}
	return nil
}

// RunAll runs every seeder.
func RunAll(ctx context.Context, db *gorm.DB, out io.Writer) error {
	return Run(ctx, db, out)
}
