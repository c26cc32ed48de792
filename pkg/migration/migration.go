// Package migration runs versioned schema migrations and tracks them in
// the painel_migrations table.
//
//	func init() {
//	    migration.Register("2026_03_01_000001_create_users_table", &CreateUsersTable{})
//	}
//
//	migration.New(db, os.Stdout).Run()       // run all pending as one batch
//	migration.New(db, os.Stdout).Rollback()  // revert the last batch
package migration

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/multidelivery/painel/pkg/logger"
)

// Migration is implemented by every schema change.
type Migration interface {
	Up(db *gorm.DB) error
	Down(db *gorm.DB) error
}

type record struct {
	ID    uint      `gorm:"primaryKey;autoIncrement"`
	Name  string    `gorm:"uniqueIndex;size:255;not null"`
	Batch int       `gorm:"not null"`
	RunAt time.Time `gorm:"autoCreateTime"`
}

func (record) TableName() string { return "painel_migrations" }

// Entry is a named migration.
type Entry struct {
	Name      string
	Migration Migration
}

var registry []Entry

// Register adds m to the global registry. Names sort chronologically, so
// prefix them with a timestamp.
func Register(name string, m Migration) {
	registry = append(registry, Entry{Name: name, Migration: m})
}

// Registered returns the global registry sorted by name.
func Registered() []Entry {
	out := make([]Entry, len(registry))
	copy(out, registry)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Runner applies and reverts migrations against one database.
type Runner struct {
	db      *gorm.DB
	out     io.Writer
	entries []Entry
}

// New returns a Runner over the global registry. Progress goes to out.
func New(db *gorm.DB, out io.Writer) *Runner {
	return NewWith(db, out, Registered())
}

func NewWith(db *gorm.DB, out io.Writer, entries []Entry) *Runner {
	if out == nil {
		out = io.Discard
	}
	return &Runner{db: db, out: out, entries: entries}
}

func (r *Runner) ensureTable() error {
	if err := r.db.AutoMigrate(&record{}); err != nil {
		return fmt.Errorf("migration: ensure table: %w", err)
	}
	return nil
}

func (r *Runner) ran() (map[string]record, error) {
	var rows []record
	if err := r.db.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("migration: read history: %w", err)
	}
	out := make(map[string]record, len(rows))
	for _, rec := range rows {
		out[rec.Name] = rec
	}
	return out, nil
}

// Pending returns the names not yet applied, in order.
func (r *Runner) Pending() ([]string, error) {
	if err := r.ensureTable(); err != nil {
		return nil, err
	}
	done, err := r.ran()
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range r.entries {
		if _, ok := done[e.Name]; !ok {
			names = append(names, e.Name)
		}
	}
	return names, nil
}

// Run applies every pending migration as one batch. Each migration and its
// history row commit together.
func (r *Runner) Run() error {
	pending, err := r.Pending()
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		fmt.Fprintln(r.out, "Nothing to migrate.")
		return nil
	}

	byName := r.byName()
	batch, err := r.lastBatch()
	if err != nil {
		return err
	}
	batch++

	for _, name := range pending {
		fmt.Fprintf(r.out, "Migrating: %s\n", name)
		err := r.db.Transaction(func(tx *gorm.DB) error {
			if err := byName[name].Up(tx); err != nil {
				return err
			}
			return tx.Create(&record{Name: name, Batch: batch}).Error
		})
		if err != nil {
			return fmt.Errorf("migration: %s up: %w", name, err)
		}
		fmt.Fprintf(r.out, "Migrated:  %s\n", name)
	}

	logger.Info("migration: done", "ran", len(pending), "batch", batch)
	return nil
}

// Rollback reverts the most recent batch in reverse order.
func (r *Runner) Rollback() error {
	if err := r.ensureTable(); err != nil {
		return err
	}
	batch, err := r.lastBatch()
	if err != nil {
		return err
	}
	if batch == 0 {
		fmt.Fprintln(r.out, "Nothing to roll back.")
		return nil
	}

	var rows []record
	if err := r.db.Where("batch = ?", batch).Order("id desc").Find(&rows).Error; err != nil {
		return fmt.Errorf("migration: read batch %d: %w", batch, err)
	}

	byName := r.byName()
	for _, rec := range rows {
		m, ok := byName[rec.Name]
		if !ok {
			return fmt.Errorf("migration: cannot roll back %s: not registered", rec.Name)
		}
		fmt.Fprintf(r.out, "Rolling back: %s\n", rec.Name)
		err := r.db.Transaction(func(tx *gorm.DB) error {
			if err := m.Down(tx); err != nil {
				return err
			}
			return tx.Delete(&record{}, rec.ID).Error
		})
		if err != nil {
			return fmt.Errorf("migration: %s down: %w", rec.Name, err)
		}
		fmt.Fprintf(r.out, "Rolled back:  %s\n", rec.Name)
	}

	logger.Info("migration: rolled back", "batch", batch, "count", len(rows))
	return nil
}

// Status writes one line per migration with its state and batch.
func (r *Runner) Status() error {
	if err := r.ensureTable(); err != nil {
		return err
	}
	done, err := r.ran()
	if err != nil {
		return err
	}

	fmt.Fprintf(r.out, "%-56s  %-8s  %s\n", "Migration", "Status", "Batch")
	fmt.Fprintln(r.out, strings.Repeat("-", 74))
	for _, e := range r.entries {
		if rec, ok := done[e.Name]; ok {
			fmt.Fprintf(r.out, "%-56s  %-8s  %d\n", e.Name, "Ran", rec.Batch)
		} else {
			fmt.Fprintf(r.out, "%-56s  %-8s  -\n", e.Name, "Pending")
		}
	}
	return nil
}

func (r *Runner) byName() map[string]Migration {
	m := make(map[string]Migration, len(r.entries))
	for _, e := range r.entries {
		m[e.Name] = e.Migration
	}
	return m
}

func (r *Runner) lastBatch() (int, error) {
	var batch int
	err := r.db.Model(&record{}).Select("COALESCE(MAX(batch), 0)").Scan(&batch).Error
	if err != nil {
		return 0, fmt.Errorf("migration: last batch: %w", err)
	}
	return batch, nil
}
