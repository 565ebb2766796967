// Package migration runs versioned schema migrations and tracks them in the
// perennia_migrations table.
//
//	func init() {
//	    migration.Register("20260301000001_create_users_table", &CreateUsersTable{})
//	}
//
//	type CreateUsersTable struct{}
//	func (CreateUsersTable) Up(db *gorm.DB) error   { return db.AutoMigrate(&models.User{}) }
//	func (CreateUsersTable) Down(db *gorm.DB) error { return db.Migrator().DropTable("users") }
package migration

import (
	"fmt"
	"io"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/perennia/storefront/pkg/logger"
)

// Migration is implemented by every schema change.
type Migration interface {
	Up(db *gorm.DB) error
	Down(db *gorm.DB) error
}

type migrationRecord struct {
	ID    uint      `gorm:"primaryKey;autoIncrement"`
	Name  string    `gorm:"uniqueIndex;size:255;not null"`
	Batch int       `gorm:"not null"`
	RunAt time.Time `gorm:"autoCreateTime"`
}

func (migrationRecord) TableName() string { return "perennia_migrations" }

// ─── Registry ─────────────────────────────────────────────────────────────────

type registered struct {
	name string
	m    Migration
}

var registry []registered

// Register adds a migration. Names are timestamp-prefixed and run in
// lexicographic order regardless of registration order.
func Register(name string, m Migration) {
	for _, r := range registry {
		if r.name == name {
			panic(fmt.Sprintf("migration: %s registered twice", name))
		}
	}
	registry = append(registry, registered{name: name, m: m})
}

func sorted() []registered {
	out := append([]registered(nil), registry...)
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// ─── Runner ───────────────────────────────────────────────────────────────────

// Status is one row of Runner.Status.
type Status struct {
	Name  string
	Ran   bool
	Batch int
}

type Runner struct {
	db  *gorm.DB
	out io.Writer
}

// New creates a Runner. Progress lines go to out; pass io.Discard to silence.
func New(db *gorm.DB, out io.Writer) *Runner {
	if out == nil {
		out = io.Discard
	}
	return &Runner{db: db, out: out}
}

func (r *Runner) ensureTable() error {
	if err := r.db.AutoMigrate(&migrationRecord{}); err != nil {
		return fmt.Errorf("migration: ensure table: %w", err)
	}
	return nil
}

func (r *Runner) ran() (map[string]migrationRecord, error) {
	var rows []migrationRecord
	if err := r.db.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("migration: read history: %w", err)
	}
	m := make(map[string]migrationRecord, len(rows))
	for _, rec := range rows {
		m[rec.Name] = rec
	}
	return m, nil
}

// Run applies every pending migration as one batch and returns their names.
func (r *Runner) Run() ([]string, error) {
	if err := r.ensureTable(); err != nil {
		return nil, err
	}
	done, err := r.ran()
	if err != nil {
		return nil, err
	}

	var pending []registered
	for _, reg := range sorted() {
		if _, ok := done[reg.name]; !ok {
			pending = append(pending, reg)
		}
	}
	if len(pending) == 0 {
		fmt.Fprintln(r.out, "Nothing to migrate.")
		return nil, nil
	}

	batch, err := r.lastBatch()
	if err != nil {
		return nil, err
	}
	batch++

	names := make([]string, 0, len(pending))
	for _, reg := range pending {
		fmt.Fprintf(r.out, "  ▶ Migrating: %s\n", reg.name)
		if err := reg.m.Up(r.db); err != nil {
			return names, fmt.Errorf("migration: %s up: %w", reg.name, err)
		}
		if err := r.db.Create(&migrationRecord{Name: reg.name, Batch: batch}).Error; err != nil {
			return names, fmt.Errorf("migration: record %s: %w", reg.name, err)
		}
		names = append(names, reg.name)
	}

	logger.Info("migration: done", "ran", len(names), "batch", batch)
	return names, nil
}

// Rollback reverses the most recent batch, newest first.
func (r *Runner) Rollback() ([]string, error) {
	if err := r.ensureTable(); err != nil {
		return nil, err
	}
	batch, err := r.lastBatch()
	if err != nil {
		return nil, err
	}
	if batch == 0 {
		fmt.Fprintln(r.out, "Nothing to roll back.")
		return nil, nil
	}

	var records []migrationRecord
	if err := r.db.Where("batch = ?", batch).Order("id desc").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("migration: read batch %d: %w", batch, err)
	}

	byName := make(map[string]Migration, len(registry))
	for _, reg := range registry {
		byName[reg.name] = reg.m
	}

	var names []string
	for _, rec := range records {
		m, ok := byName[rec.Name]
		if !ok {
			return names, fmt.Errorf("migration: cannot roll back %s: not registered", rec.Name)
		}
		fmt.Fprintf(r.out, "  ◀ Rolling back: %s\n", rec.Name)
		if err := m.Down(r.db); err != nil {
			return names, fmt.Errorf("migration: %s down: %w", rec.Name, err)
		}
		if err := r.db.Delete(&rec).Error; err != nil {
			return names, fmt.Errorf("migration: forget %s: %w", rec.Name, err)
		}
		names = append(names, rec.Name)
	}
	return names, nil
}

// Status lists every registered migration and whether it has run.
func (r *Runner) Status() ([]Status, error) {
	if err := r.ensureTable(); err != nil {
		return nil, err
	}
	done, err := r.ran()
	if err != nil {
		return nil, err
	}

	regs := sorted()
	out := make([]Status, 0, len(regs))
	for _, reg := range regs {
		rec, ok := done[reg.name]
		out = append(out, Status{Name: reg.name, Ran: ok, Batch: rec.Batch})
	}
	return out, nil
}

func (r *Runner) lastBatch() (int, error) {
	var row struct{ Max int }
	if err := r.db.Model(&migrationRecord{}).Select("COALESCE(MAX(batch), 0) AS max").Scan(&row).Error; err != nil {
		return 0, fmt.Errorf("migration: read batch: %w", err)
	}
	return row.Max, nil
}
