// Package schedule runs recurring background tasks in-process.
//
//	schedule.Every(10).Minutes().Name("payments:reconcile").WithoutOverlapping().Run(reconcile)
//	schedule.Cron("0 3 * * *").Name("payments:expire").Run(expire)
//
//	schedule.Start(ctx)
package schedule

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/perennia/storefront/pkg/logger"
)

// Task is a scheduled unit of work. The context ends with the scheduler.
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

// Schedule builds one entry before Run registers it.
type Schedule struct {
	e *entry
}

var (
	regMu   sync.Mutex
	entries []*entry
)

func Every(n int) *freqBuilder { return &freqBuilder{n: n} }

// Cron schedules on a 5-field expression (minute hour dom month dow). Each
// field is *, N, */N or N-M.
func Cron(expr string) *Schedule {
	return &Schedule{e: &entry{cronExpr: expr}}
}

type freqBuilder struct{ n int }

func (f *freqBuilder) Minutes() *Schedule {
	return &Schedule{e: &entry{interval: time.Duration(f.n) * time.Minute}}
}

// WithoutOverlapping skips a tick while the previous run is still going.
func (s *Schedule) WithoutOverlapping() *Schedule {
	s.e.noOverlap = true
	return s
}

// Name sets the id used in logs and List.
func (s *Schedule) Name(id string) *Schedule {
	s.e.id = id
	return s
}

// Run registers fn. Nothing executes until Start or RunAll.
func (s *Schedule) Run(fn Task) {
	s.e.task = fn
	regMu.Lock()
	defer regMu.Unlock()
	if s.e.id == "" {
		s.e.id = fmt.Sprintf("task-%d", len(entries)+1)
	}
	entries = append(entries, s.e)
}

// Reset drops every registered entry.
func Reset() {
	regMu.Lock()
	entries = nil
	regMu.Unlock()
}

func snapshot() []*entry {
	regMu.Lock()
	defer regMu.Unlock()
	return append([]*entry(nil), entries...)
}

// Start ticks every second in the background and dispatches due tasks until
// ctx ends. Interval tasks run on the first tick.
func Start(ctx context.Context) {
	go run(ctx)
	logger.Info("schedule: scheduler started", "tasks", len(snapshot()))
}

func run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("schedule: scheduler stopped")
			return
		case now := <-ticker.C:
			for _, e := range snapshot() {
				if e.due(now) {
					go e.execute(ctx)
				}
			}
		}
	}
}

// RunAll runs every registered task once, in order, and waits for each.
func RunAll(ctx context.Context) {
	for _, e := range snapshot() {
		e.execute(ctx)
	}
}

func (e *entry) due(now time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	var ok bool
	if e.cronExpr != "" {
		// one run per matching minute
		ok = matchCron(e.cronExpr, now) && now.Sub(e.lastRun) >= time.Minute
	} else {
		ok = e.lastRun.IsZero() || now.Sub(e.lastRun) >= e.interval
	}
	if ok {
		e.lastRun = now
	}
	return ok
}

func (e *entry) execute(ctx context.Context) {
	e.mu.Lock()
	if e.noOverlap && e.running {
		e.mu.Unlock()
		logger.Warn("schedule: skipping overlapping run", "id", e.id)
		return
	}
	e.running = true
	if e.lastRun.IsZero() {
		e.lastRun = time.Now()
	}
	e.mu.Unlock()

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
}

func matchCron(expr string, t time.Time) bool {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return false
	}
	vals := []int{t.Minute(), t.Hour(), t.Day(), int(t.Month()), int(t.Weekday())}
	for i, f := range fields {
		if !matchField(f, vals[i]) {
			return false
		}
	}
	return true
}

func matchField(field string, val int) bool {
	switch {
	case field == "*":
		return true
	case strings.HasPrefix(field, "*/"):
		step, err := strconv.Atoi(field[2:])
		return err == nil && step > 0 && val%step == 0
	case strings.Contains(field, "-"):
		lo, hi, _ := strings.Cut(field, "-")
		l, err1 := strconv.Atoi(lo)
		h, err2 := strconv.Atoi(hi)
		return err1 == nil && err2 == nil && val >= l && val <= h
	}
	n, err := strconv.Atoi(field)
	return err == nil && n == val
}

// List describes the registered entries for the CLI.
func List() []string {
	out := []string{}
	for _, e := range snapshot() {
		freq := e.cronExpr
		if freq == "" {
			freq = "every " + e.interval.String()
		}
		out = append(out, fmt.Sprintf("%s  [%s]", e.id, freq))
	}
	return out
}
