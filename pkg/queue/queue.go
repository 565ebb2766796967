// Package queue runs background jobs (order mails, admin notifications) on an
// in-memory or Redis-backed driver.
//
//	type OrderConfirmationJob struct{ OrderID string }
//	func (OrderConfirmationJob) JobName() string { return "order.confirmation" }
//	func (j *OrderConfirmationJob) Handle(ctx context.Context) error { ... }
//
//	queue.Register("order.confirmation", func() queue.Job { return &OrderConfirmationJob{} })
//	queue.Dispatch(&OrderConfirmationJob{OrderID: id})
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/perennia/storefront/pkg/logger"
	"github.com/perennia/storefront/pkg/metrics"
)

// Job is one unit of background work. It must marshal to JSON.
type Job interface {
	Handle(ctx context.Context) error
}

// Named jobs are registered and dispatched under JobName; others fall back
// to their Go type name.
type Named interface {
	JobName() string
}

// FailedJob is a job that exhausted its retries.
type FailedJob struct {
	Type     string
	Job      Job
	Err      error
	FailedAt time.Time
	Attempts int
}

// Driver is the queue storage backend.
type Driver interface {
	Push(ctx context.Context, payload []byte) error
	Pop(ctx context.Context) ([]byte, error)
}

// DelayedDriver can hold a payload until a future time.
type DelayedDriver interface {
	PushDelayed(ctx context.Context, payload []byte, delay time.Duration) error
}

// ─── Manager ──────────────────────────────────────────────────────────────────

type Manager struct {
	mu       sync.RWMutex
	driver   Driver
	registry map[string]func() Job
	failed   []FailedJob
	maxRetry int
	backoff  time.Duration
}

var defaultManager = &Manager{
	registry: map[string]func() Job{},
	maxRetry: 3,
	backoff:  time.Second,
	driver:   NewMemoryDriver(),
}

// SetDriver swaps the queue driver.
func SetDriver(d Driver) {
	defaultManager.mu.Lock()
	defer defaultManager.mu.Unlock()
	defaultManager.driver = d
}

// SetMaxRetry sets how many attempts a job gets.
func SetMaxRetry(n int) {
	defaultManager.mu.Lock()
	defaultManager.maxRetry = n
	defaultManager.mu.Unlock()
}

// SetBackoff sets the base delay between attempts; attempt n waits n×d.
func SetBackoff(d time.Duration) {
	defaultManager.mu.Lock()
	defaultManager.backoff = d
	defaultManager.mu.Unlock()
}

// Register makes a job type available for decoding by name.
func Register(name string, factory func() Job) {
	defaultManager.mu.Lock()
	defer defaultManager.mu.Unlock()
	defaultManager.registry[name] = factory
}

func typeName(job Job) string {
	if n, ok := job.(Named); ok {
		return n.JobName()
	}
	return fmt.Sprintf("%T", job)
}

// ─── Dispatch ─────────────────────────────────────────────────────────────────

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Dispatch pushes job onto the queue.
func Dispatch(ctx context.Context, job Job) error {
	return defaultManager.push(ctx, job, 0)
}

// DispatchAfter pushes job to run after delay. Drivers without delayed
// support get a timer in this process.
func DispatchAfter(ctx context.Context, job Job, delay time.Duration) error {
	return defaultManager.push(ctx, job, delay)
}

func encode(job Job) ([]byte, string, error) {
	name := typeName(job)
	payload, err := json.Marshal(job)
	if err != nil {
		return nil, name, fmt.Errorf("queue: marshal job %s: %w", name, err)
	}
	env, err := json.Marshal(envelope{Type: name, Payload: payload})
	if err != nil {
		return nil, name, fmt.Errorf("queue: marshal envelope: %w", err)
	}
	return env, name, nil
}

func (m *Manager) push(ctx context.Context, job Job, delay time.Duration) error {
	env, _, err := encode(job)
	if err != nil {
		return err
	}

	m.mu.RLock()
	d := m.driver
	m.mu.RUnlock()

	if delay <= 0 {
		return d.Push(ctx, env)
	}
	if dd, ok := d.(DelayedDriver); ok {
		return dd.PushDelayed(ctx, env, delay)
	}
	time.AfterFunc(delay, func() {
		if err := d.Push(context.Background(), env); err != nil {
			logger.Error("queue: delayed dispatch failed", "error", err)
		}
	})
	return nil
}

// ─── Worker ───────────────────────────────────────────────────────────────────

// StartWorkers launches n workers that run until ctx is cancelled. The
// returned WaitGroup completes once every worker has returned.
func StartWorkers(ctx context.Context, n int) *sync.WaitGroup {
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defaultManager.work(ctx)
		}()
	}
	logger.Info("queue: workers started", "count", n)
	return &wg
}

func (m *Manager) work(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		m.mu.RLock()
		d := m.driver
		m.mu.RUnlock()

		raw, err := d.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("queue: pop failed", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(500 * time.Millisecond):
			}
			continue
		}
		if raw == nil {
			continue
		}

		m.process(ctx, raw)
	}
}

func (m *Manager) process(ctx context.Context, raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		logger.Error("queue: bad envelope", "error", err)
		return
	}

	m.mu.RLock()
	factory, ok := m.registry[env.Type]
	m.mu.RUnlock()

	if !ok {
		logger.Warn("queue: unregistered job type", "type", env.Type)
		return
	}

	job := factory()
	if err := json.Unmarshal(env.Payload, job); err != nil {
		logger.Error("queue: unmarshal payload", "type", env.Type, "error", err)
		return
	}

	m.runWithRetry(ctx, job, env.Type)
}

func (m *Manager) runWithRetry(ctx context.Context, job Job, name string) {
	m.mu.RLock()
	maxRetry, backoff := m.maxRetry, m.backoff
	m.mu.RUnlock()

	start := time.Now()
	var lastErr error
	for attempt := 1; attempt <= maxRetry; attempt++ {
		err := job.Handle(ctx)
		if err == nil {
			metrics.RecordQueueJob(name, "success", start)
			logger.Info("queue: job processed", "type", name, "attempt", attempt)
			return
		}
		lastErr = err
		logger.Warn("queue: job failed", "type", name, "attempt", attempt, "error", err)
		if attempt < maxRetry && !sleep(ctx, time.Duration(attempt)*backoff) {
			break
		}
	}

	metrics.RecordQueueJob(name, "failed", start)
	m.persistFailed(job, name, lastErr, maxRetry)
	logger.Error("queue: job exhausted retries", "type", name, "error", lastErr)
}

// sleep waits d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// FailedJobs returns the failures recorded by this process.
func FailedJobs() []FailedJob {
	defaultManager.mu.RLock()
	defer defaultManager.mu.RUnlock()
	out := make([]FailedJob, len(defaultManager.failed))
	copy(out, defaultManager.failed)
	return out
}
