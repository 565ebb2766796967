package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/perennia/storefront/pkg/logger"
)

// FailedJobRecord is a job that exhausted its retries, persisted to
// perennia_failed_jobs. The table is created by a migration.
type FailedJobRecord struct {
	ID       uint      `gorm:"primaryKey;autoIncrement"`
	JobType  string    `gorm:"size:255;not null;index"`
	Payload  string    `gorm:"type:text;not null"`
	Error    string    `gorm:"type:text"`
	Attempts int       `gorm:"not null;default:0"`
	FailedAt time.Time `gorm:"index"`
}

func (FailedJobRecord) TableName() string { return "perennia_failed_jobs" }

var failedJobDB *gorm.DB

// UseDB persists failed jobs to db in addition to the in-memory list.
func UseDB(db *gorm.DB) {
	defaultManager.mu.Lock()
	failedJobDB = db
	defaultManager.mu.Unlock()
}

// ListFailed returns the most recent persisted failures.
func ListFailed(db *gorm.DB, limit int) ([]FailedJobRecord, error) {
	var rows []FailedJobRecord
	if err := db.Order("failed_at desc").Limit(limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("queue: list failed: %w", err)
	}
	return rows, nil
}

func (m *Manager) persistFailed(job Job, name string, lastErr error, attempts int) {
	now := time.Now().UTC()
	m.mu.Lock()
	m.failed = append(m.failed, FailedJob{Type: name, Job: job, Err: lastErr, FailedAt: now, Attempts: attempts})
	db := failedJobDB
	m.mu.Unlock()

	if db == nil {
		return
	}

	payload, err := json.Marshal(job)
	if err != nil {
		payload = []byte(fmt.Sprintf(`{"error": "could not marshal: %v"}`, err))
	}
	msg := ""
	if lastErr != nil {
		msg = lastErr.Error()
	}

	record := FailedJobRecord{
		JobType:  name,
		Payload:  string(payload),
		Error:    msg,
		Attempts: attempts,
		FailedAt: now,
	}
	if err := db.Create(&record).Error; err != nil {
		logger.Error("queue: persist failed job", "type", name, "error", err)
	}
}
