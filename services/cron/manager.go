package cron

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gamifylearn/gamification-api/model"
	"github.com/gofiber/fiber/v2/log"
	"github.com/robfig/cron/v3"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TokenCleaner removes expired entries from the token blacklist
type TokenCleaner interface {
	CleanupExpiredTokens(ctx context.Context) (int64, error)
}

// NotificationCleaner removes old read notifications
type NotificationCleaner interface {
	CleanupOldNotifications(ctx context.Context, olderThan time.Duration) (int64, error)
}

// PaymentExpirer fails payments stuck in pending
type PaymentExpirer interface {
	ExpireStalePending(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Jobs groups the collaborators the scheduled jobs act on. Nil members skip their job.
type Jobs struct {
	Tokens        TokenCleaner
	Notifications NotificationCleaner
	Payments      PaymentExpirer
}

// CronManager manages all scheduled cron jobs
type CronManager struct {
	cron *cron.Cron
	db   *gorm.DB
	jobs Jobs
}

// NewCronManager creates a new cron manager
func NewCronManager(db *gorm.DB, jobs Jobs) *CronManager {
	// Create cron with seconds precision
	c := cron.New(cron.WithSeconds())

	return &CronManager{
		cron: c,
		db:   db,
		jobs: jobs,
	}
}

// Start starts all cron jobs
func (m *CronManager) Start() error {
	log.Info("Starting cron jobs...")

	if err := m.registerJobs(); err != nil {
		return err
	}

	m.cron.Start()

	log.Info("Cron jobs started successfully")
	return nil
}

// Stop stops all cron jobs and waits for running ones
func (m *CronManager) Stop() {
	log.Info("Stopping cron jobs...")
	ctx := m.cron.Stop()
	<-ctx.Done()
	log.Info("Cron jobs stopped")
}

// registerJobs registers all cron jobs with their schedules
func (m *CronManager) registerJobs() error {
	// 1. Every 30 minutes: fail payments left pending
	if _, err := m.cron.AddFunc("0 */30 * * * *", m.ExpireStalePayments); err != nil {
		return err
	}

	// 2. Every hour: drop expired blacklisted tokens
	if _, err := m.cron.AddFunc("0 0 * * * *", m.CleanupExpiredTokens); err != nil {
		return err
	}

	// 3. Daily at 2 AM: drop old read notifications
	if _, err := m.cron.AddFunc("0 0 2 * * *", m.CleanupOldNotifications); err != nil {
		return err
	}

	log.Info("All cron jobs registered successfully")
	return nil
}

// logJobStart records the start of a cron job and returns its log row
func (m *CronManager) logJobStart(jobName string) *model.CronJobLog {
	log.Infof("[CRON] Starting job: %s at %s", jobName, time.Now().Format(time.RFC3339))

	cronLog := &model.CronJobLog{
		JobName:   jobName,
		Status:    model.CronStatusStarted,
		StartedAt: time.Now(),
		Metadata:  datatypes.JSON("{}"),
	}
	if err := m.db.Create(cronLog).Error; err != nil {
		log.Warnf("[CRON] Failed to record start of %s: %v", jobName, err)
	}
	return cronLog
}

// logJobComplete marks the job log row completed
func (m *CronManager) logJobComplete(entry *model.CronJobLog, message string, metadata map[string]any) {
	log.Infof("[CRON] Completed job: %s - %s", entry.JobName, message)

	now := time.Now()
	updates := map[string]interface{}{
		"status":       model.CronStatusCompleted,
		"completed_at": now,
		"duration":     int(now.Sub(entry.StartedAt).Milliseconds()),
		"message":      message,
	}
	if len(metadata) > 0 {
		if raw, err := json.Marshal(metadata); err == nil {
			updates["metadata"] = datatypes.JSON(raw)
		}
	}
	m.finish(entry, updates)
}

// logJobError marks the job log row failed
func (m *CronManager) logJobError(entry *model.CronJobLog, err error) {
	log.Errorf("[CRON] Error in job: %s - %v", entry.JobName, err)

	now := time.Now()
	m.finish(entry, map[string]interface{}{
		"status":       model.CronStatusFailed,
		"completed_at": now,
		"duration":     int(now.Sub(entry.StartedAt).Milliseconds()),
		"error_msg":    err.Error(),
	})
}

func (m *CronManager) finish(entry *model.CronJobLog, updates map[string]interface{}) {
	if entry.ID == 0 {
		return
	}
	if err := m.db.Model(&model.CronJobLog{}).Where("id = ?", entry.ID).Updates(updates).Error; err != nil {
		log.Warnf("[CRON] Failed to update log for %s: %v", entry.JobName, err)
	}
}
