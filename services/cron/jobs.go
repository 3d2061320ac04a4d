package cron

import (
	"context"
	"fmt"
	"time"
)

const (
	// NotificationRetention is how long read notifications are kept
	NotificationRetention = 30 * 24 * time.Hour
	// PendingPaymentTTL is how long a payment may stay pending before it is failed
	PendingPaymentTTL = 24 * time.Hour
)

// CleanupExpiredTokens removes blacklist entries whose tokens have expired anyway
func (m *CronManager) CleanupExpiredTokens() {
	if m.jobs.Tokens == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	entry := m.logJobStart("cleanup_expired_tokens")
	removed, err := m.jobs.Tokens.CleanupExpiredTokens(ctx)
	if err != nil {
		m.logJobError(entry, fmt.Errorf("failed to cleanup tokens: %w", err))
		return
	}
	m.logJobComplete(entry, fmt.Sprintf("Removed %d expired tokens", removed), map[string]any{"removed": removed})
}

// CleanupOldNotifications deletes read notifications past retention
func (m *CronManager) CleanupOldNotifications() {
	if m.jobs.Notifications == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	entry := m.logJobStart("cleanup_old_notifications")
	removed, err := m.jobs.Notifications.CleanupOldNotifications(ctx, NotificationRetention)
	if err != nil {
		m.logJobError(entry, fmt.Errorf("failed to cleanup notifications: %w", err))
		return
	}
	m.logJobComplete(entry, fmt.Sprintf("Removed %d old notifications", removed), map[string]any{"removed": removed})
}

// ExpireStalePayments fails payments nobody verified in time
func (m *CronManager) ExpireStalePayments() {
	if m.jobs.Payments == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	entry := m.logJobStart("expire_stale_payments")
	expired, err := m.jobs.Payments.ExpireStalePending(ctx, PendingPaymentTTL)
	if err != nil {
		m.logJobError(entry, fmt.Errorf("failed to expire payments: %w", err))
		return
	}
	m.logJobComplete(entry, fmt.Sprintf("Expired %d pending payments", expired), map[string]any{"expired": expired})
}
