package cron

import (
	"context"
	"fmt"
	"time"

	"schoolportal/model"
)

// jobTimeout bounds a single scheduled run
const jobTimeout = 10 * time.Minute

// cronLogRetention is how long cron job log rows are kept
const cronLogRetention = 90 * 24 * time.Hour

// RunRetentionPurge deletes chat history older than the configured
// retention window.
func (m *CronManager) RunRetentionPurge() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	result, err := m.purge.Run(ctx)
	if err != nil {
		m.logJobError("retention_purge", err)
		return
	}

	m.logJobComplete("retention_purge", fmt.Sprintf(
		"deleted %d messages and %d empty chats older than %s",
		result.DeletedMessages, result.DeletedChats, result.Cutoff.Format("2006-01-02")))
}

// CleanupCronLogs trims old cron job log rows so the table stays small
func (m *CronManager) CleanupCronLogs() {
	cutoff := time.Now().Add(-cronLogRetention)

	res := m.db.Where("started_at < ?", cutoff).Delete(&model.CronJobLog{})
	if res.Error != nil {
		m.logJobError("cleanup_cron_logs", res.Error)
		return
	}

	m.logJobComplete("cleanup_cron_logs", fmt.Sprintf("removed %d old log rows", res.RowsAffected))
}
