package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"schoolportal/model"
)

// PurgeService deletes chat history older than the retention window.
// Deletion is permanent; there is no soft-delete or recovery path.
type PurgeService struct {
	db       *gorm.DB
	settings *SettingsService
}

// NewPurgeService creates a new purge service
func NewPurgeService(db *gorm.DB, settings *SettingsService) *PurgeService {
	return &PurgeService{db: db, settings: settings}
}

// PurgeResult summarizes one purge run
type PurgeResult struct {
	DeletedMessages int64     `json:"deleted_messages"`
	DeletedChats    int64     `json:"deleted_chats"`
	Cutoff          time.Time `json:"cutoff"`
}

// RetentionCutoff computes the purge cutoff: messages created before this
// instant are removed. Calendar months, so the cutoff lands on the same day
// of month where possible.
func RetentionCutoff(now time.Time, retentionMonths int) time.Time {
	return now.AddDate(0, -retentionMonths, 0)
}

// Run purges messages older than the configured retention window, then
// removes chats left with no messages at all. Chats that still hold newer
// messages survive with their recent history intact.
func (s *PurgeService) Run(ctx context.Context) (*PurgeResult, error) {
	settings, err := s.settings.GetOrCreate(ctx)
	if err != nil {
		return nil, err
	}

	return s.RunWithCutoff(ctx, RetentionCutoff(time.Now(), settings.RetentionMonths))
}

// RunWithCutoff purges with an explicit cutoff instant
func (s *PurgeService) RunWithCutoff(ctx context.Context, cutoff time.Time) (*PurgeResult, error) {
	result := &PurgeResult{Cutoff: cutoff}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("created_at < ?", cutoff).Delete(&model.Message{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete old messages: %w", res.Error)
		}
		result.DeletedMessages = res.RowsAffected

		res = tx.Where("NOT EXISTS (SELECT 1 FROM messages WHERE messages.chat_id = chats.id)").
			Delete(&model.Chat{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete empty chats: %w", res.Error)
		}
		result.DeletedChats = res.RowsAffected

		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
