package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"schoolportal/model"
)

// ErrInvalidGroupBy is returned for an unsupported usage grouping
var ErrInvalidGroupBy = errors.New("groupBy must be one of user, class, date")

// ReportService produces usage reports and system statistics
type ReportService struct {
	db *gorm.DB
}

// NewReportService creates a new report service
func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{db: db}
}

// UsageFilter narrows a usage report
type UsageFilter struct {
	Class     string
	UserID    uint
	StartDate *time.Time
	EndDate   *time.Time
}

// UserUsage is aggregated message usage for one user
type UserUsage struct {
	UserID           uint   `json:"user_id"`
	Username         string `json:"username"`
	DisplayName      string `json:"display_name"`
	Class            string `json:"class"`
	Role             string `json:"role"`
	MessageCount     int64  `json:"message_count"`
	PromptTokens     int64  `json:"prompt_tokens"`
	CompletionTokens int64  `json:"completion_tokens"`
	TotalTokens      int64  `json:"total_tokens"`
}

// ClassUsage is aggregated message usage for one class
type ClassUsage struct {
	Class            string `json:"class"`
	UserCount        int64  `json:"user_count"`
	MessageCount     int64  `json:"message_count"`
	PromptTokens     int64  `json:"prompt_tokens"`
	CompletionTokens int64  `json:"completion_tokens"`
	TotalTokens      int64  `json:"total_tokens"`
}

// DateUsage is aggregated message usage for one calendar day
type DateUsage struct {
	Date             string `json:"date"`
	MessageCount     int64  `json:"message_count"`
	PromptTokens     int64  `json:"prompt_tokens"`
	CompletionTokens int64  `json:"completion_tokens"`
	TotalTokens      int64  `json:"total_tokens"`
}

// filteredMessages applies the common usage filters to a messages query
func (s *ReportService) filteredMessages(ctx context.Context, filter UsageFilter) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&model.Message{}).
		Joins("JOIN users ON users.id = messages.user_id")

	if filter.Class != "" {
		query = query.Where("users.class = ?", filter.Class)
	}
	if filter.UserID != 0 {
		query = query.Where("messages.user_id = ?", filter.UserID)
	}
	if filter.StartDate != nil {
		query = query.Where("messages.created_at >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("messages.created_at <= ?", *filter.EndDate)
	}

	return query
}

// UsageByUser aggregates usage per user, highest token spend first
func (s *ReportService) UsageByUser(ctx context.Context, filter UsageFilter) ([]UserUsage, error) {
	var usage []UserUsage
	err := s.filteredMessages(ctx, filter).
		Select(`messages.user_id,
			users.username,
			users.display_name,
			users.class,
			users.role,
			COUNT(messages.id) AS message_count,
			COALESCE(SUM(messages.prompt_tokens), 0) AS prompt_tokens,
			COALESCE(SUM(messages.completion_tokens), 0) AS completion_tokens,
			COALESCE(SUM(messages.total_tokens), 0) AS total_tokens`).
		Group("messages.user_id, users.username, users.display_name, users.class, users.role").
		Order("total_tokens DESC").
		Scan(&usage).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate usage by user: %w", err)
	}
	return usage, nil
}

// UsageByClass aggregates usage per class. Users without a class fall into
// the "Unknown" bucket.
func (s *ReportService) UsageByClass(ctx context.Context, filter UsageFilter) ([]ClassUsage, error) {
	var usage []ClassUsage
	err := s.filteredMessages(ctx, filter).
		Select(`COALESCE(NULLIF(users.class, ''), 'Unknown') AS class,
			COUNT(DISTINCT messages.user_id) AS user_count,
			COUNT(messages.id) AS message_count,
			COALESCE(SUM(messages.prompt_tokens), 0) AS prompt_tokens,
			COALESCE(SUM(messages.completion_tokens), 0) AS completion_tokens,
			COALESCE(SUM(messages.total_tokens), 0) AS total_tokens`).
		Group("COALESCE(NULLIF(users.class, ''), 'Unknown')").
		Order("total_tokens DESC").
		Scan(&usage).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate usage by class: %w", err)
	}
	return usage, nil
}

// UsageByDate aggregates usage per calendar day, oldest first
func (s *ReportService) UsageByDate(ctx context.Context, filter UsageFilter) ([]DateUsage, error) {
	var usage []DateUsage
	err := s.filteredMessages(ctx, filter).
		Select(`TO_CHAR(messages.created_at, 'YYYY-MM-DD') AS date,
			COUNT(messages.id) AS message_count,
			COALESCE(SUM(messages.prompt_tokens), 0) AS prompt_tokens,
			COALESCE(SUM(messages.completion_tokens), 0) AS completion_tokens,
			COALESCE(SUM(messages.total_tokens), 0) AS total_tokens`).
		Group("TO_CHAR(messages.created_at, 'YYYY-MM-DD')").
		Order("date ASC").
		Scan(&usage).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate usage by date: %w", err)
	}
	return usage, nil
}

// SystemStats is the portal-wide statistics snapshot
type SystemStats struct {
	TotalUsers          int64 `json:"total_users"`
	TotalChats          int64 `json:"total_chats"`
	TotalMessages       int64 `json:"total_messages"`
	TotalTokens         int64 `json:"total_tokens"`
	ActiveUsersToday    int64 `json:"active_users_today"`
	ActiveUsersThisWeek int64 `json:"active_users_this_week"`
	ActiveUsersMonth    int64 `json:"active_users_this_month"`
}

// GetStats returns current system-wide statistics. A user counts as active
// when any of their chats has been touched since the cutoff.
func (s *ReportService) GetStats(ctx context.Context) (*SystemStats, error) {
	stats := &SystemStats{}
	db := s.db.WithContext(ctx)

	if err := db.Model(&model.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if err := db.Model(&model.Chat{}).Count(&stats.TotalChats).Error; err != nil {
		return nil, fmt.Errorf("failed to count chats: %w", err)
	}
	if err := db.Model(&model.Message{}).Count(&stats.TotalMessages).Error; err != nil {
		return nil, fmt.Errorf("failed to count messages: %w", err)
	}
	if err := db.Model(&model.Message{}).
		Select("COALESCE(SUM(total_tokens), 0)").
		Scan(&stats.TotalTokens).Error; err != nil {
		return nil, fmt.Errorf("failed to sum tokens: %w", err)
	}

	now := time.Now()
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var err error
	if stats.ActiveUsersToday, err = s.activeUsersSince(ctx, startOfToday); err != nil {
		return nil, err
	}
	if stats.ActiveUsersThisWeek, err = s.activeUsersSince(ctx, now.AddDate(0, 0, -7)); err != nil {
		return nil, err
	}
	if stats.ActiveUsersMonth, err = s.activeUsersSince(ctx, now.AddDate(0, 0, -30)); err != nil {
		return nil, err
	}

	return stats, nil
}

func (s *ReportService) activeUsersSince(ctx context.Context, cutoff time.Time) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.User{}).
		Where("EXISTS (SELECT 1 FROM chats WHERE chats.user_id = users.id AND chats.updated_at >= ?)", cutoff).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count active users: %w", err)
	}
	return count, nil
}
