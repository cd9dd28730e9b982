package model

import (
	"time"
)

// MessageRole identifies the author of a message
type MessageRole string

const (
	MessageRoleUser      MessageRole = "USER"
	MessageRoleAssistant MessageRole = "ASSISTANT"
)

// Message is a single turn inside a chat. Rows are immutable once written;
// an assistant message is only created after its upstream stream completed.
type Message struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	ChatID    uint        `gorm:"not null;index" json:"chat_id"`
	UserID    uint        `gorm:"not null;index" json:"user_id"` // owner of the chat, denormalized for reporting
	Role      MessageRole `gorm:"type:varchar(20);not null" json:"role"`
	Content   string      `gorm:"type:text;not null" json:"content"`
	Model     string      `gorm:"type:varchar(100)" json:"model"`
	CreatedAt time.Time   `gorm:"index" json:"created_at"`

	// Token accounting reported by the upstream completion API.
	// Zero for user messages.
	PromptTokens     int `gorm:"default:0" json:"prompt_tokens"`
	CompletionTokens int `gorm:"default:0" json:"completion_tokens"`
	TotalTokens      int `gorm:"default:0" json:"total_tokens"`

	// Relationships
	Chat Chat `gorm:"foreignKey:ChatID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for Message
func (Message) TableName() string {
	return "messages"
}
