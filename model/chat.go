package model

import (
	"time"
)

// DefaultChatTitle is the placeholder title given to freshly created chats.
// The first user message replaces it.
const DefaultChatTitle = "New Chat"

// Chat represents a conversation owned by a single user
type Chat struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Title     string    `gorm:"type:varchar(255);not null" json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	User     User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Messages []Message `gorm:"foreignKey:ChatID;constraint:OnDelete:CASCADE" json:"messages,omitempty"`
}

// TableName specifies the table name for Chat
func (Chat) TableName() string {
	return "chats"
}
