package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"schoolportal/model"
	"schoolportal/services/openai"
)

var (
	ErrChatNotFound = errors.New("chat not found")
	ErrNotChatOwner = errors.New("chat belongs to another user")
	ErrEmptyMessage = errors.New("message content is empty")
)

// MaxMessageLength bounds a single user message. Matches the varchar-free
// text column but keeps a single turn from blowing up the upstream request.
const MaxMessageLength = 8000

// titleMaxRunes is how much of the first message becomes the chat title
const titleMaxRunes = 50

// ChatService manages chats and relays completion turns upstream
type ChatService struct {
	db      *gorm.DB
	ai      *openai.Client
	aiModel string
}

// NewChatService creates a new chat service
func NewChatService(db *gorm.DB, ai *openai.Client, aiModel string) *ChatService {
	return &ChatService{
		db:      db,
		ai:      ai,
		aiModel: aiModel,
	}
}

// ChatSummary is a chat row enriched with list-view fields
type ChatSummary struct {
	ID           uint      `json:"id"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int64     `json:"message_count"`
	LastMessage  string    `json:"last_message,omitempty"`
}

// ListChats returns the user's chats, most recently active first
func (s *ChatService) ListChats(ctx context.Context, userID uint) ([]ChatSummary, error) {
	var chats []model.Chat
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&chats).Error; err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}

	summaries := make([]ChatSummary, 0, len(chats))
	for _, chat := range chats {
		summary := ChatSummary{
			ID:        chat.ID,
			Title:     chat.Title,
			CreatedAt: chat.CreatedAt,
			UpdatedAt: chat.UpdatedAt,
		}

		if err := s.db.WithContext(ctx).Model(&model.Message{}).
			Where("chat_id = ?", chat.ID).
			Count(&summary.MessageCount).Error; err != nil {
			return nil, fmt.Errorf("failed to count messages: %w", err)
		}

		var last model.Message
		err := s.db.WithContext(ctx).
			Where("chat_id = ?", chat.ID).
			Order("created_at DESC, id DESC").
			First(&last).Error
		switch {
		case err == nil:
			summary.LastMessage = truncateRunes(last.Content, 100)
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, fmt.Errorf("failed to load latest message: %w", err)
		}

		summaries = append(summaries, summary)
	}

	return summaries, nil
}

// CreateChat creates an empty chat for the user. An empty title falls back
// to the default placeholder; the first message will replace it.
func (s *ChatService) CreateChat(ctx context.Context, userID uint, title string) (*model.Chat, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = model.DefaultChatTitle
	}

	chat := model.Chat{
		UserID: userID,
		Title:  truncateRunes(title, titleMaxRunes),
	}
	if err := s.db.WithContext(ctx).Create(&chat).Error; err != nil {
		return nil, fmt.Errorf("failed to create chat: %w", err)
	}

	return &chat, nil
}

// GetChatWithMessages loads a chat and its full ordered message history.
// Admins may read any chat; regular users only their own.
func (s *ChatService) GetChatWithMessages(ctx context.Context, chatID, requesterID uint, isAdmin bool) (*model.Chat, error) {
	var chat model.Chat
	err := s.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("messages.created_at ASC, messages.id ASC")
		}).
		First(&chat, chatID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrChatNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load chat: %w", err)
	}

	if chat.UserID != requesterID && !isAdmin {
		return nil, ErrNotChatOwner
	}

	return &chat, nil
}

// DeleteChat removes a chat and all its messages. Admins may delete any
// chat; regular users only their own.
func (s *ChatService) DeleteChat(ctx context.Context, chatID, requesterID uint, isAdmin bool) error {
	var chat model.Chat
	err := s.db.WithContext(ctx).First(&chat, chatID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrChatNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load chat: %w", err)
	}

	if chat.UserID != requesterID && !isAdmin {
		return ErrNotChatOwner
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("chat_id = ?", chat.ID).Delete(&model.Message{}).Error; err != nil {
			return fmt.Errorf("failed to delete messages: %w", err)
		}
		if err := tx.Delete(&chat).Error; err != nil {
			return fmt.Errorf("failed to delete chat: %w", err)
		}
		return nil
	})
}

// TurnState carries a validated, persisted user turn between BeginTurn and
// CompleteTurn. BeginTurn runs before response headers are committed so its
// failures can still map to proper HTTP statuses; CompleteTurn runs inside
// the streaming body writer.
type TurnState struct {
	Chat        *model.Chat
	UserMessage *model.Message
	History     []openai.ChatMessage
	Model       string
}

// BeginTurn validates the chat, persists the user's message and prepares the
// upstream conversation history.
func (s *ChatService) BeginTurn(ctx context.Context, chatID, userID uint, content, modelOverride string) (*TurnState, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}
	if len(content) > MaxMessageLength {
		return nil, fmt.Errorf("message exceeds %d characters", MaxMessageLength)
	}

	var chat model.Chat
	err := s.db.WithContext(ctx).First(&chat, chatID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrChatNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load chat: %w", err)
	}
	if chat.UserID != userID {
		return nil, ErrNotChatOwner
	}

	aiModel := s.aiModel
	if modelOverride != "" {
		aiModel = modelOverride
	}

	userMsg := model.Message{
		ChatID:  chat.ID,
		UserID:  chat.UserID,
		Role:    model.MessageRoleUser,
		Content: content,
	}
	if err := s.db.WithContext(ctx).Create(&userMsg).Error; err != nil {
		return nil, fmt.Errorf("failed to persist message: %w", err)
	}

	// The first message names the chat
	if chat.Title == model.DefaultChatTitle {
		chat.Title = deriveTitle(content)
		s.db.WithContext(ctx).Model(&chat).Update("title", chat.Title)
	}

	history, err := s.loadHistory(ctx, chat.ID)
	if err != nil {
		return nil, err
	}

	return &TurnState{
		Chat:        &chat,
		UserMessage: &userMsg,
		History:     history,
		Model:       aiModel,
	}, nil
}

// CompleteTurn streams the completion upstream, relaying each delta through
// onDelta, and persists the assistant message once the stream finishes. On
// upstream failure no assistant row is written; the already-persisted user
// message survives so the user can retry.
func (s *ChatService) CompleteTurn(ctx context.Context, turn *TurnState, onDelta func(delta string) error) (*model.Message, error) {
	result, err := s.ai.StreamChatCompletion(ctx, turn.Model, turn.History, onDelta)
	if err != nil {
		return nil, err
	}

	assistantMsg := model.Message{
		ChatID:           turn.Chat.ID,
		UserID:           turn.Chat.UserID,
		Role:             model.MessageRoleAssistant,
		Content:          result.Content,
		Model:            result.Model,
		PromptTokens:     result.Usage.PromptTokens,
		CompletionTokens: result.Usage.CompletionTokens,
		TotalTokens:      result.Usage.TotalTokens,
	}
	if err := s.db.WithContext(ctx).Create(&assistantMsg).Error; err != nil {
		return nil, fmt.Errorf("failed to persist assistant message: %w", err)
	}

	// Bump the chat's activity timestamp for list ordering
	s.db.WithContext(ctx).Model(turn.Chat).Update("updated_at", time.Now())

	return &assistantMsg, nil
}

// loadHistory returns every message of the chat in chronological order,
// mapped to the upstream wire roles. The whole conversation is replayed so
// the model keeps full context.
func (s *ChatService) loadHistory(ctx context.Context, chatID uint) ([]openai.ChatMessage, error) {
	var messages []model.Message
	if err := s.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	return toUpstreamMessages(messages), nil
}

func toUpstreamMessages(messages []model.Message) []openai.ChatMessage {
	history := make([]openai.ChatMessage, 0, len(messages))
	for _, msg := range messages {
		role := "user"
		if msg.Role == model.MessageRoleAssistant {
			role = "assistant"
		}
		history = append(history, openai.ChatMessage{
			Role:    role,
			Content: msg.Content,
		})
	}
	return history
}

// deriveTitle names a chat after its first message. Long messages are cut
// to the title limit with a trailing ellipsis so the cut is visible.
func deriveTitle(content string) string {
	if len([]rune(content)) > titleMaxRunes {
		return truncateRunes(content, titleMaxRunes) + "..."
	}
	return content
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
