package chat

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"schoolportal/model"
	"schoolportal/services"
	"schoolportal/utils/middleware"
	"schoolportal/utils/response"
)

// ChatHandler handles chat CRUD and the completion relay
type ChatHandler struct {
	chats *services.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chats *services.ChatService) *ChatHandler {
	return &ChatHandler{chats: chats}
}

// isAdmin reports whether the caller holds at least the ADMIN role
func isAdmin(c *fiber.Ctx) bool {
	role, ok := middleware.GetUserRole(c)
	return ok && role.AtLeast(model.RoleAdmin)
}

func parseChatID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("chatId"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// List returns the caller's chats, most recently active first. Admins may
// inspect another user's chats via ?userId=.
func (h *ChatHandler) List(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Authentication required")
	}

	if target := c.QueryInt("userId", 0); target > 0 && uint(target) != userID {
		if !isAdmin(c) {
			return response.Forbidden(c, "Insufficient permissions")
		}
		userID = uint(target)
	}

	chats, err := h.chats.ListChats(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list chats")
	}

	return response.Success(c, fiber.Map{"chats": chats})
}

// CreateChatRequest represents a chat creation request
type CreateChatRequest struct {
	Title string `json:"title"`
}

// Create creates a new empty chat
func (h *ChatHandler) Create(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Authentication required")
	}

	var req CreateChatRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return response.BadRequest(c, "Invalid request body")
	}

	chat, err := h.chats.CreateChat(c.Context(), userID, req.Title)
	if err != nil {
		return response.InternalServerError(c, "Failed to create chat")
	}

	return response.Created(c, fiber.Map{"chat": chat})
}

// Get returns a chat with its full message history
func (h *ChatHandler) Get(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Authentication required")
	}

	chatID, err := parseChatID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid chat ID")
	}

	chat, err := h.chats.GetChatWithMessages(c.Context(), chatID, userID, isAdmin(c))
	switch {
	case errors.Is(err, services.ErrChatNotFound):
		return response.NotFound(c, "Chat not found")
	case errors.Is(err, services.ErrNotChatOwner):
		return response.Forbidden(c, "Insufficient permissions")
	case err != nil:
		return response.InternalServerError(c, "Failed to load chat")
	}

	return response.Success(c, fiber.Map{"chat": chat})
}

// Delete removes a chat and its messages
func (h *ChatHandler) Delete(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Authentication required")
	}

	chatID, err := parseChatID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid chat ID")
	}

	err = h.chats.DeleteChat(c.Context(), chatID, userID, isAdmin(c))
	switch {
	case errors.Is(err, services.ErrChatNotFound):
		return response.NotFound(c, "Chat not found")
	case errors.Is(err, services.ErrNotChatOwner):
		return response.Forbidden(c, "Insufficient permissions")
	case err != nil:
		return response.InternalServerError(c, "Failed to delete chat")
	}

	return response.SuccessWithMessage(c, "Chat deleted successfully", nil)
}
