package chat

import (
	"bufio"
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	"schoolportal/services"
	"schoolportal/utils/middleware"
	"schoolportal/utils/response"
	"schoolportal/utils/sse"
)

// SendMessageRequest represents a completion relay request
type SendMessageRequest struct {
	Content string `json:"content"`
	Model   string `json:"model"`
}

// clientErrorMessage is what clients see when the upstream API fails
// mid-stream. The real error stays in the server log.
const clientErrorMessage = "AI service temporarily unavailable"

// keepAliveInterval is how often a comment frame is emitted while the
// upstream API is silent, so proxies don't drop the idle connection
const keepAliveInterval = 15 * time.Second

// SendMessage persists the user's message, relays the upstream completion
// stream to the client as SSE frames and persists the assistant reply once
// the stream finishes. Validation failures return regular HTTP errors;
// failures after headers are committed become in-stream error frames.
func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Authentication required")
	}

	chatID, err := parseChatID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid chat ID")
	}

	var req SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	turn, err := h.chats.BeginTurn(c.Context(), chatID, userID, req.Content, req.Model)
	switch {
	case errors.Is(err, services.ErrChatNotFound):
		return response.NotFound(c, "Chat not found")
	case errors.Is(err, services.ErrNotChatOwner):
		return response.Forbidden(c, "Insufficient permissions")
	case errors.Is(err, services.ErrEmptyMessage):
		return response.BadRequest(c, "Message content is required")
	case err != nil:
		return response.BadRequest(c, err.Error())
	}

	// Set SSE headers
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no") // Disable nginx buffering

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		// The Fiber context is not valid inside the stream writer
		ctx := context.Background()

		// The keepalive ticker and the delta callback share the writer
		var mu sync.Mutex
		done := make(chan struct{})
		defer close(done)

		go func() {
			ticker := time.NewTicker(keepAliveInterval)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					mu.Lock()
					sse.SendKeepAlive(w)
					mu.Unlock()
				}
			}
		}()

		_, err := h.chats.CompleteTurn(ctx, turn, func(delta string) error {
			mu.Lock()
			defer mu.Unlock()
			return sse.SendContent(w, delta)
		})
		if err != nil {
			log.Printf("completion relay failed for chat %d: %v", turn.Chat.ID, err)
			mu.Lock()
			sse.SendError(w, errors.New(clientErrorMessage))
			mu.Unlock()
			return
		}

		mu.Lock()
		sse.SendDone(w)
		mu.Unlock()
	})

	return nil
}
