package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Client calls an OpenAI-compatible /v1/chat/completions endpoint.
// Works with the hosted OpenAI API as well as vLLM, LiteLLM, LocalAI and
// other self-hosted gateways exposed on the school LAN.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Config holds upstream API configuration
type Config struct {
	APIKey  string
	BaseURL string // includes the /v1 prefix, e.g. "https://api.openai.com/v1"
}

// NewClient creates a new completion API client. The client carries no
// request timeout; streaming calls are bounded by the caller's context and
// the upstream connection's own behavior.
func NewClient(cfg Config) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:  strings.TrimSpace(cfg.APIKey),
		httpClient: &http.Client{
			Transport: http.DefaultTransport,
		},
	}
}

// ChatMessage is a single role/content pair sent upstream
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Usage holds token accounting reported by the upstream API
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// StreamResult is the assembled outcome of a completed stream
type StreamResult struct {
	Content string
	Model   string
	Usage   Usage
}

type chatCompletionRequest struct {
	Model         string         `json:"model"`
	Messages      []ChatMessage  `json:"messages"`
	Stream        bool           `json:"stream"`
	Temperature   float64        `json:"temperature,omitempty"`
	StreamOptions *streamOptions `json:"stream_options,omitempty"`
}

type streamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

// streamChunk is one decoded `data:` frame of the upstream SSE stream
type streamChunk struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *Usage `json:"usage,omitempty"`
}

func (c *streamChunk) content() string {
	if len(c.Choices) == 0 {
		return ""
	}
	return c.Choices[0].Delta.Content
}

type apiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// StreamChatCompletion opens a streaming completion call and invokes the
// callback for every content delta. It returns the assembled content and
// token usage once the upstream stream finishes. A callback error aborts the
// stream and is returned unchanged.
func (c *Client) StreamChatCompletion(ctx context.Context, model string, messages []ChatMessage, callback func(delta string) error) (*StreamResult, error) {
	reqBody := chatCompletionRequest{
		Model:         model,
		Messages:      messages,
		Stream:        true,
		Temperature:   0.7,
		StreamOptions: &streamOptions{IncludeUsage: true},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := c.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		var errResp apiErrorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
			return nil, fmt.Errorf("completion api error: %s", errResp.Error.Message)
		}
		return nil, fmt.Errorf("completion failed with status %d: %s", resp.StatusCode, string(body))
	}

	result := &StreamResult{Model: model}
	var assembled strings.Builder

	scanner := bufio.NewScanner(resp.Body)
	// Some gateways emit very large frames when relaying long completions
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}

		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")

		if data == "[DONE]" {
			break
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			// Tolerate malformed keepalive frames from lenient gateways
			continue
		}

		if chunk.Model != "" {
			result.Model = chunk.Model
		}
		if chunk.Usage != nil {
			result.Usage = *chunk.Usage
		}

		if delta := chunk.content(); delta != "" {
			assembled.WriteString(delta)
			if err := callback(delta); err != nil {
				return nil, err
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("stream interrupted: %w", err)
	}

	result.Content = assembled.String()
	return result, nil
}
