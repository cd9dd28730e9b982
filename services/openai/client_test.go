package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func sseHandler(frames []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher, ok := w.(http.Flusher)
		if !ok {
			panic("response writer must support flushing")
		}
		for _, frame := range frames {
			fmt.Fprintf(w, "data: %s\n\n", frame)
			flusher.Flush()
		}
	}
}

func TestStreamChatCompletionRelaysDeltasInOrder(t *testing.T) {
	frames := []string{
		`{"id":"c1","model":"gpt-4o-mini","choices":[{"delta":{"content":"Hel"}}]}`,
		`{"id":"c1","model":"gpt-4o-mini","choices":[{"delta":{"content":"lo"}}]}`,
		`{"id":"c1","model":"gpt-4o-mini","choices":[{"delta":{},"finish_reason":"stop"}]}`,
		`{"id":"c1","model":"gpt-4o-mini","choices":[],"usage":{"prompt_tokens":12,"completion_tokens":2,"total_tokens":14}}`,
		`[DONE]`,
	}
	srv := httptest.NewServer(sseHandler(frames))
	defer srv.Close()

	client := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL})

	var deltas []string
	result, err := client.StreamChatCompletion(context.Background(), "gpt-4o-mini",
		[]ChatMessage{{Role: "user", Content: "hi"}},
		func(delta string) error {
			deltas = append(deltas, delta)
			return nil
		})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}

	if got := strings.Join(deltas, ""); got != "Hello" {
		t.Fatalf("expected relayed deltas to assemble to Hello, got %q", got)
	}
	if result.Content != "Hello" {
		t.Fatalf("expected assembled content Hello, got %q", result.Content)
	}
	if result.Usage.PromptTokens != 12 || result.Usage.CompletionTokens != 2 || result.Usage.TotalTokens != 14 {
		t.Fatalf("unexpected usage: %+v", result.Usage)
	}
	if result.Model != "gpt-4o-mini" {
		t.Fatalf("expected model from stream, got %q", result.Model)
	}
}

func TestStreamChatCompletionSkipsCommentsAndKeepalives(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, ": ping\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"ok\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})
	result, err := client.StreamChatCompletion(context.Background(), "m",
		[]ChatMessage{{Role: "user", Content: "hi"}},
		func(string) error { return nil })
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	if result.Content != "ok" {
		t.Fatalf("expected content ok, got %q", result.Content)
	}
}

func TestStreamChatCompletionSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	client := NewClient(Config{APIKey: "bad", BaseURL: srv.URL})
	_, err := client.StreamChatCompletion(context.Background(), "m",
		[]ChatMessage{{Role: "user", Content: "hi"}},
		func(string) error { return nil })
	if err == nil {
		t.Fatalf("expected an error for 401 response")
	}
	if !strings.Contains(err.Error(), "Incorrect API key provided") {
		t.Fatalf("expected upstream error message, got: %v", err)
	}
}

func TestStreamChatCompletionCallbackErrorAborts(t *testing.T) {
	frames := []string{
		`{"choices":[{"delta":{"content":"a"}}]}`,
		`{"choices":[{"delta":{"content":"b"}}]}`,
		`[DONE]`,
	}
	srv := httptest.NewServer(sseHandler(frames))
	defer srv.Close()

	wantErr := errors.New("client went away")
	client := NewClient(Config{BaseURL: srv.URL})
	_, err := client.StreamChatCompletion(context.Background(), "m",
		[]ChatMessage{{Role: "user", Content: "hi"}},
		func(string) error { return wantErr })
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected callback error to propagate, got: %v", err)
	}
}

func TestStreamChatCompletionSendsAuthAndBody(t *testing.T) {
	var gotAuth, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	client := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL + "/"})
	if _, err := client.StreamChatCompletion(context.Background(), "m",
		[]ChatMessage{{Role: "user", Content: "hi"}},
		func(string) error { return nil }); err != nil {
		t.Fatalf("stream: %v", err)
	}

	if gotAuth != "Bearer sk-test" {
		t.Fatalf("expected bearer auth header, got %q", gotAuth)
	}
	if gotAccept != "text/event-stream" {
		t.Fatalf("expected SSE accept header, got %q", gotAccept)
	}
}
