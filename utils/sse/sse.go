package sse

import (
	"bufio"
	"encoding/json"
	"fmt"
)

// ContentFrame is the payload relayed to the client for each upstream delta.
// The terminal frame carries an empty content and done=true.
type ContentFrame struct {
	Content string `json:"content"`
	Done    bool   `json:"done"`
}

// ErrorFrame is emitted when the upstream stream fails after headers were
// already committed. It replaces an HTTP error status.
type ErrorFrame struct {
	Error string `json:"error"`
}

// send writes a single `data: <json>` frame and flushes immediately
func send(w *bufio.Writer, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("failed to write event data: %w", err)
	}

	return w.Flush()
}

// SendContent relays a content delta to the client
func SendContent(w *bufio.Writer, content string) error {
	return send(w, ContentFrame{Content: content})
}

// SendDone emits the terminal frame after the assistant reply was persisted
func SendDone(w *bufio.Writer) error {
	return send(w, ContentFrame{Done: true})
}

// SendError emits an in-stream error frame
func SendError(w *bufio.Writer, err error) error {
	return send(w, ErrorFrame{Error: err.Error()})
}

// SendKeepAlive sends a comment line to keep the connection alive through
// proxies during long upstream pauses
func SendKeepAlive(w *bufio.Writer) error {
	if _, err := fmt.Fprintf(w, ": ping\n\n"); err != nil {
		return fmt.Errorf("failed to write keepalive: %w", err)
	}
	return w.Flush()
}
