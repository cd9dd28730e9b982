package sse

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestSendContent(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)

	if err := SendContent(w, "Hello, "); err != nil {
		t.Fatalf("send content: %v", err)
	}

	got := buf.String()
	want := "data: {\"content\":\"Hello, \",\"done\":false}\n\n"
	if got != want {
		t.Fatalf("frame mismatch:\n got: %q\nwant: %q", got, want)
	}
}

func TestSendDone(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)

	if err := SendDone(w); err != nil {
		t.Fatalf("send done: %v", err)
	}

	got := buf.String()
	want := "data: {\"content\":\"\",\"done\":true}\n\n"
	if got != want {
		t.Fatalf("frame mismatch:\n got: %q\nwant: %q", got, want)
	}
}

func TestSendError(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)

	if err := SendError(w, errors.New("AI service temporarily unavailable")); err != nil {
		t.Fatalf("send error: %v", err)
	}

	got := buf.String()
	if !strings.HasPrefix(got, "data: ") || !strings.HasSuffix(got, "\n\n") {
		t.Fatalf("expected a data frame, got %q", got)
	}
	if !strings.Contains(got, `"error":"AI service temporarily unavailable"`) {
		t.Fatalf("expected error payload, got %q", got)
	}
}

func TestSendKeepAlive(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)

	if err := SendKeepAlive(w); err != nil {
		t.Fatalf("send keepalive: %v", err)
	}
	if buf.String() != ": ping\n\n" {
		t.Fatalf("unexpected keepalive frame %q", buf.String())
	}
}
