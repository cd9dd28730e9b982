package services

import (
	"testing"
	"time"
)

func TestRetentionCutoff(t *testing.T) {
	now := time.Date(2025, 6, 15, 3, 0, 0, 0, time.UTC)

	got := RetentionCutoff(now, 12)
	want := time.Date(2024, 6, 15, 3, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("12 months: got %v, want %v", got, want)
	}

	got = RetentionCutoff(now, 1)
	want = time.Date(2025, 5, 15, 3, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("1 month: got %v, want %v", got, want)
	}
}

func TestRetentionCutoffMonthEndNormalization(t *testing.T) {
	// March 31 minus one month normalizes past February's end
	now := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	got := RetentionCutoff(now, 1)
	want := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("month-end: got %v, want %v", got, want)
	}
}
