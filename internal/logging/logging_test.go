package logging

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLogFilePath(t *testing.T) {
	start := time.Date(2024, 3, 15, 9, 30, 45, 0, time.UTC)

	got := LogFilePath("logs", "hdar", start)
	want := filepath.Join("logs", "hdar.20240315_093045.log")

	if got != want {
		t.Errorf("LogFilePath() = %q, want %q", got, want)
	}
}

func TestLogFilePath_EmptyDir(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	got := LogFilePath("", "hdar", start)
	want := "hdar.20240101_000000.log"

	if got != want {
		t.Errorf("LogFilePath() = %q, want %q", got, want)
	}
}
