package logging

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLogFilePath(t *testing.T) {
	start := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	got := LogFilePath("logs", "MICROBOT-001", start)
	want := filepath.Join("logs", "MICROBOT-001.20260314_092653.log")
	assert.Equal(t, want, got)
}

func TestLogFilePath_NestedDir(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	got := LogFilePath(filepath.Join("var", "log", "microbot"), "MICROBOT-007", start)
	assert.Equal(t, filepath.Join("var", "log", "microbot", "MICROBOT-007.20260102_030405.log"), got)
}
