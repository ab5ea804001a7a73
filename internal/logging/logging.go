// Package logging provides the robot's slog-based logging stack:
// a manager that fans records out to file, Graylog, and OTel sinks,
// plus helpers for log file naming.
package logging

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
)

// LogFilePath builds a log file path using OS-appropriate path separators.
func LogFilePath(logsDir, robotID string, sessionStart time.Time) string {
	return filepath.Join(
		logsDir,
		fmt.Sprintf("%s.%s.log", robotID, sessionStart.Format("20060102_150405")),
	)
}

// NewGraylogWriter connects a GELF UDP writer to the given address.
// Each Write becomes one GELF message.
func NewGraylogWriter(address, robotID string) (*gelf.Writer, error) {
	w, err := gelf.NewWriter(address)
	if err != nil {
		return nil, fmt.Errorf("connecting graylog writer: %w", err)
	}
	w.Facility = robotID
	return w, nil
}
