package util

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"drsnap/internal/logging"
)

// HumanBytes renders a byte count for log lines and list output.
func HumanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %s", float64(n)/float64(div), []string{"KB", "MB", "GB", "TB"}[exp])
}

func SetupLogging(logPath, level string) (*slog.Logger, *os.File, error) {
	if logPath != "" {
		if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	logger, logFile, err := logging.New(logPath, level)
	if err != nil {
		return nil, nil, err
	}

	return logger, logFile, nil
}
