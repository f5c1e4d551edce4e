package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ParseLogLevel maps debug, info, warn and error to slog levels. Unknown values mean info.
func ParseLogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// NewLogger builds the JSON logger. With LogDir set, output is also written to a
// timestamped file in that directory. The returned closer must be called on shutdown.
func NewLogger(cfg *Config, stdout io.Writer) (*slog.Logger, io.Closer, error) {
	var w io.Writer = stdout
	var closer io.Closer = nopCloser{}

	if cfg.LogDir != "" {
		f, err := SetupLogFile(cfg.LogDir, cfg.LogMaxFiles)
		if err != nil {
			return nil, nil, err
		}
		w = io.MultiWriter(stdout, f)
		closer = f
	}

	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLogLevel(cfg.LogLevel),
	})).With("env", cfg.Environment)

	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// SetupLogFile creates a new timestamped log file and cleans up old files.
// Returns the file handle (caller must close) or error.
func SetupLogFile(dir string, maxFiles int) (*os.File, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	filename := filepath.Join(dir, fmt.Sprintf("devmatch-%s.log",
		time.Now().Format("2006-01-02T15-04-05")))

	f, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}

	if maxFiles > 0 {
		if err := cleanupOldLogs(dir, maxFiles); err != nil {
			// Logging still works without cleanup
			fmt.Fprintf(os.Stderr, "warning: failed to cleanup old logs: %v\n", err)
		}
	}

	return f, nil
}

// cleanupOldLogs removes oldest log files when count exceeds maxFiles.
func cleanupOldLogs(dir string, maxFiles int) error {
	files, err := filepath.Glob(filepath.Join(dir, "devmatch-*.log"))
	if err != nil {
		return err
	}

	if len(files) <= maxFiles {
		return nil
	}

	// Timestamped names sort chronologically
	sort.Strings(files)

	for _, f := range files[:len(files)-maxFiles] {
		if err := os.Remove(f); err != nil {
			return fmt.Errorf("remove %s: %w", f, err)
		}
	}

	return nil
}
