package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// RunLogPattern matches per-run log files inside the log directory.
const RunLogPattern = "build-*.log"

// RunLogPath returns the per-run log file of a build.
func RunLogPath(dir, runID string) string {
	return filepath.Join(dir, "build-"+runID+".log")
}

// NewRunLogger tees base into a JSON log file dedicated to one build run and
// tags every record with the run id. The returned closer flushes the file.
// Without a directory the base logger is returned unchanged.
func NewRunLogger(base *slog.Logger, dir, runID string) (*slog.Logger, func() error, error) {
	if base == nil {
		base = NewNop()
	}
	if strings.TrimSpace(dir) == "" {
		return base.With(String(FieldRunID, runID)), func() error { return nil }, nil
	}
	path := RunLogPath(dir, runID)
	file, err := openLogFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open run log: %w", err)
	}
	fileHandler := newJSONHandler(file, slog.LevelDebug, false)
	logger := TeeLogger(base, fileHandler).With(String(FieldRunID, runID))
	return logger, file.Close, nil
}

// PruneRunLogs removes per-run logs older than retentionDays and returns how
// many were removed. The current run's file is always kept. A retentionDays
// value of 0 disables pruning.
func PruneRunLogs(logger *slog.Logger, dir string, retentionDays int, currentRunID string) int {
	dir = strings.TrimSpace(dir)
	if retentionDays <= 0 || dir == "" {
		return 0
	}
	if logger == nil {
		logger = NewNop()
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	keep := ""
	if currentRunID != "" {
		keep = filepath.Base(RunLogPath(dir, currentRunID))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	removed := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == keep {
			continue
		}
		if matched, _ := filepath.Match(RunLogPattern, name); !matched {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(dir, name)
		if err := os.Remove(path); err != nil {
			WarnWithContext(logger, "run log prune failed; file remains", "run_log_prune_failed",
				String("path", path),
				Error(err),
				Hint("check file permissions and log_dir ownership"),
				Impact("old run log stays on disk"),
			)
			continue
		}
		removed++
	}
	if removed > 0 {
		logger.Info("run logs pruned",
			Int("removed", removed),
			Int("retention_days", retentionDays),
			Event("run_logs_pruned"),
		)
	}
	return removed
}
