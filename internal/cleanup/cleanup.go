package cleanup

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	chromiumPrefix = ".org.chromium.Chromium."
	DefaultMaxAge  = 5 * time.Minute
)

// ChromiumTempFiles removes profile directories the headless browser leaves
// in dir once they are older than maxAge. It returns how many were removed.
func ChromiumTempFiles(dir string, maxAge time.Duration, logger *slog.Logger) int {
	if logger == nil {
		logger = slog.Default()
	}
	now := time.Now()

	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Warn("failed to read temp dir for cleanup", "dir", dir, "error", err)
		return 0
	}

	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), chromiumPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}

		age := now.Sub(info.ModTime())
		if age <= maxAge {
			continue
		}
		fullPath := filepath.Join(dir, entry.Name())
		if err := os.RemoveAll(fullPath); err != nil {
			logger.Warn("failed to clean up chromium temp dir", "path", fullPath, "error", err)
			continue
		}
		logger.Debug("cleaned up chromium temp dir", "path", fullPath, "age_minutes", int(age.Minutes()))
		removed++
	}
	return removed
}
