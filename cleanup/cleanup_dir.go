package cleanup

import (
	"context"
	"os"
	"path/filepath"
	"time"

	log "github.com/spoken-corpus/anom-oral/logger"
)

// StalePartAge is how old a temporary recording must be before a new run
// removes it. Younger files may belong to a run still in progress.
const StalePartAge = time.Hour

// CleanupDirectory removes the files in directory whose names match pattern
// and that were last modified more than maxAge ago. It returns the number
// of files removed.
func CleanupDirectory(ctx context.Context, directory string, pattern string, maxAge time.Duration) (int, *log.Status) {
	now := time.Now()
	count := 0
	entries, err := os.ReadDir(directory)
	if err != nil {
		return 0, log.Error(ctx, 500, err, "Error reading directory", directory)
	}
	for _, entry := range entries {
		matched, err := filepath.Match(pattern, entry.Name())
		if err != nil {
			return count, log.Error(ctx, 400, err, "Invalid cleanup pattern", pattern)
		}
		if !matched || entry.IsDir() {
			continue
		}
		path := filepath.Join(directory, entry.Name())
		info, err := entry.Info()
		if err != nil {
			log.Warn(ctx, "Unable to stat", path, err)
			continue
		}
		if now.Sub(info.ModTime()) > maxAge {
			err = os.Remove(path)
			if err != nil {
				log.Warn(ctx, "Unable to remove", path, err)
				continue
			}
			count++
		}
	}
	if count > 0 {
		log.Info(ctx, "Removed", count, "stale files from", directory)
	}
	return count, nil
}
