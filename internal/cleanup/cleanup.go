// Package cleanup implements Hoard's operation log retention: for every
// device/hoard pair it keeps only the most recent log, plus the most
// recent backup if the most recent log happens to be a restore. Grounded
// on the original Rust checkers/history/operation/util.rs's
// cleanup_operations.
package cleanup

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"

	"github.com/shadow53/hoard/internal/logging"
	"github.com/shadow53/hoard/internal/oplog"
)

// Run walks every device directory under historyRoot and, within each
// hoard directory, deletes every log file except the latest and
// (if the latest is a restore) the latest backup. It returns the number
// of files deleted so far even when it aborts on an error, matching the
// original's "report progress on failure" behavior.
func Run(log *logging.Logger, historyRoot string) (int, error) {
	deviceDirs, err := os.ReadDir(historyRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("cleanup: listing %s: %w", historyRoot, err)
	}

	deleted := 0
	for _, deviceEntry := range deviceDirs {
		if !deviceEntry.IsDir() {
			continue
		}
		if _, err := uuid.Parse(deviceEntry.Name()); err != nil {
			continue
		}

		deviceDir := filepath.Join(historyRoot, deviceEntry.Name())
		hoardDirs, err := os.ReadDir(deviceDir)
		if err != nil {
			return deleted, fmt.Errorf("cleanup: listing %s: %w", deviceDir, err)
		}

		for _, hoardEntry := range hoardDirs {
			if !hoardEntry.IsDir() {
				continue
			}
			hoardDir := filepath.Join(deviceDir, hoardEntry.Name())
			n, err := cleanupHoardDir(log, hoardDir)
			deleted += n
			if err != nil {
				return deleted, err
			}
		}
	}
	return deleted, nil
}

func cleanupHoardDir(log *logging.Logger, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("cleanup: listing %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !oplog.IsLogFileName(entry.Name()) {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)
	if len(files) == 0 {
		return 0, nil
	}

	recentName := files[len(files)-1]
	toDelete := files[:len(files)-1]

	recent, err := oplog.ReadFrom(filepath.Join(dir, recentName))
	if err != nil {
		return 0, fmt.Errorf("cleanup: reading %s: %w", recentName, err)
	}

	if recent.Direction == oplog.Restore {
		if idx := lastBackupIndex(dir, toDelete); idx >= 0 {
			toDelete = append(toDelete[:idx], toDelete[idx+1:]...)
		}
	}

	deleted := 0
	for _, name := range toDelete {
		path := filepath.Join(dir, name)
		log.Debugf("deleting stale operation log %s", path)
		if err := os.Remove(path); err != nil {
			return deleted, fmt.Errorf("cleanup: removing %s: %w", path, err)
		}
		deleted++
	}
	return deleted, nil
}

// lastBackupIndex scans files (already sorted ascending, therefore
// chronological) from the end backward and returns the index of the most
// recent backup-direction log, or -1 if none is found.
func lastBackupIndex(dir string, files []string) int {
	for i := len(files) - 1; i >= 0; i-- {
		op, err := oplog.ReadFrom(filepath.Join(dir, files[i]))
		if err != nil {
			continue
		}
		if op.Direction == oplog.Backup {
			return i
		}
	}
	return -1
}
