package oplog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"

	"github.com/shadow53/hoard/internal/names"
)

// HoardDir returns the on-disk directory holding one device's log files
// for one hoard: <historyRoot>/<deviceID>/<hoardName>.
func HoardDir(historyRoot, deviceID string, hoard names.HoardName) string {
	return filepath.Join(historyRoot, deviceID, hoard.String())
}

// listLogFiles returns the sorted (lexicographically, which is also
// chronological given the zero-padded timestamp format) list of log file
// paths in a hoard's device directory. Missing directories yield an
// empty, non-error result.
func listLogFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("oplog: listing %s: %w", dir, err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !IsLogFileName(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// FileFilter optionally restricts a lookup to operations that touched one
// specific (pile, relative path).
type FileFilter struct {
	Pile         names.PileName
	RelativePath string
	Set          bool
}

func (f *FileFilter) matches(op *Operation) bool {
	if f == nil || !f.Set {
		return true
	}
	return op.ContainsFile(f.Pile, f.RelativePath, false)
}

// LatestLocal reads this device's directory for a hoard and returns the
// most recent operation (by file name, hence by timestamp), optionally
// restricted to one touched file. Returns ErrNotFound if none match.
func LatestLocal(historyRoot, deviceID string, hoard names.HoardName, filter *FileFilter) (*Operation, error) {
	dir := HoardDir(historyRoot, deviceID, hoard)
	names, err := listLogFiles(dir)
	if err != nil {
		return nil, err
	}
	for i := len(names) - 1; i >= 0; i-- {
		op, err := ReadFrom(filepath.Join(dir, names[i]))
		if err != nil {
			return nil, err
		}
		if filter.matches(op) {
			return op, nil
		}
	}
	return nil, ErrNotFound
}

// LatestRemoteBackup folds the same lookup over every other device's
// directory under historyRoot (backup-direction entries only), returning
// whichever candidate has the latest timestamp.
func LatestRemoteBackup(historyRoot, localDeviceID string, hoard names.HoardName, filter *FileFilter) (*Operation, error) {
	deviceDirs, err := os.ReadDir(historyRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("oplog: listing %s: %w", historyRoot, err)
	}

	var best *Operation
	for _, entry := range deviceDirs {
		if !entry.IsDir() {
			continue
		}
		deviceID := entry.Name()
		if deviceID == localDeviceID {
			continue
		}
		if _, err := uuid.Parse(deviceID); err != nil {
			continue
		}

		dir := HoardDir(historyRoot, deviceID, hoard)
		names, err := listLogFiles(dir)
		if err != nil {
			return nil, err
		}
		for i := len(names) - 1; i >= 0; i-- {
			op, err := ReadFrom(filepath.Join(dir, names[i]))
			if err != nil {
				return nil, err
			}
			if op.Direction != Backup {
				continue
			}
			if !filter.matches(op) {
				continue
			}
			if best == nil || op.Timestamp.After(best.Timestamp) {
				best = op
			}
			break
		}
	}
	if best == nil {
		return nil, ErrNotFound
	}
	return best, nil
}
