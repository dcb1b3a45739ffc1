package upgrade

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"

	"github.com/shadow53/hoard/internal/atomicfile"
	"github.com/shadow53/hoard/internal/oplog"
)

// ParseV1 decodes a v1-format log file's bytes into a V1Operation. The on-
// disk v1 schema (separate from v2's) is supplied by the caller's parser;
// Run reads each v1 file itself and decodes it with the ParseV1 it is
// given, so that callers can plug in
// whatever v1 JSON shape their existing history uses without this package
// needing to special-case the legacy format.
type ParseV1 func(data []byte) (V1Operation, error)

// Run rewrites every v1 log under one device's hoard directory to v2,
// replaying operations in chronological (file name) order and deleting
// the v1 file once its v2 replacement is committed. Already-v2 logs are
// left untouched.
func Run(historyRoot, deviceID string, hoard string, parseV1 ParseV1) error {
	dir := filepath.Join(historyRoot, deviceID, hoard)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("upgrade: listing %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	state := NewState()
	for _, name := range names {
		path := filepath.Join(dir, name)
		if oplog.IsLogFileName(name) {
			if _, err := oplog.ReadFrom(path); err == nil {
				continue // already v2
			}
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("upgrade: reading %s: %w", path, err)
		}
		v1op, err := parseV1(data)
		if err != nil {
			continue // not a recognizable v1 log; leave it alone
		}

		v2op := FromV1(state, v1op)
		write := func(p string, d []byte) error { return atomicfile.Write(p, d, 0o600) }
		newPath := filepath.Join(dir, v2op.FileName())
		if err := oplog.WriteTo(newPath, v2op, write); err != nil {
			return fmt.Errorf("upgrade: writing v2 log for %s: %w", path, err)
		}
		if newPath == path {
			continue // the v2 log replaced the v1 file in place
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("upgrade: removing upgraded v1 log %s: %w", path, err)
		}
	}
	return nil
}

// uuidDeviceDirs returns the sorted list of UUID-named device directories
// under historyRoot.
func uuidDeviceDirs(historyRoot string) ([]string, error) {
	entries, err := os.ReadDir(historyRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("upgrade: listing %s: %w", historyRoot, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			if _, err := uuid.Parse(e.Name()); err == nil {
				out = append(out, e.Name())
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

// RunAll upgrades every hoard directory for every device under
// historyRoot.
func RunAll(historyRoot string, parseV1 ParseV1) error {
	devices, err := uuidDeviceDirs(historyRoot)
	if err != nil {
		return err
	}
	for _, deviceID := range devices {
		hoardEntries, err := os.ReadDir(filepath.Join(historyRoot, deviceID))
		if err != nil {
			return fmt.Errorf("upgrade: listing hoards for %s: %w", deviceID, err)
		}
		for _, hoardEntry := range hoardEntries {
			if !hoardEntry.IsDir() {
				continue
			}
			if err := Run(historyRoot, deviceID, hoardEntry.Name(), parseV1); err != nil {
				return err
			}
		}
	}
	return nil
}
