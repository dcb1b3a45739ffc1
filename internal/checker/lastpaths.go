// Package checker implements Hoard's pre-operation safety checks: the
// LastPaths checker, which compares the set of system paths a hoard
// resolved to in its previous run against this run's resolution and
// refuses to continue on an unexplained mismatch. Grounded on the
// original Rust checkers/history/last_paths.rs.
package checker

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/shadow53/hoard/internal/atomicfile"
	"github.com/shadow53/hoard/internal/logging"
	"github.com/shadow53/hoard/internal/names"
)

// readIfPresent reads a file's contents, returning (nil, nil) if it does
// not exist.
func readIfPresent(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

const lastPathsFileName = "last_paths.json"

// ErrPathsMismatch is returned by Enforce when a hoard's previously
// recorded pile paths differ from its currently resolved ones in a way
// that was not explicitly acknowledged (e.g. by forcing the operation).
var ErrPathsMismatch = fmt.Errorf("checker: resolved pile paths differ from the previous run")

// PilePaths is the resolved system-side path(s) for one hoard's piles, in
// either anonymous-pile or named-piles shape. The zero value is an
// anonymous pile with no resolved path.
type PilePaths struct {
	// IsNamed distinguishes a hoard with named piles from one with a
	// single anonymous pile. When false, only AnonymousPath/HasAnonymous
	// are meaningful; when true, only Named is.
	IsNamed       bool
	AnonymousPath string
	HasAnonymous  bool
	Named         map[string]string
}

// NewAnonymousPilePaths builds a PilePaths for a hoard with a single,
// possibly-unresolved anonymous pile.
func NewAnonymousPilePaths(path string, has bool) PilePaths {
	return PilePaths{AnonymousPath: path, HasAnonymous: has}
}

// NewNamedPilePaths builds a PilePaths for a hoard with one or more named
// piles, keyed by pile name to resolved system path. Piles that did not
// resolve to a path are omitted from the map.
func NewNamedPilePaths(paths map[string]string) PilePaths {
	return PilePaths{IsNamed: true, Named: paths}
}

// HoardPaths records the resolved pile paths for one hoard at a point in
// time.
type HoardPaths struct {
	Timestamp time.Time
	Piles     PilePaths
}

// LastPaths is the persisted record of every hoard's most recent
// HoardPaths, keyed by hoard name.
type LastPaths struct {
	hoards map[string]HoardPaths
}

// NewLastPaths returns an empty LastPaths record.
func NewLastPaths() *LastPaths {
	return &LastPaths{hoards: make(map[string]HoardPaths)}
}

// Get returns the recorded HoardPaths for a hoard, if any.
func (l *LastPaths) Get(hoard names.HoardName) (HoardPaths, bool) {
	hp, ok := l.hoards[hoard.String()]
	return hp, ok
}

// Set records (overwriting) the HoardPaths for a hoard.
func (l *LastPaths) Set(hoard names.HoardName, paths HoardPaths) {
	l.hoards[hoard.String()] = paths
}

type jsonPilePaths struct {
	IsNamed       bool              `json:"is_named"`
	AnonymousPath string            `json:"anonymous_path,omitempty"`
	HasAnonymous  bool              `json:"has_anonymous"`
	Named         map[string]string `json:"named,omitempty"`
}

type jsonHoardPaths struct {
	Timestamp time.Time     `json:"timestamp"`
	Piles     jsonPilePaths `json:"piles"`
}

// MarshalJSON encodes LastPaths as a flat hoard-name -> HoardPaths object.
func (l *LastPaths) MarshalJSON() ([]byte, error) {
	out := make(map[string]jsonHoardPaths, len(l.hoards))
	for name, hp := range l.hoards {
		out[name] = jsonHoardPaths{
			Timestamp: hp.Timestamp,
			Piles: jsonPilePaths{
				IsNamed:       hp.Piles.IsNamed,
				AnonymousPath: hp.Piles.AnonymousPath,
				HasAnonymous:  hp.Piles.HasAnonymous,
				Named:         hp.Piles.Named,
			},
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a LastPaths encoded by MarshalJSON.
func (l *LastPaths) UnmarshalJSON(data []byte) error {
	var in map[string]jsonHoardPaths
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	l.hoards = make(map[string]HoardPaths, len(in))
	for name, jhp := range in {
		l.hoards[name] = HoardPaths{
			Timestamp: jhp.Timestamp,
			Piles: PilePaths{
				IsNamed:       jhp.Piles.IsNamed,
				AnonymousPath: jhp.Piles.AnonymousPath,
				HasAnonymous:  jhp.Piles.HasAnonymous,
				Named:         jhp.Piles.Named,
			},
		}
	}
	return nil
}

// lastPathsFilePath returns the on-disk path for one device's LastPaths
// file.
func lastPathsFilePath(historyRoot, deviceID string) string {
	return filepath.Join(historyRoot, deviceID, lastPathsFileName)
}

// LoadLastPaths reads the LastPaths file for a device, returning an empty
// record if the file does not yet exist.
func LoadLastPaths(historyRoot, deviceID string) (*LastPaths, error) {
	data, err := readIfPresent(lastPathsFilePath(historyRoot, deviceID))
	if err != nil {
		return nil, fmt.Errorf("checker: reading last paths: %w", err)
	}
	if data == nil {
		return NewLastPaths(), nil
	}
	lp := NewLastPaths()
	if err := json.Unmarshal(data, lp); err != nil {
		return nil, fmt.Errorf("checker: parsing last paths: %w", err)
	}
	return lp, nil
}

// SaveLastPaths persists a LastPaths record atomically.
func SaveLastPaths(historyRoot, deviceID string, lp *LastPaths) error {
	data, err := json.Marshal(lp)
	if err != nil {
		return fmt.Errorf("checker: encoding last paths: %w", err)
	}
	return atomicfile.Write(lastPathsFilePath(historyRoot, deviceID), data, 0o600)
}

// Enforce compares the previously recorded paths for a hoard against its
// newly resolved paths, logging every discrepancy it finds before
// returning ErrPathsMismatch. When hasOld is false (first run) it always
// succeeds.
func Enforce(log *logging.Logger, old, newPaths HoardPaths, hasOld bool) error {
	if !hasOld {
		return nil
	}
	return enforcePiles(log, old.Piles, newPaths.Piles)
}

func enforcePiles(log *logging.Logger, old, newp PilePaths) error {
	if old.IsNamed != newp.IsNamed {
		if old.IsNamed {
			log.Warn(fmt.Errorf("hoard previously had named piles, now has an anonymous pile"))
		} else {
			log.Warn(fmt.Errorf("hoard previously had an anonymous pile, now has named piles"))
		}
		return ErrPathsMismatch
	}

	if !old.IsNamed {
		switch {
		case old.HasAnonymous && !newp.HasAnonymous:
			log.Warn(fmt.Errorf("anonymous pile no longer has a resolved path (was %q)", old.AnonymousPath))
			return ErrPathsMismatch
		case !old.HasAnonymous && newp.HasAnonymous:
			log.Warn(fmt.Errorf("anonymous pile now resolves to %q but previously did not", newp.AnonymousPath))
			return ErrPathsMismatch
		case old.HasAnonymous && newp.HasAnonymous && old.AnonymousPath != newp.AnonymousPath:
			log.Warn(fmt.Errorf("anonymous pile path changed from %q to %q", old.AnonymousPath, newp.AnonymousPath))
			return ErrPathsMismatch
		default:
			// Both unset, or both set and equal: no change.
			return nil
		}
	}

	return enforceNamedPiles(log, old.Named, newp.Named)
}

func enforceNamedPiles(log *logging.Logger, old, newp map[string]string) error {
	onlyInOld := keysNotIn(old, newp)
	onlyInNew := keysNotIn(newp, old)

	mismatch := len(onlyInOld) > 0 || len(onlyInNew) > 0
	if len(onlyInOld) > 0 {
		log.Warn(fmt.Errorf("named piles no longer have a path: %v", onlyInOld))
	}
	if len(onlyInNew) > 0 {
		log.Warn(fmt.Errorf("named piles now have a path but previously did not: %v", onlyInNew))
	}
	if mismatch {
		return ErrPathsMismatch
	}

	for key, oldPath := range old {
		if newPath := newp[key]; newPath != oldPath {
			mismatch = true
			log.Warn(fmt.Errorf("pile %q path changed from %q to %q", key, oldPath, newPath))
		}
	}
	if mismatch {
		return ErrPathsMismatch
	}
	return nil
}

func keysNotIn(a, b map[string]string) []string {
	var out []string
	for k := range a {
		if _, ok := b[k]; !ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
