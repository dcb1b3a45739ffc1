// Package upgrade converts v1 operation logs (plain MD5 file->checksum
// maps with no create/modify/delete distinction) to the v2 model by
// replaying every v1 log in chronological order and diffing each
// snapshot against a running per-file checksum state. Grounded on the
// original Rust checkers/history/operation/v2.rs's
// OperationV2::from_v1 and util.rs's upgrade_operations.
package upgrade

import (
	"time"

	"github.com/shadow53/hoard/internal/checksum"
	"github.com/shadow53/hoard/internal/names"
	"github.com/shadow53/hoard/internal/oplog"
)

// V1File is one file recorded in a v1 log: an MD5 checksum keyed by pile
// and relative path.
type V1File struct {
	Pile         names.PileName
	RelativePath string
	Checksum     checksum.Checksum
}

// V1Operation is a parsed v1-format operation log. Per the resolved Open
// Question on v1 direction, IsBackup is taken literally: v1 never
// recorded a restore, so every v1 log upgrades to Direction Backup unless
// IsBackup is explicitly false.
type V1Operation struct {
	Timestamp time.Time
	IsBackup  bool
	Hoard     names.HoardName
	Files     []V1File
}

func (op V1Operation) direction() oplog.Direction {
	if op.IsBackup {
		return oplog.Backup
	}
	return oplog.Restore
}

type fileKey struct {
	pile names.PileName
	rel  string
}

// State is the running conversion state threaded across a chronologically
// ordered sequence of v1 operations: the last-known checksum for every
// file ever seen, and the set of files present as of the last-processed
// operation (used to detect deletions between snapshots).
type State struct {
	checksums map[fileKey]checksum.Checksum
	present   map[fileKey]struct{}
}

// NewState returns an empty conversion state, to be used for the first
// (chronologically earliest) v1 operation in a device's history.
func NewState() *State {
	return &State{
		checksums: make(map[fileKey]checksum.Checksum),
		present:   make(map[fileKey]struct{}),
	}
}

// FromV1 converts one v1 operation to v2, mutating state to reflect this
// operation's snapshot so the next (chronologically later) call sees an
// up-to-date picture. Operations must be supplied in ascending timestamp
// order per device.
func FromV1(state *State, old V1Operation) *oplog.Operation {
	theseFiles := make(map[fileKey]struct{}, len(old.Files))
	var entries []oplog.FileEntry

	for _, f := range old.Files {
		key := fileKey{pile: f.Pile, rel: f.RelativePath}
		oldSum, hadPrev := state.checksums[key]

		var kind oplog.Kind
		switch {
		case !hadPrev:
			kind = oplog.Created
		case oldSum.Equal(f.Checksum):
			kind = oplog.Unmodified
		default:
			kind = oplog.Modified
		}

		entries = append(entries, oplog.FileEntry{
			Pile:         f.Pile,
			RelativePath: f.RelativePath,
			Kind:         kind,
			Checksum:     f.Checksum,
		})

		state.checksums[key] = f.Checksum
		theseFiles[key] = struct{}{}
	}

	for key := range state.present {
		if _, stillPresent := theseFiles[key]; stillPresent {
			continue
		}
		entries = append(entries, oplog.FileEntry{Pile: key.pile, RelativePath: key.rel, Kind: oplog.Deleted})
	}

	state.present = theseFiles

	return oplog.Build(old.Timestamp, old.direction(), old.Hoard, entries)
}
