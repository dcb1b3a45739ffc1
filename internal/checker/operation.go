package checker

import (
	"errors"
	"reflect"

	"github.com/shadow53/hoard/internal/oplog"
)

// ErrRestoreRequired is returned when a backup is about to run but the
// remote history shows changes this device has not yet applied: the
// caller must restore first (or force past the check).
var ErrRestoreRequired = errors.New("checker: found unapplied remote changes, restore before backing up or force")

// ErrBackupRequired is returned when an operation's local file set
// diverges from the remote history and the pending operation is not
// itself a backup: the caller must back up first (or force past the
// check).
var ErrBackupRequired = errors.New("checker: found unsaved local changes, back up before continuing or force")

// CheckOperation validates that it is safe to commit the given prospective
// operation: it compares the current device's and the most recent other
// device's history for the operation's hoard, refusing a backup that
// would silently overwrite unapplied remote changes. Restores are always
// allowed through, mirroring the original's asymmetric check (only
// backups can clobber remote state).
func CheckOperation(current *oplog.Operation, historyRoot, deviceID string) error {
	if current.Direction != oplog.Backup {
		return nil
	}

	lastLocal, err := oplog.LatestLocal(historyRoot, deviceID, current.Hoard, nil)
	if err != nil && !errors.Is(err, oplog.ErrNotFound) {
		return err
	}
	hasLocal := err == nil

	lastRemote, err := oplog.LatestRemoteBackup(historyRoot, deviceID, current.Hoard, nil)
	if err != nil && !errors.Is(err, oplog.ErrNotFound) {
		return err
	}
	hasRemote := err == nil

	if !hasRemote {
		return nil
	}
	if hasLocal && lastLocal.Timestamp.After(lastRemote.Timestamp) {
		return nil
	}

	return checkHasSameFiles(current, lastRemote)
}

// checkHasSameFiles compares two operations' recorded file sets,
// returning ErrRestoreRequired or ErrBackupRequired on divergence
// depending on which direction the pending operation is.
func checkHasSameFiles(self, other *oplog.Operation) error {
	if reflect.DeepEqual(self.FileSet(), other.FileSet()) {
		return nil
	}
	if self.Direction == oplog.Backup {
		return ErrRestoreRequired
	}
	return ErrBackupRequired
}
