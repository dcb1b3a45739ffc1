// Package executor implements Hoard's backup/restore executor: it maps
// each file's diff.FileDiff to a direction-aware intent (Create, Modify,
// Delete, or Nothing), applies that intent to the filesystem, and builds
// the resulting oplog.FileEntry for the operation log. Grounded on the
// original Rust hoard/iter/operation.rs's OperationType mapping.
package executor

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/shadow53/hoard/internal/atomicfile"
	"github.com/shadow53/hoard/internal/checksum"
	"github.com/shadow53/hoard/internal/diff"
	"github.com/shadow53/hoard/internal/hoarditem"
	"github.com/shadow53/hoard/internal/logging"
	"github.com/shadow53/hoard/internal/oplog"
)

// Intent is the action the executor takes for one file.
type Intent int

const (
	// Nothing performs no filesystem action and records Kind Unmodified.
	Nothing Intent = iota
	Create
	Modify
	Delete
)

func (i Intent) String() string {
	switch i {
	case Create:
		return "Create"
	case Modify:
		return "Modify"
	case Delete:
		return "Delete"
	default:
		return "Nothing"
	}
}

// IntentFor maps a FileDiff to the direction-aware intent. Any *Modified
// kind always maps to Modify regardless of source; Unchanged always maps
// to Nothing.
func IntentFor(direction oplog.Direction, d diff.FileDiff) Intent {
	switch d.Kind {
	case diff.TextModified, diff.BinaryModified, diff.PermissionsModified:
		return Modify
	case diff.Unchanged:
		return Nothing
	case diff.Created, diff.Recreated:
		return intentForCreatedLike(direction, d.Source)
	case diff.Deleted:
		return intentForDeleted(direction, d.Source)
	default:
		return Nothing
	}
}

func intentForCreatedLike(direction oplog.Direction, source diff.Source) Intent {
	switch {
	case source == diff.SourceMixed:
		return Create
	case direction == oplog.Backup && source == diff.SourceLocal:
		return Create
	case direction == oplog.Backup:
		return Delete
	case direction == oplog.Restore && source == diff.SourceLocal:
		return Delete
	default: // Restore, Remote or Unknown
		return Create
	}
}

func intentForDeleted(direction oplog.Direction, source diff.Source) Intent {
	switch {
	case source == diff.SourceMixed:
		return Delete
	case direction == oplog.Backup && source == diff.SourceLocal:
		return Delete
	case direction == oplog.Restore && (source == diff.SourceRemote || source == diff.SourceUnknown):
		return Delete
	case direction == oplog.Backup:
		return Create
	default: // Restore, Local
		return Create
	}
}

// Result is the outcome of applying one item's intent: the file entry to
// record in the operation log, or a zero value (Ok==false) when nothing
// needs to be recorded because the file still doesn't exist on either
// side.
type Result struct {
	Entry oplog.FileEntry
	Ok    bool
}

// Apply executes one item's intent against the filesystem and returns
// the oplog.FileEntry to record for it.
func Apply(log *logging.Logger, direction oplog.Direction, item hoarditem.Item, d diff.FileDiff, filePerm, folderPerm os.FileMode, checksumType checksum.Type) (Result, error) {
	intent := IntentFor(direction, d)
	rel := item.RelativePath.String()

	switch intent {
	case Create, Modify:
		srcPath, dstPath, dstPerm := copyPaths(direction, item, filePerm)
		if err := copyFile(log, srcPath, dstPath, destinationFolderPerm(direction, folderPerm), dstPerm); err != nil {
			return Result{}, fmt.Errorf("executor: copying %s: %w", rel, err)
		}
		sum, ok, err := checksumOf(direction, item, checksumType)
		if err != nil {
			return Result{}, err
		}
		if !ok {
			return Result{}, nil
		}
		kind := oplog.Modified
		if intent == Create {
			kind = oplog.Created
		}
		return Result{Entry: oplog.FileEntry{Pile: item.PileName, RelativePath: rel, Kind: kind, Checksum: sum}, Ok: true}, nil

	case Delete:
		dstPath := destinationPath(direction, item)
		log.Debugf("removing %s", dstPath)
		if err := os.Remove(dstPath); err != nil && !os.IsNotExist(err) {
			return Result{}, fmt.Errorf("executor: removing %s: %w", rel, err)
		}
		return Result{Entry: oplog.FileEntry{Pile: item.PileName, RelativePath: rel, Kind: oplog.Deleted}, Ok: true}, nil

	default:
		sum, ok, err := checksumOf(oplog.Backup, item, checksumType)
		if err != nil {
			return Result{}, err
		}
		if !ok {
			return Result{}, nil
		}
		return Result{Entry: oplog.FileEntry{Pile: item.PileName, RelativePath: rel, Kind: oplog.Unmodified, Checksum: sum}, Ok: true}, nil
	}
}

// copyPaths returns the copy's (source, destination) paths and the
// destination-side permission bits for the given direction. On Backup,
// system -> hoard with the fixed hoard-side file permissions (0600)
// applied to the destination; on Restore, hoard -> system with the
// pile's configured file permissions applied.
func copyPaths(direction oplog.Direction, item hoarditem.Item, filePerm os.FileMode) (src, dst string, dstPerm os.FileMode) {
	if direction == oplog.Backup {
		return item.SystemPath().String(), item.HoardPath().String(), 0o600
	}
	return item.HoardPath().String(), item.SystemPath().String(), filePerm
}

// destinationFolderPerm returns the permission bits for ancestor
// directories created at the destination. On Backup, the hoard-side
// store always uses the fixed 0700, regardless of the pile's configured
// folder permissions (those govern only the system-side restore case).
func destinationFolderPerm(direction oplog.Direction, folderPerm os.FileMode) os.FileMode {
	if direction == oplog.Backup {
		return 0o700
	}
	return folderPerm
}

func destinationPath(direction oplog.Direction, item hoarditem.Item) string {
	if direction == oplog.Backup {
		return item.HoardPath().String()
	}
	return item.SystemPath().String()
}

func checksumOf(direction oplog.Direction, item hoarditem.Item, checksumType checksum.Type) (checksum.Checksum, bool, error) {
	if direction == oplog.Backup {
		return item.SystemChecksum(checksumType)
	}
	return item.HoardChecksum(checksumType)
}

// copyFile copies src to dst, creating dst's missing ancestor directories
// (within the pile root only — the caller passes a dst already scoped to
// the pile) with folderPerm, and setting dst's permissions to dstPerm.
// The copy itself goes through atomicfile.CopyFrom, so a dst that already
// exists is replaced by rename rather than truncated in place: an
// interrupted copy never leaves a partially-written file at dst.
func copyFile(log *logging.Logger, src, dst string, folderPerm, dstPerm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dst), folderPerm); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	log.Debugf("copying %s -> %s", src, dst)
	perm := dstPerm
	if perm == 0 {
		perm = 0o600
	}
	return atomicfile.CopyFrom(dst, in, perm)
}
