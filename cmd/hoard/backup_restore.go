package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shadow53/hoard/internal/atomicfile"
	"github.com/shadow53/hoard/internal/checker"
	"github.com/shadow53/hoard/internal/cleanup"
	"github.com/shadow53/hoard/internal/config"
	"github.com/shadow53/hoard/internal/diff"
	"github.com/shadow53/hoard/internal/executor"
	"github.com/shadow53/hoard/internal/iterate"
	"github.com/shadow53/hoard/internal/names"
	"github.com/shadow53/hoard/internal/oplog"
	"github.com/shadow53/hoard/internal/pileconfig"
	"github.com/shadow53/hoard/internal/report"

	"github.com/spf13/cobra"
)

func newBackupCommand(getApp func() (*app, error), force *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "backup [hoards...]",
		Short: "Copy system files into the hoard",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp()
			if err != nil {
				return err
			}
			return runBackupOrRestore(a, oplog.Backup, hoardNamesOrAll(a, args), *force)
		},
	}
}

func newRestoreCommand(getApp func() (*app, error), force *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "restore [hoards...]",
		Short: "Copy hoarded files onto the system",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp()
			if err != nil {
				return err
			}
			return runBackupOrRestore(a, oplog.Restore, hoardNamesOrAll(a, args), *force)
		},
	}
}

// iterateDirection maps an oplog.Direction to its iterate.Direction
// counterpart; the two packages define the same two-way split
// independently so neither depends on the other.
func iterateDirection(d oplog.Direction) iterate.Direction {
	if d == oplog.Restore {
		return iterate.Restore
	}
	return iterate.Backup
}

// runBackupOrRestore runs one backup or restore across the named hoards,
// in the order given. For each hoard it computes every file's diff and
// intended outcome before touching the filesystem, runs the LastPaths and
// operation-history checks against that computed (not yet applied) state
// unless force is set, only then applies the intents, and finally
// persists the real operation log and updated LastPaths. Grounded on the
// original Rust command/backup_restore.rs and command/backup.rs, whose
// Checkers::new/check/commit_to_disk split enforces this same compute-
// check-mutate-commit ordering.
func runBackupOrRestore(a *app, direction oplog.Direction, hoardNames []string, force bool) error {
	lastPaths, err := checker.LoadLastPaths(a.historyRoot, a.deviceID.String())
	if err != nil {
		return err
	}

	for _, hoardNameStr := range hoardNames {
		if err := runOneHoard(a, direction, hoardNameStr, force, lastPaths); err != nil {
			return fmt.Errorf("%s %s: %w", direction, hoardNameStr, err)
		}
	}

	if err := checker.SaveLastPaths(a.historyRoot, a.deviceID.String(), lastPaths); err != nil {
		return err
	}

	deleted, err := cleanup.Run(a.log, a.historyRoot)
	if err != nil {
		return fmt.Errorf("cleanup: %w", err)
	}
	a.log.Debugf("cleanup: removed %d stale log files", deleted)
	return nil
}

func runOneHoard(a *app, direction oplog.Direction, hoardNameStr string, force bool, lastPaths *checker.LastPaths) error {
	spec, ok := a.raw.HoardSpecs[hoardNameStr]
	if !ok {
		return fmt.Errorf("no such hoard: %q", hoardNameStr)
	}
	hoardName, err := names.NewHoardName(hoardNameStr)
	if err != nil {
		return err
	}

	piles, err := a.resolveHoard(hoardNameStr)
	if err != nil {
		return err
	}

	newPaths := checker.HoardPaths{Timestamp: time.Now(), Piles: buildPilePaths(spec, piles)}
	if !force {
		old, hasOld := lastPaths.Get(hoardName)
		if err := checker.Enforce(a.log, old, newPaths, hasOld); err != nil {
			return err
		}
	}

	roots := make([]iterate.Root, len(piles))
	resolvedByPile := make(map[string]*pileconfig.Resolved, len(piles))
	for i, p := range piles {
		roots[i] = p.root
		resolvedByPile[p.root.PileName.String()] = p.resolved
	}

	items, err := iterate.WalkAll(iterateDirection(direction), roots)
	if err != nil {
		return err
	}

	diffs := make([]diff.FileDiff, len(items))
	for i, item := range items {
		filter := &oplog.FileFilter{Pile: item.PileName, RelativePath: item.RelativePath.String(), Set: true}
		localLatest, err := latestOrNil(oplog.LatestLocal(a.historyRoot, a.deviceID.String(), hoardName, filter))
		if err != nil {
			return err
		}
		remoteLatest, err := latestOrNil(oplog.LatestRemoteBackup(a.historyRoot, a.deviceID.String(), hoardName, filter))
		if err != nil {
			return err
		}
		d, err := diff.Classify(item, localLatest, remoteLatest)
		if err != nil {
			return err
		}
		diffs[i] = d
	}

	// Every file the walk surfaced is recorded in the provisional
	// operation, regardless of its classified kind: FileSet unions all
	// four buckets together, so only (pile, path) membership -- not the
	// exact Kind -- feeds the conflict check below.
	provisionalEntries := make([]oplog.FileEntry, len(diffs))
	for i, d := range diffs {
		provisionalEntries[i] = oplog.FileEntry{
			Pile:         d.Item.PileName,
			RelativePath: d.Item.RelativePath.String(),
			Kind:         oplog.Unmodified,
		}
	}
	provisional := oplog.Build(time.Now(), direction, hoardName, provisionalEntries)

	if !force {
		if err := checker.CheckOperation(provisional, a.historyRoot, a.deviceID.String()); err != nil {
			return err
		}
	}

	var finalEntries []oplog.FileEntry
	for _, d := range diffs {
		resolved, ok := resolvedByPile[d.Item.PileName.String()]
		if !ok {
			return fmt.Errorf("internal error: no resolved config for pile %s", d.Item.PileName)
		}
		result, err := executor.Apply(
			a.log,
			direction,
			d.Item,
			d,
			os.FileMode(resolved.FilePermissions),
			os.FileMode(resolved.FolderPermissions),
			resolved.ChecksumType,
		)
		if err != nil {
			return err
		}
		if result.Ok {
			finalEntries = append(finalEntries, result.Entry)
		}
	}

	finalOp := oplog.Build(time.Now(), direction, hoardName, finalEntries)
	logPath := filepath.Join(oplog.HoardDir(a.historyRoot, a.deviceID.String(), hoardName), finalOp.FileName())
	if err := oplog.WriteTo(logPath, finalOp, func(path string, data []byte) error {
		return atomicfile.Write(path, data, 0o600)
	}); err != nil {
		return err
	}

	lastPaths.Set(hoardName, newPaths)
	report.Status(os.Stdout, hoardNameStr, diffs)
	return nil
}

// buildPilePaths derives the checker.PilePaths shape LastPaths expects
// from a hoard's declared pile shape (anonymous vs. named) and its
// resolved piles.
func buildPilePaths(spec config.HoardSpec, piles []pileRoot) checker.PilePaths {
	if _, anonymous := spec.Piles[""]; anonymous && len(spec.Piles) == 1 {
		if len(piles) == 0 {
			return checker.NewAnonymousPilePaths("", false)
		}
		return checker.NewAnonymousPilePaths(piles[0].root.SystemPrefix.String(), true)
	}

	named := make(map[string]string, len(piles))
	for _, p := range piles {
		name, _ := p.root.PileName.Name()
		named[name.String()] = p.root.SystemPrefix.String()
	}
	return checker.NewNamedPilePaths(named)
}

// latestOrNil adapts oplog's ErrNotFound-returning lookups to a plain nil,
// since diff.Classify and checker.CheckOperation both treat "no prior
// operation" as an ordinary, not erroneous, input.
func latestOrNil(op *oplog.Operation, err error) (*oplog.Operation, error) {
	if err != nil {
		if errors.Is(err, oplog.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return op, nil
}
