package main

import (
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/shadow53/hoard/internal/diff"
	"github.com/shadow53/hoard/internal/iterate"
	"github.com/shadow53/hoard/internal/names"
	"github.com/shadow53/hoard/internal/oplog"
	"github.com/shadow53/hoard/internal/report"
)

// hoardNamesOrAll returns args if non-empty, else every configured hoard
// name in sorted order.
func hoardNamesOrAll(a *app, args []string) []string {
	if len(args) > 0 {
		return args
	}
	all := make([]string, 0, len(a.raw.HoardSpecs))
	for name := range a.raw.HoardSpecs {
		all = append(all, name)
	}
	sort.Strings(all)
	return all
}

// classifyHoard resolves and walks one hoard's piles (read-only) and
// classifies every file's diff, the shared first step of both `status`
// and `diff`.
func classifyHoard(a *app, hoardNameStr string) ([]diff.FileDiff, error) {
	hoardName, err := names.NewHoardName(hoardNameStr)
	if err != nil {
		return nil, err
	}

	piles, err := a.resolveHoard(hoardNameStr)
	if err != nil {
		return nil, err
	}
	roots := make([]iterate.Root, len(piles))
	for i, p := range piles {
		roots[i] = p.root
	}

	items, err := iterate.WalkAll(iterate.Backup, roots)
	if err != nil {
		return nil, err
	}

	diffs := make([]diff.FileDiff, len(items))
	for i, item := range items {
		filter := &oplog.FileFilter{Pile: item.PileName, RelativePath: item.RelativePath.String(), Set: true}
		localLatest, err := latestOrNil(oplog.LatestLocal(a.historyRoot, a.deviceID.String(), hoardName, filter))
		if err != nil {
			return nil, err
		}
		remoteLatest, err := latestOrNil(oplog.LatestRemoteBackup(a.historyRoot, a.deviceID.String(), hoardName, filter))
		if err != nil {
			return nil, err
		}
		d, err := diff.Classify(item, localLatest, remoteLatest)
		if err != nil {
			return nil, err
		}
		diffs[i] = d
	}
	return diffs, nil
}

func newStatusCommand(getApp func() (*app, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "status [hoards...]",
		Short: "Report whether each hoard is up to date, and with which side",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp()
			if err != nil {
				return err
			}
			for _, hoardNameStr := range hoardNamesOrAll(a, args) {
				diffs, err := classifyHoard(a, hoardNameStr)
				if err != nil {
					return err
				}
				report.Status(os.Stdout, hoardNameStr, diffs)
			}
			return nil
		},
	}
}
