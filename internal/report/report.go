// Package report renders diff.FileDiff results as human-readable output
// for the `diff` and `status` commands, grounded on the original Rust
// command/diff.rs's run_diff and command/status.rs's run_status.
package report

import (
	"fmt"
	"io"

	"github.com/shadow53/hoard/internal/diff"
	"github.com/shadow53/hoard/internal/logging"
)

// Diff writes one line per non-Unchanged FileDiff to log, in the style of
// `hoard diff`: a one-line summary per file, plus the unified diff body
// for text modifications when verbose is set.
func Diff(log *logging.Logger, diffs []diff.FileDiff, verbose bool) {
	for _, d := range diffs {
		path := d.Item.RelativePath.String()
		switch d.Kind {
		case diff.Unchanged:
			continue
		case diff.BinaryModified:
			log.Printf("%s: binary file changed %s", path, d.Source)
		case diff.TextModified:
			log.Printf("%s: text file changed %s", path, d.Source)
			if verbose && d.UnifiedDiff != "" {
				log.Printf("%s", d.UnifiedDiff)
			}
		case diff.PermissionsModified:
			log.Printf("%s: permissions changed %s", path, d.Source)
		case diff.Created:
			log.Printf("%s: created %s", path, d.Source)
		case diff.Recreated:
			log.Printf("%s: recreated %s", path, d.Source)
		case diff.Deleted:
			log.Printf("%s: deleted %s", path, d.Source)
		}
	}
}

// HoardStatus summarizes one hoard's status by reducing all its
// FileDiffs' sources: up to date if nothing changed, the dominant source
// if all changes agree, Mixed if sides disagree, or Unknown if any
// change's source could not be attributed.
func HoardStatus(diffs []diff.FileDiff) (diff.Source, bool) {
	var (
		combined diff.Source
		any      bool
	)
	for _, d := range diffs {
		if d.Kind == diff.Unchanged {
			continue
		}
		if !any {
			combined = d.Source
			any = true
			continue
		}
		if combined == diff.SourceUnknown || d.Source == diff.SourceUnknown {
			combined = diff.SourceUnknown
		} else if combined != d.Source {
			combined = diff.SourceMixed
		}
	}
	return combined, any
}

// Status writes one status line per hoard to w, in the style of `hoard
// status`.
func Status(w io.Writer, hoardName string, diffs []diff.FileDiff) {
	source, changed := HoardStatus(diffs)
	if !changed {
		fmt.Fprintf(w, "%s: up to date\n", hoardName)
		return
	}
	switch source {
	case diff.SourceLocal:
		fmt.Fprintf(w, "%s: modified %s -- sync with `hoard backup %s`\n", hoardName, source, hoardName)
	case diff.SourceRemote:
		fmt.Fprintf(w, "%s: modified %s -- sync with `hoard restore %s`\n", hoardName, source, hoardName)
	case diff.SourceMixed:
		fmt.Fprintf(w, "%s: mixed changes -- manual intervention recommended (see `hoard diff`)\n", hoardName)
	default:
		fmt.Fprintf(w, "%s: unexpected changes -- manual intervention recommended (see `hoard diff`)\n", hoardName)
	}
}
