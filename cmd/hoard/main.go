// Command hoard synchronizes dotfiles, save data, and other per-device
// files across machines via an explicit backup/restore model, rather
// than mutagen's continuous bidirectional daemon. Grounded on the
// original Rust src/command/mod.rs's subcommand dispatch and
// cmd/mutagen/main.go's cobra root-command wiring.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

type rootFlags struct {
	configPath  string
	hoardsRoot  string
	historyRoot string
	verbose     bool
	force       bool
}

// newRootCommand builds the hoard root command and every subcommand,
// wiring a lazily-constructed *app (built once flags are parsed, and
// memoized across however many of a single invocation's subcommands need
// it -- in practice exactly one).
func newRootCommand() *cobra.Command {
	flags := &rootFlags{}
	var cachedApp *app

	getApp := func() (*app, error) {
		if cachedApp != nil {
			return cachedApp, nil
		}
		a, err := newApp(flags.configPath, flags.hoardsRoot, flags.historyRoot, flags.verbose)
		if err != nil {
			return nil, err
		}
		cachedApp = a
		return a, nil
	}

	root := &cobra.Command{
		Use:           "hoard",
		Short:         "Hoard synchronizes files across devices via explicit backup and restore",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", defaultConfigPath(), "path to the config file")
	pf.StringVar(&flags.hoardsRoot, "hoards-root", defaultDataDir(), "directory where hoarded file copies are stored")
	pf.StringVar(&flags.historyRoot, "history-root", filepath.Join(defaultDataDir(), "history"), "directory where operation logs are stored")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging and full diff output")
	pf.BoolVar(&flags.force, "force", false, "skip conflict and last-paths checks")

	root.AddCommand(
		newBackupCommand(getApp, &flags.force),
		newRestoreCommand(getApp, &flags.force),
		newStatusCommand(getApp),
		newDiffCommand(getApp, &flags.verbose),
		newListCommand(getApp),
		newValidateCommand(getApp),
		newCleanupCommand(getApp),
		newUpgradeCommand(getApp),
		newInitCommand(flags),
		newEditCommand(flags),
	)

	return root
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
