package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// skeletonConfig is written by `hoard init` when no config file exists
// yet: an empty exclusivity list and environment table, plus one
// commented example hoard to get a new user started.
const skeletonConfig = `exclusivity = []

[envs]

[hoards]
# [hoards.example]
# linux = "~/.example"
# windows = "C:\\Users\\me\\.example"
`

func newInitCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the config file and data directories if they do not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath := flags.configPath
			if _, err := os.Stat(configPath); os.IsNotExist(err) {
				if err := os.MkdirAll(filepath.Dir(configPath), 0o700); err != nil {
					return fmt.Errorf("init: creating config directory: %w", err)
				}
				if err := os.WriteFile(configPath, []byte(skeletonConfig), 0o600); err != nil {
					return fmt.Errorf("init: writing %s: %w", configPath, err)
				}
				fmt.Printf("created %s\n", configPath)
			} else if err != nil {
				return fmt.Errorf("init: checking %s: %w", configPath, err)
			}

			for _, dir := range []string{flags.hoardsRoot, flags.historyRoot} {
				if err := os.MkdirAll(dir, 0o700); err != nil {
					return fmt.Errorf("init: creating %s: %w", dir, err)
				}
			}
			return nil
		},
	}
}
