package main

import (
	"github.com/spf13/cobra"

	"github.com/shadow53/hoard/internal/cleanup"
)

func newCleanupCommand(getApp func() (*app, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete stale operation logs, keeping only what conflict detection needs",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp()
			if err != nil {
				return err
			}
			deleted, err := cleanup.Run(a.log, a.historyRoot)
			if err != nil {
				return err
			}
			a.log.Printf("removed %d stale log files", deleted)
			return nil
		},
	}
}
