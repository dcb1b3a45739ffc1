package main

import (
	"github.com/spf13/cobra"

	"github.com/shadow53/hoard/internal/report"
)

func newDiffCommand(getApp func() (*app, error), verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "diff [hoards...]",
		Short: "Show per-file differences between the hoard and the system",
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
				report.Diff(a.log, diffs, *verbose)
			}
			return nil
		},
	}
}
