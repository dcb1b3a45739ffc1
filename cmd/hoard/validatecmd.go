package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newValidateCommand resolves every configured hoard's piles without
// walking or touching the filesystem, surfacing any environment,
// exclusivity, or path-expansion error the config contains.
func newValidateCommand(getApp func() (*app, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load the config and resolve every hoard's piles without syncing",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp()
			if err != nil {
				return err
			}
			for _, hoardNameStr := range hoardNamesOrAll(a, nil) {
				if _, err := a.resolveHoard(hoardNameStr); err != nil {
					return fmt.Errorf("hoard %q: %w", hoardNameStr, err)
				}
			}
			a.log.Printf("config is valid")
			return nil
		},
	}
}
