package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newListCommand(getApp func() (*app, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured hoards and their piles",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp()
			if err != nil {
				return err
			}
			fmt.Printf("device: %s\n", a.deviceID.Short())
			for _, hoardNameStr := range hoardNamesOrAll(a, nil) {
				spec := a.raw.HoardSpecs[hoardNameStr]
				fmt.Println(hoardNameStr)
				pileNames := make([]string, 0, len(spec.Piles))
				for pileName := range spec.Piles {
					pileNames = append(pileNames, pileName)
				}
				sort.Strings(pileNames)
				for _, pileName := range pileNames {
					if pileName == "" {
						continue
					}
					fmt.Printf("  %s\n", pileName)
				}
			}
			return nil
		},
	}
}
