package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/shadow53/hoard/internal/checksum"
	"github.com/shadow53/hoard/internal/names"
	"github.com/shadow53/hoard/internal/upgrade"
)

// v1Hoard mirrors the original v1 log's externally-tagged Hoard enum: an
// Anonymous pile's flat path->MD5 map, or a Named set of such maps keyed
// by pile name. Exactly one of the two fields is present in any given
// log.
type v1Hoard struct {
	Anonymous map[string]string            `json:"Anonymous"`
	Named     map[string]map[string]string `json:"Named"`
}

// v1Operation is the on-disk JSON shape of v1.rs's OperationV1.
type v1Operation struct {
	Timestamp time.Time `json:"timestamp"`
	IsBackup  bool      `json:"is_backup"`
	HoardName string    `json:"hoard_name"`
	Hoard     v1Hoard   `json:"hoard"`
}

// parseV1 decodes a v1 log file's JSON bytes into upgrade.V1Operation,
// implementing upgrade.ParseV1. Grounded on original_source's v1.rs: an
// externally-tagged Hoard::Anonymous(Pile)/Hoard::Named(HashMap) enum
// wrapping a plain relative-path -> MD5-hex map.
func parseV1(data []byte) (upgrade.V1Operation, error) {
	var raw v1Operation
	if err := json.Unmarshal(data, &raw); err != nil {
		return upgrade.V1Operation{}, fmt.Errorf("not a v1 log: %w", err)
	}

	hoardName, err := names.NewHoardName(raw.HoardName)
	if err != nil {
		return upgrade.V1Operation{}, err
	}

	var files []upgrade.V1File
	switch {
	case raw.Hoard.Anonymous != nil:
		files = v1PileFiles(names.Anonymous(), raw.Hoard.Anonymous)
	case raw.Hoard.Named != nil:
		for pileNameStr, pile := range raw.Hoard.Named {
			pileName, err := names.NewNonEmptyPileName(pileNameStr)
			if err != nil {
				return upgrade.V1Operation{}, err
			}
			files = append(files, v1PileFiles(names.Named(pileName), pile)...)
		}
	default:
		return upgrade.V1Operation{}, fmt.Errorf("not a v1 log: no hoard data present")
	}

	return upgrade.V1Operation{
		Timestamp: raw.Timestamp,
		IsBackup:  raw.IsBackup,
		Hoard:     hoardName,
		Files:     files,
	}, nil
}

func v1PileFiles(pile names.PileName, paths map[string]string) []upgrade.V1File {
	files := make([]upgrade.V1File, 0, len(paths))
	for rel, hexDigest := range paths {
		files = append(files, upgrade.V1File{
			Pile:         pile,
			RelativePath: rel,
			Checksum:     checksum.FromHex(checksum.TypeMD5, hexDigest),
		})
	}
	return files
}

func newUpgradeCommand(getApp func() (*app, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "upgrade",
		Short: "Upgrade this device's operation logs to the current format",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp()
			if err != nil {
				return err
			}
			if err := upgrade.RunAll(a.historyRoot, parseV1); err != nil {
				return err
			}
			a.log.Printf("operation logs upgraded")
			return nil
		},
	}
}
