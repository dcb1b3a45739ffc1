package main

import (
	"testing"

	"github.com/shadow53/hoard/internal/checksum"
	"github.com/shadow53/hoard/internal/config"
	"github.com/shadow53/hoard/internal/hoardpath"
	"github.com/shadow53/hoard/internal/iterate"
	"github.com/shadow53/hoard/internal/names"
	"github.com/shadow53/hoard/internal/oplog"
)

func TestToPileNameAnonymous(t *testing.T) {
	pn, rel, err := toPileName("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !pn.IsAnonymous() {
		t.Errorf("expected anonymous pile name")
	}
	if rel != "" {
		t.Errorf("expected empty hoard-relative path, got %q", rel)
	}
}

func TestToPileNameNamed(t *testing.T) {
	pn, rel, err := toPileName("settings")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pn.IsAnonymous() {
		t.Errorf("expected named pile name")
	}
	if rel != "settings" {
		t.Errorf("got relative %q, want %q", rel, "settings")
	}
}

func TestToPileNameInvalid(t *testing.T) {
	if _, _, err := toPileName("bad name"); err == nil {
		t.Errorf("expected error for invalid pile name")
	}
}

func TestIterateDirection(t *testing.T) {
	if got := iterateDirection(oplog.Backup); got != iterate.Backup {
		t.Errorf("backup: got %v, want %v", got, iterate.Backup)
	}
	if got := iterateDirection(oplog.Restore); got != iterate.Restore {
		t.Errorf("restore: got %v, want %v", got, iterate.Restore)
	}
}

func TestHoardNamesOrAllUsesArgsWhenGiven(t *testing.T) {
	a := &app{raw: &config.Raw{HoardSpecs: map[string]config.HoardSpec{
		"dotfiles": {}, "saves": {},
	}}}
	got := hoardNamesOrAll(a, []string{"saves"})
	if len(got) != 1 || got[0] != "saves" {
		t.Errorf("got %v, want [saves]", got)
	}
}

func TestHoardNamesOrAllSortsAllWhenNoArgs(t *testing.T) {
	a := &app{raw: &config.Raw{HoardSpecs: map[string]config.HoardSpec{
		"saves": {}, "dotfiles": {},
	}}}
	got := hoardNamesOrAll(a, nil)
	want := []string{"dotfiles", "saves"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestBuildPilePathsAnonymous(t *testing.T) {
	spec := config.HoardSpec{Piles: map[string]config.PileSpec{"": {}}}
	sys, err := hoardpath.NewSystemPath("/hoards", "/home/user/.bashrc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	piles := []pileRoot{{root: iterate.Root{PileName: names.Anonymous(), SystemPrefix: sys}}}

	got := buildPilePaths(spec, piles)
	if !got.HasAnonymous || got.IsNamed {
		t.Fatalf("expected anonymous pile paths, got %+v", got)
	}
	if got.AnonymousPath != "/home/user/.bashrc" {
		t.Errorf("got path %q, want %q", got.AnonymousPath, "/home/user/.bashrc")
	}
}

func TestBuildPilePathsNamed(t *testing.T) {
	spec := config.HoardSpec{Piles: map[string]config.PileSpec{
		"settings": {}, "data": {},
	}}
	configName, err := names.NewNonEmptyPileName("settings")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sys, err := hoardpath.NewSystemPath("/hoards", "/etc/app/config")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	piles := []pileRoot{{root: iterate.Root{PileName: names.Named(configName), SystemPrefix: sys}}}

	got := buildPilePaths(spec, piles)
	if !got.IsNamed {
		t.Fatalf("expected named pile paths, got %+v", got)
	}
	if got.Named["settings"] != "/etc/app/config" {
		t.Errorf("got %v, want settings -> /etc/app/config", got.Named)
	}
}

func TestParseV1Anonymous(t *testing.T) {
	data := []byte(`{
		"timestamp": "2024-01-02T03:04:05Z",
		"is_backup": true,
		"hoard_name": "dotfiles",
		"hoard": {"Anonymous": {"bashrc": "d41d8cd98f00b204e9800998ecf8427e"}}
	}`)

	op, err := parseV1(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if op.Hoard.String() != "dotfiles" {
		t.Errorf("got hoard %q, want %q", op.Hoard, "dotfiles")
	}
	if !op.IsBackup {
		t.Errorf("expected IsBackup true")
	}
	if len(op.Files) != 1 {
		t.Fatalf("got %d files, want 1", len(op.Files))
	}
	f := op.Files[0]
	if !f.Pile.IsAnonymous() {
		t.Errorf("expected anonymous pile")
	}
	if f.RelativePath != "bashrc" {
		t.Errorf("got relative path %q, want %q", f.RelativePath, "bashrc")
	}
	if f.Checksum.Type() != checksum.TypeMD5 {
		t.Errorf("got checksum type %v, want MD5", f.Checksum.Type())
	}
}

func TestParseV1Named(t *testing.T) {
	data := []byte(`{
		"timestamp": "2024-01-02T03:04:05Z",
		"is_backup": false,
		"hoard_name": "games",
		"hoard": {"Named": {"save1": {"game.sav": "0cc175b9c0f1b6a831c399e269772661"}}}
	}`)

	op, err := parseV1(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(op.Files) != 1 {
		t.Fatalf("got %d files, want 1", len(op.Files))
	}
	f := op.Files[0]
	if f.Pile.IsAnonymous() {
		t.Errorf("expected named pile")
	}
	name, _ := f.Pile.Name()
	if name.String() != "save1" {
		t.Errorf("got pile name %q, want %q", name, "save1")
	}
}

func TestParseV1MissingHoardDataErrors(t *testing.T) {
	data := []byte(`{
		"timestamp": "2024-01-02T03:04:05Z",
		"is_backup": true,
		"hoard_name": "dotfiles",
		"hoard": {}
	}`)
	if _, err := parseV1(data); err == nil {
		t.Errorf("expected error when neither Anonymous nor Named is present")
	}
}

func TestParseV1InvalidHoardNameErrors(t *testing.T) {
	data := []byte(`{
		"timestamp": "2024-01-02T03:04:05Z",
		"is_backup": true,
		"hoard_name": "bad name",
		"hoard": {"Anonymous": {}}
	}`)
	if _, err := parseV1(data); err == nil {
		t.Errorf("expected error for invalid hoard name")
	}
}
