package hoarditem

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shadow53/hoard/internal/checksum"
	"github.com/shadow53/hoard/internal/hoardpath"
	"github.com/shadow53/hoard/internal/names"
)

func mustPile(t *testing.T, name string) names.PileName {
	t.Helper()
	n, err := names.NewNonEmptyPileName(name)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return names.Named(n)
}

func setup(t *testing.T) (hoardpath.HoardPath, hoardpath.SystemPath, string, string) {
	t.Helper()
	hoardRoot := t.TempDir()
	systemRoot := t.TempDir()

	hoardPrefix, err := hoardpath.NewHoardPath(hoardRoot, filepath.Join(hoardRoot, "mypile"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	systemPrefix, err := hoardpath.NewSystemPath(hoardRoot, filepath.Join(systemRoot, "dest"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return hoardPrefix, systemPrefix, hoardRoot, systemRoot
}

func TestHoardPathAndSystemPathJoin(t *testing.T) {
	hoardPrefix, systemPrefix, _, _ := setup(t)
	rel, err := hoardpath.NewRelativePath("a/b.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	item := New(mustPile(t, "mypile"), hoardPrefix, systemPrefix, rel)

	wantHoard := hoardPrefix.Join(rel)
	if !item.HoardPath().Equal(wantHoard) {
		t.Errorf("HoardPath() = %q, want %q", item.HoardPath(), wantHoard)
	}
	wantSystem := systemPrefix.Join(rel)
	if !item.SystemPath().Equal(wantSystem) {
		t.Errorf("SystemPath() = %q, want %q", item.SystemPath(), wantSystem)
	}
}

func TestIsFileAndIsDir(t *testing.T) {
	hoardPrefix, systemPrefix, _, _ := setup(t)
	rel, _ := hoardpath.NewRelativePath("file.txt")
	item := New(mustPile(t, "mypile"), hoardPrefix, systemPrefix, rel)

	// Neither side exists yet.
	isFile, err := item.IsFile()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if isFile {
		t.Error("expected IsFile() false when neither side exists")
	}

	if err := os.MkdirAll(filepath.Dir(item.HoardPath().String()), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(item.HoardPath().String(), []byte("hello"), 0o600); err != nil {
		t.Fatal(err)
	}

	isFile, err = item.IsFile()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !isFile {
		t.Error("expected IsFile() true when hoard side is a regular file and system side is missing")
	}

	isDir, err := item.IsDir()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if isDir {
		t.Error("expected IsDir() false when hoard side is a regular file")
	}
}

func TestIsDirMismatchedTypes(t *testing.T) {
	hoardPrefix, systemPrefix, _, _ := setup(t)
	rel, _ := hoardpath.NewRelativePath("thing")
	item := New(mustPile(t, "mypile"), hoardPrefix, systemPrefix, rel)

	if err := os.MkdirAll(item.HoardPath().String(), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Dir(item.SystemPath().String()), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(item.SystemPath().String(), []byte("data"), 0o600); err != nil {
		t.Fatal(err)
	}

	isFile, err := item.IsFile()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if isFile {
		t.Error("expected IsFile() false when sides disagree on type")
	}
	isDir, err := item.IsDir()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if isDir {
		t.Error("expected IsDir() false when sides disagree on type")
	}
}

func TestContentAndChecksumMissingFile(t *testing.T) {
	hoardPrefix, systemPrefix, _, _ := setup(t)
	rel, _ := hoardpath.NewRelativePath("missing.txt")
	item := New(mustPile(t, "mypile"), hoardPrefix, systemPrefix, rel)

	_, exists, err := item.HoardContent()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exists {
		t.Error("expected exists=false for missing hoard file")
	}

	_, exists, err = item.SystemChecksum(checksum.TypeSHA256)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exists {
		t.Error("expected exists=false checksum for missing system file")
	}
}

func TestChecksumMatchesContent(t *testing.T) {
	hoardPrefix, systemPrefix, _, _ := setup(t)
	rel, _ := hoardpath.NewRelativePath("present.txt")
	item := New(mustPile(t, "mypile"), hoardPrefix, systemPrefix, rel)

	if err := os.MkdirAll(filepath.Dir(item.HoardPath().String()), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(item.HoardPath().String(), []byte("hello"), 0o600); err != nil {
		t.Fatal(err)
	}

	sum, exists, err := item.HoardChecksum(checksum.TypeSHA256)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exists {
		t.Fatal("expected checksum to exist")
	}
	want := checksum.Sum(checksum.TypeSHA256, []byte("hello"))
	if !sum.Equal(want) {
		t.Errorf("checksum mismatch: got %v, want %v", sum, want)
	}
}
