package oplog

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shadow53/hoard/internal/atomicfile"
	"github.com/shadow53/hoard/internal/checksum"
	"github.com/shadow53/hoard/internal/names"
)

func mustHoardName(t *testing.T, s string) names.HoardName {
	t.Helper()
	n, err := names.NewHoardName(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return n
}

func TestBuildAndQuery(t *testing.T) {
	hoard := mustHoardName(t, "dotfiles")
	sum := checksum.Sum(checksum.TypeSHA256, []byte("data"))

	op := Build(time.Now(), Backup, hoard, []FileEntry{
		{Pile: names.Anonymous(), RelativePath: "file.txt", Kind: Created, Checksum: sum},
	})

	if !op.ContainsFile(names.Anonymous(), "file.txt", false) {
		t.Error("expected ContainsFile true for created file")
	}
	got, ok := op.ChecksumFor(names.Anonymous(), "file.txt")
	if !ok || !got.Equal(sum) {
		t.Errorf("unexpected checksum: %v, ok=%v", got, ok)
	}
}

func TestContainsFileOnlyModifiedExcludesUnmodified(t *testing.T) {
	hoard := mustHoardName(t, "dotfiles")
	sum := checksum.Sum(checksum.TypeSHA256, []byte("data"))
	op := Build(time.Now(), Backup, hoard, []FileEntry{
		{Pile: names.Anonymous(), RelativePath: "file.txt", Kind: Unmodified, Checksum: sum},
	})

	if op.ContainsFile(names.Anonymous(), "file.txt", true) {
		t.Error("expected onlyModified=true to exclude unmodified files")
	}
	if !op.ContainsFile(names.Anonymous(), "file.txt", false) {
		t.Error("expected onlyModified=false to include unmodified files")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	hoard := mustHoardName(t, "dotfiles")
	sum := checksum.Sum(checksum.TypeSHA256, []byte("data"))
	now := time.Now().UTC().Round(time.Microsecond)

	pileName, err := names.NewNonEmptyPileName("mypile")
	if err != nil {
		t.Fatal(err)
	}

	op := Build(now, Restore, hoard, []FileEntry{
		{Pile: names.Named(pileName), RelativePath: "a/b.txt", Kind: Modified, Checksum: sum},
		{Pile: names.Named(pileName), RelativePath: "deleted.txt", Kind: Deleted},
	})

	dir := t.TempDir()
	path := filepath.Join(dir, op.FileName())
	writer := func(p string, data []byte) error { return atomicfile.Write(p, data, 0o600) }
	if err := WriteTo(path, op, writer); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reread, err := ReadFrom(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reread.Direction != Restore {
		t.Errorf("direction = %v, want Restore", reread.Direction)
	}
	if !reread.Timestamp.Equal(now) {
		t.Errorf("timestamp = %v, want %v", reread.Timestamp, now)
	}
	if !reread.ContainsFile(names.Named(pileName), "a/b.txt", false) {
		t.Error("expected modified file to round-trip")
	}
	if !reread.ContainsFile(names.Named(pileName), "deleted.txt", false) {
		t.Error("expected deleted file to round-trip")
	}
}

func TestIsLogFileName(t *testing.T) {
	if !IsLogFileName("2024_01_02-03_04_05.000000.log") {
		t.Error("expected valid log file name to match")
	}
	if IsLogFileName("last_paths.json") {
		t.Error("expected last_paths.json to not match")
	}
}
