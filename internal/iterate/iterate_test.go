package iterate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shadow53/hoard/internal/hoardpath"
	"github.com/shadow53/hoard/internal/ignore"
	"github.com/shadow53/hoard/internal/names"
)

func mustRoot(t *testing.T, hoardsRoot, hoardPath, systemRoot, systemPath string, filter *ignore.Filter) Root {
	t.Helper()
	hp, err := hoardpath.NewHoardPath(hoardsRoot, hoardPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sp, err := hoardpath.NewSystemPath(hoardsRoot, systemPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return Root{PileName: names.Anonymous(), HoardPrefix: hp, SystemPrefix: sp, Filter: filter}
}

func TestWalkUnionOfBothSides(t *testing.T) {
	hoardsRoot := t.TempDir()
	systemRoot := t.TempDir()

	hoardPile := filepath.Join(hoardsRoot, "mypile")
	systemPile := filepath.Join(systemRoot, "dest")

	mustWrite(t, filepath.Join(hoardPile, "only_hoard.txt"), "a")
	mustWrite(t, filepath.Join(systemPile, "only_system.txt"), "b")
	mustWrite(t, filepath.Join(hoardPile, "both.txt"), "c")
	mustWrite(t, filepath.Join(systemPile, "both.txt"), "c")

	root := mustRoot(t, hoardsRoot, hoardPile, systemRoot, systemPile, nil)

	items, err := Walk(Backup, root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got []string
	for _, it := range items {
		got = append(got, it.RelativePath.String())
	}
	want := []string{"both.txt", "only_hoard.txt", "only_system.txt"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("item[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestWalkRespectsIgnoreFilter(t *testing.T) {
	hoardsRoot := t.TempDir()
	systemRoot := t.TempDir()

	hoardPile := filepath.Join(hoardsRoot, "mypile")
	systemPile := filepath.Join(systemRoot, "dest")

	mustWrite(t, filepath.Join(hoardPile, "keep.txt"), "a")
	mustWrite(t, filepath.Join(hoardPile, "skip.tmp"), "b")

	filter, err := ignore.New([]string{"*.tmp"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	root := mustRoot(t, hoardsRoot, hoardPile, systemRoot, systemPile, filter)

	items, err := Walk(Backup, root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || items[0].RelativePath.String() != "keep.txt" {
		t.Fatalf("expected only keep.txt, got %v", items)
	}
}

func TestWalkNestedDirectories(t *testing.T) {
	hoardsRoot := t.TempDir()
	systemRoot := t.TempDir()

	hoardPile := filepath.Join(hoardsRoot, "mypile")
	systemPile := filepath.Join(systemRoot, "dest")

	mustWrite(t, filepath.Join(hoardPile, "sub", "nested.txt"), "x")

	root := mustRoot(t, hoardsRoot, hoardPile, systemRoot, systemPile, nil)

	items, err := Walk(Backup, root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || items[0].RelativePath.String() != filepath.ToSlash(filepath.Join("sub", "nested.txt")) {
		t.Fatalf("unexpected items: %v", items)
	}
}

func TestWalkSingleFilePile(t *testing.T) {
	hoardsRoot := t.TempDir()
	systemRoot := t.TempDir()

	hoardFile := filepath.Join(hoardsRoot, "mypile")
	systemFile := filepath.Join(systemRoot, "dest")

	mustWrite(t, hoardFile, "single file contents")

	root := mustRoot(t, hoardsRoot, hoardFile, systemRoot, systemFile, nil)

	items, err := Walk(Backup, root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || !items[0].RelativePath.IsEmpty() {
		t.Fatalf("expected single item with empty relative path, got %v", items)
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}
