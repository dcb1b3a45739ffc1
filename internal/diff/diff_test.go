package diff

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shadow53/hoard/internal/hoardpath"
	"github.com/shadow53/hoard/internal/hoarditem"
	"github.com/shadow53/hoard/internal/names"
	"github.com/shadow53/hoard/internal/oplog"
)

func newItem(t *testing.T) (hoarditem.Item, string, string) {
	t.Helper()
	hoardsRoot := t.TempDir()
	systemRoot := t.TempDir()

	hoardFile := filepath.Join(hoardsRoot, "mypile")
	systemFile := filepath.Join(systemRoot, "dest")

	hp, err := hoardpath.NewHoardPath(hoardsRoot, hoardFile)
	if err != nil {
		t.Fatal(err)
	}
	sp, err := hoardpath.NewSystemPath(hoardsRoot, systemFile)
	if err != nil {
		t.Fatal(err)
	}
	rel, _ := hoardpath.NewRelativePath("")
	return hoarditem.New(names.Anonymous(), hp, sp, rel), hoardFile, systemFile
}

func TestClassifyUnchanged(t *testing.T) {
	item, hoardFile, systemFile := newItem(t)
	write(t, hoardFile, "same content")
	write(t, systemFile, "same content")

	result, err := Classify(item, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Kind != Unchanged {
		t.Errorf("kind = %v, want Unchanged", result.Kind)
	}
}

func TestClassifyTextModified(t *testing.T) {
	item, hoardFile, systemFile := newItem(t)
	write(t, hoardFile, "line one\nline two\n")
	write(t, systemFile, "line one\nline CHANGED\n")

	result, err := Classify(item, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Kind != TextModified {
		t.Errorf("kind = %v, want TextModified", result.Kind)
	}
	if result.UnifiedDiff == "" {
		t.Error("expected non-empty unified diff")
	}
}

func TestClassifyBinaryModified(t *testing.T) {
	item, hoardFile, systemFile := newItem(t)
	write(t, hoardFile, string([]byte{0x00, 0x01, 0xff}))
	write(t, systemFile, string([]byte{0x00, 0x02, 0xff}))

	result, err := Classify(item, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Kind != BinaryModified {
		t.Errorf("kind = %v, want BinaryModified", result.Kind)
	}
}

func TestClassifyCreatedNoRecord(t *testing.T) {
	item, _, systemFile := newItem(t)
	write(t, systemFile, "new file")

	result, err := Classify(item, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Kind != Created {
		t.Errorf("kind = %v, want Created", result.Kind)
	}
	if result.Source != SourceLocal {
		t.Errorf("source = %v, want SourceLocal (a device's first-ever backup must still copy new files)", result.Source)
	}
}

func TestClassifyCreatedWhenNeitherLogRecordsFile(t *testing.T) {
	item, _, systemFile := newItem(t)
	write(t, systemFile, "new file")

	hoardName, err := names.NewHoardName("myhoard")
	if err != nil {
		t.Fatal(err)
	}
	local := oplog.Build(time.Now().Add(-time.Hour), oplog.Backup, hoardName, []oplog.FileEntry{})
	remote := oplog.Build(time.Now(), oplog.Backup, hoardName, []oplog.FileEntry{})

	result, err := Classify(item, local, remote)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Kind != Created {
		t.Errorf("kind = %v, want Created (neither log mentions this file)", result.Kind)
	}
}

func TestClassifyOnlyHoardNoRecord(t *testing.T) {
	item, hoardFile, _ := newItem(t)
	write(t, hoardFile, "hoarded only")

	result, err := Classify(item, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Kind != Created {
		t.Errorf("kind = %v, want Created", result.Kind)
	}
	if result.Source != SourceRemote {
		t.Errorf("source = %v, want SourceRemote (a file that only exists in the hoard came from elsewhere)", result.Source)
	}
}

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}
