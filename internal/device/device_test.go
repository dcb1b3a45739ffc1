package device

import (
	"path/filepath"
	"testing"
)

func TestLoadOrCreatePersistsAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "uuid")

	id1, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id1.IsZero() {
		t.Fatal("expected non-zero id")
	}

	id2, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id1.String() != id2.String() {
		t.Errorf("expected reload to return the same id: %q != %q", id1, id2)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	if _, err := Parse("not-a-uuid"); err == nil {
		t.Fatal("expected error for invalid uuid")
	}
}

func TestShortIsStableAndShorterThanUUID(t *testing.T) {
	id := New()
	short1 := id.Short()
	short2 := id.Short()
	if short1 != short2 {
		t.Errorf("expected Short to be stable, got %q and %q", short1, short2)
	}
	if len(short1) >= len(id.String()) {
		t.Errorf("expected short form %q to be shorter than %q", short1, id.String())
	}
}

func TestShortOfZeroValueFallsBackToRawValue(t *testing.T) {
	var id ID
	if id.Short() != id.String() {
		t.Errorf("expected Short of zero value to equal String, got %q", id.Short())
	}
}
