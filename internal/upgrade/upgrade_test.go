package upgrade

import (
	"testing"
	"time"

	"github.com/shadow53/hoard/internal/checksum"
	"github.com/shadow53/hoard/internal/names"
	"github.com/shadow53/hoard/internal/oplog"
)

func mustHoardName(t *testing.T, s string) names.HoardName {
	t.Helper()
	n, err := names.NewHoardName(s)
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func TestFromV1FirstOperationMarksEverythingCreated(t *testing.T) {
	hoard := mustHoardName(t, "dotfiles")
	sum := checksum.Sum(checksum.TypeMD5, []byte("data"))

	state := NewState()
	op := FromV1(state, V1Operation{
		Timestamp: time.Now(),
		IsBackup:  true,
		Hoard:     hoard,
		Files: []V1File{
			{Pile: names.Anonymous(), RelativePath: "a.txt", Checksum: sum},
		},
	})

	if !op.ContainsFile(names.Anonymous(), "a.txt", false) {
		t.Error("expected a.txt to be recorded")
	}
	got, ok := op.ChecksumFor(names.Anonymous(), "a.txt")
	if !ok || !got.Equal(sum) {
		t.Errorf("unexpected checksum: %v ok=%v", got, ok)
	}
}

func TestFromV1DetectsModifiedAndDeleted(t *testing.T) {
	hoard := mustHoardName(t, "dotfiles")
	sum1 := checksum.Sum(checksum.TypeMD5, []byte("v1"))
	sum2 := checksum.Sum(checksum.TypeMD5, []byte("v2"))

	state := NewState()
	FromV1(state, V1Operation{
		Timestamp: time.Now(),
		IsBackup:  true,
		Hoard:     hoard,
		Files: []V1File{
			{Pile: names.Anonymous(), RelativePath: "a.txt", Checksum: sum1},
			{Pile: names.Anonymous(), RelativePath: "b.txt", Checksum: sum1},
		},
	})

	second := FromV1(state, V1Operation{
		Timestamp: time.Now().Add(time.Hour),
		IsBackup:  true,
		Hoard:     hoard,
		Files: []V1File{
			{Pile: names.Anonymous(), RelativePath: "a.txt", Checksum: sum2}, // modified
			// b.txt is absent: deleted
		},
	})

	if second.ContainsFile(names.Anonymous(), "a.txt", true) == false {
		t.Error("expected a.txt to be recorded as modified")
	}
	if !second.ContainsFile(names.Anonymous(), "b.txt", false) {
		t.Error("expected b.txt's deletion to be recorded")
	}
}

func TestFromV1DirectionFollowsIsBackup(t *testing.T) {
	hoard := mustHoardName(t, "dotfiles")
	state := NewState()

	backupOp := FromV1(state, V1Operation{Timestamp: time.Now(), IsBackup: true, Hoard: hoard})
	if backupOp.Direction != oplog.Backup {
		t.Errorf("direction = %v, want Backup", backupOp.Direction)
	}

	restoreOp := FromV1(state, V1Operation{Timestamp: time.Now(), IsBackup: false, Hoard: hoard})
	if restoreOp.Direction != oplog.Restore {
		t.Errorf("direction = %v, want Restore", restoreOp.Direction)
	}
}
