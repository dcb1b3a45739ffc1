// Package device implements Hoard's device identity: a v4 UUID persisted
// once per machine, used to namespace each device's operation log
// directory. Grounded on mutagen's pkg/identifier package (collision
// resistant identifier generation persisted to disk), generalized to
// thread an explicit ID through constructors rather than hold it as
// global lazy-init state, so tests can inject a fake device.
package device

import (
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/shadow53/hoard/internal/atomicfile"
	"github.com/shadow53/hoard/internal/encoding"
)

// ID identifies one device (one machine's Hoard installation).
type ID struct {
	value string
}

// New generates a fresh random device ID.
func New() ID {
	return ID{value: uuid.NewString()}
}

// Parse validates an existing device ID string (as read back from disk).
func Parse(value string) (ID, error) {
	if _, err := uuid.Parse(value); err != nil {
		return ID{}, fmt.Errorf("device: invalid id %q: %w", value, err)
	}
	return ID{value: value}, nil
}

// String returns the canonical UUID string form, used as the directory
// name under the history root.
func (id ID) String() string { return id.value }

// IsZero reports whether this ID is the zero value (uninitialized).
func (id ID) IsZero() bool { return id.value == "" }

// Short returns a Base62 rendering of the ID's raw bytes, for display in
// places where the full 36-character UUID form is noisier than it needs
// to be (e.g. `hoard list`'s device header).
func (id ID) Short() string {
	raw, err := uuid.Parse(id.value)
	if err != nil {
		return id.value
	}
	return encoding.EncodeBase62(raw[:])
}

// LoadOrCreate reads the device ID from path, creating and persisting a
// fresh one if the file does not yet exist. Concurrent first-start on one
// device is not defended against.
func LoadOrCreate(path string) (ID, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		return Parse(trimNewline(string(data)))
	}
	if !os.IsNotExist(err) {
		return ID{}, fmt.Errorf("device: reading id file: %w", err)
	}

	id := New()
	if err := atomicfile.Write(path, []byte(id.String()+"\n"), 0o600); err != nil {
		return ID{}, fmt.Errorf("device: persisting id: %w", err)
	}
	return id, nil
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
