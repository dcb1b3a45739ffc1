// Package oplog implements Hoard's versioned, per-device operation log:
// an append-only record of what happened to each pile's files on a given
// backup or restore, used both for history and as the conflict-detection
// oracle. Grounded on the original Rust checkers/history/operation/{v2,
// util}.rs. Only the v2 on-disk shape is modeled directly; v1 (see
// internal/upgrade) exists solely as an upgrade source.
package oplog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"time"

	"github.com/shadow53/hoard/internal/checksum"
	"github.com/shadow53/hoard/internal/names"
)

// Direction records which way an operation copied files.
type Direction int

const (
	// Backup copies system -> hoard.
	Backup Direction = iota
	// Restore copies hoard -> system.
	Restore
)

func (d Direction) String() string {
	if d == Restore {
		return "restore"
	}
	return "backup"
}

// ParseDirection parses the JSON string form of a Direction.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "backup":
		return Backup, nil
	case "restore":
		return Restore, nil
	default:
		return 0, fmt.Errorf("oplog: unknown direction %q", s)
	}
}

// Kind classifies what happened to a single file during an operation.
type Kind int

const (
	Created Kind = iota
	Modified
	Deleted
	Unmodified
)

// timeFormat is Hoard's log-file timestamp format:
// "YYYY_MM_DD-HH_MM_SS.ffffff", matching the original's
// "[year]_[month]_[day]-[hour repr:24]_[minute]_[second].[subsecond
// digits:6]" time format description.
const timeFormat = "2006_01_02-15_04_05.000000"

// logFileName is the regex enforced on log file names when scanning a
// history directory, matching the original's LOG_FILE_REGEX.
var logFileName = regexp.MustCompile(`^[0-9]{4}(_[0-9]{2}){2}-([0-9]{2}_){2}[0-9]{2}\.[0-9]{6}\.log$`)

// IsLogFileName reports whether name matches the enforced log-file naming
// convention.
func IsLogFileName(name string) bool {
	return logFileName.MatchString(name)
}

// anonymousKey is the map key used for the anonymous pile, chosen because
// it is rejected by names.NewNonEmptyPileName and so can never collide
// with a real pile name.
const anonymousKey = ""

func pileKey(p names.PileName) string {
	if p.IsAnonymous() {
		return anonymousKey
	}
	name, _ := p.Name()
	return name.String()
}

// FileEntry is one file's resolved outcome within an Operation, as
// computed by the executor while applying intents.
type FileEntry struct {
	Pile         names.PileName
	RelativePath string
	Kind         Kind
	Checksum     checksum.Checksum
}

// pileRecord groups a pile's files by outcome.
type pileRecord struct {
	Created    map[string]checksum.Checksum
	Modified   map[string]checksum.Checksum
	Unmodified map[string]checksum.Checksum
	Deleted    map[string]struct{}
}

func newPileRecord() *pileRecord {
	return &pileRecord{
		Created:    map[string]checksum.Checksum{},
		Modified:   map[string]checksum.Checksum{},
		Unmodified: map[string]checksum.Checksum{},
		Deleted:    map[string]struct{}{},
	}
}

func (p *pileRecord) add(entry FileEntry) {
	switch entry.Kind {
	case Created:
		p.Created[entry.RelativePath] = entry.Checksum
	case Modified:
		p.Modified[entry.RelativePath] = entry.Checksum
	case Unmodified:
		p.Unmodified[entry.RelativePath] = entry.Checksum
	case Deleted:
		p.Deleted[entry.RelativePath] = struct{}{}
	}
}

// containsFile reports whether rel appears in this pile's record.
// onlyModified excludes the Unmodified bucket, matching the original's
// only_modified flag used by the backup Checker.
func (p *pileRecord) containsFile(rel string, onlyModified bool) bool {
	if _, ok := p.Created[rel]; ok {
		return true
	}
	if _, ok := p.Modified[rel]; ok {
		return true
	}
	if _, ok := p.Deleted[rel]; ok {
		return true
	}
	if !onlyModified {
		if _, ok := p.Unmodified[rel]; ok {
			return true
		}
	}
	return false
}

func (p *pileRecord) checksumFor(rel string) (checksum.Checksum, bool) {
	if c, ok := p.Created[rel]; ok {
		return c, true
	}
	if c, ok := p.Modified[rel]; ok {
		return c, true
	}
	if c, ok := p.Unmodified[rel]; ok {
		return c, true
	}
	return checksum.Checksum{}, false
}

// Operation is one v2 operation log entry: a timestamped record of every
// file touched (or left unmodified) across all piles of one hoard during
// one backup or restore.
type Operation struct {
	Timestamp time.Time
	Direction Direction
	Hoard     names.HoardName
	piles     map[string]*pileRecord
}

// Build constructs an Operation from the per-file outcomes the executor
// computed while applying intents for one hoard.
func Build(timestamp time.Time, direction Direction, hoard names.HoardName, entries []FileEntry) *Operation {
	op := &Operation{
		Timestamp: timestamp,
		Direction: direction,
		Hoard:     hoard,
		piles:     map[string]*pileRecord{},
	}
	for _, e := range entries {
		key := pileKey(e.Pile)
		record, ok := op.piles[key]
		if !ok {
			record = newPileRecord()
			op.piles[key] = record
		}
		record.add(e)
	}
	return op
}

// ContainsFile reports whether the given pile-relative path appears in
// this operation's record for the named pile.
func (op *Operation) ContainsFile(pile names.PileName, rel string, onlyModified bool) bool {
	record, ok := op.piles[pileKey(pile)]
	if !ok {
		return false
	}
	return record.containsFile(rel, onlyModified)
}

// ChecksumFor returns the checksum this operation recorded for a file, if
// any (absent for deleted or untouched files).
func (op *Operation) ChecksumFor(pile names.PileName, rel string) (checksum.Checksum, bool) {
	record, ok := op.piles[pileKey(pile)]
	if !ok {
		return checksum.Checksum{}, false
	}
	return record.checksumFor(rel)
}

// FileSet returns the full set of pile-relative paths this operation
// touched (created, modified, unmodified, or deleted), keyed by pile.
// Used by the Checker's check_has_same_files comparison.
func (op *Operation) FileSet() map[string]map[string]struct{} {
	result := make(map[string]map[string]struct{}, len(op.piles))
	for pile, record := range op.piles {
		set := make(map[string]struct{})
		for rel := range record.Created {
			set[rel] = struct{}{}
		}
		for rel := range record.Modified {
			set[rel] = struct{}{}
		}
		for rel := range record.Unmodified {
			set[rel] = struct{}{}
		}
		for rel := range record.Deleted {
			set[rel] = struct{}{}
		}
		result[pile] = set
	}
	return result
}

// --- JSON encoding ---

type jsonPileRecord struct {
	Created    map[string]checksum.Checksum `json:"created"`
	Modified   map[string]checksum.Checksum `json:"modified"`
	Unmodified map[string]checksum.Checksum `json:"unmodified"`
	Deleted    []string                     `json:"deleted"`
}

type jsonOperation struct {
	Timestamp string                     `json:"timestamp"`
	Direction string                     `json:"direction"`
	Hoard     string                     `json:"hoard"`
	Piles     map[string]jsonPileRecord `json:"piles"`
}

// MarshalJSON implements json.Marshaler.
func (op *Operation) MarshalJSON() ([]byte, error) {
	piles := make(map[string]jsonPileRecord, len(op.piles))
	for key, record := range op.piles {
		deleted := make([]string, 0, len(record.Deleted))
		for rel := range record.Deleted {
			deleted = append(deleted, rel)
		}
		sort.Strings(deleted)
		piles[key] = jsonPileRecord{
			Created:    record.Created,
			Modified:   record.Modified,
			Unmodified: record.Unmodified,
			Deleted:    deleted,
		}
	}
	return json.Marshal(jsonOperation{
		Timestamp: op.Timestamp.UTC().Format(time.RFC3339Nano),
		Direction: op.Direction.String(),
		Hoard:     op.Hoard.String(),
		Piles:     piles,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (op *Operation) UnmarshalJSON(data []byte) error {
	var raw jsonOperation
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ts, err := time.Parse(time.RFC3339Nano, raw.Timestamp)
	if err != nil {
		return fmt.Errorf("oplog: invalid timestamp %q: %w", raw.Timestamp, err)
	}
	direction, err := ParseDirection(raw.Direction)
	if err != nil {
		return err
	}
	hoard, err := names.NewHoardName(raw.Hoard)
	if err != nil {
		return fmt.Errorf("oplog: invalid hoard name: %w", err)
	}

	piles := make(map[string]*pileRecord, len(raw.Piles))
	for key, jr := range raw.Piles {
		record := newPileRecord()
		for rel, c := range jr.Created {
			record.Created[rel] = c
		}
		for rel, c := range jr.Modified {
			record.Modified[rel] = c
		}
		for rel, c := range jr.Unmodified {
			record.Unmodified[rel] = c
		}
		for _, rel := range jr.Deleted {
			record.Deleted[rel] = struct{}{}
		}
		piles[key] = record
	}

	op.Timestamp = ts
	op.Direction = direction
	op.Hoard = hoard
	op.piles = piles
	return nil
}

// ErrNotFound is returned by lookup functions when no matching log entry
// exists.
var ErrNotFound = errors.New("oplog: no matching operation found")

// FileName returns the log file's name for this operation's timestamp,
// matching the enforced naming convention.
func (op *Operation) FileName() string {
	return op.Timestamp.UTC().Format(timeFormat) + ".log"
}

// WriteTo serializes op as JSON to path (under
// history/<uuid>/<hoard>/<filename>) through the supplied write function.
// WriteTo does not create parent directories itself; that is left to
// write (atomicfile.Write creates them).
func WriteTo(path string, op *Operation, write func(path string, data []byte) error) error {
	data, err := json.Marshal(op)
	if err != nil {
		return fmt.Errorf("oplog: marshaling operation: %w", err)
	}
	return write(path, data)
}

// ReadFrom deserializes an Operation from a log file on disk.
func ReadFrom(path string) (*Operation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("oplog: reading %s: %w", path, err)
	}
	op := &Operation{}
	if err := json.Unmarshal(data, op); err != nil {
		return nil, fmt.Errorf("oplog: parsing %s: %w", path, err)
	}
	return op, nil
}
