// Package names implements Hoard's validated name types: HoardName,
// EnvironmentName, NonEmptyPileName, PileName, and EnvironmentString.
package names

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// validNamePattern matches the allowed character set for all name types:
// ASCII letters, digits, underscore, and hyphen.
var validNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// reservedConfigName is forbidden for every name type (hoard, environment
// and pile); as a pile name it would collide with the reserved "config"
// key in a hoard's per-environment map.
const reservedConfigName = "config"

// ErrEmptyName is returned when a name string is empty.
var ErrEmptyName = errors.New("names: name must not be empty")

// ErrInvalidCharacters is returned when a name contains characters outside
// [A-Za-z0-9_-].
var ErrInvalidCharacters = errors.New("names: name contains invalid characters")

// ErrReservedName is returned when a name equals the reserved word
// "config".
var ErrReservedName = errors.New("names: \"config\" is a reserved name")

func validate(value string, allowReserved bool) error {
	if value == "" {
		return ErrEmptyName
	}
	if !validNamePattern.MatchString(value) {
		return fmt.Errorf("%w: %q", ErrInvalidCharacters, value)
	}
	if !allowReserved && value == reservedConfigName {
		return ErrReservedName
	}
	return nil
}

// HoardName is the validated name of a hoard.
type HoardName string

// NewHoardName validates and constructs a HoardName.
func NewHoardName(value string) (HoardName, error) {
	if err := validate(value, false); err != nil {
		return "", fmt.Errorf("invalid hoard name: %w", err)
	}
	return HoardName(value), nil
}

func (n HoardName) String() string { return string(n) }

// EnvironmentName is the validated name of a declared environment.
type EnvironmentName string

// NewEnvironmentName validates and constructs an EnvironmentName.
func NewEnvironmentName(value string) (EnvironmentName, error) {
	if err := validate(value, false); err != nil {
		return "", fmt.Errorf("invalid environment name: %w", err)
	}
	return EnvironmentName(value), nil
}

func (n EnvironmentName) String() string { return string(n) }

// NonEmptyPileName is the validated name of a named pile.
type NonEmptyPileName string

// NewNonEmptyPileName validates and constructs a NonEmptyPileName. The
// reserved word "config" is rejected, since it is used as a sentinel key for
// per-hoard configuration overrides.
func NewNonEmptyPileName(value string) (NonEmptyPileName, error) {
	if err := validate(value, false); err != nil {
		return "", fmt.Errorf("invalid pile name: %w", err)
	}
	return NonEmptyPileName(value), nil
}

func (n NonEmptyPileName) String() string { return string(n) }

// PileName identifies either a named pile or the anonymous pile. The zero
// value represents the anonymous pile.
type PileName struct {
	name NonEmptyPileName
	ok   bool
}

// Anonymous returns the PileName denoting the anonymous pile.
func Anonymous() PileName {
	return PileName{}
}

// Named returns the PileName wrapping a specific named pile.
func Named(name NonEmptyPileName) PileName {
	return PileName{name: name, ok: true}
}

// IsAnonymous reports whether this PileName denotes the anonymous pile.
func (p PileName) IsAnonymous() bool {
	return !p.ok
}

// Name returns the wrapped NonEmptyPileName and true, or the zero value and
// false if this PileName is anonymous.
func (p PileName) Name() (NonEmptyPileName, bool) {
	return p.name, p.ok
}

func (p PileName) String() string {
	if !p.ok {
		return "<anonymous>"
	}
	return string(p.name)
}

// EnvironmentString is a non-empty set of EnvironmentNames, all of which
// must evaluate true for a pile entry keyed by this string to apply.
// Equality is set equality: two EnvironmentStrings built from the same
// names in any order (and with any duplicates) are equal.
type EnvironmentString struct {
	names map[EnvironmentName]struct{}
}

// ErrEmptyEnvironmentString is returned when constructing an
// EnvironmentString from zero names.
var ErrEmptyEnvironmentString = errors.New("names: environment string must name at least one environment")

// NewEnvironmentString builds an EnvironmentString from a set of names.
// Duplicate names collapse; at least one distinct name is required.
func NewEnvironmentString(envNames ...EnvironmentName) (EnvironmentString, error) {
	if len(envNames) == 0 {
		return EnvironmentString{}, ErrEmptyEnvironmentString
	}
	set := make(map[EnvironmentName]struct{}, len(envNames))
	for _, n := range envNames {
		set[n] = struct{}{}
	}
	return EnvironmentString{names: set}, nil
}

// ParseEnvironmentString parses the canonical "a|b|c" display form (or any
// pipe-delimited permutation with duplicates) into an EnvironmentString.
func ParseEnvironmentString(value string) (EnvironmentString, error) {
	parts := strings.Split(value, "|")
	names := make([]EnvironmentName, 0, len(parts))
	for _, part := range parts {
		name, err := NewEnvironmentName(part)
		if err != nil {
			return EnvironmentString{}, fmt.Errorf("invalid environment string %q: %w", value, err)
		}
		names = append(names, name)
	}
	return NewEnvironmentString(names...)
}

// Names returns the sorted, deduplicated list of names in this
// EnvironmentString.
func (e EnvironmentString) Names() []EnvironmentName {
	result := make([]EnvironmentName, 0, len(e.names))
	for n := range e.names {
		result = append(result, n)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

// Contains reports whether the given name is a member of this
// EnvironmentString.
func (e EnvironmentString) Contains(name EnvironmentName) bool {
	_, ok := e.names[name]
	return ok
}

// Equal reports whether two EnvironmentStrings contain the same set of
// names.
func (e EnvironmentString) Equal(other EnvironmentString) bool {
	if len(e.names) != len(other.names) {
		return false
	}
	for n := range e.names {
		if _, ok := other.names[n]; !ok {
			return false
		}
	}
	return true
}

// String renders the canonical display form: names sorted ascending and
// joined with "|".
func (e EnvironmentString) String() string {
	names := e.Names()
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = string(n)
	}
	return strings.Join(parts, "|")
}
