package envtrie

import (
	"errors"
	"testing"

	"github.com/shadow53/hoard/internal/names"
)

func envName(t *testing.T, s string) names.EnvironmentName {
	t.Helper()
	n, err := names.NewEnvironmentName(s)
	if err != nil {
		t.Fatalf("invalid environment name %q: %v", s, err)
	}
	return n
}

func envString(t *testing.T, parts ...string) names.EnvironmentString {
	t.Helper()
	envNames := make([]names.EnvironmentName, len(parts))
	for i, p := range parts {
		envNames[i] = envName(t, p)
	}
	s, err := names.NewEnvironmentString(envNames...)
	if err != nil {
		t.Fatalf("invalid environment string: %v", err)
	}
	return s
}

// TestTieBreakScenario covers two env-strings "unix|first" and
// "unix|second" both eligible, only "first" true -> "unix|first" wins.
func TestTieBreakScenario(t *testing.T) {
	exclusivity := [][]names.EnvironmentName{
		{envName(t, "first"), envName(t, "second")},
		{envName(t, "unix"), envName(t, "windows")},
	}

	entries := []Entry[string]{
		{Env: envString(t, "unix", "first"), Value: "path-first"},
		{Env: envString(t, "unix", "second"), Value: "path-second"},
	}

	trie, err := Build(entries, exclusivity)
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}

	envs := map[names.EnvironmentName]bool{
		envName(t, "unix"):    true,
		envName(t, "windows"): false,
		envName(t, "first"):   true,
		envName(t, "second"):  false,
	}

	got, err := trie.Resolve(envs)
	if err != nil {
		t.Fatalf("unexpected resolve error: %v", err)
	}
	if got == nil || *got != "path-first" {
		t.Fatalf("expected path-first, got %v", got)
	}
}

// TestIndecisionWhenNotExclusive implements the second half of scenario 4:
// if both "first" and "second" are true and they are not mutually
// exclusive, resolution is an Indecision error.
func TestIndecisionWhenNotExclusive(t *testing.T) {
	// No exclusivity list this time: first and second are independent.
	entries := []Entry[string]{
		{Env: envString(t, "first"), Value: "path-first"},
		{Env: envString(t, "second"), Value: "path-second"},
	}

	trie, err := Build(entries, nil)
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}

	envs := map[names.EnvironmentName]bool{
		envName(t, "first"):  true,
		envName(t, "second"): true,
	}

	_, err = trie.Resolve(envs)
	var indecision *IndecisionError
	if !errors.As(err, &indecision) {
		t.Fatalf("expected Indecision error, got %v", err)
	}
}

func TestDoubleDefine(t *testing.T) {
	entries := []Entry[string]{
		{Env: envString(t, "first"), Value: "path-a"},
		{Env: envString(t, "first"), Value: "path-b"},
	}
	_, err := Build(entries, nil)
	var doubleDefine *DoubleDefineError
	if !errors.As(err, &doubleDefine) {
		t.Fatalf("expected DoubleDefine error, got %v", err)
	}
}

func TestCombinedMutuallyExclusiveRejected(t *testing.T) {
	exclusivity := [][]names.EnvironmentName{
		{envName(t, "first"), envName(t, "second")},
	}
	entries := []Entry[string]{
		{Env: envString(t, "first", "second"), Value: "path"},
	}
	_, err := Build(entries, exclusivity)
	if !errors.Is(err, ErrCombinedMutuallyExclusive) {
		t.Fatalf("expected ErrCombinedMutuallyExclusive, got %v", err)
	}
}

func TestWeightCycleDetected(t *testing.T) {
	exclusivity := [][]names.EnvironmentName{
		{envName(t, "a"), envName(t, "b")},
		{envName(t, "b"), envName(t, "a")},
	}
	entries := []Entry[string]{
		{Env: envString(t, "a"), Value: "path-a"},
	}
	_, err := Build(entries, exclusivity)
	if !errors.Is(err, ErrWeightCycle) {
		t.Fatalf("expected ErrWeightCycle, got %v", err)
	}
}

func TestNoMatchReturnsNil(t *testing.T) {
	entries := []Entry[string]{
		{Env: envString(t, "first"), Value: "path-a"},
	}
	trie, err := Build(entries, nil)
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}
	envs := map[names.EnvironmentName]bool{envName(t, "first"): false}
	got, err := trie.Resolve(envs)
	if err != nil {
		t.Fatalf("unexpected resolve error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for no match, got %v", *got)
	}
}

func TestLongerMatchWins(t *testing.T) {
	// "a" alone maps to path-a; "a|b" maps to path-ab. When both a and b
	// are true, the longer (more specific) match should win.
	entries := []Entry[string]{
		{Env: envString(t, "a"), Value: "path-a"},
		{Env: envString(t, "a", "b"), Value: "path-ab"},
	}
	trie, err := Build(entries, nil)
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}
	envs := map[names.EnvironmentName]bool{
		envName(t, "a"): true,
		envName(t, "b"): true,
	}
	got, err := trie.Resolve(envs)
	if err != nil {
		t.Fatalf("unexpected resolve error: %v", err)
	}
	if got == nil || *got != "path-ab" {
		t.Fatalf("expected path-ab, got %v", got)
	}
}
