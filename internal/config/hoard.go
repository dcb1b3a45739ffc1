package config

import (
	"fmt"

	"github.com/shadow53/hoard/internal/checksum"
	"github.com/shadow53/hoard/internal/names"
	"github.com/shadow53/hoard/internal/pileconfig"
)

// PileSpec is one pile's declaration: a per-pile config override (if any)
// and its env-string -> unexpanded-path mapping.
type PileSpec struct {
	Config *pileconfig.Config
	Paths  map[string]string
}

// HoardSpec is one hoard's declaration: a per-hoard config override, and
// its piles keyed by name ("" denotes the single anonymous pile).
type HoardSpec struct {
	Config *pileconfig.Config
	Piles  map[string]PileSpec
}

// decodeHoards converts the raw "hoards" table into HoardSpecs. A hoard
// whose non-"config" values are all strings is a single-pile hoard (keys
// are environment strings mapping directly to a path); otherwise each
// non-"config" key names a pile, whose value is itself a single-pile-
// shaped map.
func decodeHoards(raw map[string]interface{}) (map[string]HoardSpec, error) {
	hoards := make(map[string]HoardSpec, len(raw))
	for name, v := range raw {
		m, ok := toStringKeyedMap(v)
		if !ok {
			return nil, fmt.Errorf("hoard %q must be a map", name)
		}
		spec, err := decodeHoardSpec(m)
		if err != nil {
			return nil, fmt.Errorf("hoard %q: %w", name, err)
		}
		hoards[name] = spec
	}
	return hoards, nil
}

func decodeHoardSpec(raw map[string]interface{}) (HoardSpec, error) {
	spec := HoardSpec{Piles: map[string]PileSpec{}}

	if cfgRaw, ok := raw["config"]; ok {
		cfg, err := decodePileConfig(cfgRaw)
		if err != nil {
			return HoardSpec{}, fmt.Errorf("config: %w", err)
		}
		spec.Config = cfg
	}

	allString := true
	for key, v := range raw {
		if key == "config" {
			continue
		}
		if _, ok := v.(string); !ok {
			allString = false
			break
		}
	}

	if allString {
		paths := make(map[string]string)
		for key, v := range raw {
			if key == "config" {
				continue
			}
			paths[key] = v.(string)
		}
		spec.Piles[""] = PileSpec{Paths: paths}
		return spec, nil
	}

	for key, v := range raw {
		if key == "config" {
			continue
		}
		m, ok := toStringKeyedMap(v)
		if !ok {
			return HoardSpec{}, fmt.Errorf("pile %q must be a map", key)
		}
		pileSpec, err := decodePileSpec(m)
		if err != nil {
			return HoardSpec{}, fmt.Errorf("pile %q: %w", key, err)
		}
		spec.Piles[key] = pileSpec
	}
	return spec, nil
}

func decodePileSpec(raw map[string]interface{}) (PileSpec, error) {
	spec := PileSpec{Paths: map[string]string{}}
	if cfgRaw, ok := raw["config"]; ok {
		cfg, err := decodePileConfig(cfgRaw)
		if err != nil {
			return PileSpec{}, fmt.Errorf("config: %w", err)
		}
		spec.Config = cfg
	}
	for key, v := range raw {
		if key == "config" {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return PileSpec{}, fmt.Errorf("path for environment string %q must be a string", key)
		}
		spec.Paths[key] = s
	}
	return spec, nil
}

// decodePileConfig decodes one PileConfig layer (global, hoard, or pile
// level). An "encryption" key is not decoded, so a Config loaded from a
// file always has a nil Encryption; encryption of the store itself is not
// implemented by the core.
func decodePileConfig(raw interface{}) (*pileconfig.Config, error) {
	m, ok := toStringKeyedMap(raw)
	if !ok {
		return nil, fmt.Errorf("expected a map")
	}

	cfg := &pileconfig.Config{}

	if v, ok := m["ignore"]; ok {
		items, ok := v.([]interface{})
		if !ok {
			return nil, fmt.Errorf("ignore must be a list of strings")
		}
		for _, item := range items {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("ignore entries must be strings")
			}
			cfg.Ignore = append(cfg.Ignore, s)
		}
	}

	if v, ok := m["file_permissions"]; ok {
		perm, err := toUint32(v)
		if err != nil {
			return nil, fmt.Errorf("file_permissions: %w", err)
		}
		cfg.FilePermissions = &perm
	}

	if v, ok := m["folder_permissions"]; ok {
		perm, err := toUint32(v)
		if err != nil {
			return nil, fmt.Errorf("folder_permissions: %w", err)
		}
		cfg.FolderPermissions = &perm
	}

	if v, ok := m["checksum_type"]; ok {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("checksum_type must be a string")
		}
		t, err := checksum.ParseType(s)
		if err != nil {
			return nil, err
		}
		cfg.ChecksumType = &t
	}

	return cfg, nil
}

func toUint32(v interface{}) (uint32, error) {
	switch n := v.(type) {
	case int64:
		return uint32(n), nil
	case int:
		return uint32(n), nil
	case float64:
		return uint32(n), nil
	default:
		return 0, fmt.Errorf("expected an integer, got %T", v)
	}
}

// ExclusivityGroups converts the raw exclusivity list into
// names.EnvironmentName groups, for use with envtrie.Build.
func (r *Raw) ExclusivityGroups() ([][]names.EnvironmentName, error) {
	groups := make([][]names.EnvironmentName, 0, len(r.Exclusivity))
	for _, group := range r.Exclusivity {
		names_ := make([]names.EnvironmentName, 0, len(group))
		for _, s := range group {
			n, err := names.NewEnvironmentName(s)
			if err != nil {
				return nil, err
			}
			names_ = append(names_, n)
		}
		groups = append(groups, names_)
	}
	return groups, nil
}
