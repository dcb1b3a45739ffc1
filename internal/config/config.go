// Package config implements Hoard's configuration file loading: TOML/YAML
// dispatch by file extension, the environment-condition decoder (with
// strict unknown-key rejection), and ${VAR} path expansion. Grounded on
// mutagen's pkg/encoding/{common,toml,yaml}.go LoadAndUnmarshal pattern,
// adapted to this module's existing go-toml/yaml.v3 dependencies instead
// of mutagen's BurntSushi/toml and yaml.v2.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	toml "github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"

	"github.com/shadow53/hoard/internal/checksum"
	"github.com/shadow53/hoard/internal/condition"
	"github.com/shadow53/hoard/internal/environment"
	"github.com/shadow53/hoard/internal/names"
	"github.com/shadow53/hoard/internal/pileconfig"
)

// Raw is the top-level decoded configuration document: exclusivity
// list, named environments, a global PileConfig layer, and the hoard
// declarations.
type Raw struct {
	Exclusivity  [][]string             `json:"exclusivity" yaml:"exclusivity" toml:"exclusivity"`
	Envs         map[string]interface{} `json:"envs" yaml:"envs" toml:"envs"`
	Config       *pileconfig.Config     `json:"config" yaml:"config" toml:"config"`
	Hoards       map[string]interface{} `json:"hoards" yaml:"hoards" toml:"hoards"`
	Environments map[string]environment.Environment `json:"-" yaml:"-" toml:"-"`
	HoardSpecs   map[string]HoardSpec               `json:"-" yaml:"-" toml:"-"`
}

// Load reads and decodes a config file, dispatching on its extension
// (.toml, or .yaml/.yml), then decodes Envs into Environments with strict
// unknown-key rejection.
func Load(path string) (*Raw, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	raw := &Raw{}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if err := toml.Unmarshal(data, raw); err != nil {
			return nil, fmt.Errorf("config: parsing TOML: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, raw); err != nil {
			return nil, fmt.Errorf("config: parsing YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("config: unrecognized config extension %q", ext)
	}

	envs := make(map[string]environment.Environment, len(raw.Envs))
	for name, spec := range raw.Envs {
		asMap, ok := toStringKeyedMap(spec)
		if !ok {
			return nil, fmt.Errorf("config: environment %q must be a map", name)
		}
		env, err := decodeEnvironment(asMap)
		if err != nil {
			return nil, fmt.Errorf("config: environment %q: %w", name, err)
		}
		envs[name] = env
	}
	raw.Environments = envs

	hoardSpecs, err := decodeHoards(raw.Hoards)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	raw.HoardSpecs = hoardSpecs

	return raw, nil
}

// allowedEnvironmentKeys enforces that unknown keys are rejected at the
// Environment level.
var allowedEnvironmentKeys = map[string]struct{}{
	"hostname":   {},
	"os":         {},
	"env_var":    {},
	"exe_exists": {},
	"path_exists": {},
}

func decodeEnvironment(raw map[string]interface{}) (environment.Environment, error) {
	for key := range raw {
		if _, ok := allowedEnvironmentKeys[key]; !ok {
			return environment.Environment{}, fmt.Errorf("unknown environment key %q", key)
		}
	}

	var env environment.Environment
	var err error

	if v, ok := raw["hostname"]; ok {
		env.Hostname, err = buildCombinator(v, func(s string) (condition.Hostname, error) {
			return condition.Hostname(s), nil
		})
		if err != nil {
			return environment.Environment{}, fmt.Errorf("hostname: %w", err)
		}
	}
	if v, ok := raw["os"]; ok {
		env.OS, err = buildCombinator(v, func(s string) (condition.OperatingSystem, error) {
			return condition.OperatingSystem(s), nil
		})
		if err != nil {
			return environment.Environment{}, fmt.Errorf("os: %w", err)
		}
	}
	if v, ok := raw["env_var"]; ok {
		env.EnvVariable, err = buildCombinator(v, parseEnvVariable)
		if err != nil {
			return environment.Environment{}, fmt.Errorf("env_var: %w", err)
		}
	}
	if v, ok := raw["exe_exists"]; ok {
		env.ExeExists, err = buildCombinator(v, func(s string) (condition.ExeExists, error) {
			return condition.ExeExists(s), nil
		})
		if err != nil {
			return environment.Environment{}, fmt.Errorf("exe_exists: %w", err)
		}
	}
	if v, ok := raw["path_exists"]; ok {
		env.PathExists, err = buildCombinator(v, func(s string) (condition.PathExists, error) {
			return condition.PathExists(s), nil
		})
		if err != nil {
			return environment.Environment{}, fmt.Errorf("path_exists: %w", err)
		}
	}

	return env, nil
}

func parseEnvVariable(s string) (condition.EnvVariable, error) {
	if idx := strings.IndexByte(s, '='); idx >= 0 {
		expected := s[idx+1:]
		return condition.EnvVariable{Var: s[:idx], Expected: &expected}, nil
	}
	return condition.EnvVariable{Var: s}, nil
}

// buildCombinator decodes a Combinator's two-dimensional OR-of-AND wire
// format: every top-level element is ORed, a nested list is ANDed.
// Grounded on original_source's combinator.rs CombinatorInner::Single/
// Multiple untagged enum.
func buildCombinator[T condition.Leaf](raw interface{}, parse func(string) (T, error)) (condition.Combinator[T], error) {
	items, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("expected a list")
	}

	var combinator condition.Combinator[T]
	for _, item := range items {
		switch v := item.(type) {
		case string:
			leaf, err := parse(v)
			if err != nil {
				return nil, err
			}
			combinator = append(combinator, condition.Single(leaf))
		case []interface{}:
			leaves := make([]T, 0, len(v))
			for _, sub := range v {
				s, ok := sub.(string)
				if !ok {
					return nil, fmt.Errorf("expected a string in AND-group, got %T", sub)
				}
				leaf, err := parse(s)
				if err != nil {
					return nil, err
				}
				leaves = append(leaves, leaf)
			}
			combinator = append(combinator, condition.Multiple(leaves))
		default:
			return nil, fmt.Errorf("expected a string or list of strings, got %T", v)
		}
	}
	return combinator, nil
}

// toStringKeyedMap normalizes the two shapes decoders hand back for
// nested maps: map[string]interface{} from YAML/JSON-ish decoders, and
// occasionally map[interface{}]interface{} from older YAML libraries.
func toStringKeyedMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(m))
		for k, val := range m {
			s, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[s] = val
		}
		return out, true
	default:
		return nil, false
	}
}

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ErrMissingEnvVar is returned when ExpandPath references an unset
// environment variable.
type ErrMissingEnvVar struct {
	Var string
}

func (e *ErrMissingEnvVar) Error() string {
	return fmt.Sprintf("config: environment variable %q is not set", e.Var)
}

// ExpandPath expands every ${VAR} reference in a declared path. A
// missing variable is an error; it never silently expands to an empty
// string.
func ExpandPath(path string) (string, error) {
	var firstErr error
	expanded := envVarPattern.ReplaceAllStringFunc(path, func(match string) string {
		name := envVarPattern.FindStringSubmatch(match)[1]
		value, ok := os.LookupEnv(name)
		if !ok && firstErr == nil {
			firstErr = &ErrMissingEnvVar{Var: name}
		}
		return value
	})
	if firstErr != nil {
		return "", firstErr
	}
	return expanded, nil
}

// ChecksumTypeOrDefault returns cfg's ChecksumType if set, else the
// package default (SHA-256), mirroring pileconfig.Resolve's fallback.
func ChecksumTypeOrDefault(cfg *pileconfig.Config) checksum.Type {
	if cfg != nil && cfg.ChecksumType != nil {
		return *cfg.ChecksumType
	}
	return checksum.TypeSHA256
}

// ValidateHoardName is a thin convenience wrapper so callers validating
// top-level Hoards map keys don't need to import names directly.
func ValidateHoardName(s string) (names.HoardName, error) {
	return names.NewHoardName(s)
}
