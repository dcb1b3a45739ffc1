package config

import (
	"fmt"

	"github.com/shadow53/hoard/internal/envtrie"
	"github.com/shadow53/hoard/internal/names"
)

// ResolveHoardPaths resolves every pile in a hoard spec against the
// matched-environments set, returning each matching pile's ${VAR}-expanded
// system path keyed by pile name ("" for the anonymous pile). A pile with no entry matching any active environment
// is silently omitted, mirroring the original's "no applicable value"
// behavior (it simply isn't synced on this machine).
func ResolveHoardPaths(spec HoardSpec, exclusivity [][]names.EnvironmentName, matchedEnvs map[names.EnvironmentName]bool) (map[string]string, error) {
	result := make(map[string]string, len(spec.Piles))
	for pileName, pileSpec := range spec.Piles {
		entries := make([]envtrie.Entry[string], 0, len(pileSpec.Paths))
		for envStr, path := range pileSpec.Paths {
			env, err := names.ParseEnvironmentString(envStr)
			if err != nil {
				return nil, fmt.Errorf("pile %q: %w", pileName, err)
			}
			entries = append(entries, envtrie.Entry[string]{Env: env, Value: path})
		}

		trie, err := envtrie.Build(entries, exclusivity)
		if err != nil {
			return nil, fmt.Errorf("pile %q: %w", pileName, err)
		}

		rawPath, err := trie.Resolve(matchedEnvs)
		if err != nil {
			return nil, fmt.Errorf("pile %q: %w", pileName, err)
		}
		if rawPath == nil {
			continue
		}

		expanded, err := ExpandPath(*rawPath)
		if err != nil {
			return nil, fmt.Errorf("pile %q: %w", pileName, err)
		}
		result[pileName] = expanded
	}
	return result, nil
}
