// Package envtrie implements Hoard's environment resolver (EnvTrie): it
// scores and picks one source value (typically a system path) per pile
// from many "env-string -> value" mappings, using an exclusivity list to
// rank mutually-exclusive environments. Grounded on the original Rust
// implementation's BTreeMap-of-Node trie (config/builder/envtrie.rs),
// translated into an explicit weight DAG with Kahn's-algorithm cycle
// detection (no graph library in the pack — see DESIGN.md).
package envtrie

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shadow53/hoard/internal/names"
)

// Errors mirrors the Rust implementation's resolver error taxonomy.
var (
	ErrNoEnvironments            = errors.New("envtrie: environment string named zero environments")
	ErrEnvironmentNotExist       = errors.New("envtrie: environment does not exist")
	ErrWeightCycle               = errors.New("envtrie: exclusivity list contains a cycle")
	ErrCombinedMutuallyExclusive = errors.New("envtrie: environment string combines mutually exclusive environments")
)

// IndecisionError reports that two environment strings have equal weight
// and neither is preferred.
type IndecisionError struct {
	First, Second string
}

func (e *IndecisionError) Error() string {
	return fmt.Sprintf("envtrie: %q and %q have equal weight; add a more specific condition or make them mutually exclusive", e.First, e.Second)
}

// DoubleDefineError reports that the same combination of environments was
// defined more than once in a single pile.
type DoubleDefineError struct {
	First, Second string
}

func (e *DoubleDefineError) Error() string {
	return fmt.Sprintf("envtrie: the same condition is defined twice, as environment strings %q and %q", e.First, e.Second)
}

// Entry is one "env-string -> value" mapping supplied to Build.
type Entry[V any] struct {
	Env   names.EnvironmentString
	Value V
}

// node is a single link in a reverse-alphabetical chain from leaf (most
// specific name) to root (least specific name, topologically).
type node[V any] struct {
	name   names.EnvironmentName
	score  int
	tree   map[names.EnvironmentName]*node[V]
	value  *V
	source string // original env-string display form, for diagnostics
}

// EnvTrie resolves the best-matching value for a set of evaluated
// environments.
type EnvTrie[V any] struct {
	roots map[names.EnvironmentName]*node[V]
}

// buildWeightedMap constructs the weight DAG from the exclusivity list
// (edges run from lower-priority to higher-priority names, reversed per
// inner list) and returns each name's weight, or ErrWeightCycle if the DAG
// has a cycle.
func buildWeightedMap(exclusivity [][]names.EnvironmentName) (map[names.EnvironmentName]int, error) {
	type edgeSet map[names.EnvironmentName]struct{}
	adjacency := make(map[names.EnvironmentName]edgeSet)
	indegree := make(map[names.EnvironmentName]int)
	ensureNode := func(n names.EnvironmentName) {
		if _, ok := adjacency[n]; !ok {
			adjacency[n] = make(edgeSet)
			indegree[n] = 0
		}
	}

	for _, list := range exclusivity {
		// Reversed list: edges run eN -> eN-1 -> ... -> e1 (higher
		// priority, i.e. earlier in the declared list, ranks higher
		// topologically).
		for i := len(list) - 1; i >= 0; i-- {
			ensureNode(list[i])
		}
		for i := len(list) - 1; i > 0; i-- {
			from, to := list[i], list[i-1]
			if _, exists := adjacency[from][to]; !exists {
				adjacency[from][to] = struct{}{}
				indegree[to]++
			}
		}
	}

	// Kahn's algorithm for topological sort / cycle detection.
	queue := make([]names.EnvironmentName, 0, len(adjacency))
	for n, d := range indegree {
		if d == 0 {
			queue = append(queue, n)
		}
	}
	sort.Slice(queue, func(i, j int) bool { return queue[i] < queue[j] })
	visited := 0
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		visited++
		var next []names.EnvironmentName
		for m := range adjacency[n] {
			indegree[m]--
			if indegree[m] == 0 {
				next = append(next, m)
			}
		}
		sort.Slice(next, func(i, j int) bool { return next[i] < next[j] })
		queue = append(queue, next...)
	}
	if visited != len(adjacency) {
		for n, d := range indegree {
			if d > 0 {
				return nil, fmt.Errorf("%w: %s", ErrWeightCycle, n)
			}
		}
		return nil, ErrWeightCycle
	}

	weights := make(map[names.EnvironmentName]int)
	for _, list := range exclusivity {
		for i := len(list) - 1; i >= 0; i-- {
			score := len(list) - i
			if existing, ok := weights[list[i]]; !ok || score > existing {
				weights[list[i]] = score
			}
		}
	}
	return weights, nil
}

// buildExclusivityMap maps each named environment to the set of all
// environments declared mutually exclusive with it (including itself).
func buildExclusivityMap(exclusivity [][]names.EnvironmentName) map[names.EnvironmentName]map[names.EnvironmentName]struct{} {
	result := make(map[names.EnvironmentName]map[names.EnvironmentName]struct{})
	for _, list := range exclusivity {
		for _, item := range list {
			set, ok := result[item]
			if !ok {
				set = make(map[names.EnvironmentName]struct{})
				result[item] = set
			}
			for _, other := range list {
				set[other] = struct{}{}
			}
		}
	}
	return result
}

// Build constructs an EnvTrie from a list of env-string/value mappings and
// the global exclusivity list.
func Build[V any](entries []Entry[V], exclusivity [][]names.EnvironmentName) (*EnvTrie[V], error) {
	weights, err := buildWeightedMap(exclusivity)
	if err != nil {
		return nil, err
	}
	exclusivityMap := buildExclusivityMap(exclusivity)

	roots := make(map[names.EnvironmentName]*node[V])
	for _, entry := range entries {
		sortedNames := entry.Env.Names()
		for i, a := range sortedNames {
			for _, b := range sortedNames[i+1:] {
				if set, ok := exclusivityMap[a]; ok {
					if _, excluded := set[b]; excluded {
						return nil, fmt.Errorf("%w: %q", ErrCombinedMutuallyExclusive, entry.Env.String())
					}
				}
			}
		}

		if len(sortedNames) == 0 {
			return nil, ErrNoEnvironments
		}

		// Reverse-alphabetical chain: leaf is the alphabetically-largest
		// name (weight fixed at 1, carries the value); each ancestor
		// moving toward the alphabetically-smallest name picks up its
		// DAG-derived weight.
		value := entry.Value
		leafName := sortedNames[len(sortedNames)-1]
		current := &node[V]{
			name:   leafName,
			score:  1,
			value:  &value,
			source: entry.Env.String(),
		}
		for i := len(sortedNames) - 2; i >= 0; i-- {
			name := sortedNames[i]
			score, ok := weights[name]
			if !ok {
				score = 1
			}
			current = &node[V]{
				name:   name,
				score:  score,
				tree:   map[names.EnvironmentName]*node[V]{current.name: current},
				source: entry.Env.String(),
			}
		}

		existing, ok := roots[current.name]
		if !ok {
			roots[current.name] = current
			continue
		}
		merged, err := mergeNodes(existing, current)
		if err != nil {
			return nil, err
		}
		roots[current.name] = merged
	}

	return &EnvTrie[V]{roots: roots}, nil
}

func mergeNodes[V any](a, b *node[V]) (*node[V], error) {
	if a.value != nil && b.value != nil {
		first, second := a.source, b.source
		if second < first {
			first, second = second, first
		}
		return nil, &DoubleDefineError{First: first, Second: second}
	}

	value := a.value
	if value == nil {
		value = b.value
	}

	var tree map[names.EnvironmentName]*node[V]
	switch {
	case a.tree == nil:
		tree = b.tree
	case b.tree == nil:
		tree = a.tree
	default:
		tree = make(map[names.EnvironmentName]*node[V], len(a.tree)+len(b.tree))
		for k, v := range a.tree {
			tree[k] = v
		}
		for k, v := range b.tree {
			if prev, ok := tree[k]; ok {
				merged, err := mergeNodes(prev, v)
				if err != nil {
					return nil, err
				}
				tree[k] = merged
			} else {
				tree[k] = v
			}
		}
	}

	return &node[V]{
		name:   a.name,
		score:  a.score,
		tree:   tree,
		value:  value,
		source: a.source,
	}, nil
}

// evaluation is the result of walking one root's subtree.
type evaluation[V any] struct {
	name   string
	value  *V
	scores []int
}

// isBetterMatchThan implements the tie-break order: a path beats no
// path; a longer score vector beats a shorter one; failing that, the
// element-wise sum of sign differences (scores sorted descending)
// decides; a true tie is Indecision.
func (e evaluation[V]) isBetterMatchThan(other evaluation[V]) (bool, error) {
	switch {
	case other.value == nil:
		return true, nil
	case e.value == nil:
		return false, nil
	}

	if len(e.scores) != len(other.scores) {
		return len(e.scores) > len(other.scores), nil
	}

	sum := 0
	for i := range e.scores {
		switch {
		case e.scores[i] < other.scores[i]:
			sum--
		case e.scores[i] > other.scores[i]:
			sum++
		}
	}
	switch {
	case sum > 0:
		return true, nil
	case sum < 0:
		return false, nil
	default:
		return false, &IndecisionError{First: e.name, Second: other.name}
	}
}

func sortedDesc(scores []int) []int {
	out := make([]int, len(scores))
	copy(out, scores)
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}

func (n *node[V]) evaluate(envs map[names.EnvironmentName]bool) (evaluation[V], error) {
	matched, ok := envs[n.name]
	if !ok {
		return evaluation[V]{}, fmt.Errorf("%w: %s", ErrEnvironmentNotExist, n.name)
	}

	eval := evaluation[V]{name: string(n.name), scores: []int{n.score}}
	if !matched {
		return eval, nil
	}
	eval.value = n.value

	if n.tree != nil {
		childNames := make([]names.EnvironmentName, 0, len(n.tree))
		for name := range n.tree {
			childNames = append(childNames, name)
		}
		sort.Slice(childNames, func(i, j int) bool { return childNames[i] < childNames[j] })

		for _, name := range childNames {
			child := n.tree[name]
			childMatched, ok := envs[name]
			if !ok {
				return evaluation[V]{}, fmt.Errorf("%w: %s", ErrEnvironmentNotExist, name)
			}
			if !childMatched {
				continue
			}
			childEval, err := child.evaluate(envs)
			if err != nil {
				var indecision *IndecisionError
				if errors.As(err, &indecision) {
					return evaluation[V]{}, &IndecisionError{
						First:  indecision.First + " " + string(n.name),
						Second: indecision.Second + " " + string(n.name),
					}
				}
				return evaluation[V]{}, err
			}
			better, err := childEval.isBetterMatchThan(eval)
			if err != nil {
				return evaluation[V]{}, err
			}
			if better {
				eval = childEval
			}
		}
	}

	eval.scores = append(eval.scores, n.score)
	eval.scores = sortedDesc(eval.scores)
	return eval, nil
}

// Resolve returns the best-matching value across all matched roots, or
// nil if no environment matched any root.
func (t *EnvTrie[V]) Resolve(envs map[names.EnvironmentName]bool) (*V, error) {
	var best evaluation[V]
	haveBest := false

	rootNames := make([]names.EnvironmentName, 0, len(t.roots))
	for name := range t.roots {
		rootNames = append(rootNames, name)
	}
	sort.Slice(rootNames, func(i, j int) bool { return rootNames[i] < rootNames[j] })

	for _, name := range rootNames {
		matched, ok := envs[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrEnvironmentNotExist, name)
		}
		if !matched {
			continue
		}
		eval, err := t.roots[name].evaluate(envs)
		if err != nil {
			return nil, err
		}
		if eval.value == nil {
			continue
		}
		if !haveBest {
			best = eval
			haveBest = true
			continue
		}
		better, err := eval.isBetterMatchThan(best)
		if err != nil {
			return nil, err
		}
		if better {
			best = eval
		}
	}

	if !haveBest || best.value == nil {
		return nil, nil
	}
	return best.value, nil
}
