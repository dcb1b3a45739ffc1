// Package environment implements Hoard's Environment type: a conjunction
// of optional condition groups (hostname, OS, env var, exe-exists,
// path-exists), each itself an OR-of-ANDs Combinator.
package environment

import (
	"errors"
	"fmt"

	"github.com/shadow53/hoard/internal/condition"
)

// ErrInvalidHostnameGroup is returned when the hostname group is
// only-AND or complex: a host has exactly one hostname, so AND-ing
// hostnames together can never match.
var ErrInvalidHostnameGroup = errors.New("environment: hostname group must not be only-AND or complex")

// ErrInvalidOSGroup is returned when the OS group is only-AND or
// complex: a host has exactly one OS.
var ErrInvalidOSGroup = errors.New("environment: os group must not be only-AND or complex")

// Environment is a named boolean predicate over the machine: all declared
// condition groups must evaluate true for the Environment to match.
type Environment struct {
	Hostname    condition.Combinator[condition.Hostname]
	OS          condition.Combinator[condition.OperatingSystem]
	EnvVariable condition.Combinator[condition.EnvVariable]
	ExeExists   condition.Combinator[condition.ExeExists]
	PathExists  condition.Combinator[condition.PathExists]
}

// Validate enforces that the hostname and OS groups are not only-AND or
// complex, since a host has exactly one hostname and one OS.
func (e Environment) Validate() error {
	if e.Hostname.IsOnlyAnd() || e.Hostname.IsComplex() {
		return ErrInvalidHostnameGroup
	}
	if e.OS.IsOnlyAnd() || e.OS.IsComplex() {
		return ErrInvalidOSGroup
	}
	return nil
}

// Eval evaluates all declared condition groups as a conjunction. Any
// group left empty (zero groups) contributes true.
func (e Environment) Eval(ctx *condition.Context) bool {
	return e.Hostname.Eval(ctx) &&
		e.OS.Eval(ctx) &&
		e.EnvVariable.Eval(ctx) &&
		e.ExeExists.Eval(ctx) &&
		e.PathExists.Eval(ctx)
}

// Resolve evaluates a full set of named environments against a shared
// Context, returning a map suitable for the environment resolver.
func Resolve(envs map[string]Environment, ctx *condition.Context) (map[string]bool, error) {
	result := make(map[string]bool, len(envs))
	for name, env := range envs {
		if err := env.Validate(); err != nil {
			return nil, fmt.Errorf("environment %q: %w", name, err)
		}
		result[name] = env.Eval(ctx)
	}
	return result, nil
}
