package main

import (
	"fmt"
	"os"
	"os/exec"
	"os/user"
	"path/filepath"
	"runtime"

	"github.com/rs/zerolog"

	"github.com/shadow53/hoard/internal/condition"
	"github.com/shadow53/hoard/internal/config"
	"github.com/shadow53/hoard/internal/device"
	"github.com/shadow53/hoard/internal/hoardpath"
	"github.com/shadow53/hoard/internal/iterate"
	"github.com/shadow53/hoard/internal/logging"
	"github.com/shadow53/hoard/internal/names"
	"github.com/shadow53/hoard/internal/pileconfig"
)

// app bundles the loaded config and derived state every subcommand needs.
type app struct {
	log         *logging.Logger
	hoardsRoot  string
	historyRoot string
	deviceID    device.ID
	raw         *config.Raw
	matchedEnvs map[names.EnvironmentName]bool
	exclusivity [][]names.EnvironmentName
}

func defaultConfigDir() string {
	if u, err := user.Current(); err == nil && u.HomeDir != "" {
		return filepath.Join(u.HomeDir, ".config", "hoard")
	}
	return ".hoard"
}

func defaultConfigPath() string {
	return filepath.Join(defaultConfigDir(), "config.toml")
}

func defaultDataDir() string {
	if u, err := user.Current(); err == nil && u.HomeDir != "" {
		return filepath.Join(u.HomeDir, ".local", "share", "hoard")
	}
	return ".hoard-data"
}

func newApp(configPath, hoardsRoot, historyRoot string, verbose bool) (*app, error) {
	raw, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	level := zerolog.InfoLevel
	if envLevel := os.Getenv("HOARD_LOG"); envLevel != "" {
		parsed, err := zerolog.ParseLevel(envLevel)
		if err != nil {
			return nil, fmt.Errorf("parsing HOARD_LOG: %w", err)
		}
		level = parsed
	}
	if verbose && level > zerolog.DebugLevel {
		level = zerolog.DebugLevel
	}
	log := logging.NewRoot(os.Stderr, level)
	logging.DebugEnabled = level <= zerolog.DebugLevel

	ctx, err := systemContext()
	if err != nil {
		return nil, err
	}

	matched, err := resolveEnvironmentNames(raw, ctx)
	if err != nil {
		return nil, err
	}

	exclusivity, err := raw.ExclusivityGroups()
	if err != nil {
		return nil, err
	}

	idPath := filepath.Join(filepath.Dir(configPath), "uuid")
	id, err := device.LoadOrCreate(idPath)
	if err != nil {
		return nil, err
	}

	return &app{
		log:         log,
		hoardsRoot:  hoardsRoot,
		historyRoot: historyRoot,
		deviceID:    id,
		raw:         raw,
		matchedEnvs: matched,
		exclusivity: exclusivity,
	}, nil
}

func systemContext() (*condition.Context, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("reading hostname: %w", err)
	}
	return &condition.Context{
		Hostname: hostname,
		OS:       runtime.GOOS,
		LookupEnv: os.LookupEnv,
		ExeExists: func(name string) bool {
			_, err := exec.LookPath(name)
			return err == nil
		},
		PathExists: func(path string) bool {
			_, err := os.Stat(path)
			return err == nil
		},
	}, nil
}

// resolveEnvironmentNames evaluates every declared environment against ctx
// and re-keys the result by names.EnvironmentName for envtrie.
func resolveEnvironmentNames(raw *config.Raw, ctx *condition.Context) (map[names.EnvironmentName]bool, error) {
	byString, err := evalEnvironments(raw, ctx)
	if err != nil {
		return nil, err
	}
	result := make(map[names.EnvironmentName]bool, len(byString))
	for name, matched := range byString {
		n, err := names.NewEnvironmentName(name)
		if err != nil {
			return nil, fmt.Errorf("environment %q: %w", name, err)
		}
		result[n] = matched
	}
	return result, nil
}

func evalEnvironments(raw *config.Raw, ctx *condition.Context) (map[string]bool, error) {
	result := make(map[string]bool, len(raw.Environments))
	for name, env := range raw.Environments {
		if err := env.Validate(); err != nil {
			return nil, fmt.Errorf("environment %q: %w", name, err)
		}
		result[name] = env.Eval(ctx)
	}
	return result, nil
}

// pileRoot is one resolved pile: its iterate.Root (for walking) plus the
// layered config governing permissions and checksum algorithm.
type pileRoot struct {
	root     iterate.Root
	resolved *pileconfig.Resolved
}

// resolveHoard resolves one hoard's piles against the app's matched
// environments, returning one pileRoot per pile with an applicable entry.
func (a *app) resolveHoard(hoardName string) ([]pileRoot, error) {
	spec, ok := a.raw.HoardSpecs[hoardName]
	if !ok {
		return nil, fmt.Errorf("no such hoard: %q", hoardName)
	}

	paths, err := config.ResolveHoardPaths(spec, a.exclusivity, a.matchedEnvs)
	if err != nil {
		return nil, fmt.Errorf("hoard %q: %w", hoardName, err)
	}

	var out []pileRoot
	for pileNameStr, systemPathStr := range paths {
		pileSpec := spec.Piles[pileNameStr]
		resolved, err := pileconfig.Resolve(pileSpec.Config, spec.Config, a.raw.Config)
		if err != nil {
			return nil, fmt.Errorf("hoard %q pile %q: %w", hoardName, pileNameStr, err)
		}

		pileName, hoardRelative, err := toPileName(pileNameStr)
		if err != nil {
			return nil, fmt.Errorf("hoard %q: %w", hoardName, err)
		}

		hoardPath := filepath.Join(a.hoardsRoot, hoardName, hoardRelative)
		hp, err := hoardpath.NewHoardPath(a.hoardsRoot, hoardPath)
		if err != nil {
			return nil, err
		}
		sp, err := hoardpath.NewSystemPath(a.hoardsRoot, systemPathStr)
		if err != nil {
			return nil, err
		}

		out = append(out, pileRoot{
			root: iterate.Root{
				PileName:     pileName,
				HoardPrefix:  hp,
				SystemPrefix: sp,
				Filter:       resolved.Ignore,
			},
			resolved: resolved,
		})
	}
	return out, nil
}

func toPileName(pileNameStr string) (names.PileName, string, error) {
	if pileNameStr == "" {
		return names.Anonymous(), "", nil
	}
	n, err := names.NewNonEmptyPileName(pileNameStr)
	if err != nil {
		return names.PileName{}, "", err
	}
	return names.Named(n), pileNameStr, nil
}

