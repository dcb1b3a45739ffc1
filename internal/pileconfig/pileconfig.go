// Package pileconfig implements PileConfig: the per-pile settings layer
// (encryption, ignore globs, permissions, checksum algorithm) with
// pile-over-hoard-over-global layering. Grounded on the original Rust
// hoard/pile_config.rs's Config::layer, re-expressed with explicit Go
// struct merging instead of serde defaults.
package pileconfig

import (
	"os/exec"

	"github.com/shadow53/hoard/internal/checksum"
	"github.com/shadow53/hoard/internal/ignore"
)

// defaultFilePermissionsPOSIX and defaultFolderPermissionsPOSIX are the
// POSIX defaults. Resolve applies them on every platform; there is no
// separate per-platform handling.
const (
	defaultFilePermissionsPOSIX   = 0o600
	defaultFolderPermissionsPOSIX = 0o700
)

// SymmetricEncryption holds a declared password or password-command
// encryption configuration. Encryption of the store itself is out of
// scope for the core; this is carried only as config surface.
type SymmetricEncryption struct {
	Password    string
	PasswordCmd []string
}

// AsymmetricEncryption holds a declared public-key encryption
// configuration. Not implemented by the core; see SymmetricEncryption.
type AsymmetricEncryption struct {
	PublicKey string
}

// Encryption is the tagged union of declared encryption configurations.
type Encryption struct {
	Symmetric  *SymmetricEncryption
	Asymmetric *AsymmetricEncryption
}

// Config is one layer of pile configuration. Any layer may leave fields
// unset (nil/zero) to defer to a more general layer.
type Config struct {
	Encryption        *Encryption
	Ignore            []string
	FilePermissions   *uint32
	FolderPermissions *uint32
	ChecksumType      *checksum.Type
}

// Layer merges other (a more general layer, e.g. hoard- or global-level)
// into specific (a more specific layer, e.g. pile-level), preferring
// specific's values. It does not mutate either input; it returns a new
// merged Config.
func Layer(specific, general *Config) *Config {
	if specific == nil && general == nil {
		return &Config{}
	}
	if general == nil {
		copy := *specific
		return &copy
	}
	if specific == nil {
		copy := *general
		return &copy
	}

	result := &Config{
		Encryption:        specific.Encryption,
		FilePermissions:   specific.FilePermissions,
		FolderPermissions: specific.FolderPermissions,
		ChecksumType:      specific.ChecksumType,
	}
	if result.Encryption == nil {
		result.Encryption = general.Encryption
	}
	if result.FilePermissions == nil {
		result.FilePermissions = general.FilePermissions
	}
	if result.FolderPermissions == nil {
		result.FolderPermissions = general.FolderPermissions
	}
	if result.ChecksumType == nil {
		result.ChecksumType = general.ChecksumType
	}

	result.Ignore = make([]string, 0, len(specific.Ignore)+len(general.Ignore))
	result.Ignore = append(result.Ignore, specific.Ignore...)
	result.Ignore = append(result.Ignore, general.Ignore...)

	return result
}

// Resolved is the fully-layered, defaults-applied configuration used at
// runtime for a single pile.
type Resolved struct {
	Encryption        *Encryption
	Ignore            *ignore.Filter
	FilePermissions   uint32
	FolderPermissions uint32
	ChecksumType      checksum.Type
}

// Resolve layers pile-level, hoard-level, and global-level configs (in
// that precedence order) and applies defaults for any field still unset.
func Resolve(pile, hoard, global *Config) (*Resolved, error) {
	merged := Layer(Layer(pile, hoard), global)

	filter, err := ignore.New(merged.Ignore)
	if err != nil {
		return nil, err
	}

	resolved := &Resolved{
		Encryption:        merged.Encryption,
		Ignore:            filter,
		FilePermissions:   defaultFilePermissionsPOSIX,
		FolderPermissions: defaultFolderPermissionsPOSIX,
		ChecksumType:      checksum.TypeSHA256,
	}
	if merged.FilePermissions != nil {
		resolved.FilePermissions = *merged.FilePermissions
	}
	if merged.FolderPermissions != nil {
		resolved.FolderPermissions = *merged.FolderPermissions
	}
	if merged.ChecksumType != nil {
		resolved.ChecksumType = *merged.ChecksumType
	}
	return resolved, nil
}

// ResolvePassword resolves a SymmetricEncryption's password, running
// PasswordCmd if set. No command in cmd/hoard calls it, and the core
// executor never decrypts file contents.
func (e *SymmetricEncryption) ResolvePassword() (string, error) {
	if e.Password != "" {
		return e.Password, nil
	}
	if len(e.PasswordCmd) == 0 {
		return "", nil
	}
	out, err := exec.Command(e.PasswordCmd[0], e.PasswordCmd[1:]...).Output()
	if err != nil {
		return "", err
	}
	return firstLine(out), nil
}

func firstLine(data []byte) string {
	for i, b := range data {
		if b == '\n' {
			end := i
			if end > 0 && data[end-1] == '\r' {
				end--
			}
			return string(data[:end])
		}
	}
	return string(data)
}
