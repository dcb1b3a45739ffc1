// Package hoardpath implements Hoard's three disjoint path types:
// HoardPath, SystemPath, and RelativePath. Keeping these distinct at
// function boundaries prevents hoard-side and system-side paths from being
// mixed up, the way mutagen's synchronization core never passes raw
// strings across its path/entry boundary.
package hoardpath

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrInvalidHoardPath indicates a path that does not lie under the hoards
// store root.
var ErrInvalidHoardPath = errors.New("hoardpath: invalid hoard path")

// ErrInvalidSystemPath indicates a path that lies under the hoards store
// root (and so cannot be a system path).
var ErrInvalidSystemPath = errors.New("hoardpath: invalid system path")

// ErrInvalidRelativePath indicates a relative path whose normalized form
// escapes its parent.
var ErrInvalidRelativePath = errors.New("hoardpath: invalid relative path")

// HoardPath is an absolute path that lies under the hoards store root.
type HoardPath struct {
	path string
}

// SystemPath is an absolute path that lies outside the hoards store root.
type SystemPath struct {
	path string
}

// RelativePath is either empty (denoting "the pile itself is a single
// file") or a relative path whose normalization never escapes its parent
// (no leading "..").
type RelativePath struct {
	path string
}

// normalize applies cargo-util-style path normalization: a leading root or
// volume prefix is preserved, "." components are dropped, and ".."
// components pop the previous component unless the tail is itself ".." or
// the path is already empty (in which case ".." is pushed, except that a
// ".." directly under a leading root is dropped). No symlink
// resolution and no filesystem access occur.
func normalize(path string) string {
	if path == "" {
		return ""
	}

	volume := filepath.VolumeName(path)
	rest := path[len(volume):]
	rooted := strings.HasPrefix(rest, string(filepath.Separator)) || strings.HasPrefix(rest, "/")
	rest = strings.ReplaceAll(rest, "\\", "/")

	segments := strings.Split(rest, "/")
	var out []string
	for _, seg := range segments {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(out) == 0 || out[len(out)-1] == ".." {
				if !rooted {
					out = append(out, "..")
				}
			} else {
				out = out[:len(out)-1]
			}
		default:
			out = append(out, seg)
		}
	}

	joined := strings.Join(out, "/")
	if rooted {
		return volume + "/" + joined
	}
	return volume + joined
}

// Normalize applies Hoard's path normalization rules to an arbitrary
// string, without validating which path type the result belongs to.
func Normalize(path string) string {
	return normalize(path)
}

// NewHoardPath validates and constructs a HoardPath. The path must be
// absolute and lie at or under root.
func NewHoardPath(root, path string) (HoardPath, error) {
	normalizedRoot := normalize(root)
	normalizedPath := normalize(path)
	if !isAbsolute(normalizedPath) {
		return HoardPath{}, fmt.Errorf("%w: %q is not absolute", ErrInvalidHoardPath, path)
	}
	if !withinRoot(normalizedRoot, normalizedPath) {
		return HoardPath{}, fmt.Errorf("%w: %q is not under %q", ErrInvalidHoardPath, path, root)
	}
	return HoardPath{path: normalizedPath}, nil
}

// NewSystemPath validates and constructs a SystemPath. The path must be
// absolute and lie strictly outside hoardsRoot.
func NewSystemPath(hoardsRoot, path string) (SystemPath, error) {
	normalizedRoot := normalize(hoardsRoot)
	normalizedPath := normalize(path)
	if !isAbsolute(normalizedPath) {
		return SystemPath{}, fmt.Errorf("%w: %q is not absolute", ErrInvalidSystemPath, path)
	}
	if withinRoot(normalizedRoot, normalizedPath) {
		return SystemPath{}, fmt.Errorf("%w: %q lies under the hoards root %q", ErrInvalidSystemPath, path, hoardsRoot)
	}
	return SystemPath{path: normalizedPath}, nil
}

// NewRelativePath validates and constructs a RelativePath. The empty
// string is valid and denotes the pile-is-a-single-file case. A
// normalized form that starts with ".." (i.e. would escape its parent) is
// rejected.
func NewRelativePath(path string) (RelativePath, error) {
	if path == "" {
		return RelativePath{}, nil
	}
	if isAbsolute(path) {
		return RelativePath{}, fmt.Errorf("%w: %q is absolute", ErrInvalidRelativePath, path)
	}
	normalized := normalize(path)
	if normalized == ".." || strings.HasPrefix(normalized, "../") {
		return RelativePath{}, fmt.Errorf("%w: %q escapes its parent", ErrInvalidRelativePath, path)
	}
	return RelativePath{path: normalized}, nil
}

func isAbsolute(path string) bool {
	if path == "" {
		return false
	}
	if strings.HasPrefix(path, "/") {
		return true
	}
	return filepath.IsAbs(path)
}

func withinRoot(root, path string) bool {
	if root == path {
		return true
	}
	prefix := root
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return strings.HasPrefix(path, prefix)
}

// String returns the raw path string.
func (h HoardPath) String() string { return h.path }

// String returns the raw path string.
func (s SystemPath) String() string { return s.path }

// String returns the raw path string, or "" for the empty relative path.
func (r RelativePath) String() string { return r.path }

// IsEmpty reports whether this is the empty RelativePath (pile-is-a-file
// case).
func (r RelativePath) IsEmpty() bool { return r.path == "" }

// Join appends a RelativePath to a HoardPath, producing a HoardPath.
func (h HoardPath) Join(r RelativePath) HoardPath {
	if r.IsEmpty() {
		return h
	}
	return HoardPath{path: h.path + "/" + r.path}
}

// Join appends a RelativePath to a SystemPath, producing a SystemPath.
func (s SystemPath) Join(r RelativePath) SystemPath {
	if r.IsEmpty() {
		return s
	}
	return SystemPath{path: s.path + "/" + r.path}
}

// StripPrefix computes the RelativePath of p relative to root. Both must
// share the root prefix (p must be root or a descendant of it).
func (h HoardPath) StripPrefix(root HoardPath) (RelativePath, error) {
	return stripPrefix(root.path, h.path)
}

// StripPrefix computes the RelativePath of p relative to root. Both must
// share the root prefix (p must be root or a descendant of it).
func (s SystemPath) StripPrefix(root SystemPath) (RelativePath, error) {
	return stripPrefix(root.path, s.path)
}

func stripPrefix(root, path string) (RelativePath, error) {
	if root == path {
		return RelativePath{}, nil
	}
	prefix := root
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	if !strings.HasPrefix(path, prefix) {
		return RelativePath{}, fmt.Errorf("%w: %q is not under %q", ErrInvalidRelativePath, path, root)
	}
	return NewRelativePath(path[len(prefix):])
}

// Equal reports whether two HoardPaths refer to the same normalized path.
func (h HoardPath) Equal(other HoardPath) bool { return h.path == other.path }

// Equal reports whether two SystemPaths refer to the same normalized path.
func (s SystemPath) Equal(other SystemPath) bool { return s.path == other.path }

// Equal reports whether two RelativePaths refer to the same normalized path.
func (r RelativePath) Equal(other RelativePath) bool { return r.path == other.path }
