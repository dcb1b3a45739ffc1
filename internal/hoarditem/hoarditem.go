// Package hoarditem implements HoardItem: a pair of (hoard-side path,
// system-side path) sharing a common pile-relative path, with lazy
// content and checksum accessors. Grounded on the original Rust
// hoard_item/hoard_item.rs.
package hoarditem

import (
	"io/fs"
	"os"

	"github.com/shadow53/hoard/internal/checksum"
	"github.com/shadow53/hoard/internal/hoardpath"
	"github.com/shadow53/hoard/internal/names"
)

// Item is a Hoard-managed path with lazy accessors for both sides'
// content and checksums.
type Item struct {
	PileName     names.PileName
	HoardPrefix  hoardpath.HoardPath
	SystemPrefix hoardpath.SystemPath
	RelativePath hoardpath.RelativePath
}

// New constructs an Item from a pile's prefixes and a shared relative
// path.
func New(pileName names.PileName, hoardPrefix hoardpath.HoardPath, systemPrefix hoardpath.SystemPath, relativePath hoardpath.RelativePath) Item {
	return Item{
		PileName:     pileName,
		HoardPrefix:  hoardPrefix,
		SystemPrefix: systemPrefix,
		RelativePath: relativePath,
	}
}

// HoardPath returns the hoard-controlled path for this item.
func (i Item) HoardPath() hoardpath.HoardPath {
	return i.HoardPrefix.Join(i.RelativePath)
}

// SystemPath returns the system path for this item.
func (i Item) SystemPath() hoardpath.SystemPath {
	return i.SystemPrefix.Join(i.RelativePath)
}

func statIgnoreMissing(path string) (fs.FileInfo, bool, error) {
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return info, true, nil
}

// IsFile reports whether this item is a file: at least one side exists
// and every existing side is a regular file (not a directory).
func (i Item) IsFile() (bool, error) {
	sysInfo, sysExists, err := statIgnoreMissing(i.SystemPath().String())
	if err != nil {
		return false, err
	}
	hoardInfo, hoardExists, err := statIgnoreMissing(i.HoardPath().String())
	if err != nil {
		return false, err
	}
	sysOK := !sysExists || (sysInfo.Mode()&fs.ModeType == 0)
	hoardOK := !hoardExists || (hoardInfo.Mode()&fs.ModeType == 0)
	return sysOK && hoardOK && (sysExists || hoardExists), nil
}

// IsDir reports whether this item is a directory: at least one side
// exists and every existing side is a directory.
func (i Item) IsDir() (bool, error) {
	sysInfo, sysExists, err := statIgnoreMissing(i.SystemPath().String())
	if err != nil {
		return false, err
	}
	hoardInfo, hoardExists, err := statIgnoreMissing(i.HoardPath().String())
	if err != nil {
		return false, err
	}
	sysOK := !sysExists || sysInfo.IsDir()
	hoardOK := !hoardExists || hoardInfo.IsDir()
	return sysOK && hoardOK && (sysExists || hoardExists), nil
}

// SystemPermissions returns the system-side file's permission bits. It
// returns (0, false, nil) if the file does not exist.
func (i Item) SystemPermissions() (fs.FileMode, bool, error) {
	info, exists, err := statIgnoreMissing(i.SystemPath().String())
	if err != nil || !exists {
		return 0, false, err
	}
	return info.Mode().Perm(), true, nil
}

// HoardPermissions returns the hoard-side file's permission bits. It
// returns (0, false, nil) if the file does not exist.
func (i Item) HoardPermissions() (fs.FileMode, bool, error) {
	info, exists, err := statIgnoreMissing(i.HoardPath().String())
	if err != nil || !exists {
		return 0, false, err
	}
	return info.Mode().Perm(), true, nil
}

// readIfPresent reads a file's full contents, returning (nil, false, nil)
// if the file does not exist.
func readIfPresent(path string) ([]byte, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

// SystemContent reads the system-side file's content. It returns
// (nil, false, nil) if the file does not exist.
func (i Item) SystemContent() ([]byte, bool, error) {
	return readIfPresent(i.SystemPath().String())
}

// HoardContent reads the hoard-side file's content. It returns
// (nil, false, nil) if the file does not exist.
func (i Item) HoardContent() ([]byte, bool, error) {
	return readIfPresent(i.HoardPath().String())
}

// SystemChecksum computes the requested checksum type over the
// system-side file's content. It returns a zero Checksum and false if the
// file does not exist.
func (i Item) SystemChecksum(kind checksum.Type) (checksum.Checksum, bool, error) {
	data, exists, err := i.SystemContent()
	if err != nil || !exists {
		return checksum.Checksum{}, false, err
	}
	return checksum.Sum(kind, data), true, nil
}

// HoardChecksum computes the requested checksum type over the hoard-side
// file's content. It returns a zero Checksum and false if the file does
// not exist.
func (i Item) HoardChecksum(kind checksum.Type) (checksum.Checksum, bool, error) {
	data, exists, err := i.HoardContent()
	if err != nil || !exists {
		return checksum.Checksum{}, false, err
	}
	return checksum.Sum(kind, data), true, nil
}
