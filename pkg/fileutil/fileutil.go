// Package fileutil locates files by name without regard to case, so that
// MIDI files and SoundFonts copied from case-insensitive file systems are
// still found.
package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when no file matches.
var ErrNotFound = errors.New("file not found")

// FindFileCaseInsensitive searches dir for a regular file whose name equals
// filename ignoring case, and returns its actual path.
//
//	path, err := FindFileCaseInsensitive("/music", "Song.MID")
//	// finds "song.mid", "SONG.MID", ...
func FindFileCaseInsensitive(dir, filename string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	// An exact match wins over a case-folded one.
	match := ""
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if entry.Name() == filename {
			return filepath.Join(dir, entry.Name()), nil
		}
		if match == "" && strings.EqualFold(entry.Name(), filename) {
			match = entry.Name()
		}
	}
	if match != "" {
		return filepath.Join(dir, match), nil
	}

	return "", fmt.Errorf("%w: %s (searched in %s)", ErrNotFound, filename, dir)
}

// FindInDirs tries each directory in order and returns the first match.
// Empty entries and directories that cannot be read are skipped.
func FindInDirs(dirs []string, filename string) (string, error) {
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if path, err := FindFileCaseInsensitive(dir, filename); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %s (searched in %s)", ErrNotFound, filename, strings.Join(dirs, ", "))
}

// ResolvePath returns path itself when it exists, and otherwise looks up its
// base name case-insensitively within its directory.
func ResolvePath(path string) (string, error) {
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return path, nil
	}
	found, err := FindFileCaseInsensitive(filepath.Dir(path), filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return found, nil
}
