package app

import (
	"fmt"
	"path/filepath"

	"github.com/zurustar/midity/pkg/fileutil"
	"github.com/zurustar/midity/pkg/synth"
)

// DefaultSoundFontName is the default SoundFont filename to search for.
const DefaultSoundFontName = "GeneralUser-GS.sf2"

// findSoundFont returns the SoundFont to synthesize with, in this order:
//  1. explicit (--soundfont, or the SOUNDFONT environment variable)
//  2. DefaultSoundFontName next to the MIDI file
//  3. DefaultSoundFontName in the current directory
//
// Directory lookups ignore case.
func findSoundFont(explicit, midiPath string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	dirs := []string{"."}
	if midiPath != "" {
		dirs = []string{filepath.Dir(midiPath), "."}
	}

	path, err := fileutil.FindInDirs(dirs, DefaultSoundFontName)
	if err != nil {
		return "", fmt.Errorf("%w: %v (use --soundfont or SOUNDFONT)", synth.ErrSoundFontNotFound, err)
	}
	return path, nil
}
