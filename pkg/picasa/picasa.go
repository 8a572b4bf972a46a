// Package picasa reads the per-folder .picasa.ini files Picasa keeps next to
// the images it manages.
package picasa

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/ini.v1"
)

const (
	IniFile      = ".picasa.ini"
	OriginalsDir = ".picasaoriginals"
)

// Folder is the folder-level part of a .picasa.ini file.
type Folder struct {
	Name        string
	Description string
}

// ReadFolder loads dir/.picasa.ini. A missing file yields a zero Folder.
func ReadFolder(dir string) (Folder, error) {
	path := filepath.Join(dir, IniFile)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Folder{}, nil
		}
		return Folder{}, fmt.Errorf("stat %s: %w", path, err)
	}

	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:       true,
		UnescapeValueDoubleQuotes: true,
	}, path)
	if err != nil {
		return Folder{}, fmt.Errorf("read %s: %w", path, err)
	}

	section := cfg.Section("Picasa")
	return Folder{
		Name:        section.Key("name").String(),
		Description: section.Key("description").String(),
	}, nil
}
