// Package config reads and writes the albumsync configuration file.
package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/olimci/albumsync/pkg/export"
	"github.com/olimci/albumsync/pkg/imaging"
	"github.com/olimci/albumsync/pkg/logging"
	"github.com/olimci/albumsync/pkg/naming"
	"github.com/olimci/albumsync/pkg/version"
)

type Config struct {
	AlbumSync AlbumSync `toml:"albumsync"` // Application metadata
	Export    Export    `toml:"export"`    // Export defaults, overridden by flags
	Tools     Tools     `toml:"tools"`     // External executables
	Log       Log       `toml:"log"`
}

type AlbumSync struct {
	Version string `toml:"version"` // Application version
}

type Export struct {
	Originals      bool     `toml:"originals"`
	Movies         bool     `toml:"movies"`
	Link           bool     `toml:"link"`
	Delete         bool     `toml:"delete"`
	Update         bool     `toml:"update"`
	Metadata       string   `toml:"metadata"` // off, changed or all
	Size           string   `toml:"size"`     // maximum image size, empty to copy unchanged
	NameTemplate   string   `toml:"name_template"`
	FolderHints    bool     `toml:"folder_hints"`
	Picasa         bool     `toml:"picasa"`
	Faces          bool     `toml:"faces"`
	Places         bool     `toml:"places"`
	ExcludeFolders []string `toml:"exclude_folders"`
}

type Tools struct {
	ExifTool string `toml:"exiftool"`
	Convert  string `toml:"convert"`
}

type Log struct {
	Level string `toml:"level"`
	File  string `toml:"file"` // appended to in addition to stderr
}

func Default() Config {
	return Config{
		AlbumSync: AlbumSync{
			Version: version.Version,
		},
		Export: Export{
			Movies:         true,
			Metadata:       string(export.MetadataOff),
			NameTemplate:   naming.DefaultTemplate,
			ExcludeFolders: []string{},
		},
		Tools: Tools{
			ExifTool: "exiftool",
			Convert:  "convert",
		},
		Log: Log{
			Level: "info",
		},
	}
}

// Validate rejects values no run could use.
func (c Config) Validate() error {
	if _, err := export.ParseMetadataMode(c.Export.Metadata); err != nil {
		return err
	}
	if c.Log.Level != "" && !slices.Contains(logging.Levels, strings.ToLower(c.Log.Level)) {
		return fmt.Errorf("unknown log level %q (want one of %s)", c.Log.Level, strings.Join(logging.Levels, ", "))
	}
	if c.Export.Size != "" {
		if err := imaging.ValidateSize(c.Export.Size); err != nil {
			return err
		}
	}
	return c.ExportOptions().Validate()
}

// ExportOptions converts the [export] section into run options.
func (c Config) ExportOptions() export.Options {
	return export.Options{
		Originals:    c.Export.Originals,
		Movies:       c.Export.Movies,
		Link:         c.Export.Link,
		Delete:       c.Export.Delete,
		Update:       c.Export.Update,
		Metadata:     export.MetadataMode(c.Export.Metadata),
		Size:         c.Export.Size,
		NameTemplate: c.Export.NameTemplate,
		FolderHints:  c.Export.FolderHints,
		Picasa:       c.Export.Picasa,
	}
}
