package cmd

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/olimci/albumsync/pkg/config"
	"github.com/olimci/albumsync/pkg/export"
	"github.com/olimci/albumsync/pkg/iphoto"
	"github.com/olimci/albumsync/pkg/logging"
	"github.com/olimci/albumsync/pkg/utils/fileutils"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
)

func selectionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "albums",
			Aliases: []string{"a"},
			Usage:   "export albums whose name starts with `PATTERN`",
		},
		&cli.StringFlag{
			Name:    "events",
			Aliases: []string{"e"},
			Usage:   "export events whose name starts with `PATTERN`",
		},
		&cli.StringFlag{
			Name:    "smarts",
			Aliases: []string{"s"},
			Usage:   "export smart albums whose name starts with `PATTERN`",
		},
		&cli.StringFlag{
			Name:    "exclude",
			Aliases: []string{"x"},
			Usage:   "skip containers whose own name starts with `PATTERN`",
		},
		&cli.StringSliceFlag{
			Name:  "exclude-folders",
			Usage: "destination folders to leave alone (comma separated, repeatable)",
		},
		&cli.BoolFlag{
			Name:  "faces",
			Usage: "add face names to keywords",
		},
		&cli.BoolFlag{
			Name:  "places",
			Usage: "add place names to keywords",
		},
	}
}

func exportFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:    "originals",
			Aliases: []string{"o"},
			Usage:   "also export unedited originals",
		},
		&cli.BoolFlag{
			Name:  "pictures",
			Usage: "skip movies",
		},
		&cli.BoolFlag{
			Name:    "link",
			Aliases: []string{"l"},
			Usage:   "hard link files instead of copying them",
		},
		&cli.BoolFlag{
			Name:    "delete",
			Aliases: []string{"d"},
			Usage:   "delete obsolete files and folders",
		},
		&cli.BoolFlag{
			Name:    "update",
			Aliases: []string{"u"},
			Usage:   "replace exported files that are out of date",
		},
		&cli.BoolFlag{
			Name:    "metadata",
			Aliases: []string{"k"},
			Usage:   "update embedded metadata of newly exported files",
		},
		&cli.BoolFlag{
			Name:    "metadata-all",
			Aliases: []string{"K"},
			Usage:   "check and update embedded metadata of every exported file",
		},
		&cli.StringFlag{
			Name:    "name-template",
			Aliases: []string{"n"},
			Usage:   "file name `TEMPLATE` using ${caption} and ${index}",
		},
		&cli.StringFlag{
			Name:  "size",
			Usage: "shrink images to fit `WxH`",
		},
		&cli.BoolFlag{
			Name:  "folder-hints",
			Usage: "place albums in the subfolder named by an @hint comment line",
		},
		&cli.BoolFlag{
			Name:  "picasa",
			Usage: "keep originals in .picasaoriginals and compare .picasa.ini descriptions",
		},
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: "log what would change without changing anything",
		},
	}
}

// applyOptionsFromCommand overlays the flags that were set on the [export]
// config section.
func applyOptionsFromCommand(cmd *cli.Command, cfg config.Config) export.Options {
	opts := cfg.ExportOptions()
	if cmd == nil {
		return opts
	}

	bools := []struct {
		flag   string
		target *bool
	}{
		{"originals", &opts.Originals},
		{"link", &opts.Link},
		{"delete", &opts.Delete},
		{"update", &opts.Update},
		{"folder-hints", &opts.FolderHints},
		{"picasa", &opts.Picasa},
		{"dry-run", &opts.DryRun},
	}
	for _, b := range bools {
		if cmd.IsSet(b.flag) {
			*b.target = cmd.Bool(b.flag)
		}
	}

	if cmd.IsSet("pictures") {
		opts.Movies = !cmd.Bool("pictures")
	}
	switch {
	case cmd.Bool("metadata-all"):
		opts.Metadata = export.MetadataAll
	case cmd.Bool("metadata"):
		opts.Metadata = export.MetadataChanged
	}
	if cmd.IsSet("name-template") {
		opts.NameTemplate = cmd.String("name-template")
	}
	if cmd.IsSet("size") {
		opts.Size = cmd.String("size")
	}
	return opts
}

// requestFromCommand compiles the selection patterns. Unset patterns skip
// that kind of container.
func requestFromCommand(cmd *cli.Command, cfg config.Config, dest string) (export.Request, error) {
	req := export.Request{
		Root:           dest,
		ExcludeFolders: cfg.Export.ExcludeFolders,
	}

	patterns := []struct {
		flag   string
		target **regexp.Regexp
	}{
		{"events", &req.Events},
		{"albums", &req.Albums},
		{"smarts", &req.Smarts},
		{"exclude", &req.Exclude},
	}
	for _, p := range patterns {
		if !cmd.IsSet(p.flag) {
			continue
		}
		// An empty exclude pattern would match every name.
		if p.flag == "exclude" && cmd.String(p.flag) == "" {
			continue
		}
		re, err := export.CompilePattern(cmd.String(p.flag))
		if err != nil {
			return export.Request{}, fmt.Errorf("--%s: %w", p.flag, err)
		}
		*p.target = re
	}
	if req.Events == nil && req.Albums == nil && req.Smarts == nil {
		return export.Request{}, fmt.Errorf("%w: use --events, --albums or --smarts", export.ErrNothingSelected)
	}

	if cmd.IsSet("exclude-folders") {
		req.ExcludeFolders = splitList(cmd.StringSlice("exclude-folders"))
	}
	return req, nil
}

func splitList(values []string) []string {
	var out []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// libraryArgs resolves the <library> <destination> arguments.
func libraryArgs(cmd *cli.Command) (string, string, error) {
	args := cmd.Args().Slice()
	if len(args) != 2 {
		return "", "", fmt.Errorf("%s requires <library> and <destination> arguments", cmd.Name)
	}

	library, err := fileutils.AbsPath(args[0])
	if err != nil {
		return "", "", fmt.Errorf("library: %w", err)
	}
	dest, err := fileutils.AbsPath(args[1])
	if err != nil {
		return "", "", fmt.Errorf("destination: %w", err)
	}
	if library == dest || fileutils.IsDescendant(library, dest) {
		return "", "", fmt.Errorf("destination %s is inside the library %s", dest, library)
	}
	return library, dest, nil
}

func rootString(cmd *cli.Command, name string) string {
	if cmd == nil {
		return ""
	}
	if v := cmd.String(name); v != "" {
		return v
	}
	root := cmd.Root()
	if root == nil {
		return ""
	}
	return root.String(name)
}

// loadConfig reads the file named by --config, or the default config file.
func loadConfig(cmd *cli.Command) (config.Config, string, error) {
	path := rootString(cmd, "config")
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return config.Config{}, "", err
		}
	} else {
		abs, err := fileutils.AbsPath(path)
		if err != nil {
			return config.Config{}, "", err
		}
		path = abs
	}

	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, "", err
	}
	return cfg, path, nil
}

func newLogger(cmd *cli.Command, cfg config.Config) (*logrus.Logger, io.Closer, error) {
	opts := logging.Options{
		Level:   cfg.Log.Level,
		File:    cfg.Log.File,
		Verbose: isVerbose(cmd),
	}
	if level := rootString(cmd, "log-level"); level != "" {
		opts.Level = level
	}
	if file := rootString(cmd, "log-file"); file != "" {
		opts.File = fileutils.ExpandHome(file)
	}
	return logging.New(opts)
}

func loadLibrary(ctx context.Context, cmd *cli.Command, dir string, cfg config.Config, log logrus.FieldLogger) (*iphoto.Library, error) {
	faces := cfg.Export.Faces
	if cmd.IsSet("faces") {
		faces = cmd.Bool("faces")
	}
	places := cfg.Export.Places
	if cmd.IsSet("places") {
		places = cmd.Bool("places")
	}

	lib, err := iphoto.Load(ctx, dir, iphoto.LoadOptions{Faces: faces, Places: places, Log: log})
	if err != nil {
		return nil, err
	}
	log.WithField("version", lib.Version).Infof("loaded library %s", dir)
	return lib, nil
}
