package cmd

import (
	"context"
	"slices"

	"github.com/olimci/albumsync/pkg/check"
	"github.com/olimci/albumsync/pkg/export"
	"github.com/olimci/albumsync/pkg/imaging"
	"github.com/olimci/albumsync/pkg/metadata"
	"github.com/urfave/cli/v3"
)

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Aliases:   []string{"sync"},
		Usage:     "mirror events and albums into a folder tree",
		ArgsUsage: "<library> <destination>",
		Flags:     slices.Concat(selectionFlags(), exportFlags()),
		Action:    exportAction,
	}
}

func exportAction(ctx context.Context, cmd *cli.Command) error {
	return runExport(ctx, cmd, false)
}

// runExport loads config and library, checks the external tools the options
// need and runs the export. With pruneOnly nothing is copied.
func runExport(ctx context.Context, cmd *cli.Command, pruneOnly bool) error {
	libraryDir, dest, err := libraryArgs(cmd)
	if err != nil {
		return err
	}

	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts := applyOptionsFromCommand(cmd, cfg)
	if err := opts.Validate(); err != nil {
		return err
	}
	req, err := requestFromCommand(cmd, cfg, dest)
	if err != nil {
		return err
	}
	req.PruneOnly = pruneOnly

	log, closer, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	exif := metadata.NewExifTool(cfg.Tools.ExifTool)
	conv := imaging.NewConverter(cfg.Tools.Convert)
	if !pruneOnly {
		if err := check.Deps(ctx, opts, exif, conv); err != nil {
			return err
		}
	}

	lib, err := loadLibrary(ctx, cmd, libraryDir, cfg, log)
	if err != nil {
		return err
	}

	var tags export.TagEditor
	if opts.Metadata != export.MetadataOff && !pruneOnly {
		tags = exif
	}
	var resizer export.Resizer
	if opts.Size != "" && !pruneOnly {
		resizer = conv
	}

	env := export.NewEnv(opts, log, tags, resizer)
	res, err := export.Run(ctx, lib, req, env)
	if err != nil {
		return err
	}

	title := "exported " + dest
	if pruneOnly {
		title = "pruned " + dest
	}
	printSummary(title, res, opts.DryRun)
	printChangedPaths(cmd, res.ChangedPaths)
	return nil
}
