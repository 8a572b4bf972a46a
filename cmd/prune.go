package cmd

import (
	"context"
	"slices"

	"github.com/urfave/cli/v3"
)

func pruneCommand() *cli.Command {
	return &cli.Command{
		Name:      "prune",
		Usage:     "report or delete exported files that no longer belong to the library",
		ArgsUsage: "<library> <destination>",
		Flags: slices.Concat(selectionFlags(), []cli.Flag{
			&cli.BoolFlag{
				Name:    "originals",
				Aliases: []string{"o"},
				Usage:   "keep exported originals",
			},
			&cli.BoolFlag{
				Name:  "pictures",
				Usage: "treat exported movies as obsolete",
			},
			&cli.BoolFlag{
				Name:    "delete",
				Aliases: []string{"d"},
				Usage:   "delete obsolete files and folders",
			},
			&cli.StringFlag{
				Name:    "name-template",
				Aliases: []string{"n"},
				Usage:   "file name `TEMPLATE` the export used",
			},
			&cli.StringFlag{
				Name:  "size",
				Usage: "the export resized images (their files end in .jpg)",
			},
			&cli.BoolFlag{
				Name:  "folder-hints",
				Usage: "the export used @hint folders",
			},
			&cli.BoolFlag{
				Name:  "picasa",
				Usage: "the export kept originals in .picasaoriginals",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "log what would be deleted without deleting it",
			},
		}),
		Action: pruneAction,
	}
}

func pruneAction(ctx context.Context, cmd *cli.Command) error {
	return runExport(ctx, cmd, true)
}
