package cmd

import (
	"context"

	"github.com/olimci/albumsync/pkg/version"
	"github.com/urfave/cli/v3"
)

// Commands:
// export <library> <dest>
//   mirrors the selected events and albums into dest
//   - steps:
//   - discover: walk the library and plan one folder per selected container
//   - scan: compare dest against the plan, report or delete what is obsolete
//   - generate: copy, link or resize every new or outdated item, then fix its metadata
//
// prune <library> <dest>
//   runs discover and scan only
//
// plan <library> <dest>
//   prints the planned folders and files without touching dest
//
// check
//   reports whether exiftool and convert are usable
//
// inspect <file>
//   prints the embedded metadata of a file
//
// config init|show
//   writes the default config file or prints the effective config

func Execute(ctx context.Context, args []string) error {
	app := &cli.Command{
		Name:    "albumsync",
		Usage:   "mirror an iPhoto library into a folder tree",
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "log debug details and show changed filesystem paths",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "config file (default $ALBUMSYNC_CONFIG or the user config directory)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level: debug, info, warn or error",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "also append log output to this file",
			},
		},
		Commands: []*cli.Command{
			exportCommand(),
			pruneCommand(),
			planCommand(),
			checkCommand(),
			inspectCommand(),
			configCommand(),
			versionCommand(),
		},
	}

	return app.Run(ctx, args)
}
