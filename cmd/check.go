package cmd

import (
	"context"
	"fmt"

	checkpkg "github.com/olimci/albumsync/pkg/check"
	"github.com/olimci/albumsync/pkg/imaging"
	"github.com/olimci/albumsync/pkg/metadata"
	"github.com/urfave/cli/v3"
)

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:   "check",
		Usage:  "report whether exiftool and convert are usable",
		Action: checkAction,
	}
}

func checkAction(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) > 0 {
		return fmt.Errorf("check does not accept arguments")
	}

	cfg, path, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := cfg.ExportOptions()
	report := checkpkg.Run(ctx, opts, metadata.NewExifTool(cfg.Tools.ExifTool), imaging.NewConverter(cfg.Tools.Convert))
	fmt.Printf("config: %s\n", path)
	printCheckReport(report)

	for _, s := range report {
		if s.Required && !s.OK() {
			return fmt.Errorf("%s is required by the configured options: %w", s.Name, s.Err)
		}
	}
	return nil
}
