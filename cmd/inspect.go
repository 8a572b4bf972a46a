package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/olimci/albumsync/pkg/metadata"
	"github.com/olimci/albumsync/pkg/utils/fileutils"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

func inspectCommand() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "show the embedded metadata of a file",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "format",
				Value: "text",
				Usage: "output format: text or yaml",
			},
			&cli.BoolFlag{
				Name:  "native",
				Usage: "read EXIF directly instead of running exiftool",
			},
		},
		Action: inspectAction,
	}
}

type inspection struct {
	File   string        `yaml:"file"`
	Reader string        `yaml:"reader"`
	Tags   metadata.Tags `yaml:"tags"`
}

func inspectAction(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) != 1 {
		return fmt.Errorf("inspect requires exactly one file argument")
	}
	format := cmd.String("format")
	if format != "text" && format != "yaml" {
		return fmt.Errorf("unknown format %q (expected text or yaml)", format)
	}

	path, err := fileutils.AbsPath(args[0])
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return err
	}

	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	res := inspection{File: path}
	exif := metadata.NewExifTool(cfg.Tools.ExifTool)
	if !cmd.Bool("native") && exif.Check(ctx) == nil {
		res.Reader = "exiftool"
		res.Tags, err = exif.Read(ctx, path)
	} else {
		res.Reader = "native"
		res.Tags, err = metadata.NativeReader{}.Read(ctx, path)
	}
	if err != nil {
		return err
	}

	if format == "yaml" {
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("encode metadata: %w", err)
		}
		return enc.Close()
	}

	fmt.Printf("%s %s\n", titleStyle.Render(res.File), dimStyle.Render("("+res.Reader+")"))
	printTag("caption", res.Tags.Caption)
	printTag("keywords", strings.Join(res.Tags.Keywords, ", "))
	if !res.Tags.Date.IsZero() {
		printTag("date", res.Tags.Date.Format(metadata.DateLayout))
	}
	if res.Tags.Rating != 0 {
		printTag("rating", fmt.Sprint(res.Tags.Rating))
	}
	if res.Tags.GPS != nil {
		printTag("gps", fmt.Sprintf("%.6f, %.6f", res.Tags.GPS.Latitude, res.Tags.GPS.Longitude))
	}
	return nil
}

func printTag(label, value string) {
	if value == "" {
		value = dimStyle.Render("(none)")
	}
	fmt.Printf("  %s%s\n", labelStyle.Render(label), value)
}
