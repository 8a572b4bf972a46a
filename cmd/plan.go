package cmd

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/olimci/albumsync/pkg/export"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

func planCommand() *cli.Command {
	return &cli.Command{
		Name:      "plan",
		Usage:     "show the folders and files an export would produce",
		ArgsUsage: "<library> <destination>",
		Flags: slices.Concat(selectionFlags(), exportFlags(), []cli.Flag{
			&cli.StringFlag{
				Name:  "format",
				Value: "text",
				Usage: "output format: text or yaml",
			},
		}),
		Action: planAction,
	}
}

func planAction(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	if format != "text" && format != "yaml" {
		return fmt.Errorf("unknown format %q (expected text or yaml)", format)
	}

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

	log, closer, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	lib, err := loadLibrary(ctx, cmd, libraryDir, cfg, log)
	if err != nil {
		return err
	}

	out, err := export.Plan(lib, req, export.NewEnv(opts, log, nil, nil))
	if err != nil {
		return err
	}
	snap := out.Snapshot()

	if format == "yaml" {
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return fmt.Errorf("encode plan: %w", err)
		}
		return enc.Close()
	}

	dirs, items := out.Counts()
	fmt.Printf("planned %d folder(s), %d item(s) in %s\n", dirs, items, snap.Root)
	for _, d := range snap.Directories {
		fmt.Printf("- %s %s\n", d.Name, dimStyle.Render("("+d.Kind+")"))
		for i, it := range d.Items {
			branch, indent := "|- ", "|  "
			if i == len(d.Items)-1 {
				branch, indent = "`- ", "   "
			}
			fmt.Printf("   %s%s\n", branch, it.File)
			if it.Original != "" && isVerbose(cmd) {
				fmt.Printf("   %s%s\n", indent, dimStyle.Render(it.Original))
			}
		}
	}
	return nil
}
