package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/olimci/albumsync/pkg/config"
	"github.com/olimci/albumsync/pkg/utils/fileutils"
	"github.com/urfave/cli/v3"
)

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "manage the config file",
		Commands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "write the default config file",
				Action: configInitAction,
			},
			{
				Name:   "show",
				Usage:  "print the effective config",
				Action: configShowAction,
			},
		},
	}
}

func configPath(cmd *cli.Command) (string, error) {
	if path := rootString(cmd, "config"); path != "" {
		return fileutils.AbsPath(path)
	}
	return config.DefaultPath()
}

func configInitAction(_ context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() > 0 {
		return fmt.Errorf("config init does not accept arguments")
	}

	path, err := configPath(cmd)
	if err != nil {
		return err
	}
	if err := config.Init(path); err != nil {
		return err
	}

	fmt.Printf("wrote default config to %s\n", path)
	return nil
}

func configShowAction(_ context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() > 0 {
		return fmt.Errorf("config show does not accept arguments")
	}

	cfg, path, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	fmt.Printf("# %s\n", path)
	return config.Encode(os.Stdout, cfg)
}
