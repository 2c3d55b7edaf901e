package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/marco79423/poetry-release/pkg/command/next"
	"github.com/marco79423/poetry-release/pkg/command/release"
	"github.com/marco79423/poetry-release/pkg/logging"
	"github.com/urfave/cli/v2"
)

var version = "dev"

func main() {
	app := cli.NewApp()
	app.Name = "poetry-release"
	app.Usage = "Poetry 專案的發布小幫手"
	app.Version = version

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "log 等級 (debug, info, warn, error)",
			EnvVars: []string{logging.EnvLogLevel},
		},
	}
	app.Before = func(c *cli.Context) error {
		logging.SetDefaultLogger(app.Name, version, c.String("log-level"))
		return nil
	}

	app.Commands = []*cli.Command{
		release.Command(),
		next.Command(),
	}

	err := app.Run(os.Args)
	if err != nil {
		slog.Debug("command failed", "error", fmt.Sprintf("%+v", err))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
