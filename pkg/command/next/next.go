package next

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/marco79423/poetry-release/pkg/model"
	"github.com/marco79423/poetry-release/pkg/util"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"
)

func Command() *cli.Command {
	return &cli.Command{
		Name:      "next",
		Usage:     "只顯示下一個版號，不修改任何檔案",
		ArgsUsage: "[major|minor|patch|release|rc|beta|alpha]",
		Flags: []cli.Flag{
			&cli.PathFlag{
				Name:    "path",
				Aliases: []string{"p"},
				Usage:   "Repository 路徑",
				Value:   ".",
			},
			&cli.StringFlag{
				Name:  "current",
				Usage: "指定目前的版號 (不讀取 pyproject.toml)",
			},
		},
		Action: func(c *cli.Context) error {
			rawCurrent := c.String("current")
			if rawCurrent == "" {
				project, err := util.OpenProject(filepath.Join(c.String("path"), "pyproject.toml"))
				if err != nil {
					return xerrors.Errorf("程式執行失敗: %w", err)
				}
				current, err := project.Version()
				if err != nil {
					return xerrors.Errorf("程式執行失敗: %w", err)
				}
				rawCurrent = current.String()
			}

			level := c.Args().First()
			if level == "" {
				level = string(model.LevelRelease)
			}

			if err := printNext(c.App.Writer, rawCurrent, level); err != nil {
				return xerrors.Errorf("程式執行失敗: %w", err)
			}
			return nil
		},
	}
}

func printNext(out io.Writer, rawCurrent, rawLevel string) error {
	current, err := model.ParseVersion(rawCurrent)
	if err != nil {
		return err
	}

	level, err := model.ParseReleaseLevel(rawLevel)
	if err != nil {
		return err
	}

	releaser := model.NewReleaseVersion(current, level)
	next, err := releaser.NextVersion()
	if err != nil {
		return err
	}
	dev, hasDev, err := releaser.NextDevVersion()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "current: %s\n", current)
	fmt.Fprintf(out, "next:    %s\n", next)
	if hasDev {
		fmt.Fprintf(out, "dev:     %s\n", dev)
	}
	return nil
}
