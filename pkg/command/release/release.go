package release

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/marco79423/poetry-release/pkg/model"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"
)

var (
	ErrDirtyWorktree    = xerrors.New("Repository 中有尚未 commit 的修改，請先 commit")
	ErrVersionUnchanged = xerrors.New("版號沒有改變")
	ErrAborted          = xerrors.New("已取消發布")
)

var timeNow = time.Now

type runOptions struct {
	Level     string
	Config    Config
	DryRun    bool
	AssumeYes bool
}

func Command() *cli.Command {
	return &cli.Command{
		Name:      "release",
		Usage:     "計算下一個版號，更新專案並建立 commit 與 tag",
		ArgsUsage: "[major|minor|patch|release|rc|beta|alpha]",
		Description: "依照發布等級更新 pyproject.toml 的版號，執行 release-replacements，\n" +
			"建立 commit 與 tag 並推送到 origin。發布穩定版後會再建立下一個開發版號的 commit。",
		Flags: []cli.Flag{
			&cli.PathFlag{
				Name:    "path",
				Aliases: []string{"p"},
				Usage:   "Repository 路徑",
				Value:   ".",
			},
			&cli.PathFlag{
				Name:  "project",
				Usage: "pyproject.toml 路徑 (預設為 Repository 下的 pyproject.toml)",
			},
			&cli.BoolFlag{
				Name:  "disable-push",
				Usage: "不推送 commit 與 tag",
			},
			&cli.BoolFlag{
				Name:  "disable-tag",
				Usage: "不建立 tag",
			},
			&cli.BoolFlag{
				Name:  "disable-dev",
				Usage: "發布穩定版後不更新為下一個開發版號",
			},
			&cli.BoolFlag{
				Name:  "sign-commit",
				Usage: "簽署 commit",
			},
			&cli.BoolFlag{
				Name:  "sign-tag",
				Usage: "簽署 tag",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "只顯示會執行的步驟",
			},
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "不詢問直接發布",
			},
			&cli.PathFlag{
				Name:    "keyfile",
				Aliases: []string{"f"},
				Usage:   "Private Key 檔案路徑",
				Value:   defaultKeyFilePath(),
			},
			&cli.StringFlag{
				Name:  "keyfile-password",
				Usage: "Private Key 的密碼",
			},
			&cli.PathFlag{
				Name:  "signing-key",
				Usage: "簽署用的 OpenPGP 私鑰 (ASCII armored)",
			},
			&cli.StringFlag{
				Name:    "signing-key-passphrase",
				Usage:   "簽署用私鑰的密碼",
				EnvVars: []string{"RELEASE_SIGNING_KEY_PASSPHRASE"},
			},
		},
		Action: func(c *cli.Context) error {
			projectPath := c.String("project")
			if projectPath == "" {
				projectPath = filepath.Join(c.String("path"), "pyproject.toml")
			}

			ctx, err := prepareContext(c.Context, &commandOptions{
				RepoPath:             c.String("path"),
				ProjectPath:          projectPath,
				PrivateKeyFilePath:   c.String("keyfile"),
				KeyFilePassword:      c.String("keyfile-password"),
				SigningKeyFilePath:   c.String("signing-key"),
				SigningKeyPassphrase: c.String("signing-key-passphrase"),
				Output:               c.App.Writer,
			})
			if err != nil {
				return xerrors.Errorf("程式執行失敗: %w", err)
			}

			level := c.Args().First()
			if level == "" {
				level = string(model.LevelRelease)
			}

			if err := run(ctx, runOptions{
				Level:     level,
				Config:    configFromCLI(c),
				DryRun:    c.Bool("dry-run"),
				AssumeYes: c.Bool("yes"),
			}); err != nil {
				return xerrors.Errorf("程式執行失敗: %w", err)
			}
			return nil
		},
	}
}

// run 執行發布流程，cliConfig 會覆蓋 pyproject.toml 中的設定
func run(ctx context.Context, options runOptions) error {
	project := getCtxProject(ctx)
	gitRepo := getCtxGitRepo(ctx)
	out := getCtxOutput(ctx)

	cfg := Config{}
	var fileConfig Config
	if err := project.DecodeReleaseSettings(&fileConfig); err != nil {
		return xerrors.Errorf("讀取設定失敗: %w", err)
	}
	cfg.Update(fileConfig)
	cfg.Update(options.Config)

	modified, err := gitRepo.HasModified()
	if err != nil {
		return xerrors.Errorf("發布失敗: %w", err)
	}
	if modified {
		return ErrDirtyWorktree
	}

	level, err := model.ParseReleaseLevel(options.Level)
	if err != nil {
		return err
	}

	current, err := project.Version()
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

	if next.Equal(current) {
		return xerrors.Errorf("%s: %w", current, ErrVersionUnchanged)
	}

	slog.Debug("version computed",
		"current", current.String(),
		"level", level.String(),
		"next", next.String(),
		"dev", dev.String(),
		"has_dev", hasDev,
	)

	if !options.DryRun && !options.AssumeYes {
		confirm := getCtxConfirm(ctx)
		if !confirm(fmt.Sprintf("Release %s %s?", project.Name(), next)) {
			return ErrAborted
		}
	}

	template := Template{
		PackageName: project.Name(),
		PrevVersion: current.String(),
		Version:     next.String(),
		Date:        timeNow().Format("2006-01-02"),
	}
	if hasDev {
		template.NextVersion = dev.String()
	}

	replacer := NewReplacer(template, cfg, filepath.Dir(project.Path()))
	if err := replacer.Validate(); err != nil {
		return err
	}
	messages := replacer.GenerateMessages()

	runDev := hasDev && !cfg.ShouldDisableDev()

	executor := NewExecutor(out, options.DryRun)
	executor.Add(
		func() error { return project.SetVersion(next) },
		true,
		fmt.Sprintf("更新版號: %s -> %s", current, next),
	)
	executor.Add(
		replacer.UpdateReplacements,
		replacer.HasReplacements(),
		"更新 release-replacements 中的檔案",
	)
	executor.Add(
		func() error { return gitRepo.CreateCommit(messages.ReleaseCommit, cfg.ShouldSignCommit()) },
		true,
		fmt.Sprintf("建立 commit: %s", messages.ReleaseCommit),
	)
	executor.Add(
		func() error { return gitRepo.PushCommit(ctx) },
		!cfg.ShouldDisablePush(),
		"推送 commit",
	)
	executor.Add(
		func() error {
			return gitRepo.CreateTag(messages.TagName, messages.TagMessage, cfg.ShouldSignTag())
		},
		!cfg.ShouldDisableTag(),
		fmt.Sprintf("建立 tag: %s", messages.TagName),
	)
	executor.Add(
		func() error { return gitRepo.PushTag(ctx, messages.TagName) },
		!(cfg.ShouldDisableTag() || cfg.ShouldDisablePush()),
		fmt.Sprintf("推送 tag: %s", messages.TagName),
	)
	executor.Add(
		func() error { return project.SetVersion(dev) },
		runDev,
		fmt.Sprintf("更新為下一個開發版號: %s", dev),
	)
	executor.Add(
		func() error { return gitRepo.CreateCommit(messages.PostReleaseCommit, cfg.ShouldSignCommit()) },
		runDev,
		fmt.Sprintf("建立 commit: %s", messages.PostReleaseCommit),
	)
	executor.Add(
		func() error { return gitRepo.PushCommit(ctx) },
		runDev && !cfg.ShouldDisablePush(),
		"推送 commit",
	)

	if err := executor.Run(); err != nil {
		return xerrors.Errorf("發布失敗: %w", err)
	}

	if options.DryRun {
		fmt.Fprintf(out, "Dry run 完成，%s %s 沒有實際發布\n", project.Name(), next)
	} else {
		fmt.Fprintf(out, "%s %s 發布版本成功\n", project.Name(), next)
	}
	return nil
}

func defaultKeyFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".ssh", "id_rsa")
}
