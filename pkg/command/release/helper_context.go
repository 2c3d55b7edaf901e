package release

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/c-bata/go-prompt"
	"github.com/marco79423/poetry-release/pkg/util"
	"golang.org/x/xerrors"
)

type contextKey string

const (
	ctxKeyProject contextKey = "project"
	ctxKeyGitRepo contextKey = "gitRepo"
	ctxKeyConfirm contextKey = "confirm"
	ctxKeyOutput  contextKey = "output"
)

// confirmFunc 詢問使用者是否繼續
type confirmFunc func(question string) bool

type commandOptions struct {
	RepoPath             string
	ProjectPath          string
	PrivateKeyFilePath   string
	KeyFilePassword      string
	SigningKeyFilePath   string
	SigningKeyPassphrase string
	Output               io.Writer
}

// 準備所需要的 Context
func prepareContext(ctx context.Context, options *commandOptions) (context.Context, error) {
	// 讀取專案設定
	project, err := util.OpenProject(options.ProjectPath)
	if err != nil {
		return nil, xerrors.Errorf("準備 Context 失敗: %w", err)
	}

	signingKey, err := util.GetSigningKey(options.SigningKeyFilePath, options.SigningKeyPassphrase)
	if err != nil {
		return nil, xerrors.Errorf("準備 Context 失敗: %w", err)
	}

	// 開啟 git repo
	gitRepo, err := util.NewGitRepo(options.RepoPath, util.GitOptions{
		Auth:       util.SSHKeyAuth(options.PrivateKeyFilePath, options.KeyFilePassword),
		SigningKey: signingKey,
		Progress:   options.Output,
	})
	if err != nil {
		return nil, xerrors.Errorf("準備 Context 失敗: %w", err)
	}

	return withDependencies(ctx, project, gitRepo, promptConfirm(options.Output), options.Output), nil
}

func withDependencies(ctx context.Context, project *util.Project, gitRepo util.IGitRepository, confirm confirmFunc, out io.Writer) context.Context {
	ctx = context.WithValue(ctx, ctxKeyProject, project)
	ctx = context.WithValue(ctx, ctxKeyGitRepo, gitRepo)
	ctx = context.WithValue(ctx, ctxKeyConfirm, confirm)
	ctx = context.WithValue(ctx, ctxKeyOutput, out)
	return ctx
}

func getCtxProject(ctx context.Context) *util.Project {
	return ctx.Value(ctxKeyProject).(*util.Project)
}

func getCtxGitRepo(ctx context.Context) util.IGitRepository {
	return ctx.Value(ctxKeyGitRepo).(util.IGitRepository)
}

func getCtxConfirm(ctx context.Context) confirmFunc {
	return ctx.Value(ctxKeyConfirm).(confirmFunc)
}

func getCtxOutput(ctx context.Context) io.Writer {
	return ctx.Value(ctxKeyOutput).(io.Writer)
}

var confirmPattern = regexp.MustCompile(`(?i)^(y|j)`)

// promptConfirm 將問題寫到 out 後透過 go-prompt 讀取回答
func promptConfirm(out io.Writer) confirmFunc {
	return func(question string) bool {
		fmt.Fprintf(out, "%s (y/N)\n", question)
		answer := prompt.Input("> ", func(d prompt.Document) []prompt.Suggest {
			s := []prompt.Suggest{
				{Text: "yes", Description: "發布"},
				{Text: "no", Description: "取消"},
			}
			return prompt.FilterHasPrefix(s, d.GetWordBeforeCursor(), true)
		})
		return isConfirmed(answer)
	}
}

func isConfirmed(answer string) bool {
	return confirmPattern.MatchString(strings.TrimSpace(answer))
}
