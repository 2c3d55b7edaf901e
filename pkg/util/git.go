package util

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	gitSSH "github.com/go-git/go-git/v5/plumbing/transport/ssh"
	"golang.org/x/crypto/ssh"
	"golang.org/x/xerrors"
)

var (
	ErrRepositoryNotFound = xerrors.New("找不到 Git Repository，請先在專案中初始化")
	ErrTagExists          = xerrors.New("Tag 已存在")
	ErrNoSigningKey       = xerrors.New("未提供簽署用的金鑰")
)

const (
	remoteName        = "origin"
	defaultAuthorName = "release"
)

type IGitRepository interface {
	HasModified() (bool, error)
	CreateCommit(message string, sign bool) error
	CreateTag(tagName, message string, sign bool) error
	TagExists(tagName string) (bool, error)
	PushCommit(ctx context.Context) error
	PushTag(ctx context.Context, tagName string) error
}

// AuthProvider 在推送時才被呼叫，不推送就不會讀取私鑰
type AuthProvider func() (transport.AuthMethod, error)

// GitOptions 是開啟 Git Repository 時的選項
type GitOptions struct {
	Auth       AuthProvider
	SigningKey *openpgp.Entity
	Progress   io.Writer
}

func NewGitRepo(repoPath string, options GitOptions) (IGitRepository, error) {
	repository, err := git.PlainOpenWithOptions(repoPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, xerrors.Errorf("開啟 %s 失敗: %w", repoPath, ErrRepositoryNotFound)
		}
		return nil, xerrors.Errorf("取得 Git Repository 失敗: %w", err)
	}

	return &gitRepository{
		repo:    repository,
		options: options,
	}, nil
}

// GetGitAuth 從私鑰檔案取得 SSH 認證，檔案不存在時回傳 nil 讓 go-git 使用預設方式
func GetGitAuth(privateKeyFilePath, password string) (transport.AuthMethod, error) {
	if privateKeyFilePath == "" {
		return nil, nil
	}
	if _, err := os.Stat(privateKeyFilePath); errors.Is(err, os.ErrNotExist) {
		slog.Debug("private key file not found, using default auth", "path", privateKeyFilePath)
		return nil, nil
	}

	publicKeys, err := gitSSH.NewPublicKeysFromFile("git", privateKeyFilePath, password)
	if err != nil {
		return nil, xerrors.Errorf("取得 Git Auth 失敗: %w", err)
	}

	publicKeys.HostKeyCallbackHelper = gitSSH.HostKeyCallbackHelper{
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	}

	return publicKeys, nil
}

// SSHKeyAuth 回傳延遲讀取私鑰的 AuthProvider，結果只會讀取一次
func SSHKeyAuth(privateKeyFilePath, password string) AuthProvider {
	var (
		once sync.Once
		auth transport.AuthMethod
		err  error
	)
	return func() (transport.AuthMethod, error) {
		once.Do(func() {
			auth, err = GetGitAuth(privateKeyFilePath, password)
		})
		return auth, err
	}
}

// GetSigningKey 從 ASCII armored 的私鑰檔案取得簽署用的金鑰
func GetSigningKey(keyFilePath, passphrase string) (*openpgp.Entity, error) {
	if keyFilePath == "" {
		return nil, nil
	}

	f, err := os.Open(keyFilePath)
	if err != nil {
		return nil, xerrors.Errorf("讀取簽署金鑰失敗: %w", err)
	}
	defer f.Close()

	entities, err := openpgp.ReadArmoredKeyRing(f)
	if err != nil {
		return nil, xerrors.Errorf("解析簽署金鑰失敗: %w", err)
	}
	if len(entities) == 0 || entities[0].PrivateKey == nil {
		return nil, xerrors.Errorf("%s: %w", keyFilePath, ErrNoSigningKey)
	}

	entity := entities[0]
	if entity.PrivateKey.Encrypted {
		if err := entity.PrivateKey.Decrypt([]byte(passphrase)); err != nil {
			return nil, xerrors.Errorf("解密簽署金鑰失敗: %w", err)
		}
	}

	return entity, nil
}

type gitRepository struct {
	repo    *git.Repository
	options GitOptions
}

func (gitRepo *gitRepository) HasModified() (bool, error) {
	w, err := gitRepo.repo.Worktree()
	if err != nil {
		return false, xerrors.Errorf("檢查 Git 狀態失敗: %w", err)
	}

	status, err := w.Status()
	if err != nil {
		return false, xerrors.Errorf("檢查 Git 狀態失敗: %w", err)
	}

	// 只看已追蹤的檔案，等同 git diff HEAD
	for _, fileStatus := range status {
		if fileStatus.Worktree == git.Untracked && fileStatus.Staging == git.Untracked {
			continue
		}
		if fileStatus.Worktree != git.Unmodified || fileStatus.Staging != git.Unmodified {
			return true, nil
		}
	}
	return false, nil
}

func (gitRepo *gitRepository) CreateCommit(message string, sign bool) error {
	signKey, err := gitRepo.signKey(sign)
	if err != nil {
		return xerrors.Errorf("建立 Git commit 失敗: %w", err)
	}

	w, err := gitRepo.repo.Worktree()
	if err != nil {
		return xerrors.Errorf("建立 Git commit 失敗: %w", err)
	}

	hash, err := w.Commit(message, &git.CommitOptions{
		All:     true,
		Author:  gitRepo.signature(),
		SignKey: signKey,
	})
	if err != nil {
		return xerrors.Errorf("建立 Git commit 失敗: %w", err)
	}

	slog.Debug("commit created", "hash", hash.String(), "message", message)
	return nil
}

func (gitRepo *gitRepository) CreateTag(tagName, message string, sign bool) error {
	existed, err := gitRepo.TagExists(tagName)
	if err != nil {
		return xerrors.Errorf("建立 Git tag 失敗: %w", err)
	}
	if existed {
		return xerrors.Errorf("建立 Git tag %s 失敗: %w", tagName, ErrTagExists)
	}

	signKey, err := gitRepo.signKey(sign)
	if err != nil {
		return xerrors.Errorf("建立 Git tag 失敗: %w", err)
	}

	headRef, err := gitRepo.repo.Head()
	if err != nil {
		return xerrors.Errorf("建立 Git tag 失敗: %w", err)
	}

	_, err = gitRepo.repo.CreateTag(tagName, headRef.Hash(), &git.CreateTagOptions{
		Tagger:  gitRepo.signature(),
		Message: message,
		SignKey: signKey,
	})
	if err != nil {
		return xerrors.Errorf("建立 Git tag 失敗: %w", err)
	}

	return nil
}

func (gitRepo *gitRepository) TagExists(tagName string) (bool, error) {
	_, err := gitRepo.repo.Reference(plumbing.NewTagReferenceName(tagName), false)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return false, nil
	}
	if err != nil {
		return false, xerrors.Errorf("檢查 Git tag 是否存在失敗: %w", err)
	}
	return true, nil
}

func (gitRepo *gitRepository) PushCommit(ctx context.Context) error {
	headRef, err := gitRepo.repo.Head()
	if err != nil {
		return xerrors.Errorf("推送 Git commit 失敗: %w", err)
	}
	if !headRef.Name().IsBranch() {
		return xerrors.Errorf("推送 Git commit 失敗: HEAD 不在分支上")
	}

	refSpec := config.RefSpec(headRef.Name().String() + ":" + headRef.Name().String())
	if err := gitRepo.push(ctx, refSpec); err != nil {
		return xerrors.Errorf("推送 Git commit 失敗: %w", err)
	}
	return nil
}

func (gitRepo *gitRepository) PushTag(ctx context.Context, tagName string) error {
	refName := plumbing.NewTagReferenceName(tagName)
	refSpec := config.RefSpec(refName.String() + ":" + refName.String())
	if err := gitRepo.push(ctx, refSpec); err != nil {
		return xerrors.Errorf("推送 Git tag 失敗: %w", err)
	}
	return nil
}

func (gitRepo *gitRepository) push(ctx context.Context, refSpecs ...config.RefSpec) error {
	var auth transport.AuthMethod
	if gitRepo.options.Auth != nil {
		var err error
		if auth, err = gitRepo.options.Auth(); err != nil {
			return err
		}
	}

	err := gitRepo.repo.PushContext(ctx, &git.PushOptions{
		RemoteName: remoteName,
		RefSpecs:   refSpecs,
		Auth:       auth,
		Progress:   gitRepo.options.Progress,
	})
	if err != nil {
		if errors.Is(err, git.NoErrAlreadyUpToDate) {
			slog.Info("remote was up to date, no push done", "remote", remoteName)
			return nil
		}
		return err
	}
	return nil
}

func (gitRepo *gitRepository) signKey(sign bool) (*openpgp.Entity, error) {
	if !sign {
		return nil, nil
	}
	if gitRepo.options.SigningKey == nil {
		return nil, ErrNoSigningKey
	}
	return gitRepo.options.SigningKey, nil
}

// signature 使用 Repository 設定中的 user.name / user.email
func (gitRepo *gitRepository) signature() *object.Signature {
	sig := &object.Signature{Name: defaultAuthorName, When: time.Now()}

	cfg, err := gitRepo.repo.ConfigScoped(config.GlobalScope)
	if err != nil {
		slog.Debug("failed to read git config", "error", err)
		return sig
	}
	if cfg.User.Name != "" {
		sig.Name = cfg.User.Name
	}
	sig.Email = cfg.User.Email
	return sig
}
