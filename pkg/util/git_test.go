package util

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// initTestRepo 建立一個只有一個 commit 的 Repository
func initTestRepo(t *testing.T) (string, *git.Repository) {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "pyproject.toml"), []byte("version = \"0.1.0\"\n"), 0644))

	w, err := repo.Worktree()
	require.NoError(t, err)
	_, err = w.Add("pyproject.toml")
	require.NoError(t, err)
	_, err = w.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "tester@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	return dir, repo
}

func TestNewGitRepo_NotFound(t *testing.T) {
	_, err := NewGitRepo(t.TempDir(), GitOptions{})
	assert.ErrorIs(t, err, ErrRepositoryNotFound)
}

func TestGitRepository_HasModified(t *testing.T) {
	dir, _ := initTestRepo(t)

	gitRepo, err := NewGitRepo(dir, GitOptions{})
	require.NoError(t, err)

	modified, err := gitRepo.HasModified()
	require.NoError(t, err)
	assert.False(t, modified)

	// 未追蹤的檔案不算修改
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("notes"), 0644))
	modified, err = gitRepo.HasModified()
	require.NoError(t, err)
	assert.False(t, modified)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "pyproject.toml"), []byte("version = \"0.2.0\"\n"), 0644))
	modified, err = gitRepo.HasModified()
	require.NoError(t, err)
	assert.True(t, modified)
}

func TestGitRepository_CreateCommit(t *testing.T) {
	dir, repo := initTestRepo(t)

	gitRepo, err := NewGitRepo(dir, GitOptions{})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "pyproject.toml"), []byte("version = \"0.2.0\"\n"), 0644))
	require.NoError(t, gitRepo.CreateCommit("Release demo 0.2.0", false))

	modified, err := gitRepo.HasModified()
	require.NoError(t, err)
	assert.False(t, modified)

	head, err := repo.Head()
	require.NoError(t, err)
	commit, err := repo.CommitObject(head.Hash())
	require.NoError(t, err)
	assert.Contains(t, commit.Message, "Release demo 0.2.0")
	assert.NotEmpty(t, commit.Author.Name)
}

func TestGitRepository_CreateTag(t *testing.T) {
	dir, repo := initTestRepo(t)

	gitRepo, err := NewGitRepo(dir, GitOptions{})
	require.NoError(t, err)

	existed, err := gitRepo.TagExists("0.1.0")
	require.NoError(t, err)
	assert.False(t, existed)

	require.NoError(t, gitRepo.CreateTag("0.1.0", "Release demo 0.1.0", false))

	existed, err = gitRepo.TagExists("0.1.0")
	require.NoError(t, err)
	assert.True(t, existed)

	ref, err := repo.Tag("0.1.0")
	require.NoError(t, err)
	tag, err := repo.TagObject(ref.Hash())
	require.NoError(t, err)
	assert.Contains(t, tag.Message, "Release demo 0.1.0")

	err = gitRepo.CreateTag("0.1.0", "again", false)
	assert.ErrorIs(t, err, ErrTagExists)
}

func TestGitRepository_SignWithoutKey(t *testing.T) {
	dir, _ := initTestRepo(t)

	gitRepo, err := NewGitRepo(dir, GitOptions{})
	require.NoError(t, err)

	assert.ErrorIs(t, gitRepo.CreateCommit("signed", true), ErrNoSigningKey)
	assert.ErrorIs(t, gitRepo.CreateTag("0.1.0", "signed", true), ErrNoSigningKey)
}

func TestGitRepository_PushWithoutRemote(t *testing.T) {
	dir, _ := initTestRepo(t)

	gitRepo, err := NewGitRepo(dir, GitOptions{})
	require.NoError(t, err)

	assert.ErrorIs(t, gitRepo.PushCommit(context.Background()), git.ErrRemoteNotFound)
	assert.ErrorIs(t, gitRepo.PushTag(context.Background(), "0.1.0"), git.ErrRemoteNotFound)
}

func TestGitRepository_AuthLoadedOnPush(t *testing.T) {
	dir, _ := initTestRepo(t)

	keyFile := filepath.Join(t.TempDir(), "id_rsa")
	require.NoError(t, os.WriteFile(keyFile, []byte("not a key"), 0600))

	calls := 0
	auth := SSHKeyAuth(keyFile, "")
	gitRepo, err := NewGitRepo(dir, GitOptions{Auth: func() (transport.AuthMethod, error) {
		calls++
		return auth()
	}})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "pyproject.toml"), []byte("version = \"0.2.0\"\n"), 0644))
	require.NoError(t, gitRepo.CreateCommit("Release demo 0.2.0", false))
	require.NoError(t, gitRepo.CreateTag("0.2.0", "Release demo 0.2.0", false))
	assert.Equal(t, 0, calls)

	err = gitRepo.PushTag(context.Background(), "0.2.0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "取得 Git Auth 失敗")
	assert.Equal(t, 1, calls)
}

func TestGetGitAuth_MissingKeyFile(t *testing.T) {
	auth, err := GetGitAuth(filepath.Join(t.TempDir(), "id_rsa"), "")
	require.NoError(t, err)
	assert.Nil(t, auth)

	auth, err = GetGitAuth("", "")
	require.NoError(t, err)
	assert.Nil(t, auth)
}

func TestGetSigningKey(t *testing.T) {
	key, err := GetSigningKey("", "")
	require.NoError(t, err)
	assert.Nil(t, key)

	_, err = GetSigningKey(filepath.Join(t.TempDir(), "missing.asc"), "")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
