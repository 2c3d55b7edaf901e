package util

import (
	"bytes"
	"os"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/marco79423/poetry-release/pkg/model"
	"golang.org/x/xerrors"
)

var ErrInvalidProject = xerrors.New("不合法的專案設定檔")

type projectMetadata struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

type pyproject struct {
	Project projectMetadata `toml:"project"`
	Tool    struct {
		Poetry  projectMetadata `toml:"poetry"`
		Release toml.Primitive  `toml:"poetry-release"`
	} `toml:"tool"`
}

// Project 是 pyproject.toml 的內容
type Project struct {
	path     string
	content  []byte
	meta     toml.MetaData
	document pyproject
	section  string
}

// OpenProject 讀取並解析 pyproject.toml
func OpenProject(path string) (*Project, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, xerrors.Errorf("讀取專案設定檔失敗: %w", err)
	}

	project := &Project{path: path}
	if err := project.load(content); err != nil {
		return nil, err
	}
	return project, nil
}

func (p *Project) load(content []byte) error {
	var document pyproject
	meta, err := toml.Decode(string(content), &document)
	if err != nil {
		return xerrors.Errorf("解析專案設定檔失敗: %v: %w", err, ErrInvalidProject)
	}

	// Poetry 的 [tool.poetry] 優先，沒有的話才用 PEP 621 的 [project]
	section := "tool.poetry"
	if document.Tool.Poetry.Version == "" {
		section = "project"
	}

	p.content = content
	p.meta = meta
	p.document = document
	p.section = section

	if p.metadata().Name == "" || p.metadata().Version == "" {
		return xerrors.Errorf("%s 缺少 name 或 version: %w", p.path, ErrInvalidProject)
	}
	return nil
}

func (p *Project) metadata() projectMetadata {
	if p.section == "project" {
		return p.document.Project
	}
	return p.document.Tool.Poetry
}

func (p *Project) Path() string {
	return p.path
}

func (p *Project) Name() string {
	return p.metadata().Name
}

// Version 回傳目前專案的版號
func (p *Project) Version() (model.Version, error) {
	version, err := model.ParseVersion(p.metadata().Version)
	if err != nil {
		return model.Version{}, xerrors.Errorf("取得專案版號失敗: %w", err)
	}
	return version, nil
}

// DecodeReleaseSettings 將 [tool.poetry-release] 解析到 v，沒有該區塊時 v 不變
func (p *Project) DecodeReleaseSettings(v interface{}) error {
	if !p.meta.IsDefined("tool", "poetry-release") {
		return nil
	}
	if err := p.meta.PrimitiveDecode(p.document.Tool.Release, v); err != nil {
		return xerrors.Errorf("解析 [tool.poetry-release] 失敗: %w", err)
	}
	return nil
}

var (
	tableHeaderPattern = regexp.MustCompile(`^\s*\[\s*([^\[\]]+?)\s*\]\s*(?:#.*)?$`)
	arrayHeaderPattern = regexp.MustCompile(`^\s*\[\[.*\]\]\s*(?:#.*)?$`)
	versionKeyPattern  = regexp.MustCompile(`^(\s*version\s*=\s*)(["'])[^"']*(["'].*)$`)
)

// SetVersion 只改寫 metadata 區塊中的 version 欄位，其餘內容保持原樣
func (p *Project) SetVersion(version model.Version) error {
	// 檔案可能已被 release-replacements 改過，以磁碟上的內容為準
	data, err := os.ReadFile(p.path)
	if err != nil {
		return xerrors.Errorf("讀取專案設定檔失敗: %w", err)
	}
	if err := p.load(data); err != nil {
		return xerrors.Errorf("更新版號失敗: %w", err)
	}

	lines := strings.SplitAfter(string(p.content), "\n")

	current := ""
	replaced := false
	for i, line := range lines {
		trimmed := strings.TrimRight(line, "\r\n")
		if arrayHeaderPattern.MatchString(trimmed) {
			current = ""
			continue
		}
		if matches := tableHeaderPattern.FindStringSubmatch(trimmed); matches != nil {
			current = strings.ReplaceAll(matches[1], " ", "")
			continue
		}
		if current != p.section {
			continue
		}

		matches := versionKeyPattern.FindStringSubmatch(trimmed)
		if matches == nil {
			continue
		}
		lines[i] = matches[1] + matches[2] + version.String() + matches[3] + line[len(trimmed):]
		replaced = true
		break
	}

	if !replaced {
		return xerrors.Errorf("在 [%s] 找不到 version 欄位: %w", p.section, ErrInvalidProject)
	}

	content := []byte(strings.Join(lines, ""))

	// 確認改寫後仍是合法的設定檔，且版號確實被更新
	updated := &Project{path: p.path}
	if err := updated.load(content); err != nil {
		return xerrors.Errorf("更新版號失敗: %w", err)
	}
	if updated.metadata().Version != version.String() {
		return xerrors.Errorf("更新版號失敗: %w", ErrInvalidProject)
	}

	if err := writeFileKeepMode(p.path, content); err != nil {
		return xerrors.Errorf("更新版號失敗: %w", err)
	}

	*p = *updated
	return nil
}

func writeFileKeepMode(path string, content []byte) error {
	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	if existing, err := os.ReadFile(path); err == nil && bytes.Equal(existing, content) {
		return nil
	}
	return os.WriteFile(path, content, mode)
}
