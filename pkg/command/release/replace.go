package release

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/xerrors"
)

// Template 是訊息與取代規則中可以使用的變數
type Template struct {
	PackageName string
	PrevVersion string
	Version     string
	NextVersion string
	Date        string
}

// Fill 將 {package_name} 之類的變數換成實際的值，未知的變數保持原樣
func (t Template) Fill(text string) string {
	return strings.NewReplacer(
		"{package_name}", t.PackageName,
		"{prev_version}", t.PrevVersion,
		"{version}", t.Version,
		"{next_version}", t.NextVersion,
		"{date}", t.Date,
	).Replace(text)
}

// Replacement 用正規表示式取代檔案中的內容
type Replacement struct {
	File    string
	Pattern string
	Replace string
}

func (r Replacement) Update(template Template) error {
	pattern, err := regexp.Compile("(?m)" + r.Pattern)
	if err != nil {
		return xerrors.Errorf("更新 %s 失敗: %w", r.File, err)
	}

	info, err := os.Stat(r.File)
	if err != nil {
		return xerrors.Errorf("更新 %s 失敗: %w", r.File, err)
	}

	content, err := os.ReadFile(r.File)
	if err != nil {
		return xerrors.Errorf("更新 %s 失敗: %w", r.File, err)
	}

	updated := pattern.ReplaceAllString(string(content), template.Fill(r.Replace))
	if err := os.WriteFile(r.File, []byte(updated), info.Mode().Perm()); err != nil {
		return xerrors.Errorf("更新 %s 失敗: %w", r.File, err)
	}
	return nil
}

// GitMessages 是 commit 與 tag 用的訊息
type GitMessages struct {
	TagName           string
	TagMessage        string
	ReleaseCommit     string
	PostReleaseCommit string
}

type Replacer struct {
	template     Template
	config       Config
	replacements []Replacement
}

// NewReplacer 建立 Replacer，相對路徑以 baseDir 為準
func NewReplacer(template Template, cfg Config, baseDir string) *Replacer {
	replacements := make([]Replacement, 0, len(cfg.ReleaseReplacements))
	for _, r := range cfg.ReleaseReplacements {
		file := r.File
		if !filepath.IsAbs(file) {
			file = filepath.Join(baseDir, file)
		}
		replacements = append(replacements, Replacement{
			File:    file,
			Pattern: r.Pattern,
			Replace: r.Replace,
		})
	}

	return &Replacer{
		template:     template,
		config:       cfg,
		replacements: replacements,
	}
}

func (r *Replacer) HasReplacements() bool {
	return len(r.replacements) > 0
}

// Validate 在修改任何檔案之前檢查所有規則
func (r *Replacer) Validate() error {
	for _, replacement := range r.replacements {
		if replacement.File == "" {
			return xerrors.Errorf("release-replacements 缺少 file")
		}
		if _, err := regexp.Compile("(?m)" + replacement.Pattern); err != nil {
			return xerrors.Errorf("release-replacements 的 pattern 不合法: %w", err)
		}
	}
	return nil
}

func (r *Replacer) UpdateReplacements() error {
	for _, replacement := range r.replacements {
		if err := replacement.Update(r.template); err != nil {
			return err
		}
	}
	return nil
}

func (r *Replacer) GenerateMessages() GitMessages {
	return GitMessages{
		TagName:           r.template.Fill(r.config.TagNameTemplate()),
		TagMessage:        r.template.Fill(r.config.TagMessageTemplate()),
		ReleaseCommit:     r.template.Fill(r.config.ReleaseCommitTemplate()),
		PostReleaseCommit: r.template.Fill(r.config.PostReleaseCommitTemplate()),
	}
}
