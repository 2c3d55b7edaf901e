package release

import (
	"github.com/urfave/cli/v2"
)

const (
	defaultTagName                  = "{version}"
	defaultTagMessage               = "Release {package_name} {version}"
	defaultReleaseCommitMessage     = "Release {package_name} {version}"
	defaultPostReleaseCommitMessage = "Starting {package_name}'s next development iteration {next_version}"
)

// ReplacementConfig 是 release-replacements 中的一筆設定
type ReplacementConfig struct {
	File    string `toml:"file"`
	Pattern string `toml:"pattern"`
	Replace string `toml:"replace"`
}

// Config 是發布流程的設定，nil 代表未設定
type Config struct {
	DisablePush              *bool               `toml:"disable-push"`
	DisableTag               *bool               `toml:"disable-tag"`
	DisableDev               *bool               `toml:"disable-dev"`
	SignCommit               *bool               `toml:"sign-commit"`
	SignTag                  *bool               `toml:"sign-tag"`
	TagName                  *string             `toml:"tag-name"`
	TagMessage               *string             `toml:"tag-message"`
	ReleaseCommitMessage     *string             `toml:"release-commit-message"`
	PostReleaseCommitMessage *string             `toml:"post-release-commit-message"`
	ReleaseReplacements      []ReplacementConfig `toml:"release-replacements"`
}

// Update 用 other 中有設定的值覆蓋目前的設定
func (cfg *Config) Update(other Config) {
	overrideBool(&cfg.DisablePush, other.DisablePush)
	overrideBool(&cfg.DisableTag, other.DisableTag)
	overrideBool(&cfg.DisableDev, other.DisableDev)
	overrideBool(&cfg.SignCommit, other.SignCommit)
	overrideBool(&cfg.SignTag, other.SignTag)
	overrideString(&cfg.TagName, other.TagName)
	overrideString(&cfg.TagMessage, other.TagMessage)
	overrideString(&cfg.ReleaseCommitMessage, other.ReleaseCommitMessage)
	overrideString(&cfg.PostReleaseCommitMessage, other.PostReleaseCommitMessage)
	if other.ReleaseReplacements != nil {
		cfg.ReleaseReplacements = other.ReleaseReplacements
	}
}

func (cfg Config) ShouldDisablePush() bool {
	return boolValue(cfg.DisablePush)
}

func (cfg Config) ShouldDisableTag() bool {
	return boolValue(cfg.DisableTag)
}

func (cfg Config) ShouldDisableDev() bool {
	return boolValue(cfg.DisableDev)
}

func (cfg Config) ShouldSignCommit() bool {
	return boolValue(cfg.SignCommit)
}

func (cfg Config) ShouldSignTag() bool {
	return boolValue(cfg.SignTag)
}

func (cfg Config) TagNameTemplate() string {
	return stringValue(cfg.TagName, defaultTagName)
}

func (cfg Config) TagMessageTemplate() string {
	return stringValue(cfg.TagMessage, defaultTagMessage)
}

func (cfg Config) ReleaseCommitTemplate() string {
	return stringValue(cfg.ReleaseCommitMessage, defaultReleaseCommitMessage)
}

func (cfg Config) PostReleaseCommitTemplate() string {
	return stringValue(cfg.PostReleaseCommitMessage, defaultPostReleaseCommitMessage)
}

// configFromCLI 只取使用者有明確指定的旗標
func configFromCLI(c *cli.Context) Config {
	var cfg Config
	cfg.DisablePush = cliBool(c, "disable-push")
	cfg.DisableTag = cliBool(c, "disable-tag")
	cfg.DisableDev = cliBool(c, "disable-dev")
	cfg.SignCommit = cliBool(c, "sign-commit")
	cfg.SignTag = cliBool(c, "sign-tag")
	return cfg
}

func cliBool(c *cli.Context, name string) *bool {
	if !c.IsSet(name) {
		return nil
	}
	value := c.Bool(name)
	return &value
}

func overrideBool(dst **bool, src *bool) {
	if src != nil {
		value := *src
		*dst = &value
	}
}

func overrideString(dst **string, src *string) {
	if src != nil {
		value := *src
		*dst = &value
	}
}

func boolValue(v *bool) bool {
	return v != nil && *v
}

func stringValue(v *string, defaultValue string) string {
	if v == nil {
		return defaultValue
	}
	return *v
}
