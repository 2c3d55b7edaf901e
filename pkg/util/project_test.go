package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/marco79423/poetry-release/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePyproject = `[tool.poetry]
name = "demo"
version = "0.1.0rc0"  # managed by poetry-release
description = "demo package"

[tool.poetry.dependencies]
python = "^3.8"
requests = { version = "2.0.0" }

[tool.poetry.dev-dependencies]
version = "9.9.9"

[tool.poetry-release]
disable-push = true
tag-name = "v{version}"

[[tool.poetry-release.release-replacements]]
file = "CHANGELOG.md"
pattern = "## \\[Unreleased\\]"
replace = "## [{version}] - {date}"
`

func writeProject(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "pyproject.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestOpenProject(t *testing.T) {
	project, err := OpenProject(writeProject(t, samplePyproject))
	require.NoError(t, err)

	assert.Equal(t, "demo", project.Name())

	version, err := project.Version()
	require.NoError(t, err)
	assert.Equal(t, "0.1.0rc0", version.String())
}

func TestOpenProject_PEP621(t *testing.T) {
	project, err := OpenProject(writeProject(t, "[project]\nname = \"pep\"\nversion = \"2.0.0\"\n"))
	require.NoError(t, err)

	assert.Equal(t, "pep", project.Name())

	require.NoError(t, project.SetVersion(model.NewVersion(0, []int{2, 0, 1}, model.Stable())))

	content, err := os.ReadFile(project.Path())
	require.NoError(t, err)
	assert.Equal(t, "[project]\nname = \"pep\"\nversion = \"2.0.1\"\n", string(content))
}

func TestOpenProject_Invalid(t *testing.T) {
	tests := map[string]string{
		"missing version": "[tool.poetry]\nname = \"demo\"\n",
		"missing name":    "[tool.poetry]\nversion = \"1.0.0\"\n",
		"broken toml":     "[tool.poetry\nname = \"demo\"\n",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := OpenProject(writeProject(t, content))
			assert.ErrorIs(t, err, ErrInvalidProject)
		})
	}
}

func TestOpenProject_MissingFile(t *testing.T) {
	_, err := OpenProject(filepath.Join(t.TempDir(), "pyproject.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestProject_SetVersion(t *testing.T) {
	path := writeProject(t, samplePyproject)
	project, err := OpenProject(path)
	require.NoError(t, err)

	next := model.NewVersion(0, []int{0, 1, 0}, model.Unstable(model.PhaseRC, 1))
	require.NoError(t, project.SetVersion(next))

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	want := strings.Replace(samplePyproject,
		`version = "0.1.0rc0"  # managed by poetry-release`,
		`version = "0.1.0rc1"  # managed by poetry-release`, 1)
	assert.Equal(t, want, string(content))

	version, err := project.Version()
	require.NoError(t, err)
	assert.Equal(t, "0.1.0rc1", version.String())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestProject_SetVersion_Twice(t *testing.T) {
	project, err := OpenProject(writeProject(t, samplePyproject))
	require.NoError(t, err)

	require.NoError(t, project.SetVersion(model.NewVersion(0, []int{0, 1, 0}, model.Stable())))
	require.NoError(t, project.SetVersion(model.NewVersion(0, []int{0, 1, 1}, model.Unstable(model.PhaseAlpha, 0))))

	reopened, err := OpenProject(project.Path())
	require.NoError(t, err)

	version, err := reopened.Version()
	require.NoError(t, err)
	assert.Equal(t, "0.1.1a0", version.String())
}

func TestProject_SetVersion_KeepsExternalEdits(t *testing.T) {
	path := writeProject(t, "[tool.poetry]\nname = \"demo\"\nversion = \"1.0.0\"\n# released: none\n")
	project, err := OpenProject(path)
	require.NoError(t, err)

	require.NoError(t, project.SetVersion(model.NewVersion(0, []int{1, 0, 1}, model.Stable())))
	require.NoError(t, os.WriteFile(path, []byte("[tool.poetry]\nname = \"demo\"\nversion = \"1.0.1\"\n# released: 1.0.1\n"), 0600))
	require.NoError(t, project.SetVersion(model.NewVersion(0, []int{1, 0, 2}, model.Unstable(model.PhaseAlpha, 0))))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[tool.poetry]\nname = \"demo\"\nversion = \"1.0.2a0\"\n# released: 1.0.1\n", string(content))
}

func TestProject_DecodeReleaseSettings(t *testing.T) {
	type replacement struct {
		File    string `toml:"file"`
		Pattern string `toml:"pattern"`
		Replace string `toml:"replace"`
	}
	var settings struct {
		DisablePush  *bool         `toml:"disable-push"`
		DisableTag   *bool         `toml:"disable-tag"`
		TagName      string        `toml:"tag-name"`
		Replacements []replacement `toml:"release-replacements"`
	}

	project, err := OpenProject(writeProject(t, samplePyproject))
	require.NoError(t, err)
	require.NoError(t, project.DecodeReleaseSettings(&settings))

	require.NotNil(t, settings.DisablePush)
	assert.True(t, *settings.DisablePush)
	assert.Nil(t, settings.DisableTag)
	assert.Equal(t, "v{version}", settings.TagName)
	require.Len(t, settings.Replacements, 1)
	assert.Equal(t, "CHANGELOG.md", settings.Replacements[0].File)
	assert.Equal(t, `## \[Unreleased\]`, settings.Replacements[0].Pattern)
}

func TestProject_DecodeReleaseSettings_Missing(t *testing.T) {
	var settings struct {
		TagName string `toml:"tag-name"`
	}
	settings.TagName = "unchanged"

	project, err := OpenProject(writeProject(t, "[tool.poetry]\nname = \"demo\"\nversion = \"1.0.0\"\n"))
	require.NoError(t, err)
	require.NoError(t, project.DecodeReleaseSettings(&settings))

	assert.Equal(t, "unchanged", settings.TagName)
}
