package model

import (
	"strings"

	"golang.org/x/xerrors"
)

var ErrInvalidLevel = xerrors.New("不支援的發布等級")

// ReleaseLevel 是要求的發布等級
type ReleaseLevel string

const (
	LevelMajor   ReleaseLevel = "major"
	LevelMinor   ReleaseLevel = "minor"
	LevelPatch   ReleaseLevel = "patch"
	LevelRelease ReleaseLevel = "release"
	LevelRC      ReleaseLevel = "rc"
	LevelBeta    ReleaseLevel = "beta"
	LevelAlpha   ReleaseLevel = "alpha"
)

// ReleaseLevels 依照說明文件的順序列出所有發布等級
var ReleaseLevels = []ReleaseLevel{
	LevelMajor,
	LevelMinor,
	LevelPatch,
	LevelRelease,
	LevelRC,
	LevelBeta,
	LevelAlpha,
}

var releaseLevelsByName = map[string]ReleaseLevel{
	"major":   LevelMajor,
	"minor":   LevelMinor,
	"patch":   LevelPatch,
	"release": LevelRelease,
	"rc":      LevelRC,
	"beta":    LevelBeta,
	"alpha":   LevelAlpha,
}

var levelPhases = map[ReleaseLevel]Phase{
	LevelRC:    PhaseRC,
	LevelBeta:  PhaseBeta,
	LevelAlpha: PhaseAlpha,
}

// ParseReleaseLevel 將字串轉為 ReleaseLevel (區分大小寫)
func ParseReleaseLevel(rawString string) (ReleaseLevel, error) {
	level, ok := releaseLevelsByName[rawString]
	if !ok {
		return "", xerrors.Errorf("%q，請選擇 %s 其中之一: %w", rawString, levelChoices(), ErrInvalidLevel)
	}
	return level, nil
}

// Phase 回傳對應的預發布階段，major/minor/patch/release 沒有階段
func (l ReleaseLevel) Phase() (Phase, bool) {
	phase, ok := levelPhases[l]
	return phase, ok
}

func (l ReleaseLevel) IsPreRelease() bool {
	_, ok := levelPhases[l]
	return ok
}

func (l ReleaseLevel) String() string {
	return string(l)
}

func levelChoices() string {
	names := make([]string, len(ReleaseLevels))
	for i, level := range ReleaseLevels {
		names[i] = string(level)
	}
	return strings.Join(names, ", ")
}
