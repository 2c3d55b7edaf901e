package model

import (
	"golang.org/x/xerrors"
)

var ErrDowngrade = xerrors.New("禁止降級版本: major > minor > patch > release > rc > beta > alpha")

// ReleaseVersion 根據目前版號與發布等級計算下一個版號
type ReleaseVersion struct {
	Current Version
	Level   ReleaseLevel
}

func NewReleaseVersion(current Version, level ReleaseLevel) ReleaseVersion {
	return ReleaseVersion{Current: current, Level: level}
}

// NextVersion 回傳要發布的版號
func (r ReleaseVersion) NextVersion() (Version, error) {
	switch r.Level {
	case LevelMajor:
		return r.Current.NextMajor(), nil
	case LevelMinor:
		return r.Current.NextMinor(), nil
	case LevelPatch:
		return r.Current.NextPatch(), nil
	case LevelRelease:
		return r.Current.WithoutPre(), nil
	case LevelRC, LevelBeta, LevelAlpha:
		phase, _ := r.Level.Phase()
		if err := r.checkDowngrade(phase); err != nil {
			return Version{}, err
		}
		return r.tagVersion(phase), nil
	default:
		return Version{}, xerrors.Errorf("%q: %w", string(r.Level), ErrInvalidLevel)
	}
}

// NextDevVersion 回傳穩定版發布後的下一個開發版號
// 若要發布的是預發布版，則沒有下一個開發版號 (ok 為 false)
func (r ReleaseVersion) NextDevVersion() (version Version, ok bool, err error) {
	next, err := r.NextVersion()
	if err != nil {
		return Version{}, false, err
	}

	if next.IsUnstable() {
		return Version{}, false, nil
	}

	return next.NextPatch().FirstPreRelease(), true, nil
}

// checkDowngrade 檢查要求的階段是否比目前的階段還不成熟
func (r ReleaseVersion) checkDowngrade(requested Phase) error {
	if r.Current.IsStable() {
		return nil
	}

	current := r.Current.Pre().Phase()
	if requested.LessMatureThan(current) {
		return xerrors.Errorf("%s -> %s: %w", r.Current, r.Level, ErrDowngrade)
	}
	return nil
}

func (r ReleaseVersion) tagVersion(phase Phase) Version {
	pre := r.Current.Pre()
	if r.Current.IsUnstable() && pre.Phase() == phase {
		return r.Current.WithPre(pre.Next())
	}
	return r.Current.WithPre(Unstable(phase, 1))
}
