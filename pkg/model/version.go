package model

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	"golang.org/x/xerrors"
)

var ErrInvalidVersion = xerrors.New("不合法的版號")

// Phase 是預發布階段
type Phase string

const (
	PhaseAlpha Phase = "alpha"
	PhaseBeta  Phase = "beta"
	PhaseRC    Phase = "rc"
)

// 預發布階段的成熟度，數字越大越接近穩定版
var phaseMaturity = map[Phase]int{
	PhaseAlpha: 1,
	PhaseBeta:  2,
	PhaseRC:    3,
}

var phaseShortNames = map[Phase]string{
	PhaseAlpha: "a",
	PhaseBeta:  "b",
	PhaseRC:    "rc",
}

var phaseAliases = map[string]Phase{
	"a":       PhaseAlpha,
	"alpha":   PhaseAlpha,
	"b":       PhaseBeta,
	"beta":    PhaseBeta,
	"c":       PhaseRC,
	"rc":      PhaseRC,
	"pre":     PhaseRC,
	"preview": PhaseRC,
}

// Maturity 回傳階段的成熟度，未知階段為 0
func (p Phase) Maturity() int {
	return phaseMaturity[p]
}

// LessMatureThan 判斷 p 是否比 other 更不成熟 (rc > beta > alpha)
func (p Phase) LessMatureThan(other Phase) bool {
	return p.Maturity() < other.Maturity()
}

// PreRelease 是預發布標記，零值代表穩定版
type PreRelease struct {
	phase   Phase
	counter int
	set     bool
}

// Stable 回傳沒有預發布標記的 PreRelease
func Stable() PreRelease {
	return PreRelease{}
}

// Unstable 回傳帶有階段與計數的預發布標記
func Unstable(phase Phase, counter int) PreRelease {
	return PreRelease{phase: phase, counter: counter, set: true}
}

func (p PreRelease) IsStable() bool {
	return !p.set
}

func (p PreRelease) Phase() Phase {
	return p.phase
}

func (p PreRelease) Counter() int {
	return p.counter
}

// Next 回傳同階段、計數加一的預發布標記
func (p PreRelease) Next() PreRelease {
	return Unstable(p.phase, p.counter+1)
}

func (p PreRelease) String() string {
	if !p.set {
		return ""
	}
	return fmt.Sprintf("%s%d", phaseShortNames[p.phase], p.counter)
}

// Version 是專案的版號，建立後不會再被修改
type Version struct {
	epoch   int
	release []int
	pre     PreRelease
	local   string
}

// NewVersion 組合 epoch、release 與預發布標記，release 至少補齊到三碼
func NewVersion(epoch int, release []int, pre PreRelease) Version {
	size := len(release)
	if size < 3 {
		size = 3
	}
	normalized := make([]int, size)
	copy(normalized, release)

	return Version{epoch: epoch, release: normalized, pre: pre}
}

func (v Version) Epoch() int {
	return v.epoch
}

// Release 回傳 release 的複本
func (v Version) Release() []int {
	release := make([]int, len(v.release))
	copy(release, v.release)
	return release
}

func (v Version) Major() int {
	return v.component(0)
}

func (v Version) Minor() int {
	return v.component(1)
}

func (v Version) Patch() int {
	return v.component(2)
}

func (v Version) Pre() PreRelease {
	return v.pre
}

// Local 回傳 + 之後的 local/build 標記，計算下一個版號時一律去掉
func (v Version) Local() string {
	return v.local
}

func (v Version) IsStable() bool {
	return v.pre.IsStable()
}

func (v Version) IsUnstable() bool {
	return !v.pre.IsStable()
}

func (v Version) component(i int) int {
	if i < len(v.release) {
		return v.release[i]
	}
	return 0
}

// zeroFrom 判斷從第 i 碼之後是否全為 0
func (v Version) zeroFrom(i int) bool {
	for _, n := range v.release[i:] {
		if n != 0 {
			return false
		}
	}
	return true
}

// NextMajor 回傳下一個主版號。若目前是 X.0.0 的預發布版，則直接完成該版本
func (v Version) NextMajor() Version {
	if v.IsUnstable() && v.zeroFrom(1) {
		return v.WithoutPre()
	}
	return NewVersion(v.epoch, []int{v.Major() + 1, 0, 0}, Stable())
}

// NextMinor 回傳下一個次版號。若目前是 X.Y.0 的預發布版，則直接完成該版本
func (v Version) NextMinor() Version {
	if v.IsUnstable() && v.zeroFrom(2) {
		return v.WithoutPre()
	}
	return NewVersion(v.epoch, []int{v.Major(), v.Minor() + 1, 0}, Stable())
}

// NextPatch 回傳下一個修訂號。若目前是預發布版，則直接完成該版本
func (v Version) NextPatch() Version {
	if v.IsUnstable() {
		return v.WithoutPre()
	}
	return NewVersion(v.epoch, []int{v.Major(), v.Minor(), v.Patch() + 1}, Stable())
}

// WithoutPre 回傳去掉預發布標記的版本
func (v Version) WithoutPre() Version {
	return NewVersion(v.epoch, v.release, Stable())
}

// WithPre 回傳 release 相同、換上新預發布標記的版本
func (v Version) WithPre(pre PreRelease) Version {
	return NewVersion(v.epoch, v.release, pre)
}

// FirstPreRelease 回傳同 release 的第一個 alpha 版
func (v Version) FirstPreRelease() Version {
	return v.WithPre(Unstable(PhaseAlpha, 0))
}

func (v Version) Equal(other Version) bool {
	return v.String() == other.String()
}

func (v Version) String() string {
	var b strings.Builder
	if v.epoch != 0 {
		fmt.Fprintf(&b, "%d!", v.epoch)
	}

	parts := make([]string, len(v.release))
	for i, n := range v.release {
		parts[i] = strconv.Itoa(n)
	}
	b.WriteString(strings.Join(parts, "."))
	b.WriteString(v.pre.String())
	if v.local != "" {
		b.WriteString("+" + v.local)
	}

	return b.String()
}

var pep440Pattern = regexp.MustCompile(`(?i)^v?(?:(\d+)!)?(\d+(?:\.\d+)*)(?:[-_.]?(a|alpha|b|beta|c|rc|pre|preview)[-_.]?(\d+)?)?$`)

// ParseVersion 解析 PEP 440 或 SemVer 格式的版號
func ParseVersion(rawString string) (Version, error) {
	text := strings.TrimSpace(rawString)

	if matches := pep440Pattern.FindStringSubmatch(text); matches != nil {
		return parsePEP440(matches)
	}

	// 其他 SemVer 寫法，例如帶有 build metadata 的 1.0.0+build.1
	sv, err := semver.StrictNewVersion(strings.TrimPrefix(text, "v"))
	if err != nil {
		return Version{}, xerrors.Errorf("解析版號 %q 失敗: %w", rawString, ErrInvalidVersion)
	}

	pre := Stable()
	if sv.Prerelease() != "" {
		pre, err = parseSemverPre(sv.Prerelease())
		if err != nil {
			return Version{}, xerrors.Errorf("解析版號 %q 失敗: %w", rawString, err)
		}
	}

	version := NewVersion(0, []int{int(sv.Major()), int(sv.Minor()), int(sv.Patch())}, pre)
	version.local = sv.Metadata()
	return version, nil
}

func parsePEP440(matches []string) (Version, error) {
	epoch := 0
	if matches[1] != "" {
		n, err := strconv.Atoi(matches[1])
		if err != nil {
			return Version{}, xerrors.Errorf("解析 epoch 失敗: %w", ErrInvalidVersion)
		}
		epoch = n
	}

	var release []int
	for _, part := range strings.Split(matches[2], ".") {
		n, err := strconv.Atoi(part)
		if err != nil {
			return Version{}, xerrors.Errorf("解析 release 失敗: %w", ErrInvalidVersion)
		}
		release = append(release, n)
	}

	pre := Stable()
	if matches[3] != "" {
		counter := 0
		if matches[4] != "" {
			n, err := strconv.Atoi(matches[4])
			if err != nil {
				return Version{}, xerrors.Errorf("解析預發布計數失敗: %w", ErrInvalidVersion)
			}
			counter = n
		}
		pre = Unstable(phaseAliases[strings.ToLower(matches[3])], counter)
	}

	return NewVersion(epoch, release, pre), nil
}

// parseSemverPre 解析 rc.0、beta.1 之類的 SemVer 預發布字串
func parseSemverPre(prerelease string) (PreRelease, error) {
	parts := strings.SplitN(prerelease, ".", 2)
	phase, ok := phaseAliases[strings.ToLower(parts[0])]
	if !ok {
		return PreRelease{}, xerrors.Errorf("不支援的預發布階段 %q: %w", parts[0], ErrInvalidVersion)
	}

	counter := 0
	if len(parts) == 2 {
		n, err := strconv.Atoi(parts[1])
		if err != nil {
			return PreRelease{}, xerrors.Errorf("不支援的預發布計數 %q: %w", parts[1], ErrInvalidVersion)
		}
		counter = n
	}

	return Unstable(phase, counter), nil
}
