package calversion

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/mod/semver"
)

// EpochOffset is subtracted from the two-digit calendar year to form the
// version's year field (2025 -> 7).
const EpochOffset = 18

// HotfixSuffix marks a branch whose versions advance through the hotfix counter.
const HotfixSuffix = "-hotfix"

const hotfixMarker = "-HF"

var (
	// ErrMalformedVersion is returned when a version string is not year.month.patch.
	ErrMalformedVersion = errors.New("malformed version")
	// ErrInvalidCalendar is returned for a month outside 1..12 or a negative year.
	ErrInvalidCalendar = errors.New("invalid calendar")
)

// Patch is the third version field: either PlainPatch or HotfixPatch.
type Patch interface {
	fmt.Stringer
	isPatch()
}

// PlainPatch is a bare patch number, e.g. the 7 in 25.3.7.
type PlainPatch struct {
	N int
}

func (PlainPatch) isPatch() {}

func (p PlainPatch) String() string {
	return strconv.Itoa(p.N)
}

// HotfixPatch is a patch number carrying a hotfix counter, e.g. 7-HF2.
type HotfixPatch struct {
	N      int
	Hotfix int
}

func (HotfixPatch) isPatch() {}

func (p HotfixPatch) String() string {
	return strconv.Itoa(p.N) + hotfixMarker + strconv.Itoa(p.Hotfix)
}

// Version is a calendar version: epoch-relative year, month and patch.
type Version struct {
	Year  int
	Month int
	Patch Patch
}

// String returns the version as written to build metadata, e.g. "7.3.2-HF0".
func (v Version) String() string {
	patch := "0"
	if v.Patch != nil {
		patch = v.Patch.String()
	}
	return fmt.Sprintf("%d.%d.%s", v.Year, v.Month, patch)
}

// Semver returns the version with a leading "v" so it can be handed to
// golang.org/x/mod/semver.
func (v Version) Semver() string {
	return "v" + v.String()
}

// Calendar is the current month and epoch-relative year.
type Calendar struct {
	Month int
	Year  int
}

// Validate reports whether c can be used for derivation.
func (c Calendar) Validate() error {
	if c.Month < 1 || c.Month > 12 {
		return errors.Wrapf(ErrInvalidCalendar, "month %d out of range", c.Month)
	}
	if c.Year < 0 {
		return errors.Wrapf(ErrInvalidCalendar, "year %d is negative", c.Year)
	}
	return nil
}

// IsHotfixBranch reports whether branch names a hotfix branch.
func IsHotfixBranch(branch string) bool {
	return strings.HasSuffix(branch, HotfixSuffix)
}

// ParseVersion parses "year.month.patch" where patch is N or N-HF<n>.
func ParseVersion(s string) (Version, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return Version{}, errors.Wrapf(ErrMalformedVersion, "%q: expected year.month.patch", s)
	}

	year, err := parseField(parts[0])
	if err != nil {
		return Version{}, errors.Wrapf(ErrMalformedVersion, "%q: year: %v", s, err)
	}
	month, err := parseField(parts[1])
	if err != nil {
		return Version{}, errors.Wrapf(ErrMalformedVersion, "%q: month: %v", s, err)
	}
	patch, err := parsePatch(parts[2])
	if err != nil {
		return Version{}, errors.Wrapf(ErrMalformedVersion, "%q: patch: %v", s, err)
	}

	return Version{Year: year, Month: month, Patch: patch}, nil
}

func parsePatch(s string) (Patch, error) {
	base, hotfix, found := strings.Cut(s, hotfixMarker)
	n, err := parseField(base)
	if err != nil {
		return nil, err
	}
	if !found {
		return PlainPatch{N: n}, nil
	}
	h, err := parseField(hotfix)
	if err != nil {
		return nil, errors.Wrap(err, "hotfix counter")
	}
	return HotfixPatch{N: n, Hotfix: h}, nil
}

// parseField accepts a non-negative decimal integer and nothing else.
func parseField(s string) (int, error) {
	if s == "" {
		return 0, errors.New("empty")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, errors.Errorf("%q is not a non-negative integer", s)
		}
	}
	return strconv.Atoi(s)
}

// Derive computes the version that follows current on branch.
//
// On a hotfix branch year and month are kept and the hotfix counter is
// started at 0 or incremented. On any other branch the patch is incremented,
// unless the calendar has moved past the recorded year/month, in which case
// the version restarts at cal.Year.cal.Month.0. The result is always a
// valid semantic version.
func Derive(current Version, branch string, cal Calendar) (Version, error) {
	if err := cal.Validate(); err != nil {
		return Version{}, err
	}
	next, err := derive(current, branch, cal)
	if err != nil {
		return Version{}, err
	}
	if !semver.IsValid(next.Semver()) {
		return Version{}, errors.Wrapf(ErrMalformedVersion, "derived version %s is not valid semver", next)
	}
	return next, nil
}

func derive(current Version, branch string, cal Calendar) (Version, error) {

	next := Version{Year: current.Year, Month: current.Month}

	if IsHotfixBranch(branch) {
		switch p := current.Patch.(type) {
		case PlainPatch:
			next.Patch = HotfixPatch{N: p.N, Hotfix: 0}
		case HotfixPatch:
			if p.Hotfix == math.MaxInt {
				return Version{}, errors.Wrapf(ErrMalformedVersion, "%s: hotfix counter has no successor", current)
			}
			next.Patch = HotfixPatch{N: p.N, Hotfix: p.Hotfix + 1}
		default:
			return Version{}, errors.Wrapf(ErrMalformedVersion, "%s: unknown patch kind %T", current, current.Patch)
		}
		return next, nil
	}

	if current.Year != cal.Year || current.Month != cal.Month {
		return Version{Year: cal.Year, Month: cal.Month, Patch: PlainPatch{N: 0}}, nil
	}

	switch p := current.Patch.(type) {
	case PlainPatch:
		if p.N == math.MaxInt {
			return Version{}, errors.Wrapf(ErrMalformedVersion, "%s: patch has no successor", current)
		}
		next.Patch = PlainPatch{N: p.N + 1}
	case HotfixPatch:
		return Version{}, errors.Wrapf(ErrMalformedVersion, "%s: hotfix patch cannot be incremented on release branch %q", current, branch)
	default:
		return Version{}, errors.Wrapf(ErrMalformedVersion, "%s: unknown patch kind %T", current, current.Patch)
	}
	return next, nil
}

// DeriveString parses current and returns the string form of the derived version.
func DeriveString(current, branch string, cal Calendar) (string, error) {
	v, err := ParseVersion(current)
	if err != nil {
		return "", err
	}
	next, err := Derive(v, branch, cal)
	if err != nil {
		return "", err
	}
	return next.String(), nil
}

// TagName is the name used for both the release tag and its commit message.
func TagName(projectName, version string) string {
	return projectName + "-" + version
}

// sortsBefore reports whether next orders before current under semver rules.
func sortsBefore(next, current Version) bool {
	return semver.Compare(next.Semver(), current.Semver()) < 0
}
