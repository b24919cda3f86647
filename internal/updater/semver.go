package updater

import (
	"fmt"
	"strconv"
	"strings"
)

// Semver is a parsed major.minor.patch release version. Pre-release and
// build suffixes are not used by gainhour release tags.
type Semver struct {
	Major int
	Minor int
	Patch int
}

// ParseSemver parses "1.2.3" or "v1.2.3" into its numeric components.
func ParseSemver(s string) (Semver, error) {
	trimmed := strings.TrimPrefix(s, "v")
	parts := strings.SplitN(trimmed, ".", 3)
	if len(parts) != 3 {
		return Semver{}, fmt.Errorf("invalid semver: %q", s)
	}

	nums := make([]int, 3)
	for i, label := range []string{"major", "minor", "patch"} {
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			return Semver{}, fmt.Errorf("invalid %s version in %q: %w", label, s, err)
		}
		nums[i] = n
	}
	return Semver{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// String formats the version without a "v" prefix.
func (v Semver) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// LessThan reports whether v sorts before other.
func (v Semver) LessThan(other Semver) bool {
	if v.Major != other.Major {
		return v.Major < other.Major
	}
	if v.Minor != other.Minor {
		return v.Minor < other.Minor
	}
	return v.Patch < other.Patch
}
