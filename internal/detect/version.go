package detect

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ParseSemver extracts and parses the semantic version embedded in a
// detected version string such as "git version 2.42.0".
func ParseSemver(version string) (*semver.Version, error) {
	raw := ExtractSemver(version)
	if raw == "" {
		return nil, fmt.Errorf("no version number in %q", version)
	}
	return semver.NewVersion(strings.TrimPrefix(raw, "v"))
}

// CompareVersions compares two version strings.
// Returns -1 if a < b, 0 if equal, 1 if a > b.
func CompareVersions(a, b string) (int, error) {
	av, err := ParseSemver(a)
	if err != nil {
		return 0, err
	}
	bv, err := ParseSemver(b)
	if err != nil {
		return 0, err
	}
	return av.Compare(bv), nil
}

// SatisfiesMin reports whether version meets constraint, e.g. ">= 2.30.0".
// An error means the version or constraint could not be parsed.
func SatisfiesMin(version, constraint string) (bool, error) {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false, fmt.Errorf("parsing constraint %q: %w", constraint, err)
	}
	v, err := ParseSemver(version)
	if err != nil {
		return false, err
	}
	return c.Check(v), nil
}
