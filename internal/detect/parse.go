package detect

import (
	"regexp"
	"strings"

	"github.com/devkit-labs/devkit/internal/registry"
)

var semverPattern = regexp.MustCompile(`v?(\d+\.\d+(?:\.\d+)?(?:-[0-9A-Za-z.-]+)?)`)

// ParseVersion extracts a version from probe output with the named parser.
// It returns VersionUnknown when nothing usable is found.
func ParseVersion(parser, pattern, output string) string {
	var v string
	switch parser {
	case registry.ParserSemver:
		v = ExtractSemver(output)
	case registry.ParserRegex:
		v = matchPattern(pattern, output)
	default:
		v = firstLine(output)
	}
	if v == "" {
		return VersionUnknown
	}
	return v
}

// ExtractSemver returns the first dotted version number in s, without any
// leading "v".
func ExtractSemver(s string) string {
	m := semverPattern.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return m[1]
}

func matchPattern(pattern, s string) string {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return ""
	}
	m := re.FindStringSubmatch(s)
	switch {
	case m == nil:
		return ""
	case len(m) > 1:
		return strings.TrimSpace(m[1])
	default:
		return strings.TrimSpace(m[0])
	}
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
