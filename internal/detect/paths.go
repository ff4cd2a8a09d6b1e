package detect

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var windowsVar = regexp.MustCompile(`%([^%]+)%`)

// ExpandPath resolves %VAR%, $VAR, ${VAR} and a leading ~ in p using getenv.
// It reports false when any referenced variable is unset, since the
// remainder would point somewhere unrelated.
func ExpandPath(p string, getenv func(string) string) (string, bool) {
	ok := true
	lookup := func(name string) string {
		v := getenv(name)
		if v == "" {
			ok = false
		}
		return v
	}

	p = windowsVar.ReplaceAllStringFunc(p, func(m string) string {
		return lookup(m[1 : len(m)-1])
	})
	p = os.Expand(p, lookup)

	if p == "~" || strings.HasPrefix(p, "~/") || strings.HasPrefix(p, `~\`) {
		home := getenv("HOME")
		if home == "" {
			home = getenv("USERPROFILE")
		}
		if home == "" {
			return "", false
		}
		p = home + p[1:]
	}

	if !ok || p == "" {
		return "", false
	}
	return filepath.FromSlash(p), true
}
