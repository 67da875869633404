// Package version records the drowse build version.
package version

import "golang.org/x/mod/semver"

// Version is the drowse release, overridden at build time:
//
//	go build -ldflags "-X github.com/drowselabs/drowse/internal/version.Version=v0.3.0"
var Version = "v0.0.0-dev"

// IsOlder reports whether release a predates release b. Strings that do
// not parse as semver compare as the zero version.
func IsOlder(a, b string) bool {
	return semver.Compare(normalize(a), normalize(b)) < 0
}

// SameMajor reports whether two releases share a major version.
func SameMajor(a, b string) bool {
	return semver.Major(normalize(a)) == semver.Major(normalize(b))
}

func normalize(v string) string {
	if v != "" && v[0] != 'v' {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return "v0.0.0"
	}
	return v
}
