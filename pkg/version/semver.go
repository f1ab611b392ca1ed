package version

import (
	"github.com/Masterminds/semver/v3"
)

var (
	parsedVersion  *semver.Version
	parseAttempted bool
)

// resetParsedVersion clears the cached parsed version for testing.
func resetParsedVersion() {
	parsedVersion = nil
	parseAttempted = false
}

// Parsed returns the parsed build version, or nil for builds like "dev".
func Parsed() *semver.Version {
	if parsedVersion != nil || parseAttempted {
		return parsedVersion
	}
	parseAttempted = true

	v, err := semver.NewVersion(Version)
	if err != nil {
		return nil
	}
	parsedVersion = v
	return parsedVersion
}

// IsPrerelease returns true for versions such as v1.2.0-rc.1.
func IsPrerelease() bool {
	v := Parsed()
	return v != nil && v.Prerelease() != ""
}

// IsDevBuild returns true if the build carries no valid semver.
func IsDevBuild() bool {
	return Parsed() == nil
}
