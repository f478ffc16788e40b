package server

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Version is the version of the REST API served and expected by this module.
const Version = "0.1.0"

// versionConstraint accepts every patch release of the current minor version.
var versionConstraint *semver.Constraints

func init() {
	v := semver.MustParse(Version)
	var err error
	versionConstraint, err = semver.NewConstraint(fmt.Sprintf("~%d.%d", v.Major(), v.Minor()))
	if err != nil {
		panic(err)
	}
}

// IsVersionCompatible reports whether a server announcing version speaks the API
// this module implements. Invalid version strings are incompatible.
func IsVersionCompatible(version string) bool {
	v, err := semver.NewVersion(version)
	if err != nil {
		return false
	}
	return versionConstraint.Check(v)
}
