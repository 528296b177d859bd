package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/rxtech-lab/argo-portfolio/pkg/errors"
)

// CheckVersionCompatibility checks whether the running engine can consume
// results written by another library version.
//
// Compatibility rules:
//   - If either version is "main" (development build), the check is skipped
//   - Major versions must match exactly
//   - Minor versions must match exactly
//   - Patch versions can differ (e.g. 1.2.0 reads results from 1.2.5)
func CheckVersionCompatibility(engineVersion, resultsVersion string) error {
	engineVersion = strings.TrimPrefix(engineVersion, "v")
	resultsVersion = strings.TrimPrefix(resultsVersion, "v")

	if engineVersion == "main" || resultsVersion == "main" {
		return nil
	}

	engineSemver, err := semver.NewVersion(engineVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid engine version '%s'", engineVersion)
	}

	resultsSemver, err := semver.NewVersion(resultsVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid results version '%s'", resultsVersion)
	}

	if engineSemver.Major() != resultsSemver.Major() {
		return errors.Newf(errors.ErrCodeInvalidVersion,
			"major version mismatch: engine is %d.x.x but results were written by %d.x.x",
			engineSemver.Major(), resultsSemver.Major())
	}

	if engineSemver.Minor() != resultsSemver.Minor() {
		return errors.Newf(errors.ErrCodeInvalidVersion,
			"minor version mismatch: engine is %d.%d.x but results were written by %d.%d.x",
			engineSemver.Major(), engineSemver.Minor(),
			resultsSemver.Major(), resultsSemver.Minor())
	}

	return nil
}
