package manifest

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// CheckFormat reports whether a producer format version satisfies
// constraint. An empty constraint or "latest" accepts every valid version.
func CheckFormat(constraint, version string) error {
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("invalid format version %q: %w", version, err)
	}

	constraint = strings.TrimSpace(constraint)
	if constraint == "" || constraint == "latest" {
		constraint = ">= 0"
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return fmt.Errorf("invalid format constraint %q: %w", constraint, err)
	}

	if ok, errs := c.Validate(v); !ok {
		if len(errs) > 0 {
			return fmt.Errorf("format %s rejected: %w", v.Original(), errs[0])
		}
		return fmt.Errorf("format %s does not satisfy %q", v.Original(), constraint)
	}
	return nil
}
