package config

import (
	"regexp"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// lifetimePattern matches the compact lifetime strings used in the
// environment: an integer followed by a single unit, e.g. "15m", "7d".
var lifetimePattern = regexp.MustCompile(`^(\d+)([smhd])$`)

var unitFactors = map[string]time.Duration{
	"s": time.Second,
	"m": time.Minute,
	"h": time.Hour,
	"d": 24 * time.Hour,
}

// ParseLifetime converts a "<integer><unit>" string (unit one of
// s, m, h, d) into a time.Duration. There is no partial parsing and no
// default: anything that does not match the pattern is a configuration
// error. Both the token expiry and the cookie max-age are derived from
// the result, so the two can never drift.
func ParseLifetime(s string) (time.Duration, error) {
	matches := lifetimePattern.FindStringSubmatch(s)
	if matches == nil {
		return 0, errors.Errorf("[ParseLifetime] invalid lifetime %q: expected <integer><s|m|h|d>", s)
	}
	n, err := strconv.ParseInt(matches[1], 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "[ParseLifetime] invalid lifetime %q", s)
	}
	return time.Duration(n) * unitFactors[matches[2]], nil
}
