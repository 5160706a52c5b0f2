// Package duration parses the "1d3h30m40s"-style strings the drive
// table uses for PIPELINE_EXP_DURATION and the tick's x_time_back and
// granularity settings into a time.Duration.
package duration

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var unitPattern = regexp.MustCompile(`(\d+)([dhms])`)

// ErrInvalidDuration is wrapped by Parse's error when the input holds
// no recognized duration unit.
var ErrInvalidDuration = errors.New("invalid duration")

// Parse converts a duration string composed of any subset of d/h/m/s
// components, in any order, into a time.Duration. "1d3h30m40s", "4h"
// and "30m1d" are all accepted; a string with no recognized unit is an
// error, matching the zero-seconds guard the original parser used.
func Parse(s string) (time.Duration, error) {
	matches := unitPattern.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return 0, fmt.Errorf("%w: %q: no valid duration units found", ErrInvalidDuration, s)
	}

	var total time.Duration
	for _, m := range matches {
		n, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("duration %q: %w", s, err)
		}
		value := time.Duration(n)

		switch m[2] {
		case "d":
			total += value * 24 * time.Hour
		case "h":
			total += value * time.Hour
		case "m":
			total += value * time.Minute
		case "s":
			total += value * time.Second
		}
	}

	return total, nil
}
