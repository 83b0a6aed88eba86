package auth

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var relativeExpiry = regexp.MustCompile(`^(\d+)([dwh])$`)

// ParseExpiry turns a token lifetime into an expiry time relative to now.
// "" and "never" mean no expiry. Accepted forms are Go durations ("90m"),
// day/week/hour counts ("30d", "2w", "12h") and absolute dates
// ("2027-01-31" or "2027-01-31 17:00"), which must lie in the future.
func ParseExpiry(expiresIn string, now time.Time) (*time.Time, error) {
	if expiresIn == "" || expiresIn == "never" {
		return nil, nil
	}

	if dur, err := time.ParseDuration(expiresIn); err == nil {
		if dur <= 0 {
			return nil, fmt.Errorf("expiry must be positive: %s", expiresIn)
		}
		t := now.Add(dur)
		return &t, nil
	}

	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, expiresIn, now.Location()); err == nil {
			if !t.After(now) {
				return nil, fmt.Errorf("expiry date must be in the future: %s", expiresIn)
			}
			return &t, nil
		}
	}

	m := relativeExpiry.FindStringSubmatch(expiresIn)
	if m == nil {
		return nil, fmt.Errorf("invalid expiry %q (use 'never', '30d', '2w', '12h', '2027-01-31' or a Go duration)", expiresIn)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return nil, fmt.Errorf("invalid number in expiry: %s", expiresIn)
	}

	unit := map[string]time.Duration{"h": time.Hour, "d": 24 * time.Hour, "w": 7 * 24 * time.Hour}[m[2]]
	t := now.Add(time.Duration(n) * unit)
	return &t, nil
}
