package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseLocation accepts an IANA zone name ("Europe/Berlin") or a fixed
// offset written as "+08:00", "+0800" or "UTC+8". Empty means time.Local.
func ParseLocation(raw string) (*time.Location, error) {
	tz := strings.TrimSpace(raw)
	if tz == "" {
		return time.Local, nil
	}
	if loc, err := time.LoadLocation(tz); err == nil {
		return loc, nil
	}
	if offset, ok := parseOffset(strings.TrimPrefix(strings.ToUpper(tz), "UTC")); ok {
		return time.FixedZone(tz, offset), nil
	}
	return nil, fmt.Errorf("unknown timezone %q, expected an IANA zone or a UTC offset like +08:00", tz)
}

func parseOffset(s string) (int, bool) {
	if len(s) < 2 || (s[0] != '+' && s[0] != '-') {
		return 0, false
	}
	sign := 1
	if s[0] == '-' {
		sign = -1
	}
	body := strings.Replace(s[1:], ":", "", 1)

	var hh, mm string
	switch len(body) {
	case 1, 2:
		hh, mm = body, "0"
	case 4:
		hh, mm = body[:2], body[2:]
	default:
		return 0, false
	}
	h, errH := strconv.Atoi(hh)
	m, errM := strconv.Atoi(mm)
	if errH != nil || errM != nil || h < 0 || m < 0 {
		return 0, false
	}
	if h > 14 || m > 59 {
		return 0, false
	}
	return sign * (h*3600 + m*60), true
}

// Location is the configured timezone. Parse has already validated it.
func (c *AppConfig) Location() *time.Location {
	loc, err := ParseLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
