package memcache

import (
	"strconv"
	"strings"
	"time"
)

// ParseMaxAge extracts the freshness lifetime from a Cache-Control
// header. s-maxage wins over max-age when both are present; a header
// carrying neither yields nil, which means the entry never expires by
// time and is revalidated through its etag instead.
func ParseMaxAge(cacheControl string) *time.Duration {
	if cacheControl == "" {
		return nil
	}

	var maxAge, sMaxAge *time.Duration
	for _, directive := range strings.Split(cacheControl, ",") {
		directive = strings.TrimSpace(directive)
		name, value, found := strings.Cut(directive, "=")
		if !found {
			continue
		}
		secs, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || secs < 0 {
			continue
		}
		d := time.Duration(secs) * time.Second

		switch strings.ToLower(strings.TrimSpace(name)) {
		case "s-maxage":
			sMaxAge = &d
		case "max-age":
			maxAge = &d
		}
	}

	if sMaxAge != nil {
		return sMaxAge
	}
	return maxAge
}
