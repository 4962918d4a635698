package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	hmsPattern  = regexp.MustCompile(`^(\d+):(\d{2}):(\d{2})$`)
	msPattern   = regexp.MustCompile(`^(\d+):(\d{2})$`)
	yearPattern = regexp.MustCompile(`20\d{2}`)
)

// ParseElapsed converts "H:MM:SS" or "MM:SS" to seconds.
func ParseElapsed(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if m := hmsPattern.FindStringSubmatch(s); m != nil {
		return atoi(m[1])*3600 + atoi(m[2])*60 + atoi(m[3]), true
	}
	if m := msPattern.FindStringSubmatch(s); m != nil {
		return atoi(m[1])*60 + atoi(m[2]), true
	}
	return 0, false
}

// YearFromGroup extracts the first 20xx year from an event group label,
// e.g. "2024 Berlin".
func YearFromGroup(group string) (int, bool) {
	match := yearPattern.FindString(group)
	if match == "" {
		return 0, false
	}
	return atoi(match), true
}

// FormatSeconds renders seconds as H:MM:SS.
func FormatSeconds(seconds float64) string {
	total := int(seconds + 0.5)
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%d:%02d:%02d", total/3600, total%3600/60, total%60)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
