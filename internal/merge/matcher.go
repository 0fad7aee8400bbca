// SPDX-License-Identifier: MIT

package merge

import (
	"regexp"
	"time"
)

const dateLayout = "2006-01-02"

var datePattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// ExtractDate scans name for the first YYYY-MM-DD substring and parses it as
// a calendar date. A pattern hit that is not a real date (2024-13-40) counts
// as no match rather than an error.
func ExtractDate(name string) (time.Time, bool) {
	m := datePattern.FindString(name)
	if m == "" {
		return time.Time{}, false
	}
	d, err := time.Parse(dateLayout, m)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// MatchesDate reports whether name embeds exactly the target calendar date.
func MatchesDate(name string, target time.Time) bool {
	d, ok := ExtractDate(name)
	if !ok {
		return false
	}
	y1, m1, d1 := d.Date()
	y2, m2, d2 := target.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
