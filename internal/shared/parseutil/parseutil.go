// Package parseutil normalizes the loosely formatted dates and numbers found
// in the market's HTML tables.
//
// The source publishes numbers in the Latin-American convention ("1.234,56")
// and dates as DD/MM/YYYY, sometimes prefixed with a day-name abbreviation
// ("Ma 02/12/2025").
package parseutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	minYear = 2020
	maxYear = 2030
)

var (
	// dateRe は文字列中の D/M/YYYY 部分を探します。区切りの前後の空白は許容します。
	dateRe      = regexp.MustCompile(`(\d{1,2})\s*/\s*(\d{1,2})\s*/\s*(\d{4})`)
	spaceRe     = regexp.MustCompile(`\s+`)
	nonNumberRe = regexp.MustCompile(`[^\d.\-]`)
	// numberPrefixRe mirrors a lenient float parse: the longest leading numeric prefix wins.
	numberPrefixRe = regexp.MustCompile(`^-?(\d+\.?\d*|\.\d+)`)
	canonicalRe    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// ParseDate rewrites the first D/M/YYYY occurrence in raw as YYYY-MM-DD.
// When raw holds no such date, the whitespace-collapsed input is returned
// unchanged, so callers must not assume the result is canonical.
func ParseDate(raw string) string {
	cleaned := strings.TrimSpace(spaceRe.ReplaceAllString(raw, " "))

	m := dateRe.FindStringSubmatch(cleaned)
	if m == nil {
		return cleaned
	}
	return fmt.Sprintf("%s-%s-%s", m[3], pad2(m[2]), pad2(m[1]))
}

// ParseNumber reads a number written with "." as thousands separator and ","
// as decimal separator. Empty or unparseable input yields 0.
func ParseNumber(raw string) float64 {
	if raw == "" {
		return 0
	}
	cleaned := strings.ReplaceAll(raw, ".", "")
	cleaned = strings.Replace(cleaned, ",", ".", 1)
	cleaned = nonNumberRe.ReplaceAllString(cleaned, "")

	prefix := numberPrefixRe.FindString(cleaned)
	prefix = strings.TrimSuffix(prefix, ".")
	if prefix == "" || prefix == "-" {
		return 0
	}

	d, err := decimal.NewFromString(prefix)
	if err != nil {
		return 0
	}
	return d.InexactFloat64()
}

// IsValidDate reports whether raw contains a D/M/YYYY date whose parts are in
// range. It is a sanity filter against scraped garbage, not a calendar check:
// 31/02/2025 passes.
func IsValidDate(raw string) bool {
	m := dateRe.FindStringSubmatch(raw)
	if m == nil {
		return false
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])

	if month < 1 || month > 12 {
		return false
	}
	if day < 1 || day > 31 {
		return false
	}
	return year >= minYear && year <= maxYear
}

// IsCanonicalDate reports whether s is exactly a 10-character YYYY-MM-DD string.
func IsCanonicalDate(s string) bool {
	return canonicalRe.MatchString(s)
}

// FormatQueryDate formats t as DD/MM/YYYY, the form the market's query string expects.
func FormatQueryDate(t time.Time) string {
	return t.Format("02/01/2006")
}

// FormatISODate formats t as YYYY-MM-DD.
func FormatISODate(t time.Time) string {
	return t.Format(time.DateOnly)
}

// ParseISODate parses a YYYY-MM-DD string in UTC.
func ParseISODate(s string) (time.Time, error) {
	return time.ParseInLocation(time.DateOnly, s, time.UTC)
}

// MonthBounds returns the first and last calendar day of the given month.
func MonthBounds(year int, month time.Month) (time.Time, time.Time) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	// 翌月の0日 = 当月の末日（うるう年も考慮される）
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
	return first, last
}

// MonthPrefix returns the "YYYY-MM" prefix shared by every canonical date of the month.
func MonthPrefix(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d", year, int(month))
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
