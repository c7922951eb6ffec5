package dateinfer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	identifierDotted  = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{2})_`)
	identifierISO     = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})-`)
	titleDotted       = regexp.MustCompile(`\bon (\d{2})\.(\d{2})\.(\d{2})\b`)
	titleSlashed      = regexp.MustCompile(`\bon (\d{1,2})/(\d{1,2})/(\d{2,4})\b`)
	titleDashedShort  = regexp.MustCompile(`\bon (\d{2})-(\d{2})-(\d{2})\b`)
	titleISO          = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`)
	fieldSlashed      = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{2}|\d{4})$`)
	fieldDotted       = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{2}|\d{4})$`)
	fieldISOTimestamp = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})T`)
	fieldISO          = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	fieldYear         = regexp.MustCompile(`^\d{4}$`)
)

// FromIdentifier parses dates embedded at the start of archive identifiers
// such as "01.20.12_Thou" or "2012-01-20-thou". Two-digit years are 20YY.
func FromIdentifier(identifier string) (string, bool) {
	identifier = strings.TrimSpace(identifier)
	if m := identifierDotted.FindStringSubmatch(identifier); m != nil {
		return assemble(expandYear(m[3]), m[1], m[2])
	}
	if m := identifierISO.FindStringSubmatch(identifier); m != nil {
		return assemble(m[1], m[2], m[3])
	}
	return "", false
}

// FromTitle parses the "on MM.DD.YY" style dates the archive's uploaders use
// in titles ("Thou @ The Che Cafe on 01.12.12").
func FromTitle(title string) (string, bool) {
	if m := titleDotted.FindStringSubmatch(title); m != nil {
		return assemble(expandYear(m[3]), m[1], m[2])
	}
	if m := titleSlashed.FindStringSubmatch(title); m != nil {
		return assemble(expandYear(m[3]), m[1], m[2])
	}
	if m := titleISO.FindStringSubmatch(title); m != nil {
		return assemble(m[1], m[2], m[3])
	}
	if m := titleDashedShort.FindStringSubmatch(title); m != nil {
		return assemble(expandYear(m[3]), m[1], m[2])
	}
	return "", false
}

// Standardize rewrites an archive date field into YYYY-MM-DD. Slashed values
// are month first, dotted values day first. Year-only values map to January 1.
// Unrecognized values are returned unchanged with ok=false.
func Standardize(value string) (string, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return value, false
	}
	if m := fieldSlashed.FindStringSubmatch(value); m != nil {
		return assemble(expandYear(m[3]), m[1], m[2])
	}
	if m := fieldDotted.FindStringSubmatch(value); m != nil {
		return assemble(expandYear(m[3]), m[2], m[1])
	}
	if m := fieldISOTimestamp.FindStringSubmatch(value); m != nil {
		return m[1], true
	}
	if fieldISO.MatchString(value) {
		return value, true
	}
	if fieldYear.MatchString(value) {
		return value + "-01-01", true
	}
	return value, false
}

func expandYear(year string) string {
	if len(year) == 2 {
		return "20" + year
	}
	return year
}

func assemble(yearText, monthText, dayText string) (string, bool) {
	year, err := strconv.Atoi(yearText)
	if err != nil {
		return "", false
	}
	month, err := strconv.Atoi(monthText)
	if err != nil {
		return "", false
	}
	day, err := strconv.Atoi(dayText)
	if err != nil {
		return "", false
	}
	if !validCalendarDate(year, month, day) {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), true
}
