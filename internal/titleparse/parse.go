package titleparse

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const minNameLength = 3

var (
	performerPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^([^@]+?)\s*@`),
		regexp.MustCompile(`^(.+?)\s+on\s+\d`),
		regexp.MustCompile(`^(.+?)\s+in\s+\d`),
	}
	venuePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)@\s+([^(]+?)\s*\(`),
		regexp.MustCompile(`(?i)@\s+(.+?)(?:\s+on\s|\s+\[|\s+\d{4}|$)`),
		regexp.MustCompile(`(?i)\bat\s+([^(]+?)\s*\(`),
		regexp.MustCompile(`(?i)\bat\s+(.+?)(?:\s+on\s|\s+\[|\s+\d{4}|$)`),
	}
	parenthetical      = regexp.MustCompile(`\s*\([^)]*\)`)
	identifierDatePart = regexp.MustCompile(`^(?:\d{1,2}\.\d{1,2}\.\d{2}_|\d{4}-\d{2}-\d{2}-)`)
	genericNames       = map[string]struct{}{
		"live":        {},
		"show":        {},
		"concert":     {},
		"performance": {},
	}
)

// Performer returns the performer named at the start of a title.
func Performer(title string) (string, bool) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", false
	}
	for _, pattern := range performerPatterns {
		m := pattern.FindStringSubmatch(title)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[1])
		if len(name) < minNameLength {
			continue
		}
		if _, generic := genericNames[strings.ToLower(name)]; generic {
			continue
		}
		return name, true
	}
	return "", false
}

// Venue returns the venue named after "@" or "at" in a title, without any
// parenthesized city or event detail.
func Venue(title string) (string, bool) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", false
	}
	for _, pattern := range venuePatterns {
		m := pattern.FindStringSubmatch(title)
		if m == nil {
			continue
		}
		venue := strings.TrimSpace(parenthetical.ReplaceAllString(m[1], ""))
		if len(venue) >= minNameLength {
			return venue, true
		}
	}
	return "", false
}

// PerformerFromIdentifier derives a display name from an identifier slug,
// dropping any leading date ("01.20.12_thou_live" -> "Thou Live").
func PerformerFromIdentifier(identifier string) (string, bool) {
	slug := identifierDatePart.ReplaceAllString(strings.TrimSpace(identifier), "")
	if slug == "" {
		return "", false
	}
	var cleaned strings.Builder
	prevSpace := false
	for _, r := range slug {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			cleaned.WriteRune(r)
			prevSpace = false
		case r == '-' || r == '_' || r == '.' || unicode.IsSpace(r):
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	name := strings.TrimSpace(cleaned.String())
	if len(name) < minNameLength {
		return "", false
	}
	return cases.Title(language.Und).String(name), true
}
