package analysis

import (
	"regexp"
	"strings"

	"github.com/allenhsieh/archivebatcheditor-sub001/internal/archiveapi"
)

var eventLinkPattern = regexp.MustCompile(`(?i)https?://(?:(?:[a-z0-9-]+\.)*facebook\.com/(?:[^/\s<>"']+/)?events/[^\s<>"']+|fb\.me/e/\w+)`)

// EventMatch lists the event links found on one record.
type EventMatch struct {
	Identifier string   `json:"identifier"`
	Title      string   `json:"title"`
	Links      []string `json:"links"`
	Fields     []string `json:"fields"`
}

// EventLinks returns the distinct event links in text, in order of
// appearance.
func EventLinks(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, link := range eventLinkPattern.FindAllString(text, -1) {
		link = strings.TrimRight(link, ".,;)")
		if seen[link] {
			continue
		}
		seen[link] = true
		out = append(out, link)
	}
	return out
}

// FindEvents scans each record's description, fb, and facebook fields.
// Records without a link are omitted.
func FindEvents(records []archiveapi.Record) []EventMatch {
	var matches []EventMatch
	for _, r := range records {
		m := EventMatch{Identifier: r.Identifier, Title: r.Title}
		seen := make(map[string]bool)
		for _, field := range []struct {
			name string
			text string
		}{
			{"description", r.Description},
			{"fb", r.FB},
			{"facebook", r.Facebook},
		} {
			links := EventLinks(field.text)
			if len(links) == 0 {
				continue
			}
			m.Fields = append(m.Fields, field.name)
			for _, link := range links {
				if !seen[link] {
					seen[link] = true
					m.Links = append(m.Links, link)
				}
			}
		}
		if len(m.Links) > 0 {
			matches = append(matches, m)
		}
	}
	return matches
}
