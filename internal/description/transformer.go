// Package description rewrites auto-generated video descriptions into the
// standardized "download @ <archive link>" tail form.
package description

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// DefaultStoreDomain is the external store whose links are upgraded and
// recognized as auto-generated markers.
const DefaultStoreDomain = "bandcamp.com"

// LongContentThreshold marks descriptions that are treated as hand-authored.
const LongContentThreshold = 1000

const annotationKeyword = `(?:download(?:\s*/\s*full)?|full(?:\s+(?:set|show|video|recording))?)`

var (
	pipeAnnotation = regexp.MustCompile(`(?i)\s*\|\s*(?:[^|\n]*?\s+-\s+)?` + annotationKeyword + `\s*@\s*\S+\s*\z`)
	lineAnnotation = regexp.MustCompile(`(?i)(?:\A|\n)[^|\n]*?\s+-\s+` + annotationKeyword + `\s*@\s*\S+\s*\z`)
	bareAnnotation = regexp.MustCompile(`(?i)(?:\A|\s+)` + annotationKeyword + `\s*@\s*\S+\s*\z`)
	markerPattern  = regexp.MustCompile(`(?i)\b(?:download|full)\s*@`)
	insecureScheme = regexp.MustCompile(`(?i)^http://`)
)

// Transformer generates standardized descriptions for one store domain.
type Transformer struct {
	storeDomain   string
	foldedDomain  string
	insecureStore *regexp.Regexp
}

// New constructs a Transformer. An empty domain selects DefaultStoreDomain.
func New(storeDomain string) *Transformer {
	domain := strings.ToLower(strings.TrimSpace(storeDomain))
	domain = strings.TrimPrefix(domain, "www.")
	if domain == "" {
		domain = DefaultStoreDomain
	}
	return &Transformer{
		storeDomain:   domain,
		foldedDomain:  cases.Fold().String(domain),
		insecureStore: regexp.MustCompile(`(?i)http://((?:[a-z0-9-]+\.)*` + regexp.QuoteMeta(domain) + `)`),
	}
}

// StoreDomain reports the configured store domain.
func (t *Transformer) StoreDomain() string {
	return t.storeDomain
}

// Generate produces the standardized description. Applying it to its own
// output with the same inputs returns the same text.
func (t *Transformer) Generate(current, performer, archiveLink, storeLink string) string {
	body := t.insecureStore.ReplaceAllString(current, "https://$1")
	body = StripAnnotations(body)
	body = strings.TrimSpace(body)

	var tail strings.Builder
	if performer = tailSafe(performer); performer != "" {
		tail.WriteString(performer)
		tail.WriteString(" - ")
	}
	tail.WriteString("download @ ")
	tail.WriteString(strings.TrimSpace(archiveLink))
	if storeLink = strings.TrimSpace(storeLink); storeLink != "" {
		tail.WriteString(" | full @ ")
		tail.WriteString(secureLink(storeLink))
	}

	if body == "" {
		return tail.String()
	}
	return body + " | " + tail.String()
}

// tailSafe keeps a performer name from opening a new annotation segment.
func tailSafe(performer string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(performer, "|", "/")), " ")
}

// ShouldUpdate reports whether current should be replaced by proposed. Only
// descriptions that already carry a download marker or a store link are
// touched; long descriptions are never overwritten.
func (t *Transformer) ShouldUpdate(current, proposed string) bool {
	if current == proposed {
		return false
	}
	if utf8.RuneCountInString(current) > LongContentThreshold {
		return false
	}
	if markerPattern.MatchString(current) {
		return true
	}
	return strings.Contains(cases.Fold().String(current), t.foldedDomain)
}

// StripAnnotations removes trailing download/full annotations until none
// remain.
func StripAnnotations(text string) string {
	for {
		next := text
		for _, pattern := range []*regexp.Regexp{pipeAnnotation, lineAnnotation, bareAnnotation} {
			if loc := pattern.FindStringIndex(next); loc != nil {
				next = next[:loc[0]]
				break
			}
		}
		if next == text {
			return text
		}
		text = next
	}
}

func secureLink(link string) string {
	return insecureScheme.ReplaceAllString(link, "https://")
}

var defaultTransformer = New(DefaultStoreDomain)

// Generate uses the default store domain.
func Generate(current, performer, archiveLink, storeLink string) string {
	return defaultTransformer.Generate(current, performer, archiveLink, storeLink)
}

// ShouldUpdate uses the default store domain.
func ShouldUpdate(current, proposed string) bool {
	return defaultTransformer.ShouldUpdate(current, proposed)
}
