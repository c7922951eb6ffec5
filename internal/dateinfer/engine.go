package dateinfer

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Layout is the canonical date form produced by this package.
const Layout = "2006-01-02"

// MinYear is the earliest year accepted as a recording date.
const MinYear = 1900

// SourceKind names where a candidate string came from.
type SourceKind string

const (
	SourceTitle       SourceKind = "title"
	SourceDescription SourceKind = "description"
	SourceIdentifier  SourceKind = "identifier"
	SourceArchiveDate SourceKind = "archive_date"
	SourceFallback    SourceKind = "fallback"
)

// Source is one candidate text in priority order.
type Source struct {
	Kind SourceKind
	Text string
}

// Result is the outcome of an inference pass.
type Result struct {
	Date     string
	Detected bool
	Source   SourceKind
	Matched  string
}

var (
	bigEndianPattern    = regexp.MustCompile(`(\d{4})[-/](\d{1,2})[-/](\d{1,2})`)
	littleEndianPattern = regexp.MustCompile(`(\d{1,2})[-/](\d{1,2})[-/](\d{4})`)
)

// Engine infers dates relative to a clock.
type Engine struct {
	now func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the clock used for the year ceiling and the fallback date.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// New constructs an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Sources builds the standard priority list from record fields.
func Sources(title, description, identifier, archiveDate string) []Source {
	return []Source{
		{Kind: SourceTitle, Text: title},
		{Kind: SourceDescription, Text: description},
		{Kind: SourceIdentifier, Text: identifier},
		{Kind: SourceArchiveDate, Text: archiveDate},
	}
}

// Infer returns the first valid date found across sources, or today's date
// with Detected=false.
func (e *Engine) Infer(sources ...Source) Result {
	now := e.now()
	for _, src := range sources {
		if strings.TrimSpace(src.Text) == "" {
			continue
		}
		if date, raw, ok := e.scan(src.Text, now.Year()); ok {
			return Result{Date: date, Detected: true, Source: src.Kind, Matched: raw}
		}
	}
	return Result{Date: now.Format(Layout), Source: SourceFallback}
}

// Detect scans a single string. It reports false when no valid date is present.
func (e *Engine) Detect(text string) (string, bool) {
	date, _, ok := e.scan(text, e.now().Year())
	return date, ok
}

type candidate struct {
	pos   int
	raw   string
	year  string
	month string
	day   string
}

func (e *Engine) scan(text string, maxYear int) (string, string, bool) {
	var candidates []candidate
	for _, m := range bigEndianPattern.FindAllStringSubmatchIndex(text, -1) {
		candidates = append(candidates, candidate{
			pos:   m[0],
			raw:   text[m[0]:m[1]],
			year:  text[m[2]:m[3]],
			month: text[m[4]:m[5]],
			day:   text[m[6]:m[7]],
		})
	}
	for _, m := range littleEndianPattern.FindAllStringSubmatchIndex(text, -1) {
		candidates = append(candidates, candidate{
			pos:   m[0],
			raw:   text[m[0]:m[1]],
			month: text[m[2]:m[3]],
			day:   text[m[4]:m[5]],
			year:  text[m[6]:m[7]],
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].pos < candidates[j].pos })

	for _, c := range candidates {
		if date, ok := build(c.year, c.month, c.day, maxYear); ok {
			return date, c.raw, true
		}
	}
	return "", "", false
}

func build(yearText, monthText, dayText string, maxYear int) (string, bool) {
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
	if year < MinYear || year > maxYear {
		return "", false
	}
	if !validCalendarDate(year, month, day) {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), true
}

func validCalendarDate(year, month, day int) bool {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return t.Year() == year && int(t.Month()) == month && t.Day() == day
}

// Normalize converts a single big- or little-endian date into the canonical
// form. It is idempotent: Normalize of a canonical date returns it unchanged.
func Normalize(value string) (string, bool) {
	value = strings.TrimSpace(value)
	if m := bigEndianPattern.FindStringSubmatch(value); m != nil && m[0] == value {
		return build(m[1], m[2], m[3], 9999)
	}
	if m := littleEndianPattern.FindStringSubmatch(value); m != nil && m[0] == value {
		return build(m[3], m[1], m[2], 9999)
	}
	return "", false
}

// MidnightUTC renders a canonical date as an ISO-8601 timestamp at UTC
// midnight, the form the video host expects for recording dates.
func MidnightUTC(date string) (string, error) {
	parsed, err := time.ParseInLocation(Layout, date, time.UTC)
	if err != nil {
		return "", fmt.Errorf("parse date %q: %w", date, err)
	}
	return parsed.Format("2006-01-02T15:04:05.000Z"), nil
}
