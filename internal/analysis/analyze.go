package analysis

import (
	"sort"
	"strings"

	"github.com/allenhsieh/archivebatcheditor-sub001/internal/archiveapi"
	"github.com/allenhsieh/archivebatcheditor-sub001/internal/dateinfer"
	"github.com/allenhsieh/archivebatcheditor-sub001/internal/titleparse"
)

// Issue names one gap in a record's metadata.
type Issue string

const (
	IssueMissingBand   Issue = "missing_band"
	IssueMissingVenue  Issue = "missing_venue"
	IssueMissingDate   Issue = "missing_date"
	IssueBadDateFormat Issue = "bad_date_format"
)

// Fields holds the band, venue, and date values of a record.
type Fields struct {
	Band  string `json:"band,omitempty" yaml:"band,omitempty"`
	Venue string `json:"venue,omitempty" yaml:"venue,omitempty"`
	Date  string `json:"date,omitempty" yaml:"date,omitempty"`
}

// Finding is the analysis of one record that has at least one issue.
type Finding struct {
	Identifier  string  `json:"identifier"`
	Title       string  `json:"title"`
	Current     Fields  `json:"current"`
	Issues      []Issue `json:"issues"`
	Suggestions Fields  `json:"suggestions"`
}

// Has reports whether the finding lists issue.
func (f Finding) Has(issue Issue) bool {
	for _, i := range f.Issues {
		if i == issue {
			return true
		}
	}
	return false
}

// Apply returns r with the suggested values filled in.
func (f Finding) Apply(r archiveapi.Record) archiveapi.Record {
	if f.Suggestions.Band != "" {
		r.Band = f.Suggestions.Band
	}
	if f.Suggestions.Venue != "" {
		r.Venue = f.Suggestions.Venue
	}
	if f.Suggestions.Date != "" {
		r.Date = f.Suggestions.Date
	}
	return r
}

// Analyzer inspects records for metadata gaps.
type Analyzer struct {
	dates *dateinfer.Engine
}

// New constructs an Analyzer. A nil engine uses dateinfer defaults.
func New(dates *dateinfer.Engine) *Analyzer {
	if dates == nil {
		dates = dateinfer.New()
	}
	return &Analyzer{dates: dates}
}

// Record analyzes one record. ok is false when nothing needs fixing.
//
// A missing field is only reported when the title yields a replacement. An
// existing date is reported when it standardizes to a different string, or
// when it is a bare January 1 and the title names a precise day.
func (a *Analyzer) Record(r archiveapi.Record) (Finding, bool) {
	title := strings.TrimSpace(r.Title)
	f := Finding{
		Identifier: r.Identifier,
		Title:      title,
		Current: Fields{
			Band:  strings.TrimSpace(r.Band),
			Venue: strings.TrimSpace(r.Venue),
			Date:  strings.TrimSpace(r.Date),
		},
	}

	if f.Current.Band == "" {
		if band, ok := titleparse.Performer(title); ok {
			f.Issues = append(f.Issues, IssueMissingBand)
			f.Suggestions.Band = band
		}
	}
	if f.Current.Venue == "" {
		if venue, ok := titleparse.Venue(title); ok {
			f.Issues = append(f.Issues, IssueMissingVenue)
			f.Suggestions.Venue = venue
		}
	}

	titleDate, hasTitleDate := a.titleDate(title)
	switch current := f.Current.Date; {
	case current == "":
		if hasTitleDate {
			f.Issues = append(f.Issues, IssueMissingDate)
			f.Suggestions.Date = titleDate
		}
	default:
		standardized, ok := dateinfer.Standardize(current)
		if !ok {
			break
		}
		if hasTitleDate && strings.HasSuffix(standardized, "-01-01") && !strings.HasSuffix(titleDate, "-01-01") {
			f.Issues = append(f.Issues, IssueBadDateFormat)
			f.Suggestions.Date = titleDate
		} else if standardized != current {
			f.Issues = append(f.Issues, IssueBadDateFormat)
			f.Suggestions.Date = standardized
		}
	}

	return f, len(f.Issues) > 0
}

// titleDate prefers a full numeric date anywhere in the title, then the
// uploaders' "on MM.DD.YY" form.
func (a *Analyzer) titleDate(title string) (string, bool) {
	if date, ok := a.dates.Detect(title); ok {
		return date, true
	}
	return dateinfer.FromTitle(title)
}

// Analyze returns findings for every record that needs fixing, ordered for
// review: date-only fixes first, then records missing several fields, then
// single gaps.
func (a *Analyzer) Analyze(records []archiveapi.Record) []Finding {
	var findings []Finding
	for _, r := range records {
		if f, ok := a.Record(r); ok {
			findings = append(findings, f)
		}
	}
	sort.SliceStable(findings, func(i, j int) bool {
		ri, rj := reviewRank(findings[i]), reviewRank(findings[j])
		if ri != rj {
			return ri < rj
		}
		return findings[i].Identifier < findings[j].Identifier
	})
	return findings
}

func reviewRank(f Finding) int {
	band, venue, badDate := f.Has(IssueMissingBand), f.Has(IssueMissingVenue), f.Has(IssueBadDateFormat)
	switch {
	case badDate && len(f.Issues) == 1:
		return 1
	case band && venue:
		return 2
	case band && badDate:
		return 3
	case venue && badDate:
		return 4
	case band && len(f.Issues) == 1:
		return 5
	case venue && len(f.Issues) == 1:
		return 6
	default:
		return 7
	}
}

// Tally counts findings per issue.
func Tally(findings []Finding) map[Issue]int {
	counts := make(map[Issue]int)
	for _, f := range findings {
		for _, issue := range f.Issues {
			counts[issue]++
		}
	}
	return counts
}
