package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/allenhsieh/archivebatcheditor-sub001/internal/archiveapi"
)

// Mode selects the pipeline a run executes.
type Mode string

const (
	ModeDiscover        Mode = "discoverAndLink"
	ModeDatesBulk       Mode = "recordingDateBulk"
	ModeDatesIndividual Mode = "recordingDateIndividual"
	ModeDescriptions    Mode = "descriptionStandardize"
	ModeImageUpload     Mode = "imageUpload"
)

// Modes lists every supported mode.
var Modes = []Mode{ModeDiscover, ModeDatesBulk, ModeDatesIndividual, ModeDescriptions, ModeImageUpload}

// ParseMode resolves a mode name.
func ParseMode(value string) (Mode, bool) {
	for _, m := range Modes {
		if strings.EqualFold(string(m), strings.TrimSpace(value)) {
			return m, true
		}
	}
	return "", false
}

// Request describes one run.
type Request struct {
	Mode    Mode
	Records []archiveapi.Record

	// BulkDate is applied to every record in recordingDateBulk mode.
	BulkDate string
	// StoreLink is appended as the "full @" tail in descriptionStandardize mode.
	StoreLink string
	// Selections override the default field selection per record identifier.
	Selections map[string]FieldSelection
	// Refresh bypasses the suggest cache.
	Refresh bool
	// Image is attached to every record in imageUpload mode.
	Image *archiveapi.Image

	DryRun bool
}

// FieldSelection maps a metadata field to whether it should be applied.
type FieldSelection map[string]bool

// DefaultSelection selects every non-empty suggested field.
func DefaultSelection(s archiveapi.Suggestion) FieldSelection {
	sel := make(FieldSelection)
	for field := range s.Fields() {
		sel[field] = true
	}
	return sel
}

// Merge returns a copy of sel with override applied on top.
func (sel FieldSelection) Merge(override FieldSelection) FieldSelection {
	out := make(FieldSelection, len(sel)+len(override))
	for k, v := range sel {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}

// Updates builds metadata updates for the selected, non-empty fields in a
// stable order.
func (sel FieldSelection) Updates(s archiveapi.Suggestion) []archiveapi.MetadataUpdate {
	fields := s.Fields()
	var updates []archiveapi.MetadataUpdate
	for _, name := range archiveapi.SuggestFieldOrder {
		value, ok := fields[name]
		if !ok || !sel[name] {
			continue
		}
		updates = append(updates, archiveapi.MetadataUpdate{
			Field:     name,
			Value:     value,
			Operation: archiveapi.OperationReplace,
		})
	}
	return updates
}

// VideoDateMapping ties a record to the recording date written to its video.
// An empty DetectedDate means FinalDate is the current-date fallback.
type VideoDateMapping struct {
	RecordID     string `json:"recordId"`
	VideoID      string `json:"videoId"`
	Title        string `json:"title"`
	DetectedDate string `json:"detectedDate,omitempty"`
	FinalDate    string `json:"finalDate"`
	Source       string `json:"source,omitempty"`
}

// DescriptionPreview is the proposed rewrite of one video description.
type DescriptionPreview struct {
	RecordID           string `json:"recordId"`
	VideoID            string `json:"videoId"`
	CurrentDescription string `json:"currentDescription"`
	NewDescription     string `json:"newDescription"`
	NeedsUpdate        bool   `json:"needsUpdate"`
}

// DescriptionTarget is the input for one preview.
type DescriptionTarget struct {
	RecordID  string
	VideoID   string
	Performer string
}

// RunState is the outcome of one run. It is created per invocation and
// returned by value.
type RunState struct {
	RunID        string    `json:"runId"`
	Mode         Mode      `json:"mode"`
	DryRun       bool      `json:"dryRun,omitempty"`
	Processed    int       `json:"processed"`
	Added        int       `json:"added"`
	Skipped      int       `json:"skipped"`
	// Errors counts the error entries this run wrote to the activity log.
	Errors       int       `json:"errors"`
	HaltedReason string    `json:"haltedReason,omitempty"`
	HaltKind     string    `json:"haltKind,omitempty"`
	StartedAt    time.Time `json:"startedAt"`
	FinishedAt   time.Time `json:"finishedAt"`

	Mappings []VideoDateMapping   `json:"mappings,omitempty"`
	Previews []DescriptionPreview `json:"previews,omitempty"`

	Err error `json:"-"`
}

// Halted reports whether the run stopped early.
func (s RunState) Halted() bool {
	return s.HaltedReason != ""
}

// Duration reports how long the run took.
func (s RunState) Duration() time.Duration {
	if s.FinishedAt.IsZero() || s.StartedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// Summary renders the counts line written at the end of every run.
func (s RunState) Summary() string {
	counts := fmt.Sprintf("%d processed, %d added, %d skipped", s.Processed, s.Added, s.Skipped)
	if s.Halted() {
		return fmt.Sprintf("Run halted (%s): %s", s.HaltedReason, counts)
	}
	if s.DryRun {
		return "Dry run complete: " + counts
	}
	return "Run complete: " + counts
}

// PendingDescriptionUpdates returns the previews that need rewriting, in
// record order.
func PendingDescriptionUpdates(previews []DescriptionPreview) []DescriptionPreview {
	var out []DescriptionPreview
	for _, p := range previews {
		if p.NeedsUpdate {
			out = append(out, p)
		}
	}
	return out
}
