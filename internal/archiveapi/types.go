package archiveapi

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Record is one archive item as listed by search or the user's uploads.
type Record struct {
	Identifier  string `json:"identifier" yaml:"identifier"`
	Title       string `json:"title" yaml:"title"`
	Date        string `json:"date,omitempty" yaml:"date,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Creator     string `json:"creator,omitempty" yaml:"creator,omitempty"`
	Band        string `json:"band,omitempty" yaml:"band,omitempty"`
	Venue       string `json:"venue,omitempty" yaml:"venue,omitempty"`
	YouTube     string `json:"youtube,omitempty" yaml:"youtube,omitempty"`
	FB          string `json:"fb,omitempty" yaml:"fb,omitempty"`
	Facebook    string `json:"facebook,omitempty" yaml:"facebook,omitempty"`
}

// VideoLink returns the record's existing video link, if any.
func (r Record) VideoLink() string {
	return strings.TrimSpace(r.YouTube)
}

// ItemsResponse is returned by search and user-items.
type ItemsResponse struct {
	Items  []Record `json:"items"`
	Cached bool     `json:"cached,omitempty"`
}

// Operation values accepted by update-metadata.
const (
	OperationAdd     = "add"
	OperationReplace = "replace"
	OperationRemove  = "remove"
)

// ValidOperation reports whether op is one update-metadata accepts.
func ValidOperation(op string) bool {
	switch op {
	case OperationAdd, OperationReplace, OperationRemove:
		return true
	}
	return false
}

// MetadataUpdate changes one field on every listed item.
type MetadataUpdate struct {
	Field     string `json:"field"`
	Value     string `json:"value"`
	Operation string `json:"operation"`
}

// UpdateMetadataRequest is the body of POST /api/update-metadata.
type UpdateMetadataRequest struct {
	Items   []string         `json:"items"`
	Updates []MetadataUpdate `json:"updates"`
}

// UpdateResult is the per-item outcome of a metadata update.
type UpdateResult struct {
	Identifier string `json:"identifier"`
	Success    bool   `json:"success"`
	Message    string `json:"message,omitempty"`
	Error      string `json:"error,omitempty"`
}

// UpdateMetadataResponse lists per-item outcomes.
type UpdateMetadataResponse struct {
	Results []UpdateResult `json:"results"`
}

// SuggestItem is one record submitted for video matching.
type SuggestItem struct {
	Identifier string `json:"identifier"`
	Title      string `json:"title"`
	Date       string `json:"date,omitempty"`
}

// Suggestion is the video host's best match for a record. Field names match
// the archive metadata fields they populate.
type Suggestion struct {
	Identifier     string `json:"identifier"`
	Success        bool   `json:"success"`
	VideoLink      string `json:"youtube,omitempty"`
	Performer      string `json:"band,omitempty"`
	Venue          string `json:"venue,omitempty"`
	Date           string `json:"date,omitempty"`
	Error          string `json:"error,omitempty"`
	QuotaExhausted bool   `json:"quotaExhausted,omitempty"`
}

// Fields returns the non-empty suggested metadata values keyed by field name.
func (s Suggestion) Fields() map[string]string {
	fields := make(map[string]string, 4)
	for name, value := range map[string]string{
		FieldYouTube: s.VideoLink,
		FieldBand:    s.Performer,
		FieldVenue:   s.Venue,
		FieldDate:    s.Date,
	} {
		if v := strings.TrimSpace(value); v != "" {
			fields[name] = v
		}
	}
	return fields
}

// Metadata field names written by the workflows.
const (
	FieldYouTube = "youtube"
	FieldBand    = "band"
	FieldVenue   = "venue"
	FieldDate    = "date"
)

// SuggestFieldOrder is the stable order in which suggested fields are applied.
var SuggestFieldOrder = []string{FieldYouTube, FieldBand, FieldVenue, FieldDate}

// SuggestRequest is the body of POST /api/youtube-suggest.
type SuggestRequest struct {
	Items []SuggestItem `json:"items"`
}

// SuggestResponse carries per-item suggestions and the top-level quota flag.
type SuggestResponse struct {
	Results        []Suggestion `json:"results"`
	QuotaExhausted *bool        `json:"quotaExhausted,omitempty"`
	Error          string       `json:"error,omitempty"`
}

// Text decodes archive metadata values that may be a string, a list of
// strings, or a bare number. Lists collapse to their first non-empty element.
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
	case '[':
		var list []Text
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*t = ""
		for _, item := range list {
			if strings.TrimSpace(string(item)) != "" {
				*t = item
				break
			}
		}
	default:
		*t = Text(data)
	}
	return nil
}

// String returns the trimmed value.
func (t Text) String() string {
	return strings.TrimSpace(string(t))
}

// ItemMetadata is the subset of an item's metadata the workflows read.
type ItemMetadata struct {
	Identifier  Text `json:"identifier"`
	Title       Text `json:"title"`
	YouTube     Text `json:"youtube"`
	Band        Text `json:"band"`
	Creator     Text `json:"creator"`
	Venue       Text `json:"venue"`
	Description Text `json:"description"`
	Date        Text `json:"date"`
}

// Performer prefers the band field over the creator.
func (m ItemMetadata) Performer() string {
	if band := m.Band.String(); band != "" {
		return band
	}
	return m.Creator.String()
}

// MetadataResponse wraps GET /api/metadata/{identifier}.
type MetadataResponse struct {
	Metadata ItemMetadata `json:"metadata"`
}

// DateUpdate sets one video's recording date.
type DateUpdate struct {
	ArchiveID     string `json:"archiveId"`
	VideoID       string `json:"videoId"`
	RecordingDate string `json:"recordingDate"`
}

// DescriptionUpdate replaces one video's description.
type DescriptionUpdate struct {
	VideoID        string `json:"videoId"`
	NewDescription string `json:"newDescription"`
}

// AuthStatus reports whether the backend holds a video-host OAuth token.
type AuthStatus struct {
	Authenticated bool `json:"authenticated"`
}
