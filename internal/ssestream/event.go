package ssestream

import "encoding/json"

// Kind classifies a decoded event.
type Kind string

const (
	KindResult   Kind = "result"
	KindProgress Kind = "progress"
	KindComplete Kind = "complete"
	// KindError is a stream-level failure that names no item.
	KindError    Kind = "error"
	KindUnknown  Kind = "unknown"
)

// Event is one decoded stream payload. Result events carry a correlating ID
// (VideoID for video-host streams, Identifier for archive uploads) plus a
// success flag or an error message.
type Event struct {
	Type       string `json:"type,omitempty"`
	VideoID    string `json:"videoId,omitempty"`
	Identifier string `json:"identifier,omitempty"`
	Success    *bool  `json:"success,omitempty"`
	Error      string `json:"error,omitempty"`
	Message    string `json:"message,omitempty"`
	Progress   int    `json:"progress,omitempty"`
	Total      int    `json:"total,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// CorrelationID returns the ID that ties a result back to its request.
func (e Event) CorrelationID() string {
	if e.VideoID != "" {
		return e.VideoID
	}
	return e.Identifier
}

// Succeeded reports an explicit success without an error message.
func (e Event) Succeeded() bool {
	return e.Success != nil && *e.Success && e.Error == ""
}

// Failed reports an error message or an explicit failure.
func (e Event) Failed() bool {
	return e.Error != "" || (e.Success != nil && !*e.Success)
}

// Kind classifies the event by its type field, falling back to its shape.
func (e Event) Kind() Kind {
	switch e.Type {
	case "complete", "done":
		return KindComplete
	case "progress":
		return KindProgress
	case "result":
		return KindResult
	case "error":
		if e.CorrelationID() != "" {
			return KindResult
		}
		return KindError
	}
	if e.CorrelationID() != "" && (e.Success != nil || e.Error != "") {
		return KindResult
	}
	if e.Error != "" {
		return KindError
	}
	if e.Message != "" {
		return KindProgress
	}
	return KindUnknown
}
