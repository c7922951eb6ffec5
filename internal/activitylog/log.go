// Package activitylog holds the append-only audit trail of a workflow run.
//
// Entries are numbered in insertion order and never rewritten. Sinks receive
// every appended entry after the lock is released, which is how entries are
// mirrored into slog and rendered live by the CLI.
package activitylog

import (
	"sync"
	"time"
)

// Kind classifies an entry.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
	KindSkipped Kind = "skipped"
)

// Entry is one audit line.
type Entry struct {
	Sequence  uint64    `json:"seq"`
	Kind      Kind      `json:"kind"`
	Message   string    `json:"message"`
	RecordID  string    `json:"record_id,omitempty"`
	Timestamp time.Time `json:"ts"`
}

// Sink receives appended entries.
type Sink interface {
	Append(Entry)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Entry)

// Append calls f.
func (f SinkFunc) Append(e Entry) { f(e) }

// Log is a mutex-guarded append-only entry list.
type Log struct {
	mu      sync.Mutex
	entries []Entry
	nextSeq uint64
	sinks   []Sink
	now     func() time.Time
}

// New constructs an empty Log.
func New(sinks ...Sink) *Log {
	l := &Log{now: func() time.Time { return time.Now().UTC() }}
	for _, sink := range sinks {
		l.AddSink(sink)
	}
	return l
}

// AddSink wires an additional sink that receives every appended entry.
func (l *Log) AddSink(sink Sink) {
	if l == nil || sink == nil {
		return
	}
	l.mu.Lock()
	l.sinks = append(l.sinks, sink)
	l.mu.Unlock()
}

// Append records an entry and returns it with its sequence and timestamp set.
func (l *Log) Append(kind Kind, message, recordID string) Entry {
	if l == nil {
		return Entry{}
	}
	l.mu.Lock()
	l.nextSeq++
	entry := Entry{
		Sequence:  l.nextSeq,
		Kind:      kind,
		Message:   message,
		RecordID:  recordID,
		Timestamp: l.now(),
	}
	l.entries = append(l.entries, entry)
	sinks := append([]Sink(nil), l.sinks...)
	l.mu.Unlock()

	for _, sink := range sinks {
		sink.Append(entry)
	}
	return entry
}

// Success appends a success entry.
func (l *Log) Success(recordID, message string) Entry {
	return l.Append(KindSuccess, message, recordID)
}

// Error appends an error entry.
func (l *Log) Error(recordID, message string) Entry {
	return l.Append(KindError, message, recordID)
}

// Info appends an info entry.
func (l *Log) Info(recordID, message string) Entry {
	return l.Append(KindInfo, message, recordID)
}

// Skipped appends a skipped entry.
func (l *Log) Skipped(recordID, message string) Entry {
	return l.Append(KindSkipped, message, recordID)
}

// Entries returns a copy of every entry in insertion order.
func (l *Log) Entries() []Entry {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Since returns entries with a sequence greater than seq.
func (l *Log) Since(seq uint64) []Entry {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, e := range l.entries {
		if e.Sequence > seq {
			out := make([]Entry, len(l.entries)-i)
			copy(out, l.entries[i:])
			return out
		}
	}
	return nil
}

// Len reports the number of entries.
func (l *Log) Len() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Count reports how many of entries have the given kind.
func Count(entries []Entry, kind Kind) int {
	n := 0
	for _, e := range entries {
		if e.Kind == kind {
			n++
		}
	}
	return n
}
