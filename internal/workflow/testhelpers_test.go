package workflow_test

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/allenhsieh/archivebatcheditor-sub001/internal/activitylog"
	"github.com/allenhsieh/archivebatcheditor-sub001/internal/archiveapi"
	"github.com/allenhsieh/archivebatcheditor-sub001/internal/notifications"
	"github.com/allenhsieh/archivebatcheditor-sub001/internal/testsupport"
	"github.com/allenhsieh/archivebatcheditor-sub001/internal/workflow"
)

type stubNotifier struct {
	mu     sync.Mutex
	events []notifications.Event
	last   notifications.Payload
}

func (s *stubNotifier) Publish(ctx context.Context, event notifications.Event, payload notifications.Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	s.last = payload
	return nil
}

// stubAPI records every call in order. Unset hooks return empty successes.
type stubAPI struct {
	mu    sync.Mutex
	calls []string

	suggest      func(items []archiveapi.SuggestItem) (*archiveapi.SuggestResponse, error)
	update       func(ids []string, updates []archiveapi.MetadataUpdate) (*archiveapi.UpdateMetadataResponse, error)
	metadata     map[string]archiveapi.ItemMetadata
	metadataErr  error
	descriptions map[string]string
	stream       string
	streamErr    error

	updates      [][]archiveapi.MetadataUpdate
	dateUpdates  []archiveapi.DateUpdate
	descUpdates  []archiveapi.DescriptionUpdate
	uploadIDs    []string
	refreshFlags []bool
}

func (s *stubAPI) record(call string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
}

func (s *stubAPI) Suggest(ctx context.Context, items []archiveapi.SuggestItem, refresh bool) (*archiveapi.SuggestResponse, error) {
	s.record("suggest:" + items[0].Identifier)
	s.refreshFlags = append(s.refreshFlags, refresh)
	if s.suggest != nil {
		return s.suggest(items)
	}
	return &archiveapi.SuggestResponse{}, nil
}

func (s *stubAPI) UpdateMetadata(ctx context.Context, ids []string, updates []archiveapi.MetadataUpdate) (*archiveapi.UpdateMetadataResponse, error) {
	s.record("update:" + strings.Join(ids, ","))
	s.updates = append(s.updates, updates)
	if s.update != nil {
		return s.update(ids, updates)
	}
	results := make([]archiveapi.UpdateResult, 0, len(ids))
	for _, id := range ids {
		results = append(results, archiveapi.UpdateResult{Identifier: id, Success: true})
	}
	return &archiveapi.UpdateMetadataResponse{Results: results}, nil
}

func (s *stubAPI) Metadata(ctx context.Context, id string) (*archiveapi.ItemMetadata, error) {
	s.record("metadata:" + id)
	if s.metadataErr != nil {
		return nil, s.metadataErr
	}
	meta := s.metadata[id]
	return &meta, nil
}

func (s *stubAPI) Descriptions(ctx context.Context, videoIDs []string) (map[string]string, error) {
	s.record("descriptions:" + strings.Join(videoIDs, ","))
	return s.descriptions, nil
}

func (s *stubAPI) UpdateRecordingDatesStream(ctx context.Context, updates []archiveapi.DateUpdate) (io.ReadCloser, error) {
	s.record("dates-stream")
	s.dateUpdates = updates
	return s.body()
}

func (s *stubAPI) UpdateDescriptionsStream(ctx context.Context, updates []archiveapi.DescriptionUpdate) (io.ReadCloser, error) {
	s.record("descriptions-stream")
	s.descUpdates = updates
	return s.body()
}

func (s *stubAPI) BatchUploadImageStream(ctx context.Context, image archiveapi.Image, ids []string) (io.ReadCloser, error) {
	s.record("upload-stream")
	s.uploadIDs = ids
	return s.body()
}

func (s *stubAPI) body() (io.ReadCloser, error) {
	if s.streamErr != nil {
		return nil, s.streamErr
	}
	return io.NopCloser(strings.NewReader(s.stream)), nil
}

func (s *stubAPI) callList() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// sse renders JSON payloads as an event stream body.
func sse(payloads ...string) string {
	var b strings.Builder
	for _, p := range payloads {
		fmt.Fprintf(&b, "data: %s\n\n", p)
	}
	return b.String()
}

type harness struct {
	orch     *workflow.Orchestrator
	log      *activitylog.Log
	notifier *stubNotifier
}

func newHarness(t *testing.T, api workflow.ArchiveAPI, opts ...workflow.Option) harness {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	log := activitylog.New()
	notifier := &stubNotifier{}
	var seq int
	base := []workflow.Option{
		workflow.WithNotifier(notifier),
		workflow.WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		}),
		workflow.WithClock(func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }),
	}
	orch := workflow.New(cfg, api, log, nil, append(base, opts...)...)
	return harness{orch: orch, log: log, notifier: notifier}
}

func entriesOfKind(log *activitylog.Log, kind activitylog.Kind) []activitylog.Entry {
	var out []activitylog.Entry
	for _, e := range log.Entries() {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func entriesFor(log *activitylog.Log, recordID string) []activitylog.Entry {
	var out []activitylog.Entry
	for _, e := range log.Entries() {
		if e.RecordID == recordID {
			out = append(out, e)
		}
	}
	return out
}

func lastEntry(t *testing.T, log *activitylog.Log) activitylog.Entry {
	t.Helper()
	entries := log.Entries()
	if len(entries) == 0 {
		t.Fatal("activity log is empty")
	}
	return entries[len(entries)-1]
}

func matched(id, videoID string) archiveapi.Suggestion {
	return archiveapi.Suggestion{
		Identifier: id,
		Success:    true,
		VideoLink:  "https://youtu.be/" + videoID,
		Performer:  "Band " + id,
		Venue:      "The Hall",
	}
}
