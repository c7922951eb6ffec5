package archiveapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/allenhsieh/archivebatcheditor-sub001/internal/archiveapi"
	"github.com/allenhsieh/archivebatcheditor-sub001/internal/services"
)

func newClient(t *testing.T, handler http.HandlerFunc) *archiveapi.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := archiveapi.New(server.URL, archiveapi.WithToken("secret"))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return client
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := archiveapi.New("  ")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestSearchSendsQueryAndToken(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/search" || r.URL.Query().Get("q") != "thou live" {
			t.Fatalf("unexpected request %s", r.URL.String())
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Fatalf("missing bearer token, got %q", r.Header.Get("Authorization"))
		}
		_, _ = w.Write([]byte(`{"items":[{"identifier":"gig-1","title":"Thou @ Che"}]}`))
	})
	resp, err := client.Search(context.Background(), "thou live")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].Identifier != "gig-1" {
		t.Fatalf("unexpected response: %#v", resp)
	}
}

func TestUserItemsRefresh(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("refresh") != "true" {
			t.Fatalf("expected refresh=true, got %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"items":[],"cached":false}`))
	})
	if _, err := client.UserItems(context.Background(), true); err != nil {
		t.Fatalf("UserItems returned error: %v", err)
	}
}

func TestUpdateMetadataEncodesBody(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body archiveapi.UpdateMetadataRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if len(body.Items) != 1 || body.Items[0] != "gig-1" {
			t.Fatalf("unexpected items %#v", body.Items)
		}
		if len(body.Updates) != 1 || body.Updates[0].Field != "youtube" || body.Updates[0].Operation != "replace" {
			t.Fatalf("unexpected updates %#v", body.Updates)
		}
		_, _ = w.Write([]byte(`{"results":[{"identifier":"gig-1","success":true}]}`))
	})
	resp, err := client.UpdateMetadata(context.Background(), []string{"gig-1"}, []archiveapi.MetadataUpdate{
		{Field: "youtube", Value: "https://youtu.be/abcdefghijk", Operation: archiveapi.OperationReplace},
	})
	if err != nil {
		t.Fatalf("UpdateMetadata returned error: %v", err)
	}
	if len(resp.Results) != 1 || !resp.Results[0].Success {
		t.Fatalf("unexpected response %#v", resp)
	}
}

func TestUpdateMetadataRejectsUnknownOperation(t *testing.T) {
	called := false
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	_, err := client.UpdateMetadata(context.Background(), []string{"gig-1"}, []archiveapi.MetadataUpdate{
		{Field: "band", Value: "Thou", Operation: "set"},
	})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if called {
		t.Fatal("request sent despite invalid operation")
	}
	for _, op := range []string{archiveapi.OperationAdd, archiveapi.OperationReplace, archiveapi.OperationRemove} {
		if !archiveapi.ValidOperation(op) {
			t.Fatalf("ValidOperation(%q) = false", op)
		}
	}
}

func TestNon2xxBecomesStatusError(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	})
	_, err := client.UserItems(context.Background(), false)
	var statusErr *archiveapi.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusBadGateway || statusErr.Body != "upstream down" {
		t.Fatalf("unexpected status error %#v", statusErr)
	}
	if !errors.Is(err, services.ErrNetwork) {
		t.Fatalf("expected network marker, got %v", err)
	}
	if archiveapi.StatusCode(err) != http.StatusBadGateway {
		t.Fatalf("StatusCode helper returned %d", archiveapi.StatusCode(err))
	}
}

func TestSuggestDecodesErrorBodyQuotaFlag(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("refresh") != "true" {
			t.Fatalf("expected refresh flag, got %q", r.URL.RawQuery)
		}
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"results":[],"quotaExhausted":true,"error":"quota"}`))
	})
	resp, err := client.Suggest(context.Background(), []archiveapi.SuggestItem{{Identifier: "gig-1", Title: "Thou"}}, true)
	if err == nil {
		t.Fatal("expected error for 403")
	}
	if archiveapi.StatusCode(err) != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", archiveapi.StatusCode(err))
	}
	if resp == nil || resp.QuotaExhausted == nil || !*resp.QuotaExhausted {
		t.Fatalf("expected decoded quota flag, got %#v", resp)
	}
}

func TestSuggestSuccess(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body archiveapi.SuggestRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		if len(body.Items) != 1 || body.Items[0].Title != "Thou @ Che" {
			t.Fatalf("unexpected body %#v", body)
		}
		_, _ = w.Write([]byte(`{"results":[{"identifier":"gig-1","success":true,"youtube":"https://youtu.be/abcdefghijk","band":"Thou"}]}`))
	})
	resp, err := client.Suggest(context.Background(), []archiveapi.SuggestItem{{Identifier: "gig-1", Title: "Thou @ Che"}}, false)
	if err != nil {
		t.Fatalf("Suggest returned error: %v", err)
	}
	fields := resp.Results[0].Fields()
	if fields["youtube"] != "https://youtu.be/abcdefghijk" || fields["band"] != "Thou" || len(fields) != 2 {
		t.Fatalf("unexpected fields %#v", fields)
	}
}

func TestMetadataAcceptsListValues(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/metadata/gig-1" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"metadata":{"title":"Thou","description":["", "Great show"],"date":2012,"creator":"Uploader"}}`))
	})
	meta, err := client.Metadata(context.Background(), "gig-1")
	if err != nil {
		t.Fatalf("Metadata returned error: %v", err)
	}
	if meta.Description.String() != "Great show" || meta.Date.String() != "2012" {
		t.Fatalf("unexpected metadata %#v", meta)
	}
	if meta.Performer() != "Uploader" || meta.Identifier.String() != "gig-1" {
		t.Fatalf("unexpected performer/identifier %#v", meta)
	}
}

func TestDescriptionsAcceptsWrappedAndBareMaps(t *testing.T) {
	for _, body := range []string{`{"descriptions":{"v1":"text"}}`, `{"v1":"text"}`} {
		client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		})
		got, err := client.Descriptions(context.Background(), []string{"v1"})
		if err != nil {
			t.Fatalf("Descriptions returned error: %v", err)
		}
		if got["v1"] != "text" {
			t.Fatalf("unexpected descriptions for %s: %#v", body, got)
		}
	}
}

func TestRecordingDatesStreamReturnsBody(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Updates []archiveapi.DateUpdate `json:"updates"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if len(body.Updates) != 1 || body.Updates[0].RecordingDate != "2022-07-04T00:00:00.000Z" {
			t.Fatalf("unexpected updates %#v", body.Updates)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte("data: {\"videoId\":\"v1\",\"success\":true}\n"))
	})
	body, err := client.UpdateRecordingDatesStream(context.Background(), []archiveapi.DateUpdate{
		{ArchiveID: "gig-1", VideoID: "v1", RecordingDate: "2022-07-04T00:00:00.000Z"},
	})
	if err != nil {
		t.Fatalf("stream returned error: %v", err)
	}
	defer body.Close()
	data, _ := io.ReadAll(body)
	if !strings.Contains(string(data), "\"videoId\":\"v1\"") {
		t.Fatalf("unexpected stream body %q", data)
	}
}

func TestBatchUploadImageStreamSendsMultipart(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if r.FormValue("items") != `["gig-1","gig-2"]` {
			t.Fatalf("unexpected items field %q", r.FormValue("items"))
		}
		file, header, err := r.FormFile("image")
		if err != nil {
			t.Fatalf("image part: %v", err)
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if header.Filename != "flyer.jpg" || string(data) != "jpegdata" {
			t.Fatalf("unexpected image %q %q", header.Filename, data)
		}
		_, _ = w.Write([]byte("data: {\"identifier\":\"gig-1\",\"success\":true}\n"))
	})
	body, err := client.BatchUploadImageStream(context.Background(),
		archiveapi.Image{Name: "/tmp/flyer.jpg", Reader: strings.NewReader("jpegdata")},
		[]string{"gig-1", "gig-2"},
	)
	if err != nil {
		t.Fatalf("upload returned error: %v", err)
	}
	_ = body.Close()
}

func TestRequestIDHeaderFromContext(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Request-ID") != "req-1" {
			t.Fatalf("expected request id header, got %q", r.Header.Get("X-Request-ID"))
		}
		_, _ = w.Write([]byte(`{"authenticated":true}`))
	})
	ctx := services.WithRequestID(context.Background(), "req-1")
	ok, err := client.AuthStatus(ctx)
	if err != nil || !ok {
		t.Fatalf("AuthStatus = %v, %v", ok, err)
	}
}

func TestTransportFailureIsNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()
	client, err := archiveapi.New(url)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	_, err = client.Metadata(context.Background(), "gig-1")
	if !errors.Is(err, services.ErrNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
	if archiveapi.StatusCode(err) != 0 {
		t.Fatal("transport failure should carry no status")
	}
}
