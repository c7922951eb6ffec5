package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/allenhsieh/archivebatcheditor-sub001/internal/archiveapi"
)

// fakeArchive serves the archive API endpoints the CLI touches.
type fakeArchive struct {
	mu            sync.Mutex
	authenticated bool
	items         []archiveapi.Record
	quota         bool
	updated       []string
}

func (f *fakeArchive) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/youtube/status", func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, http.StatusOK, map[string]bool{"authenticated": f.authenticated})
	})
	mux.HandleFunc("/api/search", func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, http.StatusOK, archiveapi.ItemsResponse{Items: f.items})
	})
	mux.HandleFunc("/api/user-items", func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, http.StatusOK, archiveapi.ItemsResponse{Items: f.items, Cached: r.URL.Query().Get("refresh") != "true"})
	})
	mux.HandleFunc("/api/youtube-suggest", func(w http.ResponseWriter, r *http.Request) {
		var req archiveapi.SuggestRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if f.quota {
			exhausted := true
			writeTestJSON(w, http.StatusForbidden, archiveapi.SuggestResponse{QuotaExhausted: &exhausted})
			return
		}
		id := req.Items[0].Identifier
		writeTestJSON(w, http.StatusOK, archiveapi.SuggestResponse{Results: []archiveapi.Suggestion{{
			Identifier: id,
			Success:    true,
			VideoLink:  "https://youtu.be/abcdefghij1",
			Performer:  "Thou",
		}}})
	})
	mux.HandleFunc("/api/update-metadata", func(w http.ResponseWriter, r *http.Request) {
		var req archiveapi.UpdateMetadataRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.updated = append(f.updated, req.Items...)
		f.mu.Unlock()
		results := make([]archiveapi.UpdateResult, 0, len(req.Items))
		for _, id := range req.Items {
			results = append(results, archiveapi.UpdateResult{Identifier: id, Success: true})
		}
		writeTestJSON(w, http.StatusOK, archiveapi.UpdateMetadataResponse{Results: results})
	})
	return mux
}

func writeTestJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type cliTestEnv struct {
	archive    *fakeArchive
	server     *httptest.Server
	configPath string
	stateDir   string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("ARCHIVEBATCH_BASE_URL", "")
	t.Setenv("ARCHIVEBATCH_API_TOKEN", "")

	archive := &fakeArchive{authenticated: true}
	server := httptest.NewServer(archive.handler())
	t.Cleanup(server.Close)

	stateDir := filepath.Join(base, "state")
	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[archive]
base_url = %q
api_token = "secret-token"

[workflow]
pacing_delay_ms = 0

[paths]
log_dir = %q
state_dir = %q
`, server.URL, filepath.Join(base, "logs"), stateDir)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	return &cliTestEnv{
		archive:    archive,
		server:     server,
		configPath: configPath,
		stateDir:   stateDir,
		baseDir:    base,
	}
}

func (e *cliTestEnv) writeItems(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.baseDir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write items: %v", err)
	}
	return path
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
