package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/allenhsieh/archivebatcheditor-sub001/internal/analysis"
	"github.com/allenhsieh/archivebatcheditor-sub001/internal/archiveapi"
	"github.com/allenhsieh/archivebatcheditor-sub001/internal/recordset"
	"github.com/allenhsieh/archivebatcheditor-sub001/internal/runlock"
)

const discoverItems = `
- identifier: 01.20.12_Thou
  title: Thou @ The Che Cafe on 01.20.12
- identifier: untitled-1
  title: ""
`

func TestDiscoverCommandJSONReport(t *testing.T) {
	env := setupCLITestEnv(t)
	items := env.writeItems(t, "items.yaml", discoverItems)

	out, _, err := runCLI(t, []string{"discover", "--items", items, "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("discover failed: %v\n%s", err, out)
	}

	var report runReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode report: %v\n%s", err, out)
	}
	if report.Run.Processed != 1 || report.Run.Added != 1 || report.Run.Skipped != 1 {
		t.Fatalf("unexpected counts %+v", report.Run)
	}
	if len(report.Entries) == 0 {
		t.Fatal("expected activity entries in report")
	}
	if len(env.archive.updated) != 1 || env.archive.updated[0] != "01.20.12_Thou" {
		t.Fatalf("unexpected updates %v", env.archive.updated)
	}
}

func TestDiscoverCommandTableOutput(t *testing.T) {
	env := setupCLITestEnv(t)
	items := env.writeItems(t, "items.yaml", discoverItems)

	out, _, err := runCLI(t, []string{"discover", "--items", items}, env.configPath)
	if err != nil {
		t.Fatalf("discover failed: %v\n%s", err, out)
	}
	requireContains(t, out, "Starting discoverAndLink for 2 records")
	requireContains(t, out, "No title; skipped")
	requireContains(t, out, "complete")
}

func TestDiscoverCommandDryRunWritesNothing(t *testing.T) {
	env := setupCLITestEnv(t)
	items := env.writeItems(t, "items.yaml", discoverItems)

	out, _, err := runCLI(t, []string{"discover", "--items", items, "--dry-run"}, env.configPath)
	if err != nil {
		t.Fatalf("discover failed: %v\n%s", err, out)
	}
	requireContains(t, out, "Dry run")
	if len(env.archive.updated) != 0 {
		t.Fatalf("dry run wrote updates %v", env.archive.updated)
	}
}

func TestDiscoverCommandQuotaHalts(t *testing.T) {
	env := setupCLITestEnv(t)
	env.archive.quota = true
	items := env.writeItems(t, "items.yaml", discoverItems)

	out, _, err := runCLI(t, []string{"discover", "--items", items}, env.configPath)
	if err == nil {
		t.Fatalf("expected quota halt, output:\n%s", out)
	}
	requireContains(t, err.Error(), "quota exhausted")
	requireContains(t, out, "halted")
}

func TestDiscoverCommandRefusedWithoutVideoAuth(t *testing.T) {
	env := setupCLITestEnv(t)
	env.archive.authenticated = false
	items := env.writeItems(t, "items.yaml", discoverItems)

	_, _, err := runCLI(t, []string{"discover", "--items", items}, env.configPath)
	if err == nil {
		t.Fatal("expected preflight failure")
	}
	requireContains(t, err.Error(), "preflight failed")
	requireContains(t, err.Error(), "Video host auth")
}

func TestDiscoverCommandRespectsRunLock(t *testing.T) {
	env := setupCLITestEnv(t)
	items := env.writeItems(t, "items.yaml", discoverItems)
	if err := os.MkdirAll(env.stateDir, 0o755); err != nil {
		t.Fatalf("mkdir state: %v", err)
	}
	held := runlock.New(filepath.Join(env.stateDir, "archivebatch.lock"))
	if err := held.Acquire(); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer held.Release()

	_, _, err := runCLI(t, []string{"discover", "--items", items}, env.configPath)
	if !errors.Is(err, runlock.ErrHeld) {
		t.Fatalf("expected ErrHeld, got %v", err)
	}
}

func TestRunCommandsRequireOneSource(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"discover"}, env.configPath)
	if err == nil {
		t.Fatal("expected source error")
	}
	requireContains(t, err.Error(), "exactly one record source")
}

func TestDatesBulkRequiresDate(t *testing.T) {
	env := setupCLITestEnv(t)
	items := env.writeItems(t, "items.yaml", discoverItems)
	_, _, err := runCLI(t, []string{"dates", "bulk", "--items", items}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "--date is required") {
		t.Fatalf("expected --date error, got %v", err)
	}
}

func TestSearchSavesRecords(t *testing.T) {
	env := setupCLITestEnv(t)
	env.archive.items = []archiveapi.Record{
		{Identifier: "gig-1", Title: "Thou @ The Che Cafe on 01.12.12", YouTube: "https://youtu.be/dQw4w9WgXcQ"},
		{Identifier: "gig-2", Title: "Big Business"},
	}
	target := filepath.Join(env.baseDir, "saved.yaml")

	out, _, err := runCLI(t, []string{"search", "thou", "--out", target}, env.configPath)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	requireContains(t, out, "gig-1")
	requireContains(t, out, "Saved 2 records")

	saved, err := recordset.Load(target)
	if err != nil {
		t.Fatalf("load saved: %v", err)
	}
	if len(saved) != 2 || saved[0].VideoLink() != "https://youtu.be/dQw4w9WgXcQ" {
		t.Fatalf("unexpected saved records %#v", saved)
	}
}

func TestItemsReportsCachedList(t *testing.T) {
	env := setupCLITestEnv(t)
	env.archive.items = []archiveapi.Record{{Identifier: "gig-1", Title: "Thou"}}

	out, _, err := runCLI(t, []string{"items"}, env.configPath)
	if err != nil {
		t.Fatalf("items failed: %v", err)
	}
	requireContains(t, out, "cached list")

	out, _, err = runCLI(t, []string{"items", "--refresh"}, env.configPath)
	if err != nil {
		t.Fatalf("items --refresh failed: %v", err)
	}
	if strings.Contains(out, "cached list") {
		t.Fatalf("refresh output still reports cache:\n%s", out)
	}
}

func TestAuditDatesFlagsDisagreement(t *testing.T) {
	env := setupCLITestEnv(t)
	items := env.writeItems(t, "audit.yaml", `
- identifier: 01.20.12_Thou
  title: Thou @ The Che Cafe on 01.21.12
- identifier: 2012-01-12-thou
  title: Thou live 2012-01-12
  date: "2012-01-12"
`)

	out, _, err := runCLI(t, []string{"audit-dates", "--items", items, "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("audit failed: %v", err)
	}
	var audits []dateAudit
	if err := json.Unmarshal([]byte(out), &audits); err != nil {
		t.Fatalf("decode audit: %v\n%s", err, out)
	}
	if len(audits) != 1 || audits[0].Identifier != "01.20.12_Thou" {
		t.Fatalf("unexpected audits %#v", audits)
	}
	requireContains(t, audits[0].Problem, "identifier and title disagree")

	_, _, err = runCLI(t, []string{"audit-dates", "--items", items, "--strict"}, env.configPath)
	if err == nil {
		t.Fatal("expected strict audit to fail")
	}
}

func TestAuditRecord(t *testing.T) {
	cases := []struct {
		name    string
		record  archiveapi.Record
		problem string
	}{
		{
			name:   "consistent",
			record: archiveapi.Record{Identifier: "01.12.12_Thou", Title: "Thou @ The Che Cafe on 01.12.12", Date: "2012-01-12"},
		},
		{
			name:    "unstandardized date field",
			record:  archiveapi.Record{Identifier: "gig", Title: "Thou", Date: "01/12/12"},
			problem: "date field not in YYYY-MM-DD form",
		},
		{
			name:    "unrecognized date field",
			record:  archiveapi.Record{Identifier: "gig", Title: "Thou", Date: "sometime"},
			problem: "date field unrecognized",
		},
		{
			name:    "field disagrees with title",
			record:  archiveapi.Record{Identifier: "gig", Title: "Thou live 2012-01-12", Date: "2012-02-12"},
			problem: "date field disagrees with title",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := auditRecord(tc.record)
			if tc.problem == "" {
				if got.Problem != "" {
					t.Fatalf("unexpected problem %q", got.Problem)
				}
				return
			}
			requireContains(t, got.Problem, tc.problem)
		})
	}
}

func TestFilterRecords(t *testing.T) {
	records := []archiveapi.Record{{Identifier: "a"}, {Identifier: "b"}, {Identifier: "c"}}
	if got := filterRecords(records, nil); len(got) != 3 {
		t.Fatalf("expected all records, got %d", len(got))
	}
	got := filterRecords(records, []string{"c", " a "})
	if len(got) != 2 || got[0].Identifier != "a" || got[1].Identifier != "c" {
		t.Fatalf("unexpected filter result %#v", got)
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	target := filepath.Join(t.TempDir(), "nested", "config.toml")

	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample not written: %v", err)
	}

	_, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected already exists error, got %v", err)
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
}

func TestConfigShowRedactsToken(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	requireContains(t, out, env.configPath)
	requireContains(t, out, "********")
	if strings.Contains(out, "secret-token") {
		t.Fatalf("token leaked:\n%s", out)
	}
}

func TestAuthCallback(t *testing.T) {
	out, _, err := runCLI(t, []string{"auth", "callback", "https://app.example/?success=true#top"}, "")
	if err != nil {
		t.Fatalf("callback failed: %v", err)
	}
	requireContains(t, out, "Authorization succeeded")
	requireContains(t, out, "Clean URL: https://app.example/")

	out, _, err = runCLI(t, []string{"auth", "callback", "https://app.example/?error=access_denied"}, "")
	if err == nil {
		t.Fatal("expected failure for error callback")
	}
	requireContains(t, out, "access_denied")
}

func TestAuthStatusPrintsURLWhenUnauthenticated(t *testing.T) {
	env := setupCLITestEnv(t)
	env.archive.authenticated = false

	out, _, err := runCLI(t, []string{"auth", "status"}, env.configPath)
	if err != nil {
		t.Fatalf("auth status failed: %v", err)
	}
	requireContains(t, out, "Authenticated: no")
	requireContains(t, out, env.server.URL+"/auth/youtube")
}

func TestDoctorReportsChecks(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"doctor"}, env.configPath)
	if err != nil {
		t.Fatalf("doctor failed: %v\n%s", err, out)
	}
	requireContains(t, out, "archivebatch doctor")
	requireContains(t, out, "[OK] Reachable")
	requireContains(t, out, "[OK] Authenticated")

	env.archive.authenticated = false
	out, _, err = runCLI(t, []string{"doctor"}, env.configPath)
	if err == nil {
		t.Fatalf("expected doctor failure:\n%s", out)
	}
	requireContains(t, out, "[FAIL]")
}

func TestTestNotifyRequiresTopic(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"test-notify"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "ntfy_topic") {
		t.Fatalf("expected topic error, got %v", err)
	}
}

func TestAnalyzeCommandProposesFixesForUploads(t *testing.T) {
	env := setupCLITestEnv(t)
	env.archive.items = []archiveapi.Record{
		{Identifier: "01.20.12_Thou", Title: "Thou @ The Che Cafe on 01.20.12"},
		{Identifier: "clean", Title: "Thou @ Club", Band: "Thou", Venue: "Club", Date: "2012-01-20"},
	}
	outPath := filepath.Join(env.baseDir, "fixed.yaml")

	out, _, err := runCLI(t, []string{"analyze", "--mine", "--json", "--out", outPath}, env.configPath)
	if err != nil {
		t.Fatalf("analyze failed: %v\n%s", err, out)
	}
	var findings []analysis.Finding
	if err := json.Unmarshal([]byte(out), &findings); err != nil {
		t.Fatalf("decode findings: %v\n%s", err, out)
	}
	if len(findings) != 1 || findings[0].Identifier != "01.20.12_Thou" || len(findings[0].Issues) != 3 {
		t.Fatalf("unexpected findings %+v", findings)
	}

	fixed, err := recordset.Load(outPath)
	if err != nil {
		t.Fatalf("load fixed records: %v", err)
	}
	if len(fixed) != 1 || fixed[0].Band != "Thou" || fixed[0].Venue != "The Che Cafe" || fixed[0].Date != "2012-01-20" {
		t.Fatalf("unexpected fixed records %+v", fixed)
	}

	out, _, err = runCLI(t, []string{"analyze", "--mine", "--strict"}, env.configPath)
	if err == nil {
		t.Fatalf("expected strict analyze to fail:\n%s", out)
	}
	requireContains(t, out, "1 of 2 records need fixes")
	requireContains(t, out, "missing_venue: 1")
}

func TestFindEventsCommandListsLinkedRecords(t *testing.T) {
	env := setupCLITestEnv(t)
	items := env.writeItems(t, "events.yaml", `
- identifier: gig-1
  title: Thou @ Club
  description: "Flyer https://www.facebook.com/events/4242/"
- identifier: gig-2
  title: Thou @ Hall
  fb: https://fb.me/e/Zz9
- identifier: gig-3
  title: Thou @ Bar
`)

	out, _, err := runCLI(t, []string{"find-events", "--items", items, "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("find-events failed: %v\n%s", err, out)
	}
	var matches []analysis.EventMatch
	if err := json.Unmarshal([]byte(out), &matches); err != nil {
		t.Fatalf("decode matches: %v\n%s", err, out)
	}
	if len(matches) != 2 || matches[0].Identifier != "gig-1" || matches[1].Fields[0] != "fb" {
		t.Fatalf("unexpected matches %+v", matches)
	}

	out, _, err = runCLI(t, []string{"find-events", "--items", items}, env.configPath)
	if err != nil {
		t.Fatalf("find-events failed: %v\n%s", err, out)
	}
	requireContains(t, out, "2 of 3 records link to an event")
}
