// Package testsupport holds helpers shared by package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"github.com/allenhsieh/archivebatcheditor-sub001/internal/config"
)

// NewConfig returns a validated config whose log and state directories live
// under t.TempDir(). Pacing and notifications are off so workflow tests
// neither sleep nor reach the network. Mutators run after the defaults.
func NewConfig(t testing.TB, mutate ...func(*config.Config)) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Archive.BaseURL = "http://127.0.0.1:0"
	cfg.Archive.APIToken = "test"
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Workflow.PacingDelayMillis = 0
	cfg.Notifications.NtfyTopic = ""

	for _, m := range mutate {
		m(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return &cfg
}
