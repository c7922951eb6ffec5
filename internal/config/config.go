package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Archive contains connection settings for the archive metadata service.
type Archive struct {
	BaseURL        string `toml:"base_url"`
	APIToken       string `toml:"api_token"`
	DetailsBaseURL string `toml:"details_base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Workflow contains batch pacing and description rewrite settings.
type Workflow struct {
	PacingDelayMillis int    `toml:"pacing_delay_ms"`
	StoreDomain       string `toml:"store_domain"`
}

// Paths contains directory configuration.
type Paths struct {
	LogDir   string `toml:"log_dir"`
	StateDir string `toml:"state_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	RunStarted     bool   `toml:"run_started"`
	RunCompleted   bool   `toml:"run_completed"`
	RunHalted      bool   `toml:"run_halted"`
}

// Config is the decoded config.toml. Load fills unset values from Default
// and the ARCHIVEBATCH_* environment variables.
type Config struct {
	Archive       Archive       `toml:"archive"`
	Workflow      Workflow      `toml:"workflow"`
	Paths         Paths         `toml:"paths"`
	Logging       Logging       `toml:"logging"`
	Notifications Notifications `toml:"notifications"`
}

const projectConfigName = "archivebatch.toml"

// DefaultConfigPath returns the per-user configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/archivebatch/config.toml")
}

// Load reads the configuration at path, or the first existing default
// location when path is empty. A missing file is not an error: defaults and
// environment overrides still apply. It returns the config, the resolved
// path, and whether that file existed.
func Load(path string) (*Config, string, bool, error) {
	resolved, exists, err := locate(path)
	if err != nil {
		return nil, "", false, err
	}

	cfg := Default()
	if exists {
		if err := decodeFile(resolved, &cfg); err != nil {
			return nil, "", false, err
		}
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

func decodeFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()
	if err := toml.NewDecoder(file).Decode(cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// locate resolves an explicit path as given. Without one it tries the user
// config, then ./archivebatch.toml, and reports the user config as the
// target when neither exists.
func locate(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		found, err := isFile(expanded)
		return expanded, found, err
	}

	userPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}
	for _, candidate := range []string{userPath, projectPath} {
		if found, _ := isFile(candidate); found {
			return candidate, true, nil
		}
	}
	return userPath, false, nil
}

func isFile(path string) (bool, error) {
	info, err := os.Stat(path)
	switch {
	case err == nil:
		return !info.IsDir(), nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("stat config: %w", err)
	}
}

// EnsureDirectories creates the log and state directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir, c.Paths.StateDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// PacingDelay returns the fixed delay inserted between records.
func (c *Config) PacingDelay() time.Duration {
	if c.Workflow.PacingDelayMillis <= 0 {
		return 0
	}
	return time.Duration(c.Workflow.PacingDelayMillis) * time.Millisecond
}

// RequestTimeout returns the per-request timeout for non-streaming archive calls.
func (c *Config) RequestTimeout() time.Duration {
	if c.Archive.TimeoutSeconds <= 0 {
		return time.Duration(defaultArchiveTimeoutSeconds) * time.Second
	}
	return time.Duration(c.Archive.TimeoutSeconds) * time.Second
}

// DetailsLink returns the public archive page for identifier.
func (c *Config) DetailsLink(identifier string) string {
	base := strings.TrimRight(strings.TrimSpace(c.Archive.DetailsBaseURL), "/")
	if base == "" {
		base = defaultDetailsBaseURL
	}
	return base + "/" + strings.TrimSpace(identifier)
}

// LockPath returns the advisory lock file guarding batch runs.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "archivebatch.lock")
}

func expandPath(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	if value == "~" || strings.HasPrefix(value, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		value = filepath.Join(home, strings.TrimPrefix(value, "~"))
	}
	absolute, err := filepath.Abs(value)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", value, err)
	}
	return absolute, nil
}

// ExpandPath applies the "~" and absolute-path rules used for config paths.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes the annotated sample configuration to path. The file
// holds an API token once edited, so it is created owner-only.
func CreateSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
