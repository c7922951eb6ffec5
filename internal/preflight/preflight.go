package preflight

import (
	"context"

	"github.com/allenhsieh/archivebatcheditor-sub001/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Detail   string
	Optional bool
}

// RunAll executes all preflight checks for the given config. The video-host
// auth check is skipped when needsVideoAuth is false.
func RunAll(ctx context.Context, cfg *config.Config, api StatusChecker, needsVideoAuth bool) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
	}

	apiResult, authenticated := CheckArchiveAPI(ctx, api)
	results = append(results, apiResult)
	if needsVideoAuth && apiResult.Passed {
		results = append(results, videoAuthResult(authenticated))
	}
	return results
}

// Failed returns the required checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r)
		}
	}
	return failed
}
