package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"github.com/allenhsieh/archivebatcheditor-sub001/internal/archiveapi"
)

// StatusChecker is the archive client surface used by the API check.
type StatusChecker interface {
	AuthStatus(ctx context.Context) (bool, error)
}

// CheckArchiveAPI verifies that the backend answers its auth status endpoint.
// It uses a 10-second timeout and a single attempt.
func CheckArchiveAPI(ctx context.Context, api StatusChecker) (Result, bool) {
	const name = "Archive API"
	if api == nil {
		return Result{Name: name, Detail: "client not configured"}, false
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	authenticated, err := api.AuthStatus(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: summarizeAPIError(err)}, false
	}
	return Result{Name: name, Passed: true, Detail: "Reachable"}, authenticated
}

func videoAuthResult(authenticated bool) Result {
	const name = "Video host auth"
	if authenticated {
		return Result{Name: name, Passed: true, Detail: "Authenticated"}
	}
	return Result{Name: name, Detail: "not authenticated (run: archivebatch auth url)"}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

func summarizeAPIError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "status check timed out (archive API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "status check timed out (archive API unreachable)"
	}
	if code := archiveapi.StatusCode(err); code != 0 {
		return fmt.Sprintf("status check failed (%d)", code)
	}
	return err.Error()
}
