package archiveapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const (
	pathAuthStatus = "/auth/youtube/status"
	pathAuthStart  = "/auth/youtube"
)

// AuthStatus reports whether the backend is authorized against the video host.
func (c *Client) AuthStatus(ctx context.Context) (bool, error) {
	var out AuthStatus
	if err := c.doJSON(ctx, http.MethodGet, pathAuthStatus, nil, nil, &out); err != nil {
		return false, err
	}
	return out.Authenticated, nil
}

// AuthURL is the page that starts the video-host OAuth flow.
func (c *Client) AuthURL() string {
	return c.baseURL + pathAuthStart
}

// AuthCallback is the outcome reported on the OAuth redirect.
type AuthCallback struct {
	Success bool
	Error   string
	// CleanURL is the redirect URL with the callback parameters removed.
	CleanURL string
}

// Present reports whether the URL carried a callback result at all.
func (a AuthCallback) Present() bool {
	return a.Success || a.Error != ""
}

// ParseAuthCallback reads the success/error query parameters the backend
// appends when redirecting back after OAuth, and strips them.
func ParseAuthCallback(raw string) (AuthCallback, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return AuthCallback{}, fmt.Errorf("parse callback url: %w", err)
	}
	query := u.Query()
	result := AuthCallback{
		Success: strings.EqualFold(query.Get("success"), "true"),
		Error:   strings.TrimSpace(query.Get("error")),
	}
	query.Del("success")
	query.Del("error")
	u.RawQuery = query.Encode()
	result.CleanURL = u.String()
	return result, nil
}
