package archiveapi

import (
	"net/url"
	"regexp"
	"strings"
)

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// ExtractVideoID returns the video ID from any of the host's link forms
// (watch?v=, youtu.be/, /embed/, /shorts/, /live/) or a bare ID.
func ExtractVideoID(link string) (string, bool) {
	link = strings.TrimSpace(link)
	if link == "" {
		return "", false
	}
	if videoIDPattern.MatchString(link) {
		return link, true
	}
	if !strings.Contains(link, "://") {
		link = "https://" + link
	}
	u, err := url.Parse(link)
	if err != nil {
		return "", false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")
	var candidate string
	switch host {
	case "youtu.be":
		candidate = firstSegment(u.Path)
	case "youtube.com", "music.youtube.com", "youtube-nocookie.com":
		candidate = u.Query().Get("v")
		if candidate == "" {
			segments := strings.Split(strings.Trim(u.Path, "/"), "/")
			if len(segments) == 2 {
				switch segments[0] {
				case "embed", "shorts", "live", "v":
					candidate = segments[1]
				}
			}
		}
	}
	if videoIDPattern.MatchString(candidate) {
		return candidate, true
	}
	return "", false
}

// WatchURL returns the canonical watch link for id.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + url.QueryEscape(id)
}

func firstSegment(path string) string {
	path = strings.Trim(path, "/")
	if idx := strings.IndexByte(path, '/'); idx >= 0 {
		return path[:idx]
	}
	return path
}
