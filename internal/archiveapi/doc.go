// Package archiveapi is the HTTP client for the archive metadata editor
// backend, which fronts both the archive's metadata store and the video
// host's API.
//
// Plain endpoints decode JSON and return typed responses. Streaming endpoints
// (recording dates, descriptions, image upload) return the open response body
// for internal/ssestream to consume; the caller owns closing it. Non-2xx
// responses surface as *StatusError wrapped in services.ErrNetwork so the
// workflow can both classify the halt and read the status code.
package archiveapi
