// Package main hosts the archivebatch CLI entrypoint and command graph.
//
// The Cobra command tree loads records (from a file, a search, or the
// caller's uploads), runs one batch workflow against the archive API, and
// prints the activity log as it grows. Workflow logic lives in
// internal/workflow; commands here only gather input, take the run lock,
// and render results as tables or JSON.
package main
