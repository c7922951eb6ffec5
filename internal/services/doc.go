// Package services defines shared utilities consumed by the batch workflow and
// its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, workflow modes, record identifiers,
//     and per-request correlation identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that classify failures
//     into the halt taxonomy (quota, network, upstream update, validation).
//
// Use these helpers when wiring new workflow steps so halt decisions and
// observability stay uniform across every mode.
package services
