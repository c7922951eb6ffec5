// Package workflow drives batch edits of archive records against the video
// host.
//
// The Orchestrator processes one run at a time, strictly in record order,
// awaiting every remote call before issuing the next. Four modes share the
// same RunState bookkeeping:
//
//   - discoverAndLink asks the video host for a match per record and writes
//     the selected fields back to the archive immediately.
//   - recordingDateBulk and recordingDateIndividual build a video/date
//     mapping (one fixed date, or a date inferred per record) and submit it
//     as a single streamed update.
//   - descriptionStandardize regenerates every description preview and
//     streams the ones that need rewriting.
//
// imageUpload is a sibling mode that attaches one image to every record.
//
// Each per-record step returns a stepOutcome (continue, skip, halt). A halt
// records its cause on the RunState, writes one error entry to the activity
// log, and stops the run; committed updates are never rolled back. Every run
// ends with an info summary entry carrying the processed/added/skipped counts.
//
// Quota detection goes through the QuotaGuard interface so the heuristic can
// change without touching the step logic.
package workflow
