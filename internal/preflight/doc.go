// Package preflight provides readiness checks for the services and
// filesystem paths archivebatch depends on.
//
// These checks run in two contexts:
//   - Batch commands call RunAll before touching any record. If a required
//     check fails the run is refused rather than halting halfway through.
//   - The CLI "archivebatch doctor" command prints every result.
package preflight
