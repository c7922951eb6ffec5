// Package ssestream decodes the line-framed progress streams returned by the
// archive service's batch update endpoints.
//
// Each event is a single line of the form "data: {json}". Lines may arrive
// split across arbitrary read boundaries; the Decoder keeps the trailing
// partial line in a carry-over buffer until its newline arrives, and decodes
// whatever remains once the stream ends. Lines whose payload is not valid
// JSON are dropped and counted, never surfaced as errors.
package ssestream
