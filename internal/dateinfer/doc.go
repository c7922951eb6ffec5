// Package dateinfer extracts recording dates from free text.
//
// Engine.Infer scans an ordered list of sources (title, description,
// identifier, archive date) for big-endian (YYYY-M-D) and little-endian
// (M/D/YYYY) numeric dates, normalizes them to zero-padded YYYY-MM-DD, and
// returns the first one whose year is plausible and whose calendar date is
// valid. When nothing matches it falls back to the current date and reports
// Detected=false so callers can flag the guess.
//
// FromIdentifier and Standardize cover the archive's legacy formats
// (MM.DD.YY_Name identifiers, M/D/YY date fields) used by the date audit.
package dateinfer
