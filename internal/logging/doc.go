// Package logging builds the slog loggers archivebatch writes to its log file.
//
// Two formats exist: a console layout that lifts the component and record
// identifier into a line prefix, and one JSON object per line. WithContext
// stamps run, mode, record and correlation identifiers taken from the
// services context helpers.
package logging
