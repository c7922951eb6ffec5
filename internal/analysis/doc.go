// Package analysis finds metadata gaps in archive records and proposes fixes
// parsed from each record's title.
//
// Analyze reports missing band, venue, and date fields along with date
// fields that are not in YYYY-MM-DD form. EventLinks scans descriptions and
// the fb/facebook fields for event pages, which usually point at a flyer.
package analysis
