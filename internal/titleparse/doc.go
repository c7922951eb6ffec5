// Package titleparse extracts performer and venue names from archive item
// titles and identifiers.
//
// Titles follow a handful of uploader conventions: "Band @ Venue on DATE",
// "Band on DATE", "Band in DATE at VENUE", "Band live at Venue (City)".
// Identifiers carry an optional date prefix followed by a slug
// ("01.20.12_Thou", "2012-01-20-thou").
package titleparse
