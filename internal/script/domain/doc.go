// Package domain defines the script row model shared by every script
// feature: the transcript categories, synthesized cue metadata, actor name
// canonicalization, and line identity.
//
// Rows are immutable once loaded. Position inside the row slice is the sole
// ordering relation and the identity anchor for markers and notes.
package domain
