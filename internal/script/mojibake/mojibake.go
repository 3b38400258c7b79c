// Package mojibake repairs UTF-8 text that was decoded as Latin-1 somewhere
// upstream, a recurring defect in exported scripts ("Ã¤" for "ä").
package mojibake

import (
	"regexp"
	"unicode/utf8"
)

// Doubly-encoded UTF-8 shows up as U+00C3 followed by a continuation byte
// re-read as a Latin-1 character in U+0080..U+00BF.
var marker = regexp.MustCompile("Ã[-¿]")

// Repair re-decodes suspected mojibake. Text without the marker pattern, or
// whose re-decoding is not valid UTF-8, is returned unchanged.
func Repair(text string) string {
	if !marker.MatchString(text) {
		return text
	}

	bytes := make([]byte, 0, len(text))
	for _, r := range text {
		if r > 0xff {
			// A non-Latin-1 rune means the text was not uniformly
			// misdecoded; repairing would corrupt it.
			return text
		}
		bytes = append(bytes, byte(r))
	}
	if !utf8.Valid(bytes) {
		return text
	}
	return string(bytes)
}
