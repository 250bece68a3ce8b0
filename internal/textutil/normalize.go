package textutil

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

var lineEndingReplacer = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// NormalizeText canonicalizes free text written once at ingest: Unicode NFC,
// unix line endings, no leading or trailing whitespace.
func NormalizeText(value string) string {
	if value == "" {
		return ""
	}
	value = norm.NFC.String(value)
	value = lineEndingReplacer.Replace(value)
	return strings.TrimSpace(value)
}

// NormalizeField canonicalizes a single-line metadata field, collapsing
// internal whitespace runs to one space.
func NormalizeField(value string) string {
	return strings.Join(strings.Fields(NormalizeText(value)), " ")
}
