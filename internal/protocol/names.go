package protocol

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const MaxNameLength = 32

// CleanName normalises a display name: NFC form, no control characters,
// surrounding space trimmed, capped at MaxNameLength runes.
func CleanName(name string) string {
	name = norm.NFC.String(name)
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(name)

	runes := []rune(name)
	if len(runes) > MaxNameLength {
		name = strings.TrimSpace(string(runes[:MaxNameLength]))
	}
	return name
}
