// Package stream assembles incremental model tokens into display text.
package stream

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Aggregator joins tokens with irregular boundaries into a growing display
// string. A token that follows a token ending mid-word is appended verbatim;
// any other token starts a new word separated by a single space.
//
// The zero value is ready to use. Not safe for concurrent use.
type Aggregator struct {
	buffer strings.Builder
	last   string
}

// Update feeds token and returns the display text so far.
func (a *Aggregator) Update(token string) string {
	if a.last != "" && !endsInSpace(a.last) {
		a.buffer.WriteString(token)
	} else {
		trimmed := strings.TrimLeftFunc(token, unicode.IsSpace)
		if trimmed != "" && a.buffer.Len() > 0 && !endsInSpace(a.buffer.String()) {
			a.buffer.WriteByte(' ')
		}
		a.buffer.WriteString(trimmed)
	}
	a.last = token
	return a.buffer.String()
}

func endsInSpace(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return r != utf8.RuneError && unicode.IsSpace(r)
}
