package match

import (
	"slices"
	"strings"
	"unicode"
)

// qualifiers are trailing words that rarely distinguish one field from another.
var qualifiers = []string{"id", "ids", "at", "utc", "timestamp"}

// Tokens splits a field name into lowercase words. Words end at separators
// (_ - . and space), before an upper-case letter following a lower-case one,
// and before the last letter of an acronym followed by a lower-case letter:
//
//	"OrderID"    -> [order id]
//	"first_name" -> [first name]
//	"XMLParser"  -> [xml parser]
func Tokens(name string) []string {
	runes := []rune(name)

	var words []string

	start := -1

	flush := func(end int) {
		if start >= 0 {
			words = append(words, strings.ToLower(string(runes[start:end])))
			start = -1
		}
	}

	for i, r := range runes {
		if isSeparator(r) {
			flush(i)
			continue
		}

		if start >= 0 && wordStart(runes, i) {
			flush(i)
		}

		if start < 0 {
			start = i
		}
	}

	flush(len(runes))

	return words
}

// Key returns the comparison key of a field name: its words concatenated, so
// that "first_name", "FirstName" and "first-name" compare equal.
func Key(name string) string {
	return strings.Join(Tokens(name), "")
}

// Stem is Key without a trailing qualifier word such as "id" or "at".
// A name made of a single word is returned as its key.
func Stem(name string) string {
	words := Tokens(name)
	if n := len(words); n > 1 && slices.Contains(qualifiers, words[n-1]) {
		words = words[:n-1]
	}

	return strings.Join(words, "")
}

func isSeparator(r rune) bool {
	return r == '_' || r == '-' || r == '.' || unicode.IsSpace(r)
}

func wordStart(runes []rune, i int) bool {
	if !unicode.IsUpper(runes[i]) {
		return false
	}

	if !unicode.IsUpper(runes[i-1]) {
		return true
	}

	return i+1 < len(runes) && unicode.IsLower(runes[i+1])
}
