// Package common holds small helpers shared by the internal packages.
package common

// IsEmpty reports whether s has no elements.
func IsEmpty[S ~[]E, E any](s S) bool {
	return len(s) == 0
}

// IsSingle reports whether s has exactly one element.
func IsSingle[S ~[]E, E any](s S) bool {
	return len(s) == 1
}

// IsMultiple reports whether s has two or more elements.
func IsMultiple[S ~[]E, E any](s S) bool {
	return len(s) >= 2
}

// First returns the first element of s, or the zero value and false when s is empty.
func First[S ~[]E, E any](s S) (first E, ok bool) {
	if IsEmpty(s) {
		return first, false
	}

	return s[0], true
}
