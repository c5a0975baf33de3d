package report

import "unicode/utf8"

const ellipsis = "..."

// Truncate shortens s to at most max characters, replacing the tail with
// "..." when it has to cut. Characters are runes, so multi-byte text is never
// split. Strings within the limit are returned unchanged, which also makes
// Truncate idempotent.
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	if max <= 0 {
		return ""
	}
	keep := max - len(ellipsis)
	if keep <= 0 {
		return string([]rune(ellipsis)[:max])
	}
	return string([]rune(s)[:keep]) + ellipsis
}

// truncateWithMarker caps s at max characters and appends marker when
// anything was cut. The marker is not counted against max.
func truncateWithMarker(s string, max int, marker string) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max]) + marker
}
