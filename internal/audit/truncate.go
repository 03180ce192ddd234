package audit

import (
	"reflect"
	"unicode/utf8"
)

// TruncationMarker is appended to every shortened field value.
const TruncationMarker = "...[TRUNCATED]"

// truncateValue shortens string values longer than limit runes. Only the
// field value is cut; the payload around it stays valid JSON.
func truncateValue(v any, limit int) (out any, originalLen int, cut bool) {
	switch s := v.(type) {
	case string:
		return truncateString(s, limit)
	case *string:
		if s == nil {
			return v, 0, false
		}
		t, n, cut := truncateString(*s, limit)
		if !cut {
			return v, n, false
		}
		return t, n, true
	}

	// Named string types such as statuses.
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.String {
		t, n, cut := truncateString(rv.String(), limit)
		if cut {
			return t, n, true
		}
		return v, n, false
	}
	return v, 0, false
}

func truncateString(s string, limit int) (string, int, bool) {
	n := utf8.RuneCountInString(s)
	if n <= limit {
		return s, n, false
	}
	keep := limit * 4 / 5
	runes := []rune(s)
	return string(runes[:keep]) + TruncationMarker, n, true
}
