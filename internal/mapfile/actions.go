package mapfile

import (
	"fmt"
	"maps"
	"strings"

	"schema-mapper/mapper"
)

// Builtins returns the actions available to every mapping file by name.
//
//   - upper, lower, trim: string case and whitespace
//   - join: joins its arguments with a space, skipping empty values
//   - split: splits on whitespace (use with to_list)
//   - first: the first non-empty argument
//   - count: the number of elements of a list
//   - loop_index, loop_level: sequence position (require bind)
func Builtins() map[string]any {
	return map[string]any{
		"upper": func(v any) string { return strings.ToUpper(text(v)) },
		"lower": func(v any) string { return strings.ToLower(text(v)) },
		"trim":  func(v any) string { return strings.TrimSpace(text(v)) },
		"join":  join,
		"split": func(v any) []string { return strings.Fields(text(v)) },
		"first": first,
		"count": count,
		"loop_index": func(m *mapper.Mapping) int {
			i, _ := m.LoopIndex()
			return i
		},
		"loop_level": (*mapper.Mapping).LoopLevel,
	}
}

// Actions merges extra over the builtin actions.
func Actions(extra map[string]any) map[string]any {
	out := Builtins()
	maps.Copy(out, extra)

	return out
}

func text(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(v)
	}
}

func join(parts ...any) string {
	words := make([]string, 0, len(parts))

	for _, p := range parts {
		if s := text(p); s != "" {
			words = append(words, s)
		}
	}

	return strings.Join(words, " ")
}

func first(values ...any) any {
	for _, v := range values {
		if text(v) != "" {
			return v
		}
	}

	return nil
}

func count(v any) int {
	switch s := v.(type) {
	case []any:
		return len(s)
	case []string:
		return len(s)
	default:
		return 0
	}
}
