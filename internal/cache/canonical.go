package cache

import (
	"fmt"
	"sort"
	"strings"
)

// Canonicalize derives the cache key for a query. Two semantically
// equal queries must produce identical keys: field names are sorted,
// blank/nil/empty values are omitted, and slice values are sorted
// before joining, so neither assignment order nor element order leaks
// into the key. Page and page size are appended last.
func Canonicalize(fields map[string]any, page, pageSize int) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		value, ok := canonicalValue(fields[name])
		if !ok {
			continue
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(value)
		b.WriteByte('&')
	}
	fmt.Fprintf(&b, "page=%d&size=%d", page, pageSize)
	return b.String()
}

func canonicalValue(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		s := strings.TrimSpace(t)
		return s, s != ""
	case []string:
		if len(t) == 0 {
			return "", false
		}
		sorted := append([]string(nil), t...)
		sort.Strings(sorted)
		return strings.Join(sorted, ","), true
	case fmt.Stringer:
		s := strings.TrimSpace(t.String())
		return s, s != ""
	default:
		return fmt.Sprintf("%v", t), true
	}
}
