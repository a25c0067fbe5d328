// Package cteutil is the single source of truth for CTE names and encoded
// CTE column names: whenever another package needs one, it calls through
// here rather than re-deriving the format.
package cteutil

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// GenerateCTEName builds "with_{sorted_aliases_joined_by_underscore}_cte",
// or "…_cte_{n}" when counter > 0. An empty alias list yields "with_cte".
func GenerateCTEName(aliases []string, counter int) string {
	sorted := make([]string, len(aliases))
	copy(sorted, aliases)
	sort.Strings(sorted)

	var b strings.Builder
	b.WriteString("with")
	for _, a := range sorted {
		b.WriteByte('_')
		b.WriteString(a)
	}
	b.WriteString("_cte")
	if counter > 0 {
		b.WriteByte('_')
		b.WriteString(strconv.Itoa(counter))
	}
	return b.String()
}

// ExtractAliasesFromCTEName reverses GenerateCTEName, recovering the sorted
// alias set and the counter (0 if the name had none). ok is false if name
// does not match the "with_..._cte[_n]" shape.
func ExtractAliasesFromCTEName(name string) (aliases []string, counter int, ok bool) {
	const prefix = "with"
	const suffix = "_cte"

	if !strings.HasPrefix(name, prefix) {
		return nil, 0, false
	}
	rest := strings.TrimPrefix(name, prefix)

	idx := strings.LastIndex(rest, suffix)
	if idx < 0 {
		return nil, 0, false
	}
	body := rest[:idx]
	tail := rest[idx+len(suffix):]

	counter = 0
	if tail != "" {
		if !strings.HasPrefix(tail, "_") {
			return nil, 0, false
		}
		n, err := strconv.Atoi(tail[1:])
		if err != nil {
			return nil, 0, false
		}
		counter = n
	}

	body = strings.TrimPrefix(body, "_")
	if body == "" {
		return []string{}, counter, true
	}
	aliases = strings.Split(body, "_")
	return aliases, counter, true
}

// CTEColumnName encodes a (alias, property) pair crossing a CTE boundary as
// "p{len(alias)}_{alias}_{property}", so alias and property stay separable
// after concatenation even when either contains underscores.
func CTEColumnName(alias, property string) string {
	return fmt.Sprintf("p%d_%s_%s", len(alias), alias, property)
}

// ParseCTEColumn reverses CTEColumnName. ok is false for any string not in
// the "p{n}_{alias}_{property}" shape, including strings with a
// non-numeric or mismatched length prefix.
func ParseCTEColumn(s string) (alias, property string, ok bool) {
	if len(s) < 2 || s[0] != 'p' {
		return "", "", false
	}
	rest := s[1:]
	underscoreIdx := strings.IndexByte(rest, '_')
	if underscoreIdx < 0 {
		return "", "", false
	}
	lengthStr := rest[:underscoreIdx]
	n, err := strconv.Atoi(lengthStr)
	if err != nil || n < 0 {
		return "", "", false
	}
	body := rest[underscoreIdx+1:]
	if len(body) < n+1 { // alias + separating underscore + at least empty property
		return "", "", false
	}
	if body[n] != '_' {
		return "", "", false
	}
	alias = body[:n]
	property = body[n+1:]
	if property == "" {
		return "", "", false
	}
	return alias, property, true
}
