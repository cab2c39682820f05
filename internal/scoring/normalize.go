// Package scoring implements the resume-vs-job-description fit engine: skill
// normalization and alias resolution, fuzzy skill matching with textual
// evidence, seven component sub-scores, and the weighted aggregation that
// produces the final 0-10 rating. Everything here is pure computation over the
// caller's inputs and the static alias table, so it is safe to run once per
// resume across concurrent goroutines.
package scoring

import (
	"regexp"
	"strings"
)

var (
	fillerPrefix = regexp.MustCompile(`^(using|with|in)\s+`)
	fillerSuffix = regexp.MustCompile(`\s+(programming|development|framework|library|database|tool)$`)
)

// Normalize canonicalizes a free-text skill term. It lower-cases and trims the
// input, strips filler prefixes ("using X") and suffixes ("X framework"), and
// resolves the result through the alias table. Unknown terms come back cleaned
// but otherwise untouched. Normalize is idempotent and never fails; an empty
// input yields an empty string.
func Normalize(skill string) string {
	s := strings.ToLower(strings.TrimSpace(skill))
	s = fillerPrefix.ReplaceAllString(s, "")
	s = fillerSuffix.ReplaceAllString(s, "")
	if canonical, ok := aliasIndex[s]; ok {
		return canonical
	}
	return s
}

// Variants returns the spellings under which a skill should be searched for:
// the normalized form, the raw lower-cased input, every table alias of the
// normalized form, and for multi-word skills the joined forms with spaces
// removed or replaced by "." and "-". Duplicates collapse; order is stable.
func Variants(skill string) []string {
	normalized := Normalize(skill)
	raw := strings.ToLower(strings.TrimSpace(skill))

	var out []string
	seen := make(map[string]struct{})
	add := func(s string) {
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	add(normalized)
	add(raw)
	for _, alias := range aliasesByCanonical[normalized] {
		add(alias)
	}
	if strings.Contains(normalized, " ") {
		add(strings.ReplaceAll(normalized, " ", ""))
		add(strings.ReplaceAll(normalized, " ", "."))
		add(strings.ReplaceAll(normalized, " ", "-"))
	}
	return out
}
