package scoring

import (
	"sort"
	"strings"
)

const (
	// matchThreshold is the confidence a job-description skill needs before it
	// counts as matched.
	matchThreshold = 0.5

	// fuzzyThreshold is the minimum similarity ratio at which two skill
	// variants are considered the same skill spelled differently.
	fuzzyThreshold = 0.85

	// evidenceWindow is how many characters of surrounding text are kept on
	// each side of a skill occurrence.
	evidenceWindow = 30

	// maxEvidenceSnippets caps the snippets retained per matched skill.
	maxEvidenceSnippets = 3
)

// SkillMatchResult reports which job-description skills were found in a
// resume, where, and how confidently. MatchedSkills preserves the caller's
// skill order; skills below the match threshold are omitted entirely, so
// callers recover the missing set by set-difference against their input.
type SkillMatchResult struct {
	MatchedSkills    []string            `json:"matched_skills"`
	SkillEvidence    map[string][]string `json:"skill_evidence"`
	ConfidenceScores map[string]float64  `json:"confidence_scores"`
	TotalJDSkills    int                 `json:"total_jd_skills"`
	MatchRate        float64             `json:"match_rate"`
}

// Match scores every job-description skill against the resume. Three
// strategies run in order and only ever raise the running confidence:
// literal substring presence of any skill variant in the resume text
// (confidence 1.0, with evidence snippets), exact or fuzzy equality against
// the extracted resume skills, and, when confidence is still below threshold,
// a partial word-overlap fallback for multi-word skills.
func Match(jdSkills []string, resumeText string, resumeSkills []string) SkillMatchResult {
	resumeLower := strings.ToLower(resumeText)

	resumeVariants := make([][]string, len(resumeSkills))
	for i, skill := range resumeSkills {
		resumeVariants[i] = Variants(skill)
	}

	var resumeWords map[string]struct{}

	matched := make([]string, 0, len(jdSkills))
	evidence := make(map[string][]string)
	confidence := make(map[string]float64)

	for _, jdSkill := range jdSkills {
		jdVariants := Variants(jdSkill)
		best := 0.0
		var snippets []string

		for _, variant := range jdVariants {
			if variant == "" {
				continue
			}
			if strings.Contains(resumeLower, variant) {
				best = 1.0
			}
		}
		if best == 1.0 {
			snippets = collectEvidence(resumeText, resumeLower, jdVariants)
		}

		for _, variants := range resumeVariants {
			for _, jdVariant := range jdVariants {
				for _, resumeVariant := range variants {
					if jdVariant == resumeVariant {
						best = 1.0
						continue
					}
					if ratio := similarityRatio(jdVariant, resumeVariant); ratio >= fuzzyThreshold && ratio > best {
						best = ratio
					}
				}
			}
		}

		if best < matchThreshold {
			jdWords := wordSet(strings.ToLower(jdSkill))
			if len(jdWords) > 1 {
				if resumeWords == nil {
					resumeWords = wordSet(resumeLower)
				}
				overlap := 0
				for word := range jdWords {
					if _, ok := resumeWords[word]; ok {
						overlap++
					}
				}
				if float64(overlap) >= float64(len(jdWords))*0.6 {
					if partial := float64(overlap) / float64(len(jdWords)) * 0.7; partial > best {
						best = partial
					}
				}
			}
		}

		if best >= matchThreshold {
			matched = append(matched, jdSkill)
			if snippets == nil {
				snippets = []string{}
			}
			evidence[jdSkill] = snippets
			confidence[jdSkill] = best
		}
	}

	return SkillMatchResult{
		MatchedSkills:    matched,
		SkillEvidence:    evidence,
		ConfidenceScores: confidence,
		TotalJDSkills:    len(jdSkills),
		MatchRate:        float64(len(matched)) / float64(max(1, len(jdSkills))),
	}
}

// collectEvidence gathers the text windows around every occurrence of any
// skill variant, ordered by position in the resume and capped at
// maxEvidenceSnippets. Windows are sliced from the original-case text.
func collectEvidence(resumeText, resumeLower string, variants []string) []string {
	type occurrence struct {
		start   int
		snippet string
	}
	var found []occurrence

	for _, variant := range variants {
		if variant == "" {
			continue
		}
		for offset := 0; ; {
			idx := strings.Index(resumeLower[offset:], variant)
			if idx < 0 {
				break
			}
			start := offset + idx
			end := start + len(variant)
			lo := max(0, start-evidenceWindow)
			hi := min(len(resumeText), end+evidenceWindow)
			found = append(found, occurrence{
				start:   start,
				snippet: strings.TrimSpace(resumeText[lo:hi]),
			})
			offset = end
		}
	}

	sort.Slice(found, func(i, j int) bool { return found[i].start < found[j].start })

	snippets := make([]string, 0, min(len(found), maxEvidenceSnippets))
	for _, occ := range found {
		if len(snippets) == maxEvidenceSnippets {
			break
		}
		snippets = append(snippets, occ.snippet)
	}
	return snippets
}

func wordSet(s string) map[string]struct{} {
	words := strings.Fields(s)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
