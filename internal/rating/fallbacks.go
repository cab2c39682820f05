package rating

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"resufit/internal/scoring"
	"resufit/internal/types"
)

// Heuristic fallbacks used when an AI call fails or returns nothing. Each
// mirrors the degraded-mode behavior the service guarantees: a rating always
// completes with a name, an experience estimate, and a justification.

var (
	// Date ranges like "2019 - 2023", "2020-present" and "Mar 2018 - Jan 2021".
	yearRangeRe  = regexp.MustCompile(`(?i)(\d{4})\s*[-–—]\s*(present|current|\d{4})`)
	monthRangeRe = regexp.MustCompile(`(?i)(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\s+(\d{4})\s*[-–—]\s*(present|current|(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\s+\d{4})`)
	yearRe       = regexp.MustCompile(`\d{4}`)

	namePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^([A-Z][a-z]+(?:\s+[A-Z][a-z]+)+)`),
		regexp.MustCompile(`^([A-Z][a-z]+(?:\s+[A-Z]\.?\s*)+[A-Z][a-z]+)`),
		regexp.MustCompile(`Name:\s*([A-Z][a-z]+(?:\s+[A-Z][a-z]+)+)`),
	}
	// Tech-looking tokens: capitalized terms (optionally Node.js-style),
	// acronyms, words with a tech suffix, and "5 years of X" phrases.
	skillCapitalizedRe = regexp.MustCompile(`\b[A-Z][a-z]+(?:\.(?:js|py|rb))?\b`)
	skillAcronymRe     = regexp.MustCompile(`\b[A-Z]{2,}\b`)
	skillSuffixRe      = regexp.MustCompile(`(?i)\b\w+(?:js|sql|db|api|ui|ux)\b`)
	skillTenureRe      = regexp.MustCompile(`(?i)\bv?\d+\.?\d*\s*(?:years?|yrs?|months?|mos?)\s+(?:of\s+)?(\w+)`)

	emailRe          = regexp.MustCompile(`[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+`)
	emailSplitRe     = regexp.MustCompile(`[._\-\d]+`)
	filenameSplitRe  = regexp.MustCompile(`[_\-.]+`)
	digitsRe         = regexp.MustCompile(`\d+`)
	nameHeadingWords = regexp.MustCompile(`(?i)\b(Curriculum Vitae|CV|Resume|Profile)\b`)
	leadingBulletsRe = regexp.MustCompile(`^[-\x{2022}*]+\s*`)
	spaceRunsRe      = regexp.MustCompile(`\s+`)
)

// commonTechTerms are matched verbatim when the token patterns miss them
var commonTechTerms = []string{
	"Python", "JavaScript", "Java", "React", "Node.js", "SQL", "AWS", "Docker",
	"Kubernetes", "Git", "Linux", "API", "REST", "MongoDB", "PostgreSQL",
	"HTML", "CSS", "Machine Learning", "Data Science", "DevOps", "Agile",
}

// fallbackSkills mines tech-looking tokens from the text when AI extraction
// fails, so the matcher still has a skill list to work with. Tokens shorter
// than three characters and pure numbers are dropped; duplicates collapse
// case-insensitively onto the first form seen, keeping results reproducible.
func fallbackSkills(text string, maxSkills int) []string {
	seen := make(map[string]struct{})
	var skills []string
	add := func(candidate string) {
		candidate = strings.TrimSpace(candidate)
		if len(candidate) <= 2 || isDigits(candidate) {
			return
		}
		key := strings.ToLower(candidate)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		skills = append(skills, candidate)
	}

	for _, re := range []*regexp.Regexp{skillCapitalizedRe, skillAcronymRe, skillSuffixRe} {
		for _, match := range re.FindAllString(text, -1) {
			add(match)
		}
	}
	for _, match := range skillTenureRe.FindAllStringSubmatch(text, -1) {
		add(match[1])
	}

	lower := strings.ToLower(text)
	for _, term := range commonTechTerms {
		if strings.Contains(lower, strings.ToLower(term)) {
			add(term)
		}
	}

	if maxSkills > 0 && len(skills) > maxSkills {
		skills = skills[:maxSkills]
	}
	return skills
}

// fallbackExperience estimates tenure by summing year spans of date ranges
// found in the resume. Open-ended ranges count up to the current year.
// Technical years are assumed to be 80% of the total.
func fallbackExperience(resumeText string) types.ExperienceDetail {
	currentYear := time.Now().Year()
	totalMonths := 0

	for _, m := range yearRangeRe.FindAllStringSubmatch(resumeText, -1) {
		totalMonths += spanMonths(m[1], m[2], currentYear)
	}
	for _, m := range monthRangeRe.FindAllStringSubmatch(resumeText, -1) {
		totalMonths += spanMonths(m[2], m[3], currentYear)
	}

	totalYears := 0.0
	if totalMonths > 0 {
		totalYears = round1(float64(totalMonths) / 12.0)
	}

	return types.ExperienceDetail{
		ExperienceSummary: scoring.ExperienceSummary{
			TotalYears:     totalYears,
			TechnicalYears: totalYears * 0.8,
		},
		MostRecentRole:   types.RecentRole{Title: "Unknown", Company: "Unknown"},
		KeyAchievements:  []string{},
		TechnologiesUsed: []string{},
	}
}

// spanMonths converts a start/end pair into whole months. The end may be a
// year, a "Month YYYY" string, or an open-ended marker.
func spanMonths(start, end string, currentYear int) int {
	startYear, err := strconv.Atoi(start)
	if err != nil {
		return 0
	}

	endLower := strings.ToLower(end)
	var endYear int
	if strings.Contains(endLower, "present") || strings.Contains(endLower, "current") {
		endYear = currentYear
	} else if match := yearRe.FindString(end); match != "" {
		endYear, _ = strconv.Atoi(match)
	} else {
		endYear = startYear
	}

	if endYear < startYear {
		return 0
	}
	return (endYear - startYear) * 12
}

// fallbackCandidateName recovers a name without AI help: header lines first,
// then the email local part, then the filename, finally a placeholder.
func fallbackCandidateName(resumeText, filename string) string {
	if name := nameFromHeaderLines(resumeText); name != "" {
		return name
	}
	if name := nameFromEmail(resumeText); name != "" {
		return name
	}
	if name := nameFromFilename(filename); name != "" {
		return name
	}
	return "Unknown Candidate"
}

// nameFromHeaderLines scans the first lines of the resume for capitalized
// name shapes, including initials and "Name:" labels
func nameFromHeaderLines(resumeText string) string {
	lines := strings.Split(resumeText, "\n")
	if len(lines) > 15 {
		lines = lines[:15]
	}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		for _, pattern := range namePatterns {
			match := pattern.FindStringSubmatch(line)
			if match == nil {
				continue
			}
			candidate := cleanNameCandidate(match[1])
			if words := len(strings.Fields(candidate)); words >= 2 && words <= 4 {
				return candidate
			}
		}
	}
	return ""
}

// nameFromEmail derives a name from the first email's local part, splitting
// on separators and digits: "jane.smith42@x.com" yields "Jane Smith"
func nameFromEmail(resumeText string) string {
	email := emailRe.FindString(resumeText)
	if email == "" {
		return ""
	}
	local := email[:strings.Index(email, "@")]

	var parts []string
	for _, p := range emailSplitRe.Split(local, -1) {
		if len(p) > 1 && isAlpha(p) {
			parts = append(parts, capitalize(p))
		}
	}
	if len(parts) < 2 {
		return ""
	}
	if len(parts) > 3 {
		parts = parts[:3]
	}
	return strings.Join(parts, " ")
}

// nameFromFilename treats the file stem as a name when it splits into a
// plausible word count
func nameFromFilename(filename string) string {
	if filename == "" {
		return ""
	}
	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	cleaned := strings.TrimSpace(filenameSplitRe.ReplaceAllString(stem, " "))
	cleaned = strings.TrimSpace(digitsRe.ReplaceAllString(cleaned, ""))
	words := strings.Fields(cleaned)
	if len(words) < 2 || len(words) > 4 {
		return ""
	}
	for i, w := range words {
		words[i] = capitalize(w)
	}
	return strings.Join(words, " ")
}

// cleanNameCandidate strips bullets, document headings, and stray punctuation
// from a potential name
func cleanNameCandidate(s string) string {
	s = strings.TrimSpace(s)
	s = leadingBulletsRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = nameHeadingWords.ReplaceAllString(s, "")
	s = spaceRunsRe.ReplaceAllString(s, " ")
	return strings.Trim(s, " \t\n,:;.-")
}

// fallbackJustification builds a deterministic narrative from the scoring
// evidence when the AI call fails. Decision bands follow the final score.
func fallbackJustification(input types.JustificationInput) types.Justification {
	score := input.Score0to10
	matched := input.MatchedSkills

	var decision string
	switch {
	case score >= 7.5:
		decision = "Strong Recommend"
	case score >= 6.5:
		decision = "Recommend"
	case score >= 5.0:
		decision = "Consider"
	default:
		decision = "Not Recommended"
	}

	keyStrengths := []string{fmt.Sprintf("Matched %d required skills", len(matched))}
	keyStrengths = append(keyStrengths, firstN(matched, 2)...)

	improvements := firstN(input.MissingSkills, 2)
	if len(improvements) == 0 {
		improvements = []string{"Continue skill development"}
	}

	techYears := input.Experience.TechnicalYears
	var level string
	switch {
	case techYears < 2:
		level = "junior"
	case techYears < 5:
		level = "mid"
	default:
		level = "senior"
	}

	interviewFocus := []string{"skills assessment"}
	nextSteps := []string{
		"Consider skills gap training",
		"Look for candidates with stronger skill matches",
	}
	if score >= 5.0 {
		interviewFocus = []string{"technical depth", "problem solving"}
	}
	if score >= 6.5 {
		nextSteps = []string{
			"Conduct technical interview focusing on practical application",
			"Assess cultural fit and communication skills",
		}
	}

	return types.Justification{
		OverallAssessment: types.OverallAssessment{
			Summary: fmt.Sprintf(
				"Candidate achieved %.1f/10 overall fit with notable strengths in matched technical skills.", score),
			KeyStrengths:        keyStrengths,
			AreasForImprovement: improvements,
			PotentialRedFlags:   []string{},
		},
		SkillsEvaluation: types.SkillsEvaluation{
			TechnicalFit: fmt.Sprintf("Shows competency in %d of %d required skills",
				len(matched), input.TotalJDSkills),
			SkillGaps:          firstN(input.MissingSkills, 3),
			TransferableSkills: firstN(matched, 3),
		},
		ExperienceAssessment: types.ExperienceAssessment{
			ExperienceLevel:    level,
			RelevantBackground: "Technical background aligns with role requirements",
			GrowthTrajectory:   "Shows consistent technical development",
		},
		Recommendation: types.Recommendation{
			Decision:   decision,
			Confidence: "medium",
			Reasoning: fmt.Sprintf("Based on %.1f/10 overall score and skill matching analysis",
				score),
			InterviewFocus: interviewFocus,
		},
		NextSteps: nextSteps,
	}
}

func firstN(items []string, n int) []string {
	if len(items) <= n {
		out := make([]string, len(items))
		copy(out, items)
		return out
	}
	out := make([]string, n)
	copy(out, items[:n])
	return out
}

func round1(x float64) float64 {
	return float64(int(x*10+0.5)) / 10
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func isAlpha(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return s != ""
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
