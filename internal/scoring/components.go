package scoring

import (
	"regexp"
	"strings"
)

// ExperienceSummary is the structured experience record supplied by the
// extraction collaborator. It is treated as untrusted sparse input: absent
// fields are zero values and never an error.
type ExperienceSummary struct {
	TotalYears      float64  `json:"total_years_experience"`
	TechnicalYears  float64  `json:"technical_years_experience"`
	ManagementYears float64  `json:"management_years_experience,omitempty"`
	Domains         []string `json:"domains,omitempty"`
	Seniority       string   `json:"seniority_signal,omitempty"`
}

// MatchStatistics summarizes a scoring pass for reporting.
type MatchStatistics struct {
	SkillsMatched         int     `json:"skills_matched"`
	SkillsWithEvidence    int     `json:"skills_with_evidence"`
	AverageConfidence     float64 `json:"average_confidence"`
	ImpactIndicatorsFound int     `json:"impact_indicators_found"`
}

// ComponentScores holds the seven sub-scores for one resume-JD pair together
// with the underlying match details. Each sub-score is nominally in [0,1].
type ComponentScores struct {
	SkillMatch         float64 `json:"skill_match_score"`
	SkillContext       float64 `json:"skill_context_score"`
	ExperienceDuration float64 `json:"experience_duration_score"`
	Impact             float64 `json:"impact_score"`
	Project            float64 `json:"project_score"`
	Education          float64 `json:"education_score"`
	Relevance          float64 `json:"relevance_score"`

	MatchedSkills    []string            `json:"matched_skills"`
	SkillEvidence    map[string][]string `json:"skill_evidence"`
	ConfidenceScores map[string]float64  `json:"confidence_scores"`

	YearsExperience float64         `json:"years_experience_estimate"`
	TechnicalYears  float64         `json:"technical_years_estimate"`
	TotalJDSkills   int             `json:"total_jd_skills"`
	Statistics      MatchStatistics `json:"match_statistics"`
}

// contextKeywords mark an evidence snippet as describing hands-on use of a
// skill rather than a bare mention.
var contextKeywords = []string{
	"experience", "worked", "developed", "built", "created", "managed", "led", "implemented",
}

// impactPatterns detect quantified achievements in resume text.
var impactPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\d+%\s*(?:increase|improvement|reduction|growth|faster|better)`),
	regexp.MustCompile(`(?i)\$\d+[kmb]?\s*(?:saved|revenue|budget|cost)`),
	regexp.MustCompile(`(?i)\d+\s*(?:users|customers|clients|projects|applications)`),
	regexp.MustCompile(`(?i)(?:increased|improved|reduced|optimized|enhanced).*?\d+`),
	regexp.MustCompile(`(?i)\d+x\s*(?:faster|improvement|increase)`),
	regexp.MustCompile(`(?i)(?:led|managed)\s+(?:team of\s+)?\d+`),
}

// actionVerbs are the fallback signal when no quantified impact is present.
// Each verb counts at most once.
var actionVerbs = []string{
	"developed", "built", "created", "designed", "implemented", "optimized", "improved", "led", "managed",
}

var projectPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:project|projects|portfolio|github|personal\s+work)\b`),
	regexp.MustCompile(`(?i)\b(?:built|created|developed).*?(?:application|app|website|system|tool)\b`),
	regexp.MustCompile(`(?i)\b(?:side\s+project|open\s+source|hackathon|competition)\b`),
}

// educationLevels is scanned in declared order; the first term found in the
// resume decides the score, so higher degrees must come first.
var educationLevels = []struct {
	term  string
	score float64
}{
	{"phd", 1.0},
	{"ph.d", 1.0},
	{"doctorate", 1.0},
	{"master", 0.9},
	{"m.s", 0.9},
	{"msc", 0.9},
	{"mba", 0.8},
	{"bachelor", 0.7},
	{"b.s", 0.7},
	{"bsc", 0.7},
	{"associate", 0.5},
	{"certification", 0.4},
	{"bootcamp", 0.4},
	{"diploma", 0.3},
}

const defaultEducationScore = 0.3

// jobTypeBuckets classify a job description into role families for the
// relevance score.
var jobTypeBuckets = []struct {
	name     string
	keywords []string
}{
	{"frontend", []string{"frontend", "front-end", "react", "vue", "angular", "javascript", "html", "css"}},
	{"backend", []string{"backend", "back-end", "api", "server", "database", "python", "java", "node"}},
	{"fullstack", []string{"fullstack", "full-stack", "full stack"}},
	{"devops", []string{"devops", "infrastructure", "aws", "docker", "kubernetes", "ci/cd"}},
	{"data", []string{"data science", "machine learning", "analytics", "python", "sql", "statistics"}},
	{"mobile", []string{"mobile", "ios", "android", "react native", "flutter", "swift", "kotlin"}},
}

const defaultRelevanceScore = 0.5

// Score matches the job-description skills against the resume and computes
// the seven component sub-scores. It never fails: sparse inputs degrade to
// neutral or zero scores.
func Score(jobDesc, resumeText string, jdSkills, resumeSkills []string, exp ExperienceSummary) ComponentScores {
	match := Match(jdSkills, resumeText, resumeSkills)
	resumeLower := strings.ToLower(resumeText)

	impactCount := countImpactIndicators(resumeText)

	cs := ComponentScores{
		SkillMatch:         skillMatchScore(match, len(jdSkills)),
		SkillContext:       skillContextScore(match),
		ExperienceDuration: experienceDurationScore(exp.TechnicalYears),
		Impact:             impactScore(impactCount, resumeLower),
		Project:            projectScore(resumeText),
		Education:          educationScore(resumeLower),
		Relevance:          relevanceScore(strings.ToLower(jobDesc), resumeLower),

		MatchedSkills:    match.MatchedSkills,
		SkillEvidence:    match.SkillEvidence,
		ConfidenceScores: match.ConfidenceScores,

		YearsExperience: exp.TotalYears,
		TechnicalYears:  exp.TechnicalYears,
		TotalJDSkills:   len(jdSkills),
	}

	withEvidence := 0
	for _, snippets := range match.SkillEvidence {
		if len(snippets) > 0 {
			withEvidence++
		}
	}
	totalConfidence := 0.0
	for _, c := range match.ConfidenceScores {
		totalConfidence += c
	}
	cs.Statistics = MatchStatistics{
		SkillsMatched:         len(match.MatchedSkills),
		SkillsWithEvidence:    withEvidence,
		AverageConfidence:     totalConfidence / float64(max(1, len(match.ConfidenceScores))),
		ImpactIndicatorsFound: impactCount,
	}
	return cs
}

// skillMatchScore blends the raw match rate with confidence density: how much
// total confidence the matched skills carry relative to everything the job
// asked for.
func skillMatchScore(match SkillMatchResult, jdSkillCount int) float64 {
	confidenceDensity := 0.0
	if len(match.ConfidenceScores) > 0 {
		total := 0.0
		for _, c := range match.ConfidenceScores {
			total += c
		}
		if total > 0 {
			confidenceDensity = total / float64(jdSkillCount)
		}
	}
	return min(1.0, match.MatchRate*0.7+confidenceDensity*0.3)
}

// skillContextScore is the fraction of matched skills whose evidence shows
// the skill being used, not just listed.
func skillContextScore(match SkillMatchResult) float64 {
	if len(match.MatchedSkills) == 0 {
		return 0
	}
	withContext := 0
	for _, skill := range match.MatchedSkills {
		for _, snippet := range match.SkillEvidence[skill] {
			if containsAny(strings.ToLower(snippet), contextKeywords) {
				withContext++
				break
			}
		}
	}
	return float64(withContext) / float64(max(1, len(match.MatchedSkills)))
}

// experienceDurationScore maps technical years onto a piecewise-linear curve
// that saturates at five years. Monotonic non-decreasing.
func experienceDurationScore(technicalYears float64) float64 {
	switch {
	case technicalYears >= 5:
		return 1.0
	case technicalYears >= 3:
		return 0.8 + (technicalYears-3)*0.1
	case technicalYears >= 1:
		return 0.4 + (technicalYears-1)*0.2
	case technicalYears >= 0.5:
		return 0.2 + (technicalYears-0.5)*0.4
	default:
		return technicalYears * 0.4
	}
}

func countImpactIndicators(resumeText string) int {
	count := 0
	for _, pattern := range impactPatterns {
		count += len(pattern.FindAllString(resumeText, -1))
	}
	return count
}

func impactScore(impactCount int, resumeLower string) float64 {
	switch {
	case impactCount >= 5:
		return 1.0
	case impactCount >= 3:
		return 0.8
	case impactCount >= 1:
		return 0.6
	}
	verbCount := 0
	for _, verb := range actionVerbs {
		if strings.Contains(resumeLower, verb) {
			verbCount++
		}
	}
	return min(0.4, float64(verbCount)*0.05)
}

func projectScore(resumeText string) float64 {
	score := 0.0
	for _, pattern := range projectPatterns {
		if pattern.MatchString(resumeText) {
			score += 0.3
		}
	}
	return min(1.0, score)
}

func educationScore(resumeLower string) float64 {
	for _, level := range educationLevels {
		if strings.Contains(resumeLower, level.term) {
			return max(defaultEducationScore, level.score)
		}
	}
	return defaultEducationScore
}

// relevanceScore classifies the job description into role-family buckets and
// rewards the resume's best coverage of any bucket the job mentions. Jobs
// matching no bucket at all fall back to a neutral 0.5.
func relevanceScore(jobDescLower, resumeLower string) float64 {
	best := -1.0
	for _, bucket := range jobTypeBuckets {
		jdHits := 0
		resumeHits := 0
		for _, keyword := range bucket.keywords {
			if strings.Contains(jobDescLower, keyword) {
				jdHits++
			}
			if strings.Contains(resumeLower, keyword) {
				resumeHits++
			}
		}
		if jdHits > 0 {
			if ratio := float64(resumeHits) / float64(len(bucket.keywords)); ratio > best {
				best = ratio
			}
		}
	}
	if best < 0 {
		return defaultRelevanceScore
	}
	return min(1.0, best+0.3)
}

func containsAny(s string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}
