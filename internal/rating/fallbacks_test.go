package rating

import (
	"strings"
	"testing"

	"resufit/internal/types"
)

func TestFallbackCandidateNameFromHeader(t *testing.T) {
	tests := []struct {
		name   string
		resume string
		want   string
	}{
		{
			name:   "plain header name",
			resume: "John Doe\nSoftware Engineer\njohn@example.com",
			want:   "John Doe",
		},
		{
			name:   "name with middle initial",
			resume: "John Q. Doe\nSoftware Engineer",
			want:   "John Q. Doe",
		},
		{
			name:   "labeled name",
			resume: "CONTACT INFORMATION\nName: Mary Jones\nPhone: 555-0100",
			want:   "Mary Jones",
		},
		{
			name:   "name past blank lines",
			resume: "\n\n\nAlice Walker\nData Scientist",
			want:   "Alice Walker",
		},
		{
			name:   "too many words rejected",
			resume: "One Two Three Four Five Six\nEngineer",
			want:   "Unknown Candidate",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fallbackCandidateName(tt.resume, ""); got != tt.want {
				t.Errorf("fallbackCandidateName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFallbackCandidateNameFromEmail(t *testing.T) {
	resume := "SOFTWARE ENGINEER\nreach me at jane.smith42@example.com for details"
	if got := fallbackCandidateName(resume, ""); got != "Jane Smith" {
		t.Errorf("fallbackCandidateName() = %q, want Jane Smith", got)
	}

	// Single-part local addresses cannot form a name.
	resume = "SOFTWARE ENGINEER\ncontact: admin@example.com"
	if got := fallbackCandidateName(resume, ""); got != "Unknown Candidate" {
		t.Errorf("fallbackCandidateName() = %q, want Unknown Candidate", got)
	}
}

func TestFallbackCandidateNameFromFilename(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"john_doe_resume2024.pdf", "John Doe Resume"},
		{"mary-jones.docx", "Mary Jones"},
		{"resume.pdf", "Unknown Candidate"},
		{"", "Unknown Candidate"},
	}
	for _, tt := range tests {
		if got := fallbackCandidateName("NO NAME HERE", tt.filename); got != tt.want {
			t.Errorf("fallbackCandidateName(%q) = %q, want %q", tt.filename, got, tt.want)
		}
	}
}

func TestFallbackSkillsMinesKeywords(t *testing.T) {
	text := "Requirements: Go, Kubernetes, PostgreSQL, Docker and 5 years of Python experience."
	skills := fallbackSkills(text, 50)

	got := make(map[string]bool, len(skills))
	for _, skill := range skills {
		got[skill] = true
	}
	for _, want := range []string{"Kubernetes", "PostgreSQL", "Docker", "Python"} {
		if !got[want] {
			t.Errorf("fallbackSkills() = %v, want %q present", skills, want)
		}
	}
	// Two-character tokens are too noisy to keep.
	if got["Go"] {
		t.Errorf("fallbackSkills() = %v, want Go dropped", skills)
	}
}

func TestFallbackSkillsDeduplicatesCaseInsensitively(t *testing.T) {
	skills := fallbackSkills("Docker docker DOCKER", 50)
	if len(skills) != 1 || skills[0] != "Docker" {
		t.Errorf("fallbackSkills() = %v, want single Docker entry", skills)
	}
}

func TestFallbackSkillsFindsTechTermsInLowercaseText(t *testing.T) {
	skills := fallbackSkills("experienced with python and kubernetes deployments", 50)

	got := make(map[string]bool, len(skills))
	for _, skill := range skills {
		got[skill] = true
	}
	if !got["Python"] || !got["Kubernetes"] {
		t.Errorf("fallbackSkills() = %v, want Python and Kubernetes from term list", skills)
	}
}

func TestFallbackSkillsDropsNumericTenureCapture(t *testing.T) {
	for _, skill := range fallbackSkills("3 years of 2020 maintenance", 50) {
		if skill == "2020" {
			t.Errorf("fallbackSkills() kept numeric token %q", skill)
		}
	}
}

func TestFallbackSkillsCapsResults(t *testing.T) {
	text := "Python JavaScript React Docker Kubernetes MongoDB"
	if skills := fallbackSkills(text, 3); len(skills) != 3 {
		t.Errorf("fallbackSkills() returned %d skills, want 3", len(skills))
	}
}

func TestFallbackExperienceSumsDateRanges(t *testing.T) {
	resume := `EXPERIENCE
Senior Engineer, 2019 - 2023
Engineer, 2015 - 2019
`
	exp := fallbackExperience(resume)
	if exp.TotalYears != 8.0 {
		t.Errorf("TotalYears = %v, want 8.0", exp.TotalYears)
	}
	if exp.TechnicalYears != 8.0*0.8 {
		t.Errorf("TechnicalYears = %v, want %v", exp.TechnicalYears, 8.0*0.8)
	}
	if exp.MostRecentRole.Title != "Unknown" || exp.MostRecentRole.Company != "Unknown" {
		t.Errorf("MostRecentRole = %+v, want Unknown placeholders", exp.MostRecentRole)
	}
}

func TestFallbackExperienceOpenEndedRange(t *testing.T) {
	exp := fallbackExperience("Engineer, 2020 - present")
	if exp.TotalYears <= 0 {
		t.Errorf("TotalYears = %v, want positive for open-ended range", exp.TotalYears)
	}
}

func TestFallbackExperienceNoDates(t *testing.T) {
	exp := fallbackExperience("A resume with no employment dates at all.")
	if exp.TotalYears != 0 {
		t.Errorf("TotalYears = %v, want 0", exp.TotalYears)
	}
}

func TestFallbackExperienceIgnoresReversedRange(t *testing.T) {
	exp := fallbackExperience("Typo range 2023 - 2019 should not go negative.")
	if exp.TotalYears != 0 {
		t.Errorf("TotalYears = %v, want 0", exp.TotalYears)
	}
}

func TestFallbackJustificationDecisionBands(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{3.0, "Not Recommended"},
		{5.0, "Consider"},
		{6.4, "Consider"},
		{6.5, "Recommend"},
		{7.4, "Recommend"},
		{7.5, "Strong Recommend"},
		{9.0, "Strong Recommend"},
	}
	for _, tt := range tests {
		got := fallbackJustification(types.JustificationInput{Score0to10: tt.score})
		if got.Recommendation.Decision != tt.want {
			t.Errorf("score %v: Decision = %q, want %q", tt.score, got.Recommendation.Decision, tt.want)
		}
	}
}

func TestFallbackJustificationContent(t *testing.T) {
	input := types.JustificationInput{
		Score0to10:    7.0,
		MatchedSkills: []string{"Go", "Kubernetes", "PostgreSQL", "Redis"},
		MissingSkills: []string{"Rust", "Erlang", "Haskell", "COBOL"},
		TotalJDSkills: 8,
	}
	input.Experience.TechnicalYears = 6

	j := fallbackJustification(input)

	if j.OverallAssessment.KeyStrengths[0] != "Matched 4 required skills" {
		t.Errorf("KeyStrengths[0] = %q", j.OverallAssessment.KeyStrengths[0])
	}
	if len(j.OverallAssessment.KeyStrengths) != 3 {
		t.Errorf("KeyStrengths = %v, want headline plus two skills", j.OverallAssessment.KeyStrengths)
	}
	if got := j.SkillsEvaluation.TechnicalFit; got != "Shows competency in 4 of 8 required skills" {
		t.Errorf("TechnicalFit = %q", got)
	}
	if len(j.SkillsEvaluation.SkillGaps) != 3 {
		t.Errorf("SkillGaps = %v, want first three missing skills", j.SkillsEvaluation.SkillGaps)
	}
	if j.ExperienceAssessment.ExperienceLevel != "senior" {
		t.Errorf("ExperienceLevel = %q, want senior", j.ExperienceAssessment.ExperienceLevel)
	}
	if j.Recommendation.Confidence != "medium" {
		t.Errorf("Confidence = %q, want medium", j.Recommendation.Confidence)
	}
	if !strings.Contains(j.Recommendation.Reasoning, "7.0/10") {
		t.Errorf("Reasoning = %q, want score reference", j.Recommendation.Reasoning)
	}
	if j.NextSteps[0] != "Conduct technical interview focusing on practical application" {
		t.Errorf("NextSteps[0] = %q", j.NextSteps[0])
	}
}

func TestFallbackJustificationExperienceLevels(t *testing.T) {
	tests := []struct {
		techYears float64
		want      string
	}{
		{1.0, "junior"},
		{3.5, "mid"},
		{5.0, "senior"},
	}
	for _, tt := range tests {
		input := types.JustificationInput{Score0to10: 6.0}
		input.Experience.TechnicalYears = tt.techYears
		if got := fallbackJustification(input).ExperienceAssessment.ExperienceLevel; got != tt.want {
			t.Errorf("techYears %v: level = %q, want %q", tt.techYears, got, tt.want)
		}
	}
}

func TestFallbackJustificationNoMissingSkills(t *testing.T) {
	j := fallbackJustification(types.JustificationInput{Score0to10: 6.0})
	if len(j.OverallAssessment.AreasForImprovement) != 1 ||
		j.OverallAssessment.AreasForImprovement[0] != "Continue skill development" {
		t.Errorf("AreasForImprovement = %v", j.OverallAssessment.AreasForImprovement)
	}
}

func TestMissingRequirementsNormalizes(t *testing.T) {
	jd := []string{"Go", "kubernetes", "PostgreSQL"}
	matched := []string{"go", "Kubernetes"}

	missing := missingRequirements(jd, matched)
	if len(missing) != 1 || missing[0] != "PostgreSQL" {
		t.Errorf("missingRequirements() = %v, want [PostgreSQL]", missing)
	}
}
