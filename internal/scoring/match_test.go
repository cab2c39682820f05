package scoring

import (
	"math"
	"strings"
	"testing"
)

func TestMatchSubstringPresence(t *testing.T) {
	resume := "Developed services using Python and deployed via Kubernetes (k8s)"
	result := Match([]string{"Python", "Kubernetes"}, resume, nil)

	if len(result.MatchedSkills) != 2 {
		t.Fatalf("expected 2 matched skills, got %v", result.MatchedSkills)
	}
	if result.MatchRate != 1.0 {
		t.Errorf("match rate = %v, want 1.0", result.MatchRate)
	}
	for _, skill := range []string{"Python", "Kubernetes"} {
		if got := result.ConfidenceScores[skill]; got != 1.0 {
			t.Errorf("confidence for %q = %v, want 1.0", skill, got)
		}
		snippets := result.SkillEvidence[skill]
		if len(snippets) == 0 {
			t.Fatalf("no evidence for %q", skill)
		}
		for _, snippet := range snippets {
			if !strings.Contains(resume, snippet) {
				t.Errorf("evidence %q for %q is not a substring of the resume", snippet, skill)
			}
			if !strings.Contains(strings.ToLower(snippet), strings.ToLower(skill)) {
				t.Errorf("evidence %q for %q does not contain the matched term", snippet, skill)
			}
		}
	}
}

func TestMatchPreservesSkillOrder(t *testing.T) {
	resume := "Go, Python and Docker experience"
	result := Match([]string{"Docker", "Go", "Python"}, resume, nil)

	want := []string{"Docker", "Go", "Python"}
	if len(result.MatchedSkills) != len(want) {
		t.Fatalf("matched %v, want %v", result.MatchedSkills, want)
	}
	for i, skill := range want {
		if result.MatchedSkills[i] != skill {
			t.Errorf("matched[%d] = %q, want %q", i, result.MatchedSkills[i], skill)
		}
	}
}

func TestMatchEmptyJDSkills(t *testing.T) {
	result := Match(nil, "plenty of resume text", []string{"python"})
	if result.MatchRate != 0 {
		t.Errorf("match rate = %v, want 0 for empty JD skill list", result.MatchRate)
	}
	if result.TotalJDSkills != 0 {
		t.Errorf("total JD skills = %d, want 0", result.TotalJDSkills)
	}
	if len(result.MatchedSkills) != 0 {
		t.Errorf("matched skills = %v, want none", result.MatchedSkills)
	}
}

func TestMatchUnmatchedSkillsDropped(t *testing.T) {
	result := Match([]string{"COBOL", "Python"}, "Python developer", nil)
	if len(result.MatchedSkills) != 1 || result.MatchedSkills[0] != "Python" {
		t.Fatalf("matched %v, want [Python]", result.MatchedSkills)
	}
	if _, ok := result.ConfidenceScores["COBOL"]; ok {
		t.Error("unmatched skill should not appear in confidence scores")
	}
	if _, ok := result.SkillEvidence["COBOL"]; ok {
		t.Error("unmatched skill should not appear in evidence")
	}
	if result.MatchRate != 0.5 {
		t.Errorf("match rate = %v, want 0.5", result.MatchRate)
	}
}

func TestMatchAliasResolution(t *testing.T) {
	// The resume only ever says k8s, the JD asks for Kubernetes.
	result := Match([]string{"Kubernetes"}, "ran workloads on k8s clusters", nil)
	if got := result.ConfidenceScores["Kubernetes"]; got != 1.0 {
		t.Errorf("confidence = %v, want 1.0 via alias variant", got)
	}
}

func TestMatchAgainstResumeSkills(t *testing.T) {
	tests := []struct {
		name         string
		jdSkill      string
		resumeSkills []string
		wantMatched  bool
		wantMin      float64
	}{
		{
			name:         "exact variant equality",
			jdSkill:      "PostgreSQL",
			resumeSkills: []string{"postgres"},
			wantMatched:  true,
			wantMin:      1.0,
		},
		{
			name:         "fuzzy spelling",
			jdSkill:      "kubernets",
			resumeSkills: []string{"Kubernetes"},
			wantMatched:  true,
			wantMin:      fuzzyThreshold,
		},
		{
			name:         "unrelated skills never match",
			jdSkill:      "python",
			resumeSkills: []string{"kubernetes"},
			wantMatched:  false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Match([]string{tt.jdSkill}, "", tt.resumeSkills)
			_, matched := result.ConfidenceScores[tt.jdSkill]
			if matched != tt.wantMatched {
				t.Fatalf("matched = %v, want %v (confidence %v)",
					matched, tt.wantMatched, result.ConfidenceScores[tt.jdSkill])
			}
			if matched && result.ConfidenceScores[tt.jdSkill] < tt.wantMin {
				t.Errorf("confidence = %v, want >= %v", result.ConfidenceScores[tt.jdSkill], tt.wantMin)
			}
		})
	}
}

func TestMatchPartialWordOverlap(t *testing.T) {
	resume := "worked on machine learning pipelines as a platform engineer"
	result := Match([]string{"machine learning engineer"}, resume, nil)

	got, ok := result.ConfidenceScores["machine learning engineer"]
	if !ok {
		t.Fatal("expected partial overlap to reach the match threshold")
	}
	if math.Abs(got-0.7) > 1e-9 {
		t.Errorf("confidence = %v, want 0.7 (full word overlap * 0.7)", got)
	}
}

func TestMatchPartialOverlapNotForSingleWords(t *testing.T) {
	// Single-word skills must not pick up the overlap fallback even when the
	// word appears in the resume token set under a different casing path.
	result := Match([]string{"cobolx"}, "cobol mainframe background", nil)
	if len(result.MatchedSkills) != 0 {
		t.Errorf("matched %v, want none", result.MatchedSkills)
	}
}

func TestMatchEvidenceCapped(t *testing.T) {
	resume := strings.Repeat("shipped python services. ", 6)
	result := Match([]string{"python"}, resume, nil)
	if got := len(result.SkillEvidence["python"]); got > maxEvidenceSnippets {
		t.Errorf("evidence snippets = %d, want at most %d", got, maxEvidenceSnippets)
	}
	if got := len(result.SkillEvidence["python"]); got != maxEvidenceSnippets {
		t.Errorf("evidence snippets = %d, want exactly %d for repeated text", got, maxEvidenceSnippets)
	}
}

func TestMatchEvidenceOrderedByPosition(t *testing.T) {
	resume := "first python mention, later another python usage, finally python again"
	result := Match([]string{"python"}, resume, nil)
	snippets := result.SkillEvidence["python"]
	if len(snippets) != 3 {
		t.Fatalf("got %d snippets, want 3", len(snippets))
	}
	if !strings.Contains(snippets[0], "first") {
		t.Errorf("first snippet %q should cover the earliest occurrence", snippets[0])
	}
}

func TestMatchRateBounds(t *testing.T) {
	cases := []struct {
		jdSkills     []string
		resumeText   string
		resumeSkills []string
	}{
		{nil, "", nil},
		{[]string{"python"}, "", nil},
		{[]string{"python", "go"}, "python and go", nil},
		{[]string{"x", "y", "z"}, "unrelated", []string{"a"}},
	}
	for _, c := range cases {
		result := Match(c.jdSkills, c.resumeText, c.resumeSkills)
		if result.MatchRate < 0 || result.MatchRate > 1 {
			t.Errorf("match rate %v out of [0,1] for %v", result.MatchRate, c.jdSkills)
		}
	}
}

func BenchmarkMatch(b *testing.B) {
	jdSkills := []string{"Python", "Kubernetes", "PostgreSQL", "React", "machine learning"}
	resume := strings.Repeat("Developed Python services on k8s with postgres storage. ", 20)
	resumeSkills := []string{"python", "kubernetes", "postgresql", "reactjs"}
	for b.Loop() {
		Match(jdSkills, resume, resumeSkills)
	}
}
