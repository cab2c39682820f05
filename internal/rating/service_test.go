package rating

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"resufit/internal/ai"
	"resufit/internal/config"
	"resufit/internal/errors"
	"resufit/internal/observability"
	"resufit/internal/scoring"
	"resufit/internal/types"
)

const testResume = `Jane Smith
jane.smith@example.com

EXPERIENCE
Senior Software Engineer at Acme, 2018 - 2023
Built Go microservices on Kubernetes, improved API latency by 40%.

Software Engineer at Initech, 2015 - 2018
Developed Python data pipelines handling millions of records per day.

EDUCATION
BS Computer Science, State University
`

const testJobDescription = `We are hiring a backend engineer.
Requirements: Go, Kubernetes, PostgreSQL, and 5+ years of experience
building distributed systems.
`

// stubProvider implements ai.AIProvider with canned responses so the
// pipeline can run without a live model.
type stubProvider struct {
	mu         sync.Mutex
	skillRoles []string

	// Reported with every successful response
	usage *ai.TokenUsage

	skills        map[string][]string
	skillsErr     error
	name          string
	nameErr       error
	experience    types.ExperienceDetail
	experienceErr error
	justification types.Justification
	justifyErr    error
	audio         []byte
	audioErr      error
}

func (p *stubProvider) ExtractSkills(_ context.Context, input types.SkillExtractionInput) (types.SkillExtraction, *ai.TokenUsage, error) {
	p.mu.Lock()
	p.skillRoles = append(p.skillRoles, input.Role)
	p.mu.Unlock()
	if p.skillsErr != nil {
		return types.SkillExtraction{}, nil, p.skillsErr
	}
	return types.SkillExtraction{Skills: p.skills[input.Role]}, p.usage, nil
}

func (p *stubProvider) SummarizeExperience(_ context.Context, _ string) (types.ExperienceDetail, *ai.TokenUsage, error) {
	if p.experienceErr != nil {
		return types.ExperienceDetail{}, nil, p.experienceErr
	}
	return p.experience, p.usage, nil
}

func (p *stubProvider) ExtractCandidateName(_ context.Context, _ string) (types.NameExtraction, *ai.TokenUsage, error) {
	if p.nameErr != nil {
		return types.NameExtraction{}, nil, p.nameErr
	}
	return types.NameExtraction{Name: p.name}, p.usage, nil
}

func (p *stubProvider) Justify(_ context.Context, _ types.JustificationInput) (types.Justification, *ai.TokenUsage, error) {
	if p.justifyErr != nil {
		return types.Justification{}, nil, p.justifyErr
	}
	return p.justification, p.usage, nil
}

func (p *stubProvider) Synthesize(_ context.Context, _ string) ([]byte, *ai.TokenUsage, error) {
	if p.audioErr != nil {
		return nil, nil, p.audioErr
	}
	return p.audio, p.usage, nil
}

func (p *stubProvider) GetModelInfo(_ context.Context) *ai.ModelInfo { return nil }

func (p *stubProvider) Close() error { return nil }

func (p *stubProvider) rolesSeen() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.skillRoles))
	copy(out, p.skillRoles)
	return out
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Rating: config.RatingConfig{
			RecommendThreshold: 6.5,
			StrongThreshold:    7.5,
			FeedbackThreshold:  6.0,
			MaxJDSkills:        50,
			MaxResumeSkills:    80,
			AudioDir:           filepath.Join(dir, "audio"),
			FeedbackDir:        filepath.Join(dir, "feedback"),
			RecommendedFile:    filepath.Join(dir, "recommended.txt"),
		},
	}
}

func newTestService(cfg *config.Config, p ai.AIProvider) *Service {
	logger := errors.NewLogger(slog.LevelError)
	return NewServiceWithProviders(cfg, Providers{
		Extract:    p,
		Experience: p,
		Justify:    p,
		Speech:     p,
	}, logger)
}

func strongProvider() *stubProvider {
	return &stubProvider{
		name: "Jane Smith",
		skills: map[string][]string{
			"job description": {"Go", "Kubernetes", "PostgreSQL"},
			"resume":          {"Go", "Kubernetes", "Python"},
		},
		experience: types.ExperienceDetail{
			ExperienceSummary: scoring.ExperienceSummary{
				TotalYears:     8,
				TechnicalYears: 7,
				Seniority:      "senior",
			},
			MostRecentRole: types.RecentRole{Title: "Senior Software Engineer", Company: "Acme"},
		},
		justification: types.Justification{
			OverallAssessment: types.OverallAssessment{
				Summary:      "Strong backend candidate with direct stack overlap.",
				KeyStrengths: []string{"Go expertise", "Kubernetes operations", "Ownership"},
			},
			Recommendation: types.Recommendation{
				Decision:       "Strong Recommend",
				Confidence:     "high",
				InterviewFocus: []string{"system design"},
			},
			NextSteps: []string{"Schedule technical interview", "Check references", "Prepare offer"},
		},
		audio: []byte("RIFFxxxxWAVEfake"),
	}
}

func TestRateProducesCompleteResult(t *testing.T) {
	cfg := testConfig(t)
	provider := strongProvider()
	svc := newTestService(cfg, provider)

	result, err := svc.Rate(context.Background(), types.RateInput{
		JobDescription: testJobDescription,
		ResumeText:     testResume,
		Filename:       "jane_smith.pdf",
	}, Options{})
	if err != nil {
		t.Fatalf("Rate() error = %v", err)
	}

	if result.CandidateName != "Jane Smith" {
		t.Errorf("CandidateName = %q, want Jane Smith", result.CandidateName)
	}
	if result.Filename != "jane_smith.pdf" {
		t.Errorf("Filename = %q", result.Filename)
	}
	if result.Score0to10 <= 0 || result.Score0to10 > 10 {
		t.Errorf("Score0to10 = %v, want within (0, 10]", result.Score0to10)
	}
	if got := result.Score0to100; got < result.Score0to10*10-0.5 || got > result.Score0to10*10+0.5 {
		t.Errorf("Score0to100 = %v inconsistent with Score0to10 = %v", got, result.Score0to10)
	}

	wantKeys := []string{
		"skill_match_score", "skill_context_score", "experience_duration_score",
		"impact_score", "project_score", "education_score", "relevance_score",
	}
	for _, key := range wantKeys {
		if _, ok := result.ComponentScores[key]; !ok {
			t.Errorf("ComponentScores missing key %q", key)
		}
	}
	if len(result.ComponentScores) != len(wantKeys) {
		t.Errorf("ComponentScores has %d keys, want %d", len(result.ComponentScores), len(wantKeys))
	}

	if len(result.JDSkills) != 3 {
		t.Errorf("JDSkills = %v", result.JDSkills)
	}
	if result.Justification.Recommendation.Decision != "Strong Recommend" {
		t.Errorf("Decision = %q", result.Justification.Recommendation.Decision)
	}
	if result.Experience.TotalYears != 8 {
		t.Errorf("Experience.TotalYears = %v, want 8", result.Experience.TotalYears)
	}
}

func TestRateMissingRequirementsPreserveOrder(t *testing.T) {
	cfg := testConfig(t)
	provider := strongProvider()
	svc := newTestService(cfg, provider)

	result, err := svc.Rate(context.Background(), types.RateInput{
		JobDescription: testJobDescription,
		ResumeText:     testResume,
	}, Options{})
	if err != nil {
		t.Fatalf("Rate() error = %v", err)
	}

	// Go and Kubernetes appear in the resume skills, PostgreSQL does not.
	for _, missing := range result.MissingRequirements {
		if missing == "Go" || missing == "Kubernetes" {
			t.Errorf("matched skill %q listed as missing", missing)
		}
	}
	found := false
	for _, missing := range result.MissingRequirements {
		if missing == "PostgreSQL" {
			found = true
		}
	}
	if !found {
		t.Errorf("MissingRequirements = %v, want PostgreSQL present", result.MissingRequirements)
	}
}

func TestRateRejectsEmptyInput(t *testing.T) {
	svc := newTestService(testConfig(t), strongProvider())

	if _, err := svc.Rate(context.Background(), types.RateInput{ResumeText: testResume}, Options{}); err == nil {
		t.Error("expected error for empty job description")
	}
	if _, err := svc.Rate(context.Background(), types.RateInput{JobDescription: testJobDescription}, Options{}); err == nil {
		t.Error("expected error for empty resume text")
	}
}

func TestRateDegradesWhenAIUnavailable(t *testing.T) {
	cfg := testConfig(t)
	provider := &stubProvider{
		nameErr:       context.DeadlineExceeded,
		skillsErr:     context.DeadlineExceeded,
		experienceErr: context.DeadlineExceeded,
		justifyErr:    context.DeadlineExceeded,
	}
	svc := newTestService(cfg, provider)

	result, err := svc.Rate(context.Background(), types.RateInput{
		JobDescription: testJobDescription,
		ResumeText:     testResume,
		Filename:       "jane_smith.pdf",
	}, Options{})
	if err != nil {
		t.Fatalf("Rate() error = %v, want degraded success", err)
	}

	// Name comes from the resume header heuristic.
	if result.CandidateName != "Jane Smith" {
		t.Errorf("CandidateName = %q, want Jane Smith from header line", result.CandidateName)
	}
	// Experience comes from the date-range heuristic: 2018-2023 and
	// 2015-2018 sum to eight years.
	if result.YearsExperience != 8.0 {
		t.Errorf("YearsExperience = %v, want 8.0", result.YearsExperience)
	}
	// Justification comes from the deterministic fallback.
	if result.Justification.Recommendation.Decision == "" {
		t.Error("expected fallback justification decision")
	}
	if result.Justification.Recommendation.Confidence != "medium" {
		t.Errorf("Confidence = %q, want medium", result.Justification.Recommendation.Confidence)
	}
	// Skills come from the keyword-mining fallback, not an empty list.
	if len(result.JDSkills) == 0 {
		t.Fatal("expected keyword-fallback JD skills")
	}
	found := false
	for _, skill := range result.JDSkills {
		if skill == "Kubernetes" {
			found = true
		}
	}
	if !found {
		t.Errorf("JDSkills = %v, want Kubernetes mined from the job description", result.JDSkills)
	}
	if len(result.ResumeSkills) == 0 {
		t.Error("expected keyword-fallback resume skills")
	}
}

func TestRateAppendsRecommendedFile(t *testing.T) {
	cfg := testConfig(t)
	provider := strongProvider()
	svc := newTestService(cfg, provider)

	result, err := svc.Rate(context.Background(), types.RateInput{
		JobDescription: testJobDescription,
		ResumeText:     testResume,
	}, Options{})
	if err != nil {
		t.Fatalf("Rate() error = %v", err)
	}

	data, readErr := os.ReadFile(cfg.Rating.RecommendedFile)
	if svc.ShouldRecommend(result) {
		if readErr != nil {
			t.Fatalf("recommended file not written: %v", readErr)
		}
		content := string(data)
		for _, want := range []string{
			"CANDIDATE: Jane Smith",
			"DECISION: Strong Recommend",
			"CONFIDENCE: high",
			"KEY STRENGTHS:",
			"  • Go expertise",
		} {
			if !strings.Contains(content, want) {
				t.Errorf("recommended file missing %q", want)
			}
		}
	} else if readErr == nil {
		t.Error("recommended file written for non-recommended candidate")
	}
}

func TestRateAttachesAudio(t *testing.T) {
	cfg := testConfig(t)
	provider := strongProvider()
	svc := newTestService(cfg, provider)

	result, err := svc.Rate(context.Background(), types.RateInput{
		JobDescription: testJobDescription,
		ResumeText:     testResume,
	}, Options{IncludeAudio: true})
	if err != nil {
		t.Fatalf("Rate() error = %v", err)
	}

	if result.AudioBase64 == "" {
		t.Error("expected audio payload")
	}
	if result.AudioFilename == "" {
		t.Fatal("expected saved audio filename")
	}
	if _, err := os.Stat(filepath.Join(cfg.Rating.AudioDir, result.AudioFilename)); err != nil {
		t.Errorf("saved audio file missing: %v", err)
	}
}

func TestRateAudioFailureDoesNotFailRating(t *testing.T) {
	cfg := testConfig(t)
	provider := strongProvider()
	provider.audioErr = context.DeadlineExceeded
	svc := newTestService(cfg, provider)

	result, err := svc.Rate(context.Background(), types.RateInput{
		JobDescription: testJobDescription,
		ResumeText:     testResume,
	}, Options{IncludeAudio: true})
	if err != nil {
		t.Fatalf("Rate() error = %v", err)
	}
	if result.AudioBase64 != "" || result.AudioFilename != "" {
		t.Error("expected empty audio fields after synthesis failure")
	}
}

func TestRateAttachesFeedbackForWeakCandidate(t *testing.T) {
	cfg := testConfig(t)
	provider := strongProvider()
	provider.skills = map[string][]string{
		"job description": {"Rust", "Erlang", "COBOL", "Fortran", "Haskell"},
		"resume":          {"Go"},
	}
	provider.justification.Recommendation.Decision = "Not Recommended"
	svc := newTestService(cfg, provider)

	result, err := svc.Rate(context.Background(), types.RateInput{
		JobDescription: testJobDescription,
		ResumeText:     testResume,
	}, Options{IncludeFeedback: true})
	if err != nil {
		t.Fatalf("Rate() error = %v", err)
	}

	if result.FeedbackReportBase64 == "" {
		t.Error("expected feedback letter for not-recommended candidate")
	}
	entries, err := os.ReadDir(cfg.Rating.FeedbackDir)
	if err != nil || len(entries) == 0 {
		t.Errorf("expected feedback PDF on disk, err = %v", err)
	}
}

func TestShouldRecommend(t *testing.T) {
	svc := newTestService(testConfig(t), strongProvider())

	tests := []struct {
		name     string
		score    float64
		decision string
		want     bool
	}{
		{"below threshold", 6.0, "Recommend", false},
		{"recommend decision", 7.0, "Recommend", true},
		{"not recommended decision", 7.0, "Not Recommended", false},
		{"consider decision", 6.8, "Consider", false},
		{"strong score overrides decision", 7.6, "Consider", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := &types.RateResult{Score0to10: tt.score}
			result.Justification.Recommendation.Decision = tt.decision
			if got := svc.ShouldRecommend(result); got != tt.want {
				t.Errorf("ShouldRecommend(%v, %q) = %v, want %v", tt.score, tt.decision, got, tt.want)
			}
		})
	}
}

func TestRateBatch(t *testing.T) {
	cfg := testConfig(t)
	provider := strongProvider()
	svc := newTestService(cfg, provider)

	resumes := []types.RateInput{
		{ResumeText: testResume, Filename: "jane_smith.pdf"},
		{ResumeText: "", Filename: "empty.pdf"},
		{ResumeText: testResume, Filename: "another.pdf"},
	}

	batch := svc.RateBatch(context.Background(), testJobDescription, resumes, Options{})

	if batch.Summary.Total != 3 {
		t.Errorf("Total = %d, want 3", batch.Summary.Total)
	}
	if batch.Summary.Rated != 2 {
		t.Errorf("Rated = %d, want 2", batch.Summary.Rated)
	}
	if batch.Summary.Failed != 1 {
		t.Errorf("Failed = %d, want 1", batch.Summary.Failed)
	}
	wantRecommended := 0
	for _, item := range batch.Items {
		if item.Result != nil && svc.ShouldRecommend(item.Result) {
			wantRecommended++
		}
	}
	if batch.Summary.Recommended != wantRecommended {
		t.Errorf("Recommended = %d, want %d", batch.Summary.Recommended, wantRecommended)
	}

	// Items keep input order.
	if batch.Items[0].Filename != "jane_smith.pdf" || batch.Items[2].Filename != "another.pdf" {
		t.Errorf("items out of order: %v, %v", batch.Items[0].Filename, batch.Items[2].Filename)
	}
	if batch.Items[1].Error == "" || batch.Items[1].Result != nil {
		t.Error("empty resume should fail with an error and no result")
	}

	// The job description is mined for skills exactly once.
	jdExtractions := 0
	for _, role := range provider.rolesSeen() {
		if role == "job description" {
			jdExtractions++
		}
	}
	if jdExtractions != 1 {
		t.Errorf("job description skill extractions = %d, want 1", jdExtractions)
	}
}

func TestRateWithObservabilityAttached(t *testing.T) {
	cfg := testConfig(t)
	provider := strongProvider()
	provider.usage = &ai.TokenUsage{InputTokens: 120, OutputTokens: 30, TotalTokens: 150}
	svc := newTestService(cfg, provider)

	om, err := observability.NewObservabilityManager(observability.ObservabilityConfig{}, nil)
	if err != nil {
		t.Fatalf("NewObservabilityManager() error = %v", err)
	}
	svc.AttachObservability(om)

	result, err := svc.Rate(context.Background(), types.RateInput{
		JobDescription: testJobDescription,
		ResumeText:     testResume,
	}, Options{})
	if err != nil {
		t.Fatalf("Rate() error = %v", err)
	}
	if result.CandidateName != "Jane Smith" {
		t.Errorf("CandidateName = %q, want Jane Smith", result.CandidateName)
	}
}

func TestUsageMetricsConversion(t *testing.T) {
	if got := usageMetrics(nil); got != nil {
		t.Errorf("usageMetrics(nil) = %v, want nil", got)
	}

	got := usageMetrics(&ai.TokenUsage{InputTokens: 120, OutputTokens: 30, TotalTokens: 150})
	want := observability.TokenUsage{InputTokens: 120, OutputTokens: 30, TotalTokens: 150}
	if got == nil || *got != want {
		t.Errorf("usageMetrics() = %+v, want %+v", got, want)
	}
}

func TestSpeechScript(t *testing.T) {
	result := &types.RateResult{CandidateName: "Jane Smith"}
	result.Justification.Recommendation.Decision = "Recommend"
	result.Justification.OverallAssessment.Summary = "Solid match."
	result.Justification.NextSteps = []string{"Interview.", "References.", "Offer."}

	got := speechScript(result)
	want := "Assessment for Jane Smith: Recommend. Solid match. Recommended next steps: Interview. References."
	if got != want {
		t.Errorf("speechScript() = %q, want %q", got, want)
	}
}
