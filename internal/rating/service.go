// Package rating orchestrates a full resume-vs-job-description rating: AI
// extraction feeds the deterministic scoring core, the aggregate feeds the
// narrative justification, and thresholds decide recommendation logging,
// audio summaries, and feedback letters. AI failures degrade to fallbacks;
// a rating only errors on invalid input.
package rating

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"

	"resufit/internal/ai"
	"resufit/internal/audio"
	"resufit/internal/config"
	"resufit/internal/errors"
	"resufit/internal/feedback"
	"resufit/internal/observability"
	"resufit/internal/scoring"
	"resufit/internal/types"
)

// Providers bundles the per-operation AI collaborators. Each operation can
// run on its own model and circuit breaker.
type Providers struct {
	Extract    ai.AIProvider
	Experience ai.AIProvider
	Justify    ai.AIProvider
	Speech     ai.AIProvider
}

// Service runs ratings.
type Service struct {
	cfg       *config.Config
	providers Providers
	logger    *errors.Logger
	om        *observability.ObservabilityManager

	recommendedMu sync.Mutex
}

// AttachObservability routes AI call metrics, including token usage, through
// the given manager. A nil or never-attached manager leaves calls untracked.
func (s *Service) AttachObservability(om *observability.ObservabilityManager) {
	s.om = om
}

// Options control the optional artifacts of one rating.
type Options struct {
	IncludeAudio    bool
	IncludeFeedback bool
}

// DefaultOptions derives rating options from configuration
func DefaultOptions(cfg *config.Config) Options {
	return Options{
		IncludeAudio:    cfg.Rating.EnableTTS,
		IncludeFeedback: cfg.Rating.EnableFeedback,
	}
}

// NewService builds a rating service from configuration, creating one AI
// service per operation
func NewService(cfg *config.Config, logger *errors.Logger) (*Service, error) {
	providers, err := buildProviders(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &Service{cfg: cfg, providers: providers, logger: logger}, nil
}

// NewServiceWithProviders builds a rating service around existing providers.
// Used by tests and by callers that manage provider lifecycle themselves.
func NewServiceWithProviders(cfg *config.Config, providers Providers, logger *errors.Logger) *Service {
	return &Service{cfg: cfg, providers: providers, logger: logger}
}

func buildProviders(cfg *config.Config, logger *errors.Logger) (Providers, error) {
	var p Providers

	for _, op := range []struct {
		name   string
		opCfg  config.OperationAIConfig
		target *ai.AIProvider
	}{
		{"extract", cfg.GetExtractConfig(), &p.Extract},
		{"experience", cfg.GetExperienceConfig(), &p.Experience},
		{"justify", cfg.GetJustifyConfig(), &p.Justify},
		{"speech", cfg.GetSpeechConfig(), &p.Speech},
	} {
		opCfg := op.opCfg
		svc, err := ai.NewService(&opCfg, op.name, logger)
		if err != nil {
			return Providers{}, err
		}
		*op.target = svc.Provider
	}

	return p, nil
}

// Close releases all AI providers
func (s *Service) Close() error {
	for _, p := range []ai.AIProvider{
		s.providers.Extract, s.providers.Experience, s.providers.Justify, s.providers.Speech,
	} {
		if p != nil {
			_ = p.Close()
		}
	}
	return nil
}

// Rate scores one resume against a job description
func (s *Service) Rate(ctx context.Context, input types.RateInput, opts Options) (*types.RateResult, error) {
	return s.rate(ctx, input, nil, opts)
}

// rate runs the full pipeline. jdSkills, when non-nil, skips job-description
// skill extraction; batch rating extracts once and shares the list.
func (s *Service) rate(ctx context.Context, input types.RateInput, jdSkills []string, opts Options) (*types.RateResult, error) {
	if strings.TrimSpace(input.JobDescription) == "" {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"Job description must not be empty", nil)
	}
	if strings.TrimSpace(input.ResumeText) == "" {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"Resume text must not be empty", nil)
	}

	candidateName := s.extractName(ctx, input.ResumeText, input.Filename)

	if jdSkills == nil {
		jdSkills = s.extractSkills(ctx, input.JobDescription, "job description", s.cfg.Rating.MaxJDSkills)
	}
	resumeSkills := s.extractSkills(ctx, input.ResumeText, "resume", s.cfg.Rating.MaxResumeSkills)
	experience := s.extractExperience(ctx, input.ResumeText)

	components := scoring.Score(input.JobDescription, input.ResumeText, jdSkills, resumeSkills, experience.ExperienceSummary)
	aggregated := scoring.Aggregate(components)
	missing := missingRequirements(jdSkills, components.MatchedSkills)

	justification := s.justify(ctx, types.JustificationInput{
		CandidateName:   candidateName,
		JobDescription:  input.JobDescription,
		Score0to10:      aggregated.Score0to10,
		ComponentScores: componentMap(components),
		MatchedSkills:   components.MatchedSkills,
		MissingSkills:   missing,
		TotalJDSkills:   len(jdSkills),
		Experience:      experience,
	})

	result := &types.RateResult{
		CandidateName:       candidateName,
		Filename:            input.Filename,
		Score0to10:          aggregated.Score0to10,
		Score0to100:         aggregated.Score0to100,
		ComponentScores:     componentMap(components),
		PerComponent010:     aggregated.PerComponent010,
		MatchedSkills:       components.MatchedSkills,
		JDSkills:            jdSkills,
		ResumeSkills:        resumeSkills,
		YearsExperience:     experience.TotalYears,
		TechnicalYears:      experience.TechnicalYears,
		SkillEvidence:       components.SkillEvidence,
		ConfidenceScores:    components.ConfidenceScores,
		MatchStatistics:     components.Statistics,
		MissingRequirements: missing,
		Justification:       justification,
		Experience:          experience,
	}

	if s.ShouldRecommend(result) {
		s.appendRecommended(result)
	}

	if opts.IncludeAudio {
		s.attachAudio(ctx, result)
	}
	if opts.IncludeFeedback && s.needsFeedback(result) {
		s.attachFeedback(result)
	}

	return result, nil
}

// ShouldRecommend applies the recommendation policy: the score clears the
// recommend threshold with an aligned decision, or clears the strong
// threshold regardless of the decision text.
func (s *Service) ShouldRecommend(result *types.RateResult) bool {
	if result.Score0to10 >= s.cfg.Rating.StrongThreshold {
		return true
	}
	decision := strings.ToLower(result.Justification.Recommendation.Decision)
	return result.Score0to10 >= s.cfg.Rating.RecommendThreshold &&
		strings.Contains(decision, "recommend") &&
		!strings.Contains(decision, "not recommended")
}

// needsFeedback reports whether the outcome calls for a feedback letter
func (s *Service) needsFeedback(result *types.RateResult) bool {
	decision := strings.ToLower(result.Justification.Recommendation.Decision)
	return strings.Contains(decision, "not recommended") ||
		result.Score0to10 < s.cfg.Rating.FeedbackThreshold
}

// trackAI runs one provider call, reporting its duration, outcome and token
// usage through the attached observability manager. Without a manager the
// call runs untracked.
func (s *Service) trackAI(ctx context.Context, operation string, call func(context.Context) (*ai.TokenUsage, error)) error {
	if s.om == nil {
		_, err := call(ctx)
		return err
	}
	return s.om.GetMetrics().TrackAIOperationWithTokens(ctx, operation,
		func(ctx context.Context) *observability.AIOperationResult {
			usage, err := call(ctx)
			return &observability.AIOperationResult{Error: err, TokenUsage: usageMetrics(usage)}
		}, s.om)
}

// usageMetrics converts provider token counts to the observability shape
func usageMetrics(usage *ai.TokenUsage) *observability.TokenUsage {
	if usage == nil {
		return nil
	}
	return &observability.TokenUsage{
		InputTokens:  usage.InputTokens,
		OutputTokens: usage.OutputTokens,
		TotalTokens:  usage.TotalTokens,
	}
}

// extractName asks the AI for the candidate name, falling back to document
// heuristics when the call fails or finds nothing
func (s *Service) extractName(ctx context.Context, resumeText, filename string) string {
	var extracted types.NameExtraction
	err := s.trackAI(ctx, "extract_name", func(ctx context.Context) (*ai.TokenUsage, error) {
		var usage *ai.TokenUsage
		var err error
		extracted, usage, err = s.providers.Extract.ExtractCandidateName(ctx, resumeText)
		return usage, err
	})
	if err != nil {
		s.logger.Warn("Candidate name extraction failed, using heuristics", "error", err.Error())
	} else if extracted.Name != "" {
		return extracted.Name
	}
	return fallbackCandidateName(resumeText, filename)
}

// extractSkills degrades to the keyword-mining fallback on failure; the
// scoring core still receives a best-effort skill list
func (s *Service) extractSkills(ctx context.Context, text, role string, maxSkills int) []string {
	var extraction types.SkillExtraction
	err := s.trackAI(ctx, "extract_skills", func(ctx context.Context) (*ai.TokenUsage, error) {
		var usage *ai.TokenUsage
		var err error
		extraction, usage, err = s.providers.Extract.ExtractSkills(ctx, types.SkillExtractionInput{
			Text:      text,
			Role:      role,
			MaxSkills: maxSkills,
		})
		return usage, err
	})
	if err != nil {
		s.logger.Warn("Skill extraction failed, using keyword fallback",
			"document_role", role,
			"error", err.Error())
		return fallbackSkills(text, maxSkills)
	}
	return extraction.Skills
}

// extractExperience degrades to the date-range heuristic on failure
func (s *Service) extractExperience(ctx context.Context, resumeText string) types.ExperienceDetail {
	var experience types.ExperienceDetail
	err := s.trackAI(ctx, "summarize_experience", func(ctx context.Context) (*ai.TokenUsage, error) {
		var usage *ai.TokenUsage
		var err error
		experience, usage, err = s.providers.Experience.SummarizeExperience(ctx, resumeText)
		return usage, err
	})
	if err != nil {
		s.logger.Warn("Experience analysis failed, using date-range heuristic", "error", err.Error())
		return fallbackExperience(resumeText)
	}
	return experience
}

// justify degrades to the deterministic score-band narrative on failure; a
// justification problem never fails the rating
func (s *Service) justify(ctx context.Context, input types.JustificationInput) types.Justification {
	var justification types.Justification
	err := s.trackAI(ctx, "justify", func(ctx context.Context) (*ai.TokenUsage, error) {
		var usage *ai.TokenUsage
		var err error
		justification, usage, err = s.providers.Justify.Justify(ctx, input)
		return usage, err
	})
	if err != nil {
		s.logger.Warn("AI justification failed, using deterministic fallback", "error", err.Error())
		return fallbackJustification(input)
	}
	return justification
}

// attachAudio synthesizes and stores the spoken assessment. Failures log
// and leave the audio fields empty.
func (s *Service) attachAudio(ctx context.Context, result *types.RateResult) {
	script := speechScript(result)

	var raw []byte
	err := s.trackAI(ctx, "synthesize_speech", func(ctx context.Context) (*ai.TokenUsage, error) {
		var usage *ai.TokenUsage
		var err error
		raw, usage, err = s.providers.Speech.Synthesize(ctx, script)
		return usage, err
	})
	if err != nil {
		s.logger.Warn("Audio synthesis failed", "candidate", result.CandidateName, "error", err.Error())
		return
	}

	playable, _ := audio.EnsurePlayable(raw)
	result.AudioBase64 = base64.StdEncoding.EncodeToString(playable)

	filename, err := audio.Save(s.cfg.Rating.AudioDir, result.CandidateName, raw)
	if err != nil {
		s.logger.Warn("Failed to store audio file", "candidate", result.CandidateName, "error", err.Error())
		return
	}
	result.AudioFilename = filename
}

// attachFeedback renders and stores the feedback letter. Failures log and
// leave the feedback field empty.
func (s *Service) attachFeedback(result *types.RateResult) {
	letter := feedback.FromResult(result)

	_, data, err := feedback.Save(s.cfg.Rating.FeedbackDir, letter)
	if err != nil {
		s.logger.Warn("Failed to generate feedback letter", "candidate", result.CandidateName, "error", err.Error())
		return
	}
	result.FeedbackReportBase64 = base64.StdEncoding.EncodeToString(data)
}

// speechScript builds the short spoken assessment from the rating outcome
func speechScript(result *types.RateResult) string {
	steps := result.Justification.NextSteps
	if len(steps) > 2 {
		steps = steps[:2]
	}
	return fmt.Sprintf("Assessment for %s: %s. %s Recommended next steps: %s",
		result.CandidateName,
		result.Justification.Recommendation.Decision,
		result.Justification.OverallAssessment.Summary,
		strings.Join(steps, " "))
}

// componentMap renders the seven sub-scores with the original reporting keys
func componentMap(cs scoring.ComponentScores) map[string]float64 {
	return map[string]float64{
		"skill_match_score":         round3(cs.SkillMatch),
		"skill_context_score":       round3(cs.SkillContext),
		"experience_duration_score": round3(cs.ExperienceDuration),
		"impact_score":              round3(cs.Impact),
		"project_score":             round3(cs.Project),
		"education_score":           round3(cs.Education),
		"relevance_score":           round3(cs.Relevance),
	}
}

func round3(x float64) float64 {
	return float64(int(x*1000+0.5)) / 1000
}

// missingRequirements is the normalized set-difference of JD skills minus
// matched skills, preserving JD order
func missingRequirements(jdSkills, matched []string) []string {
	matchedSet := make(map[string]struct{}, len(matched))
	for _, skill := range matched {
		matchedSet[scoring.Normalize(skill)] = struct{}{}
	}

	var missing []string
	for _, skill := range jdSkills {
		if _, ok := matchedSet[scoring.Normalize(skill)]; !ok {
			missing = append(missing, skill)
		}
	}
	return missing
}
