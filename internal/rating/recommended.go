package rating

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"resufit/internal/types"
)

// appendRecommended records a shortlisted candidate in the running
// recommended-candidates file. Entries append so the file accumulates across
// runs; failures only log, a bookkeeping problem never fails a rating.
func (s *Service) appendRecommended(result *types.RateResult) {
	path := s.cfg.Rating.RecommendedFile
	if path == "" {
		return
	}

	s.recommendedMu.Lock()
	defer s.recommendedMu.Unlock()

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			s.logger.Warn("Failed to create recommended file directory", "path", dir, "error", err.Error())
			return
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640)
	if err != nil {
		s.logger.Warn("Failed to open recommended file", "path", path, "error", err.Error())
		return
	}
	defer func() { _ = f.Close() }()

	if _, err := f.WriteString(formatRecommendedEntry(result, time.Now())); err != nil {
		s.logger.Warn("Failed to append recommended entry", "path", path, "error", err.Error())
	}
}

// formatRecommendedEntry renders one human-readable shortlist block
func formatRecommendedEntry(result *types.RateResult, now time.Time) string {
	separator := strings.Repeat("=", 50)

	var b strings.Builder
	b.WriteString(separator + "\n")
	fmt.Fprintf(&b, "CANDIDATE: %s\n", result.CandidateName)
	fmt.Fprintf(&b, "OVERALL SCORE: %.1f/10\n", result.Score0to10)
	fmt.Fprintf(&b, "DECISION: %s\n", result.Justification.Recommendation.Decision)
	fmt.Fprintf(&b, "CONFIDENCE: %s\n", result.Justification.Recommendation.Confidence)

	b.WriteString("KEY STRENGTHS:\n")
	for _, strength := range firstN(result.Justification.OverallAssessment.KeyStrengths, 3) {
		fmt.Fprintf(&b, "  • %s\n", strength)
	}
	b.WriteString("SUGGESTED NEXT STEPS:\n")
	for _, step := range result.Justification.NextSteps {
		fmt.Fprintf(&b, "  • %s\n", step)
	}
	b.WriteString("INTERVIEW FOCUS AREAS:\n")
	for _, focus := range result.Justification.Recommendation.InterviewFocus {
		fmt.Fprintf(&b, "  • %s\n", focus)
	}

	fmt.Fprintf(&b, "DATE: %s\n", now.Format("2006-01-02 15:04:05"))
	b.WriteString("\n" + separator + "\n\n")
	return b.String()
}
