package ai

import (
	"context"

	"resufit/internal/types"
)

// AIProvider interface for different AI implementations
// All methods return token usage information - callers can ignore it if not needed
type AIProvider interface {
	ExtractSkills(ctx context.Context, input types.SkillExtractionInput) (types.SkillExtraction, *TokenUsage, error)
	SummarizeExperience(ctx context.Context, resumeText string) (types.ExperienceDetail, *TokenUsage, error)
	ExtractCandidateName(ctx context.Context, resumeText string) (types.NameExtraction, *TokenUsage, error)
	Justify(ctx context.Context, input types.JustificationInput) (types.Justification, *TokenUsage, error)
	Synthesize(ctx context.Context, script string) ([]byte, *TokenUsage, error)
	GetModelInfo(ctx context.Context) *ModelInfo
	Close() error
}
