package ai

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"net"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"resufit/internal/config"
	resufitErrors "resufit/internal/errors"
	"resufit/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

const (
	// Document text beyond these limits adds latency and tokens without
	// improving extraction quality.
	maxAnalysisChars = 4000
	maxNameChars     = 2000
	maxJobDescChars  = 1000

	defaultMaxSkills = 50

	ttsVoiceName = "Charon"
)

// GeminiProvider implements AIProvider for Google Gemini
type GeminiProvider struct {
	client         *genai.Client
	httpClient     *http.Client
	config         *config.OperationAIConfig
	circuitBreaker *AICircuitBreaker
	modelBreaker   *ModelCircuitBreaker
	logger         *resufitErrors.Logger
}

// Ensure GeminiProvider implements AIProvider
var _ AIProvider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a new Gemini provider instance for a specific operation
func NewGeminiProvider(cfg *config.OperationAIConfig, operationType string, logger *resufitErrors.Logger) (*GeminiProvider, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, resufitErrors.NewAIError(resufitErrors.ErrCodeAIServiceFailed,
			"Failed to create Gemini client", err)
	}

	// Initialize circuit breaker with operation-specific configuration
	circuitBreaker := NewAICircuitBreaker(operationType, cfg, logger)
	modelBreaker := NewModelCircuitBreaker(operationType, cfg, logger)

	return &GeminiProvider{
		client: client,
		httpClient: &http.Client{
			Timeout: *cfg.Timeout,
		},
		config:         cfg,
		circuitBreaker: circuitBreaker,
		modelBreaker:   modelBreaker,
		logger:         logger,
	}, nil
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}

// GetModelInfo checks the readiness and availability of the configured model
func (g *GeminiProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	modelInfo := &ModelInfo{Name: g.config.Model}

	checkCtx, cancel := context.WithTimeout(ctx, modelCheckTimeout)
	defer cancel()

	model, err := g.modelBreaker.ExecuteModel(func() (*genai.Model, error) {
		return g.client.Models.Get(checkCtx, g.config.Model, &genai.GetModelConfig{})
	})
	if err != nil {
		modelInfo.Error = fmt.Sprintf("Failed to get model info: %v", err)
		g.logger.Warn("Model availability check failed",
			"model", g.config.Model,
			"provider", g.config.Provider,
			"error", err.Error())
		return modelInfo
	}

	modelInfo.Available = true
	if model.DisplayName != "" {
		modelInfo.DisplayName = model.DisplayName
	}
	if model.Version != "" {
		modelInfo.Version = model.Version
	}

	g.logger.Debug("Model availability check successful",
		"model", g.config.Model,
		"provider", g.config.Provider,
		"display_name", modelInfo.DisplayName,
		"version", modelInfo.Version)

	return modelInfo
}

// retryBackoff is the wait before retry attempt n (1-based): exponential with
// roughly 10% random jitter, capped at 30 seconds
func retryBackoff(attempt int) time.Duration {
	base := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
	jitterMax := big.NewInt(int64(float64(base) * 0.1))
	jitterBig, _ := rand.Int(rand.Reader, jitterMax)
	return min(base+time.Duration(jitterBig.Int64()), 30*time.Second)
}

// executeWithRetry retries fn on transient errors up to the configured limit
func (g *GeminiProvider) executeWithRetry(ctx context.Context, operation string, fn func() (*genai.GenerateContentResponse, error)) (*genai.GenerateContentResponse, error) {
	var lastErr error

	for attempt := 0; attempt <= *g.config.MaxRetries; attempt++ {
		if attempt > 0 {
			g.logger.Warn("Retrying AI operation",
				"operation", operation,
				"attempt", attempt,
				"max_retries", *g.config.MaxRetries,
				"error", lastErr.Error())

			select {
			case <-time.After(retryBackoff(attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := fn()
		if err == nil {
			if attempt > 0 {
				g.logger.Info("AI operation succeeded after retry",
					"operation", operation,
					"successful_attempt", attempt+1)
			}
			return result, nil
		}
		lastErr = err

		if !isRetryableError(err) {
			g.logger.Debug("Error is not retryable, stopping retry attempts",
				"operation", operation,
				"error", err.Error())
			break
		}
	}

	g.logger.LogError(lastErr, "AI operation failed after all retry attempts",
		"operation", operation,
		"total_attempts", *g.config.MaxRetries+1)

	return nil, fmt.Errorf("operation '%s' failed after %d retries: %w", operation, *g.config.MaxRetries, lastErr)
}

// isRetryableError treats network failures and 429/5xx API responses as
// transient; everything else (auth, bad input) fails immediately
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
	}

	return false
}

// permissiveSafetySettings disables content blocking. Resumes and job ads
// routinely trip false positives (security roles, defense industry, medical
// terminology) and the output schema leaves no room for free-form abuse.
func permissiveSafetySettings() []*genai.SafetySetting {
	categories := []genai.HarmCategory{
		genai.HarmCategoryHarassment,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
		genai.HarmCategoryDangerousContent,
	}
	settings := make([]*genai.SafetySetting, 0, len(categories))
	for _, c := range categories {
		settings = append(settings, &genai.SafetySetting{
			Category:  c,
			Threshold: genai.HarmBlockThresholdBlockNone,
		})
	}
	return settings
}

// executeAIOperation is a generic helper to run AI operations with common tracing, circuit breaker, and parsing logic.
func executeAIOperation[Out any](
	g *GeminiProvider,
	ctx context.Context,
	operationName string,
	userPrompt string,
	systemPrompt string,
	genaiConfig *genai.GenerateContentConfig,
	spanAttributes ...attribute.KeyValue,
) (Out, *TokenUsage, error) {
	var output Out
	tracer := otel.Tracer("resufit.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini."+operationName)
	defer span.End()

	// Set base attributes
	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", g.config.Model),
		attribute.Float64("ai.temperature", float64(*g.config.Temperature)),
	)
	span.SetAttributes(spanAttributes...)

	if *g.config.UseSystemPrompts && systemPrompt != "" {
		genaiConfig.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	result, err := g.generateWithFallback(ctx, operationName, userPrompt, genaiConfig)

	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return output, nil, resufitErrors.NewAIError(resufitErrors.ErrCodeAIServiceFailed, "Failed to generate content for "+operationName, err)
	}

	if err := json.Unmarshal([]byte(result.Text()), &output); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return output, nil, resufitErrors.NewAIError("AI_RESPONSE_PARSE_FAILED", "Failed to parse AI response for "+operationName, err)
	}

	tokenUsage := extractTokenUsage(result)
	if tokenUsage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", tokenUsage.InputTokens),
			attribute.Int64("ai.tokens.output", tokenUsage.OutputTokens),
			attribute.Int64("ai.tokens.total", tokenUsage.TotalTokens),
		)
	}

	span.SetAttributes(attribute.Bool("success", true))
	return output, tokenUsage, nil
}

// generateWithFallback runs a generation call against the primary model and,
// if that fails with the fallback configured, retries once against the
// fallback model. The fallback attempt bypasses the circuit breaker so a
// tripped primary does not block the secondary path.
func (g *GeminiProvider) generateWithFallback(ctx context.Context, operationName, userPrompt string, genaiConfig *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	result, err := g.circuitBreaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return g.executeWithRetry(ctx, operationName, func() (*genai.GenerateContentResponse, error) {
			return g.client.Models.GenerateContent(ctx, g.config.Model, genai.Text(userPrompt), genaiConfig)
		})
	})
	if err == nil {
		return result, nil
	}

	fallback := g.config.FallbackModel
	if fallback == "" || fallback == g.config.Model {
		return nil, err
	}

	g.logger.Warn("Primary model failed, trying fallback model",
		"operation", operationName,
		"primary_model", g.config.Model,
		"fallback_model", fallback,
		"error", err.Error())

	return g.executeWithRetry(ctx, operationName+"_fallback", func() (*genai.GenerateContentResponse, error) {
		return g.client.Models.GenerateContent(ctx, fallback, genai.Text(userPrompt), genaiConfig)
	})
}

// ExtractSkills implements AIProvider interface for skill extraction
func (g *GeminiProvider) ExtractSkills(ctx context.Context, input types.SkillExtractionInput) (types.SkillExtraction, *TokenUsage, error) {
	maxSkills := input.MaxSkills
	if maxSkills <= 0 {
		maxSkills = defaultMaxSkills
	}

	systemPrompt, userPrompt := g.getPromptsForExtract(input.Role, maxSkills, truncateText(input.Text, maxAnalysisChars))
	config := g.buildSkillsSchema()

	output, tokenUsage, err := executeAIOperation[types.SkillExtraction](
		g,
		ctx,
		"extract_skills",
		userPrompt,
		systemPrompt,
		config,
		attribute.String("input.document_role", input.Role),
		attribute.Int("input.text_length", len(input.Text)),
		attribute.Int("input.max_skills", maxSkills),
	)

	if err != nil {
		return types.SkillExtraction{}, nil, err
	}

	output.Skills = cleanSkillList(output.Skills, maxSkills)

	// Add operation-specific success metrics to the span created by the helper
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(
			attribute.Int("output.skills_count", len(output.Skills)),
		)
	}

	return output, tokenUsage, nil
}

// SummarizeExperience implements AIProvider interface for experience analysis
func (g *GeminiProvider) SummarizeExperience(ctx context.Context, resumeText string) (types.ExperienceDetail, *TokenUsage, error) {
	systemPrompt, userPrompt := g.getPromptsForExperience(truncateText(resumeText, maxAnalysisChars))
	config := g.buildExperienceSchema()

	output, tokenUsage, err := executeAIOperation[types.ExperienceDetail](
		g,
		ctx,
		"summarize_experience",
		userPrompt,
		systemPrompt,
		config,
		attribute.Int("input.resume_length", len(resumeText)),
	)

	if err != nil {
		return types.ExperienceDetail{}, nil, err
	}

	// Add operation-specific success metrics to the span created by the helper
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(
			attribute.Float64("output.total_years", output.TotalYears),
			attribute.Float64("output.technical_years", output.TechnicalYears),
		)
	}

	return output, tokenUsage, nil
}

// ExtractCandidateName implements AIProvider interface for name extraction.
// The returned name is empty when the model could not find a plausible
// two-word name; callers fall back to heuristics.
func (g *GeminiProvider) ExtractCandidateName(ctx context.Context, resumeText string) (types.NameExtraction, *TokenUsage, error) {
	userPrompt := fmt.Sprintf(nameExtractionPrompt, truncateText(resumeText, maxNameChars))
	config := g.buildNameSchema()

	output, tokenUsage, err := executeAIOperation[types.NameExtraction](
		g,
		ctx,
		"extract_name",
		userPrompt,
		"",
		config,
		attribute.Int("input.resume_length", len(resumeText)),
	)

	if err != nil {
		return types.NameExtraction{}, nil, err
	}

	output.Name = cleanCandidateName(output.Name)

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(
			attribute.Bool("output.name_found", output.Name != ""),
		)
	}

	return output, tokenUsage, nil
}

// Justify implements AIProvider interface for score justification
func (g *GeminiProvider) Justify(ctx context.Context, input types.JustificationInput) (types.Justification, *TokenUsage, error) {
	systemPrompt, userPrompt := g.getPromptsForJustify(input)
	config := g.buildJustificationSchema()

	output, tokenUsage, err := executeAIOperation[types.Justification](
		g,
		ctx,
		"justify_score",
		userPrompt,
		systemPrompt,
		config,
		attribute.Float64("input.score", input.Score0to10),
		attribute.Int("input.matched_skills", len(input.MatchedSkills)),
		attribute.Int("input.job_length", len(input.JobDescription)),
	)

	if err != nil {
		return types.Justification{}, nil, err
	}

	// Add operation-specific success metrics to the span created by the helper
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(
			attribute.String("output.decision", output.Recommendation.Decision),
			attribute.Int("output.next_steps", len(output.NextSteps)),
		)
	}

	return output, tokenUsage, nil
}

// Synthesize implements AIProvider interface for text-to-speech. It returns
// the raw audio bytes as delivered by the model; format detection and WAV
// wrapping happen downstream.
func (g *GeminiProvider) Synthesize(ctx context.Context, script string) ([]byte, *TokenUsage, error) {
	tracer := otel.Tracer("resufit.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini.synthesize_speech")
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", g.config.Model),
		attribute.Int("input.script_length", len(script)),
	)

	// Markdown markers read terribly aloud
	cleaned := strings.NewReplacer("#", "", "*", "").Replace(script)
	contents := speechPreamble + cleaned

	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{
					VoiceName: ttsVoiceName,
				},
			},
		},
	}

	result, err := g.circuitBreaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return g.executeWithRetry(ctx, "synthesize_speech", func() (*genai.GenerateContentResponse, error) {
			return g.client.Models.GenerateContent(ctx, g.config.Model, genai.Text(contents), config)
		})
	})

	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return nil, nil, resufitErrors.NewAIError(resufitErrors.ErrCodeAIServiceFailed, "Failed to synthesize speech", err)
	}

	audio, err := extractAudioBytes(result)
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return nil, nil, err
	}

	tokenUsage := extractTokenUsage(result)
	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.Int("output.audio_bytes", len(audio)),
	)

	return audio, tokenUsage, nil
}

// extractAudioBytes pulls the inline audio payload out of a TTS response
func extractAudioBytes(result *genai.GenerateContentResponse) ([]byte, error) {
	if result == nil || len(result.Candidates) == 0 {
		return nil, resufitErrors.NewAIError(resufitErrors.ErrCodeAIServiceFailed,
			"TTS response contained no candidates", nil)
	}
	content := result.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 {
		return nil, resufitErrors.NewAIError(resufitErrors.ErrCodeAIServiceFailed,
			"TTS response contained no content parts", nil)
	}
	part := content.Parts[0]
	if part.InlineData == nil || len(part.InlineData.Data) == 0 {
		return nil, resufitErrors.NewAIError(resufitErrors.ErrCodeAIServiceFailed,
			"TTS response contained no audio data", nil)
	}
	return part.InlineData.Data, nil
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (g *GeminiProvider) GetCircuitBreakerStats() map[string]any {
	stats := map[string]any{
		"ai_operations":    g.circuitBreaker.GetStats(),
		"model_operations": g.modelBreaker.GetModelStats(),
	}

	// Overall health - both breakers must be healthy
	aiHealthy := g.circuitBreaker.IsHealthy()
	modelHealthy := g.modelBreaker.IsModelHealthy()
	stats["overall_healthy"] = aiHealthy && modelHealthy

	return stats
}

// Close implements AIProvider interface
func (g *GeminiProvider) Close() error {
	// Gemini client doesn't have a Close method in current single-shot usage
	// Probably needed in streaming mode
	return nil
}

// Schema shorthands. Gemini structured output wants fully spelled-out JSON
// schemas; these keep the builders below readable.
func schemaString() *genai.Schema { return &genai.Schema{Type: genai.TypeString} }
func schemaNumber() *genai.Schema { return &genai.Schema{Type: genai.TypeNumber} }

func schemaStringList() *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Items: schemaString()}
}

func schemaObject(props map[string]*genai.Schema, required ...string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeObject, Properties: props, Required: required}
}

// jsonResponseConfig wraps a response schema with the shared generation
// settings: JSON output, permissive safety, configured temperature
func (g *GeminiProvider) jsonResponseConfig(schema *genai.Schema) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
		SafetySettings:   permissiveSafetySettings(),
	}
	if *g.config.Temperature > 0 {
		config.Temperature = g.config.Temperature
	}
	return config
}

func (g *GeminiProvider) buildSkillsSchema() *genai.GenerateContentConfig {
	return g.jsonResponseConfig(schemaObject(map[string]*genai.Schema{
		"skills": schemaStringList(),
	}, "skills"))
}

func (g *GeminiProvider) buildExperienceSchema() *genai.GenerateContentConfig {
	return g.jsonResponseConfig(schemaObject(map[string]*genai.Schema{
		"total_years_experience":     schemaNumber(),
		"technical_years_experience": schemaNumber(),
		"most_recent_role": schemaObject(map[string]*genai.Schema{
			"title":   schemaString(),
			"company": schemaString(),
		}, "title", "company"),
		"key_achievements":  schemaStringList(),
		"technologies_used": schemaStringList(),
	}, "total_years_experience", "technical_years_experience", "most_recent_role", "key_achievements", "technologies_used"))
}

func (g *GeminiProvider) buildNameSchema() *genai.GenerateContentConfig {
	return g.jsonResponseConfig(schemaObject(map[string]*genai.Schema{
		"name": schemaString(),
	}, "name"))
}

// buildJustificationSchema mirrors types.Justification
func (g *GeminiProvider) buildJustificationSchema() *genai.GenerateContentConfig {
	return g.jsonResponseConfig(schemaObject(map[string]*genai.Schema{
		"overall_assessment": schemaObject(map[string]*genai.Schema{
			"summary":               schemaString(),
			"key_strengths":         schemaStringList(),
			"areas_for_improvement": schemaStringList(),
			"potential_red_flags":   schemaStringList(),
		}, "summary", "key_strengths", "areas_for_improvement", "potential_red_flags"),
		"skills_evaluation": schemaObject(map[string]*genai.Schema{
			"technical_fit":       schemaString(),
			"skill_gaps":          schemaStringList(),
			"transferable_skills": schemaStringList(),
		}, "technical_fit", "skill_gaps", "transferable_skills"),
		"experience_assessment": schemaObject(map[string]*genai.Schema{
			"experience_level":    schemaString(),
			"relevant_background": schemaString(),
			"growth_trajectory":   schemaString(),
		}, "experience_level", "relevant_background", "growth_trajectory"),
		"recommendation": schemaObject(map[string]*genai.Schema{
			"decision":        schemaString(),
			"confidence":      schemaString(),
			"reasoning":       schemaString(),
			"interview_focus": schemaStringList(),
		}, "decision", "confidence", "reasoning", "interview_focus"),
		"next_steps": schemaStringList(),
	}, "overall_assessment", "skills_evaluation", "experience_assessment", "recommendation", "next_steps"))
}

// getPromptsForExtract returns system and user prompts for skill extraction
func (g *GeminiProvider) getPromptsForExtract(documentRole string, maxSkills int, text string) (string, string) {
	systemPrompt := g.getSystemPrompt("extract")
	userPrompt := fmt.Sprintf(g.getUserPrompt("extract"), documentRole, maxSkills, text)
	return systemPrompt, userPrompt
}

// getPromptsForExperience returns system and user prompts for experience analysis
func (g *GeminiProvider) getPromptsForExperience(resumeText string) (string, string) {
	systemPrompt := g.getSystemPrompt("experience")
	userPrompt := fmt.Sprintf(g.getUserPrompt("experience"), time.Now().Year(), resumeText)
	return systemPrompt, userPrompt
}

// getPromptsForJustify returns system and user prompts for justification.
// The candidate profile and component breakdown blocks are built here so
// custom user prompts only need two %s slots plus the job text and score.
func (g *GeminiProvider) getPromptsForJustify(input types.JustificationInput) (string, string) {
	systemPrompt := g.getSystemPrompt("justify")
	userPrompt := g.getUserPrompt("justify")

	profile := buildCandidateProfile(input)
	breakdown := buildComponentBreakdown(input.ComponentScores)

	formattedUserPrompt := fmt.Sprintf(userPrompt,
		profile,
		breakdown,
		truncateText(input.JobDescription, maxJobDescChars),
		input.Score0to10,
	)

	return systemPrompt, formattedUserPrompt
}

// buildCandidateProfile renders the deterministic scoring evidence as a
// plain-text block for the justification prompt
func buildCandidateProfile(input types.JustificationInput) string {
	name := input.CandidateName
	if name == "" {
		name = "Unknown Candidate"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "- Name: %s\n", name)
	fmt.Fprintf(&b, "- Final Score: %.1f/10\n", input.Score0to10)
	fmt.Fprintf(&b, "- Total Experience: %.1f years (%.1f technical)\n",
		input.Experience.TotalYears, input.Experience.TechnicalYears)
	fmt.Fprintf(&b, "- Skills Matched: %d of %d required",
		len(input.MatchedSkills), input.TotalJDSkills)
	if len(input.MatchedSkills) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(input.MatchedSkills, ", "))
	}
	if input.Experience.MostRecentRole.Title != "" {
		fmt.Fprintf(&b, "\n- Most Recent Role: %s at %s",
			input.Experience.MostRecentRole.Title, input.Experience.MostRecentRole.Company)
	}
	return b.String()
}

// buildComponentBreakdown renders component scores on the 0-10 scale, one per
// line, sorted for stable prompts
func buildComponentBreakdown(components map[string]float64) string {
	names := make([]string, 0, len(components))
	for name := range components {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "- %s: %.1f", name, components[name]*10)
	}
	return b.String()
}

// getSystemPrompt returns the appropriate system prompt
func (g *GeminiProvider) getSystemPrompt(promptType string) string {
	loadedPrompts, configPrompts := g.getPrompts(promptType)
	var configSystemPrompts *config.SystemPrompts
	if configPrompts != nil {
		configSystemPrompts = &configPrompts.SystemPrompts
	} else {
		configSystemPrompts = &config.SystemPrompts{}
	}

	switch promptType {
	case "extract":
		return resolvePrompt(
			loadedPrompts.SystemPrompts.ExtractSkills,
			configSystemPrompts.ExtractSkills,
			DefaultSystemPrompts.ExtractSkills,
		)
	case "experience":
		return resolvePrompt(
			loadedPrompts.SystemPrompts.SummarizeExperience,
			configSystemPrompts.SummarizeExperience,
			DefaultSystemPrompts.SummarizeExperience,
		)
	case "justify":
		return resolvePrompt(
			loadedPrompts.SystemPrompts.JustifyScore,
			configSystemPrompts.JustifyScore,
			DefaultSystemPrompts.JustifyScore,
		)
	default:
		return ""
	}
}

// getUserPrompt returns the appropriate user prompt template
func (g *GeminiProvider) getUserPrompt(promptType string) string {
	loadedPrompts, configPrompts := g.getPrompts(promptType)
	var configUserPrompts *config.UserPrompts
	if configPrompts != nil {
		configUserPrompts = &configPrompts.UserPrompts
	} else {
		configUserPrompts = &config.UserPrompts{}
	}

	switch promptType {
	case "extract":
		return resolvePrompt(
			loadedPrompts.UserPrompts.ExtractSkills,
			configUserPrompts.ExtractSkills,
			DefaultUserPrompts.ExtractSkills,
		)
	case "experience":
		return resolvePrompt(
			loadedPrompts.UserPrompts.SummarizeExperience,
			configUserPrompts.SummarizeExperience,
			DefaultUserPrompts.SummarizeExperience,
		)
	case "justify":
		return resolvePrompt(
			loadedPrompts.UserPrompts.JustifyScore,
			configUserPrompts.JustifyScore,
			DefaultUserPrompts.JustifyScore,
		)
	default:
		return ""
	}
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// extractTokenUsage extracts token usage information from Gemini API response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}

// modelCheckTimeout bounds the model availability probe in GetModelInfo
const modelCheckTimeout = 10 * time.Second

// getPrompts returns the appropriate prompts for the operation, prioritizing loaded content over config
func (g *GeminiProvider) getPrompts(operationType string) (config.OperationLoadedPrompts, *config.PromptConfig) {
	// Get loaded prompts (returns a copy)
	loadedPrompts := config.GetPromptsForOperation(operationType)
	configPrompts := &g.config.CustomPrompts
	return loadedPrompts, configPrompts
}

/// resolvePrompt picks the first non-empty prompt: file-loaded, then config,
// then the built-in default
func resolvePrompt(loadedFromFile, fromConfig, fromDefault string) string {
	if loadedFromFile != "" {
		return loadedFromFile
	}
	if fromConfig != "" {
		return fromConfig
	}
	return fromDefault
}

// truncateText caps a document at max bytes
func truncateText(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// cleanSkillList normalizes a raw skill list: trims whitespace, drops
// one-character noise, deduplicates case-insensitively preserving first-seen
// casing, and caps the result
func cleanSkillList(skills []string, max int) []string {
	seen := make(map[string]struct{}, len(skills))
	cleaned := make([]string, 0, len(skills))
	for _, skill := range skills {
		s := strings.TrimSpace(skill)
		if len(s) <= 1 {
			continue
		}
		key := strings.ToLower(s)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		cleaned = append(cleaned, s)
		if len(cleaned) >= max {
			break
		}
	}
	return cleaned
}

var nameNoiseRe = regexp.MustCompile(`(?i)\b(resume|curriculum vitae|cv)\b`)

// cleanCandidateName strips document noise from an extracted name and
// rejects anything shorter than two words
func cleanCandidateName(raw string) string {
	s := strings.NewReplacer("•", " ", "·", " ", "|", " ", "_", " ").Replace(raw)
	s = nameNoiseRe.ReplaceAllString(s, " ")
	parts := strings.Fields(s)
	if len(parts) < 2 {
		return ""
	}
	return strings.Join(parts, " ")
}
