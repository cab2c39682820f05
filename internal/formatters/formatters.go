package formatters

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"resufit/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	// Register default formatters
	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "RateResult", &RateTextFormatter{})
	registry.RegisterFormatter("markdown", "RateResult", &RateMarkdownFormatter{})
	registry.RegisterFormatter("text", "BatchResult", &BatchTextFormatter{})
	registry.RegisterFormatter("markdown", "BatchResult", &BatchMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	// Try specific formatter first
	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		// Fall back to generic formatter
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.RateResult, *types.RateResult:
		return "RateResult"
	case types.BatchResult, *types.BatchResult:
		return "BatchResult"
	default:
		return "any"
	}
}

// asRateResult normalizes value/pointer inputs
func asRateResult(data any) (*types.RateResult, bool) {
	switch v := data.(type) {
	case types.RateResult:
		return &v, true
	case *types.RateResult:
		return v, true
	}
	return nil, false
}

func asBatchResult(data any) (*types.BatchResult, bool) {
	switch v := data.(type) {
	case types.BatchResult:
		return &v, true
	case *types.BatchResult:
		return v, true
	}
	return nil, false
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// RateTextFormatter handles text formatting for rating results
type RateTextFormatter struct{}

func (rtf *RateTextFormatter) Format(data any) (string, error) {
	result, ok := asRateResult(data)
	if !ok {
		return "", fmt.Errorf("expected RateResult, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== RESUME RATING ===\n\n")
	output.WriteString(fmt.Sprintf("Candidate: %s\n", result.CandidateName))
	if result.Filename != "" {
		output.WriteString(fmt.Sprintf("File: %s\n", result.Filename))
	}
	output.WriteString(fmt.Sprintf("Final Score: %.1f/10 (%.1f/100)\n", result.Score0to10, result.Score0to100))
	output.WriteString(fmt.Sprintf("Decision: %s (confidence: %s)\n\n",
		result.Justification.Recommendation.Decision,
		result.Justification.Recommendation.Confidence))

	output.WriteString("=== COMPONENT SCORES ===\n")
	for _, name := range sortedKeys(result.ComponentScores) {
		output.WriteString(fmt.Sprintf("%-26s %.3f\n", name+":", result.ComponentScores[name]))
	}
	output.WriteString("\n")

	output.WriteString("=== SKILLS ===\n")
	output.WriteString(fmt.Sprintf("Matched (%d of %d required):\n", len(result.MatchedSkills), len(result.JDSkills)))
	for _, skill := range result.MatchedSkills {
		output.WriteString(fmt.Sprintf("- %s\n", skill))
	}
	if len(result.MissingRequirements) > 0 {
		output.WriteString("Missing:\n")
		for _, skill := range result.MissingRequirements {
			output.WriteString(fmt.Sprintf("- %s\n", skill))
		}
	}
	output.WriteString("\n")

	output.WriteString("=== EXPERIENCE ===\n")
	output.WriteString(fmt.Sprintf("Total: %.1f years (%.1f technical)\n\n",
		result.YearsExperience, result.TechnicalYears))

	output.WriteString("=== ASSESSMENT ===\n")
	output.WriteString(result.Justification.OverallAssessment.Summary)
	output.WriteString("\n\n")
	if len(result.Justification.OverallAssessment.KeyStrengths) > 0 {
		output.WriteString("Key Strengths:\n")
		for _, strength := range result.Justification.OverallAssessment.KeyStrengths {
			output.WriteString(fmt.Sprintf("- %s\n", strength))
		}
		output.WriteString("\n")
	}
	if len(result.Justification.OverallAssessment.AreasForImprovement) > 0 {
		output.WriteString("Areas for Improvement:\n")
		for _, area := range result.Justification.OverallAssessment.AreasForImprovement {
			output.WriteString(fmt.Sprintf("- %s\n", area))
		}
		output.WriteString("\n")
	}
	if len(result.Justification.NextSteps) > 0 {
		output.WriteString("Next Steps:\n")
		for i, step := range result.Justification.NextSteps {
			output.WriteString(fmt.Sprintf("%d. %s\n", i+1, step))
		}
	}

	if result.AudioFilename != "" {
		output.WriteString(fmt.Sprintf("\nAudio assessment saved as: %s\n", result.AudioFilename))
	}

	return output.String(), nil
}

func (rtf *RateTextFormatter) SupportedType() string {
	return "RateResult"
}

// RateMarkdownFormatter handles markdown formatting for rating results
type RateMarkdownFormatter struct{}

func (rmf *RateMarkdownFormatter) Format(data any) (string, error) {
	result, ok := asRateResult(data)
	if !ok {
		return "", fmt.Errorf("expected RateResult, got %T", data)
	}

	var output strings.Builder

	output.WriteString(fmt.Sprintf("# Resume Rating: %s\n\n", result.CandidateName))
	if result.Filename != "" {
		output.WriteString(fmt.Sprintf("**File:** %s\n\n", result.Filename))
	}
	output.WriteString(fmt.Sprintf("**Final Score:** %.1f/10 (%.1f/100)\n\n", result.Score0to10, result.Score0to100))
	output.WriteString(fmt.Sprintf("**Decision:** %s (confidence: %s)\n\n",
		result.Justification.Recommendation.Decision,
		result.Justification.Recommendation.Confidence))

	output.WriteString("## Component Scores\n\n")
	output.WriteString("| Component | Score |\n|---|---|\n")
	for _, name := range sortedKeys(result.ComponentScores) {
		output.WriteString(fmt.Sprintf("| %s | %.3f |\n", name, result.ComponentScores[name]))
	}
	output.WriteString("\n")

	output.WriteString("## Skills\n\n")
	output.WriteString(fmt.Sprintf("**Matched:** %d of %d required\n\n", len(result.MatchedSkills), len(result.JDSkills)))
	for _, skill := range result.MatchedSkills {
		output.WriteString(fmt.Sprintf("- %s\n", skill))
	}
	output.WriteString("\n")
	if len(result.MissingRequirements) > 0 {
		output.WriteString("### Missing Requirements\n\n")
		for _, skill := range result.MissingRequirements {
			output.WriteString(fmt.Sprintf("- %s\n", skill))
		}
		output.WriteString("\n")
	}

	output.WriteString("## Experience\n\n")
	output.WriteString(fmt.Sprintf("%.1f years total, %.1f technical\n\n",
		result.YearsExperience, result.TechnicalYears))

	output.WriteString("## Assessment\n\n")
	output.WriteString(result.Justification.OverallAssessment.Summary)
	output.WriteString("\n\n")
	if len(result.Justification.OverallAssessment.KeyStrengths) > 0 {
		output.WriteString("### Key Strengths\n\n")
		for _, strength := range result.Justification.OverallAssessment.KeyStrengths {
			output.WriteString(fmt.Sprintf("- %s\n", strength))
		}
		output.WriteString("\n")
	}
	if len(result.Justification.OverallAssessment.AreasForImprovement) > 0 {
		output.WriteString("### Areas for Improvement\n\n")
		for _, area := range result.Justification.OverallAssessment.AreasForImprovement {
			output.WriteString(fmt.Sprintf("- %s\n", area))
		}
		output.WriteString("\n")
	}
	if len(result.Justification.NextSteps) > 0 {
		output.WriteString("### Next Steps\n\n")
		for i, step := range result.Justification.NextSteps {
			output.WriteString(fmt.Sprintf("%d. %s\n", i+1, step))
		}
		output.WriteString("\n")
	}

	return output.String(), nil
}

func (rmf *RateMarkdownFormatter) SupportedType() string {
	return "RateResult"
}

// BatchTextFormatter handles text formatting for batch results
type BatchTextFormatter struct{}

func (btf *BatchTextFormatter) Format(data any) (string, error) {
	batch, ok := asBatchResult(data)
	if !ok {
		return "", fmt.Errorf("expected BatchResult, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== BATCH RATING SUMMARY ===\n\n")
	output.WriteString(fmt.Sprintf("Total: %d  Rated: %d  Failed: %d  Recommended: %d\n\n",
		batch.Summary.Total, batch.Summary.Rated, batch.Summary.Failed, batch.Summary.Recommended))

	for i, item := range batch.Items {
		output.WriteString(fmt.Sprintf("%d. %s\n", i+1, item.Filename))
		if item.Result != nil {
			output.WriteString(fmt.Sprintf("   Candidate: %s\n", item.Result.CandidateName))
			output.WriteString(fmt.Sprintf("   Score: %.1f/10  Decision: %s\n",
				item.Result.Score0to10, item.Result.Justification.Recommendation.Decision))
		} else {
			output.WriteString(fmt.Sprintf("   FAILED: %s\n", item.Error))
		}
		output.WriteString("\n")
	}

	return output.String(), nil
}

func (btf *BatchTextFormatter) SupportedType() string {
	return "BatchResult"
}

// BatchMarkdownFormatter handles markdown formatting for batch results
type BatchMarkdownFormatter struct{}

func (bmf *BatchMarkdownFormatter) Format(data any) (string, error) {
	batch, ok := asBatchResult(data)
	if !ok {
		return "", fmt.Errorf("expected BatchResult, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Batch Rating Summary\n\n")
	output.WriteString(fmt.Sprintf("**Total:** %d | **Rated:** %d | **Failed:** %d | **Recommended:** %d\n\n",
		batch.Summary.Total, batch.Summary.Rated, batch.Summary.Failed, batch.Summary.Recommended))

	output.WriteString("| File | Candidate | Score | Decision |\n|---|---|---|---|\n")
	for _, item := range batch.Items {
		if item.Result != nil {
			output.WriteString(fmt.Sprintf("| %s | %s | %.1f/10 | %s |\n",
				item.Filename, item.Result.CandidateName, item.Result.Score0to10,
				item.Result.Justification.Recommendation.Decision))
		} else {
			output.WriteString(fmt.Sprintf("| %s | — | — | failed: %s |\n", item.Filename, item.Error))
		}
	}
	output.WriteString("\n")

	return output.String(), nil
}

func (bmf *BatchMarkdownFormatter) SupportedType() string {
	return "BatchResult"
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
