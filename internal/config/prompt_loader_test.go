package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writePromptFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadPromptsFromFiles(t *testing.T) {
	tempDir := t.TempDir()
	systemContent := "Test system prompt for skill extraction"
	userContent := "Test user prompt template: %s and %s"
	systemFile := writePromptFile(t, tempDir, "system.extract.md", systemContent)
	userFile := writePromptFile(t, tempDir, "user.extract.md", userContent)

	cfg := &Config{
		AI: AIConfig{
			Extract: OperationAIConfig{
				CustomPrompts: PromptConfig{
					SystemPrompts: SystemPrompts{ExtractSkillsFile: systemFile},
					UserPrompts:   UserPrompts{ExtractSkillsFile: userFile},
				},
			},
		},
	}

	if err := cfg.loadPromptsFromFiles(); err != nil {
		t.Fatalf("Failed to load prompts from files: %v", err)
	}

	loaded := GetPromptsForOperation("extract")
	if loaded.SystemPrompts.ExtractSkills != systemContent {
		t.Errorf("system prompt = %q, want %q", loaded.SystemPrompts.ExtractSkills, systemContent)
	}
	if loaded.UserPrompts.ExtractSkills != userContent {
		t.Errorf("user prompt = %q, want %q", loaded.UserPrompts.ExtractSkills, userContent)
	}

	// Loading must not rewrite the configured file paths
	if cfg.AI.Extract.CustomPrompts.SystemPrompts.ExtractSkillsFile != systemFile {
		t.Error("system prompt file path should be preserved")
	}
	if cfg.AI.Extract.CustomPrompts.UserPrompts.ExtractSkillsFile != userFile {
		t.Error("user prompt file path should be preserved")
	}
}

func TestValidatePromptFiles(t *testing.T) {
	tempDir := t.TempDir()
	validFile := writePromptFile(t, tempDir, "valid.md", "Valid content")

	cfg := &Config{
		AI: AIConfig{
			Justify: OperationAIConfig{
				CustomPrompts: PromptConfig{
					SystemPrompts: SystemPrompts{JustifyScoreFile: validFile},
				},
			},
		},
	}

	if err := cfg.validatePromptFiles(); err != nil {
		t.Errorf("validation should pass for an existing file, got: %v", err)
	}

	cfg.AI.Justify.CustomPrompts.SystemPrompts.JustifyScoreFile = filepath.Join(tempDir, "nonexistent.md")
	if err := cfg.validatePromptFiles(); err == nil {
		t.Error("validation should fail for a missing file")
	}
}

func TestLoadPromptFromFile(t *testing.T) {
	tempDir := t.TempDir()
	cfg := &Config{}

	content := "Test prompt content"
	testFile := writePromptFile(t, tempDir, "test.md", content)

	got, err := cfg.loadPromptFromFile(testFile, "system", "extract")
	if err != nil {
		t.Fatalf("Failed to load prompt from file: %v", err)
	}
	if got != content {
		t.Errorf("content = %q, want %q", got, content)
	}

	emptyFile := writePromptFile(t, tempDir, "empty.md", "")
	if _, err := cfg.loadPromptFromFile(emptyFile, "system", "extract"); err == nil {
		t.Error("empty file should be rejected")
	}

	if _, err := cfg.loadPromptFromFile(filepath.Join(tempDir, "nonexistent.md"), "system", "extract"); err == nil {
		t.Error("missing file should be rejected")
	}
}

// TestPromptFileIntegration runs validation and loading against a config that
// went through the normal fallback pass, the way Load does it.
func TestPromptFileIntegration(t *testing.T) {
	tempDir := t.TempDir()
	systemPrompt := "Custom system prompt for testing"
	userPrompt := "Custom user prompt: %s %s"
	systemFile := writePromptFile(t, tempDir, "system.md", systemPrompt)
	userFile := writePromptFile(t, tempDir, "user.md", userPrompt)

	cfg := &Config{
		AI: AIConfig{
			Provider:    "gemini",
			Model:       "test-model",
			Timeout:     60 * time.Second,
			APIKey:      "test-key",
			MaxRetries:  3,
			Temperature: 0.7,
			Experience: OperationAIConfig{
				CustomPrompts: PromptConfig{
					SystemPrompts: SystemPrompts{SummarizeExperienceFile: systemFile},
					UserPrompts:   UserPrompts{SummarizeExperienceFile: userFile},
				},
			},
		},
		App: AppConfig{
			LogLevel:         "info",
			DefaultFormat:    "json",
			SupportedFormats: []string{"json", "text", "markdown"},
			MaxFileSize:      1024 * 1024,
		},
		Server: ServerConfig{
			Host: "localhost",
			Port: "8080",
		},
	}

	cfg.applyFallbacks()

	if err := cfg.validatePromptFiles(); err != nil {
		t.Fatalf("Prompt file validation failed: %v", err)
	}
	if err := cfg.loadPromptsFromFiles(); err != nil {
		t.Fatalf("Failed to load prompts from files: %v", err)
	}

	loaded := GetPromptsForOperation("experience")
	if loaded.SystemPrompts.SummarizeExperience != systemPrompt {
		t.Errorf("system prompt = %q, want %q", loaded.SystemPrompts.SummarizeExperience, systemPrompt)
	}
	if loaded.UserPrompts.SummarizeExperience != userPrompt {
		t.Errorf("user prompt = %q, want %q", loaded.UserPrompts.SummarizeExperience, userPrompt)
	}

	if cfg.AI.Experience.CustomPrompts.SystemPrompts.SummarizeExperienceFile != systemFile {
		t.Error("system prompt file path should be preserved")
	}
	if cfg.AI.Experience.CustomPrompts.UserPrompts.SummarizeExperienceFile != userFile {
		t.Error("user prompt file path should be preserved")
	}
}
