package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// promptFile binds a configured file path to the loadedPrompts slot that
// receives its content
type promptFile struct {
	path       string
	target     *string
	promptType string // "system" or "user"
	operation  string
}

// promptFileBindings enumerates every prompt slot that can be backed by a
// file, global prompts first, then the per-operation overrides
func (c *Config) promptFileBindings() []promptFile {
	return []promptFile{
		{c.AI.CustomPrompts.SystemPrompts.ExtractSkillsFile, &loadedPrompts.Global.SystemPrompts.ExtractSkills, "system", "extractSkills"},
		{c.AI.CustomPrompts.SystemPrompts.SummarizeExperienceFile, &loadedPrompts.Global.SystemPrompts.SummarizeExperience, "system", "summarizeExperience"},
		{c.AI.CustomPrompts.SystemPrompts.JustifyScoreFile, &loadedPrompts.Global.SystemPrompts.JustifyScore, "system", "justifyScore"},
		{c.AI.CustomPrompts.UserPrompts.ExtractSkillsFile, &loadedPrompts.Global.UserPrompts.ExtractSkills, "user", "extractSkills"},
		{c.AI.CustomPrompts.UserPrompts.SummarizeExperienceFile, &loadedPrompts.Global.UserPrompts.SummarizeExperience, "user", "summarizeExperience"},
		{c.AI.CustomPrompts.UserPrompts.JustifyScoreFile, &loadedPrompts.Global.UserPrompts.JustifyScore, "user", "justifyScore"},

		{c.AI.Extract.CustomPrompts.SystemPrompts.ExtractSkillsFile, &loadedPrompts.Extract.SystemPrompts.ExtractSkills, "extract system", "extractSkills"},
		{c.AI.Extract.CustomPrompts.UserPrompts.ExtractSkillsFile, &loadedPrompts.Extract.UserPrompts.ExtractSkills, "extract user", "extractSkills"},
		{c.AI.Experience.CustomPrompts.SystemPrompts.SummarizeExperienceFile, &loadedPrompts.Experience.SystemPrompts.SummarizeExperience, "experience system", "summarizeExperience"},
		{c.AI.Experience.CustomPrompts.UserPrompts.SummarizeExperienceFile, &loadedPrompts.Experience.UserPrompts.SummarizeExperience, "experience user", "summarizeExperience"},
		{c.AI.Justify.CustomPrompts.SystemPrompts.JustifyScoreFile, &loadedPrompts.Justify.SystemPrompts.JustifyScore, "justify system", "justifyScore"},
		{c.AI.Justify.CustomPrompts.UserPrompts.JustifyScoreFile, &loadedPrompts.Justify.UserPrompts.JustifyScore, "justify user", "justifyScore"},
	}
}

// loadPromptsFromFiles reads every configured prompt file into the global
// prompt store. Configured paths stay in the Config untouched.
func (c *Config) loadPromptsFromFiles() error {
	log.Println("[CONFIG] Starting custom prompt loading from files")

	loadedPromptsOnce.Do(func() {
		loadedPrompts = AllLoadedPrompts{}
	})

	for _, b := range c.promptFileBindings() {
		if b.path == "" {
			continue
		}
		content, err := c.loadPromptFromFile(b.path, b.promptType, b.operation)
		if err != nil {
			return fmt.Errorf("failed to load %s %s prompt: %w", b.promptType, b.operation, err)
		}
		*b.target = content
	}

	c.logPromptLoadingSummary()
	return nil
}

// loadPromptFromFile reads one prompt file, rejecting missing or empty files
func (c *Config) loadPromptFromFile(filePath, promptType, operation string) (string, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for %s %s prompt file '%s': %w", promptType, operation, filePath, err)
	}

	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return "", fmt.Errorf("%s %s prompt file not found: %s", promptType, operation, absPath)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s %s prompt file '%s': %w", promptType, operation, absPath, err)
	}

	trimmed := strings.TrimSpace(string(content))
	if trimmed == "" {
		return "", fmt.Errorf("%s %s prompt file '%s' is empty", promptType, operation, absPath)
	}

	log.Printf("[CONFIG] Successfully loaded %s %s prompt from file: %s (%d characters)",
		promptType, operation, absPath, len(trimmed))

	return trimmed, nil
}

// validatePromptFiles checks that every configured prompt file exists before
// loading starts, collecting all failures into one error
func (c *Config) validatePromptFiles() error {
	var problems []string

	for _, b := range c.promptFileBindings() {
		if b.path == "" {
			continue
		}

		absPath, err := filepath.Abs(b.path)
		if err != nil {
			problems = append(problems, fmt.Sprintf("invalid path for %s %s prompt: %s", b.promptType, b.operation, b.path))
			continue
		}
		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			problems = append(problems, fmt.Sprintf("%s %s prompt file not found: %s", b.promptType, b.operation, absPath))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("prompt file validation failed:\n%s", strings.Join(problems, "\n"))
	}
	return nil
}

func (c *Config) logPromptLoadingSummary() {
	log.Println("[CONFIG] === Custom Prompt Loading Summary ===")

	loaded := 0
	for _, b := range c.promptFileBindings() {
		if *b.target != "" {
			log.Printf("[CONFIG] %s %s prompt: loaded from config/file", b.promptType, b.operation)
			loaded++
		}
	}

	if loaded == 0 {
		log.Println("[CONFIG] No custom prompts loaded - using built-in defaults")
	} else {
		log.Printf("[CONFIG] Total custom prompts loaded: %d", loaded)
	}

	log.Println("[CONFIG] ==========================================")
}
