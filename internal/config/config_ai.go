package config

// applyOperationDefaults applies global defaults to operation-specific configuration
func (c *Config) applyOperationDefaults(opCfg *OperationAIConfig) {
	if opCfg.Provider == "" {
		opCfg.Provider = c.AI.Provider
	}
	if opCfg.Model == "" {
		opCfg.Model = c.AI.Model
	}
	if opCfg.FallbackModel == "" {
		opCfg.FallbackModel = c.AI.FallbackModel
	}
	if opCfg.Timeout == nil {
		opCfg.Timeout = &c.AI.Timeout
	}
	if opCfg.APIKey == "" {
		opCfg.APIKey = c.AI.APIKey
	}
	if opCfg.MaxRetries == nil {
		opCfg.MaxRetries = &c.AI.MaxRetries
	}
	if opCfg.Temperature == nil {
		opCfg.Temperature = &c.AI.Temperature
	}
	// UseSystemPrompts: apply global default only if not explicitly set
	if opCfg.UseSystemPrompts == nil {
		opCfg.UseSystemPrompts = &c.AI.UseSystemPrompts
	}
}

// GetExtractConfig returns the AI configuration for skill and name extraction
// with fallback to global config
func (c *Config) GetExtractConfig() OperationAIConfig {
	config := c.AI.Extract

	// Apply common defaults
	c.applyOperationDefaults(&config)

	// Apply extract-specific prompt fallbacks
	if config.CustomPrompts.SystemPrompts.ExtractSkills == "" {
		config.CustomPrompts.SystemPrompts.ExtractSkills = c.AI.CustomPrompts.SystemPrompts.ExtractSkills
	}
	if config.CustomPrompts.UserPrompts.ExtractSkills == "" {
		config.CustomPrompts.UserPrompts.ExtractSkills = c.AI.CustomPrompts.UserPrompts.ExtractSkills
	}
	// Also copy file paths for potential later loading
	if config.CustomPrompts.SystemPrompts.ExtractSkillsFile == "" {
		config.CustomPrompts.SystemPrompts.ExtractSkillsFile = c.AI.CustomPrompts.SystemPrompts.ExtractSkillsFile
	}
	if config.CustomPrompts.UserPrompts.ExtractSkillsFile == "" {
		config.CustomPrompts.UserPrompts.ExtractSkillsFile = c.AI.CustomPrompts.UserPrompts.ExtractSkillsFile
	}

	return config
}

// GetExperienceConfig returns the AI configuration for experience
// summarization with fallback to global config
func (c *Config) GetExperienceConfig() OperationAIConfig {
	config := c.AI.Experience

	// Apply common defaults
	c.applyOperationDefaults(&config)

	// Apply experience-specific prompt fallbacks
	if config.CustomPrompts.SystemPrompts.SummarizeExperience == "" {
		config.CustomPrompts.SystemPrompts.SummarizeExperience = c.AI.CustomPrompts.SystemPrompts.SummarizeExperience
	}
	if config.CustomPrompts.UserPrompts.SummarizeExperience == "" {
		config.CustomPrompts.UserPrompts.SummarizeExperience = c.AI.CustomPrompts.UserPrompts.SummarizeExperience
	}
	// Also copy file paths for potential later loading
	if config.CustomPrompts.SystemPrompts.SummarizeExperienceFile == "" {
		config.CustomPrompts.SystemPrompts.SummarizeExperienceFile = c.AI.CustomPrompts.SystemPrompts.SummarizeExperienceFile
	}
	if config.CustomPrompts.UserPrompts.SummarizeExperienceFile == "" {
		config.CustomPrompts.UserPrompts.SummarizeExperienceFile = c.AI.CustomPrompts.UserPrompts.SummarizeExperienceFile
	}

	return config
}

// GetJustifyConfig returns the AI configuration for score justification with
// fallback to global config
func (c *Config) GetJustifyConfig() OperationAIConfig {
	config := c.AI.Justify

	// Apply common defaults
	c.applyOperationDefaults(&config)

	// Apply justify-specific prompt fallbacks
	if config.CustomPrompts.SystemPrompts.JustifyScore == "" {
		config.CustomPrompts.SystemPrompts.JustifyScore = c.AI.CustomPrompts.SystemPrompts.JustifyScore
	}
	if config.CustomPrompts.UserPrompts.JustifyScore == "" {
		config.CustomPrompts.UserPrompts.JustifyScore = c.AI.CustomPrompts.UserPrompts.JustifyScore
	}
	// Also copy file paths for potential later loading
	if config.CustomPrompts.SystemPrompts.JustifyScoreFile == "" {
		config.CustomPrompts.SystemPrompts.JustifyScoreFile = c.AI.CustomPrompts.SystemPrompts.JustifyScoreFile
	}
	if config.CustomPrompts.UserPrompts.JustifyScoreFile == "" {
		config.CustomPrompts.UserPrompts.JustifyScoreFile = c.AI.CustomPrompts.UserPrompts.JustifyScoreFile
	}

	return config
}

// GetSpeechConfig returns the AI configuration for audio synthesis with
// fallback to global config. Speech has no custom prompts; the script is
// built from the rating result.
func (c *Config) GetSpeechConfig() OperationAIConfig {
	config := c.AI.Speech

	c.applyOperationDefaults(&config)

	return config
}

// GetLoadedExtractPrompts returns a copy of the loaded prompts for the extract operation
func (c *Config) GetLoadedExtractPrompts() OperationLoadedPrompts {
	return loadedPrompts.Extract
}

// GetLoadedExperiencePrompts returns a copy of the loaded prompts for the experience operation
func (c *Config) GetLoadedExperiencePrompts() OperationLoadedPrompts {
	return loadedPrompts.Experience
}

// GetLoadedJustifyPrompts returns a copy of the loaded prompts for the justify operation
func (c *Config) GetLoadedJustifyPrompts() OperationLoadedPrompts {
	return loadedPrompts.Justify
}

// GetLoadedGlobalPrompts returns a copy of the loaded global prompts
func (c *Config) GetLoadedGlobalPrompts() LoadedPrompts {
	return loadedPrompts.Global
}
