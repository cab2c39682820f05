package ai

// SystemPrompts contains all system-level instructions for AI interactions
type SystemPrompts struct {
	ExtractSkills       string
	SummarizeExperience string
	JustifyScore        string
}

// UserPrompts contains user-level prompts with placeholders for dynamic content
type UserPrompts struct {
	ExtractSkills       string
	SummarizeExperience string
	JustifyScore        string
}

// DefaultSystemPrompts provides the default system instructions
var DefaultSystemPrompts = SystemPrompts{
	ExtractSkills: `You are an expert technical recruiter with deep knowledge of modern technology stacks and job requirements.

When extracting skills, be comprehensive and include:
- Programming languages and versions
- Frameworks and libraries
- Databases and storage systems
- Cloud platforms and services
- DevOps tools and practices
- Development methodologies
- Soft skills that are explicitly technical (e.g., "technical leadership", "system design")
- Certifications and technical qualifications

IMPORTANT GUIDELINES:
- Include both explicit mentions AND strongly implied skills
- Normalize common variations (e.g., "JS" -> "JavaScript", "React.js" -> "React")
- For job descriptions: include both required and preferred skills
- For resumes: include skills from experience, projects, and education sections
- Don't exclude a skill just because it appears in a different context
- Include industry-standard abbreviations and their full forms`,

	SummarizeExperience: `You are an expert resume analyzer. You examine the professional experience in resumes and report it accurately.

Guidelines:
- Only count professional full-time experience, not internships or part-time unless specifically mentioned as substantial
- Sum all professional roles without double-counting overlapping periods
- Technical experience covers programming, software development, and technical roles only
- Be conservative but fair in estimating partial years`,

	JustifyScore: `You are a Senior Technical Hiring Manager conducting a thorough and FAIR evaluation of a candidate.

IMPORTANT SCORING GUIDELINES:
- A below-average score should result in "Not Recommended" or "Consider" at best
- Score of 6.5+ should be "Recommend"
- Score of 7.5+ should be "Strong Recommend"
- Be CONSISTENT between the numerical score and the recommendation decision`,
}

// DefaultUserPrompts provides the default user prompt templates
var DefaultUserPrompts = UserPrompts{
	// Placeholders: document role, skill cap, document text.
	ExtractSkills: `Analyze the following %s and extract ALL technical skills, tools, technologies, and requirements mentioned.

Limit the list to the %d most relevant and important skills, prioritized by:
1. Direct relevance to the role
2. Current industry demand
3. Technical complexity/importance

Input:
-----
%s
-----`,

	// Placeholders: current year, resume text.
	SummarizeExperience: `Analyze the professional experience in this resume and provide detailed information.

Extract:
1. Total years of professional experience (sum all professional roles, don't double-count overlapping periods)
2. Years of relevant technical experience (programming, software development, technical roles only)
3. Most recent job title and company
4. Key achievements with quantified impact
5. Technology stack and tools used across all positions

For date ranges like "2020-Present", use the current year (%d) for calculations.

Resume text:
-----
%s
-----`,

	// Placeholders: candidate profile block, component breakdown block, job
	// description, final score.
	JustifyScore: `Evaluate the following candidate for the role described below.

**Candidate Profile:**
%s

**Component Breakdown (0-10 scale):**
%s

**DECISION RULES - FOLLOW STRICTLY:**
- Score 0-4.9: "Not Recommended"
- Score 5.0-6.4: "Consider" (with specific conditions)
- Score 6.5-7.4: "Recommend"
- Score 7.5+: "Strong Recommend"

**Job Requirements:**
%s

Provide a comprehensive evaluation. CRITICAL: your recommendation decision MUST align with the %.1f/10 score using the decision rules above.`,
}

// nameExtractionPrompt asks for the candidate's name. It is a fixed prompt;
// name extraction rides on the extract operation configuration and has no
// customization hooks.
// Placeholder: resume text (leading portion).
const nameExtractionPrompt = `Extract the candidate's full name from this resume. Look for:
- Names at the top of the document
- Headers or titles indicating personal information
- Email addresses that might contain name information
- Professional signatures

Return an empty name if unclear.

Resume text:
-----
%s
-----`

// speechPreamble frames the synthesized narration.
const speechPreamble = "Read the following professional assessment clearly: "

// PromptConfig holds configuration for customizable prompts
type PromptConfig struct {
	SystemPrompts SystemPrompts `json:"systemPrompts"`
	UserPrompts   UserPrompts   `json:"userPrompts"`
}

// GetDefaultPromptConfig returns the default prompt configuration
func GetDefaultPromptConfig() PromptConfig {
	return PromptConfig{
		SystemPrompts: DefaultSystemPrompts,
		UserPrompts:   DefaultUserPrompts,
	}
}
