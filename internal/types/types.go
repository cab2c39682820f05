package types

import "resufit/internal/scoring"

// RateInput carries the raw material for one rating: the job description and
// the already-extracted resume text.
type RateInput struct {
	JobDescription string `json:"jobDescription"`
	ResumeText     string `json:"resumeText"`
	Filename       string `json:"filename,omitempty"`
}

// SkillExtractionInput identifies the document to mine for skills. Role is
// either "job description" or "resume" and steers the prompt wording;
// MaxSkills caps the returned list.
type SkillExtractionInput struct {
	Text      string
	Role      string
	MaxSkills int
}

// SkillExtraction is the JSON contract for skill extraction calls.
type SkillExtraction struct {
	Skills []string `json:"skills"`
}

// NameExtraction is the JSON contract for candidate name extraction.
type NameExtraction struct {
	Name string `json:"name"`
}

// RecentRole identifies the candidate's latest position.
type RecentRole struct {
	Title   string `json:"title"`
	Company string `json:"company"`
}

// ExperienceDetail is the full experience record returned by the extraction
// collaborator. The embedded summary is what the scorer consumes; the rest is
// reporting detail.
type ExperienceDetail struct {
	scoring.ExperienceSummary
	MostRecentRole   RecentRole `json:"most_recent_role"`
	KeyAchievements  []string   `json:"key_achievements"`
	TechnologiesUsed []string   `json:"technologies_used"`
}

// OverallAssessment summarizes the candidate in prose.
type OverallAssessment struct {
	Summary             string   `json:"summary"`
	KeyStrengths        []string `json:"key_strengths"`
	AreasForImprovement []string `json:"areas_for_improvement"`
	PotentialRedFlags   []string `json:"potential_red_flags"`
}

// SkillsEvaluation describes technical fit and gaps.
type SkillsEvaluation struct {
	TechnicalFit       string   `json:"technical_fit"`
	SkillGaps          []string `json:"skill_gaps"`
	TransferableSkills []string `json:"transferable_skills"`
}

// ExperienceAssessment places the candidate on a seniority ladder.
type ExperienceAssessment struct {
	ExperienceLevel    string `json:"experience_level"`
	RelevantBackground string `json:"relevant_background"`
	GrowthTrajectory   string `json:"growth_trajectory"`
}

// Recommendation is the hiring decision with its reasoning. Decision bands
// are tied to the final score: below 5.0 "Not Recommended", 5.0-6.4
// "Consider", 6.5-7.4 "Recommend", 7.5 and up "Strong Recommend".
type Recommendation struct {
	Decision       string   `json:"decision"`
	Confidence     string   `json:"confidence"`
	Reasoning      string   `json:"reasoning"`
	InterviewFocus []string `json:"interview_focus"`
}

// JustificationInput gathers the deterministic scoring evidence the
// justification call argues from.
type JustificationInput struct {
	CandidateName   string
	JobDescription  string
	Score0to10      float64
	ComponentScores map[string]float64
	MatchedSkills   []string
	MissingSkills   []string
	TotalJDSkills   int
	Experience      ExperienceDetail
}

// Justification is the narrative evaluation produced for each rating.
type Justification struct {
	OverallAssessment    OverallAssessment    `json:"overall_assessment"`
	SkillsEvaluation     SkillsEvaluation     `json:"skills_evaluation"`
	ExperienceAssessment ExperienceAssessment `json:"experience_assessment"`
	Recommendation       Recommendation       `json:"recommendation"`
	NextSteps            []string             `json:"next_steps"`
}

// RateResult is the complete outcome of rating one resume against a job
// description.
type RateResult struct {
	CandidateName        string                  `json:"candidate_name"`
	Filename             string                  `json:"filename"`
	Score0to10           float64                 `json:"final_score_0_10"`
	Score0to100          float64                 `json:"final_score_0_100"`
	ComponentScores      map[string]float64      `json:"component_scores"`
	PerComponent010      map[string]float64      `json:"per_component_0_10"`
	MatchedSkills        []string                `json:"matched_skills"`
	JDSkills             []string                `json:"jd_skills"`
	ResumeSkills         []string                `json:"resume_skills"`
	YearsExperience      float64                 `json:"years_experience_estimate"`
	TechnicalYears       float64                 `json:"technical_years_estimate"`
	SkillEvidence        map[string][]string     `json:"skill_evidence"`
	ConfidenceScores     map[string]float64      `json:"confidence_scores"`
	MatchStatistics      scoring.MatchStatistics `json:"match_statistics"`
	MissingRequirements  []string                `json:"missing_requirements"`
	Justification        Justification           `json:"llm_justification"`
	AudioBase64          string                  `json:"tts_audio_base64,omitempty"`
	AudioFilename        string                  `json:"tts_saved_filename,omitempty"`
	Experience           ExperienceDetail        `json:"experience_data"`
	FeedbackReportBase64 string                  `json:"feedback_report_base64,omitempty"`
}

// BatchItem is one entry of a batch rating. Exactly one of Result or Error is
// set; a failed resume never aborts its siblings.
type BatchItem struct {
	Filename string      `json:"filename"`
	Result   *RateResult `json:"result,omitempty"`
	Error    string      `json:"error,omitempty"`
}

// BatchSummary counts the outcomes of a batch run.
type BatchSummary struct {
	Total       int `json:"total"`
	Rated       int `json:"rated"`
	Failed      int `json:"failed"`
	Recommended int `json:"recommended"`
}

// BatchResult is the outcome of rating several resumes against one job
// description.
type BatchResult struct {
	Items   []BatchItem  `json:"items"`
	Summary BatchSummary `json:"summary"`
}
