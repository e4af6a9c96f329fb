// Package analysis provides the internal representations of CareerCraft
// job-fit analyses which are produced by the analyzer pipeline and then
// further stored, served, and rendered.
package analysis

import (
	"encoding/json"
	"time"
)

// Eligibility verdict buckets.
const (
	EligibilityExcellent = "EXCELLENT"
	EligibilityGood      = "GOOD"
	EligibilityFair      = "FAIR"
	EligibilityPoor      = "POOR"
)

// Confidence levels reported by the model. Anything else normalizes to MEDIUM.
const (
	ConfidenceVeryHigh = "VERY_HIGH"
	ConfidenceHigh     = "HIGH"
	ConfidenceMedium   = "MEDIUM"
	ConfidenceLow      = "LOW"
	ConfidenceVeryLow  = "VERY_LOW"
)

// MetricFields lists the eleven numeric scores carried by metric events,
// in report order.
var MetricFields = []string{
	"match_score",
	"skills_match_score",
	"experience_match_score",
	"education_match_score",
	"culture_fit_score",
	"location_match_score",
	"salary_match_score",
	"technical_skills_score",
	"soft_skills_score",
	"domain_knowledge_score",
	"readiness_percentage",
}

// PartialMetricFields are the scores probed for in accumulated model
// output while a response is still streaming.
var PartialMetricFields = []string{
	"match_score",
	"skills_match_score",
	"experience_match_score",
	"technical_skills_score",
	"readiness_percentage",
}

// Metrics holds the numeric scores of a completed analysis (0-100 each).
type Metrics struct {
	MatchScore           int `json:"match_score"`
	SkillsMatchScore     int `json:"skills_match_score"`
	ExperienceMatchScore int `json:"experience_match_score"`
	EducationMatchScore  int `json:"education_match_score"`
	CultureFitScore      int `json:"culture_fit_score"`
	LocationMatchScore   int `json:"location_match_score"`
	SalaryMatchScore     int `json:"salary_match_score"`
	TechnicalSkillsScore int `json:"technical_skills_score"`
	SoftSkillsScore      int `json:"soft_skills_score"`
	DomainKnowledgeScore int `json:"domain_knowledge_score"`
	ReadinessPercentage  int `json:"readiness_percentage"`
}

// Document returns the metrics as the wire mapping carried by a
// metrics_complete event, eligibility verdict included.
func (m Metrics) Document(eligibility string) map[string]any {
	return map[string]any{
		"match_score":            m.MatchScore,
		"skills_match_score":     m.SkillsMatchScore,
		"experience_match_score": m.ExperienceMatchScore,
		"education_match_score":  m.EducationMatchScore,
		"culture_fit_score":      m.CultureFitScore,
		"location_match_score":   m.LocationMatchScore,
		"salary_match_score":     m.SalaryMatchScore,
		"technical_skills_score": m.TechnicalSkillsScore,
		"soft_skills_score":      m.SoftSkillsScore,
		"domain_knowledge_score": m.DomainKnowledgeScore,
		"readiness_percentage":   m.ReadinessPercentage,
		"eligibility_level":      eligibility,
	}
}

// InterviewQuestion is one suggested interview question with a model answer.
type InterviewQuestion struct {
	Question string `json:"question"`
	Answer   string `json:"answer,omitempty"`
	Category string `json:"category,omitempty"`
}

// Analysis is a completed job-fit analysis.
type Analysis struct {
	ID    int64 `json:"id"`
	JobID int64 `json:"job_id,omitempty"`

	EligibilityLevel string `json:"eligibility_level"`
	Metrics

	Summary         string   `json:"analysis_summary"`
	Strengths       []string `json:"strengths"`
	Gaps            []string `json:"gaps"`
	Recommendations []string `json:"recommendations"`
	MatchingSkills  []string `json:"matching_skills"`
	MissingSkills   []string `json:"missing_skills"`
	SkillGaps       []string `json:"skill_gaps,omitempty"`

	ExperienceMatch         string   `json:"experience_match,omitempty"`
	ExperienceGapYears      *float64 `json:"experience_gap_years,omitempty"`
	YearsExperienceRequired *float64 `json:"years_of_experience_required,omitempty"`
	YearsExperienceUser     *float64 `json:"years_of_experience_user,omitempty"`

	EstimatedPreparationTime string   `json:"estimated_preparation_time,omitempty"`
	ConfidenceLevel          string   `json:"confidence_level"`
	NextSteps                []string `json:"next_steps,omitempty"`
	PriorityImprovements     []string `json:"priority_improvements,omitempty"`
	LearningResources        []string `json:"learning_resources,omitempty"`

	// InterviewQuestions is kept raw: models sometimes return a JSON
	// string instead of a structured list, and the renderer decides how
	// to degrade. See report.ParseInterviewQuestions.
	InterviewQuestions json.RawMessage `json:"interview_questions,omitempty"`

	AdditionalContext string `json:"additional_context,omitempty"`

	// FullAnalysis preserves the raw accumulated model output for
	// follow-up chat context.
	FullAnalysis string `json:"full_analysis,omitempty"`

	Provider  string    `json:"provider,omitempty"`
	Model     string    `json:"llm_model,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}
