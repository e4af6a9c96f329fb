package analysis

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// StripFences removes a Markdown code fence wrapper from raw model output.
func StripFences(input string) string {
	clean := strings.TrimSpace(input)

	if strings.HasPrefix(clean, "```json") {
		clean = strings.TrimPrefix(clean, "```json")
	} else if strings.HasPrefix(clean, "```") {
		clean = strings.TrimPrefix(clean, "```")
	}
	clean = strings.TrimLeft(clean, "\r\n")

	clean = strings.TrimSuffix(clean, "```")

	return strings.TrimSpace(clean)
}

// ExtractObject pulls the first top-level JSON object out of raw model
// output by windowing from the first '{' to the last '}'. Models pad
// their JSON with prose and fences often enough that a plain Unmarshal
// of the whole response is a losing strategy.
func ExtractObject(text string) (map[string]any, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("no JSON object found in response")
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(text[start:end+1]), &doc); err != nil {
		return nil, fmt.Errorf("parse analysis JSON: %w", err)
	}

	return doc, nil
}

// Fallback is the document used when model output cannot be parsed at all.
func Fallback() map[string]any {
	return map[string]any{
		"eligibility_level": EligibilityFair,
		"match_score":       50,
		"analysis_summary":  "Analysis could not be parsed properly.",
		"strengths":         []any{},
		"gaps":              []any{},
		"recommendations":   []any{},
		"matching_skills":   []any{},
		"missing_skills":    []any{},
		"experience_match":  "Unable to parse experience match",
	}
}

// FromDocument builds an Analysis from a loosely typed model response,
// coercing every field to its expected shape. Missing or malformed
// fields fall back to defaults rather than failing the whole document.
func FromDocument(doc map[string]any) *Analysis {
	a := &Analysis{
		EligibilityLevel: asString(doc["eligibility_level"], EligibilityFair),
		Metrics: Metrics{
			MatchScore:           asInt(doc["match_score"], 50),
			SkillsMatchScore:     asInt(doc["skills_match_score"], 0),
			ExperienceMatchScore: asInt(doc["experience_match_score"], 0),
			EducationMatchScore:  asInt(doc["education_match_score"], 0),
			CultureFitScore:      asInt(doc["culture_fit_score"], 0),
			LocationMatchScore:   asInt(doc["location_match_score"], 0),
			SalaryMatchScore:     asInt(doc["salary_match_score"], 0),
			TechnicalSkillsScore: asInt(doc["technical_skills_score"], 0),
			SoftSkillsScore:      asInt(doc["soft_skills_score"], 0),
			DomainKnowledgeScore: asInt(doc["domain_knowledge_score"], 0),
			ReadinessPercentage:  asInt(doc["readiness_percentage"], 0),
		},
		Summary:                  asString(doc["analysis_summary"], ""),
		Strengths:                asStringList(doc["strengths"]),
		Gaps:                     asStringList(doc["gaps"]),
		Recommendations:          asStringList(doc["recommendations"]),
		MatchingSkills:           asStringList(doc["matching_skills"]),
		MissingSkills:            asStringList(doc["missing_skills"]),
		SkillGaps:                asStringList(doc["skill_gaps"]),
		ExperienceMatch:          asString(doc["experience_match"], ""),
		ExperienceGapYears:       asFloat(doc["experience_gap_years"]),
		YearsExperienceRequired:  asFloat(doc["years_of_experience_required"]),
		YearsExperienceUser:      asFloat(doc["years_of_experience_user"]),
		EstimatedPreparationTime: asString(doc["estimated_preparation_time"], ""),
		ConfidenceLevel:          asConfidence(doc["confidence_level"]),
		NextSteps:                asStringList(doc["next_steps"]),
		PriorityImprovements:     asStringList(doc["priority_improvements"]),
		LearningResources:        asStringList(doc["learning_resources"]),
		InterviewQuestions:       asRawJSON(doc["interview_questions"]),
	}

	return a
}

// asInt converts loosely typed numeric values to int. Strings must be
// plain integers; anything unconvertible yields the default.
func asInt(v any, def int) int {
	switch n := v.(type) {
	case nil:
		return def
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	case string:
		if n == "" || n == "null" {
			return def
		}
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return def
		}
		return i
	default:
		return def
	}
}

func asFloat(v any) *float64 {
	switch n := v.(type) {
	case float64:
		return &n
	case int:
		f := float64(n)
		return &f
	case string:
		if n == "" || n == "null" {
			return nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}

func asString(v any, def string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return def
}

// asStringList accepts a list, a JSON-encoded list, or a bare string
// (treated as a single-element list). Anything else is empty.
func asStringList(v any) []string {
	switch x := v.(type) {
	case []string:
		return x
	case []any:
		out := make([]string, 0, len(x))
		for _, item := range x {
			if s, ok := item.(string); ok {
				out = append(out, s)
			} else {
				out = append(out, fmt.Sprintf("%v", item))
			}
		}
		return out
	case string:
		if x == "" {
			return []string{}
		}
		var parsed []any
		if err := json.Unmarshal([]byte(x), &parsed); err == nil {
			return asStringList(parsed)
		}
		return []string{x}
	default:
		return []string{}
	}
}

func asConfidence(v any) string {
	level := asString(v, ConfidenceMedium)
	switch level {
	case ConfidenceVeryHigh, ConfidenceHigh, ConfidenceMedium, ConfidenceLow, ConfidenceVeryLow:
		return level
	default:
		return ConfidenceMedium
	}
}

func asRawJSON(v any) json.RawMessage {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return raw
}
