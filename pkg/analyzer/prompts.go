package analyzer

import (
	"fmt"
	"strings"

	"github.com/skillsetz/careercraft/pkg/analysis"
	"github.com/skillsetz/careercraft/pkg/profile"
	"github.com/skillsetz/careercraft/pkg/provider"
	"github.com/skillsetz/careercraft/pkg/storage"
	"github.com/skillsetz/careercraft/pkg/stream"
)

const analysisSystem = `You are an expert career coach and technical recruiter.
You compare a candidate profile against a job description and score the fit
honestly. Respond with a single JSON object and nothing else.`

// analysisSchema lists every field the response coercion understands.
// Scores are integers from 0 to 100.
const analysisSchema = `{
  "eligibility_level": "EXCELLENT" | "GOOD" | "FAIR" | "POOR",
  "match_score": <int>,
  "skills_match_score": <int>,
  "experience_match_score": <int>,
  "education_match_score": <int>,
  "culture_fit_score": <int>,
  "location_match_score": <int>,
  "salary_match_score": <int>,
  "technical_skills_score": <int>,
  "soft_skills_score": <int>,
  "domain_knowledge_score": <int>,
  "readiness_percentage": <int>,
  "analysis_summary": <string>,
  "strengths": [<string>],
  "gaps": [<string>],
  "recommendations": [<string>],
  "matching_skills": [<string>],
  "missing_skills": [<string>],
  "skill_gaps": [<string>],
  "experience_match": <string>,
  "experience_gap_years": <number>,
  "years_of_experience_required": <number>,
  "years_of_experience_user": <number>,
  "estimated_preparation_time": <string>,
  "confidence_level": "VERY_HIGH" | "HIGH" | "MEDIUM" | "LOW" | "VERY_LOW",
  "next_steps": [<string>],
  "priority_improvements": [<string>],
  "learning_resources": [<string>],
  "interview_questions": [{"question": <string>, "answer": <string>, "category": <string>}]
}`

const parseSystem = `You extract structured fields from job postings.
Respond with a single JSON object and nothing else.`

const parseSchema = `{
  "title": <string>,
  "company": <string>,
  "location": <string>,
  "salary_range": <string>,
  "job_type": "full-time" | "part-time" | "contract" | "internship",
  "description": <string>,
  "required_skills": [<string>],
  "preferred_skills": [<string>],
  "apply_url": <string>,
  "hiring_email": <string>,
  "tags": [<string>],
  "source": <string>
}`

const chatSystem = `You are a career coach continuing a conversation about a
job-fit analysis you produced earlier. Answer the candidate's questions
concretely, referring to the analysis and their profile. Plain text, no JSON.`

// analysisPrompt assembles the streaming analysis request. The section
// markers double as split points for the offline keyword scorer.
func analysisPrompt(prof *profile.Profile, req stream.Request) provider.Prompt {
	var b strings.Builder

	b.WriteString(provider.ProfileMarker)
	b.WriteString("\n")
	b.WriteString(prof.Context())
	b.WriteString("\n\n")

	b.WriteString(provider.JobMarker)
	b.WriteString("\n")
	b.WriteString(req.JobDescription)
	b.WriteString("\n")

	if strings.TrimSpace(req.AdditionalContext) != "" {
		b.WriteString("\nAdditional context from the candidate:\n")
		b.WriteString(req.AdditionalContext)
		b.WriteString("\n")
	}

	b.WriteString("\nReturn a JSON object with exactly these fields:\n")
	b.WriteString(analysisSchema)

	return provider.Prompt{System: analysisSystem, User: b.String()}
}

// parsePrompt assembles the one-shot job structuring request.
func parsePrompt(description string) provider.Prompt {
	var b strings.Builder

	b.WriteString(provider.JobMarker)
	b.WriteString("\n")
	b.WriteString(description)
	b.WriteString("\n")

	b.WriteString("\nReturn a JSON object with exactly these fields:\n")
	b.WriteString(parseSchema)

	return provider.Prompt{System: parseSystem, User: b.String()}
}

// chatPrompt assembles a follow-up chat turn. The analysis is rendered
// as prose, not JSON, so the offline scorer routes it to its chat
// reply instead of re-scoring.
func chatPrompt(prof *profile.Profile, a *analysis.Analysis, transcript []storage.ChatMessage, message string) provider.Prompt {
	var b strings.Builder

	b.WriteString(provider.ProfileMarker)
	b.WriteString("\n")
	b.WriteString(prof.Context())
	b.WriteString("\n\n")

	b.WriteString("Earlier analysis:\n")
	fmt.Fprintf(&b, "Verdict: %s with a match score of %d/100.\n", a.EligibilityLevel, a.MatchScore)
	if a.Summary != "" {
		fmt.Fprintf(&b, "Summary: %s\n", a.Summary)
	}
	if len(a.Strengths) > 0 {
		fmt.Fprintf(&b, "Strengths: %s\n", strings.Join(a.Strengths, "; "))
	}
	if len(a.Gaps) > 0 {
		fmt.Fprintf(&b, "Gaps: %s\n", strings.Join(a.Gaps, "; "))
	}
	if len(a.Recommendations) > 0 {
		fmt.Fprintf(&b, "Recommendations: %s\n", strings.Join(a.Recommendations, "; "))
	}

	if len(transcript) > 0 {
		b.WriteString("\nConversation so far:\n")
		for _, msg := range transcript {
			fmt.Fprintf(&b, "%s: %s\n", roleLabel(msg.Role), msg.Content)
		}
	}

	b.WriteString("\nCandidate: ")
	b.WriteString(message)

	return provider.Prompt{System: chatSystem, User: b.String()}
}

func roleLabel(role string) string {
	switch role {
	case storage.RoleUser:
		return "Candidate"
	case storage.RoleAssistant:
		return "Coach"
	default:
		return role
	}
}
