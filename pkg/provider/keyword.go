package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/skillsetz/careercraft/pkg/analysis"
)

// Section markers the analyzer places in its prompts. The keyword
// scorer relies on them to separate candidate context from the job
// posting; the model providers simply read past them.
const (
	ProfileMarker = "Candidate profile:"
	JobMarker     = "Job description:"
)

// Keyword is an offline provider that scores fit by token overlap
// between the candidate section and the job section of the prompt. It
// needs no network or credential, and identical input always yields
// identical output, which is what the analyzer and server tests run on.
type Keyword struct {
	logger *zap.Logger
}

// NewKeyword creates the keyword provider.
func NewKeyword(logger *zap.Logger) *Keyword {
	return &Keyword{logger: logger}
}

func (k *Keyword) Name() string { return "keyword" }

func (k *Keyword) Model() string { return "keyword" }

// Complete inspects the requested response schema and produces either a
// full analysis document, a parsed job document, or plain chat text.
func (k *Keyword) Complete(ctx context.Context, prompt Prompt) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var doc map[string]any
	switch {
	case strings.Contains(prompt.User, `"match_score"`):
		doc = k.analyze(prompt.User)
	case strings.Contains(prompt.User, `"required_skills"`):
		doc = k.parseJob(prompt.User)
	default:
		return k.reply(prompt.User), nil
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}
	return string(out), nil
}

// Stream replays the complete response to fn in small chunks.
func (k *Keyword) Stream(ctx context.Context, prompt Prompt, fn func(chunk string) error) (string, error) {
	full, err := k.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}

	const chunkSize = 48
	for i := 0; i < len(full); i += chunkSize {
		end := min(i+chunkSize, len(full))
		if err := fn(full[i:end]); err != nil {
			return full, err
		}
	}
	return full, nil
}

// analyze builds the full analysis document from token overlap.
func (k *Keyword) analyze(text string) map[string]any {
	profile, job := splitSections(text)
	matching, missing := overlap(tokenize(profile), tokenize(job))

	score := 50
	if total := len(matching) + len(missing); total > 0 {
		score = 30 + 60*len(matching)/total
	}

	eligibility := analysis.EligibilityPoor
	switch {
	case score >= 75:
		eligibility = analysis.EligibilityExcellent
	case score >= 55:
		eligibility = analysis.EligibilityGood
	case score >= 35:
		eligibility = analysis.EligibilityFair
	}

	summary := fmt.Sprintf(
		"Keyword comparison matched %d of %d job terms against the profile.",
		len(matching), len(matching)+len(missing),
	)

	doc := map[string]any{
		"eligibility_level":      eligibility,
		"match_score":            score,
		"skills_match_score":     clampScore(score + 5),
		"experience_match_score": clampScore(score - 5),
		"education_match_score":  clampScore(score - 10),
		"culture_fit_score":      50,
		"location_match_score":   50,
		"salary_match_score":     50,
		"technical_skills_score": score,
		"soft_skills_score":      clampScore(score - 15),
		"domain_knowledge_score": clampScore(score - 10),
		"readiness_percentage":   clampScore(score - 10),
		"analysis_summary":       summary,
		"strengths":              prefixed("Profile covers: ", matching, 5),
		"gaps":                   prefixed("Not evidenced in profile: ", missing, 5),
		"recommendations":        prefixed("Add recent work involving ", missing, 3),
		"matching_skills":        capped(matching, 10),
		"missing_skills":         capped(missing, 10),
		"experience_match":       "Estimated from keyword overlap only.",
		"confidence_level":       analysis.ConfidenceLow,
		"interview_questions":    interviewQuestions(missing),
	}
	return doc
}

// parseJob builds a parsed job document from the job section.
func (k *Keyword) parseJob(text string) map[string]any {
	_, job := splitSections(text)
	tokens := tokenize(job)

	title := "Untitled role"
	for _, line := range strings.Split(job, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			title = truncate(line, 80)
			break
		}
	}

	return map[string]any{
		"title":           title,
		"company":         "Unknown",
		"description":     truncate(strings.TrimSpace(job), 500),
		"required_skills": capped(tokens, 10),
	}
}

// reply is the offline stand-in for chat.
func (k *Keyword) reply(text string) string {
	return fmt.Sprintf(
		"Offline keyword mode cannot hold a conversation. Configure an openai or gemini provider for chat. (Received %d characters.)",
		len(text),
	)
}

// splitSections separates the candidate and job parts of a prompt by
// marker. When a marker is absent, the whole text stands in for the
// missing side, which degrades the comparison to full overlap.
func splitSections(text string) (profile, job string) {
	profile, job = text, text

	if i := strings.Index(text, JobMarker); i >= 0 {
		job = text[i+len(JobMarker):]
		profile = text[:i]
	}
	if i := strings.Index(profile, ProfileMarker); i >= 0 {
		profile = profile[i+len(ProfileMarker):]
	}
	// Cut the schema instructions off the job section.
	if i := strings.Index(job, "Return a JSON"); i >= 0 {
		job = job[:i]
	}
	return profile, job
}

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "you": true,
	"our": true, "are": true, "will": true, "have": true, "has": true,
	"this": true, "that": true, "from": true, "your": true, "who": true,
	"can": true, "not": true, "all": true, "any": true, "its": true,
	"was": true, "were": true, "their": true, "they": true, "them": true,
	"about": true, "into": true, "over": true, "more": true, "than": true,
	"such": true, "other": true, "also": true, "each": true, "when": true,
	"what": true, "where": true, "how": true, "why": true, "which": true,
	"work": true, "working": true, "team": true, "role": true, "years": true,
	"experience": true, "strong": true, "skills": true, "ability": true,
	"candidate": true, "profile": true, "job": true, "description": true,
	"required": true, "preferred": true, "plus": true, "must": true,
	"should": true, "would": true, "well": true, "good": true, "new": true,
	"exact": true, "fields": true, "return": true, "json": true, "object": true,
}

// tokenize lowercases, splits on non-token runes, and drops stopwords
// and short fragments. "+" and "#" stay inside tokens so c++ and c#
// survive.
func tokenize(text string) []string {
	raw := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
	})

	seen := make(map[string]bool, len(raw))
	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		if len(tok) < 3 && tok != "c#" && tok != "go" {
			continue
		}
		if stopwords[tok] || seen[tok] {
			continue
		}
		seen[tok] = true
		tokens = append(tokens, tok)
	}
	sort.Strings(tokens)
	return tokens
}

// overlap splits job tokens into those present in the profile and those
// missing from it. Both results come back sorted.
func overlap(profileTokens, jobTokens []string) (matching, missing []string) {
	inProfile := make(map[string]bool, len(profileTokens))
	for _, tok := range profileTokens {
		inProfile[tok] = true
	}

	matching = []string{}
	missing = []string{}
	for _, tok := range jobTokens {
		if inProfile[tok] {
			matching = append(matching, tok)
		} else {
			missing = append(missing, tok)
		}
	}
	return matching, missing
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func capped(tokens []string, n int) []string {
	if len(tokens) > n {
		tokens = tokens[:n]
	}
	out := make([]string, len(tokens))
	copy(out, tokens)
	return out
}

func prefixed(prefix string, tokens []string, n int) []string {
	out := []string{}
	for _, tok := range capped(tokens, n) {
		out = append(out, prefix+tok)
	}
	return out
}

func interviewQuestions(missing []string) []map[string]string {
	qs := []map[string]string{}
	for _, tok := range capped(missing, 3) {
		qs = append(qs, map[string]string{
			"question": fmt.Sprintf("Tell us about your hands-on experience with %s.", tok),
			"category": "technical",
		})
	}
	return qs
}
