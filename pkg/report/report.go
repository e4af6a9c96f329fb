// Package report renders a finished analysis as styled terminal text.
// Rendering is a pure function of the analysis and parsed job; the
// interactive expand/collapse behavior lives in the live TUI, so a
// report always prints every section it has data for.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/skillsetz/careercraft/pkg/analysis"
)

const defaultWidth = 80

// TermWidth returns the stdout terminal width clamped to a readable
// report column, or the default when stdout is not a terminal.
func TermWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 20 {
		return min(w, 100)
	}
	return defaultWidth
}

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
	bannerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 2).Border(lipgloss.RoundedBorder())
)

// Renderer renders analyses for a terminal of a given width.
type Renderer struct {
	width    int
	logger   *zap.Logger
	markdown *glamour.TermRenderer
}

// NewRenderer creates a Renderer. width <= 0 falls back to 80 columns.
func NewRenderer(width int, logger *zap.Logger) *Renderer {
	if width <= 0 {
		width = defaultWidth
	}

	stylePath := "dark"
	if !termenv.HasDarkBackground() {
		stylePath = "light"
	}

	// A nil renderer falls back to raw markdown text.
	markdown, err := glamour.NewTermRenderer(
		glamour.WithStylePath(stylePath),
		glamour.WithWordWrap(width-2),
	)
	if err != nil {
		logger.Warn("markdown renderer unavailable", zap.Error(err))
		markdown = nil
	}

	return &Renderer{width: width, logger: logger, markdown: markdown}
}

// Render returns the styled report for a finished analysis. A nil
// analysis renders nothing.
func (r *Renderer) Render(a *analysis.Analysis, job *analysis.ParsedJob) string {
	if a == nil {
		return ""
	}

	var b strings.Builder

	b.WriteString(r.banner(a))
	b.WriteString("\n")

	if job != nil {
		b.WriteString(r.jobHeader(job))
	}

	b.WriteString(r.scoreboard(a.Metrics))

	if a.Summary != "" {
		b.WriteString(sectionStyle.Render("Summary") + "\n")
		b.WriteString(r.renderMarkdown(a.Summary) + "\n\n")
	}

	b.WriteString(r.section("Strengths", a.Strengths))
	b.WriteString(r.section("Gaps", a.Gaps))
	b.WriteString(r.section("Matching Skills", a.MatchingSkills))
	b.WriteString(r.section("Missing Skills", a.MissingSkills))
	b.WriteString(r.section("Priority Improvements", a.PriorityImprovements))
	b.WriteString(r.section("Recommendations", a.Recommendations))
	b.WriteString(r.section("Next Steps", a.NextSteps))
	b.WriteString(r.section("Learning Resources", a.LearningResources))

	if a.ExperienceMatch != "" {
		b.WriteString(sectionStyle.Render("Experience") + "\n")
		b.WriteString("  " + a.ExperienceMatch + "\n")
		if a.YearsExperienceRequired != nil && a.YearsExperienceUser != nil {
			b.WriteString(dimStyle.Render(fmt.Sprintf("  %.1f years required, %.1f years on your resume",
				*a.YearsExperienceRequired, *a.YearsExperienceUser)) + "\n")
		}
		b.WriteString("\n")
	}

	if questions := ParseInterviewQuestions(a.InterviewQuestions, r.logger); len(questions) > 0 {
		b.WriteString(sectionStyle.Render("Interview Questions") + "\n")
		for i, q := range questions {
			label := fmt.Sprintf("  %d. %s", i+1, q.Question)
			if q.Category != "" {
				label += " " + dimStyle.Render("("+q.Category+")")
			}
			b.WriteString(label + "\n")
			if q.Answer != "" {
				b.WriteString(dimStyle.Render("     "+q.Answer) + "\n")
			}
		}
		b.WriteString("\n")
	}

	footer := make([]string, 0, 2)
	if a.EstimatedPreparationTime != "" {
		footer = append(footer, "Preparation: "+a.EstimatedPreparationTime)
	}
	if a.ConfidenceLevel != "" {
		footer = append(footer, "Confidence: "+a.ConfidenceLevel)
	}
	if len(footer) > 0 {
		b.WriteString(dimStyle.Render(strings.Join(footer, "  |  ")) + "\n")
	}

	return b.String()
}

// banner renders the headline match score with the eligibility badge.
func (r *Renderer) banner(a *analysis.Analysis) string {
	score := scoreStyle(a.MatchScore).Render(fmt.Sprintf("Match Score: %d/100", a.MatchScore))
	badge := eligibilityStyle(a.EligibilityLevel).Render(" " + a.EligibilityLevel + " ")
	return bannerStyle.Render(score+"  "+badge) + "\n"
}

func (r *Renderer) jobHeader(job *analysis.ParsedJob) string {
	var b strings.Builder
	title := job.Title
	if job.Company != "" {
		title += " at " + job.Company
	}
	b.WriteString(headerStyle.Render(title) + "\n")

	details := make([]string, 0, 3)
	if job.Location != "" {
		details = append(details, job.Location)
	}
	if job.JobType != "" {
		details = append(details, job.JobType)
	}
	if job.SalaryRange != "" {
		details = append(details, job.SalaryRange)
	}
	if len(details) > 0 {
		b.WriteString(dimStyle.Render(strings.Join(details, "  |  ")) + "\n")
	}
	b.WriteString("\n")
	return b.String()
}

// scoreboard renders the full metric breakdown.
func (r *Renderer) scoreboard(m analysis.Metrics) string {
	rows := []struct {
		label string
		value int
	}{
		{"Skills match", m.SkillsMatchScore},
		{"Experience match", m.ExperienceMatchScore},
		{"Education match", m.EducationMatchScore},
		{"Technical skills", m.TechnicalSkillsScore},
		{"Soft skills", m.SoftSkillsScore},
		{"Domain knowledge", m.DomainKnowledgeScore},
		{"Culture fit", m.CultureFitScore},
		{"Location match", m.LocationMatchScore},
		{"Salary match", m.SalaryMatchScore},
		{"Readiness", m.ReadinessPercentage},
	}

	var b strings.Builder
	b.WriteString(sectionStyle.Render("Scores") + "\n")
	for _, row := range rows {
		b.WriteString(fmt.Sprintf("  %-18s %s\n", row.label,
			scoreStyle(row.value).Render(fmt.Sprintf("%3d", row.value))))
	}
	b.WriteString("\n")
	return b.String()
}

// section renders one bulleted list, or nothing when it is empty.
func (r *Renderer) section(title string, items []string) string {
	if len(items) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(sectionStyle.Render(title) + "\n")
	for _, item := range items {
		b.WriteString("  - " + item + "\n")
	}
	b.WriteString("\n")
	return b.String()
}

func (r *Renderer) renderMarkdown(text string) string {
	if r.markdown == nil {
		return text
	}
	out, err := r.markdown.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimSpace(out)
}

func scoreStyle(score int) lipgloss.Style {
	switch {
	case score >= 80:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	case score >= 60:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	case score >= 40:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	}
}

func eligibilityStyle(level string) lipgloss.Style {
	style := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0"))
	switch level {
	case analysis.EligibilityExcellent:
		return style.Background(lipgloss.Color("10"))
	case analysis.EligibilityGood:
		return style.Background(lipgloss.Color("12"))
	case analysis.EligibilityFair:
		return style.Background(lipgloss.Color("11"))
	default:
		return style.Background(lipgloss.Color("9"))
	}
}

// ParseInterviewQuestions decodes the interview_questions payload.
// Models return either a structured list or a JSON string containing
// one; anything undecodable degrades to no questions with a diagnostic
// log, never a failure.
func ParseInterviewQuestions(raw json.RawMessage, logger *zap.Logger) []analysis.InterviewQuestion {
	if len(raw) == 0 {
		return nil
	}

	var questions []analysis.InterviewQuestion
	if err := json.Unmarshal(raw, &questions); err == nil {
		return questions
	}

	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		if err := json.Unmarshal([]byte(encoded), &questions); err == nil {
			return questions
		}
	}

	logger.Warn("unparsable interview questions payload",
		zap.String("payload", truncate(string(raw), 200)))
	return nil
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
