// Package profile loads the candidate's master profile from a YAML
// file and keeps it current with a filesystem watcher. The profile is
// the "you" side of every analysis: skills, work history, education,
// and optionally extracted resume text.
package profile

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Profile is the candidate master profile.
type Profile struct {
	Name              string  `yaml:"name"`
	CurrentTitle      string  `yaml:"current_title,omitempty"`
	CurrentCompany    string  `yaml:"current_company,omitempty"`
	Bio               string  `yaml:"bio,omitempty"`
	YearsOfExperience float64 `yaml:"years_of_experience,omitempty"`
	Industry          string  `yaml:"industry,omitempty"`

	CareerGoal  string   `yaml:"career_goal,omitempty"`
	TargetRoles []string `yaml:"target_roles,omitempty"`

	Skills          []Skill         `yaml:"skills,omitempty"`
	WorkExperiences []Experience    `yaml:"work_experiences,omitempty"`
	Education       []Education     `yaml:"education,omitempty"`
	Certifications  []Certification `yaml:"certifications,omitempty"`

	// ResumeText is extracted resume content, appended verbatim to the
	// prompt context when present.
	ResumeText string `yaml:"resume_text,omitempty"`
}

// Skill is one skill with optional proficiency and tenure.
type Skill struct {
	Name        string  `yaml:"name"`
	Proficiency string  `yaml:"proficiency,omitempty"` // BEGINNER, INTERMEDIATE, ADVANCED, EXPERT
	Years       float64 `yaml:"years,omitempty"`
}

// Experience is one work history entry.
type Experience struct {
	JobTitle     string   `yaml:"job_title"`
	Company      string   `yaml:"company"`
	Start        string   `yaml:"start,omitempty"`
	End          string   `yaml:"end,omitempty"`
	Current      bool     `yaml:"current,omitempty"`
	Description  string   `yaml:"description,omitempty"`
	Achievements []string `yaml:"achievements,omitempty"`
}

// Education is one education entry.
type Education struct {
	Institution string `yaml:"institution"`
	Degree      string `yaml:"degree,omitempty"`
	Field       string `yaml:"field,omitempty"`
	End         string `yaml:"end,omitempty"`
}

// Certification is one certification entry.
type Certification struct {
	Name   string `yaml:"name"`
	Issuer string `yaml:"issuer,omitempty"`
	Year   int    `yaml:"year,omitempty"`
}

// Load reads and parses a profile file.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	return Parse(data)
}

// Parse decodes a profile document. Unknown fields are rejected so
// typos in hand-edited files surface immediately.
func Parse(data []byte) (*Profile, error) {
	var p Profile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&p); err != nil {
		return nil, fmt.Errorf("parse profile: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("parse profile: multiple documents are not supported")
		}
		return nil, fmt.Errorf("parse profile: %w", err)
	}
	return &p, nil
}

// Context renders the profile as the prompt block handed to the model.
func (p *Profile) Context() string {
	var b strings.Builder

	if p.Name != "" {
		fmt.Fprintf(&b, "Name: %s\n", p.Name)
	}
	switch {
	case p.CurrentTitle != "" && p.CurrentCompany != "":
		fmt.Fprintf(&b, "Current role: %s at %s\n", p.CurrentTitle, p.CurrentCompany)
	case p.CurrentTitle != "":
		fmt.Fprintf(&b, "Current role: %s\n", p.CurrentTitle)
	}
	if p.YearsOfExperience > 0 {
		fmt.Fprintf(&b, "Years of experience: %.1f\n", p.YearsOfExperience)
	}
	if p.Industry != "" {
		fmt.Fprintf(&b, "Industry: %s\n", p.Industry)
	}
	if p.Bio != "" {
		fmt.Fprintf(&b, "Bio: %s\n", p.Bio)
	}
	if p.CareerGoal != "" {
		fmt.Fprintf(&b, "Career goal: %s\n", p.CareerGoal)
	}
	if len(p.TargetRoles) > 0 {
		fmt.Fprintf(&b, "Target roles: %s\n", strings.Join(p.TargetRoles, ", "))
	}

	if len(p.Skills) > 0 {
		b.WriteString("\nSkills:\n")
		for _, s := range p.Skills {
			fmt.Fprintf(&b, "- %s\n", s)
		}
	}
	if len(p.WorkExperiences) > 0 {
		b.WriteString("\nWork experience:\n")
		for _, e := range p.WorkExperiences {
			fmt.Fprintf(&b, "- %s\n", e)
		}
	}
	if len(p.Education) > 0 {
		b.WriteString("\nEducation:\n")
		for _, ed := range p.Education {
			fmt.Fprintf(&b, "- %s\n", ed)
		}
	}
	if len(p.Certifications) > 0 {
		b.WriteString("\nCertifications:\n")
		for _, c := range p.Certifications {
			fmt.Fprintf(&b, "- %s\n", c)
		}
	}

	if p.ResumeText != "" {
		b.WriteString("\nResume:\n")
		b.WriteString(p.ResumeText)
		b.WriteString("\n")
	}

	return b.String()
}

func (s Skill) String() string {
	var quals []string
	if s.Proficiency != "" {
		quals = append(quals, strings.ToLower(s.Proficiency))
	}
	if s.Years > 0 {
		quals = append(quals, fmt.Sprintf("%.1f years", s.Years))
	}
	if len(quals) == 0 {
		return s.Name
	}
	return fmt.Sprintf("%s (%s)", s.Name, strings.Join(quals, ", "))
}

func (e Experience) String() string {
	span := e.Start
	switch {
	case e.Current && span != "":
		span += " - present"
	case e.End != "" && span != "":
		span += " - " + e.End
	}

	out := fmt.Sprintf("%s at %s", e.JobTitle, e.Company)
	if span != "" {
		out += " (" + span + ")"
	}
	if e.Description != "" {
		out += ": " + e.Description
	}
	for _, a := range e.Achievements {
		out += "\n  * " + a
	}
	return out
}

func (ed Education) String() string {
	parts := []string{}
	if ed.Degree != "" {
		parts = append(parts, ed.Degree)
	}
	if ed.Field != "" {
		parts = append(parts, ed.Field)
	}
	out := strings.Join(parts, " in ")
	if out == "" {
		out = ed.Institution
	} else {
		out += ", " + ed.Institution
	}
	if ed.End != "" {
		out += " (" + ed.End + ")"
	}
	return out
}

func (c Certification) String() string {
	out := c.Name
	if c.Issuer != "" {
		out += ", " + c.Issuer
	}
	if c.Year > 0 {
		out += fmt.Sprintf(" (%d)", c.Year)
	}
	return out
}
