package analysis

import "time"

// ParsedJob is the structured form of a free-text job description.
type ParsedJob struct {
	ID int64 `json:"id,omitempty"`

	Title           string   `json:"title"`
	Company         string   `json:"company"`
	Location        string   `json:"location,omitempty"`
	SalaryRange     string   `json:"salary_range,omitempty"`
	JobType         string   `json:"job_type,omitempty"` // full-time, part-time, contract, internship
	Description     string   `json:"description"`
	RequiredSkills  []string `json:"required_skills"`
	PreferredSkills []string `json:"preferred_skills,omitempty"`
	ApplyURL        string   `json:"apply_url,omitempty"`
	HiringEmail     string   `json:"hiring_email,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	Source          string   `json:"source,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty"`
}

// ParsedJobFromDocument coerces a loosely typed model response into a
// ParsedJob, with the same tolerance as FromDocument.
func ParsedJobFromDocument(doc map[string]any) *ParsedJob {
	return &ParsedJob{
		Title:           asString(doc["title"], ""),
		Company:         asString(doc["company"], ""),
		Location:        asString(doc["location"], ""),
		SalaryRange:     asString(doc["salary_range"], ""),
		JobType:         asString(doc["job_type"], ""),
		Description:     asString(doc["description"], ""),
		RequiredSkills:  asStringList(doc["required_skills"]),
		PreferredSkills: asStringList(doc["preferred_skills"]),
		ApplyURL:        asString(doc["apply_url"], ""),
		HiringEmail:     asString(doc["hiring_email"], ""),
		Tags:            asStringList(doc["tags"]),
		Source:          asString(doc["source"], ""),
	}
}
