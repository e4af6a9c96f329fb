package storage

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/skillsetz/careercraft/pkg/assessment"
)

func (m *MemoryStore) PutQuestion(ctx context.Context, q *assessment.Question) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}
	m.nextQuestionID++
	q.ID = m.nextQuestionID
	m.questions[q.ID] = *q
	return q.ID, nil
}

func (m *MemoryStore) Questions(ctx context.Context, skill string, level int) ([]*assessment.Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*assessment.Question
	for id := range m.questions {
		q := m.questions[id]
		if q.Level == level && strings.EqualFold(q.Skill, skill) {
			out = append(out, &q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) ClearQuestions(ctx context.Context, skill string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id := range m.questions {
		if strings.EqualFold(m.questions[id].Skill, skill) {
			delete(m.questions, id)
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) SaveAssessment(ctx context.Context, a *assessment.Assessment) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if a.ID == 0 {
		m.nextAssessmentID++
		a.ID = m.nextAssessmentID
	} else if _, ok := m.assessments[a.ID]; !ok {
		return 0, ErrNotFound{Kind: "assessment", ID: a.ID}
	}
	m.assessments[a.ID] = *a
	return a.ID, nil
}

func (m *MemoryStore) GetAssessment(ctx context.Context, id int64) (*assessment.Assessment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.assessments[id]
	if !ok {
		return nil, ErrNotFound{Kind: "assessment", ID: id}
	}
	return &a, nil
}

func (m *MemoryStore) ListAssessments(ctx context.Context, userID, skill string) ([]*assessment.Assessment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*assessment.Assessment
	for id := range m.assessments {
		a := m.assessments[id]
		if a.UserID != userID {
			continue
		}
		if skill != "" && !strings.EqualFold(a.Skill, skill) {
			continue
		}
		out = append(out, &a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *MemoryStore) UpsertProficiency(ctx context.Context, p *assessment.Proficiency) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p.UpdatedAt = time.Now().UTC()
	m.proficiencies[proficiencyKey(p.UserID, p.Skill)] = *p
	return nil
}

func (m *MemoryStore) ListProficiencies(ctx context.Context, userID string) ([]*assessment.Proficiency, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*assessment.Proficiency
	for key := range m.proficiencies {
		p := m.proficiencies[key]
		if p.UserID != userID {
			continue
		}
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Skill) < strings.ToLower(out[j].Skill)
	})
	return out, nil
}

func (m *MemoryStore) SaveCertificate(ctx context.Context, c *assessment.Certificate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c.IssuedAt.IsZero() {
		c.IssuedAt = time.Now().UTC()
	}
	m.certificates[c.ID] = *c
	return nil
}

func (m *MemoryStore) GetCertificate(ctx context.Context, id string) (*assessment.Certificate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.certificates[id]
	if !ok {
		return nil, ErrNotFound{Kind: "certificate", Name: id}
	}
	return &c, nil
}

func (m *MemoryStore) ListCertificates(ctx context.Context, userID string) ([]*assessment.Certificate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*assessment.Certificate
	for id := range m.certificates {
		c := m.certificates[id]
		if c.UserID != userID {
			continue
		}
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].IssuedAt.Equal(out[j].IssuedAt) {
			return out[i].IssuedAt.After(out[j].IssuedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func proficiencyKey(userID, skill string) string {
	return userID + "|" + strings.ToLower(skill)
}
