package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/skillsetz/careercraft/pkg/analysis"
	"github.com/skillsetz/careercraft/pkg/assessment"
)

// MemoryStore is an in-memory Store. It is safe for concurrent use and
// is what the server runs on when no database path is configured.
type MemoryStore struct {
	mu sync.RWMutex

	analyses      map[int64]analysis.Analysis
	jobs          map[int64]analysis.ParsedJob
	vectors       map[int64][]float32
	chats         map[int64][]ChatMessage
	questions     map[int64]assessment.Question
	assessments   map[int64]assessment.Assessment
	proficiencies map[string]assessment.Proficiency
	certificates  map[string]assessment.Certificate

	nextAnalysisID   int64
	nextJobID        int64
	nextQuestionID   int64
	nextAssessmentID int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		analyses:      make(map[int64]analysis.Analysis),
		jobs:          make(map[int64]analysis.ParsedJob),
		vectors:       make(map[int64][]float32),
		chats:         make(map[int64][]ChatMessage),
		questions:     make(map[int64]assessment.Question),
		assessments:   make(map[int64]assessment.Assessment),
		proficiencies: make(map[string]assessment.Proficiency),
		certificates:  make(map[string]assessment.Certificate),
	}
}

func (m *MemoryStore) PutAnalysis(ctx context.Context, a *analysis.Analysis) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	m.nextAnalysisID++
	a.ID = m.nextAnalysisID
	m.analyses[a.ID] = *a
	return a.ID, nil
}

func (m *MemoryStore) GetAnalysis(ctx context.Context, id int64) (*analysis.Analysis, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.analyses[id]
	if !ok {
		return nil, ErrNotFound{Kind: "analysis", ID: id}
	}
	return &a, nil
}

func (m *MemoryStore) ListAnalyses(ctx context.Context, limit int) ([]*analysis.Analysis, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*analysis.Analysis, 0, len(m.analyses))
	for id := range m.analyses {
		a := m.analyses[id]
		out = append(out, &a)
	}
	// Newest first; IDs are monotonic so they stand in for time.
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) DeleteAnalysis(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.analyses[id]; !ok {
		return ErrNotFound{Kind: "analysis", ID: id}
	}
	delete(m.analyses, id)
	delete(m.chats, id)
	return nil
}

func (m *MemoryStore) PutJob(ctx context.Context, j *analysis.ParsedJob) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if j.CreatedAt.IsZero() {
		j.CreatedAt = time.Now().UTC()
	}
	m.nextJobID++
	j.ID = m.nextJobID
	m.jobs[j.ID] = *j
	m.vectors[j.ID] = jobEmbedding(j)
	return j.ID, nil
}

func (m *MemoryStore) GetJob(ctx context.Context, id int64) (*analysis.ParsedJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	j, ok := m.jobs[id]
	if !ok {
		return nil, ErrNotFound{Kind: "job", ID: id}
	}
	return &j, nil
}

func (m *MemoryStore) ListJobs(ctx context.Context, limit int) ([]*analysis.ParsedJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*analysis.ParsedJob, 0, len(m.jobs))
	for id := range m.jobs {
		j := m.jobs[id]
		out = append(out, &j)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) DeleteJob(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.jobs[id]; !ok {
		return ErrNotFound{Kind: "job", ID: id}
	}
	delete(m.jobs, id)
	delete(m.vectors, id)
	return nil
}

func (m *MemoryStore) SimilarJobs(ctx context.Context, id int64, limit int) ([]*analysis.ParsedJob, error) {
	if limit <= 0 {
		limit = defaultSimilarLimit
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	ref, ok := m.vectors[id]
	if !ok {
		return nil, ErrNotFound{Kind: "job", ID: id}
	}

	type scored struct {
		id       int64
		distance float64
	}
	ranked := make([]scored, 0, len(m.vectors))
	for jobID, vec := range m.vectors {
		if jobID == id {
			continue
		}
		ranked = append(ranked, scored{id: jobID, distance: cosineDistance(ref, vec)})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].distance != ranked[j].distance {
			return ranked[i].distance < ranked[j].distance
		}
		return ranked[i].id < ranked[j].id
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]*analysis.ParsedJob, 0, len(ranked))
	for _, r := range ranked {
		j := m.jobs[r.id]
		out = append(out, &j)
	}
	return out, nil
}

func (m *MemoryStore) AppendMessage(ctx context.Context, analysisID int64, msg ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.analyses[analysisID]; !ok {
		return ErrNotFound{Kind: "analysis", ID: analysisID}
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	m.chats[analysisID] = append(m.chats[analysisID], msg)
	return nil
}

func (m *MemoryStore) Messages(ctx context.Context, analysisID int64) ([]ChatMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.analyses[analysisID]; !ok {
		return nil, ErrNotFound{Kind: "analysis", ID: analysisID}
	}
	out := make([]ChatMessage, len(m.chats[analysisID]))
	copy(out, m.chats[analysisID])
	return out, nil
}

// Close is a no-op for the memory store.
func (m *MemoryStore) Close() error {
	return nil
}
