package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/skillsetz/careercraft/pkg/assessment"
)

func (s *SQLiteStore) PutQuestion(ctx context.Context, q *assessment.Question) (int64, error) {
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}
	doc, err := json.Marshal(q)
	if err != nil {
		return 0, fmt.Errorf("marshal question: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO questions (skill, level, document, created_at) VALUES (?, ?, ?, ?)`,
		q.Skill, q.Level, string(doc), q.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert question: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("question id: %w", err)
	}

	q.ID = id
	return id, nil
}

func (s *SQLiteStore) Questions(ctx context.Context, skill string, level int) ([]*assessment.Question, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, document FROM questions WHERE skill = ? COLLATE NOCASE AND level = ? ORDER BY id`,
		skill, level,
	)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	var out []*assessment.Question
	for rows.Next() {
		var (
			rowID int64
			doc   string
		)
		if err := rows.Scan(&rowID, &doc); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		q, err := decodeQuestion(rowID, doc)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ClearQuestions(ctx context.Context, skill string) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM questions WHERE skill = ? COLLATE NOCASE`, skill,
	)
	if err != nil {
		return 0, fmt.Errorf("clear questions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear questions: %w", err)
	}
	return int(n), nil
}

func (s *SQLiteStore) SaveAssessment(ctx context.Context, a *assessment.Assessment) (int64, error) {
	doc, err := json.Marshal(a)
	if err != nil {
		return 0, fmt.Errorf("marshal assessment: %w", err)
	}

	if a.ID == 0 {
		created := a.StartedAt
		if created.IsZero() {
			created = time.Now().UTC()
		}
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO assessments (user_id, skill, level, status, document, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			a.UserID, a.Skill, a.Level, string(a.Status), string(doc), created,
		)
		if err != nil {
			return 0, fmt.Errorf("insert assessment: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("assessment id: %w", err)
		}
		a.ID = id
		return id, nil
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE assessments SET status = ?, document = ? WHERE id = ?`,
		string(a.Status), string(doc), a.ID,
	)
	if err != nil {
		return 0, fmt.Errorf("update assessment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update assessment: %w", err)
	}
	if n == 0 {
		return 0, ErrNotFound{Kind: "assessment", ID: a.ID}
	}
	return a.ID, nil
}

func (s *SQLiteStore) GetAssessment(ctx context.Context, id int64) (*assessment.Assessment, error) {
	var (
		rowID int64
		doc   string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, document FROM assessments WHERE id = ?`, id,
	).Scan(&rowID, &doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound{Kind: "assessment", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("query assessment: %w", err)
	}

	return decodeAssessment(rowID, doc)
}

func (s *SQLiteStore) ListAssessments(ctx context.Context, userID, skill string) ([]*assessment.Assessment, error) {
	query := `SELECT id, document FROM assessments WHERE user_id = ?`
	args := []any{userID}
	if skill != "" {
		query += ` AND skill = ? COLLATE NOCASE`
		args = append(args, skill)
	}
	query += ` ORDER BY id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	defer rows.Close()

	var out []*assessment.Assessment
	for rows.Next() {
		var (
			rowID int64
			doc   string
		)
		if err := rows.Scan(&rowID, &doc); err != nil {
			return nil, fmt.Errorf("scan assessment: %w", err)
		}
		a, err := decodeAssessment(rowID, doc)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpsertProficiency(ctx context.Context, p *assessment.Proficiency) error {
	p.UpdatedAt = time.Now().UTC()
	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal proficiency: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO proficiencies (user_id, skill_key, document, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id, skill_key) DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at`,
		p.UserID, strings.ToLower(p.Skill), string(doc), p.UpdatedAt,
	); err != nil {
		return fmt.Errorf("upsert proficiency: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListProficiencies(ctx context.Context, userID string) ([]*assessment.Proficiency, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT document FROM proficiencies WHERE user_id = ? ORDER BY skill_key`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list proficiencies: %w", err)
	}
	defer rows.Close()

	var out []*assessment.Proficiency
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan proficiency: %w", err)
		}
		var p assessment.Proficiency
		if err := json.Unmarshal([]byte(doc), &p); err != nil {
			return nil, fmt.Errorf("unmarshal proficiency: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SaveCertificate(ctx context.Context, c *assessment.Certificate) error {
	if c.IssuedAt.IsZero() {
		c.IssuedAt = time.Now().UTC()
	}
	doc, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal certificate: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO certificates (id, user_id, document, issued_at) VALUES (?, ?, ?, ?)`,
		c.ID, c.UserID, string(doc), c.IssuedAt,
	); err != nil {
		return fmt.Errorf("insert certificate: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetCertificate(ctx context.Context, id string) (*assessment.Certificate, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT document FROM certificates WHERE id = ?`, id,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound{Kind: "certificate", Name: id}
	}
	if err != nil {
		return nil, fmt.Errorf("query certificate: %w", err)
	}

	var c assessment.Certificate
	if err := json.Unmarshal([]byte(doc), &c); err != nil {
		return nil, fmt.Errorf("unmarshal certificate: %w", err)
	}
	c.ID = id
	return &c, nil
}

func (s *SQLiteStore) ListCertificates(ctx context.Context, userID string) ([]*assessment.Certificate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, document FROM certificates WHERE user_id = ? ORDER BY issued_at DESC, id`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	defer rows.Close()

	var out []*assessment.Certificate
	for rows.Next() {
		var (
			rowID string
			doc   string
		)
		if err := rows.Scan(&rowID, &doc); err != nil {
			return nil, fmt.Errorf("scan certificate: %w", err)
		}
		var c assessment.Certificate
		if err := json.Unmarshal([]byte(doc), &c); err != nil {
			return nil, fmt.Errorf("unmarshal certificate: %w", err)
		}
		c.ID = rowID
		out = append(out, &c)
	}
	return out, rows.Err()
}

func decodeQuestion(id int64, doc string) (*assessment.Question, error) {
	var q assessment.Question
	if err := json.Unmarshal([]byte(doc), &q); err != nil {
		return nil, fmt.Errorf("unmarshal question: %w", err)
	}
	q.ID = id
	return &q, nil
}

func decodeAssessment(id int64, doc string) (*assessment.Assessment, error) {
	var a assessment.Assessment
	if err := json.Unmarshal([]byte(doc), &a); err != nil {
		return nil, fmt.Errorf("unmarshal assessment: %w", err)
	}
	a.ID = id
	return &a, nil
}
