package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/skillsetz/careercraft/pkg/analysis"
)

func init() {
	// Register the vec0 extension for every subsequent connection.
	sqlite_vec.Auto()
}

// SQLiteStore is a Store backed by a single SQLite database. Records
// are stored as JSON documents; job vectors live in a vec0 virtual
// table for nearest-neighbor lookup.
type SQLiteStore struct {
	db *sql.DB
}

var schema = fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS analyses (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	job_id INTEGER NOT NULL DEFAULT 0,
	document TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS jobs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	document TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS chat_messages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	analysis_id INTEGER NOT NULL,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_chat_analysis ON chat_messages(analysis_id);

CREATE TABLE IF NOT EXISTS questions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	skill TEXT NOT NULL,
	level INTEGER NOT NULL,
	document TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_questions_skill ON questions(skill COLLATE NOCASE, level);

CREATE TABLE IF NOT EXISTS assessments (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id TEXT NOT NULL,
	skill TEXT NOT NULL,
	level INTEGER NOT NULL,
	status TEXT NOT NULL,
	document TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_assessments_user ON assessments(user_id, skill COLLATE NOCASE);

CREATE TABLE IF NOT EXISTS proficiencies (
	user_id TEXT NOT NULL,
	skill_key TEXT NOT NULL,
	document TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	PRIMARY KEY (user_id, skill_key)
);

CREATE TABLE IF NOT EXISTS certificates (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	document TEXT NOT NULL,
	issued_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_certificates_user ON certificates(user_id);

CREATE VIRTUAL TABLE IF NOT EXISTS job_vectors USING vec0(embedding float[%d]);
`, embeddingDim)

// NewSQLiteStore opens (or creates) the database at path. ":memory:"
// gives a throwaway in-memory database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps :memory: databases coherent.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) PutAnalysis(ctx context.Context, a *analysis.Analysis) (int64, error) {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	doc, err := json.Marshal(a)
	if err != nil {
		return 0, fmt.Errorf("marshal analysis: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO analyses (job_id, document, created_at) VALUES (?, ?, ?)`,
		a.JobID, string(doc), a.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert analysis: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("analysis id: %w", err)
	}

	a.ID = id
	return id, nil
}

func (s *SQLiteStore) GetAnalysis(ctx context.Context, id int64) (*analysis.Analysis, error) {
	var (
		rowID int64
		doc   string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, document FROM analyses WHERE id = ?`, id,
	).Scan(&rowID, &doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound{Kind: "analysis", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("query analysis: %w", err)
	}

	return decodeAnalysis(rowID, doc)
}

func (s *SQLiteStore) ListAnalyses(ctx context.Context, limit int) ([]*analysis.Analysis, error) {
	query := `SELECT id, document FROM analyses ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	var out []*analysis.Analysis
	for rows.Next() {
		var (
			rowID int64
			doc   string
		)
		if err := rows.Scan(&rowID, &doc); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		a, err := decodeAnalysis(rowID, doc)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) DeleteAnalysis(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM analyses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete analysis: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete analysis: %w", err)
	}
	if n == 0 {
		return ErrNotFound{Kind: "analysis", ID: id}
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM chat_messages WHERE analysis_id = ?`, id); err != nil {
		return fmt.Errorf("delete chat transcript: %w", err)
	}
	return nil
}

func (s *SQLiteStore) PutJob(ctx context.Context, j *analysis.ParsedJob) (int64, error) {
	if j.CreatedAt.IsZero() {
		j.CreatedAt = time.Now().UTC()
	}
	doc, err := json.Marshal(j)
	if err != nil {
		return 0, fmt.Errorf("marshal job: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (document, created_at) VALUES (?, ?)`,
		string(doc), j.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert job: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("job id: %w", err)
	}

	vec, err := sqlite_vec.SerializeFloat32(jobEmbedding(j))
	if err != nil {
		return 0, fmt.Errorf("serialize embedding: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO job_vectors (rowid, embedding) VALUES (?, ?)`, id, vec,
	); err != nil {
		return 0, fmt.Errorf("insert job vector: %w", err)
	}

	j.ID = id
	return id, nil
}

func (s *SQLiteStore) GetJob(ctx context.Context, id int64) (*analysis.ParsedJob, error) {
	var (
		rowID int64
		doc   string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, document FROM jobs WHERE id = ?`, id,
	).Scan(&rowID, &doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound{Kind: "job", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("query job: %w", err)
	}

	return decodeJob(rowID, doc)
}

func (s *SQLiteStore) ListJobs(ctx context.Context, limit int) ([]*analysis.ParsedJob, error) {
	query := `SELECT id, document FROM jobs ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var out []*analysis.ParsedJob
	for rows.Next() {
		var (
			rowID int64
			doc   string
		)
		if err := rows.Scan(&rowID, &doc); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		j, err := decodeJob(rowID, doc)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) DeleteJob(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	if n == 0 {
		return ErrNotFound{Kind: "job", ID: id}
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM job_vectors WHERE rowid = ?`, id); err != nil {
		return fmt.Errorf("delete job vector: %w", err)
	}
	return nil
}

func (s *SQLiteStore) SimilarJobs(ctx context.Context, id int64, limit int) ([]*analysis.ParsedJob, error) {
	if limit <= 0 {
		limit = defaultSimilarLimit
	}

	var ref []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT embedding FROM job_vectors WHERE rowid = ?`, id,
	).Scan(&ref)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound{Kind: "job", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("query job vector: %w", err)
	}

	// Ask for one extra neighbor since the job matches itself at
	// distance zero.
	rows, err := s.db.QueryContext(ctx,
		`SELECT rowid FROM job_vectors WHERE embedding MATCH ? AND k = ? ORDER BY distance`,
		ref, limit+1,
	)
	if err != nil {
		return nil, fmt.Errorf("knn query: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var rowID int64
		if err := rows.Scan(&rowID); err != nil {
			return nil, fmt.Errorf("scan neighbor: %w", err)
		}
		if rowID == id {
			continue
		}
		ids = append(ids, rowID)
		if len(ids) == limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("knn rows: %w", err)
	}

	out := make([]*analysis.ParsedJob, 0, len(ids))
	for _, jobID := range ids {
		j, err := s.GetJob(ctx, jobID)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, nil
}

func (s *SQLiteStore) AppendMessage(ctx context.Context, analysisID int64, msg ChatMessage) error {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM analyses WHERE id = ?`, analysisID,
	).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound{Kind: "analysis", ID: analysisID}
	}
	if err != nil {
		return fmt.Errorf("query analysis: %w", err)
	}

	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_messages (analysis_id, role, content, created_at) VALUES (?, ?, ?, ?)`,
		analysisID, msg.Role, msg.Content, msg.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Messages(ctx context.Context, analysisID int64) ([]ChatMessage, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM analyses WHERE id = ?`, analysisID,
	).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound{Kind: "analysis", ID: analysisID}
	}
	if err != nil {
		return nil, fmt.Errorf("query analysis: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT role, content, created_at FROM chat_messages WHERE analysis_id = ? ORDER BY id`,
		analysisID,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	out := []ChatMessage{}
	for rows.Next() {
		var msg ChatMessage
		if err := rows.Scan(&msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, msg)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const defaultSimilarLimit = 10

func decodeAnalysis(id int64, doc string) (*analysis.Analysis, error) {
	var a analysis.Analysis
	if err := json.Unmarshal([]byte(doc), &a); err != nil {
		return nil, fmt.Errorf("unmarshal analysis: %w", err)
	}
	a.ID = id
	return &a, nil
}

func decodeJob(id int64, doc string) (*analysis.ParsedJob, error) {
	var j analysis.ParsedJob
	if err := json.Unmarshal([]byte(doc), &j); err != nil {
		return nil, fmt.Errorf("unmarshal job: %w", err)
	}
	j.ID = id
	return &j, nil
}
