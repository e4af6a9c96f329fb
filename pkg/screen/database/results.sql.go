package database

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

const upsertScreeningResults = `-- name: UpsertScreeningResults :exec
INSERT INTO screening_results (
results, session_id)
VALUES ( $1, $2)
ON CONFLICT (session_id)
DO UPDATE SET
    results = EXCLUDED.results,
    updated_at = CURRENT_TIMESTAMP
`

type UpsertScreeningResultsParams struct {
	Results   json.RawMessage
	SessionID uuid.UUID
}

func (q *Queries) UpsertScreeningResults(ctx context.Context, arg UpsertScreeningResultsParams) error {
	_, err := q.db.ExecContext(ctx, upsertScreeningResults, arg.Results, arg.SessionID)
	return err
}
