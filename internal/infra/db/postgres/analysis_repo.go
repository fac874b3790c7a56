package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	domain "github.com/veritaslab/aiprobe/internal/domain/analysis"
)

type AnalysisRepository struct {
	db *sql.DB
}

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// Save inserts or updates an analysis record
func (r *AnalysisRepository) Save(ctx context.Context, a *domain.Record) error {
	const q = `
INSERT INTO analyses
  (id, tenant_id, content_digest, content_type, task, provider, success, score, result_json, cached, latency_ms, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
ON CONFLICT (id) DO UPDATE SET
  provider=EXCLUDED.provider,
  success=EXCLUDED.success,
  score=EXCLUDED.score,
  result_json=EXCLUDED.result_json,
  cached=EXCLUDED.cached,
  latency_ms=EXCLUDED.latency_ms;
`
	tenant := a.TenantID
	if strings.TrimSpace(tenant) == "" {
		tenant = "-"
	}
	result := a.ResultJSON
	if strings.TrimSpace(result) == "" {
		result = "{}"
	}
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		a.ID, tenant, a.ContentDigest, a.ContentType, a.Task,
		a.Provider, a.Success, a.Score, result, a.Cached, a.LatencyMS, createdAt)
	return err
}

// Paginate returns a page of analysis records ordered by created_at desc
func (r *AnalysisRepository) Paginate(ctx context.Context, tenant string, page, pageSize int) ([]*domain.Record, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	const q = `
SELECT id, tenant_id, content_digest, content_type, task, provider, success, score, result_json, cached, latency_ms, created_at
FROM analyses
WHERE tenant_id=$1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3;
`
	rows, err := r.db.QueryContext(ctx, q, tenant, pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Latest returns the most recent analysis records
func (r *AnalysisRepository) Latest(ctx context.Context, tenant string, limit int) ([]*domain.Record, error) {
	if limit <= 0 {
		limit = 20
	}

	const q = `
SELECT id, tenant_id, content_digest, content_type, task, provider, success, score, result_json, cached, latency_ms, created_at
FROM analyses
WHERE tenant_id=$1
ORDER BY created_at DESC, id DESC
LIMIT $2;
`
	rows, err := r.db.QueryContext(ctx, q, tenant, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]*domain.Record, error) {
	var out []*domain.Record
	for rows.Next() {
		var a domain.Record
		var created time.Time
		if err := rows.Scan(&a.ID, &a.TenantID, &a.ContentDigest, &a.ContentType, &a.Task,
			&a.Provider, &a.Success, &a.Score, &a.ResultJSON, &a.Cached, &a.LatencyMS, &created); err != nil {
			return nil, err
		}
		a.CreatedAt = created
		out = append(out, &a)
	}
	return out, rows.Err()
}
