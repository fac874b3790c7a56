package analysis

import (
	"context"
	"time"
)

// Cache port. Get must fail softly: on any storage error it reports a miss
// instead of returning an error, so a broken cache never breaks an analysis.
// Last Put wins on concurrent writes to the same fingerprint.
type Cache interface {
	Get(ctx context.Context, fingerprint string) (Result, bool)
	Put(ctx context.Context, fingerprint string, res Result, ttl time.Duration)
}

// Repository port for persisting analysis history.
type Repository interface {
	Save(ctx context.Context, rec *Record) error
	Paginate(ctx context.Context, tenant string, page, pageSize int) ([]*Record, error)
	Latest(ctx context.Context, tenant string, limit int) ([]*Record, error)
}
