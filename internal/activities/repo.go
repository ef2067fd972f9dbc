package activities

import (
	"context"
	"fmt"
	"time"

	"github.com/2beens/garminstats/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

// Schema creates the table the repo works with.
const Schema = `
CREATE TABLE IF NOT EXISTS public.activity
(
    id               BIGINT  NOT NULL,
    owner            VARCHAR NOT NULL,
    type_key         VARCHAR,
    start_time_local TIMESTAMP WITHOUT TIME ZONE,
    description      TEXT,
    record           JSONB   NOT NULL,
    synced_at        TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (owner, id)
);

CREATE INDEX IF NOT EXISTS ix_activity_owner_start_time ON public.activity (owner, start_time_local);
`

// Repo stores the activity records of a single owner (a user's secret name or login email).
type Repo struct {
	db    *pgxpool.Pool
	owner string
	now   func() time.Time
}

func NewRepo(db *pgxpool.Pool, owner string) *Repo {
	return &Repo{
		db:    db,
		owner: owner,
		now:   time.Now,
	}
}

func (r *Repo) InitSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, Schema)
	return err
}

// Add inserts the activity, or refreshes it when it was already synced.
func (r *Repo) Add(ctx context.Context, act Activity) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.activities.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("activity.id", act.ActivityID))

	record, err := act.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshal activity: %w", err)
	}

	var startTime *time.Time
	if t, err := act.StartTime(); err == nil {
		startTime = &t
	}
	var typeKey *string
	if tk, err := act.TypeKey(); err == nil {
		typeKey = &tk
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO activity (id, owner, type_key, start_time_local, description, record, synced_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (owner, id) DO UPDATE SET
			type_key = EXCLUDED.type_key,
			start_time_local = EXCLUDED.start_time_local,
			description = EXCLUDED.description,
			record = EXCLUDED.record,
			synced_at = EXCLUDED.synced_at`,
		act.ActivityID, r.owner, typeKey, startTime, act.Description, record, r.now(),
	)
	return err
}

// Activities returns the stored activities, newest first.
func (r *Repo) Activities(ctx context.Context, start, limit int) (_ []Activity, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.activities.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if start < 0 {
		return nil, fmt.Errorf("start must not be negative")
	}
	if limit < 1 {
		return nil, fmt.Errorf("limit must be greater than 0")
	}

	rows, err := r.db.Query(ctx, `
		SELECT record
		FROM activity
		WHERE owner = $1
		ORDER BY start_time_local DESC NULLS LAST, id DESC
		LIMIT $2 OFFSET $3
	`, r.owner, limit, start)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var acts []Activity
	for rows.Next() {
		var record []byte
		if err := rows.Scan(&record); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		var act Activity
		if err := act.UnmarshalJSON(record); err != nil {
			return nil, fmt.Errorf("unmarshal activity record: %w", err)
		}
		acts = append(acts, act)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return acts, nil
}

func (r *Repo) Count(ctx context.Context) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.activities.count")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM activity WHERE owner = $1`, r.owner).Scan(&count); err != nil {
		return 0, fmt.Errorf("query row: %w", err)
	}
	return count, nil
}
