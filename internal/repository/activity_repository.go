package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pagehub/pagehub-backend/internal/model"
)

// ActivityRepository persists admin audit records.
type ActivityRepository struct {
	pool *pgxpool.Pool
}

// NewActivityRepository creates a new ActivityRepository.
func NewActivityRepository(pool *pgxpool.Pool) *ActivityRepository {
	return &ActivityRepository{pool: pool}
}

// BulkInsert writes a batch of records with COPY.
func (r *ActivityRepository) BulkInsert(ctx context.Context, records []*model.ActivityRecord) error {
	rows := make([][]any, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []any{
			rec.AdminID, string(rec.Action), detailsArg(rec), rec.IPAddress, rec.UserAgent,
			rec.SessionStart, rec.SessionEnd, rec.CreatedAt,
		})
	}

	_, err := r.pool.CopyFrom(
		ctx,
		pgx.Identifier{"activity_logs"},
		[]string{"admin_id", "action", "details", "ip_address", "user_agent", "session_start", "session_end", "created_at"},
		pgx.CopyFromRows(rows),
	)
	return err
}

// Insert writes a single record.
func (r *ActivityRepository) Insert(ctx context.Context, rec *model.ActivityRecord) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO activity_logs (admin_id, action, details, ip_address, user_agent, session_start, session_end, created_at)
		 VALUES ($1, $2, $3::jsonb, $4, $5, $6, $7, $8)
		 RETURNING id`,
		rec.AdminID, string(rec.Action), detailsArg(rec), rec.IPAddress, rec.UserAgent,
		rec.SessionStart, rec.SessionEnd, rec.CreatedAt,
	).Scan(&rec.ID)
}

// ListByAdmin returns the most recent records of one admin, newest first.
func (r *ActivityRepository) ListByAdmin(ctx context.Context, adminID, limit int) ([]*model.ActivityRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, admin_id, action, details, ip_address, user_agent, session_start, session_end, created_at
		 FROM activity_logs WHERE admin_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`, adminID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]*model.ActivityRecord, 0)
	for rows.Next() {
		rec := &model.ActivityRecord{}
		var details []byte
		if err := rows.Scan(&rec.ID, &rec.AdminID, &rec.Action, &details, &rec.IPAddress, &rec.UserAgent,
			&rec.SessionStart, &rec.SessionEnd, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Details = details
		records = append(records, rec)
	}
	return records, rows.Err()
}

// detailsArg returns the JSON details as a string, or nil for SQL NULL.
func detailsArg(rec *model.ActivityRecord) any {
	if len(rec.Details) == 0 {
		return nil
	}
	return string(rec.Details)
}
