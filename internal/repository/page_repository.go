package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pagehub/pagehub-backend/internal/model"
)

// ErrInvalidFilterField is returned when a filter names an attribute outside
// the allow-list.
var ErrInvalidFilterField = errors.New("invalid filter field")

const pageColumns = `id, page_id, page_name, page_category, page_profile_picture, page_access_token,
	detachment_name, district_name, created_at, updated_at`

// PageRepository is the registry of linked pages.
type PageRepository struct {
	pool *pgxpool.Pool
}

// NewPageRepository creates a new PageRepository.
func NewPageRepository(pool *pgxpool.Pool) *PageRepository {
	return &PageRepository{pool: pool}
}

func scanPage(row rowScanner) (*model.LinkedPage, error) {
	p := &model.LinkedPage{}
	err := row.Scan(&p.ID, &p.PageID, &p.PageName, &p.PageCategory, &p.PageProfilePicture,
		&p.PageAccessToken, &p.DetachmentName, &p.DistrictName, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return p, nil
}

// Upsert inserts the page or overwrites the mutable fields of the record with
// the same external page id, in one statement.
func (r *PageRepository) Upsert(ctx context.Context, in model.UpsertPageInput) (*model.LinkedPage, error) {
	return scanPage(r.pool.QueryRow(ctx,
		`INSERT INTO linked_pages (page_id, page_name, page_category, page_profile_picture, page_access_token,
		                           detachment_name, district_name)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (page_id) DO UPDATE SET
		     page_name = EXCLUDED.page_name,
		     page_category = EXCLUDED.page_category,
		     page_profile_picture = EXCLUDED.page_profile_picture,
		     page_access_token = EXCLUDED.page_access_token,
		     detachment_name = EXCLUDED.detachment_name,
		     district_name = EXCLUDED.district_name,
		     updated_at = NOW()
		 RETURNING `+pageColumns,
		in.PageID, in.PageName, in.PageCategory, in.PageProfilePicture, in.PageAccessToken,
		in.DetachmentName, in.DistrictName,
	))
}

// FindByPageID retrieves a page by its external id. Returns ErrNotFound when
// the page is not linked.
func (r *PageRepository) FindByPageID(ctx context.Context, pageID string) (*model.LinkedPage, error) {
	return scanPage(r.pool.QueryRow(ctx,
		`SELECT `+pageColumns+` FROM linked_pages WHERE page_id = $1`, pageID))
}

// ListAll returns every linked page.
func (r *PageRepository) ListAll(ctx context.Context) ([]*model.LinkedPage, error) {
	return r.ListByFilter(ctx, model.PageFilter{})
}

// ListByFilter returns the pages whose grouping attribute equals the filter
// value. An empty filter returns every page.
func (r *PageRepository) ListByFilter(ctx context.Context, filter model.PageFilter) ([]*model.LinkedPage, error) {
	query := `SELECT ` + pageColumns + ` FROM linked_pages`
	var args []any

	if !filter.IsEmpty() {
		col, ok := filter.Field.Column()
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrInvalidFilterField, filter.Field)
		}
		query += ` WHERE ` + col + ` = $1`
		args = append(args, filter.Value)
	}
	query += ` ORDER BY id ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pages := make([]*model.LinkedPage, 0)
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}
