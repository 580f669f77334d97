package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pagehub/pagehub-backend/internal/model"
)

const adminColumns = `id, email, name, password_hash, role, is_active, is_logged_in, last_login,
	reset_password_token, reset_password_expires, created_at, updated_at`

// AdminRepository handles admin data access.
type AdminRepository struct {
	pool *pgxpool.Pool
}

// NewAdminRepository creates a new AdminRepository.
func NewAdminRepository(pool *pgxpool.Pool) *AdminRepository {
	return &AdminRepository{pool: pool}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAdmin(row rowScanner) (*model.Admin, error) {
	a := &model.Admin{}
	err := row.Scan(&a.ID, &a.Email, &a.Name, &a.PasswordHash, &a.Role, &a.IsActive, &a.IsLoggedIn,
		&a.LastLogin, &a.ResetPasswordToken, &a.ResetPasswordExpires, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return a, nil
}

// GetByID retrieves an admin by ID.
func (r *AdminRepository) GetByID(ctx context.Context, id int) (*model.Admin, error) {
	return scanAdmin(r.pool.QueryRow(ctx,
		`SELECT `+adminColumns+` FROM admins WHERE id = $1`, id))
}

// GetByEmail retrieves an admin by their unique, already normalized email.
func (r *AdminRepository) GetByEmail(ctx context.Context, email string) (*model.Admin, error) {
	return scanAdmin(r.pool.QueryRow(ctx,
		`SELECT `+adminColumns+` FROM admins WHERE email = $1`, email))
}

// GetByResetToken retrieves the admin holding a password reset token.
func (r *AdminRepository) GetByResetToken(ctx context.Context, token string) (*model.Admin, error) {
	return scanAdmin(r.pool.QueryRow(ctx,
		`SELECT `+adminColumns+` FROM admins WHERE reset_password_token = $1`, token))
}

// Create inserts a new admin. Returns ErrDuplicate when the email is taken.
func (r *AdminRepository) Create(ctx context.Context, a *model.Admin) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO admins (email, name, password_hash, role, is_active, is_logged_in, last_login)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		a.Email, a.Name, a.PasswordHash, a.Role, a.IsActive, a.IsLoggedIn, a.LastLogin,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	return translate(err)
}

// MarkLoggedIn records a successful login.
func (r *AdminRepository) MarkLoggedIn(ctx context.Context, id int, at time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE admins SET is_logged_in = TRUE, last_login = $2, updated_at = NOW() WHERE id = $1`,
		id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkLoggedOut clears the logged-in flag.
func (r *AdminRepository) MarkLoggedOut(ctx context.Context, id int) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE admins SET is_logged_in = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePassword replaces the password hash and clears any reset token.
func (r *AdminRepository) UpdatePassword(ctx context.Context, id int, hash string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE admins
		 SET password_hash = $2, reset_password_token = NULL, reset_password_expires = NULL, updated_at = NOW()
		 WHERE id = $1`, id, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetResetToken stores a password reset token and its expiry.
func (r *AdminRepository) SetResetToken(ctx context.Context, id int, token string, expires time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE admins SET reset_password_token = $2, reset_password_expires = $3, updated_at = NOW()
		 WHERE id = $1`, id, token, expires)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
