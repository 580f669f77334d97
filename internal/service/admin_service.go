package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pagehub/pagehub-backend/internal/model"
	"github.com/pagehub/pagehub-backend/internal/repository"
	"github.com/rs/zerolog"
)

// Account errors.
var (
	ErrInvalidRole             = errors.New("invalid role")
	ErrInvalidRegistrationCode = errors.New("registration code does not match role")
	ErrAdminAlreadyExists      = errors.New("admin already exists")
	ErrAccountNotFound         = errors.New("account not found")
	ErrAccountDeactivated      = errors.New("account deactivated")
	ErrInvalidResetToken       = errors.New("password reset token is invalid or has expired")
)

const resetTokenTTL = time.Hour

// SignUpInput carries the sign-up fields after request validation.
type SignUpInput struct {
	Name             string
	Email            string
	Role             model.Role
	RegistrationCode string
	Password         string
}

// AdminService is the admin account manager: registration, login/logout and
// password management.
type AdminService struct {
	admins AdminStore
	auth   *AuthService
	codes  map[string]string
	now    func() time.Time
	log    zerolog.Logger
}

// NewAdminService creates a new AdminService. codes maps role tag to its
// registration secret.
func NewAdminService(admins AdminStore, auth *AuthService, codes map[string]string, log zerolog.Logger) *AdminService {
	return &AdminService{
		admins: admins,
		auth:   auth,
		codes:  codes,
		now:    time.Now,
		log:    log.With().Str("component", "admin_service").Logger(),
	}
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp registers a new admin after checking the role's registration code,
// and returns the admin with a session token.
func (s *AdminService) SignUp(ctx context.Context, in SignUpInput) (*model.AdminAuthResponse, error) {
	if !in.Role.Valid() {
		return nil, ErrInvalidRole
	}

	expected, ok := s.codes[string(in.Role)]
	if !ok || subtle.ConstantTimeCompare([]byte(expected), []byte(in.RegistrationCode)) != 1 {
		return nil, ErrInvalidRegistrationCode
	}

	now := s.now()
	admin, err := s.create(ctx, in.Name, in.Email, in.Role, in.Password, &now)
	if err != nil {
		return nil, err
	}

	token, err := s.auth.IssueToken(ctx, admin)
	if err != nil {
		return nil, err
	}

	s.log.Info().Int("admin_id", admin.ID).Str("role", string(admin.Role)).Msg("admin registered")
	return &model.AdminAuthResponse{Admin: admin, Token: token}, nil
}

// Create adds an active admin without a registration code or a session.
// It backs the operator command line tool.
func (s *AdminService) Create(ctx context.Context, name, email string, role model.Role, password string) (*model.Admin, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	admin, err := s.create(ctx, name, email, role, password, nil)
	if err != nil {
		return nil, err
	}
	s.log.Info().Int("admin_id", admin.ID).Str("role", string(admin.Role)).Msg("admin created")
	return admin, nil
}

// create persists a new admin. A non-nil loginAt marks it logged in.
func (s *AdminService) create(ctx context.Context, name, email string, role model.Role, password string, loginAt *time.Time) (*model.Admin, error) {
	email = NormalizeEmail(email)
	if _, err := s.admins.GetByEmail(ctx, email); err == nil {
		return nil, ErrAdminAlreadyExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lookup admin: %w", err)
	}

	hash, err := s.auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	admin := &model.Admin{
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		IsLoggedIn:   loginAt != nil,
		LastLogin:    loginAt,
	}
	if err := s.admins.Create(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAdminAlreadyExists
		}
		return nil, fmt.Errorf("create admin: %w", err)
	}
	return admin, nil
}

// Login verifies credentials, stamps the login and issues a session token.
// The password is checked before the active flag so an inactive account is
// only reported to a caller who knows its password.
func (s *AdminService) Login(ctx context.Context, email, password string) (*model.AdminAuthResponse, error) {
	admin, err := s.admins.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = s.auth.CheckPasswordWithoutAccount(password)
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("lookup admin: %w", err)
	}

	if err := s.auth.CheckPassword(admin.PasswordHash, password); err != nil {
		return nil, err
	}

	if !admin.IsActive {
		return nil, ErrAccountDeactivated
	}

	now := s.now()
	if err := s.admins.MarkLoggedIn(ctx, admin.ID, now); err != nil {
		return nil, fmt.Errorf("mark logged in: %w", err)
	}
	admin.IsLoggedIn = true
	admin.LastLogin = &now

	token, err := s.auth.IssueToken(ctx, admin)
	if err != nil {
		return nil, err
	}

	return &model.AdminAuthResponse{Admin: admin, Token: token}, nil
}

// Logout clears the logged-in flag and revokes the active session.
func (s *AdminService) Logout(ctx context.Context, adminID int) error {
	if err := s.admins.MarkLoggedOut(ctx, adminID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("mark logged out: %w", err)
	}
	if err := s.auth.RevokeSession(ctx, adminID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// GetByID retrieves an admin by ID.
func (s *AdminService) GetByID(ctx context.Context, id int) (*model.Admin, error) {
	admin, err := s.admins.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrAccountNotFound
	}
	return admin, err
}

// ChangePassword replaces the admin's password after verifying the old one.
func (s *AdminService) ChangePassword(ctx context.Context, adminID int, oldPassword, newPassword string) error {
	admin, err := s.GetByID(ctx, adminID)
	if err != nil {
		return err
	}
	if err := s.auth.CheckPassword(admin.PasswordHash, oldPassword); err != nil {
		return err
	}
	return s.setPassword(ctx, admin.ID, newPassword)
}

// IssueResetToken generates a one-hour password reset token for the account.
func (s *AdminService) IssueResetToken(ctx context.Context, email string) (string, error) {
	admin, err := s.admins.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrAccountNotFound
		}
		return "", fmt.Errorf("lookup admin: %w", err)
	}

	buf := make([]byte, 64)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	token := hex.EncodeToString(buf)

	if err := s.admins.SetResetToken(ctx, admin.ID, token, s.now().Add(resetTokenTTL)); err != nil {
		return "", fmt.Errorf("store reset token: %w", err)
	}
	return token, nil
}

// ResetPassword redeems a reset token and sets a new password.
func (s *AdminService) ResetPassword(ctx context.Context, token, newPassword string) error {
	admin, err := s.admins.GetByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("lookup reset token: %w", err)
	}
	if admin.ResetPasswordToken == nil || *admin.ResetPasswordToken != token ||
		admin.ResetPasswordExpires == nil || s.now().After(*admin.ResetPasswordExpires) {
		return ErrInvalidResetToken
	}
	return s.setPassword(ctx, admin.ID, newPassword)
}

func (s *AdminService) setPassword(ctx context.Context, adminID int, password string) error {
	hash, err := s.auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.admins.UpdatePassword(ctx, adminID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}
