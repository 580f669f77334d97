package model

import "time"

// Role is the closed set of administrator role tags.
type Role string

const (
	RoleSuperAdmin      Role = "SuperAdmin"
	RoleDetachmentAdmin Role = "DetachmentAdmin"
	RoleDistrictAdmin   Role = "DistrictAdmin"
)

// Roles lists every role an admin may hold.
var Roles = []Role{RoleSuperAdmin, RoleDetachmentAdmin, RoleDistrictAdmin}

// Valid reports whether r is one of the known role tags.
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// Admin represents a human operator of the backend.
type Admin struct {
	ID                   int        `json:"id"`
	Email                string     `json:"email"`
	Name                 string     `json:"name"`
	PasswordHash         string     `json:"-"`
	Role                 Role       `json:"role"`
	IsActive             bool       `json:"isActive"`
	IsLoggedIn           bool       `json:"isLoggedIn"`
	LastLogin            *time.Time `json:"lastLogin,omitempty"`
	ResetPasswordToken   *string    `json:"-"`
	ResetPasswordExpires *time.Time `json:"-"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

// AdminSignUpRequest is the payload for admin registration.
type AdminSignUpRequest struct {
	Name      string `json:"name" binding:"required,min=3,max=30"`
	Email     string `json:"email" binding:"required,email,max=255"`
	Role      Role   `json:"role" binding:"required,oneof=SuperAdmin DetachmentAdmin DistrictAdmin"`
	AdminCode string `json:"adminCode" binding:"required"`
	Password  string `json:"password" binding:"required,min=6,max=40"`
}

// AdminLoginRequest is the payload for admin authentication.
type AdminLoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required"`
}

// ChangePasswordRequest is the payload for changing the caller's password.
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=6,max=40"`
}

// ResetPasswordRequest redeems a password reset token.
type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required,hexadecimal,len=128"`
	NewPassword string `json:"newPassword" binding:"required,min=6,max=40"`
}

// AdminAuthResponse is returned after sign-up and login.
type AdminAuthResponse struct {
	Admin *Admin `json:"admin"`
	Token string `json:"token"`
}
