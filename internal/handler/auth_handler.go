package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pagehub/pagehub-backend/internal/middleware"
	"github.com/pagehub/pagehub-backend/internal/model"
	"github.com/pagehub/pagehub-backend/internal/response"
	"github.com/pagehub/pagehub-backend/internal/service"
	"github.com/pagehub/pagehub-backend/internal/validator"
)

// AuthHandler handles admin account endpoints.
type AuthHandler struct {
	adminService    *service.AdminService
	activityService *service.ActivityService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(adminService *service.AdminService, activityService *service.ActivityService) *AuthHandler {
	return &AuthHandler{
		adminService:    adminService,
		activityService: activityService,
	}
}

// AdminSignUp godoc
// POST /api/admins/admin-signup
// Registers an admin with the registration code bound to the requested role.
func (h *AuthHandler) AdminSignUp(c *gin.Context) {
	var req model.AdminSignUpRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.adminService.SignUp(c.Request.Context(), service.SignUpInput{
		Name:             req.Name,
		Email:            req.Email,
		Role:             req.Role,
		RegistrationCode: req.AdminCode,
		Password:         req.Password,
	})
	if err != nil {
		fail(c, err)
		return
	}

	now := time.Now()
	recordActivity(c, h.activityService, result.Admin.ID, model.ActivityRecord{
		Action:       model.ActionLogin,
		SessionStart: &now,
	})
	response.Success(c, http.StatusCreated, "Admin registered successfully", result)
}

// AdminLogin godoc
// POST /api/admins/admin-login
// Validates email + password and returns a session token. Unknown emails and
// wrong passwords produce the same response.
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req model.AdminLoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.adminService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			err = service.ErrInvalidCredentials
		}
		fail(c, err)
		return
	}

	recordActivity(c, h.activityService, result.Admin.ID, model.ActivityRecord{
		Action:       model.ActionLogin,
		SessionStart: result.Admin.LastLogin,
	})
	response.Success(c, http.StatusOK, "Login successful", result)
}

// AdminLogout godoc
// POST /api/admins/logout
// Clears the logged-in flag and revokes the current session.
func (h *AuthHandler) AdminLogout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.adminService.Logout(c.Request.Context(), claims.AdminID); err != nil {
		fail(c, err)
		return
	}

	now := time.Now()
	recordActivity(c, h.activityService, claims.AdminID, model.ActivityRecord{
		Action:     model.ActionLogout,
		SessionEnd: &now,
	})
	response.Success(c, http.StatusOK, "Logout successful", nil)
}

// GetAdminProfile godoc
// GET /api/admins/me
// Returns the profile of the currently authenticated admin.
func (h *AuthHandler) GetAdminProfile(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	admin, err := h.adminService.GetByID(c.Request.Context(), claims.AdminID)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Admin profile", gin.H{"admin": admin})
}

// ListActivity godoc
// GET /api/admins/me/activity?limit=50
// Returns the caller's most recent activity records.
func (h *AuthHandler) ListActivity(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var q model.ActivityListQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	records, err := h.activityService.List(c.Request.Context(), claims.AdminID, q.Limit)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Activity retrieved", gin.H{"activities": records})
}

// ChangePassword godoc
// PUT /api/admins/me/password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.ChangePasswordRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.adminService.ChangePassword(c.Request.Context(), claims.AdminID, req.OldPassword, req.NewPassword); err != nil {
		fail(c, err)
		return
	}

	recordActivity(c, h.activityService, claims.AdminID, model.ActivityRecord{
		Action:  model.ActionOther,
		Details: service.Details(gin.H{"event": "password_changed"}),
	})
	response.Success(c, http.StatusOK, "Password updated", nil)
}

// ResetPassword godoc
// POST /api/admins/reset-password
// Redeems a reset token issued by the create-admin tool.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req model.ResetPasswordRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.adminService.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Password has been reset", nil)
}

// recordActivity enqueues an audit entry stamped with the request origin.
func recordActivity(c *gin.Context, activity *service.ActivityService, adminID int, rec model.ActivityRecord) {
	if activity == nil {
		return
	}
	rec.AdminID = adminID
	rec.IPAddress = c.ClientIP()
	rec.UserAgent = c.Request.UserAgent()
	activity.Record(c.Request.Context(), rec)
}
