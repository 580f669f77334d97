package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pagehub/pagehub-backend/internal/response"
	"github.com/pagehub/pagehub-backend/internal/service"
)

type errorMapping struct {
	target error
	status int
	code   response.ErrCode
	// passthrough sends the error text instead of the code's message. Only
	// set for errors that carry the platform's own message.
	passthrough bool
}

var errorMappings = []errorMapping{
	// Authentication
	{service.ErrInvalidCredentials, http.StatusUnauthorized, response.ErrInvalidCredentials, false},
	{service.ErrAccountDeactivated, http.StatusForbidden, response.ErrAccountDeactivated, false},
	{service.ErrSessionInvalidated, http.StatusUnauthorized, response.ErrSessionInvalidated, false},
	{service.ErrInvalidResetToken, http.StatusBadRequest, response.ErrInvalidResetToken, false},

	// Registration
	{service.ErrInvalidRole, http.StatusBadRequest, response.ErrInvalidRole, false},
	{service.ErrInvalidRegistrationCode, http.StatusBadRequest, response.ErrInvalidRegistration, false},
	{service.ErrAdminAlreadyExists, http.StatusConflict, response.ErrAdminExists, false},
	{service.ErrAccountNotFound, http.StatusNotFound, response.ErrAdminNotFound, false},

	// Pages
	{service.ErrPageNotFound, http.StatusNotFound, response.ErrPageNotFound, false},
	{service.ErrNoPagesFound, http.StatusNotFound, response.ErrNoPagesFound, false},
	{service.ErrInvalidFilterField, http.StatusBadRequest, response.ErrInvalidFilterField, false},

	// Publish validation
	{service.ErrInvalidMediaType, http.StatusBadRequest, response.ErrInvalidMediaType, false},
	{service.ErrMessageOrLinkRequired, http.StatusBadRequest, response.ErrMessageOrLink, false},
	{service.ErrAttachmentRequired, http.StatusBadRequest, response.ErrFileRequired, false},

	// Platform
	{service.ErrTokenExchange, http.StatusBadRequest, response.ErrTokenExchange, true},
	{service.ErrPageFetch, http.StatusBadGateway, response.ErrPageFetch, true},
	{service.ErrPublish, http.StatusBadGateway, response.ErrPublish, true},
	{service.ErrUpstream, http.StatusBadGateway, response.ErrUpstream, true},
}

// fail classifies err and writes the error envelope. Unclassified errors
// become a 500 without exposing their text; they are attached to the
// context for the request logger.
func fail(c *gin.Context, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			if m.passthrough {
				response.FailWithMessage(c, m.status, m.code, err.Error())
			} else {
				response.Fail(c, m.status, m.code)
			}
			return
		}
	}

	_ = c.Error(err)
	response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
}
