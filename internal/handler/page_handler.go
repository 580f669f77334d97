package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pagehub/pagehub-backend/internal/middleware"
	"github.com/pagehub/pagehub-backend/internal/model"
	"github.com/pagehub/pagehub-backend/internal/response"
	"github.com/pagehub/pagehub-backend/internal/service"
	"github.com/pagehub/pagehub-backend/internal/validator"
)

// PageHandler handles the linked page registry and page reads.
type PageHandler struct {
	pageService     *service.PageService
	activityService *service.ActivityService
}

// NewPageHandler creates a new PageHandler.
func NewPageHandler(pageService *service.PageService, activityService *service.ActivityService) *PageHandler {
	return &PageHandler{pageService: pageService, activityService: activityService}
}

// LinkPages godoc
// POST /api/facebook-pages/facebook-login
// Exchanges a short-lived user token and links every page the user manages.
func (h *PageHandler) LinkPages(c *gin.Context) {
	var req model.LinkPagesRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	pages, err := h.pageService.LinkPages(c.Request.Context(), req.UserAccessToken, req.PageGrouping)
	if err != nil {
		fail(c, err)
		return
	}

	if claims := middleware.GetClaims(c); claims != nil {
		ids := make([]string, len(pages))
		for i, p := range pages {
			ids[i] = p.PageID
		}
		recordActivity(c, h.activityService, claims.AdminID, model.ActivityRecord{
			Action:  model.ActionLinkPages,
			Details: service.Details(gin.H{"pageIds": ids}),
		})
	}
	response.Success(c, http.StatusOK, "Pages linked successfully", gin.H{"pages": pages})
}

// ListPages godoc
// GET /api/facebook-pages?fieldName=detachmentName&fieldValue=North
// Lists linked pages, optionally filtered by one grouping attribute.
func (h *PageHandler) ListPages(c *gin.Context) {
	var q model.PageListQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	pages, err := h.pageService.ListPages(c.Request.Context(), q.FieldName, q.FieldValue)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Pages retrieved", gin.H{"pages": pages})
}

// GetPage godoc
// GET /api/facebook-pages/:pageId
func (h *PageHandler) GetPage(c *gin.Context) {
	page, err := h.pageService.GetPage(c.Request.Context(), c.Param("pageId"))
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Page retrieved", gin.H{"page": page})
}

// GetPosts godoc
// GET /api/facebook-pages/:pageId/posts
func (h *PageHandler) GetPosts(c *gin.Context) {
	posts, err := h.pageService.GetPosts(c.Request.Context(), c.Param("pageId"))
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Posts retrieved", posts)
}

// GetAbout godoc
// GET /api/facebook-pages/:pageId/about
func (h *PageHandler) GetAbout(c *gin.Context) {
	about, err := h.pageService.GetAbout(c.Request.Context(), c.Param("pageId"))
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Page information retrieved", about)
}

// GetInsights godoc
// GET /api/facebook-pages/:pageId/insights
func (h *PageHandler) GetInsights(c *gin.Context) {
	insights, err := h.pageService.GetInsights(c.Request.Context(), c.Param("pageId"))
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Page insights retrieved", insights)
}

// GetPostInsights godoc
// GET /api/facebook-pages/:pageId/posts/:postId/insights
func (h *PageHandler) GetPostInsights(c *gin.Context) {
	insights, err := h.pageService.GetPostInsights(c.Request.Context(), c.Param("pageId"), c.Param("postId"))
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Post insights retrieved", insights)
}
