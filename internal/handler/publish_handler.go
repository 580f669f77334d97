package handler

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/pagehub/pagehub-backend/internal/middleware"
	"github.com/pagehub/pagehub-backend/internal/model"
	"github.com/pagehub/pagehub-backend/internal/response"
	"github.com/pagehub/pagehub-backend/internal/service"
	"github.com/pagehub/pagehub-backend/internal/validator"
)

// PublishHandler handles the single-page and multi-page publish endpoints.
type PublishHandler struct {
	single          *service.SinglePublisher
	dispatcher      *service.Dispatcher
	broker          *service.ProgressBroker
	activityService *service.ActivityService
	maxUploadBytes  int64
}

// NewPublishHandler creates a new PublishHandler.
func NewPublishHandler(
	single *service.SinglePublisher,
	dispatcher *service.Dispatcher,
	broker *service.ProgressBroker,
	activityService *service.ActivityService,
	maxUploadBytes int64,
) *PublishHandler {
	return &PublishHandler{
		single:          single,
		dispatcher:      dispatcher,
		broker:          broker,
		activityService: activityService,
		maxUploadBytes:  maxUploadBytes,
	}
}

// CreatePagePost godoc
// POST /api/facebook-pages/create-page-post (multipart, or JSON/urlencoded for text)
// Publishes text, a photo or a video to one linked page.
func (h *PublishHandler) CreatePagePost(c *gin.Context) {
	if !h.limitBody(c) {
		return
	}

	var form model.PagePostForm
	if fields := validator.BindForm(c, &form); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	req, ok := h.publishRequest(c, form.MediaType, form.Message, form.Link)
	if !ok {
		return
	}

	data, err := h.single.PublishToPage(detached(c), form.PageID, req)
	if err != nil {
		fail(c, err)
		return
	}

	h.recordPost(c, req, []string{form.PageID})
	response.Success(c, http.StatusOK, "Post created successfully", model.PublishResult{
		PageID: form.PageID,
		Status: model.PublishSuccess,
		Data:   data,
	})
}

// CreatePagesPost godoc
// POST /api/facebook-pages/create-pages-post (multipart, or JSON/urlencoded for text)
// Publishes one content item to every page matching fieldName/fieldValue,
// or to all pages. Under the best-effort policy the response always carries
// the per-page breakdown; under fail-fast the first failure is returned.
func (h *PublishHandler) CreatePagesPost(c *gin.Context) {
	if !h.limitBody(c) {
		return
	}

	var form model.PagesPostForm
	if fields := validator.BindForm(c, &form); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	filter, err := service.ResolveFilter(form.FieldName, form.FieldValue)
	if err != nil {
		fail(c, err)
		return
	}

	req, ok := h.publishRequest(c, form.MediaType, form.Message, form.Link)
	if !ok {
		return
	}

	ctx := detached(c)
	results, err := h.dispatcher.PublishToMany(ctx, filter, req, h.broker.Reporter(ctx, form.DispatchID))
	h.broker.Done(ctx, form.DispatchID, results, err)
	if err != nil {
		fail(c, err)
		return
	}

	var published []string
	for _, r := range results {
		if r.Status == model.PublishSuccess {
			published = append(published, r.PageID)
		}
	}
	h.recordPost(c, req, published)

	response.Success(c, http.StatusOK, "Publish completed", gin.H{
		"policy":  h.dispatcher.Policy(),
		"results": results,
	})
}

// uploadFields are the multipart parts read as the attachment, in order.
var uploadFields = []string{"mediaFile", "file"}

// formOverheadBytes is the allowance for form fields and part headers on
// top of the upload limit.
const formOverheadBytes = 1 << 20

// limitBody caps the request body and parses multipart forms up front, so an
// oversized upload is rejected while it is being read. It writes the error
// response itself when it returns false.
func (h *PublishHandler) limitBody(c *gin.Context) bool {
	if h.maxUploadBytes <= 0 {
		return true
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+formOverheadBytes)
	if c.ContentType() != binding.MIMEMultipartPOSTForm {
		return true
	}

	err := c.Request.ParseMultipartForm(multipartMemory)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		response.Fail(c, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge)
		return false
	}
	_ = c.Error(err)
	response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
	return false
}

// multipartMemory matches Gin's default MaxMultipartMemory.
const multipartMemory = 32 << 20

// publishRequest assembles the request from the form and the optional
// "mediaFile" part. It writes the error response itself when it returns false.
func (h *PublishHandler) publishRequest(c *gin.Context, mediaType, message, link string) (model.PublishRequest, bool) {
	req := model.PublishRequest{
		ContentType: model.ContentType(mediaType),
		Message:     message,
		Link:        link,
	}
	if c.ContentType() != binding.MIMEMultipartPOSTForm {
		return req, true
	}

	header, ok := uploadedFile(c)
	if !ok {
		return req, true
	}

	if h.maxUploadBytes > 0 && header.Size > h.maxUploadBytes {
		response.Fail(c, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge)
		return req, false
	}

	att, err := readAttachment(header)
	if err != nil {
		_ = c.Error(err)
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return req, false
	}
	req.Attachment = att
	return req, true
}

func uploadedFile(c *gin.Context) (*multipart.FileHeader, bool) {
	form := c.Request.MultipartForm
	if form == nil {
		return nil, false
	}
	for _, name := range uploadFields {
		if files := form.File[name]; len(files) > 0 {
			return files[0], true
		}
	}
	return nil, false
}

func readAttachment(header *multipart.FileHeader) (*model.Attachment, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return &model.Attachment{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func (h *PublishHandler) recordPost(c *gin.Context, req model.PublishRequest, pageIDs []string) {
	claims := middleware.GetClaims(c)
	if claims == nil || len(pageIDs) == 0 {
		return
	}
	recordActivity(c, h.activityService, claims.AdminID, model.ActivityRecord{
		Action: model.ActionCreatePost,
		Details: service.Details(gin.H{
			"mediaType": req.ContentType,
			"pageIds":   pageIDs,
		}),
	})
}

// detached keeps the request's values but not its cancellation, so a publish
// that has started is carried through even if the client disconnects.
func detached(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}
