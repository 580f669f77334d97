package model

import "encoding/json"

// ContentType tags the kind of content being published.
type ContentType string

const (
	ContentText  ContentType = "text"
	ContentPhoto ContentType = "photo"
	ContentVideo ContentType = "video"
)

// Attachment is an uploaded binary held in memory so it can be sent to
// several pages.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// PublishRequest is one content item to publish. It is never persisted.
type PublishRequest struct {
	ContentType ContentType
	Message     string
	Link        string
	Attachment  *Attachment
}

// PublishStatus is the per-page outcome tag.
type PublishStatus string

const (
	PublishSuccess PublishStatus = "success"
	PublishError   PublishStatus = "error"
)

// PublishResult is the outcome of publishing to one page.
type PublishResult struct {
	PageID  string          `json:"pageId"`
	Status  PublishStatus   `json:"status"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

// PagePostForm is the form for publishing to a single page. Text posts may
// also arrive as JSON or urlencoded bodies.
type PagePostForm struct {
	PageID    string `form:"pageId" json:"pageId" binding:"required"`
	Message   string `form:"message" json:"message" binding:"max=63206"`
	Link      string `form:"link" json:"link" binding:"omitempty,url"`
	MediaType string `form:"mediaType" json:"mediaType" binding:"required"`
}

// PagesPostForm is the form for publishing to many pages.
type PagesPostForm struct {
	Message    string `form:"message" json:"message" binding:"max=63206"`
	Link       string `form:"link" json:"link" binding:"omitempty,url"`
	MediaType  string `form:"mediaType" json:"mediaType" binding:"required"`
	FieldName  string `form:"fieldName" json:"fieldName"`
	FieldValue string `form:"fieldValue" json:"fieldValue"`
	DispatchID string `form:"dispatchId" json:"dispatchId" binding:"omitempty,uuid"`
}
