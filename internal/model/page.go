package model

import "time"

// LinkedPage is a third-party page linked to the system.
type LinkedPage struct {
	ID                 int       `json:"id"`
	PageID             string    `json:"pageId"`
	PageName           string    `json:"pageName"`
	PageCategory       string    `json:"pageCategory"`
	PageProfilePicture string    `json:"pageProfilePicture"`
	PageAccessToken    string    `json:"-"`
	DetachmentName     string    `json:"detachmentName,omitempty"`
	DistrictName       string    `json:"districtName,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// PageFilterField is the closed set of attributes pages can be filtered by.
type PageFilterField string

const (
	FilterDetachmentName PageFilterField = "detachmentName"
	FilterDistrictName   PageFilterField = "districtName"
)

var pageFilterColumns = map[PageFilterField]string{
	FilterDetachmentName: "detachment_name",
	FilterDistrictName:   "district_name",
}

// Column returns the storage column for the field and whether it is allowed.
func (f PageFilterField) Column() (string, bool) {
	col, ok := pageFilterColumns[f]
	return col, ok
}

// PageFilter selects pages by one grouping attribute. A filter with an empty
// field or value matches every page.
type PageFilter struct {
	Field PageFilterField
	Value string
}

// IsEmpty reports whether the filter selects all pages.
func (f PageFilter) IsEmpty() bool {
	return f.Field == "" || f.Value == ""
}

// Matches reports whether page satisfies the filter.
func (f PageFilter) Matches(page *LinkedPage) bool {
	if f.IsEmpty() {
		return true
	}
	switch f.Field {
	case FilterDetachmentName:
		return page.DetachmentName == f.Value
	case FilterDistrictName:
		return page.DistrictName == f.Value
	}
	return false
}

// PageGrouping holds the optional organizational tags attached on link.
type PageGrouping struct {
	DetachmentName string `json:"detachmentName" binding:"max=100"`
	DistrictName   string `json:"districtName" binding:"max=100"`
}

// LinkPagesRequest is the payload for exchanging a user token and linking pages.
type LinkPagesRequest struct {
	UserAccessToken string `json:"userAccessToken" binding:"required"`
	PageGrouping
}

// PageListQuery is the query string for listing pages.
type PageListQuery struct {
	FieldName  string `form:"fieldName"`
	FieldValue string `form:"fieldValue"`
}

// UpsertPageInput carries the fields written by a page upsert.
type UpsertPageInput struct {
	PageID             string
	PageName           string
	PageCategory       string
	PageProfilePicture string
	PageAccessToken    string
	PageGrouping
}
