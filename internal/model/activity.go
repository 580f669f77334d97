package model

import (
	"encoding/json"
	"time"
)

// ActivityAction tags an audit entry.
type ActivityAction string

const (
	ActionLogin      ActivityAction = "Login"
	ActionLogout     ActivityAction = "Logout"
	ActionCreatePost ActivityAction = "Create Post"
	ActionLinkPages  ActivityAction = "Link Pages"
	ActionOther      ActivityAction = "Other"
)

// ActivityRecord is an audit entry for an admin action.
type ActivityRecord struct {
	ID           int64           `json:"id"`
	AdminID      int             `json:"adminId"`
	Action       ActivityAction  `json:"action"`
	Details      json.RawMessage `json:"details,omitempty"`
	IPAddress    string          `json:"ipAddress,omitempty"`
	UserAgent    string          `json:"userAgent,omitempty"`
	SessionStart *time.Time      `json:"sessionStart,omitempty"`
	SessionEnd   *time.Time      `json:"sessionEnd,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// ActivityListQuery is the query string for listing the caller's activity.
type ActivityListQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=200"`
}
