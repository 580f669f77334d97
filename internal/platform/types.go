package platform

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Transport-level failures. Both are wrapped with the underlying cause.
var (
	ErrTimeout     = errors.New("platform request timed out")
	ErrUnavailable = errors.New("platform unreachable")
)

// APIError is an error reported by the platform, either as a non-2xx status
// or as an error payload embedded in a 200 body.
type APIError struct {
	Status    int    `json:"-"`
	Message   string `json:"message"`
	Type      string `json:"type,omitempty"`
	Code      int    `json:"code,omitempty"`
	FBTraceID string `json:"fbtrace_id,omitempty"`
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s (code %d)", e.Message, e.Code)
	}
	return e.Message
}

// Account is one page returned by the account listing.
type Account struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	AccessToken string `json:"access_token"`
}

// Collection is a paged list response.
type Collection struct {
	Data   json.RawMessage `json:"data"`
	Paging json.RawMessage `json:"paging,omitempty"`
}

// Upload is a binary sent to a photo or video endpoint.
type Upload struct {
	Message  string
	Filename string
	Data     []byte
}
