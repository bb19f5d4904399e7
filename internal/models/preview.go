package models

import "time"

// Preview is a parsed-but-not-committed import file. It lives in the
// file-backed preview store between the preview and confirm calls.
type Preview struct {
	ID               string              `json:"preview_id"`
	UserID           string              `json:"user_id"`
	FileName         string              `json:"file_name"`
	Source           string              `json:"source"`
	Columns          []string            `json:"columns"`
	Rows             []map[string]string `json:"rows"`
	SuggestedMapping map[string]string   `json:"suggested_mapping"`
	CreatedAt        time.Time           `json:"created_at"`
}
