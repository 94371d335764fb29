// internal/models/admin.go
package models

import (
	"time"
)

// AuditLog records one mutating API call.
type AuditLog struct {
	ID           string                 `json:"id"`
	UserID       string                 `json:"user_id,omitempty"`
	RequestID    string                 `json:"request_id,omitempty"`
	Action       string                 `json:"action"`
	ResourceType string                 `json:"resource_type"`
	ResourceID   string                 `json:"resource_id,omitempty"`
	Status       int                    `json:"status"`
	IPAddress    string                 `json:"ip_address"`
	UserAgent    string                 `json:"user_agent"`
	NewValues    map[string]interface{} `json:"new_values,omitempty"`
	DurationMs   int64                  `json:"duration_ms"`
	CreatedAt    time.Time              `json:"created_at"`
}
