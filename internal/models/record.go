// internal/models/record.go
package models

import (
	"strconv"
	"time"
)

// ThemeRecord is the persisted configuration unit for one organization:
// the override document plus identity and versioning. The resolved
// OrganizationTheme is always derived from it, never stored.
type ThemeRecord struct {
	ID             string      `json:"id"`
	OrganizationID string      `json:"organizationId"`
	TemplateID     *string     `json:"templateId,omitempty"`
	Version        int         `json:"version"`
	Overrides      ThemeUpdate `json:"overrides"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// CacheKey identifies one stored revision.
func (r ThemeRecord) CacheKey() string {
	return r.ID + "@" + strconv.Itoa(r.Version)
}
