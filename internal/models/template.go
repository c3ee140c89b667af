// internal/models/template.go
package models

import "time"

// ThemeTemplate is an immutable, named theme partial used as the middle
// layer of resolution. Templates are never mutated after publication;
// popularity is tracked separately by the store.
type ThemeTemplate struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category"`
	Tags        []string  `json:"tags,omitempty"`
	Popularity  int       `json:"popularity"`
	IsPublic    bool      `json:"isPublic"`
	CreatedAt   time.Time `json:"createdAt"`

	// Overrides is the deep-partial theme fragment the template applies
	// over platform defaults.
	Overrides ThemeUpdate `json:"overrides"`
}
