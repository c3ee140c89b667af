package request

import (
	"net/http"
	"regexp"
	"strings"
)

var orgSlugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,62}$`)

// ParseOrgID validates an organization slug taken from a path or query
// value.
func ParseOrgID(value string) (string, bool) {
	value = strings.TrimSpace(strings.ToLower(value))
	if !orgSlugPattern.MatchString(value) {
		return "", false
	}
	return value, true
}

// OrgIDFromRequest extracts the organization slug from the {org} path
// segment.
func OrgIDFromRequest(r *http.Request) (string, bool) {
	return ParseOrgID(r.PathValue("org"))
}
