// internal/models/theme.go
package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ComponentNames is the fixed set of themeable UI elements. A resolved
// theme always carries exactly these component keys; an absent key is a
// structural error, not an omission.
var ComponentNames = []string{
	"button",
	"card",
	"input",
	"sidebar",
	"navbar",
	"modal",
	"dropdown",
	"table",
	"badge",
	"alert",
	"tooltip",
	"tabs",
}

// NeutralRampKeys is the 11-step neutral color scale.
var NeutralRampKeys = []string{"50", "100", "200", "300", "400", "500", "600", "700", "800", "900", "950"}

// OrganizationTheme is the canonical, fully-populated theme configuration
// for one organization. A resolved theme is produced fresh on every
// resolution call and never mutated in place; edits create a new version.
type OrganizationTheme struct {
	ID             string    `json:"id"`
	OrganizationID *string   `json:"organizationId,omitempty"`
	TemplateID     *string   `json:"templateId,omitempty"`
	Version        int       `json:"version"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`

	Colors           ThemeColors               `json:"colors"`
	Typography       Typography                `json:"typography"`
	Spacing          map[string]string         `json:"spacing"`
	BorderRadius     map[string]string         `json:"borderRadius"`
	Shadows          map[string]string         `json:"shadows"`
	Components       map[string]ComponentStyle `json:"components"`
	Branding         Branding                  `json:"branding"`
	Layout           Layout                    `json:"layout"`
	Animations       Animations                `json:"animations"`
	CustomProperties map[string]string         `json:"customProperties,omitempty"`

	// DarkMode is an optional deep-partial override of the same shape,
	// merged over the light theme when dark mode is active.
	DarkMode ThemeUpdate `json:"darkMode,omitempty"`
}

// ThemeColors holds every color slot of a theme.
type ThemeColors struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
	Accent    string `json:"accent"`

	Background string `json:"background"`
	Surface    string `json:"surface"`

	Text TextColors `json:"text"`

	Border string `json:"border"`
	Input  string `json:"input"`
	Ring   string `json:"ring"`

	Destructive string `json:"destructive"`
	Warning     string `json:"warning"`
	Success     string `json:"success"`
	Info        string `json:"info"`

	// Neutral is the 11-step ramp keyed 50…950.
	Neutral map[string]string `json:"neutral"`
}

type TextColors struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
	Muted     string `json:"muted"`
}

// Typography holds the font stack and token scales.
type Typography struct {
	FontFamily        string `json:"fontFamily"`
	HeadingFontFamily string `json:"headingFontFamily,omitempty"`

	// FontSizes is the 10-step size scale keyed xs…6xl.
	FontSizes map[string]string `json:"fontSizes"`
	// FontWeights holds the 6 named weights, each a multiple of 100 in [300,800].
	FontWeights map[string]int `json:"fontWeights"`
	// LineHeights holds the 4 line-height tokens.
	LineHeights map[string]string `json:"lineHeights"`
	// LetterSpacing holds the 3 letter-spacing tokens.
	LetterSpacing map[string]string `json:"letterSpacing"`
}

// FontSizeKeys is the fixed 10-step type scale.
var FontSizeKeys = []string{"xs", "sm", "base", "lg", "xl", "2xl", "3xl", "4xl", "5xl", "6xl"}

// FontWeightKeys are the 6 named weights.
var FontWeightKeys = []string{"light", "normal", "medium", "semibold", "bold", "extrabold"}

// SpacingKeys is the fixed spacing scale.
var SpacingKeys = []string{"xs", "sm", "md", "lg", "xl", "2xl", "3xl", "4xl", "5xl", "6xl"}

// BorderRadiusKeys is the fixed radius scale.
var BorderRadiusKeys = []string{"none", "sm", "md", "lg", "xl", "2xl", "3xl", "full"}

// ComponentStyle holds the style configuration for one named UI element.
type ComponentStyle struct {
	// BaseStyles are property/value pairs applied to every variant.
	BaseStyles map[string]string `json:"baseStyles,omitempty"`
	// Variants maps a variant name to its property/value style map.
	Variants map[string]map[string]string `json:"variants,omitempty"`
	// CustomCSS is raw CSS appended verbatim for this component.
	CustomCSS string `json:"customCSS,omitempty"`
}

// Branding holds asset references and free-form brand metadata.
type Branding struct {
	Logo      string `json:"logo"`
	Favicon   string `json:"favicon,omitempty"`
	AppIcon   string `json:"appIcon,omitempty"`
	CustomCSS string `json:"customCSS,omitempty"`
	BrandName string `json:"brandName,omitempty"`
	Tagline   string `json:"tagline,omitempty"`
}

// Layout holds the fixed structural lengths.
type Layout struct {
	SidebarWidth      string `json:"sidebarWidth"`
	HeaderHeight      string `json:"headerHeight"`
	ContainerMaxWidth string `json:"containerMaxWidth"`
	ContentPadding    string `json:"contentPadding"`
	GridGap           string `json:"gridGap"`
	CardPadding       string `json:"cardPadding"`
	FormSpacing       string `json:"formSpacing"`
}

// Animations holds motion token sets.
type Animations struct {
	Durations   map[string]string `json:"durations"`
	Easings     map[string]string `json:"easings"`
	Transitions map[string]string `json:"transitions"`
}

// Clone returns a deep copy of the theme via JSON round-trip. Used where
// a caller must not observe later mutation of shared maps.
func (t OrganizationTheme) Clone() (OrganizationTheme, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return OrganizationTheme{}, fmt.Errorf("clone theme: %w", err)
	}
	var out OrganizationTheme
	if err := json.Unmarshal(data, &out); err != nil {
		return OrganizationTheme{}, fmt.Errorf("clone theme: %w", err)
	}
	return out, nil
}

// CacheKey identifies one resolved theme revision.
func (t OrganizationTheme) CacheKey() string {
	return fmt.Sprintf("%s@%d", t.ID, t.Version)
}

// MissingComponents returns the fixed component keys absent from the
// theme, in canonical order.
func (t OrganizationTheme) MissingComponents() []string {
	var missing []string
	for _, name := range ComponentNames {
		if _, ok := t.Components[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
