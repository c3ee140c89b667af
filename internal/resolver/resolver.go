// Package resolver deep-merges the three theme layers (platform defaults,
// optional template, organization overrides) into one canonical theme.
package resolver

import (
	"encoding/json"
	"fmt"

	"github.com/veldtcms/veldt/internal/models"
)

// Inheritance tracks the three input layers alongside the resolved result
// for traceability.
type Inheritance struct {
	PlatformDefaults      models.OrganizationTheme `json:"platformDefaults"`
	TemplateBase          *models.ThemeTemplate    `json:"templateBase,omitempty"`
	OrganizationOverrides models.ThemeUpdate       `json:"organizationOverrides,omitempty"`
	Resolved              models.OrganizationTheme `json:"resolved"`
}

// Resolve merges platform defaults, an optional template, and organization
// overrides in strict precedence order. Absent layers are no-ops. The
// result is produced fresh on every call; inputs are never mutated.
func Resolve(overrides models.ThemeUpdate, template *models.ThemeTemplate, defaults models.OrganizationTheme) (Inheritance, error) {
	base, err := themeToMap(defaults)
	if err != nil {
		return Inheritance{}, err
	}

	merged := base
	if template != nil && !template.Overrides.IsZero() {
		if err := template.Overrides.ShapeCheck(); err != nil {
			return Inheritance{}, fmt.Errorf("template %s: %w", template.ID, err)
		}
		merged = deepMerge(merged, template.Overrides)
	}
	if !overrides.IsZero() {
		if err := overrides.ShapeCheck(); err != nil {
			return Inheritance{}, err
		}
		merged = deepMerge(merged, overrides)
	}

	backfillComponents(merged, base)

	resolved, err := mapToTheme(merged)
	if err != nil {
		return Inheritance{}, err
	}
	if template != nil {
		id := template.ID
		resolved.TemplateID = &id
	}

	return Inheritance{
		PlatformDefaults:      defaults,
		TemplateBase:          template,
		OrganizationOverrides: overrides,
		Resolved:              resolved,
	}, nil
}

// MergeUpdate applies one deep-partial update over an already resolved
// theme, producing a fresh theme. Used for dark-mode overlays.
func MergeUpdate(theme models.OrganizationTheme, update models.ThemeUpdate) (models.OrganizationTheme, error) {
	if update.IsZero() {
		return theme, nil
	}
	if err := update.ShapeCheck(); err != nil {
		return models.OrganizationTheme{}, err
	}
	base, err := themeToMap(theme)
	if err != nil {
		return models.OrganizationTheme{}, err
	}
	return mapToTheme(deepMerge(base, update))
}

// MergeDocuments folds one override document over another, producing the
// document a deep-partial save should persist. Neither input is mutated.
func MergeDocuments(base, overlay models.ThemeUpdate) models.ThemeUpdate {
	if base == nil {
		base = models.ThemeUpdate{}
	}
	return models.ThemeUpdate(deepMerge(base, overlay))
}

// deepMerge merges override into base without mutating either. Nested
// objects recurse; every other value, arrays included, replaces the base
// value wholesale.
func deepMerge(base, override map[string]any) map[string]any {
	out := make(map[string]any, len(base))
	for key, value := range base {
		out[key] = value
	}
	for key, value := range override {
		overrideMap, overrideIsMap := value.(map[string]any)
		baseMap, baseIsMap := out[key].(map[string]any)
		if overrideIsMap && baseIsMap {
			out[key] = deepMerge(baseMap, overrideMap)
			continue
		}
		out[key] = value
	}
	return out
}

// backfillComponents restores any fixed component key the merge left
// absent, copying it from the platform-default layer. A resolved theme
// must always carry the complete component set.
func backfillComponents(merged, defaults map[string]any) {
	defaultComponents, ok := defaults["components"].(map[string]any)
	if !ok {
		return
	}
	components, ok := merged["components"].(map[string]any)
	if !ok {
		merged["components"] = defaultComponents
		return
	}
	for _, name := range models.ComponentNames {
		if _, present := components[name]; !present {
			if fallback, exists := defaultComponents[name]; exists {
				components[name] = fallback
			}
		}
	}
}

func themeToMap(theme models.OrganizationTheme) (map[string]any, error) {
	data, err := json.Marshal(theme)
	if err != nil {
		return nil, fmt.Errorf("encode platform defaults: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode platform defaults: %w", err)
	}
	return out, nil
}

func mapToTheme(merged map[string]any) (models.OrganizationTheme, error) {
	data, err := json.Marshal(merged)
	if err != nil {
		return models.OrganizationTheme{}, fmt.Errorf("encode resolved theme: %w", err)
	}
	var theme models.OrganizationTheme
	if err := json.Unmarshal(data, &theme); err != nil {
		return models.OrganizationTheme{}, fmt.Errorf("%w: %v", models.ErrMalformedUpdate, err)
	}
	return theme, nil
}
