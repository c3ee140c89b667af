// internal/validator/template_check.go
package validator

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/veldtcms/veldt/internal/models"
)

// ValidateAgainstTemplate diffs the template's override structure against
// the theme, warning for template paths the theme no longer carries. The
// result is advisory only; it never affects errors or scores.
func ValidateAgainstTemplate(theme models.OrganizationTheme, template models.ThemeTemplate) []models.ValidationWarning {
	if template.Overrides.IsZero() {
		return nil
	}

	themeMap, err := themeAsMap(theme)
	if err != nil {
		return nil
	}

	var missing []string
	diffNode("", map[string]any(template.Overrides), themeMap, &missing)
	sort.Strings(missing)

	warnings := make([]models.ValidationWarning, 0, len(missing))
	for _, path := range missing {
		warnings = append(warnings, models.ValidationWarning{
			Field:      path,
			Message:    fmt.Sprintf("template %q sets %s but the theme does not carry it", template.Name, path),
			Suggestion: "re-apply the template or set the property explicitly",
			Code:       models.CodeMissingTemplateProperty,
		})
	}
	return warnings
}

func diffNode(prefix string, templateNode, themeNode map[string]any, missing *[]string) {
	for key, templateValue := range templateNode {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}

		themeValue, present := themeNode[key]
		if !present {
			*missing = append(*missing, path)
			continue
		}

		templateChild, templateIsMap := templateValue.(map[string]any)
		if !templateIsMap {
			continue
		}
		themeChild, themeIsMap := themeValue.(map[string]any)
		if !themeIsMap {
			*missing = append(*missing, path)
			continue
		}
		diffNode(path, templateChild, themeChild, missing)
	}
}

func themeAsMap(theme models.OrganizationTheme) (map[string]any, error) {
	data, err := json.Marshal(theme)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
