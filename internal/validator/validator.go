// Package validator performs structural and semantic validation of
// resolved themes and produces accessibility/performance scores.
package validator

import (
	"fmt"
	"strings"

	"github.com/veldtcms/veldt/internal/colormath"
	"github.com/veldtcms/veldt/internal/models"
)

// Score deductions.
const (
	lowContrastPenalty      = 15
	fontAvailabilityPenalty = 5
	indistinctColorsPenalty = 10

	largeCustomCSSPenalty   = 20
	manyComponentCSSPenalty = 15
	manyPropertiesPenalty   = 10

	maxCustomCSSLength     = 5000
	maxComponentsWithCSS   = 5
	maxCustomPropertyCount = 50
)

// webSafeFonts is the allow-list checked against each comma-separated
// family of typography.fontFamily. Matching is case- and quote-insensitive.
var webSafeFonts = map[string]bool{
	"arial":           true,
	"helvetica":       true,
	"verdana":         true,
	"tahoma":          true,
	"trebuchet ms":    true,
	"times new roman": true,
	"georgia":         true,
	"garamond":        true,
	"courier new":     true,
	"impact":          true,
	"system-ui":       true,
	"sans-serif":      true,
	"serif":           true,
	"monospace":       true,
}

// requiredFields lists the paths that must be present and non-empty.
var requiredFields = []struct {
	path  string
	value func(models.OrganizationTheme) string
}{
	{"colors.primary", func(t models.OrganizationTheme) string { return t.Colors.Primary }},
	{"colors.secondary", func(t models.OrganizationTheme) string { return t.Colors.Secondary }},
	{"colors.background", func(t models.OrganizationTheme) string { return t.Colors.Background }},
	{"colors.text.primary", func(t models.OrganizationTheme) string { return t.Colors.Text.Primary }},
	{"typography.fontFamily", func(t models.OrganizationTheme) string { return t.Typography.FontFamily }},
	{"branding.logo", func(t models.OrganizationTheme) string { return t.Branding.Logo }},
}

// contrastPairs are the text/background combinations gated at WCAG AA.
var contrastPairs = []struct {
	foreground string
	background string
	fg         func(models.OrganizationTheme) string
	bg         func(models.OrganizationTheme) string
}{
	{"colors.text.primary", "colors.background",
		func(t models.OrganizationTheme) string { return t.Colors.Text.Primary },
		func(t models.OrganizationTheme) string { return t.Colors.Background }},
	{"colors.text.secondary", "colors.background",
		func(t models.OrganizationTheme) string { return t.Colors.Text.Secondary },
		func(t models.OrganizationTheme) string { return t.Colors.Background }},
	{"colors.text.primary", "colors.surface",
		func(t models.OrganizationTheme) string { return t.Colors.Text.Primary },
		func(t models.OrganizationTheme) string { return t.Colors.Surface }},
	{"colors.primary", "colors.background",
		func(t models.OrganizationTheme) string { return t.Colors.Primary },
		func(t models.OrganizationTheme) string { return t.Colors.Background }},
}

// ValidateTheme checks a resolved theme. Deterministic and side-effect
// free: identical themes yield identical results, findings in check order.
func ValidateTheme(theme models.OrganizationTheme) models.ThemeValidationResult {
	var errs []models.ValidationError
	var warnings []models.ValidationWarning

	errs = append(errs, checkRequiredFields(theme)...)
	errs = append(errs, checkColorFormats(theme)...)
	errs = append(errs, checkComponentSet(theme)...)

	contrastWarnings := checkContrast(theme)
	warnings = append(warnings, contrastWarnings...)

	typographyErrs, typographyWarnings := checkTypography(theme)
	errs = append(errs, typographyErrs...)
	warnings = append(warnings, typographyWarnings...)

	performanceWarnings := performanceFindings(theme)
	warnings = append(warnings, performanceWarnings...)

	return models.ThemeValidationResult{
		IsValid:            len(errs) == 0,
		Errors:             errs,
		Warnings:           warnings,
		AccessibilityScore: accessibilityScore(theme, contrastWarnings, typographyWarnings),
		PerformanceScore:   performanceScore(theme),
	}
}

func checkRequiredFields(theme models.OrganizationTheme) []models.ValidationError {
	var errs []models.ValidationError
	for _, field := range requiredFields {
		if strings.TrimSpace(field.value(theme)) == "" {
			errs = append(errs, models.ValidationError{
				Field:    field.path,
				Message:  fmt.Sprintf("%s is required", field.path),
				Severity: models.SeverityError,
				Code:     models.CodeRequiredFieldMissing,
			})
		}
	}
	return errs
}

func checkColorFormats(theme models.OrganizationTheme) []models.ValidationError {
	colorFields := []struct {
		path  string
		value string
	}{
		{"colors.primary", theme.Colors.Primary},
		{"colors.secondary", theme.Colors.Secondary},
		{"colors.accent", theme.Colors.Accent},
		{"colors.background", theme.Colors.Background},
		{"colors.surface", theme.Colors.Surface},
		{"colors.text.primary", theme.Colors.Text.Primary},
		{"colors.text.secondary", theme.Colors.Text.Secondary},
		{"colors.text.muted", theme.Colors.Text.Muted},
		{"colors.border", theme.Colors.Border},
		{"colors.destructive", theme.Colors.Destructive},
		{"colors.warning", theme.Colors.Warning},
		{"colors.success", theme.Colors.Success},
		{"colors.info", theme.Colors.Info},
	}

	var errs []models.ValidationError
	for _, field := range colorFields {
		// Empty values are the required-field check's concern.
		if field.value == "" {
			continue
		}
		if !models.IsCSSColor(field.value) {
			errs = append(errs, models.ValidationError{
				Field:    field.path,
				Message:  fmt.Sprintf("%q is not a recognized CSS color", field.value),
				Severity: models.SeverityError,
				Code:     models.CodeInvalidColorFormat,
			})
		}
	}
	return errs
}

func checkComponentSet(theme models.OrganizationTheme) []models.ValidationError {
	var errs []models.ValidationError
	for _, name := range theme.MissingComponents() {
		errs = append(errs, models.ValidationError{
			Field:    "components." + name,
			Message:  fmt.Sprintf("component %q is missing from the resolved theme", name),
			Severity: models.SeverityError,
			Code:     models.CodeMissingComponent,
		})
	}
	return errs
}

func checkContrast(theme models.OrganizationTheme) []models.ValidationWarning {
	var warnings []models.ValidationWarning
	for _, pair := range contrastPairs {
		fg := pair.fg(theme)
		bg := pair.bg(theme)
		// Contrast is only computable for 6-digit hex values; other
		// accepted syntaxes are skipped rather than misjudged.
		if !colormath.IsHex(fg) || !colormath.IsHex(bg) {
			continue
		}
		ratio := colormath.ContrastRatio(fg, bg)
		if ratio < colormath.WCAGAAMinContrast {
			warnings = append(warnings, models.ValidationWarning{
				Field: pair.foreground,
				Message: fmt.Sprintf("contrast ratio %.2f between %s and %s is below %.1f",
					ratio, pair.foreground, pair.background, colormath.WCAGAAMinContrast),
				Suggestion: "adjust lightness until the pair reaches WCAG AA",
				Code:       models.CodeLowContrastRatio,
			})
		}
	}
	return warnings
}

func checkTypography(theme models.OrganizationTheme) ([]models.ValidationError, []models.ValidationWarning) {
	var errs []models.ValidationError
	var warnings []models.ValidationWarning

	if family := theme.Typography.FontFamily; family != "" && !hasWebSafeFont(family) {
		warnings = append(warnings, models.ValidationWarning{
			Field:      "typography.fontFamily",
			Message:    fmt.Sprintf("none of the families in %q are web-safe", family),
			Suggestion: "append a web-safe fallback such as Helvetica or sans-serif",
			Code:       models.CodeFontAvailability,
		})
	}

	for _, key := range models.FontSizeKeys {
		size, ok := theme.Typography.FontSizes[key]
		if !ok {
			continue
		}
		if !models.IsCSSLength(size) {
			errs = append(errs, models.ValidationError{
				Field:    "typography.fontSizes." + key,
				Message:  fmt.Sprintf("%q is not a CSS length", size),
				Severity: models.SeverityError,
				Code:     models.CodeInvalidCSSUnit,
			})
		}
	}

	for _, key := range models.FontWeightKeys {
		weight, ok := theme.Typography.FontWeights[key]
		if !ok {
			continue
		}
		if !models.IsFontWeight(weight) {
			errs = append(errs, models.ValidationError{
				Field:    "typography.fontWeights." + key,
				Message:  fmt.Sprintf("weight %d must be a multiple of 100 in [100,900]", weight),
				Severity: models.SeverityError,
				Code:     models.CodeInvalidFontWeight,
			})
		}
	}

	return errs, warnings
}

func hasWebSafeFont(fontFamily string) bool {
	for _, family := range strings.Split(fontFamily, ",") {
		normalized := strings.ToLower(strings.TrimSpace(family))
		normalized = strings.Trim(normalized, `'"`)
		if webSafeFonts[normalized] {
			return true
		}
	}
	return false
}

func performanceFindings(theme models.OrganizationTheme) []models.ValidationWarning {
	var warnings []models.ValidationWarning
	if len(theme.Branding.CustomCSS) > maxCustomCSSLength {
		warnings = append(warnings, models.ValidationWarning{
			Field: "branding.customCSS",
			Message: fmt.Sprintf("custom CSS is %d characters; themes over %d characters slow initial paint",
				len(theme.Branding.CustomCSS), maxCustomCSSLength),
			Suggestion: "move large rule sets into component variants",
			Code:       models.CodeLargeCustomCSS,
		})
	}
	return warnings
}

func accessibilityScore(theme models.OrganizationTheme, contrastWarnings, typographyWarnings []models.ValidationWarning) int {
	score := 100
	score -= lowContrastPenalty * len(contrastWarnings)
	for _, warning := range typographyWarnings {
		if warning.Code == models.CodeFontAvailability {
			score -= fontAvailabilityPenalty
		}
	}
	if !distinctBrandColors(theme) {
		score -= indistinctColorsPenalty
	}
	if score < 0 {
		score = 0
	}
	return score
}

func distinctBrandColors(theme models.OrganizationTheme) bool {
	primary := strings.ToLower(strings.TrimSpace(theme.Colors.Primary))
	secondary := strings.ToLower(strings.TrimSpace(theme.Colors.Secondary))
	accent := strings.ToLower(strings.TrimSpace(theme.Colors.Accent))
	return primary != secondary && primary != accent && secondary != accent
}

func performanceScore(theme models.OrganizationTheme) int {
	score := 100
	if len(theme.Branding.CustomCSS) > maxCustomCSSLength {
		score -= largeCustomCSSPenalty
	}

	componentsWithCSS := 0
	for _, component := range theme.Components {
		if component.CustomCSS != "" {
			componentsWithCSS++
		}
	}
	if componentsWithCSS > maxComponentsWithCSS {
		score -= manyComponentCSSPenalty
	}

	if len(theme.CustomProperties) > maxCustomPropertyCount {
		score -= manyPropertiesPenalty
	}

	if score < 0 {
		score = 0
	}
	return score
}
