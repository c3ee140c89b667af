package validator

import (
	"testing"

	"github.com/veldtcms/veldt/internal/catalog"
	"github.com/veldtcms/veldt/internal/models"
)

func validTheme(t *testing.T) models.OrganizationTheme {
	t.Helper()
	theme, err := catalog.PlatformDefaults()
	if err != nil {
		t.Fatalf("load platform defaults: %v", err)
	}
	return theme
}

func hasErrorCode(result models.ThemeValidationResult, code, field string) bool {
	for _, e := range result.Errors {
		if e.Code == code && e.Field == field {
			return true
		}
	}
	return false
}

func hasWarningCode(result models.ThemeValidationResult, code string) bool {
	for _, w := range result.Warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}

func TestValidateThemeDefaultsAreClean(t *testing.T) {
	result := ValidateTheme(validTheme(t))
	if !result.IsValid {
		t.Fatalf("platform defaults invalid: %+v", result.Errors)
	}
	if len(result.Warnings) != 0 {
		t.Fatalf("platform defaults produced warnings: %+v", result.Warnings)
	}
	if result.AccessibilityScore != 100 {
		t.Fatalf("accessibilityScore = %d, want 100", result.AccessibilityScore)
	}
	if result.PerformanceScore != 100 {
		t.Fatalf("performanceScore = %d, want 100", result.PerformanceScore)
	}
}

func TestValidateThemeRequiredFields(t *testing.T) {
	theme := validTheme(t)
	theme.Colors.Primary = ""
	theme.Branding.Logo = "   "

	result := ValidateTheme(theme)
	if result.IsValid {
		t.Fatal("theme with missing required fields reported valid")
	}
	if !hasErrorCode(result, models.CodeRequiredFieldMissing, "colors.primary") {
		t.Fatalf("missing REQUIRED_FIELD_MISSING for colors.primary: %+v", result.Errors)
	}
	if !hasErrorCode(result, models.CodeRequiredFieldMissing, "branding.logo") {
		t.Fatalf("missing REQUIRED_FIELD_MISSING for branding.logo: %+v", result.Errors)
	}
}

func TestValidateThemeColorFormats(t *testing.T) {
	theme := validTheme(t)
	theme.Colors.Accent = "not-a-color"
	theme.Colors.Warning = "#ab"

	result := ValidateTheme(theme)
	if result.IsValid {
		t.Fatal("theme with invalid colors reported valid")
	}
	if !hasErrorCode(result, models.CodeInvalidColorFormat, "colors.accent") {
		t.Fatalf("missing INVALID_COLOR_FORMAT for colors.accent: %+v", result.Errors)
	}
	if !hasErrorCode(result, models.CodeInvalidColorFormat, "colors.warning") {
		t.Fatalf("missing INVALID_COLOR_FORMAT for colors.warning: %+v", result.Errors)
	}
	// Non-hex accepted syntaxes are fine.
	theme = validTheme(t)
	theme.Colors.Accent = "rgba(37, 99, 235, 0.9)"
	if result := ValidateTheme(theme); hasErrorCode(result, models.CodeInvalidColorFormat, "colors.accent") {
		t.Fatal("rgba() color rejected")
	}
}

func TestValidateThemeContrastScenarios(t *testing.T) {
	// Scenario A: black on white never warns.
	theme := validTheme(t)
	theme.Colors.Text.Primary = "#000000"
	theme.Colors.Background = "#ffffff"
	result := ValidateTheme(theme)
	for _, w := range result.Warnings {
		if w.Code == models.CodeLowContrastRatio && w.Field == "colors.text.primary" {
			t.Fatalf("unexpected LOW_CONTRAST_RATIO for black on white: %+v", w)
		}
	}

	// Scenario B: near-identical grays warn and stay non-fatal.
	theme = validTheme(t)
	theme.Colors.Text.Primary = "#777777"
	theme.Colors.Background = "#888888"
	result = ValidateTheme(theme)
	if !hasWarningCode(result, models.CodeLowContrastRatio) {
		t.Fatal("expected LOW_CONTRAST_RATIO warning for #777777 on #888888")
	}
	if !result.IsValid {
		t.Fatal("contrast warnings must not block validity")
	}
}

func TestValidateThemeTypography(t *testing.T) {
	theme := validTheme(t)
	theme.Typography.FontFamily = "Comic Neue, Papyrus"
	theme.Typography.FontSizes["xl"] = "big"
	theme.Typography.FontWeights["bold"] = 650

	result := ValidateTheme(theme)
	if !hasWarningCode(result, models.CodeFontAvailability) {
		t.Fatal("expected FONT_AVAILABILITY_WARNING")
	}
	if !hasErrorCode(result, models.CodeInvalidCSSUnit, "typography.fontSizes.xl") {
		t.Fatalf("missing INVALID_CSS_UNIT: %+v", result.Errors)
	}
	if !hasErrorCode(result, models.CodeInvalidFontWeight, "typography.fontWeights.bold") {
		t.Fatalf("missing INVALID_FONT_WEIGHT: %+v", result.Errors)
	}
}

func TestValidateThemeFontFamilyQuoted(t *testing.T) {
	theme := validTheme(t)
	theme.Typography.FontFamily = `"Futura", 'Trebuchet MS'`
	result := ValidateTheme(theme)
	if hasWarningCode(result, models.CodeFontAvailability) {
		t.Fatal("quoted web-safe family not recognized")
	}
}

func TestValidateThemeMissingComponent(t *testing.T) {
	theme := validTheme(t)
	delete(theme.Components, "modal")

	result := ValidateTheme(theme)
	if result.IsValid {
		t.Fatal("theme missing a component reported valid")
	}
	if !hasErrorCode(result, models.CodeMissingComponent, "components.modal") {
		t.Fatalf("missing component error absent: %+v", result.Errors)
	}
}

func TestAccessibilityScoreDeductions(t *testing.T) {
	theme := validTheme(t)
	// One low-contrast pair (-15) plus indistinct brand colors (-10).
	theme.Colors.Primary = "#fefefe"
	theme.Colors.Secondary = "#fefefe"
	theme.Colors.Accent = "#fefefe"
	theme.Colors.Background = "#ffffff"

	result := ValidateTheme(theme)
	// primary-on-background is the only hex pair pushed below threshold.
	want := 100 - lowContrastPenalty - indistinctColorsPenalty
	if result.AccessibilityScore != want {
		t.Fatalf("accessibilityScore = %d, want %d (warnings: %+v)", result.AccessibilityScore, want, result.Warnings)
	}
}

func TestAccessibilityScoreFloor(t *testing.T) {
	theme := validTheme(t)
	theme.Colors.Primary = "#808080"
	theme.Colors.Secondary = "#808080"
	theme.Colors.Accent = "#808080"
	theme.Colors.Background = "#888888"
	theme.Colors.Surface = "#888888"
	theme.Colors.Text.Primary = "#777777"
	theme.Colors.Text.Secondary = "#777777"
	theme.Typography.FontFamily = "Papyrus"

	result := ValidateTheme(theme)
	if result.AccessibilityScore < 0 || result.AccessibilityScore > 100 {
		t.Fatalf("accessibilityScore = %d, out of [0,100]", result.AccessibilityScore)
	}
	// 4 contrast warnings (-60), font (-5), indistinct (-10) => 25.
	if result.AccessibilityScore != 25 {
		t.Fatalf("accessibilityScore = %d, want 25", result.AccessibilityScore)
	}
}

func TestPerformanceScoreDeductions(t *testing.T) {
	theme := validTheme(t)
	theme.Branding.CustomCSS = string(make([]byte, maxCustomCSSLength+1))

	result := ValidateTheme(theme)
	if !hasWarningCode(result, models.CodeLargeCustomCSS) {
		t.Fatal("expected LARGE_CUSTOM_CSS warning")
	}
	if result.PerformanceScore != 100-largeCustomCSSPenalty {
		t.Fatalf("performanceScore = %d, want %d", result.PerformanceScore, 100-largeCustomCSSPenalty)
	}

	// Custom CSS on more than five components costs another 15.
	for i, name := range models.ComponentNames {
		if i >= 6 {
			break
		}
		component := theme.Components[name]
		component.CustomCSS = ".x{color:red}"
		theme.Components[name] = component
	}
	result = ValidateTheme(theme)
	want := 100 - largeCustomCSSPenalty - manyComponentCSSPenalty
	if result.PerformanceScore != want {
		t.Fatalf("performanceScore = %d, want %d", result.PerformanceScore, want)
	}

	// More than 50 custom properties costs 10 more.
	theme.CustomProperties = map[string]string{}
	for i := 0; i < maxCustomPropertyCount+1; i++ {
		theme.CustomProperties[propertyName(i)] = "value"
	}
	result = ValidateTheme(theme)
	want -= manyPropertiesPenalty
	if result.PerformanceScore != want {
		t.Fatalf("performanceScore = %d, want %d", result.PerformanceScore, want)
	}
}

func propertyName(i int) string {
	return "prop-" + string(rune('a'+i%26)) + string(rune('a'+(i/26)%26)) + string(rune('a'+i%10))
}

func TestValidateAgainstTemplate(t *testing.T) {
	theme := validTheme(t)
	template := models.ThemeTemplate{
		ID:   "tpl-1",
		Name: "Midnight",
		Overrides: models.ThemeUpdate{
			"colors": map[string]any{
				"primary": "#3b82f6",
				"text": map[string]any{
					"primary": "#f1f5f9",
				},
			},
			"customProperties": map[string]any{
				"--brand-glow": "0 0 8px #3b82f6",
			},
		},
	}

	warnings := ValidateAgainstTemplate(theme, template)
	// colors.* exist on every theme; the custom property does not.
	if len(warnings) != 1 {
		t.Fatalf("warnings = %+v, want exactly one", warnings)
	}
	if warnings[0].Code != models.CodeMissingTemplateProperty {
		t.Fatalf("warning code = %q", warnings[0].Code)
	}
	if warnings[0].Field != "customProperties.--brand-glow" {
		t.Fatalf("warning field = %q", warnings[0].Field)
	}

	// A theme carrying the property produces no warnings.
	theme.CustomProperties = map[string]string{"--brand-glow": "0 0 8px #3b82f6"}
	if warnings := ValidateAgainstTemplate(theme, template); len(warnings) != 0 {
		t.Fatalf("warnings = %+v, want none", warnings)
	}
}
