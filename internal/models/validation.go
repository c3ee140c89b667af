// internal/models/validation.go
package models

// Validation error codes.
const (
	CodeRequiredFieldMissing = "REQUIRED_FIELD_MISSING"
	CodeInvalidColorFormat   = "INVALID_COLOR_FORMAT"
	CodeInvalidCSSUnit       = "INVALID_CSS_UNIT"
	CodeInvalidFontWeight    = "INVALID_FONT_WEIGHT"
	CodeMissingComponent     = "MISSING_COMPONENT"
)

// Validation warning codes.
const (
	CodeLowContrastRatio        = "LOW_CONTRAST_RATIO"
	CodeFontAvailability        = "FONT_AVAILABILITY_WARNING"
	CodeLargeCustomCSS          = "LARGE_CUSTOM_CSS"
	CodeMissingTemplateProperty = "MISSING_TEMPLATE_PROPERTY"
)

// SeverityError is the severity carried by all blocking findings.
const SeverityError = "error"

// ValidationError is a blocking finding against a resolved theme.
type ValidationError struct {
	Field    string `json:"field"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
	Code     string `json:"code"`
}

// ValidationWarning is an advisory finding; it affects scores only.
type ValidationWarning struct {
	Field      string `json:"field"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
	Code       string `json:"code"`
}

// ThemeValidationResult reports structural and semantic findings for one
// resolved theme. Warnings never block validity.
type ThemeValidationResult struct {
	IsValid            bool                `json:"isValid"`
	Errors             []ValidationError   `json:"errors"`
	Warnings           []ValidationWarning `json:"warnings"`
	AccessibilityScore int                 `json:"accessibilityScore"`
	PerformanceScore   int                 `json:"performanceScore"`
}
