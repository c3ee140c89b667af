package resolver

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/veldtcms/veldt/internal/catalog"
	"github.com/veldtcms/veldt/internal/models"
)

func defaults(t *testing.T) models.OrganizationTheme {
	t.Helper()
	theme, err := catalog.PlatformDefaults()
	if err != nil {
		t.Fatalf("load platform defaults: %v", err)
	}
	return theme
}

func TestResolveNoLayers(t *testing.T) {
	base := defaults(t)
	inheritance, err := Resolve(nil, nil, base)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !reflect.DeepEqual(inheritance.Resolved.Colors, base.Colors) {
		t.Fatal("resolved colors differ from defaults with no overrides")
	}
	if inheritance.Resolved.TemplateID != nil {
		t.Fatal("resolved theme has a template id without a template layer")
	}
}

func TestResolvePrecedence(t *testing.T) {
	base := defaults(t)
	update, err := models.ParseThemeUpdate([]byte(`{"colors":{"primary":"#123456"}}`))
	if err != nil {
		t.Fatalf("parse update: %v", err)
	}

	template := &models.ThemeTemplate{
		ID: "tpl-1",
		Overrides: models.ThemeUpdate{
			"colors": map[string]any{
				"primary":   "#aaaaaa",
				"secondary": "#bbbbbb",
			},
		},
	}

	inheritance, err := Resolve(update, template, base)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	resolved := inheritance.Resolved
	// Org override wins over template.
	if resolved.Colors.Primary != "#123456" {
		t.Fatalf("colors.primary = %q, want #123456", resolved.Colors.Primary)
	}
	// Template wins over defaults.
	if resolved.Colors.Secondary != "#bbbbbb" {
		t.Fatalf("colors.secondary = %q, want #bbbbbb", resolved.Colors.Secondary)
	}
	// Untouched keys survive from defaults.
	if resolved.Colors.Background != base.Colors.Background {
		t.Fatalf("colors.background = %q, want default %q", resolved.Colors.Background, base.Colors.Background)
	}
	if resolved.TemplateID == nil || *resolved.TemplateID != "tpl-1" {
		t.Fatal("resolved theme missing template id")
	}
}

func TestResolveUntouchedSiblingsSurvive(t *testing.T) {
	base := defaults(t)
	base.Colors.Primary = "#000000"
	base.Colors.Secondary = "#111111"

	update, err := models.ParseThemeUpdate([]byte(`{"colors":{"primary":"#123456"}}`))
	if err != nil {
		t.Fatalf("parse update: %v", err)
	}

	inheritance, err := Resolve(update, nil, base)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if inheritance.Resolved.Colors.Primary != "#123456" {
		t.Fatalf("colors.primary = %q, want #123456", inheritance.Resolved.Colors.Primary)
	}
	if inheritance.Resolved.Colors.Secondary != "#111111" {
		t.Fatalf("colors.secondary = %q, want #111111", inheritance.Resolved.Colors.Secondary)
	}
}

func TestResolveIdempotent(t *testing.T) {
	base := defaults(t)
	update, err := models.ParseThemeUpdate([]byte(`{"colors":{"accent":"#ff00aa"},"typography":{"fontFamily":"Verdana, sans-serif"}}`))
	if err != nil {
		t.Fatalf("parse update: %v", err)
	}

	first, err := Resolve(update, nil, base)
	if err != nil {
		t.Fatalf("first Resolve failed: %v", err)
	}
	second, err := Resolve(update, nil, base)
	if err != nil {
		t.Fatalf("second Resolve failed: %v", err)
	}

	a, _ := json.Marshal(first.Resolved)
	b, _ := json.Marshal(second.Resolved)
	if string(a) != string(b) {
		t.Fatal("Resolve is not idempotent for identical inputs")
	}
}

func TestResolveDoesNotMutateInputs(t *testing.T) {
	base := defaults(t)
	before, _ := json.Marshal(base)

	update := models.ThemeUpdate{
		"colors": map[string]any{"primary": "#654321"},
	}
	if _, err := Resolve(update, nil, base); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	after, _ := json.Marshal(base)
	if string(before) != string(after) {
		t.Fatal("Resolve mutated the platform defaults")
	}
	if update["colors"].(map[string]any)["primary"] != "#654321" {
		t.Fatal("Resolve mutated the override layer")
	}
}

func TestResolveBackfillsComponents(t *testing.T) {
	base := defaults(t)
	update := models.ThemeUpdate{
		"components": map[string]any{
			"button": map[string]any{
				"variants": map[string]any{
					"primary": map[string]any{"background": "#123456"},
				},
			},
		},
	}

	inheritance, err := Resolve(update, nil, base)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if missing := inheritance.Resolved.MissingComponents(); len(missing) != 0 {
		t.Fatalf("resolved theme missing components %v", missing)
	}
	got := inheritance.Resolved.Components["button"].Variants["primary"]["background"]
	if got != "#123456" {
		t.Fatalf("button primary background = %q, want #123456", got)
	}
	// Merge recursion keeps sibling variants from the defaults.
	if _, ok := inheritance.Resolved.Components["button"].Variants["ghost"]; !ok {
		t.Fatal("button ghost variant lost during merge")
	}
}

func TestResolveArraysReplaceWholesale(t *testing.T) {
	base := defaults(t)
	tpl := &models.ThemeTemplate{
		ID:        "tpl-arr",
		Overrides: models.ThemeUpdate{"branding": map[string]any{"tags": []any{"a", "b"}}},
	}
	update := models.ThemeUpdate{"branding": map[string]any{"tags": []any{"c"}}}

	inheritance, err := Resolve(update, tpl, base)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	overrides := inheritance.OrganizationOverrides["branding"].(map[string]any)["tags"].([]any)
	if len(overrides) != 1 || overrides[0] != "c" {
		t.Fatalf("override layer tags = %v, want [c]", overrides)
	}
}

func TestResolveMalformedOverride(t *testing.T) {
	base := defaults(t)
	update := models.ThemeUpdate{"colors": "#123456"}

	_, err := Resolve(update, nil, base)
	if err == nil {
		t.Fatal("Resolve accepted a scalar colors section")
	}
	if !errors.Is(err, models.ErrMalformedUpdate) {
		t.Fatalf("error = %v, want ErrMalformedUpdate", err)
	}
}

func TestResolveMalformedLeafType(t *testing.T) {
	base := defaults(t)
	// A number where the canonical struct expects a string fails decode.
	update := models.ThemeUpdate{"colors": map[string]any{"primary": 42}}

	_, err := Resolve(update, nil, base)
	if err == nil {
		t.Fatal("Resolve accepted a numeric color leaf")
	}
	if !errors.Is(err, models.ErrMalformedUpdate) {
		t.Fatalf("error = %v, want ErrMalformedUpdate", err)
	}
}

func TestMergeDocuments(t *testing.T) {
	base := models.ThemeUpdate{
		"colors": map[string]any{"primary": "#111111", "accent": "#222222"},
		"layout": map[string]any{"maxWidth": "70rem"},
	}
	overlay := models.ThemeUpdate{
		"colors":     map[string]any{"primary": "#333333"},
		"typography": map[string]any{"fontFamily": "Georgia, serif"},
	}

	merged := MergeDocuments(base, overlay)

	if got, _ := merged.Path("colors.primary"); got != "#333333" {
		t.Fatalf("colors.primary = %q, want overlay value", got)
	}
	if got, _ := merged.Path("colors.accent"); got != "#222222" {
		t.Fatalf("colors.accent = %q, untouched sibling must survive", got)
	}
	if got, _ := merged.Path("layout.maxWidth"); got != "70rem" {
		t.Fatalf("layout.maxWidth = %q, untouched section must survive", got)
	}
	if got, _ := merged.Path("typography.fontFamily"); got != "Georgia, serif" {
		t.Fatalf("typography.fontFamily = %q", got)
	}

	if got, _ := base.Path("colors.primary"); got != "#111111" {
		t.Fatal("MergeDocuments mutated its base input")
	}

	fromNil := MergeDocuments(nil, overlay)
	if got, _ := fromNil.Path("colors.primary"); got != "#333333" {
		t.Fatalf("merge over nil base lost the overlay: %q", got)
	}
}
