// internal/cssgen/stylesheet.go
package cssgen

import (
	"fmt"
	"strings"

	"github.com/veldtcms/veldt/internal/models"
	"github.com/veldtcms/veldt/internal/resolver"
)

// GenerateThemeCSS assembles the complete stylesheet for a resolved
// theme: the :root variable block, per-component rules, branding custom
// CSS, theme-derived utility classes, and dark-mode overrides. Output is
// deterministic for identical input.
func GenerateThemeCSS(theme models.OrganizationTheme) (string, error) {
	var b strings.Builder

	writeVariableBlock(&b, ":root", generateVariableSet(theme))
	writeComponentRules(&b, theme.Components)

	if custom := strings.TrimSpace(theme.Branding.CustomCSS); custom != "" {
		b.WriteString("\n/* branding */\n")
		b.WriteString(custom)
		b.WriteString("\n")
	}

	writeUtilityClasses(&b)

	if !theme.DarkMode.IsZero() {
		darkTheme, err := resolver.MergeUpdate(theme, theme.DarkMode)
		if err != nil {
			return "", fmt.Errorf("dark mode overlay: %w", err)
		}
		darkSet := generateVariableSet(darkTheme)

		b.WriteString("\n@media (prefers-color-scheme: dark) {\n")
		writeIndentedVariableBlock(&b, "  :root", darkSet)
		b.WriteString("}\n")

		b.WriteString("\n")
		writeVariableBlock(&b, `[data-theme="dark"]`, darkSet)
	}

	return b.String(), nil
}

func writeVariableBlock(b *strings.Builder, selector string, set *variableSet) {
	b.WriteString(selector)
	b.WriteString(" {\n")
	for _, key := range set.keys {
		fmt.Fprintf(b, "  %s: %s;\n", key, set.values[key])
	}
	b.WriteString("}\n")
}

func writeIndentedVariableBlock(b *strings.Builder, selector string, set *variableSet) {
	b.WriteString(selector)
	b.WriteString(" {\n")
	for _, key := range set.keys {
		fmt.Fprintf(b, "    %s: %s;\n", key, set.values[key])
	}
	b.WriteString("  }\n")
}

// writeComponentRules emits one base class per component plus one class
// per variant, then any raw component CSS verbatim.
func writeComponentRules(b *strings.Builder, components map[string]models.ComponentStyle) {
	for _, name := range models.ComponentNames {
		component, ok := components[name]
		if !ok {
			continue
		}

		if len(component.BaseStyles) > 0 {
			fmt.Fprintf(b, "\n.%s {\n", name)
			for _, property := range sortedKeys(component.BaseStyles) {
				fmt.Fprintf(b, "  %s: %s;\n", kebab(property), component.BaseStyles[property])
			}
			b.WriteString("}\n")
		}

		for _, variant := range sortedKeys(component.Variants) {
			styles := component.Variants[variant]
			if len(styles) == 0 {
				continue
			}
			fmt.Fprintf(b, "\n.%s--%s {\n", name, kebab(variant))
			for _, property := range sortedKeys(styles) {
				fmt.Fprintf(b, "  %s: %s;\n", kebab(property), styles[property])
			}
			b.WriteString("}\n")
		}

		if custom := strings.TrimSpace(component.CustomCSS); custom != "" {
			fmt.Fprintf(b, "\n/* %s */\n%s\n", name, custom)
		}
	}
}

// utilityClasses is the fixed set of theme-derived helpers appended to
// every stylesheet. Each references an emitted variable.
var utilityClasses = []struct {
	selector string
	styles   [][2]string
}{
	{".text-primary", [][2]string{{"color", "var(--theme-text-primary)"}}},
	{".text-secondary", [][2]string{{"color", "var(--theme-text-secondary)"}}},
	{".text-muted", [][2]string{{"color", "var(--theme-text-muted)"}}},
	{".text-brand", [][2]string{{"color", "var(--theme-primary)"}}},
	{".bg-primary", [][2]string{{"background-color", "var(--theme-primary)"}}},
	{".bg-secondary", [][2]string{{"background-color", "var(--theme-secondary)"}}},
	{".bg-accent", [][2]string{{"background-color", "var(--theme-accent)"}}},
	{".bg-surface", [][2]string{{"background-color", "var(--theme-surface)"}}},
	{".bg-page", [][2]string{{"background-color", "var(--theme-background)"}}},
	{".border-themed", [][2]string{{"border-color", "var(--theme-border)"}}},
	{".ring-themed", [][2]string{{"outline-color", "var(--theme-ring)"}}},
	{".font-base", [][2]string{{"font-family", "var(--theme-font-family)"}}},
	{".font-heading", [][2]string{{"font-family", "var(--theme-heading-font-family, var(--theme-font-family))"}}},
	{".layout-container", [][2]string{
		{"max-width", "var(--theme-layout-container-max-width)"},
		{"padding", "var(--theme-layout-content-padding)"},
		{"margin", "0 auto"},
	}},
	{".layout-grid", [][2]string{{"display", "grid"}, {"gap", "var(--theme-layout-grid-gap)"}}},
	{".layout-form > * + *", [][2]string{{"margin-top", "var(--theme-layout-form-spacing)"}}},
}

func writeUtilityClasses(b *strings.Builder) {
	b.WriteString("\n/* utilities */\n")
	for _, class := range utilityClasses {
		fmt.Fprintf(b, "%s {", class.selector)
		b.WriteString("\n")
		for _, style := range class.styles {
			fmt.Fprintf(b, "  %s: %s;\n", style[0], style[1])
		}
		b.WriteString("}\n")
	}
}
