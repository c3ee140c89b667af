// Package cssgen turns a resolved theme into CSS custom properties and a
// complete deterministic stylesheet.
package cssgen

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/veldtcms/veldt/internal/colormath"
	"github.com/veldtcms/veldt/internal/models"
)

// CSSVariableMap is a flat name → value map. Every key matches
// ^--[a-z0-9-]+$.
type CSSVariableMap map[string]string

// VariableNamePattern is the shape every emitted variable name satisfies.
var VariableNamePattern = regexp.MustCompile(`^--[a-z0-9-]+$`)

// Interactive-state lightness offsets, in percent.
const (
	hoverOffset  = -8
	activeOffset = -16
	lightOffset  = 40
	darkOffset   = -30
)

// variantColorSlots are the color slots that receive
// hover/active/focus/light/dark companions.
var variantColorSlots = []string{"primary", "secondary", "accent", "destructive", "warning", "success", "info"}

// variableSet preserves emission order so the stylesheet stays
// deterministic while callers still get a flat map.
type variableSet struct {
	keys   []string
	values map[string]string
}

func newVariableSet() *variableSet {
	return &variableSet{values: make(map[string]string)}
}

func (s *variableSet) set(key, value string) {
	if _, exists := s.values[key]; !exists {
		s.keys = append(s.keys, key)
	}
	s.values[key] = value
}

func (s *variableSet) toMap() CSSVariableMap {
	out := make(CSSVariableMap, len(s.values))
	for key, value := range s.values {
		out[key] = value
	}
	return out
}

// GenerateVariables converts a resolved theme into its flat variable map.
// Categories are generated in fixed order: colors, typography, spacing,
// border radius, shadows, layout, animations, components, custom
// properties.
func GenerateVariables(theme models.OrganizationTheme) CSSVariableMap {
	return generateVariableSet(theme).toMap()
}

func generateVariableSet(theme models.OrganizationTheme) *variableSet {
	set := newVariableSet()
	emitColors(set, theme.Colors)
	emitTypography(set, theme.Typography)
	emitSpacing(set, theme.Spacing)
	emitScale(set, "--theme-radius-", models.BorderRadiusKeys, theme.BorderRadius)
	emitShadows(set, theme.Shadows)
	emitLayout(set, theme.Layout)
	emitAnimations(set, theme.Animations)
	emitComponents(set, theme.Components)
	emitCustomProperties(set, theme.CustomProperties)
	return set
}

func emitColors(set *variableSet, colors models.ThemeColors) {
	base := []struct {
		name  string
		value string
	}{
		{"primary", colors.Primary},
		{"secondary", colors.Secondary},
		{"accent", colors.Accent},
		{"background", colors.Background},
		{"surface", colors.Surface},
		{"text-primary", colors.Text.Primary},
		{"text-secondary", colors.Text.Secondary},
		{"text-muted", colors.Text.Muted},
		{"border", colors.Border},
		{"input", colors.Input},
		{"ring", colors.Ring},
		{"destructive", colors.Destructive},
		{"warning", colors.Warning},
		{"success", colors.Success},
		{"info", colors.Info},
	}
	for _, slot := range base {
		if slot.value == "" {
			continue
		}
		set.set("--theme-"+slot.name, slot.value)
	}

	// RGB and HSL companions for the brand colors.
	for _, name := range []string{"primary", "secondary", "accent"} {
		value := set.values["--theme-"+name]
		if !colormath.IsHex(value) {
			continue
		}
		rgb := colormath.HexToRGB(value)
		hsl := colormath.HexToHSL(value)
		set.set(fmt.Sprintf("--theme-%s-rgb", name), fmt.Sprintf("%d, %d, %d", rgb.R, rgb.G, rgb.B))
		set.set(fmt.Sprintf("--theme-%s-hsl", name), fmt.Sprintf("%d, %d%%, %d%%", hsl.H, hsl.S, hsl.L))
	}

	// Neutral ramp with RGB companions.
	for _, step := range models.NeutralRampKeys {
		value, ok := colors.Neutral[step]
		if !ok || value == "" {
			continue
		}
		set.set("--theme-neutral-"+step, value)
		if colormath.IsHex(value) {
			rgb := colormath.HexToRGB(value)
			set.set(fmt.Sprintf("--theme-neutral-%s-rgb", step), fmt.Sprintf("%d, %d, %d", rgb.R, rgb.G, rgb.B))
		}
	}

	// Interactive-state variants.
	for _, name := range variantColorSlots {
		value := set.values["--theme-"+name]
		if !colormath.IsHex(value) {
			continue
		}
		set.set("--theme-"+name+"-hover", colormath.AdjustLightness(value, hoverOffset))
		set.set("--theme-"+name+"-active", colormath.AdjustLightness(value, activeOffset))
		set.set("--theme-"+name+"-focus", colormath.WithFocusAlpha(value))
		set.set("--theme-"+name+"-light", colormath.AdjustLightness(value, lightOffset))
		set.set("--theme-"+name+"-dark", colormath.AdjustLightness(value, darkOffset))
	}
}

func emitTypography(set *variableSet, typography models.Typography) {
	if typography.FontFamily != "" {
		set.set("--theme-font-family", typography.FontFamily)
	}
	if typography.HeadingFontFamily != "" {
		set.set("--theme-heading-font-family", typography.HeadingFontFamily)
	}

	for _, key := range models.FontSizeKeys {
		size, ok := typography.FontSizes[key]
		if !ok {
			continue
		}
		set.set("--theme-font-size-"+key, size)
		// Responsive companions only make sense for rem-based sizes.
		if mobile, ok := scaleRem(size, 0.9); ok {
			set.set("--theme-font-size-"+key+"-mobile", mobile)
			tablet, _ := scaleRem(size, 0.95)
			set.set("--theme-font-size-"+key+"-tablet", tablet)
		}
	}

	for _, key := range models.FontWeightKeys {
		if weight, ok := typography.FontWeights[key]; ok {
			set.set("--theme-font-weight-"+key, strconv.Itoa(weight))
		}
	}
	for _, key := range sortedKeys(typography.LineHeights) {
		set.set("--theme-line-height-"+kebab(key), typography.LineHeights[key])
	}
	for _, key := range sortedKeys(typography.LetterSpacing) {
		set.set("--theme-letter-spacing-"+kebab(key), typography.LetterSpacing[key])
	}
}

func emitSpacing(set *variableSet, spacing map[string]string) {
	for _, key := range models.SpacingKeys {
		value, ok := spacing[key]
		if !ok {
			continue
		}
		set.set("--theme-spacing-"+key, value)
		set.set("--theme-spacing-"+key+"-negative", negate(value))
		set.set("--theme-spacing-"+key+"-half", halve(value))
	}
}

func emitScale(set *variableSet, prefix string, keys []string, scale map[string]string) {
	for _, key := range keys {
		if value, ok := scale[key]; ok {
			set.set(prefix+key, value)
		}
	}
}

var shadowKeys = []string{"none", "sm", "md", "lg", "xl", "2xl", "inner"}

func emitShadows(set *variableSet, shadows map[string]string) {
	for _, key := range shadowKeys {
		if value, ok := shadows[key]; ok {
			set.set("--theme-shadow-"+key, value)
		}
	}
}

func emitLayout(set *variableSet, layout models.Layout) {
	fields := []struct {
		name  string
		value string
	}{
		{"sidebar-width", layout.SidebarWidth},
		{"header-height", layout.HeaderHeight},
		{"container-max-width", layout.ContainerMaxWidth},
		{"content-padding", layout.ContentPadding},
		{"grid-gap", layout.GridGap},
		{"card-padding", layout.CardPadding},
		{"form-spacing", layout.FormSpacing},
	}
	for _, field := range fields {
		if field.value == "" {
			continue
		}
		set.set("--theme-layout-"+field.name, field.value)
	}

	// Responsive structural lengths. The sidebar collapses rather than
	// scaling; header and container shrink proportionally.
	if layout.SidebarWidth != "" {
		set.set("--theme-layout-sidebar-width-mobile", "100%")
		set.set("--theme-layout-sidebar-width-tablet", "16rem")
	}
	for _, field := range []struct {
		name  string
		value string
	}{
		{"header-height", layout.HeaderHeight},
		{"container-max-width", layout.ContainerMaxWidth},
	} {
		if field.value == "" {
			continue
		}
		if mobile, ok := scaleLength(field.value, 0.8); ok {
			set.set("--theme-layout-"+field.name+"-mobile", mobile)
		}
		if tablet, ok := scaleLength(field.value, 0.9); ok {
			set.set("--theme-layout-"+field.name+"-tablet", tablet)
		}
	}
}

func emitAnimations(set *variableSet, animations models.Animations) {
	for _, key := range sortedKeys(animations.Durations) {
		if name := token(key); name != "" {
			set.set("--theme-duration-"+name, animations.Durations[key])
		}
	}
	for _, key := range sortedKeys(animations.Easings) {
		if name := token(key); name != "" {
			set.set("--theme-ease-"+name, animations.Easings[key])
		}
	}
	for _, key := range sortedKeys(animations.Transitions) {
		if name := token(key); name != "" {
			set.set("--theme-transition-"+name, animations.Transitions[key])
		}
	}

	// Synthesized combinations referencing the emitted tokens.
	if len(animations.Durations) > 0 && len(animations.Easings) > 0 {
		set.set("--theme-transition-base", "all var(--theme-duration-normal) var(--theme-ease-default)")
		set.set("--theme-transition-fast", "all var(--theme-duration-fast) var(--theme-ease-default)")
		set.set("--theme-transition-slow", "all var(--theme-duration-slow) var(--theme-ease-default)")
	}
}

func emitComponents(set *variableSet, components map[string]models.ComponentStyle) {
	for _, name := range models.ComponentNames {
		component, ok := components[name]
		if !ok {
			continue
		}
		for _, property := range sortedKeys(component.BaseStyles) {
			prop := token(property)
			if prop == "" {
				continue
			}
			set.set(fmt.Sprintf("--component-%s-%s", name, prop), component.BaseStyles[property])
		}
		for _, variant := range sortedKeys(component.Variants) {
			variantName := token(variant)
			if variantName == "" {
				continue
			}
			styles := component.Variants[variant]
			for _, property := range sortedKeys(styles) {
				prop := token(property)
				if prop == "" {
					continue
				}
				set.set(fmt.Sprintf("--component-%s-%s-%s", name, variantName, prop), styles[property])
			}
		}
	}
}

func emitCustomProperties(set *variableSet, properties map[string]string) {
	for _, key := range sortedKeys(properties) {
		if name := customPropertyName(key); name != "" {
			set.set(name, properties[key])
		}
	}
}

// customPropertyName coerces a free-form key into a valid variable name.
// Keys with no usable characters report empty.
func customPropertyName(key string) string {
	name := token(strings.TrimPrefix(key, "--"))
	if name == "" {
		return ""
	}
	return "--" + name
}

// token coerces a free-form map key into the [a-z0-9-] alphabet that
// emitted variable names are built from: camelCase humps and any other
// character become single hyphens, with no leading or trailing hyphen.
// A key with no usable characters reports empty and must be skipped.
func token(name string) string {
	name = kebab(name)
	var b strings.Builder
	pendingHyphen := false
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteRune('-')
			}
			b.WriteRune(r)
			pendingHyphen = false
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// kebab converts camelCase identifiers to kebab-case; already-kebab input
// passes through unchanged.
func kebab(name string) string {
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteRune('-')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// scaleRem multiplies a rem value by factor. Non-rem input reports false.
func scaleRem(value string, factor float64) (string, bool) {
	trimmed := strings.TrimSpace(value)
	if !strings.HasSuffix(trimmed, "rem") {
		return "", false
	}
	number, err := strconv.ParseFloat(strings.TrimSuffix(trimmed, "rem"), 64)
	if err != nil {
		return "", false
	}
	return formatNumber(number*factor) + "rem", true
}

// scaleLength multiplies any unit-suffixed length by factor.
func scaleLength(value string, factor float64) (string, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "0" {
		return "0", true
	}
	unit := lengthUnit(trimmed)
	if unit == "" {
		return "", false
	}
	number, err := strconv.ParseFloat(strings.TrimSuffix(trimmed, unit), 64)
	if err != nil {
		return "", false
	}
	return formatNumber(number*factor) + unit, true
}

// halve divides a length by two, keeping the unit.
func halve(value string) string {
	if scaled, ok := scaleLength(value, 0.5); ok {
		return scaled
	}
	return value
}

// negate prefixes a length with a minus sign; zero stays zero.
func negate(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "0" || trimmed == "" {
		return trimmed
	}
	if strings.HasPrefix(trimmed, "-") {
		return strings.TrimPrefix(trimmed, "-")
	}
	return "-" + trimmed
}

var unitSuffixes = []string{"rem", "em", "px", "vh", "vw", "vmin", "vmax", "%", "ch", "ex", "pt"}

func lengthUnit(value string) string {
	for _, unit := range unitSuffixes {
		if strings.HasSuffix(value, unit) {
			return unit
		}
	}
	return ""
}

// formatNumber trims trailing zeros so 0.90 emits as 0.9 and 4 as 4.
func formatNumber(n float64) string {
	rounded := math.Round(n*1000) / 1000
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
