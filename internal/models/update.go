// internal/models/update.go
package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrMalformedUpdate indicates override input that is structurally
// unmergeable. Resolution aborts on it rather than coercing.
var ErrMalformedUpdate = errors.New("malformed theme update")

// ThemeUpdate is a shape-checked, deep-partial theme fragment. Raw
// untrusted override input is parsed into a ThemeUpdate before any merge,
// so invalid input fails at the boundary instead of propagating through
// resolution.
type ThemeUpdate map[string]any

// updateSections are the top-level keys an override may touch. Identity
// fields (id, version, timestamps) are owned by the store and rejected.
var updateSections = map[string]bool{
	"colors":           true,
	"typography":       true,
	"spacing":          true,
	"borderRadius":     true,
	"shadows":          true,
	"components":       true,
	"branding":         true,
	"layout":           true,
	"animations":       true,
	"customProperties": true,
	"darkMode":         true,
}

// ParseThemeUpdate decodes raw JSON into a shape-checked ThemeUpdate.
func ParseThemeUpdate(raw []byte) (ThemeUpdate, error) {
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedUpdate, err)
	}
	obj, ok := decoded.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: top level must be an object", ErrMalformedUpdate)
	}
	update := ThemeUpdate(obj)
	if err := update.ShapeCheck(); err != nil {
		return nil, err
	}
	return update, nil
}

// ShapeCheck verifies every touched node of the update: top-level keys
// must be known sections, interior nodes must be objects, and leaves must
// be scalars (arrays are treated as leaves and replace wholesale).
func (u ThemeUpdate) ShapeCheck() error {
	for key, value := range u {
		if !updateSections[key] {
			return fmt.Errorf("%w: unknown section %q", ErrMalformedUpdate, key)
		}
		section, ok := value.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: section %q must be an object", ErrMalformedUpdate, key)
		}
		if err := checkNode(key, section); err != nil {
			return err
		}
	}
	return nil
}

func checkNode(path string, node map[string]any) error {
	for key, value := range node {
		childPath := path + "." + key
		switch v := value.(type) {
		case map[string]any:
			if err := checkNode(childPath, v); err != nil {
				return err
			}
		case string, bool, float64, int, int64:
			// scalar leaf
		case []any:
			for i, elem := range v {
				switch elem.(type) {
				case string, bool, float64, int, int64:
				default:
					return fmt.Errorf("%w: %s[%d] must be a scalar", ErrMalformedUpdate, childPath, i)
				}
			}
		case nil:
			return fmt.Errorf("%w: %s is null", ErrMalformedUpdate, childPath)
		default:
			return fmt.Errorf("%w: unsupported value at %s", ErrMalformedUpdate, childPath)
		}
	}
	return nil
}

// IsZero reports whether the update touches nothing.
func (u ThemeUpdate) IsZero() bool {
	return len(u) == 0
}

// Sections returns the touched top-level section names, sorted.
func (u ThemeUpdate) Sections() []string {
	names := make([]string, 0, len(u))
	for key := range u {
		names = append(names, key)
	}
	sort.Strings(names)
	return names
}

// Path returns the string leaf at a dot-separated path, if present.
func (u ThemeUpdate) Path(path string) (string, bool) {
	parts := strings.Split(path, ".")
	node := map[string]any(u)
	for i, part := range parts {
		value, ok := node[part]
		if !ok {
			return "", false
		}
		if i == len(parts)-1 {
			s, ok := value.(string)
			return s, ok
		}
		node, ok = value.(map[string]any)
		if !ok {
			return "", false
		}
	}
	return "", false
}
