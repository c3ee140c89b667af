// Package catalog loads the embedded platform-default theme and the
// built-in template catalog shipped with the binary.
package catalog

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/veldtcms/veldt/internal/models"
)

//go:embed defaults.yaml templates.yaml
var catalogFS embed.FS

const (
	defaultsPath  = "defaults.yaml"
	templatesPath = "templates.yaml"
)

// PlatformDefaults parses the embedded platform-default theme. The
// document must be structurally complete: a missing component key or an
// incomplete neutral ramp is a startup error, not a warning.
func PlatformDefaults() (models.OrganizationTheme, error) {
	data, err := catalogFS.ReadFile(defaultsPath)
	if err != nil {
		return models.OrganizationTheme{}, fmt.Errorf("open embedded defaults: %w", err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return models.OrganizationTheme{}, fmt.Errorf("parse embedded defaults: %w", err)
	}

	theme, err := decodeTheme(doc)
	if err != nil {
		return models.OrganizationTheme{}, fmt.Errorf("decode embedded defaults: %w", err)
	}
	theme.CreatedAt = time.Time{}
	theme.UpdatedAt = time.Time{}

	if missing := theme.MissingComponents(); len(missing) > 0 {
		return models.OrganizationTheme{}, fmt.Errorf("embedded defaults missing components: %v", missing)
	}
	for _, step := range models.NeutralRampKeys {
		if theme.Colors.Neutral[step] == "" {
			return models.OrganizationTheme{}, fmt.Errorf("embedded defaults missing neutral step %s", step)
		}
	}
	return theme, nil
}

// Catalog serves the built-in theme templates. Popularity counts are
// fed in from adoption tracking and only affect List ordering.
type Catalog struct {
	mu        sync.RWMutex
	templates []models.ThemeTemplate
	byID      map[string]models.ThemeTemplate
}

// Load parses the embedded template catalog.
func Load() (*Catalog, error) {
	data, err := catalogFS.ReadFile(templatesPath)
	if err != nil {
		return nil, fmt.Errorf("open embedded templates: %w", err)
	}

	var docs []templateDoc
	if err := yaml.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("parse embedded templates: %w", err)
	}

	c := &Catalog{byID: make(map[string]models.ThemeTemplate, len(docs))}
	for i, doc := range docs {
		tpl, err := doc.toTemplate()
		if err != nil {
			return nil, fmt.Errorf("template %d: %w", i, err)
		}
		if _, dup := c.byID[tpl.ID]; dup {
			return nil, fmt.Errorf("duplicate template id %q", tpl.ID)
		}
		c.templates = append(c.templates, tpl)
		c.byID[tpl.ID] = tpl
	}
	return c, nil
}

// List returns all public templates, most adopted first, ties broken by
// name.
func (c *Catalog) List(ctx context.Context) ([]models.ThemeTemplate, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.ThemeTemplate, 0, len(c.templates))
	for _, tpl := range c.templates {
		if tpl.IsPublic {
			out = append(out, tpl)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Popularity != out[j].Popularity {
			return out[i].Popularity > out[j].Popularity
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// GetByID returns the template with the given id, or nil if absent.
func (c *Catalog) GetByID(ctx context.Context, id string) (*models.ThemeTemplate, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tpl, ok := c.byID[id]
	if !ok {
		return nil, nil
	}
	return &tpl, nil
}

// SetPopularity replaces the adoption counts for every template.
// Templates absent from counts reset to zero.
func (c *Catalog) SetPopularity(counts map[string]int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.templates {
		c.templates[i].Popularity = counts[c.templates[i].ID]
		c.byID[c.templates[i].ID] = c.templates[i]
	}
}

type templateDoc struct {
	ID          string         `yaml:"id"`
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Category    string         `yaml:"category"`
	Tags        []string       `yaml:"tags"`
	IsPublic    bool           `yaml:"isPublic"`
	Overrides   map[string]any `yaml:"overrides"`
}

func (d templateDoc) toTemplate() (models.ThemeTemplate, error) {
	if d.ID == "" {
		return models.ThemeTemplate{}, fmt.Errorf("template id is required")
	}
	if d.Name == "" {
		return models.ThemeTemplate{}, fmt.Errorf("template name is required")
	}
	overrides := models.ThemeUpdate(d.Overrides)
	if err := overrides.ShapeCheck(); err != nil {
		return models.ThemeTemplate{}, err
	}
	return models.ThemeTemplate{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Category:    d.Category,
		Tags:        d.Tags,
		IsPublic:    d.IsPublic,
		Overrides:   overrides,
	}, nil
}

// decodeTheme converts a YAML document into the canonical theme type via
// a JSON round-trip so the models package keeps a single set of field
// tags.
func decodeTheme(doc map[string]any) (models.OrganizationTheme, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return models.OrganizationTheme{}, err
	}
	var theme models.OrganizationTheme
	if err := json.Unmarshal(data, &theme); err != nil {
		return models.OrganizationTheme{}, err
	}
	return theme, nil
}
