// internal/api/themes/handlers.go
package themes

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/veldtcms/veldt/internal/api/apiutil"
	"github.com/veldtcms/veldt/internal/catalog"
	"github.com/veldtcms/veldt/internal/cssgen"
	"github.com/veldtcms/veldt/internal/db"
	"github.com/veldtcms/veldt/internal/engine"
	"github.com/veldtcms/veldt/internal/models"
	"github.com/veldtcms/veldt/internal/request"
	"github.com/veldtcms/veldt/internal/resolver"
)

const (
	themeQueryTimeout = 5 * time.Second
	maxUpdateBodySize = 1 << 20
)

var (
	deps     *handlerDeps
	depsOnce sync.Once
)

type handlerDeps struct {
	engine    *engine.Engine
	store     *db.ThemeStore
	catalog   *catalog.Catalog
	adoptions *db.AdoptionStore
}

type previewRequest struct {
	Overrides  models.ThemeUpdate `json:"overrides"`
	TemplateID *string            `json:"templateId"`
}

type replaceRequest struct {
	Overrides  models.ThemeUpdate `json:"overrides"`
	TemplateID *string            `json:"templateId"`
}

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(eng *engine.Engine, store *db.ThemeStore, cat *catalog.Catalog, adoptions *db.AdoptionStore) {
	if eng == nil || store == nil || cat == nil {
		return
	}
	depsOnce.Do(func() {
		deps = &handlerDeps{engine: eng, store: store, catalog: cat, adoptions: adoptions}
	})
}

func loadDeps() *handlerDeps {
	return deps
}

// GET /api/v1/orgs/{org}/theme
func HandleThemeGet(w http.ResponseWriter, r *http.Request) {
	d, orgID, ok := handlerArgs(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), themeQueryTimeout)
	defer cancel()

	result, err := d.engine.ResolveForOrg(ctx, orgID)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Str("org_id", orgID).Msg("Failed to resolve theme")
		http.Error(w, "Failed to resolve theme", http.StatusInternalServerError)
		return
	}
	apiutil.WriteJSON(w, http.StatusOK, result)
}

// PUT /api/v1/orgs/{org}/theme
//
// Deep-partial update: the body is merged over the stored override
// document; sections the body does not touch survive unchanged.
func HandleThemeUpdate(w http.ResponseWriter, r *http.Request) {
	d, orgID, ok := handlerArgs(w, r)
	if !ok {
		return
	}

	update, ok := decodeUpdateBody(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), themeQueryTimeout)
	defer cancel()

	existing, err := d.store.Get(ctx, orgID)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Str("org_id", orgID).Msg("Failed to load stored theme")
		http.Error(w, "Failed to load stored theme", http.StatusInternalServerError)
		return
	}

	var (
		base       models.ThemeUpdate
		templateID *string
	)
	if existing != nil {
		base = existing.Overrides
		templateID = existing.TemplateID
	}

	d.saveAndRespond(w, r, orgID, templateID, resolver.MergeDocuments(base, update))
}

// POST /api/v1/orgs/{org}/theme/replace
//
// Full replace: the stored override document is discarded and the body
// becomes the new document.
func HandleThemeReplace(w http.ResponseWriter, r *http.Request) {
	d, orgID, ok := handlerArgs(w, r)
	if !ok {
		return
	}

	var req replaceRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Overrides == nil {
		req.Overrides = models.ThemeUpdate{}
	}
	if err := req.Overrides.ShapeCheck(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	d.saveAndRespond(w, r, orgID, req.TemplateID, req.Overrides)
}

// DELETE /api/v1/orgs/{org}/theme
func HandleThemeDelete(w http.ResponseWriter, r *http.Request) {
	d, orgID, ok := handlerArgs(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), themeQueryTimeout)
	defer cancel()

	existing, err := d.store.Get(ctx, orgID)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Str("org_id", orgID).Msg("Failed to load stored theme")
		http.Error(w, "Failed to load stored theme", http.StatusInternalServerError)
		return
	}
	if existing == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := d.store.Delete(ctx, orgID); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Str("org_id", orgID).Msg("Failed to delete stored theme")
		http.Error(w, "Failed to delete stored theme", http.StatusInternalServerError)
		return
	}
	d.engine.Invalidate(existing.ID)
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/v1/orgs/{org}/theme/preview
//
// Runs the body through the pipeline and applies it without persisting;
// the engine reverts automatically when the preview window expires.
func HandleThemePreview(w http.ResponseWriter, r *http.Request) {
	d, _, ok := handlerArgs(w, r)
	if !ok {
		return
	}

	var req previewRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Overrides == nil {
		req.Overrides = models.ThemeUpdate{}
	}
	if err := req.Overrides.ShapeCheck(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), themeQueryTimeout)
	defer cancel()

	result, err := d.engine.Preview(ctx, req.Overrides, req.TemplateID)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Preview failed")
		http.Error(w, "Preview failed", http.StatusUnprocessableEntity)
		return
	}
	apiutil.WriteJSON(w, http.StatusOK, result)
}

// DELETE /api/v1/orgs/{org}/theme/preview
func HandleThemePreviewCancel(w http.ResponseWriter, r *http.Request) {
	d, _, ok := handlerArgs(w, r)
	if !ok {
		return
	}
	d.engine.CancelPreview()
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/orgs/{org}/theme.css
func HandleThemeCSS(w http.ResponseWriter, r *http.Request) {
	d, orgID, ok := handlerArgs(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), themeQueryTimeout)
	defer cancel()

	result, err := d.engine.ResolveForOrg(ctx, orgID)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Str("org_id", orgID).Msg("Failed to resolve theme stylesheet")
		http.Error(w, "Failed to resolve theme stylesheet", http.StatusInternalServerError)
		return
	}

	css := result.CSS
	if r.URL.Query().Get("minify") == "1" {
		css = cssgen.MinifyCSS(css)
	}

	etag := fmt.Sprintf(`W/"%s@%d"`, result.Theme.ID, result.Theme.Version)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "private, max-age=300")
	io.WriteString(w, css)
}

// GET /api/v1/orgs/{org}/theme/validation
func HandleThemeValidation(w http.ResponseWriter, r *http.Request) {
	d, orgID, ok := handlerArgs(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), themeQueryTimeout)
	defer cancel()

	result, err := d.engine.ResolveForOrg(ctx, orgID)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Str("org_id", orgID).Msg("Failed to validate theme")
		http.Error(w, "Failed to validate theme", http.StatusInternalServerError)
		return
	}
	apiutil.WriteJSON(w, http.StatusOK, result.Validation)
}

// GET /api/v1/templates
func HandleTemplatesList(w http.ResponseWriter, r *http.Request) {
	d := loadDeps()
	if d == nil {
		log.Ctx(r.Context()).Error().Msg("Theme handlers not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	templates, err := d.catalog.List(r.Context())
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to list templates")
		http.Error(w, "Failed to list templates", http.StatusInternalServerError)
		return
	}
	apiutil.WriteJSON(w, http.StatusOK, templates)
}

// GET /api/v1/templates/{id}
func HandleTemplateGet(w http.ResponseWriter, r *http.Request) {
	d := loadDeps()
	if d == nil {
		log.Ctx(r.Context()).Error().Msg("Theme handlers not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	templateID := r.PathValue("id")
	tpl, err := d.catalog.GetByID(r.Context(), templateID)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Str("template_id", templateID).Msg("Failed to load template")
		http.Error(w, "Failed to load template", http.StatusInternalServerError)
		return
	}
	if tpl == nil {
		http.Error(w, "Template not found", http.StatusNotFound)
		return
	}
	apiutil.WriteJSON(w, http.StatusOK, tpl)
}

// POST /api/v1/orgs/{org}/theme/template/{id}
//
// Adopts a catalog template. Existing overrides are kept and continue to
// win over the new template base.
func HandleTemplateAdopt(w http.ResponseWriter, r *http.Request) {
	d, orgID, ok := handlerArgs(w, r)
	if !ok {
		return
	}

	templateID := r.PathValue("id")
	if templateID == "" {
		http.Error(w, "Missing template id", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), themeQueryTimeout)
	defer cancel()

	tpl, err := d.catalog.GetByID(ctx, templateID)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Str("template_id", templateID).Msg("Failed to load template")
		http.Error(w, "Failed to load template", http.StatusInternalServerError)
		return
	}
	if tpl == nil {
		http.Error(w, "Template not found", http.StatusNotFound)
		return
	}

	existing, err := d.store.Get(ctx, orgID)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Str("org_id", orgID).Msg("Failed to load stored theme")
		http.Error(w, "Failed to load stored theme", http.StatusInternalServerError)
		return
	}
	overrides := models.ThemeUpdate{}
	if existing != nil {
		overrides = existing.Overrides
	}

	if d.adoptions != nil {
		if err := d.adoptions.RecordAdoption(ctx, tpl.ID, orgID); err != nil {
			log.Ctx(r.Context()).Warn().Err(err).Str("template_id", tpl.ID).Msg("Failed to record template adoption")
		}
	}

	d.saveAndRespond(w, r, orgID, &tpl.ID, overrides)
}

func (d *handlerDeps) saveAndRespond(w http.ResponseWriter, r *http.Request, orgID string, templateID *string, overrides models.ThemeUpdate) {
	ctx, cancel := context.WithTimeout(r.Context(), themeQueryTimeout)
	defer cancel()

	record, err := d.store.Save(ctx, orgID, templateID, overrides)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Str("org_id", orgID).Msg("Failed to save theme")
		http.Error(w, "Failed to save theme", http.StatusInternalServerError)
		return
	}
	d.engine.Invalidate(record.ID)

	result, err := d.engine.ResolveForOrg(ctx, orgID)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Str("org_id", orgID).Msg("Saved theme failed to resolve")
		http.Error(w, "Saved theme failed to resolve", http.StatusInternalServerError)
		return
	}
	apiutil.WriteJSON(w, http.StatusOK, result)
}

func handlerArgs(w http.ResponseWriter, r *http.Request) (*handlerDeps, string, bool) {
	d := loadDeps()
	if d == nil {
		log.Ctx(r.Context()).Error().Msg("Theme handlers not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, "", false
	}
	orgID, ok := request.OrgIDFromRequest(r)
	if !ok {
		http.Error(w, "Invalid organization", http.StatusBadRequest)
		return nil, "", false
	}
	return d, orgID, true
}

func decodeUpdateBody(w http.ResponseWriter, r *http.Request) (models.ThemeUpdate, bool) {
	defer r.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxUpdateBodySize))
	if err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "Failed to read request body", Err: err})
		return nil, false
	}

	update, err := models.ParseThemeUpdate(raw)
	if err != nil {
		if errors.Is(err, models.ErrMalformedUpdate) {
			apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: err.Error()})
			return nil, false
		}
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "Invalid request body", Err: err})
		return nil, false
	}
	return update, true
}
