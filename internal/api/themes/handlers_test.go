package themes

// NOTE: Tests cannot use t.Parallel() due to shared package state.

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/veldtcms/veldt/internal/catalog"
	"github.com/veldtcms/veldt/internal/db"
	"github.com/veldtcms/veldt/internal/engine"
	"github.com/veldtcms/veldt/internal/models"
)

func setupRouter(t *testing.T) *http.ServeMux {
	t.Helper()

	database, err := db.New(filepath.Join(t.TempDir(), "themes_test.db"))
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	store := db.NewThemeStore(database)
	adoptions := db.NewAdoptionStore(database)

	cat, err := catalog.Load()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	fallback, err := catalog.PlatformDefaults()
	if err != nil {
		t.Fatalf("load platform defaults: %v", err)
	}
	eng, err := engine.New(engine.Config{Fallback: fallback}, store, cat, nil)
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	t.Cleanup(eng.Dispose)

	deps = &handlerDeps{engine: eng, store: store, catalog: cat, adoptions: adoptions}
	t.Cleanup(func() { deps = nil })

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/orgs/{org}/theme", HandleThemeGet)
	mux.HandleFunc("PUT /api/v1/orgs/{org}/theme", HandleThemeUpdate)
	mux.HandleFunc("DELETE /api/v1/orgs/{org}/theme", HandleThemeDelete)
	mux.HandleFunc("POST /api/v1/orgs/{org}/theme/replace", HandleThemeReplace)
	mux.HandleFunc("POST /api/v1/orgs/{org}/theme/preview", HandleThemePreview)
	mux.HandleFunc("DELETE /api/v1/orgs/{org}/theme/preview", HandleThemePreviewCancel)
	mux.HandleFunc("GET /api/v1/orgs/{org}/theme.css", HandleThemeCSS)
	mux.HandleFunc("GET /api/v1/orgs/{org}/theme/validation", HandleThemeValidation)
	mux.HandleFunc("GET /api/v1/templates", HandleTemplatesList)
	mux.HandleFunc("GET /api/v1/templates/{id}", HandleTemplateGet)
	mux.HandleFunc("POST /api/v1/orgs/{org}/theme/template/{id}", HandleTemplateAdopt)
	return mux
}

func doRequest(t *testing.T, mux *http.ServeMux, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) engine.Result {
	t.Helper()
	var result engine.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v\n%s", err, rec.Body.String())
	}
	return result
}

func TestThemeUpdateMergesSections(t *testing.T) {
	mux := setupRouter(t)

	rec := doRequest(t, mux, http.MethodPut, "/api/v1/orgs/acme/theme",
		`{"colors": {"primary": "#336699"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("first PUT status = %d: %s", rec.Code, rec.Body.String())
	}
	result := decodeResult(t, rec)
	if result.Theme.Colors.Primary != "#336699" {
		t.Fatalf("primary = %q, want #336699", result.Theme.Colors.Primary)
	}
	if result.Theme.Version != 1 {
		t.Fatalf("version = %d, want 1", result.Theme.Version)
	}

	rec = doRequest(t, mux, http.MethodPut, "/api/v1/orgs/acme/theme",
		`{"typography": {"fontFamily": "Georgia, serif"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("second PUT status = %d: %s", rec.Code, rec.Body.String())
	}
	result = decodeResult(t, rec)
	if result.Theme.Colors.Primary != "#336699" {
		t.Fatal("second update dropped the earlier color override")
	}
	if result.Theme.Typography.FontFamily != "Georgia, serif" {
		t.Fatalf("fontFamily = %q", result.Theme.Typography.FontFamily)
	}
	if result.Theme.Version != 2 {
		t.Fatalf("version = %d, want 2", result.Theme.Version)
	}
}

func TestThemeUpdateRejectsMalformedBody(t *testing.T) {
	mux := setupRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{name: "unknown section", body: `{"bogus": {"x": "y"}}`},
		{name: "identity field", body: `{"colors": {"primary": "#fff"}, "id": "theme-1"}`},
		{name: "scalar section", body: `{"colors": "red"}`},
		{name: "not json", body: `{{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, mux, http.MethodPut, "/api/v1/orgs/acme/theme", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestThemeReplaceDiscardsPreviousOverrides(t *testing.T) {
	mux := setupRouter(t)

	rec := doRequest(t, mux, http.MethodPut, "/api/v1/orgs/acme/theme",
		`{"colors": {"primary": "#336699"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT status = %d", rec.Code)
	}

	rec = doRequest(t, mux, http.MethodPost, "/api/v1/orgs/acme/theme/replace",
		`{"overrides": {"typography": {"fontFamily": "Georgia, serif"}}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("replace status = %d: %s", rec.Code, rec.Body.String())
	}
	result := decodeResult(t, rec)
	if result.Theme.Colors.Primary != "#1f2937" {
		t.Fatalf("primary = %q, want platform default after replace", result.Theme.Colors.Primary)
	}
	if result.Theme.Typography.FontFamily != "Georgia, serif" {
		t.Fatalf("fontFamily = %q", result.Theme.Typography.FontFamily)
	}
}

func TestThemeDeleteRestoresDefaults(t *testing.T) {
	mux := setupRouter(t)

	rec := doRequest(t, mux, http.MethodPut, "/api/v1/orgs/acme/theme",
		`{"colors": {"primary": "#336699"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT status = %d", rec.Code)
	}

	rec = doRequest(t, mux, http.MethodDelete, "/api/v1/orgs/acme/theme", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("DELETE status = %d", rec.Code)
	}

	rec = doRequest(t, mux, http.MethodGet, "/api/v1/orgs/acme/theme", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET status = %d", rec.Code)
	}
	result := decodeResult(t, rec)
	if result.Theme.Colors.Primary != "#1f2937" {
		t.Fatalf("primary = %q, want platform default after delete", result.Theme.Colors.Primary)
	}

	// Deleting again is a no-op, not an error.
	rec = doRequest(t, mux, http.MethodDelete, "/api/v1/orgs/acme/theme", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("second DELETE status = %d", rec.Code)
	}
}

func TestThemeCSSEndpoint(t *testing.T) {
	mux := setupRouter(t)

	rec := doRequest(t, mux, http.MethodPut, "/api/v1/orgs/acme/theme",
		`{"colors": {"primary": "#336699"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT status = %d", rec.Code)
	}

	rec = doRequest(t, mux, http.MethodGet, "/api/v1/orgs/acme/theme.css", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("CSS status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/css") {
		t.Fatalf("Content-Type = %q", got)
	}
	plain := rec.Body.String()
	if !strings.Contains(plain, "--theme-primary: #336699;") {
		t.Fatal("stylesheet missing the override variable")
	}
	etag := rec.Header().Get("ETag")
	if etag == "" {
		t.Fatal("missing ETag header")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orgs/acme/theme.css", nil)
	req.Header.Set("If-None-Match", etag)
	cached := httptest.NewRecorder()
	mux.ServeHTTP(cached, req)
	if cached.Code != http.StatusNotModified {
		t.Fatalf("conditional GET status = %d, want 304", cached.Code)
	}

	rec = doRequest(t, mux, http.MethodGet, "/api/v1/orgs/acme/theme.css?minify=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("minified CSS status = %d", rec.Code)
	}
	minified := rec.Body.String()
	if len(minified) >= len(plain) {
		t.Fatalf("minified output (%d bytes) not smaller than plain (%d bytes)", len(minified), len(plain))
	}
	if !strings.Contains(minified, "--theme-primary") {
		t.Fatal("minified stylesheet missing the override variable")
	}
}

func TestThemeValidationEndpoint(t *testing.T) {
	mux := setupRouter(t)

	rec := doRequest(t, mux, http.MethodGet, "/api/v1/orgs/acme/theme/validation", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("validation status = %d", rec.Code)
	}
	var report models.ThemeValidationResult
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode validation report: %v", err)
	}
	if !report.IsValid {
		t.Fatalf("platform defaults reported invalid: %+v", report.Errors)
	}
}

func TestThemePreviewAndCancel(t *testing.T) {
	mux := setupRouter(t)

	rec := doRequest(t, mux, http.MethodPost, "/api/v1/orgs/acme/theme/preview",
		`{"overrides": {"colors": {"primary": "#ff0000"}}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("preview status = %d: %s", rec.Code, rec.Body.String())
	}
	result := decodeResult(t, rec)
	if result.Theme.Colors.Primary != "#ff0000" {
		t.Fatalf("previewed primary = %q", result.Theme.Colors.Primary)
	}

	active := deps.engine.Active()
	if active == nil || active.Theme.Colors.Primary != "#ff0000" {
		t.Fatal("preview did not become the active theme")
	}

	rec = doRequest(t, mux, http.MethodDelete, "/api/v1/orgs/acme/theme/preview", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("cancel status = %d", rec.Code)
	}
}

func TestTemplatesListAndAdopt(t *testing.T) {
	mux := setupRouter(t)

	rec := doRequest(t, mux, http.MethodGet, "/api/v1/templates", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var templates []models.ThemeTemplate
	if err := json.Unmarshal(rec.Body.Bytes(), &templates); err != nil {
		t.Fatalf("decode templates: %v", err)
	}
	if len(templates) == 0 {
		t.Fatal("catalog returned no templates")
	}

	rec = doRequest(t, mux, http.MethodPost, "/api/v1/orgs/acme/theme/template/no-such-template", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("adopt unknown template status = %d, want 404", rec.Code)
	}

	// Overrides set before adoption keep winning over the template base.
	rec = doRequest(t, mux, http.MethodPut, "/api/v1/orgs/acme/theme",
		`{"colors": {"accent": "#ff00ff"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT status = %d", rec.Code)
	}

	rec = doRequest(t, mux, http.MethodPost, "/api/v1/orgs/acme/theme/template/template-midnight", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("adopt status = %d: %s", rec.Code, rec.Body.String())
	}
	result := decodeResult(t, rec)
	if result.Theme.TemplateID == nil || *result.Theme.TemplateID != "template-midnight" {
		t.Fatalf("templateId = %v, want template-midnight", result.Theme.TemplateID)
	}
	if result.Theme.Colors.Accent != "#ff00ff" {
		t.Fatalf("accent = %q, org override must win over template", result.Theme.Colors.Accent)
	}
}

func TestTemplateGetByID(t *testing.T) {
	mux := setupRouter(t)

	rec := doRequest(t, mux, http.MethodGet, "/api/v1/templates/template-midnight", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d: %s", rec.Code, rec.Body.String())
	}
	var tpl models.ThemeTemplate
	if err := json.Unmarshal(rec.Body.Bytes(), &tpl); err != nil {
		t.Fatalf("decode template: %v", err)
	}
	if tpl.ID != "template-midnight" {
		t.Fatalf("template id = %q, want template-midnight", tpl.ID)
	}
	if tpl.Name == "" {
		t.Fatal("template name is empty")
	}

	rec = doRequest(t, mux, http.MethodGet, "/api/v1/templates/no-such-template", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing template status = %d, want 404", rec.Code)
	}
}

func TestInvalidOrgSlugRejected(t *testing.T) {
	mux := setupRouter(t)

	rec := doRequest(t, mux, http.MethodGet, "/api/v1/orgs/Not%20Valid/theme", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
