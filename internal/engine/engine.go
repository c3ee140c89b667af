// Package engine orchestrates the theming pipeline: resolve, validate,
// generate, cache, and apply or preview. It is the only surface callers
// use; the resolver, validator, and generator stay internal to it.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/veldtcms/veldt/internal/cssgen"
	"github.com/veldtcms/veldt/internal/models"
	"github.com/veldtcms/veldt/internal/resolver"
)

const (
	defaultCacheTTL      = 5 * time.Minute
	defaultPreviewWindow = 30 * time.Second
)

var (
	// ErrDisposed is returned by every operation after Dispose.
	ErrDisposed = errors.New("theme engine disposed")
	// ErrThemeInvalid is surfaced when validation is enforced and the
	// resolved theme carries blocking errors.
	ErrThemeInvalid = errors.New("resolved theme failed validation")
)

// ThemeStore loads persisted override documents. Persistence itself
// lives behind this contract; the engine never assumes a storage API.
type ThemeStore interface {
	Get(ctx context.Context, orgID string) (*models.ThemeRecord, error)
}

// TemplateCatalog resolves template references on stored records.
type TemplateCatalog interface {
	GetByID(ctx context.Context, id string) (*models.ThemeTemplate, error)
}

// StylesheetSink receives generated CSS on apply and preview. DOM
// injection, file writes, or test capture all hide behind it.
type StylesheetSink interface {
	Inject(css string) error
}

// State names the pipeline stage the engine last ran.
type State string

const (
	StateIdle       State = "idle"
	StateResolving  State = "resolving"
	StateValidating State = "validating"
	StateGenerating State = "generating"
	StateCached     State = "cached"
	StateApplied    State = "applied"
	StateError      State = "error"
)

// Config carries construction-time settings. Zero durations fall back to
// the defaults.
type Config struct {
	// CacheTTL bounds how long a resolved (theme, CSS) pair is served
	// without re-running the pipeline. Default 5 minutes.
	CacheTTL time.Duration
	// PreviewWindow is the auto-revert deadline for previews. Default 30
	// seconds.
	PreviewWindow time.Duration
	// Fallback is the platform-default theme applied when a pipeline or
	// sink failure would otherwise leave no active theme.
	Fallback models.OrganizationTheme
	// EnforceValidation makes Apply refuse themes with blocking
	// validation errors instead of applying them anyway.
	EnforceValidation bool
	// Clock is injectable for tests; nil uses the real clock.
	Clock clockwork.Clock
}

// Result is one pipeline output: the resolved theme with its lineage,
// the validation report, and the generated CSS.
type Result struct {
	Theme       models.OrganizationTheme     `json:"theme"`
	Inheritance resolver.Inheritance         `json:"inheritance"`
	Validation  models.ThemeValidationResult `json:"validation"`
	Variables   cssgen.CSSVariableMap        `json:"variables"`
	CSS         string                       `json:"css"`
	FromCache   bool                         `json:"fromCache"`
}

type cacheEntry struct {
	result    Result
	expiresAt time.Time
}

// Engine runs the theming pipeline for one deployment. Construct with
// New; always Dispose when done to release the revert timer.
type Engine struct {
	store    ThemeStore
	catalog  TemplateCatalog
	sink     StylesheetSink
	clock    clockwork.Clock
	ttl      time.Duration
	window   time.Duration
	enforce  bool
	fallback Result

	mu       sync.Mutex
	cache    map[string]cacheEntry
	active   *Result
	revert   clockwork.Timer
	state    State
	disposed bool
}

// New builds an engine. The fallback theme is run through the pipeline
// once up front; a fallback that cannot generate CSS is a construction
// error, because it is the one theme that must never fail later.
func New(cfg Config, store ThemeStore, catalog TemplateCatalog, sink StylesheetSink) (*Engine, error) {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	window := cfg.PreviewWindow
	if window <= 0 {
		window = defaultPreviewWindow
	}

	e := &Engine{
		store:   store,
		catalog: catalog,
		sink:    sink,
		clock:   clock,
		ttl:     ttl,
		window:  window,
		enforce: cfg.EnforceValidation,
		cache:   make(map[string]cacheEntry),
		state:   StateIdle,
	}

	fallback, err := e.run(nil, nil, cfg.Fallback)
	if err != nil {
		return nil, fmt.Errorf("fallback theme does not survive the pipeline: %w", err)
	}
	e.fallback = fallback
	return e, nil
}

// ResolveForOrg loads the organization's stored override, resolves it
// over its template and the platform defaults, and returns the cached
// pipeline result when the stored revision is unchanged.
func (e *Engine) ResolveForOrg(ctx context.Context, orgID string) (Result, error) {
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return Result{}, ErrDisposed
	}
	e.mu.Unlock()

	record, err := e.store.Get(ctx, orgID)
	if err != nil {
		return Result{}, fmt.Errorf("load override for org %s: %w", orgID, err)
	}
	if record == nil {
		// No customization: the organization runs platform defaults.
		result := e.fallback
		result.FromCache = true
		return result, nil
	}

	key := record.CacheKey()
	now := e.clock.Now()
	e.mu.Lock()
	if entry, ok := e.cache[key]; ok && now.Before(entry.expiresAt) {
		e.setStateLocked(StateCached)
		e.mu.Unlock()
		cached := entry.result
		cached.FromCache = true
		return cached, nil
	}
	e.mu.Unlock()

	var template *models.ThemeTemplate
	if record.TemplateID != nil {
		template, err = e.catalog.GetByID(ctx, *record.TemplateID)
		if err != nil {
			return Result{}, fmt.Errorf("load template %s: %w", *record.TemplateID, err)
		}
	}

	result, err := e.run(record.Overrides, template, e.fallback.Theme)
	if err != nil {
		return Result{}, err
	}
	result.Theme.ID = record.ID
	orgRef := record.OrganizationID
	result.Theme.OrganizationID = &orgRef
	result.Theme.Version = record.Version
	result.Theme.CreatedAt = record.CreatedAt
	result.Theme.UpdatedAt = record.UpdatedAt

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return Result{}, ErrDisposed
	}
	e.cache[key] = cacheEntry{result: result, expiresAt: now.Add(e.ttl)}
	e.setStateLocked(StateCached)
	return result, nil
}

// Apply resolves the organization's theme and pushes its CSS to the
// sink. On any failure the engine falls back to the platform-default
// theme so the application is never left without an active theme; the
// triggering error is still returned alongside the fallback result.
func (e *Engine) Apply(ctx context.Context, orgID string) (Result, error) {
	e.cancelRevert()

	result, err := e.ResolveForOrg(ctx, orgID)
	if err != nil {
		if errors.Is(err, ErrDisposed) {
			return Result{}, err
		}
		return e.applyFallback(err)
	}
	if e.enforce && !result.Validation.IsValid {
		return e.applyFallback(fmt.Errorf("%w: %d error(s)", ErrThemeInvalid, len(result.Validation.Errors)))
	}

	if err := e.inject(result.CSS); err != nil {
		return e.applyFallback(fmt.Errorf("stylesheet sink: %w", err))
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return Result{}, ErrDisposed
	}
	e.active = &result
	e.setStateLocked(StateApplied)
	return result, nil
}

// Preview runs an unsaved override through the pipeline and applies it
// temporarily. A revert timer restores the previously active theme when
// the window expires; a newer Apply or Preview cancels it first, so at
// most one revert is ever pending.
func (e *Engine) Preview(ctx context.Context, overrides models.ThemeUpdate, templateID *string) (Result, error) {
	e.cancelRevert()

	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return Result{}, ErrDisposed
	}
	previous := e.active
	e.mu.Unlock()

	var template *models.ThemeTemplate
	if templateID != nil {
		var err error
		template, err = e.catalog.GetByID(ctx, *templateID)
		if err != nil {
			return Result{}, fmt.Errorf("load template %s: %w", *templateID, err)
		}
	}

	result, err := e.run(overrides, template, e.fallback.Theme)
	if err != nil {
		return e.applyFallback(err)
	}
	if err := e.inject(result.CSS); err != nil {
		return e.applyFallback(fmt.Errorf("stylesheet sink: %w", err))
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return Result{}, ErrDisposed
	}
	e.active = &result
	e.setStateLocked(StateApplied)
	e.revert = e.clock.AfterFunc(e.window, func() {
		e.revertTo(previous)
	})
	return result, nil
}

// CancelPreview drops any pending revert without re-applying anything,
// keeping the previewed theme active.
func (e *Engine) CancelPreview() {
	e.cancelRevert()
}

// Invalidate removes every cached revision of the given theme id. Called
// after a persisted write; the entry is removed, never refreshed in
// place.
func (e *Engine) Invalidate(themeID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for key := range e.cache {
		if entryID, _, found := cutCacheKey(key); found && entryID == themeID {
			delete(e.cache, key)
		}
	}
}

// SweepExpired drops expired cache entries and reports how many were
// removed. Wired to the maintenance scheduler.
func (e *Engine) SweepExpired() int {
	now := e.clock.Now()
	e.mu.Lock()
	defer e.mu.Unlock()
	removed := 0
	for key, entry := range e.cache {
		if !now.Before(entry.expiresAt) {
			delete(e.cache, key)
			removed++
		}
	}
	return removed
}

// CacheLen reports the number of live cache entries.
func (e *Engine) CacheLen() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.cache)
}

// State reports the last pipeline stage reached.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Active returns the currently applied result, if any.
func (e *Engine) Active() *Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// Dispose cancels any pending revert and clears the cache. The engine
// rejects further work afterwards.
func (e *Engine) Dispose() {
	e.cancelRevert()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache = map[string]cacheEntry{}
	e.active = nil
	e.state = StateIdle
	e.disposed = true
}

func (e *Engine) applyFallback(cause error) (Result, error) {
	log.Warn().Err(cause).Msg("Theme pipeline failed, reverting to platform defaults")

	result := e.fallback
	if err := e.inject(result.CSS); err != nil {
		// The fallback stylesheet was validated at construction; a sink
		// that rejects it is reported but the engine still records the
		// fallback as active.
		log.Error().Err(err).Msg("Stylesheet sink rejected the fallback theme")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return Result{}, ErrDisposed
	}
	e.active = &result
	e.setStateLocked(StateError)
	return result, cause
}

func (e *Engine) revertTo(previous *Result) {
	target := previous
	if target == nil {
		fallback := e.fallback
		target = &fallback
	}
	if err := e.inject(target.CSS); err != nil {
		log.Error().Err(err).Msg("Stylesheet sink rejected the revert")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return
	}
	e.active = target
	e.revert = nil
	e.setStateLocked(StateApplied)
	log.Info().Str("theme_id", target.Theme.ID).Msg("Preview window expired, previous theme restored")
}

// cancelRevert enforces the one-pending-revert invariant: every apply or
// preview cancels the outstanding timer before doing anything else.
func (e *Engine) cancelRevert() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.revert != nil {
		e.revert.Stop()
		e.revert = nil
	}
}

func (e *Engine) inject(css string) error {
	if e.sink == nil {
		return nil
	}
	return e.sink.Inject(css)
}

func (e *Engine) setStateLocked(s State) {
	e.state = s
}

func cutCacheKey(key string) (id, version string, found bool) {
	for i := len(key) - 1; i >= 0; i-- {
		if key[i] == '@' {
			return key[:i], key[i+1:], true
		}
	}
	return "", "", false
}
