// internal/engine/pipeline.go
package engine

import (
	"github.com/veldtcms/veldt/internal/cssgen"
	"github.com/veldtcms/veldt/internal/models"
	"github.com/veldtcms/veldt/internal/resolver"
	"github.com/veldtcms/veldt/internal/validator"
)

// run executes the synchronous pipeline: resolve, validate, generate.
// Every stage is pure; only malformed input errors out. Validation
// findings are data, not failures.
func (e *Engine) run(overrides models.ThemeUpdate, template *models.ThemeTemplate, defaults models.OrganizationTheme) (Result, error) {
	e.setState(StateResolving)
	inheritance, err := resolver.Resolve(overrides, template, defaults)
	if err != nil {
		e.setState(StateError)
		return Result{}, err
	}

	e.setState(StateValidating)
	validation := validator.ValidateTheme(inheritance.Resolved)
	if template != nil {
		validation.Warnings = append(validation.Warnings,
			validator.ValidateAgainstTemplate(inheritance.Resolved, *template)...)
	}

	e.setState(StateGenerating)
	css, err := cssgen.GenerateThemeCSS(inheritance.Resolved)
	if err != nil {
		e.setState(StateError)
		return Result{}, err
	}

	return Result{
		Theme:       inheritance.Resolved,
		Inheritance: inheritance,
		Validation:  validation,
		Variables:   cssgen.GenerateVariables(inheritance.Resolved),
		CSS:         css,
	}, nil
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}
