// Package formstate is the convenience entry point for the form state
// packages: load definitions, build instances, render them and serve them.
package formstate

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/goliatone/go-formstate/pkg/definition"
	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/httpform"
	"github.com/goliatone/go-formstate/pkg/openapi"
	"github.com/goliatone/go-formstate/pkg/render"
	"github.com/goliatone/go-formstate/pkg/rules"
	theme "github.com/goliatone/go-theme"
)

// Values aliases form.Values so callers can hold snapshots without importing
// the form package.
type Values = form.Values

// ErrorList aliases form.ErrorList.
type ErrorList = form.ErrorList

// RenderOptions describes per-request overrides that renderers use to prefill
// values or surface server-side errors.
type RenderOptions = render.RenderOptions

// Instance aliases definition.Instance.
type Instance = definition.Instance

// LoadDefinitions reads the definitions at path. An empty path loads the
// bundled sample forms.
func LoadDefinitions(path string) (*definition.Store, error) {
	if path == "" {
		return definition.LoadFS(definition.EmbeddedFS())
	}
	return definition.LoadPath(path)
}

// Build mounts def as a live form instance using the default rule registry.
func Build(def definition.Form, options ...form.Option) (*Instance, error) {
	return definition.Build(def, rules.Default(), options...)
}

// BuildFromOpenAPI derives the form for operationID from an OpenAPI document
// and mounts it.
func BuildFromOpenAPI(ctx context.Context, raw []byte, operationID string, options ...form.Option) (*Instance, error) {
	def, err := openapi.FromOperation(ctx, raw, operationID)
	if err != nil {
		return nil, err
	}
	return Build(def, options...)
}

// GenerateHTML builds the form identified by formID from store and renders
// it with the built-in HTML renderer.
func GenerateHTML(ctx context.Context, store *definition.Store, formID string, options RenderOptions, htmlOptions ...render.HTMLOption) ([]byte, error) {
	def, ok := store.Form(formID)
	if !ok {
		return nil, fmt.Errorf("formstate: form %q not found", formID)
	}
	inst, err := Build(def, form.WithScheduler(form.Immediate))
	if err != nil {
		return nil, err
	}
	defer inst.Close()

	html, err := render.NewHTML(htmlOptions...)
	if err != nil {
		return nil, err
	}
	return html.Render(ctx, inst, options)
}

// WithTheme resolves name and variant through selector and returns the HTML
// option carrying the resulting renderer config.
func WithTheme(selector theme.ThemeSelector, name, variant string) (render.HTMLOption, error) {
	cfg, err := render.ThemeConfig(selector, name, variant)
	if err != nil {
		return nil, err
	}
	return render.WithThemeConfig(cfg), nil
}

// NewHandler exposes the HTTP binding from the top-level package.
func NewHandler(cfg httpform.Config) (*httpform.Handler, error) {
	return httpform.New(cfg)
}

// EmbeddedTemplates exposes the built-in HTML templates so callers can reuse
// or extend them without importing the render package directly.
func EmbeddedTemplates() fs.FS {
	return render.TemplatesFS()
}
