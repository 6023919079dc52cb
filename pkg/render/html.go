package render

import (
	"bytes"
	"context"
	"errors"

	"github.com/goliatone/go-formstate/pkg/definition"
	theme "github.com/goliatone/go-theme"
)

// HTMLName is the registry name of the HTML renderer.
const HTMLName = "html"

// HTMLOption configures an HTML renderer.
type HTMLOption func(*HTML)

// WithEngine replaces the default template engine.
func WithEngine(engine *Engine) HTMLOption {
	return func(h *HTML) {
		if engine != nil {
			h.engine = engine
		}
	}
}

// WithTemplate overrides the template name, "form" by default.
func WithTemplate(name string) HTMLOption {
	return func(h *HTML) {
		if name != "" {
			h.template = name
		}
	}
}

// WithThemeConfig attaches a resolved theme. A "forms.form" partial replaces
// the template name.
func WithThemeConfig(cfg *theme.RendererConfig) HTMLOption {
	return func(h *HTML) {
		h.theme = cfg
	}
}

// HTML renders forms to markup through the template engine.
type HTML struct {
	engine   *Engine
	template string
	theme    *theme.RendererConfig
}

// NewHTML builds the HTML renderer.
func NewHTML(opts ...HTMLOption) (*HTML, error) {
	h := &HTML{template: "form"}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	if h.engine == nil {
		engine, err := NewEngine()
		if err != nil {
			return nil, err
		}
		h.engine = engine
	}
	if h.theme != nil {
		if partial, ok := h.theme.Partials["forms.form"]; ok && partial != "" {
			h.template = partial
		}
	}
	return h, nil
}

func (h *HTML) Name() string        { return HTMLName }
func (h *HTML) ContentType() string { return "text/html; charset=utf-8" }

// Render executes the form template over the instance's current state.
func (h *HTML) Render(ctx context.Context, inst *definition.Instance, options RenderOptions) ([]byte, error) {
	if inst == nil || inst.Form == nil {
		return nil, errors.New("render: form instance is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	view := ViewOf(inst, options)
	view.Theme = themeView(h.theme)

	var buf bytes.Buffer
	if err := h.engine.RenderTemplate(h.template, view, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
