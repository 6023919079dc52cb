// Package httpform serves form definitions over HTTP. Every request works on
// a fresh form instance built from the current definition store.
package httpform

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-formstate/pkg/definition"
	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/render"
	"github.com/goliatone/go-formstate/pkg/rules"
)

// StoreSource yields the current definition store. definition.Holder
// satisfies it.
type StoreSource interface {
	Store() *definition.Store
}

// StaticStore adapts a fixed store to StoreSource.
type StaticStore struct{ S *definition.Store }

// Store returns the wrapped store.
func (s StaticStore) Store() *definition.Store { return s.S }

// RequestObserver receives per-request measurements.
type RequestObserver interface {
	ObserveRequest(method, route string, status int, duration time.Duration)
}

// SubmitFunc processes validated values server-side. A non-empty payload
// rejects the submission: keys are field paths and unknown paths become
// form-level messages.
type SubmitFunc func(ctx context.Context, formID string, values form.Values) (map[string][]string, error)

// Config wires the handler.
type Config struct {
	Source   StoreSource
	Rules    *rules.Registry
	Renderer render.Renderer
	Observer form.Observer
	Requests RequestObserver
	Submit   SubmitFunc
	Logger   zerolog.Logger

	// CSRFField names the hidden token input. When set together with
	// CSRFToken, rendered forms carry the token and url-encoded submissions
	// must echo it.
	CSRFField string
	CSRFToken func(r *http.Request) string
}

// Handler serves the form routes.
type Handler struct {
	cfg Config
}

// New builds a handler. A nil renderer uses the bundled HTML renderer.
func New(cfg Config) (*Handler, error) {
	if cfg.Source == nil {
		return nil, errors.New("httpform: store source is required")
	}
	if cfg.Rules == nil {
		cfg.Rules = rules.Default()
	}
	if cfg.Renderer == nil {
		html, err := render.NewHTML()
		if err != nil {
			return nil, fmt.Errorf("httpform: default renderer: %w", err)
		}
		cfg.Renderer = html
	}
	return &Handler{cfg: cfg}, nil
}

// Routes returns the form router, suitable for mounting under a prefix:
//
//	GET  /                 list form ids
//	GET  /{form}           render the form
//	POST /{form}           validate and submit
//	POST /{form}/validate  validate without submitting
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.observe)

	r.Get("/", h.list)
	r.Get("/{form}", h.show)
	r.Post("/{form}", h.submit)
	r.Post("/{form}/validate", h.validate)
	return r
}

type listResponse struct {
	Forms []string `json:"forms"`
}

type formResponse struct {
	Form   string              `json:"form"`
	Valid  bool                `json:"valid"`
	Values form.Values         `json:"values"`
	Errors form.ErrorList      `json:"errors,omitempty"`
	Fields map[string][]string `json:"fields,omitempty"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ids := []string{}
	if store := h.cfg.Source.Store(); store != nil {
		ids = store.IDs()
	}
	writeJSON(w, http.StatusOK, listResponse{Forms: ids})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.instance(w, r)
	if !ok {
		return
	}
	defer inst.Close()
	h.renderHTML(w, r, inst, http.StatusOK)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	var (
		submitted *form.SubmitEvent
		rejected  form.ErrorList
	)
	inst, ok := h.instance(w, r,
		form.OnSubmit(func(evt form.SubmitEvent) { submitted = &evt }),
		form.OnValidate(func(list form.ErrorList) { rejected = list }),
	)
	if !ok {
		return
	}
	defer inst.Close()

	ctx := r.Context()
	log := h.logger(r)

	if !h.bindAndCheck(w, r, inst) {
		return
	}

	inst.Form.HandleSubmit(ctx, form.SubmitEvent{})
	if submitted == nil {
		if ctx.Err() != nil {
			log.Warn().Err(ctx.Err()).Msg("submit aborted")
			writeError(w, http.StatusServiceUnavailable, ctx.Err().Error())
			return
		}
		log.Debug().Int("failures", len(rejected)).Msg("submit rejected")
		h.respond(w, r, inst, http.StatusUnprocessableEntity)
		return
	}

	if h.cfg.Submit != nil {
		payload, err := h.cfg.Submit(ctx, inst.Definition.ID, submitted.Detail.Value)
		if err != nil {
			log.Error().Err(err).Msg("submit handler failed")
			writeError(w, http.StatusInternalServerError, "submission failed")
			return
		}
		if len(payload) > 0 {
			mapping := form.MapErrorPayload(inst.Definition.Names(), sanitizePayload(payload))
			inst.Form.Controller().SetErrors(mapping.List())
			h.respond(w, r, inst, http.StatusUnprocessableEntity)
			return
		}
	}
	h.respond(w, r, inst, http.StatusOK)
}

// validate checks the posted values. With ?field=name only that field is
// validated.
func (h *Handler) validate(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.instance(w, r)
	if !ok {
		return
	}
	defer inst.Close()
	if !h.bindAndCheck(w, r, inst) {
		return
	}

	ctx := r.Context()
	ctrl := inst.Form.Controller()
	if field := r.URL.Query().Get("field"); field != "" {
		if _, err := ctrl.ValidateField(ctx, field); err != nil {
			h.validationError(w, r, err)
			return
		}
	} else if _, err := ctrl.Validate(ctx); err != nil {
		if _, isList := form.AsErrorList(err); !isList {
			h.validationError(w, r, err)
			return
		}
	}

	status := http.StatusOK
	if len(ctrl.Errors()) > 0 {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, responseFor(inst))
}

func (h *Handler) validationError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, form.ErrUnknownField) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	log := h.logger(r)
	log.Warn().Err(err).Msg("validation aborted")
	writeError(w, http.StatusServiceUnavailable, err.Error())
}

// bindAndCheck applies the request body and writes an error response when it
// cannot. Coercion failures are recorded as field errors and answered with
// 422.
func (h *Handler) bindAndCheck(w http.ResponseWriter, r *http.Request, inst *definition.Instance) bool {
	failures, err := h.bind(w, r, inst)
	switch {
	case errors.Is(err, errCSRF):
		writeError(w, http.StatusForbidden, err.Error())
		return false
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	case len(failures) > 0:
		inst.Form.Controller().SetErrors(failures)
		h.respond(w, r, inst, http.StatusUnprocessableEntity)
		return false
	}
	return true
}

// instance builds a fresh form for the {form} URL parameter, answering 404
// when it is unknown.
func (h *Handler) instance(w http.ResponseWriter, r *http.Request, opts ...form.Option) (*definition.Instance, bool) {
	id := chi.URLParam(r, "form")
	store := h.cfg.Source.Store()
	if store == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("form %q not found", id))
		return nil, false
	}
	def, ok := store.Form(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("form %q not found", id))
		return nil, false
	}

	base := []form.Option{
		form.WithScheduler(form.Immediate),
		form.WithFormLogger(h.logger(r)),
	}
	if h.cfg.Observer != nil {
		base = append(base, form.WithFormObserver(h.cfg.Observer))
	}
	inst, err := definition.Build(def, h.cfg.Rules, append(base, opts...)...)
	if err != nil {
		log := h.logger(r)
		log.Error().Err(err).Str("form", id).Msg("build form")
		writeError(w, http.StatusInternalServerError, "form definition is invalid")
		return nil, false
	}
	return inst, true
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, inst *definition.Instance, status int) {
	if wantsJSON(r) {
		writeJSON(w, status, responseFor(inst))
		return
	}
	h.renderHTML(w, r, inst, status)
}

func (h *Handler) renderHTML(w http.ResponseWriter, r *http.Request, inst *definition.Instance, status int) {
	options := render.RenderOptions{}
	if h.csrfEnabled() {
		options.Hidden = append(options.Hidden, render.CSRFToken(h.cfg.CSRFField, h.cfg.CSRFToken(r)))
	}
	out, err := h.cfg.Renderer.Render(r.Context(), inst, options)
	if err != nil {
		log := h.logger(r)
		log.Error().Err(err).Msg("render form")
		writeError(w, http.StatusInternalServerError, "render failed")
		return
	}
	w.Header().Set("Content-Type", h.cfg.Renderer.ContentType())
	w.WriteHeader(status)
	_, _ = w.Write(out)
}

func (h *Handler) csrfEnabled() bool {
	return h.cfg.CSRFField != "" && h.cfg.CSRFToken != nil
}

func (h *Handler) logger(r *http.Request) zerolog.Logger {
	return h.cfg.Logger.With().
		Str("request_id", middleware.GetReqID(r.Context())).
		Str("form", chi.URLParam(r, "form")).
		Logger()
}

func (h *Handler) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		if h.cfg.Requests != nil {
			h.cfg.Requests.ObserveRequest(r.Method, route, ww.Status(), time.Since(start))
		}
		h.cfg.Logger.Debug().
			Str("method", r.Method).
			Str("route", route).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}

func responseFor(inst *definition.Instance) formResponse {
	ctrl := inst.Form.Controller()
	list := ctrl.Errors()
	return formResponse{
		Form:   inst.Definition.ID,
		Valid:  len(list) == 0,
		Values: ctrl.Values(),
		Errors: list,
		Fields: fieldMessages(list),
	}
}

func fieldMessages(list form.ErrorList) map[string][]string {
	if len(list) == 0 {
		return nil
	}
	out := map[string][]string{}
	for _, failure := range list {
		if failure.Field == "" {
			continue
		}
		out[failure.Field] = append(out[failure.Field], failure.Message)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
