package httpform

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/goliatone/go-formstate/pkg/definition"
	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/rules"
)

const maxBodyBytes = 1 << 20

var errCSRF = errors.New("httpform: invalid csrf token")

// bind reads the request body into the instance's controller. JSON bodies
// must only name known fields; url-encoded bodies ignore extra inputs such as
// submit buttons. Values that do not fit their field type come back as
// failures instead of an error.
func (h *Handler) bind(w http.ResponseWriter, r *http.Request, inst *definition.Instance) (form.ErrorList, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if isJSON(r.Header.Get("Content-Type")) {
		return h.bindJSON(r, inst)
	}
	return h.bindForm(r, inst)
}

func (h *Handler) bindJSON(r *http.Request, inst *definition.Instance) (form.ErrorList, error) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("httpform: read body: %w", err)
	}
	payload := map[string]any{}
	if len(strings.TrimSpace(string(raw))) > 0 {
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, fmt.Errorf("httpform: decode body: %w", err)
		}
	}

	var failures form.ErrorList
	values := make(map[string]any, len(payload))
	for name, value := range payload {
		field, ok := inst.Definition.Field(name)
		if !ok {
			values[name] = value
			continue
		}
		coerced, err := coerceJSON(field, value)
		if err != nil {
			failures = append(failures, typeFailure(field))
			continue
		}
		values[name] = coerced
	}
	if err := inst.Form.Controller().SetValues(r.Context(), values); err != nil {
		return nil, err
	}
	return ordered(failures, inst.Definition.Names()), nil
}

func (h *Handler) bindForm(r *http.Request, inst *definition.Instance) (form.ErrorList, error) {
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("httpform: parse form: %w", err)
	}
	if h.csrfEnabled() {
		if got := r.PostForm.Get(h.cfg.CSRFField); got == "" || got != h.cfg.CSRFToken(r) {
			return nil, errCSRF
		}
	}

	var failures form.ErrorList
	values := make(map[string]any, len(inst.Definition.Fields))
	for _, field := range inst.Definition.Fields {
		raws, present := r.PostForm[field.Name]
		if !present && field.Type != definition.TypeBoolean && field.Type != definition.TypeMultiSelect {
			continue
		}
		coerced, err := field.Coerce(raws...)
		if err != nil {
			failures = append(failures, typeFailure(field))
			continue
		}
		if s, ok := coerced.(string); ok && s == "" {
			coerced = nil
		}
		values[field.Name] = coerced
	}
	if err := inst.Form.Controller().SetValues(r.Context(), values); err != nil {
		return nil, err
	}
	return failures, nil
}

// coerceJSON converts textual JSON input for typed fields; other values pass
// through unchanged.
func coerceJSON(field definition.Field, value any) (any, error) {
	switch typed := value.(type) {
	case string:
		switch field.Type {
		case definition.TypeNumber, definition.TypeInteger, definition.TypeBoolean, definition.TypeMultiSelect:
			return field.Coerce(typed)
		}
	case float64:
		if field.Type == definition.TypeInteger {
			if typed != float64(int(typed)) {
				return nil, fmt.Errorf("not an integer")
			}
			return int(typed), nil
		}
	}
	return value, nil
}

func typeFailure(field definition.Field) form.RuleFailure {
	return form.RuleFailure{
		Field:   field.Name,
		Message: fmt.Sprintf("must be a valid %s", field.Type),
		Rule:    "type",
	}
}

func ordered(list form.ErrorList, names []string) form.ErrorList {
	if len(list) < 2 {
		return list
	}
	out := make(form.ErrorList, 0, len(list))
	for _, name := range names {
		out = append(out, list.For(name)...)
	}
	return out
}

// sanitizePayload reduces server messages to plain text.
func sanitizePayload(payload map[string][]string) map[string][]string {
	out := make(map[string][]string, len(payload))
	for key, messages := range payload {
		clean := make([]string, 0, len(messages))
		for _, message := range messages {
			clean = append(clean, rules.Sanitize(message))
		}
		out[key] = clean
	}
	return out
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	return isJSON(r.Header.Get("Content-Type"))
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
