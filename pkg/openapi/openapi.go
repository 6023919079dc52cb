// Package openapi derives form definitions from the request body schema of
// an OpenAPI 3 operation.
package openapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formstate/pkg/definition"
	"github.com/goliatone/go-formstate/pkg/rules"
)

// Option configures document loading.
type Option func(*config)

type config struct {
	validate     bool
	externalRefs bool
	trigger      string
}

// WithValidation validates the document before extracting forms.
func WithValidation() Option {
	return func(c *config) {
		c.validate = true
	}
}

// WithExternalRefs allows $ref to point outside the document.
func WithExternalRefs() Option {
	return func(c *config) {
		c.externalRefs = true
	}
}

// WithValidateTrigger sets the trigger policy of derived forms.
func WithValidateTrigger(trigger string) Option {
	return func(c *config) {
		c.trigger = trigger
	}
}

// Document is a loaded OpenAPI document.
type Document struct {
	spec *openapi3.T
	cfg  config
}

// Load parses raw (JSON or YAML).
func Load(ctx context.Context, raw []byte, opts ...Option) (*Document, error) {
	if len(raw) == 0 {
		return nil, errors.New("openapi: document payload is empty")
	}
	var cfg config
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	loader := &openapi3.Loader{
		Context:               ctx,
		IsExternalRefsAllowed: cfg.externalRefs,
	}
	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	if cfg.validate {
		if err := spec.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return nil, fmt.Errorf("openapi: validate: %w", err)
		}
	}
	return &Document{spec: spec, cfg: cfg}, nil
}

// Operations lists operation IDs that carry a request body, sorted.
func (d *Document) Operations() []string {
	var ids []string
	d.eachOperation(func(id, _, _ string, op *openapi3.Operation) bool {
		if requestSchema(op) != nil {
			ids = append(ids, id)
		}
		return true
	})
	sort.Strings(ids)
	return ids
}

// Form derives the definition for operationID. Operations without an
// explicit id are addressed as "<method>:<path>" in lower case.
func (d *Document) Form(operationID string) (definition.Form, error) {
	var (
		found  *openapi3.Operation
		method string
		path   string
	)
	d.eachOperation(func(id, m, p string, op *openapi3.Operation) bool {
		if id != operationID {
			return true
		}
		found, method, path = op, m, p
		return false
	})
	if found == nil {
		return definition.Form{}, fmt.Errorf("openapi: operation %q not found", operationID)
	}
	schema := requestSchema(found)
	if schema == nil {
		return definition.Form{}, fmt.Errorf("openapi: operation %q has no request body schema", operationID)
	}

	def := definition.Form{
		ID:              operationID,
		Title:           firstNonEmpty(found.Summary, schema.Title, operationID),
		Description:     firstNonEmpty(found.Description, schema.Description),
		ValidateTrigger: d.cfg.trigger,
		Action:          method + " " + path,
		Source:          "openapi",
	}
	def.Fields = collectFields(schema, "")
	if len(def.Fields) == 0 {
		return definition.Form{}, fmt.Errorf("openapi: operation %q request schema has no properties", operationID)
	}
	return def, nil
}

// FromOperation loads raw and derives the form for operationID.
func FromOperation(ctx context.Context, raw []byte, operationID string, opts ...Option) (definition.Form, error) {
	doc, err := Load(ctx, raw, opts...)
	if err != nil {
		return definition.Form{}, err
	}
	return doc.Form(operationID)
}

func (d *Document) eachOperation(fn func(id, method, path string, op *openapi3.Operation) bool) {
	if d.spec == nil || d.spec.Paths == nil {
		return
	}
	paths := d.spec.Paths.Map()
	keys := make([]string, 0, len(paths))
	for key := range paths {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, path := range keys {
		item := paths[path]
		if item == nil {
			continue
		}
		for _, entry := range []struct {
			method string
			op     *openapi3.Operation
		}{
			{"POST", item.Post}, {"PUT", item.Put}, {"PATCH", item.Patch},
			{"GET", item.Get}, {"DELETE", item.Delete},
		} {
			if entry.op == nil {
				continue
			}
			id := entry.op.OperationID
			if id == "" {
				id = strings.ToLower(entry.method) + ":" + path
			}
			if !fn(id, entry.method, path, entry.op) {
				return
			}
		}
	}
}

func requestSchema(op *openapi3.Operation) *openapi3.Schema {
	if op == nil || op.RequestBody == nil || op.RequestBody.Value == nil {
		return nil
	}
	content := op.RequestBody.Value.Content
	for _, mediaType := range []string{"application/json", "application/x-www-form-urlencoded", "multipart/form-data"} {
		if mt, ok := content[mediaType]; ok && mt.Schema != nil && mt.Schema.Value != nil {
			return mt.Schema.Value
		}
	}
	return nil
}

func collectFields(schema *openapi3.Schema, prefix string) []definition.Field {
	if len(schema.Properties) == 0 {
		return nil
	}
	req := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		req[name] = true
	}

	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	var fields []definition.Field
	for _, name := range names {
		ref := schema.Properties[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		prop := ref.Value
		path := name
		if prefix != "" {
			path = prefix + "." + name
		}
		if schemaType(prop) == "object" {
			fields = append(fields, collectFields(prop, path)...)
			continue
		}
		if prop.ReadOnly {
			continue
		}
		fields = append(fields, convertField(path, prop, req[name]))
	}
	return fields
}

func convertField(name string, prop *openapi3.Schema, required bool) definition.Field {
	field := definition.Field{
		Name:     name,
		Label:    firstNonEmpty(prop.Title, name),
		Help:     prop.Description,
		Default:  prop.Default,
		Required: required,
		Type:     fieldType(prop),
	}
	if field.Type == definition.TypeSelect {
		field.Options = enumStrings(prop.Enum)
	}
	if field.Type == definition.TypeMultiSelect && prop.Items != nil && prop.Items.Value != nil {
		field.Options = enumStrings(prop.Items.Value.Enum)
	}
	field.Rules = constraintRules(prop)
	return field
}

func fieldType(prop *openapi3.Schema) string {
	switch schemaType(prop) {
	case "integer":
		return definition.TypeInteger
	case "number":
		return definition.TypeNumber
	case "boolean":
		return definition.TypeBoolean
	case "array":
		return definition.TypeMultiSelect
	}
	if len(prop.Enum) > 0 {
		return definition.TypeSelect
	}
	switch prop.Format {
	case "email":
		return definition.TypeEmail
	case "password":
		return definition.TypePassword
	case "textarea", "markdown":
		return definition.TypeTextarea
	}
	if prop.MaxLength != nil && *prop.MaxLength > 255 {
		return definition.TypeTextarea
	}
	return definition.TypeText
}

func constraintRules(prop *openapi3.Schema) []rules.Spec {
	var out []rules.Spec
	if prop.Min != nil {
		params := map[string]string{"value": formatFloat(*prop.Min)}
		if prop.ExclusiveMin {
			params["exclusive"] = "true"
		}
		out = append(out, rules.Spec{Kind: rules.KindMin, Params: params})
	}
	if prop.Max != nil {
		params := map[string]string{"value": formatFloat(*prop.Max)}
		if prop.ExclusiveMax {
			params["exclusive"] = "true"
		}
		out = append(out, rules.Spec{Kind: rules.KindMax, Params: params})
	}
	if prop.MinLength != 0 {
		out = append(out, rules.Spec{Kind: rules.KindMinLength, Params: map[string]string{
			"value": strconv.FormatUint(prop.MinLength, 10),
		}})
	}
	if prop.MaxLength != nil {
		out = append(out, rules.Spec{Kind: rules.KindMaxLength, Params: map[string]string{
			"value": strconv.FormatUint(*prop.MaxLength, 10),
		}})
	}
	if prop.Pattern != "" {
		out = append(out, rules.Spec{Kind: rules.KindPattern, Params: map[string]string{
			"pattern": prop.Pattern,
		}})
	}
	return out
}

func schemaType(prop *openapi3.Schema) string {
	if prop.Type == nil {
		if len(prop.Properties) > 0 {
			return "object"
		}
		return ""
	}
	values := prop.Type.Slice()
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func enumStrings(values []any) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, value := range values {
		out = append(out, fmt.Sprint(value))
	}
	return out
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
