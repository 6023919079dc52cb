// Package testsupport holds fixtures and golden-file helpers shared by tests.
package testsupport

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/definition"
	"github.com/goliatone/go-formstate/pkg/form"
)

// LoadStore loads the bundled sample definitions.
func LoadStore(t *testing.T) *definition.Store {
	t.Helper()

	store, err := definition.LoadFS(definition.EmbeddedFS())
	if err != nil {
		t.Fatalf("load definitions: %v", err)
	}
	return store
}

// MustDefinition returns the bundled definition called id.
func MustDefinition(t *testing.T, id string) definition.Form {
	t.Helper()

	def, ok := LoadStore(t).Form(id)
	if !ok {
		t.Fatalf("definition %q missing", id)
	}
	return def
}

// MustInstance builds the bundled definition called id and closes it when the
// test ends.
func MustInstance(t *testing.T, id string, opts ...form.Option) *definition.Instance {
	t.Helper()

	inst, err := definition.Build(MustDefinition(t, id), nil, opts...)
	if err != nil {
		t.Fatalf("build %q: %v", id, err)
	}
	t.Cleanup(inst.Close)
	return inst
}

// MustLoadDefinition loads a JSON golden file into a definition.
func MustLoadDefinition(t *testing.T, path string) definition.Form {
	t.Helper()

	def, err := LoadDefinition(path)
	if err != nil {
		t.Fatalf("load definition: %v", err)
	}
	return def
}

// LoadDefinition reads a single-form JSON fixture, returning an error for
// callers managing setup outside of *testing.T.
func LoadDefinition(path string) (definition.Form, error) {
	if path == "" {
		return definition.Form{}, errors.New("testsupport: definition path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return definition.Form{}, fmt.Errorf("testsupport: read definition: %w", err)
	}
	var out definition.Form
	if err := json.Unmarshal(data, &out); err != nil {
		return definition.Form{}, fmt.Errorf("testsupport: unmarshal definition: %w", err)
	}
	return out, nil
}

// WriteGolden writes value as indented JSON when UPDATE_GOLDENS is set.
func WriteGolden(t *testing.T, path string, value any) {
	t.Helper()

	if os.Getenv("UPDATE_GOLDENS") == "" {
		return
	}
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		t.Fatalf("marshal golden: %v", err)
	}
	WriteMaybeGolden(t, path, append(payload, '\n'))
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written.
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()

	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any, opts ...cmp.Option) string {
	return cmp.Diff(want, got, opts...)
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}
