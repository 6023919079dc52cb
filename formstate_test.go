package formstate

import (
	"context"
	"io/fs"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/form"
)

func TestLoadDefinitionsDefaultsToSamples(t *testing.T) {
	store, err := LoadDefinitions("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff([]string{"contact", "signup"}, store.IDs()); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildValidatesWithDefaultRules(t *testing.T) {
	store, err := LoadDefinitions("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	def, _ := store.Form("signup")
	inst, err := Build(def, form.WithScheduler(form.Immediate))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer inst.Close()

	_, err = inst.Form.Controller().Validate(context.Background())
	list, ok := form.AsErrorList(err)
	if !ok {
		t.Fatalf("expected error list, got %v", err)
	}
	if diff := cmp.Diff([]string{"email", "name"}, list.Fields()); diff != "" {
		t.Fatalf("failing fields mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateHTML(t *testing.T) {
	store, err := LoadDefinitions("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	out, err := GenerateHTML(context.Background(), store, "contact", RenderOptions{
		Values: map[string]any{"email": "ada@example.com"},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := string(out)
	for _, want := range []string{`value="ada@example.com"`, "Contact us"} {
		if !strings.Contains(html, want) {
			t.Errorf("expected %q in output", want)
		}
	}

	if _, err := GenerateHTML(context.Background(), store, "missing", RenderOptions{}); err == nil {
		t.Fatal("expected error for unknown form")
	}
}

func TestEmbeddedTemplates(t *testing.T) {
	if _, err := fs.ReadFile(EmbeddedTemplates(), "form.tmpl"); err != nil {
		t.Fatalf("expected form template: %v", err)
	}
}
