package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLintBundledDefinitionsAreClean(t *testing.T) {
	files, err := collectFiles([]string{filepath.Join("..", "..", "pkg", "definition", "forms")})
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("expected bundled definition files")
	}
	violations, err := lintFiles(context.Background(), files)
	if err != nil {
		t.Fatalf("lint: %v", err)
	}
	if len(violations) != 0 {
		t.Fatalf("expected no violations, got %v", violations)
	}
}

func TestLintReportsProblems(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.yaml")
	second := filepath.Join(dir, "b.yaml")
	writeFile(t, first, `
forms:
  - id: order
    fields:
      - name: size
        type: select
        default: huge
        options: [small, large]
      - name: color
        type: select
      - name: note
        options: [x]
      - name: qty
        type: integer
        default: 0
        rules:
          - kind: min
            params:
              value: "1"
`)
	writeFile(t, second, `
forms:
  - id: order
    fields:
      - name: code
`)

	violations, err := lintFiles(context.Background(), []string{first, second})
	if err != nil {
		t.Fatalf("lint: %v", err)
	}
	got := make([]string, 0, len(violations))
	for _, v := range violations {
		got = append(got, v.location+" -> "+v.message)
	}
	want := []string{
		"form order field color -> choice field has no options",
		"form order field note -> options are ignored for type \"text\"",
		"form order field qty -> default fails rule min: must be at least 1",
		"form order field size -> default fails rule oneOf: must be one of small, large",
		"form order field size -> default huge is not one of the options",
		"form order -> form id already defined in " + first,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("violations mismatch (-want +got):\n%s", diff)
	}
}

func TestLintReportsParseErrors(t *testing.T) {
	violations, _ := lintDocument(context.Background(), "broken.yaml", []byte("forms: [\n"))
	if len(violations) != 1 || violations[0].location != "document" {
		t.Fatalf("expected one document violation, got %v", violations)
	}
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
