package openapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-formstate/pkg/openapi"
)

func TestFetchSources(t *testing.T) {
	ctx := context.Background()

	dir := t.TempDir()
	path := filepath.Join(dir, "pets.yaml")
	if err := os.WriteFile(path, []byte(petstore), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := openapi.Fetch(ctx, path)
	if err != nil {
		t.Fatalf("fetch file: %v", err)
	}
	if string(data) != petstore {
		t.Fatalf("file payload mismatch")
	}

	files := fstest.MapFS{"specs/pets.yaml": {Data: []byte(petstore)}}
	if _, err := openapi.Fetch(ctx, "specs/pets.yaml", openapi.WithFileSystem(files)); err != nil {
		t.Fatalf("fetch fs: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/openapi.yaml" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(petstore))
	}))
	defer srv.Close()

	if _, err := openapi.Fetch(ctx, srv.URL+"/openapi.yaml"); err == nil {
		t.Fatalf("expected remote fetch to be disabled by default")
	}
	data, err = openapi.Fetch(ctx, srv.URL+"/openapi.yaml", openapi.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("fetch url: %v", err)
	}
	doc, err := openapi.Load(ctx, data)
	if err != nil {
		t.Fatalf("load fetched: %v", err)
	}
	if len(doc.Operations()) != 2 {
		t.Fatalf("expected two operations, got %v", doc.Operations())
	}
	if _, err := openapi.Fetch(ctx, srv.URL+"/missing", openapi.WithHTTPClient(srv.Client())); err == nil {
		t.Fatalf("expected status error")
	}
}
