package httpform_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/httpform"
	"github.com/goliatone/go-formstate/pkg/testsupport"
)

type response struct {
	Form   string              `json:"form"`
	Valid  bool                `json:"valid"`
	Values map[string]any      `json:"values"`
	Errors []form.RuleFailure  `json:"errors"`
	Fields map[string][]string `json:"fields"`
	Error  string              `json:"error"`
	Forms  []string            `json:"forms"`
}

type recordedRequest struct {
	method, route string
	status        int
}

type requestRecorder struct {
	mu    sync.Mutex
	calls []recordedRequest
}

func (r *requestRecorder) ObserveRequest(method, route string, status int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, recordedRequest{method: method, route: route, status: status})
}

func (r *requestRecorder) snapshot() []recordedRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedRequest(nil), r.calls...)
}

func newServer(t *testing.T, cfg httpform.Config) *httptest.Server {
	t.Helper()
	cfg.Source = httpform.StaticStore{S: testsupport.LoadStore(t)}
	handler, err := httpform.New(cfg)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	srv := httptest.NewServer(handler.Routes())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, target, body string) (int, response) {
	t.Helper()
	res, err := http.Post(target, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer res.Body.Close()
	var out response
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return res.StatusCode, out
}

func TestListForms(t *testing.T) {
	srv := newServer(t, httpform.Config{})
	res, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer res.Body.Close()
	var out response
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff([]string{"contact", "signup"}, out.Forms); diff != "" {
		t.Fatalf("forms mismatch (-want +got):\n%s", diff)
	}
}

func TestShowRendersHTMLAndUnknownFormIs404(t *testing.T) {
	recorder := &requestRecorder{}
	srv := newServer(t, httpform.Config{Requests: recorder})

	res, err := http.Get(srv.URL + "/signup")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(res.Body)
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	if !strings.HasPrefix(res.Header.Get("Content-Type"), "text/html") {
		t.Fatalf("unexpected content type %q", res.Header.Get("Content-Type"))
	}
	if !strings.Contains(string(body), `<form id="signup"`) {
		t.Fatalf("expected signup form in body:\n%s", body)
	}

	res, err = http.Get(srv.URL + "/missing")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	_, _ = io.ReadAll(res.Body)
	res.Body.Close()
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.StatusCode)
	}

	want := []recordedRequest{
		{method: "GET", route: "/{form}", status: 200},
		{method: "GET", route: "/{form}", status: 404},
	}
	if diff := cmp.Diff(want, recorder.snapshot(), cmp.AllowUnexported(recordedRequest{})); diff != "" {
		t.Fatalf("observed requests mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmitJSONRejectsInvalidValues(t *testing.T) {
	srv := newServer(t, httpform.Config{})

	status, out := postJSON(t, srv.URL+"/signup", `{"email":"ada@example","name":"Ada","age":"12"}`)
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", status)
	}
	want := map[string][]string{
		"email": {"must be a valid email address"},
		"age":   {"you must be 18 or older"},
	}
	if diff := cmp.Diff(want, out.Fields); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}
	if out.Valid {
		t.Fatalf("expected invalid response")
	}
}

func TestSubmitJSONDeliversValuesToSubmitFunc(t *testing.T) {
	var got map[string]any
	srv := newServer(t, httpform.Config{
		Submit: func(_ context.Context, formID string, values form.Values) (map[string][]string, error) {
			if formID != "signup" {
				t.Errorf("unexpected form id %q", formID)
			}
			got = values.Map()
			return nil, nil
		},
	})

	status, out := postJSON(t, srv.URL+"/signup", `{"email":"ada@example.com","name":"Ada","age":36,"plan":"pro"}`)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d (%+v)", status, out)
	}
	want := map[string]any{"email": "ada@example.com", "name": "Ada", "age": 36, "plan": "pro", "newsletter": false}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("submitted values mismatch (-want +got):\n%s", diff)
	}
	if !out.Valid {
		t.Fatalf("expected valid response, got %+v", out)
	}
}

func TestSubmitMapsServerErrors(t *testing.T) {
	srv := newServer(t, httpform.Config{
		Submit: func(context.Context, string, form.Values) (map[string][]string, error) {
			return map[string][]string{
				"/data/attributes/email": {"<b>already taken</b>"},
				"base":                   {"try again later"},
			}, nil
		},
	})

	status, out := postJSON(t, srv.URL+"/signup", `{"email":"ada@example.com","name":"Ada"}`)
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", status)
	}
	want := []form.RuleFailure{
		{Field: "email", Message: "already taken", Rule: "server"},
		{Message: "try again later", Rule: "server"},
	}
	if diff := cmp.Diff(want, out.Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmitJSONUnknownFieldIsBadRequest(t *testing.T) {
	srv := newServer(t, httpform.Config{})
	status, out := postJSON(t, srv.URL+"/signup", `{"email":"ada@example.com","nickname":"ada"}`)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	if !strings.Contains(out.Error, "nickname") {
		t.Fatalf("expected unknown field in error, got %q", out.Error)
	}
}

func TestSubmitFormEncodedWithCSRF(t *testing.T) {
	srv := newServer(t, httpform.Config{
		CSRFField: "_csrf",
		CSRFToken: func(*http.Request) string { return "secret" },
	})

	body := url.Values{
		"email": {"ada@example.com"},
		"name":  {"Ada"},
		"age":   {"forty"},
	}
	res, err := http.PostForm(srv.URL+"/signup", body)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 without token, got %d", res.StatusCode)
	}

	body.Set("_csrf", "secret")
	res, err = http.PostForm(srv.URL+"/signup", body)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	raw, _ := io.ReadAll(res.Body)
	res.Body.Close()
	if res.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", res.StatusCode)
	}
	html := string(raw)
	for _, want := range []string{
		`<input type="hidden" name="_csrf" value="secret">`,
		`must be a valid integer`,
		`value="ada@example.com"`,
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("expected %q in body:\n%s", want, html)
		}
	}
}

func TestValidateSingleField(t *testing.T) {
	srv := newServer(t, httpform.Config{})

	status, out := postJSON(t, srv.URL+"/contact/validate?field=email", `{"email":"nope"}`)
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", status)
	}
	want := map[string][]string{"email": {"must be a valid email address"}}
	if diff := cmp.Diff(want, out.Fields); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}

	status, out = postJSON(t, srv.URL+"/contact/validate?field=email", `{"email":"ada@example.com"}`)
	if status != http.StatusOK || !out.Valid {
		t.Fatalf("expected valid 200, got %d %+v", status, out)
	}
}
