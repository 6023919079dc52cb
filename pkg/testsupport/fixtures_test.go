package testsupport_test

import (
	"path/filepath"
	"testing"

	"github.com/goliatone/go-formstate/pkg/testsupport"
)

func TestWriteGoldenIsNoopWithoutFlag(t *testing.T) {
	t.Setenv("UPDATE_GOLDENS", "")
	path := filepath.Join(t.TempDir(), "out.json")
	if testsupport.WriteMaybeGolden(t, path, []byte("{}")) {
		t.Fatalf("expected no write without UPDATE_GOLDENS")
	}
}

func TestGoldenRoundTrip(t *testing.T) {
	t.Setenv("UPDATE_GOLDENS", "1")
	path := filepath.Join(t.TempDir(), "nested", "signup.json")

	def := testsupport.MustDefinition(t, "signup")
	testsupport.WriteGolden(t, path, def)

	got := testsupport.MustLoadDefinition(t, path)
	def.Source = ""
	if diff := testsupport.CompareGolden(def, got); diff != "" {
		t.Fatalf("definition mismatch (-want +got):\n%s", diff)
	}
}

func TestMustInstanceBuildsBundledForm(t *testing.T) {
	inst := testsupport.MustInstance(t, "contact")
	if got := inst.Form.Name(); got != "contact" {
		t.Fatalf("unexpected form name %q", got)
	}
	if len(inst.Controls()) != 3 {
		t.Fatalf("expected three controls, got %d", len(inst.Controls()))
	}
}
