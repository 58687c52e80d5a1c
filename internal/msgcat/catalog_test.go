package msgcat

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEmbeddedDefaultsLoad(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err := c.Render("coach.degraded_report", map[string]string{"Reason": "agent offline"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, "agent offline") {
		t.Fatalf("reason not substituted:\n%s", out)
	}
	if !strings.Contains(out, "[MENTAL_STATE_CHECK]") {
		t.Fatalf("degraded report missing section header:\n%s", out)
	}
}

func TestRenderMissingKey(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.Render("coach.no_such_key", nil); err == nil {
		t.Fatalf("expected error for missing key")
	}
}

func TestOverrideDirectory(t *testing.T) {
	dir := t.TempDir()
	content := "coach:\n  degraded_report: \"custom {{.Reason}}\"\n"
	if err := os.WriteFile(filepath.Join(dir, "override.yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("write override: %v", err)
	}

	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err := c.Render("coach.degraded_report", map[string]string{"Reason": "x"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out != "custom x" {
		t.Fatalf("override not applied: %q", out)
	}
}

func TestDuplicateOverrideKeysRejected(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.yaml", "b.yaml"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("k:\n  v: \"x\"\n"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if _, err := New(dir); err == nil {
		t.Fatalf("expected duplicate key error")
	}
}
