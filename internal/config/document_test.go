package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDocumentGeneratedLazily(t *testing.T) {
	path := filepath.Join(t.TempDir(), "substance.yml")
	doc := NewDocument(path)

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("document should not be written before first access")
	}

	v, ok, err := doc.Get("default")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok || v != true {
		t.Errorf("default = %v (%v), want true", v, ok)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("document should exist after first read: %v", err)
	}
}

func TestDocumentSetSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "substance.yml")
	doc := NewDocument(path)

	if err := doc.Set("engine", "devbox"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := doc.Set("cpus", ParseValue("4")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := doc.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reread := NewDocument(path)
	keys, err := reread.Keys()
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 3 || keys[0] != "cpus" || keys[1] != "default" || keys[2] != "engine" {
		t.Errorf("keys = %v", keys)
	}
	if v, _, _ := reread.Get("cpus"); v != 4 {
		t.Errorf("cpus = %#v, want int 4", v)
	}
	if v, _, _ := reread.Get("engine"); v != "devbox" {
		t.Errorf("engine = %#v", v)
	}
}

func TestDocumentUnsavedChangesNotPersisted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "substance.yml")
	doc := NewDocument(path)
	if err := doc.Set("k", "v"); err != nil {
		t.Fatal(err)
	}

	if _, ok, _ := NewDocument(path).Get("k"); ok {
		t.Error("Set without Save must not reach disk")
	}
}

func TestDocumentInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "substance.yml")
	if err := os.WriteFile(path, []byte("a: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewDocument(path).Values(); err == nil {
		t.Error("expected parse error")
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		raw  string
		want any
	}{
		{"true", true},
		{"12", 12},
		{"hello", "hello"},
		{"", ""},
		{"[a, b]", "[a, b]"},
	}
	for _, tt := range tests {
		if got := ParseValue(tt.raw); got != tt.want {
			t.Errorf("ParseValue(%q) = %#v, want %#v", tt.raw, got, tt.want)
		}
	}
}
