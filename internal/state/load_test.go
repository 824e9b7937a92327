package state

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDocumentParsesAttributesAndSSH(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "web1.yaml")
	contents := `
host: web1.internal
ssh:
  username: deploy
  password: hunter2
expected_state:
  attributes:
    - privilege: sudo
      kind: service
      service:
        name: nginx
        active: true
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	doc, err := LoadDocument(path)
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	if doc.Host != "web1.internal" {
		t.Fatalf("unexpected host: %s", doc.Host)
	}
	if doc.SSH == nil || doc.SSH.Username != "deploy" {
		t.Fatalf("unexpected ssh config: %+v", doc.SSH)
	}
	if len(doc.Expected.Attributes) != 1 {
		t.Fatalf("expected 1 attribute, got %d", len(doc.Expected.Attributes))
	}
}

func TestLoadDocumentRejectsMissingHost(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("expected_state:\n  attributes: []\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := LoadDocument(path); err == nil {
		t.Fatal("expected error for missing host")
	}
}

func TestLoadDocumentMissingFile(t *testing.T) {
	if _, err := LoadDocument("/nonexistent/doc.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
