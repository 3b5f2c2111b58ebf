package vault

import (
	"context"
	"strings"
	"testing"
)

func TestLocalVaultRoundTrip(t *testing.T) {
	ctx := context.Background()
	v, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	id, err := v.Store(ctx, []byte("contenido"), "cedula.pdf", "documents")
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if !strings.HasPrefix(id, "documents/") {
		t.Errorf("file id %q not namespaced by category", id)
	}

	data, err := v.Retrieve(ctx, id)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if string(data) != "contenido" {
		t.Errorf("retrieved %q, want original content", data)
	}
}

func TestLocalVaultDistinctIDsPerUpload(t *testing.T) {
	ctx := context.Background()
	v, _ := NewLocal(t.TempDir())

	a, _ := v.Store(ctx, []byte("v1"), "cedula.pdf", "documents")
	b, _ := v.Store(ctx, []byte("v2"), "cedula.pdf", "documents")
	if a == b {
		t.Fatal("same file id for two uploads of the same name")
	}
}

func TestLocalVaultRejectsTraversal(t *testing.T) {
	ctx := context.Background()
	v, _ := NewLocal(t.TempDir())

	if _, err := v.Retrieve(ctx, "../etc/passwd"); err == nil {
		t.Fatal("path traversal accepted")
	}
	if _, err := v.Retrieve(ctx, "/etc/passwd"); err == nil {
		t.Fatal("absolute path accepted")
	}
}

func TestSanitizeName(t *testing.T) {
	if got := sanitizeName("mi cédula (1).pdf"); strings.ContainsAny(got, " ()") {
		t.Errorf("sanitizeName left unsafe characters: %q", got)
	}
	if got := sanitizeName("../../x.pdf"); strings.Contains(got, "/") {
		t.Errorf("sanitizeName kept path separators: %q", got)
	}
}
