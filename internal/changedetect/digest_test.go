package changedetect

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestDigestStableAcrossRuns(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.png", "alpha")
	writeFile(t, dir, "sub/b.gif", "beta")

	first, err := Digest(dir)
	if err != nil {
		t.Fatalf("first digest: %v", err)
	}
	second, err := Digest(dir)
	if err != nil {
		t.Fatalf("second digest: %v", err)
	}
	if first != second {
		t.Fatalf("digest changed on identical tree: %s != %s", first, second)
	}
}

func TestDigestChangesWithContent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.png", "alpha")

	before, err := Digest(dir)
	if err != nil {
		t.Fatalf("digest before: %v", err)
	}

	writeFile(t, dir, "a.png", "alpha2")
	after, err := Digest(dir)
	if err != nil {
		t.Fatalf("digest after: %v", err)
	}
	if before == after {
		t.Fatal("expected digest to change when file content changes")
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	got, err := store.LastDigest(ctx, "source-repo")
	if err != nil {
		t.Fatalf("read empty store: %v", err)
	}
	if got != "" {
		t.Fatalf("expected empty digest, got %q", got)
	}

	if err := store.SetDigest(ctx, "source-repo", "abc123"); err != nil {
		t.Fatalf("set digest: %v", err)
	}
	got, err = store.LastDigest(ctx, "source-repo")
	if err != nil {
		t.Fatalf("read digest: %v", err)
	}
	if got != "abc123" {
		t.Fatalf("expected abc123, got %q", got)
	}
}

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}
