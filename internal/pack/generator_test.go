package pack

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/cathteng/bufo-stickers/internal/changedetect"
)

func TestGeneratorRunProducesArchiveAndReadme(t *testing.T) {
	sourceDir := t.TempDir()
	outputDir := t.TempDir()
	writeTestPNG(t, filepath.Join(sourceDir, "a.png"), 300, 300)

	gen := newTestGenerator(t, changedetect.NewMemoryStore())
	summary, err := gen.Run(context.Background(), testRequest(sourceDir, outputDir))
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if summary.ArchivePath == "" {
		t.Fatal("expected archive path in summary")
	}
	if _, err := os.Stat(summary.ArchivePath); err != nil {
		t.Fatalf("expected archive on disk: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outputDir, "README.txt")); err != nil {
		t.Fatalf("expected README.txt: %v", err)
	}
	if summary.SourceDigest == "" {
		t.Fatal("expected source digest in summary")
	}
}

func TestGeneratorSkipsUnchangedSource(t *testing.T) {
	sourceDir := t.TempDir()
	writeTestPNG(t, filepath.Join(sourceDir, "a.png"), 300, 300)

	digests := changedetect.NewMemoryStore()
	gen := newTestGenerator(t, digests)

	if _, err := gen.Run(context.Background(), testRequest(sourceDir, t.TempDir())); err != nil {
		t.Fatalf("first run: %v", err)
	}

	_, err := gen.Run(context.Background(), testRequest(sourceDir, t.TempDir()))
	if !errors.Is(err, ErrSourceUnchanged) {
		t.Fatalf("expected ErrSourceUnchanged, got %v", err)
	}

	// Force overrides the digest check.
	req := testRequest(sourceDir, t.TempDir())
	req.ForceUpdate = true
	if _, err := gen.Run(context.Background(), req); err != nil {
		t.Fatalf("forced run: %v", err)
	}
}

func TestGeneratorRunsAgainAfterSourceChange(t *testing.T) {
	sourceDir := t.TempDir()
	writeTestPNG(t, filepath.Join(sourceDir, "a.png"), 300, 300)

	gen := newTestGenerator(t, changedetect.NewMemoryStore())
	if _, err := gen.Run(context.Background(), testRequest(sourceDir, t.TempDir())); err != nil {
		t.Fatalf("first run: %v", err)
	}

	writeTestPNG(t, filepath.Join(sourceDir, "b.png"), 200, 200)
	summary, err := gen.Run(context.Background(), testRequest(sourceDir, t.TempDir()))
	if err != nil {
		t.Fatalf("run after change: %v", err)
	}
	if summary.Succeeded != 2 {
		t.Fatalf("expected 2 stickers after change, got %d", summary.Succeeded)
	}
}

func newTestGenerator(t *testing.T, digests changedetect.Store) *Generator {
	t.Helper()
	logger := log.New(io.Discard, "", 0)
	return NewGenerator(logger, NewAssembler(logger, 2, 2), digests)
}
