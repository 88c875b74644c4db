package pack

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func TestWriteArchiveDeterministic(t *testing.T) {
	packDir := filepath.Join(t.TempDir(), "Bufo.stickerpack")
	mustWriteFile(t, filepath.Join(packDir, "sticker_001.png"), []byte("png-one"))
	mustWriteFile(t, filepath.Join(packDir, "sticker_002.png"), []byte("png-two"))
	mustWriteFile(t, filepath.Join(packDir, ManifestFilename), []byte("{}"))

	first := filepath.Join(t.TempDir(), ArchiveFilename)
	if _, err := WriteArchive(first, []string{packDir}); err != nil {
		t.Fatalf("first archive: %v", err)
	}
	second := filepath.Join(t.TempDir(), ArchiveFilename)
	if _, err := WriteArchive(second, []string{packDir}); err != nil {
		t.Fatalf("second archive: %v", err)
	}

	a, err := os.ReadFile(first)
	if err != nil {
		t.Fatalf("read first archive: %v", err)
	}
	b, err := os.ReadFile(second)
	if err != nil {
		t.Fatalf("read second archive: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatal("expected byte-identical archives for identical input")
	}
}

func TestWriteArchiveSortedEntries(t *testing.T) {
	base := t.TempDir()
	packB := filepath.Join(base, "B.stickerpack")
	packA := filepath.Join(base, "A.stickerpack")
	mustWriteFile(t, filepath.Join(packB, "sticker_001.png"), []byte("b"))
	mustWriteFile(t, filepath.Join(packA, "sticker_001.png"), []byte("a"))
	mustWriteFile(t, filepath.Join(packA, ManifestFilename), []byte("{}"))

	archivePath := filepath.Join(t.TempDir(), ArchiveFilename)
	size, err := WriteArchive(archivePath, []string{packB, packA})
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if size <= 0 {
		t.Fatalf("expected positive archive size, got %d", size)
	}

	r, err := zip.OpenReader(archivePath)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer r.Close()

	var names []string
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	if !sort.StringsAreSorted(names) {
		t.Fatalf("expected sorted entries, got %v", names)
	}
	if names[0] != "A.stickerpack/"+ManifestFilename {
		t.Fatalf("unexpected first entry %s", names[0])
	}
}
