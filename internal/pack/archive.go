package pack

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"
)

const ArchiveFilename = "ios-stickers.zip"

// Zip entry timestamps are pinned so identical input produces identical
// archives across runs.
var archiveEpoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// WriteArchive zips the pack directories into a single file at archivePath.
// Entries are written in sorted path order.
func WriteArchive(archivePath string, packDirs []string) (int64, error) {
	dirs := append([]string(nil), packDirs...)
	sort.Strings(dirs)

	entries, err := collectEntries(dirs)
	if err != nil {
		return 0, err
	}

	out, err := os.Create(archivePath)
	if err != nil {
		return 0, fmt.Errorf("create archive %s: %w", archivePath, err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	for _, entry := range entries {
		header := &zip.FileHeader{
			Name:     entry.name,
			Method:   zip.Deflate,
			Modified: archiveEpoch,
		}
		header.SetMode(0o644)

		w, err := zw.CreateHeader(header)
		if err != nil {
			return 0, fmt.Errorf("create archive entry %s: %w", entry.name, err)
		}
		f, err := os.Open(entry.path)
		if err != nil {
			return 0, fmt.Errorf("open %s: %w", entry.path, err)
		}
		if _, err := io.Copy(w, f); err != nil {
			f.Close()
			return 0, fmt.Errorf("write archive entry %s: %w", entry.name, err)
		}
		f.Close()
	}
	if err := zw.Close(); err != nil {
		return 0, fmt.Errorf("finalize archive: %w", err)
	}

	info, err := out.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat archive: %w", err)
	}
	return info.Size(), nil
}

type archiveEntry struct {
	name string
	path string
}

func collectEntries(packDirs []string) ([]archiveEntry, error) {
	var entries []archiveEntry
	for _, dir := range packDirs {
		base := filepath.Base(dir)
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return err
			}
			entries = append(entries, archiveEntry{
				name: base + "/" + filepath.ToSlash(rel),
				path: path,
			})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk pack dir %s: %w", dir, err)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })
	return entries, nil
}
