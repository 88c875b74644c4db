package pack

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	ManifestFilename = "Contents.json"

	manifestVersion = 1
	manifestAuthor  = "bufo-stickers"
)

// Manifest is the Contents.json record an iOS sticker pack ships with.
// It is generated fresh on every run, never patched in place.
type Manifest struct {
	Info     ManifestInfo      `json:"info"`
	Stickers []ManifestSticker `json:"stickers"`
}

type ManifestInfo struct {
	Version int    `json:"version"`
	Author  string `json:"author"`
}

type ManifestSticker struct {
	Filename string `json:"filename"`
}

func NewManifest(filenames []string) Manifest {
	stickers := make([]ManifestSticker, 0, len(filenames))
	for _, name := range filenames {
		stickers = append(stickers, ManifestSticker{Filename: name})
	}
	return Manifest{
		Info:     ManifestInfo{Version: manifestVersion, Author: manifestAuthor},
		Stickers: stickers,
	}
}

func (m Manifest) Write(dir string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	path := filepath.Join(dir, ManifestFilename)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write manifest %s: %w", path, err)
	}
	return nil
}
