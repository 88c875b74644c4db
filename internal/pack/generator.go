package pack

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/cathteng/bufo-stickers/internal/changedetect"
	"github.com/cathteng/bufo-stickers/internal/domain"
)

// ErrSourceUnchanged reports that the source tree digest matches the previous
// run and generation was skipped.
var ErrSourceUnchanged = errors.New("source unchanged since last run")

// Generator runs the full pipeline: change check, convert and assemble,
// README, archive, digest record.
type Generator struct {
	logger    *log.Logger
	assembler *Assembler
	digests   changedetect.Store
}

func NewGenerator(logger *log.Logger, assembler *Assembler, digests changedetect.Store) *Generator {
	return &Generator{
		logger:    logger,
		assembler: assembler,
		digests:   digests,
	}
}

func (g *Generator) Run(ctx context.Context, req domain.GenerateRequest) (domain.RunSummary, error) {
	if err := req.Validate(); err != nil {
		return domain.RunSummary{}, err
	}

	digest, err := changedetect.Digest(req.SourceDir)
	if err != nil {
		return domain.RunSummary{}, err
	}

	if g.digests != nil && !req.ForceUpdate {
		last, err := g.digests.LastDigest(ctx, req.SourceDir)
		if err != nil {
			g.logger.Printf("digest lookup failed source=%s err=%v", req.SourceDir, err)
		} else if last == digest {
			return domain.RunSummary{RunID: req.RunID, SourceDigest: digest}, ErrSourceUnchanged
		}
	}

	summary, err := g.assembler.Assemble(ctx, req)
	if err != nil {
		return domain.RunSummary{}, err
	}
	summary.SourceDigest = digest

	if err := writeReadme(req.OutputDir, summary); err != nil {
		return domain.RunSummary{}, err
	}

	packDirs := make([]string, 0, len(summary.Packs))
	for _, p := range summary.Packs {
		packDirs = append(packDirs, p.Dir)
	}
	archivePath := filepath.Join(req.OutputDir, ArchiveFilename)
	size, err := WriteArchive(archivePath, packDirs)
	if err != nil {
		return domain.RunSummary{}, err
	}
	summary.ArchivePath = archivePath
	g.logger.Printf("archive written path=%s bytes=%d packs=%d", archivePath, size, len(summary.Packs))

	if g.digests != nil {
		if err := g.digests.SetDigest(ctx, req.SourceDir, digest); err != nil {
			g.logger.Printf("digest record failed source=%s err=%v", req.SourceDir, err)
		}
	}

	return summary, nil
}

func writeReadme(outputDir string, summary domain.RunSummary) error {
	var b strings.Builder
	b.WriteString("Bufo iOS Stickers\n")
	b.WriteString("=================\n\n")
	fmt.Fprintf(&b, "Total stickers: %d\n", summary.Succeeded)
	fmt.Fprintf(&b, "Packs: %d\n", len(summary.Packs))
	if len(summary.Skipped) > 0 {
		fmt.Fprintf(&b, "Skipped files: %d\n", len(summary.Skipped))
	}
	b.WriteString("\nInstallation:\n")
	b.WriteString("1. Transfer the .stickerpack folders to your iOS device\n")
	b.WriteString("2. Import them with a sticker-compatible app\n")

	path := filepath.Join(outputDir, "README.txt")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write readme %s: %w", path, err)
	}
	return nil
}
