package pack

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/cathteng/bufo-stickers/internal/domain"
	"github.com/cathteng/bufo-stickers/internal/sticker"
)

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// Assembler converts a source directory into one or more .stickerpack
// directories. Conversions may run in parallel; naming and manifest writes
// happen in a single sequential pass so output ordering stays deterministic.
type Assembler struct {
	logger      *log.Logger
	parallelism int
	frameFloor  int
}

func NewAssembler(logger *log.Logger, parallelism, frameFloor int) *Assembler {
	if parallelism < 1 {
		parallelism = 1
	}
	return &Assembler{
		logger:      logger,
		parallelism: parallelism,
		frameFloor:  frameFloor,
	}
}

type sourceFile struct {
	relPath string
	absPath string
	group   string
}

type convertResult struct {
	file  sourceFile
	asset sticker.Asset
	err   error
}

// Assemble runs the full convert-and-write pass and returns the run summary.
// Per-file decode and size-limit failures are recorded and skipped;
// everything touching the output directory is fatal.
func (a *Assembler) Assemble(ctx context.Context, req domain.GenerateRequest) (domain.RunSummary, error) {
	if err := req.Validate(); err != nil {
		return domain.RunSummary{}, err
	}

	dim, err := domain.TargetDimension(req.SizeClass)
	if err != nil {
		return domain.RunSummary{}, err
	}

	files, err := enumerateSources(req.SourceDir, req.GroupBy, req.PackName)
	if err != nil {
		return domain.RunSummary{}, err
	}
	if len(files) == 0 {
		return domain.RunSummary{}, fmt.Errorf("no images found in %s", req.SourceDir)
	}

	opts := sticker.Options{
		TargetDim:  dim,
		MaxBytes:   req.MaxBytes,
		FitMode:    strings.ToLower(strings.TrimSpace(req.FitMode)),
		FrameFloor: a.frameFloor,
	}

	results := a.convertAll(ctx, files, opts)
	if err := ctx.Err(); err != nil {
		return domain.RunSummary{}, err
	}

	summary := domain.RunSummary{RunID: req.RunID, Skipped: []domain.SkippedFile{}}

	succeeded := make(map[string][]convertResult)
	groupOrder := []string{}
	for _, res := range results {
		if res.err != nil {
			summary.Skipped = append(summary.Skipped, domain.SkippedFile{
				Name:   res.file.relPath,
				Reason: skipReason(res.err),
				Detail: res.err.Error(),
			})
			a.logger.Printf("skipping file=%s reason=%s err=%v", res.file.relPath, skipReason(res.err), res.err)
			continue
		}
		if _, seen := succeeded[res.file.group]; !seen {
			groupOrder = append(groupOrder, res.file.group)
		}
		succeeded[res.file.group] = append(succeeded[res.file.group], res)
	}

	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return domain.RunSummary{}, fmt.Errorf("create output dir: %w", err)
	}

	for _, group := range groupOrder {
		packs := splitByCeiling(succeeded[group], req.MaxPerPack)
		for i, assets := range packs {
			name := packName(group, i)
			result, written, err := a.writePack(req.OutputDir, name, assets)
			if err != nil {
				return domain.RunSummary{}, err
			}
			summary.Packs = append(summary.Packs, result)
			summary.Succeeded += len(result.Stickers)
			summary.BytesWritten += written
		}
	}

	return summary, nil
}

func (a *Assembler) convertAll(ctx context.Context, files []sourceFile, opts sticker.Options) []convertResult {
	results := make([]convertResult, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.parallelism)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			src, err := sticker.DecodeFile(file.absPath)
			if err != nil {
				results[i] = convertResult{file: file, err: err}
				return nil
			}
			asset, err := sticker.Convert(src, opts)
			results[i] = convertResult{file: file, asset: asset, err: err}
			return nil
		})
	}
	// Per-file failures are carried in results; the group only fails on
	// context cancellation.
	_ = g.Wait()

	return results
}

// writePack writes sticker files with gap-free sequential names plus the
// manifest, and returns the pack result and bytes written.
func (a *Assembler) writePack(outputDir, name string, assets []convertResult) (domain.PackResult, int64, error) {
	packDir := filepath.Join(outputDir, name+".stickerpack")
	if err := os.MkdirAll(packDir, 0o755); err != nil {
		return domain.PackResult{}, 0, fmt.Errorf("create pack dir: %w", err)
	}

	var written int64
	filenames := make([]string, 0, len(assets))
	for i, res := range assets {
		filename := fmt.Sprintf("sticker_%03d.png", i+1)
		fullPath := filepath.Join(packDir, filename)
		if err := os.WriteFile(fullPath, res.asset.Data, 0o644); err != nil {
			return domain.PackResult{}, 0, fmt.Errorf("write sticker %s: %w", fullPath, err)
		}
		filenames = append(filenames, filename)
		written += int64(len(res.asset.Data))

		a.logger.Printf(
			"converted file=%s output=%s frames=%d bytes=%d",
			res.file.relPath,
			filename,
			res.asset.Frames,
			len(res.asset.Data),
		)
	}

	if err := NewManifest(filenames).Write(packDir); err != nil {
		return domain.PackResult{}, 0, err
	}

	return domain.PackResult{Name: name, Dir: packDir, Stickers: filenames}, written, nil
}

// enumerateSources walks the source tree and returns image files sorted by
// relative path, each tagged with its pack group.
func enumerateSources(sourceDir, groupBy, packName string) ([]sourceFile, error) {
	info, err := os.Stat(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("source directory %s: %w", sourceDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source path %s is not a directory", sourceDir)
	}

	var files []sourceFile
	err = filepath.WalkDir(sourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !imageExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		rel, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return err
		}
		files = append(files, sourceFile{
			relPath: filepath.ToSlash(rel),
			absPath: path,
			group:   groupFor(filepath.ToSlash(rel), groupBy, packName),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("enumerate source images: %w", err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].relPath < files[j].relPath })
	return files, nil
}

func groupFor(relPath, groupBy, packName string) string {
	if strings.EqualFold(groupBy, domain.GroupBySubdir) {
		if dir, _, ok := strings.Cut(relPath, "/"); ok {
			return packName + "-" + sanitizeNameToken(dir)
		}
	}
	return packName
}

// splitByCeiling chunks converted assets by the per-pack sticker ceiling.
// ceiling <= 0 means a single unbounded pack.
func splitByCeiling(assets []convertResult, ceiling int) [][]convertResult {
	if ceiling <= 0 || len(assets) <= ceiling {
		return [][]convertResult{assets}
	}
	var chunks [][]convertResult
	for start := 0; start < len(assets); start += ceiling {
		end := start + ceiling
		if end > len(assets) {
			end = len(assets)
		}
		chunks = append(chunks, assets[start:end])
	}
	return chunks
}

func packName(group string, chunk int) string {
	if chunk == 0 {
		return group
	}
	return fmt.Sprintf("%s-%d", group, chunk+1)
}

func skipReason(err error) string {
	if errors.Is(err, sticker.ErrSizeLimitExceeded) {
		return domain.SkipReasonSizeLimitExceeded
	}
	return domain.SkipReasonDecodeFailure
}

func sanitizeNameToken(in string) string {
	var b strings.Builder
	b.Grow(len(in))
	for _, r := range in {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "pack"
	}
	return b.String()
}
