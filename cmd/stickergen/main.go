package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"time"

	"github.com/cathteng/bufo-stickers/internal/config"
	"github.com/cathteng/bufo-stickers/internal/domain"
	"github.com/cathteng/bufo-stickers/internal/id"
	"github.com/cathteng/bufo-stickers/internal/pack"
	"github.com/cathteng/bufo-stickers/internal/queue"
	"github.com/cathteng/bufo-stickers/internal/sticker"
)

func main() {
	cfg := config.Load()
	logger := log.New(os.Stdout, "[stickergen] ", log.LstdFlags|log.Lmsgprefix)

	sourceDir := flag.String("source", cfg.Sticker.SourceDir, "directory of source images")
	outputDir := flag.String("out", cfg.Sticker.OutputDir, "output directory for packs and archive")
	packName := flag.String("pack-name", cfg.Sticker.PackName, "base sticker pack name")
	sizeClass := flag.String("size", cfg.Sticker.SizeClass, "sticker size class: small, medium or large")
	fitMode := flag.String("fit", cfg.Sticker.FitMode, "square fit policy: pad or crop")
	maxBytes := flag.Int("max-bytes", cfg.Sticker.MaxBytes, "per-sticker byte budget")
	groupBy := flag.String("group-by", cfg.Sticker.GroupBy, "pack grouping: none or subdir")
	maxPerPack := flag.Int("max-per-pack", cfg.Sticker.MaxPerPack, "sticker ceiling per pack, 0 for unlimited")
	force := flag.Bool("force", false, "regenerate even if the source tree is unchanged")
	enqueue := flag.Bool("enqueue", false, "hand the run to a worker instead of generating locally")
	flag.Parse()

	req := domain.GenerateRequest{
		RunID:       id.New(),
		SourceDir:   *sourceDir,
		OutputDir:   *outputDir,
		PackName:    *packName,
		SizeClass:   *sizeClass,
		FitMode:     *fitMode,
		MaxBytes:    *maxBytes,
		GroupBy:     *groupBy,
		MaxPerPack:  *maxPerPack,
		ForceUpdate: *force,
	}

	if *enqueue {
		client := queue.NewClient(cfg.Queue.RedisClientOpt(), cfg.Queue.Name)
		defer client.Close()

		info, err := client.EnqueueGeneratePack(context.Background(), queue.GeneratePackPayload{
			Request:     req,
			RequestedAt: time.Now().UTC(),
		})
		if err != nil {
			logger.Fatalf("enqueue failed: %v", err)
		}
		logger.Printf("enqueued run_id=%s task_id=%s queue=%s", req.RunID, info.ID, info.Queue)
		return
	}

	if err := sticker.Startup(); err != nil {
		logger.Fatalf("image runtime startup failed: %v", err)
	}
	defer sticker.Shutdown()

	assembler := pack.NewAssembler(logger, cfg.Sticker.Parallelism, cfg.Sticker.FrameFloor)
	generator := pack.NewGenerator(logger, assembler, nil)

	summary, err := generator.Run(context.Background(), req)
	if errors.Is(err, pack.ErrSourceUnchanged) {
		logger.Printf("source unchanged, nothing to do digest=%s", summary.SourceDigest)
		return
	}
	if err != nil {
		logger.Fatalf("generation failed: %v", err)
	}

	logger.Printf(
		"done packs=%d stickers=%d skipped=%d archive=%s",
		len(summary.Packs),
		summary.Succeeded,
		len(summary.Skipped),
		summary.ArchivePath,
	)
	for _, skip := range summary.Skipped {
		logger.Printf("skipped file=%s reason=%s", skip.Name, skip.Reason)
	}
}
