package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	SizeClassSmall  = "small"
	SizeClassMedium = "medium"
	SizeClassLarge  = "large"

	FitModePad  = "pad"
	FitModeCrop = "crop"

	RunStatusRunning   = "running"
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
	RunStatusSkipped   = "skipped"

	GroupByNone   = "none"
	GroupBySubdir = "subdir"
)

var (
	ErrInvalidSizeClass = errors.New("invalid size class")
	ErrInvalidFitMode   = errors.New("invalid fit mode")
)

// TargetDimension maps a size class to the square sticker edge in pixels.
// The values follow the iOS sticker size tiers (300 to 618 px).
func TargetDimension(sizeClass string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(sizeClass)) {
	case SizeClassSmall:
		return 300, nil
	case SizeClassMedium:
		return 408, nil
	case SizeClassLarge:
		return 618, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidSizeClass, sizeClass)
	}
}

type GenerateRequest struct {
	RunID       string `json:"run_id"`
	SourceDir   string `json:"source_dir"`
	OutputDir   string `json:"output_dir"`
	PackName    string `json:"pack_name"`
	SizeClass   string `json:"size_class"`
	FitMode     string `json:"fit_mode,omitempty"`
	MaxBytes    int    `json:"max_bytes,omitempty"`
	GroupBy     string `json:"group_by,omitempty"`
	MaxPerPack  int    `json:"max_per_pack,omitempty"`
	ForceUpdate bool   `json:"force_update,omitempty"`
}

func (r GenerateRequest) Validate() error {
	if strings.TrimSpace(r.SourceDir) == "" {
		return errors.New("source_dir is required")
	}
	if strings.TrimSpace(r.OutputDir) == "" {
		return errors.New("output_dir is required")
	}
	if strings.TrimSpace(r.PackName) == "" {
		return errors.New("pack_name is required")
	}
	if _, err := TargetDimension(r.SizeClass); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(r.FitMode)) {
	case "", FitModePad, FitModeCrop:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFitMode, r.FitMode)
	}
	if r.MaxBytes < 0 {
		return errors.New("max_bytes must not be negative")
	}
	switch strings.ToLower(strings.TrimSpace(r.GroupBy)) {
	case "", GroupByNone, GroupBySubdir:
	default:
		return fmt.Errorf("unsupported group_by: %q", r.GroupBy)
	}
	if r.MaxPerPack < 0 {
		return errors.New("max_per_pack must not be negative")
	}
	return nil
}

// Skip reasons recorded in the run summary for non-fatal per-file failures.
const (
	SkipReasonDecodeFailure     = "decode_failure"
	SkipReasonSizeLimitExceeded = "size_limit_exceeded"
)

type SkippedFile struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
	Detail string `json:"detail,omitempty"`
}

type PackResult struct {
	Name     string   `json:"name"`
	Dir      string   `json:"dir"`
	Stickers []string `json:"stickers"`
}

type RunSummary struct {
	RunID        string        `json:"run_id"`
	SourceDigest string        `json:"source_digest,omitempty"`
	Packs        []PackResult  `json:"packs"`
	Succeeded    int           `json:"succeeded"`
	Skipped      []SkippedFile `json:"skipped"`
	ArchivePath  string        `json:"archive_path,omitempty"`
	BytesWritten int64         `json:"bytes_written"`
}

type Run struct {
	ID        string
	Status    string
	SizeClass string
	SourceDir string
	Summary   RunSummary
	CreatedAt time.Time
	UpdatedAt time.Time
}
