//go:build govips && cgo

package sticker

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/davidbyttow/govips/v2/vips"
)

// resizeStatic runs the scaling step through libvips. Canvas placement and
// cropping stay in pure Go so both build flavors share one fit policy.
func resizeStatic(src Source, opts Options) (*image.RGBA, error) {
	img, err := vips.NewImageFromBuffer(src.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailure, err)
	}
	defer img.Close()

	if img.Width() <= 0 || img.Height() <= 0 {
		return nil, fmt.Errorf("%w: source image has invalid dimensions", ErrDecodeFailure)
	}

	scale := canvasScale(img.Width(), img.Height(), opts.TargetDim, opts.fitMode())
	if scale < 1 {
		if err := img.Resize(scale, vips.KernelLanczos3); err != nil {
			return nil, fmt.Errorf("resize image: %w", err)
		}
	}

	data, _, err := img.ExportPng(vips.NewPngExportParams())
	if err != nil {
		return nil, fmt.Errorf("export resized png: %w", err)
	}
	scaled, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode resized png: %w", err)
	}

	return placeOnCanvas(scaled, opts.TargetDim), nil
}
