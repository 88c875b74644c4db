package sticker

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"

	"github.com/cathteng/bufo-stickers/internal/domain"
)

type Options struct {
	TargetDim  int
	MaxBytes   int
	FitMode    string
	FrameFloor int
}

func (o Options) fitMode() string {
	if o.FitMode == "" {
		return domain.FitModePad
	}
	return o.FitMode
}

func (o Options) frameFloor() int {
	if o.FrameFloor < 1 {
		return 2
	}
	return o.FrameFloor
}

// Asset is one encoded sticker. Data never exceeds Options.MaxBytes when the
// converter returns without error.
type Asset struct {
	Data     []byte
	Width    int
	Height   int
	Frames   int
	Animated bool
}

// Convert dispatches on the kind decided at decode time.
func Convert(src Source, opts Options) (Asset, error) {
	if src.Kind == KindAnimated {
		return ConvertAnimated(src.Frames, src.Delays, opts)
	}
	return ConvertStatic(src, opts)
}

// ConvertStatic renders the source onto a square RGBA canvas at the target
// dimension and encodes it as a PNG within the byte budget.
func ConvertStatic(src Source, opts Options) (Asset, error) {
	if opts.TargetDim <= 0 {
		return Asset{}, errors.New("target dimension must be positive")
	}

	canvas, err := resizeStatic(src, opts)
	if err != nil {
		return Asset{}, err
	}

	data, err := encodeUnderBudget(canvas, opts.MaxBytes)
	if err != nil {
		return Asset{}, err
	}

	return Asset{
		Data:   data,
		Width:  opts.TargetDim,
		Height: opts.TargetDim,
		Frames: 1,
	}, nil
}

// encodeUnderBudget walks a fixed ladder: default compression, best
// compression, then palette quantization. The ladder has three rungs so size
// enforcement always terminates.
func encodeUnderBudget(canvas *image.RGBA, maxBytes int) ([]byte, error) {
	data, err := encodePNG(canvas, png.DefaultCompression)
	if err != nil || withinBudget(data, maxBytes) {
		return data, err
	}

	data, err = encodePNG(canvas, png.BestCompression)
	if err != nil || withinBudget(data, maxBytes) {
		return data, err
	}

	data, err = encodePNG(quantize(canvas), png.BestCompression)
	if err != nil {
		return nil, err
	}
	if !withinBudget(data, maxBytes) {
		return nil, fmt.Errorf("%w: %d bytes after quantization (budget %d)", ErrSizeLimitExceeded, len(data), maxBytes)
	}
	return data, nil
}

func withinBudget(data []byte, maxBytes int) bool {
	return maxBytes <= 0 || len(data) <= maxBytes
}

func encodePNG(img image.Image, level png.CompressionLevel) ([]byte, error) {
	var buf bytes.Buffer
	encoder := png.Encoder{CompressionLevel: level}
	if err := encoder.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
