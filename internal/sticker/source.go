package sticker

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"os"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

var (
	ErrDecodeFailure     = errors.New("unreadable image")
	ErrSizeLimitExceeded = errors.New("sticker exceeds byte budget")
)

type Kind int

const (
	KindStatic Kind = iota
	KindAnimated
)

// Source is a decoded input image. The static/animated split is decided once
// here; converters never re-inspect the raw bytes.
type Source struct {
	Kind   Kind
	Data   []byte
	Frame  image.Image
	Frames []*image.RGBA
	Delays []int // per-frame delay in 1/100 s, same length as Frames
}

func DecodeFile(path string) (Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Source{}, fmt.Errorf("read source image %s: %w", path, err)
	}
	return Decode(data)
}

// Decode classifies the input as static or animated. Only multi-frame GIFs
// become animated sources; everything else, including single-frame GIFs,
// is treated as static.
func Decode(data []byte) (Source, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Source{}, fmt.Errorf("%w: %v", ErrDecodeFailure, err)
	}

	if format == "gif" {
		g, err := gif.DecodeAll(bytes.NewReader(data))
		if err != nil {
			return Source{}, fmt.Errorf("%w: decode gif: %v", ErrDecodeFailure, err)
		}
		if len(g.Image) > 1 {
			frames, delays := coalesceGIF(g)
			return Source{Kind: KindAnimated, Data: data, Frames: frames, Delays: delays}, nil
		}
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Source{}, fmt.Errorf("%w: %v", ErrDecodeFailure, err)
	}
	return Source{Kind: KindStatic, Data: data, Frame: img}, nil
}

// coalesceGIF flattens partial GIF frames into full logical-screen RGBA
// frames, honoring each frame's disposal method.
func coalesceGIF(g *gif.GIF) ([]*image.RGBA, []int) {
	width := g.Config.Width
	height := g.Config.Height
	if width == 0 || height == 0 {
		b := g.Image[0].Bounds()
		width, height = b.Max.X, b.Max.Y
	}
	screen := image.Rect(0, 0, width, height)

	frames := make([]*image.RGBA, 0, len(g.Image))
	delays := make([]int, 0, len(g.Image))

	canvas := image.NewRGBA(screen)
	for i, frame := range g.Image {
		var restore *image.RGBA
		if disposal(g, i) == gif.DisposalPrevious {
			restore = cloneRGBA(canvas)
		}

		draw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)
		frames = append(frames, cloneRGBA(canvas))

		delay := 10 // 100 ms when the GIF does not specify one
		if i < len(g.Delay) && g.Delay[i] > 0 {
			delay = g.Delay[i]
		}
		delays = append(delays, delay)

		switch disposal(g, i) {
		case gif.DisposalBackground:
			draw.Draw(canvas, frame.Bounds(), image.Transparent, image.Point{}, draw.Src)
		case gif.DisposalPrevious:
			canvas = restore
		}
	}

	return frames, delays
}

func disposal(g *gif.GIF, i int) byte {
	if i < len(g.Disposal) {
		return g.Disposal[i]
	}
	return gif.DisposalNone
}

func cloneRGBA(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}
