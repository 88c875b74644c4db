package sticker

import (
	"image"
	"math"

	xdraw "golang.org/x/image/draw"

	"github.com/cathteng/bufo-stickers/internal/domain"
)

// canvasScale picks the scale factor for fitting a srcW x srcH image onto a
// square dim x dim canvas. Pad mode fits the longer edge, crop mode fills the
// shorter edge. Sources smaller than the canvas are never upscaled.
func canvasScale(srcW, srcH, dim int, fitMode string) float64 {
	w := float64(dim) / float64(srcW)
	h := float64(dim) / float64(srcH)

	scale := math.Min(w, h)
	if fitMode == domain.FitModeCrop {
		scale = math.Max(w, h)
	}
	if scale > 1 {
		scale = 1
	}
	return scale
}

// squareCanvas scales src and centers it on a transparent dim x dim RGBA
// canvas. In crop mode the scaled image overflows the canvas and the edges
// are clipped.
func squareCanvas(src image.Image, dim int, fitMode string) *image.RGBA {
	b := src.Bounds()
	scale := canvasScale(b.Dx(), b.Dy(), dim, fitMode)

	w := int(math.Round(float64(b.Dx()) * scale))
	h := int(math.Round(float64(b.Dy()) * scale))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	x0 := (dim - w) / 2
	y0 := (dim - h) / 2

	dst := image.NewRGBA(image.Rect(0, 0, dim, dim))
	xdraw.CatmullRom.Scale(dst, image.Rect(x0, y0, x0+w, y0+h), src, b, xdraw.Over, nil)
	return dst
}

// placeOnCanvas centers an already-scaled image on a transparent square
// canvas without resampling.
func placeOnCanvas(scaled image.Image, dim int) *image.RGBA {
	b := scaled.Bounds()
	x0 := (dim - b.Dx()) / 2
	y0 := (dim - b.Dy()) / 2

	dst := image.NewRGBA(image.Rect(0, 0, dim, dim))
	xdraw.Draw(dst, image.Rect(x0, y0, x0+b.Dx(), y0+b.Dy()), scaled, b.Min, xdraw.Over)
	return dst
}
