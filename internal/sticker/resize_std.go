//go:build !govips || !cgo

package sticker

import (
	"errors"
	"image"
)

func resizeStatic(src Source, opts Options) (*image.RGBA, error) {
	if src.Frame == nil {
		return nil, errors.New("static source has no decoded frame")
	}
	return squareCanvas(src.Frame, opts.TargetDim, opts.fitMode()), nil
}
