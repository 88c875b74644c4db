package sticker

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/kettek/apng"
)

// maxReductionSteps caps the frame-dropping loop.
const maxReductionSteps = 8

// ConvertAnimated resizes every frame identically and encodes the result as
// an animated PNG. When the encoding exceeds the byte budget it keeps every
// other frame, folding the dropped delays into the surviving frames so total
// animation duration is preserved, until under budget or at the frame floor.
func ConvertAnimated(frames []*image.RGBA, delays []int, opts Options) (Asset, error) {
	if len(frames) == 0 {
		return Asset{}, errors.New("animated source has no frames")
	}
	if len(delays) != len(frames) {
		return Asset{}, errors.New("frame and delay counts differ")
	}
	if opts.TargetDim <= 0 {
		return Asset{}, errors.New("target dimension must be positive")
	}

	kept := make([]*image.RGBA, len(frames))
	for i, frame := range frames {
		kept[i] = squareCanvas(frame, opts.TargetDim, opts.fitMode())
	}
	keptDelays := append([]int(nil), delays...)

	floor := opts.frameFloor()
	for step := 0; step <= maxReductionSteps; step++ {
		data, err := encodeAPNG(kept, keptDelays)
		if err != nil {
			return Asset{}, err
		}
		if withinBudget(data, opts.MaxBytes) {
			return Asset{
				Data:     data,
				Width:    opts.TargetDim,
				Height:   opts.TargetDim,
				Frames:   len(kept),
				Animated: true,
			}, nil
		}
		if len(kept) <= floor {
			return Asset{}, fmt.Errorf("%w: %d bytes with %d frames (budget %d)", ErrSizeLimitExceeded, len(data), len(kept), opts.MaxBytes)
		}

		next, nextDelays := halveFrames(kept, keptDelays)
		if len(next) < floor {
			return Asset{}, fmt.Errorf("%w: %d bytes with %d frames (budget %d)", ErrSizeLimitExceeded, len(data), len(kept), opts.MaxBytes)
		}
		kept, keptDelays = next, nextDelays
	}

	return Asset{}, fmt.Errorf("%w: budget not reached after %d reduction steps", ErrSizeLimitExceeded, maxReductionSteps)
}

// halveFrames keeps the even-indexed frames and merges each dropped frame's
// delay into its predecessor. Same input always drops the same frames.
func halveFrames(frames []*image.RGBA, delays []int) ([]*image.RGBA, []int) {
	outFrames := make([]*image.RGBA, 0, (len(frames)+1)/2)
	outDelays := make([]int, 0, (len(frames)+1)/2)
	for i := 0; i < len(frames); i += 2 {
		delay := delays[i]
		if i+1 < len(frames) {
			delay += delays[i+1]
		}
		outFrames = append(outFrames, frames[i])
		outDelays = append(outDelays, delay)
	}
	return outFrames, outDelays
}

func encodeAPNG(frames []*image.RGBA, delays []int) ([]byte, error) {
	a := apng.APNG{Frames: make([]apng.Frame, len(frames))}
	for i, frame := range frames {
		a.Frames[i] = apng.Frame{
			Image:            frame,
			DelayNumerator:   delayNumerator(delays[i]),
			DelayDenominator: 100,
			DisposeOp:        apng.DISPOSE_OP_NONE,
			BlendOp:          apng.BLEND_OP_SOURCE,
		}
	}

	var buf bytes.Buffer
	if err := apng.Encode(&buf, a); err != nil {
		return nil, fmt.Errorf("encode apng: %w", err)
	}
	return buf.Bytes(), nil
}

func delayNumerator(delay int) uint16 {
	if delay < 1 {
		delay = 1
	}
	if delay > 65535 {
		delay = 65535
	}
	return uint16(delay)
}
