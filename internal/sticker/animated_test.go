package sticker

import (
	"bytes"
	"errors"
	"image"
	"testing"

	"github.com/kettek/apng"
)

func TestConvertAnimatedKeepsAllFramesWhenUnderBudget(t *testing.T) {
	src, err := Decode(buildTestGIF(t, 6, 64, 64, 8))
	if err != nil {
		t.Fatalf("decode gif: %v", err)
	}

	asset, err := ConvertAnimated(src.Frames, src.Delays, Options{TargetDim: 300, MaxBytes: 0})
	if err != nil {
		t.Fatalf("convert animated: %v", err)
	}

	if !asset.Animated {
		t.Fatal("expected animated asset")
	}
	if asset.Frames != 6 {
		t.Fatalf("expected 6 frames, got %d", asset.Frames)
	}

	decoded := decodeAPNG(t, asset.Data)
	if len(decoded.Frames) != 6 {
		t.Fatalf("expected 6 encoded frames, got %d", len(decoded.Frames))
	}
	if got := totalDelayCentis(decoded); got != 48 {
		t.Fatalf("expected total duration 48/100s, got %d/100s", got)
	}
}

func TestConvertAnimatedReducesFramesPreservingDuration(t *testing.T) {
	src, err := Decode(buildTestGIF(t, 10, 128, 128, 6))
	if err != nil {
		t.Fatalf("decode gif: %v", err)
	}

	opts := Options{TargetDim: 300, MaxBytes: 0}
	full, err := ConvertAnimated(src.Frames, src.Delays, opts)
	if err != nil {
		t.Fatalf("convert at full frame count: %v", err)
	}

	// A budget just under the full encoding forces at least one reduction.
	opts.MaxBytes = len(full.Data) - 1
	reduced, err := ConvertAnimated(src.Frames, src.Delays, opts)
	if err != nil {
		t.Fatalf("convert with tight budget: %v", err)
	}

	if reduced.Frames >= 10 {
		t.Fatalf("expected fewer than 10 frames, got %d", reduced.Frames)
	}
	if reduced.Frames < 2 {
		t.Fatalf("expected at least the 2-frame floor, got %d", reduced.Frames)
	}
	if len(reduced.Data) > opts.MaxBytes {
		t.Fatalf("reduced asset is %d bytes, over the %d budget", len(reduced.Data), opts.MaxBytes)
	}

	decoded := decodeAPNG(t, reduced.Data)
	if got := totalDelayCentis(decoded); got != 60 {
		t.Fatalf("expected total duration 60/100s after reduction, got %d/100s", got)
	}
}

func TestConvertAnimatedDeterministicFrameDropping(t *testing.T) {
	src, err := Decode(buildTestGIF(t, 8, 96, 96, 5))
	if err != nil {
		t.Fatalf("decode gif: %v", err)
	}

	opts := Options{TargetDim: 300, MaxBytes: 0}
	full, err := ConvertAnimated(src.Frames, src.Delays, opts)
	if err != nil {
		t.Fatalf("convert at full frame count: %v", err)
	}

	opts.MaxBytes = len(full.Data) - 1
	first, err := ConvertAnimated(src.Frames, src.Delays, opts)
	if err != nil {
		t.Fatalf("first reduced conversion: %v", err)
	}
	second, err := ConvertAnimated(src.Frames, src.Delays, opts)
	if err != nil {
		t.Fatalf("second reduced conversion: %v", err)
	}

	if !bytes.Equal(first.Data, second.Data) {
		t.Fatal("expected identical reduced output across runs")
	}
}

func TestConvertAnimatedFloorFailure(t *testing.T) {
	src, err := Decode(buildTestGIF(t, 12, 64, 64, 5))
	if err != nil {
		t.Fatalf("decode gif: %v", err)
	}

	_, err = ConvertAnimated(src.Frames, src.Delays, Options{TargetDim: 300, MaxBytes: 100})
	if !errors.Is(err, ErrSizeLimitExceeded) {
		t.Fatalf("expected ErrSizeLimitExceeded, got %v", err)
	}
}

func TestHalveFramesMergesDelays(t *testing.T) {
	frames := make([]*image.RGBA, 5)
	for i := range frames {
		frames[i] = image.NewRGBA(image.Rect(0, 0, 1, 1))
	}
	delays := []int{3, 4, 5, 6, 7}

	outFrames, outDelays := halveFrames(frames, delays)
	if len(outFrames) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(outFrames))
	}
	want := []int{7, 11, 7}
	for i, d := range outDelays {
		if d != want[i] {
			t.Fatalf("delay %d: expected %d, got %d", i, want[i], d)
		}
	}

	sum := func(ds []int) int {
		total := 0
		for _, d := range ds {
			total += d
		}
		return total
	}
	if sum(outDelays) != sum(delays) {
		t.Fatalf("total duration changed: %d != %d", sum(outDelays), sum(delays))
	}
}

func decodeAPNG(t *testing.T, data []byte) apng.APNG {
	t.Helper()

	decoded, err := apng.DecodeAll(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode apng: %v", err)
	}
	return decoded
}

func totalDelayCentis(a apng.APNG) int {
	total := 0
	for _, frame := range a.Frames {
		den := int(frame.DelayDenominator)
		if den == 0 {
			den = 100
		}
		total += int(frame.DelayNumerator) * 100 / den
	}
	return total
}
