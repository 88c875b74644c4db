package sticker

import (
	"image"
	"image/color"
	"sort"
)

// quantize reduces an RGBA image to at most 256 colors so the PNG encoder
// emits an 8-bit paletted image, the last rung of the byte-budget ladder.
// Channels are truncated to 4 bits before counting so busy images still
// collapse into a small palette. Palette order is fixed by frequency and then
// color value, keeping the encoded bytes reproducible across runs.
func quantize(src *image.RGBA) *image.Paletted {
	b := src.Bounds()

	counts := make(map[color.RGBA]int)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			counts[quantizeColor(src.RGBAAt(x, y))]++
		}
	}

	type entry struct {
		c color.RGBA
		n int
	}
	entries := make([]entry, 0, len(counts))
	for c, n := range counts {
		entries = append(entries, entry{c: c, n: n})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].n != entries[j].n {
			return entries[i].n > entries[j].n
		}
		return colorKey(entries[i].c) < colorKey(entries[j].c)
	})
	if len(entries) > 256 {
		entries = entries[:256]
	}

	palette := make(color.Palette, len(entries))
	index := make(map[color.RGBA]uint8, len(entries))
	for i, e := range entries {
		palette[i] = e.c
		index[e.c] = uint8(i)
	}

	dst := image.NewPaletted(b, palette)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			qc := quantizeColor(src.RGBAAt(x, y))
			i, ok := index[qc]
			if !ok {
				i = uint8(palette.Index(qc))
				index[qc] = i
			}
			dst.SetColorIndex(x, y, i)
		}
	}
	return dst
}

func quantizeColor(c color.RGBA) color.RGBA {
	return color.RGBA{
		R: c.R&0xF0 | c.R>>4,
		G: c.G&0xF0 | c.G>>4,
		B: c.B&0xF0 | c.B>>4,
		A: c.A&0xF0 | c.A>>4,
	}
}

func colorKey(c color.RGBA) uint32 {
	return uint32(c.R)<<24 | uint32(c.G)<<16 | uint32(c.B)<<8 | uint32(c.A)
}
