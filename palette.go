package vox

import "image/color"

// Color is the wire-level RGBA color type, aliased to the standard
// library's image/color.RGBA exactly as the pack's paulhankin-vox reader
// represents parsed RGBA chunks.
type Color = color.RGBA

// Palette is an ordered sequence of 256 colors. Index 0 is reserved to
// mean "empty voxel" and always carries alpha 0 once a Scene has passed
// through ReadScene.
type Palette [256]Color

// DefaultPalette returns the palette used when a .vox file carries no
// RGBA chunk. Index 0 is the reserved empty slot.
func DefaultPalette() Palette {
	var p Palette
	// A deterministic ramp across the 255 usable slots; MagicaVoxel's own
	// built-in default table is not reproduced bit-for-bit here since
	// nothing in this spec depends on its exact values, only that some
	// default exists and slot 0 stays empty.
	for i := 1; i < 256; i++ {
		n := i - 1
		levels := [6]uint8{0xFF, 0xCC, 0x99, 0x66, 0x33, 0x00}
		r := levels[(n/36)%6]
		g := levels[(n/6)%6]
		b := levels[n%6]
		p[i] = Color{R: r, G: g, B: b, A: 0xFF}
	}
	p[0] = Color{}
	return p
}

// rotatePaletteIn rotates a freshly-parsed on-disk palette so that
// runtime color i holds the file's color i-1 (slot 0 becomes the file's
// last color, with alpha forced to 0). The file format treats index 1 as
// the first palette entry; the runtime treats index 0 as empty.
func rotatePaletteIn(p Palette) Palette {
	var out Palette
	for i := 0; i < 256; i++ {
		out[i] = p[(i+255)%256]
	}
	out[0].A = 0
	return out
}

// rotatePaletteOut is the exact inverse of rotatePaletteIn, used by the
// writer so the file's index 1 is the runtime's index 1.
func rotatePaletteOut(p Palette) Palette {
	var out Palette
	for i := 0; i < 256; i++ {
		out[(i+255)%256] = p[i]
	}
	return out
}

// nearestColorIndex returns the index in p whose RGB channels are closest
// to c by squared Euclidean distance (alpha is ignored for the search but
// preserved by the caller on write). Index 0 is never returned as a
// non-empty match target; the search starts at index 1.
func nearestColorIndex(p *Palette, c Color) int {
	best := 1
	bestDist := colorDistSq(p[1], c)
	for i := 2; i < 256; i++ {
		d := colorDistSq(p[i], c)
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

func colorDistSq(a, b Color) int {
	dr := int(a.R) - int(b.R)
	dg := int(a.G) - int(b.G)
	db := int(a.B) - int(b.B)
	return dr*dr + dg*dg + db*db
}

func colorsEqualRGB(a, b Color) bool {
	return a.R == b.R && a.G == b.G && a.B == b.B
}
