package imaging

import "image/color"

// Tab10 is the 10-color Matplotlib "tab10" qualitative palette, stored in
// OpenCV's BGR byte order and pre-converted to color.RGBA (as gocv drawing
// calls expect) so callers never have to reason about the channel swap.
var Tab10 = [10]color.RGBA{
	bgr(214, 127, 31),
	bgr(134, 86, 255),
	bgr(113, 178, 44),
	bgr(83, 64, 214),
	bgr(190, 117, 148),
	bgr(107, 76, 140),
	bgr(218, 127, 227),
	bgr(114, 114, 127),
	bgr(51, 176, 188),
	bgr(201, 195, 23),
}

func bgr(b, g, r uint8) color.RGBA {
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// PaletteColor returns a stable Tab10 color for an integer id, cycling
// through the palette for ids beyond its length. Used to give each tracker
// or region a consistent color across frames.
func PaletteColor(id int) color.RGBA {
	if id < 0 {
		id = -id
	}
	return Tab10[id%len(Tab10)]
}
