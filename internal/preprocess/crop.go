package preprocess

import (
	"image"
	"image/draw"
)

// headerRegion is a crop window in fractions of the page size
type headerRegion struct {
	top, bottom float64
	right       float64
}

// Three header windows covering the common script layouts: the top band, an overlapping
// lower band, and the top-left block.
var headerRegions = []headerRegion{
	{top: 0, bottom: 0.18, right: 1},
	{top: 0.08, bottom: 0.28, right: 1},
	{top: 0, bottom: 0.22, right: 0.60},
}

// CropHeaderRegions returns copies of the three fixed header windows, in order.
// Every crop is at least 1x1 so that tiny pages still encode.
func (p *Preprocessor) CropHeaderRegions(img image.Image) []image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	crops := make([]image.Image, 0, len(headerRegions))
	for _, r := range headerRegions {
		y0, y1 := span(h, r.top, r.bottom)
		_, x1 := span(w, 0, r.right)
		rect := image.Rect(0, y0, x1, y1).Add(b.Min)

		dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
		draw.Draw(dst, dst.Bounds(), img, rect.Min, draw.Src)
		crops = append(crops, dst)
	}
	return crops
}

// span maps a fractional window onto [0, n), never narrower than one pixel.
func span(n int, from, to float64) (int, int) {
	if n <= 0 {
		return 0, 1
	}
	lo, hi := int(float64(n)*from), int(float64(n)*to)
	if lo > n-1 {
		lo = n - 1
	}
	if hi <= lo {
		hi = lo + 1
	}
	return lo, hi
}
