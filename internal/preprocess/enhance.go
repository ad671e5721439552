package preprocess

import (
	"image"
	"math"
)

var sharpenKernel = [3][3]int{
	{0, -1, 0},
	{-1, 5, -1},
	{0, -1, 0},
}

// Enhance converts to greyscale, equalizes local contrast with clip-limited tiles,
// sharpens, and returns a three-channel image with equal R, G and B.
func (p *Preprocessor) Enhance(img image.Image) *image.RGBA {
	gray := toGray(img)
	equalized := clahe(gray, p.opts.ClipLimit, p.opts.TileGrid)
	sharp := sharpen(equalized)

	b := sharp.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			v := sharp.Pix[y*sharp.Stride+x]
			i := out.PixOffset(x, y)
			out.Pix[i+0] = v
			out.Pix[i+1] = v
			out.Pix[i+2] = v
			out.Pix[i+3] = 0xff
		}
	}
	return out
}

// clahe applies contrast limited adaptive histogram equalization on a tiles x tiles grid.
// Images not divisible by the grid are extended by reflection for the histograms.
func clahe(gray *image.Gray, clipLimit float64, tiles int) *image.Gray {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return out
	}
	if tiles < 1 {
		tiles = 1
	}

	at := func(x, y int) uint8 {
		return gray.GrayAt(b.Min.X+reflect101(x, w), b.Min.Y+reflect101(y, h)).Y
	}

	padW, padH := w, h
	if w%tiles != 0 {
		padW += tiles - w%tiles
	}
	if h%tiles != 0 {
		padH += tiles - h%tiles
	}
	tileW, tileH := padW/tiles, padH/tiles
	tileArea := tileW * tileH

	limit := 0
	if clipLimit > 0 {
		limit = int(clipLimit * float64(tileArea) / 256)
		if limit < 1 {
			limit = 1
		}
	}
	lutScale := 255.0 / float64(tileArea)

	luts := make([][256]uint8, tiles*tiles)
	for ty := 0; ty < tiles; ty++ {
		for tx := 0; tx < tiles; tx++ {
			var hist [256]int
			for y := ty * tileH; y < (ty+1)*tileH; y++ {
				for x := tx * tileW; x < (tx+1)*tileW; x++ {
					hist[at(x, y)]++
				}
			}

			if limit > 0 {
				clipped := 0
				for i := range hist {
					if hist[i] > limit {
						clipped += hist[i] - limit
						hist[i] = limit
					}
				}
				batch := clipped / 256
				residual := clipped - batch*256
				for i := range hist {
					hist[i] += batch
				}
				if residual != 0 {
					step := 256 / residual
					if step < 1 {
						step = 1
					}
					for i := 0; i < 256 && residual > 0; i += step {
						hist[i]++
						residual--
					}
				}
			}

			lut := &luts[ty*tiles+tx]
			sum := 0
			for i := range hist {
				sum += hist[i]
				lut[i] = saturate(float64(sum) * lutScale)
			}
		}
	}

	invTW, invTH := 1.0/float64(tileW), 1.0/float64(tileH)
	for y := 0; y < h; y++ {
		tyf := float64(y)*invTH - 0.5
		ty1 := int(math.Floor(tyf))
		ty2 := ty1 + 1
		ya := tyf - float64(ty1)
		ty1 = clamp(ty1, 0, tiles-1)
		ty2 = clamp(ty2, 0, tiles-1)

		for x := 0; x < w; x++ {
			txf := float64(x)*invTW - 0.5
			tx1 := int(math.Floor(txf))
			tx2 := tx1 + 1
			xa := txf - float64(tx1)
			tx1 = clamp(tx1, 0, tiles-1)
			tx2 = clamp(tx2, 0, tiles-1)

			v := gray.GrayAt(b.Min.X+x, b.Min.Y+y).Y
			top := float64(luts[ty1*tiles+tx1][v])*(1-xa) + float64(luts[ty1*tiles+tx2][v])*xa
			bottom := float64(luts[ty2*tiles+tx1][v])*(1-xa) + float64(luts[ty2*tiles+tx2][v])*xa
			out.Pix[y*out.Stride+x] = saturate(top*(1-ya) + bottom*ya)
		}
	}
	return out
}

func sharpen(gray *image.Gray) *image.Gray {
	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sum := 0
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					k := sharpenKernel[ky+1][kx+1]
					if k == 0 {
						continue
					}
					sx, sy := reflect101(x+kx, w), reflect101(y+ky, h)
					sum += k * int(gray.Pix[sy*gray.Stride+sx])
				}
			}
			out.Pix[y*out.Stride+x] = saturate(float64(sum))
		}
	}
	return out
}

// reflect101 mirrors an out-of-range index without repeating the border pixel.
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*n - 2 - i
		}
	}
	return i
}
