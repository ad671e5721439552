package preprocess

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Deskew levels the page using the median angle of near-horizontal lines.
// When no usable line is found the input is returned as is.
func (p *Preprocessor) Deskew(img image.Image) image.Image {
	angle, ok := p.EstimateSkew(img)
	if !ok {
		return img
	}
	return p.rotate(img, angle)
}

// EstimateSkew returns the median line angle in degrees. ok is false when no line within
// the accepted range was found or when the page is already level.
func (p *Preprocessor) EstimateSkew(img image.Image) (float64, bool) {
	gray := toGray(img)
	edges := canny(gray, p.opts.CannyLow, p.opts.CannyHigh)
	thetas := houghLines(edges, gray.Bounds().Dx(), gray.Bounds().Dy(), p.opts.HoughThreshold)

	angles := make([]float64, 0, len(thetas))
	for _, theta := range thetas {
		a := theta - 90
		if a > -p.opts.MaxSkewAngle && a < p.opts.MaxSkewAngle {
			angles = append(angles, a)
		}
	}
	if len(angles) == 0 {
		return 0, false
	}

	angle := median(angles)
	if angle == 0 {
		return 0, false
	}
	return angle, true
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return stat.Mean(sorted[n/2-1:n/2+1], nil)
}

// rotate turns the image by angle degrees about its centre (positive is counter-clockwise
// on screen) keeping the size. Samples outside the source repeat the nearest edge pixel.
func (p *Preprocessor) rotate(img image.Image, angle float64) *image.RGBA {
	src := toRGBA(img)
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))

	rad := angle * math.Pi / 180
	alpha, beta := math.Cos(rad), math.Sin(rad)
	cx, cy := float64(w)/2, float64(h)/2

	for y := 0; y < h; y++ {
		dy := float64(y) - cy
		for x := 0; x < w; x++ {
			dx := float64(x) - cx
			sx := alpha*dx - beta*dy + cx
			sy := beta*dx + alpha*dy + cy
			dst.SetRGBA(x, y, bilinear(src, sx, sy))
		}
	}
	return dst
}

func bilinear(src *image.RGBA, x, y float64) color.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	fx := x - float64(x0)
	fy := y - float64(y0)

	p00 := rgbaAt(src, clamp(x0, 0, w-1), clamp(y0, 0, h-1))
	p10 := rgbaAt(src, clamp(x0+1, 0, w-1), clamp(y0, 0, h-1))
	p01 := rgbaAt(src, clamp(x0, 0, w-1), clamp(y0+1, 0, h-1))
	p11 := rgbaAt(src, clamp(x0+1, 0, w-1), clamp(y0+1, 0, h-1))

	mix := func(a, b, c, d uint8) uint8 {
		top := float64(a)*(1-fx) + float64(b)*fx
		bottom := float64(c)*(1-fx) + float64(d)*fx
		return saturate(top*(1-fy) + bottom*fy)
	}

	return color.RGBA{
		R: mix(p00.R, p10.R, p01.R, p11.R),
		G: mix(p00.G, p10.G, p01.G, p11.G),
		B: mix(p00.B, p10.B, p01.B, p11.B),
		A: mix(p00.A, p10.A, p01.A, p11.A),
	}
}

func rgbaAt(img *image.RGBA, x, y int) color.RGBA {
	return img.RGBAAt(img.Rect.Min.X+x, img.Rect.Min.Y+y)
}

// canny returns an edge map (row-major, true for edge pixels) using Sobel gradients with
// L1 magnitude, non-maximum suppression and hysteresis.
func canny(gray *image.Gray, low, high float64) []bool {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 3 || h < 3 {
		return make([]bool, w*h)
	}

	px := func(x, y int) int {
		return int(gray.GrayAt(b.Min.X+clamp(x, 0, w-1), b.Min.Y+clamp(y, 0, h-1)).Y)
	}

	dxs := make([]int, w*h)
	dys := make([]int, w*h)
	mag := make([]int, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gx := -px(x-1, y-1) + px(x+1, y-1) +
				-2*px(x-1, y) + 2*px(x+1, y) +
				-px(x-1, y+1) + px(x+1, y+1)
			gy := -px(x-1, y-1) - 2*px(x, y-1) - px(x+1, y-1) +
				px(x-1, y+1) + 2*px(x, y+1) + px(x+1, y+1)
			i := y*w + x
			dxs[i], dys[i] = gx, gy
			mag[i] = absInt(gx) + absInt(gy)
		}
	}

	magAt := func(x, y int) int {
		if x < 0 || y < 0 || x >= w || y >= h {
			return 0
		}
		return mag[y*w+x]
	}

	const (
		tan22 = 0.4142135623730951
		tan67 = 2.414213562373095
	)

	// 0 none, 1 weak, 2 strong
	state := make([]uint8, w*h)
	stack := make([]int, 0, 1024)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			m := mag[i]
			if float64(m) <= low {
				continue
			}
			ax := math.Abs(float64(dxs[i]))
			ay := math.Abs(float64(dys[i]))

			var keep bool
			switch {
			case ay < ax*tan22:
				keep = m > magAt(x-1, y) && m >= magAt(x+1, y)
			case ay > ax*tan67:
				keep = m > magAt(x, y-1) && m >= magAt(x, y+1)
			default:
				s := 1
				if (dxs[i] < 0) != (dys[i] < 0) {
					s = -1
				}
				keep = m > magAt(x-s, y-1) && m > magAt(x+s, y+1)
			}
			if !keep {
				continue
			}
			if float64(m) > high {
				state[i] = 2
				stack = append(stack, i)
			} else {
				state[i] = 1
			}
		}
	}

	edges := make([]bool, w*h)
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if edges[i] {
			continue
		}
		edges[i] = true
		x, y := i%w, i/w
		for ny := y - 1; ny <= y+1; ny++ {
			for nx := x - 1; nx <= x+1; nx++ {
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				j := ny*w + nx
				if state[j] > 0 && !edges[j] {
					stack = append(stack, j)
				}
			}
		}
	}
	return edges
}

// houghLines runs the standard line transform with 1 pixel and 1 degree resolution and
// returns the normal angle (degrees, [0, 180)) of every local accumulator maximum above
// threshold votes.
func houghLines(edges []bool, w, h, threshold int) []float64 {
	const numAngle = 180
	numRho := int(math.Round(float64((w+h)*2 + 1)))
	offset := (numRho - 1) / 2

	cosT := make([]float64, numAngle)
	sinT := make([]float64, numAngle)
	for n := 0; n < numAngle; n++ {
		theta := float64(n) * math.Pi / numAngle
		cosT[n] = math.Cos(theta)
		sinT[n] = math.Sin(theta)
	}

	// padded by one cell on every side
	stride := numRho + 2
	acc := make([]int32, (numAngle+2)*stride)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !edges[y*w+x] {
				continue
			}
			fx, fy := float64(x), float64(y)
			for n := 0; n < numAngle; n++ {
				r := int(math.Round(fx*cosT[n]+fy*sinT[n])) + offset
				acc[(n+1)*stride+r+1]++
			}
		}
	}

	var thetas []float64
	for n := 0; n < numAngle; n++ {
		for r := 0; r < numRho; r++ {
			base := (n+1)*stride + r + 1
			v := acc[base]
			if int(v) > threshold &&
				v > acc[base-1] && v >= acc[base+1] &&
				v > acc[base-stride] && v >= acc[base+stride] {
				thetas = append(thetas, float64(n)*180/numAngle)
			}
		}
	}
	return thetas
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}

func toRGBA(img image.Image) *image.RGBA {
	if r, ok := img.(*image.RGBA); ok {
		return r
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func saturate(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
