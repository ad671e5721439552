// Package quality measures how readable a scanned page is and turns field provenance and
// local OCR agreement into a confidence signal.
package quality

import (
	"image"
	"runtime"
	"sync"

	"golang.org/x/image/draw"
	"gonum.org/v1/gonum/stat"
)

// DefaultNormalizedWidth is the width pages are scaled down to before the blur score is
// taken, so the score does not depend on scan resolution.
const DefaultNormalizedWidth = 1200

// Calculator computes page metrics with Gonum
type Calculator struct {
	normalizedWidth int
	slicePool       sync.Pool
}

// NewCalculator creates a metrics calculator
func NewCalculator() *Calculator {
	return NewCalculatorWithWidth(DefaultNormalizedWidth)
}

// NewCalculatorWithWidth creates a calculator that normalises to width; zero disables scaling.
func NewCalculatorWithWidth(width int) *Calculator {
	return &Calculator{
		normalizedWidth: width,
		slicePool: sync.Pool{
			New: func() interface{} {
				return make([]float64, 0, 1024)
			},
		},
	}
}

// Grayscale converts img to grey, scaled down to the normalised width when wider.
func (c *Calculator) Grayscale(img image.Image) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if c.normalizedWidth > 0 && w > c.normalizedWidth {
		nh := h * c.normalizedWidth / w
		if nh < 1 {
			nh = 1
		}
		gray := image.NewGray(image.Rect(0, 0, c.normalizedWidth, nh))
		draw.ApproxBiLinear.Scale(gray, gray.Bounds(), img, b, draw.Src, nil)
		return gray
	}
	gray := image.NewGray(image.Rect(0, 0, w, h))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}

// LaplacianVariance is the variance of the 4-neighbour Laplacian. Low values mean blur.
func (c *Calculator) LaplacianVariance(gray *image.Gray) float64 {
	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width < 3 || height < 3 {
		return 0
	}

	// Get reusable slice from pool
	data := c.slicePool.Get().([]float64)
	defer func() { c.slicePool.Put(data[:0]) }()

	if cap(data) < (width-2)*(height-2) {
		data = make([]float64, 0, (width-2)*(height-2))
	}

	at := func(x, y int) float64 {
		return float64(gray.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y)
	}

	// Laplacian kernel: [0, 1, 0; 1, -4, 1; 0, 1, 0]
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			laplacian := -4*at(x, y) + at(x, y-1) + at(x, y+1) + at(x-1, y) + at(x+1, y)
			data = append(data, laplacian)
		}
	}

	return stat.Variance(data, nil)
}

// Brightness is the mean grey level, 0..255
func (c *Calculator) Brightness(gray *image.Gray) float64 {
	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	if width == 0 || height == 0 {
		return 0
	}

	if width*height < 100000 {
		return sumRows(gray, bounds.Min.Y, bounds.Max.Y) / float64(width*height)
	}

	numWorkers := runtime.NumCPU()
	if height < numWorkers {
		numWorkers = height
	}
	if numWorkers <= 0 {
		numWorkers = 1
	}
	rowsPerWorker := (height + numWorkers - 1) / numWorkers // ceil division

	results := make(chan float64, numWorkers)
	var wg sync.WaitGroup

	for i := 0; i < numWorkers; i++ {
		startY := bounds.Min.Y + i*rowsPerWorker
		if startY >= bounds.Max.Y {
			break
		}
		endY := startY + rowsPerWorker
		if endY > bounds.Max.Y {
			endY = bounds.Max.Y
		}
		wg.Add(1)
		go func(startY, endY int) {
			defer wg.Done()
			results <- sumRows(gray, startY, endY)
		}(startY, endY)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var total float64
	for s := range results {
		total += s
	}
	return total / float64(width*height)
}

func sumRows(gray *image.Gray, startY, endY int) float64 {
	bounds := gray.Bounds()
	var total float64
	for y := startY; y < endY; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			total += float64(gray.GrayAt(x, y).Y)
		}
	}
	return total
}
