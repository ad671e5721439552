package preprocess

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/stat"
)

func createTestImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// createLineImage draws a dark band of the given thickness at angle degrees (y grows down)
func createLineImage(size int, angle float64, thickness int) *image.RGBA {
	img := createTestImage(size, size, color.White)
	t := math.Tan(angle * math.Pi / 180)
	y0 := float64(size) / 3
	for x := 20; x < size-20; x++ {
		yc := int(math.Round(y0 + float64(x)*t))
		for dy := -thickness / 2; dy <= thickness/2; dy++ {
			img.Set(x, yc+dy, color.Black)
		}
	}
	return img
}

func samePixels(a, b image.Image) bool {
	if a.Bounds() != b.Bounds() {
		return false
	}
	for y := a.Bounds().Min.Y; y < a.Bounds().Max.Y; y++ {
		for x := a.Bounds().Min.X; x < a.Bounds().Max.X; x++ {
			r1, g1, b1, a1 := a.At(x, y).RGBA()
			r2, g2, b2, a2 := b.At(x, y).RGBA()
			if r1 != r2 || g1 != g2 || b1 != b2 || a1 != a2 {
				return false
			}
		}
	}
	return true
}

func TestDeskew_BlankPageUnchanged(t *testing.T) {
	p := New()
	img := createTestImage(200, 300, color.White)

	out := p.Deskew(img)

	if out != image.Image(img) {
		t.Error("expected the very same image back when no line is detected")
	}
	if !samePixels(img, out) {
		t.Error("expected pixel-identical output")
	}
}

func TestDeskew_LevelLinesUnchanged(t *testing.T) {
	p := New()
	img := createTestImage(400, 300, color.White)
	for y := 100; y < 160; y++ {
		for x := 0; x < 400; x++ {
			img.Set(x, y, color.Black)
		}
	}

	if angle, ok := p.EstimateSkew(img); ok {
		t.Fatalf("expected level page, got skew %.2f", angle)
	}
	if out := p.Deskew(img); !samePixels(img, out) {
		t.Error("expected pixel-identical output for a level page")
	}
}

func TestEstimateSkew_DetectsTiltedLine(t *testing.T) {
	p := New()
	img := createLineImage(600, 5, 5)

	angle, ok := p.EstimateSkew(img)
	if !ok {
		t.Fatal("expected a skew estimate")
	}
	if math.Abs(angle-5) > 1.5 {
		t.Errorf("expected skew near 5 degrees, got %.2f", angle)
	}

	leveled := p.Deskew(img)
	if leveled.Bounds() != img.Bounds() {
		t.Errorf("rotation must keep the size, got %v", leveled.Bounds())
	}
	if again, ok := p.EstimateSkew(leveled); ok && math.Abs(again) > 1.5 {
		t.Errorf("expected leveled page, residual skew %.2f", again)
	}
}

func TestEstimateSkew_IgnoresVerticalLines(t *testing.T) {
	p := New()
	img := createTestImage(300, 400, color.White)
	for y := 0; y < 400; y++ {
		for x := 140; x < 160; x++ {
			img.Set(x, y, color.Black)
		}
	}

	if angle, ok := p.EstimateSkew(img); ok {
		t.Errorf("vertical strokes must not produce skew, got %.2f", angle)
	}
}

func TestRotate_ReplicatesBorders(t *testing.T) {
	p := New()
	img := createTestImage(120, 80, color.RGBA{200, 10, 10, 255})

	out := p.rotate(img, 10)
	for _, pt := range []image.Point{{0, 0}, {119, 0}, {0, 79}, {119, 79}} {
		c := out.RGBAAt(pt.X, pt.Y)
		if c != (color.RGBA{200, 10, 10, 255}) {
			t.Errorf("corner %v padded with %v, expected the page colour", pt, c)
		}
	}
}

func TestMedian(t *testing.T) {
	if got := median([]float64{3, 1, 2}); got != 2 {
		t.Errorf("odd median = %v", got)
	}
	if got := median([]float64{4, 1, 3, 2}); got != 2.5 {
		t.Errorf("even median = %v", got)
	}
}

func TestEnhance_ThreeEqualChannels(t *testing.T) {
	p := New()
	img := image.NewRGBA(image.Rect(0, 0, 97, 61))
	for y := 0; y < 61; y++ {
		for x := 0; x < 97; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 2), uint8(y * 3), 90, 255})
		}
	}

	out := p.Enhance(img)

	if out.Bounds().Dx() != 97 || out.Bounds().Dy() != 61 {
		t.Fatalf("unexpected size %v", out.Bounds())
	}
	for y := 0; y < 61; y++ {
		for x := 0; x < 97; x++ {
			c := out.RGBAAt(x, y)
			if c.R != c.G || c.G != c.B || c.A != 255 {
				t.Fatalf("pixel (%d,%d) = %v, expected grey with full alpha", x, y, c)
			}
		}
	}
}

func TestEnhance_UniformStaysUniform(t *testing.T) {
	p := New()
	out := p.Enhance(createTestImage(64, 64, color.Gray{Y: 128}))

	first := out.RGBAAt(0, 0)
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			if out.RGBAAt(x, y) != first {
				t.Fatalf("pixel (%d,%d) differs on a uniform page", x, y)
			}
		}
	}
}

func TestEnhance_StretchesLowContrast(t *testing.T) {
	p := New()
	img := image.NewGray(image.Rect(0, 0, 256, 128))
	for y := 0; y < 128; y++ {
		for x := 0; x < 256; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(100 + x*40/256)})
		}
	}

	out := p.Enhance(img)

	before := make([]float64, 0, 256*128)
	after := make([]float64, 0, 256*128)
	for y := 0; y < 128; y++ {
		for x := 0; x < 256; x++ {
			before = append(before, float64(img.GrayAt(x, y).Y))
			after = append(after, float64(out.RGBAAt(x, y).R))
		}
	}
	if stat.StdDev(after, nil) <= stat.StdDev(before, nil) {
		t.Errorf("expected more contrast: before %.2f after %.2f",
			stat.StdDev(before, nil), stat.StdDev(after, nil))
	}
}

func TestCropHeaderRegions(t *testing.T) {
	p := New()
	img := image.NewRGBA(image.Rect(0, 0, 1000, 2000))
	for y := 0; y < 2000; y++ {
		for x := 0; x < 1000; x++ {
			img.Set(x, y, color.RGBA{uint8(y % 256), uint8(y / 256), uint8(x % 256), 255})
		}
	}

	crops := p.CropHeaderRegions(img)
	if len(crops) != 3 {
		t.Fatalf("expected 3 crops, got %d", len(crops))
	}

	want := []struct {
		w, h    int
		originY int
	}{
		{1000, 360, 0},
		{1000, 400, 160},
		{600, 440, 0},
	}
	for i, c := range crops {
		b := c.Bounds()
		if b.Dx() != want[i].w || b.Dy() != want[i].h {
			t.Errorf("crop %d size %dx%d, want %dx%d", i, b.Dx(), b.Dy(), want[i].w, want[i].h)
		}
		if c.At(b.Min.X, b.Min.Y) != img.At(0, want[i].originY) {
			t.Errorf("crop %d does not start at row %d", i, want[i].originY)
		}
	}
}

func TestCropHeaderRegions_OffsetBounds(t *testing.T) {
	p := New()
	base := createTestImage(200, 200, color.White)
	sub := base.SubImage(image.Rect(50, 50, 150, 150))

	crops := p.CropHeaderRegions(sub)
	if crops[0].Bounds().Dx() != 100 || crops[0].Bounds().Dy() != 18 {
		t.Errorf("unexpected crop size %v", crops[0].Bounds())
	}
}

func TestCropHeaderRegions_TinyPage(t *testing.T) {
	p := New()
	for _, size := range []image.Point{{40, 4}, {1, 1}, {3, 200}} {
		img := createTestImage(size.X, size.Y, color.White)
		for i, c := range p.CropHeaderRegions(img) {
			b := c.Bounds()
			if b.Dx() < 1 || b.Dy() < 1 {
				t.Fatalf("page %v crop %d is empty: %v", size, i, b)
			}
			if _, err := EncodePNG(c); err != nil {
				t.Fatalf("page %v crop %d does not encode: %v", size, i, err)
			}
		}
	}
}

func TestPrepare(t *testing.T) {
	p := New()
	prepared := p.Prepare(createTestImage(100, 100, color.White))

	if prepared.SkewDetected {
		t.Error("blank page must not report skew")
	}
	if prepared.Enhanced == nil || len(prepared.Crops) != 3 {
		t.Errorf("incomplete preparation: %+v", prepared)
	}
}

func TestCodec(t *testing.T) {
	img := createTestImage(40, 30, color.RGBA{10, 20, 30, 255})

	jpg, err := EncodeJPEG(img, FullPageJPEGQuality)
	if err != nil || len(jpg) < 2 || jpg[0] != 0xFF || jpg[1] != 0xD8 {
		t.Fatalf("bad jpeg: err=%v", err)
	}

	pngBytes, err := EncodePNG(img)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := png.Decode(bytes.NewReader(pngBytes))
	if err != nil || !samePixels(img, decoded) {
		t.Fatalf("png must be lossless: err=%v", err)
	}

	dir := t.TempDir()
	good := filepath.Join(dir, "page.png")
	if err := os.WriteFile(good, pngBytes, 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := DecodeFile(good); err != nil {
		t.Errorf("DecodeFile failed: %v", err)
	}

	bad := filepath.Join(dir, "page.jpg")
	if err := os.WriteFile(bad, []byte("not an image"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := DecodeFile(bad); err == nil {
		t.Error("expected decode error for garbage bytes")
	}
}

func TestReflect101(t *testing.T) {
	tests := []struct{ i, n, want int }{
		{-1, 5, 1},
		{-2, 5, 2},
		{5, 5, 3},
		{6, 5, 2},
		{0, 1, 0},
		{3, 5, 3},
	}
	for _, tt := range tests {
		if got := reflect101(tt.i, tt.n); got != tt.want {
			t.Errorf("reflect101(%d,%d) = %d, want %d", tt.i, tt.n, got, tt.want)
		}
	}
}
