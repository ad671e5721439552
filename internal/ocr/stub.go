//go:build !ocr

package ocr

// Enabled reports whether the Tesseract reader is compiled in
const Enabled = false

// NewTesseractReader always fails without the "ocr" build tag
func NewTesseractReader(language string) (Reader, error) {
	return nil, ErrOCRNotEnabled
}
