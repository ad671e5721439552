// Package sink writes the archive copy and the metadata document for each processed script.
package sink

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"time"

	apperrors "go-script-validator/internal/errors"
	"go-script-validator/internal/logger"
	"go-script-validator/internal/preprocess"
	"go-script-validator/pkg/models"
	"go-script-validator/pkg/validation"

	"github.com/jung-kurt/gofpdf"
	"github.com/sirupsen/logrus"
)

const (
	maxFilenameLength = 120
	maxNameAttempts   = 1000
	stampLayout       = "20060102_150405"
	unknownCourse     = "UNKNOWN"

	// A4 in millimetres
	pageWidth  = 210.0
	pageHeight = 297.0
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// SafeFilename replaces every character outside [A-Za-z0-9._-] with '_' and caps the length
func SafeFilename(s string) string {
	s = unsafeChars.ReplaceAllString(s, "_")
	if len(s) > maxFilenameLength {
		s = s[:maxFilenameLength]
	}
	return s
}

// Written lists the files produced for one script
type Written struct {
	PDFPath      string
	MetadataPath string
	Stamp        string
}

// Sink persists records to two directories
type Sink struct {
	pdfDir  string
	metaDir string
	now     func() time.Time
}

// New creates a sink. Directories are created on first write.
func New(pdfDir, metaDir string) *Sink {
	return &Sink{pdfDir: pdfDir, metaDir: metaDir, now: time.Now}
}

// WithClock replaces the time source used for stamps and created_at
func (s *Sink) WithClock(now func() time.Time) *Sink {
	s.now = now
	return s
}

// Now returns the sink clock in UTC
func (s *Sink) Now() time.Time {
	return s.now().UTC()
}

// BaseName builds {USN}_{course}_{stamp}
func BaseName(meta models.CanonicalMetadata, stamp string) string {
	course := meta.CourseID
	if course == "" {
		course = unknownCourse
	}
	usn := meta.USN
	if usn == "" {
		usn = models.UnknownUSN
	}
	return SafeFilename(fmt.Sprintf("%s_%s_%s", usn, course, stamp))
}

// Persist writes the archive PDF built from inputPath and the metadata document, stamped
// with the sink clock. The record is checked against the schema before anything is written.
func (s *Sink) Persist(inputPath string, isPDF bool, record models.PersistedMetadata) (*Written, error) {
	return s.PersistAt(inputPath, isPDF, record, s.Now())
}

// PersistAt is Persist with an explicit stamp time
func (s *Sink) PersistAt(inputPath string, isPDF bool, record models.PersistedMetadata, at time.Time) (*Written, error) {
	at = at.UTC()
	stamp := at.Format(stampLayout)
	if record.CreatedAt == "" {
		record.CreatedAt = at.Format(time.RFC3339)
	}

	if err := validation.ValidateRecord(record); err != nil {
		return nil, err
	}

	for _, dir := range []string{s.pdfDir, s.metaDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, apperrors.NewStorageError("failed to create output directory", err).WithDetails(dir)
		}
	}

	pdfPath, metaPath, err := s.reserve(BaseName(record.Metadata, stamp))
	if err != nil {
		return nil, err
	}

	if isPDF {
		err = copyFile(inputPath, pdfPath)
	} else {
		err = ImageToPDF(inputPath, pdfPath)
	}
	if err != nil {
		os.Remove(metaPath)
		return nil, apperrors.NewStorageError("failed to write archive copy", err)
	}

	if err := writeJSON(metaPath, record); err != nil {
		os.Remove(metaPath)
		return nil, apperrors.NewStorageError("failed to write metadata", err)
	}

	logger.WithFields(logrus.Fields{
		"pdf_path":      pdfPath,
		"metadata_path": metaPath,
	}).Debug("Persisted script")

	return &Written{PDFPath: pdfPath, MetadataPath: metaPath, Stamp: stamp}, nil
}

// reserve claims an unused base name by creating the metadata file exclusively. When
// base is taken, _1, _2 and so on are tried, so concurrent writers never share a name.
func (s *Sink) reserve(base string) (string, string, error) {
	for n := 0; n < maxNameAttempts; n++ {
		name := base
		if n > 0 {
			name = fmt.Sprintf("%s_%d", base, n)
		}
		pdfPath, err := filepath.Abs(filepath.Join(s.pdfDir, name+".pdf"))
		if err != nil {
			return "", "", apperrors.NewStorageError("invalid output path", err)
		}
		metaPath, err := filepath.Abs(filepath.Join(s.metaDir, name+".json"))
		if err != nil {
			return "", "", apperrors.NewStorageError("invalid output path", err)
		}

		f, err := os.OpenFile(metaPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", "", apperrors.NewStorageError("failed to create metadata file", err).WithDetails(metaPath)
		}
		f.Close()

		if _, err := os.Lstat(pdfPath); err == nil {
			os.Remove(metaPath)
			continue
		}
		return pdfPath, metaPath, nil
	}
	return "", "", apperrors.NewStorageError("no free output name", nil).WithDetails(base)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// ImageToPDF places the image at src on a single A4 page, scaled to fit and centred
func ImageToPDF(src, dst string) error {
	img, err := preprocess.DecodeFile(src)
	if err != nil {
		return apperrors.NewUnreadableInputError("unreadable image", err)
	}
	data, err := preprocess.EncodeJPEG(img, 95)
	if err != nil {
		return err
	}

	b := img.Bounds()
	w, h := fitA4(float64(b.Dx()), float64(b.Dy()))

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	opts := gofpdf.ImageOptions{ImageType: "JPG"}
	pdf.RegisterImageOptionsReader("page", opts, bytes.NewReader(data))
	pdf.ImageOptions("page", (pageWidth-w)/2, (pageHeight-h)/2, w, h, false, opts, 0, "")

	return pdf.OutputFileAndClose(dst)
}

// fitA4 scales width x height to the largest size fitting an A4 page
func fitA4(width, height float64) (float64, float64) {
	if width <= 0 || height <= 0 {
		return pageWidth, pageHeight
	}
	scale := pageWidth / width
	if s := pageHeight / height; s < scale {
		scale = s
	}
	return width * scale, height * scale
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
