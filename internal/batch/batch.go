// Package batch processes many script files with one service and summarises the outcome.
package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go-script-validator/internal/logger"
	"go-script-validator/internal/service"
	"go-script-validator/pkg/models"
	"go-script-validator/pkg/validation"

	"github.com/sirupsen/logrus"
)

const (
	StatusOK    = "ok"
	StatusError = "error"

	SummaryJSONName = "batch_summary.json"
	SummaryXLSXName = "batch_summary.xlsx"
)

// Processor is the slice of the service the runner needs
type Processor interface {
	Process(ctx context.Context, req service.ProcessRequest) (*models.ExtractionRecord, error)
}

// Line is the per-file status printed by the CLI
type Line struct {
	Status string  `json:"status"`
	File   string  `json:"file"`
	PDFCID *string `json:"pdf_cid,omitempty"`
	Error  string  `json:"error,omitempty"`
}

// Result pairs a file with its record or error
type Result struct {
	File   string
	Record *models.ExtractionRecord
	Err    error
}

// Line renders the status line for r
func (r Result) Line() Line {
	if r.Err != nil {
		return Line{Status: StatusError, File: r.File, Error: r.Err.Error()}
	}
	// ok lines always carry pdf_cid, empty when nothing was uploaded
	cid := r.Record.PDFCID
	return Line{Status: StatusOK, File: r.File, PDFCID: &cid}
}

// Options configures a run
type Options struct {
	Workers    int
	Upload     bool
	PDFOutDir  string
	MetaOutDir string

	// OnResult is called once per file as soon as it finishes. Calls are serialised.
	OnResult func(Result)
}

// CollectInputs expands path into the files to process. A directory yields its supported
// files (non-recursive, sorted by name); a file is returned as is.
func CollectInputs(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !validation.IsSupportedExtension(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(path, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// Run processes files concurrently and returns results in input order
func Run(ctx context.Context, p Processor, files []string, opts Options) []Result {
	results := make([]Result, len(files))

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	pool := NewWorkerPool(workers)
	pool.Start()
	defer pool.Close()

	var mu sync.Mutex
	for i, file := range files {
		i, file := i, file
		pool.Submit(func() {
			res := Result{File: file}
			if err := ctx.Err(); err != nil {
				res.Err = err
			} else {
				res.Record, res.Err = p.Process(ctx, service.ProcessRequest{
					Source:     file,
					Upload:     opts.Upload,
					PDFOutDir:  opts.PDFOutDir,
					MetaOutDir: opts.MetaOutDir,
				})
			}
			if res.Err != nil {
				logger.WithError(res.Err).WithField("file", file).Error("Failed to process file")
			}

			mu.Lock()
			defer mu.Unlock()
			results[i] = res
			if opts.OnResult != nil {
				opts.OnResult(res)
			}
		})
	}
	pool.Wait()

	return results
}

// Summary is the document written after a run
type Summary struct {
	GeneratedAt string         `json:"generated_at"`
	Total       int            `json:"total"`
	Succeeded   int            `json:"succeeded"`
	Failed      int            `json:"failed"`
	Valid       int            `json:"valid"`
	Degraded    int            `json:"degraded"`
	Files       []SummaryEntry `json:"files"`
}

// SummaryEntry is one row of the summary
type SummaryEntry struct {
	File         string  `json:"file"`
	Status       string  `json:"status"`
	Error        string  `json:"error,omitempty"`
	USN          string  `json:"usn,omitempty"`
	CourseID     string  `json:"course_id,omitempty"`
	Semester     string  `json:"semester,omitempty"`
	CourseName   string  `json:"course_name,omitempty"`
	Valid        bool    `json:"valid"`
	Confidence   float64 `json:"confidence"`
	Degraded     bool    `json:"degraded"`
	PDFPath      string  `json:"pdf_path,omitempty"`
	PDFCID       string  `json:"pdf_cid,omitempty"`
	MetadataPath string  `json:"metadata_path,omitempty"`
}

// Summarize aggregates results
func Summarize(results []Result, now time.Time) Summary {
	s := Summary{
		GeneratedAt: now.UTC().Format(time.RFC3339),
		Total:       len(results),
		Files:       make([]SummaryEntry, 0, len(results)),
	}
	for _, r := range results {
		entry := SummaryEntry{File: r.File, Status: StatusOK}
		if r.Err != nil {
			entry.Status = StatusError
			entry.Error = r.Err.Error()
			s.Failed++
			s.Files = append(s.Files, entry)
			continue
		}

		rec := r.Record
		s.Succeeded++
		if rec.Validation.Valid {
			s.Valid++
		}
		if rec.Degraded {
			s.Degraded++
		}
		entry.USN = rec.StudentID
		entry.CourseID = rec.ExamID
		entry.Semester = rec.Semester
		entry.CourseName = rec.CourseName
		entry.Valid = rec.Validation.Valid
		entry.Confidence = rec.Confidence
		entry.Degraded = rec.Degraded
		entry.PDFPath = rec.PDFPath
		entry.PDFCID = rec.PDFCID
		entry.MetadataPath = rec.MetadataPath
		s.Files = append(s.Files, entry)
	}
	return s
}

// WriteJSON writes the summary as indented JSON into dir and returns the file path
func WriteJSON(dir string, s Summary) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}
	path := filepath.Join(dir, SummaryJSONName)

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("failed to write summary: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"path":      path,
		"total":     s.Total,
		"succeeded": s.Succeeded,
		"failed":    s.Failed,
	}).Info("Batch summary written")
	return path, nil
}

// EncodeLine renders a status line as compact JSON without a trailing newline
func EncodeLine(l Line) string {
	data, err := json.Marshal(l)
	if err != nil {
		return fmt.Sprintf(`{"status":"error","file":%q,"error":"encode failed"}`, l.File)
	}
	return strings.TrimSpace(string(data))
}
