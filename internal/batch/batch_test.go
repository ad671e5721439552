package batch

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go-script-validator/internal/service"
	"go-script-validator/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fakeProcessor struct {
	mu   sync.Mutex
	reqs []service.ProcessRequest
	fail map[string]error
}

func (p *fakeProcessor) Process(ctx context.Context, req service.ProcessRequest) (*models.ExtractionRecord, error) {
	p.mu.Lock()
	p.reqs = append(p.reqs, req)
	p.mu.Unlock()

	if err := p.fail[req.Source]; err != nil {
		return nil, err
	}
	return &models.ExtractionRecord{
		Status:     "success",
		Source:     req.Source,
		StudentID:  "1AB23CD456",
		ExamID:     "CSE101",
		Semester:   "3",
		PDFCID:     "Qm" + filepath.Base(req.Source),
		Validation: models.ValidationResult{Valid: true, Errors: map[string]string{}},
		Confidence: 0.9,
		Degraded:   filepath.Ext(req.Source) == ".jpg",
	}, nil
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
}

func TestCollectInputs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.pdf", "a.PNG", "c.jpeg", "notes.txt", "d.jpg"} {
		touch(t, filepath.Join(dir, name))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.pdf"), 0o755))

	files, err := CollectInputs(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.PNG"),
		filepath.Join(dir, "b.pdf"),
		filepath.Join(dir, "c.jpeg"),
		filepath.Join(dir, "d.jpg"),
	}, files)

	single := filepath.Join(dir, "b.pdf")
	files, err = CollectInputs(single)
	require.NoError(t, err)
	assert.Equal(t, []string{single}, files)

	_, err = CollectInputs(filepath.Join(dir, "missing"))
	assert.True(t, os.IsNotExist(err))
}

func TestRun(t *testing.T) {
	p := &fakeProcessor{fail: map[string]error{"b.pdf": errors.New("unreadable_input: PDF has no pages")}}
	files := []string{"a.pdf", "b.pdf", "c.jpg", "d.png"}

	var lines []Line
	results := Run(context.Background(), p, files, Options{
		Workers:   3,
		Upload:    true,
		PDFOutDir: "out/pdf",
		OnResult:  func(r Result) { lines = append(lines, r.Line()) },
	})

	require.Len(t, results, 4)
	for i, f := range files {
		assert.Equal(t, f, results[i].File)
	}
	assert.Error(t, results[1].Err)
	assert.Len(t, lines, 4)
	assert.Len(t, p.reqs, 4)
	for _, req := range p.reqs {
		assert.True(t, req.Upload)
		assert.Equal(t, "out/pdf", req.PDFOutDir)
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &fakeProcessor{}
	results := Run(ctx, p, []string{"a.pdf", "b.pdf"}, Options{Workers: 1})

	assert.Empty(t, p.reqs)
	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
}

func TestResultLine(t *testing.T) {
	ok := Result{File: "a.pdf", Record: &models.ExtractionRecord{PDFCID: "QmA"}}
	assert.Equal(t, `{"status":"ok","file":"a.pdf","pdf_cid":"QmA"}`, EncodeLine(ok.Line()))

	noUpload := Result{File: "c.pdf", Record: &models.ExtractionRecord{}}
	assert.Equal(t, `{"status":"ok","file":"c.pdf","pdf_cid":""}`, EncodeLine(noUpload.Line()))

	failed := Result{File: "b.pdf", Err: errors.New("boom")}
	assert.Equal(t, `{"status":"error","file":"b.pdf","error":"boom"}`, EncodeLine(failed.Line()))
}

func TestSummarizeAndWrite(t *testing.T) {
	p := &fakeProcessor{fail: map[string]error{"b.pdf": errors.New("boom")}}
	results := Run(context.Background(), p, []string{"a.pdf", "b.pdf", "c.jpg"}, Options{Workers: 2})

	now := time.Date(2024, 5, 12, 10, 0, 0, 0, time.UTC)
	s := Summarize(results, now)
	assert.Equal(t, "2024-05-12T10:00:00Z", s.GeneratedAt)
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 2, s.Succeeded)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 2, s.Valid)
	assert.Equal(t, 1, s.Degraded)
	assert.Equal(t, "boom", s.Files[1].Error)

	dir := filepath.Join(t.TempDir(), "meta")
	path, err := WriteJSON(dir, s)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, SummaryJSONName), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded Summary
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, s, decoded)

	xlsxPath, err := WriteXLSX(dir, s)
	require.NoError(t, err)

	f, err := excelize.OpenFile(xlsxPath)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(summarySheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, summaryHeaders[0], rows[0][0])
	assert.Equal(t, "a.pdf", rows[1][0])
	assert.Equal(t, "1AB23CD456", rows[1][2])
	assert.Equal(t, "error", rows[2][1])
}
