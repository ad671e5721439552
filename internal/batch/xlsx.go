package batch

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

const summarySheet = "Summary"

var summaryHeaders = []string{
	"File", "Status", "USN", "Course ID", "Semester", "Course Name",
	"Valid", "Confidence", "Degraded", "PDF CID", "PDF Path", "Metadata Path", "Error",
}

// WriteXLSX writes the summary as a spreadsheet into dir and returns the file path
func WriteXLSX(dir string, s Summary) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}
	path := filepath.Join(dir, SummaryXLSXName)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return "", err
	}

	for i, h := range summaryHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(summarySheet, cell, h)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		last, _ := excelize.CoordinatesToCellName(len(summaryHeaders), 1)
		_ = f.SetCellStyle(summarySheet, "A1", last, style)
	}

	for r, e := range s.Files {
		row := []interface{}{
			e.File, e.Status, e.USN, e.CourseID, e.Semester, e.CourseName,
			e.Valid, e.Confidence, e.Degraded, e.PDFCID, e.PDFPath, e.MetadataPath, e.Error,
		}
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			_ = f.SetCellValue(summarySheet, cell, v)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to write spreadsheet: %w", err)
	}
	return path, nil
}
