package models

// ExtractionRecord is the outcome of processing one input file.
type ExtractionRecord struct {
	RequestID  string `json:"request_id"`
	Status     string `json:"status"`
	Source     string `json:"source"`
	StudentID  string `json:"student_id"`
	ExamID     string `json:"exam_id"`
	CourseName string `json:"course_name"`
	Semester   string `json:"semester"`
	Timestamp  string `json:"timestamp"`

	PDFPath      string `json:"pdf_path"`
	PDFCID       string `json:"pdf_cid"`
	MetadataPath string `json:"metadata_path"`

	Metadata   CanonicalMetadata `json:"metadata"`
	Validation ValidationResult  `json:"validation"`
	Quality    *QualityReport    `json:"quality,omitempty"`
	Confidence float64           `json:"confidence"`

	Degraded      bool                  `json:"degraded"`
	ParseDegraded bool                  `json:"parse_degraded"`
	Rescued       []string              `json:"rescued"`
	Provenance    map[string]Provenance `json:"provenance,omitempty"`
}

// PersistedMetadata is the document written next to the archive copy.
type PersistedMetadata struct {
	Metadata   CanonicalMetadata     `json:"metadata"`
	Validation ValidationResult      `json:"validation"`
	Quality    *QualityReport        `json:"quality,omitempty"`
	Confidence float64               `json:"confidence"`
	Provenance map[string]Provenance `json:"provenance,omitempty"`
	Source     string                `json:"source"`
	CreatedAt  string                `json:"created_at"`
}
