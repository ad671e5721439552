package models

// ExtractRequest asks the service to process one input
type ExtractRequest struct {
	FilePath string `json:"file_path" binding:"required"`
	Upload   *bool  `json:"upload,omitempty"`
}

// ExtractResponse is returned by POST /extract
type ExtractResponse struct {
	Status       string            `json:"status"`
	RequestID    string            `json:"request_id"`
	Metadata     CanonicalMetadata `json:"metadata"`
	Validation   ValidationResult  `json:"validation"`
	PDFCID       string            `json:"pdf_cid"`
	PDFPath      string            `json:"pdf_path"`
	MetadataPath string            `json:"metadata_path"`
	Timestamp    string            `json:"timestamp"`
	Confidence   float64           `json:"confidence"`
	Degraded     bool              `json:"degraded"`
}

// ValidateRequest carries metadata in any key spelling plus optional expectations
type ValidateRequest struct {
	Metadata         map[string]any `json:"metadata" binding:"required"`
	ExpectedUSN      string         `json:"expected_usn,omitempty"`
	ExpectedCourseID string         `json:"expected_courseid,omitempty"`
}

// Mismatch reports an expected value that differs from the normalized one
type Mismatch struct {
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Distance int    `json:"distance"`
}

// ValidateResponse is returned by POST /validate
type ValidateResponse struct {
	Status     string              `json:"status"`
	Valid      bool                `json:"valid"`
	Errors     map[string]string   `json:"errors"`
	Mismatches map[string]Mismatch `json:"mismatches,omitempty"`
	Metadata   CanonicalMetadata   `json:"metadata"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
