package models

// QualityReport is the best-effort image quality signal attached to every record.
type QualityReport struct {
	Width        int     `json:"width"`
	Height       int     `json:"height"`
	LaplacianVar float64 `json:"laplacian_variance"`
	Brightness   float64 `json:"brightness"`
	SkewAngle    float64 `json:"skew_angle"`

	Blurry        bool `json:"blurry"`
	TooDark       bool `json:"too_dark"`
	TooBright     bool `json:"too_bright"`
	LowResolution bool `json:"low_resolution"`
	Skewed        bool `json:"skewed"`

	Issues []QualityIssue `json:"issues,omitempty"`

	// OCR agreement (only when local OCR ran)
	OCR *OCRAgreement `json:"ocr,omitempty"`
}

// QualityIssue describes one failed quality check.
type QualityIssue struct {
	Type        string  `json:"type"`
	Message     string  `json:"message"`
	Severity    string  `json:"severity"` // "error", "warning", "info"
	ActualValue float64 `json:"actual_value,omitempty"`
	Threshold   float64 `json:"threshold,omitempty"`
}

// OCRAgreement compares extracted field values with locally recognised header text.
type OCRAgreement struct {
	Text string  `json:"text,omitempty"`
	CER  float64 `json:"character_error_rate"`
	WER  float64 `json:"word_error_rate"`
}
