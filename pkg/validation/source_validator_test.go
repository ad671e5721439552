package validation

import (
	"testing"

	apperrors "go-script-validator/internal/errors"
)

func TestNewSourceValidator(t *testing.T) {
	validator := NewSourceValidator()
	if validator == nil {
		t.Fatal("Expected non-nil source validator")
	}

	expectedSchemes := []string{"http", "https"}
	if len(validator.allowedSchemes) != len(expectedSchemes) {
		t.Errorf("Expected %d schemes, got %d", len(expectedSchemes), len(validator.allowedSchemes))
	}
	for i, scheme := range expectedSchemes {
		if validator.allowedSchemes[i] != scheme {
			t.Errorf("Expected scheme %s, got %s", scheme, validator.allowedSchemes[i])
		}
	}
}

func TestValidateSource_Kinds(t *testing.T) {
	validator := NewSourceValidator()

	tests := []struct {
		source string
		kind   SourceKind
	}{
		{"scans/1AB23CD456.pdf", SourceLocal},
		{"/var/data/page.PNG", SourceLocal},
		{`C:\scans\page.jpeg`, SourceLocal},
		{"https://example.com/scripts/page.jpg", SourceHTTP},
		{"http://192.168.1.1/a/b.pdf?sig=1", SourceHTTP},
		{"https://acct.blob.core.windows.net/scripts/2024/page.pdf", SourceAzure},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			kind, err := validator.ValidateSource(tt.source)
			if err != nil {
				t.Fatalf("Expected %s to be accepted, got %v", tt.source, err)
			}
			if kind != tt.kind {
				t.Errorf("Expected kind %s, got %s", tt.kind, kind)
			}
		})
	}
}

func TestValidateSource_Rejected(t *testing.T) {
	validator := NewSourceValidator()

	rejected := []string{
		"",
		"   ",
		"notes.txt",
		"archive",
		"ftp://example.com/page.pdf",
		"https:///page.pdf",
		"https://example.com/page.gif",
	}

	for _, source := range rejected {
		_, err := validator.ValidateSource(source)
		if err == nil {
			t.Errorf("Expected %q to be rejected", source)
			continue
		}
		if !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
			t.Errorf("Expected validation error for %q, got %v", source, err)
		}
	}
}

func TestValidateURL_HostRestrictions(t *testing.T) {
	validator := NewSourceValidatorWithOptions([]string{"https"}, []string{"example.com"})

	if err := validator.ValidateURL("https://example.com/page.pdf"); err != nil {
		t.Errorf("Expected allowed host to pass, got %v", err)
	}
	if err := validator.ValidateURL("https://other.com/page.pdf"); err == nil {
		t.Error("Expected unknown host to be rejected")
	}
	if err := validator.ValidateURL("http://example.com/page.pdf"); err == nil {
		t.Error("Expected http to be rejected")
	}
}

func TestIsPDF(t *testing.T) {
	if !IsPDF("a/b/Scan.PDF") {
		t.Error("Expected upper-case extension to be a PDF")
	}
	if IsPDF("scan.png") {
		t.Error("Expected png not to be a PDF")
	}
}
