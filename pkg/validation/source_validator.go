package validation

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"

	apperrors "go-script-validator/internal/errors"
)

// SourceKind tells where an input script lives
type SourceKind string

const (
	SourceLocal SourceKind = "local"
	SourceHTTP  SourceKind = "http"
	SourceAzure SourceKind = "azure"
)

const azureBlobHostSuffix = ".blob.core.windows.net"

// SupportedExtensions are the input formats the pipeline reads
var SupportedExtensions = []string{".pdf", ".png", ".jpg", ".jpeg"}

// SourceValidator handles input reference validation logic
type SourceValidator struct {
	allowedSchemes []string
	allowedHosts   []string
}

// NewSourceValidator creates a source validator with default settings
func NewSourceValidator() *SourceValidator {
	return &SourceValidator{
		allowedSchemes: []string{"http", "https"},
		allowedHosts:   []string{}, // empty means all hosts allowed
	}
}

// NewSourceValidatorWithOptions creates a source validator with custom remote restrictions
func NewSourceValidatorWithOptions(schemes []string, hosts []string) *SourceValidator {
	return &SourceValidator{
		allowedSchemes: schemes,
		allowedHosts:   hosts,
	}
}

// ValidateSource classifies source and checks it can be processed. Anything that does not
// parse as an absolute URL with a scheme is treated as a local path.
func (v *SourceValidator) ValidateSource(source string) (SourceKind, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return "", apperrors.NewValidationError("source cannot be empty", nil)
	}

	if !looksLikeURL(source) {
		if !IsSupportedExtension(source) {
			return "", apperrors.NewValidationError("unsupported file type", nil).WithDetails(filepath.Ext(source))
		}
		return SourceLocal, nil
	}

	u, err := v.validateURL(source)
	if err != nil {
		return "", err
	}
	if !IsSupportedExtension(u.Path) {
		return "", apperrors.NewValidationError("unsupported file type", nil).WithDetails(path.Ext(u.Path))
	}
	if strings.HasSuffix(strings.ToLower(u.Hostname()), azureBlobHostSuffix) {
		return SourceAzure, nil
	}
	return SourceHTTP, nil
}

// ValidateURL validates a remote input reference
func (v *SourceValidator) ValidateURL(raw string) error {
	_, err := v.validateURL(raw)
	return err
}

func (v *SourceValidator) validateURL(raw string) (*url.URL, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, apperrors.NewValidationError("URL cannot be empty", nil)
	}

	parsedURL, err := url.Parse(raw)
	if err != nil {
		return nil, apperrors.NewValidationError("Invalid URL format", err)
	}

	if !v.isSchemeAllowed(parsedURL.Scheme) {
		return nil, apperrors.NewValidationError("URL scheme not allowed", nil)
	}

	if parsedURL.Host == "" {
		return nil, apperrors.NewValidationError("URL must have a valid host", nil)
	}

	if len(v.allowedHosts) > 0 && !v.isHostAllowed(parsedURL.Host) {
		return nil, apperrors.NewValidationError("URL host not allowed", nil)
	}

	return parsedURL, nil
}

// isSchemeAllowed checks if the URL scheme is in the allowed list
func (v *SourceValidator) isSchemeAllowed(scheme string) bool {
	for _, allowed := range v.allowedSchemes {
		if scheme == allowed {
			return true
		}
	}
	return false
}

// isHostAllowed checks if the URL host is in the allowed list
// Returns true if no host restrictions are set (empty allowedHosts)
func (v *SourceValidator) isHostAllowed(host string) bool {
	if len(v.allowedHosts) == 0 {
		return true
	}
	for _, allowed := range v.allowedHosts {
		if host == allowed {
			return true
		}
	}
	return false
}

func looksLikeURL(s string) bool {
	i := strings.Index(s, "://")
	return i > 0 && !strings.ContainsAny(s[:i], `/\.`)
}

// IsSupportedExtension reports whether name ends in a readable input format
func IsSupportedExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range SupportedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// IsPDF reports whether name is a PDF by extension
func IsPDF(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}
