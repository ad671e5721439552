package repository

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	apperrors "go-script-validator/internal/errors"
	"go-script-validator/internal/logger"
	"go-script-validator/internal/storage"
	"go-script-validator/pkg/validation"

	"github.com/sirupsen/logrus"
)

// Repository implements SourceRepository for local paths, HTTP(S) URLs and Azure blob URLs
type Repository struct {
	validator *validation.SourceValidator
	http      storage.Fetcher
	azure     storage.Fetcher
}

// New creates a repository. Either fetcher may be nil, in which case that kind of remote
// source is rejected.
func New(validator *validation.SourceValidator, httpFetcher, azureFetcher storage.Fetcher) *Repository {
	if validator == nil {
		validator = validation.NewSourceValidator()
	}
	return &Repository{
		validator: validator,
		http:      httpFetcher,
		azure:     azureFetcher,
	}
}

// Resolve validates source and makes it readable from disk
func (r *Repository) Resolve(ctx context.Context, source, workDir string) (*Input, error) {
	kind, err := r.validator.ValidateSource(source)
	if err != nil {
		return nil, err
	}

	switch kind {
	case validation.SourceLocal:
		return resolveLocal(source)
	case validation.SourceAzure:
		// Azure blobs without a configured account are still reachable when public
		if r.azure != nil {
			return r.download(ctx, r.azure, source, workDir)
		}
		return r.download(ctx, r.http, source, workDir)
	default:
		return r.download(ctx, r.http, source, workDir)
	}
}

func resolveLocal(source string) (*Input, error) {
	abs, err := filepath.Abs(source)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid file path", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewValidationError(ErrFileNotFound.Error(), err).WithDetails(source)
		}
		return nil, apperrors.NewValidationError("cannot access file", err)
	}
	if info.IsDir() {
		return nil, apperrors.NewValidationError("source is a directory", nil).WithDetails(source)
	}

	return &Input{
		Source: source,
		Path:   abs,
		IsPDF:  validation.IsPDF(abs),
	}, nil
}

func (r *Repository) download(ctx context.Context, fetcher storage.Fetcher, source, workDir string) (*Input, error) {
	if fetcher == nil {
		return nil, apperrors.NewValidationError(ErrRemoteUnavailable.Error(), nil).WithDetails(source)
	}

	name, err := remoteName(source)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid source URL", err)
	}
	dest := filepath.Join(workDir, "input"+name)

	logger.WithFields(logrus.Fields{
		"source": source,
		"dest":   dest,
	}).Debug("Downloading input")

	if err := fetcher.Fetch(ctx, source, dest); err != nil {
		if ctx.Err() != nil {
			return nil, apperrors.NewTimeoutError("download cancelled", err)
		}
		return nil, apperrors.NewNetworkError(fmt.Sprintf("failed to download %s", source), err)
	}

	return &Input{
		Source: source,
		Path:   dest,
		IsPDF:  validation.IsPDF(dest),
		Remote: true,
	}, nil
}

// remoteName returns the lower-cased extension of the URL path, which the validator has
// already checked
func remoteName(source string) (string, error) {
	u, err := url.Parse(source)
	if err != nil {
		return "", err
	}
	ext := path.Ext(u.Path)
	if ext == "" {
		return "", fmt.Errorf("no extension in %s", source)
	}
	return strings.ToLower(ext), nil
}
