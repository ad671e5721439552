package rasterizer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	apperrors "go-script-validator/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultDPI(t *testing.T) {
	assert.Equal(t, float64(DefaultDPI), New(0).dpi)
	assert.Equal(t, 300.0, New(300).dpi)
}

func TestFirstPageToImage_Unreadable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 truncated"), 0o600))

	_, err := New(DefaultDPI).FirstPageToImage(context.Background(), path, dir)

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnreadableInput))
	assert.NoFileExists(t, filepath.Join(dir, FirstPageName))
}

func TestFirstPageToImage_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(DefaultDPI).FirstPageToImage(ctx, "missing.pdf", t.TempDir())

	assert.ErrorIs(t, err, context.Canceled)
}
