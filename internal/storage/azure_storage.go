package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// AzureStorage downloads script inputs from blob storage and keeps archive copies there
// under content-derived names.
type AzureStorage struct {
	client    *azblob.Client
	container string
}

// NewAzureStorage connects with a shared key to https://<account>.blob.core.windows.net
func NewAzureStorage(accountName, accountKey, container string) (*AzureStorage, error) {
	return NewAzureStorageWithEndpoint(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		accountName, accountKey, container,
	)
}

// NewAzureStorageWithEndpoint connects to a custom service URL (for example Azurite)
func NewAzureStorageWithEndpoint(serviceURL, accountName, accountKey, container string) (*AzureStorage, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("invalid azure credentials: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create azure client: %w", err)
	}

	return &AzureStorage{client: client, container: container}, nil
}

func (s *AzureStorage) Name() string { return "azure" }

// Fetch downloads a blob URL into destPath. Implements Fetcher.
func (s *AzureStorage) Fetch(ctx context.Context, blobURL, destPath string) error {
	container, blob, err := ParseBlobURL(blobURL)
	if err != nil {
		return err
	}

	resp, err := s.client.DownloadStream(ctx, container, blob, nil)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	body := resp.Body
	defer body.Close()

	return writeFile(destPath, body)
}

// Add uploads path as sha256-<hex><ext> unless a blob of that name already exists and
// returns sha256-<hex>. Implements Store.
func (s *AzureStorage) Add(ctx context.Context, path string) (string, error) {
	digest, err := fileDigest(path)
	if err != nil {
		return "", err
	}
	cid := "sha256-" + digest
	name := cid + strings.ToLower(filepath.Ext(path))

	blob := s.client.ServiceClient().NewContainerClient(s.container).NewBlobClient(name)
	if _, err := blob.GetProperties(ctx, nil); err == nil {
		return cid, nil
	} else if !isNotFound(err) {
		return "", fmt.Errorf("failed to check blob %s: %w", name, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := s.client.UploadFile(ctx, s.container, name, f, nil); err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}
	return cid, nil
}

func isNotFound(err error) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound
}

func fileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ParseBlobURL splits https://<account>.blob.core.windows.net/<container>/<blob> into its
// container and blob names
func ParseBlobURL(blobURL string) (container, blob string, err error) {
	u, err := url.Parse(blobURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid blob URL: %w", err)
	}

	path := strings.TrimPrefix(u.Path, "/")
	container, blob, _ = strings.Cut(path, "/")
	if container == "" || blob == "" {
		return "", "", fmt.Errorf("blob URL must name a container and a blob: %s", blobURL)
	}
	return container, blob, nil
}
