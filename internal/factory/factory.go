package factory

import (
	"context"
	"fmt"

	"go-script-validator/internal/ai"
	"go-script-validator/internal/config"
	"go-script-validator/internal/ocr"
	"go-script-validator/internal/storage"
)

// StoreFactory creates archive stores
type StoreFactory interface {
	CreateStore(storeType string) (storage.Store, error)
}

// FetcherFactory creates remote input fetchers
type FetcherFactory interface {
	CreateHTTPFetcher() storage.Fetcher
	// CreateAzureFetcher returns nil when no Azure account is configured
	CreateAzureFetcher() (storage.Fetcher, error)
}

// ClientFactory creates model clients
type ClientFactory interface {
	CreateClient(ctx context.Context) (ai.Client, func() error, error)
}

// storeFactory implements StoreFactory
type storeFactory struct {
	cfg *config.Config
}

// NewStoreFactory creates a new store factory
func NewStoreFactory(cfg *config.Config) StoreFactory {
	return &storeFactory{cfg: cfg}
}

// CreateStore creates a store implementation based on the specified type
func (f *storeFactory) CreateStore(storeType string) (storage.Store, error) {
	switch storeType {
	case config.StoreIPFS:
		return storage.NewIPFSStore(f.cfg.Store.IPFSAPI, f.cfg.Store.IPFSTimeout), nil
	case config.StoreAzure:
		if f.cfg.Store.AzureAccount == "" || f.cfg.Store.AzureKey == "" {
			return nil, fmt.Errorf("azure store requires AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY")
		}
		return storage.NewAzureStorage(f.cfg.Store.AzureAccount, f.cfg.Store.AzureKey, f.cfg.Store.AzureContainer)
	case config.StoreNone, "":
		return storage.NoopStore{}, nil
	default:
		return nil, fmt.Errorf("unsupported store type: %s", storeType)
	}
}

// fetcherFactory implements FetcherFactory
type fetcherFactory struct {
	cfg *config.Config
}

// NewFetcherFactory creates a new fetcher factory
func NewFetcherFactory(cfg *config.Config) FetcherFactory {
	return &fetcherFactory{cfg: cfg}
}

func (f *fetcherFactory) CreateHTTPFetcher() storage.Fetcher {
	return storage.NewHTTPFetcher()
}

func (f *fetcherFactory) CreateAzureFetcher() (storage.Fetcher, error) {
	if f.cfg.Store.AzureAccount == "" || f.cfg.Store.AzureKey == "" {
		return nil, nil
	}
	return storage.NewAzureStorage(f.cfg.Store.AzureAccount, f.cfg.Store.AzureKey, f.cfg.Store.AzureContainer)
}

// geminiFactory implements ClientFactory
type geminiFactory struct {
	cfg *config.Config
}

// NewClientFactory creates a factory for the configured model
func NewClientFactory(cfg *config.Config) ClientFactory {
	return &geminiFactory{cfg: cfg}
}

// CreateClient returns the model client and a function releasing it
func (f *geminiFactory) CreateClient(ctx context.Context) (ai.Client, func() error, error) {
	client, err := ai.NewGeminiClient(ctx, f.cfg.GenAI.APIKey, f.cfg.GenAI.Model, f.cfg.GenAI.Timeout)
	if err != nil {
		return nil, nil, err
	}
	return client, client.Close, nil
}

// CreateOCRReader returns a local OCR reader when the fallback is enabled. A nil reader
// with a nil error means OCR is off.
func CreateOCRReader(cfg *config.Config) (ocr.Reader, error) {
	if !cfg.OCR.Fallback {
		return nil, nil
	}
	return ocr.NewTesseractReader(cfg.OCR.Language)
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	StoreFactory   StoreFactory
	FetcherFactory FetcherFactory
	ClientFactory  ClientFactory
}

// NewComponentFactory creates a new component factory
func NewComponentFactory(cfg *config.Config) *ComponentFactory {
	return &ComponentFactory{
		StoreFactory:   NewStoreFactory(cfg),
		FetcherFactory: NewFetcherFactory(cfg),
		ClientFactory:  NewClientFactory(cfg),
	}
}
