package factory

import (
	"context"
	"testing"

	"go-script-validator/internal/config"
	"go-script-validator/internal/ocr"
	"go-script-validator/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateStore(t *testing.T) {
	cfg := config.Default()
	f := NewStoreFactory(cfg)

	s, err := f.CreateStore(config.StoreIPFS)
	require.NoError(t, err)
	assert.Equal(t, "ipfs", s.Name())

	s, err = f.CreateStore(config.StoreNone)
	require.NoError(t, err)
	assert.IsType(t, storage.NoopStore{}, s)

	_, err = f.CreateStore(config.StoreAzure)
	assert.Error(t, err)

	_, err = f.CreateStore("s3")
	assert.Error(t, err)
}

func TestCreateStore_Azure(t *testing.T) {
	cfg := config.Default()
	cfg.Store.AzureAccount = "devstoreaccount1"
	cfg.Store.AzureKey = "Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw=="

	s, err := NewStoreFactory(cfg).CreateStore(config.StoreAzure)
	require.NoError(t, err)
	assert.Equal(t, "azure", s.Name())
}

func TestCreateAzureFetcher_Unconfigured(t *testing.T) {
	fetcher, err := NewFetcherFactory(config.Default()).CreateAzureFetcher()
	require.NoError(t, err)
	assert.Nil(t, fetcher)
}

func TestCreateClient_RequiresKey(t *testing.T) {
	_, _, err := NewClientFactory(config.Default()).CreateClient(context.Background())
	assert.Error(t, err)
}

func TestCreateOCRReader(t *testing.T) {
	cfg := config.Default()

	reader, err := CreateOCRReader(cfg)
	require.NoError(t, err)
	assert.Nil(t, reader)

	cfg.OCR.Fallback = true
	reader, err = CreateOCRReader(cfg)
	if !ocr.Enabled {
		assert.ErrorIs(t, err, ocr.ErrOCRNotEnabled)
		return
	}
	require.NoError(t, err)
	assert.NoError(t, reader.Close())
}
