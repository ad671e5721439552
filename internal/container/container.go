package container

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go-script-validator/internal/ai"
	"go-script-validator/internal/config"
	"go-script-validator/internal/extractor"
	"go-script-validator/internal/factory"
	"go-script-validator/internal/logger"
	"go-script-validator/internal/observer"
	"go-script-validator/internal/ocr"
	"go-script-validator/internal/preprocess"
	"go-script-validator/internal/quality"
	"go-script-validator/internal/rasterizer"
	"go-script-validator/internal/repository"
	"go-script-validator/internal/service"
	"go-script-validator/internal/storage"
	"go-script-validator/internal/strategy"
	"go-script-validator/internal/transport"
	"go-script-validator/pkg/validation"
)

// Container holds all application dependencies
type Container struct {
	config  *config.Config
	store   storage.Store
	service service.ExtractionService
	metrics *observer.MetricsObserver
	handler http.Handler
	closers []func() error
}

// Options override parts of the dependency graph
type Options struct {
	// Client replaces the configured model client
	Client ai.Client
	// StoreType replaces cfg.Store.Type
	StoreType string
}

// NewContainer builds the dependency graph from cfg
func NewContainer(ctx context.Context, cfg *config.Config, opts Options) (*Container, error) {
	c := &Container{config: cfg}
	components := factory.NewComponentFactory(cfg)

	client := opts.Client
	if client == nil {
		created, closeClient, err := components.ClientFactory.CreateClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create model client: %w", err)
		}
		client = created
		c.closers = append(c.closers, closeClient)
	}

	storeType := cfg.Store.Type
	if opts.StoreType != "" {
		storeType = opts.StoreType
	}
	store, err := components.StoreFactory.CreateStore(storeType)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to create store: %w", err)
	}
	c.store = store

	azureFetcher, err := components.FetcherFactory.CreateAzureFetcher()
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to create azure fetcher: %w", err)
	}
	repo := repository.New(
		validation.NewSourceValidator(),
		components.FetcherFactory.CreateHTTPFetcher(),
		azureFetcher,
	)

	pre := preprocess.New()
	ext := extractor.New(client, extractor.Options{
		Retry:        ai.NewRetryPolicy(cfg.GenAI.Retries, cfg.GenAI.BackoffBase),
		Preprocessor: pre,
	})
	strat, err := c.buildStrategy(cfg, ext, pre)
	if err != nil {
		c.Close()
		return nil, err
	}

	events := observer.NewEventPublisher()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	c.metrics = observer.NewMetricsObserver()
	events.Subscribe(c.metrics)

	c.service = service.NewExtractionService(service.Dependencies{
		Repository: repo,
		Rasterizer: rasterizer.New(cfg.RasterDPI),
		Strategy:   strat,
		Assessor:   quality.NewAssessor(),
		Store:      store,
		Events:     events,
		PDFOutDir:  cfg.Output.PDFDir,
		MetaOutDir: cfg.Output.MetaDir,
	})
	c.handler = transport.NewHandler(c.service, c.metrics, cfg)

	return c, nil
}

func (c *Container) buildStrategy(cfg *config.Config, ext *extractor.Extractor, pre *preprocess.Preprocessor) (strategy.ExtractionStrategy, error) {
	primary := strategy.NewAIExtractionStrategy(ext)

	reader, err := factory.CreateOCRReader(cfg)
	if err != nil {
		if errors.Is(err, ocr.ErrOCRNotEnabled) {
			logger.Warn("OCR fallback requested but OCR support is not compiled in; continuing without it")
			return primary, nil
		}
		return nil, fmt.Errorf("failed to create OCR reader: %w", err)
	}
	if reader == nil {
		return primary, nil
	}
	c.closers = append(c.closers, reader.Close)

	return strategy.NewFallbackStrategy(primary, strategy.NewOCRExtractionStrategy(reader, pre), reader), nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Service returns the extraction service
func (c *Container) Service() service.ExtractionService {
	return c.service
}

// Metrics returns the processing counters
func (c *Container) Metrics() *observer.MetricsObserver {
	return c.metrics
}

// Store returns the archive store in use
func (c *Container) Store() storage.Store {
	return c.store
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Close releases the model client and the OCR reader
func (c *Container) Close() error {
	var first error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	c.closers = nil
	return first
}
