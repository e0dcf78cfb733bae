package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/davidbz/folio/internal/cache/redis"
	"github.com/davidbz/folio/internal/config"
	"github.com/davidbz/folio/internal/domain"
	"github.com/davidbz/folio/internal/export"
	"github.com/davidbz/folio/internal/http"
	"github.com/davidbz/folio/internal/http/middleware"
	"github.com/davidbz/folio/internal/observability"
	"github.com/davidbz/folio/internal/pdf"
	"github.com/davidbz/folio/internal/provider/echo"
	"github.com/davidbz/folio/internal/provider/openai"
	"github.com/davidbz/folio/internal/provider/registry"
	"github.com/davidbz/folio/internal/schema"
	"github.com/davidbz/folio/internal/store/sqlite"
	"github.com/davidbz/folio/internal/store/summary"
)

// ErrProviderNotConfigured indicates that a provider is not configured and should be skipped.
var ErrProviderNotConfigured = errors.New("provider not configured")

var version = "dev"

func main() {
	cfg := config.Load()
	container := buildContainer(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(cfg, container).ExecuteContext(ctx)
	stop()

	_ = container.Invoke(func(logger *zap.Logger) {
		_ = logger.Sync()
	})

	if err != nil {
		fmt.Fprintf(os.Stderr, "folio: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config, container *dig.Container) *cobra.Command {
	root := &cobra.Command{
		Use:           "folio",
		Short:         "Batch structured-data extraction from PDFs with per-file cost accounting",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			// Flags are parsed by now, so the logger sees --log-level.
			return container.Invoke(func(*zap.Logger) {})
		},
	}

	root.PersistentFlags().StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "log level (debug, info, warn, error)")

	root.AddCommand(
		newRunCmd(cfg, container),
		newModelsCmd(container),
		newCostsCmd(container),
		newExportCmd(container),
		newServeCmd(container),
	)

	return root
}

func buildContainer(cfg *config.Config) *dig.Container {
	container := dig.New()

	// Configuration
	if err := container.Provide(func() *config.Config { return cfg }); err != nil {
		log.Fatalf("Failed to provide config: %v", err)
	}
	if err := container.Provide(config.ParseDependenciesConfig); err != nil {
		log.Fatalf("Failed to provide config dependencies: %v", err)
	}

	// Observability
	if err := container.Provide(observability.InitLogger); err != nil {
		log.Fatalf("Failed to provide logger: %v", err)
	}
	if err := container.Provide(func(logger *zap.Logger) domain.EventPublisher {
		return observability.NewEventBus(logger)
	}); err != nil {
		log.Fatalf("Failed to provide event bus: %v", err)
	}

	// Models and extraction contract
	if err := container.Provide(func() (*domain.ModelRegistry, error) {
		return domain.NewModelRegistry(append(openai.DefaultModels(), echo.DefaultModels()...)...)
	}); err != nil {
		log.Fatalf("Failed to provide model registry: %v", err)
	}
	if err := container.Provide(schema.Load); err != nil {
		log.Fatalf("Failed to provide extraction schema: %v", err)
	}
	if err := container.Provide(func(cfg *pdf.Config) domain.ContentExtractor {
		return pdf.NewExtractor(cfg)
	}); err != nil {
		log.Fatalf("Failed to provide content extractor: %v", err)
	}

	// Payload cache, nil when REDIS_ADDR is unset.
	if err := container.Provide(func(cfg *redis.Config) (domain.PayloadCache, error) {
		if !cfg.Enabled() {
			return nil, nil
		}
		client, err := redis.NewClient(context.Background(), cfg)
		if err != nil {
			return nil, err
		}
		return redis.NewPayloadCache(client), nil
	}); err != nil {
		log.Fatalf("Failed to provide payload cache: %v", err)
	}

	// Backend Registry
	if err := container.Provide(newBackendRegistry); err != nil {
		log.Fatalf("Failed to provide backend registry: %v", err)
	}

	// Stores
	if err := container.Provide(func(cfg *config.OutputConfig) *summary.Store {
		return summary.NewStore(cfg.SummaryPath)
	}); err != nil {
		log.Fatalf("Failed to provide summary store: %v", err)
	}
	if err := container.Provide(func(store *summary.Store) domain.SummaryStore {
		return store
	}); err != nil {
		log.Fatalf("Failed to provide summary store interface: %v", err)
	}
	// Ledger, nil when LEDGER_PATH is unset.
	if err := container.Provide(func(cfg *sqlite.Config) (*sqlite.Ledger, error) {
		if cfg.Path == "" {
			return nil, nil
		}
		return sqlite.New(cfg.Path)
	}); err != nil {
		log.Fatalf("Failed to provide run ledger: %v", err)
	}
	if err := container.Provide(func() *export.Exporter {
		return export.NewExporter(schema.ColumnNames())
	}); err != nil {
		log.Fatalf("Failed to provide exporter: %v", err)
	}

	// HTTP Layer
	if err := container.Provide(middleware.BuildMiddlewareChain); err != nil {
		log.Fatalf("Failed to provide middleware chain: %v", err)
	}
	if err := container.Provide(http.NewHandler); err != nil {
		log.Fatalf("Failed to provide HTTP handler: %v", err)
	}
	if err := container.Provide(http.NewServer); err != nil {
		log.Fatalf("Failed to provide HTTP server: %v", err)
	}

	return container
}

type backendDeps struct {
	dig.In
	Extraction  *schema.Schema
	Cache       domain.PayloadCache
	RedisConfig *redis.Config
	OpenAI      *openai.Config
}

// newBackendRegistry registers the echo backend always and OpenAI when an API
// key is configured. With a payload cache every backend is wrapped by it.
func newBackendRegistry(deps backendDeps) (domain.BackendRegistry, error) {
	ctx := context.Background()
	logger := observability.FromContext(ctx)

	backends := []domain.ExtractionBackend{echo.NewBackend()}

	if deps.OpenAI.Enabled() {
		openaiBackend, err := openai.NewBackend(*deps.OpenAI, deps.Extraction)
		if err != nil {
			return nil, fmt.Errorf("failed to create OpenAI backend: %w", err)
		}
		backends = append(backends, openaiBackend)
	} else {
		logger.Debug("OpenAI backend skipped", observability.Error(ErrProviderNotConfigured))
	}

	reg := registry.NewRegistry()
	for _, backend := range backends {
		if deps.Cache != nil {
			backend = domain.NewCachingBackend(backend, deps.Cache, deps.RedisConfig.TTL, deps.Extraction.Fingerprint())
		}
		if err := reg.Register(ctx, backend); err != nil {
			return nil, fmt.Errorf("failed to register %s backend: %w", backend.Name(), err)
		}
	}

	return reg, nil
}
