package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clindoc/clindoc/internal/config"
	"github.com/clindoc/clindoc/internal/domain/extraction"
	"github.com/clindoc/clindoc/internal/domain/terminology"
	"github.com/clindoc/clindoc/internal/platform/docmap"
	"github.com/clindoc/clindoc/internal/platform/middleware"
	"github.com/clindoc/clindoc/internal/platform/telemetry"
	"github.com/clindoc/clindoc/internal/schema"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "clindoc-server",
		Short: "Clinical document extraction and terminology normalization server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(processCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the document processing API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func processCmd() *cobra.Command {
	var (
		file    string
		lang    string
		country string
	)
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Process a single document from a file and print the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return fmt.Errorf("--file is required")
			}
			return runProcess(file, lang, country)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "path to the document file")
	cmd.Flags().StringVar(&lang, "lang", "en", "target language for displays")
	cmd.Flags().StringVar(&country, "country", "", "ISO country code hint")
	return cmd
}

func newLogger() zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return logger
}

// newMapStore picks the document map backend from configuration. A closer
// is returned for backends that hold resources.
func newMapStore(cfg *config.Config, logger zerolog.Logger) (docmap.Store, func(), error) {
	switch cfg.MapCacheDriver {
	case config.MapCacheSQLite:
		store, err := docmap.NewSQLiteStore(cfg.MapCachePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite map cache: %w", err)
		}
		logger.Info().Str("path", cfg.MapCachePath).Msg("using sqlite map cache")
		return store, func() { store.Close() }, nil
	case config.MapCacheRedis:
		client, err := docmap.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis map cache: %w", err)
		}
		logger.Info().Msg("using redis map cache")
		return docmap.NewRedisStore(client, 24*time.Hour), func() { client.Close() }, nil
	default:
		return docmap.NewMemoryStore(), func() {}, nil
	}
}

// newCatalogue picks the terminology backend: Postgres when a database is
// configured, a remote terminology service as the next choice, and an empty
// in-memory catalogue otherwise. The resolver degrades to raw displays
// against an empty catalogue, so every variant is runnable.
func newCatalogue(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (terminology.CatalogueRepository, func(), error) {
	if cfg.DatabaseURL != "" {
		pool, err := terminology.NewPGPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, nil, fmt.Errorf("connect terminology database: %w", err)
		}
		logger.Info().Msg("using postgres terminology catalogue")
		return terminology.NewPGCatalogue(pool), func() { pool.Close() }, nil
	}
	if cfg.TerminologyURL != "" {
		logger.Info().Str("url", cfg.TerminologyURL).Msg("using remote terminology catalogue")
		return terminology.NewHTTPCatalogue(cfg.TerminologyURL), func() {}, nil
	}
	logger.Warn().Msg("no terminology backend configured, displays fall back to raw values")
	return terminology.NewMemoryCatalogue(), func() {}, nil
}

func loadSchema(cfg *config.Config, logger zerolog.Logger) *schema.Schema {
	if cfg.SchemaFile == "" {
		return schema.Default()
	}
	s, err := schema.Load(cfg.SchemaFile)
	if err != nil {
		logger.Fatal().Err(err).Str("file", cfg.SchemaFile).Msg("failed to load mapping schema")
	}
	logger.Info().Str("file", cfg.SchemaFile).Str("version", s.Version()).Msg("loaded mapping schema")
	return s
}

func runServer() error {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()

	mapStore, closeStore, err := newMapStore(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize map cache")
	}
	defer closeStore()

	catalogue, closeCatalogue, err := newCatalogue(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize terminology catalogue")
	}
	defer closeCatalogue()

	metrics := telemetry.New()
	resolver := terminology.NewResolver(catalogue, logger, metrics)
	svc := extraction.NewService(extraction.ServiceConfig{
		Schema:          loadSchema(cfg, logger),
		MapStore:        mapStore,
		Resolver:        resolver,
		TitleTranslator: terminology.NewTitleTranslator(resolver, catalogue),
		Metrics:         metrics,
		Logger:          logger,
		DefaultLanguage: cfg.DefaultLanguage,
	})

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Content-Type", middleware.HeaderRequestID},
	}))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}))

	timeout, err := time.ParseDuration(cfg.RequestTimeout)
	if err != nil {
		timeout = 30 * time.Second
	}
	e.Use(middleware.Timeout(timeout))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := e.Group("/api")
	extraction.NewHandler(svc).RegisterRoutes(api)
	api.GET("/documents/metrics", metrics.Handler())

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

// runProcess handles the one-shot CLI path: read a document, run the
// pipeline with the configured backends, print the result as JSON.
func runProcess(file, lang, country string) error {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	content, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}

	ctx := context.Background()
	catalogue, closeCatalogue, err := newCatalogue(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeCatalogue()

	metrics := telemetry.New()
	resolver := terminology.NewResolver(catalogue, logger, metrics)
	svc := extraction.NewService(extraction.ServiceConfig{
		Schema:          loadSchema(cfg, logger),
		MapStore:        docmap.NewMemoryStore(),
		Resolver:        resolver,
		TitleTranslator: terminology.NewTitleTranslator(resolver, catalogue),
		Metrics:         metrics,
		Logger:          logger,
		DefaultLanguage: cfg.DefaultLanguage,
	})

	result := svc.Process(ctx, extraction.ProcessRequest{
		Content:  string(content),
		Language: lang,
		Country:  country,
	})

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	fmt.Println(string(out))

	if !result.Success {
		return fmt.Errorf("document processing failed: %s", result.Error)
	}
	return nil
}
