package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dropiq/dropiq-api/internal/cache"
	"github.com/dropiq/dropiq-api/internal/config"
	"github.com/dropiq/dropiq-api/internal/database"
	"github.com/dropiq/dropiq-api/internal/handler"
	"github.com/dropiq/dropiq-api/internal/middleware"
	"github.com/dropiq/dropiq-api/internal/repository"
	"github.com/dropiq/dropiq-api/internal/service"
	"github.com/dropiq/dropiq-api/internal/worker"
	"github.com/dropiq/dropiq-api/pkg/apify"
	"github.com/dropiq/dropiq-api/pkg/browseai"
	"github.com/dropiq/dropiq-api/pkg/gemini"
	"github.com/dropiq/dropiq-api/pkg/sovrn"
)

// main is the application entrypoint for the DropIQ product search API.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting dropiq api")

	// 3. Connect database
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// 3a. Run migrations
	if err := runMigrations(db.DB); err != nil {
		log.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("migrations completed successfully")

	// 3b. Connect to Redis. The cache only backs AI spelling corrections,
	// so a missing Redis degrades to uncached corrections instead of
	// refusing to boot.
	var spellCache *cache.SpellingCache
	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("redis connection failed - spelling corrections will not be cached")
	} else {
		defer redisClient.Close()
		spellCache = cache.NewSpellingCache(redisClient)
		log.Info().Msg("redis connected successfully")
	}

	// 4. Initialize external clients
	geminiClient := gemini.NewClient(cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.Timeout)
	if cfg.Gemini.Enabled && !geminiClient.Configured() {
		log.Warn().Msg("GEMINI_API_KEY not set - AI spelling correction disabled")
	}

	sovrnClient := sovrn.NewClient(sovrn.Config{
		APIKey:    cfg.Sovrn.APIKey,
		SecretKey: cfg.Sovrn.SecretKey,
		BidFloor:  cfg.Sovrn.BidFloor,
		Market:    cfg.Sovrn.Market,
	})
	if !sovrnClient.Configured() {
		log.Warn().Msg("SOVRN_API_KEY not set - affiliate links and recommendations disabled")
	}

	apifyClient := apify.NewClient(cfg.Apify.Token, []apify.Source{
		{Name: "amazon", URL: cfg.Apify.AmazonEndpoint, Retailer: "amazon", Limit: cfg.Apify.AmazonLimit},
		{Name: "flipkart", URL: cfg.Apify.FlipkartEndpoint, Retailer: "flipkart", Limit: cfg.Apify.FlipkartLimit},
	})

	browseaiClient := browseai.NewClient(cfg.BrowseAI.APIKey, cfg.BrowseAI.BaseURL, brandStores(&cfg.BrowseAI))

	// 5. Initialize repositories
	productRepo := repository.NewProductRepository(db)
	historyRepo := repository.NewSearchHistoryRepository(db)

	// 6. Initialize services
	searchSvc := service.NewSearchService(productRepo, historyRepo, geminiClient, spellCache, cfg.Gemini.Enabled)
	enrichmentSvc := service.NewEnrichmentService(productRepo, sovrnClient)
	ingestionSvc := service.NewIngestionService(productRepo, apifyClient, browseaiClient, sovrnClient)

	// 7. Initialize handlers
	handlers := &Handlers{
		Health:     handler.NewHealthHandler(),
		Search:     handler.NewSearchHandler(searchSvc),
		Product:    handler.NewProductHandler(productRepo),
		Enrichment: handler.NewEnrichmentHandler(enrichmentSvc),
	}

	// 8. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.LoggingMiddleware())
	setupRoutes(router, handlers)

	// 9. Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 10. Start workers
	if cfg.Worker.IngestionEnabled {
		go worker.NewIngestionWorker(ingestionSvc, cfg.Worker.IngestionDay, cfg.Worker.IngestionHour).Start(ctx)
	}

	// 11. Start HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 12. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 13. Cancel context to stop workers
	cancel()

	// 14. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health     *handler.HealthHandler
	Search     *handler.SearchHandler
	Product    *handler.ProductHandler
	Enrichment *handler.EnrichmentHandler
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, handlers *Handlers) {
	api := router.Group("/api")
	api.GET("/health", handlers.Health.GetHealth)

	products := api.Group("/products")
	{
		products.GET("/search", handlers.Search.Search)
		products.GET("/search-history", handlers.Search.SearchHistory)
		products.DELETE("/search-history", handlers.Search.ClearSearchHistory)
		products.GET("/popular-searches", handlers.Search.PopularSearches)
		products.GET("/frequent-searches", handlers.Search.FrequentSearches)

		products.GET("/:id", handlers.Product.GetProduct)
		products.GET("/:id/recommendations", handlers.Enrichment.GetRecommendations)
		products.GET("/:id/price-comparisons", handlers.Enrichment.GetPriceComparisons)
	}
}

// brandStores maps configured Browse.ai robot tasks to ingestion stores.
// A store missing either ID is left out.
func brandStores(cfg *config.BrowseAIConfig) []browseai.Store {
	var stores []browseai.Store
	if cfg.SamsungRobotID != "" && cfg.SamsungTaskID != "" {
		stores = append(stores, browseai.Store{Name: "samsung-store", Retailer: "samsung", RobotID: cfg.SamsungRobotID, TaskID: cfg.SamsungTaskID})
	}
	if cfg.SonyRobotID != "" && cfg.SonyTaskID != "" {
		stores = append(stores, browseai.Store{Name: "sony-store", Retailer: "sony", RobotID: cfg.SonyRobotID, TaskID: cfg.SonyTaskID})
	}
	return stores
}

// runMigrations runs database migrations using golang-migrate.
func runMigrations(db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
