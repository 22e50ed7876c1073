package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dropiq/dropiq-api/internal/config"
	"github.com/dropiq/dropiq-api/internal/database"
	"github.com/dropiq/dropiq-api/internal/repository"
	"github.com/dropiq/dropiq-api/internal/service"
	"github.com/dropiq/dropiq-api/pkg/apify"
	"github.com/dropiq/dropiq-api/pkg/browseai"
	"github.com/dropiq/dropiq-api/pkg/sovrn"
)

// main runs a single ingestion pass and exits. The marketplace datasets are
// normally pulled by the monthly worker inside the API process; this binary
// exists for manual runs and for the brand stores, which are ingested on
// demand after their robots finish scraping.
func main() {
	source := flag.String("source", "apify", "data source to ingest: apify or brand-stores")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	setupLogger(cfg.Env)

	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(1)
	}
	defer db.Close()

	sovrnClient := sovrn.NewClient(sovrn.Config{
		APIKey:    cfg.Sovrn.APIKey,
		SecretKey: cfg.Sovrn.SecretKey,
		BidFloor:  cfg.Sovrn.BidFloor,
		Market:    cfg.Sovrn.Market,
	})

	apifyClient := apify.NewClient(cfg.Apify.Token, []apify.Source{
		{Name: "amazon", URL: cfg.Apify.AmazonEndpoint, Retailer: "amazon", Limit: cfg.Apify.AmazonLimit},
		{Name: "flipkart", URL: cfg.Apify.FlipkartEndpoint, Retailer: "flipkart", Limit: cfg.Apify.FlipkartLimit},
	})
	browseaiClient := browseai.NewClient(cfg.BrowseAI.APIKey, cfg.BrowseAI.BaseURL, brandStores(&cfg.BrowseAI))

	ingestionSvc := service.NewIngestionService(
		repository.NewProductRepository(db),
		apifyClient,
		browseaiClient,
		sovrnClient,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	var stats *service.IngestStats
	switch *source {
	case "apify":
		stats, err = ingestionSvc.Run(ctx)
	case "brand-stores":
		stats, err = ingestionSvc.IngestBrandStores(ctx)
	default:
		fmt.Fprintf(os.Stderr, "unknown source %q: want apify or brand-stores\n", *source)
		os.Exit(2)
	}
	if err != nil {
		log.Error().Err(err).Str("source", *source).Msg("ingestion failed")
		os.Exit(1)
	}

	log.Info().
		Str("source", *source).
		Dur("duration", time.Since(start)).
		Int("fetched", stats.Fetched).
		Int("inserted", stats.Inserted).
		Int("updated", stats.Updated).
		Int("skipped", stats.Skipped).
		Msg("ingestion finished")
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

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
