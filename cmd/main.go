// remote-jobs-aggregator — scrapes remote-job platforms, validates listings
// with an LLM, and moves accepted jobs through SQLite → MongoDB → data lake
// on a cron schedule, with an HTTP API on top.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"remotejobs/aggregator/internal/ai"
	"remotejobs/aggregator/internal/api"
	"remotejobs/aggregator/internal/config"
	"remotejobs/aggregator/internal/db"
	"remotejobs/aggregator/internal/etl"
	"remotejobs/aggregator/internal/lake"
	"remotejobs/aggregator/internal/scheduler"
	"remotejobs/aggregator/internal/scraper"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[aggregator] Config error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ── Stores ─────────────────────────────────────────────────────────
	source, err := db.OpenSQLite(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("[aggregator] SQLite: %v", err)
	}
	defer source.Close()

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	mongo, err := db.NewMongoStore(connectCtx, cfg.MongoURL, cfg.MongoDatabase)
	cancel()
	if err != nil {
		log.Fatalf("[aggregator] MongoDB: %v", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongo.Close(closeCtx); err != nil {
			log.Printf("[aggregator] Error closing MongoDB: %v", err)
		}
	}()

	connectCtx, cancel = context.WithTimeout(ctx, 10*time.Second)
	rdb, err := db.NewRedisClient(connectCtx, cfg.RedisURL)
	cancel()
	if err != nil {
		log.Fatalf("[aggregator] Redis: %v", err)
	}
	defer rdb.Close()
	scrapeState := db.NewScrapeState(rdb)

	cold, err := newLakeStore(ctx, cfg)
	if err != nil {
		log.Fatalf("[aggregator] Data lake: %v", err)
	}

	// ── Pipeline ───────────────────────────────────────────────────────
	pipeline := etl.New(source, mongo, cold)

	var client ai.Client = ai.NewGroqClient(cfg.GroqAPIKey, cfg.GroqModel)
	if cfg.GroqAPIKey == "" {
		log.Println("[aggregator] GROQ_API_KEY not set — scrape cycles will fail validation")
	}

	worker := scraper.NewWorker(
		buildFetchers(cfg), client, source, scrapeState,
		time.Duration(cfg.ScraperDelaySeconds)*time.Second,
	)

	// ── Scheduler ──────────────────────────────────────────────────────
	sched := scheduler.New()
	if err := registerJobs(sched, cfg, pipeline, worker); err != nil {
		log.Fatalf("[aggregator] Scheduler: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// ── HTTP API ───────────────────────────────────────────────────────
	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: api.NewServer(source, mongo, cold, pipeline, sched).Handler(),
	}

	go func() {
		log.Printf("[aggregator] Listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[aggregator] HTTP server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("[aggregator] Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[aggregator] Error shutting down HTTP server: %v", err)
	}
}

// newLakeStore picks the cold-store backend from configuration.
func newLakeStore(ctx context.Context, cfg *config.Config) (lake.Store, error) {
	switch cfg.DataLakeType {
	case "minio", "s3":
		return lake.NewMinioStore(ctx, lake.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.DataLakeBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
	default:
		return lake.NewLocalStore(cfg.DataLakeLocalPath)
	}
}

// buildFetchers maps the configured platform names to fetchers.
func buildFetchers(cfg *config.Config) []scraper.Fetcher {
	var fetchers []scraper.Fetcher
	for _, platform := range cfg.Platforms {
		switch platform {
		case "remotive":
			fetchers = append(fetchers, scraper.NewRemotiveFetcher(cfg.RemotiveCategories))
		case "weworkremotely":
			fetchers = append(fetchers, scraper.NewWWRFetcher(nil))
		case "remoteok":
			fetchers = append(fetchers, scraper.NewRemoteOKFetcher())
		default:
			log.Printf("[aggregator] Unknown platform %q in config — ignored", platform)
		}
	}
	return fetchers
}

// registerJobs binds the standing schedules. All times are server-local.
func registerJobs(sched *scheduler.Scheduler, cfg *config.Config, pipeline *etl.Pipeline, worker *scraper.Worker) error {
	jobs := []struct {
		id, name, spec string
		run            func(ctx context.Context)
	}{
		{
			"daily_sync", "Daily Sync", "0 2 * * *",
			func(ctx context.Context) {
				if _, err := worker.Run(ctx); err != nil {
					log.Printf("[aggregator] Scrape cycle failed: %v", err)
				}
				if _, err := pipeline.Sync(ctx, cfg.SyncBatchSize); err != nil {
					log.Printf("[aggregator] Daily sync failed: %v", err)
				}
			},
		},
		{
			"daily_snapshot", "Daily Snapshot", "0 3 * * *",
			func(ctx context.Context) {
				if _, err := pipeline.CreateDailySnapshot(ctx, time.Time{}); err != nil {
					log.Printf("[aggregator] Daily snapshot failed: %v", err)
				}
			},
		},
		{
			"daily_analytics", "Daily Analytics", "0 4 * * *",
			func(ctx context.Context) {
				if _, err := pipeline.GenerateAnalyticsMetrics(ctx, time.Time{}); err != nil {
					log.Printf("[aggregator] Analytics generation failed: %v", err)
				}
			},
		},
		{
			"weekly_cleanup", "Weekly Cleanup", "0 1 * * 0",
			func(ctx context.Context) {
				if _, err := pipeline.CleanupOldData(ctx, 90); err != nil {
					log.Printf("[aggregator] Cleanup failed: %v", err)
				}
				if _, err := pipeline.RetireStale(ctx, 14); err != nil {
					log.Printf("[aggregator] Stale retirement failed: %v", err)
				}
			},
		},
		{
			// Business-hours incremental sync with a small batch.
			"hourly_sync", "Hourly Sync", "0 9-18 * * 1-5",
			func(ctx context.Context) {
				if _, err := pipeline.Sync(ctx, 50); err != nil {
					log.Printf("[aggregator] Hourly sync failed: %v", err)
				}
			},
		},
	}

	for _, j := range jobs {
		if err := sched.Register(j.id, j.name, j.spec, j.run); err != nil {
			return fmt.Errorf("register %s: %w", j.id, err)
		}
	}
	return nil
}
