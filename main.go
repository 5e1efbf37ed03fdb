package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/courtside-data/pointlog/internal/api"
	"github.com/courtside-data/pointlog/internal/cache"
	"github.com/courtside-data/pointlog/internal/config"
	"github.com/courtside-data/pointlog/internal/db"
	"github.com/courtside-data/pointlog/internal/version"
)

var (
	listen         = flag.String("listen", "", "Listen address (overrides POINTLOG_ADDR)")
	calibrationArg = flag.String("calibration", "", "Path to court calibration JSON")
	showVersion    = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("pointlog %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	// A missing .env file is fine; deployments set real environment vars.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("failed to load .env: %v", err)
	}

	cfg, err := config.ServiceConfigFromEnv()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if *listen != "" {
		cfg.ListenAddr = *listen
	}

	calibration := config.EmptyCalibrationConfig()
	if *calibrationArg != "" {
		calibration, err = config.LoadCalibrationConfig(*calibrationArg)
		if err != nil {
			log.Fatalf("Failed to load calibration: %v", err)
		}
		log.Printf("Court calibration: length %.0fin, width %.0fin, diagram %0.fx%.0fpx",
			calibration.GetCourtLengthIn(), calibration.GetCourtWidthIn(),
			calibration.GetDiagramWidthPx(), calibration.GetDiagramHeightPx())
	}

	database, err := db.OpenDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	migrationsFS, err := db.MigrationsFS()
	if err != nil {
		log.Fatalf("Failed to load migrations: %v", err)
	}
	if err := database.MigrateUp(migrationsFS); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	var statsCache *cache.StatsCache
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()
		statsCache = cache.NewStatsCache(client)
		log.Printf("Season stats cache: redis at %s", cfg.RedisAddr)
	}

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// A typed nil *StatsCache must not reach the worker's interface field.
	var workerCache db.SeasonCache
	if statsCache != nil {
		workerCache = statsCache
	}
	worker := db.NewSeasonRollupWorker(database, workerCache)
	worker.Interval = cfg.RollupInterval
	worker.Start()
	defer worker.Stop()

	// Prime the rollup so season endpoints have data right after boot.
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := worker.RunOnce(ctx); err != nil {
			log.Printf("initial season rollup failed: %v", err)
		}
	}()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := http.NewServeMux()

		// mount the admin debugging routes
		database.AttachAdminRoutes(mux)

		var apiCache api.SeasonCache
		if statsCache != nil {
			apiCache = statsCache
		}
		apiMux := api.NewServer(database, apiCache, calibration.Diagram()).ServeMux()
		mux.Handle("/api/", apiMux)

		server := &http.Server{
			Addr:    cfg.ListenAddr,
			Handler: api.LoggingMiddleware(mux),
		}

		// Start server in a goroutine so it doesn't block
		go func() {
			log.Printf("Listening on %s", cfg.ListenAddr)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		// Wait for context cancellation to shut down server
		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
