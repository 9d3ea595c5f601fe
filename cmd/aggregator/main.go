package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/newsportal/aggregator/internal/aggregate"
	"github.com/newsportal/aggregator/internal/config"
	"github.com/newsportal/aggregator/internal/images"
	"github.com/newsportal/aggregator/internal/logger"
	"github.com/newsportal/aggregator/internal/metrics"
	"github.com/newsportal/aggregator/internal/newsapi"
	"github.com/newsportal/aggregator/internal/ratelimit"
	"github.com/newsportal/aggregator/internal/scheduler"
	"github.com/newsportal/aggregator/internal/translate"
)

func main() {
	once := flag.Bool("once", false, "run one aggregation pass and exit")
	schedule := flag.Bool("schedule", false, "run daily on the configured trigger")
	flag.Parse()

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger.Init(cfg.LogFilePath)

	if os.Getenv("ENABLE_HTTP_MONITORING") == "true" {
		go startMonitoringServer()
	}

	translator := translate.New(cfg.GeminiAPIKey)
	defer translator.Close()

	orch := aggregate.New(
		cfg.Sources,
		newsapi.NewClient(cfg.APIBaseURL),
		translator,
		images.New(cfg.UnsplashAccessKey),
		ratelimit.New(),
		cfg.AdminUsername,
		cfg.AdminPassword,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runOnce := func() {
		summary, err := orch.Run(ctx)
		if err != nil {
			logger.Error("aggregation run failed", "error", err)
			metrics.Global.SetError(err.Error())
			return
		}
		metrics.Global.RecordRun(summary.Fetched, summary.Created, summary.Skipped,
			summary.SourceFailures, summary.DegradedTranslations, summary.Duration)
	}

	switch {
	case *schedule:
		logger.Info("scheduling daily aggregation", "spec", cfg.ScheduleSpec, "timezone", cfg.Timezone)
		sched, err := scheduler.New(cfg.ScheduleSpec, cfg.Timezone, runOnce)
		if err != nil {
			log.Fatalf("scheduler: %v", err)
		}
		sched.Run(ctx)
	case *once:
		runOnce()
	default:
		printUsage()
		runOnce()
	}
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  aggregator -once      # run aggregation once")
	fmt.Println("  aggregator -schedule  # run daily on the configured trigger")
	fmt.Println()
	fmt.Println("Running once by default...")
}

func startMonitoringServer() {
	port := os.Getenv("MONITORING_PORT")
	if port == "" {
		port = "8080"
	}

	http.HandleFunc("/health", healthHandler)
	http.HandleFunc("/metrics", metricsHandler)

	log.Printf("starting monitoring server on port %s", port)
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Printf("monitoring server error: %v", err)
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	stats := metrics.Global.GetStats()

	status := "ok"
	if !stats["is_healthy"].(bool) {
		status = "error"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	response := map[string]interface{}{
		"status":     status,
		"last_run":   stats["last_run_time"],
		"last_error": stats["last_error"],
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func metricsHandler(w http.ResponseWriter, r *http.Request) {
	stats := metrics.Global.GetStats()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}
