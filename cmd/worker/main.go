package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"vibecheck/internal/config"
	"vibecheck/internal/domain/model"
	ml "vibecheck/internal/infra/adapters/ml"
	pg "vibecheck/internal/infra/db/postgres"
	"vibecheck/internal/infra/logging"
	"vibecheck/internal/infra/metrics"
	red "vibecheck/internal/infra/redis"
	"vibecheck/internal/infra/storage"
	"vibecheck/internal/infra/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, relaxed validation)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()
	if err := pg.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsDir); err != nil {
		logger.Fatal().Err(err).Msg("migrations failed")
	}

	// ---- Redis broker ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connect failed")
	}
	defer redisClient.Close()

	// A stable consumer name keys the in-flight list, so a restarted
	// worker can recover messages it abandoned.
	host, err := os.Hostname()
	if err != nil {
		host = "worker"
	}
	queue := red.NewQueue(redisClient, &cfg.Queue, host, logger)
	go queue.RunPromoter(ctx)

	// ---- Object storage ----
	store, err := storage.NewMinioGateway(&cfg.Storage, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("object storage init failed")
	}

	// ---- ML adapters ----
	transcriber, err := ml.NewWhisperTranscriber(cfg.AI.TranscriptionURL, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("transcriber init failed")
	}
	summarizer, err := ml.NewOpenAISummarizer(cfg.AI.OpenAIKey, cfg.AI.OpenAIBaseURL, cfg.AI.SummaryModel, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("summarizer init failed")
	}

	// ---- Pipeline ----
	tm := pg.NewTxManager(pool)
	jobRepo := pg.NewJobRepo(pool, tm)
	analysisRepo := pg.NewAnalysisRepo(pool)
	processor := worker.NewProcessor(jobRepo, analysisRepo, store, transcriber, summarizer, cfg.Worker.TmpDir, logger)

	runner := worker.NewRunner(queue, cfg.Queue.Workers, cfg.Queue.SoftTimeout, cfg.Queue.HardTimeout, logger)
	runner.Register(model.TaskProcessInterview, processor.Handle)
	runner.Start(ctx)

	logger.Info().Int("slots", cfg.Queue.Workers).Str("queue", cfg.Queue.Name).Msg("worker started")

	<-ctx.Done()
	logger.Info().Msg("shutdown requested")
	runner.Wait()
}
