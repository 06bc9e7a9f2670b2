package admin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloo-solutions/agentrag/internal/api/handlers"
	"github.com/cloo-solutions/agentrag/internal/config"
	"github.com/cloo-solutions/agentrag/internal/crawler"
	"github.com/cloo-solutions/agentrag/internal/domain"
	"github.com/cloo-solutions/agentrag/internal/jobs"
	"github.com/cloo-solutions/agentrag/internal/repository"
	"github.com/cloo-solutions/agentrag/internal/server"
	"github.com/cloo-solutions/agentrag/internal/service"
	"github.com/cloo-solutions/agentrag/internal/storage"
	"github.com/cloo-solutions/agentrag/internal/telemetry"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the agentrag API server and the training job worker",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "", "Port to listen on (defaults to AGENTRAG_PORT)")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")
	cmd.Flags().Bool("no-worker", false, "Do not run the training job worker in this process")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if port, _ := cmd.Flags().GetString("port"); port != "" {
		cfg.Port = port
	}

	if cfg.HasSentry() {
		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:         cfg.SentryDSN,
			Environment: cfg.Environment,
			Debug:       cfg.Debug,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	pool, err := openPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()
	log.Println("connected to database")

	if noMigrate, _ := cmd.Flags().GetBool("no-migrate"); !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	ownerRepo := repository.NewOwnerRepository(pool)
	apiKeyRepo := repository.NewAPIKeyRepository(pool)
	agentRepo := repository.NewAgentRepository(pool)
	fileRepo := repository.NewAgentFileRepository(pool)
	jobRepo := repository.NewTrainingJobRepository(pool)

	authSvc := service.NewAuthService(ownerRepo, apiKeyRepo, &service.DefaultUUIDGenerator{})
	if cfg.InitOwnerName != "" {
		if err := bootstrapInitialOwner(ctx, cfg, authSvc); err != nil {
			return fmt.Errorf("failed to bootstrap initial owner: %w", err)
		}
	}

	pipe, err := newPipeline(ctx, cfg, pool)
	if err != nil {
		return err
	}
	defer pipe.close()

	var archive service.UploadArchive
	if cfg.HasS3() {
		s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Printf("S3 bucket '%s' ready for upload archiving", cfg.S3Bucket)
		archive = s3Client
	}

	agentSvc := service.NewAgentService(agentRepo)
	fileSvc := service.NewAgentFileService(fileRepo, agentSvc, repository.NewTxRunner(pool))
	jobSvc := service.NewTrainingJobService(jobRepo, agentSvc, pipe.training)
	pageCrawler := crawler.New(crawler.Config{
		RequestsPerSecond: cfg.CrawlRate,
		Workers:           cfg.CrawlWorkers,
		Timeout:           cfg.CrawlTimeout,
	})
	ingestSvc := service.NewIngestService(fileSvc, agentSvc, pageCrawler, archive)

	var worker *jobs.Worker
	if noWorker, _ := cmd.Flags().GetBool("no-worker"); !noWorker {
		trainingWorker, err := jobs.NewTrainingWorker(jobRepo, pipe.training, cfg.TrainWorkers)
		if err != nil {
			return err
		}
		defer trainingWorker.Release()
		worker = jobs.NewWorker("training", trainingWorker, cfg.TrainPollInterval)
		go worker.Start(ctx)
	}

	router := server.NewRouter(server.RouterConfig{
		AuthValidator:   authSvc,
		AgentHandler:    handlers.NewAgentHandler(agentSvc),
		FileHandler:     handlers.NewFileHandler(fileSvc),
		TrainingHandler: handlers.NewTrainingHandler(jobSvc),
		IngestHandler:   handlers.NewIngestHandler(ingestSvc),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Println("shutting down...")
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	}

	if worker != nil {
		worker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

// bootstrapInitialOwner creates the configured owner and, when given, registers
// the configured API key for it. Both steps are idempotent.
func bootstrapInitialOwner(ctx context.Context, cfg *config.Config, authSvc *service.AuthService) error {
	owner, err := authSvc.EnsureOwner(ctx, cfg.InitOwnerName)
	if err != nil {
		return fmt.Errorf("failed to ensure owner: %w", err)
	}
	log.Printf("bootstrap: owner '%s' ready (id: %s)", owner.Name, owner.ID)

	if cfg.InitAPIKey == "" {
		return nil
	}
	if !service.IsValidAPIToken(cfg.InitAPIKey) {
		return fmt.Errorf("invalid AGENTRAG_INIT_API_KEY format (expected 'agr_<64 hex chars>')")
	}

	if _, err := authSvc.ValidateAPIKey(ctx, cfg.InitAPIKey); err == nil {
		log.Println("bootstrap: API key already registered")
		return nil
	} else if errors.Is(err, domain.ErrAPIKeyRevoked) {
		return fmt.Errorf("bootstrap API key has been revoked")
	}

	err = authSvc.CreateAPIKeyWithToken(ctx, owner.ID, "bootstrap", cfg.InitAPIKey)
	if errors.Is(err, domain.ErrAPIKeyAlreadyExists) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create API key: %w", err)
	}
	log.Println("bootstrap: created API key")
	return nil
}

func runMigrations(databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		log.Println("migrations: no migrations applied")
	case err != nil:
		return fmt.Errorf("failed to get migration version: %w", err)
	case dirty:
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	default:
		log.Printf("migrations: database at version %d", version)
	}

	return nil
}
