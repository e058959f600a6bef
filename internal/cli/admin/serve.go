package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	goopenai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"github.com/rfpworks/rfpworks/internal/api/handlers"
	"github.com/rfpworks/rfpworks/internal/config"
	"github.com/rfpworks/rfpworks/internal/jobs"
	"github.com/rfpworks/rfpworks/internal/openai"
	"github.com/rfpworks/rfpworks/internal/repository"
	"github.com/rfpworks/rfpworks/internal/server"
	"github.com/rfpworks/rfpworks/internal/service"
	"github.com/rfpworks/rfpworks/internal/telemetry"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the rfpworks API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize Sentry with tracing if SENTRY_DSN is set
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              dsn,
			Environment:      environment,
			TracesSampleRate: sampleRate,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	log.Println("connected to database")

	// Run migrations unless --no-migrate flag is set
	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	vectorStore := repository.NewVectorStore(pool)
	answerStore := repository.NewAnswerStore(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	indexJobRepo := repository.NewIndexJobRepository(pool)

	var embeddingClient service.EmbeddingClient
	var completionClient service.CompletionClient
	if cfg.HasOpenAI() {
		client := openai.NewClientWithConfig(openai.Config{
			APIKey:          cfg.OpenAIAPIKey,
			EmbeddingModel:  goopenai.EmbeddingModel(cfg.EmbeddingModel),
			CompletionModel: cfg.CompletionModel,
		})
		embeddingClient = client
		completionClient = client
	} else {
		log.Println("no OpenAI key configured: retrieval degraded, answers use templates")
	}

	analyzer := service.NewFilterAnalyzer()
	if cfg.FilterRulesPath != "" {
		rules, err := service.LoadRuleSet(cfg.FilterRulesPath)
		if err != nil {
			return fmt.Errorf("failed to load filter rules: %w", err)
		}
		analyzer = service.NewFilterAnalyzerWithRules(rules)
		log.Printf("filter rules loaded from %s", cfg.FilterRulesPath)
	}

	chunkCfg := service.ChunkConfig{ChunkSize: cfg.ChunkSize, Overlap: cfg.ChunkOverlap}
	indexSvc := service.NewIndexServiceWithConfig(vectorStore, embeddingClient, chunkCfg)
	retrievalSvc := service.NewRetrievalServiceWithConfig(vectorStore, embeddingClient, service.RetrievalConfig{
		TopK:     cfg.MaxContextChunks,
		MinScore: float32(cfg.MinSimilarity),
	})
	assembler := service.NewContextAssembler(cfg.MaxContextLength)
	answerSvc := service.NewAnswerService(
		retrievalSvc,
		analyzer,
		assembler,
		completionClient,
		questionRepo,
		answerStore,
		service.AnswerConfig{TopK: cfg.MaxContextChunks},
	)

	var indexWorker *jobs.Worker
	if cfg.HasOpenAI() {
		processor := jobs.NewIndexingWorker(indexJobRepo, indexSvc)
		indexWorker = jobs.NewWorker(processor, 10*time.Second)
		go indexWorker.Start(ctx)
		log.Println("indexing worker started")
	}

	routerCfg := server.RouterConfig{
		AnswerHandler:   handlers.NewAnswerHandler(answerSvc, answerStore),
		DocumentHandler: handlers.NewDocumentHandler(indexSvc, indexJobRepo, vectorStore),
		SearchHandler:   handlers.NewSearchHandler(retrievalSvc),
	}

	router := server.NewRouter(routerCfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if indexWorker != nil {
		indexWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

func runMigrations(databaseURL string) error {
	// Create a sql.DB connection for golang-migrate
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else if err == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}
