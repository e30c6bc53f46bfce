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
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	"github.com/clarivex-health/advera/internal/api/handlers"
	"github.com/clarivex-health/advera/internal/config"
	"github.com/clarivex-health/advera/internal/database"
	"github.com/clarivex-health/advera/internal/domain"
	"github.com/clarivex-health/advera/internal/groq"
	"github.com/clarivex-health/advera/internal/openai"
	"github.com/clarivex-health/advera/internal/repository"
	"github.com/clarivex-health/advera/internal/server"
	"github.com/clarivex-health/advera/internal/service"
	"github.com/clarivex-health/advera/internal/telemetry"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the advera API server on the specified port",
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

	pool, err := database.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	log.Println("connected to database")

	// Run migrations unless --no-migrate flag is set
	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	chunkRepo := repository.NewChunkRepository(pool)

	var embeddingClient service.EmbeddingClient
	if cfg.HasOpenAI() {
		embeddingClient = openai.NewClient(cfg.OpenAIAPIKey)
	} else {
		embeddingClient = unconfiguredEmbedding{}
		log.Println("OPENAI_API_KEY not set: semantic search and narrative generation disabled")
	}

	reportStore, err := newReportStore(ctx, cfg)
	if err != nil {
		return err
	}

	knowledgeSvc := service.NewKnowledgeService(chunkRepo, embeddingClient)

	var narrativeSvc handlers.NarrativeService
	if cfg.HasGroq() {
		retriever := service.NewRetrieverService(chunkRepo, embeddingClient, cfg.DrugChunks, cfg.SyndromeChunks)
		groqClient := groq.NewClient(groq.Config{
			APIKey:      cfg.GroqAPIKey,
			BaseURL:     cfg.GroqBaseURL,
			Model:       cfg.GroqModel,
			Temperature: cfg.GroqTemperature,
			MaxTokens:   cfg.GroqMaxTokens,
		})
		narrativeSvc = service.NewNarrativeService(retriever, groqClient, reportStore)
	} else {
		narrativeSvc = &reportsOnlyNarrativeService{reports: reportStore}
		log.Println("GROQ_API_KEY not set: narrative generation disabled")
	}

	routerCfg := server.RouterConfig{
		NarrativeHandler: handlers.NewNarrativeHandler(narrativeSvc),
		KnowledgeHandler: handlers.NewKnowledgeHandler(knowledgeSvc),
		HealthHandler:    handlers.NewHealthHandler(pool, cfg.HasOpenAI(), cfg.HasGroq()),
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

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

// unconfiguredEmbedding stands in for the embedding backend when no API key
// is configured, so read-only endpoints keep working.
type unconfiguredEmbedding struct{}

func (unconfiguredEmbedding) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return nil, domain.ErrEmbeddingNotConfigured
}

// reportsOnlyNarrativeService serves stored reports when the generation
// backend is not configured.
type reportsOnlyNarrativeService struct {
	reports service.ReportStore
}

func (s *reportsOnlyNarrativeService) GenerateForCase(ctx context.Context, c domain.Case) (*domain.ClinicalNarrative, error) {
	return nil, domain.ErrGenerationNotConfigured
}

func (s *reportsOnlyNarrativeService) GetReport(ctx context.Context, patientID string) (string, error) {
	if s.reports == nil {
		return "", domain.ErrReportNotFound
	}
	return s.reports.GetReport(ctx, patientID)
}

func runMigrations(databaseURL string) error {
	// Create a sql.DB connection for golang-migrate
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	// Create postgres driver instance
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	// Create migrate instance with file source
	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	// Run migrations
	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	// Get migration version and status
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
