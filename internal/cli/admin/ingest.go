package admin

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/clarivex-health/advera/internal/config"
	"github.com/clarivex-health/advera/internal/database"
	"github.com/clarivex-health/advera/internal/domain"
	"github.com/clarivex-health/advera/internal/openai"
	"github.com/clarivex-health/advera/internal/repository"
	"github.com/clarivex-health/advera/internal/service"
)

// IngestCmd returns the ingest command
func IngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Chunk, embed, and load the knowledge base",
		Long:  "Reset the knowledge store and ingest the drug and syndrome knowledge directories",
		RunE:  runIngest,
	}

	cmd.Flags().String("drug-dir", "", "Drug knowledge directory (overrides ADVERA_DRUG_KNOWLEDGE_DIR)")
	cmd.Flags().String("syndrome-dir", "", "Syndrome knowledge directory (overrides ADVERA_SYNDROME_KNOWLEDGE_DIR)")
	cmd.Flags().Bool("keep-existing", false, "Skip the store reset and append to existing chunks")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.HasOpenAI() {
		return domain.ErrEmbeddingNotConfigured
	}

	if dir, _ := cmd.Flags().GetString("drug-dir"); dir != "" {
		cfg.DrugKnowledgeDir = dir
	}
	if dir, _ := cmd.Flags().GetString("syndrome-dir"); dir != "" {
		cfg.SyndromeKnowledgeDir = dir
	}

	pool, err := database.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if noMigrate, _ := cmd.Flags().GetBool("no-migrate"); !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	embedding := openai.NewClient(cfg.OpenAIAPIKey)
	keep, _ := cmd.Flags().GetBool("keep-existing")

	// Reset and reingest inside one transaction so the server keeps serving
	// the old chunks until the new knowledge base commits.
	err = repository.NewTxRunner(pool).WithTx(ctx, func(repos service.TxRepositories) error {
		ingestSvc := service.NewIngestService(repos.Chunks(), embedding)

		if !keep {
			if err := ingestSvc.Reset(ctx); err != nil {
				return fmt.Errorf("failed to reset knowledge store: %w", err)
			}
			log.Println("knowledge store reset")
		}

		drugCount, err := ingestSvc.IngestDirectory(ctx, cfg.DrugKnowledgeDir, domain.DocumentTypeDrug)
		if err != nil {
			return fmt.Errorf("failed to ingest drug knowledge: %w", err)
		}
		log.Printf("ingested %d drug chunks from %s", drugCount, cfg.DrugKnowledgeDir)

		syndromeCount, err := ingestSvc.IngestDirectory(ctx, cfg.SyndromeKnowledgeDir, domain.DocumentTypeSyndrome)
		if err != nil {
			return fmt.Errorf("failed to ingest syndrome knowledge: %w", err)
		}
		log.Printf("ingested %d syndrome chunks from %s", syndromeCount, cfg.SyndromeKnowledgeDir)

		return nil
	})
	if err != nil {
		return err
	}

	statsSvc := service.NewIngestService(repository.NewChunkRepository(pool), embedding)
	stats, err := statsSvc.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to read store stats: %w", err)
	}
	fmt.Printf("knowledge store ready: %d chunks (%d drug, %d syndrome)\n",
		stats.Total, stats.DrugChunks, stats.SyndromeChunks)

	return nil
}

// ResetCmd returns the reset command
func ResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Delete all chunks from the knowledge store",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			pool, err := database.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer pool.Close()

			if err := repository.NewChunkRepository(pool).DeleteAll(ctx); err != nil {
				return fmt.Errorf("failed to reset knowledge store: %w", err)
			}

			fmt.Println("knowledge store reset")
			return nil
		},
	}
}
