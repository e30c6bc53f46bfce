package admin

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clarivex-health/advera/internal/config"
	"github.com/clarivex-health/advera/internal/database"
	"github.com/clarivex-health/advera/internal/domain"
	"github.com/clarivex-health/advera/internal/groq"
	"github.com/clarivex-health/advera/internal/openai"
	"github.com/clarivex-health/advera/internal/repository"
	"github.com/clarivex-health/advera/internal/service"
)

// NarrateCmd returns the narrate command
func NarrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "narrate",
		Short: "Generate a clinical narrative for one case",
		Long:  "Run the full retrieval and generation pipeline for a single adverse-drug-reaction case and print the report",
		RunE:  runNarrate,
	}

	cmd.Flags().String("patient-id", "", "Patient identifier")
	cmd.Flags().Int("age", 0, "Patient age in years")
	cmd.Flags().String("gender", "", "Patient gender")
	cmd.Flags().String("drug", "", "Implicated drug name")
	cmd.Flags().String("stop-reason", "", "Adverse event that led to stopping the drug")
	cmd.Flags().Int("duration", 0, "Treatment duration in days")
	cmd.MarkFlagRequired("patient-id")
	cmd.MarkFlagRequired("age")
	cmd.MarkFlagRequired("drug")
	cmd.MarkFlagRequired("stop-reason")
	cmd.MarkFlagRequired("duration")

	return cmd
}

func runNarrate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.HasOpenAI() {
		return domain.ErrEmbeddingNotConfigured
	}
	if !cfg.HasGroq() {
		return domain.ErrGenerationNotConfigured
	}

	patientID, _ := cmd.Flags().GetString("patient-id")
	age, _ := cmd.Flags().GetInt("age")
	gender, _ := cmd.Flags().GetString("gender")
	drugName, _ := cmd.Flags().GetString("drug")
	stopReason, _ := cmd.Flags().GetString("stop-reason")
	duration, _ := cmd.Flags().GetInt("duration")

	pool, err := database.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	reportStore, err := newReportStore(ctx, cfg)
	if err != nil {
		return err
	}

	retriever := service.NewRetrieverService(
		repository.NewChunkRepository(pool),
		openai.NewClient(cfg.OpenAIAPIKey),
		cfg.DrugChunks,
		cfg.SyndromeChunks,
	)
	groqClient := groq.NewClient(groq.Config{
		APIKey:      cfg.GroqAPIKey,
		BaseURL:     cfg.GroqBaseURL,
		Model:       cfg.GroqModel,
		Temperature: cfg.GroqTemperature,
		MaxTokens:   cfg.GroqMaxTokens,
	})
	narrativeSvc := service.NewNarrativeService(retriever, groqClient, reportStore)

	narrative, err := narrativeSvc.GenerateForCase(ctx, domain.Case{
		PatientID:    patientID,
		Age:          age,
		Gender:       gender,
		DrugName:     drugName,
		StopReason:   stopReason,
		DurationDays: duration,
	})
	if err != nil {
		return err
	}

	fmt.Print(service.FormatReport(narrative))
	return nil
}
