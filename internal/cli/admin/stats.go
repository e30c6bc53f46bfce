package admin

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clarivex-health/advera/internal/config"
	"github.com/clarivex-health/advera/internal/database"
	"github.com/clarivex-health/advera/internal/domain"
	"github.com/clarivex-health/advera/internal/repository"
)

// StatsCmd returns the stats command
func StatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show knowledge store chunk counts",
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

			repo := repository.NewChunkRepository(pool)

			drugCount, err := repo.CountByType(ctx, domain.DocumentTypeDrug)
			if err != nil {
				return fmt.Errorf("failed to count drug chunks: %w", err)
			}
			syndromeCount, err := repo.CountByType(ctx, domain.DocumentTypeSyndrome)
			if err != nil {
				return fmt.Errorf("failed to count syndrome chunks: %w", err)
			}

			fmt.Printf("total chunks:    %d\n", drugCount+syndromeCount)
			fmt.Printf("drug chunks:     %d\n", drugCount)
			fmt.Printf("syndrome chunks: %d\n", syndromeCount)
			return nil
		},
	}
}
