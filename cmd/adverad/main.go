package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/clarivex-health/advera/internal/cli/admin"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "adverad",
		Short: "Advera daemon and CLI",
		Long:  "Advera daemon for serving the pharmacovigilance narrative API and managing the knowledge store",
	}

	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.IngestCmd())
	rootCmd.AddCommand(admin.NarrateCmd())
	rootCmd.AddCommand(admin.StatsCmd())
	rootCmd.AddCommand(admin.ResetCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
