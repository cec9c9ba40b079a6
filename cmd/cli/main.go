package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/whisperecho/backend/internal/database"
	"github.com/whisperecho/backend/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "whisperecho",
	Short: "WhisperEcho admin CLI",
	Long: `WhisperEcho admin CLI provides direct database operations:
run the vanish sweep by hand, seed data, and inspect engagement stats.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		if err := logger.Initialize("info", "cli.log"); err != nil {
			return err
		}
		if err := database.Initialize(); err != nil {
			return fmt.Errorf("database: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = database.Close()
		_ = logger.Close()
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(statsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
