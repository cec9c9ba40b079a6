package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/whisperecho/backend/internal/database"
	"github.com/whisperecho/backend/internal/vanish"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run the vanish sweep once and exit",
	Long: `Deletes expired vanish-mode posts and WhisperWall posts older than
24 hours, exactly like the scheduled sweep in the server.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		started := time.Now()
		svc := vanish.NewCleanupService(database.DB, time.Hour)
		svc.Sweep()
		fmt.Printf("Sweep finished in %s\n", time.Since(started).Round(time.Millisecond))
		return nil
	},
}
