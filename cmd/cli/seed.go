package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/whisperecho/backend/internal/database"
	"github.com/whisperecho/backend/internal/seed"
)

var seedProfile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with generated data",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := database.Migrate(); err != nil {
			return err
		}

		seeder := seed.NewSeeder(database.DB)
		switch seedProfile {
		case "dev":
			return seeder.SeedDev()
		case "test":
			return seeder.SeedTest()
		case "clean":
			return seeder.Clean()
		default:
			return fmt.Errorf("unknown profile %q (want dev, test or clean)", seedProfile)
		}
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedProfile, "profile", "dev", "Seed profile: dev, test or clean")
}
