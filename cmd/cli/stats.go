package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/whisperecho/backend/internal/database"
	"github.com/whisperecho/backend/internal/models"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print engagement statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		var users, posts, reactions, comments, whispers, messages, follows int64

		database.DB.Model(&models.User{}).Count(&users)
		database.DB.Model(&models.Post{}).Count(&posts)
		database.DB.Model(&models.Reaction{}).Count(&reactions)
		database.DB.Model(&models.Comment{}).Count(&comments)
		database.DB.Model(&models.WhisperPost{}).Count(&whispers)
		database.DB.Model(&models.Message{}).Count(&messages)
		database.DB.Model(&models.Follow{}).Count(&follows)

		fmt.Printf("users:     %d\n", users)
		fmt.Printf("posts:     %d\n", posts)
		fmt.Printf("reactions: %d\n", reactions)
		fmt.Printf("comments:  %d\n", comments)
		fmt.Printf("whispers:  %d\n", whispers)
		fmt.Printf("messages:  %d\n", messages)
		fmt.Printf("follows:   %d\n", follows)

		// Reaction breakdown by kind
		type kindCount struct {
			Kind  string
			Count int64
		}
		var kinds []kindCount
		database.DB.Model(&models.Reaction{}).
			Select("kind, COUNT(*) as count").
			Group("kind").Order("count DESC").
			Scan(&kinds)
		if len(kinds) > 0 {
			fmt.Println("reactions by kind:")
			for _, k := range kinds {
				fmt.Printf("  %-10s %d\n", k.Kind, k.Count)
			}
		}

		// Top trending posts
		var top []models.Post
		database.DB.Order("trending_score DESC").Limit(5).Find(&top)
		if len(top) > 0 {
			fmt.Println("top trending posts:")
			for _, p := range top {
				fmt.Printf("  %.3f  %s  (%s, %s)\n",
					p.TrendingScore, p.ID, p.Category,
					p.CreatedAt.Format(time.RFC3339))
			}
		}

		return nil
	},
}
