// Package seed generates realistic development data.
package seed

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/whisperecho/backend/internal/logger"
	"github.com/whisperecho/backend/internal/models"
	"github.com/whisperecho/backend/internal/trending"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	_ = gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{db: db}
}

// SeedDev seeds the development database with realistic data
func (s *Seeder) SeedDev() error {
	logger.Log.Info("Creating users...")
	users, err := s.seedUsers(50)
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	logger.Log.Info("Creating follow graph...")
	if err := s.seedFollows(users, 200); err != nil {
		return fmt.Errorf("failed to seed follows: %w", err)
	}

	logger.Log.Info("Creating posts...")
	posts, err := s.seedPosts(users, 300)
	if err != nil {
		return fmt.Errorf("failed to seed posts: %w", err)
	}

	logger.Log.Info("Creating reactions...")
	if err := s.seedReactions(users, posts, 1500); err != nil {
		return fmt.Errorf("failed to seed reactions: %w", err)
	}

	logger.Log.Info("Creating comments...")
	if err := s.seedComments(users, posts, 600); err != nil {
		return fmt.Errorf("failed to seed comments: %w", err)
	}

	logger.Log.Info("Creating whispers...")
	if err := s.seedWhispers(80); err != nil {
		return fmt.Errorf("failed to seed whispers: %w", err)
	}

	logger.Log.Info("Creating messages...")
	if err := s.seedMessages(users, 400); err != nil {
		return fmt.Errorf("failed to seed messages: %w", err)
	}

	logger.Log.Info("Refreshing trending scores...")
	for _, post := range posts {
		if err := trending.Recompute(s.db, post.ID); err != nil {
			logger.Log.Warn("recompute failed", zap.String("post_id", post.ID), zap.Error(err))
		}
	}

	logger.Log.Info("✅ Seeding complete",
		zap.Int("users", len(users)),
		zap.Int("posts", len(posts)),
	)
	return nil
}

// SeedTest seeds a minimal data set for integration testing
func (s *Seeder) SeedTest() error {
	users, err := s.seedUsers(5)
	if err != nil {
		return err
	}
	if err := s.seedFollows(users, 8); err != nil {
		return err
	}
	posts, err := s.seedPosts(users, 15)
	if err != nil {
		return err
	}
	if err := s.seedReactions(users, posts, 30); err != nil {
		return err
	}
	return s.seedComments(users, posts, 20)
}

// Clean removes all seeded rows. Order matters because of foreign keys.
func (s *Seeder) Clean() error {
	tables := []interface{}{
		&models.CommentReaction{},
		&models.Comment{},
		&models.Reaction{},
		&models.Post{},
		&models.WhisperHeart{},
		&models.WhisperPost{},
		&models.Message{},
		&models.Follow{},
		&models.User{},
	}
	for _, table := range tables {
		if err := s.db.Unscoped().Where("1 = 1").Delete(table).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedUsers(count int) ([]models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, count)
	for i := 0; i < count; i++ {
		prefs := randomCategories(rand.Intn(4))

		user := models.User{
			Email:        fmt.Sprintf("%d.%s", i, gofakeit.Email()),
			Username:     fmt.Sprintf("%s%d", gofakeit.Username(), i),
			Bio:          gofakeit.Sentence(8),
			PasswordHash: string(hash),
			AvatarURL:    avatarPlaceholderURL(256),
			Preferences:  prefs,
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *Seeder) seedFollows(users []models.User, count int) error {
	if len(users) < 2 {
		return nil
	}
	seen := make(map[string]bool)
	created := 0
	for attempts := 0; created < count && attempts < count*4; attempts++ {
		follower := users[rand.Intn(len(users))]
		followee := users[rand.Intn(len(users))]
		if follower.ID == followee.ID {
			continue
		}
		key := follower.ID + ":" + followee.ID
		if seen[key] {
			continue
		}
		seen[key] = true

		follow := models.Follow{FollowerID: follower.ID, FolloweeID: followee.ID}
		if err := s.db.Create(&follow).Error; err != nil {
			return err
		}
		s.db.Model(&models.User{}).Where("id = ?", followee.ID).
			UpdateColumn("follower_count", gorm.Expr("follower_count + 1"))
		s.db.Model(&models.User{}).Where("id = ?", follower.ID).
			UpdateColumn("following_count", gorm.Expr("following_count + 1"))
		created++
	}
	return nil
}

func (s *Seeder) seedPosts(users []models.User, count int) ([]models.Post, error) {
	posts := make([]models.Post, 0, count)
	for i := 0; i < count; i++ {
		author := users[rand.Intn(len(users))]

		post := models.Post{
			AuthorID: author.ID,
			Text:     gofakeit.Paragraph(1, 3, 12, " "),
			Category: models.Categories[rand.Intn(len(models.Categories))],
		}

		// A slice of posts go out in disguise
		if rand.Intn(10) == 0 {
			post.Visibility = models.VisibilityDisguise
			post.DisguiseAvatar = avatarPlaceholderURL(128)
		} else {
			post.Visibility = models.VisibilityNormal
		}

		// Some posts carry media references
		if rand.Intn(3) == 0 {
			post.Media = []models.MediaRef{{
				URL:      gofakeit.URL(),
				MimeType: "image/jpeg",
				Size:     int64(gofakeit.Number(10_000, 4_000_000)),
			}}
		}

		if err := s.db.Create(&post).Error; err != nil {
			return nil, err
		}

		// Backdate so trending decay has something to work with
		createdAt := time.Now().UTC().Add(-time.Duration(rand.Intn(72)) * time.Hour)
		s.db.Model(&models.Post{}).Where("id = ?", post.ID).
			UpdateColumn("created_at", createdAt)
		post.CreatedAt = createdAt

		posts = append(posts, post)
	}
	return posts, nil
}

func (s *Seeder) seedReactions(users []models.User, posts []models.Post, count int) error {
	seen := make(map[string]bool)
	created := 0
	for attempts := 0; created < count && attempts < count*4; attempts++ {
		user := users[rand.Intn(len(users))]
		post := posts[rand.Intn(len(posts))]
		key := post.ID + ":" + user.ID
		if seen[key] {
			continue
		}
		seen[key] = true

		reaction := models.Reaction{
			PostID: post.ID,
			UserID: user.ID,
			Kind:   models.ReactionKinds[rand.Intn(len(models.ReactionKinds))],
		}
		if err := s.db.Create(&reaction).Error; err != nil {
			return err
		}
		created++
	}
	return nil
}

func (s *Seeder) seedComments(users []models.User, posts []models.Post, count int) error {
	for i := 0; i < count; i++ {
		user := users[rand.Intn(len(users))]
		post := posts[rand.Intn(len(posts))]

		comment := models.Comment{
			PostID:      post.ID,
			UserID:      user.ID,
			Content:     gofakeit.Sentence(10),
			IsAnonymous: rand.Intn(8) == 0,
		}
		if err := s.db.Create(&comment).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedWhispers(count int) error {
	for i := 0; i < count; i++ {
		whisper := models.WhisperPost{
			Text:        gofakeit.Sentence(12),
			SessionHash: gofakeit.UUID(),
			HeartCount:  gofakeit.Number(0, 40),
		}
		if err := s.db.Create(&whisper).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedMessages(users []models.User, count int) error {
	if len(users) < 2 {
		return nil
	}
	for i := 0; i < count; i++ {
		sender := users[rand.Intn(len(users))]
		receiver := users[rand.Intn(len(users))]
		if sender.ID == receiver.ID {
			continue
		}

		message := models.Message{
			SenderID:   sender.ID,
			ReceiverID: receiver.ID,
			Text:       gofakeit.Sentence(8),
			IsRead:     rand.Intn(2) == 0,
		}
		if err := s.db.Create(&message).Error; err != nil {
			return err
		}
	}
	return nil
}

func randomCategories(n int) models.StringArray {
	if n == 0 {
		return models.StringArray{}
	}
	shuffled := make([]models.Category, len(models.Categories))
	copy(shuffled, models.Categories)
	rand.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	out := make(models.StringArray, 0, n)
	for i := 0; i < n && i < len(shuffled); i++ {
		out = append(out, string(shuffled[i]))
	}
	return out
}

// avatarPlaceholderURL builds a stable placeholder image URL for seed data.
func avatarPlaceholderURL(size int) string {
	return fmt.Sprintf("https://picsum.photos/seed/%s/%d/%d", gofakeit.LetterN(10), size, size)
}
