package feed

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/whisperecho/backend/internal/database"
	"github.com/whisperecho/backend/internal/models"
	"github.com/whisperecho/backend/internal/reactions"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMaskDisguiseHidesAuthorFromOthers(t *testing.T) {
	post := &models.Post{
		AuthorID:       "author-1",
		Author:         models.User{ID: "author-1", Username: "realname"},
		Visibility:     models.VisibilityDisguise,
		DisguiseAvatar: "https://cdn.example.com/masks/fox.png",
	}

	MaskDisguise(post, "someone-else")

	assert.Empty(t, post.AuthorID)
	assert.Equal(t, "anonymous", post.Author.Username)
	assert.Equal(t, "https://cdn.example.com/masks/fox.png", post.Author.AvatarURL)
}

func TestMaskDisguiseAuthorSeesThemselves(t *testing.T) {
	post := &models.Post{
		AuthorID:   "author-1",
		Author:     models.User{ID: "author-1", Username: "realname"},
		Visibility: models.VisibilityDisguise,
	}

	MaskDisguise(post, "author-1")

	assert.Equal(t, "author-1", post.AuthorID)
	assert.Equal(t, "realname", post.Author.Username)
}

func TestMaskDisguiseLeavesNormalPostsAlone(t *testing.T) {
	post := &models.Post{
		AuthorID:   "author-1",
		Author:     models.User{ID: "author-1", Username: "realname"},
		Visibility: models.VisibilityNormal,
	}

	MaskDisguise(post, "someone-else")

	assert.Equal(t, "realname", post.Author.Username)
}

// ComposerTestSuite contains feed composition tests
type ComposerTestSuite struct {
	suite.Suite
	db       *gorm.DB
	composer *Composer
	viewer   *models.User
	followed *models.User
	stranger *models.User
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (suite *ComposerTestSuite) SetupSuite() {
	host := getEnvOrDefault("POSTGRES_HOST", "localhost")
	port := getEnvOrDefault("POSTGRES_PORT", "5432")
	user := getEnvOrDefault("POSTGRES_USER", "postgres")
	password := getEnvOrDefault("POSTGRES_PASSWORD", "")
	dbname := getEnvOrDefault("POSTGRES_DB", "whisperecho_test")

	testDSN := fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=disable", host, port, user, dbname)
	if password != "" {
		testDSN = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable", host, port, user, password, dbname)
	}

	db, err := gorm.Open(postgres.Open(testDSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		suite.T().Skipf("Skipping composer tests: database not available (%v)", err)
		return
	}

	database.DB = db

	require.NoError(suite.T(), db.AutoMigrate(
		&models.User{},
		&models.Follow{},
		&models.Post{},
		&models.Reaction{},
	))

	suite.db = db
	suite.composer = NewComposer(db, reactions.NewLedger(db))
}

func (suite *ComposerTestSuite) TearDownSuite() {
	if suite.db != nil {
		sqlDB, _ := suite.db.DB()
		sqlDB.Close()
	}
}

func (suite *ComposerTestSuite) SetupTest() {
	suite.db.Exec("TRUNCATE TABLE reactions, posts, follows RESTART IDENTITY CASCADE")
	suite.db.Exec("TRUNCATE TABLE users RESTART IDENTITY CASCADE")

	testID := fmt.Sprintf("%d", time.Now().UnixNano())
	mkUser := func(prefix string) *models.User {
		u := &models.User{
			Email:        fmt.Sprintf("%s_%s@test.com", prefix, testID),
			Username:     fmt.Sprintf("%s_%s", prefix, testID[:10]),
			PasswordHash: "x",
		}
		require.NoError(suite.T(), suite.db.Create(u).Error)
		return u
	}

	suite.viewer = mkUser("viewer")
	suite.followed = mkUser("followed")
	suite.stranger = mkUser("stranger")
}

func (suite *ComposerTestSuite) createPost(author *models.User, text string, category models.Category, age time.Duration) *models.Post {
	post := &models.Post{
		AuthorID: author.ID,
		Text:     text,
		Category: category,
	}
	require.NoError(suite.T(), suite.db.Create(post).Error)
	if age > 0 {
		createdAt := time.Now().UTC().Add(-age)
		require.NoError(suite.T(), suite.db.Model(post).Update("created_at", createdAt).Error)
	}
	return post
}

func (suite *ComposerTestSuite) follow(follower, followee *models.User) {
	require.NoError(suite.T(), suite.db.Create(&models.Follow{
		FollowerID: follower.ID,
		FolloweeID: followee.ID,
	}).Error)
}

func (suite *ComposerTestSuite) TestHomeShowsFollowedAuthors() {
	t := suite.T()

	suite.follow(suite.viewer, suite.followed)
	followedPost := suite.createPost(suite.followed, "from someone I follow", models.CategoryMusic, 0)
	suite.createPost(suite.stranger, "from a stranger", models.CategoryMusic, 0)

	page, err := suite.composer.Home(suite.viewer, 1, 20)
	require.NoError(t, err)

	require.Len(t, page.Posts, 1)
	assert.Equal(t, followedPost.ID, page.Posts[0].ID)
	assert.False(t, page.Fallback)
}

func (suite *ComposerTestSuite) TestHomeIncludesOwnPosts() {
	t := suite.T()

	own := suite.createPost(suite.viewer, "my own post", models.CategoryArt, 0)

	page, err := suite.composer.Home(suite.viewer, 1, 20)
	require.NoError(t, err)

	require.Len(t, page.Posts, 1)
	assert.Equal(t, own.ID, page.Posts[0].ID)
}

func (suite *ComposerTestSuite) TestHomeMatchesPreferredCategories() {
	t := suite.T()

	suite.viewer.Preferences = models.StringArray{string(models.CategoryGaming)}
	require.NoError(t, suite.db.Save(suite.viewer).Error)

	gaming := suite.createPost(suite.stranger, "gaming post", models.CategoryGaming, 0)
	suite.createPost(suite.stranger, "food post", models.CategoryFood, 0)

	page, err := suite.composer.Home(suite.viewer, 1, 20)
	require.NoError(t, err)

	require.Len(t, page.Posts, 1)
	assert.Equal(t, gaming.ID, page.Posts[0].ID)
}

func (suite *ComposerTestSuite) TestHomeFallsBackWhenFollowedWentQuiet() {
	t := suite.T()

	// Viewer follows someone who has never posted; strangers have
	suite.follow(suite.viewer, suite.followed)
	strangerPost := suite.createPost(suite.stranger, "global recent", models.CategoryTravel, 0)

	page, err := suite.composer.Home(suite.viewer, 1, 20)
	require.NoError(t, err)

	assert.True(t, page.Fallback)
	require.Len(t, page.Posts, 1)
	assert.Equal(t, strangerPost.ID, page.Posts[0].ID)
}

func (suite *ComposerTestSuite) TestHomeNoFallbackWithoutSignal() {
	t := suite.T()

	// No follows, no preferences: an empty feed stays empty
	suite.createPost(suite.stranger, "global recent", models.CategoryTravel, 0)

	page, err := suite.composer.Home(suite.viewer, 1, 20)
	require.NoError(t, err)

	assert.False(t, page.Fallback)
	assert.Empty(t, page.Posts)
}

func (suite *ComposerTestSuite) TestHomeFallbackContinuesPastFirstPage() {
	t := suite.T()

	// Followed author is quiet, so every page draws from the global feed
	suite.follow(suite.viewer, suite.followed)
	oldest := suite.createPost(suite.stranger, "third", models.CategoryMusic, 2*time.Hour)
	suite.createPost(suite.stranger, "second", models.CategoryMusic, time.Hour)
	suite.createPost(suite.stranger, "first", models.CategoryMusic, 0)

	first, err := suite.composer.Home(suite.viewer, 1, 2)
	require.NoError(t, err)
	assert.True(t, first.Fallback)
	require.Len(t, first.Posts, 2)

	second, err := suite.composer.Home(suite.viewer, 2, 2)
	require.NoError(t, err)
	assert.True(t, second.Fallback, "later pages keep drawing from the global feed")
	require.Len(t, second.Posts, 1)
	assert.Equal(t, oldest.ID, second.Posts[0].ID)
}

func (suite *ComposerTestSuite) TestHomeHidesVanishedPosts() {
	t := suite.T()

	suite.follow(suite.viewer, suite.followed)
	live := suite.createPost(suite.followed, "still here", models.CategoryMusic, 0)

	gone := suite.createPost(suite.followed, "already vanished", models.CategoryMusic, 0)
	past := time.Now().UTC().Add(-time.Minute)
	require.NoError(t, suite.db.Model(gone).Update("vanish_mode",
		models.VanishMode{Enabled: true, VanishAt: &past}).Error)

	page, err := suite.composer.Home(suite.viewer, 1, 20)
	require.NoError(t, err)

	require.Len(t, page.Posts, 1)
	assert.Equal(t, live.ID, page.Posts[0].ID)
}

func (suite *ComposerTestSuite) TestHomeAnnotatesViewerReaction() {
	t := suite.T()

	suite.follow(suite.viewer, suite.followed)
	post := suite.createPost(suite.followed, "reacted post", models.CategoryMusic, 0)

	ledger := reactions.NewLedger(suite.db)
	_, _, err := ledger.Set(post.ID, suite.viewer.ID, models.ReactionRelatable)
	require.NoError(t, err)

	page, err := suite.composer.Home(suite.viewer, 1, 20)
	require.NoError(t, err)

	require.Len(t, page.Posts, 1)
	assert.Equal(t, models.ReactionRelatable, page.Posts[0].ViewerReaction)
}

func (suite *ComposerTestSuite) TestExploreSortsByTrendingScore() {
	t := suite.T()

	cold := suite.createPost(suite.stranger, "cold", models.CategoryMusic, 0)
	hot := suite.createPost(suite.stranger, "hot", models.CategoryMusic, 0)
	require.NoError(t, suite.db.Model(hot).Update("trending_score", 9.5).Error)
	require.NoError(t, suite.db.Model(cold).Update("trending_score", 0.3).Error)

	page, err := suite.composer.Explore(SortTrending, "", "", 1, 20)
	require.NoError(t, err)

	require.Len(t, page.Posts, 2)
	assert.Equal(t, hot.ID, page.Posts[0].ID)
	assert.Equal(t, cold.ID, page.Posts[1].ID)
}

func (suite *ComposerTestSuite) TestExploreFiltersByCategory() {
	t := suite.T()

	suite.createPost(suite.stranger, "music", models.CategoryMusic, 0)
	food := suite.createPost(suite.stranger, "food", models.CategoryFood, 0)

	page, err := suite.composer.Explore(SortRecent, models.CategoryFood, "", 1, 20)
	require.NoError(t, err)

	require.Len(t, page.Posts, 1)
	assert.Equal(t, food.ID, page.Posts[0].ID)
}

func (suite *ComposerTestSuite) TestUserPostsHidesDisguisedFromOthers() {
	t := suite.T()

	normal := suite.createPost(suite.followed, "public", models.CategoryMusic, 0)
	disguised := suite.createPost(suite.followed, "masked", models.CategoryMusic, 0)
	require.NoError(t, suite.db.Model(disguised).Update("visibility", models.VisibilityDisguise).Error)

	page, err := suite.composer.UserPosts(suite.followed.ID, suite.viewer.ID, 1, 20)
	require.NoError(t, err)
	require.Len(t, page.Posts, 1)
	assert.Equal(t, normal.ID, page.Posts[0].ID)

	// The author sees both
	page, err = suite.composer.UserPosts(suite.followed.ID, suite.followed.ID, 1, 20)
	require.NoError(t, err)
	assert.Len(t, page.Posts, 2)
}

func TestComposerSuite(t *testing.T) {
	if os.Getenv("SKIP_DB_TESTS") == "true" {
		t.Skip("Skipping database tests")
	}

	suite.Run(t, new(ComposerTestSuite))
}
