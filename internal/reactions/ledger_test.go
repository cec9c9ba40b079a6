package reactions

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
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// LedgerTestSuite contains reaction ledger tests
type LedgerTestSuite struct {
	suite.Suite
	db     *gorm.DB
	ledger *Ledger
	author *models.User
	viewer *models.User
	post   *models.Post
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (suite *LedgerTestSuite) SetupSuite() {
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
		suite.T().Skipf("Skipping ledger tests: database not available (%v)", err)
		return
	}

	database.DB = db

	require.NoError(suite.T(), db.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.Reaction{},
	))

	suite.db = db
	suite.ledger = NewLedger(db)
}

func (suite *LedgerTestSuite) TearDownSuite() {
	if suite.db != nil {
		sqlDB, _ := suite.db.DB()
		sqlDB.Close()
	}
}

func (suite *LedgerTestSuite) SetupTest() {
	suite.db.Exec("TRUNCATE TABLE reactions, posts RESTART IDENTITY CASCADE")
	suite.db.Exec("TRUNCATE TABLE users RESTART IDENTITY CASCADE")

	testID := fmt.Sprintf("%d", time.Now().UnixNano())
	suite.author = &models.User{
		Email:        fmt.Sprintf("author_%s@test.com", testID),
		Username:     fmt.Sprintf("author_%s", testID[:12]),
		PasswordHash: "x",
	}
	require.NoError(suite.T(), suite.db.Create(suite.author).Error)

	suite.viewer = &models.User{
		Email:        fmt.Sprintf("viewer_%s@test.com", testID),
		Username:     fmt.Sprintf("viewer_%s", testID[:12]),
		PasswordHash: "x",
	}
	require.NoError(suite.T(), suite.db.Create(suite.viewer).Error)

	suite.post = &models.Post{
		AuthorID: suite.author.ID,
		Text:     "hello world",
		Category: models.CategoryComedy,
	}
	require.NoError(suite.T(), suite.db.Create(suite.post).Error)
}

func (suite *LedgerTestSuite) TestSetRecordsReaction() {
	t := suite.T()

	kind, placed, err := suite.ledger.Set(suite.post.ID, suite.viewer.ID, models.ReactionFunny)
	require.NoError(t, err)
	assert.Equal(t, models.ReactionFunny, kind)
	assert.True(t, placed, "first reaction on the post counts as newly placed")

	held, err := suite.ledger.Of(suite.post.ID, suite.viewer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReactionFunny, held)
}

func (suite *LedgerTestSuite) TestSetSwitchesKindWithoutSecondRow() {
	t := suite.T()

	_, _, err := suite.ledger.Set(suite.post.ID, suite.viewer.ID, models.ReactionFunny)
	require.NoError(t, err)

	_, placed, err := suite.ledger.Set(suite.post.ID, suite.viewer.ID, models.ReactionRage)
	require.NoError(t, err)
	assert.False(t, placed, "switching kind is not a newly placed reaction")

	held, err := suite.ledger.Of(suite.post.ID, suite.viewer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReactionRage, held, "new kind replaces the held one")

	var count int64
	suite.db.Model(&models.Reaction{}).
		Where("post_id = ? AND user_id = ?", suite.post.ID, suite.viewer.ID).
		Count(&count)
	assert.Equal(t, int64(1), count, "switching kind must not create a second row")
}

func (suite *LedgerTestSuite) TestSetSameKindIsIdempotent() {
	t := suite.T()

	_, _, err := suite.ledger.Set(suite.post.ID, suite.viewer.ID, models.ReactionLove)
	require.NoError(t, err)
	_, placed, err := suite.ledger.Set(suite.post.ID, suite.viewer.ID, models.ReactionLove)
	require.NoError(t, err)
	assert.False(t, placed)

	counts, err := suite.ledger.CountsFor(suite.post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.Total)
	assert.Equal(t, int64(1), counts.ByKind[models.ReactionLove])
}

func (suite *LedgerTestSuite) TestSetRejectsUnknownKind() {
	_, _, err := suite.ledger.Set(suite.post.ID, suite.viewer.ID, "angry")
	assert.ErrorIs(suite.T(), err, ErrInvalidKind)
}

func (suite *LedgerTestSuite) TestRemoveClearsReaction() {
	t := suite.T()

	_, _, err := suite.ledger.Set(suite.post.ID, suite.viewer.ID, models.ReactionShock)
	require.NoError(t, err)

	removed, err := suite.ledger.Remove(suite.post.ID, suite.viewer.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	held, err := suite.ledger.Of(suite.post.ID, suite.viewer.ID)
	require.NoError(t, err)
	assert.Empty(t, held)

	// Removing again is a no-op
	removed, err = suite.ledger.Remove(suite.post.ID, suite.viewer.ID)
	assert.NoError(t, err)
	assert.False(t, removed)
}

func (suite *LedgerTestSuite) TestCountsForZeroFillsAllKinds() {
	t := suite.T()

	_, _, err := suite.ledger.Set(suite.post.ID, suite.viewer.ID, models.ReactionThinking)
	require.NoError(t, err)
	_, _, err = suite.ledger.Set(suite.post.ID, suite.author.ID, models.ReactionThinking)
	require.NoError(t, err)

	counts, err := suite.ledger.CountsFor(suite.post.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(2), counts.Total)
	assert.Equal(t, int64(2), counts.ByKind[models.ReactionThinking])
	assert.Len(t, counts.ByKind, len(models.ReactionKinds), "every kind appears even at zero")
	assert.Equal(t, int64(0), counts.ByKind[models.ReactionRage])
}

func (suite *LedgerTestSuite) TestHeldByViewerBatch() {
	t := suite.T()

	other := &models.Post{
		AuthorID: suite.author.ID,
		Text:     "second post",
		Category: models.CategoryGaming,
	}
	require.NoError(t, suite.db.Create(other).Error)

	_, _, err := suite.ledger.Set(suite.post.ID, suite.viewer.ID, models.ReactionFunny)
	require.NoError(t, err)

	held, err := suite.ledger.HeldByViewer([]string{suite.post.ID, other.ID}, suite.viewer.ID)
	require.NoError(t, err)

	assert.Equal(t, models.ReactionFunny, held[suite.post.ID])
	_, present := held[other.ID]
	assert.False(t, present, "posts without a reaction stay absent")
}

func (suite *LedgerTestSuite) TestHeldByViewerAnonymousViewer() {
	held, err := suite.ledger.HeldByViewer([]string{suite.post.ID}, "")
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), held)
}

func TestLedgerSuite(t *testing.T) {
	if os.Getenv("SKIP_DB_TESTS") == "true" {
		t.Skip("Skipping database tests")
	}

	suite.Run(t, new(LedgerTestSuite))
}
