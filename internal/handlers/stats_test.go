package handlers

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/whisperecho/backend/internal/database"
	logging "github.com/whisperecho/backend/internal/logger"
	"github.com/whisperecho/backend/internal/models"
)

// UserStatsTestSuite contains cached stats counter tests
type UserStatsTestSuite struct {
	suite.Suite
	db   *gorm.DB
	user *models.User
}

func (suite *UserStatsTestSuite) SetupSuite() {
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
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		suite.T().Skipf("Skipping stats tests: database not available (%v)", err)
		return
	}

	if logging.Log == nil {
		logging.Log = zap.NewNop()
	}

	database.DB = db

	require.NoError(suite.T(), db.AutoMigrate(&models.User{}))
	suite.db = db
}

func (suite *UserStatsTestSuite) TearDownSuite() {
	if suite.db != nil {
		sqlDB, _ := suite.db.DB()
		sqlDB.Close()
	}
}

func (suite *UserStatsTestSuite) SetupTest() {
	suite.db.Exec("TRUNCATE TABLE users RESTART IDENTITY CASCADE")

	testID := fmt.Sprintf("%d", time.Now().UnixNano())
	suite.user = &models.User{
		Email:        fmt.Sprintf("stats_%s@test.com", testID),
		Username:     fmt.Sprintf("stats_%s", testID[:12]),
		PasswordHash: "x",
	}
	require.NoError(suite.T(), suite.db.Create(suite.user).Error)
}

func (suite *UserStatsTestSuite) reload() models.UserStats {
	var user models.User
	require.NoError(suite.T(), suite.db.First(&user, "id = ?", suite.user.ID).Error)
	return user.Stats
}

func (suite *UserStatsTestSuite) TestBumpIncrementsCounter() {
	bumpUserStat(suite.user.ID, statPostsCount, 1)
	bumpUserStat(suite.user.ID, statPostsCount, 1)
	bumpUserStat(suite.user.ID, statCommentsCount, 1)

	stats := suite.reload()
	assert.Equal(suite.T(), 2, stats.PostsCount)
	assert.Equal(suite.T(), 1, stats.CommentsCount)
	assert.Equal(suite.T(), 0, stats.ReactionsGiven)
}

func (suite *UserStatsTestSuite) TestBumpDecrementsCounter() {
	bumpUserStat(suite.user.ID, statReactionsGiven, 1)
	bumpUserStat(suite.user.ID, statReactionsGiven, 1)
	bumpUserStat(suite.user.ID, statReactionsGiven, -1)

	assert.Equal(suite.T(), 1, suite.reload().ReactionsGiven)
}

func (suite *UserStatsTestSuite) TestBumpFloorsAtZero() {
	bumpUserStat(suite.user.ID, statPostsCount, -1)

	assert.Equal(suite.T(), 0, suite.reload().PostsCount)
}

func (suite *UserStatsTestSuite) TestBumpLeavesOtherCountersAlone() {
	bumpUserStat(suite.user.ID, statCommentsCount, 3)
	bumpUserStat(suite.user.ID, statPostsCount, 1)

	stats := suite.reload()
	assert.Equal(suite.T(), 3, stats.CommentsCount)
	assert.Equal(suite.T(), 1, stats.PostsCount)
}

func TestUserStatsSuite(t *testing.T) {
	if os.Getenv("SKIP_DB_TESTS") == "true" {
		t.Skip("Skipping database tests")
	}

	suite.Run(t, new(UserStatsTestSuite))
}
