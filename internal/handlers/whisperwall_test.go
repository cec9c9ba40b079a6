package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
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
	"github.com/whisperecho/backend/internal/vanish"
)

// WhisperWallTestSuite contains WhisperWall handler tests
type WhisperWallTestSuite struct {
	suite.Suite
	db     *gorm.DB
	router *gin.Engine
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (suite *WhisperWallTestSuite) SetupSuite() {
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
		suite.T().Skipf("Skipping WhisperWall tests: database not available (%v)", err)
		return
	}

	if logging.Log == nil {
		logging.Log = zap.NewNop()
	}

	database.DB = db

	require.NoError(suite.T(), db.AutoMigrate(
		&models.WhisperPost{},
		&models.WhisperHeart{},
	))

	suite.db = db

	gin.SetMode(gin.TestMode)
	h := &Handlers{}
	suite.router = gin.New()
	suite.router.GET("/whispers", h.ListWhispers)
	suite.router.POST("/whispers", h.CreateWhisper)
	suite.router.POST("/whispers/:id/heart", h.HeartWhisper)
}

func (suite *WhisperWallTestSuite) TearDownSuite() {
	if suite.db != nil {
		sqlDB, _ := suite.db.DB()
		sqlDB.Close()
	}
}

func (suite *WhisperWallTestSuite) SetupTest() {
	suite.db.Exec("TRUNCATE TABLE whisper_hearts, whisper_posts RESTART IDENTITY CASCADE")
}

// createWhisper inserts a whisper directly with its created_at backdated by age
func (suite *WhisperWallTestSuite) createWhisper(text string, age time.Duration) *models.WhisperPost {
	w := &models.WhisperPost{
		Text:        text,
		SessionHash: "seed-session",
	}
	require.NoError(suite.T(), suite.db.Create(w).Error)
	require.NoError(suite.T(), suite.db.Model(w).
		UpdateColumn("created_at", time.Now().Add(-age)).Error)
	return w
}

func (suite *WhisperWallTestSuite) doRequest(method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = "192.0.2.7:4242"
	req.Header.Set("User-Agent", "whisperwall-test")
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *WhisperWallTestSuite) TestListHidesExpiredWhispers() {
	fresh := suite.createWhisper("still here", time.Hour)
	suite.createWhisper("too old", 25*time.Hour)
	// Past the lifetime but not yet reclaimed by the sweep
	suite.createWhisper("stale unswept", vanish.WhisperTTL+time.Minute)

	w := suite.doRequest(http.MethodGet, "/whispers")
	require.Equal(suite.T(), http.StatusOK, w.Code)

	var resp struct {
		Whispers []models.WhisperPost `json:"whispers"`
	}
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(suite.T(), resp.Whispers, 1)
	assert.Equal(suite.T(), fresh.ID, resp.Whispers[0].ID)
}

func (suite *WhisperWallTestSuite) TestHeartExpiredWhisperIsNotFound() {
	stale := suite.createWhisper("stale unswept", vanish.WhisperTTL+time.Minute)

	w := suite.doRequest(http.MethodPost, "/whispers/"+stale.ID+"/heart")
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)

	var count int64
	suite.db.Model(&models.WhisperHeart{}).Count(&count)
	assert.EqualValues(suite.T(), 0, count)
}

func (suite *WhisperWallTestSuite) TestHeartIsIdempotentPerSession() {
	live := suite.createWhisper("heart me", time.Hour)

	first := suite.doRequest(http.MethodPost, "/whispers/"+live.ID+"/heart")
	require.Equal(suite.T(), http.StatusOK, first.Code)
	second := suite.doRequest(http.MethodPost, "/whispers/"+live.ID+"/heart")
	require.Equal(suite.T(), http.StatusOK, second.Code)

	var reloaded models.WhisperPost
	require.NoError(suite.T(), suite.db.First(&reloaded, "id = ?", live.ID).Error)
	assert.Equal(suite.T(), 1, reloaded.HeartCount)
}

func TestWhisperWallSuite(t *testing.T) {
	if os.Getenv("SKIP_DB_TESTS") == "true" {
		t.Skip("Skipping database tests")
	}

	suite.Run(t, new(WhisperWallTestSuite))
}
