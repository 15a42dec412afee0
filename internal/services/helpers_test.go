package services

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/SAP-F-2025/marking-service/internal/cache"
	"github.com/SAP-F-2025/marking-service/internal/models"
	"github.com/SAP-F-2025/marking-service/internal/repositories"
	"github.com/SAP-F-2025/marking-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/marking-service/internal/utils"
	"github.com/SAP-F-2025/marking-service/internal/validator"
)

type testEnv struct {
	db        *gorm.DB
	repo      repositories.Repository
	cache     cache.CacheService
	redis     *miniredis.Miniredis
	validator *validator.Validator
	logger    *slog.Logger
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func quietUtilsLogger() utils.Logger {
	return utils.NewSlogLogger(discardLogger())
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.MarkingScheme{},
		&models.QuestionSpec{},
		&models.GradingBatch{},
		&models.GradingTask{},
		&models.Answer{},
	))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return &testEnv{
		db:        db,
		repo:      postgres.NewRepository(db),
		cache:     cache.NewRedisCache(client, quietUtilsLogger()),
		redis:     server,
		validator: validator.New(),
		logger:    discardLogger(),
	}
}

func float64Ptr(v float64) *float64 { return &v }

// tenMarkRequest is a two-question scheme worth 10 marks with pass score 40.
func tenMarkRequest(assignmentID uint) *SchemeRequest {
	return &SchemeRequest{
		AssignmentID: assignmentID,
		Title:        "Geography quiz",
		PassScore:    40,
		Questions: []QuestionRequest{
			{QuestionText: "Capital of France?", AnswerText: "Paris", Marks: 4, GradingType: models.GradingOneWord},
			{QuestionText: "Answer to everything?", AnswerText: "42", Marks: 6, GradingType: models.GradingNumerical,
				UseRange: true, Range: &models.Range{Min: float64Ptr(40), Max: float64Ptr(44)}},
		},
	}
}
