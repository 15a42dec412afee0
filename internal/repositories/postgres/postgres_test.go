package postgres

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/SAP-F-2025/marking-service/internal/models"
	"github.com/SAP-F-2025/marking-service/internal/repositories"
)

func newTestDB(t *testing.T) *gorm.DB {
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
	return db
}

func sampleScheme(assignmentID uint) *models.MarkingScheme {
	threshold := 0.8
	low, high := 40.0, 45.0
	return &models.MarkingScheme{
		AssignmentID: assignmentID,
		Title:        "Quiz",
		PassScore:    50,
		Questions: []models.QuestionSpec{
			{Number: 2, AnswerText: "42", Marks: 6, GradingType: models.GradingNumerical, RangeSensitive: true, UseRange: true,
				Range: &models.Range{Min: &low, Max: &high, TolerancePercent: 5}},
			{Number: 1, AnswerText: "Paris", Marks: 4, GradingType: models.GradingShortPhrase, SemanticThreshold: &threshold},
		},
	}
}

func TestMarkingScheme_CreateAndGet(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	scheme := sampleScheme(5)
	require.NoError(t, repo.MarkingScheme().Create(ctx, nil, scheme))
	require.NotZero(t, scheme.ID)

	got, err := repo.MarkingScheme().GetByID(ctx, nil, scheme.ID)
	require.NoError(t, err)
	require.Len(t, got.Questions, 2)
	assert.Equal(t, 1, got.Questions[0].Number)
	assert.Equal(t, "Paris", got.Questions[0].AnswerText)
	require.NotNil(t, got.Questions[1].Range)
	require.NotNil(t, got.Questions[1].Range.Max)
	assert.Equal(t, 45.0, *got.Questions[1].Range.Max)
	assert.Equal(t, 10, got.TotalPossibleMarks())

	_, err = repo.MarkingScheme().GetByID(ctx, nil, 999)
	assert.True(t, repositories.IsNotFoundError(err))
}

func TestMarkingScheme_UpdateKeepsQuestionIDs(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	scheme := sampleScheme(5)
	require.NoError(t, repo.MarkingScheme().Create(ctx, nil, scheme))
	stored, err := repo.MarkingScheme().GetByID(ctx, nil, scheme.ID)
	require.NoError(t, err)
	keptID := stored.Questions[0].ID

	require.NoError(t, stored.DeleteQuestion(1))
	require.NoError(t, stored.InsertQuestionAfter(0, models.QuestionSpec{AnswerText: "Rome", Marks: 2}))
	stored.PassScore = 60
	require.NoError(t, repo.MarkingScheme().Update(ctx, nil, stored))

	got, err := repo.MarkingScheme().GetByID(ctx, nil, scheme.ID)
	require.NoError(t, err)
	require.Len(t, got.Questions, 2)
	assert.Equal(t, keptID, got.Questions[0].ID)
	assert.Equal(t, "Rome", got.Questions[1].AnswerText)
	assert.Equal(t, 2, got.Questions[1].Number)
	assert.Equal(t, 60, got.PassScore)

	var count int64
	require.NoError(t, repo.(*Repository).db.Model(&models.QuestionSpec{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestMarkingScheme_UpdateMissing(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	err := repo.MarkingScheme().Update(context.Background(), nil, &models.MarkingScheme{ID: 77})
	assert.True(t, repositories.IsNotFoundError(err))
}

func TestMarkingScheme_ListAndDelete(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	first := sampleScheme(5)
	second := sampleScheme(5)
	other := sampleScheme(6)
	require.NoError(t, repo.MarkingScheme().Create(ctx, nil, first))
	require.NoError(t, repo.MarkingScheme().Create(ctx, nil, second))
	require.NoError(t, repo.MarkingScheme().Create(ctx, nil, other))

	list, err := repo.MarkingScheme().ListByAssignment(ctx, nil, 5)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	latest, err := repo.MarkingScheme().GetLatestByAssignment(ctx, nil, 5)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)

	require.NoError(t, repo.MarkingScheme().Delete(ctx, nil, first.ID))
	_, err = repo.MarkingScheme().GetByID(ctx, nil, first.ID)
	assert.True(t, repositories.IsNotFoundError(err))
	assert.True(t, repositories.IsNotFoundError(repo.MarkingScheme().Delete(ctx, nil, first.ID)))
}

func TestGradingBatch_Lifecycle(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	batch := &models.GradingBatch{
		ID:                 "batch-1",
		SchemeID:           1,
		AssignmentID:       5,
		PassScore:          50,
		TotalPossibleMarks: 10,
		Status:             models.BatchRunning,
		Tasks: []models.GradingTask{
			{BatchID: "batch-1", FileID: "a", Status: models.TaskPending},
			{BatchID: "batch-1", FileID: "b", Status: models.TaskPending},
		},
	}
	require.NoError(t, repo.GradingBatch().Create(ctx, nil, batch))

	raw, normalized := 7.0, 70
	require.NoError(t, repo.GradingBatch().SaveTask(ctx, nil, &models.GradingTask{
		BatchID: "batch-1", FileID: "a", Status: models.TaskCompleted, RawScore: &raw, NormalizedScore: &normalized,
	}))
	require.NoError(t, repo.GradingBatch().SaveTask(ctx, nil, &models.GradingTask{
		BatchID: "batch-1", FileID: "b", Status: models.TaskError, ErrorKind: models.ErrorKindGrading, ErrorMessage: "timeout",
	}))

	now := time.Now().UTC()
	require.NoError(t, repo.GradingBatch().UpdateStatus(ctx, nil, "batch-1", models.BatchCompleted, &now))

	got, err := repo.GradingBatch().GetByID(ctx, nil, "batch-1")
	require.NoError(t, err)
	assert.Equal(t, models.BatchCompleted, got.Status)
	assert.NotNil(t, got.FinishedAt)
	require.Len(t, got.Tasks, 2)
	assert.Equal(t, models.TaskCompleted, got.Tasks[0].Status)
	require.NotNil(t, got.Tasks[0].NormalizedScore)
	assert.Equal(t, 70, *got.Tasks[0].NormalizedScore)
	assert.Equal(t, models.ErrorKindGrading, got.Tasks[1].ErrorKind)

	assert.True(t, repositories.IsNotFoundError(repo.GradingBatch().UpdateStatus(ctx, nil, "missing", models.BatchCompleted, &now)))
}

func TestGradingBatch_LatestCompletedTasks(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	raw := func(v float64) *float64 { return &v }
	older := &models.GradingBatch{
		ID: "old", AssignmentID: 5, Status: models.BatchCompleted, CreatedAt: time.Now().Add(-time.Hour),
		Tasks: []models.GradingTask{
			{FileID: "a", Status: models.TaskCompleted, RawScore: raw(3)},
			{FileID: "b", Status: models.TaskCompleted, RawScore: raw(4)},
		},
	}
	newer := &models.GradingBatch{
		ID: "new", AssignmentID: 5, Status: models.BatchCompleted, CreatedAt: time.Now(),
		Tasks: []models.GradingTask{
			{FileID: "a", Status: models.TaskCompleted, RawScore: raw(9)},
			{FileID: "b", Status: models.TaskError, ErrorKind: models.ErrorKindGrading},
		},
	}
	unrelated := &models.GradingBatch{
		ID: "other", AssignmentID: 6, Status: models.BatchCompleted,
		Tasks: []models.GradingTask{{FileID: "z", Status: models.TaskCompleted, RawScore: raw(1)}},
	}
	for _, b := range []*models.GradingBatch{older, newer, unrelated} {
		require.NoError(t, repo.GradingBatch().Create(ctx, nil, b))
	}

	tasks, err := repo.GradingBatch().ListLatestCompletedTasks(ctx, nil, 5)
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	byFile := map[string]float64{}
	for _, task := range tasks {
		byFile[task.FileID] = *task.RawScore
	}
	assert.Equal(t, map[string]float64{"a": 9, "b": 4}, byFile)
}

func TestGradingBatch_MarkInterrupted(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.GradingBatch().Create(ctx, nil, &models.GradingBatch{ID: "r", Status: models.BatchRunning}))
	require.NoError(t, repo.GradingBatch().Create(ctx, nil, &models.GradingBatch{ID: "c", Status: models.BatchCompleted}))

	n, err := repo.GradingBatch().MarkInterrupted(ctx, nil, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := repo.GradingBatch().GetByID(ctx, nil, "r")
	require.NoError(t, err)
	assert.Equal(t, models.BatchCancelled, got.Status)
}

func TestAnswer_SupersedeAndCreate(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	first := []models.Answer{
		{BatchID: "b1", QuestionID: 1, StudentAnswer: "paris", MarksForAnswer: 4, AllocatedMarks: 4},
		{BatchID: "b1", QuestionID: 2, StudentAnswer: "41", MarksForAnswer: 0, AllocatedMarks: 6},
	}
	require.NoError(t, repo.Answer().SupersedeAndCreate(ctx, nil, 5, "a", first))

	second := []models.Answer{
		{BatchID: "b2", QuestionID: 1, StudentAnswer: "paris", MarksForAnswer: 4, AllocatedMarks: 4},
		{BatchID: "b2", QuestionID: 2, StudentAnswer: "42", MarksForAnswer: 6, AllocatedMarks: 6},
	}
	require.NoError(t, repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		return repo.Answer().SupersedeAndCreate(ctx, tx, 5, "a", second)
	}))

	current, err := repo.Answer().ListCurrentByAssignment(ctx, nil, 5)
	require.NoError(t, err)
	require.Len(t, current, 2)
	for _, a := range current {
		assert.Equal(t, "b2", a.BatchID)
		assert.Nil(t, a.SupersededAt)
	}

	var total int64
	require.NoError(t, repo.(*Repository).db.Model(&models.Answer{}).Count(&total).Error)
	assert.Equal(t, int64(4), total)
}
