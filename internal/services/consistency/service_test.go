package consistency

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"athena/internal/domain/consistency"
	"athena/internal/domain/content"
	"athena/internal/domain/embedding"
	pkgerrors "athena/pkg/errors"
	"athena/pkg/logger"
)

func testLogger() *logger.Logger {
	zapLogger, _ := zap.NewDevelopment()
	return &logger.Logger{SugaredLogger: zapLogger.Sugar()}
}

// MockContentRepository is a mock for content.Repository
type MockContentRepository struct {
	mock.Mock
}

func (m *MockContentRepository) GetByID(ctx context.Context, id uuid.UUID) (*content.Content, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*content.Content), args.Error(1)
}

func (m *MockContentRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*content.Content, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*content.Content), args.Error(1)
}

func (m *MockContentRepository) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockEmbeddingStore is a mock for embedding.Store
type MockEmbeddingStore struct {
	mock.Mock
}

func (m *MockEmbeddingStore) Insert(ctx context.Context, chunk *embedding.Chunk) error {
	args := m.Called(ctx, chunk)
	return args.Error(0)
}

func (m *MockEmbeddingStore) CountByContent(ctx context.Context, contentID uuid.UUID) (int, error) {
	args := m.Called(ctx, contentID)
	return args.Int(0), args.Error(1)
}

func (m *MockEmbeddingStore) DeleteByContent(ctx context.Context, contentID uuid.UUID) (int64, error) {
	args := m.Called(ctx, contentID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockEmbeddingStore) SearchSimilar(ctx context.Context, userID uuid.UUID, vector pgvector.Vector, limit int) ([]*embedding.Chunk, error) {
	args := m.Called(ctx, userID, vector, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*embedding.Chunk), args.Error(1)
}

func newTestService(contentRepo *MockContentRepository, store *MockEmbeddingStore) *Service {
	return NewService(contentRepo, store, testLogger())
}

func TestService_CheckContentConsistency(t *testing.T) {
	tests := []struct {
		name             string
		chunkCount       int
		actualVectors    int
		expectedMissing  int
		expectedOrphaned int
		recommendation   consistency.Recommendation
	}{
		{
			name:           "counts match",
			chunkCount:     10,
			actualVectors:  10,
			recommendation: consistency.RecommendationOK,
		},
		{
			name:            "missing vectors are critical",
			chunkCount:      10,
			actualVectors:   7,
			expectedMissing: 3,
			recommendation:  consistency.RecommendationCritical,
		},
		{
			name:             "orphaned vectors are a warning",
			chunkCount:       5,
			actualVectors:    8,
			expectedOrphaned: 3,
			recommendation:   consistency.RecommendationWarning,
		},
		{
			name:            "missing dominates orphaned",
			chunkCount:      3,
			actualVectors:   0,
			expectedMissing: 3,
			recommendation:  consistency.RecommendationCritical,
		},
		{
			name:           "empty content with no vectors",
			chunkCount:     0,
			actualVectors:  0,
			recommendation: consistency.RecommendationOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contentRepo := new(MockContentRepository)
			store := new(MockEmbeddingStore)
			svc := newTestService(contentRepo, store)

			contentID := uuid.New()

			contentRepo.On("GetByID", mock.Anything, contentID).Return(&content.Content{
				ID:         contentID,
				UserID:     uuid.New(),
				ChunkCount: tt.chunkCount,
			}, nil)
			store.On("CountByContent", mock.Anything, contentID).Return(tt.actualVectors, nil)

			report, err := svc.CheckContentConsistency(context.Background(), contentID)

			assert.NoError(t, err)
			assert.Equal(t, contentID, report.ContentID)
			assert.Equal(t, tt.chunkCount, report.ExpectedVectorCount)
			assert.Equal(t, tt.actualVectors, report.ActualVectorCount)
			assert.Equal(t, tt.expectedMissing, report.Missing)
			assert.Equal(t, tt.expectedOrphaned, report.Orphaned)
			assert.Equal(t, tt.recommendation, report.Recommendation)
		})
	}
}

func TestService_CheckContentConsistency_ContentNotFound(t *testing.T) {
	contentRepo := new(MockContentRepository)
	store := new(MockEmbeddingStore)
	svc := newTestService(contentRepo, store)

	contentID := uuid.New()

	contentRepo.On("GetByID", mock.Anything, contentID).Return(nil, pkgerrors.ErrNotFound)

	report, err := svc.CheckContentConsistency(context.Background(), contentID)

	// Nonexistent content must not masquerade as an inconsistency
	assert.Nil(t, report)
	assert.ErrorIs(t, err, pkgerrors.ErrContentNotFound)
	store.AssertNotCalled(t, "CountByContent", mock.Anything, mock.Anything)
}

func TestService_ScanForInconsistencies(t *testing.T) {
	contentRepo := new(MockContentRepository)
	store := new(MockEmbeddingStore)
	svc := newTestService(contentRepo, store)

	userID := uuid.New()
	healthy := &content.Content{ID: uuid.New(), UserID: userID, ChunkCount: 4}
	missing := &content.Content{ID: uuid.New(), UserID: userID, ChunkCount: 10}
	orphaned := &content.Content{ID: uuid.New(), UserID: userID, ChunkCount: 5}

	contentRepo.On("ListByUser", mock.Anything, userID, 10).Return([]*content.Content{healthy, missing, orphaned}, nil)
	store.On("CountByContent", mock.Anything, healthy.ID).Return(4, nil)
	store.On("CountByContent", mock.Anything, missing.ID).Return(7, nil)
	store.On("CountByContent", mock.Anything, orphaned.ID).Return(8, nil)

	reports, err := svc.ScanForInconsistencies(context.Background(), userID, 10)

	assert.NoError(t, err)
	assert.Len(t, reports, 2) // healthy content is filtered out
	assert.Equal(t, missing.ID, reports[0].ContentID)
	assert.Equal(t, consistency.RecommendationCritical, reports[0].Recommendation)
	assert.Equal(t, 3, reports[0].Missing)
	assert.Equal(t, orphaned.ID, reports[1].ContentID)
	assert.Equal(t, consistency.RecommendationWarning, reports[1].Recommendation)
	assert.Equal(t, 3, reports[1].Orphaned)
}

func TestService_ScanForInconsistencies_ZeroLimit(t *testing.T) {
	contentRepo := new(MockContentRepository)
	store := new(MockEmbeddingStore)
	svc := newTestService(contentRepo, store)

	reports, err := svc.ScanForInconsistencies(context.Background(), uuid.New(), 0)

	assert.NoError(t, err)
	assert.Empty(t, reports)
	contentRepo.AssertNotCalled(t, "ListByUser", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_ScanForInconsistencies_PartialFailure(t *testing.T) {
	contentRepo := new(MockContentRepository)
	store := new(MockEmbeddingStore)
	svc := newTestService(contentRepo, store)

	userID := uuid.New()
	broken := &content.Content{ID: uuid.New(), UserID: userID, ChunkCount: 6}
	fine := &content.Content{ID: uuid.New(), UserID: userID, ChunkCount: 3}

	contentRepo.On("ListByUser", mock.Anything, userID, 5).Return([]*content.Content{broken, fine}, nil)
	store.On("CountByContent", mock.Anything, broken.ID).Return(0, pkgerrors.ErrVectorStoreUnavailable)
	store.On("CountByContent", mock.Anything, fine.ID).Return(3, nil)

	reports, err := svc.ScanForInconsistencies(context.Background(), userID, 5)

	// One failed audit must not abort the batch
	assert.NoError(t, err)
	assert.Len(t, reports, 1)
	assert.Equal(t, broken.ID, reports[0].ContentID)
	assert.NotEmpty(t, reports[0].Error)
	store.AssertExpectations(t)
}

func TestService_CleanupOrphanedVectors(t *testing.T) {
	contentRepo := new(MockContentRepository)
	store := new(MockEmbeddingStore)
	svc := newTestService(contentRepo, store)

	orphanA := uuid.New()
	orphanB := uuid.New()

	contentRepo.On("ExistsByID", mock.Anything, orphanA).Return(false, nil)
	contentRepo.On("ExistsByID", mock.Anything, orphanB).Return(false, nil)
	store.On("DeleteByContent", mock.Anything, orphanA).Return(int64(12), nil)
	store.On("DeleteByContent", mock.Anything, orphanB).Return(int64(5), nil)

	result, err := svc.CleanupOrphanedVectors(context.Background(), []uuid.UUID{orphanA, orphanB})

	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 17, result.CleanedCount)
	assert.Empty(t, result.Errors)
}

func TestService_CleanupOrphanedVectors_SecondCallIsNoop(t *testing.T) {
	contentRepo := new(MockContentRepository)
	store := new(MockEmbeddingStore)
	svc := newTestService(contentRepo, store)

	orphan := uuid.New()

	contentRepo.On("ExistsByID", mock.Anything, orphan).Return(false, nil)
	// Vectors already deleted by the first call
	store.On("DeleteByContent", mock.Anything, orphan).Return(int64(0), nil)

	result, err := svc.CleanupOrphanedVectors(context.Background(), []uuid.UUID{orphan})

	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 0, result.CleanedCount)
	assert.Empty(t, result.Errors)
}

func TestService_CleanupOrphanedVectors_BatchBounds(t *testing.T) {
	contentRepo := new(MockContentRepository)
	store := new(MockEmbeddingStore)
	svc := newTestService(contentRepo, store)

	// Empty batch
	result, err := svc.CleanupOrphanedVectors(context.Background(), nil)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidInput)

	// One past the cap
	oversized := make([]uuid.UUID, MaxCleanupBatch+1)
	for i := range oversized {
		oversized[i] = uuid.New()
	}
	result, err = svc.CleanupOrphanedVectors(context.Background(), oversized)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidInput)

	var validationErr *pkgerrors.ValidationError
	assert.True(t, pkgerrors.As(err, &validationErr))
	contentRepo.AssertNotCalled(t, "ExistsByID", mock.Anything, mock.Anything)
}

func TestService_CleanupOrphanedVectors_SkipsLiveContent(t *testing.T) {
	contentRepo := new(MockContentRepository)
	store := new(MockEmbeddingStore)
	svc := newTestService(contentRepo, store)

	live := uuid.New()
	orphan := uuid.New()

	contentRepo.On("ExistsByID", mock.Anything, live).Return(true, nil)
	contentRepo.On("ExistsByID", mock.Anything, orphan).Return(false, nil)
	store.On("DeleteByContent", mock.Anything, orphan).Return(int64(3), nil)

	result, err := svc.CleanupOrphanedVectors(context.Background(), []uuid.UUID{live, orphan})

	assert.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 3, result.CleanedCount)
	assert.Len(t, result.Errors, 1)
	store.AssertNotCalled(t, "DeleteByContent", mock.Anything, live)
}

func TestService_CleanupOrphanedVectors_PerItemFailure(t *testing.T) {
	contentRepo := new(MockContentRepository)
	store := new(MockEmbeddingStore)
	svc := newTestService(contentRepo, store)

	failing := uuid.New()
	orphan := uuid.New()

	contentRepo.On("ExistsByID", mock.Anything, failing).Return(false, nil)
	contentRepo.On("ExistsByID", mock.Anything, orphan).Return(false, nil)
	store.On("DeleteByContent", mock.Anything, failing).Return(int64(0), pkgerrors.ErrUnavailable)
	store.On("DeleteByContent", mock.Anything, orphan).Return(int64(2), nil)

	result, err := svc.CleanupOrphanedVectors(context.Background(), []uuid.UUID{failing, orphan})

	// The batch result carries the failure; the call itself succeeds
	assert.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 2, result.CleanedCount)
	assert.Len(t, result.Errors, 1)
}

func TestSummarize(t *testing.T) {
	reports := []*consistency.Report{
		{Recommendation: consistency.RecommendationCritical},
		{Recommendation: consistency.RecommendationCritical},
		{Recommendation: consistency.RecommendationWarning},
	}

	summary := consistency.Summarize(50, reports)

	assert.Equal(t, 50, summary.Scanned)
	assert.Equal(t, 3, summary.Inconsistent)
	assert.Equal(t, 2, summary.CriticalIssues)
	assert.Equal(t, 1, summary.Warnings)
	assert.Equal(t, "94.00%", summary.ConsistencyRate)
}

func TestSummarize_EmptySample(t *testing.T) {
	summary := consistency.Summarize(0, nil)

	assert.Equal(t, 0, summary.Scanned)
	assert.Equal(t, "100.00%", summary.ConsistencyRate)
}
