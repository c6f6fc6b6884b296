package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/miqaat-rms-api/internal/dto"
	"github.com/noah-isme/miqaat-rms-api/internal/models"
	"github.com/noah-isme/miqaat-rms-api/internal/repository"
	"github.com/noah-isme/miqaat-rms-api/internal/validation"
	appErrors "github.com/noah-isme/miqaat-rms-api/pkg/errors"
)

type batchRepoStub struct {
	batches   map[int64]*models.Batch
	requests  map[int64]*models.Request
	nextID    int64
	createErr error
	resolved  []models.BatchTarget
}

func newBatchRepoStub(requests ...models.Request) *batchRepoStub {
	stub := &batchRepoStub{batches: make(map[int64]*models.Batch), requests: make(map[int64]*models.Request), nextID: 41}
	for i := range requests {
		r := requests[i]
		stub.requests[r.ID] = &r
	}
	return stub
}

func (s *batchRepoStub) List(ctx context.Context) ([]models.Batch, error) {
	out := make([]models.Batch, 0, len(s.batches))
	for _, b := range s.batches {
		out = append(out, *b)
	}
	return out, nil
}

func (s *batchRepoStub) GetByID(ctx context.Context, id int64) (*models.Batch, error) {
	b, ok := s.batches[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *b
	return &clone, nil
}

func (s *batchRepoStub) Create(ctx context.Context, batch *models.Batch) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.nextID++
	batch.ID = s.nextID
	batch.Status = models.BatchStatusOpen
	for _, id := range batch.RequestIDs {
		s.requests[id].Status = models.RequestStatusInBatch
	}
	clone := *batch
	s.batches[batch.ID] = &clone
	return nil
}

func (s *batchRepoStub) Update(ctx context.Context, batch *models.Batch) error {
	current, ok := s.batches[batch.ID]
	if !ok {
		return sql.ErrNoRows
	}
	if current.Status != models.BatchStatusOpen {
		return repository.ErrBatchResolved
	}
	current.Name = batch.Name
	current.RequestIDs = batch.RequestIDs
	return nil
}

func (s *batchRepoStub) Resolve(ctx context.Context, id int64, target models.BatchTarget) (*models.Batch, bool, error) {
	current, ok := s.batches[id]
	if !ok {
		return nil, false, sql.ErrNoRows
	}
	before := *current
	if current.Status != models.BatchStatusOpen {
		if !target.Destructive() && current.Status == target.BatchStatus() {
			return &before, false, nil
		}
		return nil, false, repository.ErrBatchResolved
	}
	s.resolved = append(s.resolved, target)
	for _, rid := range current.RequestIDs {
		s.requests[rid].Status = target.RequestStatus()
	}
	if target.Destructive() {
		delete(s.batches, id)
	} else {
		current.Status = target.BatchStatus()
	}
	return &before, true, nil
}

func (s *batchRepoStub) ListByIDs(ctx context.Context, ids []int64) ([]models.Request, error) {
	out := make([]models.Request, 0, len(ids))
	for _, id := range ids {
		if r, ok := s.requests[id]; ok {
			out = append(out, *r)
		}
	}
	return out, nil
}

func seededBatchRepo() *batchRepoStub {
	return newBatchRepoStub(
		models.Request{ID: 1, ITS: "11111111", Type: models.RequestTypePass, Status: models.RequestStatusTodo},
		models.Request{ID: 2, ITS: "11111111", Type: models.RequestTypePass, Status: models.RequestStatusTodo},
		models.Request{ID: 3, ITS: "22222222", Type: models.RequestTypeChangeCity, Status: models.RequestStatusTodo},
	)
}

func newBatchService(repo *batchRepoStub, audit *auditRecorderStub, cache *memoryCache) *BatchService {
	return NewBatchService(repo, repo, validation.New(), nil,
		WithBatchAudit(audit),
		WithBatchCache(cache),
		WithBatchMetrics(NewMetricsService()),
	)
}

func TestBatchServiceCreate(t *testing.T) {
	repo := seededBatchRepo()
	audit := &auditRecorderStub{}
	cache := newMemoryCache()
	svc := newBatchService(repo, audit, cache)

	batch, err := svc.Create(context.Background(), dto.BatchForm{Name: "  Morning Run ", RequestIDs: []int64{1, 3, 1}}, operator())
	require.NoError(t, err)
	assert.Equal(t, int64(42), batch.ID)
	assert.Equal(t, "Morning Run", batch.Name)
	assert.Equal(t, []int64{1, 3}, batch.RequestIDs)
	require.Len(t, batch.Requests, 2)
	assert.Equal(t, models.RequestStatusInBatch, batch.Requests[0].Status)
	assert.Equal(t, models.RequestStatusTodo, repo.requests[2].Status)
	assert.Equal(t, []string{models.AuditActionBatchCreate}, audit.actions())
	assert.Equal(t, []string{cachePatternRequest}, cache.invalidated)
}

func TestBatchServiceCreateValidation(t *testing.T) {
	repo := seededBatchRepo()
	svc := newBatchService(repo, &auditRecorderStub{}, newMemoryCache())

	_, err := svc.Create(context.Background(), dto.BatchForm{Name: " ", RequestIDs: nil}, operator())
	require.ErrorIs(t, err, appErrors.ErrValidation)
	fields := appErrors.FromError(err).Fields
	assert.Equal(t, validation.MsgName, fields["name"])
	assert.Equal(t, validation.MsgSelection, fields["request_ids"])
	assert.Empty(t, repo.batches)
}

func TestBatchServiceCreateMembershipErrors(t *testing.T) {
	repo := seededBatchRepo()
	svc := newBatchService(repo, &auditRecorderStub{}, newMemoryCache())

	repo.createErr = &repository.MembershipError{Missing: []int64{8, 9}}
	_, err := svc.Create(context.Background(), dto.BatchForm{Name: "x", RequestIDs: []int64{8, 9}}, operator())
	require.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Equal(t, "requests not found: 8, 9", appErrors.FromError(err).Message)

	repo.createErr = &repository.MembershipError{Unavailable: []int64{1}}
	_, err = svc.Create(context.Background(), dto.BatchForm{Name: "x", RequestIDs: []int64{1}}, operator())
	require.ErrorIs(t, err, appErrors.ErrConflict)
	assert.Equal(t, "requests are not todo: 1", appErrors.FromError(err).Fields["request_ids"])
}

func TestBatchServiceResolveTodoDeletesBatch(t *testing.T) {
	repo := seededBatchRepo()
	audit := &auditRecorderStub{}
	svc := newBatchService(repo, audit, newMemoryCache())

	batch, err := svc.Create(context.Background(), dto.BatchForm{Name: "Morning Run", RequestIDs: []int64{1, 3}}, operator())
	require.NoError(t, err)

	result, err := svc.Resolve(context.Background(), batch.ID, "todo", operator())
	require.NoError(t, err)
	assert.True(t, result.Deleted)
	assert.True(t, result.Changed)
	assert.Equal(t, []int64{1, 3}, result.RequestIDs)
	assert.Equal(t, models.RequestStatusTodo, repo.requests[1].Status)
	assert.Equal(t, models.RequestStatusTodo, repo.requests[3].Status)

	_, err = svc.Get(context.Background(), batch.ID)
	require.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Equal(t, []string{models.AuditActionBatchCreate, models.AuditActionBatchResolve}, audit.actions())
}

func TestBatchServiceResolveDuplicateIsIdempotent(t *testing.T) {
	repo := seededBatchRepo()
	audit := &auditRecorderStub{}
	svc := newBatchService(repo, audit, newMemoryCache())

	batch, err := svc.Create(context.Background(), dto.BatchForm{Name: "Morning Run", RequestIDs: []int64{2}}, operator())
	require.NoError(t, err)

	result, err := svc.Resolve(context.Background(), batch.ID, "duplicate", operator())
	require.NoError(t, err)
	assert.False(t, result.Deleted)
	assert.True(t, result.Changed)
	assert.Equal(t, models.RequestStatusDuplicate, repo.requests[2].Status)

	again, err := svc.Resolve(context.Background(), batch.ID, "DUPLICATE", operator())
	require.NoError(t, err)
	assert.False(t, again.Changed)
	assert.Len(t, repo.resolved, 1)
	assert.Len(t, audit.actions(), 2)

	_, err = svc.Resolve(context.Background(), batch.ID, "completed", operator())
	require.ErrorIs(t, err, appErrors.ErrConflict)

	kept, err := svc.Get(context.Background(), batch.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BatchStatusDuplicate, kept.Status)
}

func TestBatchServiceResolveRejectsUnknownStatus(t *testing.T) {
	svc := newBatchService(seededBatchRepo(), &auditRecorderStub{}, newMemoryCache())

	_, err := svc.Resolve(context.Background(), 42, "open", operator())
	require.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Resolve(context.Background(), 404, "completed", operator())
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestBatchServiceUpdate(t *testing.T) {
	repo := seededBatchRepo()
	svc := newBatchService(repo, &auditRecorderStub{}, newMemoryCache())

	batch, err := svc.Create(context.Background(), dto.BatchForm{Name: "Morning Run", RequestIDs: []int64{1}}, operator())
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), batch.ID, dto.BatchForm{Name: "Evening", RequestIDs: []int64{3, 1}}, operator())
	require.NoError(t, err)
	assert.Equal(t, "Evening", updated.Name)
	assert.Equal(t, []int64{3, 1}, updated.RequestIDs)

	_, err = svc.Resolve(context.Background(), batch.ID, "completed", operator())
	require.NoError(t, err)
	_, err = svc.Update(context.Background(), batch.ID, dto.BatchForm{Name: "Late", RequestIDs: []int64{1}}, operator())
	require.ErrorIs(t, err, appErrors.ErrConflict)

	_, err = svc.Update(context.Background(), 999, dto.BatchForm{Name: "Late", RequestIDs: []int64{1}}, operator())
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestBatchServiceListHydratesInMemberOrder(t *testing.T) {
	repo := seededBatchRepo()
	repo.batches[7] = &models.Batch{ID: 7, Name: "b", Status: models.BatchStatusOpen, RequestIDs: []int64{3, 1}}
	svc := newBatchService(repo, &auditRecorderStub{}, newMemoryCache())

	batches, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, batches, 1)
	require.Len(t, batches[0].Requests, 2)
	assert.Equal(t, int64(3), batches[0].Requests[0].ID)
	assert.Equal(t, int64(1), batches[0].Requests[1].ID)
}
