package service

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/miqaat-rms-api/internal/dto"
	"github.com/noah-isme/miqaat-rms-api/internal/models"
	"github.com/noah-isme/miqaat-rms-api/internal/repository"
	"github.com/noah-isme/miqaat-rms-api/internal/validation"
	appErrors "github.com/noah-isme/miqaat-rms-api/pkg/errors"
)

type batchStore interface {
	List(ctx context.Context) ([]models.Batch, error)
	GetByID(ctx context.Context, id int64) (*models.Batch, error)
	Create(ctx context.Context, batch *models.Batch) error
	Update(ctx context.Context, batch *models.Batch) error
	Resolve(ctx context.Context, id int64, target models.BatchTarget) (*models.Batch, bool, error)
}

type requestLookup interface {
	ListByIDs(ctx context.Context, ids []int64) ([]models.Request, error)
}

// BatchService groups todo requests into batches and resolves them.
type BatchService struct {
	repo      batchStore
	requests  requestLookup
	validator *validation.Validator
	audit     auditRecorder
	cache     cacheStore
	metrics   *MetricsService
	logger    *zap.Logger
}

// BatchServiceOption configures the service.
type BatchServiceOption func(*BatchService)

// WithBatchAudit records every mutation through recorder.
func WithBatchAudit(recorder auditRecorder) BatchServiceOption {
	return func(s *BatchService) {
		s.audit = recorder
	}
}

// WithBatchCache invalidates cached request filters after mutations.
func WithBatchCache(cache cacheStore) BatchServiceOption {
	return func(s *BatchService) {
		s.cache = cache
	}
}

// WithBatchMetrics counts batch transitions.
func WithBatchMetrics(metrics *MetricsService) BatchServiceOption {
	return func(s *BatchService) {
		s.metrics = metrics
	}
}

// NewBatchService constructs the service with defaults.
func NewBatchService(repo batchStore, requests requestLookup, validator *validation.Validator, logger *zap.Logger, opts ...BatchServiceOption) *BatchService {
	if validator == nil {
		validator = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &BatchService{repo: repo, requests: requests, validator: validator, logger: logger}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// List returns every batch with its member requests.
func (s *BatchService) List(ctx context.Context) ([]models.Batch, error) {
	batches, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list batches")
	}
	if batches == nil {
		batches = []models.Batch{}
	}
	if err := s.hydrate(ctx, batches); err != nil {
		return nil, err
	}
	return batches, nil
}

// Get returns one batch with its member requests.
func (s *BatchService) Get(ctx context.Context, id int64) (*models.Batch, error) {
	batch, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "batch not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load batch")
	}
	batches := []models.Batch{*batch}
	if err := s.hydrate(ctx, batches); err != nil {
		return nil, err
	}
	return &batches[0], nil
}

// Create opens a batch over todo requests and marks them is_batch.
func (s *BatchService) Create(ctx context.Context, form dto.BatchForm, actor *models.JWTClaims) (*models.Batch, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Batch(form).Err(); err != nil {
		return nil, err
	}
	batch := &models.Batch{
		Name:       strings.TrimSpace(form.Name),
		CreatedBy:  actor.Username,
		RequestIDs: form.DedupedIDs(),
	}
	if err := s.repo.Create(ctx, batch); err != nil {
		return nil, s.translate(err, "failed to create batch")
	}

	s.afterMutation(ctx, actor, models.AuditActionBatchCreate, batch.ID, nil, batch)
	s.metrics.RecordBatchTransition(string(models.BatchStatusOpen))
	s.logger.Info("batch created", zap.Int64("batch_id", batch.ID), zap.Int("requests", len(batch.RequestIDs)))
	return s.reload(ctx, batch), nil
}

// Update renames an open batch and replaces its membership.
func (s *BatchService) Update(ctx context.Context, id int64, form dto.BatchForm, actor *models.JWTClaims) (*models.Batch, error) {
	if err := s.validator.Batch(form).Err(); err != nil {
		return nil, err
	}
	before, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.translate(err, "failed to load batch")
	}
	batch := &models.Batch{
		ID:         id,
		Name:       strings.TrimSpace(form.Name),
		RequestIDs: form.DedupedIDs(),
	}
	if err := s.repo.Update(ctx, batch); err != nil {
		return nil, s.translate(err, "failed to update batch")
	}

	s.afterMutation(ctx, actor, models.AuditActionBatchUpdate, id, before, batch)
	return s.reload(ctx, batch), nil
}

// Resolve applies a terminal status to a batch. todo deletes the batch and
// returns its requests to todo; completed and duplicate keep the batch and
// move its requests to that status.
func (s *BatchService) Resolve(ctx context.Context, id int64, status string, actor *models.JWTClaims) (*models.BatchResolution, error) {
	target := models.BatchTarget(strings.ToLower(strings.TrimSpace(status)))
	if !target.Valid() {
		return nil, appErrors.WithFields(appErrors.ErrValidation, "invalid batch status",
			map[string]string{"status": "status must be one of todo, completed, duplicate"})
	}

	before, changed, err := s.repo.Resolve(ctx, id, target)
	if err != nil {
		return nil, s.translate(err, "failed to update batch")
	}

	result := &models.BatchResolution{
		BatchID:    id,
		Status:     target,
		RequestIDs: before.RequestIDs,
		Deleted:    target.Destructive(),
		Changed:    changed,
	}
	if result.RequestIDs == nil {
		result.RequestIDs = []int64{}
	}
	if changed {
		s.afterMutation(ctx, actor, models.AuditActionBatchResolve, id, before, result)
		s.metrics.RecordBatchTransition(string(target))
		s.logger.Info("batch resolved", zap.Int64("batch_id", id), zap.String("status", string(target)))
	}
	return result, nil
}

func (s *BatchService) hydrate(ctx context.Context, batches []models.Batch) error {
	ids := make([]int64, 0)
	for _, batch := range batches {
		ids = append(ids, batch.RequestIDs...)
	}
	if len(ids) == 0 {
		for i := range batches {
			batches[i].Requests = []models.Request{}
		}
		return nil
	}
	requests, err := s.requests.ListByIDs(ctx, ids)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load batch requests")
	}
	byID := make(map[int64]models.Request, len(requests))
	for _, request := range requests {
		byID[request.ID] = request
	}
	for i := range batches {
		batches[i].Requests = make([]models.Request, 0, len(batches[i].RequestIDs))
		for _, id := range batches[i].RequestIDs {
			if request, ok := byID[id]; ok {
				batches[i].Requests = append(batches[i].Requests, request)
			}
		}
	}
	return nil
}

func (s *BatchService) reload(ctx context.Context, batch *models.Batch) *models.Batch {
	fresh, err := s.Get(ctx, batch.ID)
	if err != nil {
		s.logger.Warn("reload batch failed", zap.Int64("batch_id", batch.ID), zap.Error(err))
		return batch
	}
	return fresh
}

func (s *BatchService) translate(err error, message string) error {
	var membershipErr *repository.MembershipError
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, "batch not found")
	case errors.Is(err, repository.ErrBatchResolved):
		return appErrors.Clone(appErrors.ErrConflict, "batch is already resolved")
	case errors.As(err, &membershipErr):
		if len(membershipErr.Missing) > 0 {
			return appErrors.WithFields(appErrors.ErrNotFound, "requests not found: "+joinIDs(membershipErr.Missing),
				map[string]string{"request_ids": "requests not found: " + joinIDs(membershipErr.Missing)})
		}
		return appErrors.WithFields(appErrors.ErrConflict, "requests are not todo: "+joinIDs(membershipErr.Unavailable),
			map[string]string{"request_ids": "requests are not todo: " + joinIDs(membershipErr.Unavailable)})
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func (s *BatchService) afterMutation(ctx context.Context, actor *models.JWTClaims, action string, id int64, before, after interface{}) {
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, cachePatternRequest)
	}
	if s.audit != nil {
		s.audit.Record(ctx, AuditEntry{
			Actor:      actor,
			Action:     action,
			Resource:   models.AuditResourceBatch,
			ResourceID: strconv.FormatInt(id, 10),
			Before:     before,
			After:      after,
		})
	}
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ", ")
}
