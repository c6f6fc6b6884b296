package service

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/miqaat-rms-api/internal/dto"
	"github.com/noah-isme/miqaat-rms-api/internal/models"
	"github.com/noah-isme/miqaat-rms-api/internal/validation"
	appErrors "github.com/noah-isme/miqaat-rms-api/pkg/errors"
)

const (
	cacheKeyFilters     = "requests:filters"
	cachePatternRequest = "requests:*"
)

type requestStore interface {
	List(ctx context.Context, filter models.RequestFilter) ([]models.Request, int, error)
	ListByStatus(ctx context.Context, status models.RequestStatus) ([]models.Request, error)
	GetByID(ctx context.Context, id int64) (*models.Request, error)
	Create(ctx context.Context, request *models.Request) error
	UpdateTodo(ctx context.Context, request *models.Request) error
	DeleteTodo(ctx context.Context, id int64) error
	FilterOptions(ctx context.Context) (*models.FilterOptions, error)
}

// RequestService implements the request lifecycle rules.
type RequestService struct {
	repo       requestStore
	validator  *validation.Validator
	audit      auditRecorder
	cache      cacheStore
	filtersTTL time.Duration
	metrics    *MetricsService
	logger     *zap.Logger
}

// RequestServiceOption configures the service.
type RequestServiceOption func(*RequestService)

// WithRequestAudit records every mutation through recorder.
func WithRequestAudit(recorder auditRecorder) RequestServiceOption {
	return func(s *RequestService) {
		s.audit = recorder
	}
}

// WithRequestCache caches filter options for ttl.
func WithRequestCache(cache cacheStore, ttl time.Duration) RequestServiceOption {
	return func(s *RequestService) {
		s.cache = cache
		s.filtersTTL = ttl
	}
}

// WithRequestMetrics counts mutations.
func WithRequestMetrics(metrics *MetricsService) RequestServiceOption {
	return func(s *RequestService) {
		s.metrics = metrics
	}
}

// NewRequestService constructs the service with defaults.
func NewRequestService(repo requestStore, validator *validation.Validator, logger *zap.Logger, opts ...RequestServiceOption) *RequestService {
	if validator == nil {
		validator = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &RequestService{repo: repo, validator: validator, logger: logger}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// List returns a page of requests matching the query.
func (s *RequestService) List(ctx context.Context, query dto.RequestQuery) ([]models.Request, *models.Pagination, error) {
	if query.Status != "" && !query.Status.Valid() {
		return nil, nil, appErrors.WithFields(appErrors.ErrValidation, "invalid status filter", map[string]string{"status": "unknown status"})
	}
	filter := models.RequestFilter{
		Status:    query.Status,
		Type:      query.Type,
		CreatedBy: query.CreatedBy,
		Page:      query.Page,
		PageSize:  query.PageSize,
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 500 {
		filter.PageSize = 100
	}
	requests, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list requests")
	}
	if requests == nil {
		requests = []models.Request{}
	}
	return requests, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// ListBatchable returns every todo request, oldest first.
func (s *RequestService) ListBatchable(ctx context.Context) ([]models.Request, error) {
	requests, err := s.repo.ListByStatus(ctx, models.RequestStatusTodo)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list batchable requests")
	}
	if requests == nil {
		requests = []models.Request{}
	}
	return requests, nil
}

// Get returns one request.
func (s *RequestService) Get(ctx context.Context, id int64) (*models.Request, error) {
	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
	}
	return request, nil
}

// Filters returns the values offered by the list filters.
func (s *RequestService) Filters(ctx context.Context) (*models.FilterOptions, error) {
	opts, _, err := cached(ctx, s.cache, cacheKeyFilters, s.filtersTTL, s.repo.FilterOptions)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load filters")
	}
	if opts == nil {
		opts = &models.FilterOptions{}
	}
	if opts.Statuses == nil {
		opts.Statuses = []string{}
	}
	if opts.Types == nil {
		opts.Types = []string{}
	}
	if opts.Creators == nil {
		opts.Creators = []models.Creator{}
	}
	return opts, nil
}

// Create validates and stores a new todo request owned by actor.
func (s *RequestService) Create(ctx context.Context, form dto.RequestForm, actor *models.JWTClaims) (*models.Request, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Request(form, validation.ModeCreate).Err(); err != nil {
		return nil, err
	}
	form = form.Normalized()
	request := &models.Request{
		ITS:         form.ITS,
		Type:        form.Type,
		Status:      models.RequestStatusTodo,
		City:        form.City,
		Zone:        form.Zone,
		Toggle:      form.Toggle,
		PassDate:    form.PassDate,
		Meta:        form.Meta,
		CreatedByID: actor.UserID,
		CreatedBy:   actor.Username,
	}
	if err := s.repo.Create(ctx, request); err != nil {
		if fields := constraintFieldErrors(err); !fields.Empty() {
			return nil, fields.Err()
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create request")
	}

	s.afterMutation(ctx, actor, models.AuditActionRequestCreate, request.ID, nil, request)
	s.logger.Info("request created", zap.Int64("request_id", request.ID), zap.String("type", string(request.Type)))
	return s.reload(ctx, request), nil
}

// Update replaces the editable fields of a todo request.
func (s *RequestService) Update(ctx context.Context, id int64, form dto.RequestForm, actor *models.JWTClaims) (*models.Request, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.Status.Editable() {
		return nil, appErrors.Clone(appErrors.ErrConflict, "only todo requests can be edited")
	}
	if err := s.validator.Request(form, validation.ModeEdit).Err(); err != nil {
		return nil, err
	}
	form = form.Normalized()
	updated := *current
	updated.ITS = form.ITS
	updated.Type = form.Type
	updated.City, updated.Zone, updated.Toggle, updated.PassDate = form.City, form.Zone, form.Toggle, form.PassDate
	updated.CityName, updated.ZoneName = nil, nil
	updated.Meta = form.Meta

	if err := s.repo.UpdateTodo(ctx, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "only todo requests can be edited")
		}
		if fields := constraintFieldErrors(err); !fields.Empty() {
			return nil, fields.Err()
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update request")
	}

	s.afterMutation(ctx, actor, models.AuditActionRequestUpdate, id, current, &updated)
	return s.reload(ctx, &updated), nil
}

// Delete removes a todo request.
func (s *RequestService) Delete(ctx context.Context, id int64, actor *models.JWTClaims) error {
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !current.Status.Editable() {
		return appErrors.Clone(appErrors.ErrConflict, "only todo requests can be deleted")
	}
	if err := s.repo.DeleteTodo(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrConflict, "only todo requests can be deleted")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete request")
	}
	s.afterMutation(ctx, actor, models.AuditActionRequestDelete, id, current, nil)
	return nil
}

func (s *RequestService) reload(ctx context.Context, request *models.Request) *models.Request {
	fresh, err := s.repo.GetByID(ctx, request.ID)
	if err != nil {
		s.logger.Warn("reload request failed", zap.Int64("request_id", request.ID), zap.Error(err))
		return request
	}
	return fresh
}

func (s *RequestService) afterMutation(ctx context.Context, actor *models.JWTClaims, action string, id int64, before, after interface{}) {
	s.metrics.RecordRequestMutation(action)
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, cachePatternRequest)
	}
	if s.audit != nil {
		s.audit.Record(ctx, AuditEntry{
			Actor:      actor,
			Action:     action,
			Resource:   models.AuditResourceRequest,
			ResourceID: strconv.FormatInt(id, 10),
			Before:     before,
			After:      after,
		})
	}
}

// constraintFieldErrors maps database constraint violations on request
// columns to form field errors.
func constraintFieldErrors(err error) validation.FieldErrors {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return nil
	}
	switch pqErr.Code {
	case "23503", "23514":
	default:
		return nil
	}
	switch pqErr.Constraint {
	case "requests_city_id_fkey":
		return validation.FieldErrors{"city": validation.MsgCity}
	case "requests_zone_id_fkey":
		return validation.FieldErrors{"zone": validation.MsgZone}
	case "requests_type_fkey":
		return validation.FieldErrors{"type": validation.MsgType}
	case "requests_its_check":
		return validation.FieldErrors{"its": validation.MsgITS}
	case "requests_toggle_check":
		return validation.FieldErrors{"toggle": validation.MsgToggle}
	}
	return nil
}
