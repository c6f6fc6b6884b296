package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/miqaat-rms-api/internal/models"
	"github.com/noah-isme/miqaat-rms-api/pkg/jobs"
)

type auditStore interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

type auditRecorder interface {
	Record(ctx context.Context, entry AuditEntry)
}

type auditOriginKey struct{}

type auditOrigin struct {
	IP        string
	UserAgent string
}

// WithAuditOrigin stores the caller address and user agent for audit entries
// recorded while serving ctx.
func WithAuditOrigin(ctx context.Context, ip, userAgent string) context.Context {
	return context.WithValue(ctx, auditOriginKey{}, auditOrigin{IP: ip, UserAgent: userAgent})
}

// AuditEntry describes one change to record.
type AuditEntry struct {
	Actor      *models.JWTClaims
	Action     string
	Resource   string
	ResourceID string
	Before     interface{}
	After      interface{}
}

// AuditService persists audit logs through a background queue so request
// handling does not wait on the write.
type AuditService struct {
	store   auditStore
	queue   *jobs.Queue
	metrics *MetricsService
	logger  *zap.Logger
}

// NewAuditService constructs the service and its queue. Start must be called
// before entries are written asynchronously.
func NewAuditService(store auditStore, cfg jobs.QueueConfig, metrics *MetricsService, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &AuditService{store: store, metrics: metrics, logger: logger}
	if cfg.Logger == nil {
		cfg.Logger = logger
	}
	svc.queue = jobs.NewQueue("audit", svc.handle, cfg)
	return svc
}

// Start launches the queue workers.
func (s *AuditService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop flushes pending entries and stops the workers.
func (s *AuditService) Stop() {
	s.queue.Stop()
}

// Record queues an audit entry. When the queue is not accepting work the
// entry is written inline.
func (s *AuditService) Record(ctx context.Context, entry AuditEntry) {
	log, err := s.build(ctx, entry)
	if err != nil {
		s.logger.Warn("audit entry dropped", zap.String("action", entry.Action), zap.Error(err))
		return
	}
	job := jobs.Job{ID: log.ID, Type: log.Action, Payload: log}
	if err := s.queue.Enqueue(job); err != nil {
		if errors.Is(err, jobs.ErrQueueFull) {
			s.logger.Warn("audit queue full, writing inline", zap.String("action", log.Action))
		} else {
			s.logger.Debug("audit queue unavailable, writing inline", zap.Error(err))
		}
		if err := s.handle(context.WithoutCancel(ctx), job); err != nil {
			s.logger.Error("audit write failed", zap.String("action", log.Action), zap.Error(err))
		}
	}
}

func (s *AuditService) build(ctx context.Context, entry AuditEntry) (*models.AuditLog, error) {
	log := &models.AuditLog{
		ID:       uuid.NewString(),
		Action:   entry.Action,
		Resource: entry.Resource,
	}
	if entry.Actor != nil && entry.Actor.UserID != "" {
		userID := entry.Actor.UserID
		log.UserID = &userID
	}
	if entry.ResourceID != "" {
		resourceID := entry.ResourceID
		log.ResourceID = &resourceID
	}
	if origin, ok := ctx.Value(auditOriginKey{}).(auditOrigin); ok {
		log.IPAddress = origin.IP
		log.UserAgent = origin.UserAgent
	}
	var err error
	if log.OldValues, err = marshalAuditValue(entry.Before); err != nil {
		return nil, err
	}
	if log.NewValues, err = marshalAuditValue(entry.After); err != nil {
		return nil, err
	}
	return log, nil
}

func (s *AuditService) handle(ctx context.Context, job jobs.Job) error {
	log, ok := job.Payload.(*models.AuditLog)
	if !ok {
		return fmt.Errorf("unexpected audit payload %T", job.Payload)
	}
	err := s.store.Create(ctx, log)
	s.metrics.RecordAuditJob(err == nil)
	return err
}

func marshalAuditValue(v interface{}) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal audit value: %w", err)
	}
	return raw, nil
}
