package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/tuition-ledger-api/internal/models"
	"github.com/noah-isme/tuition-ledger-api/pkg/jobs"
)

// AuditTrail writes audit entries on a background queue so request latency does not depend on
// the audit table. When the queue is full or stopped the entry is written inline.
type AuditTrail struct {
	repo   auditRepository
	queue  *jobs.Queue[models.AuditLog]
	logger *zap.Logger
}

// NewAuditTrail constructs an AuditTrail on top of the audit repository.
func NewAuditTrail(repo auditRepository, logger *zap.Logger, cfg jobs.QueueConfig) *AuditTrail {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.Logger = logger
	trail := &AuditTrail{repo: repo, logger: logger}
	trail.queue = jobs.NewQueue("audit", trail.write, cfg)
	return trail
}

// Start launches the queue workers.
func (a *AuditTrail) Start(ctx context.Context) {
	a.queue.Start(ctx)
}

// Stop flushes pending entries and stops the workers.
func (a *AuditTrail) Stop() {
	a.queue.Stop()
}

// Create queues the entry for writing.
func (a *AuditTrail) Create(ctx context.Context, log *models.AuditLog) error {
	if log == nil {
		return nil
	}
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	err := a.queue.Enqueue(jobs.Job[models.AuditLog]{ID: log.ID, Payload: *log})
	if err == nil {
		return nil
	}
	if errors.Is(err, jobs.ErrQueueFull) {
		a.logger.Warn("audit queue full, writing inline", zap.String("action", log.Action))
	}
	return a.repo.Create(ctx, log)
}

func (a *AuditTrail) write(ctx context.Context, job jobs.Job[models.AuditLog]) error {
	entry := job.Payload
	return a.repo.Create(ctx, &entry)
}
