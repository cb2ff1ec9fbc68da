package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sales-daily-api/internal/models"
	"github.com/noah-isme/sales-daily-api/pkg/jobs"
)

// AuditDispatcher writes audit entries from a background worker pool.
// Entries that cannot be queued are written inline so none are lost.
type AuditDispatcher struct {
	sink   auditLogger
	queue  *jobs.Queue[models.AuditLog]
	logger *zap.Logger
}

// NewAuditDispatcher wraps sink with a queue configured by cfg.
func NewAuditDispatcher(sink auditLogger, logger *zap.Logger, cfg jobs.Config) *AuditDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Logger == nil {
		cfg.Logger = logger
	}
	d := &AuditDispatcher{sink: sink, logger: logger}
	d.queue = jobs.New("audit", d.write, cfg)
	return d
}

// Start launches the workers.
func (d *AuditDispatcher) Start(ctx context.Context) {
	d.queue.Start(ctx)
}

// Stop flushes queued entries.
func (d *AuditDispatcher) Stop() {
	d.queue.Stop()
}

// CreateAuditLog queues a copy of entry.
func (d *AuditDispatcher) CreateAuditLog(ctx context.Context, entry *models.AuditLog) error {
	if entry == nil {
		return nil
	}
	copied := *entry
	if copied.CreatedAt.IsZero() {
		copied.CreatedAt = time.Now().UTC()
	}
	if err := d.queue.Enqueue(copied); err != nil {
		d.logger.Warn("audit queue unavailable, writing inline", zap.String("action", copied.Action), zap.Error(err))
		return d.sink.CreateAuditLog(ctx, &copied)
	}
	return nil
}

func (d *AuditDispatcher) write(ctx context.Context, entry models.AuditLog) error {
	return d.sink.CreateAuditLog(ctx, &entry)
}
