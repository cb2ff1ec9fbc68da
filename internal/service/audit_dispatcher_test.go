package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sales-daily-api/internal/models"
	"github.com/noah-isme/sales-daily-api/pkg/jobs"
)

type syncAuditSink struct {
	mu      sync.Mutex
	entries []models.AuditLog
	failFor int
}

func (s *syncAuditSink) CreateAuditLog(_ context.Context, entry *models.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFor > 0 {
		s.failFor--
		return errors.New("db down")
	}
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *syncAuditSink) actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.Action)
	}
	return out
}

func TestAuditDispatcherFlushesOnStop(t *testing.T) {
	sink := &syncAuditSink{failFor: 1}
	d := NewAuditDispatcher(sink, nil, jobs.Config{Workers: 1, MaxRetries: 2})
	d.Start(context.Background())

	entry := &models.AuditLog{Action: models.AuditActionReportSubmit, Resource: "report"}
	require.NoError(t, d.CreateAuditLog(context.Background(), entry))
	require.NoError(t, d.CreateAuditLog(context.Background(), &models.AuditLog{Action: models.AuditActionReportApprove, Resource: "report"}))
	d.Stop()

	assert.ElementsMatch(t, []string{models.AuditActionReportSubmit, models.AuditActionReportApprove}, sink.actions())
	assert.True(t, entry.CreatedAt.IsZero())
	for _, e := range sink.entries {
		assert.False(t, e.CreatedAt.IsZero())
	}
}

func TestAuditDispatcherWritesInlineAfterStop(t *testing.T) {
	sink := &syncAuditSink{}
	d := NewAuditDispatcher(sink, nil, jobs.Config{})
	d.Stop()

	require.NoError(t, d.CreateAuditLog(context.Background(), &models.AuditLog{Action: models.AuditActionLogin}))
	assert.Equal(t, []string{models.AuditActionLogin}, sink.actions())

	sink.failFor = 1
	assert.Error(t, d.CreateAuditLog(context.Background(), &models.AuditLog{Action: models.AuditActionLogin}))
	assert.NoError(t, d.CreateAuditLog(context.Background(), nil))
}
