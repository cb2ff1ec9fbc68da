package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sales-daily-api/internal/dto"
	"github.com/noah-isme/sales-daily-api/internal/models"
	appErrors "github.com/noah-isme/sales-daily-api/pkg/errors"
)

func TestCommentServicePost(t *testing.T) {
	store := newReportStoreStub(map[int64]int64{2: 1})
	store.reports[1] = &models.DailyReport{ID: 1, StaffID: 2, ReportDate: "2024-01-10", Status: models.ReportStatusApproved}
	svc := NewCommentService(store, NewAccessGate(nil, nil), 20, nil, nil)
	ctx := context.Background()

	comment, err := svc.Post(ctx, managerOne, 1, dto.CreateCommentRequest{Content: "  nice work  "})
	require.NoError(t, err)
	assert.Equal(t, "nice work", comment.Content)
	assert.Equal(t, managerOne.StaffID, comment.StaffID)
	assert.Equal(t, int64(1), comment.DailyReportID)

	_, err = svc.Post(ctx, ownerTwo, 1, dto.CreateCommentRequest{Content: "thanks"})
	require.NoError(t, err)
	assert.Len(t, store.comments[1], 2)

	_, err = svc.Post(ctx, peerThree, 1, dto.CreateCommentRequest{Content: "hi"})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = svc.Post(ctx, ownerTwo, 1, dto.CreateCommentRequest{Content: "   "})
	require.Error(t, err)
	assert.Equal(t, "is required", appErrors.FromError(err).Details["content"])

	_, err = svc.Post(ctx, ownerTwo, 1, dto.CreateCommentRequest{Content: strings.Repeat("x", 21)})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Post(ctx, ownerTwo, 404, dto.CreateCommentRequest{Content: "missing"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Len(t, store.comments[1], 2)
}
