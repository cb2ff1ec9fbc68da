package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sales-daily-api/internal/models"
	appErrors "github.com/noah-isme/sales-daily-api/pkg/errors"
)

func TestAccessGateAuthorize(t *testing.T) {
	managerID := int64(1)
	report := &models.DailyReport{ID: 9, StaffID: 2, OwnerManagerID: &managerID}
	gate := NewAccessGate(nil, nil)

	cases := []struct {
		name    string
		actor   models.Actor
		allowed []ReportAction
	}{
		{"owner", models.Actor{StaffID: 2, Role: models.RoleStaff}, []ReportAction{ActionRead, ActionEdit, ActionDelete, ActionSubmit, ActionComment}},
		{"owner's manager", models.Actor{StaffID: 1, Role: models.RoleManager}, []ReportAction{ActionRead, ActionComment, ActionApprove, ActionReject}},
		{"peer", models.Actor{StaffID: 3, Role: models.RoleStaff}, nil},
		{"other manager", models.Actor{StaffID: 5, Role: models.RoleManager}, nil},
		{"manager id with staff role", models.Actor{StaffID: 1, Role: models.RoleStaff}, nil},
	}
	all := []ReportAction{ActionRead, ActionEdit, ActionDelete, ActionSubmit, ActionApprove, ActionReject, ActionComment}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for _, action := range all {
				err := gate.Authorize(tc.actor, report, action)
				if containsAction(tc.allowed, action) {
					assert.NoError(t, err, action)
					continue
				}
				assert.ErrorIs(t, err, appErrors.ErrForbidden, action)
			}
		})
	}
}

func TestAccessGateSelfReviewForbiddenForManagers(t *testing.T) {
	gate := NewAccessGate(nil, nil)
	report := &models.DailyReport{ID: 9, StaffID: 1}
	actor := models.Actor{StaffID: 1, Role: models.RoleManager}

	err := gate.Authorize(actor, report, ActionApprove)
	require.Error(t, err)
	assert.Equal(t, "you cannot review your own report", appErrors.FromError(err).Message)
	assert.ErrorIs(t, gate.Authorize(actor, report, ActionReject), appErrors.ErrForbidden)
	assert.NoError(t, gate.Authorize(actor, report, ActionEdit))
}

func TestAccessGateRequiresIdentityAndReport(t *testing.T) {
	gate := NewAccessGate(nil, nil)
	assert.ErrorIs(t, gate.Authorize(models.Actor{}, &models.DailyReport{ID: 1}, ActionRead), appErrors.ErrUnauthorized)
	assert.ErrorIs(t, gate.Authorize(models.Actor{StaffID: 1}, nil, ActionRead), appErrors.ErrNotFound)
}

func TestAccessGateVisibleStaffIDs(t *testing.T) {
	gate := NewAccessGate(&scopeStub{subordinates: map[int64][]int64{1: {2, 3}}}, nil)
	ctx := context.Background()

	ids, err := gate.VisibleStaffIDs(ctx, models.Actor{StaffID: 2, Role: models.RoleStaff})
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, ids)

	ids, err = gate.VisibleStaffIDs(ctx, models.Actor{StaffID: 1, Role: models.RoleManager})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids)

	_, err = gate.VisibleStaffIDs(ctx, models.Actor{})
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func containsAction(actions []ReportAction, action ReportAction) bool {
	for _, candidate := range actions {
		if candidate == action {
			return true
		}
	}
	return false
}
