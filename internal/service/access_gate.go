package service

import (
	"context"

	"github.com/noah-isme/sales-daily-api/internal/models"
	appErrors "github.com/noah-isme/sales-daily-api/pkg/errors"
)

// ReportAction is an operation requested against a single report.
type ReportAction string

const (
	ActionRead    ReportAction = "read"
	ActionEdit    ReportAction = "edit"
	ActionDelete  ReportAction = "delete"
	ActionSubmit  ReportAction = "submit"
	ActionApprove ReportAction = "approve"
	ActionReject  ReportAction = "reject"
	ActionComment ReportAction = "comment"
)

type staffScopeResolver interface {
	AllowedStaffIDs(ctx context.Context, actor models.Actor) ([]int64, error)
}

// AccessGate decides whether an actor may perform an action on a report.
// It checks identity and hierarchy only; status rules belong to the workflow.
type AccessGate struct {
	hierarchy staffScopeResolver
	metrics   *MetricsService
}

// NewAccessGate constructs the gate.
func NewAccessGate(hierarchy staffScopeResolver, metrics *MetricsService) *AccessGate {
	return &AccessGate{hierarchy: hierarchy, metrics: metrics}
}

// Authorize returns nil when allowed and a FORBIDDEN error otherwise.
// report.OwnerManagerID must come from the current staff row, not from a cache.
func (g *AccessGate) Authorize(actor models.Actor, report *models.DailyReport, action ReportAction) error {
	if actor.StaffID == 0 {
		return appErrors.ErrUnauthorized
	}
	if report == nil {
		return appErrors.ErrNotFound
	}

	if actor.StaffID == report.StaffID {
		switch action {
		case ActionRead, ActionEdit, ActionDelete, ActionSubmit, ActionComment:
			return nil
		case ActionApprove, ActionReject:
			return g.deny(action, "you cannot review your own report")
		}
		return g.deny(action, "")
	}

	if actor.IsManager() && report.OwnerManagerID != nil && *report.OwnerManagerID == actor.StaffID {
		switch action {
		case ActionRead, ActionComment, ActionApprove, ActionReject:
			return nil
		case ActionEdit, ActionDelete, ActionSubmit:
			return g.deny(action, "only the owner can change report content")
		}
	}

	return g.deny(action, "")
}

// VisibleStaffIDs returns the owners whose reports the actor may list.
func (g *AccessGate) VisibleStaffIDs(ctx context.Context, actor models.Actor) ([]int64, error) {
	if actor.StaffID == 0 {
		return nil, appErrors.ErrUnauthorized
	}
	if !actor.IsManager() || g.hierarchy == nil {
		return []int64{actor.StaffID}, nil
	}
	return g.hierarchy.AllowedStaffIDs(ctx, actor)
}

func (g *AccessGate) deny(action ReportAction, message string) error {
	g.metrics.RecordAccessDenied(string(action))
	if message == "" {
		message = "you do not have access to this report"
	}
	return appErrors.Clone(appErrors.ErrForbidden, message)
}
