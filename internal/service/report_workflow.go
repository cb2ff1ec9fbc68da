package service

import (
	"fmt"
	"time"

	"github.com/noah-isme/sales-daily-api/internal/models"
	appErrors "github.com/noah-isme/sales-daily-api/pkg/errors"
)

// nextStatus is the report state machine. Every pair not listed returns INVALID_TRANSITION.
func nextStatus(from models.ReportStatus, event models.ReportEvent) (models.ReportStatus, error) {
	switch from {
	case models.ReportStatusDraft, models.ReportStatusRejected:
		switch event {
		case models.ReportEventSubmit:
			return models.ReportStatusSubmitted, nil
		case models.ReportEventApprove, models.ReportEventReject:
		}
	case models.ReportStatusSubmitted:
		switch event {
		case models.ReportEventApprove:
			return models.ReportStatusApproved, nil
		case models.ReportEventReject:
			return models.ReportStatusRejected, nil
		case models.ReportEventSubmit:
		}
	case models.ReportStatusApproved:
		// terminal
	}
	return from, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("cannot %s a report in status %s", event, from))
}

// transitionStamps returns the timestamps and approver a transition into to writes.
// submittedAt is nil when the stored value must be kept.
func transitionStamps(to models.ReportStatus, actorID int64, now time.Time) (submittedAt, approvedAt *time.Time, approverID *int64) {
	switch to {
	case models.ReportStatusSubmitted:
		submittedAt = &now
	case models.ReportStatusApproved:
		approvedAt = &now
		approverID = &actorID
	case models.ReportStatusDraft, models.ReportStatusRejected:
	}
	return submittedAt, approvedAt, approverID
}
