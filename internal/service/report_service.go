package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sales-daily-api/internal/dto"
	"github.com/noah-isme/sales-daily-api/internal/models"
	"github.com/noah-isme/sales-daily-api/internal/repository"
	appErrors "github.com/noah-isme/sales-daily-api/pkg/errors"
)

type reportStore interface {
	Create(ctx context.Context, report *models.DailyReport, visits []models.Visit) error
	FindByID(ctx context.Context, id int64) (*models.DailyReport, error)
	ListVisits(ctx context.Context, reportID int64) ([]models.Visit, error)
	ListComments(ctx context.Context, reportID int64) ([]models.Comment, error)
	List(ctx context.Context, filter models.ReportFilter) ([]models.DailyReport, int, error)
	ListPending(ctx context.Context, managerID int64, page, pageSize int) ([]models.DailyReport, int, error)
	ReplaceContent(ctx context.Context, params repository.ReplaceContentParams) error
	Transition(ctx context.Context, params repository.TransitionParams) error
	DeleteDraft(ctx context.Context, id int64) error
}

type customerCounter interface {
	CountExisting(ctx context.Context, ids []int64) (int, error)
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// ReportLimits bounds free-text report fields in characters.
type ReportLimits struct {
	TextMaxLength         int
	VisitContentMaxLength int
	CommentMaxLength      int
}

// ReportService implements the daily report aggregate and its approval workflow.
type ReportService struct {
	repo      reportStore
	customers customerCounter
	gate      *AccessGate
	audit     auditLogger
	metrics   *MetricsService
	limits    ReportLimits
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewReportService constructs a ReportService.
func NewReportService(repo reportStore, customers customerCounter, gate *AccessGate, audit auditLogger, metrics *MetricsService, limits ReportLimits, validate *validator.Validate, logger *zap.Logger) *ReportService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		repo:      repo,
		customers: customers,
		gate:      gate,
		audit:     audit,
		metrics:   metrics,
		limits:    limits,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new report for the actor, as draft or directly submitted.
func (s *ReportService) Create(ctx context.Context, actor models.Actor, req dto.CreateReportRequest) (*dto.ReportDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid report payload")
	}
	visits, err := s.prepareContent(ctx, req.Problem, req.Plan, req.Visits)
	if err != nil {
		return nil, err
	}
	if req.Submit && len(visits) == 0 {
		return nil, appErrors.ErrEmptyVisits
	}

	report := &models.DailyReport{
		StaffID:    actor.StaffID,
		ReportDate: req.ReportDate,
		Problem:    req.Problem,
		Plan:       req.Plan,
		Status:     models.ReportStatusDraft,
	}
	if req.Submit {
		now := s.now()
		report.Status = models.ReportStatusSubmitted
		report.SubmittedAt = &now
	}

	if err := s.repo.Create(ctx, report, visits); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateReportDate):
			return nil, appErrors.Clone(appErrors.ErrDuplicateDate, fmt.Sprintf("a report for %s already exists", req.ReportDate))
		case errors.Is(err, repository.ErrUnknownCustomer):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "customer not found")
		}
		return nil, s.internal(err, "failed to create report", zap.Int64("staff_id", actor.StaffID), zap.String("report_date", req.ReportDate))
	}

	s.emitAudit(ctx, actor, models.AuditActionReportCreate, report.ID, nil, map[string]interface{}{
		"reportDate": report.ReportDate,
		"status":     report.Status,
		"visits":     len(visits),
	})
	if req.Submit {
		s.metrics.RecordTransition(string(models.ReportEventSubmit), "ok")
	}
	return s.Get(ctx, actor, report.ID)
}

// Get returns the full aggregate when the actor may read it.
func (s *ReportService) Get(ctx context.Context, actor models.Actor, id int64) (*dto.ReportDetail, error) {
	report, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(actor, report, ActionRead); err != nil {
		return nil, err
	}
	return s.aggregate(ctx, report)
}

// List returns reports owned by staff visible to the actor.
func (s *ReportService) List(ctx context.Context, actor models.Actor, query dto.ReportQuery) ([]models.DailyReport, *models.Pagination, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, validationError(err, "invalid report query")
	}
	if query.DateFrom != "" && query.DateTo != "" && query.DateFrom > query.DateTo {
		return nil, nil, appErrors.Validation("invalid report query", map[string]string{"dateTo": "must not be before dateFrom"})
	}
	for _, status := range query.Status {
		if !status.Valid() {
			return nil, nil, appErrors.Validation("invalid report query", map[string]string{"status": fmt.Sprintf("unknown status %q", status)})
		}
	}

	filter, err := s.scopedFilter(ctx, actor, query)
	if err != nil {
		return nil, nil, err
	}
	reports, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, s.internal(err, "failed to list reports", zap.Int64("staff_id", actor.StaffID))
	}
	return reports, paginationFor(filter.Page, filter.PageSize, total), nil
}

// PendingApprovals lists submitted reports of the manager's direct subordinates.
func (s *ReportService) PendingApprovals(ctx context.Context, actor models.Actor, page, pageSize int) ([]models.DailyReport, *models.Pagination, error) {
	if !actor.IsManager() {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "only managers have pending approvals")
	}
	page, pageSize = normalizePaging(page, pageSize)
	reports, total, err := s.repo.ListPending(ctx, actor.StaffID, page, pageSize)
	if err != nil {
		return nil, nil, s.internal(err, "failed to list pending reports", zap.Int64("manager_id", actor.StaffID))
	}
	return reports, paginationFor(page, pageSize, total), nil
}

// Update replaces problem, plan and visits while the report is draft or rejected. req.Submit also submits it atomically.
func (s *ReportService) Update(ctx context.Context, actor models.Actor, id int64, req dto.UpdateReportRequest) (*dto.ReportDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid report payload")
	}
	report, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(actor, report, ActionEdit); err != nil {
		return nil, err
	}
	if !report.Status.Editable() {
		return nil, appErrors.Clone(appErrors.ErrNotEditable, fmt.Sprintf("report is %s and can no longer be edited", report.Status))
	}

	visits, err := s.prepareContent(ctx, req.Problem, req.Plan, req.Visits)
	if err != nil {
		return nil, err
	}
	if report.Status == models.ReportStatusRejected && len(visits) == 0 {
		return nil, appErrors.Clone(appErrors.ErrEmptyVisits, "a rejected report must keep at least one visit")
	}

	params := repository.ReplaceContentParams{
		ReportID: id,
		Problem:  req.Problem,
		Plan:     req.Plan,
		Visits:   visits,
	}
	if req.Submit {
		if _, err := nextStatus(report.Status, models.ReportEventSubmit); err != nil {
			return nil, err
		}
		if len(visits) == 0 {
			s.metrics.RecordTransition(string(models.ReportEventSubmit), appErrors.ErrEmptyVisits.Code)
			return nil, appErrors.ErrEmptyVisits
		}
		params.Submit = true
		params.SubmittedAt = s.now()
	}

	if err := s.repo.ReplaceContent(ctx, params); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
		case errors.Is(err, repository.ErrReportStateChanged):
			return nil, appErrors.Clone(appErrors.ErrNotEditable, "report status changed before the edit was applied")
		case errors.Is(err, repository.ErrReportWithoutVisits):
			return nil, appErrors.ErrEmptyVisits
		case errors.Is(err, repository.ErrUnknownCustomer):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "customer not found")
		}
		return nil, s.internal(err, "failed to update report", zap.Int64("report_id", id))
	}

	s.emitAudit(ctx, actor, models.AuditActionReportUpdate, id,
		map[string]interface{}{"problem": report.Problem, "plan": report.Plan, "visits": report.VisitCount},
		map[string]interface{}{"problem": req.Problem, "plan": req.Plan, "visits": len(visits)})
	if req.Submit {
		s.emitAudit(ctx, actor, models.AuditActionReportSubmit, id,
			map[string]interface{}{"status": report.Status},
			map[string]interface{}{"status": models.ReportStatusSubmitted})
		s.metrics.RecordTransition(string(models.ReportEventSubmit), "ok")
	}
	return s.Get(ctx, actor, id)
}

// Submit moves a draft or rejected report to submitted.
func (s *ReportService) Submit(ctx context.Context, actor models.Actor, id int64) (*dto.ReportDetail, error) {
	return s.transition(ctx, actor, id, models.ReportEventSubmit, "")
}

// Approve marks a submitted report approved by its owner's manager.
func (s *ReportService) Approve(ctx context.Context, actor models.Actor, id int64) (*dto.ReportDetail, error) {
	return s.transition(ctx, actor, id, models.ReportEventApprove, "")
}

// Reject sends a submitted report back to its owner. A non-empty comment is appended in the same transaction.
func (s *ReportService) Reject(ctx context.Context, actor models.Actor, id int64, req dto.RejectReportRequest) (*dto.ReportDetail, error) {
	comment := strings.TrimSpace(req.Comment)
	check := lengthCheck{}
	check.max("comment", comment, s.limits.CommentMaxLength)
	if err := check.err("invalid rejection payload"); err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, id, models.ReportEventReject, comment)
}

// Delete removes a draft report together with its visits and comments.
func (s *ReportService) Delete(ctx context.Context, actor models.Actor, id int64) error {
	report, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.gate.Authorize(actor, report, ActionDelete); err != nil {
		return err
	}
	if report.Status != models.ReportStatusDraft {
		return appErrors.Clone(appErrors.ErrNotDeletable, fmt.Sprintf("report is %s and cannot be deleted", report.Status))
	}
	if err := s.repo.DeleteDraft(ctx, id); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return appErrors.Clone(appErrors.ErrNotFound, "report not found")
		case errors.Is(err, repository.ErrReportStateChanged):
			return appErrors.Clone(appErrors.ErrNotDeletable, "report status changed before it could be deleted")
		}
		return s.internal(err, "failed to delete report", zap.Int64("report_id", id))
	}
	s.emitAudit(ctx, actor, models.AuditActionReportDelete, id, map[string]interface{}{
		"reportDate": report.ReportDate,
		"status":     report.Status,
	}, nil)
	return nil
}

func (s *ReportService) transition(ctx context.Context, actor models.Actor, id int64, event models.ReportEvent, comment string) (detail *dto.ReportDetail, err error) {
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = appErrors.FromError(err).Code
		}
		s.metrics.RecordTransition(string(event), outcome)
	}()

	report, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(actor, report, actionForEvent(event)); err != nil {
		return nil, err
	}
	to, err := nextStatus(report.Status, event)
	if err != nil {
		return nil, err
	}
	if event == models.ReportEventSubmit && report.VisitCount == 0 {
		return nil, appErrors.ErrEmptyVisits
	}

	submittedAt, approvedAt, approverID := transitionStamps(to, actor.StaffID, s.now())
	params := repository.TransitionParams{
		ReportID:      id,
		From:          report.Status,
		To:            to,
		RequireVisits: to == models.ReportStatusSubmitted,
		SubmittedAt:   submittedAt,
		ApprovedAt:    approvedAt,
		ApproverID:    approverID,
	}
	if comment != "" {
		params.Comment = &models.Comment{StaffID: actor.StaffID, Content: comment}
	}

	if err := s.repo.Transition(ctx, params); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
		case errors.Is(err, repository.ErrReportStateChanged):
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "report status changed concurrently")
		case errors.Is(err, repository.ErrReportWithoutVisits):
			return nil, appErrors.ErrEmptyVisits
		}
		return nil, s.internal(err, "failed to update report status", zap.Int64("report_id", id), zap.String("event", string(event)))
	}

	s.emitAudit(ctx, actor, auditActionForEvent(event), id,
		map[string]interface{}{"status": report.Status},
		map[string]interface{}{"status": to, "comment": comment})
	return s.Get(ctx, actor, id)
}

func (s *ReportService) scopedFilter(ctx context.Context, actor models.Actor, query dto.ReportQuery) (models.ReportFilter, error) {
	visible, err := s.gate.VisibleStaffIDs(ctx, actor)
	if err != nil {
		return models.ReportFilter{}, err
	}
	if query.StaffID != 0 {
		if !containsID(visible, query.StaffID) {
			return models.ReportFilter{}, appErrors.Clone(appErrors.ErrForbidden, "you cannot view reports of this staff member")
		}
		visible = []int64{query.StaffID}
	}
	page, pageSize := normalizePaging(query.Page, query.PageSize)
	return models.ReportFilter{
		StaffIDs:     visible,
		ScopeActorID: actor.StaffID,
		Status:       query.Status,
		DateFrom:     query.DateFrom,
		DateTo:       query.DateTo,
		Page:         page,
		PageSize:     pageSize,
	}, nil
}

// prepareContent checks configured lengths and customer references, returning visits ready to persist.
func (s *ReportService) prepareContent(ctx context.Context, problem, plan string, inputs []dto.VisitInput) ([]models.Visit, error) {
	check := lengthCheck{}
	check.max("problem", problem, s.limits.TextMaxLength)
	check.max("plan", plan, s.limits.TextMaxLength)
	visits := make([]models.Visit, 0, len(inputs))
	customerIDs := make([]int64, 0, len(inputs))
	seen := make(map[int64]struct{}, len(inputs))
	for i, input := range inputs {
		check.max(fmt.Sprintf("visits[%d].content", i), input.Content, s.limits.VisitContentMaxLength)
		visits = append(visits, models.Visit{CustomerID: input.CustomerID, VisitTime: input.VisitTime, Content: input.Content})
		if _, ok := seen[input.CustomerID]; !ok {
			seen[input.CustomerID] = struct{}{}
			customerIDs = append(customerIDs, input.CustomerID)
		}
	}
	if err := check.err("invalid report payload"); err != nil {
		return nil, err
	}

	if len(customerIDs) > 0 && s.customers != nil {
		count, err := s.customers.CountExisting(ctx, customerIDs)
		if err != nil {
			return nil, s.internal(err, "failed to verify customers")
		}
		if count != len(customerIDs) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "customer not found")
		}
	}
	return visits, nil
}

func (s *ReportService) find(ctx context.Context, id int64) (*models.DailyReport, error) {
	report, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return nil, s.internal(err, "failed to load report", zap.Int64("report_id", id))
	}
	return report, nil
}

func (s *ReportService) aggregate(ctx context.Context, report *models.DailyReport) (*dto.ReportDetail, error) {
	visits, err := s.repo.ListVisits(ctx, report.ID)
	if err != nil {
		return nil, s.internal(err, "failed to load visits", zap.Int64("report_id", report.ID))
	}
	comments, err := s.repo.ListComments(ctx, report.ID)
	if err != nil {
		return nil, s.internal(err, "failed to load comments", zap.Int64("report_id", report.ID))
	}
	report.VisitCount = len(visits)
	return &dto.ReportDetail{DailyReport: *report, Visits: visits, Comments: comments}, nil
}

func (s *ReportService) internal(err error, message string, fields ...zap.Field) error {
	s.logger.Error(message, append(fields, zap.Error(err))...)
	return appErrors.Internal(err, message)
}

func (s *ReportService) emitAudit(ctx context.Context, actor models.Actor, action string, reportID int64, oldValues, newValues map[string]interface{}) {
	if s.audit == nil {
		return
	}
	staffID := actor.StaffID
	entry := &models.AuditLog{
		StaffID:    &staffID,
		Action:     action,
		Resource:   "daily_report",
		ResourceID: &reportID,
	}
	if oldValues != nil {
		entry.OldValues, _ = json.Marshal(oldValues)
	}
	if newValues != nil {
		entry.NewValues, _ = json.Marshal(newValues)
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to persist audit log", zap.String("action", action), zap.Int64("report_id", reportID), zap.Error(err))
	}
}

func actionForEvent(event models.ReportEvent) ReportAction {
	switch event {
	case models.ReportEventSubmit:
		return ActionSubmit
	case models.ReportEventApprove:
		return ActionApprove
	case models.ReportEventReject:
		return ActionReject
	}
	return ReportAction(event)
}

func auditActionForEvent(event models.ReportEvent) string {
	switch event {
	case models.ReportEventApprove:
		return models.AuditActionReportApprove
	case models.ReportEventReject:
		return models.AuditActionReportReject
	case models.ReportEventSubmit:
	}
	return models.AuditActionReportSubmit
}

func containsID(ids []int64, id int64) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func normalizePaging(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

func paginationFor(page, pageSize, total int) *models.Pagination {
	return &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}
}
