package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/sales-daily-api/internal/dto"
	"github.com/noah-isme/sales-daily-api/internal/models"
	"github.com/noah-isme/sales-daily-api/internal/repository"
	appErrors "github.com/noah-isme/sales-daily-api/pkg/errors"
)

type staffStore interface {
	FindByID(ctx context.Context, id int64) (*models.Staff, error)
	List(ctx context.Context, filter models.StaffFilter) ([]models.Staff, int, error)
	Create(ctx context.Context, staff *models.Staff) error
	Update(ctx context.Context, staff *models.Staff) error
	Delete(ctx context.Context, id int64) error
	CountReports(ctx context.Context, id int64) (int, error)
	CountSubordinates(ctx context.Context, id int64) (int, error)
}

type hierarchyCache interface {
	AllowedStaffIDs(ctx context.Context, actor models.Actor) ([]int64, error)
	Invalidate(ctx context.Context, managerIDs ...int64)
	InvalidateAll(ctx context.Context)
}

// StaffQuery mirrors supported staff listing filters.
type StaffQuery struct {
	Department string
	Role       string
	Search     string
	Page       int
	PageSize   int
}

// StaffService manages staff members and keeps the two-level manager hierarchy consistent.
type StaffService struct {
	repo      staffStore
	hierarchy hierarchyCache
	audit     auditLogger
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStaffService constructs a StaffService.
func NewStaffService(repo staffStore, hierarchy hierarchyCache, audit auditLogger, validate *validator.Validate, logger *zap.Logger) *StaffService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StaffService{repo: repo, hierarchy: hierarchy, audit: audit, validator: validate, logger: logger}
}

// List returns the actor and, for managers, their direct subordinates.
func (s *StaffService) List(ctx context.Context, actor models.Actor, query StaffQuery) ([]models.Staff, *models.Pagination, error) {
	ids, err := s.hierarchy.AllowedStaffIDs(ctx, actor)
	if err != nil {
		return nil, nil, err
	}
	page, pageSize := normalizePaging(query.Page, query.PageSize)
	filter := models.StaffFilter{
		IDs:            ids,
		ScopeManagerID: actor.StaffID,
		Department:     strings.TrimSpace(query.Department),
		Search:         strings.TrimSpace(query.Search),
		Page:           page,
		PageSize:       pageSize,
	}
	if query.Role != "" {
		role := models.StaffRole(strings.ToLower(query.Role))
		if !role.Valid() {
			return nil, nil, appErrors.Validation("invalid staff query", map[string]string{"role": "must be one of: staff manager"})
		}
		filter.Role = &role
	}

	staff, total, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list staff", zap.Int64("staff_id", actor.StaffID), zap.Error(err))
		return nil, nil, appErrors.Internal(err, "failed to list staff")
	}
	return staff, paginationFor(page, pageSize, total), nil
}

// Get returns a staff member the actor may see.
func (s *StaffService) Get(ctx context.Context, actor models.Actor, id int64) (*models.Staff, error) {
	staff, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canSeeStaff(actor, staff) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you cannot view this staff member")
	}
	return staff, nil
}

// Create registers a staff member. Staff created without a manager report to the acting manager.
func (s *StaffService) Create(ctx context.Context, actor models.Actor, req dto.CreateStaffRequest) (*models.Staff, error) {
	if !actor.IsManager() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only managers can register staff")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid staff payload")
	}
	if req.Role == models.RoleStaff {
		if req.ManagerID == nil {
			managerID := actor.StaffID
			req.ManagerID = &managerID
		}
		if *req.ManagerID != actor.StaffID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "new staff must report to you")
		}
	}
	if err := s.checkManagerAssignment(ctx, 0, req.Role, req.ManagerID); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to hash password")
	}
	staff := &models.Staff{
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		PasswordHash: string(hash),
		Department:   strings.TrimSpace(req.Department),
		Role:         req.Role,
		ManagerID:    req.ManagerID,
	}
	if err := s.repo.Create(ctx, staff); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
		}
		s.logger.Error("failed to create staff", zap.String("email", staff.Email), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to create staff")
	}

	s.invalidate(ctx, staff.ManagerID)
	s.emitAudit(ctx, actor, models.AuditActionStaffCreate, staff.ID, nil, staff)
	return staff, nil
}

// Update changes profile, role and manager assignment of the actor or one of their subordinates.
func (s *StaffService) Update(ctx context.Context, actor models.Actor, id int64, req dto.UpdateStaffRequest) (*models.Staff, error) {
	if !actor.IsManager() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only managers can update staff")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid staff payload")
	}
	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canSeeStaff(actor, current) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you cannot update this staff member")
	}
	if err := s.checkManagerAssignment(ctx, id, req.Role, req.ManagerID); err != nil {
		return nil, err
	}
	if current.Role == models.RoleManager && req.Role != models.RoleManager {
		count, err := s.repo.CountSubordinates(ctx, id)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to count subordinates")
		}
		if count > 0 {
			return nil, appErrors.Clone(appErrors.ErrConflict, "reassign subordinates before changing this manager's role")
		}
	}

	before := *current
	updated := *current
	updated.Name = strings.TrimSpace(req.Name)
	updated.Department = strings.TrimSpace(req.Department)
	updated.Role = req.Role
	updated.ManagerID = req.ManagerID
	if err := s.repo.Update(ctx, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "staff not found")
		}
		s.logger.Error("failed to update staff", zap.Int64("staff_id", id), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to update staff")
	}

	if before.Role != updated.Role {
		s.hierarchy.InvalidateAll(ctx)
	} else {
		s.invalidate(ctx, before.ManagerID, updated.ManagerID, &id)
	}
	s.emitAudit(ctx, actor, models.AuditActionStaffUpdate, id, before, updated)
	return &updated, nil
}

// Delete removes a staff member who owns no reports and has no subordinates.
func (s *StaffService) Delete(ctx context.Context, actor models.Actor, id int64) error {
	if !actor.IsManager() {
		return appErrors.Clone(appErrors.ErrForbidden, "only managers can delete staff")
	}
	if actor.StaffID == id {
		return appErrors.Clone(appErrors.ErrConflict, "you cannot delete yourself")
	}
	staff, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if !canSeeStaff(actor, staff) {
		return appErrors.Clone(appErrors.ErrForbidden, "you cannot delete this staff member")
	}

	reports, err := s.repo.CountReports(ctx, id)
	if err != nil {
		return appErrors.Internal(err, "failed to count reports")
	}
	if reports > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "staff member still owns reports")
	}
	subordinates, err := s.repo.CountSubordinates(ctx, id)
	if err != nil {
		return appErrors.Internal(err, "failed to count subordinates")
	}
	if subordinates > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "staff member still has subordinates")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrStaffReferenced):
			return appErrors.Clone(appErrors.ErrConflict, "staff member is still referenced by reports or comments")
		case errors.Is(err, sql.ErrNoRows):
			return appErrors.Clone(appErrors.ErrNotFound, "staff not found")
		}
		s.logger.Error("failed to delete staff", zap.Int64("staff_id", id), zap.Error(err))
		return appErrors.Internal(err, "failed to delete staff")
	}

	s.invalidate(ctx, staff.ManagerID, &id)
	s.emitAudit(ctx, actor, models.AuditActionStaffDelete, id, staff, nil)
	return nil
}

// checkManagerAssignment enforces the depth-two hierarchy: only staff have managers and managers must hold the manager role.
func (s *StaffService) checkManagerAssignment(ctx context.Context, staffID int64, role models.StaffRole, managerID *int64) error {
	if managerID == nil {
		return nil
	}
	if role == models.RoleManager {
		return appErrors.Validation("invalid manager assignment", map[string]string{"managerId": "managers cannot have a manager"})
	}
	if staffID != 0 && *managerID == staffID {
		return appErrors.Validation("invalid manager assignment", map[string]string{"managerId": "a staff member cannot manage themselves"})
	}
	manager, err := s.repo.FindByID(ctx, *managerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "manager not found")
		}
		return appErrors.Internal(err, "failed to load manager")
	}
	if manager.Role != models.RoleManager {
		return appErrors.Validation("invalid manager assignment", map[string]string{"managerId": "must reference a staff member with role manager"})
	}
	return nil
}

func (s *StaffService) find(ctx context.Context, id int64) (*models.Staff, error) {
	staff, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "staff not found")
		}
		s.logger.Error("failed to load staff", zap.Int64("staff_id", id), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to load staff")
	}
	return staff, nil
}

func (s *StaffService) invalidate(ctx context.Context, managerIDs ...*int64) {
	ids := make([]int64, 0, len(managerIDs))
	for _, id := range managerIDs {
		if id != nil {
			ids = append(ids, *id)
		}
	}
	if len(ids) > 0 {
		s.hierarchy.Invalidate(ctx, ids...)
	}
}

func (s *StaffService) emitAudit(ctx context.Context, actor models.Actor, action string, staffID int64, oldValue, newValue interface{}) {
	if s.audit == nil {
		return
	}
	actorID := actor.StaffID
	entry := &models.AuditLog{
		StaffID:    &actorID,
		Action:     action,
		Resource:   "staff",
		ResourceID: &staffID,
		CreatedAt:  time.Now().UTC(),
	}
	if oldValue != nil {
		entry.OldValues, _ = json.Marshal(oldValue)
	}
	if newValue != nil {
		entry.NewValues, _ = json.Marshal(newValue)
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to persist audit log", zap.String("action", action), zap.Int64("staff_id", staffID), zap.Error(err))
	}
}

// canSeeStaff reads the hierarchy from the freshly loaded row.
func canSeeStaff(actor models.Actor, staff *models.Staff) bool {
	if staff.ID == actor.StaffID {
		return true
	}
	return actor.IsManager() && staff.ManagerID != nil && *staff.ManagerID == actor.StaffID
}
