package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sales-daily-api/internal/models"
)

const staffColumns = `id, name, email, password_hash, department, role, manager_id, created_at, updated_at`

// StaffRepository provides database access for staff members and the manager hierarchy.
type StaffRepository struct {
	db *sqlx.DB
}

// NewStaffRepository creates a new instance of StaffRepository.
func NewStaffRepository(db *sqlx.DB) *StaffRepository {
	return &StaffRepository{db: db}
}

// FindByID returns a staff member by identifier.
func (r *StaffRepository) FindByID(ctx context.Context, id int64) (*models.Staff, error) {
	const query = `SELECT ` + staffColumns + ` FROM staff WHERE id = $1 LIMIT 1`
	var staff models.Staff
	if err := r.db.GetContext(ctx, &staff, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find staff by id: %w", err)
	}
	return &staff, nil
}

// FindByEmail returns a staff member by email address.
func (r *StaffRepository) FindByEmail(ctx context.Context, email string) (*models.Staff, error) {
	const query = `SELECT ` + staffColumns + ` FROM staff WHERE LOWER(email) = LOWER($1) LIMIT 1`
	var staff models.Staff
	if err := r.db.GetContext(ctx, &staff, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find staff by email: %w", err)
	}
	return &staff, nil
}

// ListSubordinateIDs returns the ids of staff whose manager is managerID.
func (r *StaffRepository) ListSubordinateIDs(ctx context.Context, managerID int64) ([]int64, error) {
	const query = `SELECT id FROM staff WHERE manager_id = $1 ORDER BY id`
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, managerID); err != nil {
		return nil, fmt.Errorf("list subordinate ids: %w", err)
	}
	return ids, nil
}

// List returns staff restricted to filter.IDs with total count.
func (r *StaffRepository) List(ctx context.Context, filter models.StaffFilter) ([]models.Staff, int, error) {
	if len(filter.IDs) == 0 {
		return []models.Staff{}, 0, nil
	}

	args := []interface{}{pq.Array(filter.IDs)}
	conditions := []string{"id = ANY($1)"}

	if filter.ScopeManagerID > 0 {
		args = append(args, filter.ScopeManagerID)
		conditions = append(conditions, fmt.Sprintf("(id = $%d OR manager_id = $%d)", len(args), len(args)))
	}
	if filter.Department != "" {
		args = append(args, filter.Department)
		conditions = append(conditions, fmt.Sprintf("department = $%d", len(args)))
	}
	if filter.Role != nil {
		args = append(args, *filter.Role)
		conditions = append(conditions, fmt.Sprintf("role = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(email) LIKE $%d)", len(args), len(args)))
	}

	where := " WHERE " + strings.Join(conditions, " AND ")
	page, pageSize := normalisePage(filter.Page, filter.PageSize)

	listQuery := fmt.Sprintf("SELECT %s FROM staff%s ORDER BY name ASC, id ASC LIMIT %d OFFSET %d", staffColumns, where, pageSize, (page-1)*pageSize)
	var staff []models.Staff
	if err := r.db.SelectContext(ctx, &staff, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list staff: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM staff"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count staff: %w", err)
	}
	return staff, total, nil
}

// Create inserts a staff member and populates generated fields.
func (r *StaffRepository) Create(ctx context.Context, staff *models.Staff) error {
	const query = `INSERT INTO staff (name, email, password_hash, department, role, manager_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
RETURNING id, created_at, updated_at`
	now := time.Now().UTC()
	row := r.db.QueryRowxContext(ctx, query, staff.Name, staff.Email, staff.PasswordHash, staff.Department, staff.Role, staff.ManagerID, now)
	if err := row.Scan(&staff.ID, &staff.CreatedAt, &staff.UpdatedAt); err != nil {
		if isUniqueViolation(err, staffEmailConstraint) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("create staff: %w", err)
	}
	return nil
}

// Update persists profile, role and manager assignment.
func (r *StaffRepository) Update(ctx context.Context, staff *models.Staff) error {
	staff.UpdatedAt = time.Now().UTC()
	const query = `UPDATE staff SET name = :name, department = :department, role = :role, manager_id = :manager_id, updated_at = :updated_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, staff)
	if err != nil {
		return fmt.Errorf("update staff: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check staff update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdatePassword updates the stored password hash.
func (r *StaffRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string, updatedAt time.Time) error {
	const query = `UPDATE staff SET password_hash = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, passwordHash, updatedAt); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// CountReports returns how many reports the staff member owns.
func (r *StaffRepository) CountReports(ctx context.Context, id int64) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM daily_reports WHERE staff_id = $1`, id); err != nil {
		return 0, fmt.Errorf("count staff reports: %w", err)
	}
	return count, nil
}

// CountSubordinates returns how many staff report to the given manager.
func (r *StaffRepository) CountSubordinates(ctx context.Context, id int64) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM staff WHERE manager_id = $1`, id); err != nil {
		return 0, fmt.Errorf("count subordinates: %w", err)
	}
	return count, nil
}

// Delete hard-deletes a staff member. Rows still referenced by reports, comments or subordinates are rejected.
func (r *StaffRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM staff WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err, "") {
			return ErrStaffReferenced
		}
		return fmt.Errorf("delete staff: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check staff delete rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func normalisePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
