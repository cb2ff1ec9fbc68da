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
	"github.com/noah-isme/sales-daily-api/pkg/database"
)

const reportSelect = `SELECT
	r.id,
	r.staff_id,
	s.name AS owner_name,
	s.manager_id AS owner_manager_id,
	to_char(r.report_date, 'YYYY-MM-DD') AS report_date,
	r.problem,
	r.plan,
	r.status,
	r.submitted_at,
	r.approved_at,
	r.approver_id,
	(SELECT COUNT(*) FROM visits v WHERE v.daily_report_id = r.id) AS visit_count,
	r.created_at,
	r.updated_at
FROM daily_reports r
JOIN staff s ON s.id = r.staff_id`

// ReplaceContentParams describes an atomic content replacement, optionally followed by submission.
type ReplaceContentParams struct {
	ReportID    int64
	Problem     string
	Plan        string
	Visits      []models.Visit
	Submit      bool
	SubmittedAt time.Time
}

// TransitionParams describes a status-guarded workflow transition.
type TransitionParams struct {
	ReportID      int64
	From          models.ReportStatus
	To            models.ReportStatus
	RequireVisits bool
	SubmittedAt   *time.Time
	ApprovedAt    *time.Time
	ApproverID    *int64
	Comment       *models.Comment
}

// ReportRepository persists the daily report aggregate: reports, visits and comments.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs a ReportRepository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create inserts a report and its visits in a single transaction.
func (r *ReportRepository) Create(ctx context.Context, report *models.DailyReport, visits []models.Visit) error {
	const query = `INSERT INTO daily_reports (staff_id, report_date, problem, plan, status, submitted_at, created_at, updated_at)
VALUES ($1, $2::date, $3, $4, $5, $6, $7, $7)
RETURNING id, created_at, updated_at`

	now := time.Now().UTC()
	return database.WithTx(ctx, r.db, nil, func(tx *sqlx.Tx) error {
		row := tx.QueryRowxContext(ctx, query, report.StaffID, report.ReportDate, report.Problem, report.Plan, report.Status, report.SubmittedAt, now)
		if err := row.Scan(&report.ID, &report.CreatedAt, &report.UpdatedAt); err != nil {
			if isUniqueViolation(err, reportDateConstraint) {
				return ErrDuplicateReportDate
			}
			return fmt.Errorf("create report: %w", err)
		}
		if err := insertVisits(ctx, tx, report.ID, visits, now); err != nil {
			return err
		}
		report.VisitCount = len(visits)
		return nil
	})
}

// FindByID returns the report with its owner's name and current manager id.
func (r *ReportRepository) FindByID(ctx context.Context, id int64) (*models.DailyReport, error) {
	query := reportSelect + "\nWHERE r.id = $1"
	var report models.DailyReport
	if err := r.db.GetContext(ctx, &report, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find report: %w", err)
	}
	return &report, nil
}

// ListVisits returns the report's visits ordered by visit time.
func (r *ReportRepository) ListVisits(ctx context.Context, reportID int64) ([]models.Visit, error) {
	const query = `SELECT v.id, v.daily_report_id, v.customer_id, c.name AS customer_name, to_char(v.visit_time, 'HH24:MI') AS visit_time, v.content, v.created_at
FROM visits v
JOIN customers c ON c.id = v.customer_id
WHERE v.daily_report_id = $1
ORDER BY v.visit_time ASC, v.id ASC`
	visits := []models.Visit{}
	if err := r.db.SelectContext(ctx, &visits, query, reportID); err != nil {
		return nil, fmt.Errorf("list visits: %w", err)
	}
	return visits, nil
}

// ListComments returns the report's comments newest first.
func (r *ReportRepository) ListComments(ctx context.Context, reportID int64) ([]models.Comment, error) {
	const query = `SELECT cm.id, cm.daily_report_id, cm.staff_id, s.name AS author_name, cm.content, cm.created_at
FROM comments cm
JOIN staff s ON s.id = cm.staff_id
WHERE cm.daily_report_id = $1
ORDER BY cm.created_at DESC, cm.id DESC`
	comments := []models.Comment{}
	if err := r.db.SelectContext(ctx, &comments, query, reportID); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

// List returns reports owned by filter.StaffIDs. ScopeActorID re-checks the hierarchy against the staff table.
func (r *ReportRepository) List(ctx context.Context, filter models.ReportFilter) ([]models.DailyReport, int, error) {
	if len(filter.StaffIDs) == 0 {
		return []models.DailyReport{}, 0, nil
	}

	args := []interface{}{pq.Array(filter.StaffIDs)}
	conditions := []string{"r.staff_id = ANY($1)"}

	if filter.ScopeActorID > 0 {
		args = append(args, filter.ScopeActorID)
		conditions = append(conditions, fmt.Sprintf("(s.id = $%d OR s.manager_id = $%d)", len(args), len(args)))
	}
	if len(filter.Status) > 0 {
		statuses := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			statuses[i] = string(status)
		}
		args = append(args, pq.Array(statuses))
		conditions = append(conditions, fmt.Sprintf("r.status = ANY($%d)", len(args)))
	}
	if filter.DateFrom != "" {
		args = append(args, filter.DateFrom)
		conditions = append(conditions, fmt.Sprintf("r.report_date >= $%d::date", len(args)))
	}
	if filter.DateTo != "" {
		args = append(args, filter.DateTo)
		conditions = append(conditions, fmt.Sprintf("r.report_date <= $%d::date", len(args)))
	}

	return r.list(ctx, strings.Join(conditions, " AND "), args, filter.Page, filter.PageSize)
}

// ListPending returns submitted reports owned by the manager's direct subordinates.
func (r *ReportRepository) ListPending(ctx context.Context, managerID int64, page, pageSize int) ([]models.DailyReport, int, error) {
	return r.list(ctx, "r.status = 'submitted' AND s.manager_id = $1", []interface{}{managerID}, page, pageSize)
}

func (r *ReportRepository) list(ctx context.Context, where string, args []interface{}, page, pageSize int) ([]models.DailyReport, int, error) {
	page, pageSize = normalisePage(page, pageSize)

	listQuery := fmt.Sprintf("%s\nWHERE %s\nORDER BY r.report_date DESC, r.id DESC LIMIT %d OFFSET %d", reportSelect, where, pageSize, (page-1)*pageSize)
	reports := []models.DailyReport{}
	if err := r.db.SelectContext(ctx, &reports, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list reports: %w", err)
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM daily_reports r JOIN staff s ON s.id = r.staff_id WHERE " + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count reports: %w", err)
	}
	return reports, total, nil
}

// ReplaceContent swaps problem, plan and the whole visit set while the report is editable.
// When Submit is set the report moves to submitted in the same transaction.
func (r *ReportRepository) ReplaceContent(ctx context.Context, params ReplaceContentParams) error {
	return database.WithTx(ctx, r.db, nil, func(tx *sqlx.Tx) error {
		status, err := lockReportStatus(ctx, tx, params.ReportID)
		if err != nil {
			return err
		}
		if !status.Editable() {
			return ErrReportStateChanged
		}
		if (params.Submit || status == models.ReportStatusRejected) && len(params.Visits) == 0 {
			return ErrReportWithoutVisits
		}

		now := time.Now().UTC()
		if _, err := tx.ExecContext(ctx, `DELETE FROM visits WHERE daily_report_id = $1`, params.ReportID); err != nil {
			return fmt.Errorf("delete visits: %w", err)
		}
		if err := insertVisits(ctx, tx, params.ReportID, params.Visits, now); err != nil {
			return err
		}

		if params.Submit {
			const query = `UPDATE daily_reports SET problem = $2, plan = $3, status = 'submitted', submitted_at = $4, approved_at = NULL, approver_id = NULL, updated_at = $5 WHERE id = $1`
			if _, err := tx.ExecContext(ctx, query, params.ReportID, params.Problem, params.Plan, params.SubmittedAt, now); err != nil {
				return fmt.Errorf("update report content: %w", err)
			}
			return nil
		}

		const query = `UPDATE daily_reports SET problem = $2, plan = $3, updated_at = $4 WHERE id = $1`
		if _, err := tx.ExecContext(ctx, query, params.ReportID, params.Problem, params.Plan, now); err != nil {
			return fmt.Errorf("update report content: %w", err)
		}
		return nil
	})
}

// Transition moves a report from params.From to params.To under a row lock.
// A nil SubmittedAt keeps the stored value; approval fields are always overwritten.
func (r *ReportRepository) Transition(ctx context.Context, params TransitionParams) error {
	return database.WithTx(ctx, r.db, nil, func(tx *sqlx.Tx) error {
		status, err := lockReportStatus(ctx, tx, params.ReportID)
		if err != nil {
			return err
		}
		if status != params.From {
			return ErrReportStateChanged
		}

		if params.RequireVisits {
			var count int
			if err := tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM visits WHERE daily_report_id = $1`, params.ReportID); err != nil {
				return fmt.Errorf("count visits: %w", err)
			}
			if count == 0 {
				return ErrReportWithoutVisits
			}
		}

		now := time.Now().UTC()
		const query = `UPDATE daily_reports
SET status = $2, submitted_at = COALESCE($3, submitted_at), approved_at = $4, approver_id = $5, updated_at = $6
WHERE id = $1 AND status = $7`
		result, err := tx.ExecContext(ctx, query, params.ReportID, params.To, params.SubmittedAt, params.ApprovedAt, params.ApproverID, now, params.From)
		if err != nil {
			return fmt.Errorf("transition report: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("check transition rows: %w", err)
		}
		if rows == 0 {
			return ErrReportStateChanged
		}

		if params.Comment != nil {
			params.Comment.DailyReportID = params.ReportID
			if err := insertComment(ctx, tx, params.Comment); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteDraft removes a draft report under a row lock; visits and comments cascade.
// A missing row yields sql.ErrNoRows, a non-draft row ErrReportStateChanged.
func (r *ReportRepository) DeleteDraft(ctx context.Context, id int64) error {
	return database.WithTx(ctx, r.db, nil, func(tx *sqlx.Tx) error {
		status, err := lockReportStatus(ctx, tx, id)
		if err != nil {
			return err
		}
		if status != models.ReportStatusDraft {
			return ErrReportStateChanged
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM daily_reports WHERE id = $1 AND status = 'draft'`, id); err != nil {
			return fmt.Errorf("delete report: %w", err)
		}
		return nil
	})
}

// CreateComment appends a comment to a report.
func (r *ReportRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	return insertComment(ctx, r.db, comment)
}

func lockReportStatus(ctx context.Context, tx *sqlx.Tx, id int64) (models.ReportStatus, error) {
	var status models.ReportStatus
	if err := tx.GetContext(ctx, &status, `SELECT status FROM daily_reports WHERE id = $1 FOR UPDATE`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", err
		}
		return "", fmt.Errorf("lock report: %w", err)
	}
	return status, nil
}

func insertVisits(ctx context.Context, tx *sqlx.Tx, reportID int64, visits []models.Visit, createdAt time.Time) error {
	const query = `INSERT INTO visits (daily_report_id, customer_id, visit_time, content, created_at) VALUES ($1, $2, $3::time, $4, $5)`
	for _, visit := range visits {
		if _, err := tx.ExecContext(ctx, query, reportID, visit.CustomerID, visit.VisitTime, visit.Content, createdAt); err != nil {
			if isForeignKeyViolation(err, visitCustomerFK) {
				return ErrUnknownCustomer
			}
			return fmt.Errorf("insert visit: %w", err)
		}
	}
	return nil
}

func insertComment(ctx context.Context, q sqlx.QueryerContext, comment *models.Comment) error {
	const query = `INSERT INTO comments (daily_report_id, staff_id, content, created_at) VALUES ($1, $2, $3, $4) RETURNING id, created_at`
	row := q.QueryRowxContext(ctx, query, comment.DailyReportID, comment.StaffID, comment.Content, time.Now().UTC())
	if err := row.Scan(&comment.ID, &comment.CreatedAt); err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}
