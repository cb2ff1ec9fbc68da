package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sales-daily-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return sqlxDB, mock, func() { _ = sqlxDB.Close() }
}

var reportColumns = []string{"id", "staff_id", "owner_name", "owner_manager_id", "report_date", "problem", "plan", "status", "submitted_at", "approved_at", "approver_id", "visit_count", "created_at", "updated_at"}

func TestReportRepositoryCreateWithVisits(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO daily_reports")).
		WithArgs(int64(7), "2024-01-10", "slow week", "call back", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(11), now, now))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO visits")).
		WithArgs(int64(11), int64(3), "09:30", "demo", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	report := &models.DailyReport{StaffID: 7, ReportDate: "2024-01-10", Problem: "slow week", Plan: "call back", Status: models.ReportStatusDraft}
	err := repo.Create(context.Background(), report, []models.Visit{{CustomerID: 3, VisitTime: "09:30", Content: "demo"}})
	require.NoError(t, err)
	assert.Equal(t, int64(11), report.ID)
	assert.Equal(t, 1, report.VisitCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryCreateDuplicateDate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO daily_reports")).
		WillReturnError(&pq.Error{Code: pqUniqueViolation, Constraint: reportDateConstraint})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.DailyReport{StaffID: 7, ReportDate: "2024-01-10", Status: models.ReportStatusDraft}, nil)
	require.ErrorIs(t, err, ErrDuplicateReportDate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryCreateUnknownCustomerRollsBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO daily_reports")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(11), now, now))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO visits")).
		WillReturnError(&pq.Error{Code: pqForeignKeyViolation, Constraint: visitCustomerFK})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.DailyReport{StaffID: 7, ReportDate: "2024-01-10", Status: models.ReportStatusDraft},
		[]models.Visit{{CustomerID: 99, VisitTime: "10:00", Content: "x"}})
	require.ErrorIs(t, err, ErrUnknownCustomer)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)
	now := time.Now()

	rows := sqlmock.NewRows(reportColumns).
		AddRow(int64(11), int64(7), "Sari", int64(2), "2024-01-10", "", "", "submitted", now, nil, nil, 1, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM daily_reports r")).WithArgs(int64(11)).WillReturnRows(rows)

	report, err := repo.FindByID(context.Background(), 11)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusSubmitted, report.Status)
	require.NotNil(t, report.OwnerManagerID)
	assert.Equal(t, int64(2), *report.OwnerManagerID)
	assert.Equal(t, "2024-01-10", report.ReportDate)

	mock.ExpectQuery(regexp.QuoteMeta("FROM daily_reports r")).WithArgs(int64(12)).WillReturnError(sql.ErrNoRows)
	_, err = repo.FindByID(context.Background(), 12)
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestReportRepositoryListScoped(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)
	now := time.Now()

	rows := sqlmock.NewRows(reportColumns).
		AddRow(int64(11), int64(7), "Sari", int64(2), "2024-01-10", "", "", "draft", nil, nil, nil, 0, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE r.staff_id = ANY($1) AND (s.id = $2 OR s.manager_id = $2) AND r.report_date >= $3::date")).
		WithArgs(sqlmock.AnyArg(), int64(2), "2024-01-01").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM daily_reports r JOIN staff s")).
		WithArgs(sqlmock.AnyArg(), int64(2), "2024-01-01").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	reports, total, err := repo.List(context.Background(), models.ReportFilter{StaffIDs: []int64{2, 7}, ScopeActorID: 2, DateFrom: "2024-01-01"})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, 1, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryListWithoutScopeReturnsEmpty(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	reports, total, err := repo.List(context.Background(), models.ReportFilter{})
	require.NoError(t, err)
	assert.Empty(t, reports)
	assert.Zero(t, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryListPending(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE r.status = 'submitted' AND s.manager_id = $1")).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows(reportColumns))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM daily_reports r")).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	reports, total, err := repo.ListPending(context.Background(), 2, 1, 20)
	require.NoError(t, err)
	assert.Empty(t, reports)
	assert.Zero(t, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryReplaceContentAndSubmit(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM daily_reports WHERE id = $1 FOR UPDATE")).
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("rejected"))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM visits WHERE daily_report_id = $1")).
		WithArgs(int64(11)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO visits")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("status = 'submitted'")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.ReplaceContent(context.Background(), ReplaceContentParams{
		ReportID:    11,
		Problem:     "more detail",
		Visits:      []models.Visit{{CustomerID: 3, VisitTime: "14:00", Content: "follow up"}},
		Submit:      true,
		SubmittedAt: time.Now(),
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryReplaceContentRejectsLockedState(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("submitted"))
	mock.ExpectRollback()

	err := repo.ReplaceContent(context.Background(), ReplaceContentParams{ReportID: 11})
	require.ErrorIs(t, err, ErrReportStateChanged)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryReplaceContentSubmitWithoutVisits(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("draft"))
	mock.ExpectRollback()

	err := repo.ReplaceContent(context.Background(), ReplaceContentParams{ReportID: 11, Submit: true})
	require.ErrorIs(t, err, ErrReportWithoutVisits)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryTransitionRejectWithComment(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("submitted"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE daily_reports")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO comments")).
		WithArgs(int64(11), int64(2), "add detail", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(5), now))
	mock.ExpectCommit()

	comment := &models.Comment{StaffID: 2, Content: "add detail"}
	err := repo.Transition(context.Background(), TransitionParams{
		ReportID: 11,
		From:     models.ReportStatusSubmitted,
		To:       models.ReportStatusRejected,
		Comment:  comment,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), comment.ID)
	assert.Equal(t, int64(11), comment.DailyReportID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryTransitionGuards(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("approved"))
	mock.ExpectRollback()
	err := repo.Transition(context.Background(), TransitionParams{ReportID: 11, From: models.ReportStatusSubmitted, To: models.ReportStatusApproved})
	require.ErrorIs(t, err, ErrReportStateChanged)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("draft"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM visits")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectRollback()
	err = repo.Transition(context.Background(), TransitionParams{ReportID: 11, From: models.ReportStatusDraft, To: models.ReportStatusSubmitted, RequireVisits: true})
	require.ErrorIs(t, err, ErrReportWithoutVisits)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()
	err = repo.Transition(context.Background(), TransitionParams{ReportID: 12, From: models.ReportStatusDraft, To: models.ReportStatusSubmitted})
	require.ErrorIs(t, err, sql.ErrNoRows)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryDeleteDraft(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM daily_reports WHERE id = $1 FOR UPDATE")).
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("draft"))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM daily_reports WHERE id = $1 AND status = 'draft'")).
		WithArgs(int64(11)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	require.NoError(t, repo.DeleteDraft(context.Background(), 11))

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(int64(12)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("submitted"))
	mock.ExpectRollback()
	require.ErrorIs(t, repo.DeleteDraft(context.Background(), 12), ErrReportStateChanged)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(int64(13)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()
	require.ErrorIs(t, repo.DeleteDraft(context.Background(), 13), sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryReplaceContentRejectedNeedsVisits(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("rejected"))
	mock.ExpectRollback()

	err := repo.ReplaceContent(context.Background(), ReplaceContentParams{ReportID: 11, Problem: "no visits"})
	require.ErrorIs(t, err, ErrReportWithoutVisits)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryListVisitsOrdered(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "daily_report_id", "customer_id", "customer_name", "visit_time", "content", "created_at"}).
		AddRow(int64(1), int64(11), int64(3), "Acme", "09:00", "intro", now).
		AddRow(int64(2), int64(11), int64(4), "Globex", "13:30", "demo", now)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY v.visit_time ASC")).WithArgs(int64(11)).WillReturnRows(rows)

	visits, err := repo.ListVisits(context.Background(), 11)
	require.NoError(t, err)
	require.Len(t, visits, 2)
	assert.Equal(t, "09:00", visits[0].VisitTime)
	assert.Equal(t, "Globex", visits[1].CustomerName)
}
