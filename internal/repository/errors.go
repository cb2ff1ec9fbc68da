package repository

import (
	"errors"

	"github.com/lib/pq"
)

// Sentinel errors surfaced by repositories; services translate them into API errors.
var (
	ErrDuplicateReportDate = errors.New("report already exists for staff and date")
	ErrReportStateChanged  = errors.New("report status does not match expected state")
	ErrReportWithoutVisits = errors.New("report has no visits")
	ErrUnknownCustomer     = errors.New("referenced customer does not exist")
	ErrStaffReferenced     = errors.New("staff is still referenced")
	ErrDuplicateEmail      = errors.New("email already registered")
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"

	reportDateConstraint = "daily_reports_staff_date_key"
	staffEmailConstraint = "staff_email_key"
	visitCustomerFK      = "visits_customer_id_fkey"
)

func pqErrorCode(err error) (pq.ErrorCode, string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code, pqErr.Constraint, true
	}
	return "", "", false
}

func isUniqueViolation(err error, constraint string) bool {
	code, name, ok := pqErrorCode(err)
	return ok && code == pqUniqueViolation && (constraint == "" || name == constraint)
}

func isForeignKeyViolation(err error, constraint string) bool {
	code, name, ok := pqErrorCode(err)
	return ok && code == pqForeignKeyViolation && (constraint == "" || name == constraint)
}
