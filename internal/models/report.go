package models

import "time"

// ReportStatus captures workflow states for daily reports.
type ReportStatus string

const (
	ReportStatusDraft     ReportStatus = "draft"
	ReportStatusSubmitted ReportStatus = "submitted"
	ReportStatusApproved  ReportStatus = "approved"
	ReportStatusRejected  ReportStatus = "rejected"
)

// Valid reports whether the status is one of the four workflow states.
func (s ReportStatus) Valid() bool {
	switch s {
	case ReportStatusDraft, ReportStatusSubmitted, ReportStatusApproved, ReportStatusRejected:
		return true
	}
	return false
}

// Editable reports whether content may be replaced in this state.
func (s ReportStatus) Editable() bool {
	return s == ReportStatusDraft || s == ReportStatusRejected
}

// DailyReport is one staff member's report for one calendar date.
// ReportDate is formatted YYYY-MM-DD. OwnerName and OwnerManagerID are read-only joins from staff.
type DailyReport struct {
	ID             int64        `db:"id" json:"id"`
	StaffID        int64        `db:"staff_id" json:"staffId"`
	OwnerName      string       `db:"owner_name" json:"staffName,omitempty"`
	OwnerManagerID *int64       `db:"owner_manager_id" json:"-"`
	ReportDate     string       `db:"report_date" json:"reportDate"`
	Problem        string       `db:"problem" json:"problem"`
	Plan           string       `db:"plan" json:"plan"`
	Status         ReportStatus `db:"status" json:"status"`
	SubmittedAt    *time.Time   `db:"submitted_at" json:"submittedAt,omitempty"`
	ApprovedAt     *time.Time   `db:"approved_at" json:"approvedAt,omitempty"`
	ApproverID     *int64       `db:"approver_id" json:"approverId,omitempty"`
	VisitCount     int          `db:"visit_count" json:"visitCount"`
	CreatedAt      time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time    `db:"updated_at" json:"updatedAt"`
}

// Visit is a customer visit owned by a report. VisitTime is formatted HH:MM and inherits the report date.
type Visit struct {
	ID            int64     `db:"id" json:"id"`
	DailyReportID int64     `db:"daily_report_id" json:"dailyReportId"`
	CustomerID    int64     `db:"customer_id" json:"customerId"`
	CustomerName  string    `db:"customer_name" json:"customerName,omitempty"`
	VisitTime     string    `db:"visit_time" json:"visitTime"`
	Content       string    `db:"content" json:"content"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}

// Comment is an append-only note on a report.
type Comment struct {
	ID            int64     `db:"id" json:"id"`
	DailyReportID int64     `db:"daily_report_id" json:"dailyReportId"`
	StaffID       int64     `db:"staff_id" json:"staffId"`
	AuthorName    string    `db:"author_name" json:"authorName,omitempty"`
	Content       string    `db:"content" json:"content"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}

// ReportFilter constrains report listing. StaffIDs and ScopeActorID are always set by the service.
type ReportFilter struct {
	StaffIDs     []int64
	ScopeActorID int64
	Status       []ReportStatus
	DateFrom     string
	DateTo       string
	Page         int
	PageSize     int
}

// ReportEvent names a workflow event applied to an existing report.
type ReportEvent string

const (
	ReportEventSubmit  ReportEvent = "submit"
	ReportEventApprove ReportEvent = "approve"
	ReportEventReject  ReportEvent = "reject"
)
